package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"github.com/StarchLinux/pacman/internal/alpm"
)

// PackageRecord is the on-disk form of one local database entry: the
// fields of alpm.Package that survive to disk, plus the install
// reason, serialized with go-toml/v2 rather than libalpm's custom
// desc/files/depends key-value format.
type PackageRecord struct {
	Name         string              `toml:"name"`
	Version      string              `toml:"version"`
	BuildDate    int64               `toml:"build_date,omitempty"`
	Reason       int                 `toml:"reason"`
	Depends      []alpm.DependExpr   `toml:"depends,omitempty"`
	OptDepends   []alpm.DependExpr   `toml:"opt_depends,omitempty"`
	Provides     []alpm.DependExpr   `toml:"provides,omitempty"`
	Conflicts    []alpm.DependExpr   `toml:"conflicts,omitempty"`
	Replaces     []alpm.DependExpr   `toml:"replaces,omitempty"`
	Backup       []alpm.BackupEntry  `toml:"backup,omitempty"`
	Files        []alpm.FileEntry    `toml:"files,omitempty"`
	HasScriptlet bool                `toml:"has_scriptlet,omitempty"`
	ISize        int64               `toml:"isize,omitempty"`
	Groups       []string            `toml:"groups,omitempty"`
}

// recordDir returns the directory a package's record lives in, named
// the way libalpm names local database entries: "<name>-<version>".
func recordDir(localDBDir, name, version string) string {
	return filepath.Join(localDBDir, name+"-"+version)
}

// WritePackageRecord persists pkg's local database entry under
// localDBDir.
func WritePackageRecord(localDBDir string, pkg *alpm.Package, reason alpm.Reason) error {
	dir := recordDir(localDBDir, pkg.Name, pkg.Version)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", dir)
	}
	rec := PackageRecord{
		Name:         pkg.Name,
		Version:      pkg.Version,
		BuildDate:    pkg.BuildDate,
		Reason:       int(reason),
		Depends:      pkg.Depends,
		OptDepends:   pkg.OptDepends,
		Provides:     pkg.Provides,
		Conflicts:    pkg.Conflicts,
		Replaces:     pkg.Replaces,
		Backup:       pkg.Backup,
		Files:        pkg.Files,
		HasScriptlet: pkg.HasScriptlet,
		ISize:        pkg.ISize,
		Groups:       pkg.Groups,
	}
	data, err := toml.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "encoding package record")
	}
	return errors.Wrapf(os.WriteFile(filepath.Join(dir, "desc.toml"), data, 0o644), "writing record for %s", pkg.Name)
}

// RemovePackageRecord deletes a package's local database entry.
func RemovePackageRecord(localDBDir, name, version string) error {
	return os.RemoveAll(recordDir(localDBDir, name, version))
}

// LoadLocalDB reads every package record under localDBDir and returns
// them as the (*alpm.Package, alpm.Reason) pairs alpm.LocalDatabase.Load
// expects. A missing directory yields an empty database, not an error.
func LoadLocalDB(localDBDir string) ([]*alpm.Package, []alpm.Reason, error) {
	entries, err := os.ReadDir(localDBDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, errors.Wrapf(err, "reading %s", localDBDir)
	}

	var pkgs []*alpm.Package
	var reasons []alpm.Reason

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		descPath := filepath.Join(localDBDir, entry.Name(), "desc.toml")
		data, err := os.ReadFile(descPath)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, nil, errors.Wrapf(err, "reading %s", descPath)
		}
		var rec PackageRecord
		if err := toml.Unmarshal(data, &rec); err != nil {
			return nil, nil, errors.Wrapf(err, "parsing %s", descPath)
		}
		pkgs = append(pkgs, &alpm.Package{
			Name:         rec.Name,
			Version:      rec.Version,
			BuildDate:    rec.BuildDate,
			Depends:      rec.Depends,
			OptDepends:   rec.OptDepends,
			Provides:     rec.Provides,
			Conflicts:    rec.Conflicts,
			Replaces:     rec.Replaces,
			Backup:       rec.Backup,
			Files:        rec.Files,
			HasScriptlet: rec.HasScriptlet,
			ISize:        rec.ISize,
			Groups:       rec.Groups,
			Origin:       alpm.OriginLocalDB,
		})
		reasons = append(reasons, alpm.Reason(rec.Reason))
	}

	return pkgs, reasons, nil
}
