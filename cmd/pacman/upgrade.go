package main

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/StarchLinux/pacman/internal/alpm"
	"github.com/StarchLinux/pacman/internal/archive"
	"github.com/StarchLinux/pacman/internal/config"
)

func newUpgradeCmd() *cobra.Command {
	var (
		noDeps bool
		force  bool
	)

	cmd := &cobra.Command{
		Use:     "upgrade [archives...]",
		Aliases: []string{"-U", "U"},
		Short:   "install packages directly from local .pkg.tar.zst files",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			return runFileInstall(rt, args, alpm.TransFlags{NoDeps: noDeps, Force: force})
		},
	}

	cmd.Flags().BoolVar(&noDeps, "nodeps", false, "skip dependency resolution")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite conflicting files")
	return cmd
}

func runFileInstall(rt *runtime, paths []string, flags alpm.TransFlags) error {
	targets := make([]*alpm.Package, 0, len(paths))
	archivePaths := make(map[string]string, len(paths))

	for _, path := range paths {
		pkg, err := packageFromArchive(path)
		if err != nil {
			return errors.Wrapf(err, "reading %s", path)
		}
		targets = append(targets, pkg)
		archivePaths[pkg.Name] = path
	}

	tx, err := alpm.NewTransaction(rt.handle, flags)
	if err != nil {
		return err
	}
	if err := tx.AddInstall(targets...); err != nil {
		return err
	}
	if err := tx.Prepare(); err != nil {
		_ = tx.Release()
		return errors.Wrap(err, "preparing transaction")
	}
	if err := tx.Commit(archivePaths); err != nil {
		return errors.Wrap(err, "committing transaction")
	}

	for _, pkg := range targets {
		reason := rt.handle.Local.ReasonOf(pkg.Name)
		if err := config.WritePackageRecord(rt.cfg.LocalDBDir(), pkg, reason); err != nil {
			return errors.Wrapf(err, "recording %s in local database", pkg.Name)
		}
	}
	return nil
}

// packageFromArchive builds a *alpm.Package from a .pkg.tar.zst
// archive's .PKGINFO, the way a -U target is resolved without ever
// touching a sync repository.
func packageFromArchive(path string) (*alpm.Package, error) {
	info, err := archive.ReadInfo(path)
	if err != nil {
		return nil, err
	}
	return &alpm.Package{
		Name:      info.Name,
		Version:   info.Version,
		Size:      info.Size,
		BuildDate: info.BuildDate,
		Depends:   parseDependExprs(info.Depends),
		Provides:  parseDependExprs(info.Provides),
		Conflicts: parseDependExprs(info.Conflicts),
		Replaces:  parseDependExprs(info.Replaces),
		Origin:    alpm.OriginFile,
		Filename:  filepath.Base(path),
	}, nil
}

func parseDependExprs(raw []string) []alpm.DependExpr {
	if len(raw) == 0 {
		return nil
	}
	out := make([]alpm.DependExpr, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, alpm.ParseDependExpr(s))
	}
	return out
}
