package config

import (
	"os"

	"github.com/pkg/errors"
	"github.com/pelletier/go-toml/v2"
)

// RepoRegistry is a small persisted cache of repository metadata
// (last sync time, server that last answered) kept alongside the sync
// databases, so a future run can report staleness without re-reading
// every database header. Follows the teacher's manifest pattern of a
// typed struct round-tripped through a single config file, using
// go-toml/v2 rather than the teacher's TOML v1.
type RepoRegistry struct {
	Repos map[string]RepoState `toml:"repos"`
}

// RepoState is one repository's persisted sync bookkeeping.
type RepoState struct {
	LastServer string `toml:"last_server"`
	LastSyncUnix int64 `toml:"last_sync_unix"`
}

// LoadRepoRegistry reads the registry file at path, returning an empty
// registry (not an error) if the file doesn't exist yet.
func LoadRepoRegistry(path string) (*RepoRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &RepoRegistry{Repos: make(map[string]RepoState)}, nil
		}
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	var reg RepoRegistry
	if err := toml.Unmarshal(data, &reg); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	if reg.Repos == nil {
		reg.Repos = make(map[string]RepoState)
	}
	return &reg, nil
}

// Save persists the registry to path.
func (r *RepoRegistry) Save(path string) error {
	data, err := toml.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "encoding repo registry")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "writing %s", path)
}

// DescEntry mirrors the local database's per-package "desc" file
// fields that aren't already covered by alpm.Package, persisted as
// TOML rather than libalpm's custom key-value format.
type DescEntry struct {
	Name        string   `toml:"name"`
	Version     string   `toml:"version"`
	Reason      int      `toml:"reason"`
	Licenses    []string `toml:"licenses,omitempty"`
	URL         string   `toml:"url,omitempty"`
	Packager    string   `toml:"packager,omitempty"`
}

// WriteDesc writes a package's desc sidecar to path.
func WriteDesc(path string, d DescEntry) error {
	data, err := toml.Marshal(d)
	if err != nil {
		return errors.Wrap(err, "encoding desc entry")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "writing %s", path)
}

// ReadDesc reads a package's desc sidecar from path.
func ReadDesc(path string) (DescEntry, error) {
	var d DescEntry
	data, err := os.ReadFile(path)
	if err != nil {
		return d, errors.Wrapf(err, "reading %s", path)
	}
	if err := toml.Unmarshal(data, &d); err != nil {
		return d, errors.Wrapf(err, "parsing %s", path)
	}
	return d, nil
}
