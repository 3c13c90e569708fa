package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepoRegistryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.toml")

	reg, err := LoadRepoRegistry(path)
	require.NoError(t, err)
	assert.Empty(t, reg.Repos)

	reg.Repos["core"] = RepoState{LastServer: "https://mirror.example", LastSyncUnix: 1700000000}
	require.NoError(t, reg.Save(path))

	reloaded, err := LoadRepoRegistry(path)
	require.NoError(t, err)
	require.Contains(t, reloaded.Repos, "core")
	assert.Equal(t, "https://mirror.example", reloaded.Repos["core"].LastServer)
}

func TestDescRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "desc.toml")
	entry := DescEntry{Name: "foo", Version: "1.0", Reason: 0, URL: "https://example.com"}
	require.NoError(t, WriteDesc(path, entry))

	got, err := ReadDesc(path)
	require.NoError(t, err)
	assert.Equal(t, entry, got)
}
