package alpm

import (
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hashOf(t *testing.T, content string) string {
	t.Helper()
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

func TestRemoveDeletesFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "usr", "bin"), 0o755))
	file := filepath.Join(root, "usr", "bin", "foo")
	require.NoError(t, os.WriteFile(file, []byte("binary"), 0o755))

	pkg := &Package{
		Name: "foo",
		Files: []FileEntry{
			{Path: "usr/"},
			{Path: "usr/bin/"},
			{Path: "usr/bin/foo"},
		},
	}

	re := &RemoveExecutor{Root: root}
	require.NoError(t, re.Remove(pkg, RemoveOptions{}))

	_, err := os.Lstat(file)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Lstat(filepath.Join(root, "usr", "bin"))
	assert.True(t, os.IsNotExist(err))
}

func TestRemoveLeavesNonEmptyDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "etc"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "etc", "other-owner-file"), []byte("x"), 0o644))

	pkg := &Package{Name: "foo", Files: []FileEntry{{Path: "etc/"}}}
	re := &RemoveExecutor{Root: root}
	require.NoError(t, re.Remove(pkg, RemoveOptions{}))

	fi, err := os.Lstat(filepath.Join(root, "etc"))
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
}

func TestRemovePreservesModifiedBackupAsPacsave(t *testing.T) {
	root := t.TempDir()
	confPath := filepath.Join(root, "etc", "foo.conf")
	require.NoError(t, os.MkdirAll(filepath.Dir(confPath), 0o755))
	require.NoError(t, os.WriteFile(confPath, []byte("edited by admin"), 0o644))

	pkg := &Package{
		Name:   "foo",
		Files:  []FileEntry{{Path: "etc/foo.conf"}},
		Backup: []BackupEntry{{Path: "etc/foo.conf", Hash: hashOf(t, "original content")}},
	}

	re := &RemoveExecutor{Root: root}
	require.NoError(t, re.Remove(pkg, RemoveOptions{}))

	_, err := os.Lstat(confPath)
	assert.True(t, os.IsNotExist(err))
	saved, err := os.ReadFile(confPath + ".pacsave")
	require.NoError(t, err)
	assert.Equal(t, "edited by admin", string(saved))
}

func TestRemoveSkipsUnmodifiedBackup(t *testing.T) {
	root := t.TempDir()
	confPath := filepath.Join(root, "etc", "foo.conf")
	require.NoError(t, os.MkdirAll(filepath.Dir(confPath), 0o755))
	require.NoError(t, os.WriteFile(confPath, []byte("original content"), 0o644))

	pkg := &Package{
		Name:   "foo",
		Files:  []FileEntry{{Path: "etc/foo.conf"}},
		Backup: []BackupEntry{{Path: "etc/foo.conf", Hash: hashOf(t, "original content")}},
	}

	re := &RemoveExecutor{Root: root}
	require.NoError(t, re.Remove(pkg, RemoveOptions{}))

	_, err := os.Lstat(confPath + ".pacsave")
	assert.True(t, os.IsNotExist(err))
}

func TestRemoveNoSaveSkipsBackup(t *testing.T) {
	root := t.TempDir()
	confPath := filepath.Join(root, "etc", "foo.conf")
	require.NoError(t, os.MkdirAll(filepath.Dir(confPath), 0o755))
	require.NoError(t, os.WriteFile(confPath, []byte("edited"), 0o644))

	pkg := &Package{
		Name:   "foo",
		Files:  []FileEntry{{Path: "etc/foo.conf"}},
		Backup: []BackupEntry{{Path: "etc/foo.conf", Hash: hashOf(t, "original")}},
	}

	re := &RemoveExecutor{Root: root}
	require.NoError(t, re.Remove(pkg, RemoveOptions{NoSave: true}))

	_, err := os.Lstat(confPath + ".pacsave")
	assert.True(t, os.IsNotExist(err))
}

func TestRemoveSkipsFilesOwnedByNewPkg(t *testing.T) {
	root := t.TempDir()
	shared := filepath.Join(root, "usr", "lib", "libshared.so")
	require.NoError(t, os.MkdirAll(filepath.Dir(shared), 0o755))
	require.NoError(t, os.WriteFile(shared, []byte("lib"), 0o644))

	oldPkg := &Package{Name: "foo", Version: "1.0-1", Files: []FileEntry{{Path: "usr/lib/libshared.so"}}}
	newPkg := &Package{Name: "foo", Version: "2.0-1", Files: []FileEntry{{Path: "usr/lib/libshared.so"}}}

	re := &RemoveExecutor{Root: root}
	require.NoError(t, re.Remove(oldPkg, RemoveOptions{NewPkg: newPkg}))

	_, err := os.Lstat(shared)
	assert.NoError(t, err, "file shared with the incoming package must survive removal")
}

func TestRemoveHonorsSkipRemove(t *testing.T) {
	root := t.TempDir()
	protected := filepath.Join(root, "etc", "important.conf")
	require.NoError(t, os.MkdirAll(filepath.Dir(protected), 0o755))
	require.NoError(t, os.WriteFile(protected, []byte("keep me"), 0o644))

	pkg := &Package{Name: "foo", Files: []FileEntry{{Path: "etc/important.conf"}}}
	re := &RemoveExecutor{Root: root}
	skip := NewSkipList([]string{"etc/important.conf"})
	require.NoError(t, re.Remove(pkg, RemoveOptions{SkipRemove: skip}))

	_, err := os.Lstat(protected)
	assert.NoError(t, err)
}

func TestCanRemoveMissingFile(t *testing.T) {
	root := t.TempDir()
	re := &RemoveExecutor{Root: root}
	assert.False(t, re.CanRemove("nope", nil))
}

func TestCanRemoveSkipList(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "foo"), nil, 0o644))
	re := &RemoveExecutor{Root: root}
	skip := NewSkipList([]string{"foo"})
	assert.False(t, re.CanRemove("foo", skip))
}
