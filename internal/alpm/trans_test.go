package alpm

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandle(t *testing.T) *Handle {
	root := t.TempDir()
	dbPath := t.TempDir()
	return NewHandle(root, dbPath)
}

func TestTransactionPrepareSimpleInstall(t *testing.T) {
	h := newTestHandle(t)
	zlib := &Package{Name: "zlib", Version: "1.2", Files: []FileEntry{{Path: "usr/lib/libz.so"}}}
	foo := &Package{Name: "foo", Version: "1.0", Depends: []DependExpr{{Name: "zlib", Op: OpAny}}, Files: []FileEntry{{Path: "usr/bin/foo"}}}
	h.Repos = []*Repository{newTestRepo("core", zlib, foo)}

	tx, err := NewTransaction(h, TransFlags{})
	require.NoError(t, err)
	require.NoError(t, tx.AddInstall(foo))
	require.NoError(t, tx.Prepare())

	assert.Equal(t, StatePrepared, tx.State())
	require.Len(t, tx.resolved, 2)
	assert.Equal(t, "zlib", tx.resolved[0].Name)
	assert.Equal(t, "foo", tx.resolved[1].Name)

	require.NoError(t, tx.Release())
}

func TestTransactionPrepareFailsOnFileConflict(t *testing.T) {
	h := newTestHandle(t)
	existing := &Package{Name: "bar", Version: "1.0", Files: []FileEntry{{Path: "usr/bin/clash"}}}
	h.Local.Load([]struct {
		Pkg    *Package
		Reason Reason
	}{{Pkg: existing, Reason: ReasonExplicit}})

	foo := &Package{Name: "foo", Version: "1.0", Files: []FileEntry{{Path: "usr/bin/clash"}}}
	h.Repos = []*Repository{newTestRepo("core", foo)}

	tx, err := NewTransaction(h, TransFlags{})
	require.NoError(t, err)
	require.NoError(t, tx.AddInstall(foo))

	err = tx.Prepare()
	require.Error(t, err)
	var fcErr *FileConflictsError
	require.ErrorAs(t, err, &fcErr)
	assert.Equal(t, StateInterrupted, tx.State())
}

func TestTransactionSecondLockFails(t *testing.T) {
	h := newTestHandle(t)
	_, err := NewTransaction(h, TransFlags{})
	require.NoError(t, err)

	h2 := NewHandle(h.Root, h.DBPath)
	_, err = NewTransaction(h2, TransFlags{})
	require.Error(t, err)
}

func TestTransactionPrepareRemoveCascade(t *testing.T) {
	// app depends on base; removing base with CASCADE must pull in app,
	// the dependent whose dependency is disappearing, not the other
	// way around.
	h := newTestHandle(t)
	base := &Package{Name: "base", Version: "1.0"}
	app := &Package{Name: "app", Version: "1.0", Depends: []DependExpr{{Name: "base", Op: OpAny}}}
	h.Local.Load([]struct {
		Pkg    *Package
		Reason Reason
	}{
		{Pkg: base, Reason: ReasonDepend},
		{Pkg: app, Reason: ReasonExplicit},
	})

	tx, err := NewTransaction(h, TransFlags{Cascade: true})
	require.NoError(t, err)
	require.NoError(t, tx.AddRemove(base))
	require.NoError(t, tx.Prepare())

	names := map[string]bool{}
	for _, p := range tx.toRemove {
		names[p.Name] = true
	}
	assert.True(t, names["app"])
	assert.True(t, names["base"])
}

func TestTransactionPrepareRemoveRecurseDropsOrphan(t *testing.T) {
	// app explicitly removed, depends on base which was pulled in only
	// as a dependency and has no other dependents left: RECURSE without
	// CASCADE should fold base into the removal set too.
	h := newTestHandle(t)
	base := &Package{Name: "base", Version: "1.0"}
	app := &Package{Name: "app", Version: "1.0", Depends: []DependExpr{{Name: "base", Op: OpAny}}}
	h.Local.Load([]struct {
		Pkg    *Package
		Reason Reason
	}{
		{Pkg: base, Reason: ReasonDepend},
		{Pkg: app, Reason: ReasonExplicit},
	})

	tx, err := NewTransaction(h, TransFlags{Recurse: true})
	require.NoError(t, err)
	require.NoError(t, tx.AddRemove(app))
	require.NoError(t, tx.Prepare())

	names := map[string]bool{}
	for _, p := range tx.toRemove {
		names[p.Name] = true
	}
	assert.True(t, names["app"])
	assert.True(t, names["base"])
}

func TestTransactionPrepareRemoveRecurseKeepsSharedDep(t *testing.T) {
	// base is also required by other, which isn't being removed: RECURSE
	// must leave base installed.
	h := newTestHandle(t)
	base := &Package{Name: "base", Version: "1.0"}
	app := &Package{Name: "app", Version: "1.0", Depends: []DependExpr{{Name: "base", Op: OpAny}}}
	other := &Package{Name: "other", Version: "1.0", Depends: []DependExpr{{Name: "base", Op: OpAny}}}
	h.Local.Load([]struct {
		Pkg    *Package
		Reason Reason
	}{
		{Pkg: base, Reason: ReasonDepend},
		{Pkg: app, Reason: ReasonExplicit},
		{Pkg: other, Reason: ReasonExplicit},
	})

	tx, err := NewTransaction(h, TransFlags{Recurse: true})
	require.NoError(t, err)
	require.NoError(t, tx.AddRemove(app))
	require.NoError(t, tx.Prepare())

	names := map[string]bool{}
	for _, p := range tx.toRemove {
		names[p.Name] = true
	}
	assert.True(t, names["app"])
	assert.False(t, names["base"])
}

func TestTransactionPrepareRemoveUnneededDropsStillNeeded(t *testing.T) {
	// app depends on base and app stays installed, so base is still
	// needed: requesting base alone with UNNEEDED drops it from the set
	// instead of failing.
	h := newTestHandle(t)
	base := &Package{Name: "base", Version: "1.0"}
	app := &Package{Name: "app", Version: "1.0", Depends: []DependExpr{{Name: "base", Op: OpAny}}}
	h.Local.Load([]struct {
		Pkg    *Package
		Reason Reason
	}{
		{Pkg: base, Reason: ReasonDepend},
		{Pkg: app, Reason: ReasonExplicit},
	})

	tx, err := NewTransaction(h, TransFlags{Unneeded: true})
	require.NoError(t, err)
	require.NoError(t, tx.AddRemove(base))
	require.NoError(t, tx.Prepare())

	names := map[string]bool{}
	for _, p := range tx.toRemove {
		names[p.Name] = true
	}
	assert.False(t, names["base"])
}

func TestTransactionCommitDBOnlyLeavesFilesInPlace(t *testing.T) {
	h := newTestHandle(t)
	path := h.Root + "/usr/bin/foo"
	require.NoError(t, os.MkdirAll(h.Root+"/usr/bin", 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	foo := &Package{Name: "foo", Version: "1.0", Files: []FileEntry{{Path: "usr/bin/foo"}}}
	h.Local.Load([]struct {
		Pkg    *Package
		Reason Reason
	}{{Pkg: foo, Reason: ReasonExplicit}})

	tx, err := NewTransaction(h, TransFlags{DBOnly: true, NoDeps: true})
	require.NoError(t, err)
	require.NoError(t, tx.AddRemove(foo))
	require.NoError(t, tx.Prepare())
	require.NoError(t, tx.Commit(nil))

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr, "DBOnly must leave the file on disk")
}
