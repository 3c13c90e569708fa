package alpm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(name string, pkgs ...*Package) *Repository {
	r := NewRepository(name, nil)
	r.SetPackages(pkgs)
	return r
}

func TestResolveSimpleInstall(t *testing.T) {
	zlib := &Package{Name: "zlib", Version: "1.2"}
	foo := &Package{Name: "foo", Version: "1.0", Depends: []DependExpr{{Name: "zlib", Op: OpAny}}}

	repo := newTestRepo("core", zlib, foo)
	local := NewLocalDatabase("/")

	r := &Resolver{Universe: &Universe{Local: local, Repos: []*Repository{repo}}}
	result, err := r.Resolve([]*Package{foo})
	require.NoError(t, err)
	require.Len(t, result.Added, 2)
	assert.Equal(t, "foo", result.Added[0].Name)
	assert.Equal(t, ReasonExplicit, result.Added[0].Reason)
	assert.Equal(t, "zlib", result.Added[1].Name)
	assert.Equal(t, ReasonDepend, result.Added[1].Reason)
}

func TestResolveAlreadySatisfiedLocally(t *testing.T) {
	zlib := &Package{Name: "zlib", Version: "1.2"}
	foo := &Package{Name: "foo", Version: "1.0", Depends: []DependExpr{{Name: "zlib", Op: OpAny}}}

	repo := newTestRepo("core", foo)
	local := NewLocalDatabase("/")
	local.Load([]struct {
		Pkg    *Package
		Reason Reason
	}{{Pkg: zlib, Reason: ReasonExplicit}})

	r := &Resolver{Universe: &Universe{Local: local, Repos: []*Repository{repo}}}
	result, err := r.Resolve([]*Package{foo})
	require.NoError(t, err)
	require.Len(t, result.Added, 1)
	assert.Equal(t, "foo", result.Added[0].Name)
}

func TestResolveUnsatisfiedDependency(t *testing.T) {
	foo := &Package{Name: "foo", Version: "1.0", Depends: []DependExpr{{Name: "missing-lib", Op: OpAny}}}
	repo := newTestRepo("core", foo)
	local := NewLocalDatabase("/")

	r := &Resolver{Universe: &Universe{Local: local, Repos: []*Repository{repo}}}
	_, err := r.Resolve([]*Package{foo})
	require.Error(t, err)
	unsat, ok := err.(*UnsatisfiedDepsError)
	require.True(t, ok)
	require.Len(t, unsat.Misses, 1)
	assert.Equal(t, "missing-lib", unsat.Misses[0].Dep.Name)
	assert.Equal(t, "foo", unsat.Misses[0].Depender.Name)
}

func TestResolveProvidesSatisfiesDependency(t *testing.T) {
	openssl := &Package{Name: "openssl", Version: "3.0", Provides: []DependExpr{{Name: "libssl.so", Op: OpAny}}}
	foo := &Package{Name: "foo", Version: "1.0", Depends: []DependExpr{{Name: "libssl.so", Op: OpAny}}}
	repo := newTestRepo("core", openssl, foo)
	local := NewLocalDatabase("/")

	r := &Resolver{Universe: &Universe{Local: local, Repos: []*Repository{repo}}}
	result, err := r.Resolve([]*Package{foo})
	require.NoError(t, err)
	require.Len(t, result.Added, 2)
	assert.Equal(t, "openssl", result.Added[1].Name)
}

func TestResolveRemovalCascade(t *testing.T) {
	// a depends on b depends on c; removing c with cascade must pull in
	// both a and b, the packages that depend (directly or transitively)
	// on the thing being removed.
	c := &Package{Name: "c", Version: "1.0"}
	b := &Package{Name: "b", Version: "1.0", Depends: []DependExpr{{Name: "c", Op: OpAny}}}
	a := &Package{Name: "a", Version: "1.0", Depends: []DependExpr{{Name: "b", Op: OpAny}}}

	local := NewLocalDatabase("/")
	local.Load([]struct {
		Pkg    *Package
		Reason Reason
	}{
		{Pkg: c, Reason: ReasonDepend},
		{Pkg: b, Reason: ReasonDepend},
		{Pkg: a, Reason: ReasonExplicit},
	})

	out, err := ResolveRemoval(local, []*Package{c}, true)
	require.NoError(t, err)
	names := map[string]bool{}
	for _, p := range out {
		names[p.Name] = true
	}
	assert.True(t, names["a"])
	assert.True(t, names["b"])
	assert.True(t, names["c"])
}

func TestResolveRemovalNoCascadeLeavesDeps(t *testing.T) {
	base := &Package{Name: "base", Version: "1.0"}
	app := &Package{Name: "app", Version: "1.0", Depends: []DependExpr{{Name: "base", Op: OpAny}}}

	local := NewLocalDatabase("/")
	local.Load([]struct {
		Pkg    *Package
		Reason Reason
	}{
		{Pkg: base, Reason: ReasonDepend},
		{Pkg: app, Reason: ReasonExplicit},
	})

	out, err := ResolveRemoval(local, []*Package{app}, false)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "app", out[0].Name)
}

func TestCheckRemovalSafetyBlocksStillNeeded(t *testing.T) {
	base := &Package{Name: "base", Version: "1.0"}
	app := &Package{Name: "app", Version: "1.0", Depends: []DependExpr{{Name: "base", Op: OpAny}}}

	local := NewLocalDatabase("/")
	local.Load([]struct {
		Pkg    *Package
		Reason Reason
	}{
		{Pkg: base, Reason: ReasonDepend},
		{Pkg: app, Reason: ReasonExplicit},
	})

	err := checkRemovalSafety(local, []*Package{base}, false)
	require.Error(t, err)

	err = checkRemovalSafety(local, []*Package{base}, true)
	assert.NoError(t, err)
}
