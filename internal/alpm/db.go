package alpm

import "fmt"

// Repository is a sync database: a named, prioritized source of
// candidate packages, backed by one or more server URLs (§3, §6).
type Repository struct {
	Name    string
	Servers []string
	Siglevel ValidationMethod

	packages []*Package
	index    *nameIndex
}

// NewRepository constructs an empty repository ready to have packages
// loaded into it via SetPackages.
func NewRepository(name string, servers []string) *Repository {
	return &Repository{Name: name, Servers: servers}
}

// SetPackages replaces the repository's package set and rebuilds its
// name and provides indexes (groups are not indexed). Every package's
// Repo field is set to r
// and Origin to OriginSyncDB.
func (r *Repository) SetPackages(pkgs []*Package) {
	for _, p := range pkgs {
		p.Repo = r
		p.Origin = OriginSyncDB
	}
	r.packages = pkgs
	r.index = buildNameIndex(pkgs)
}

// Packages returns the repository's full package set.
func (r *Repository) Packages() []*Package { return r.packages }

// FindByName looks up the literal named package in this repository.
func (r *Repository) FindByName(name string) (*Package, bool) {
	if r.index == nil {
		return nil, false
	}
	return r.index.byName(name)
}

// FindProviders returns every candidate in this repository that
// satisfies e, via either literal name or a Provides entry.
func (r *Repository) FindProviders(e DependExpr) []*Package {
	if r.index == nil {
		return nil
	}
	return r.index.providers(e)
}

// LocalDatabase is the install root's record of currently installed
// packages: their Package data plus the per-package Reason recorded at
// install time (§3).
type LocalDatabase struct {
	Root string // install root this database describes, e.g. "/"

	entries []*localEntry
	index   *nameIndex
}

type localEntry struct {
	pkg    *Package
	reason Reason
}

// NewLocalDatabase constructs an empty local database for root.
func NewLocalDatabase(root string) *LocalDatabase {
	return &LocalDatabase{Root: root}
}

// Load replaces the database's entries. Each pkg's Origin is set to
// OriginLocalDB.
func (db *LocalDatabase) Load(entries []struct {
	Pkg    *Package
	Reason Reason
}) {
	db.entries = db.entries[:0]
	pkgs := make([]*Package, 0, len(entries))
	for _, e := range entries {
		e.Pkg.Origin = OriginLocalDB
		db.entries = append(db.entries, &localEntry{pkg: e.Pkg, reason: e.Reason})
		pkgs = append(pkgs, e.Pkg)
	}
	db.index = buildNameIndex(pkgs)
}

// Packages returns every installed package.
func (db *LocalDatabase) Packages() []*Package {
	out := make([]*Package, len(db.entries))
	for i, e := range db.entries {
		out[i] = e.pkg
	}
	return out
}

// FindByName looks up the literal named installed package.
func (db *LocalDatabase) FindByName(name string) (*Package, bool) {
	if db.index == nil {
		return nil, false
	}
	return db.index.byName(name)
}

// ReasonOf returns the recorded install reason for name, defaulting to
// ReasonExplicit if name isn't installed (the caller is expected to
// have checked FindByName first).
func (db *LocalDatabase) ReasonOf(name string) Reason {
	for _, e := range db.entries {
		if e.pkg.Name == name {
			return e.reason
		}
	}
	return ReasonExplicit
}

// RequiredBy returns the names of every installed package that
// directly depends on name, supplementing the spec with pactree-style
// reverse-dependency queries (§6, SUPPLEMENTED FEATURES).
func (db *LocalDatabase) RequiredBy(name string) []string {
	var out []string
	for _, e := range db.entries {
		for _, d := range e.pkg.Depends {
			if d.Name == name {
				out = append(out, e.pkg.Name)
				break
			}
		}
	}
	return out
}

// DependencyGraph walks the local database's Depends edges starting
// from name, to a depth of max levels (0 means unlimited), and returns
// the visited package names in traversal order. This supplements the
// spec with pactree-style forward dependency listing.
func (db *LocalDatabase) DependencyGraph(name string, max int) ([]string, error) {
	root, ok := db.FindByName(name)
	if !ok {
		return nil, &ValidationError{Msg: fmt.Sprintf("package %q is not installed", name)}
	}
	seen := map[string]bool{root.Name: true}
	var order []string
	var walk func(p *Package, depth int)
	walk = func(p *Package, depth int) {
		order = append(order, p.Name)
		if max > 0 && depth >= max {
			return
		}
		for _, d := range p.Depends {
			dep, ok := db.FindByName(d.Name)
			if !ok || seen[dep.Name] {
				continue
			}
			seen[dep.Name] = true
			walk(dep, depth+1)
		}
	}
	walk(root, 0)
	return order, nil
}
