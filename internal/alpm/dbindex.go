package alpm

import "github.com/armon/go-radix"

// nameIndex is a radix-tree index over a package set, keyed by package
// name, with a side map for provides lookups. Repositories and the
// local database hold one each so FindByName/FindProviders avoid a
// linear scan over what can be tens of thousands of entries in a full
// sync database.
type nameIndex struct {
	byNameTree *radix.Tree
	provides   map[string][]*Package
}

func buildNameIndex(pkgs []*Package) *nameIndex {
	idx := &nameIndex{
		byNameTree: radix.New(),
		provides:   make(map[string][]*Package),
	}
	for _, p := range pkgs {
		idx.byNameTree.Insert(p.Name, p)
		for _, prov := range p.Provides {
			idx.provides[prov.Name] = append(idx.provides[prov.Name], p)
		}
	}
	return idx
}

func (idx *nameIndex) byName(name string) (*Package, bool) {
	v, ok := idx.byNameTree.Get(name)
	if !ok {
		return nil, false
	}
	return v.(*Package), true
}

// providers returns every package satisfying e, by literal name first
// and then by provides, without duplicates.
func (idx *nameIndex) providers(e DependExpr) []*Package {
	var out []*Package
	seen := make(map[string]bool)

	if p, ok := idx.byName(e.Name); ok && p.Satisfies(e) {
		out = append(out, p)
		seen[p.Name] = true
	}
	for _, p := range idx.provides[e.Name] {
		if seen[p.Name] {
			continue
		}
		if p.Satisfies(e) {
			out = append(out, p)
			seen[p.Name] = true
		}
	}
	return out
}

// prefixSearch returns every package name in the index with the given
// prefix, ascending.
func (idx *nameIndex) prefixSearch(prefix string) []string {
	var out []string
	idx.byNameTree.WalkPrefix(prefix, func(k string, v interface{}) bool {
		out = append(out, k)
		return false
	})
	return out
}
