package alpm

// TopoSortInstall orders candidates so that each one's Depends edges
// that resolve to another candidate in the same set are installed
// first (§4.5). Cycles are tolerated: a cycle is broken at an
// arbitrary edge rather than rejected, since real repositories contain
// dependency cycles (e.g. glibc/gcc-libs-style pairs) that still
// install fine in either order.
func TopoSortInstall(candidates []*Candidate) []*Candidate {
	byName := make(map[string]*Candidate, len(candidates))
	for _, c := range candidates {
		byName[c.Name] = c
	}

	const (
		white = 0 // unvisited
		gray  = 1 // on the current DFS stack
		black = 2 // fully emitted
	)
	color := make(map[string]int, len(candidates))
	out := make([]*Candidate, 0, len(candidates))

	var visit func(c *Candidate)
	visit = func(c *Candidate) {
		if color[c.Name] == black {
			return
		}
		if color[c.Name] == gray {
			// Back edge: part of a cycle. Leave it for the caller already
			// on the stack to emit; don't recurse further down this path.
			return
		}
		color[c.Name] = gray
		for _, d := range c.Depends {
			if dep, ok := byName[d.Name]; ok {
				visit(dep)
			}
		}
		color[c.Name] = black
		out = append(out, c)
	}

	for _, c := range candidates {
		visit(c)
	}
	return out
}

// TopoSortRemove orders candidates for removal: the reverse of install
// order, so that a package is removed before anything it depends on
// (§4.8 removes children before parents is NOT required by pacman;
// this only needs to avoid removing a shared dependency before the
// last package using it is gone). Kept simple: reverse of
// TopoSortInstall.
func TopoSortRemove(candidates []*Candidate) []*Candidate {
	installOrder := TopoSortInstall(candidates)
	out := make([]*Candidate, len(installOrder))
	for i, c := range installOrder {
		out[len(out)-1-i] = c
	}
	return out
}
