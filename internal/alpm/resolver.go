package alpm

// Universe is everything the resolver may draw candidates from: the
// local database (for satisfied-already checks) and the sync
// repositories, in priority order (§3, §6).
type Universe struct {
	Local *LocalDatabase
	Repos []*Repository
}

// findSatisfier looks for something already installed that satisfies
// e, then falls through to the sync repositories in order, returning
// the first repository's full candidate list if more than one package
// in that repository could satisfy e (so the caller can ask
// QuestionSelectProvider).
func (u *Universe) findSatisfier(e DependExpr) (installed *Package, candidates []*Package) {
	if u.Local != nil {
		if p, ok := u.Local.FindByName(e.Name); ok && p.Satisfies(e) {
			return p, nil
		}
		// A provides-based local satisfier also counts as already
		// satisfied; scan the rest of the local set.
		for _, p := range u.Local.Packages() {
			if p.Satisfies(e) {
				return p, nil
			}
		}
	}
	for _, repo := range u.Repos {
		provs := repo.FindProviders(e)
		if len(provs) > 0 {
			return nil, provs
		}
	}
	return nil, nil
}

// resolveQueueItem is one pending dependency expression waiting on a
// decision, paired with the candidate that introduced it (nil for a
// top-level target).
type resolveQueueItem struct {
	expr     DependExpr
	depender *Package
}

// Resolver performs the closed-world recursive resolution of §4.4: it
// starts from a set of explicit targets, follows Depends edges
// breadth-first, and either finds each dependency already satisfied,
// resolves it from a sync repository, or records it as unsatisfied.
// When several providers exist, the caller is shown them through
// QuestionSelectProvider, but the first provider is always the one
// selected.
type Resolver struct {
	Universe *Universe
	Question QuestionHandler
	Event    EventHandler
}

// ResolveResult is everything the sync planner and conflict detector
// need from a completed resolve pass.
type ResolveResult struct {
	// Added holds, in resolution order, every candidate newly selected
	// to satisfy a dependency (ReasonDepend) plus the original explicit
	// targets (ReasonExplicit). A name appears at most once.
	Added []*Candidate
}

// Resolve walks targets and their transitive Depends, returning every
// candidate that must be added to satisfy them. Explicit targets that
// are already installed and satisfy themselves are skipped (no-op),
// matching pacman's "already installed" short circuit for -S.
func (r *Resolver) Resolve(targets []*Package) (*ResolveResult, error) {
	if r.Event != nil {
		r.Event(Event{Type: EventResolveDepsStart})
	}

	selected := make(map[string]*Candidate)
	var order []*Candidate
	var queue []resolveQueueItem
	var misses []DepMiss

	addCandidate := func(pkg *Package, reason Reason, depender *Package) *Candidate {
		if c, ok := selected[pkg.Name]; ok {
			return c
		}
		c := NewCandidate(pkg, reason)
		selected[pkg.Name] = c
		order = append(order, c)
		for _, d := range pkg.Depends {
			queue = append(queue, resolveQueueItem{expr: d, depender: pkg})
		}
		return c
	}

	for _, t := range targets {
		if installed, _ := r.Universe.findSatisfier(ParseDependExpr(t.Name)); installed != nil && installed.Version == t.Version {
			continue
		}
		addCandidate(t, ReasonExplicit, nil)
	}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		if installed, candidates := r.Universe.findSatisfier(item.expr); installed != nil {
			continue
		} else if len(candidates) > 0 {
			chosen := candidates[0]
			if len(candidates) > 1 && r.Question != nil {
				q := &Question{
					Type:      QuestionSelectProvider,
					Providers: candidates,
					Reason:    item.expr,
					Default:   true,
				}
				r.Question(q)
				// The answer does not change the pick: the first
				// candidate (highest-priority repo) is always chosen.
			}
			addCandidate(chosen, ReasonDepend, item.depender)
			continue
		}
		misses = append(misses, DepMiss{Depender: item.depender, Dep: item.expr})
	}

	if r.Event != nil {
		r.Event(Event{Type: EventResolveDepsDone})
	}

	if len(misses) > 0 {
		return nil, &UnsatisfiedDepsError{Misses: misses}
	}
	return &ResolveResult{Added: order}, nil
}

// ResolveRemoval computes the cascade closure of §4.8's cascade-remove
// mode: starting from targets, repeatedly add any installed package
// that itself depends on something already in the removal set (a
// dependent whose dependency is about to disappear), until a fixed
// point, so dependents of dependents are pulled in as well.
func ResolveRemoval(local *LocalDatabase, targets []*Package, cascade bool) ([]*Package, error) {
	set := make(map[string]*Package)
	for _, t := range targets {
		set[t.Name] = t
	}
	if !cascade {
		out := make([]*Package, 0, len(set))
		for _, p := range set {
			out = append(out, p)
		}
		return out, nil
	}

	changed := true
	for changed {
		changed = false
		for _, p := range local.Packages() {
			if _, already := set[p.Name]; already {
				continue
			}
			if !dependsOnAny(p, set) {
				continue
			}
			set[p.Name] = p
			changed = true
		}
	}

	out := make([]*Package, 0, len(set))
	for _, p := range set {
		out = append(out, p)
	}
	return out, nil
}

// dependsOnAny reports whether candidate itself depends on some
// package already in set, i.e. candidate is a dependent whose
// dependency is about to disappear (cascade-remove walks towards
// dependents, the opposite direction from recurse-remove's walk
// towards dependencies).
func dependsOnAny(candidate *Package, set map[string]*Package) bool {
	for _, d := range candidate.Depends {
		for _, p := range set {
			if p.Satisfies(d) {
				return true
			}
		}
	}
	return false
}

// requiredOutsideSet reports whether some installed package NOT in set
// still depends on p.
func requiredOutsideSet(local *LocalDatabase, p *Package, set map[string]*Package) bool {
	for _, other := range local.Packages() {
		if _, inSet := set[other.Name]; inSet {
			continue
		}
		if other.Name == p.Name {
			continue
		}
		for _, d := range other.Depends {
			if p.Satisfies(d) {
				return true
			}
		}
	}
	return false
}

// stillNeededMisses reports, for every package in set, every installed
// package outside set that still depends on it (§4.10's remove-prepare
// dep check).
func stillNeededMisses(local *LocalDatabase, set map[string]*Package) []DepMiss {
	var misses []DepMiss
	for _, t := range set {
		for _, other := range local.Packages() {
			if _, inSet := set[other.Name]; inSet {
				continue
			}
			for _, d := range other.Depends {
				if t.Satisfies(d) {
					misses = append(misses, DepMiss{Depender: other, Dep: d})
				}
			}
		}
	}
	return misses
}

// checkRemovalSafety implements §4.8's pre-check: a non-cascade removal
// fails validation if some installed package outside the removal set
// still needs one of the targets, unless the caller forced it.
func checkRemovalSafety(local *LocalDatabase, targets []*Package, force bool) error {
	if force {
		return nil
	}
	set := make(map[string]*Package, len(targets))
	for _, t := range targets {
		set[t.Name] = t
	}
	if misses := stillNeededMisses(local, set); len(misses) > 0 {
		return &UnsatisfiedDepsError{Misses: misses}
	}
	return nil
}

// expandOrphanedDependencies implements §4.10's remove-prepare RECURSE
// step: extend set with every package some set member depends on that
// becomes an orphan — nothing installed outside set still requires it
// — to a fixpoint. Plain RECURSE only folds in DEPEND-reason orphans;
// RECURSE_ALL also folds in EXPLICIT-reason orphans.
func expandOrphanedDependencies(local *LocalDatabase, set map[string]*Package, includeExplicit bool) {
	changed := true
	for changed {
		changed = false
		for _, member := range set {
			for _, d := range member.Depends {
				for _, cand := range local.Packages() {
					if _, already := set[cand.Name]; already {
						continue
					}
					if !cand.Satisfies(d) {
						continue
					}
					if local.ReasonOf(cand.Name) != ReasonDepend && !includeExplicit {
						continue
					}
					if requiredOutsideSet(local, cand, set) {
						continue
					}
					set[cand.Name] = cand
					changed = true
				}
			}
		}
	}
}
