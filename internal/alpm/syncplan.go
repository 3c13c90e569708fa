package alpm

// SyncPlanner computes the set of candidates a `-Syu`-style full
// upgrade would install, combining literal version comparison against
// the local database with Replaces-driven substitution (§4.7).
type SyncPlanner struct {
	Local *LocalDatabase
	Repos []*Repository
	Question QuestionHandler
}

// PlanUpgrade compares every installed package against its literal
// namesake in the sync repositories (priority order) and, separately,
// scans every sync package's Replaces list for installed packages that
// name them but aren't found by literal lookup. Each resulting
// candidate carries Reason equal to the replaced/upgraded package's
// existing install reason, so upgrades never promote a dependency to
// explicit.
func (sp *SyncPlanner) PlanUpgrade() ([]*Candidate, error) {
	var out []*Candidate
	handled := make(map[string]bool)

	for _, installed := range sp.Local.Packages() {
		for _, repo := range sp.Repos {
			if _, found := repo.FindByName(installed.Name); found {
				handled[installed.Name] = true
				break
			}
		}
		newer, ok := sp.findNewerLiteral(installed)
		if !ok {
			continue
		}
		c := NewCandidate(newer, sp.Local.ReasonOf(installed.Name))
		c.Removes = append(c.Removes, installed)
		out = append(out, c)
		handled[installed.Name] = true
	}

	for _, repo := range sp.Repos {
		for _, syncPkg := range repo.Packages() {
			if len(syncPkg.Replaces) == 0 {
				continue
			}
			for _, e := range syncPkg.Replaces {
				if handled[e.Name] {
					continue
				}
				installed, ok := sp.Local.FindByName(e.Name)
				if !ok || !installed.Satisfies(e) {
					continue
				}
				if sp.Question != nil {
					q := &Question{
						Type:    QuestionReplacePkg,
						PkgA:    installed,
						PkgB:    syncPkg,
						Default: true,
					}
					if !sp.Question(q) {
						continue
					}
				}
				c := NewCandidate(syncPkg, sp.Local.ReasonOf(installed.Name))
				c.Removes = append(c.Removes, installed)
				out = append(out, c)
				handled[e.Name] = true
			}
		}
	}

	return out, nil
}

// findNewerLiteral returns the sync package literally named the same
// as installed, from the highest-priority repo that carries it,
// provided its version compares greater.
func (sp *SyncPlanner) findNewerLiteral(installed *Package) (*Package, bool) {
	for _, repo := range sp.Repos {
		syncPkg, ok := repo.FindByName(installed.Name)
		if !ok {
			continue
		}
		if CompareVersion(syncPkg.Version, installed.Version) > 0 {
			return syncPkg, true
		}
		return nil, false
	}
	return nil, false
}
