package alpm

// DetectInnerConflicts checks the candidate set against itself (§4.6
// "inner" conflicts): two targets being installed in the same
// transaction that conflict with each other. A in each record is the
// package whose Conflicts entry matched (the earlier candidate when
// both declare it).
func DetectInnerConflicts(candidates []*Candidate) []ConflictRecord {
	var out []ConflictRecord
	for i, a := range candidates {
		for j := i + 1; j < len(candidates); j++ {
			b := candidates[j]
			if rec, ok := conflictBetween(a.Package, b.Package); ok {
				out = append(out, rec)
			}
		}
	}
	return out
}

// DetectOuterConflicts checks the candidate set against everything
// already installed that isn't itself being replaced (§4.6 "outer"
// conflicts).
func DetectOuterConflicts(candidates []*Candidate, local *LocalDatabase) []ConflictRecord {
	beingReplaced := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		beingReplaced[c.Name] = true
		for _, r := range c.Removes {
			beingReplaced[r.Name] = true
		}
	}

	var out []ConflictRecord
	for _, c := range candidates {
		for _, installed := range local.Packages() {
			if beingReplaced[installed.Name] {
				continue
			}
			if rec, ok := conflictBetween(c.Package, installed); ok {
				out = append(out, rec)
			}
		}
	}
	return out
}

// conflictBetween reports whether a and b conflict, per either one's
// Conflicts list naming the other (directly or via Provides), and is
// symmetric regardless of which side declares it.
func conflictBetween(a, b *Package) (ConflictRecord, bool) {
	if a.Name == b.Name {
		return ConflictRecord{}, false
	}
	for _, e := range a.Conflicts {
		if b.Satisfies(e) {
			return ConflictRecord{A: a.Name, B: b.Name, Reason: e.String()}, true
		}
	}
	for _, e := range b.Conflicts {
		if a.Satisfies(e) {
			return ConflictRecord{A: b.Name, B: a.Name, Reason: e.String()}, true
		}
	}
	return ConflictRecord{}, false
}

// ResolveConflictsViaReplaces attempts to eliminate each conflict by
// checking whether one side Replaces the other (§4.6, §4.7 shared
// logic): when c.Replaces names the installed package on the other
// side of the conflict, the conflict is resolved by adding that
// installed package to c.Removes instead of being surfaced as an
// error. Returns the conflicts that could not be resolved this way.
func ResolveConflictsViaReplaces(candidates []*Candidate, local *LocalDatabase, conflicts []ConflictRecord) []ConflictRecord {
	byName := make(map[string]*Candidate, len(candidates))
	for _, c := range candidates {
		byName[c.Name] = c
	}

	var unresolved []ConflictRecord
	for _, rec := range conflicts {
		ca, aIsCandidate := byName[rec.A]
		cb, bIsCandidate := byName[rec.B]

		if aIsCandidate && !bIsCandidate {
			if replaces(ca.Package, rec.B) {
				if installed, ok := local.FindByName(rec.B); ok {
					ca.Removes = append(ca.Removes, installed)
					continue
				}
			}
		}
		if bIsCandidate && !aIsCandidate {
			if replaces(cb.Package, rec.A) {
				if installed, ok := local.FindByName(rec.A); ok {
					cb.Removes = append(cb.Removes, installed)
					continue
				}
			}
		}
		unresolved = append(unresolved, rec)
	}
	return unresolved
}

func replaces(p *Package, name string) bool {
	for _, e := range p.Replaces {
		if e.Name == name {
			return true
		}
	}
	return false
}

// FileConflictChecker abstracts the filesystem lookup the file-conflict
// scan needs (§4.6): for a path, who (if anyone) among already-
// installed packages owns it, and whether it exists on disk at all.
// The remove/install executors supply the real implementation; tests
// supply an in-memory one.
type FileConflictChecker interface {
	// OwnerOf returns the installed package name owning path, or "" if
	// no installed package claims it.
	OwnerOf(path string) string
	// ExistsOnDisk reports whether path exists in the install root,
	// regardless of ownership (catches unowned/foreign files).
	ExistsOnDisk(path string) bool
}

// DetectFileConflicts scans every candidate's file list for collisions
// against other candidates in the same transaction and against files
// already on disk, owned by an installed package or unowned (§4.6).
// A collision against a file
// owned by a package also being removed by this transaction (an
// upgrade or replacement) is not a conflict.
func DetectFileConflicts(candidates []*Candidate, fc FileConflictChecker) []FileConflict {
	beingReplaced := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		beingReplaced[c.Name] = true
		for _, r := range c.Removes {
			beingReplaced[r.Name] = true
		}
	}

	claimedThisTxn := make(map[string]string) // path -> owning candidate name
	var out []FileConflict

	for _, c := range candidates {
		for _, f := range c.Files {
			if f.IsDir() {
				continue
			}
			if owner, ok := claimedThisTxn[f.Path]; ok && owner != c.Name {
				out = append(out, FileConflict{
					Type:   FileConflictTarget,
					Path:   f.Path,
					Target: c.Name,
					Owner:  owner,
				})
				continue
			}
			claimedThisTxn[f.Path] = c.Name

			owner := fc.OwnerOf(f.Path)
			if owner != "" {
				if beingReplaced[owner] {
					continue
				}
				out = append(out, FileConflict{
					Type:   FileConflictFilesystem,
					Path:   f.Path,
					Target: c.Name,
					Owner:  owner,
				})
				continue
			}
			if fc.ExistsOnDisk(f.Path) {
				out = append(out, FileConflict{
					Type:   FileConflictFilesystem,
					Path:   f.Path,
					Target: c.Name,
				})
			}
		}
	}
	return out
}
