package alpm

import (
	"os"

	"github.com/pkg/errors"
)

// TransState is the transaction lifecycle state of §4.10's FSM:
// IDLE -> INITIALIZED -> PREPARED -> DOWNLOADING -> COMMITTING -> COMMITTED,
// with INTERRUPTED reachable from any in-flight state.
type TransState uint8

const (
	StateIdle TransState = iota
	StateInitialized
	StatePrepared
	StateDownloading
	StateCommitting
	StateCommitted
	StateInterrupted
)

func (s TransState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitialized:
		return "initialized"
	case StatePrepared:
		return "prepared"
	case StateDownloading:
		return "downloading"
	case StateCommitting:
		return "committing"
	case StateCommitted:
		return "committed"
	case StateInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// TransFlags mirrors pacman's transaction flag bitset (§4.10, §7).
type TransFlags struct {
	NoDeps       bool // skip dependency checks
	Force        bool // overwrite file conflicts, ignore removal safety
	NoSave       bool // don't back up to .pacsave on remove
	Cascade      bool // on a missing dep during remove-prepare, pull in the blocking dependent and recheck until fixpoint
	NoConflicts  bool // don't check inter-package conflicts
	Recurse      bool // extend remove with orphaned DEPEND-reason dependencies
	RecurseAll   bool // like Recurse, but also orphaned EXPLICIT-reason dependencies
	Unneeded     bool // on a missing dep during remove-prepare, drop the causing package from remove and recheck
	DBOnly       bool // mutate the local database only; skip filesystem changes
	DownloadOnly bool // stop after fetching archives, before any remove or install
	NoScriptlet  bool // skip pre/post install and upgrade scriptlets (the remove executor runs none)
}

// Transaction drives one prepare/commit cycle against a Handle,
// implementing the FSM of §4.10. A Transaction is single-use: once
// committed or interrupted, start a new one.
type Transaction struct {
	handle *Handle
	flags  TransFlags
	state  TransState

	targets []*Package // explicit -S/-U targets, pre-resolve
	removeTargets []*Package // explicit -R targets

	resolved []*Candidate
	toRemove []*Package

	isSync bool // true for -S/-U, false for -R
}

// NewTransaction initializes a transaction on handle, moving it from
// StateIdle to StateInitialized. Only one transaction may be
// in-flight per handle.
func NewTransaction(h *Handle, flags TransFlags) (*Transaction, error) {
	ok, err := h.Lock()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &ValidationError{Msg: "unable to lock database: another instance may be running"}
	}
	return &Transaction{handle: h, flags: flags, state: StateInitialized}, nil
}

// AddInstall adds explicit sync/upgrade targets (§4.10's "add" step,
// before Prepare runs resolution).
func (t *Transaction) AddInstall(pkgs ...*Package) error {
	if t.state != StateInitialized {
		return &ValidationError{Msg: "transaction not in initialized state"}
	}
	t.isSync = true
	t.targets = append(t.targets, pkgs...)
	return nil
}

// AddRemove adds explicit removal targets.
func (t *Transaction) AddRemove(pkgs ...*Package) error {
	if t.state != StateInitialized {
		return &ValidationError{Msg: "transaction not in initialized state"}
	}
	t.removeTargets = append(t.removeTargets, pkgs...)
	return nil
}

// Prepare resolves dependencies, detects conflicts, and computes the
// final install/remove plan, moving StateInitialized -> StatePrepared.
// It does not touch the filesystem.
func (t *Transaction) Prepare() error {
	if t.state != StateInitialized {
		return &ValidationError{Msg: "transaction not in initialized state"}
	}

	if len(t.removeTargets) > 0 {
		if err := t.prepareRemove(); err != nil {
			t.state = StateInterrupted
			return err
		}
	}

	if len(t.targets) > 0 {
		if err := t.prepareInstall(); err != nil {
			t.state = StateInterrupted
			return err
		}
	}

	t.state = StatePrepared
	return nil
}

func (t *Transaction) prepareRemove() error {
	set := make(map[string]*Package, len(t.removeTargets))
	for _, p := range t.removeTargets {
		set[p.Name] = p
	}

	switch {
	case t.flags.Cascade:
		cascaded, err := ResolveRemoval(t.handle.Local, t.removeTargets, true)
		if err != nil {
			return err
		}
		set = make(map[string]*Package, len(cascaded))
		for _, p := range cascaded {
			set[p.Name] = p
		}
	case t.flags.Recurse, t.flags.RecurseAll:
		expandOrphanedDependencies(t.handle.Local, set, t.flags.RecurseAll)
	}

	if !t.flags.NoDeps && !t.flags.Force {
		if err := t.resolveMissingRemoveDeps(set); err != nil {
			return err
		}
	}

	out := make([]*Package, 0, len(set))
	for _, p := range set {
		out = append(out, p)
	}
	t.toRemove = TopoSortRemoveRaw(out)
	return nil
}

// resolveMissingRemoveDeps implements §4.10's remove-prepare missing-
// dep iteration: after the RECURSE/CASCADE expansion above, re-run the
// dependency check against what would be left installed. CASCADE pulls
// in whichever dependent the miss names and rechecks; UNNEEDED instead
// drops whichever set member the miss is still satisfied by and
// rechecks; otherwise a residual miss fails the transaction.
func (t *Transaction) resolveMissingRemoveDeps(set map[string]*Package) error {
	for {
		misses := stillNeededMisses(t.handle.Local, set)
		if len(misses) == 0 {
			return nil
		}
		switch {
		case t.flags.Cascade:
			changed := false
			for _, m := range misses {
				if m.Depender == nil {
					continue
				}
				if _, already := set[m.Depender.Name]; !already {
					set[m.Depender.Name] = m.Depender
					changed = true
				}
			}
			if !changed {
				return &UnsatisfiedDepsError{Misses: misses}
			}
		case t.flags.Unneeded:
			changed := false
			for _, m := range misses {
				for _, p := range set {
					if p.Satisfies(m.Dep) {
						delete(set, p.Name)
						changed = true
					}
				}
			}
			if !changed {
				return nil
			}
		default:
			return &UnsatisfiedDepsError{Misses: misses}
		}
	}
}

// TopoSortRemoveRaw orders bare packages (not yet wrapped as
// candidates) for removal using the same dependency-respecting order
// as TopoSortRemove.
func TopoSortRemoveRaw(pkgs []*Package) []*Package {
	candidates := make([]*Candidate, len(pkgs))
	for i, p := range pkgs {
		candidates[i] = NewCandidate(p, ReasonExplicit)
	}
	sorted := TopoSortRemove(candidates)
	out := make([]*Package, len(sorted))
	for i, c := range sorted {
		out[i] = c.Package
	}
	return out
}

func (t *Transaction) prepareInstall() error {
	resolver := &Resolver{Universe: t.handle.Universe(), Question: t.handle.ask, Event: t.handle.emit}

	var resolved []*Candidate
	if t.flags.NoDeps {
		for _, pkg := range t.targets {
			resolved = append(resolved, NewCandidate(pkg, ReasonExplicit))
		}
	} else {
		result, err := resolver.Resolve(t.targets)
		if err != nil {
			return err
		}
		resolved = result.Added
	}

	if !t.flags.NoConflicts {
		t.handle.emit(Event{Type: EventInterConflictsStart})
		inner := DetectInnerConflicts(resolved)
		outer := DetectOuterConflicts(resolved, t.handle.Local)
		unresolved := ResolveConflictsViaReplaces(resolved, t.handle.Local, append(inner, outer...))
		t.handle.emit(Event{Type: EventInterConflictsDone})
		if len(unresolved) > 0 && !t.flags.Force {
			return &ConflictingDepsError{Conflicts: unresolved}
		}
	}

	t.handle.emit(Event{Type: EventFileConflictsStart})
	fc := &localFileConflictChecker{local: t.handle.Local, root: t.handle.Root}
	conflicts := DetectFileConflicts(resolved, fc)
	t.handle.emit(Event{Type: EventFileConflictsDone})
	if len(conflicts) > 0 && !t.flags.Force {
		return &FileConflictsError{Conflicts: conflicts}
	}

	t.resolved = TopoSortInstall(resolved)
	return nil
}

// Commit executes the prepared plan: removals first, then installs,
// in topological order, moving StatePrepared -> StateCommitting ->
// StateCommitted. A failure partway through leaves the transaction in
// StateInterrupted; the caller should not assume any atomicity beyond
// what each individual file operation already gives.
func (t *Transaction) Commit(archivePaths map[string]string) error {
	if t.state != StatePrepared {
		return &ValidationError{Msg: "transaction not prepared"}
	}
	t.state = StateCommitting

	if t.flags.DownloadOnly {
		t.state = StateCommitted
		_ = t.handle.Unlock()
		return nil
	}

	remover := &RemoveExecutor{Root: t.handle.Root, Event: t.handle.emit}
	for _, pkg := range t.toRemove {
		if err := remover.Remove(pkg, RemoveOptions{NoSave: t.flags.NoSave, SkipRemove: t.handle.SkipRemove, DBOnly: t.flags.DBOnly}); err != nil {
			t.state = StateInterrupted
			return &TransactionAbortedError{Cause: err}
		}
	}

	installer := NewInstallExecutor(t.handle.Root)
	installer.Event = t.handle.emit
	installer.NoExtract = t.handle.NoExtract
	installer.NoUpgrade = t.handle.NoUpgrade
	installer.DBOnly = t.flags.DBOnly
	installer.NoScriptlet = t.flags.NoScriptlet

	for _, c := range t.resolved {
		archivePath, ok := archivePaths[c.Name]
		if !ok {
			t.state = StateInterrupted
			return &TransactionAbortedError{Cause: errors.Errorf("no archive supplied for %s", c.Name)}
		}

		var oldPkg *Package
		for _, r := range c.Removes {
			if err := remover.Remove(r, RemoveOptions{NoSave: t.flags.NoSave, NewPkg: c.Package, SkipRemove: t.handle.SkipRemove, DBOnly: t.flags.DBOnly}); err != nil {
				t.state = StateInterrupted
				return &TransactionAbortedError{Cause: err}
			}
			oldPkg = r
		}

		if err := installer.Install(c.Package, archivePath, oldPkg); err != nil {
			t.state = StateInterrupted
			return &TransactionAbortedError{Cause: err}
		}
	}

	t.state = StateCommitted
	_ = t.handle.Unlock()
	return nil
}

// Release unlocks the handle without committing, for a transaction
// that is being abandoned after Prepare (or before).
func (t *Transaction) Release() error {
	t.state = StateInterrupted
	return t.handle.Unlock()
}

// State returns the transaction's current FSM state.
func (t *Transaction) State() TransState { return t.state }

// localFileConflictChecker implements FileConflictChecker against a
// LocalDatabase and a real install root.
type localFileConflictChecker struct {
	local *LocalDatabase
	root  string
}

func (c *localFileConflictChecker) OwnerOf(path string) string {
	for _, p := range c.local.Packages() {
		if _, ok := Contains(p.Files, path); ok {
			return p.Name
		}
	}
	return ""
}

func (c *localFileConflictChecker) ExistsOnDisk(path string) bool {
	full := c.root + "/" + path
	_, err := os.Lstat(full)
	return err == nil
}
