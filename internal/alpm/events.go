package alpm

// EventType identifies the kind of progress event the engine emits
// during Prepare and Commit (§6 External Interfaces). Callers register
// an EventHandler on a Handle to receive these; the engine never writes
// to stdout directly.
type EventType uint8

const (
	EventCheckDepsStart EventType = iota
	EventCheckDepsDone
	EventFileConflictsStart
	EventFileConflictsDone
	EventResolveDepsStart
	EventResolveDepsDone
	EventInterConflictsStart
	EventInterConflictsDone
	EventPackageOperationStart
	EventPackageOperationDone
	EventIntegrityStart
	EventIntegrityDone
	EventLoadStart
	EventLoadDone
	EventScriptletStart
	EventScriptletDone
	EventRetrieveStart
	EventRetrieveDone
	EventDiskspaceStart
	EventDiskspaceDone
)

// PackageOperationType qualifies an EventPackageOperation{Start,Done}.
type PackageOperationType uint8

const (
	OpInstall PackageOperationType = iota
	OpUpgrade
	OpDowngrade
	OpReinstall
	OpRemove
)

// Event is the payload passed to an EventHandler. Fields not relevant
// to Type are left zero.
type Event struct {
	Type EventType

	// Package operation fields, set when Type is one of the
	// EventPackageOperation* values.
	OpType  PackageOperationType
	Target  *Package
	OldPkg  *Package // set for upgrade/downgrade/reinstall/remove

	// Progress fields, set for Retrieve/Diskspace events.
	Current, Total int64

	// Percent is a 0-100 completion estimate for the operation
	// currently running, when the engine can compute one.
	Percent int
}

// EventHandler receives progress events. It must not block for long;
// the engine calls it synchronously from the goroutine driving
// Prepare/Commit.
type EventHandler func(Event)

// QuestionType identifies a yes/no decision the engine needs from the
// caller mid-transaction (§6).
type QuestionType uint8

const (
	// QuestionInstallIgnorepkg asks whether to install a package the
	// config marked IgnorePkg, because it is needed to satisfy a
	// dependency.
	QuestionInstallIgnorepkg QuestionType = iota
	// QuestionReplacePkg asks whether to apply a Replaces-driven
	// substitution found by the sync planner.
	QuestionReplacePkg
	// QuestionConflictPkg asks whether to remove pkgB to resolve a
	// conflict with pkgA, when neither replaces the other.
	QuestionConflictPkg
	// QuestionCorruptedPkg asks whether to delete a cached archive that
	// failed integrity validation and re-download it.
	QuestionCorruptedPkg
	// QuestionRemovePkgs asks whether to remove the packages left with
	// unsatisfied dependencies after a target removal cascades.
	QuestionRemovePkgs
	// QuestionSelectProvider asks which of several providers of a
	// dependency to install, when more than one candidate satisfies it.
	QuestionSelectProvider
)

// Question is the payload passed to a QuestionHandler. Unused fields
// are left zero for the given Type.
type Question struct {
	Type QuestionType

	PkgA, PkgB *Package
	Providers  []*Package // for QuestionSelectProvider
	Reason     DependExpr // for QuestionSelectProvider

	// Default is the answer the engine will use if the caller doesn't
	// override it (a nil handler, or the CLI's --noconfirm mode, uses
	// this verbatim).
	Default bool
}

// QuestionHandler answers a Question. A nil handler causes the engine
// to always use Question.Default.
type QuestionHandler func(*Question) bool
