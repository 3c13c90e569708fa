package alpm

import (
	"bytes"
	"fmt"
)

// ErrKind classifies an engine error per §7's taxonomy. It does not
// replace Go's error interface; it is attached to typed error structs
// below so callers can dispatch on kind without string matching.
type ErrKind uint8

const (
	KindValidation ErrKind = iota
	KindDependency
	KindIntegrity
	KindIO
	KindResource
	KindState
)

func (k ErrKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDependency:
		return "dependency"
	case KindIntegrity:
		return "integrity"
	case KindIO:
		return "io"
	case KindResource:
		return "resource"
	case KindState:
		return "state"
	default:
		return "unknown"
	}
}

// DepMiss records one unsatisfied-dependency diagnostic: the package
// that wanted it and the expression it could not satisfy (§4.4 step 4).
type DepMiss struct {
	Depender *Package
	Dep      DependExpr
}

func (d DepMiss) String() string {
	if d.Depender == nil {
		return fmt.Sprintf("unable to satisfy dependency '%s'", d.Dep)
	}
	return fmt.Sprintf("unable to satisfy dependency '%s' required by %s", d.Dep, d.Depender)
}

// UnsatisfiedDepsError is the KindDependency error carrying every
// missing dependency found during a single resolve pass.
type UnsatisfiedDepsError struct {
	Misses []DepMiss
}

func (e *UnsatisfiedDepsError) Kind() ErrKind { return KindDependency }

func (e *UnsatisfiedDepsError) Error() string {
	if len(e.Misses) == 1 {
		return e.Misses[0].String()
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d unsatisfied dependencies:", len(e.Misses))
	for _, m := range e.Misses {
		fmt.Fprintf(&buf, "\n  %s", m)
	}
	return buf.String()
}

// ConflictRecord describes one package-vs-package conflict found by the
// inner or outer conflict detector (§4.6).
type ConflictRecord struct {
	A, B   string // package names
	Reason string // the conflict expression, rendered
}

func (c ConflictRecord) String() string {
	return fmt.Sprintf("%s and %s are in conflict (%s)", c.A, c.B, c.Reason)
}

// ConflictingDepsError is the KindDependency error surfaced when one or
// more conflicts could not be auto-resolved by supersession and the
// caller did not set TransFlags.Force. No question is asked; under
// NoConflicts the conflict check does not run at all.
type ConflictingDepsError struct {
	Conflicts []ConflictRecord
}

func (e *ConflictingDepsError) Kind() ErrKind { return KindDependency }

func (e *ConflictingDepsError) Error() string {
	if len(e.Conflicts) == 1 {
		return e.Conflicts[0].String()
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d conflicts:", len(e.Conflicts))
	for _, c := range e.Conflicts {
		fmt.Fprintf(&buf, "\n  %s", c)
	}
	return buf.String()
}

// FileConflictType distinguishes a conflict against another target
// package from one against a file already on disk, whether owned by an
// installed package or unowned.
type FileConflictType uint8

const (
	FileConflictTarget FileConflictType = iota
	FileConflictFilesystem
)

func (t FileConflictType) String() string {
	if t == FileConflictTarget {
		return "target"
	}
	return "filesystem"
}

// FileConflict is one offending path found by the file-conflict scan
// (§4.6). For FileConflictFilesystem, Owner names the installed
// package that owns the path, or is empty for an unowned file.
type FileConflict struct {
	Type    FileConflictType
	Path    string
	Target  string
	Owner   string
}

func (f FileConflict) String() string {
	if f.Type == FileConflictTarget {
		return fmt.Sprintf("%s: %s exists in filesystem (owned by %s)", f.Target, f.Path, f.Owner)
	}
	return fmt.Sprintf("%s: %s exists in filesystem", f.Target, f.Path)
}

// FileConflictsError is the KindIO error surfaced by the file-conflict
// scan; it is fatal unless the caller set TransFlags.Force.
type FileConflictsError struct {
	Conflicts []FileConflict
}

func (e *FileConflictsError) Kind() ErrKind { return KindIO }

func (e *FileConflictsError) Error() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d file conflicts:", len(e.Conflicts))
	for _, c := range e.Conflicts {
		fmt.Fprintf(&buf, "\n  %s", c)
	}
	return buf.String()
}

// ValidationError covers §7's Validation kind: bad arguments, an
// uninitialized transaction, a duplicate target.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Kind() ErrKind { return KindValidation }
func (e *ValidationError) Error() string { return e.Msg }

// IntegrityError covers checksum/signature failures (§7 Integrity).
type IntegrityError struct {
	Package string
	Msg     string
}

func (e *IntegrityError) Kind() ErrKind { return KindIntegrity }
func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: %s", e.Package, e.Msg)
}

// ResourceError covers disk space and memory failures (§7 Resource).
type ResourceError struct {
	Msg string
}

func (e *ResourceError) Kind() ErrKind { return KindResource }
func (e *ResourceError) Error() string { return e.Msg }

// TransactionAbortedError marks a commit that failed partway through
// (§7 State); the transaction's on-disk state is whatever the partial
// commit achieved, and ldconfig must not run.
type TransactionAbortedError struct {
	Cause error
}

func (e *TransactionAbortedError) Kind() ErrKind { return KindState }
func (e *TransactionAbortedError) Error() string {
	return fmt.Sprintf("transaction aborted: %s", e.Cause)
}
func (e *TransactionAbortedError) Unwrap() error { return e.Cause }

// CantRemoveError describes a package whose files are present but not
// writable (§4.8). RemoveExecutor.Remove runs no such precheck and does
// not return it.
type CantRemoveError struct {
	Package string
	Paths   []string
}

func (e *CantRemoveError) Kind() ErrKind { return KindIO }
func (e *CantRemoveError) Error() string {
	return fmt.Sprintf("%s: %d files cannot be removed (permission denied)", e.Package, len(e.Paths))
}
