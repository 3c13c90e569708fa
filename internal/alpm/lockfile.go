package alpm

import (
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/theckman/go-flock"
)

// LockFile guards exclusive access to an install root's database
// during Prepare/Commit (§5 Concurrency & Resource Model): pacman
// itself is single-writer, and a second instance targeting the same
// root must fail fast rather than corrupt the database.
type LockFile struct {
	path string
	fl   *flock.Flock
}

// NewLockFile returns the lock file for the db.lck convention: dbPath
// joined with "db.lck".
func NewLockFile(dbPath string) *LockFile {
	path := filepath.Join(dbPath, "db.lck")
	return &LockFile{path: path, fl: flock.NewFlock(path)}
}

// Path returns the lock file's filesystem path.
func (l *LockFile) Path() string { return l.path }

// TryLock attempts to acquire the lock without blocking, returning
// false (not an error) if another process holds it.
func (l *LockFile) TryLock() (bool, error) {
	ok, err := l.fl.TryLock()
	if err != nil {
		return false, errors.Wrapf(err, "locking %s", l.path)
	}
	return ok, nil
}

// Unlock releases the lock. It is idempotent.
func (l *LockFile) Unlock() error {
	if !l.fl.Locked() {
		return nil
	}
	return errors.Wrapf(l.fl.Unlock(), "unlocking %s", l.path)
}
