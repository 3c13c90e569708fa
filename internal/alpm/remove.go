package alpm

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/pkg/errors"
	"github.com/termie/go-shutil"
	"golang.org/x/sys/unix"
)

// RemoveOptions controls how RemoveExecutor.Remove behaves, mirroring
// the transaction flags of §4.8.
type RemoveOptions struct {
	// NoSave suppresses .pacsave backup creation for modified backup
	// files; they're unlinked like any other file.
	NoSave bool
	// NewPkg is set during an upgrade/replace: files this package owns
	// that are also owned by NewPkg are left alone rather than removed,
	// since the install executor will overwrite them in place.
	NewPkg *Package
	// SkipRemove is merged with any backup entries NewPkg introduces,
	// per the original's "add new backup files to skip_remove" rule.
	SkipRemove *SkipList
	// DBOnly skips every filesystem mutation below; only the database
	// entry removal the caller performs afterwards takes effect.
	DBOnly bool
}

// RemoveExecutor deletes a package's files from an install root and
// preserves locally-modified backup files as .pacsave (§4.8).
type RemoveExecutor struct {
	Root  string
	Event EventHandler
}

// CanRemove implements the pre-unlink check of §4.8: a file can be
// removed unless it matches skip_remove, or unless it's missing and
// that absence is itself suspicious (EACCES/ETXTBSY are tolerated as
// "someone else is using it right now", not fatal).
func (r *RemoveExecutor) CanRemove(path string, skip *SkipList) bool {
	if skip != nil && skip.Matches(path) {
		return false
	}
	full := filepath.Join(r.Root, path)
	err := unix.Access(full, unix.F_OK)
	if err == nil {
		return true
	}
	if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.ETXTBSY) {
		return true
	}
	// Missing entirely: nothing to remove, but not an error condition;
	// the caller simply skips it.
	return false
}

// Remove deletes pkg's files from the install root, backing up
// locally-modified backup entries to .pacsave first, in reverse file
// order so directories empty out before their own removal is attempted
// (§4.8). Directories are only rmdir'd, never force-removed, and a
// non-empty directory is silently left in place — other packages may
// still be using it.
func (r *RemoveExecutor) Remove(pkg *Package, opts RemoveOptions) error {
	if r.Event != nil {
		r.Event(Event{Type: EventPackageOperationStart, OpType: OpRemove, Target: pkg})
	}

	if !opts.DBOnly {
		skip := opts.SkipRemove
		newFiles := map[string]bool{}
		if opts.NewPkg != nil {
			for _, f := range opts.NewPkg.Files {
				newFiles[f.Path] = true
			}
			for _, b := range opts.NewPkg.Backup {
				if !newFiles[b.Path] {
					continue
				}
				skip = mergeSkip(skip, b.Path)
			}
		}

		for i := len(pkg.Files) - 1; i >= 0; i-- {
			f := pkg.Files[i]
			if opts.NewPkg != nil && newFiles[f.Path] {
				continue
			}
			if err := r.removeOne(pkg, f, skip, opts.NoSave); err != nil {
				return err
			}
		}
	}

	if r.Event != nil {
		r.Event(Event{Type: EventPackageOperationDone, OpType: OpRemove, Target: pkg})
	}
	return nil
}

func mergeSkip(skip *SkipList, extra string) *SkipList {
	var raw []string
	if skip != nil {
		raw = append(raw, skip.Raw()...)
	}
	raw = append(raw, extra)
	return NewSkipList(raw)
}

func (r *RemoveExecutor) removeOne(pkg *Package, f FileEntry, skip *SkipList, noSave bool) error {
	if skip != nil && skip.Matches(f.Path) {
		return nil
	}
	full := filepath.Join(r.Root, f.Path)

	info, err := os.Lstat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "stat %s", full)
	}

	if info.IsDir() {
		if err := unix.Rmdir(full); err != nil {
			if errors.Is(err, syscall.ENOTEMPTY) || errors.Is(err, syscall.EEXIST) {
				return nil
			}
			return errors.Wrapf(err, "rmdir %s", full)
		}
		return nil
	}

	if backup, ok := findBackup(pkg, f.Path); ok && !noSave {
		modified, err := backupModified(full, backup.Hash)
		if err != nil {
			return err
		}
		if modified {
			saveTo := full + ".pacsave"
			if err := shutil.CopyFile(full, saveTo, false); err != nil {
				return errors.Wrapf(err, "preserving %s as %s", full, saveTo)
			}
		}
	}

	if err := unix.Unlink(full); err != nil {
		if errors.Is(err, syscall.ENOENT) {
			return nil
		}
		return errors.Wrapf(err, "unlink %s", full)
	}
	return nil
}

func findBackup(pkg *Package, path string) (BackupEntry, bool) {
	for _, b := range pkg.Backup {
		if b.Path == path {
			return b, true
		}
	}
	return BackupEntry{}, false
}

// backupModified reports whether the file on disk at full no longer
// matches the MD5 hash recorded at install time, meaning the admin
// edited it and it's worth preserving as .pacsave.
func backupModified(full, recordedHash string) (bool, error) {
	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, "open %s", full)
	}
	defer f.Close()

	sum, err := md5File(f)
	if err != nil {
		return false, err
	}
	return sum != recordedHash, nil
}

func md5File(r io.Reader) (string, error) {
	h := md5.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
