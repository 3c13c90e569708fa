package alpm

import (
	"archive/tar"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/StarchLinux/pacman/internal/fs"
)

// ScriptletPhase identifies a point in the install/upgrade/remove
// lifecycle at which a package's install scriptlet may run.
type ScriptletPhase string

const (
	ScriptletPreInstall    ScriptletPhase = "pre_install"
	ScriptletPostInstall   ScriptletPhase = "post_install"
	ScriptletPreUpgrade    ScriptletPhase = "pre_upgrade"
	ScriptletPostUpgrade   ScriptletPhase = "post_upgrade"
	ScriptletPreRemove     ScriptletPhase = "pre_remove"
	ScriptletPostRemove    ScriptletPhase = "post_remove"
)

// ScriptletRunner invokes a package's .INSTALL scriptlet function for
// the given phase. The real implementation shells out to a bundled
// shell interpreter the way pacman's _alpm_runscriptlet does; tests
// supply a recording stub.
type ScriptletRunner interface {
	Run(scriptPath string, phase ScriptletPhase, pkgVer, oldVer string) error
}

// execScriptletRunner runs scriptlets via /bin/sh, sourcing the
// .INSTALL file and calling the named phase function, mirroring
// pacman's own scriptlet invocation convention.
type execScriptletRunner struct {
	Root string
}

func (r *execScriptletRunner) Run(scriptPath string, phase ScriptletPhase, pkgVer, oldVer string) error {
	shCmd := "source " + shellQuote(scriptPath) + " && " + string(phase) + " " + shellQuote(pkgVer)
	if oldVer != "" {
		shCmd += " " + shellQuote(oldVer)
	}
	cmd := exec.Command("/bin/sh", "-c", shCmd)
	cmd.Dir = r.Root
	out, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "scriptlet %s failed: %s", phase, out)
	}
	return nil
}

func shellQuote(s string) string {
	return "'" + s + "'"
}

// InstallExecutor extracts a package archive into an install root and
// runs its scriptlets at the appropriate phases (§4.9).
type InstallExecutor struct {
	Root      string
	Event     EventHandler
	Scriptlet ScriptletRunner
	NoExtract *SkipList
	NoUpgrade *SkipList
	// DBOnly skips archive extraction entirely; only the database entry
	// the caller writes afterwards takes effect.
	DBOnly bool
	// NoScriptlet skips pre/post install and upgrade scriptlet
	// invocations, even when the archive carries a .INSTALL.
	NoScriptlet bool
}

// NewInstallExecutor returns an executor that runs scriptlets via
// /bin/sh in root.
func NewInstallExecutor(root string) *InstallExecutor {
	return &InstallExecutor{Root: root, Scriptlet: &execScriptletRunner{Root: root}}
}

// Install extracts archivePath (a .pkg.tar.zst) into the install root
// and runs pre/post install or upgrade scriptlets around the
// extraction, depending on whether oldPkg is non-nil.
func (ie *InstallExecutor) Install(pkg *Package, archivePath string, oldPkg *Package) error {
	opType := OpInstall
	if oldPkg != nil {
		opType = OpUpgrade
	}
	if ie.Event != nil {
		ie.Event(Event{Type: EventPackageOperationStart, OpType: opType, Target: pkg, OldPkg: oldPkg})
	}

	var scriptPath string
	if !ie.DBOnly {
		var err error
		scriptPath, err = ie.extract(archivePath, oldPkg)
		if err != nil {
			return err
		}
	}

	if !ie.NoScriptlet && pkg.HasScriptlet && scriptPath != "" && ie.Scriptlet != nil {
		prePhase, postPhase := ScriptletPreInstall, ScriptletPostInstall
		oldVer := ""
		if oldPkg != nil {
			prePhase, postPhase = ScriptletPreUpgrade, ScriptletPostUpgrade
			oldVer = oldPkg.Version
		}
		if ie.Event != nil {
			ie.Event(Event{Type: EventScriptletStart})
		}
		if err := ie.Scriptlet.Run(scriptPath, prePhase, pkg.Version, oldVer); err != nil {
			return err
		}
		defer func() {
			if ie.Event != nil {
				ie.Event(Event{Type: EventScriptletDone})
			}
		}()
		if err := ie.Scriptlet.Run(scriptPath, postPhase, pkg.Version, oldVer); err != nil {
			return err
		}
	}

	if ie.Event != nil {
		ie.Event(Event{Type: EventPackageOperationDone, OpType: opType, Target: pkg, OldPkg: oldPkg})
	}
	return nil
}

// extract decompresses and unpacks a .pkg.tar.zst archive into the
// install root. Three paths divert a file from a normal in-place write:
// a NoExtract match, which is never extracted; a NoUpgrade match, which
// is skipped when the path already exists; and a locally-modified
// backup file carried over from oldPkg during an upgrade, which is
// written alongside the existing file as "<path>.pacnew" instead of
// overwriting it (§9 SUPPLEMENTED FEATURES).
// It returns the extracted .INSTALL scriptlet's path, if the archive
// carries one.
func (ie *InstallExecutor) extract(archivePath string, oldPkg *Package) (string, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return "", errors.Wrapf(err, "open %s", archivePath)
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return "", errors.Wrapf(err, "zstd init for %s", archivePath)
	}
	defer zr.Close()

	tr := tar.NewReader(zr)
	scriptPath := ""

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", errors.Wrapf(err, "reading %s", archivePath)
		}

		if hdr.Name == ".INSTALL" {
			scriptPath = filepath.Join(ie.Root, ".INSTALL")
			if err := ie.writeFile(tr, scriptPath, hdr); err != nil {
				return "", err
			}
			continue
		}

		// Skip pacman's own embedded package metadata; it belongs in the
		// local database, not on the filesystem.
		if hdr.Name == ".PKGINFO" || hdr.Name == ".MTREE" || hdr.Name == ".BUILDINFO" || hdr.Name == ".CHANGELOG" {
			continue
		}

		dest := filepath.Join(ie.Root, hdr.Name)
		if !fs.HasFilepathPrefix(dest, ie.Root) {
			return "", errors.Errorf("archive entry %q escapes install root", hdr.Name)
		}

		// NoExtract never extracts a matching path at all, even on a
		// fresh install.
		if ie.NoExtract != nil && ie.NoExtract.Matches(hdr.Name) {
			continue
		}

		// NoUpgrade only protects a path once it already exists on
		// disk; a first install still extracts it normally.
		if ie.NoUpgrade != nil && ie.NoUpgrade.Matches(hdr.Name) {
			if _, statErr := os.Lstat(dest); statErr == nil {
				continue
			}
		}

		if oldPkg != nil && hdr.Typeflag == tar.TypeReg {
			if backup, ok := findBackup(oldPkg, hdr.Name); ok {
				modified, err := backupModified(dest, backup.Hash)
				if err != nil {
					return "", err
				}
				if modified {
					dest = dest + ".pacnew"
				}
			}
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, os.FileMode(hdr.Mode)); err != nil {
				return "", errors.Wrapf(err, "mkdir %s", dest)
			}
		case tar.TypeSymlink:
			_ = os.Remove(dest)
			if err := os.Symlink(hdr.Linkname, dest); err != nil {
				return "", errors.Wrapf(err, "symlink %s", dest)
			}
		default:
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return "", errors.Wrapf(err, "mkdir %s", filepath.Dir(dest))
			}
			if err := ie.writeFile(tr, dest, hdr); err != nil {
				return "", err
			}
		}
	}

	return scriptPath, nil
}

// writeFile streams r to a temporary file beside dest and renames it
// into place, so a crash mid-extraction never leaves a half-written
// file at the final path. The rename falls back to a copy when dest's
// directory is a different filesystem than the temp file (e.g. the
// cache and install root on separate mounts).
func (ie *InstallExecutor) writeFile(r io.Reader, dest string, hdr *tar.Header) error {
	tmp := dest + ".pacman-tmp"
	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, os.FileMode(hdr.Mode))
	if err != nil {
		return errors.Wrapf(err, "create %s", tmp)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		os.Remove(tmp)
		return errors.Wrapf(err, "write %s", tmp)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "close %s", tmp)
	}
	if err := fs.RenameWithFallback(tmp, dest); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "rename %s to %s", tmp, dest)
	}
	return nil
}
