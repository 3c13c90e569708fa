// Package archive reads .pkg.tar.zst package archives without fully
// extracting them, for the metadata-only operations (-Qp/-Sp style
// inspection, integrity checks before extraction) that the install
// executor's full extraction in internal/alpm/install.go doesn't need
// to do itself.
package archive

import (
	"archive/tar"
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// Info is the subset of a package archive's .PKGINFO fields needed
// before a Package struct can be built (the CLI's -U verb starts here
// for a local file target).
type Info struct {
	Name      string
	Version   string
	Size      int64
	BuildDate int64
	Depends   []string
	Provides  []string
	Conflicts []string
	Replaces  []string
}

// ReadInfo opens a .pkg.tar.zst archive and decodes its .PKGINFO entry
// without extracting anything else.
func ReadInfo(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "zstd init for %s", path)
	}
	defer zr.Close()

	tr := tar.NewReader(zr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil, errors.Errorf("%s: missing .PKGINFO", path)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", path)
		}
		if hdr.Name != ".PKGINFO" {
			continue
		}
		return parsePkginfo(tr)
	}
}

// parsePkginfo decodes pacman's key = value .PKGINFO format, one
// logical field per line, repeated keys (depend, provides, ...)
// accumulating into slices.
func parsePkginfo(r io.Reader) (*Info, error) {
	info := &Info{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		switch key {
		case "pkgname":
			info.Name = val
		case "pkgver":
			info.Version = val
		case "size":
			info.Size, _ = strconv.ParseInt(val, 10, 64)
		case "builddate":
			info.BuildDate, _ = strconv.ParseInt(val, 10, 64)
		case "depend":
			info.Depends = append(info.Depends, val)
		case "provides":
			info.Provides = append(info.Provides, val)
		case "conflict":
			info.Conflicts = append(info.Conflicts, val)
		case "replaces":
			info.Replaces = append(info.Replaces, val)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scanning .PKGINFO")
	}
	if info.Name == "" {
		return nil, errors.New(".PKGINFO missing pkgname")
	}
	return info, nil
}

// VerifySize compares an archive's on-disk size against the expected
// download size recorded in a sync repository, a cheap integrity
// pre-check before the more expensive checksum/signature validation in
// internal/sig.
func VerifySize(path string, expect int64) error {
	fi, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(err, "stat %s", path)
	}
	if fi.Size() != expect {
		return errors.Errorf("%s: size mismatch: expected %d, got %d", path, expect, fi.Size())
	}
	return nil
}
