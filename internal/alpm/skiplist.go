package alpm

import "github.com/gobwas/glob"

// SkipList compiles the NoUpgrade/NoExtract/skip_remove glob patterns
// from pacman.conf into matchers. A path checked against SkipList uses
// "/" separators relative to the install root, same as a package's
// FileEntry.Path.
type SkipList struct {
	patterns []glob.Glob
	raw      []string
}

// NewSkipList compiles patterns, which may use '*' and '?' wildcards
// the way pacman.conf's NoUpgrade/NoExtract/IgnorePkg directives do.
// A pattern that fails to compile is silently dropped from matching
// rather than aborting startup; Raw still lists it.
func NewSkipList(patterns []string) *SkipList {
	sl := &SkipList{raw: patterns}
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			continue
		}
		sl.patterns = append(sl.patterns, g)
	}
	return sl
}

// Matches reports whether path matches any compiled pattern.
func (sl *SkipList) Matches(path string) bool {
	for _, g := range sl.patterns {
		if g.Match(path) {
			return true
		}
	}
	return false
}

// Raw returns the original, uncompiled pattern strings, for display in
// -Qi/-Si style output.
func (sl *SkipList) Raw() []string { return sl.raw }
