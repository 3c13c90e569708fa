package alpm

import (
	"strconv"
	"strings"
)

// CompareOp is the comparison operator of a dependency expression.
type CompareOp uint8

const (
	OpAny CompareOp = iota
	OpLess
	OpLessEq
	OpEqual
	OpGreaterEq
	OpGreater
)

func (op CompareOp) String() string {
	switch op {
	case OpLess:
		return "<"
	case OpLessEq:
		return "<="
	case OpEqual:
		return "="
	case OpGreaterEq:
		return ">="
	case OpGreater:
		return ">"
	default:
		return ""
	}
}

// CompareVersion implements the total order of §4.2: compare epochs as
// integers, then split ver-rel on "-" and compare the version segment
// mixing numeric and alphabetic runs, then compare the release segment.
// A missing release compares as absent, not as zero: "1.0" and "1.0-0"
// are not equal, and the one with no release sorts lower.
//
// Returns -1, 0, or 1, following the usual strcmp convention.
func CompareVersion(a, b string) int {
	aEpoch, aRest := splitEpoch(a)
	bEpoch, bRest := splitEpoch(b)
	if aEpoch != bEpoch {
		if aEpoch < bEpoch {
			return -1
		}
		return 1
	}

	aVer, aRel, aHasRel := splitRelease(aRest)
	bVer, bRel, bHasRel := splitRelease(bRest)

	if c := compareSegment(aVer, bVer); c != 0 {
		return c
	}

	switch {
	case aHasRel && bHasRel:
		return compareSegment(aRel, bRel)
	case aHasRel && !bHasRel:
		return 1
	case !aHasRel && bHasRel:
		return -1
	default:
		return 0
	}
}

func splitEpoch(v string) (int, string) {
	if i := strings.IndexByte(v, ':'); i >= 0 {
		e, err := strconv.Atoi(v[:i])
		if err != nil {
			e = 0
		}
		return e, v[i+1:]
	}
	return 0, v
}

func splitRelease(v string) (ver, rel string, hasRel bool) {
	if i := strings.IndexByte(v, '-'); i >= 0 {
		return v[:i], v[i+1:], true
	}
	return v, "", false
}

// compareSegment compares two version/release segments by walking both
// strings and comparing alternating runs of digits (numeric compare)
// and non-digits (byte-wise lexicographic compare), as pacman's
// rpmvercmp does.
func compareSegment(a, b string) int {
	for len(a) > 0 || len(b) > 0 {
		// Skip any leading non-alphanumeric separator runs on both
		// sides; they don't themselves participate in the comparison.
		a = strings.TrimLeft(a, ".+~_")
		b = strings.TrimLeft(b, ".+~_")

		if a == "" || b == "" {
			break
		}

		if isDigit(a[0]) && isDigit(b[0]) {
			an, arest := takeRun(a, isDigit)
			bn, brest := takeRun(b, isDigit)
			a, b = arest, brest

			an = strings.TrimLeft(an, "0")
			bn = strings.TrimLeft(bn, "0")
			if len(an) != len(bn) {
				if len(an) < len(bn) {
					return -1
				}
				return 1
			}
			if an != bn {
				if an < bn {
					return -1
				}
				return 1
			}
			continue
		}

		if !isDigit(a[0]) && !isDigit(b[0]) {
			as, arest := takeRun(a, isAlpha)
			bs, brest := takeRun(b, isAlpha)
			a, b = arest, brest
			if as != bs {
				if as < bs {
					return -1
				}
				return 1
			}
			continue
		}

		// One side is numeric, the other alphabetic at this position: a
		// numeric run always wins over an alphabetic one.
		if isDigit(a[0]) {
			return 1
		}
		return -1
	}

	switch {
	case len(a) == len(b):
		return 0
	case len(a) < len(b):
		return -1
	default:
		return 1
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isAlpha(c byte) bool { return !isDigit(c) }

func takeRun(s string, pred func(byte) bool) (run, rest string) {
	i := 0
	for i < len(s) && pred(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

// matchVersion applies op to the comparison of have against want:
// have is the candidate's version, want is the expression's version.
func matchVersion(op CompareOp, have, want string) bool {
	if op == OpAny {
		return true
	}
	c := CompareVersion(have, want)
	switch op {
	case OpLess:
		return c < 0
	case OpLessEq:
		return c <= 0
	case OpEqual:
		return c == 0
	case OpGreaterEq:
		return c >= 0
	case OpGreater:
		return c > 0
	default:
		return false
	}
}
