package alpm

import "strings"

// ParseDependExpr parses a dependency expression of the form
// "name", "name=ver", "name>=ver", "name<ver", etc., following the
// operator set {<, <=, =, >=, >} used throughout the repo metadata.
// A bare name with no operator parses to OpAny.
func ParseDependExpr(s string) DependExpr {
	for _, op := range []struct {
		tok string
		op  CompareOp
	}{
		{"<=", OpLessEq},
		{">=", OpGreaterEq},
		{"=", OpEqual},
		{"<", OpLess},
		{">", OpGreater},
	} {
		if i := strings.Index(s, op.tok); i >= 0 {
			return DependExpr{
				Name:    s[:i],
				Op:      op.op,
				Version: s[i+len(op.tok):],
			}
		}
	}
	return DependExpr{Name: s, Op: OpAny}
}

// SatisfiesAny reports whether any package in candidates satisfies e.
func SatisfiesAny(candidates []*Package, e DependExpr) (*Package, bool) {
	for _, c := range candidates {
		if c.Satisfies(e) {
			return c, true
		}
	}
	return nil, false
}

// ByName does a linear scan for the literal name match (no provides
// fallback); used where spec'd behavior explicitly wants a literal
// lookup rather than a satisfies test (§4.7's "literal lookup" step).
func ByName(candidates []*Package, name string) (*Package, bool) {
	for _, c := range candidates {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}
