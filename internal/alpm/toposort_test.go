package alpm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func indexOf(candidates []*Candidate, name string) int {
	for i, c := range candidates {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func TestTopoSortInstallOrdersDependenciesFirst(t *testing.T) {
	zlib := NewCandidate(&Package{Name: "zlib"}, ReasonDepend)
	foo := NewCandidate(&Package{Name: "foo", Depends: []DependExpr{{Name: "zlib", Op: OpAny}}}, ReasonExplicit)

	sorted := TopoSortInstall([]*Candidate{foo, zlib})
	require.Len(t, sorted, 2)
	assert.Less(t, indexOf(sorted, "zlib"), indexOf(sorted, "foo"))
}

func TestTopoSortInstallTreatsCycleAsCoEqual(t *testing.T) {
	a := NewCandidate(&Package{Name: "a", Depends: []DependExpr{{Name: "b", Op: OpAny}}}, ReasonExplicit)
	b := NewCandidate(&Package{Name: "b", Depends: []DependExpr{{Name: "a", Op: OpAny}}}, ReasonExplicit)

	sorted := TopoSortInstall([]*Candidate{a, b})
	assert.Len(t, sorted, 2)
}

func TestTopoSortRemoveIsReverseOfInstall(t *testing.T) {
	zlib := NewCandidate(&Package{Name: "zlib"}, ReasonDepend)
	foo := NewCandidate(&Package{Name: "foo", Depends: []DependExpr{{Name: "zlib", Op: OpAny}}}, ReasonExplicit)

	sorted := TopoSortRemove([]*Candidate{foo, zlib})
	require.Len(t, sorted, 2)
	assert.Less(t, indexOf(sorted, "foo"), indexOf(sorted, "zlib"))
}
