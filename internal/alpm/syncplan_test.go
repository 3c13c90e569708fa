package alpm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanUpgradeLiteralNewer(t *testing.T) {
	oldFoo := &Package{Name: "foo", Version: "1.0"}
	newFoo := &Package{Name: "foo", Version: "2.0"}

	local := NewLocalDatabase("/")
	local.Load([]struct {
		Pkg    *Package
		Reason Reason
	}{{Pkg: oldFoo, Reason: ReasonExplicit}})

	repo := newTestRepo("core", newFoo)
	sp := &SyncPlanner{Local: local, Repos: []*Repository{repo}}

	candidates, err := sp.PlanUpgrade()
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "foo", candidates[0].Name)
	assert.Equal(t, "2.0", candidates[0].Version)
	assert.Equal(t, ReasonExplicit, candidates[0].Reason)
	require.Len(t, candidates[0].Removes, 1)
	assert.Equal(t, "1.0", candidates[0].Removes[0].Version)
}

func TestPlanUpgradeSkipsUpToDate(t *testing.T) {
	pkg := &Package{Name: "foo", Version: "2.0"}
	local := NewLocalDatabase("/")
	local.Load([]struct {
		Pkg    *Package
		Reason Reason
	}{{Pkg: pkg, Reason: ReasonExplicit}})

	repo := newTestRepo("core", &Package{Name: "foo", Version: "2.0"})
	sp := &SyncPlanner{Local: local, Repos: []*Repository{repo}}

	candidates, err := sp.PlanUpgrade()
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestPlanUpgradeViaReplaces(t *testing.T) {
	oldPkg := &Package{Name: "iproute", Version: "1.0"}
	newPkg := &Package{
		Name:     "iproute2",
		Version:  "2.0",
		Replaces: []DependExpr{{Name: "iproute", Op: OpAny}},
	}

	local := NewLocalDatabase("/")
	local.Load([]struct {
		Pkg    *Package
		Reason Reason
	}{{Pkg: oldPkg, Reason: ReasonExplicit}})

	repo := newTestRepo("core", newPkg)
	sp := &SyncPlanner{Local: local, Repos: []*Repository{repo}}

	candidates, err := sp.PlanUpgrade()
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "iproute2", candidates[0].Name)
	require.Len(t, candidates[0].Removes, 1)
	assert.Equal(t, "iproute", candidates[0].Removes[0].Name)
}

func TestPlanUpgradeReplacesAsksQuestionAndHonorsDecline(t *testing.T) {
	oldPkg := &Package{Name: "iproute", Version: "1.0"}
	newPkg := &Package{
		Name:     "iproute2",
		Version:  "2.0",
		Replaces: []DependExpr{{Name: "iproute", Op: OpAny}},
	}
	local := NewLocalDatabase("/")
	local.Load([]struct {
		Pkg    *Package
		Reason Reason
	}{{Pkg: oldPkg, Reason: ReasonExplicit}})
	repo := newTestRepo("core", newPkg)

	asked := false
	sp := &SyncPlanner{
		Local: local,
		Repos: []*Repository{repo},
		Question: func(q *Question) bool {
			asked = true
			assert.Equal(t, QuestionReplacePkg, q.Type)
			return false
		},
	}

	candidates, err := sp.PlanUpgrade()
	require.NoError(t, err)
	assert.True(t, asked)
	assert.Empty(t, candidates)
}
