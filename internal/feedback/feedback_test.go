package feedback

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StarchLinux/pacman/internal/alpm"
)

func testLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{}))
}

func TestNewCandidateFeedbackExplicit(t *testing.T) {
	c := alpm.NewCandidate(&alpm.Package{Name: "foo", Version: "1.2.3-1"}, alpm.ReasonExplicit)
	cf := NewCandidateFeedback(c)
	assert.Equal(t, "foo", cf.Name)
	assert.Equal(t, "1.2.3-1", cf.Version)
	assert.Equal(t, ReasonTypeExplicit, cf.ReasonType)
	assert.Empty(t, cf.Replaces)
}

func TestNewCandidateFeedbackDependency(t *testing.T) {
	c := alpm.NewCandidate(&alpm.Package{Name: "libfoo", Version: "2.0-1"}, alpm.ReasonDepend)
	cf := NewCandidateFeedback(c)
	assert.Equal(t, ReasonTypeDependency, cf.ReasonType)
}

func TestNewCandidateFeedbackReplaces(t *testing.T) {
	c := alpm.NewCandidate(&alpm.Package{Name: "iproute2", Version: "2.0-1"}, alpm.ReasonExplicit)
	c.Removes = []*alpm.Package{{Name: "iproute", Version: "1.0-1"}}
	cf := NewCandidateFeedback(c)
	require.Len(t, cf.Replaces, 1)
	assert.Equal(t, "iproute-1.0-1", cf.Replaces[0])
}

func TestCandidateFeedbackLog(t *testing.T) {
	var buf bytes.Buffer
	cf := CandidateFeedback{Name: "foo", Version: "1.0-1", ReasonType: ReasonTypeExplicit}
	cf.Log(testLogger(&buf))
	assert.Contains(t, buf.String(), "installing foo")
}

func TestNewUnsatisfiedFeedback(t *testing.T) {
	dep := alpm.ParseDependExpr("libssl.so=3-64")
	uf := NewUnsatisfiedFeedback(&alpm.UnsatisfiedDepsError{
		Misses: []alpm.DepMiss{
			{Depender: &alpm.Package{Name: "curl"}, Dep: dep},
			{Depender: nil, Dep: dep},
		},
	})
	require.Len(t, uf.broken, 2)
	assert.Equal(t, "curl", uf.broken[0].depender)
	assert.Equal(t, "", uf.broken[1].depender)
}

func TestUnsatisfiedFeedbackLog(t *testing.T) {
	dep := alpm.ParseDependExpr("libssl.so=3-64")
	uf := NewUnsatisfiedFeedback(&alpm.UnsatisfiedDepsError{
		Misses: []alpm.DepMiss{{Depender: &alpm.Package{Name: "curl"}, Dep: dep}},
	})
	var buf bytes.Buffer
	uf.Log(testLogger(&buf))
	assert.Contains(t, buf.String(), "unable to satisfy dependency")
	assert.Contains(t, buf.String(), "curl")
}

func TestGetInstallingFeedback(t *testing.T) {
	msg := GetInstallingFeedback("foo", "1.2.3-1", ReasonTypeExplicit)
	assert.Equal(t, "installing foo (1.2.3-1) as explicit target", msg)
}

func TestGetReplacingFeedback(t *testing.T) {
	msg := GetReplacingFeedback("iproute", "iproute2", "2.0-1")
	assert.Equal(t, "replacing iproute with iproute2 2.0-1", msg)
}
