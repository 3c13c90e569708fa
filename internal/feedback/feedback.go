// Package feedback renders the human-readable lines a transaction
// prepare/commit cycle prints about what it decided and why, separate
// from the structured alpm.Event/Question stream the engine itself
// emits.
package feedback

import (
	"fmt"
	"log/slog"

	"github.com/StarchLinux/pacman/internal/alpm"
)

const (
	// ReasonTypeExplicit describes a candidate the user asked for by name.
	ReasonTypeExplicit = "explicit target"
	// ReasonTypeDependency describes a candidate pulled in to satisfy a dependency.
	ReasonTypeDependency = "dependency"
)

// CandidateFeedback holds the human-facing summary of one resolved
// candidate: what it is, why it's in the plan, and what (if anything)
// it displaces.
type CandidateFeedback struct {
	Name, Version, ReasonType string
	Replaces                  []string
}

// NewCandidateFeedback builds a feedback entry for one resolved
// candidate, generalizing the teacher's constraint/dependency-type
// split (explicit vs transitive) to pacman's install-reason split.
func NewCandidateFeedback(c *alpm.Candidate) *CandidateFeedback {
	cf := &CandidateFeedback{
		Name:    c.Name,
		Version: c.Version,
	}
	if c.Reason == alpm.ReasonExplicit {
		cf.ReasonType = ReasonTypeExplicit
	} else {
		cf.ReasonType = ReasonTypeDependency
	}
	for _, r := range c.Removes {
		cf.Replaces = append(cf.Replaces, r.String())
	}
	return cf
}

// Log writes the candidate's feedback line(s) via logger.
func (cf CandidateFeedback) Log(logger *slog.Logger) {
	logger.Info(GetInstallingFeedback(cf.Name, cf.Version, cf.ReasonType))
	for _, old := range cf.Replaces {
		logger.Info(GetReplacingFeedback(old, cf.Name, cf.Version))
	}
}

type brokenDependency struct {
	depender, dependency string
	expr                  alpm.DependExpr
}

func (bd brokenDependency) String() string {
	if bd.depender == "" {
		return fmt.Sprintf("nothing provides %s", bd.expr)
	}
	return fmt.Sprintf("%s: requires %s", bd.depender, bd.expr)
}

// UnsatisfiedFeedback holds the feedback lines for a failed resolve
// pass's missing-dependency diagnostics.
type UnsatisfiedFeedback struct {
	broken []brokenDependency
}

// NewUnsatisfiedFeedback builds a feedback entry from an
// *alpm.UnsatisfiedDepsError.
func NewUnsatisfiedFeedback(err *alpm.UnsatisfiedDepsError) *UnsatisfiedFeedback {
	uf := &UnsatisfiedFeedback{}
	for _, miss := range err.Misses {
		bd := brokenDependency{expr: miss.Dep}
		if miss.Depender != nil {
			bd.depender = miss.Depender.Name
		}
		uf.broken = append(uf.broken, bd)
	}
	return uf
}

// Log writes a warning line for each unresolved dependency.
func (u UnsatisfiedFeedback) Log(logger *slog.Logger) {
	for _, bd := range u.broken {
		logger.Warn(fmt.Sprintf("unable to satisfy dependency: %v", bd))
	}
}

// GetInstallingFeedback returns an "installing as" feedback message.
// For example:
//
//	installing foo (1.2.3-1) as explicit target
//	installing zlib (1.2.3-1) as dependency
func GetInstallingFeedback(name, version, reasonType string) string {
	return fmt.Sprintf("installing %s (%s) as %s", name, version, reasonType)
}

// GetReplacingFeedback returns a "replacing" feedback message. For
// example:
//
//	replacing iproute-1.0-1 with iproute2 2.0-1
func GetReplacingFeedback(oldPkgVer, newName, newVersion string) string {
	return fmt.Sprintf("replacing %s with %s %s", oldPkgVer, newName, newVersion)
}
