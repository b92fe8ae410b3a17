package pipelinerun

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ReleaseConstraint matches runs by the Tekton release that executed them.
type ReleaseConstraint struct {
	raw string
	c   *semver.Constraints
}

// ParseReleaseConstraint parses a semver constraint such as ">=0.50".
func ParseReleaseConstraint(s string) (*ReleaseConstraint, error) {
	c, err := semver.NewConstraint(s)
	if err != nil {
		return nil, fmt.Errorf("parsing release constraint %q: %w", s, err)
	}

	return &ReleaseConstraint{raw: s, c: c}, nil
}

// String returns the constraint as given.
func (rc *ReleaseConstraint) String() string { return rc.raw }

// Satisfied reports whether the run's release annotation satisfies the
// constraint. Runs without a parseable release never do. The "v" prefix
// Tekton uses (e.g. "v0.59.2") is accepted.
func (rc *ReleaseConstraint) Satisfied(r *Run) bool {
	release := r.Release()
	if release == "" {
		return false
	}

	// Exact string match is always satisfied.
	if release == rc.raw {
		return true
	}

	v, err := semver.NewVersion(strings.TrimSpace(release))
	if err != nil {
		return false
	}

	return rc.c.Check(v)
}
