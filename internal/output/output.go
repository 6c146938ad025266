package output

import (
	"context"
	"fmt"

	"github.com/crimson-sun/runlog/internal/model"
)

// Output defines the interface for envelope destinations.
type Output interface {
	Write(ctx context.Context, env model.Envelope) error
	Close() error
}

// Policy decides which envelopes a destination prints.
type Policy string

const (
	PolicyOnFail Policy = "onFail"
	PolicyAlways Policy = "always"
	PolicyNever  Policy = "never"
)

// ParsePolicy validates s. Empty input yields def.
func ParsePolicy(s string, def Policy) (Policy, error) {
	switch Policy(s) {
	case "":
		return def, nil
	case PolicyOnFail, PolicyAlways, PolicyNever:
		return Policy(s), nil
	}
	return "", fmt.Errorf("unknown print policy %q (want onFail, always or never)", s)
}

// Allows reports whether env should be printed under p. Passed hooks are
// only printed when includeSuccessfulHooks is set. Continuous flushes arrive
// before the outcome is known and are printed unless p is never.
func (p Policy) Allows(env model.Envelope, includeSuccessfulHooks bool) bool {
	if p == PolicyNever {
		return false
	}
	if env.Continuous {
		return true
	}
	if env.IsHook && env.State == model.StatePassed && !includeSuccessfulHooks {
		return false
	}
	if p == PolicyOnFail {
		return env.State == model.StateFailed
	}
	return true
}
