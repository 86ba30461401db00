// Package prepare validates the interview setup form and turns it into a
// stored preparation record the interview session starts from.
package prepare

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Avinashhmavii/TIME-AI-Coach/internal/ai"
)

// Check is a single validation step applied to a draft.
type Check interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, d *Draft) (Step, error)
}

// Deps aggregates dependencies shared across all checks.
type Deps struct {
	Logger    *zap.Logger
	Validator ai.InputValidator
	Analyzer  ai.ResumeAnalyzer
	Questions ai.QuestionGenerator
}

// Step describes the outcome of one check.
type Step struct {
	Passed bool
	Reason string
}

// Config contains settings consumed by the checks.
type Config struct {
	MinLength int
}

// Status represents runtime information about a check.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

type statusProvider interface {
	Status() Status
}

// RejectedError is returned by Run when a check did not pass.
type RejectedError struct {
	Check  string
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Check, e.Reason)
}

// DisableByName marks a check with the provided name as disabled while keeping it in the list.
func DisableByName(checks []Check, name, reason string) {
	for _, check := range checks {
		if check.Name() == name {
			check.Disable(reason)
		}
	}
}

// Run executes the enabled checks in order and stops at the first one that
// does not pass, returning a *RejectedError for it.
func Run(ctx context.Context, cfg *Config, deps Deps, checks []Check, d *Draft) error {
	if d == nil {
		return fmt.Errorf("draft is required")
	}

	for _, check := range checks {
		if !check.IsEnabled() {
			continue
		}
		if err := check.Validate(cfg); err != nil {
			return fmt.Errorf("%s: %w", check.Name(), err)
		}
	}

	for _, check := range checks {
		if !check.IsEnabled() {
			if deps.Logger != nil {
				deps.Logger.Info("check disabled", zap.String("name", check.Name()))
			}
			continue
		}

		step, err := check.Apply(ctx, deps, d)
		if err != nil {
			return fmt.Errorf("%s: %w", check.Name(), err)
		}

		if deps.Logger != nil {
			deps.Logger.Info("check step",
				zap.String("name", check.Name()),
				zap.Bool("passed", step.Passed),
				zap.String("reason", step.Reason),
			)
		}

		if !step.Passed {
			return &RejectedError{Check: check.Name(), Reason: step.Reason}
		}
	}

	return nil
}

// Describe returns status entries for the provided checks.
func Describe(checks []Check) []Status {
	statuses := make([]Status, 0, len(checks))
	for _, check := range checks {
		if reporter, ok := check.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    check.Name(),
			Enabled: check.IsEnabled(),
		})
	}
	return statuses
}

// DefaultChecks returns the standard pipeline: length, moderation, resume
// and question drafting.
func DefaultChecks() []Check {
	return []Check{
		NewLength(),
		NewModeration(),
		NewResume(),
		NewQuestions(),
	}
}
