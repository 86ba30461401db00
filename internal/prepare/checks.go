package prepare

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/Avinashhmavii/TIME-AI-Coach/internal/ai"
)

const (
	defaultMinLength = 2

	reasonCouldNotValidate = "Could not validate input."
	reasonNotResume        = "The uploaded document does not look like a resume."
	reasonEmptyDigest      = "No skills or experience could be extracted from the resume."
	reasonNoQuestions      = "No interview questions could be generated."
)

type lengthCheck struct {
	minLength int
}

// NewLength creates a check requiring a job role and, when given, a company of a minimum length.
func NewLength() Check {
	return &lengthCheck{}
}

func (c *lengthCheck) Name() string { return "length" }

func (c *lengthCheck) Disable(string) {}

func (c *lengthCheck) IsEnabled() bool { return true }

func (c *lengthCheck) Validate(cfg *Config) error {
	c.minLength = defaultMinLength
	if cfg != nil && cfg.MinLength > 0 {
		c.minLength = cfg.MinLength
	}
	return nil
}

func (c *lengthCheck) Apply(_ context.Context, _ Deps, d *Draft) (Step, error) {
	if utf8.RuneCountInString(strings.TrimSpace(d.JobRole)) < c.minLength {
		return Step{Reason: "Job role must be at least " + strconv.Itoa(c.minLength) + " characters."}, nil
	}

	company := strings.TrimSpace(d.Company)
	if company != "" && utf8.RuneCountInString(company) < c.minLength {
		return Step{Reason: "Company or exam must be at least " + strconv.Itoa(c.minLength) + " characters."}, nil
	}

	return Step{Passed: true}, nil
}

func (c *lengthCheck) Status() Status {
	return Status{
		Name:    c.Name(),
		Enabled: true,
		Details: map[string]string{"min_length": strconv.Itoa(c.minLength)},
	}
}

type moderationCheck struct {
	disabled bool
	reason   string
}

// NewModeration creates the AI moderation check for the job role and company.
func NewModeration() Check {
	return &moderationCheck{}
}

func (c *moderationCheck) Name() string { return "moderation" }

func (c *moderationCheck) Disable(reason string) {
	c.disabled = true
	c.reason = reason
}

func (c *moderationCheck) IsEnabled() bool { return !c.disabled }

func (c *moderationCheck) Validate(*Config) error { return nil }

// Apply asks the validator about every non-empty field. A validator failure
// rejects the draft rather than letting unchecked input through.
func (c *moderationCheck) Apply(ctx context.Context, deps Deps, d *Draft) (Step, error) {
	if deps.Validator == nil {
		return Step{}, errors.New("input validator is required")
	}

	for _, field := range []string{d.JobRole, d.Company} {
		if strings.TrimSpace(field) == "" {
			continue
		}

		verdict, err := deps.Validator.ValidateInput(ctx, field)
		if err != nil {
			if deps.Logger != nil {
				deps.Logger.Warn("input validation failed", zap.Error(err))
			}
			return Step{Reason: reasonCouldNotValidate}, nil
		}
		if !verdict.Valid {
			return Step{Reason: verdict.Reason}, nil
		}
	}

	return Step{Passed: true}, nil
}

func (c *moderationCheck) Status() Status {
	return Status{Name: c.Name(), Enabled: c.IsEnabled(), Reason: c.reason}
}

type resumeCheck struct {
	disabled bool
	reason   string
}

// NewResume creates the check that analyzes the resume text and stores its digest on the draft.
func NewResume() Check {
	return &resumeCheck{}
}

func (c *resumeCheck) Name() string { return "resume" }

func (c *resumeCheck) Disable(reason string) {
	c.disabled = true
	c.reason = reason
}

func (c *resumeCheck) IsEnabled() bool { return !c.disabled }

func (c *resumeCheck) Validate(*Config) error { return nil }

func (c *resumeCheck) Apply(ctx context.Context, deps Deps, d *Draft) (Step, error) {
	if strings.TrimSpace(d.ResumeText) == "" {
		return Step{Reason: "A resume is required."}, nil
	}
	if deps.Analyzer == nil {
		return Step{}, errors.New("resume analyzer is required")
	}

	analysis, err := deps.Analyzer.AnalyzeResume(ctx, d.ResumeText)
	if err != nil {
		return Step{}, err
	}
	if !analysis.IsResume {
		return Step{Reason: reasonNotResume}, nil
	}

	digest := analysis.Digest()
	if digest == "" {
		return Step{Reason: reasonEmptyDigest}, nil
	}

	d.Analysis = analysis
	if deps.Logger != nil {
		deps.Logger.Debug("resume digest ready", zap.Int("skills", len(analysis.Skills)))
	}
	return Step{Passed: true}, nil
}

func (c *resumeCheck) Status() Status {
	return Status{Name: c.Name(), Enabled: c.IsEnabled(), Reason: c.reason}
}

type questionsCheck struct {
	disabled bool
	reason   string
}

// NewQuestions creates the check that drafts practice questions for the role
// from the resume digest. It runs after the resume check.
func NewQuestions() Check {
	return &questionsCheck{}
}

func (c *questionsCheck) Name() string { return "questions" }

func (c *questionsCheck) Disable(reason string) {
	c.disabled = true
	c.reason = reason
}

func (c *questionsCheck) IsEnabled() bool { return !c.disabled }

func (c *questionsCheck) Validate(*Config) error { return nil }

func (c *questionsCheck) Apply(ctx context.Context, deps Deps, d *Draft) (Step, error) {
	if deps.Questions == nil {
		return Step{}, errors.New("question generator is required")
	}

	language := strings.TrimSpace(d.Language)
	if language == "" {
		language = defaultLanguage
	}

	questions, err := deps.Questions.GenerateQuestions(ctx, ai.QuestionsInput{
		ResumeText: d.Analysis.Digest(),
		JobRole:    d.JobRole,
		Company:    d.Company,
		Language:   language,
	})
	if err != nil {
		return Step{}, err
	}
	if len(questions) == 0 {
		return Step{Reason: reasonNoQuestions}, nil
	}

	d.Questions = questions
	return Step{Passed: true}, nil
}

func (c *questionsCheck) Status() Status {
	return Status{Name: c.Name(), Enabled: c.IsEnabled(), Reason: c.reason}
}
