package gemini

import (
	"context"
	_ "embed"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/Avinashhmavii/TIME-AI-Coach/internal/ai"
)

//go:embed prompts/validator.md
var validatorPromptTemplate string

const minValidatedLength = 2

// InputValidator implements ai.InputValidator.
type InputValidator struct {
	generator requestGenerator
	logger    *zap.Logger
}

var _ ai.InputValidator = (*InputValidator)(nil)

func NewInputValidator(generator requestGenerator, logger *zap.Logger) *InputValidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InputValidator{generator: generator, logger: logger}
}

// ValidateInput moderates a job role or company name. Values shorter than two
// characters are rejected without a model call.
func (v *InputValidator) ValidateInput(ctx context.Context, text string) (*ai.Verdict, error) {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < minValidatedLength {
		return &ai.Verdict{Valid: false, Reason: "Input is too short."}, nil
	}

	raw, err := v.generator.Generate(ctx, Request{
		Prompt: fill(validatorPromptTemplate, map[string]string{"TEXT": text}),
		Schema: validatorSchema,
	})
	if err != nil {
		return nil, err
	}

	var verdict ai.Verdict
	if err := decodeReply(raw, &verdict); err != nil {
		return nil, err
	}
	if !verdict.Valid && strings.TrimSpace(verdict.Reason) == "" {
		verdict.Reason = "Input contains inappropriate content."
	}

	v.logger.Debug("input validated", zap.Bool("valid", verdict.Valid))

	return &verdict, nil
}
