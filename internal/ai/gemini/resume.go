package gemini

import (
	"context"
	_ "embed"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/Avinashhmavii/TIME-AI-Coach/internal/ai"
)

//go:embed prompts/resume.md
var resumePromptTemplate string

// ResumeAnalyzer implements ai.ResumeAnalyzer.
type ResumeAnalyzer struct {
	generator requestGenerator
	logger    *zap.Logger
}

var _ ai.ResumeAnalyzer = (*ResumeAnalyzer)(nil)

func NewResumeAnalyzer(generator requestGenerator, logger *zap.Logger) *ResumeAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResumeAnalyzer{generator: generator, logger: logger}
}

func (r *ResumeAnalyzer) AnalyzeResume(ctx context.Context, text string) (*ai.ResumeAnalysis, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("resume text is empty")
	}

	raw, err := r.generator.Generate(ctx, Request{
		Prompt: fill(resumePromptTemplate, map[string]string{"DOCUMENT": text}),
		Schema: resumeSchema,
	})
	if err != nil {
		return nil, err
	}

	var analysis ai.ResumeAnalysis
	if err := decodeReply(raw, &analysis); err != nil {
		return nil, err
	}

	if !analysis.IsResume {
		analysis.Skills = nil
		analysis.ExperienceSummary = ""
	}

	r.logger.Debug("resume analyzed",
		zap.Bool("is_resume", analysis.IsResume),
		zap.Int("skills", len(analysis.Skills)),
		zap.Int("document_length", utf8.RuneCountInString(text)),
	)

	return &analysis, nil
}
