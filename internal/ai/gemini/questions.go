package gemini

import (
	"context"
	_ "embed"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Avinashhmavii/TIME-AI-Coach/internal/ai"
)

//go:embed prompts/questions.md
var questionsPromptTemplate string

const (
	minQuestions = 5
	maxQuestions = 10
)

type questionsReply struct {
	Questions []string `json:"questions"`
}

// QuestionGenerator implements ai.QuestionGenerator.
type QuestionGenerator struct {
	generator requestGenerator
	logger    *zap.Logger
}

var _ ai.QuestionGenerator = (*QuestionGenerator)(nil)

func NewQuestionGenerator(generator requestGenerator, logger *zap.Logger) *QuestionGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuestionGenerator{generator: generator, logger: logger}
}

// GenerateQuestions returns the trimmed, de-duplicated questions in the order
// the model gave them, at most maxQuestions.
func (q *QuestionGenerator) GenerateQuestions(ctx context.Context, in ai.QuestionsInput) ([]string, error) {
	if strings.TrimSpace(in.JobRole) == "" {
		return nil, errors.New("job role is required")
	}
	if strings.TrimSpace(in.Language) == "" {
		return nil, errors.New("language is required")
	}

	prompt := fill(questionsPromptTemplate, map[string]string{
		"JOB_ROLE":      strings.TrimSpace(in.JobRole),
		"COMPANY":       orNone(strings.TrimSpace(in.Company)),
		"LANGUAGE":      strings.TrimSpace(in.Language),
		"RESUME":        orNone(strings.TrimSpace(in.ResumeText)),
		"MIN_QUESTIONS": strconv.Itoa(minQuestions),
		"MAX_QUESTIONS": strconv.Itoa(maxQuestions),
	})

	raw, err := q.generator.Generate(ctx, Request{Prompt: prompt, Schema: questionsSchema})
	if err != nil {
		return nil, err
	}

	var reply questionsReply
	if err := decodeReply(raw, &reply); err != nil {
		return nil, err
	}

	questions := make([]string, 0, len(reply.Questions))
	seen := make(map[string]struct{}, len(reply.Questions))
	for _, question := range reply.Questions {
		question = singleLine(question)
		if question == "" {
			continue
		}
		if _, ok := seen[question]; ok {
			continue
		}
		seen[question] = struct{}{}
		questions = append(questions, question)
		if len(questions) == maxQuestions {
			break
		}
	}

	if len(questions) == 0 {
		return nil, errors.New("model returned no interview questions")
	}

	q.logger.Debug("interview questions generated", zap.Int("count", len(questions)))
	return questions, nil
}
