package gemini

import (
	"context"
	_ "embed"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/Avinashhmavii/TIME-AI-Coach/internal/ai"
	"github.com/Avinashhmavii/TIME-AI-Coach/internal/utils"
)

//go:embed prompts/icebreaker.md
var iceBreakerPromptTemplate string

type iceBreakerReply struct {
	Question string `json:"question"`
}

// IceBreaker implements ai.IceBreaker.
type IceBreaker struct {
	generator requestGenerator
	logger    *zap.Logger
	maxLogLen int
}

var _ ai.IceBreaker = (*IceBreaker)(nil)

func NewIceBreaker(generator requestGenerator, maxLogLength int, logger *zap.Logger) *IceBreaker {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IceBreaker{generator: generator, logger: logger, maxLogLen: maxLogLength}
}

// IceBreaker greets the candidate using the camera snapshot.
func (b *IceBreaker) IceBreaker(ctx context.Context, in ai.IceBreakerInput) (string, error) {
	if in.Snapshot == nil {
		return "", errors.New("ice-breaker requires a snapshot")
	}
	if err := in.Snapshot.Validate(); err != nil {
		return "", err
	}

	language := singleLine(in.Language)
	if language == "" {
		language = "English"
	}
	name := singleLine(in.CandidateName)
	if name == "" {
		name = "the candidate (name unknown, greet them warmly without a name)"
	}

	prompt := fill(iceBreakerPromptTemplate, map[string]string{
		"LANGUAGE":       language,
		"CANDIDATE_NAME": name,
	})

	raw, err := b.generator.Generate(ctx, Request{
		Prompt: prompt,
		Images: []*ai.Snapshot{in.Snapshot},
		Schema: iceBreakerSchema,
	})
	if err != nil {
		return "", err
	}

	var reply iceBreakerReply
	if err := decodeReply(raw, &reply); err != nil {
		return "", err
	}

	question := strings.TrimSpace(reply.Question)
	if question == "" {
		return "", errors.New("ice-breaker returned no question")
	}

	b.logger.Debug("ice-breaker generated", zap.String("question_preview", utils.TruncateForLog(question, b.maxLogLen)))

	return question, nil
}
