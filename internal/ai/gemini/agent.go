package gemini

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/Avinashhmavii/TIME-AI-Coach/internal/ai"
	"github.com/Avinashhmavii/TIME-AI-Coach/internal/utils"
)

//go:embed prompts/agent.md
var agentPromptTemplate string

const (
	defaultMaxLogLength    = 200
	defaultTargetExchanges = 5

	agentSystemInstruction = "You conduct realistic mock job interviews and coach the candidate after every answer."

	focusAreaInstruction = `   - The conversation history is empty: this is the first answer after the opening message. Do NOT ask a real interview question yet. Thank the candidate and ask which area they want to focus on: behavioral questions, technical questions, a deeper dive into their resume, or the company.`
	followUpInstruction  = `   - If the latest answer picks a focus area, acknowledge it and ask the first question from that area, tailored to the resume and the role.
   - Otherwise ask ONE coherent follow-up that builds on the latest answer. Cross-check the candidate's claims against the resume digest and gently probe any discrepancy.
   - If no follow-up is natural, ask a NEW standard question for the role, the resume and the chosen focus area.
   - Use conversational transitions. Never repeat an earlier question.`

	visualWithSnapshot    = "use the attached snapshot to comment on body language, eye contact and confidence."
	visualWithoutSnapshot = "leave empty, no snapshot was provided."
)

// Agent implements ai.Agent on top of Gemini.
type Agent struct {
	generator requestGenerator
	logger    *zap.Logger
	maxLogLen int
}

var _ ai.Agent = (*Agent)(nil)

func NewAgent(generator requestGenerator, maxLogLength int, logger *zap.Logger) *Agent {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Agent{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

type agentReply struct {
	ContentFeedback string         `json:"contentFeedback"`
	ToneFeedback    string         `json:"toneFeedback"`
	ClarityFeedback string         `json:"clarityFeedback"`
	VisualFeedback  string         `json:"visualFeedback"`
	Scoring         map[string]any `json:"scoring"`
	NextQuestion    string         `json:"nextQuestion"`
	IsInterviewOver bool           `json:"isInterviewOver"`
}

// Respond critiques the latest answer and produces the next question.
func (a *Agent) Respond(ctx context.Context, in ai.AgentInput) (*ai.AgentOutput, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("invalid agent input: %w", err)
	}

	prompt := buildAgentPrompt(in)

	req := Request{
		System: agentSystemInstruction,
		Prompt: prompt,
		Schema: agentSchema,
	}
	if in.Snapshot != nil {
		req.Images = []*ai.Snapshot{in.Snapshot}
	}

	a.logger.Debug("agent request",
		zap.Int("history_length", len(in.ConversationHistory)),
		zap.Bool("snapshot", in.Snapshot != nil),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, a.maxLogLen)),
	)

	raw, err := a.generator.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("agent response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, a.maxLogLen)),
	)

	var reply agentReply
	if err := decodeReply(raw, &reply); err != nil {
		return nil, err
	}

	output := &ai.AgentOutput{
		Feedback: ai.Feedback{
			Content: strings.TrimSpace(reply.ContentFeedback),
			Tone:    strings.TrimSpace(reply.ToneFeedback),
			Clarity: strings.TrimSpace(reply.ClarityFeedback),
			Visual:  strings.TrimSpace(reply.VisualFeedback),
		},
		NextQuestion:    strings.TrimSpace(reply.NextQuestion),
		IsInterviewOver: reply.IsInterviewOver,
		Raw:             raw,
	}

	if in.Snapshot == nil {
		output.Feedback.Visual = ""
	}

	if len(reply.Scoring) > 0 {
		scoring, err := parseScoring(reply.Scoring)
		if err != nil {
			a.logger.Warn("discarding invalid scoring block", zap.Error(err))
		} else {
			output.Feedback.Scoring = &scoring
		}
	}

	if output.NextQuestion == "" {
		return nil, errors.New("agent returned no next question")
	}

	return output, nil
}

// rawScore keeps the score undecoded so it can be checked for being a whole number.
type rawScore struct {
	Score         any    `json:"score"`
	Justification string `json:"justification"`
}

func parseScoring(raw map[string]any) (ai.Scoring, error) {
	scoring := make(ai.Scoring, len(raw))
	for key, value := range raw {
		if value == nil {
			continue
		}

		var decoded rawScore
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			TagName:          "json",
			Result:           &decoded,
		})
		if err != nil {
			return nil, err
		}
		if err := decoder.Decode(value); err != nil {
			return nil, fmt.Errorf("%s score: %w", key, err)
		}

		points, err := wholeScore(decoded.Score)
		if err != nil {
			return nil, fmt.Errorf("%s score: %w", key, err)
		}

		scoring[ai.Category(key)] = ai.Score{Score: points, Justification: decoded.Justification}
	}

	if err := scoring.Validate(); err != nil {
		return nil, err
	}
	return scoring, nil
}

// wholeScore accepts JSON numbers without a fractional part and numeric
// strings. Anything else, booleans included, is rejected.
func wholeScore(v any) (int, error) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("%v is not a whole number", n)
		}
		return int(n), nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case string:
		points, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("%q is not a whole number", n)
		}
		return points, nil
	case nil:
		return 0, errors.New("score is missing")
	default:
		return 0, fmt.Errorf("unsupported score type %T", v)
	}
}

func buildAgentPrompt(in ai.AgentInput) string {
	template := agentPromptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Role: {{JOB_ROLE}}\nCompany: {{COMPANY}}\nLanguage: {{LANGUAGE}}\nResume:\n{{RESUME}}\n\nHistory:\n{{HISTORY}}\n\nCandidate: {{TRANSCRIPT}}\n\nJSON Response:"
	}

	target := in.TargetExchanges
	if target <= 0 {
		target = defaultTargetExchanges
	}

	followUp := followUpInstruction
	if len(in.ConversationHistory) == 0 {
		followUp = focusAreaInstruction
	}

	visual := visualWithoutSnapshot
	if in.Snapshot != nil {
		visual = visualWithSnapshot
	}

	return fill(template, map[string]string{
		"JOB_ROLE":              orNone(singleLine(in.JobRole)),
		"COMPANY":               orNone(singleLine(in.Company)),
		"LANGUAGE":              singleLine(in.Language),
		"RESUME":                orNone(in.ResumeText),
		"HISTORY":               renderHistory(in.ConversationHistory),
		"TRANSCRIPT":            strings.TrimSpace(in.CurrentTranscript),
		"VISUAL_INSTRUCTION":    visual,
		"FOLLOW_UP_INSTRUCTION": followUp,
		"TARGET_EXCHANGES":      strconv.Itoa(target),
	})
}

func renderHistory(history []ai.HistoryEntry) string {
	if len(history) == 0 {
		return "(no earlier questions)"
	}

	var builder strings.Builder
	for i, entry := range history {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString("Interviewer: ")
		builder.WriteString(strings.TrimSpace(entry.Question))
		builder.WriteString("\nCandidate: ")
		builder.WriteString(strings.TrimSpace(entry.Answer))
	}
	return builder.String()
}
