package ai

import (
	"context"
	"errors"
	"strings"
)

// HistoryEntry is one earlier question/answer pair sent back to the agent.
type HistoryEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// AgentInput is everything the interview agent sees for one turn.
type AgentInput struct {
	JobRole             string
	Company             string
	ResumeText          string
	Language            string
	ConversationHistory []HistoryEntry
	CurrentTranscript   string
	Snapshot            *Snapshot
	// TargetExchanges is the number of meaningful exchanges after which the
	// agent should consider concluding.
	TargetExchanges int
}

// Validate checks the input constraints before any network call is made.
func (in AgentInput) Validate() error {
	if strings.TrimSpace(in.CurrentTranscript) == "" {
		return errors.New("current transcript must not be empty")
	}
	if strings.TrimSpace(in.Language) == "" {
		return errors.New("language is required")
	}
	if in.Snapshot != nil {
		if err := in.Snapshot.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Feedback is the agent's critique of one answer.
type Feedback struct {
	Content string   `json:"contentFeedback,omitempty"`
	Tone    string   `json:"toneFeedback,omitempty"`
	Clarity string   `json:"clarityFeedback,omitempty"`
	Visual  string   `json:"visualFeedback,omitempty"`
	Scoring *Scoring `json:"scoring,omitempty"`
}

// IsEmpty reports whether the agent produced no critique at all.
func (f Feedback) IsEmpty() bool {
	return strings.TrimSpace(f.Content) == "" &&
		strings.TrimSpace(f.Tone) == "" &&
		strings.TrimSpace(f.Clarity) == "" &&
		strings.TrimSpace(f.Visual) == "" &&
		f.Scoring == nil
}

// AgentOutput is the agent's reply for one turn. When IsInterviewOver is
// set NextQuestion carries the closing remark.
type AgentOutput struct {
	Feedback        Feedback
	NextQuestion    string
	IsInterviewOver bool
	Raw             string
}

// IsEndCommand reports whether the session ended because the candidate asked
// to stop: the agent concluded without critiquing the last answer.
func (o *AgentOutput) IsEndCommand() bool {
	return o != nil && o.IsInterviewOver && o.Feedback.IsEmpty()
}

// Agent drives the mock interview conversation.
type Agent interface {
	Respond(ctx context.Context, in AgentInput) (*AgentOutput, error)
}

// IceBreakerInput describes the opening of a voice session with video.
type IceBreakerInput struct {
	CandidateName string
	Language      string
	Snapshot      *Snapshot
}

// IceBreaker produces a personalised opening message.
type IceBreaker interface {
	IceBreaker(ctx context.Context, in IceBreakerInput) (string, error)
}

// ResumeAnalysis is the digest extracted from a resume document.
type ResumeAnalysis struct {
	IsResume          bool     `json:"isResume"`
	Skills            []string `json:"skills"`
	ExperienceSummary string   `json:"experienceSummary"`
}

// Digest renders the analysis as the resume text handed to the agent.
func (r *ResumeAnalysis) Digest() string {
	if r == nil {
		return ""
	}

	skills := make([]string, 0, len(r.Skills))
	for _, skill := range r.Skills {
		if skill = strings.TrimSpace(skill); skill != "" {
			skills = append(skills, skill)
		}
	}

	parts := make([]string, 0, 2)
	if len(skills) > 0 {
		parts = append(parts, strings.Join(skills, ", "))
	}
	if summary := strings.TrimSpace(r.ExperienceSummary); summary != "" {
		parts = append(parts, summary)
	}
	return strings.Join(parts, "\n\n")
}

// ResumeAnalyzer extracts skills and an experience summary from resume text.
type ResumeAnalyzer interface {
	AnalyzeResume(ctx context.Context, text string) (*ResumeAnalysis, error)
}

// Verdict is the moderation result for a free-text form value.
type Verdict struct {
	Valid  bool   `json:"isValid"`
	Reason string `json:"reason,omitempty"`
}

// InputValidator checks that a job role or company name is appropriate.
type InputValidator interface {
	ValidateInput(ctx context.Context, text string) (*Verdict, error)
}

// QuestionsInput describes the interview a question list is prepared for.
type QuestionsInput struct {
	ResumeText string
	JobRole    string
	Company    string
	Language   string
}

// QuestionGenerator drafts role specific practice questions during preparation.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, in QuestionsInput) ([]string, error)
}
