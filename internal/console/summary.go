package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/Avinashhmavii/TIME-AI-Coach/internal/ai"
	"github.com/Avinashhmavii/TIME-AI-Coach/internal/interview"
)

// WriteFeedback prints the critique of one answer. Empty sections are skipped.
func WriteFeedback(w io.Writer, fb ai.Feedback) error {
	if fb.IsEmpty() {
		return nil
	}

	var b strings.Builder
	section(&b, "Content", fb.Content)
	section(&b, "Tone", fb.Tone)
	section(&b, "Clarity", fb.Clarity)
	section(&b, "Visual", fb.Visual)
	if fb.Scoring != nil {
		writeScoring(&b, *fb.Scoring)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteSummary prints a finished interview: every turn with its feedback and
// the aggregate score.
func WriteSummary(w io.Writer, record *interview.Record) error {
	if record == nil {
		return fmt.Errorf("record is nil")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Interview %s\n", record.ID)
	fmt.Fprintf(&b, "Role: %s", record.Context.JobRole)
	if record.Context.Company != "" {
		fmt.Fprintf(&b, " at %s", record.Context.Company)
	}
	fmt.Fprintf(&b, "\nEnded: %s\n", record.Reason)

	var turns []interview.Turn
	if record.Ledger != nil {
		turns = record.Ledger.Turns()
	}
	for i, turn := range turns {
		fmt.Fprintf(&b, "\n#%d Q: %s\n   A: %s\n", i+1, turn.Question, turn.Answer)
		section(&b, "Content", turn.Feedback.Content)
		section(&b, "Tone", turn.Feedback.Tone)
		section(&b, "Clarity", turn.Feedback.Clarity)
		section(&b, "Visual", turn.Feedback.Visual)
		if turn.Feedback.Scoring != nil {
			writeScoring(&b, *turn.Feedback.Scoring)
		}
	}

	if record.ClosingRemark != "" {
		fmt.Fprintf(&b, "\n%s\n", record.ClosingRemark)
	}
	if score, ok := record.Score(); ok {
		fmt.Fprintf(&b, "\nOverall score: %.1f/%d\n", score, ai.MaxScore)
	} else {
		b.WriteString("\nOverall score: not graded\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func section(b *strings.Builder, title, text string) {
	if text = strings.TrimSpace(text); text != "" {
		fmt.Fprintf(b, "   %s: %s\n", title, text)
	}
}

func writeScoring(b *strings.Builder, scoring ai.Scoring) {
	for _, category := range ai.Categories {
		score, ok := scoring[category]
		if !ok {
			continue
		}
		fmt.Fprintf(b, "   [%s %d/%d] %s\n", category, score.Score, ai.MaxScore, score.Justification)
	}
}
