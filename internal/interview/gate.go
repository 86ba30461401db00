package interview

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyAnswer is returned for a blank submission.
	ErrEmptyAnswer = errors.New("answer is empty")
	// ErrBusy is returned while an answer is being processed or a question is being rendered.
	ErrBusy = errors.New("session is busy")
	// ErrFinished is returned once the interview is over.
	ErrFinished = errors.New("interview is finished")
)

// Rejection reasons reported to the Recorder.
const (
	RejectEmpty    = "empty"
	RejectBusy     = "busy"
	RejectFinished = "finished"
)

// gate admits at most one answer at a time. Callers serialize access.
type gate struct {
	inFlight bool
}

// admit returns the trimmed answer when it may be sent to the agent.
func (g *gate) admit(state State, answer string) (string, error) {
	if state.IsTerminal() {
		return "", ErrFinished
	}
	if g.inFlight || state == StateThinking {
		return "", ErrBusy
	}

	trimmed := strings.TrimSpace(answer)
	if trimmed == "" {
		return "", ErrEmptyAnswer
	}
	if !state.acceptsAnswers() {
		return "", ErrBusy
	}

	g.inFlight = true
	return trimmed, nil
}

func (g *gate) release() {
	g.inFlight = false
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrEmptyAnswer):
		return RejectEmpty
	case errors.Is(err, ErrFinished):
		return RejectFinished
	default:
		return RejectBusy
	}
}
