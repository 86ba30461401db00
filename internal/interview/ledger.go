package interview

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/Avinashhmavii/TIME-AI-Coach/internal/ai"
)

// ErrLedgerSealed is returned by Append once the session finished.
var ErrLedgerSealed = errors.New("ledger is sealed")

// Turn is one answered question.
type Turn struct {
	Question string      `json:"question"`
	Answer   string      `json:"answer"`
	Feedback ai.Feedback `json:"feedback"`
	// SnapshotRef identifies the frame sent with the answer. The image itself is not kept.
	SnapshotRef string `json:"snapshotRef,omitempty"`
}

// Ledger is the ordered, append-only record of a session's turns.
type Ledger struct {
	mu     sync.RWMutex
	turns  []Turn
	sealed bool
}

func NewLedger() *Ledger {
	return &Ledger{}
}

// Append adds a turn at the end of the ledger.
func (l *Ledger) Append(turn Turn) error {
	turn.Answer = strings.TrimSpace(turn.Answer)
	if turn.Answer == "" {
		return ErrEmptyAnswer
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sealed {
		return ErrLedgerSealed
	}
	l.turns = append(l.turns, turn)
	return nil
}

// Seal rejects every later Append.
func (l *Ledger) Seal() {
	l.mu.Lock()
	l.sealed = true
	l.mu.Unlock()
}

func (l *Ledger) Sealed() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sealed
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.turns)
}

// Turns returns a copy of the turns in insertion order.
func (l *Ledger) Turns() []Turn {
	l.mu.RLock()
	defer l.mu.RUnlock()

	turns := make([]Turn, len(l.turns))
	copy(turns, l.turns)
	return turns
}

// History returns the question/answer pairs sent back to the agent.
func (l *Ledger) History() []ai.HistoryEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	history := make([]ai.HistoryEntry, 0, len(l.turns))
	for _, turn := range l.turns {
		history = append(history, ai.HistoryEntry{Question: turn.Question, Answer: turn.Answer})
	}
	return history
}

// AggregateScore is the mean of every category score present in any turn.
// ok is false when no turn was scored.
func (l *Ledger) AggregateScore() (score float64, ok bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var total, count int
	for _, turn := range l.turns {
		if turn.Feedback.Scoring == nil {
			continue
		}
		t, c := turn.Feedback.Scoring.Sum()
		total += t
		count += c
	}

	if count == 0 {
		return 0, false
	}
	return float64(total) / float64(count), true
}

func (l *Ledger) MarshalJSON() ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	turns := l.turns
	if turns == nil {
		turns = []Turn{}
	}
	return json.Marshal(turns)
}

// UnmarshalJSON restores a persisted ledger. The result is sealed.
func (l *Ledger) UnmarshalJSON(data []byte) error {
	var turns []Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.turns = turns
	l.sealed = true
	return nil
}
