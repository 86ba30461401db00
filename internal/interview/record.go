package interview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Finish reasons.
const (
	ReasonConcluded  = "concluded"
	ReasonEndCommand = "end_command"
	ReasonUserEnded  = "user_ended"
)

const recordKeyPrefix = "sessions/"

// RecordKey is the store key of a finished session.
func RecordKey(sessionID string) string {
	return recordKeyPrefix + sessionID
}

// Record is what is persisted when a session finishes.
type Record struct {
	ID            string         `json:"id"`
	Context       SessionContext `json:"context"`
	Ledger        *Ledger        `json:"ledger"`
	ClosingRemark string         `json:"closingRemark,omitempty"`
	Reason        string         `json:"reason"`
	StartedAt     time.Time      `json:"startedAt"`
	FinishedAt    time.Time      `json:"finishedAt"`
}

// Score returns the aggregate score of the recorded ledger.
func (r *Record) Score() (float64, bool) {
	if r == nil || r.Ledger == nil {
		return 0, false
	}
	return r.Ledger.AggregateScore()
}

// Reader reads keyed blobs.
type Reader interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// LoadRecord reads a finished session back from the store.
func LoadRecord(ctx context.Context, r Reader, sessionID string) (*Record, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}

	data, err := r.Get(ctx, RecordKey(sessionID))
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	if record.Ledger == nil {
		record.Ledger = NewLedger()
		record.Ledger.Seal()
	}
	return &record, nil
}
