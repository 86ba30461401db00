package prepare

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Avinashhmavii/TIME-AI-Coach/internal/ai"
	"github.com/Avinashhmavii/TIME-AI-Coach/internal/interview"
)

const (
	keyPrefix = "preparation/"
	// LatestKey points at the most recently saved preparation.
	LatestKey = keyPrefix + "latest"

	defaultLanguage = "English"
)

// Key is the store key of a preparation.
func Key(id string) string {
	return keyPrefix + id
}

// Draft is the setup form as submitted by the candidate.
type Draft struct {
	JobRole       string
	Company       string
	Language      string
	Modality      interview.Modality
	VideoEnabled  bool
	CandidateName string
	ResumeText    string

	// Analysis is filled in by the resume check.
	Analysis *ai.ResumeAnalysis
	// Questions are drafted by the questions check.
	Questions []string
}

// Preparation is the validated setup an interview starts from.
type Preparation struct {
	ID            string             `json:"id"`
	JobRole       string             `json:"jobRole"`
	Company       string             `json:"company"`
	Language      string             `json:"language"`
	Modality      interview.Modality `json:"modality"`
	VideoEnabled  bool               `json:"videoEnabled"`
	CandidateName string             `json:"candidateName,omitempty"`
	Resume        *ai.ResumeAnalysis `json:"resume"`
	Questions     []string           `json:"questions,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
}

// NewPreparation builds the record from a draft that passed every check.
func NewPreparation(d *Draft, now time.Time) (*Preparation, error) {
	if d == nil {
		return nil, errors.New("draft is required")
	}

	modality := d.Modality
	if modality == "" {
		modality = interview.ModalityText
	}
	language := strings.TrimSpace(d.Language)
	if language == "" {
		language = defaultLanguage
	}

	p := &Preparation{
		ID:            uuid.NewString(),
		JobRole:       strings.TrimSpace(d.JobRole),
		Company:       strings.TrimSpace(d.Company),
		Language:      language,
		Modality:      modality,
		VideoEnabled:  d.VideoEnabled,
		CandidateName: strings.TrimSpace(d.CandidateName),
		Resume:        d.Analysis,
		Questions:     d.Questions,
		CreatedAt:     now.UTC(),
	}

	if err := p.SessionContext().Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// SessionContext converts the preparation into the read-only interview configuration.
func (p *Preparation) SessionContext() interview.SessionContext {
	return interview.SessionContext{
		JobRole:       p.JobRole,
		Company:       p.Company,
		ResumeDigest:  p.Resume.Digest(),
		Language:      p.Language,
		Modality:      p.Modality,
		VideoEnabled:  p.VideoEnabled,
		CandidateName: p.CandidateName,
	}
}

// Writer stores keyed blobs.
type Writer interface {
	Put(ctx context.Context, key string, value []byte) error
}

// Reader reads keyed blobs.
type Reader interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// Save stores the preparation under its own key and as the latest one.
func Save(ctx context.Context, w Writer, p *Preparation) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode preparation: %w", err)
	}

	for _, key := range []string{Key(p.ID), LatestKey} {
		if err := w.Put(ctx, key, data); err != nil {
			return fmt.Errorf("save preparation: %w", err)
		}
	}
	return nil
}

// Load reads a preparation. An empty id or "latest" loads the latest one.
func Load(ctx context.Context, r Reader, id string) (*Preparation, error) {
	key := LatestKey
	if id = strings.TrimSpace(id); id != "" && id != "latest" {
		key = Key(id)
	}

	data, err := r.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load preparation: %w", err)
	}

	var p Preparation
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode preparation: %w", err)
	}
	return &p, nil
}
