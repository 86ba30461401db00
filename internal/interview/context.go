package interview

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Modality is how the candidate answers.
type Modality string

const (
	ModalityVoice Modality = "voice"
	ModalityText  Modality = "text"
)

// ParseModality accepts "voice" or "text", case-insensitively.
func ParseModality(s string) (Modality, error) {
	switch m := Modality(strings.ToLower(strings.TrimSpace(s))); m {
	case ModalityVoice, ModalityText:
		return m, nil
	case "":
		return ModalityText, nil
	default:
		return "", fmt.Errorf("unknown interview modality %q", s)
	}
}

// SessionContext is the read-only configuration of one interview.
type SessionContext struct {
	JobRole       string   `json:"jobRole"`
	Company       string   `json:"company"`
	ResumeDigest  string   `json:"resumeDigest"`
	Language      string   `json:"language"`
	Modality      Modality `json:"modality"`
	VideoEnabled  bool     `json:"videoEnabled"`
	CandidateName string   `json:"candidateName,omitempty"`
}

// Validate checks the context before a session is built from it.
func (c SessionContext) Validate() error {
	if strings.TrimSpace(c.JobRole) == "" {
		return errors.New("job role is required")
	}
	if strings.TrimSpace(c.Language) == "" {
		return errors.New("interview language is required")
	}
	if c.Modality != ModalityVoice && c.Modality != ModalityText {
		return fmt.Errorf("unknown interview modality %q", c.Modality)
	}
	return nil
}

// VoiceTag returns the speech tag for the session language.
func (c SessionContext) VoiceTag() string {
	return VoiceTag(c.Language)
}

const defaultVoiceTag = "en-US"

var voiceTags = map[string]string{
	"english":  "en-US",
	"spanish":  "es-ES",
	"french":   "fr-FR",
	"german":   "de-DE",
	"hindi":    "hi-IN",
	"hinglish": "en-IN",
}

// VoiceTag maps a language name to the tag used by speech capture and
// rendering. Unknown languages fall back to en-US.
func VoiceTag(language string) string {
	if tag, ok := voiceTags[strings.ToLower(strings.TrimSpace(language))]; ok {
		return tag
	}
	return defaultVoiceTag
}

// DefaultOpener is the first question when no ice-breaker is available.
const DefaultOpener = "Tell me about yourself."

// Config tunes the session loop.
type Config struct {
	// SilenceWindow is how long a voice answer may stay silent before it is submitted.
	SilenceWindow time.Duration
	// TargetExchanges is passed to the agent as the number of meaningful exchanges to aim for.
	TargetExchanges int
	// SnapshotWarmup is how long the camera is given before the ice-breaker snapshot.
	SnapshotWarmup time.Duration
	Opener         string
}

// DefaultConfig returns the standard session timings.
func DefaultConfig() Config {
	return Config{
		SilenceWindow:   2 * time.Second,
		TargetExchanges: 5,
		SnapshotWarmup:  500 * time.Millisecond,
		Opener:          DefaultOpener,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.SilenceWindow <= 0 {
		c.SilenceWindow = defaults.SilenceWindow
	}
	if c.TargetExchanges <= 0 {
		c.TargetExchanges = defaults.TargetExchanges
	}
	if c.SnapshotWarmup < 0 {
		c.SnapshotWarmup = 0
	}
	if strings.TrimSpace(c.Opener) == "" {
		c.Opener = defaults.Opener
	}
	return c
}
