package interview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoiceTag(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"English":  "en-US",
		"spanish":  "es-ES",
		" French ": "fr-FR",
		"German":   "de-DE",
		"Hindi":    "hi-IN",
		"Hinglish": "en-IN",
		"Klingon":  "en-US",
		"":         "en-US",
	}
	for language, want := range tests {
		assert.Equal(t, want, VoiceTag(language), language)
	}
}

func TestParseModality(t *testing.T) {
	t.Parallel()

	m, err := ParseModality("Voice")
	require.NoError(t, err)
	assert.Equal(t, ModalityVoice, m)

	m, err = ParseModality("")
	require.NoError(t, err)
	assert.Equal(t, ModalityText, m)

	_, err = ParseModality("telepathy")
	require.Error(t, err)
}

func TestSessionContextValidate(t *testing.T) {
	t.Parallel()

	valid := SessionContext{JobRole: "SRE", Language: "English", Modality: ModalityText}
	require.NoError(t, valid.Validate())

	noRole := valid
	noRole.JobRole = " "
	require.Error(t, noRole.Validate())

	noLanguage := valid
	noLanguage.Language = ""
	require.Error(t, noLanguage.Validate())

	badModality := valid
	badModality.Modality = "video"
	require.Error(t, badModality.Validate())
}

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := Config{SnapshotWarmup: -time.Second}.withDefaults()
	assert.Equal(t, 2*time.Second, cfg.SilenceWindow)
	assert.Equal(t, 5, cfg.TargetExchanges)
	assert.Equal(t, time.Duration(0), cfg.SnapshotWarmup)
	assert.Equal(t, DefaultOpener, cfg.Opener)

	custom := Config{SilenceWindow: time.Second, TargetExchanges: 4, Opener: "Hi"}.withDefaults()
	assert.Equal(t, time.Second, custom.SilenceWindow)
	assert.Equal(t, 4, custom.TargetExchanges)
	assert.Equal(t, "Hi", custom.Opener)
}
