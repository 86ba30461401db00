package cmd

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Avinashhmavii/TIME-AI-Coach/internal/interview"
	"github.com/Avinashhmavii/TIME-AI-Coach/internal/secrets"
)

func TestFlattenList(t *testing.T) {
	assert.Equal(t, []string{"/a", "/b", "/c"}, flattenList([]string{" /a, /b ", "", "/c"}))
	assert.Nil(t, flattenList(nil))
}

func TestCredentialSourcesOrder(t *testing.T) {
	sources := credentialSources(&GeminiConfig{
		APIKeyFiles: []string{"/run/secrets/one", "/run/secrets/two"},
		APIKeys:     []string{"inline"},
	})

	require.Len(t, sources, 3)
	assert.Equal(t, secrets.Source{Name: "gemini api key file #1", File: "/run/secrets/one"}, sources[0])
	assert.Equal(t, "/run/secrets/two", sources[1].File)
	assert.Equal(t, "inline", sources[2].Value)
}

func TestGetConfigDefaultsAndEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY_FILES", "/keys/a, /keys/b")
	t.Setenv("INTERVIEW_COACH_DATA_DIR", "/var/lib/coach")
	viper.Set("interview.silence-window", "3s")
	t.Cleanup(func() { viper.Set("interview.silence-window", nil) })

	config, err := getConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{"/keys/a", "/keys/b"}, config.AI.Gemini.APIKeyFiles)
	assert.Equal(t, "/var/lib/coach", config.Storage.DataDir)
	assert.Equal(t, defaultListen, config.Server.Listen)
	assert.Equal(t, defaultIdleTimeout, config.Server.IdleTimeout)

	cfg := config.interviewConfig()
	assert.Equal(t, 3*time.Second, cfg.SilenceWindow)
	assert.Equal(t, interview.DefaultConfig().TargetExchanges, cfg.TargetExchanges)
	assert.Equal(t, interview.DefaultOpener, cfg.Opener)
}

func TestNewAIRejectsUnknownProvider(t *testing.T) {
	_, err := newAI(t.Context(), &AIConfig{Provider: "other", Gemini: &GeminiConfig{}}, nil, nil)
	require.ErrorContains(t, err, "unsupported ai provider")

	_, err = newAI(t.Context(), &AIConfig{Gemini: &GeminiConfig{}}, nil, nil)
	require.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, out.String(), app+" version: unknown")
}

type mapKeys struct {
	data    map[string][]byte
	deleted []string
}

func (m *mapKeys) Keys(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *mapKeys) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func TestClearStoreRemovesPreparationsAndSessions(t *testing.T) {
	st := &mapKeys{data: map[string][]byte{
		"preparation/latest": nil,
		"preparation/p1":     nil,
		"sessions/s1":        nil,
		"other/keep":         nil,
	}}

	deleted, err := clearStore(t.Context(), st)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)
	assert.Equal(t, []string{"preparation/latest", "preparation/p1", "sessions/s1"}, st.deleted)
	assert.Contains(t, st.data, "other/keep")
}
