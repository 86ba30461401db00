package prepare

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Avinashhmavii/TIME-AI-Coach/internal/interview"
)

type mapStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *mapStore) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	m.data[key] = value
	return nil
}

func (m *mapStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.data[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return value, nil
}

func TestPreparationRoundTrip(t *testing.T) {
	draft := goodDraft()
	draft.Modality = interview.ModalityVoice
	draft.VideoEnabled = true
	draft.CandidateName = " Asha "
	draft.Analysis = goodAnalysis()
	draft.Questions = []string{"Why Acme?"}

	now := time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC)
	p, err := NewPreparation(draft, now)
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Asha", p.CandidateName)

	store := &mapStore{}
	ctx := context.Background()
	require.NoError(t, Save(ctx, store, p))

	byID, err := Load(ctx, store, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, byID)

	latest, err := Load(ctx, store, "latest")
	require.NoError(t, err)
	assert.Equal(t, p.ID, latest.ID)
	assert.Equal(t, []string{"Why Acme?"}, latest.Questions)

	sc := latest.SessionContext()
	assert.Equal(t, interview.SessionContext{
		JobRole:       "Platform Engineer",
		Company:       "Acme",
		ResumeDigest:  "Go, Kubernetes\n\nSix years of platform work.",
		Language:      "English",
		Modality:      interview.ModalityVoice,
		VideoEnabled:  true,
		CandidateName: "Asha",
	}, sc)

	_, err = Load(ctx, store, "missing")
	require.Error(t, err)
}

func TestNewPreparationDefaults(t *testing.T) {
	p, err := NewPreparation(&Draft{JobRole: "Analyst"}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, interview.ModalityText, p.Modality)
	assert.Equal(t, "English", p.Language)
	assert.Equal(t, "", p.SessionContext().ResumeDigest)

	_, err = NewPreparation(&Draft{}, time.Now())
	require.Error(t, err)
}

func TestReadDocument(t *testing.T) {
	dir := t.TempDir()

	txt := filepath.Join(dir, "resume.txt")
	require.NoError(t, os.WriteFile(txt, []byte("\n Jane Doe\nSkills: Go \n"), 0o600))
	text, err := ReadDocument(txt)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nSkills: Go", text)

	fake := filepath.Join(dir, "resume.pdf")
	require.NoError(t, os.WriteFile(fake, []byte("definitely not a pdf"), 0o600))
	_, err = ReadDocument(fake)
	require.Error(t, err)

	_, err = ReadDocument(filepath.Join(dir, "resume.docx"))
	require.Error(t, err)

	_, err = ReadDocument(" ")
	require.Error(t, err)
}
