package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Avinashhmavii/TIME-AI-Coach/internal/ai"
	"github.com/Avinashhmavii/TIME-AI-Coach/internal/interview"
	"github.com/Avinashhmavii/TIME-AI-Coach/internal/metrics"
	"github.com/Avinashhmavii/TIME-AI-Coach/internal/prepare"
	"github.com/Avinashhmavii/TIME-AI-Coach/internal/store"
)

type scriptedAgent struct {
	mu      sync.Mutex
	outputs []*ai.AgentOutput
	err     error
	inputs  []ai.AgentInput
}

func (a *scriptedAgent) Respond(_ context.Context, in ai.AgentInput) (*ai.AgentOutput, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.inputs = append(a.inputs, in)
	if a.err != nil {
		return nil, a.err
	}
	if len(a.outputs) == 0 {
		return &ai.AgentOutput{NextQuestion: "Anything else?"}, nil
	}
	out := a.outputs[0]
	a.outputs = a.outputs[1:]
	return out, nil
}

type harness struct {
	t       *testing.T
	handler http.Handler
	server  *Server
	store   *store.Store
	prep    *prepare.Preparation
}

func newHarness(t *testing.T, agent ai.Agent, opts ...func(*Deps)) *harness {
	t.Helper()

	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	prep, err := prepare.NewPreparation(&prepare.Draft{
		JobRole:  "Backend Engineer",
		Company:  "Acme",
		Language: "English",
		Modality: interview.ModalityVoice,
	}, time.Now())
	require.NoError(t, err)
	require.NoError(t, prepare.Save(context.Background(), st, prep))

	registry := prometheus.NewRegistry()
	deps := Deps{
		Agent:    agent,
		Store:    st,
		Config:   interview.DefaultConfig(),
		Recorder: metrics.NewPrometheusRecorder(registry),
		Metrics:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	for _, opt := range opts {
		opt(&deps)
	}
	server, err := New(deps)
	require.NoError(t, err)

	return &harness{t: t, handler: server.Handler(), server: server, store: st, prep: prep}
}

func (h *harness) do(method, path string, body any, out any) int {
	h.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	rr := httptest.NewRecorder()
	h.handler.ServeHTTP(rr, httptest.NewRequest(method, path, reader))
	if out != nil {
		require.NoError(h.t, json.NewDecoder(rr.Body).Decode(out), rr.Body.String())
	}
	return rr.Code
}

func (h *harness) create() interview.Status {
	h.t.Helper()
	var status interview.Status
	require.Equal(h.t, http.StatusCreated, h.do(http.MethodPost, "/sessions", map[string]string{}, &status))
	return status
}

func TestHealth(t *testing.T) {
	h := newHarness(t, &scriptedAgent{})

	var body map[string]string
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/health", nil, &body))
	assert.Equal(t, "ok", body["status"])
}

func TestInterviewOverHTTP(t *testing.T) {
	agent := &scriptedAgent{outputs: []*ai.AgentOutput{
		{Feedback: ai.Feedback{Content: "Good structure."}, NextQuestion: "Describe a hard bug."},
		{
			Feedback: ai.Feedback{
				Clarity: "Clear.",
				Scoring: &ai.Scoring{ai.CategoryIdeas: {Score: 8, Justification: "Concrete."}},
			},
			NextQuestion:    "Thank you, that concludes our interview.",
			IsInterviewOver: true,
		},
	}}
	h := newHarness(t, agent)

	created := h.create()
	assert.Equal(t, interview.StateIdle, created.State)
	assert.Equal(t, interview.DefaultOpener, created.Question)
	assert.Equal(t, 1, h.server.Active())

	var first answerResponse
	code := h.do(http.MethodPost, "/sessions/"+created.ID+"/answers", answerRequest{Answer: "I build APIs."}, &first)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Describe a hard bug.", first.NextQuestion)
	assert.Equal(t, "Good structure.", first.Feedback.Content)
	assert.False(t, first.Finished)
	assert.Equal(t, 1, first.Session.Turns)

	var last answerResponse
	code = h.do(http.MethodPost, "/sessions/"+created.ID+"/answers", answerRequest{Answer: "A race in the cache."}, &last)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, last.Finished)
	assert.Equal(t, interview.StateFinished, last.Session.State)
	assert.Zero(t, h.server.Active())

	require.Len(t, agent.inputs, 2)
	assert.Equal(t, []ai.HistoryEntry{{Question: interview.DefaultOpener, Answer: "I build APIs."}}, agent.inputs[1].ConversationHistory)

	var status interview.Status
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/sessions/"+created.ID, nil, &status))
	assert.Equal(t, interview.StateFinished, status.State)
	assert.Equal(t, 2, status.Turns)

	var summary struct {
		ID     string            `json:"id"`
		Reason string            `json:"reason"`
		Ledger []json.RawMessage `json:"ledger"`
		Score  *float64          `json:"score"`
	}
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/sessions/"+created.ID+"/summary", nil, &summary))
	assert.Equal(t, interview.ReasonConcluded, summary.Reason)
	assert.Len(t, summary.Ledger, 2)
	require.NotNil(t, summary.Score)
	assert.InDelta(t, 8.0, *summary.Score, 0.001)

	code = h.do(http.MethodPost, "/sessions/"+created.ID+"/answers", answerRequest{Answer: "late"}, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAnswerRejections(t *testing.T) {
	h := newHarness(t, &scriptedAgent{})
	created := h.create()

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/sessions/"+created.ID+"/answers", answerRequest{Answer: "   "}, nil))
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/sessions/"+created.ID+"/answers", map[string]string{"unknown": "x"}, nil))
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodPost, "/sessions/missing/answers", answerRequest{Answer: "hi"}, nil))
}

func TestAgentFailureKeepsSessionUsable(t *testing.T) {
	agent := &scriptedAgent{err: errors.New("all credentials exhausted")}
	h := newHarness(t, agent)
	created := h.create()

	assert.Equal(t, http.StatusBadGateway, h.do(http.MethodPost, "/sessions/"+created.ID+"/answers", answerRequest{Answer: "My answer"}, nil))

	var status interview.Status
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/sessions/"+created.ID, nil, &status))
	assert.Equal(t, interview.StateIdle, status.State)
	assert.Equal(t, "My answer", status.Transcript)
	assert.Zero(t, status.Turns)

	agent.mu.Lock()
	agent.err = nil
	agent.mu.Unlock()
	assert.Equal(t, http.StatusOK, h.do(http.MethodPost, "/sessions/"+created.ID+"/answers", answerRequest{Answer: "My answer"}, nil))
}

func TestEndPersistsLedger(t *testing.T) {
	h := newHarness(t, &scriptedAgent{})
	created := h.create()

	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/sessions/"+created.ID+"/answers", answerRequest{Answer: "First answer"}, nil))

	var ended interview.Status
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/sessions/"+created.ID+"/end", nil, &ended))
	assert.Equal(t, interview.StateFinished, ended.State)

	record, err := interview.LoadRecord(context.Background(), h.store, created.ID)
	require.NoError(t, err)
	assert.Equal(t, interview.ReasonUserEnded, record.Reason)
	assert.Equal(t, 1, record.Ledger.Len())

	assert.Equal(t, http.StatusOK, h.do(http.MethodPost, "/sessions/"+created.ID+"/end", nil, nil))
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodPost, "/sessions/missing/end", nil, nil))
}

func TestSummaryOfActiveSession(t *testing.T) {
	h := newHarness(t, &scriptedAgent{})
	created := h.create()

	assert.Equal(t, http.StatusConflict, h.do(http.MethodGet, "/sessions/"+created.ID+"/summary", nil, nil))
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/sessions/nope/summary", nil, nil))
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/sessions/nope", nil, nil))
}

func TestCreateWithUnknownPreparation(t *testing.T) {
	h := newHarness(t, &scriptedAgent{})
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodPost, "/sessions", createRequest{PreparationID: "nope"}, nil))

	var status interview.Status
	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/sessions", createRequest{PreparationID: h.prep.ID}, &status))
	assert.NotEmpty(t, status.ID)
}

func TestEndAll(t *testing.T) {
	h := newHarness(t, &scriptedAgent{})
	first := h.create()
	h.create()
	require.Equal(t, 2, h.server.Active())

	h.server.EndAll(context.Background())
	assert.Zero(t, h.server.Active())

	_, err := interview.LoadRecord(context.Background(), h.store, first.ID)
	require.NoError(t, err)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t, &scriptedAgent{})
	created := h.create()
	h.do(http.MethodPost, "/sessions/"+created.ID+"/answers", answerRequest{Answer: ""}, nil)

	rr := httptest.NewRecorder()
	h.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `interview_submissions_rejected_total{reason="empty"} 1`)
}

func TestEvictIdleEndsAbandonedSessions(t *testing.T) {
	h := newHarness(t, &scriptedAgent{}, func(d *Deps) { d.IdleTimeout = 10 * time.Minute })

	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	h.server.now = func() time.Time { return clock }

	abandoned := h.create()
	active := h.create()
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/sessions/"+abandoned.ID+"/answers", answerRequest{Answer: "First answer"}, nil))

	clock = clock.Add(8 * time.Minute)
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/sessions/"+active.ID, nil, nil))
	assert.Zero(t, h.server.EvictIdle(context.Background()))

	clock = clock.Add(5 * time.Minute)
	assert.Equal(t, 1, h.server.EvictIdle(context.Background()))
	assert.Equal(t, 1, h.server.Active())

	record, err := interview.LoadRecord(context.Background(), h.store, abandoned.ID)
	require.NoError(t, err)
	assert.Equal(t, interview.ReasonUserEnded, record.Reason)
	assert.Equal(t, 1, record.Ledger.Len())

	var status interview.Status
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/sessions/"+active.ID, nil, &status))
	assert.Equal(t, interview.StateIdle, status.State)
}

func TestEvictIdleDisabledWithoutTimeout(t *testing.T) {
	h := newHarness(t, &scriptedAgent{})
	h.create()

	h.server.now = func() time.Time { return time.Now().Add(24 * time.Hour) }
	assert.Zero(t, h.server.EvictIdle(context.Background()))
	assert.Equal(t, 1, h.server.Active())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, h.server.RunEviction(ctx, time.Millisecond))
}
