// Package httpapi exposes text interview sessions over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Avinashhmavii/TIME-AI-Coach/internal/ai"
	"github.com/Avinashhmavii/TIME-AI-Coach/internal/interview"
	"github.com/Avinashhmavii/TIME-AI-Coach/internal/prepare"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Store is the blob store sessions persist to and preparations are read from.
type Store interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// Deps aggregates what the server needs to run sessions.
type Deps struct {
	Agent    ai.Agent
	Store    Store
	Config   interview.Config
	Recorder interview.Recorder
	Logger   *zap.Logger
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
	// IdleTimeout ends live sessions nobody touched for this long. Zero keeps them until shutdown.
	IdleTimeout time.Duration
}

// Server keeps the live sessions. Finished sessions are served from the store.
type Server struct {
	deps   Deps
	logger *zap.Logger

	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*liveSession
}

type liveSession struct {
	session  *interview.Session
	lastSeen time.Time
}

// New creates a server.
func New(deps Deps) (*Server, error) {
	if deps.Agent == nil {
		return nil, errors.New("agent is required")
	}
	if deps.Store == nil {
		return nil, errors.New("store is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Server{
		deps:     deps,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*liveSession),
	}, nil
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)
	if s.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.deps.Metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Get("/{id}", s.handleStatus)
		r.Post("/{id}/answers", s.handleAnswer)
		r.Post("/{id}/end", s.handleEnd)
		r.Get("/{id}/summary", s.handleSummary)
	})

	return r
}

// Active returns the number of sessions that have not finished yet.
func (s *Server) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// EndAll ends every live session so their ledgers are persisted.
func (s *Server) EndAll(ctx context.Context) {
	s.mu.Lock()
	sessions := make([]*interview.Session, 0, len(s.sessions))
	for _, live := range s.sessions {
		sessions = append(sessions, live.session)
	}
	s.mu.Unlock()

	for _, session := range sessions {
		if err := session.End(ctx); err != nil {
			s.logger.Warn("ending session on shutdown", zap.String("session_id", session.ID()), zap.Error(err))
		}
	}
}

// EvictIdle ends the live sessions idle for longer than IdleTimeout and
// returns how many were ended. Their ledgers are persisted as they stand.
func (s *Server) EvictIdle(ctx context.Context) int {
	if s.deps.IdleTimeout <= 0 {
		return 0
	}

	cutoff := s.now().Add(-s.deps.IdleTimeout)
	s.mu.Lock()
	var idle []*interview.Session
	for _, live := range s.sessions {
		if live.lastSeen.Before(cutoff) {
			idle = append(idle, live.session)
		}
	}
	s.mu.Unlock()

	for _, session := range idle {
		s.logger.Info("ending idle session", zap.String("session_id", session.ID()))
		if err := session.End(ctx); err != nil {
			s.logger.Warn("ending idle session", zap.String("session_id", session.ID()), zap.Error(err))
		}
	}
	return len(idle)
}

// RunEviction calls EvictIdle every interval until ctx is done.
func (s *Server) RunEviction(ctx context.Context, interval time.Duration) error {
	if s.deps.IdleTimeout <= 0 || interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.EvictIdle(ctx); n > 0 {
				s.logger.Debug("idle sessions ended", zap.Int("count", n))
			}
		}
	}
}

type createRequest struct {
	PreparationID string `json:"preparationId"`
}

type answerRequest struct {
	Answer string `json:"answer"`
}

type answerResponse struct {
	Feedback     ai.Feedback      `json:"feedback"`
	NextQuestion string           `json:"nextQuestion,omitempty"`
	Finished     bool             `json:"finished"`
	Session      interview.Status `json:"session"`
}

type summaryResponse struct {
	*interview.Record
	Score *float64 `json:"score,omitempty"`
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeBody(w, r, &req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}

	prep, err := prepare.Load(r.Context(), s.deps.Store, req.PreparationID)
	if err != nil {
		httpError(w, http.StatusNotFound, "preparation not found: %v", err)
		return
	}

	sc := prep.SessionContext()
	if sc.Modality != interview.ModalityText {
		s.logger.Info("serving voice preparation as a text session", zap.String("preparation_id", prep.ID))
		sc.Modality = interview.ModalityText
	}

	deps := interview.Deps{Agent: s.deps.Agent, Store: s.deps.Store}
	session, err := interview.NewSession(sc, s.deps.Config, deps,
		interview.WithLogger(s.logger),
		interview.WithRecorder(s.deps.Recorder),
		interview.WithHooks(interview.Hooks{OnFinished: s.forget}),
	)
	if err != nil {
		httpError(w, http.StatusUnprocessableEntity, "creating session: %v", err)
		return
	}

	s.mu.Lock()
	s.sessions[session.ID()] = &liveSession{session: session, lastSeen: s.now()}
	s.mu.Unlock()

	if err := session.Start(r.Context()); err != nil {
		s.forget(&interview.Record{ID: session.ID()})
		httpError(w, http.StatusInternalServerError, "starting session: %v", err)
		return
	}

	writeJSON(w, http.StatusCreated, session.Status())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if session := s.lookup(id); session != nil {
		writeJSON(w, http.StatusOK, session.Status())
		return
	}

	record, err := interview.LoadRecord(r.Context(), s.deps.Store, id)
	if err != nil {
		httpError(w, http.StatusNotFound, "session %s not found", id)
		return
	}

	status := interview.Status{
		ID:            record.ID,
		State:         interview.StateFinished,
		ClosingRemark: record.ClosingRemark,
	}
	if record.Ledger != nil {
		status.Turns = record.Ledger.Len()
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	session := s.lookup(id)
	if session == nil {
		httpError(w, http.StatusNotFound, "session %s is not active", id)
		return
	}

	var req answerRequest
	if err := decodeBody(w, r, &req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}

	result, err := session.Submit(r.Context(), req.Answer)
	if err != nil {
		httpError(w, submitStatus(err), "%v", err)
		return
	}

	writeJSON(w, http.StatusOK, answerResponse{
		Feedback:     result.Feedback,
		NextQuestion: result.NextQuestion,
		Finished:     result.Finished,
		Session:      session.Status(),
	})
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	session := s.lookup(id)
	if session == nil {
		if _, err := interview.LoadRecord(r.Context(), s.deps.Store, id); err == nil {
			writeJSON(w, http.StatusOK, map[string]string{"id": id, "state": string(interview.StateFinished)})
			return
		}
		httpError(w, http.StatusNotFound, "session %s not found", id)
		return
	}

	if err := session.End(r.Context()); err != nil {
		httpError(w, http.StatusInternalServerError, "ending session: %v", err)
		return
	}

	select {
	case <-session.Done():
	case <-r.Context().Done():
	}
	writeJSON(w, http.StatusOK, session.Status())
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	record, err := interview.LoadRecord(r.Context(), s.deps.Store, id)
	if err != nil {
		if s.lookup(id) != nil {
			httpError(w, http.StatusConflict, "session %s has not finished yet", id)
			return
		}
		httpError(w, http.StatusNotFound, "session %s not found", id)
		return
	}

	resp := summaryResponse{Record: record}
	if score, ok := record.Score(); ok {
		resp.Score = &score
	}
	writeJSON(w, http.StatusOK, resp)
}

// lookup returns the live session and marks it as used.
func (s *Server) lookup(id string) *interview.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	live, ok := s.sessions[id]
	if !ok {
		return nil
	}
	live.lastSeen = s.now()
	return live.session
}

func (s *Server) forget(record *interview.Record) {
	s.mu.Lock()
	delete(s.sessions, record.ID)
	s.mu.Unlock()
}

func submitStatus(err error) int {
	switch {
	case errors.Is(err, interview.ErrEmptyAnswer):
		return http.StatusBadRequest
	case errors.Is(err, interview.ErrBusy), errors.Is(err, interview.ErrFinished):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, format string, args ...any) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": fmt.Sprintf(format, args...),
			"code":    code,
		},
	})
}
