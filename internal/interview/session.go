package interview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Avinashhmavii/TIME-AI-Coach/internal/ai"
	"github.com/Avinashhmavii/TIME-AI-Coach/internal/logger"
	"github.com/Avinashhmavii/TIME-AI-Coach/internal/utils"
)

// Agent call outcomes reported to the Recorder.
const (
	CallSuccess   = "success"
	CallError     = "error"
	CallDiscarded = "discarded"
)

const (
	messageEmptyAnswer  = "Please provide an answer before submitting."
	messageAgentFailed  = "Sorry, I couldn't process your answer. Please try again."
	messageCaptureError = "Speech capture is unavailable. You can still submit your answer manually."
	messagePersistError = "The interview summary could not be saved."
)

var errAlreadyStarted = errors.New("session already started")

// Deps are the collaborators of a session. Agent and Store are required;
// voice sessions also need Capture and Renderer.
type Deps struct {
	Agent       ai.Agent
	IceBreaker  ai.IceBreaker
	Capture     Capture
	Renderer    Renderer
	Snapshotter Snapshotter
	Store       Store
}

// Option customizes a Session.
type Option func(*Session)

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithNoticeSink(sink NoticeSink) Option {
	return func(s *Session) { s.notices = sink }
}

func WithRecorder(r Recorder) Option {
	return func(s *Session) {
		if r != nil {
			s.recorder = r
		}
	}
}

func WithHooks(h Hooks) Option {
	return func(s *Session) { s.hooks = h }
}

// WithTimerFunc replaces time.AfterFunc for the silence timer.
func WithTimerFunc(f TimerFunc) Option {
	return func(s *Session) {
		if f != nil {
			s.newTimer = f
		}
	}
}

// WithID sets the session id instead of a random UUID.
func WithID(id string) Option {
	return func(s *Session) {
		if id = strings.TrimSpace(id); id != "" {
			s.id = id
		}
	}
}

func withClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// Result is the outcome of an accepted answer.
type Result struct {
	Feedback     ai.Feedback
	NextQuestion string
	Finished     bool
	// Appended is false for the end-command reply, which is not recorded as a turn.
	Appended bool
}

// Status is a point in time view of the session.
type Status struct {
	ID            string       `json:"id"`
	State         State        `json:"state"`
	Question      string       `json:"question,omitempty"`
	Transcript    string       `json:"transcript,omitempty"`
	Feedback      *ai.Feedback `json:"feedback,omitempty"`
	ClosingRemark string       `json:"closingRemark,omitempty"`
	Turns         int          `json:"turns"`
}

// Session orchestrates one interview. All exported methods are safe for
// concurrent use; collaborator callbacks may arrive on any goroutine.
type Session struct {
	id       string
	sc       SessionContext
	cfg      Config
	voiceTag string

	agent       ai.Agent
	iceBreaker  ai.IceBreaker
	capture     Capture
	renderer    Renderer
	snapshotter Snapshotter
	store       Store

	notices  NoticeSink
	recorder Recorder
	hooks    Hooks
	logger   *zap.Logger
	newTimer TimerFunc
	now      func() time.Time

	mu         sync.Mutex
	runCtx     context.Context
	state      State
	listening  bool
	muted      bool
	committed  []string
	interim    string
	question   string
	feedback   *ai.Feedback
	closing    string
	ledger     *Ledger
	gate       gate
	silence    Timer
	silenceSeq uint64
	renderSeq  uint64
	callSeq    uint64
	cancelCall context.CancelFunc
	started    bool
	startedAt  time.Time
	persisted  bool
	done       chan struct{}
}

var _ TranscriptSink = (*Session)(nil)

// NewSession builds a session in the loading state.
func NewSession(sc SessionContext, cfg Config, deps Deps, opts ...Option) (*Session, error) {
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session context: %w", err)
	}
	if deps.Agent == nil {
		return nil, errors.New("agent is required")
	}
	if deps.Store == nil {
		return nil, errors.New("store is required")
	}
	if sc.Modality == ModalityVoice && (deps.Capture == nil || deps.Renderer == nil) {
		return nil, errors.New("voice sessions need a capture and a renderer")
	}

	s := &Session{
		id:          uuid.NewString(),
		sc:          sc,
		cfg:         cfg.withDefaults(),
		voiceTag:    sc.VoiceTag(),
		agent:       deps.Agent,
		iceBreaker:  deps.IceBreaker,
		capture:     deps.Capture,
		renderer:    deps.Renderer,
		snapshotter: deps.Snapshotter,
		store:       deps.Store,
		recorder:    nopRecorder{},
		logger:      zap.NewNop(),
		newTimer:    afterFunc,
		now:         time.Now,
		runCtx:      context.Background(),
		state:       StateLoading,
		ledger:      NewLedger(),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logger.WithSessionFields(s.logger, s.id, string(sc.Modality), sc.Language)

	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) Context() SessionContext { return s.sc }

// Ledger returns the session ledger. Only the session appends to it.
func (s *Session) Ledger() *Ledger { return s.ledger }

// Done is closed once the session finished and its record was handed to the store.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transcript returns the answer captured so far.
func (s *Session) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcriptLocked()
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{
		ID:            s.id,
		State:         s.state,
		Question:      s.question,
		Transcript:    s.transcriptLocked(),
		ClosingRemark: s.closing,
		Turns:         s.ledger.Len(),
	}
	if s.feedback != nil {
		fb := *s.feedback
		status.Feedback = &fb
	}
	return status
}

// Start produces the opening question. In a voice session with video an
// ice-breaker built from a camera snapshot replaces the generic opener when
// it can be produced.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateLoading || s.started {
		s.mu.Unlock()
		return errAlreadyStarted
	}
	s.started = true
	s.runCtx = context.WithoutCancel(ctx)
	s.startedAt = s.now()
	s.mu.Unlock()

	opener, err := s.opener(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.state.IsTerminal() {
		s.mu.Unlock()
		return ErrFinished
	}

	var effects []func()
	s.question = opener
	effects = append(effects, s.questionEffect(opener))
	if s.sc.Modality == ModalityVoice {
		effects = append(effects, s.transitionLocked(StateSpeaking)...)
		effects = append(effects, s.renderLocked(opener))
	} else {
		effects = append(effects, s.transitionLocked(StateIdle)...)
	}
	s.mu.Unlock()

	s.logger.Info("interview started", zap.String("opener", opener))
	run(effects)
	return nil
}

func (s *Session) opener(ctx context.Context) (string, error) {
	fallback := s.cfg.Opener
	if s.sc.Modality != ModalityVoice || !s.sc.VideoEnabled || s.iceBreaker == nil || s.snapshotter == nil {
		return fallback, nil
	}

	if err := utils.WaitFor(ctx, s.cfg.SnapshotWarmup); err != nil {
		return "", err
	}

	snapshot := s.takeSnapshot(ctx)
	if snapshot == nil {
		return fallback, nil
	}

	question, err := s.iceBreaker.IceBreaker(ctx, ai.IceBreakerInput{
		CandidateName: s.sc.CandidateName,
		Language:      s.sc.Language,
		Snapshot:      snapshot,
	})
	if err != nil {
		s.logger.Warn("ice-breaker failed, using the generic opener", zap.Error(err))
		return fallback, nil
	}
	if question = strings.TrimSpace(question); question == "" {
		return fallback, nil
	}
	return question, nil
}

func (s *Session) takeSnapshot(ctx context.Context) *ai.Snapshot {
	if !s.sc.VideoEnabled || s.snapshotter == nil {
		return nil
	}

	snapshot, err := s.snapshotter.Snapshot(ctx)
	if err != nil {
		s.logger.Debug("snapshot unavailable", zap.Error(err))
		return nil
	}
	if err := snapshot.Validate(); err != nil {
		s.logger.Warn("discarding invalid snapshot", zap.Error(err))
		return nil
	}
	return snapshot
}

// Submit sends an answer to the agent and blocks until the reply was applied.
// Blank answers, answers while another one is processed or a question is
// being rendered, and answers after the end are rejected without a call.
func (s *Session) Submit(ctx context.Context, answer string) (*Result, error) {
	s.mu.Lock()
	s.stopSilenceLocked()

	trimmed, err := s.gate.admit(s.state, answer)
	if err != nil {
		s.mu.Unlock()
		s.reject(err)
		return nil, err
	}

	// thinking must be visible before capture is stopped so the capture-ended
	// callback does not restart it.
	var effects []func()
	effects = append(effects, s.transitionLocked(StateThinking)...)
	if s.listening {
		s.listening = false
		effects = append(effects, s.capture.Stop)
	}

	callCtx, cancel := context.WithCancel(ctx)
	s.cancelCall = cancel
	s.callSeq++
	seq := s.callSeq
	question := s.question
	s.mu.Unlock()

	run(effects)

	snapshot := s.takeSnapshot(callCtx)
	input := ai.AgentInput{
		JobRole:             s.sc.JobRole,
		Company:             s.sc.Company,
		ResumeText:          s.sc.ResumeDigest,
		Language:            s.sc.Language,
		ConversationHistory: s.ledger.History(),
		CurrentTranscript:   trimmed,
		Snapshot:            snapshot,
		TargetExchanges:     s.cfg.TargetExchanges,
	}

	s.logger.Debug("answer accepted",
		zap.Int("turn", s.ledger.Len()+1),
		zap.String("answer_preview", utils.TruncateForLog(trimmed, 120)),
	)

	callStart := s.now()
	output, callErr := s.agent.Respond(callCtx, input)
	elapsed := s.now().Sub(callStart)
	cancel()

	s.mu.Lock()
	if seq != s.callSeq || s.state != StateThinking {
		s.mu.Unlock()
		s.recorder.ObserveAgentCall(CallDiscarded, elapsed)
		s.logger.Info("discarding agent reply for an ended session")
		return nil, ErrFinished
	}
	s.cancelCall = nil
	s.gate.release()

	if callErr != nil {
		effects = s.revertLocked(trimmed)
		s.mu.Unlock()

		s.recorder.ObserveAgentCall(CallError, elapsed)
		s.logger.Warn("agent call failed", zap.Error(callErr))
		run(effects)
		s.notify(Notice{Kind: NoticeAgent, Message: messageAgentFailed, Err: callErr})
		return nil, fmt.Errorf("agent call: %w", callErr)
	}

	turn := Turn{
		Question:    question,
		Answer:      trimmed,
		Feedback:    output.Feedback,
		SnapshotRef: snapshot.Ref(),
	}
	result, effects := s.applyLocked(turn, output)
	s.mu.Unlock()

	s.recorder.ObserveAgentCall(CallSuccess, elapsed)
	run(effects)
	return result, nil
}

// applyLocked merges a successful agent reply into the session.
func (s *Session) applyLocked(turn Turn, output *ai.AgentOutput) (*Result, []func()) {
	result := &Result{
		Feedback:     output.Feedback,
		NextQuestion: output.NextQuestion,
		Finished:     output.IsInterviewOver,
	}

	var effects []func()
	if !output.IsEndCommand() {
		if err := s.ledger.Append(turn); err != nil {
			s.logger.Error("append turn", zap.Error(err))
		} else {
			result.Appended = true
		}
		fb := output.Feedback
		s.feedback = &fb
		effects = append(effects, s.feedbackEffect(fb))
	}

	s.committed = nil
	s.interim = ""

	if output.IsInterviewOver {
		reason := ReasonConcluded
		if output.IsEndCommand() {
			reason = ReasonEndCommand
		}
		s.closing = output.NextQuestion
		effects = append(effects, s.finishLocked(reason)...)
		if s.sc.Modality == ModalityVoice {
			effects = append(effects, s.renderLocked(output.NextQuestion))
		}
		return result, effects
	}

	s.question = output.NextQuestion
	effects = append(effects, s.questionEffect(output.NextQuestion))
	if s.sc.Modality == ModalityVoice {
		effects = append(effects, s.transitionLocked(StateSpeaking)...)
		effects = append(effects, s.renderLocked(output.NextQuestion))
	} else {
		effects = append(effects, s.transitionLocked(StateIdle)...)
	}
	return result, effects
}

// revertLocked returns to the pre-call state and keeps the answer as the
// transcript in progress.
func (s *Session) revertLocked(answer string) []func() {
	if strings.TrimSpace(s.transcriptLocked()) == "" {
		s.committed = []string{answer}
		s.interim = ""
	}

	if s.sc.Modality != ModalityVoice {
		return s.transitionLocked(StateIdle)
	}

	effects := s.transitionLocked(StateListening)
	return append(effects, s.startCaptureLocked()...)
}

// End finishes the interview immediately. An in-flight agent call is
// cancelled and its reply discarded. The ledger is persisted as it stands.
func (s *Session) End(ctx context.Context) error {
	s.mu.Lock()
	if s.state.IsTerminal() {
		s.mu.Unlock()
		return nil
	}

	s.stopSilenceLocked()
	if s.cancelCall != nil {
		s.cancelCall()
		s.cancelCall = nil
	}
	s.callSeq++
	s.gate.release()

	var effects []func()
	if s.listening {
		s.listening = false
		effects = append(effects, s.capture.Stop)
	}
	effects = append(effects, s.finishLocked(ReasonUserEnded)...)
	s.runCtx = context.WithoutCancel(ctx)
	s.mu.Unlock()

	run(effects)
	return nil
}

// SetMuted pauses or resumes speech capture while listening.
func (s *Session) SetMuted(muted bool) {
	s.mu.Lock()
	if s.sc.Modality != ModalityVoice || s.muted == muted {
		s.mu.Unlock()
		return
	}
	s.muted = muted

	var effects []func()
	if muted {
		s.stopSilenceLocked()
		if s.listening {
			s.listening = false
			effects = append(effects, s.capture.Stop)
		}
	} else if s.state == StateListening {
		effects = s.startCaptureLocked()
	}
	s.mu.Unlock()

	run(effects)
}

// OnTranscript buffers a capture chunk. While listening every chunk restarts
// the silence window. Chunks arriving while thinking are kept for the next
// answer but never submit.
func (s *Session) OnTranscript(text string, final bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.IsTerminal() {
		return
	}

	text = strings.TrimSpace(text)
	if final {
		if text != "" {
			s.committed = append(s.committed, text)
		}
		s.interim = ""
	} else {
		s.interim = text
	}

	if s.state == StateListening && s.sc.Modality == ModalityVoice {
		s.armSilenceLocked()
	}
}

// OnCaptureEnded restarts capture only while the session still intends to listen.
func (s *Session) OnCaptureEnded() {
	s.mu.Lock()
	var effects []func()
	if s.listening && s.state == StateListening {
		s.logger.Debug("capture ended while listening, restarting")
		effects = []func(){s.captureStarter()}
	}
	s.mu.Unlock()

	run(effects)
}

func (s *Session) OnCaptureError(err error) {
	s.logger.Warn("speech capture error", zap.Error(err))
	s.notify(Notice{Kind: NoticeCapture, Message: messageCaptureError, Err: err})
}

func (s *Session) armSilenceLocked() {
	s.stopSilenceLocked()
	s.silenceSeq++
	seq := s.silenceSeq
	s.silence = s.newTimer(s.cfg.SilenceWindow, func() { s.silenceElapsed(seq) })
}

func (s *Session) stopSilenceLocked() {
	if s.silence != nil {
		s.silence.Stop()
		s.silence = nil
	}
	s.silenceSeq++
}

func (s *Session) silenceElapsed(seq uint64) {
	s.mu.Lock()
	if seq != s.silenceSeq || s.state != StateListening {
		s.mu.Unlock()
		return
	}
	s.silence = nil
	answer := s.transcriptLocked()
	ctx := s.runCtx
	s.mu.Unlock()

	if strings.TrimSpace(answer) == "" {
		return
	}

	s.logger.Debug("silence window elapsed, submitting answer")
	if _, err := s.Submit(ctx, answer); err != nil {
		s.logger.Debug("silence submission not applied", zap.Error(err))
	}
}

func (s *Session) renderLocked(text string) func() {
	s.renderSeq++
	seq := s.renderSeq
	tag := s.voiceTag
	return func() {
		s.renderer.Render(text, tag, func(err error) { s.renderDone(seq, err) })
	}
}

// renderDone treats a render error as a completed render so the session never stalls in speaking.
func (s *Session) renderDone(seq uint64, err error) {
	if err != nil {
		s.logger.Warn("render failed, continuing", zap.Error(err))
		s.notify(Notice{Kind: NoticeRender, Message: "The question could not be played.", Err: err})
	}

	s.mu.Lock()
	if seq != s.renderSeq || s.state != StateSpeaking {
		s.mu.Unlock()
		return
	}

	s.committed = nil
	s.interim = ""
	s.feedback = nil
	effects := s.transitionLocked(StateListening)
	effects = append(effects, s.startCaptureLocked()...)
	s.mu.Unlock()

	run(effects)
}

func (s *Session) startCaptureLocked() []func() {
	if s.muted {
		return nil
	}
	s.listening = true
	return []func(){s.captureStarter()}
}

func (s *Session) captureStarter() func() {
	tag := s.voiceTag
	return func() {
		if err := s.capture.Start(s, tag); err != nil {
			s.mu.Lock()
			s.listening = false
			s.mu.Unlock()
			s.OnCaptureError(err)
		}
	}
}

// finishLocked is the only way into the finished state, which makes the
// record persist exactly once.
func (s *Session) finishLocked(reason string) []func() {
	effects := s.transitionLocked(StateFinished)
	s.ledger.Seal()
	s.listening = false

	if s.persisted {
		return effects
	}
	s.persisted = true

	record := &Record{
		ID:            s.id,
		Context:       s.sc,
		Ledger:        s.ledger,
		ClosingRemark: s.closing,
		Reason:        reason,
		StartedAt:     s.startedAt,
		FinishedAt:    s.now(),
	}

	return append(effects, func() {
		s.recorder.ObserveSessionFinished(reason)
		s.persist(record)
		if s.hooks.OnFinished != nil {
			s.hooks.OnFinished(record)
		}
		close(s.done)
	})
}

func (s *Session) persist(record *Record) {
	s.mu.Lock()
	ctx := s.runCtx
	s.mu.Unlock()

	data, err := json.Marshal(record)
	if err == nil {
		err = s.store.Put(ctx, RecordKey(record.ID), data)
	}
	if err != nil {
		s.logger.Error("persist interview", zap.Error(err))
		s.notify(Notice{Kind: NoticeStorage, Message: messagePersistError, Err: err})
		return
	}

	score, ok := record.Score()
	s.logger.Info("interview finished",
		zap.String("reason", record.Reason),
		zap.Int("turns", record.Ledger.Len()),
		zap.Bool("scored", ok),
		zap.Float64("score", score),
	)
}

func (s *Session) transitionLocked(to State) []func() {
	from := s.state
	if !IsValidTransition(from, to) {
		s.logger.Error("invalid state transition", zap.String("from", string(from)), zap.String("to", string(to)))
		return nil
	}
	s.state = to

	if s.hooks.OnState == nil {
		return nil
	}
	return []func(){func() { s.hooks.OnState(from, to) }}
}

func (s *Session) questionEffect(question string) func() {
	return func() {
		if s.hooks.OnQuestion != nil {
			s.hooks.OnQuestion(question)
		}
	}
}

func (s *Session) feedbackEffect(fb ai.Feedback) func() {
	return func() {
		if s.hooks.OnFeedback != nil {
			s.hooks.OnFeedback(fb)
		}
	}
}

func (s *Session) transcriptLocked() string {
	parts := append([]string(nil), s.committed...)
	if s.interim != "" {
		parts = append(parts, s.interim)
	}
	return strings.Join(parts, " ")
}

func (s *Session) reject(err error) {
	s.recorder.ObserveSubmissionRejected(rejectReason(err))
	if errors.Is(err, ErrEmptyAnswer) {
		s.notify(Notice{Kind: NoticeInput, Message: messageEmptyAnswer, Err: err})
	}
}

func (s *Session) notify(n Notice) {
	if s.notices != nil {
		s.notices.Notify(n)
	}
}

func run(effects []func()) {
	for _, effect := range effects {
		effect()
	}
}
