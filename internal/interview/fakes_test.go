package interview

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/Avinashhmavii/TIME-AI-Coach/internal/ai"
)

type agentReply struct {
	out *ai.AgentOutput
	err error
}

type fakeAgent struct {
	mu      sync.Mutex
	replies []agentReply
	inputs  []ai.AgentInput
	release chan struct{}
	called  chan struct{}
}

func newFakeAgent(replies ...agentReply) *fakeAgent {
	return &fakeAgent{replies: replies, called: make(chan struct{}, 16)}
}

// blocking makes every call wait until unblock is called or the context ends.
func (a *fakeAgent) blocking() *fakeAgent {
	a.release = make(chan struct{})
	return a
}

func (a *fakeAgent) unblock() { close(a.release) }

func (a *fakeAgent) Respond(ctx context.Context, in ai.AgentInput) (*ai.AgentOutput, error) {
	a.mu.Lock()
	a.inputs = append(a.inputs, in)
	i := len(a.inputs) - 1
	release := a.release
	a.mu.Unlock()

	a.called <- struct{}{}

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if i >= len(a.replies) {
		return &ai.AgentOutput{NextQuestion: "Another question?"}, nil
	}
	return a.replies[i].out, a.replies[i].err
}

func (a *fakeAgent) calls() []ai.AgentInput {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]ai.AgentInput(nil), a.inputs...)
}

func (a *fakeAgent) waitCalled(t *testing.T) {
	t.Helper()
	select {
	case <-a.called:
	case <-time.After(2 * time.Second):
		t.Fatal("agent was not called")
	}
}

func next(question string, fb ai.Feedback) agentReply {
	return agentReply{out: &ai.AgentOutput{Feedback: fb, NextQuestion: question}}
}

func over(remark string, fb ai.Feedback) agentReply {
	return agentReply{out: &ai.AgentOutput{Feedback: fb, NextQuestion: remark, IsInterviewOver: true}}
}

func fail(err error) agentReply {
	return agentReply{err: err}
}

type fakeCapture struct {
	mu          sync.Mutex
	starts      int
	stops       int
	tags        []string
	sink        TranscriptSink
	startErr    error
	endOnStop   bool
	stateOf     func() State
	stateAtStop []State
}

func (c *fakeCapture) Start(sink TranscriptSink, voiceTag string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.starts++
	c.tags = append(c.tags, voiceTag)
	c.sink = sink
	return c.startErr
}

func (c *fakeCapture) Stop() {
	c.mu.Lock()
	c.stops++
	if c.stateOf != nil {
		c.stateAtStop = append(c.stateAtStop, c.stateOf())
	}
	sink, endOnStop := c.sink, c.endOnStop
	c.mu.Unlock()

	if endOnStop && sink != nil {
		sink.OnCaptureEnded()
	}
}

func (c *fakeCapture) counts() (starts, stops int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.starts, c.stops
}

type fakeRenderer struct {
	mu      sync.Mutex
	manual  bool
	err     error
	texts   []string
	tags    []string
	pending []func(error)
}

func (r *fakeRenderer) Render(text, voiceTag string, done func(error)) {
	r.mu.Lock()
	r.texts = append(r.texts, text)
	r.tags = append(r.tags, voiceTag)
	if r.manual {
		r.pending = append(r.pending, done)
		r.mu.Unlock()
		return
	}
	err := r.err
	r.mu.Unlock()
	done(err)
}

func (r *fakeRenderer) rendered() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

func (r *fakeRenderer) finish(err error) {
	r.mu.Lock()
	done := r.pending[0]
	r.pending = r.pending[1:]
	r.mu.Unlock()
	done(err)
}

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
	puts int
	err  error
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Put(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.err != nil {
		return m.err
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.data[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return value, nil
}

func (m *memStore) putCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

type manualTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	t.stopped = true
	return true
}

type timerSet struct {
	mu     sync.Mutex
	timers []*manualTimer
}

func (s *timerSet) newTimer(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	timer := &manualTimer{d: d, f: f}
	s.timers = append(s.timers, timer)
	return timer
}

func (s *timerSet) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *timerSet) last() *manualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) == 0 {
		return nil
	}
	return s.timers[len(s.timers)-1]
}

type noticeLog struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *noticeLog) Notify(notice Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *noticeLog) kinds() []NoticeKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	kinds := make([]NoticeKind, 0, len(n.notices))
	for _, notice := range n.notices {
		kinds = append(kinds, notice.Kind)
	}
	return kinds
}

type fakeRecorder struct {
	mu       sync.Mutex
	calls    []string
	finished []string
	rejected []string
}

func (r *fakeRecorder) ObserveAgentCall(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, outcome)
}

func (r *fakeRecorder) ObserveSessionFinished(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, reason)
}

func (r *fakeRecorder) ObserveSubmissionRejected(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected = append(r.rejected, reason)
}

type fakeSnapshotter struct {
	snapshot *ai.Snapshot
	err      error
}

func (f fakeSnapshotter) Snapshot(context.Context) (*ai.Snapshot, error) {
	return f.snapshot, f.err
}

type fakeIceBreaker struct {
	question string
	err      error
	inputs   []ai.IceBreakerInput
}

func (f *fakeIceBreaker) IceBreaker(_ context.Context, in ai.IceBreakerInput) (string, error) {
	f.inputs = append(f.inputs, in)
	return f.question, f.err
}

func pngSnapshot(t *testing.T) *ai.Snapshot {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 1, color.White)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return ai.NewSnapshot(buf.Bytes(), "image/png")
}

func fixedClock() func() time.Time {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return func() time.Time { return base }
}
