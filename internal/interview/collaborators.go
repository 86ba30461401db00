package interview

import (
	"context"
	"errors"
	"time"

	"github.com/Avinashhmavii/TIME-AI-Coach/internal/ai"
)

// ErrSnapshotUnavailable is returned by a Snapshotter that has no frame to give.
var ErrSnapshotUnavailable = errors.New("snapshot unavailable")

// TranscriptSink receives speech capture events. Session implements it.
type TranscriptSink interface {
	// OnTranscript delivers a recognized chunk. Final chunks are committed to
	// the answer, interim ones replace the previous interim chunk.
	OnTranscript(text string, final bool)
	// OnCaptureEnded reports that capture stopped, whoever stopped it.
	OnCaptureEnded()
	// OnCaptureError reports a capture failure such as a missing microphone.
	OnCaptureError(err error)
}

// Capture turns speech into transcript chunks.
type Capture interface {
	Start(sink TranscriptSink, voiceTag string) error
	Stop()
}

// Renderer shows or speaks text and calls done exactly once when it finished.
type Renderer interface {
	Render(text, voiceTag string, done func(error))
}

// Snapshotter returns a still image of the candidate.
type Snapshotter interface {
	Snapshot(ctx context.Context) (*ai.Snapshot, error)
}

// Store persists opaque keyed blobs.
type Store interface {
	Put(ctx context.Context, key string, value []byte) error
}

// NoticeKind groups user visible notices.
type NoticeKind string

const (
	NoticeInput   NoticeKind = "input"
	NoticeAgent   NoticeKind = "agent"
	NoticeCapture NoticeKind = "capture"
	NoticeRender  NoticeKind = "render"
	NoticeStorage NoticeKind = "storage"
)

// Notice is a recoverable problem the candidate should be told about.
type Notice struct {
	Kind    NoticeKind
	Message string
	Err     error
}

// NoticeSink receives notices. It is called outside the session lock.
type NoticeSink interface {
	Notify(Notice)
}

// NoticeFunc adapts a function to NoticeSink.
type NoticeFunc func(Notice)

func (f NoticeFunc) Notify(n Notice) { f(n) }

// Recorder receives session metrics.
type Recorder interface {
	ObserveAgentCall(outcome string, duration time.Duration)
	ObserveSessionFinished(reason string)
	ObserveSubmissionRejected(reason string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAgentCall(string, time.Duration) {}
func (nopRecorder) ObserveSessionFinished(string)          {}
func (nopRecorder) ObserveSubmissionRejected(string)       {}

// Timer is a pending silence timeout.
type Timer interface {
	Stop() bool
}

// TimerFunc schedules f after d.
type TimerFunc func(d time.Duration, f func()) Timer

func afterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Hooks let a shell follow the session. Every hook runs outside the session lock.
type Hooks struct {
	OnState    func(from, to State)
	OnQuestion func(question string)
	OnFeedback func(feedback ai.Feedback)
	OnFinished func(record *Record)
}
