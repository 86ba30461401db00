// Package failover tries an ordered pool of interchangeable resources (API
// credentials) one after another until a call succeeds or fails with an
// error the pool is not allowed to fail over on.
package failover

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Avinashhmavii/TIME-AI-Coach/internal/logger"
)

// Attempt outcomes reported to the Recorder.
const (
	OutcomeSuccess  = "success"
	OutcomeFailover = "failover"
	OutcomeFatal    = "fatal"
)

var (
	// ErrNoCredentials is returned when a pool is built without members.
	ErrNoCredentials = errors.New("credential pool is empty")
	// ErrExhausted matches every ExhaustedError through errors.Is.
	ErrExhausted = errors.New("all credentials failed")
)

// Retryable reports whether err allows moving on to the next pool member.
type Retryable func(err error) bool

// Recorder receives one observation per attempt.
type Recorder interface {
	ObserveFailoverAttempt(outcome string)
}

// ExhaustedError is returned when every member of the pool failed with a
// retryable error. Last is the error of the final attempt.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s after %d attempts: %v", ErrExhausted, e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

func (e *ExhaustedError) Is(target error) bool { return target == ErrExhausted }

// Pool is an ordered, read-only list of resources. It is safe for concurrent
// use because Run never mutates it.
type Pool[C any] struct {
	members   []C
	retryable Retryable
	logger    *zap.Logger
	recorder  Recorder
}

// Option customizes a Pool.
type Option func(*options)

type options struct {
	logger   *zap.Logger
	recorder Recorder
}

// WithLogger sets the logger used for attempt diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRecorder sets the attempt recorder.
func WithRecorder(r Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// New builds a pool over members in the given order. A nil retryable
// predicate never fails over.
func New[C any](members []C, retryable Retryable, opts ...Option) (*Pool[C], error) {
	if len(members) == 0 {
		return nil, ErrNoCredentials
	}

	cfg := options{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if retryable == nil {
		retryable = func(error) bool { return false }
	}

	copied := make([]C, len(members))
	copy(copied, members)

	return &Pool[C]{
		members:   copied,
		retryable: retryable,
		logger:    cfg.logger,
		recorder:  cfg.recorder,
	}, nil
}

// Len returns the number of members.
func (p *Pool[C]) Len() int { return len(p.members) }

// Run calls fn with each member in order. It returns nil on the first
// success, the error itself on a non-retryable failure, and an
// *ExhaustedError when every member failed with a retryable error. Each
// member is tried at most once and there is no delay between attempts.
func (p *Pool[C]) Run(ctx context.Context, fn func(ctx context.Context, member C) error) error {
	var last error
	total := len(p.members)

	for i, member := range p.members {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx, member)
		if err == nil {
			p.observe(OutcomeSuccess)
			if i > 0 {
				p.logger.Info("call succeeded after failover", logger.CredentialField(i, total))
			}
			return nil
		}

		if !p.retryable(err) {
			p.observe(OutcomeFatal)
			p.logger.Debug("non-retryable error, not failing over",
				logger.CredentialField(i, total),
				zap.Error(err),
			)
			return err
		}

		p.observe(OutcomeFailover)
		p.logger.Warn("credential unavailable, failing over",
			logger.CredentialField(i, total),
			zap.Error(err),
		)
		last = err
	}

	return &ExhaustedError{Attempts: total, Last: last}
}

func (p *Pool[C]) observe(outcome string) {
	if p.recorder != nil {
		p.recorder.ObserveFailoverAttempt(outcome)
	}
}
