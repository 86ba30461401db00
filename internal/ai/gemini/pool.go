package gemini

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Avinashhmavii/TIME-AI-Coach/internal/failover"
)

type requestGenerator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Model() string
}

// PooledGenerator spreads requests over several API keys, moving to the next
// key only when the current one is rate limited or unavailable.
type PooledGenerator struct {
	pool  *failover.Pool[requestGenerator]
	model string
}

// PoolOptions configures NewPooledGenerator.
type PoolOptions struct {
	Model       string
	Temperature float32
	Logger      *zap.Logger
	Recorder    failover.Recorder
}

// NewPooledGenerator creates one Generator per key, keeping the key order.
func NewPooledGenerator(ctx context.Context, apiKeys []string, opts PoolOptions) (*PooledGenerator, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	generators := make([]requestGenerator, 0, len(apiKeys))
	for i, key := range apiKeys {
		generator, err := NewGenerator(ctx, key, opts.Model, logger)
		if err != nil {
			return nil, fmt.Errorf("gemini key #%d: %w", i+1, err)
		}
		generator.SetTemperature(opts.Temperature)
		generators = append(generators, generator)
	}

	return newPooledGenerator(generators, logger, opts.Recorder)
}

func newPooledGenerator(generators []requestGenerator, logger *zap.Logger, recorder failover.Recorder) (*PooledGenerator, error) {
	pool, err := failover.New(generators, IsFailoverError,
		failover.WithLogger(logger),
		failover.WithRecorder(recorder),
	)
	if err != nil {
		return nil, err
	}

	return &PooledGenerator{pool: pool, model: generators[0].Model()}, nil
}

// Generate sends the same request with each key in turn.
func (p *PooledGenerator) Generate(ctx context.Context, req Request) (string, error) {
	var output string
	err := p.pool.Run(ctx, func(ctx context.Context, generator requestGenerator) error {
		text, err := generator.Generate(ctx, req)
		if err != nil {
			return err
		}
		output = text
		return nil
	})
	if err != nil {
		return "", err
	}
	return output, nil
}

func (p *PooledGenerator) Model() string {
	if p == nil {
		return ""
	}
	return p.model
}
