package console

import (
	"context"
	"fmt"
	"os"

	"github.com/Avinashhmavii/TIME-AI-Coach/internal/ai"
)

// FileSnapshotter serves a still image file as the camera frame.
type FileSnapshotter struct {
	Path string
}

func (f FileSnapshotter) Snapshot(ctx context.Context) (*ai.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	snapshot := ai.NewSnapshot(data, "")
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}
	return snapshot, nil
}
