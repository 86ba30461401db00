package console

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Avinashhmavii/TIME-AI-Coach/internal/interview"
)

// ErrInputClosed is returned by Start once the input reached EOF.
var ErrInputClosed = errors.New("console input closed")

// LineCapture reads the candidate's answer line by line. Every non-empty
// line is delivered as a final transcript chunk while capture is running;
// lines typed at any other time are dropped. Lines that match a registered
// command are not delivered.
type LineCapture struct {
	r      io.Reader
	logger *zap.Logger

	once sync.Once
	done chan struct{}

	mu       sync.Mutex
	sink     interview.TranscriptSink
	closed   bool
	commands map[string]func()
}

// NewLineCapture creates a capture reading from r. Reading starts with the first Start call.
func NewLineCapture(r io.Reader, logger *zap.Logger) *LineCapture {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LineCapture{
		r:        r,
		logger:   logger,
		done:     make(chan struct{}),
		commands: make(map[string]func()),
	}
}

// OnCommand registers f for lines equal to name, e.g. ":end".
func (c *LineCapture) OnCommand(name string, f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commands[strings.TrimSpace(name)] = f
}

// Closed is closed when the input reached EOF.
func (c *LineCapture) Closed() <-chan struct{} {
	return c.done
}

func (c *LineCapture) Start(sink interview.TranscriptSink, _ string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrInputClosed
	}
	c.sink = sink
	c.mu.Unlock()

	c.once.Do(func() { go c.read() })
	return nil
}

// Stop detaches the sink and reports the end of capture to it.
func (c *LineCapture) Stop() {
	c.mu.Lock()
	sink := c.sink
	c.sink = nil
	c.mu.Unlock()

	if sink != nil {
		sink.OnCaptureEnded()
	}
}

func (c *LineCapture) read() {
	defer close(c.done)

	scanner := bufio.NewScanner(c.r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		c.mu.Lock()
		command := c.commands[line]
		sink := c.sink
		c.mu.Unlock()

		switch {
		case command != nil:
			command()
		case sink != nil:
			sink.OnTranscript(line, true)
		default:
			c.logger.Debug("dropping input while not listening", zap.Int("length", len(line)))
		}
	}

	err := scanner.Err()

	c.mu.Lock()
	c.closed = true
	sink := c.sink
	c.sink = nil
	c.mu.Unlock()

	if sink == nil {
		return
	}
	if err != nil {
		sink.OnCaptureError(err)
	}
	sink.OnCaptureEnded()
}
