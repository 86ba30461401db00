// Package console adapts the interview session to a terminal: questions are
// printed instead of spoken and typed lines stand in for speech recognition.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Renderer prints questions to a writer. It completes as soon as the text is written.
type Renderer struct {
	mu     sync.Mutex
	w      io.Writer
	prefix string
}

// NewRenderer creates a renderer that prefixes every question with prefix.
func NewRenderer(w io.Writer, prefix string) *Renderer {
	return &Renderer{w: w, prefix: prefix}
}

func (r *Renderer) Render(text, voiceTag string, done func(error)) {
	r.mu.Lock()
	_, err := fmt.Fprintf(r.w, "%s%s\n", r.prefix, strings.TrimSpace(text))
	r.mu.Unlock()

	if done != nil {
		done(err)
	}
}
