package ai

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"
)

// Snapshot is an encoded still image of the candidate.
type Snapshot struct {
	MIMEType string
	Data     []byte
}

// NewSnapshot wraps raw image bytes, sniffing the MIME type when it is not given.
func NewSnapshot(data []byte, mimeType string) *Snapshot {
	if strings.TrimSpace(mimeType) == "" {
		mimeType = http.DetectContentType(data)
	}
	return &Snapshot{MIMEType: mimeType, Data: data}
}

// ParseDataURI decodes a `data:<mime>;base64,<payload>` string.
func ParseDataURI(uri string) (*Snapshot, error) {
	uri = strings.TrimSpace(uri)
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, errors.New("snapshot is not a data uri")
	}

	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, errors.New("snapshot data uri has no payload")
	}

	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return nil, errors.New("snapshot data uri must be base64 encoded")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot payload: %w", err)
	}

	return NewSnapshot(data, mimeType), nil
}

// Validate checks that the payload is a decodable image.
func (s *Snapshot) Validate() error {
	if s == nil || len(s.Data) == 0 {
		return errors.New("snapshot is empty")
	}
	if !strings.HasPrefix(s.MIMEType, "image/") {
		return fmt.Errorf("snapshot mime type %q is not an image", s.MIMEType)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(s.Data)); err != nil {
		return fmt.Errorf("snapshot is not a decodable image: %w", err)
	}
	return nil
}

// Ref is a short content hash used to reference the snapshot without keeping it.
func (s *Snapshot) Ref() string {
	if s == nil || len(s.Data) == 0 {
		return ""
	}
	sum := sha256.Sum256(s.Data)
	return fmt.Sprintf("sha256:%x", sum[:8])
}
