package gemini

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/genai"
)

func TestIsFailoverError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "plain", err: errors.New("boom"), want: false},
		{name: "rate limited", err: genai.APIError{Code: http.StatusTooManyRequests}, want: true},
		{name: "unavailable", err: genai.APIError{Code: http.StatusServiceUnavailable}, want: true},
		{name: "status only", err: genai.APIError{Status: "resource_exhausted"}, want: true},
		{name: "pointer", err: &genai.APIError{Code: http.StatusTooManyRequests}, want: true},
		{name: "wrapped", err: fmt.Errorf("generate content: %w", genai.APIError{Code: http.StatusServiceUnavailable}), want: true},
		{name: "bad request", err: genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"}, want: false},
		{name: "auth", err: genai.APIError{Code: http.StatusForbidden, Status: "PERMISSION_DENIED"}, want: false},
		{name: "internal", err: genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsFailoverError(tt.err); got != tt.want {
				t.Fatalf("IsFailoverError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
