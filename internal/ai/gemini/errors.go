package gemini

import (
	"errors"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// IsFailoverError reports whether err means the current API key is rate
// limited or the service is temporarily unavailable, so another key may
// succeed with the same request.
func IsFailoverError(err error) bool {
	code, status, ok := apiErrorInfo(err)
	if !ok {
		return false
	}

	switch code {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return true
	}

	switch strings.ToUpper(status) {
	case "RESOURCE_EXHAUSTED", "UNAVAILABLE":
		return true
	}

	return false
}

func apiErrorInfo(err error) (int, string, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, apiErr.Status, true
	}

	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, apiErrPtr.Status, true
	}

	return 0, "", false
}
