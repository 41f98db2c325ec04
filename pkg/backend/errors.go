package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingBaseURL = errors.New("backend base URL is required")
	ErrRequestFailed  = errors.New("backend request failed")
)

// APIError is a non-2xx answer from the backend. Message preserves the
// backend's own wording so it can be shown to the user unmodified.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
}

// newAPIError extracts the error message from a response body. Both
// {"error": "..."} and {"message": "..."} shapes are in use across the
// backend's endpoints.
func newAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}

	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error != "" {
			apiErr.Message = envelope.Error
		} else if envelope.Message != "" {
			apiErr.Message = envelope.Message
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}
