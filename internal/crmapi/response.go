package crmapi

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
)

// ErrorMessage extracts the backend error message from a response body of the
// standard { "error": string } shape. When the body is empty, is not JSON, or
// lacks an error field, a generic message built from the status code is
// returned instead.
func ErrorMessage(body []byte, statusCode int) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 {
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(trimmed, &payload); err == nil && payload.Error != "" {
			return payload.Error
		}
	}
	return fmt.Sprintf("request failed with status %d", statusCode)
}

// Decode parses the JSON body into out. An empty body decodes as JSON null so
// callers observe their zero value rather than an error.
func Decode(body []byte, out any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		trimmed = []byte("null")
	}
	return json.Unmarshal(trimmed, out)
}
