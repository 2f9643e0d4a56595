package apiclient

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FetchError is returned by every read operation of the client.
// Message is display-ready and never empty.
type FetchError struct {
	Op         string // e.g. "fetch portfolio data"
	Message    string
	StatusCode int // 0 when the request never got a response
	Cause      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to %s: %s", e.Op, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// SubmitError is returned by write operations of the client.
// Message is display-ready and never empty.
type SubmitError struct {
	Op         string
	Message    string
	StatusCode int
	Cause      error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("failed to %s: %s", e.Op, e.Message)
}

func (e *SubmitError) Unwrap() error {
	return e.Cause
}

// errorBody is the error envelope written by the API. Older deployments use "error".
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
	Error  string          `json:"error"`
}

// serverMessage extracts a display message from a non-2xx response body.
// Returns "" when the body carries no usable detail.
func serverMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	if len(eb.Detail) > 0 {
		var s string
		if err := json.Unmarshal(eb.Detail, &s); err == nil {
			return strings.TrimSpace(s)
		}
		// Validation failures may carry a structured detail; show it verbatim.
		if string(eb.Detail) != "null" {
			return string(eb.Detail)
		}
	}
	return strings.TrimSpace(eb.Error)
}

// failureMessage picks the first non-empty message in order: server detail,
// transport error, HTTP status.
func failureMessage(body []byte, status int, cause error) string {
	if msg := serverMessage(body); msg != "" {
		return msg
	}
	if cause != nil {
		return cause.Error()
	}
	if status != 0 {
		return fmt.Sprintf("HTTP status %d", status)
	}
	return "unknown error"
}
