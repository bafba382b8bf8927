package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// GenericMessage is shown when an error carries no usable text.
const GenericMessage = "Unexpected error"

// Error is returned for every non-2xx response.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// errorBody mirrors the backend error shape. Only Message is read.
type errorBody struct {
	Timestamp string `json:"timestamp"`
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Message   any    `json:"message"`
}

// decodeError builds an *Error from a failed response body. It never fails:
// an empty, non-JSON or message-less body falls back to "HTTP <status>".
func decodeError(status int, body []byte) *Error {
	out := &Error{Status: status, Message: fmt.Sprintf("HTTP %d", status)}
	if len(body) == 0 {
		return out
	}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return out
	}
	if msg, ok := eb.Message.(string); ok && msg != "" {
		out.Message = msg
	}
	return out
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// DisplayMessage converts any error into notice text.
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		if strings.TrimSpace(apiErr.Message) != "" {
			return apiErr.Message
		}
		return GenericMessage
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return GenericMessage
}
