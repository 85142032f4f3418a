package api

import (
	"encoding/json"
	"net/http"

	"github.com/medcareai/medcare-client/internal/common"
)

// APIError is the normalized form of every failed backend call:
// a human-readable message, the HTTP status, and the raw response payload
// for callers that want the server's details.
type APIError struct {
	Message string
	Status  int
	Data    json.RawMessage
}

func (e *APIError) Error() string {
	return e.Message
}

// Is maps well-known statuses onto the shared sentinel errors so callers can
// use errors.Is without knowing about HTTP.
func (e *APIError) Is(target error) bool {
	switch target {
	case common.ErrorUnauthorized:
		return e.Status == http.StatusUnauthorized
	case common.ErrUnavailable:
		return e.Status == http.StatusServiceUnavailable || e.Status == http.StatusBadGateway || e.Status == http.StatusGatewayTimeout
	}
	return false
}

// serverError mirrors the backend's error body. FastAPI-style handlers put
// the useful text in "detail"; others use "message".
type serverError struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

// normalizeError converts a non-2xx response into an APIError. The message
// is derived preferentially from the server's detail field, then its message
// field, then the HTTP status text, then a fallback string.
func normalizeError(status int, body []byte) *APIError {
	e := &APIError{Status: status, Message: "request failed"}

	if len(body) > 0 {
		e.Data = json.RawMessage(body)

		var se serverError
		if err := json.Unmarshal(body, &se); err == nil {
			switch {
			case se.Detail != "":
				e.Message = se.Detail
				return e
			case se.Message != "":
				e.Message = se.Message
				return e
			}
		}
	}

	if text := http.StatusText(status); text != "" {
		e.Message = text
	}
	return e
}
