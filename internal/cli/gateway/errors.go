package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a gateway failure.
type Kind string

const (
	// KindTransport means the request never reached the server.
	KindTransport Kind = "transport"
	// KindTimeout means the request exceeded the configured timeout.
	KindTimeout Kind = "timeout"
	// KindUnauthorized is a 401 answer; the session has been cleared.
	KindUnauthorized Kind = "unauthorized"
	// KindNotFound is a 404 answer.
	KindNotFound Kind = "not_found"
	// KindRejected is any other 4xx or 5xx answer.
	KindRejected Kind = "rejected"
)

// Error is returned by every failed gateway call.
type Error struct {
	Kind    Kind
	Status  int    // HTTP status, zero for transport and timeout
	Message string // backend-provided message, if any
	Method  string
	Path    string
	Body    []byte
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Method != "" {
		fmt.Fprintf(&b, "%s %s: ", e.Method, e.Path)
	}

	switch e.Kind {
	case KindTransport:
		b.WriteString("transport failure")
	case KindTimeout:
		b.WriteString("request timed out")
	default:
		fmt.Fprintf(&b, "%d %s", e.Status, strings.ToLower(http.StatusText(e.Status)))
	}

	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	} else if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinels for errors.Is.
var (
	ErrTransport    = &Error{Kind: KindTransport}
	ErrTimeout      = &Error{Kind: KindTimeout}
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrRejected     = &Error{Kind: KindRejected}
)

// KindOf returns the kind of a gateway error, or "" for other errors.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}

// IsTransport reports whether the request never produced a response,
// which includes timeouts.
func IsTransport(err error) bool {
	k := KindOf(err)
	return k == KindTransport || k == KindTimeout
}

// IsNotFound reports whether err is a 404 answer.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized reports whether err is a 401 answer.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// UserMessage returns a short message suitable for display.
// Backend messages are shown verbatim; otherwise a generic text per kind.
func UserMessage(err error) string {
	var ge *Error
	if !errors.As(err, &ge) {
		return err.Error()
	}
	if ge.Message != "" {
		return ge.Message
	}

	switch ge.Kind {
	case KindTransport:
		return "could not reach the server"
	case KindTimeout:
		return "the server did not answer in time"
	case KindUnauthorized:
		return "session expired, please log in again"
	case KindNotFound:
		return "not found"
	default:
		return fmt.Sprintf("request failed with status %d", ge.Status)
	}
}

func kindForStatus(status int) Kind {
	switch status {
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusNotFound:
		return KindNotFound
	default:
		return KindRejected
	}
}

// statusError builds the error for a >= 400 answer, extracting
// {"message": "..."} or {"code": "...", "message": "..."} when present.
func statusError(method, path string, status int, body []byte) *Error {
	e := &Error{
		Kind:   kindForStatus(status),
		Status: status,
		Method: method,
		Path:   path,
		Body:   body,
	}

	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Message != "" && payload.Code != "":
			e.Message = fmt.Sprintf("[%s] %s", payload.Code, payload.Message)
		case payload.Message != "":
			e.Message = payload.Message
		default:
			e.Message = payload.Error
		}
	}
	return e
}
