package source

import (
	"errors"
	"strconv"
	"strings"
)

// Code classifies an upstream failure
type Code string

const (
	// CodeNetwork indicates a transport failure before a response was read.
	CodeNetwork Code = "network"
	// CodeNotFound indicates the match does not exist upstream.
	CodeNotFound Code = "not_found"
	// CodeInvalid indicates the upstream rejected the request.
	CodeInvalid Code = "invalid_request"
	// CodeRateLimited indicates the upstream asked us to slow down.
	CodeRateLimited Code = "rate_limited"
	// CodeUnavailable indicates a 5xx response or an open circuit breaker.
	CodeUnavailable Code = "unavailable"
	// CodeDecode indicates the body did not match the expected shape.
	CodeDecode Code = "decode"
)

// Error is the structured failure returned by Client
type Error struct {
	Op      string
	Code    Code
	HTTP    int
	Message string

	cause error
}

func newError(op string, code Code, status int, msg string, cause error) *Error {
	return &Error{Op: op, Code: code, HTTP: status, Message: strings.TrimSpace(msg), cause: cause}
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	parts := []string{"op=" + e.Op, "code=" + string(e.Code)}
	if e.HTTP > 0 {
		parts = append(parts, "http="+strconv.Itoa(e.HTTP))
	}
	if e.Message != "" {
		parts = append(parts, "message="+strconv.Quote(e.Message))
	}
	if e.cause != nil {
		parts = append(parts, "cause="+strconv.Quote(e.cause.Error()))
	}
	return strings.Join(parts, " ")
}

func (e *Error) Unwrap() error { return e.cause }

// Retryable reports whether repeating the request may succeed
func (e *Error) Retryable() bool {
	switch e.Code {
	case CodeNetwork, CodeRateLimited, CodeUnavailable:
		return true
	default:
		return false
	}
}

// CodeOf extracts the Code of err, empty when err is not a source error
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsNotFound reports whether err means the match does not exist upstream
func IsNotFound(err error) bool { return CodeOf(err) == CodeNotFound }
