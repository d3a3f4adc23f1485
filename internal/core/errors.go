package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound reports that the record does not exist on the backend.
	ErrNotFound = errors.New("user not found")
	// ErrRequestFailed covers transport failures and unexpected statuses.
	ErrRequestFailed = errors.New("request failed")
)

// FieldErrors maps a field name to a human-readable message.
type FieldErrors map[string]string

// ValidationError is returned when a record is rejected before submission.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// RequestError describes a failed round trip to the backend. It matches
// ErrNotFound for 404 responses and ErrRequestFailed otherwise.
type RequestError struct {
	Method string
	URL    string
	Status int // 0 when no response was received
	Body   string
	Err    error
}

func (e *RequestError) Error() string {
	msg := fmt.Sprintf("%s %s", e.Method, e.URL)
	if e.Status != 0 {
		msg += fmt.Sprintf(": HTTP %d", e.Status)
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RequestError) Unwrap() []error {
	kind := ErrRequestFailed
	if e.Status == 404 {
		kind = ErrNotFound
	}
	if e.Err == nil {
		return []error{kind}
	}
	return []error{kind, e.Err}
}
