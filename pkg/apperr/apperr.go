// Package apperr defines the application error taxonomy. Errors are plain
// values with a discriminant, not an exception hierarchy: handlers switch on
// Code/Kind to pick a response shape.
package apperr

import "fmt"

// AIKind distinguishes AI failure modes so callers can decide retry vs fail-fast.
type AIKind string

const (
	// KindMalformed: the provider response contained no usable text segment.
	KindMalformed AIKind = "malformed"
	// KindJSONNotFound: no {...} brace span in the response text.
	KindJSONNotFound AIKind = "json_not_found"
	// KindParseFailed: a brace span existed but did not decode.
	KindParseFailed AIKind = "parse_failed"
	// KindEmptyResult: zero issues for a non-trivial snippet, treated as a
	// failed generation rather than a clean bill of health.
	KindEmptyResult AIKind = "empty_result"
)

// Error is the application error value. Status is the HTTP status a handler
// should map it to; Details carries diagnostics (raw excerpts, causes) that
// are logged but not exposed to callers.
type Error struct {
	Code    string
	Message string
	Status  int
	Kind    AIKind // set only for AI errors
	Details any
}

func (e *Error) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("%s: %s (details: %v)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Validation builds a 400 error for bad caller input.
func Validation(message string) *Error {
	return &Error{Code: "VALIDATION_ERROR", Message: message, Status: 400}
}

// Authentication builds a 401 error for a missing or invalid session.
func Authentication(message string) *Error {
	if message == "" {
		message = "Authentication required"
	}
	return &Error{Code: "UNAUTHORIZED", Message: message, Status: 401}
}

// AI builds a 500 error for an AI call or parse/validation failure.
func AI(kind AIKind, message string, details any) *Error {
	return &Error{Code: "AI_ERROR", Message: message, Status: 500, Kind: kind, Details: details}
}
