// Package errors defines the structured error taxonomy of the snippet
// repository.
//
// Every error carries a Code, a notification severity and a human readable
// message. Errors compare equal under errors.Is when their codes match, so
// callers test against the sentinels below.
package errors

import (
	"fmt"
	"maps"

	"github.com/maruel/houclip/internal/broadcast"
)

// Code identifies a class of failure.
type Code string

const (
	// CodeInvalidCategory is returned when a category is outside the applicable closed set
	CodeInvalidCategory Code = "INVALID_CATEGORY"
	// CodeEmptySelection is returned when the host selection is empty
	CodeEmptySelection Code = "EMPTY_SELECTION"
	// CodeNoUsableItem is returned when the host selection holds no node
	CodeNoUsableItem Code = "NO_USABLE_ITEM"
	// CodeMissingIndex is returned when a category index file does not exist
	CodeMissingIndex Code = "MISSING_INDEX"
	// CodeMalformedIndex is returned when an index row cannot be decoded
	CodeMalformedIndex Code = "MALFORMED_INDEX"
	// CodeContentMissing is returned when a snippet content file does not exist
	CodeContentMissing Code = "CONTENT_MISSING"
	// CodeSourceMissing is returned when the host did not produce its copy file
	CodeSourceMissing Code = "SOURCE_MISSING"
	// CodeDescriptionRequired is returned when a snippet has no description
	CodeDescriptionRequired Code = "DESCRIPTION_REQUIRED"
	// CodeUnknownSnippetCategory is returned when a decoded row names no known category
	CodeUnknownSnippetCategory Code = "UNKNOWN_SNIPPET_CATEGORY"
	// CodeInvalidPrefix is returned when a prefix disagrees with its category
	CodeInvalidPrefix Code = "INVALID_PREFIX"
	// CodeHostUnavailable is returned when a workflow needs a host bridge that was not configured
	CodeHostUnavailable Code = "HOST_UNAVAILABLE"
)

// Error is a concrete error with code, severity, message and optional details.
type Error struct {
	code       Code
	severity   broadcast.Severity
	message    string
	details    map[string]any
	wrappedErr error
}

// New creates a new Error.
func New(code Code, sev broadcast.Severity, message string) *Error {
	return &Error{code: code, severity: sev, message: message}
}

// Errorf creates an Error with the same code and severity as e and a new message.
func (e *Error) Errorf(format string, args ...any) *Error {
	return &Error{code: e.code, severity: e.severity, message: fmt.Sprintf(format, args...)}
}

// WithDetail returns a copy of the error with one more detail attached.
func (e *Error) WithDetail(key string, value any) *Error {
	c := *e
	c.details = maps.Clone(e.details)
	if c.details == nil {
		c.details = make(map[string]any)
	}
	c.details[key] = value
	return &c
}

// Wrap returns a copy of the error wrapping an underlying cause.
func (e *Error) Wrap(err error) *Error {
	c := *e
	c.wrappedErr = err
	return &c
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.wrappedErr != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrappedErr)
	}
	return e.message
}

// Message returns the message without the wrapped cause.
func (e *Error) Message() string {
	return e.message
}

// Code returns the error code.
func (e *Error) Code() Code {
	return e.code
}

// Severity returns the notification severity to report the error at.
func (e *Error) Severity() broadcast.Severity {
	return e.severity
}

// Details returns additional error details.
func (e *Error) Details() map[string]any {
	return e.details
}

// Unwrap returns the wrapped error if any.
func (e *Error) Unwrap() error {
	return e.wrappedErr
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.code == e.code
}

// Sentinels, one per code. Derive specific errors from them with Errorf,
// WithDetail and Wrap.
var (
	ErrInvalidCategory        = New(CodeInvalidCategory, broadcast.Fatal, "Unsupported category")
	ErrEmptySelection         = New(CodeEmptySelection, broadcast.Warning, "Empty selection.")
	ErrNoUsableItem           = New(CodeNoUsableItem, broadcast.Warning, "Select at least one network item.")
	ErrMissingIndex           = New(CodeMissingIndex, broadcast.Fatal, "Missing CSV file")
	ErrMalformedIndex         = New(CodeMalformedIndex, broadcast.Error, "Malformed CSV file")
	ErrContentMissing         = New(CodeContentMissing, broadcast.Error, "File not found")
	ErrSourceMissing          = New(CodeSourceMissing, broadcast.Error, "Source path not found. Nothing was exported.")
	ErrDescriptionRequired    = New(CodeDescriptionRequired, broadcast.Warning, "Snippet description is mandatory.")
	ErrUnknownSnippetCategory = New(CodeUnknownSnippetCategory, broadcast.Error, "Empty or unknown snippet category")
	ErrInvalidPrefix          = New(CodeInvalidPrefix, broadcast.Error, "Supplied prefix is invalid")
	ErrHostUnavailable        = New(CodeHostUnavailable, broadcast.Fatal, "Host application bridge not available.")
)
