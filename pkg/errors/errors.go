// Package errors provides structured error types for netlistdb.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the parser, writer, cache and CLI
//   - Machine-readable error codes for programmatic handling
//   - Source positions attached to every netlist diagnostic
//   - Aggregation of several structural problems found in one pass
//
// # Error Codes
//
// Netlist codes name the failing check (LEX_ERROR, PARSE_ERROR,
// DUPLICATE_MODULE, ...). Ambient codes follow the INVALID_* / *_NOT_FOUND /
// INTERNAL_* convention.
//
// # Usage
//
//	err := errors.At(errors.ErrCodeParse, pos, "expected %s, found %q", "';'", tok.Text)
//	if errors.Is(err, errors.ErrCodeParse) {
//	    // Handle grammar error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeCacheCorrupt, origErr, "decode artifact for %s", path)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Netlist diagnostics
	ErrCodeLex                 Code = "LEX_ERROR"
	ErrCodeParse               Code = "PARSE_ERROR"
	ErrCodeDuplicateModule     Code = "DUPLICATE_MODULE"
	ErrCodeDuplicateInstance   Code = "DUPLICATE_INSTANCE"
	ErrCodeUnresolvedReference Code = "UNRESOLVED_REFERENCE"
	ErrCodeCyclicInstantiation Code = "CYCLIC_INSTANTIATION"
	ErrCodeUnknownPort         Code = "UNKNOWN_PORT"
	ErrCodeUnresolvedGraph     Code = "UNRESOLVED_GRAPH"
	ErrCodeCacheCorrupt        Code = "CACHE_CORRUPT"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Resource not found errors
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Position is a location in netlist source text.
// Line and Column are 1-based; the zero value means "no position".
type Position struct {
	File   string `json:"file,omitempty" bson:"file,omitempty"`
	Line   int    `json:"line" bson:"line"`
	Column int    `json:"column" bson:"column"`
	Offset int    `json:"offset" bson:"offset"`
}

// IsValid reports whether the position points into source text.
func (p Position) IsValid() bool { return p.Line > 0 }

// String formats the position as file:line:col.
func (p Position) String() string {
	if !p.IsValid() {
		return p.File
	}
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Error is a structured error with a code, an optional source position and
// an optional cause.
type Error struct {
	Code    Code       // Machine-readable error code
	Message string     // Human-readable message
	Pos     Position   // Primary source position (optional)
	Related []Position // Other positions involved, e.g. the first definition
	Names   []string   // Names involved, e.g. the module chain of a cycle
	Cause   error      // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Pos.IsValid() {
		b.WriteString(e.Pos.String())
		b.WriteString(": ")
	}
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// At creates a new Error anchored at a source position.
func At(code Code, pos Position, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Pos:     pos,
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err, or any error it wraps or aggregates, has the
// given error code.
func Is(err error, code Code) bool {
	if err == nil {
		return false
	}
	var e *Error
	if errors.As(err, &e) && e.Code == code {
		return true
	}
	for _, inner := range All(err) {
		if inner.Code == code {
			return true
		}
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Pos.IsValid() {
			return e.Pos.String() + ": " + e.Message
		}
		return e.Message
	}
	return err.Error()
}
