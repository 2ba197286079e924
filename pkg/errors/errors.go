// Package errors provides structured error handling for csvsift.
// It implements coded errors with context and stack traces.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Code identifies an error class for programmatic handling.
type Code string

const (
	// Input errors (1xx)
	CodeFileNotFound  Code = "E101"
	CodeLoadFailed    Code = "E102"
	CodeMissingColumn Code = "E103"
	CodeEncodingError Code = "E104"
	CodeEmptyTable    Code = "E105"

	// Pipeline errors (2xx)
	CodeEmptyValueSet Code = "E201"
	CodeNoResults     Code = "E202"

	// Output errors (3xx)
	CodeRenderFailed Code = "E301"
	CodeWriteFailed  Code = "E302"

	// System errors (4xx)
	CodeContextCanceled Code = "E401"

	// Unknown
	CodeUnknown Code = "E999"
)

// SiftError is the base error type for all csvsift errors.
type SiftError struct {
	Code       Code
	Message    string
	Cause      error
	Context    map[string]interface{}
	StackTrace []Frame
}

// Frame represents a stack frame.
type Frame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface.
func (e *SiftError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if len(e.Context) > 0 {
		sb.WriteString(" (")
		first := true
		for k, v := range e.Context {
			if !first {
				sb.WriteString(", ")
			}
			sb.WriteString(fmt.Sprintf("%s=%v", k, v))
			first = false
		}
		sb.WriteString(")")
	}

	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}

	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *SiftError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target error.
func (e *SiftError) Is(target error) bool {
	if t, ok := target.(*SiftError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithContext adds context to the error.
func (e *SiftError) WithContext(key string, value interface{}) *SiftError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new SiftError.
func New(code Code, message string) *SiftError {
	return &SiftError{
		Code:       code,
		Message:    message,
		StackTrace: captureStack(2),
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(err error, code Code, message string) *SiftError {
	if err == nil {
		return nil
	}

	return &SiftError{
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: captureStack(2),
	}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, code Code, format string, args ...interface{}) *SiftError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// captureStack captures the current stack trace.
func captureStack(skip int) []Frame {
	var frames []Frame
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip+1, pcs)
	pcs = pcs[:n]

	cf := runtime.CallersFrames(pcs)
	for {
		frame, more := cf.Next()
		frames = append(frames, Frame{
			Function: frame.Function,
			File:     frame.File,
			Line:     frame.Line,
		})
		if !more || len(frames) >= 10 {
			break
		}
	}
	return frames
}

// --- Convenience constructors ---

// FileNotFound creates a file not found error.
func FileNotFound(path string) *SiftError {
	return New(CodeFileNotFound, "file not found").WithContext("path", path)
}

// LoadFailed creates an ingestion error after the fallback chain is
// exhausted. attempts carries the per-attempt underlying errors.
func LoadFailed(file string, attempts error) *SiftError {
	return Wrap(attempts, CodeLoadFailed, "unable to parse file").
		WithContext("file", file)
}

// MissingColumn creates a missing column error.
func MissingColumn(column string, available []string) *SiftError {
	return New(CodeMissingColumn, "required column not found").
		WithContext("column", column).
		WithContext("available", available)
}

// EmptyValueSet signals a template column that yielded zero distinct
// values. Not fatal: an empty set validly filters every target to zero rows.
func EmptyValueSet(column string) *SiftError {
	return New(CodeEmptyValueSet, "template column has no values").
		WithContext("column", column)
}

// ContextCanceled creates a cancellation error.
func ContextCanceled(operation string) *SiftError {
	return New(CodeContextCanceled, "operation canceled").
		WithContext("operation", operation)
}

// --- Error checking utilities ---

// IsCode checks if an error has a specific code.
func IsCode(err error, code Code) bool {
	var se *SiftError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// GetCode extracts the error code from an error.
func GetCode(err error) Code {
	var se *SiftError
	if errors.As(err, &se) {
		return se.Code
	}
	return CodeUnknown
}

// MultiError collects multiple errors, one per loader attempt or batch file.
type MultiError struct {
	Errors []error
}

// Error implements the error interface.
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:\n", len(m.Errors)))
	for i, err := range m.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Add adds an error to the collection.
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// HasErrors returns true if any errors were collected.
func (m *MultiError) HasErrors() bool {
	return len(m.Errors) > 0
}

// Combined returns nil if no errors, the single error if one, or the MultiError.
func (m *MultiError) Combined() error {
	switch len(m.Errors) {
	case 0:
		return nil
	case 1:
		return m.Errors[0]
	default:
		return m
	}
}
