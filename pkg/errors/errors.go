// Package errors provides coded errors for the alphaminer ingestion, cache and
// CLI layers. The discovery algorithms themselves never return errors.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
)

// Code identifies an error class for programmatic handling.
type Code string

const (
	// Input errors (1xx)
	CodeFileNotFound      Code = "E101"
	CodeUnsupportedFormat Code = "E102"
	CodeMissingColumn     Code = "E103"
	CodeInvalidTimestamp  Code = "E104"
	CodeEmptyLog          Code = "E105"
	CodeReadFailed        Code = "E106"

	// Discovery errors (2xx)
	CodeUnknownAlgorithm Code = "E201"
	CodeInvalidOption    Code = "E202"

	// Output errors (3xx)
	CodeEncodeFailed Code = "E301"
	CodeWriteFailed  Code = "E302"

	// System errors (4xx)
	CodeContextCanceled Code = "E401"
	CodeConfigInvalid   Code = "E402"
	CodeTelemetryInit   Code = "E403"

	// Cache errors (5xx)
	CodeCacheUnavailable Code = "E501"
	CodeCacheCorrupt     Code = "E502"

	// Storage errors (6xx)
	CodeStorageInit  Code = "E601"
	CodeStorageFetch Code = "E602"
	CodeQueryFailed  Code = "E603"

	CodeUnknown Code = "E999"
)

// AlphaError is the error type returned at the alphaminer boundaries.
type AlphaError struct {
	Code       Code
	Message    string
	Cause      error
	Context    map[string]interface{}
	StackTrace []Frame
}

// Frame is one captured stack frame.
type Frame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface. Context keys are printed sorted.
func (e *AlphaError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s", e.Code, e.Message)

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s=%v", k, e.Context[k])
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
func (e *AlphaError) Unwrap() error {
	return e.Cause
}

// Is matches another AlphaError by code.
func (e *AlphaError) Is(target error) bool {
	if t, ok := target.(*AlphaError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithContext attaches a key/value pair and returns the receiver.
func (e *AlphaError) WithContext(key string, value interface{}) *AlphaError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// FormatStack renders the captured stack.
func (e *AlphaError) FormatStack() string {
	var sb strings.Builder
	for _, f := range e.StackTrace {
		fmt.Fprintf(&sb, "  at %s\n    %s:%d\n", f.Function, f.File, f.Line)
	}
	return sb.String()
}

// New creates an AlphaError.
func New(code Code, message string) *AlphaError {
	return &AlphaError{
		Code:       code,
		Message:    message,
		StackTrace: captureStack(2),
	}
}

// Wrap wraps err with a code and message. It returns nil for a nil err.
func Wrap(err error, code Code, message string) *AlphaError {
	if err == nil {
		return nil
	}
	return &AlphaError{
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: captureStack(2),
	}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, code Code, format string, args ...interface{}) *AlphaError {
	if err == nil {
		return nil
	}
	return &AlphaError{
		Code:       code,
		Message:    fmt.Sprintf(format, args...),
		Cause:      err,
		StackTrace: captureStack(2),
	}
}

func captureStack(skip int) []Frame {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip+1, pcs)

	var frames []Frame
	cf := runtime.CallersFrames(pcs[:n])
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

// FileNotFound reports a missing input file.
func FileNotFound(path string) *AlphaError {
	return New(CodeFileNotFound, "file not found").WithContext("path", path)
}

// UnsupportedFormat reports an input whose format cannot be read.
func UnsupportedFormat(path string) *AlphaError {
	return New(CodeUnsupportedFormat, "unsupported event log format").WithContext("path", path)
}

// MissingColumn reports a required column absent from a tabular log.
func MissingColumn(column string, available []string) *AlphaError {
	return New(CodeMissingColumn, "required column not found").
		WithContext("column", column).
		WithContext("available", available)
}

// InvalidTimestamp reports a timestamp that could not be parsed.
func InvalidTimestamp(value string, row int) *AlphaError {
	return New(CodeInvalidTimestamp, "failed to parse timestamp").
		WithContext("value", value).
		WithContext("row", row)
}

// UnknownAlgorithm reports an algorithm name that is not registered.
func UnknownAlgorithm(name string) *AlphaError {
	return New(CodeUnknownAlgorithm, "unknown discovery algorithm").WithContext("algorithm", name)
}

// ContextCanceled reports a canceled operation.
func ContextCanceled(operation string) *AlphaError {
	return New(CodeContextCanceled, "operation canceled").WithContext("operation", operation)
}

// --- Error checking utilities ---

// IsCode reports whether err carries code.
func IsCode(err error, code Code) bool {
	var ae *AlphaError
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

// GetCode extracts the code from err, or CodeUnknown.
func GetCode(err error) Code {
	var ae *AlphaError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

// IsRetryable reports whether the failure may succeed on a later attempt.
func IsRetryable(err error) bool {
	switch GetCode(err) {
	case CodeCacheUnavailable, CodeStorageFetch:
		return true
	default:
		return false
	}
}

// MultiError collects several errors, e.g. from a batch run.
type MultiError struct {
	Errors []error
}

// Error implements the error interface.
func (m *MultiError) Error() string {
	switch len(m.Errors) {
	case 0:
		return "no errors"
	case 1:
		return m.Errors[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d errors occurred:\n", len(m.Errors))
	for i, err := range m.Errors {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Add appends a non-nil error.
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// HasErrors reports whether anything was collected.
func (m *MultiError) HasErrors() bool {
	return len(m.Errors) > 0
}

// Combined returns nil, the single error, or m.
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
