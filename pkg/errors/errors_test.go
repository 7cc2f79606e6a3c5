package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestAlphaError_Error(t *testing.T) {
	err := New(CodeMissingColumn, "required column not found").
		WithContext("column", "activity").
		WithContext("available", []string{"case", "ts"})

	want := "[E103] required column not found (available=[case ts], column=activity)"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(cause, CodeCacheUnavailable, "redis ping failed")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should unwrap to its cause")
	}
	if !IsCode(err, CodeCacheUnavailable) {
		t.Errorf("IsCode(%v) = false, want true", CodeCacheUnavailable)
	}
	if !IsRetryable(err) {
		t.Error("cache errors should be retryable")
	}
	if len(err.StackTrace) == 0 {
		t.Error("expected a captured stack")
	}
	if Wrap(nil, CodeUnknown, "x") != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"coded", UnknownAlgorithm("beta"), CodeUnknownAlgorithm},
		{"wrapped twice", fmt.Errorf("outer: %w", FileNotFound("log.csv")), CodeFileNotFound},
		{"plain", fmt.Errorf("plain"), CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMultiError(t *testing.T) {
	var m MultiError
	if m.Combined() != nil {
		t.Error("empty MultiError should combine to nil")
	}

	m.Add(nil)
	m.Add(New(CodeEmptyLog, "log has no traces"))
	if m.Combined() != m.Errors[0] {
		t.Error("single error should be returned as-is")
	}

	m.Add(ContextCanceled("batch"))
	if !m.HasErrors() || m.Combined() != &m {
		t.Error("multiple errors should combine to the MultiError")
	}
}
