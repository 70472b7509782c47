package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_ChainingAndHelpers(t *testing.T) {
	t.Parallel()

	root := errors.New("root")
	err := NewError(ErrSynthesisFailed, "provider failed").
		WithCause(root).
		WithHTTPStatus(500).
		WithRetryable(true).
		WithProvider("google")

	if GetErrorCode(err) != ErrSynthesisFailed {
		t.Fatalf("expected code %s, got %s", ErrSynthesisFailed, GetErrorCode(err))
	}
	if !IsRetryable(err) {
		t.Fatalf("expected retryable")
	}
	if !errors.Is(err, root) {
		t.Fatalf("expected errors.Is unwrap to root")
	}
	if got := err.Error(); got == "" {
		t.Fatalf("expected non-empty error string")
	}
}

func TestError_WrappedLookup(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("job: %w", NewTimeoutError("yandex", errors.New("deadline")))

	if !IsErrorCode(wrapped, ErrUpstreamTimeout) {
		t.Fatalf("expected wrapped timeout code")
	}
	e, ok := AsError(wrapped)
	if !ok || e.Provider != "yandex" {
		t.Fatalf("AsError mismatch: %+v %v", e, ok)
	}
	if GetErrorCode(errors.New("plain")) != "" {
		t.Fatalf("plain error should have no code")
	}
}

func TestNewUnsupportedLanguageError(t *testing.T) {
	t.Parallel()

	err := NewUnsupportedLanguageError("xx")
	if err.Message != "Unsupported language: xx" {
		t.Fatalf("unexpected message %q", err.Message)
	}
	if err.Retryable {
		t.Fatalf("client errors are not retryable")
	}
}
