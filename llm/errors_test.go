package llm

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorClassification(t *testing.T) {
	cause := errors.New("boom")

	transient := NewTransientError(cause)
	if !IsTransient(transient) {
		t.Error("expected transient")
	}
	if IsFatal(transient) {
		t.Error("transient error must not be fatal")
	}
	if !errors.Is(transient, cause) {
		t.Error("transient error should unwrap to its cause")
	}

	fatal := NewFatalError(cause)
	if !IsFatal(fatal) {
		t.Error("expected fatal")
	}
	if IsTransient(fatal) {
		t.Error("fatal error must not be transient")
	}

	// Classification survives further wrapping.
	wrapped := fmt.Errorf("request failed: %w", transient)
	if !IsTransient(wrapped) {
		t.Error("wrapped transient error should still classify as transient")
	}

	if IsTransient(cause) || IsFatal(cause) {
		t.Error("unclassified errors are neither transient nor fatal")
	}
}
