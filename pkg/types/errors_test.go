package types

import (
	"errors"
	"testing"
)

func TestErrorRetriable(t *testing.T) {
	if !New(KindTimeout, "deadline").Retriable() {
		t.Fatal("timeout should be retriable")
	}
	if New(KindInvalidArgument, "bad").Retriable() {
		t.Fatal("invalid argument should not be retriable")
	}
}

func TestKindOfUnwrapsWrappedErrors(t *testing.T) {
	cause := errors.New("boom")
	wrapped := Wrap(KindConflict, cause, "commit lost the race")
	if KindOf(wrapped) != KindConflict {
		t.Fatalf("expected conflict, got %s", KindOf(wrapped))
	}
	if !errors.Is(wrapped, wrapped) {
		t.Fatal("errors.Is should match itself")
	}
	if !errors.Is(wrapped, cause) {
		t.Fatal("errors.Is should see through Unwrap to cause")
	}
}

func TestKindOfDefaultsToInternal(t *testing.T) {
	if KindOf(errors.New("plain")) != KindInternal {
		t.Fatal("plain errors should classify as Internal")
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(ErrNotFound) {
		t.Fatal("ErrNotFound should report IsNotFound")
	}
}
