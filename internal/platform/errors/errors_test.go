package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("join: %w", New(CodeAlreadyJoined, "connection already joined"))

	if !stderrors.Is(err, New(CodeAlreadyJoined, "")) {
		t.Fatal("expected wrapped error to match by code")
	}
	if stderrors.Is(err, New(CodeForbidden, "")) {
		t.Fatal("expected different code not to match")
	}
}

func TestWrapUnwrapsCause(t *testing.T) {
	cause := stderrors.New("boom")
	err := Wrap(CodeInvalidArgument, "invalid frame", cause)

	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause to be reachable")
	}
	if err.Error() != "invalid frame" {
		t.Fatalf("message = %q, want %q", err.Error(), "invalid frame")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(fmt.Errorf("x: %w", New(CodeForbidden, "nope"))); got != CodeForbidden {
		t.Fatalf("code = %q, want %q", got, CodeForbidden)
	}
	if got := GetCode(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("code = %q, want %q", got, CodeUnknown)
	}
}
