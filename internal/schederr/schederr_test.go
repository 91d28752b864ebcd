package schederr

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsMatchesOnKindAcrossWrapping(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(InvalidTiming, "timeslot.Compute", "resolved timeslot length is zero", cause)

	if !Is(err, InvalidTiming) {
		t.Fatal("Is() did not match the error's own kind")
	}
	if Is(err, NoSchedule) {
		t.Fatal("Is() matched an unrelated kind")
	}

	wrapped := fmt.Errorf("session.Prepare: %w", err)
	if !Is(wrapped, InvalidTiming) {
		t.Fatal("Is() did not see through a stdlib %w wrap")
	}
}

func TestAsExtractsUnderlyingError(t *testing.T) {
	err := New(PatchInfeasible, "patch.Run", "no gap large enough")
	extracted, ok := As(err)
	if !ok {
		t.Fatal("As() returned ok=false for a *Error")
	}
	if extracted.Kind != PatchInfeasible || extracted.Op != "patch.Run" {
		t.Fatalf("As() = %+v, want Kind=patch_infeasible Op=patch.Run", extracted)
	}

	if _, ok := As(errors.New("plain")); ok {
		t.Fatal("As() returned ok=true for a non-classified error")
	}
}

func TestOfKindDefaultsToBackendErrorForUnclassified(t *testing.T) {
	if got := OfKind(errors.New("plain")); got != BackendError {
		t.Fatalf("OfKind(plain error) = %v, want BackendError", got)
	}
	if got := OfKind(New(NoSchedule, "op", "msg")); got != NoSchedule {
		t.Fatalf("OfKind(classified error) = %v, want NoSchedule", got)
	}
}

func TestErrorStringIncludesCauseWhenPresent(t *testing.T) {
	cause := errors.New("underlying")
	err := Wrap(BackendError, "optimize.Run", "solver invocation", cause)
	got := err.Error()
	want := "backend_error: optimize.Run: solver invocation: underlying"
	if got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestErrorStringOmitsCauseWhenAbsent(t *testing.T) {
	err := New(InvalidInput, "docio.ReadNetwork", "decoding network document")
	got := err.Error()
	want := "invalid_input: docio.ReadNetwork: decoding network document"
	if got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestWrapfFormatsMessage(t *testing.T) {
	err := Wrapf(NoSchedule, "strategy.Incremental", errors.New("cause"), "iteration %d failed", 3)
	if err.Message != "iteration 3 failed" {
		t.Fatalf("Message = %q, want %q", err.Message, "iteration 3 failed")
	}
}

func TestUnwrapReturnsCause(t *testing.T) {
	cause := errors.New("root")
	err := Wrap(ScheduleInvalid, "verify.Run", "overlap detected", cause)
	if errors.Unwrap(err) != cause {
		t.Fatal("Unwrap() did not return the original cause")
	}
}
