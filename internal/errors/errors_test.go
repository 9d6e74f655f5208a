package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"validation", Validation(CodeNotesTooShort, "too short"), KindValidation},
		{"network", Network("unreachable", errors.New("dial tcp: refused")), KindNetwork},
		{"server", ServerRejected(409, "illegal transition"), KindServer},
		{"partial", &PartialUploadError{Succeeded: []string{"a.png"}}, KindPartial},
		{"wrapped validation", fmt.Errorf("complete: %w", Validation(CodeNoAfterPhotos, "no photos")), KindValidation},
		{"wrapped partial", fmt.Errorf("complete: %w", &PartialUploadError{}), KindPartial},
		{"plain", errors.New("something odd"), KindNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorIsMatchesCode(t *testing.T) {
	err := fmt.Errorf("reject: %w", Validation(CodeReasonTooShort, "reason too short"))
	if !errors.Is(err, &Error{Code: CodeReasonTooShort}) {
		t.Error("errors.Is by code = false, want true")
	}
	if errors.Is(err, &Error{Code: CodeNotesTooShort}) {
		t.Error("errors.Is matched a different code")
	}
}

func TestErrorMessage(t *testing.T) {
	e := ServerRejected(422, "rejection_reason must be at least 10 characters")
	want := "server rejected the request (HTTP 422): rejection_reason must be at least 10 characters"
	if e.Error() != want {
		t.Errorf("Error() = %q, want %q", e.Error(), want)
	}

	cause := errors.New("dial tcp: connection refused")
	n := Network("backend unreachable", cause)
	if !errors.Is(n, cause) {
		t.Error("network error does not unwrap to its cause")
	}
}

func TestPartialUploadError(t *testing.T) {
	e := &PartialUploadError{
		Succeeded: []string{"a.png", "b.png"},
		Failed:    []UploadFailure{{Path: "c.png", Err: errors.New("500")}},
	}
	if e.Error() != "uploaded 2 of 3 photos" {
		t.Errorf("Error() = %q", e.Error())
	}
	if e.AllFailed() {
		t.Error("AllFailed() = true with successes")
	}

	none := &PartialUploadError{Failed: []UploadFailure{{Path: "a.png", Err: errors.New("500")}}}
	if !none.AllFailed() {
		t.Error("AllFailed() = false with zero successes")
	}
	if none.Error() != "uploaded 0 of 1 photos" {
		t.Errorf("Error() = %q", none.Error())
	}
}

func TestNotPermittedAndInFlight(t *testing.T) {
	np := NotPermitted("start_work", "assigned")
	if np.Kind != KindValidation || np.Code != CodeActionNotPermitted {
		t.Errorf("NotPermitted: kind=%s code=%s", np.Kind, np.Code)
	}
	inf := InFlight("RPT-1")
	if inf.Code != CodeActionInFlight {
		t.Errorf("InFlight code = %s", inf.Code)
	}
	if !IsValidation(np) || !IsValidation(inf) {
		t.Error("gate errors should classify as validation")
	}
}
