package task

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ferrors "github.com/civitrack/fieldops/internal/errors"
)

// writePhoto creates a fixture file starting with the given magic bytes,
// padded to size.
func writePhoto(t *testing.T, dir, name string, magic []byte, size int) string {
	t.Helper()
	data := make([]byte, size)
	copy(data, magic)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

var (
	pngMagic  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	jpegMagic = []byte{0xff, 0xd8, 0xff, 0xe0}
	webpMagic = append([]byte("RIFF\x00\x00\x00\x00WEBP"), "VP8 "...)
)

func wantCode(t *testing.T, err error, code ferrors.Code) {
	t.Helper()
	var fe *ferrors.Error
	if !ferrors.As(err, &fe) {
		t.Fatalf("error %v is not a *ferrors.Error", err)
	}
	if fe.Code != code {
		t.Fatalf("error code = %s, want %s", fe.Code, code)
	}
	if fe.Kind != ferrors.KindValidation {
		t.Fatalf("error kind = %s, want %s", fe.Kind, ferrors.KindValidation)
	}
}

func TestValidateRejectionReason(t *testing.T) {
	if err := ValidateRejectionReason("too short"); err == nil {
		t.Error("9-char reason accepted, want error")
	} else {
		wantCode(t, err, ferrors.CodeReasonTooShort)
	}
	if err := ValidateRejectionReason("   padded but short   "); err == nil {
		// 18 chars after trim, fine
		t.Log("trimmed reason accepted")
	}
	if err := ValidateRejectionReason(strings.Repeat("x", 9) + " "); err == nil {
		t.Error("whitespace-padded 9-char reason accepted, want error")
	}
	if err := ValidateRejectionReason("exactly 10"); err != nil {
		t.Errorf("10-char reason rejected: %v", err)
	}
}

func TestValidateUpdateText(t *testing.T) {
	if err := ValidateUpdateText("short one"); err == nil {
		t.Error("9-char update accepted, want error")
	} else {
		wantCode(t, err, ferrors.CodeUpdateTooShort)
	}
	if err := ValidateUpdateText("ten chars."); err != nil {
		t.Errorf("10-char update rejected: %v", err)
	}
}

func TestHoldRequestValidate(t *testing.T) {
	now := time.Date(2026, 8, 25, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		req  HoldRequest
		code ferrors.Code // "" means valid
	}{
		{"fixed reason", HoldRequest{Reason: "awaiting_materials"}, ""},
		{"unknown reason", HoldRequest{Reason: "lunch"}, ferrors.CodeHoldReasonInvalid},
		{"empty reason", HoldRequest{}, ferrors.CodeHoldReasonInvalid},
		{"other without custom", HoldRequest{Reason: HoldReasonOther}, ferrors.CodeReasonTooShort},
		{"other short custom", HoldRequest{Reason: HoldReasonOther, CustomReason: "because"}, ferrors.CodeReasonTooShort},
		{"other 9-char custom", HoldRequest{Reason: HoldReasonOther, CustomReason: strings.Repeat("r", 9)}, ferrors.CodeReasonTooShort},
		{"other 10-char custom", HoldRequest{Reason: HoldReasonOther, CustomReason: strings.Repeat("r", 10)}, ""},
		{"other good custom", HoldRequest{Reason: HoldReasonOther, CustomReason: "awaiting council sign-off"}, ""},
		{"resume today", HoldRequest{Reason: "weather_conditions", EstimatedResumeDate: "2026-08-25"}, ""},
		{"resume future", HoldRequest{Reason: "weather_conditions", EstimatedResumeDate: "2026-09-01"}, ""},
		{"resume past", HoldRequest{Reason: "weather_conditions", EstimatedResumeDate: "2026-08-24"}, ferrors.CodeResumeDateInPast},
		{"resume bad format", HoldRequest{Reason: "weather_conditions", EstimatedResumeDate: "25/08/2026"}, ferrors.CodeResumeDateInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate(now)
			if tt.code == "" {
				if err != nil {
					t.Fatalf("Validate() error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() succeeded, want error")
			}
			wantCode(t, err, tt.code)
		})
	}
}

func TestHoldRequestEffectiveReason(t *testing.T) {
	fixed := HoldRequest{Reason: "equipment_failure", CustomReason: "ignored"}
	if got := fixed.EffectiveReason(); got != "equipment_failure" {
		t.Errorf("EffectiveReason() = %q", got)
	}
	other := HoldRequest{Reason: HoldReasonOther, CustomReason: "  awaiting council sign-off  "}
	if got := other.EffectiveReason(); got != "awaiting council sign-off" {
		t.Errorf("EffectiveReason() = %q", got)
	}
}

func TestCompletionValidate(t *testing.T) {
	dir := t.TempDir()
	photo := writePhoto(t, dir, "after.png", pngMagic, 2048)

	good := Completion{
		Notes:             "Pothole filled and surface compacted.",
		WorkDurationHours: 2.5,
		PhotoPaths:        []string{photo},
		ResolvedConfirmed: true,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid completion rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Completion)
		code   ferrors.Code
	}{
		{"notes 9 chars", func(c *Completion) { c.Notes = strings.Repeat("n", 9) }, ferrors.CodeNotesTooShort},
		{"notes padded short", func(c *Completion) { c.Notes = strings.Repeat("n", 9) + "   " }, ferrors.CodeNotesTooShort},
		{"duration zero", func(c *Completion) { c.WorkDurationHours = 0 }, ferrors.CodeDurationOutOfRange},
		{"duration negative", func(c *Completion) { c.WorkDurationHours = -1 }, ferrors.CodeDurationOutOfRange},
		{"duration over cap", func(c *Completion) { c.WorkDurationHours = 1000.01 }, ferrors.CodeDurationOutOfRange},
		{"checklist unconfirmed", func(c *Completion) { c.ResolvedConfirmed = false }, ferrors.CodeChecklistPending},
		{"no photos", func(c *Completion) { c.PhotoPaths = nil }, ferrors.CodeNoAfterPhotos},
		{"six photos", func(c *Completion) {
			c.PhotoPaths = []string{photo, photo, photo, photo, photo, photo}
		}, ferrors.CodeTooManyPhotos},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := good
			tt.mutate(&c)
			err := c.Validate()
			if err == nil {
				t.Fatal("Validate() succeeded, want error")
			}
			wantCode(t, err, tt.code)
		})
	}

	// Boundary acceptances.
	c := good
	c.Notes = strings.Repeat("n", 10)
	c.WorkDurationHours = 1000
	c.PhotoPaths = []string{photo, photo, photo, photo, photo}
	if err := c.Validate(); err != nil {
		t.Errorf("boundary completion rejected: %v", err)
	}
}

func TestCompletionMinimalSubmission(t *testing.T) {
	dir := t.TempDir()
	photo := writePhoto(t, dir, "after.png", pngMagic, 2048)

	c := Completion{
		Notes:             strings.Repeat("n", 15),
		WorkDurationHours: 2.5,
		PhotoPaths:        []string{photo},
		ResolvedConfirmed: true,
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("15-char notes with one photo rejected: %v", err)
	}
}

func TestValidatePhotoFile(t *testing.T) {
	dir := t.TempDir()

	png := writePhoto(t, dir, "a.png", pngMagic, 600)
	jpeg := writePhoto(t, dir, "b.jpg", jpegMagic, 600)
	webp := writePhoto(t, dir, "c.webp", webpMagic, 600)
	for _, p := range []string{png, jpeg, webp} {
		if err := ValidatePhotoFile(p); err != nil {
			t.Errorf("ValidatePhotoFile(%s) error: %v", filepath.Base(p), err)
		}
	}

	text := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(text, bytes.Repeat([]byte("plain text "), 20), 0644); err != nil {
		t.Fatal(err)
	}
	if err := ValidatePhotoFile(text); err == nil {
		t.Error("text file accepted as photo, want error")
	} else {
		wantCode(t, err, ferrors.CodePhotoType)
	}

	big := writePhoto(t, dir, "big.png", pngMagic, MaxPhotoSizeBytes+1)
	if err := ValidatePhotoFile(big); err == nil {
		t.Error("oversized photo accepted, want error")
	} else {
		wantCode(t, err, ferrors.CodePhotoTooLarge)
	}

	if err := ValidatePhotoFile(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("missing file accepted, want error")
	}
}
