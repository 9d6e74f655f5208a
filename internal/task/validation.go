package task

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	ferrors "github.com/civitrack/fieldops/internal/errors"
)

// Client-side validation limits. The backend is the final validator;
// these exist so obviously-bad input never costs a network round trip.
const (
	// MinReasonLen applies to rejection reasons and custom hold reasons.
	MinReasonLen = 10
	// MinUpdateLen applies to progress update text.
	MinUpdateLen = 10
	// MinCompletionNotesLen applies to resolution notes.
	MinCompletionNotesLen = 10
	// MaxWorkDurationHours caps the reported work duration.
	MaxWorkDurationHours = 1000
	// MinPhotoCount and MaxPhotoCount bound the after-photo batch.
	MinPhotoCount = 1
	MaxPhotoCount = 5
	// MaxPhotoSizeBytes caps a single photo upload (10 MB).
	MaxPhotoSizeBytes = 10 << 20
)

// HoldReasonOther selects a free-text hold reason.
const HoldReasonOther = "other"

// HoldReasons is the fixed list of selectable hold reasons.
var HoldReasons = []string{
	"awaiting_materials",
	"awaiting_approval",
	"weather_conditions",
	"equipment_failure",
	HoldReasonOther,
}

// resumeDateLayout is the wire format for estimated_resume_date.
const resumeDateLayout = "2006-01-02"

// allowedPhotoTypes are the MIME types accepted for proof-of-work photos.
var allowedPhotoTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// ValidateRejectionReason checks an assignment rejection reason.
func ValidateRejectionReason(reason string) error {
	if len(strings.TrimSpace(reason)) < MinReasonLen {
		return ferrors.Validationf(ferrors.CodeReasonTooShort,
			"rejection reason must be at least %d characters", MinReasonLen)
	}
	return nil
}

// ValidateUpdateText checks a progress update.
func ValidateUpdateText(text string) error {
	if len(strings.TrimSpace(text)) < MinUpdateLen {
		return ferrors.Validationf(ferrors.CodeUpdateTooShort,
			"update text must be at least %d characters", MinUpdateLen)
	}
	return nil
}

// HoldRequest carries the put-on-hold form data.
type HoldRequest struct {
	// Reason is one of HoldReasons.
	Reason string
	// CustomReason is required when Reason is HoldReasonOther.
	CustomReason string
	// EstimatedResumeDate is optional, format YYYY-MM-DD, not in the past.
	EstimatedResumeDate string
}

// EffectiveReason returns the reason string sent to the backend.
func (h HoldRequest) EffectiveReason() string {
	if h.Reason == HoldReasonOther {
		return strings.TrimSpace(h.CustomReason)
	}
	return h.Reason
}

// Validate checks the hold request against the client-side rules.
// now anchors the resume-date-in-past check.
func (h HoldRequest) Validate(now time.Time) error {
	valid := false
	for _, r := range HoldReasons {
		if h.Reason == r {
			valid = true
			break
		}
	}
	if !valid {
		return ferrors.Validationf(ferrors.CodeHoldReasonInvalid,
			"hold reason must be one of: %s", strings.Join(HoldReasons, ", "))
	}
	if h.Reason == HoldReasonOther && len(strings.TrimSpace(h.CustomReason)) < MinReasonLen {
		return ferrors.Validationf(ferrors.CodeReasonTooShort,
			"custom hold reason must be at least %d characters", MinReasonLen)
	}
	if h.EstimatedResumeDate != "" {
		d, err := time.Parse(resumeDateLayout, h.EstimatedResumeDate)
		if err != nil {
			return ferrors.Validationf(ferrors.CodeResumeDateInvalid,
				"estimated resume date must be YYYY-MM-DD, got %q", h.EstimatedResumeDate)
		}
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		if d.Before(today) {
			return ferrors.Validation(ferrors.CodeResumeDateInPast,
				"estimated resume date must not be in the past")
		}
	}
	return nil
}

// Completion carries the submit-for-verification form data.
type Completion struct {
	Notes             string
	WorkDurationHours float64
	MaterialsUsed     string
	// PhotoPaths are local files to upload as officer_after_photo.
	PhotoPaths []string
	// ResolvedConfirmed is the "issue is resolved" checklist item.
	ResolvedConfirmed bool
}

// Validate checks the completion form, including each photo file.
// All checks run locally; a failing completion never reaches the network.
func (c Completion) Validate() error {
	if len(strings.TrimSpace(c.Notes)) < MinCompletionNotesLen {
		return ferrors.Validationf(ferrors.CodeNotesTooShort,
			"resolution notes must be at least %d characters", MinCompletionNotesLen)
	}
	if c.WorkDurationHours <= 0 || c.WorkDurationHours > MaxWorkDurationHours {
		return ferrors.Validationf(ferrors.CodeDurationOutOfRange,
			"work duration must be greater than 0 and at most %d hours, got %g",
			MaxWorkDurationHours, c.WorkDurationHours)
	}
	if !c.ResolvedConfirmed {
		return ferrors.Validation(ferrors.CodeChecklistPending,
			"confirm the issue is resolved before submitting")
	}
	if len(c.PhotoPaths) < MinPhotoCount {
		return ferrors.Validation(ferrors.CodeNoAfterPhotos,
			"at least one after-photo is required as proof of work")
	}
	if len(c.PhotoPaths) > MaxPhotoCount {
		return ferrors.Validationf(ferrors.CodeTooManyPhotos,
			"at most %d after-photos may be attached, got %d", MaxPhotoCount, len(c.PhotoPaths))
	}
	for _, p := range c.PhotoPaths {
		if err := ValidatePhotoFile(p); err != nil {
			return err
		}
	}
	return nil
}

// ValidatePhotoFile checks one local photo for size and MIME type.
func ValidatePhotoFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return ferrors.Validationf(ferrors.CodePhotoType, "cannot read photo %s: %v", path, err)
	}
	if info.Size() > MaxPhotoSizeBytes {
		return ferrors.Validationf(ferrors.CodePhotoTooLarge,
			"photo %s is %.1f MB, the limit is %d MB",
			filepath.Base(path), float64(info.Size())/(1<<20), MaxPhotoSizeBytes>>20)
	}
	mime, err := sniffMIME(path)
	if err != nil {
		return ferrors.Validationf(ferrors.CodePhotoType, "cannot read photo %s: %v", path, err)
	}
	if !allowedPhotoTypes[mime] {
		return ferrors.Validationf(ferrors.CodePhotoType,
			"photo %s has unsupported type %s (jpeg, png and webp are accepted)",
			filepath.Base(path), mime)
	}
	return nil
}

// sniffMIME detects the content type from the first 512 bytes.
func sniffMIME(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if n == 0 && err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	mime := http.DetectContentType(buf[:n])
	// DetectContentType appends parameters for text types only; image
	// results come back bare.
	return mime, nil
}
