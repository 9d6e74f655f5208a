// Package task defines the officer-facing work item derived from a
// citizen report, together with its status and action enumerations.
package task

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the current state of a task.
//
// The authoritative state machine lives in the backend; this enum is the
// closed set of values the backend may report. Unrecognized values are
// rejected at the API boundary rather than silently displayed.
type Status string

const (
	StatusAssigned            Status = "assigned"
	StatusAcknowledged        Status = "acknowledged"
	StatusInProgress          Status = "in_progress"
	StatusOnHold              Status = "on_hold"
	StatusPendingVerification Status = "pending_verification"
	StatusResolved            Status = "resolved"
	StatusClosed              Status = "closed"
	StatusAssignmentRejected  Status = "assignment_rejected"
	StatusReopened            Status = "reopened"
	StatusRejected            Status = "rejected"
)

// ValidStatuses returns all valid status values.
func ValidStatuses() []Status {
	return []Status{
		StatusAssigned, StatusAcknowledged, StatusInProgress, StatusOnHold,
		StatusPendingVerification, StatusResolved, StatusClosed,
		StatusAssignmentRejected, StatusReopened, StatusRejected,
	}
}

// IsValidStatus returns true if the status is a valid status value.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusAssigned, StatusAcknowledged, StatusInProgress, StatusOnHold,
		StatusPendingVerification, StatusResolved, StatusClosed,
		StatusAssignmentRejected, StatusReopened, StatusRejected:
		return true
	default:
		return false
	}
}

// ParseStatus normalizes a wire status string into a Status.
// Unknown values are an error, never a fall-through default.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !IsValidStatus(s) {
		return "", fmt.Errorf("unknown task status %q", raw)
	}
	return s, nil
}

// IsTerminal returns true if no further officer-initiated transitions
// exist for the status.
func (s Status) IsTerminal() bool {
	return s == StatusResolved || s == StatusClosed || s == StatusRejected
}

// OfficerScoped returns true if the status admits any officer action,
// and therefore requires the "is this my task" identity check.
func (s Status) OfficerScoped() bool {
	switch s {
	case StatusAssigned, StatusAcknowledged, StatusInProgress, StatusOnHold:
		return true
	default:
		return false
	}
}

// Action represents an officer-initiated transition request.
type Action string

const (
	ActionAcknowledge           Action = "acknowledge"
	ActionRejectAssignment      Action = "reject_assignment"
	ActionStartWork             Action = "start_work"
	ActionAddUpdate             Action = "add_update"
	ActionPutOnHold             Action = "put_on_hold"
	ActionResumeWork            Action = "resume_work"
	ActionSubmitForVerification Action = "submit_for_verification"
)

// ValidActions returns all valid action values.
func ValidActions() []Action {
	return []Action{
		ActionAcknowledge, ActionRejectAssignment, ActionStartWork,
		ActionAddUpdate, ActionPutOnHold, ActionResumeWork,
		ActionSubmitForVerification,
	}
}

// IsValidAction returns true if the action is a valid action value.
func IsValidAction(a Action) bool {
	switch a {
	case ActionAcknowledge, ActionRejectAssignment, ActionStartWork,
		ActionAddUpdate, ActionPutOnHold, ActionResumeWork,
		ActionSubmitForVerification:
		return true
	default:
		return false
	}
}

// MediaSource tags where an attachment came from.
type MediaSource string

const (
	// SourceCitizenSubmission is media attached by the reporting citizen.
	SourceCitizenSubmission MediaSource = "citizen_submission"
	// SourceOfficerBeforePhoto is officer evidence taken before work began.
	SourceOfficerBeforePhoto MediaSource = "officer_before_photo"
	// SourceOfficerAfterPhoto is officer proof-of-work evidence.
	SourceOfficerAfterPhoto MediaSource = "officer_after_photo"
)

// ValidMediaSources returns all valid media source values.
func ValidMediaSources() []MediaSource {
	return []MediaSource{SourceCitizenSubmission, SourceOfficerBeforePhoto, SourceOfficerAfterPhoto}
}

// IsValidMediaSource returns true if the source is a valid media source.
func IsValidMediaSource(s MediaSource) bool {
	switch s {
	case SourceCitizenSubmission, SourceOfficerBeforePhoto, SourceOfficerAfterPhoto:
		return true
	default:
		return false
	}
}

// Media represents a single attachment on a task.
type Media struct {
	ID            string      `json:"id"`
	Source        MediaSource `json:"upload_source"`
	URL           string      `json:"url,omitempty"`
	Caption       string      `json:"caption,omitempty"`
	IsProofOfWork bool        `json:"is_proof_of_work,omitempty"`
	UploadedAt    time.Time   `json:"uploaded_at,omitzero"`
}

// Task is the officer work item tied 1:1 to a citizen report.
//
// The client never mutates a Task locally; instances are replaced
// wholesale by confirmed backend fetches.
type Task struct {
	// ID is the unique task identifier.
	ID string `json:"id"`

	// ReportID identifies the parent citizen report. A reopened report
	// supersedes its task with a new one carrying the same report ID.
	ReportID string `json:"report_id"`

	// Title is the short report summary shown in lists.
	Title string `json:"title"`

	// Description is the citizen's full report text.
	Description string `json:"description,omitempty"`

	// Category is the civic issue category (road, water, sanitation, ...).
	Category string `json:"category,omitempty"`

	// Location is the free-text location of the issue.
	Location string `json:"location,omitempty"`

	// Status is the last confirmed backend status.
	Status Status `json:"status"`

	// AssignedOfficerID identifies the responsible officer.
	AssignedOfficerID string `json:"assigned_officer_id"`

	// HoldReason and EstimatedResumeDate are present only while on hold.
	HoldReason          string `json:"hold_reason,omitempty"`
	EstimatedResumeDate string `json:"estimated_resume_date,omitempty"`

	// RejectionReason is present after an assignment rejection.
	RejectionReason string `json:"rejection_reason,omitempty"`

	// Completion fields, populated on submit-for-verification.
	ResolutionNotes   string  `json:"resolution_notes,omitempty"`
	WorkDurationHours float64 `json:"work_duration_hours,omitempty"`
	MaterialsUsed     string  `json:"materials_used,omitempty"`

	// Transition timestamps set by the backend; append-only.
	AssignedAt     time.Time  `json:"assigned_at"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`

	// Media holds all attachments, citizen and officer alike.
	Media []Media `json:"media,omitempty"`
}

// IsMine returns true if the task is assigned to the given officer.
func (t *Task) IsMine(officerID string) bool {
	return officerID != "" && t.AssignedOfficerID == officerID
}

// AfterPhotos returns the proof-of-work attachments.
func (t *Task) AfterPhotos() []Media {
	var out []Media
	for _, m := range t.Media {
		if m.Source == SourceOfficerAfterPhoto {
			out = append(out, m)
		}
	}
	return out
}

// Normalize checks the enumerated fields a backend response may carry.
// A task with an unrecognized status or media source is rejected here
// instead of leaking into display code.
func (t *Task) Normalize() error {
	s, err := ParseStatus(string(t.Status))
	if err != nil {
		return fmt.Errorf("task %s: %w", t.ID, err)
	}
	t.Status = s
	for i, m := range t.Media {
		if !IsValidMediaSource(m.Source) {
			return fmt.Errorf("task %s: media %s has unknown source %q", t.ID, m.ID, m.Source)
		}
		t.Media[i] = m
	}
	return nil
}
