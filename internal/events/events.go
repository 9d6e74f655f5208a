// Package events provides in-process progress events for fieldops.
// The executor publishes them; the CLI subscribes to render progress
// for long operations such as multi-photo uploads.
package events

import (
	"time"

	"github.com/civitrack/fieldops/internal/task"
)

// EventType defines the type of event.
type EventType string

const (
	// EventStatusChanged indicates a confirmed backend status transition.
	EventStatusChanged EventType = "status_changed"
	// EventActionFailed indicates a transition request failed.
	EventActionFailed EventType = "action_failed"
	// EventUploadStarted indicates one photo upload began.
	EventUploadStarted EventType = "upload_started"
	// EventUploadDone indicates one photo upload succeeded.
	EventUploadDone EventType = "upload_done"
	// EventUploadFailed indicates one photo upload failed.
	EventUploadFailed EventType = "upload_failed"
	// EventPartialUpload indicates the batch finished with failures but
	// the submission proceeded with the successful subset.
	EventPartialUpload EventType = "partial_upload"
)

// Event represents a published event.
type Event struct {
	Type   EventType `json:"type"`
	TaskID string    `json:"task_id"`
	Data   any       `json:"data,omitempty"`
	Time   time.Time `json:"time"`
}

// New creates an event with the current timestamp.
func New(t EventType, taskID string, data any) Event {
	return Event{Type: t, TaskID: taskID, Data: data, Time: time.Now()}
}

// StatusChange carries a confirmed transition.
type StatusChange struct {
	Action task.Action `json:"action"`
	From   task.Status `json:"from"`
	To     task.Status `json:"to"`
}

// UploadProgress carries per-photo batch progress.
type UploadProgress struct {
	Path  string `json:"path"`
	Index int    `json:"index"` // 1-based position in the batch
	Total int    `json:"total"`
	Error string `json:"error,omitempty"`
}

// PartialUpload summarizes a batch that lost some photos.
type PartialUpload struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// ActionFailure carries a failed transition request.
type ActionFailure struct {
	Action task.Action `json:"action"`
	Error  string      `json:"error"`
}
