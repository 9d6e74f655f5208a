// Package executor translates a chosen officer action and its form data
// into backend calls.
//
// Every action follows the same discipline: validate locally, issue
// exactly one transition request, then refetch the task so only a
// confirmed backend response replaces local state. No transition is
// ever assumed to have happened from the initiating call alone.
package executor

import (
	"context"
	"log/slog"
	"time"

	"github.com/civitrack/fieldops/internal/api"
	ferrors "github.com/civitrack/fieldops/internal/errors"
	"github.com/civitrack/fieldops/internal/events"
	"github.com/civitrack/fieldops/internal/gate"
	"github.com/civitrack/fieldops/internal/storage"
	"github.com/civitrack/fieldops/internal/task"
)

// Backend is the subset of the API client the executor depends on.
type Backend interface {
	GetTask(ctx context.Context, id string) (*task.Task, error)
	Acknowledge(ctx context.Context, id string) error
	StartWork(ctx context.Context, id string) error
	ResumeWork(ctx context.Context, id string) error
	RejectAssignment(ctx context.Context, id, reason string) error
	PutOnHold(ctx context.Context, id, reason, estimatedResumeDate string) error
	AddUpdate(ctx context.Context, id, text string) error
	SubmitForVerification(ctx context.Context, id, notes string, durationHours float64, materials string) error
	UploadMedia(ctx context.Context, id string, up api.MediaUpload) (*task.Media, error)
}

// Executor runs officer actions against the backend.
type Executor struct {
	backend   Backend
	officerID string
	store     *storage.Store
	pub       events.Publisher
	inflight  *inflightSet
}

// Option configures an Executor.
type Option func(*Executor)

// WithStore caches confirmed snapshots after each refetch.
func WithStore(s *storage.Store) Option {
	return func(e *Executor) { e.store = s }
}

// WithPublisher emits progress events during actions.
func WithPublisher(p events.Publisher) Option {
	return func(e *Executor) { e.pub = p }
}

// New creates an executor acting as the given officer.
func New(backend Backend, officerID string, opts ...Option) *Executor {
	e := &Executor{
		backend:   backend,
		officerID: officerID,
		pub:       events.NopPublisher{},
		inflight:  newInflightSet(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Acknowledge confirms receipt of a newly assigned task.
func (e *Executor) Acknowledge(ctx context.Context, t *task.Task) (*task.Task, error) {
	return e.transition(ctx, t, task.ActionAcknowledge, func(ctx context.Context) error {
		return e.backend.Acknowledge(ctx, t.ID)
	})
}

// StartWork begins work on an acknowledged task.
func (e *Executor) StartWork(ctx context.Context, t *task.Task) (*task.Task, error) {
	return e.transition(ctx, t, task.ActionStartWork, func(ctx context.Context) error {
		return e.backend.StartWork(ctx, t.ID)
	})
}

// ResumeWork resumes a task that was on hold.
func (e *Executor) ResumeWork(ctx context.Context, t *task.Task) (*task.Task, error) {
	return e.transition(ctx, t, task.ActionResumeWork, func(ctx context.Context) error {
		return e.backend.ResumeWork(ctx, t.ID)
	})
}

// RejectAssignment declines a newly assigned task with a reason.
func (e *Executor) RejectAssignment(ctx context.Context, t *task.Task, reason string) (*task.Task, error) {
	if err := task.ValidateRejectionReason(reason); err != nil {
		return nil, err
	}
	return e.transition(ctx, t, task.ActionRejectAssignment, func(ctx context.Context) error {
		return e.backend.RejectAssignment(ctx, t.ID, reason)
	})
}

// AddUpdate posts a progress note. The status does not change, but the
// task is still refetched so any concurrent backend changes surface.
func (e *Executor) AddUpdate(ctx context.Context, t *task.Task, text string) (*task.Task, error) {
	if err := task.ValidateUpdateText(text); err != nil {
		return nil, err
	}
	return e.transition(ctx, t, task.ActionAddUpdate, func(ctx context.Context) error {
		return e.backend.AddUpdate(ctx, t.ID, text)
	})
}

// PutOnHold pauses an in-progress task.
func (e *Executor) PutOnHold(ctx context.Context, t *task.Task, req task.HoldRequest) (*task.Task, error) {
	if err := req.Validate(time.Now()); err != nil {
		return nil, err
	}
	return e.transition(ctx, t, task.ActionPutOnHold, func(ctx context.Context) error {
		return e.backend.PutOnHold(ctx, t.ID, req.EffectiveReason(), req.EstimatedResumeDate)
	})
}

// UploadReport summarizes the photo batch of a verification submission.
type UploadReport struct {
	Uploaded []task.Media
	Failed   []ferrors.UploadFailure
}

// Partial reports whether any upload in the batch failed.
func (r *UploadReport) Partial() bool {
	return len(r.Failed) > 0
}

// SubmitForVerification uploads the after-photos and submits the task
// for admin verification.
//
// Photos are uploaded strictly one at a time, in order, and all uploads
// complete before the verification call is issued: the resolution notes
// reference the uploaded evidence, and sequential uploads avoid backend
// races on the task's media list. A photo that fails to upload does not
// abort the batch; the submission proceeds with the successful subset
// and the shortfall is returned in the UploadReport. Only a batch with
// zero successes is a hard failure.
func (e *Executor) SubmitForVerification(ctx context.Context, t *task.Task, c task.Completion) (*task.Task, *UploadReport, error) {
	if !gate.Allows(t.Status, t.AssignedOfficerID, e.officerID, task.ActionSubmitForVerification) {
		return nil, nil, ferrors.NotPermitted(string(task.ActionSubmitForVerification), string(t.Status))
	}
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	if !e.inflight.acquire(t.ID) {
		return nil, nil, ferrors.InFlight(t.ID)
	}
	defer e.inflight.release(t.ID)

	report := &UploadReport{}
	total := len(c.PhotoPaths)
	for i, path := range c.PhotoPaths {
		if err := ctx.Err(); err != nil {
			return nil, report, err
		}
		e.pub.Publish(events.New(events.EventUploadStarted, t.ID,
			events.UploadProgress{Path: path, Index: i + 1, Total: total}))

		m, err := e.backend.UploadMedia(ctx, t.ID, api.MediaUpload{
			Path:          path,
			Source:        task.SourceOfficerAfterPhoto,
			IsProofOfWork: true,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, report, err
			}
			slog.Warn("photo upload failed", "task", t.ID, "path", path, "error", err)
			report.Failed = append(report.Failed, ferrors.UploadFailure{Path: path, Err: err})
			e.pub.Publish(events.New(events.EventUploadFailed, t.ID,
				events.UploadProgress{Path: path, Index: i + 1, Total: total, Error: err.Error()}))
			continue
		}
		report.Uploaded = append(report.Uploaded, *m)
		e.pub.Publish(events.New(events.EventUploadDone, t.ID,
			events.UploadProgress{Path: path, Index: i + 1, Total: total}))
	}

	if len(report.Uploaded) == 0 {
		partial := &ferrors.PartialUploadError{Failed: report.Failed}
		return nil, report, partial
	}
	if report.Partial() {
		e.pub.Publish(events.New(events.EventPartialUpload, t.ID,
			events.PartialUpload{Succeeded: len(report.Uploaded), Failed: len(report.Failed)}))
	}

	if err := e.backend.SubmitForVerification(ctx, t.ID, c.Notes, c.WorkDurationHours, c.MaterialsUsed); err != nil {
		e.publishFailure(t.ID, task.ActionSubmitForVerification, err)
		return nil, report, err
	}

	confirmed, err := e.confirm(ctx, t, task.ActionSubmitForVerification)
	if err != nil {
		return nil, report, err
	}
	return confirmed, report, nil
}

// transition runs the shared gate/in-flight/call/confirm sequence for
// single-call actions.
func (e *Executor) transition(ctx context.Context, t *task.Task, action task.Action, call func(ctx context.Context) error) (*task.Task, error) {
	if !gate.Allows(t.Status, t.AssignedOfficerID, e.officerID, action) {
		return nil, ferrors.NotPermitted(string(action), string(t.Status))
	}
	if !e.inflight.acquire(t.ID) {
		return nil, ferrors.InFlight(t.ID)
	}
	defer e.inflight.release(t.ID)

	if err := call(ctx); err != nil {
		e.publishFailure(t.ID, action, err)
		return nil, err
	}
	return e.confirm(ctx, t, action)
}

// confirm refetches the task after a successful call, caches the
// confirmed snapshot and publishes the observed transition.
func (e *Executor) confirm(ctx context.Context, prev *task.Task, action task.Action) (*task.Task, error) {
	fetched, err := e.backend.GetTask(ctx, prev.ID)
	if err != nil {
		return nil, err
	}
	if e.store != nil {
		if err := e.store.SaveSnapshot(fetched); err != nil {
			slog.Warn("snapshot cache write failed", "task", fetched.ID, "error", err)
		}
	}
	e.pub.Publish(events.New(events.EventStatusChanged, fetched.ID, events.StatusChange{
		Action: action,
		From:   prev.Status,
		To:     fetched.Status,
	}))
	return fetched, nil
}

func (e *Executor) publishFailure(taskID string, action task.Action, err error) {
	e.pub.Publish(events.New(events.EventActionFailed, taskID, events.ActionFailure{
		Action: action,
		Error:  err.Error(),
	}))
}
