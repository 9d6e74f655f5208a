// Package errors provides classified error types for fieldops.
//
// Every failure an action can produce falls into one of four kinds:
// validation (caught locally, never sent to the server), network (the
// request never completed), server (the backend rejected the request),
// and partial (a batch upload succeeded for only some items).
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies how an error should be handled and displayed.
type Kind string

const (
	// KindValidation marks input errors detected before any network call.
	KindValidation Kind = "validation"
	// KindNetwork marks requests that never reached the server or got no response.
	KindNetwork Kind = "network"
	// KindServer marks 4xx/5xx responses carrying a detail payload.
	KindServer Kind = "server"
	// KindPartial marks batch operations that succeeded for a subset of items.
	KindPartial Kind = "partial"
)

// Code represents a unique error code.
type Code string

const (
	// Validation codes
	CodeReasonTooShort     Code = "REASON_TOO_SHORT"
	CodeUpdateTooShort     Code = "UPDATE_TOO_SHORT"
	CodeNotesTooShort      Code = "NOTES_TOO_SHORT"
	CodeDurationOutOfRange Code = "DURATION_OUT_OF_RANGE"
	CodeNoAfterPhotos      Code = "NO_AFTER_PHOTOS"
	CodeTooManyPhotos      Code = "TOO_MANY_PHOTOS"
	CodePhotoType          Code = "PHOTO_TYPE_UNSUPPORTED"
	CodePhotoTooLarge      Code = "PHOTO_TOO_LARGE"
	CodeChecklistPending   Code = "CHECKLIST_NOT_CONFIRMED"
	CodeHoldReasonInvalid  Code = "HOLD_REASON_INVALID"
	CodeResumeDateInvalid  Code = "RESUME_DATE_INVALID"
	CodeResumeDateInPast   Code = "RESUME_DATE_IN_PAST"

	// Gate / executor codes
	CodeActionNotPermitted Code = "ACTION_NOT_PERMITTED"
	CodeActionInFlight     Code = "ACTION_IN_FLIGHT"

	// Transport codes
	CodeUnreachable    Code = "BACKEND_UNREACHABLE"
	CodeServerRejected Code = "SERVER_REJECTED"
	CodeBadResponse    Code = "BAD_RESPONSE"
)

// Error is the structured error type for fieldops.
type Error struct {
	Code Code `json:"code"`
	Kind Kind `json:"kind"`
	// What is the short human-readable message shown to the officer.
	What string `json:"what"`
	// Detail carries the server's normalized detail string, if any.
	Detail string `json:"detail,omitempty"`
	// HTTPStatus is the response status for server-rejected errors.
	HTTPStatus int   `json:"http_status,omitempty"`
	Cause      error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.What)
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Validation builds a client-detected input error.
func Validation(code Code, what string) *Error {
	return &Error{Code: code, Kind: KindValidation, What: what}
}

// Validationf builds a client-detected input error with formatting.
func Validationf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Kind: KindValidation, What: fmt.Sprintf(format, args...)}
}

// Network wraps a transport-level failure (no server response).
func Network(what string, cause error) *Error {
	return &Error{Code: CodeUnreachable, Kind: KindNetwork, What: what, Cause: cause}
}

// ServerRejected wraps a 4xx/5xx response with its normalized detail.
// The server's business rules are authoritative; its rejections need not
// mirror client-side validation.
func ServerRejected(httpStatus int, detail string) *Error {
	return &Error{
		Code:       CodeServerRejected,
		Kind:       KindServer,
		What:       fmt.Sprintf("server rejected the request (HTTP %d)", httpStatus),
		Detail:     detail,
		HTTPStatus: httpStatus,
	}
}

// BadResponse wraps a response the client could not interpret.
func BadResponse(what string, cause error) *Error {
	return &Error{Code: CodeBadResponse, Kind: KindServer, What: what, Cause: cause}
}

// NotPermitted builds the gate-refusal error for an action.
func NotPermitted(action, status string) *Error {
	return &Error{
		Code: CodeActionNotPermitted,
		Kind: KindValidation,
		What: fmt.Sprintf("action %s is not permitted while the task is %s", action, status),
	}
}

// InFlight builds the duplicate-submission guard error.
func InFlight(taskID string) *Error {
	return &Error{
		Code: CodeActionInFlight,
		Kind: KindValidation,
		What: fmt.Sprintf("another action for task %s is already in flight", taskID),
	}
}

// UploadFailure records one failed item of a batch upload.
type UploadFailure struct {
	Path string
	Err  error
}

// PartialUploadError reports a batch photo upload where some items
// succeeded and some failed. It is informational when at least one item
// succeeded (the executor proceeds with the subset) and fatal when none
// did.
type PartialUploadError struct {
	Succeeded []string
	Failed    []UploadFailure
}

// Error implements the error interface.
func (e *PartialUploadError) Error() string {
	total := len(e.Succeeded) + len(e.Failed)
	return fmt.Sprintf("uploaded %d of %d photos", len(e.Succeeded), total)
}

// AllFailed returns true if no upload in the batch succeeded.
func (e *PartialUploadError) AllFailed() bool {
	return len(e.Succeeded) == 0
}

// KindOf classifies an arbitrary error. Unclassified errors are treated
// as network failures, the conservative default for display.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var pe *PartialUploadError
	if errors.As(err, &pe) {
		return KindPartial
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindNetwork
}

// IsValidation reports whether the error was detected client-side.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// As is a convenience wrapper for errors.As.
func As(err error, target any) bool { return errors.As(err, target) }
