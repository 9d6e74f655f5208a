// Package gate computes which officer actions are currently permitted
// for a task.
//
// The true state machine is owned by the backend; this gate is a pure
// projection of its legal-transition set. It performs no I/O, holds no
// state, and must stay deterministic so the permitted-action table can
// be unit tested without a network.
package gate

import "github.com/civitrack/fieldops/internal/task"

// Permitted returns the set of actions the given user may request for a
// task in the given status.
//
// For every officer-scoped status the actor must be the assigned
// officer; anyone else gets the empty set. Statuses with no officer
// actions (pending verification, terminal states, rejected assignments,
// reopened) always return the empty set.
func Permitted(status task.Status, assignedOfficerID, userID string) []task.Action {
	if !status.OfficerScoped() {
		return nil
	}
	if assignedOfficerID == "" || assignedOfficerID != userID {
		return nil
	}

	switch status {
	case task.StatusAssigned:
		return []task.Action{task.ActionAcknowledge, task.ActionRejectAssignment}
	case task.StatusAcknowledged:
		// Progress updates are allowed from acknowledgment onward, not
		// only once work has started.
		return []task.Action{task.ActionStartWork, task.ActionAddUpdate}
	case task.StatusInProgress:
		return []task.Action{
			task.ActionAddUpdate,
			task.ActionSubmitForVerification,
			task.ActionPutOnHold,
		}
	case task.StatusOnHold:
		return []task.Action{task.ActionResumeWork}
	default:
		return nil
	}
}

// Allows reports whether a single action is permitted.
func Allows(status task.Status, assignedOfficerID, userID string, action task.Action) bool {
	for _, a := range Permitted(status, assignedOfficerID, userID) {
		if a == action {
			return true
		}
	}
	return false
}

// PermittedFor is a convenience wrapper over a fetched task.
func PermittedFor(t *task.Task, userID string) []task.Action {
	if t == nil {
		return nil
	}
	return Permitted(t.Status, t.AssignedOfficerID, userID)
}
