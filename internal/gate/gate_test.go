package gate

import (
	"reflect"
	"testing"

	"github.com/civitrack/fieldops/internal/task"
)

const (
	officer = "OFF-204"
	someone = "OFF-999"
)

func TestPermittedTable(t *testing.T) {
	tests := []struct {
		status task.Status
		want   []task.Action
	}{
		{task.StatusAssigned, []task.Action{task.ActionAcknowledge, task.ActionRejectAssignment}},
		{task.StatusAcknowledged, []task.Action{task.ActionStartWork, task.ActionAddUpdate}},
		{task.StatusInProgress, []task.Action{task.ActionAddUpdate, task.ActionSubmitForVerification, task.ActionPutOnHold}},
		{task.StatusOnHold, []task.Action{task.ActionResumeWork}},
		{task.StatusPendingVerification, nil},
		{task.StatusResolved, nil},
		{task.StatusClosed, nil},
		{task.StatusAssignmentRejected, nil},
		{task.StatusReopened, nil},
		{task.StatusRejected, nil},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			got := Permitted(tt.status, officer, officer)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Permitted(%s) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestPermittedIdentityCheck(t *testing.T) {
	for _, s := range task.ValidStatuses() {
		if got := Permitted(s, officer, someone); len(got) != 0 {
			t.Errorf("Permitted(%s) for non-assigned user = %v, want empty", s, got)
		}
		if got := Permitted(s, "", ""); len(got) != 0 {
			t.Errorf("Permitted(%s) with empty IDs = %v, want empty", s, got)
		}
		if got := Permitted(s, officer, ""); len(got) != 0 {
			t.Errorf("Permitted(%s) with empty user = %v, want empty", s, got)
		}
	}
}

func TestPermittedIsPure(t *testing.T) {
	first := Permitted(task.StatusInProgress, officer, officer)
	for i := 0; i < 3; i++ {
		again := Permitted(task.StatusInProgress, officer, officer)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("call %d returned %v, first returned %v", i, again, first)
		}
	}
}

func TestAllows(t *testing.T) {
	if !Allows(task.StatusAssigned, officer, officer, task.ActionAcknowledge) {
		t.Error("acknowledge not allowed on assigned task")
	}
	if Allows(task.StatusAssigned, officer, officer, task.ActionStartWork) {
		t.Error("start_work allowed on assigned task")
	}
	if Allows(task.StatusInProgress, officer, someone, task.ActionAddUpdate) {
		t.Error("add_update allowed for non-assigned user")
	}
}

func TestPermittedFor(t *testing.T) {
	if got := PermittedFor(nil, officer); got != nil {
		t.Errorf("PermittedFor(nil) = %v, want nil", got)
	}
	tk := &task.Task{Status: task.StatusOnHold, AssignedOfficerID: officer}
	want := []task.Action{task.ActionResumeWork}
	if got := PermittedFor(tk, officer); !reflect.DeepEqual(got, want) {
		t.Errorf("PermittedFor = %v, want %v", got, want)
	}
}
