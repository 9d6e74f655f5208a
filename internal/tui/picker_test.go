package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/civitrack/fieldops/internal/task"
)

const officer = "OFF-204"

func assignedTask() *task.Task {
	return &task.Task{
		ID:                "RPT-1042",
		Title:             "Pothole on Elm Street",
		Status:            task.StatusAssigned,
		AssignedOfficerID: officer,
	}
}

func key(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return nm
}

func TestPickerListsPermittedActions(t *testing.T) {
	m := NewModel(assignedTask(), officer)
	if len(m.actions) != 2 {
		t.Fatalf("actions = %v", m.actions)
	}
	if m.actions[0] != task.ActionAcknowledge || m.actions[1] != task.ActionRejectAssignment {
		t.Errorf("actions = %v", m.actions)
	}

	stranger := NewModel(assignedTask(), "OFF-999")
	if len(stranger.actions) != 0 {
		t.Errorf("non-assigned user sees actions: %v", stranger.actions)
	}
}

func TestPickerSelectsInputlessAction(t *testing.T) {
	m := NewModel(assignedTask(), officer)
	m = step(t, m, key(tea.KeyEnter))

	res := m.Result()
	if res.Canceled {
		t.Fatal("result canceled")
	}
	if res.Action != task.ActionAcknowledge {
		t.Errorf("Action = %s", res.Action)
	}
	if res.Text != "" {
		t.Errorf("Text = %q", res.Text)
	}
}

func TestPickerCollectsReasonText(t *testing.T) {
	m := NewModel(assignedTask(), officer)
	m = step(t, m, key(tea.KeyDown)) // move to reject_assignment
	m = step(t, m, key(tea.KeyEnter))
	if m.stage != stageInput {
		t.Fatalf("stage = %d, want input", m.stage)
	}

	// Too short: stays in input with an error shown.
	m = step(t, m, runes("busy"))
	m = step(t, m, key(tea.KeyEnter))
	if m.stage != stageInput {
		t.Fatal("short reason advanced past input stage")
	}
	if m.inputEr == "" {
		t.Error("no validation message for short reason")
	}

	m = step(t, m, runes(" with the flood response team"))
	m = step(t, m, key(tea.KeyEnter))

	res := m.Result()
	if res.Action != task.ActionRejectAssignment {
		t.Errorf("Action = %s", res.Action)
	}
	if res.Text != "busy with the flood response team" {
		t.Errorf("Text = %q", res.Text)
	}
}

func TestPickerCancel(t *testing.T) {
	m := NewModel(assignedTask(), officer)
	m = step(t, m, key(tea.KeyEsc))
	if !m.Result().Canceled {
		t.Error("esc did not cancel")
	}
}

func TestPickerCursorBounds(t *testing.T) {
	m := NewModel(assignedTask(), officer)
	m = step(t, m, key(tea.KeyUp))
	if m.cursor != 0 {
		t.Errorf("cursor = %d after up at top", m.cursor)
	}
	m = step(t, m, key(tea.KeyDown))
	m = step(t, m, key(tea.KeyDown))
	m = step(t, m, key(tea.KeyDown))
	if m.cursor != 1 {
		t.Errorf("cursor = %d after down at bottom", m.cursor)
	}
}

func TestRunRefusesEmptyActionSet(t *testing.T) {
	done := &task.Task{ID: "RPT-1", Status: task.StatusResolved, AssignedOfficerID: officer}
	if _, err := Run(done, officer); err == nil {
		t.Error("Run on terminal task succeeded, want error")
	}
}
