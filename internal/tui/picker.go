// Package tui provides the interactive action picker shown by
// 'fieldops act'. It lists the actions currently permitted on a task,
// lets the officer choose one with the arrow keys, and collects the
// free-text input (rejection reason, progress note, hold reason) the
// chosen action needs.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/civitrack/fieldops/internal/gate"
	"github.com/civitrack/fieldops/internal/task"
)

// Result is what the picker hands back to the caller.
type Result struct {
	Action   task.Action
	Text     string // reason or note, depending on Action
	Canceled bool
}

// Styles contains the picker's visual styling.
type Styles struct {
	Title    lipgloss.Style
	Cursor   lipgloss.Style
	Selected lipgloss.Style
	Subtle   lipgloss.Style
	Error    lipgloss.Style
}

// DefaultStyles returns the default picker styling.
func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).MarginBottom(1),
		Cursor:   lipgloss.NewStyle().Foreground(lipgloss.Color("205")),
		Selected: lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
		Subtle:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

type stage int

const (
	stageChoose stage = iota
	stageInput
	stageDone
)

// labels shown next to each action in the list.
var actionLabels = map[task.Action]string{
	task.ActionAcknowledge:           "acknowledge the assignment",
	task.ActionRejectAssignment:      "decline the assignment",
	task.ActionStartWork:             "start work",
	task.ActionAddUpdate:             "post a progress note",
	task.ActionPutOnHold:             "put on hold",
	task.ActionResumeWork:            "resume work",
	task.ActionSubmitForVerification: "submit for verification",
}

// textPrompt returns the input prompt for actions that need free text,
// or "" for actions that run without input.
func textPrompt(a task.Action) string {
	switch a {
	case task.ActionRejectAssignment:
		return "Why are you declining? (min 10 characters)"
	case task.ActionAddUpdate:
		return "Progress note (min 10 characters)"
	case task.ActionPutOnHold:
		return "Hold reason (min 10 characters)"
	default:
		return ""
	}
}

// Model is the bubbletea model for the action picker.
type Model struct {
	taskID  string
	status  task.Status
	actions []task.Action
	cursor  int
	stage   stage
	input   textinput.Model
	inputEr string
	result  Result
	styles  Styles
}

// NewModel builds a picker for the actions the officer may take on t.
// The caller is expected to have checked that at least one action is
// permitted.
func NewModel(t *task.Task, officerID string) Model {
	ti := textinput.New()
	ti.CharLimit = 500
	ti.Width = 60
	return Model{
		taskID:  t.ID,
		status:  t.Status,
		actions: gate.PermittedFor(t, officerID),
		input:   ti,
		styles:  DefaultStyles(),
	}
}

// Result returns the officer's choice once the program has finished.
func (m Model) Result() Result {
	return m.result
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "esc":
		m.result = Result{Canceled: true}
		m.stage = stageDone
		return m, tea.Quit
	}

	switch m.stage {
	case stageChoose:
		switch key.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.actions)-1 {
				m.cursor++
			}
		case "enter":
			chosen := m.actions[m.cursor]
			if textPrompt(chosen) == "" {
				m.result = Result{Action: chosen}
				m.stage = stageDone
				return m, tea.Quit
			}
			m.stage = stageInput
			m.input.Placeholder = textPrompt(chosen)
			m.input.Focus()
			return m, textinput.Blink
		}
		return m, nil

	case stageInput:
		if key.String() == "enter" {
			chosen := m.actions[m.cursor]
			text := m.input.Value()
			if err := validateText(chosen, text); err != nil {
				m.inputEr = err.Error()
				return m, nil
			}
			m.result = Result{Action: chosen, Text: text}
			m.stage = stageDone
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.inputEr = ""
		return m, cmd
	}
	return m, nil
}

func validateText(a task.Action, text string) error {
	switch a {
	case task.ActionRejectAssignment:
		return task.ValidateRejectionReason(text)
	case task.ActionAddUpdate:
		return task.ValidateUpdateText(text)
	case task.ActionPutOnHold:
		req := task.HoldRequest{Reason: task.HoldReasonOther, CustomReason: text}
		return req.Validate(time.Now())
	}
	return nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.stage == stageDone {
		return ""
	}

	s := m.styles.Title.Render(fmt.Sprintf("%s (%s)", m.taskID, m.status)) + "\n"

	switch m.stage {
	case stageChoose:
		for i, a := range m.actions {
			cursor := "  "
			label := fmt.Sprintf("%-24s %s", a, m.styles.Subtle.Render(actionLabels[a]))
			if i == m.cursor {
				cursor = m.styles.Cursor.Render("> ")
				label = m.styles.Selected.Render(string(a)) + lipgloss.NewStyle().Render(
					fmt.Sprintf("%*s", 24-len(a), "")) + m.styles.Subtle.Render(actionLabels[a])
			}
			s += cursor + label + "\n"
		}
		s += "\n" + m.styles.Subtle.Render("up/down to move, enter to choose, esc to cancel")

	case stageInput:
		s += m.input.View() + "\n"
		if m.inputEr != "" {
			s += m.styles.Error.Render(m.inputEr) + "\n"
		}
		s += m.styles.Subtle.Render("enter to confirm, esc to cancel")
	}
	return s + "\n"
}

// Run shows the picker and blocks until the officer chooses or cancels.
func Run(t *task.Task, officerID string) (Result, error) {
	m := NewModel(t, officerID)
	if len(m.actions) == 0 {
		return Result{}, fmt.Errorf("no actions available on %s in status %s", t.ID, t.Status)
	}
	p := tea.NewProgram(m)
	final, err := p.Run()
	if err != nil {
		return Result{}, fmt.Errorf("action picker: %w", err)
	}
	fm, ok := final.(Model)
	if !ok {
		return Result{Canceled: true}, nil
	}
	return fm.Result(), nil
}
