// Package cli implements the fieldops command-line interface.
// This file contains shared helpers used across commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/civitrack/fieldops/internal/api"
	"github.com/civitrack/fieldops/internal/config"
	"github.com/civitrack/fieldops/internal/errors"
	"github.com/civitrack/fieldops/internal/events"
	"github.com/civitrack/fieldops/internal/executor"
	"github.com/civitrack/fieldops/internal/gate"
	"github.com/civitrack/fieldops/internal/storage"
	"github.com/civitrack/fieldops/internal/task"
)

// session bundles the dependencies a remote command needs.
type session struct {
	cfg    *config.Config
	client *api.Client
	store  *storage.Store
	exec   *executor.Executor
	pub    *events.MemoryPublisher
}

// openSession builds the client, cache and executor from config.
// Callers must defer close.
func openSession() (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := api.NewClient(api.ClientConfig{
		BaseURL: cfg.BaseURL,
		Token:   cfg.Token,
		Timeout: cfg.Timeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("create backend client: %w", err)
	}

	cachePath, err := cfg.DefaultCachePath()
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(cachePath)
	if err != nil {
		return nil, fmt.Errorf("open snapshot cache: %w", err)
	}

	pub := events.NewMemoryPublisher()
	exec := executor.New(client, cfg.OfficerID,
		executor.WithStore(store),
		executor.WithPublisher(pub),
	)

	return &session{cfg: cfg, client: client, store: store, exec: exec, pub: pub}, nil
}

func (s *session) close() {
	s.pub.Close()
	_ = s.store.Close()
}

// fetchTask loads the authoritative task state through the cache.
func (s *session) fetchTask(ctx context.Context, id string) (*task.Task, error) {
	return s.store.Refresh(ctx, id, s.client.GetTask)
}

// watchProgress prints upload progress events for a task until the
// returned stop function is called.
func (s *session) watchProgress(taskID string) (stop func()) {
	if quiet || jsonOut {
		return func() {}
	}
	ch := s.pub.Subscribe(taskID)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range ch {
			switch ev.Type {
			case events.EventUploadStarted:
				if p, ok := ev.Data.(events.UploadProgress); ok {
					fmt.Printf("Uploading photo %d/%d: %s\n", p.Index, p.Total, p.Path)
				}
			case events.EventUploadFailed:
				if p, ok := ev.Data.(events.UploadProgress); ok {
					fmt.Printf("  upload failed: %s\n", p.Error)
				}
			case events.EventPartialUpload:
				if p, ok := ev.Data.(events.PartialUpload); ok {
					fmt.Printf("Proceeding with %d of %d photos\n", p.Succeeded, p.Succeeded+p.Failed)
				}
			}
		}
	}()
	return func() {
		s.pub.Unsubscribe(taskID, ch)
		<-done
	}
}

// useColor reports whether styled output should be emitted.
func useColor() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) && os.Getenv("NO_COLOR") == ""
}

var statusColors = map[task.Status]lipgloss.Color{
	task.StatusAssigned:            lipgloss.Color("12"),  // blue
	task.StatusAcknowledged:        lipgloss.Color("14"),  // cyan
	task.StatusInProgress:          lipgloss.Color("11"),  // yellow
	task.StatusOnHold:              lipgloss.Color("208"), // orange
	task.StatusPendingVerification: lipgloss.Color("13"),  // magenta
	task.StatusResolved:            lipgloss.Color("10"),  // green
	task.StatusClosed:              lipgloss.Color("8"),   // gray
	task.StatusAssignmentRejected:  lipgloss.Color("9"),   // red
	task.StatusReopened:            lipgloss.Color("12"),
	task.StatusRejected:            lipgloss.Color("9"),
}

// renderStatus returns the status, colored when stdout is a terminal.
func renderStatus(s task.Status) string {
	if !useColor() {
		return string(s)
	}
	c, ok := statusColors[s]
	if !ok {
		return string(s)
	}
	return lipgloss.NewStyle().Foreground(c).Render(string(s))
}

// printTask renders one task with its permitted actions.
func printTask(t *task.Task, officerID string) {
	bold := lipgloss.NewStyle().Bold(true)
	title := t.ID
	if useColor() {
		title = bold.Render(t.ID)
	}
	fmt.Printf("%s  %s\n", title, t.Title)
	fmt.Printf("  Status:   %s\n", renderStatus(t.Status))
	fmt.Printf("  Report:   %s\n", t.ReportID)
	if t.Category != "" {
		fmt.Printf("  Category: %s\n", t.Category)
	}
	if t.Location != "" {
		fmt.Printf("  Location: %s\n", t.Location)
	}
	if t.Status == task.StatusOnHold {
		fmt.Printf("  On hold:  %s", t.HoldReason)
		if t.EstimatedResumeDate != "" {
			fmt.Printf(" (resuming %s)", t.EstimatedResumeDate)
		}
		fmt.Println()
	}
	if t.RejectionReason != "" {
		fmt.Printf("  Rejected: %s\n", t.RejectionReason)
	}
	if n := len(t.AfterPhotos()); n > 0 {
		fmt.Printf("  Proof:    %d after-photo(s)\n", n)
	}

	actions := gate.PermittedFor(t, officerID)
	if len(actions) > 0 {
		names := make([]string, len(actions))
		for i, a := range actions {
			names[i] = string(a)
		}
		fmt.Printf("  Actions:  %s\n", strings.Join(names, ", "))
	}
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// reportActionError prints a classified error the way the officer
// should see it: validation problems are local, network problems point
// at connectivity, server rejections show the backend's words.
func reportActionError(err error) error {
	switch errors.KindOf(err) {
	case errors.KindValidation:
		return fmt.Errorf("invalid input: %w", err)
	case errors.KindNetwork:
		return fmt.Errorf("%w (the action was not confirmed; retry when connected)", err)
	case errors.KindPartial:
		return fmt.Errorf("photo uploads failed: %w", err)
	default:
		return err
	}
}
