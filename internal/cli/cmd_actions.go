package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/civitrack/fieldops/internal/task"
)

// runTransition fetches the task, runs one no-payload action through the
// executor and prints the confirmed status.
func runTransition(ctx context.Context, id string, do func(ctx context.Context, s *session, t *task.Task) (*task.Task, error)) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	t, err := s.fetchTask(ctx, id)
	if err != nil {
		return reportActionError(err)
	}
	confirmed, err := do(ctx, s, t)
	if err != nil {
		return reportActionError(err)
	}
	if jsonOut {
		return printJSON(confirmed)
	}
	fmt.Printf("%s: %s -> %s\n", confirmed.ID, renderStatus(t.Status), renderStatus(confirmed.Status))
	return nil
}

// newAckCmd creates the ack command.
func newAckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ack <task-id>",
		Short: "Acknowledge a newly assigned task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(cmd.Context(), args[0], func(ctx context.Context, s *session, t *task.Task) (*task.Task, error) {
				return s.exec.Acknowledge(ctx, t)
			})
		},
	}
}

// newStartCmd creates the start command.
func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <task-id>",
		Short: "Start work on an acknowledged task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(cmd.Context(), args[0], func(ctx context.Context, s *session, t *task.Task) (*task.Task, error) {
				return s.exec.StartWork(ctx, t)
			})
		},
	}
}

// newResumeCmd creates the resume command.
func newResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume <task-id>",
		Short: "Resume work on a task that was on hold",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(cmd.Context(), args[0], func(ctx context.Context, s *session, t *task.Task) (*task.Task, error) {
				return s.exec.ResumeWork(ctx, t)
			})
		},
	}
}
