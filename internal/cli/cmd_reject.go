package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/civitrack/fieldops/internal/task"
)

// newRejectCmd creates the reject command.
func newRejectCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "reject <task-id>",
		Short: "Decline a newly assigned task",
		Long: `Decline an assignment you cannot take on. A reason of at least 10
characters is required; it goes back to the dispatcher who assigned the
task.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(cmd.Context(), args[0], func(ctx context.Context, s *session, t *task.Task) (*task.Task, error) {
				return s.exec.RejectAssignment(ctx, t, reason)
			})
		},
	}

	cmd.Flags().StringVarP(&reason, "reason", "r", "", "why the assignment is declined (min 10 characters)")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}
