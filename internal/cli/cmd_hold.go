package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/civitrack/fieldops/internal/task"
)

// newHoldCmd creates the hold command.
func newHoldCmd() *cobra.Command {
	var req task.HoldRequest

	cmd := &cobra.Command{
		Use:   "hold <task-id>",
		Short: "Put an in-progress task on hold",
		Long: `Pause work on a task, recording why. Valid reasons:

  ` + strings.Join(task.HoldReasons, "\n  ") + `

With --reason other a free-text --custom reason of at least 10
characters is required. An optional --resume-date (YYYY-MM-DD, today or
later) tells the dispatcher when work is expected to continue.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(cmd.Context(), args[0], func(ctx context.Context, s *session, t *task.Task) (*task.Task, error) {
				return s.exec.PutOnHold(ctx, t, req)
			})
		},
	}

	cmd.Flags().StringVarP(&req.Reason, "reason", "r", "", "hold reason category")
	cmd.Flags().StringVar(&req.CustomReason, "custom", "", "free-text reason when --reason other")
	cmd.Flags().StringVar(&req.EstimatedResumeDate, "resume-date", "", "estimated resume date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}
