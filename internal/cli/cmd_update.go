package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/civitrack/fieldops/internal/task"
)

// newUpdateCmd creates the update command.
func newUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <task-id> <text>...",
		Short: "Post a progress note on a task",
		Long: `Post a progress note visible to the reporter and dispatcher. The
task status does not change. Notes must be at least 10 characters.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args[1:], " ")
			return runTransition(cmd.Context(), args[0], func(ctx context.Context, s *session, t *task.Task) (*task.Task, error) {
				return s.exec.AddUpdate(ctx, t, text)
			})
		},
	}
	return cmd
}
