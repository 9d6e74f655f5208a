package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/civitrack/fieldops/internal/task"
	"github.com/civitrack/fieldops/internal/tui"
)

// newActCmd creates the act command.
func newActCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "act <task-id>",
		Short: "Pick and run an action on a task interactively",
		Long: `Show the actions currently permitted on a task and run the chosen
one, prompting for a reason or note where the action needs it.

Submitting for verification requires photos and completion details, so
the picker points at 'fieldops complete' for that action instead of
running it inline.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.close()

			ctx := cmd.Context()
			t, err := s.fetchTask(ctx, args[0])
			if err != nil {
				return reportActionError(err)
			}

			res, err := tui.Run(t, s.cfg.OfficerID)
			if err != nil {
				return err
			}
			if res.Canceled {
				fmt.Println("Canceled.")
				return nil
			}

			var confirmed *task.Task
			switch res.Action {
			case task.ActionAcknowledge:
				confirmed, err = s.exec.Acknowledge(ctx, t)
			case task.ActionStartWork:
				confirmed, err = s.exec.StartWork(ctx, t)
			case task.ActionResumeWork:
				confirmed, err = s.exec.ResumeWork(ctx, t)
			case task.ActionRejectAssignment:
				confirmed, err = s.exec.RejectAssignment(ctx, t, res.Text)
			case task.ActionAddUpdate:
				confirmed, err = s.exec.AddUpdate(ctx, t, res.Text)
			case task.ActionPutOnHold:
				confirmed, err = s.exec.PutOnHold(ctx, t, task.HoldRequest{
					Reason:       task.HoldReasonOther,
					CustomReason: res.Text,
				})
			case task.ActionSubmitForVerification:
				fmt.Printf("Submission needs photos and completion details; run:\n\n  fieldops complete %s --notes \"...\" --duration <hours> --resolved <photos>...\n", t.ID)
				return nil
			default:
				return fmt.Errorf("unhandled action %q", res.Action)
			}
			if err != nil {
				return reportActionError(err)
			}
			fmt.Printf("%s: %s -> %s\n", confirmed.ID, renderStatus(t.Status), renderStatus(confirmed.Status))
			return nil
		},
	}
	return cmd
}
