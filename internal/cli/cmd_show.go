package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newShowCmd creates the show command.
func newShowCmd() *cobra.Command {
	var cached bool

	cmd := &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show task details and permitted actions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.close()

			id := args[0]
			if cached {
				snap, err := s.store.LoadSnapshot(id)
				if err != nil {
					return err
				}
				if snap == nil {
					return fmt.Errorf("no cached snapshot for %s; run 'fieldops sync' while connected", id)
				}
				if jsonOut {
					return printJSON(snap)
				}
				printTask(snap, s.cfg.OfficerID)
				return nil
			}

			t, err := s.fetchTask(cmd.Context(), id)
			if err != nil {
				return reportActionError(err)
			}
			if jsonOut {
				return printJSON(t)
			}
			printTask(t, s.cfg.OfficerID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&cached, "cached", false, "show the cached snapshot without contacting the backend")
	return cmd
}
