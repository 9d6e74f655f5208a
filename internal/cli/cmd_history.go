package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newHistoryCmd creates the history command.
func newHistoryCmd() *cobra.Command {
	var cached bool

	cmd := &cobra.Command{
		Use:   "history <task-id>",
		Short: "Show the status-change timeline for a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.close()

			id := args[0]
			entries, err := s.store.LoadHistory(id)
			if !cached {
				fetched, ferr := s.client.GetHistory(cmd.Context(), id)
				if ferr != nil {
					return reportActionError(ferr)
				}
				entries = fetched
				if serr := s.store.SaveHistory(id, fetched); serr != nil {
					return serr
				}
			} else if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(entries)
			}
			if len(entries) == 0 {
				fmt.Println("No history recorded.")
				return nil
			}
			for _, e := range entries {
				line := fmt.Sprintf("%s  %s", e.CreatedAt.Local().Format("2006-01-02 15:04"), renderStatus(e.Status))
				if e.ChangedBy != "" {
					line += "  by " + e.ChangedBy
				}
				if e.Note != "" {
					line += "  " + e.Note
				}
				fmt.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&cached, "cached", false, "show the cached timeline without contacting the backend")
	return cmd
}
