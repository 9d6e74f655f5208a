package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/civitrack/fieldops/internal/task"
)

// newListCmd creates the list command.
func newListCmd() *cobra.Command {
	var cached bool
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your assigned tasks",
		Long: `List the tasks currently assigned to you.

By default the list is fetched from the backend and the snapshot cache
is refreshed. With --cached the last confirmed snapshots are shown
without a network call, which works offline.

Terminal tasks (resolved, closed, rejected) are hidden unless --all is
given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.close()

			var tasks []*task.Task
			if cached {
				tasks, err = s.store.LoadAll()
			} else {
				tasks, err = s.client.ListAssigned(cmd.Context())
				if err == nil {
					for _, t := range tasks {
						if serr := s.store.SaveSnapshot(t); serr != nil {
							return serr
						}
					}
				}
			}
			if err != nil {
				return reportActionError(err)
			}

			if !all {
				var open []*task.Task
				for _, t := range tasks {
					if !t.Status.IsTerminal() {
						open = append(open, t)
					}
				}
				tasks = open
			}

			if jsonOut {
				return printJSON(tasks)
			}
			if len(tasks) == 0 {
				fmt.Println("No assigned tasks.")
				return nil
			}
			for _, t := range tasks {
				fmt.Printf("%-10s  %-22s  %s\n", t.ID, renderStatus(t.Status), t.Title)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&cached, "cached", false, "show cached snapshots without contacting the backend")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include terminal tasks")
	return cmd
}
