package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newSyncCmd creates the sync command.
func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Refresh the local snapshot cache from the backend",
		Long: `Fetch all assigned tasks and their timelines, replacing the local
snapshots. Afterwards 'list --cached' and 'show --cached' work offline.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.close()

			tasks, err := s.client.ListAssigned(cmd.Context())
			if err != nil {
				return reportActionError(err)
			}
			for _, t := range tasks {
				if err := s.store.SaveSnapshot(t); err != nil {
					return err
				}
				entries, err := s.client.GetHistory(cmd.Context(), t.ID)
				if err != nil {
					return reportActionError(err)
				}
				if err := s.store.SaveHistory(t.ID, entries); err != nil {
					return err
				}
			}
			if !quiet {
				fmt.Printf("Synced %d task(s).\n", len(tasks))
			}
			return nil
		},
	}
	return cmd
}
