package cli

import (
	"fmt"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/civitrack/fieldops/internal/task"
)

// newCompleteCmd creates the complete command.
func newCompleteCmd() *cobra.Command {
	var c task.Completion

	cmd := &cobra.Command{
		Use:   "complete <task-id> <photo>...",
		Short: "Submit an in-progress task for verification",
		Long: `Upload after-photos as proof of work and submit the task for admin
verification. Photo arguments may be plain paths or glob patterns
(** is supported), e.g.:

  fieldops complete TASK-7 --notes "Pothole filled and compacted, surface level" \
      --duration 2.5 --resolved 'photos/after/**/*.jpg'

Photos are uploaded one at a time. If some uploads fail the submission
still proceeds with the ones that made it; only a batch where every
upload failed aborts the submission.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := expandPhotoArgs(args[1:])
			if err != nil {
				return err
			}
			c.PhotoPaths = paths

			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.close()

			id := args[0]
			t, err := s.fetchTask(cmd.Context(), id)
			if err != nil {
				return reportActionError(err)
			}

			stop := s.watchProgress(id)
			confirmed, report, err := s.exec.SubmitForVerification(cmd.Context(), t, c)
			stop()
			if err != nil {
				return reportActionError(err)
			}

			if jsonOut {
				return printJSON(confirmed)
			}
			fmt.Printf("%s: %s -> %s\n", confirmed.ID, renderStatus(t.Status), renderStatus(confirmed.Status))
			if report.Partial() {
				fmt.Printf("Submitted with %d of %d photos. Failed uploads:\n",
					len(report.Uploaded), len(report.Uploaded)+len(report.Failed))
				for _, f := range report.Failed {
					fmt.Printf("  %s: %s\n", f.Path, f.Err)
				}
				fmt.Println("Retry the failed photos with 'fieldops complete' once the task is reopened, or attach them via the web console.")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&c.Notes, "notes", "n", "", "resolution notes (min 10 characters)")
	cmd.Flags().Float64VarP(&c.WorkDurationHours, "duration", "d", 0, "hours worked (0 < h <= 1000)")
	cmd.Flags().StringVarP(&c.MaterialsUsed, "materials", "m", "", "materials used (optional)")
	cmd.Flags().BoolVar(&c.ResolvedConfirmed, "resolved", false, "confirm the issue is actually resolved")
	_ = cmd.MarkFlagRequired("notes")
	_ = cmd.MarkFlagRequired("duration")
	return cmd
}

// expandPhotoArgs resolves each argument as a glob pattern, keeping
// literal paths as-is. Matches are deduplicated and kept in a stable
// order so uploads are reproducible.
func expandPhotoArgs(args []string) ([]string, error) {
	seen := make(map[string]struct{})
	var paths []string
	for _, arg := range args {
		matches, err := doublestar.FilepathGlob(arg)
		if err != nil {
			return nil, fmt.Errorf("bad photo pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			// Not a pattern hit; pass the literal path through so the
			// validator can report a useful error for it.
			matches = []string{arg}
		}
		sort.Strings(matches)
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			paths = append(paths, m)
		}
	}
	return paths, nil
}
