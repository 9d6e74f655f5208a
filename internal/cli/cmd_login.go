package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/civitrack/fieldops/internal/config"
)

// newLoginCmd creates the login command.
func newLoginCmd() *cobra.Command {
	var baseURL string
	var officerID string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Configure backend URL, officer identity and API token",
		Long: `Store the backend connection settings in ~/.fieldops/config.yaml.

The API token is prompted for interactively and never echoed. It can
also be supplied via the FIELDOPS_TOKEN environment variable, in which
case the prompt is skipped.

Example:
  fieldops login --url https://reports.city.example/api/v1 --officer OFF-204`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if baseURL != "" {
				cfg.BaseURL = strings.TrimRight(baseURL, "/")
			}
			if officerID != "" {
				cfg.OfficerID = officerID
			}
			if cfg.BaseURL == "" {
				return fmt.Errorf("backend URL is required (--url)")
			}
			if cfg.OfficerID == "" {
				return fmt.Errorf("officer ID is required (--officer)")
			}

			if env := os.Getenv("FIELDOPS_TOKEN"); env != "" {
				cfg.Token = env
			} else {
				fmt.Print("API token: ")
				raw, err := term.ReadPassword(int(os.Stdin.Fd()))
				fmt.Println()
				if err != nil {
					return fmt.Errorf("read token: %w", err)
				}
				token := strings.TrimSpace(string(raw))
				if token == "" {
					return fmt.Errorf("token must not be empty")
				}
				cfg.Token = token
			}

			path := cfgFile
			if path == "" {
				path, err = config.DefaultPath()
				if err != nil {
					return err
				}
			}
			if err := cfg.Save(path); err != nil {
				return err
			}
			fmt.Printf("Configuration saved to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "url", "", "backend base URL")
	cmd.Flags().StringVar(&officerID, "officer", "", "officer identity")
	return cmd
}
