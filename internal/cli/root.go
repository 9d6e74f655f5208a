// Package cli implements the fieldops command-line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	quiet   bool
	jsonOut bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fieldops",
	Short: "Field officer client for the civic-issue reporting backend",
	Long: `fieldops is the field officer's client for the civic-issue
reporting system. It shows the tasks assigned to you and drives their
lifecycle: acknowledge, start work, post updates, hold and resume,
and submit finished work for verification.

The backend owns every state transition. fieldops only requests them
and displays what the backend confirms.

Quick start:
  fieldops login                 Configure backend URL and credentials
  fieldops list                  Show your assigned tasks
  fieldops show RPT-1042         Task details and permitted actions
  fieldops ack RPT-1042          Acknowledge a new assignment
  fieldops complete RPT-1042 --notes "..." --duration 2.5 \
      --resolved 'photos/after-*.jpg'`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig, initLogging)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.fieldops/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output as JSON")

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newAckCmd())
	rootCmd.AddCommand(newStartCmd())
	rootCmd.AddCommand(newResumeCmd())
	rootCmd.AddCommand(newRejectCmd())
	rootCmd.AddCommand(newUpdateCmd())
	rootCmd.AddCommand(newHoldCmd())
	rootCmd.AddCommand(newCompleteCmd())
	rootCmd.AddCommand(newActCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// initConfig reads in the config file and FIELDOPS_* env variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".fieldops"))
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("FIELDOPS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

// initLogging configures slog to stderr; debug level with --verbose.
func initLogging() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	if quiet {
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
