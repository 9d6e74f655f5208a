// Package main provides the entry point for the fieldops CLI.
package main

import (
	"os"

	"github.com/civitrack/fieldops/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
