// Package main is the entry point for the dock CLI.
package main

import (
	"os"

	"github.com/dockhouse/dock/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
