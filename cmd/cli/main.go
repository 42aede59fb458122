// Package main is the entry point for the auto-rating CLI.
package main

import (
	"os"

	"auto-rating/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
