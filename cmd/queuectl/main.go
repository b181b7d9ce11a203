// Package main is the entry point for queuectl, the persistent
// multi-worker job queue CLI.
package main

import (
	"os"

	"queuectl/cmd/queuectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
