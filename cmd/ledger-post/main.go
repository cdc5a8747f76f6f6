// Package main is the entry point for the ledger-post CLI.
package main

import (
	"os"

	"github.com/veldbooks/ledger-engine/cmd/ledger-post/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
