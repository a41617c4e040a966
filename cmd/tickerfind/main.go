// Package main provides the entry point for the tickerfind CLI.
package main

import (
	"os"

	"github.com/quickfin/tickerfind/cmd/tickerfind/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
