// Package main is the entry point for the qc CLI.
package main

import (
	"os"

	"github.com/Simplici0/qc.works/cmd/qc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
