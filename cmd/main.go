package main

// Entry point: runs the cobra commands and turns a returned error into
// exit status 1. Pipeline failures are already logged, so only other
// errors are printed here.

import (
	"fmt"
	"os"

	"orderviz/cmd/commands"
	"orderviz/internal/pipeline"
)

func main() {
	if err := commands.Execute(); err != nil {
		if !pipeline.IsReported(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
