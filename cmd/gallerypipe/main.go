// Package main provides the CLI entry point for gallerypipe.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

const (
	appName    = "gallerypipe"
	appVersion = "0.1.0"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
