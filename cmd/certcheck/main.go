package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/sensiblebit/certcheck"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd.Version = version
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		stop()
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to the process exit status: 2 when the command line
// did not name exactly one directory, 1 for everything else.
func exitCode(err error) int {
	var ambiguous *certcheck.AmbiguousInputError
	if errors.As(err, &ambiguous) {
		return 2
	}
	return 1
}
