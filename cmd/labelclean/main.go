package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := newRootCommand().Execute(); err != nil {
		// Cancellation is already reported by the interrupted command.
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		return 1
	}
	return 0
}
