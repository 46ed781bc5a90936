// Command serpwords searches Google for a fixed query, extracts keywords from
// the top results, and prints the most frequent words with a short summary.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// query is the search phrase for every run.
const query = "James Dyson Journey "

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "serpwords:", err)
		stop()
		os.Exit(1)
	}
}
