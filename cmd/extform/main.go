package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/extform/extform/internal/cli"
)

// Swappable seams for testing signal handling.
var (
	execCLI      = cli.Execute
	notifySignal = signal.Notify
)

// run executes the CLI under a context that cancels on SIGINT or SIGTERM.
func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	notifySignal(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return execCLI(ctx)
}

func main() {
	os.Exit(run())
}
