package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/YUHAI0/shex/internal/domain"
	"github.com/YUHAI0/shex/internal/infrastructure/cli"
)

func main() {
	// An interrupt cancels the in-flight provider call or kills the running
	// subprocess; the loop then reports Aborted.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := cli.Options{Verbose: isVerbose()}

	root, container, err := cli.NewRootCmd(ctx, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(domain.ExitInternalError)
	}

	runErr := root.ExecuteContext(ctx)

	// Close the audit store before any exit path.
	if container.HistoryStore != nil {
		_ = container.HistoryStore.Close()
	}

	if runErr != nil {
		fmt.Fprintln(os.Stderr, "error:", runErr)
		os.Exit(domain.ExitInternalError)
	}

	if container.LastResult != nil {
		os.Exit(container.LastResult.ExitCode())
	}
}

func isVerbose() bool {
	return strings.EqualFold(os.Getenv("SHEX_DEBUG"), "1") || strings.EqualFold(os.Getenv("SHEX_DEBUG"), "true")
}
