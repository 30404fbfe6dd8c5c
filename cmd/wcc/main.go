package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
)

// Set by build flags (-ldflags "-X main.version=... -X main.commit=... -X main.date=...").
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	root.SetVersionTemplate(fmt.Sprintf("wcc version %s (commit %s, built %s)\n", version, commit, date))

	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}
