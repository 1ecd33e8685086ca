package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"

	"github.com/bitshop/salesdash/cmd/salesctl/cli"
	"github.com/bitshop/salesdash/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Flags take over when the environment is incomplete.
	cfg, err := app.LoadConfig()
	if err != nil {
		cfg = nil
	}
	if err := cli.NewApp(cfg).Execute(ctx); err != nil {
		pterm.Error.Println(err)
		stop()
		os.Exit(1)
	}
}
