package main

import (
	"context"
	"os"
	"time"

	"github.com/yndnr/stockvoice-go/internal/cli/command"
	"github.com/yndnr/stockvoice-go/internal/infra/shutdown"
)

func main() {
	h := shutdown.NewHandler(2 * time.Second)
	ctx, stop := h.Context(context.Background())

	app := command.App(command.WithShutdown(h))
	err := app.RunContext(ctx, os.Args)
	stop()

	if err != nil {
		command.ReportError(os.Stderr, err)
		os.Exit(1)
	}
}
