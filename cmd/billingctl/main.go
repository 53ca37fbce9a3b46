// Package main billingctl запускает проверки биллинга вручную.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/content-generator/internal/app/scheduler"
	"github.com/magabrotheeeer/content-generator/internal/cli"
	"github.com/magabrotheeeer/content-generator/internal/config"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCmd(func(ctx context.Context) (cli.Sweeper, func(), error) {
		app, err := scheduler.New(ctx, config.MustLoad(), logger)
		if err != nil {
			return nil, nil, err
		}
		return app.Worker(), app.Close, nil
	})
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
