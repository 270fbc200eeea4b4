package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"invex/internal/config"
	"invex/internal/listener"
	"invex/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	var db *storage.DB
	if strings.TrimSpace(cfg.WatchMailProvider) != "" {
		db, err = storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc, err := listener.NewFromConfig(ctx, cfg, db, logger)
	must(err)
	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
