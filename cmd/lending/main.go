package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rl1809/library-ledger/internal/app"
	"github.com/rl1809/library-ledger/internal/config"
	"github.com/rl1809/library-ledger/internal/observability"
)

const sweepTimeout = 2 * time.Minute

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ledger, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start ledger", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := ledger.Close(); err != nil {
			logger.Error("close ledger", "error", err)
		}
		logger.Info("connections closed")
	}()

	logger.Info("reminder daemon started",
		"store", cfg.Store, "notifier", cfg.Notifier, "interval", cfg.ReminderInterval)

	ticker := time.NewTicker(cfg.ReminderInterval)
	defer ticker.Stop()

	sweep(ctx, ledger, logger)
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down...")
			return
		case <-ticker.C:
			sweep(ctx, ledger, logger)
		}
	}
}

func sweep(ctx context.Context, ledger *app.Ledger, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	sent, err := ledger.Reminders.SendOverdueReminders(ctx)
	if err != nil {
		logger.Error("reminder sweep incomplete", "sent", sent, "error", err)
		return
	}
	logger.Info("reminder sweep done", "sent", sent)
}
