// Package app wires configuration to concrete adapters for the binaries.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/library-ledger/internal/adapter/notify"
	"github.com/rl1809/library-ledger/internal/adapter/storage"
	"github.com/rl1809/library-ledger/internal/config"
	"github.com/rl1809/library-ledger/internal/core/service"
	"github.com/rl1809/library-ledger/internal/port"
)

type Ledger struct {
	Loans     *service.LoanService
	Fines     *service.FineService
	Borrowing *service.BorrowingService
	Catalog   *service.CatalogService
	Patrons   *service.PatronService
	Reminders *service.ReminderService

	closers []func() error
}

func (l *Ledger) Close() error {
	var first error
	for i := len(l.closers) - 1; i >= 0; i-- {
		if err := l.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Build opens the configured store, locker and notifier and wires every
// service onto them. Callers must Close the ledger.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Ledger, error) {
	ledger := &Ledger{}

	store, err := ledger.openStore(ctx, cfg)
	if err != nil {
		ledger.Close()
		return nil, err
	}
	locker, err := ledger.openLocker(ctx, cfg)
	if err != nil {
		ledger.Close()
		return nil, err
	}
	notifier, err := ledger.openNotifier(cfg, logger)
	if err != nil {
		ledger.Close()
		return nil, err
	}

	opts := []service.Option{service.WithLocker(locker), service.WithLogger(logger)}
	ledger.Loans = service.NewLoanService(store, opts...)
	ledger.Fines = service.NewFineService(store, opts...)
	ledger.Borrowing = service.NewBorrowingService(ledger.Loans, ledger.Fines)
	ledger.Catalog = service.NewCatalogService(store, opts...)
	ledger.Patrons = service.NewPatronService(store, ledger.Loans, ledger.Fines, opts...)
	ledger.Reminders = service.NewReminderService(ledger.Loans, ledger.Patrons, notifier, opts...)
	return ledger, nil
}

func (l *Ledger) openStore(ctx context.Context, cfg config.Config) (port.RecordStore, error) {
	switch cfg.Store {
	case config.StoreMySQL:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
		l.closers = append(l.closers, db.Close)

		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("ping mysql: %w", err)
		}
		adapter := storage.NewMySQLAdapter(db)
		if err := adapter.Migrate(ctx); err != nil {
			return nil, err
		}
		return adapter, nil

	case config.StorePostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		l.closers = append(l.closers, func() error { pool.Close(); return nil })

		if err := pool.Ping(ctx); err != nil {
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		adapter := storage.NewPostgresAdapter(pool)
		if err := adapter.Migrate(ctx); err != nil {
			return nil, err
		}
		return adapter, nil

	default:
		return storage.NewFileStore(cfg.DataDir)
	}
}

func (l *Ledger) openLocker(ctx context.Context, cfg config.Config) (port.Locker, error) {
	if cfg.RedisAddr == "" {
		return service.NewLocalLocker(), nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	l.closers = append(l.closers, rdb.Close)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return storage.NewRedisLocker(rdb, cfg.LockKey, cfg.LockTTL), nil
}

func (l *Ledger) openNotifier(cfg config.Config, logger *slog.Logger) (port.Notifier, error) {
	if cfg.Notifier != config.NotifierAMQP {
		return notify.NewLogNotifier(logger), nil
	}
	n, err := notify.NewAMQPNotifier(cfg.RabbitURL, cfg.NotifyExchange, cfg.NotifyRoutingKey)
	if err != nil {
		return nil, err
	}
	l.closers = append(l.closers, n.Close)
	return n, nil
}
