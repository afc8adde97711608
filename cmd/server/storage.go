package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/taskshare/internal/config"
	"github.com/fastygo/taskshare/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/taskshare/internal/infrastructure/postgres"
	"github.com/fastygo/taskshare/repository"
	"github.com/fastygo/taskshare/repository/postgres"
	"github.com/fastygo/taskshare/repository/sqlite"
)

// storage is the repository set of the configured driver.
type storage struct {
	users         repository.UserRepository
	tasks         repository.TaskRepository
	participants  repository.ParticipantRepository
	notifications repository.NotificationRepository
	pinger        monitor.Pinger
	close         func(ctx context.Context) error
}

func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*storage, error) {
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.Database.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("opened sqlite store", zap.String("path", cfg.Database.SQLitePath))
		return &storage{
			users:         sqlite.NewUserRepository(store),
			tasks:         sqlite.NewTaskRepository(store),
			participants:  sqlite.NewParticipantRepository(store),
			notifications: sqlite.NewNotificationRepository(store),
			pinger:        store,
			close:         func(context.Context) error { return store.Close() },
		}, nil

	case config.DriverPostgres:
		if err := pgInfra.RunMigrations(cfg, logger); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		return &storage{
			users:         postgres.NewUserRepository(pool),
			tasks:         postgres.NewTaskRepository(pool),
			participants:  postgres.NewParticipantRepository(pool),
			notifications: postgres.NewNotificationRepository(pool),
			pinger:        pool,
			close: func(context.Context) error {
				pgInfra.Close(pool, logger)
				return nil
			},
		}, nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
}
