package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sagarc03/lockbox"
	"github.com/sagarc03/lockbox/config"
	"github.com/sagarc03/lockbox/database"
)

// openStore connects the configured backend and checks it is usable. With
// migrate set, missing tables or buckets are created first.
func openStore(ctx context.Context, cfg *config.Config, migrate bool) (database.Database, error) {
	db, err := database.Connect(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("connect store: %w", err)
	}

	// a filesystem store has nothing to ping until Migrate creates its directory
	if migrate {
		if err = db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate store: %w", err)
		}
		slog.Info("store migration complete", "type", cfg.Store.Type)
	}

	if err = db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping store: %w", err)
	}

	if err = db.Validate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("validate store: %w", err)
	}

	slog.Debug("connected to store", "type", cfg.Store.Type)
	return db, nil
}

// openService opens the store and wraps it in a Service. The returned
// function closes the store.
func openService(ctx context.Context, cfg *config.Config, migrate bool) (*lockbox.Service, func(), error) {
	db, err := openStore(ctx, cfg, migrate)
	if err != nil {
		return nil, nil, err
	}

	service, err := lockbox.NewService(db.GetStore(), lockbox.ServiceConfig{
		BcryptCost:   cfg.Service.BcryptCost,
		ListPageSize: cfg.Service.ListPageSize,
	})
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("create service: %w", err)
	}

	return service, func() { _ = db.Close() }, nil
}
