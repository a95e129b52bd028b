package main

import (
	"context"

	"northpier.systems/reelsync/internal/application"
	"northpier.systems/reelsync/internal/config"
	"northpier.systems/reelsync/internal/db"
	"northpier.systems/reelsync/internal/storage"
)

// app bundles the resources a subcommand needs: configuration, the
// database connection, and the object-store client.
type app struct {
	conf  *config.Config
	dbc   *db.DatabaseConnection
	store *storage.Client
}

// openApp loads configuration and acquires the shared resources. Callers
// must Close on every exit path.
func openApp(ctx context.Context) (*app, error) {
	conf, err := config.LoadConfig(ctx)
	if err != nil {
		return nil, err
	}

	pool, err := application.OpenDBPoolWithRetry(ctx, *conf)
	if err != nil {
		return nil, err
	}

	dbc, err := db.NewDatabaseConnection(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}

	store, err := storage.New(ctx, *conf)
	if err != nil {
		dbc.Close()
		return nil, err
	}

	return &app{conf: conf, dbc: dbc, store: store}, nil
}

// Close releases the app's resources.
func (a *app) Close() {
	a.dbc.Close()
}
