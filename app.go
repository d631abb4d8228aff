package main

import (
	"context"
	"fmt"

	"github.com/giygas/pediatric-drug-calculator/catalog"
	"github.com/giygas/pediatric-drug-calculator/config"
	"github.com/giygas/pediatric-drug-calculator/history"
	"github.com/giygas/pediatric-drug-calculator/interfaces"
	"github.com/giygas/pediatric-drug-calculator/logging"
	"github.com/giygas/pediatric-drug-calculator/notify"
	"github.com/giygas/pediatric-drug-calculator/seed"
)

// openStore selects Postgres when DATABASE_URL is set, else the in-memory catalog.
// The returned closer is never nil.
func openStore(ctx context.Context, cfg *config.Config) (interfaces.ReferenceStore, func() error, error) {
	if cfg.DatabaseURL == "" {
		logging.Info("Using in-memory catalog")
		return catalog.NewMemoryStore(), func() error { return nil }, nil
	}

	db, err := catalog.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := catalog.NewPostgresStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	logging.Info("Using Postgres catalog")
	return store, store.Close, nil
}

// openLocalCatalog is openStore for one-shot commands: an in-memory catalog
// starts out with the bundled data
func openLocalCatalog(ctx context.Context, cfg *config.Config) (interfaces.ReferenceStore, func() error, error) {
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DatabaseURL == "" {
		if _, err := seed.NewSeeder(store).SeedIfEmpty(ctx); err != nil {
			_ = closeStore()
			return nil, nil, err
		}
	}
	return store, closeStore, nil
}

// openHistory selects Redis when REDIS_URL is set, else the JSON history file
func openHistory(ctx context.Context, cfg *config.Config) (*history.History, func() error, error) {
	if cfg.RedisURL == "" {
		return history.New(history.NewFileStore(cfg.HistoryFile)), func() error { return nil }, nil
	}

	client, err := history.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}

	store := history.NewRedisStore(client, "pediatric:")
	if err := store.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return history.New(store), client.Close, nil
}

func newNotifier(cfg *config.Config) interfaces.Notifier {
	if cfg.NotifyWebhookURL == "" {
		return notify.Noop{}
	}
	return notify.NewWebhook(cfg.NotifyWebhookURL)
}
