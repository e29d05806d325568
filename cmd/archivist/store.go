package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"mercator-hq/archivist/pkg/config"
	"mercator-hq/archivist/pkg/content"
	"mercator-hq/archivist/pkg/content/storage"
)

// openRepository opens the configured content store and imports the seed file
// when one is set.
func openRepository(ctx context.Context, cfg config.StoreConfig) (content.Repository, error) {
	var repo content.Repository
	switch cfg.Backend {
	case "sqlite":
		if dir := filepath.Dir(cfg.SQLite.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		s, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
			Driver:       cfg.SQLite.Driver,
			Path:         cfg.SQLite.Path,
			MaxOpenConns: cfg.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.SQLite.MaxIdleConns,
			WALMode:      cfg.SQLite.WALMode,
			BusyTimeout:  cfg.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite store: %w", err)
		}
		repo = s
	case "memory":
		repo = storage.NewMemoryStorage()
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Backend)
	}

	if cfg.SeedFile != "" {
		doc, err := storage.LoadTreeFile(cfg.SeedFile)
		if err != nil {
			repo.Close()
			return nil, err
		}
		n, err := storage.Import(ctx, repo, doc)
		if err != nil {
			repo.Close()
			return nil, fmt.Errorf("failed to import seed file %q: %w", cfg.SeedFile, err)
		}
		slog.Info("seed file imported", "path", cfg.SeedFile, "nodes", n, "root", doc.Root)
	}
	return repo, nil
}
