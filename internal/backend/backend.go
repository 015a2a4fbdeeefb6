// Package backend selects and constructs the persistence backend from
// configuration. The HTTP server and services only ever see store.Store.
package backend

import (
	"fmt"
	"log/slog"

	"finura/internal/config"
	"finura/internal/storage"
	"finura/internal/store"
	"finura/internal/store/memory"
)

type Type string

const (
	Memory Type = "memory"
	SQLite Type = "sqlite"
)

func (t Type) IsValid() bool {
	return t == Memory || t == SQLite
}

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// Result holds the constructed store and its cleanup. PendingSource is
// non-nil only for backends that track backup state.
type Result struct {
	Store         store.Store
	PendingSource *storage.SQLiteRepository
	Cleanup       CleanupFunc
}

// New builds the backend named by cfg.DataBackend.
func New(cfg *config.Config, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	t := Type(cfg.DataBackend)
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	switch t {
	case SQLite:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize SQLite repository: %w", err)
		}
		logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return &Result{
			Store:         repo,
			PendingSource: repo,
			Cleanup:       repo.Close,
		}, nil
	default:
		logger.Info("Initialized memory backend")
		return &Result{Store: memory.New()}, nil
	}
}
