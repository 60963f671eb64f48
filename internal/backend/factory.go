// Package backend selects and wires the configured storage backend.
package backend

import (
	"fmt"
	"log/slog"

	"github.com/uestliguci/LifestyleCalculator/internal/config"
	"github.com/uestliguci/LifestyleCalculator/internal/storage"
	"github.com/uestliguci/LifestyleCalculator/internal/storage/memory"
	"github.com/uestliguci/LifestyleCalculator/internal/storage/sqlite"
)

type Type string

const (
	Memory Type = "memory"
	SQLite Type = "sqlite"
)

func (t Type) IsValid() bool {
	return t == Memory || t == SQLite
}

// Stores bundles the interfaces a backend provides. BackupQueue is nil
// for backends with nothing durable to back up.
type Stores struct {
	Transactions storage.Store
	Users        storage.UserStore
	BackupQueue  storage.BackupQueue
}

// Open builds the backend named by cfg.DataBackend. The memory backend
// serves tests and local development; sqlite is the durable default
// for deployments.
func Open(cfg *config.Config) (*Stores, error) {
	backendType := Type(cfg.DataBackend)
	if !backendType.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	switch backendType {
	case SQLite:
		store, err := sqlite.New(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite backend: %w", err)
		}
		slog.Info("Storage backend ready", "backend", "sqlite", "path", cfg.SQLiteDBPath)
		return &Stores{Transactions: store, Users: store, BackupQueue: store}, nil

	case Memory:
		store := memory.New()
		slog.Info("Storage backend ready", "backend", "memory")
		return &Stores{Transactions: store, Users: store}, nil
	}

	return nil, fmt.Errorf("unhandled backend type: %s", backendType)
}
