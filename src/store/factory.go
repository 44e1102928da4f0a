package store

import (
	"context"
	"fmt"

	"finance-dashboard/src/config"
)

// Open builds the backend selected by cfg.DataBackend.
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.DataBackend {
	case config.BackendPostgres:
		return NewPostgres(ctx, cfg.DatabaseURL)
	case config.BackendSQLite:
		return NewSQLite(cfg.SQLiteDBPath)
	case config.BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown data backend %q", cfg.DataBackend)
	}
}
