// internal/app/storage.go
package app

import (
	"context"
	"database/sql"
	"fmt"

	"storefront/internal/config"
	"storefront/internal/logger"
	"storefront/internal/port"
	"storefront/internal/repository/memory"
	"storefront/internal/repository/postgres"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Storage bundles the write side and the read side of one backing store.
type Storage struct {
	UnitOfWork port.UnitOfWork
	Queries    port.OrderQueryRepository

	db *sql.DB
}

// OpenStorage opens the configured driver. For postgres the schema is
// applied before returning.
func OpenStorage(ctx context.Context, cfg config.Config, log *logger.Logger) (*Storage, error) {
	switch cfg.Storage.Driver {
	case DriverMemory:
		log.Warn("using in-memory storage; data is lost on exit")
		store := memory.New()
		return &Storage{UnitOfWork: store, Queries: store.Queries()}, nil
	case DriverPostgres:
		db, err := postgres.Open(ctx, cfg.Database.URL, cfg.Database.MaxOpenConns)
		if err != nil {
			return nil, fmt.Errorf("postgres.Open: %w", err)
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("postgres.Migrate: %w", err)
		}
		log.Info("connected to postgres", "max_open_conns", cfg.Database.MaxOpenConns)
		return &Storage{
			UnitOfWork: postgres.NewUnitOfWork(db),
			Queries:    postgres.NewOrderQueryRepository(db, cfg.Query.BatchSize),
			db:         db,
		}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
