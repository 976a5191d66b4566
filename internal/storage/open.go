// Package storage selects the persistence adapter named by configuration.
package storage

import (
	"context"

	"github.com/angelmondragon/warehouse-backend/internal/storage/snapshot"
	"github.com/angelmondragon/warehouse-backend/internal/storage/sqlstore"
	"github.com/angelmondragon/warehouse-backend/internal/warehouse"
	"github.com/angelmondragon/warehouse-backend/pkg/config"
	"github.com/angelmondragon/warehouse-backend/pkg/db"
	"github.com/angelmondragon/warehouse-backend/pkg/logger"
	"github.com/angelmondragon/warehouse-backend/pkg/migrate"
)

// Open builds the configured store. The returned close func releases any
// connection the store holds and is never nil on success.
func Open(ctx context.Context, cfg *config.Config, logg *logger.Logger) (warehouse.Store, func() error, error) {
	switch cfg.Storage.NormalizedDriver() {
	case config.StorageDriverSQLite:
		client, err := db.New(ctx, cfg.Storage, logg)
		if err != nil {
			return nil, nil, err
		}
		if err := migrate.MaybeAutoRun(ctx, cfg, logg, client); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		store, err := sqlstore.New(client)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return store, client.Close, nil
	default:
		store, err := snapshot.New(cfg.Storage.EntriesPath, cfg.Storage.ReservationsPath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() error { return nil }, nil
	}
}
