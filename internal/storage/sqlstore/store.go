// Package sqlstore persists the ledger in an embedded SQLite database.
package sqlstore

import (
	"context"
	"fmt"

	"github.com/angelmondragon/warehouse-backend/internal/catalog"
	"github.com/angelmondragon/warehouse-backend/internal/warehouse"
	"github.com/angelmondragon/warehouse-backend/pkg/db"
	"github.com/angelmondragon/warehouse-backend/pkg/db/models"
	"gorm.io/gorm"
)

const batchSize = 200

type txRunner interface {
	DB() *gorm.DB
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Store keeps entries and reservations in two tables. Saving replaces a
// table's contents inside one transaction.
type Store struct {
	db txRunner
}

var _ warehouse.Store = (*Store)(nil)

func New(client txRunner) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &Store{db: client}, nil
}

func (s *Store) LoadEntries(ctx context.Context) ([]catalog.Entry, error) {
	conn := s.db.DB().WithContext(ctx)
	if !conn.Migrator().HasTable(&models.CatalogEntry{}) {
		return nil, nil
	}
	var records []models.CatalogEntry
	if err := conn.Order("position").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("query catalog entries: %w", err)
	}
	entries := make([]catalog.Entry, 0, len(records))
	for _, record := range records {
		entry, err := fromEntryModel(record)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Store) SaveEntries(ctx context.Context, entries []catalog.Entry) error {
	records := make([]models.CatalogEntry, 0, len(entries))
	for i, entry := range entries {
		records = append(records, toEntryModel(i, entry))
	}
	err := replaceAll(ctx, s.db, &models.CatalogEntry{}, records)
	if db.IsUniqueViolation(err, "catalog_entries.bar_code") {
		return fmt.Errorf("duplicate bar code in entries: %w", err)
	}
	return err
}

func (s *Store) LoadReservations(ctx context.Context) ([]warehouse.Reservation, error) {
	conn := s.db.DB().WithContext(ctx)
	if !conn.Migrator().HasTable(&models.Reservation{}) {
		return nil, nil
	}
	var records []models.Reservation
	if err := conn.Order("position").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("query reservations: %w", err)
	}
	reservations := make([]warehouse.Reservation, 0, len(records))
	for _, record := range records {
		reservations = append(reservations, fromReservationModel(record))
	}
	return reservations, nil
}

func (s *Store) SaveReservations(ctx context.Context, reservations []warehouse.Reservation) error {
	records := make([]models.Reservation, 0, len(reservations))
	for i, reservation := range reservations {
		records = append(records, toReservationModel(i, reservation))
	}
	return replaceAll(ctx, s.db, &models.Reservation{}, records)
}

func replaceAll[T any](ctx context.Context, runner txRunner, model *T, records []T) error {
	return runner.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return fmt.Errorf("clear table: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(records, batchSize).Error; err != nil {
			return fmt.Errorf("insert rows: %w", err)
		}
		return nil
	})
}
