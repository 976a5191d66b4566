// Package snapshot persists the ledger as two YAML documents on local disk.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/angelmondragon/warehouse-backend/internal/catalog"
	"github.com/angelmondragon/warehouse-backend/internal/warehouse"
	"gopkg.in/yaml.v3"
)

// Store writes entries and reservations to separate files. Each save replaces
// its file atomically.
type Store struct {
	entriesPath      string
	reservationsPath string
}

var _ warehouse.Store = (*Store)(nil)

func New(entriesPath, reservationsPath string) (*Store, error) {
	if entriesPath == "" {
		return nil, fmt.Errorf("entries path required")
	}
	if reservationsPath == "" {
		return nil, fmt.Errorf("reservations path required")
	}
	if filepath.Clean(entriesPath) == filepath.Clean(reservationsPath) {
		return nil, fmt.Errorf("entries and reservations must use different files")
	}
	return &Store{entriesPath: entriesPath, reservationsPath: reservationsPath}, nil
}

func (s *Store) LoadEntries(ctx context.Context) ([]catalog.Entry, error) {
	var doc entriesFile
	found, err := readDocument(ctx, s.entriesPath, &doc)
	if err != nil || !found {
		return nil, err
	}
	entries := make([]catalog.Entry, 0, len(doc.Entries))
	for _, record := range doc.Entries {
		entry, err := record.toEntry()
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", s.entriesPath, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Store) SaveEntries(ctx context.Context, entries []catalog.Entry) error {
	doc := entriesFile{Version: formatVersion, Entries: make([]entryRecord, 0, len(entries))}
	for _, entry := range entries {
		doc.Entries = append(doc.Entries, newEntryRecord(entry))
	}
	return writeDocument(ctx, s.entriesPath, doc)
}

func (s *Store) LoadReservations(ctx context.Context) ([]warehouse.Reservation, error) {
	var doc reservationsFile
	found, err := readDocument(ctx, s.reservationsPath, &doc)
	if err != nil || !found {
		return nil, err
	}
	reservations := make([]warehouse.Reservation, 0, len(doc.Reservations))
	for _, record := range doc.Reservations {
		reservations = append(reservations, record.toReservation())
	}
	return reservations, nil
}

func (s *Store) SaveReservations(ctx context.Context, reservations []warehouse.Reservation) error {
	doc := reservationsFile{Version: formatVersion, Reservations: make([]reservationRecord, 0, len(reservations))}
	for _, reservation := range reservations {
		doc.Reservations = append(doc.Reservations, newReservationRecord(reservation))
	}
	return writeDocument(ctx, s.reservationsPath, doc)
}

// readDocument decodes path into out. A missing file reports found=false.
func readDocument(ctx context.Context, path string, out any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

// writeDocument encodes doc to a temp file next to path and renames it into place.
func writeDocument(ctx context.Context, path string, doc any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
