package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/warehouse-backend/internal/catalog"
	"github.com/angelmondragon/warehouse-backend/internal/gate"
	"github.com/angelmondragon/warehouse-backend/internal/warehouse"
	"github.com/angelmondragon/warehouse-backend/pkg/enums"
	"github.com/angelmondragon/warehouse-backend/pkg/logger"
	"github.com/angelmondragon/warehouse-backend/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"
)

type memoryStore struct {
	entries      []catalog.Entry
	reservations []warehouse.Reservation
	loadErr      error
	saves        int
}

func (m *memoryStore) LoadEntries(context.Context) ([]catalog.Entry, error) {
	return m.entries, m.loadErr
}

func (m *memoryStore) SaveEntries(_ context.Context, entries []catalog.Entry) error {
	m.saves++
	m.entries = entries
	return nil
}

func (m *memoryStore) LoadReservations(context.Context) ([]warehouse.Reservation, error) {
	return m.reservations, m.loadErr
}

func (m *memoryStore) SaveReservations(_ context.Context, reservations []warehouse.Reservation) error {
	m.saves++
	m.reservations = reservations
	return nil
}

var created = time.Date(2026, 3, 1, 23, 15, 0, 0, time.UTC)

// seededStore holds milk expiring 2026-03-05, a radio whose warranty ends
// 2026-03-06, a shirt, and one reservation for pickup at 2026-03-04 10:00.
func seededStore(t *testing.T) *memoryStore {
	t.Helper()
	ledger := warehouse.NewLedger(gate.Default())
	specs := []catalog.Spec{
		{Kind: enums.ProductKindFood, Name: "Milk", Price: decimal.NewFromInt(2), Quantity: 5,
			ExpirationDate: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)},
		{Kind: enums.ProductKindElectronic, Name: "Radio", Price: decimal.NewFromInt(40), Quantity: 1,
			WarrantyDate: time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)},
		{Kind: enums.ProductKindClothing, Name: "Shirt", Price: decimal.NewFromInt(15), Quantity: 3,
			Size: "S", Color: "White"},
	}
	for _, spec := range specs {
		if _, err := ledger.AddEntry(created, spec); err != nil {
			t.Fatalf("add entry: %v", err)
		}
	}
	if _, err := ledger.Reserve(created, "Shirt", 1, time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	entries, reservations := ledger.Snapshot()
	return &memoryStore{entries: entries, reservations: reservations}
}

func newTestSweepJob(t *testing.T, store warehouse.Store, now time.Time) (*expirySweepJob, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	job, err := NewExpirySweepJob(ExpirySweepJobParams{
		Logger:  logger.Nop(),
		Store:   store,
		Window:  gate.Default(),
		Metrics: metrics.NewCronJobMetrics(reg),
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	sweep := job.(*expirySweepJob)
	sweep.now = func() time.Time { return now }
	return sweep, reg
}

func TestExpirySweepJobInsideManagerHours(t *testing.T) {
	store := seededStore(t)
	job, reg := newTestSweepJob(t, store, time.Date(2026, 3, 7, 23, 30, 0, 0, time.UTC))

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(store.entries) != 1 || store.entries[0].Name != "Shirt" {
		t.Fatalf("expected only the shirt to remain, got %v", store.entries)
	}
	if len(store.reservations) != 0 {
		t.Fatalf("expected lapsed reservation to be dropped, got %d", len(store.reservations))
	}
	if store.entries[0].Quantity != 2 {
		t.Fatalf("expired reservation must not return stock, got quantity %d", store.entries[0].Quantity)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, kind := range []string{"food", "electronic", "reservation"} {
		if got := removedCount(mfs, kind); got != 1 {
			t.Fatalf("expected 1 removed %s, got %f", kind, got)
		}
	}
}

func TestExpirySweepJobOutsideManagerHours(t *testing.T) {
	store := seededStore(t)
	job, _ := newTestSweepJob(t, store, time.Date(2026, 3, 7, 14, 0, 0, 0, time.UTC))

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(store.entries) != 3 {
		t.Fatalf("catalog sweeps are gated; expected 3 entries, got %d", len(store.entries))
	}
	if len(store.reservations) != 0 {
		t.Fatalf("reservation sweep is not gated; expected 0, got %d", len(store.reservations))
	}
}

func TestExpirySweepJobDoesNotSaveAfterFailedLoad(t *testing.T) {
	store := seededStore(t)
	store.loadErr = errors.New("corrupt file")
	job, _ := newTestSweepJob(t, store, time.Date(2026, 3, 7, 23, 30, 0, 0, time.UTC))

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected load error")
	}
	if store.saves != 0 {
		t.Fatalf("expected no saves after failed load, got %d", store.saves)
	}
}

func TestNewExpirySweepJobRequiresDependencies(t *testing.T) {
	if _, err := NewExpirySweepJob(ExpirySweepJobParams{Store: &memoryStore{}}); err == nil {
		t.Fatal("expected error without logger")
	}
	if _, err := NewExpirySweepJob(ExpirySweepJobParams{Logger: logger.Nop()}); err == nil {
		t.Fatal("expected error without store")
	}
}

func removedCount(mfs []*dto.MetricFamily, kind string) float64 {
	for _, mf := range mfs {
		if mf.GetName() != "warehouse_sweep_removed_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "kind" && label.GetValue() == kind {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
