package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/warehouse-backend/internal/catalog"
	"github.com/angelmondragon/warehouse-backend/internal/gate"
	"github.com/angelmondragon/warehouse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/warehouse-backend/pkg/errors"
	"github.com/angelmondragon/warehouse-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// Store persists the two ledger collections. Loading from a store that has
// never been written returns empty slices and no error.
type Store interface {
	LoadEntries(ctx context.Context) ([]catalog.Entry, error)
	SaveEntries(ctx context.Context, entries []catalog.Entry) error
	LoadReservations(ctx context.Context) ([]Reservation, error)
	SaveReservations(ctx context.Context, reservations []Reservation) error
}

// ServiceParams configure a warehouse session.
type ServiceParams struct {
	Logger *logger.Logger
	Store  Store
	Window gate.Window
}

// Service is a ledger session bound to a store: Open loads, Close saves, and
// the operations in between run against memory with their outcomes logged.
type Service struct {
	logg   *logger.Logger
	store  Store
	ledger *Ledger
}

// NewService builds a session over an empty ledger.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("store required")
	}
	return &Service{
		logg:   params.Logger,
		store:  params.Store,
		ledger: NewLedger(params.Window),
	}, nil
}

// Ledger exposes the in-memory ledger.
func (s *Service) Ledger() *Ledger {
	return s.ledger
}

// Open loads entries and reservations. A failure is logged and returned but
// leaves the session usable with whatever could be loaded.
func (s *Service) Open(ctx context.Context) error {
	ctx = s.logg.WithOperation(ctx, "open")

	var errs error
	entries, err := s.store.LoadEntries(ctx)
	if err != nil {
		errs = multierr.Append(errs, pkgerrors.Wrap(pkgerrors.CodeIO, err, "load entries"))
		entries = nil
	}
	reservations, err := s.store.LoadReservations(ctx)
	if err != nil {
		errs = multierr.Append(errs, pkgerrors.Wrap(pkgerrors.CodeIO, err, "load reservations"))
		reservations = nil
	}
	if restoreErr := s.ledger.Restore(entries, reservations); restoreErr != nil {
		errs = multierr.Append(errs, pkgerrors.Wrap(pkgerrors.CodeIO, restoreErr, "restore ledger"))
	}

	if errs != nil {
		s.logg.Error(ctx, "failed to load warehouse state; continuing with partial data", errs)
		return errs
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"entries":      len(entries),
		"reservations": len(reservations),
	})
	s.logg.Info(logCtx, "warehouse state loaded")
	return nil
}

// Close saves both collections. Each save is attempted even if the other fails.
func (s *Service) Close(ctx context.Context) error {
	ctx = s.logg.WithOperation(ctx, "close")
	entries, reservations := s.ledger.Snapshot()

	var errs error
	if err := s.store.SaveEntries(ctx, entries); err != nil {
		errs = multierr.Append(errs, pkgerrors.Wrap(pkgerrors.CodeIO, err, "save entries"))
	}
	if err := s.store.SaveReservations(ctx, reservations); err != nil {
		errs = multierr.Append(errs, pkgerrors.Wrap(pkgerrors.CodeIO, err, "save reservations"))
	}
	if errs != nil {
		s.logg.Error(ctx, "failed to save warehouse state", errs)
		return errs
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"entries":      len(entries),
		"reservations": len(reservations),
	})
	s.logg.Info(logCtx, "warehouse state saved")
	return nil
}

func (s *Service) AddEntry(ctx context.Context, now time.Time, spec catalog.Spec) (string, error) {
	ctx = s.logg.WithOperation(ctx, "add_entry")
	barCode, err := s.ledger.AddEntry(now, spec)
	if err != nil {
		s.logFailure(ctx, err)
		return "", err
	}
	ctx = s.logg.WithBarCode(ctx, barCode)
	s.logg.Info(s.logg.WithField(ctx, "kind", spec.Kind), "entry added")
	return barCode, nil
}

func (s *Service) UpdatePriceAndStock(ctx context.Context, now time.Time, barCode string, newPrice *decimal.Decimal, addQuantity *int) (catalog.Entry, error) {
	ctx = s.logg.WithBarCode(s.logg.WithOperation(ctx, "update_entry"), barCode)
	entry, err := s.ledger.UpdatePriceAndStock(now, barCode, newPrice, addQuantity)
	if err != nil {
		s.logFailure(ctx, err)
		return catalog.Entry{}, err
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"price":    entry.Price.String(),
		"quantity": entry.Quantity,
	})
	s.logg.Info(logCtx, "entry updated")
	return entry, nil
}

func (s *Service) RemoveExpiredFood(ctx context.Context, now, asOf time.Time) ([]catalog.Entry, error) {
	return s.sweep(s.logg.WithOperation(ctx, "remove_expired_food"), func() ([]catalog.Entry, error) {
		return s.ledger.RemoveExpiredFood(now, asOf)
	})
}

func (s *Service) RemoveOutOfWarrantyElectronics(ctx context.Context, now, asOf time.Time) ([]catalog.Entry, error) {
	return s.sweep(s.logg.WithOperation(ctx, "remove_out_of_warranty"), func() ([]catalog.Entry, error) {
		return s.ledger.RemoveOutOfWarrantyElectronics(now, asOf)
	})
}

func (s *Service) sweep(ctx context.Context, run func() ([]catalog.Entry, error)) ([]catalog.Entry, error) {
	removed, err := run()
	if err != nil {
		s.logFailure(ctx, err)
		return nil, err
	}
	s.logg.Info(s.logg.WithField(ctx, "count", len(removed)), "entries removed")
	return removed, nil
}

// DeleteByBarCode removes an entry and logs a warning when reservations still
// name it.
func (s *Service) DeleteByBarCode(ctx context.Context, now time.Time, barCode string) (DeleteResult, error) {
	ctx = s.logg.WithBarCode(s.logg.WithOperation(ctx, "delete_entry"), barCode)
	result, err := s.ledger.DeleteByBarCode(now, barCode)
	if err != nil {
		s.logFailure(ctx, err)
		return DeleteResult{}, err
	}
	if result.ReservedQuantity > 0 {
		s.logg.Warn(s.logg.WithField(ctx, "reserved_quantity", result.ReservedQuantity), "deleted entry still has reservations")
		return result, nil
	}
	s.logg.Info(ctx, "entry deleted")
	return result, nil
}

func (s *Service) ApplyDiscount(ctx context.Context, now time.Time, barCode string, percent int) (DiscountResult, error) {
	ctx = s.logg.WithBarCode(s.logg.WithOperation(ctx, "apply_discount"), barCode)
	result, err := s.ledger.ApplyDiscount(now, barCode, percent)
	if err != nil {
		s.logFailure(ctx, err)
		return DiscountResult{}, err
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"percent":   percent,
		"old_price": result.Old.String(),
		"new_price": result.New.String(),
	})
	s.logg.Info(logCtx, "discount applied")
	return result, nil
}

func (s *Service) Reserve(ctx context.Context, now time.Time, name string, qty int, pickupAt time.Time) (Reservation, error) {
	ctx = s.logg.WithFields(s.logg.WithOperation(ctx, "reserve"), map[string]any{"product": name, "quantity": qty})
	reservation, err := s.ledger.Reserve(now, name, qty, pickupAt)
	if err != nil {
		s.logFailure(ctx, err)
		return Reservation{}, err
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"reservation_id": reservation.ID,
		"bar_code":       reservation.BarCode,
	})
	s.logg.Info(logCtx, "reservation created")
	return reservation, nil
}

func (s *Service) Buy(ctx context.Context, now time.Time, name string, qty int) (decimal.Decimal, error) {
	ctx = s.logg.WithFields(s.logg.WithOperation(ctx, "buy"), map[string]any{"product": name, "quantity": qty})
	total, err := s.ledger.Buy(now, name, qty)
	if err != nil {
		s.logFailure(ctx, err)
		return decimal.Zero, err
	}
	s.logg.Info(s.logg.WithField(ctx, "total", total.String()), "purchase completed")
	return total, nil
}

func (s *Service) CancelReservation(ctx context.Context, id string) (Reservation, error) {
	ctx = s.logg.WithFields(s.logg.WithOperation(ctx, "cancel_reservation"), map[string]any{"reservation_id": id})
	reservation, err := s.ledger.CancelReservation(id)
	if err != nil {
		s.logFailure(ctx, err)
		return Reservation{}, err
	}
	s.logg.Info(s.logg.WithBarCode(ctx, reservation.BarCode), "reservation canceled")
	return reservation, nil
}

func (s *Service) SweepExpiredReservations(ctx context.Context, now time.Time) []Reservation {
	ctx = s.logg.WithOperation(ctx, "sweep_reservations")
	expired := s.ledger.SweepExpiredReservations(now)
	s.logg.Info(s.logg.WithField(ctx, "count", len(expired)), "expired reservations removed")
	return expired
}

func (s *Service) ListEntries(filter *enums.ProductKind) []Row {
	return s.ledger.ListEntries(filter)
}

// logFailure logs domain rejections as warnings and anything else as errors.
func (s *Service) logFailure(ctx context.Context, err error) {
	code := pkgerrors.CodeOf(err)
	if code == pkgerrors.CodeInternal || code == pkgerrors.CodeIO {
		s.logg.Error(ctx, "operation failed", err)
		return
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"code":  string(code),
		"error": err.Error(),
	})
	s.logg.Warn(logCtx, "operation rejected")
}
