package warehouse

import (
	"sync"
	"time"

	"github.com/angelmondragon/warehouse-backend/internal/catalog"
	"github.com/angelmondragon/warehouse-backend/internal/gate"
	"github.com/angelmondragon/warehouse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/warehouse-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Ledger owns the catalog entries and the reservations made against them.
// Entries live in an arena keyed by bar code; reservations refer to them by
// key only. Every exported method runs as one critical section.
type Ledger struct {
	mu           sync.Mutex
	window       gate.Window
	entries      map[string]*catalog.Entry
	order        []string
	reservations []Reservation
}

// DeleteResult reports the removed entry and how many units were still
// reserved against it. A positive ReservedQuantity is a warning, not a failure.
type DeleteResult struct {
	Entry            catalog.Entry
	ReservedQuantity int
}

// DiscountResult carries the price before and after a discount.
type DiscountResult struct {
	Old decimal.Decimal
	New decimal.Decimal
}

// NewLedger builds an empty ledger gated by window.
func NewLedger(window gate.Window) *Ledger {
	return &Ledger{
		window:  window,
		entries: map[string]*catalog.Entry{},
	}
}

// Window returns the gate used for manager operations.
func (l *Ledger) Window() gate.Window {
	return l.window
}

// AddEntry validates spec, stores the new entry and returns its bar code.
func (l *Ledger) AddEntry(now time.Time, spec catalog.Spec) (string, error) {
	if err := l.window.Check(now); err != nil {
		return "", err
	}
	entry, err := catalog.New(spec, now)
	if err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.insert(entry)
	return entry.BarCode, nil
}

// UpdatePriceAndStock sets a new price (resetting the discount basis) and/or
// adds stock. A nil argument leaves that field untouched.
func (l *Ledger) UpdatePriceAndStock(now time.Time, barCode string, newPrice *decimal.Decimal, addQuantity *int) (catalog.Entry, error) {
	if err := l.window.Check(now); err != nil {
		return catalog.Entry{}, err
	}
	if newPrice != nil && !newPrice.IsPositive() {
		return catalog.Entry{}, pkgerrors.New(pkgerrors.CodeValidation, "price must be a positive value").
			WithDetails(map[string]string{"price": "must be greater than 0"})
	}
	if addQuantity != nil && *addQuantity < 0 {
		return catalog.Entry{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity to add cannot be negative").
			WithDetails(map[string]string{"quantity": "must be at least 0"})
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	entry, err := l.lookup(barCode)
	if err != nil {
		return catalog.Entry{}, err
	}
	if newPrice != nil {
		entry.Price = *newPrice
		entry.BasePrice = *newPrice
	}
	if addQuantity != nil {
		entry.Quantity += *addQuantity
	}
	return *entry, nil
}

// RemoveExpiredFood removes every food entry expired as of asOf.
func (l *Ledger) RemoveExpiredFood(now, asOf time.Time) ([]catalog.Entry, error) {
	return l.removeInvalid(now, asOf, enums.ProductKindFood)
}

// RemoveOutOfWarrantyElectronics removes every electronic entry whose warranty
// has lapsed as of asOf.
func (l *Ledger) RemoveOutOfWarrantyElectronics(now, asOf time.Time) ([]catalog.Entry, error) {
	return l.removeInvalid(now, asOf, enums.ProductKindElectronic)
}

func (l *Ledger) removeInvalid(now, asOf time.Time, kind enums.ProductKind) ([]catalog.Entry, error) {
	if err := l.window.Check(now); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	var removed []catalog.Entry
	kept := l.order[:0]
	for _, barCode := range l.order {
		entry := l.entries[barCode]
		if entry.Kind() == kind && !entry.ValidAsOf(asOf) {
			removed = append(removed, *entry)
			delete(l.entries, barCode)
			continue
		}
		kept = append(kept, barCode)
	}
	l.order = kept
	return removed, nil
}

// DeleteByBarCode removes an entry. Reservations naming it are left in place.
func (l *Ledger) DeleteByBarCode(now time.Time, barCode string) (DeleteResult, error) {
	if err := l.window.Check(now); err != nil {
		return DeleteResult{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	entry, err := l.lookup(barCode)
	if err != nil {
		return DeleteResult{}, err
	}
	l.remove(barCode)
	return DeleteResult{Entry: *entry, ReservedQuantity: l.reservedQuantity(barCode)}, nil
}

// ApplyDiscount sets price to base price reduced by percent. The base price is
// never touched, so repeated discounts do not compound. A 100% discount makes
// the entry free: price becomes zero while base price stays positive.
func (l *Ledger) ApplyDiscount(now time.Time, barCode string, percent int) (DiscountResult, error) {
	if err := l.window.Check(now); err != nil {
		return DiscountResult{}, err
	}
	if percent < 1 || percent > 100 {
		return DiscountResult{}, pkgerrors.Newf(pkgerrors.CodeValidation, "discount must be between 1 and 100, got %d", percent).
			WithDetails(map[string]string{"percent": "must be between 1 and 100"})
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	entry, err := l.lookup(barCode)
	if err != nil {
		return DiscountResult{}, err
	}
	factor := hundred.Sub(decimal.NewFromInt(int64(percent))).Div(hundred)
	result := DiscountResult{Old: entry.Price, New: entry.BasePrice.Mul(factor)}
	entry.Price = result.New
	return result, nil
}

// Reserve debits qty units of the first entry named name and records a
// reservation collected at pickupAt. Expired reservations are swept first.
func (l *Ledger) Reserve(now time.Time, name string, qty int, pickupAt time.Time) (Reservation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweepExpired(now)
	entry, err := l.sellable(now, name, qty)
	if err != nil {
		return Reservation{}, err
	}
	if !pickupAt.After(now) {
		return Reservation{}, pkgerrors.New(pkgerrors.CodePastPickup, "pickup time must be in the future").
			WithDetails(map[string]any{"pickup_at": pickupAt.Format(time.RFC3339)})
	}

	entry.Quantity -= qty
	reservation := newReservation(entry, qty, pickupAt, now)
	l.reservations = append(l.reservations, reservation)
	return reservation, nil
}

// Buy debits qty units of the first entry named name and returns the amount due.
func (l *Ledger) Buy(now time.Time, name string, qty int) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, err := l.sellable(now, name, qty)
	if err != nil {
		return decimal.Zero, err
	}
	entry.Quantity -= qty
	return entry.Price.Mul(decimal.NewFromInt(int64(qty))), nil
}

// CancelReservation drops a reservation and returns its units to stock when
// the entry still exists.
func (l *Ledger) CancelReservation(id string) (Reservation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, reservation := range l.reservations {
		if reservation.ID != id {
			continue
		}
		l.reservations = append(l.reservations[:i], l.reservations[i+1:]...)
		if entry, ok := l.entries[reservation.BarCode]; ok {
			entry.Quantity += reservation.Quantity
		}
		return reservation, nil
	}
	return Reservation{}, pkgerrors.Newf(pkgerrors.CodeNotFound, "reservation %s not found", id)
}

// SweepExpiredReservations drops reservations whose pickup time is at or before now.
func (l *Ledger) SweepExpiredReservations(now time.Time) []Reservation {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sweepExpired(now)
}

// Entry returns a copy of the entry with barCode.
func (l *Ledger) Entry(barCode string) (catalog.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, err := l.lookup(barCode)
	if err != nil {
		return catalog.Entry{}, err
	}
	return *entry, nil
}

// ReservedQuantity sums the units reserved against barCode.
func (l *Ledger) ReservedQuantity(barCode string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reservedQuantity(barCode)
}

// TotalValue is the value of unreserved stock across all entries.
func (l *Ledger) TotalValue() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := decimal.Zero
	for _, barCode := range l.order {
		total = total.Add(l.entries[barCode].TotalValue())
	}
	return total
}

// Snapshot copies out the entries in insertion order and the reservations.
func (l *Ledger) Snapshot() ([]catalog.Entry, []Reservation) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entries := make([]catalog.Entry, 0, len(l.order))
	for _, barCode := range l.order {
		entries = append(entries, *l.entries[barCode])
	}
	reservations := make([]Reservation, len(l.reservations))
	copy(reservations, l.reservations)
	return entries, reservations
}

// Restore replaces the ledger contents. Entries are checked structurally and
// bar codes must be unique; on error the ledger is left unchanged.
func (l *Ledger) Restore(entries []catalog.Entry, reservations []Reservation) error {
	arena := make(map[string]*catalog.Entry, len(entries))
	order := make([]string, 0, len(entries))
	for i := range entries {
		entry := entries[i]
		if err := entry.Validate(); err != nil {
			return err
		}
		if _, dup := arena[entry.BarCode]; dup {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "duplicate bar code %s", entry.BarCode)
		}
		arena[entry.BarCode] = &entry
		order = append(order, entry.BarCode)
	}
	for _, reservation := range reservations {
		if err := reservation.Validate(); err != nil {
			return err
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = arena
	l.order = order
	l.reservations = append([]Reservation(nil), reservations...)
	return nil
}

// sellable runs the shared reserve/buy checks in order: lookup, validity,
// quantity, stock.
func (l *Ledger) sellable(now time.Time, name string, qty int) (*catalog.Entry, error) {
	entry := l.findByName(name)
	if entry == nil {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "product %q not found", name)
	}
	if !entry.ValidAsOf(now) {
		return nil, expiredError(entry)
	}
	if qty <= 0 {
		return nil, pkgerrors.Newf(pkgerrors.CodeInvalidQuantity, "quantity must be positive, got %d", qty)
	}
	if qty > entry.Quantity {
		return nil, pkgerrors.Newf(pkgerrors.CodeOutOfStock, "only %d of %q available", entry.Quantity, entry.Name).
			WithDetails(map[string]any{"available": entry.Quantity, "requested": qty})
	}
	return entry, nil
}

func expiredError(entry *catalog.Entry) error {
	details := map[string]any{"bar_code": entry.BarCode}
	if date, ok := entry.Details.ValidityDate(); ok {
		details["valid_until"] = catalog.FormatDate(date)
	}
	message := "product %q has expired"
	if entry.Kind() == enums.ProductKindElectronic {
		message = "warranty for %q has expired"
	}
	return pkgerrors.Newf(pkgerrors.CodeExpired, message, entry.Name).WithDetails(details)
}

func (l *Ledger) findByName(name string) *catalog.Entry {
	for _, barCode := range l.order {
		if entry := l.entries[barCode]; entry.Name == name {
			return entry
		}
	}
	return nil
}

func (l *Ledger) lookup(barCode string) (*catalog.Entry, error) {
	entry, ok := l.entries[barCode]
	if !ok {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "product with bar code %s not found", barCode)
	}
	return entry, nil
}

func (l *Ledger) insert(entry *catalog.Entry) {
	l.entries[entry.BarCode] = entry
	l.order = append(l.order, entry.BarCode)
}

func (l *Ledger) remove(barCode string) {
	delete(l.entries, barCode)
	for i, code := range l.order {
		if code == barCode {
			l.order = append(l.order[:i], l.order[i+1:]...)
			return
		}
	}
}

func (l *Ledger) reservedQuantity(barCode string) int {
	total := 0
	for _, reservation := range l.reservations {
		if reservation.BarCode == barCode {
			total += reservation.Quantity
		}
	}
	return total
}

func (l *Ledger) sweepExpired(now time.Time) []Reservation {
	var expired []Reservation
	active := l.reservations[:0]
	for _, reservation := range l.reservations {
		if reservation.ExpiredAt(now) {
			expired = append(expired, reservation)
			continue
		}
		active = append(active, reservation)
	}
	l.reservations = active
	return expired
}
