package warehouse

import (
	"time"

	"github.com/angelmondragon/warehouse-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Row is one line of the combined stock and reservation listing. For a
// reservation row Quantity is the reserved amount and PickupAt is set.
// Price is null for reservations whose entry no longer exists.
type Row struct {
	Kind        enums.ProductKind
	Name        string
	Price       decimal.NullDecimal
	Quantity    int
	Description string
	BarCode     string
	ValidUntil  time.Time
	PickupAt    time.Time
	Reserved    bool
}

// ListEntries projects entries, then reservations, into rows. A nil filter
// lists every kind.
func (l *Ledger) ListEntries(filter *enums.ProductKind) []Row {
	l.mu.Lock()
	defer l.mu.Unlock()

	match := func(kind enums.ProductKind) bool {
		return filter == nil || *filter == kind
	}

	rows := make([]Row, 0, len(l.order)+len(l.reservations))
	for _, barCode := range l.order {
		entry := l.entries[barCode]
		if !match(entry.Kind()) {
			continue
		}
		row := Row{
			Kind:        entry.Kind(),
			Name:        entry.Name,
			Price:       decimal.NewNullDecimal(entry.Price),
			Quantity:    entry.Quantity,
			Description: entry.Description,
			BarCode:     entry.BarCode,
		}
		if date, ok := entry.Details.ValidityDate(); ok {
			row.ValidUntil = date
		}
		rows = append(rows, row)
	}

	for _, reservation := range l.reservations {
		if !match(reservation.Kind) {
			continue
		}
		row := Row{
			Kind:     reservation.Kind,
			Name:     reservation.ProductName,
			Quantity: reservation.Quantity,
			BarCode:  reservation.BarCode,
			PickupAt: reservation.PickupAt,
			Reserved: true,
		}
		if entry, ok := l.entries[reservation.BarCode]; ok {
			row.Name = entry.Name
			row.Price = decimal.NewNullDecimal(entry.Price)
			row.Description = entry.Description
			if date, ok := entry.Details.ValidityDate(); ok {
				row.ValidUntil = date
			}
		}
		rows = append(rows, row)
	}
	return rows
}
