package warehouse

import (
	"time"

	"github.com/angelmondragon/warehouse-backend/internal/catalog"
	"github.com/angelmondragon/warehouse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/warehouse-backend/pkg/errors"
	"github.com/google/uuid"
)

// Reservation holds units already debited from an entry until pickup. The
// product name and kind are captured at reservation time so the record still
// renders after its entry is deleted.
type Reservation struct {
	ID          string
	BarCode     string
	ProductName string
	Kind        enums.ProductKind
	Quantity    int
	PickupAt    time.Time
	CreatedAt   time.Time
}

func newReservation(entry *catalog.Entry, qty int, pickupAt, now time.Time) Reservation {
	return Reservation{
		ID:          uuid.NewString(),
		BarCode:     entry.BarCode,
		ProductName: entry.Name,
		Kind:        entry.Kind(),
		Quantity:    qty,
		PickupAt:    pickupAt,
		CreatedAt:   now,
	}
}

// ExpiredAt reports whether the pickup time has been reached.
func (r Reservation) ExpiredAt(now time.Time) bool {
	return !r.PickupAt.After(now)
}

// Validate checks a reservation loaded from storage.
func (r Reservation) Validate() error {
	switch {
	case r.ID == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "reservation id is required")
	case r.BarCode == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "reservation bar code is required").WithDetails(map[string]any{"id": r.ID})
	case r.Quantity <= 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "reserved quantity must be positive").WithDetails(map[string]any{"id": r.ID})
	case r.PickupAt.IsZero():
		return pkgerrors.New(pkgerrors.CodeValidation, "pickup time is required").WithDetails(map[string]any{"id": r.ID})
	}
	return nil
}
