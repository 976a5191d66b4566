package catalog

import (
	"fmt"
	"time"

	"github.com/angelmondragon/warehouse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/warehouse-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// Entry is one stock-keeping unit. It is a passive record: construction is
// validated by New and every later mutation belongs to the ledger that owns it.
type Entry struct {
	BarCode     string
	Name        string
	Price       decimal.Decimal
	BasePrice   decimal.Decimal
	Quantity    int
	Description string
	CreatedAt   time.Time
	Details     Variant
}

// Variant carries the type-specific data and validity rule of an entry.
type Variant interface {
	Kind() enums.ProductKind
	// ValidAsOf reports whether the entry may still be sold or reserved.
	ValidAsOf(asOf time.Time) bool
	// ValidityDate returns the expiration or warranty date when the variant has one.
	ValidityDate() (time.Time, bool)
	variant()
}

// Food expires after its expiration date.
type Food struct {
	ExpirationDate time.Time
}

func (Food) Kind() enums.ProductKind { return enums.ProductKindFood }

// IsExpired reports whether the calendar day of asOf is after the expiration date.
func (f Food) IsExpired(asOf time.Time) bool {
	return Day(asOf).After(f.ExpirationDate)
}

func (f Food) ValidAsOf(asOf time.Time) bool { return !f.IsExpired(asOf) }

func (f Food) ValidityDate() (time.Time, bool) { return f.ExpirationDate, true }

func (Food) variant() {}

// Electronic stays sellable while under warranty.
type Electronic struct {
	WarrantyDate time.Time
}

func (Electronic) Kind() enums.ProductKind { return enums.ProductKindElectronic }

// IsUnderWarranty reports whether the calendar day of asOf is on or before the warranty date.
func (e Electronic) IsUnderWarranty(asOf time.Time) bool {
	return !Day(asOf).After(e.WarrantyDate)
}

func (e Electronic) ValidAsOf(asOf time.Time) bool { return e.IsUnderWarranty(asOf) }

func (e Electronic) ValidityDate() (time.Time, bool) { return e.WarrantyDate, true }

func (Electronic) variant() {}

// Clothing never expires.
type Clothing struct {
	Size     string
	Color    string
	Material string
}

func (Clothing) Kind() enums.ProductKind { return enums.ProductKindClothing }

func (Clothing) ValidAsOf(time.Time) bool { return true }

func (Clothing) ValidityDate() (time.Time, bool) { return time.Time{}, false }

func (Clothing) variant() {}

// Kind returns the variant kind, or "" for an entry without details.
func (e *Entry) Kind() enums.ProductKind {
	if e == nil || e.Details == nil {
		return ""
	}
	return e.Details.Kind()
}

// ValidAsOf delegates to the variant's validity rule.
func (e *Entry) ValidAsOf(asOf time.Time) bool {
	if e == nil || e.Details == nil {
		return false
	}
	return e.Details.ValidAsOf(asOf)
}

// TotalValue returns price * quantity.
func (e *Entry) TotalValue() decimal.Decimal {
	return e.Price.Mul(decimal.NewFromInt(int64(e.Quantity)))
}

// Clone returns a detached copy. Variants are values, so the copy shares nothing.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	clone := *e
	return &clone
}

// Validate checks the structural invariants of an entry that did not come
// through New, such as one loaded from storage. Dates are not compared with
// the current day: a loaded food entry may legitimately be expired.
func (e *Entry) Validate() error {
	switch {
	case e == nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "entry is nil")
	case e.BarCode == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "bar code is required")
	case e.Name == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required").WithDetails(map[string]any{"bar_code": e.BarCode})
	case !e.BasePrice.IsPositive():
		return pkgerrors.New(pkgerrors.CodeValidation, "base price must be positive").WithDetails(map[string]any{"bar_code": e.BarCode})
	case e.Price.IsNegative():
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative").WithDetails(map[string]any{"bar_code": e.BarCode})
	case e.Quantity < 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative").WithDetails(map[string]any{"bar_code": e.BarCode})
	case e.Details == nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "product details are required").WithDetails(map[string]any{"bar_code": e.BarCode})
	}
	return nil
}

func (e *Entry) String() string {
	switch d := e.Details.(type) {
	case Food:
		return fmt.Sprintf("%s (%d pcs, exp: %s)", e.Name, e.Quantity, FormatDate(d.ExpirationDate))
	case Electronic:
		return fmt.Sprintf("%s (%d pcs, warranty: %s)", e.Name, e.Quantity, FormatDate(d.WarrantyDate))
	case Clothing:
		return fmt.Sprintf("%s (%s, %s, %d pcs)", e.Name, d.Size, d.Color, e.Quantity)
	}
	return fmt.Sprintf("%s (%d pcs @ %s each)", e.Name, e.Quantity, e.Price.StringFixed(2))
}
