package snapshot

import (
	"fmt"
	"time"

	"github.com/angelmondragon/warehouse-backend/internal/catalog"
	"github.com/angelmondragon/warehouse-backend/internal/warehouse"
	"github.com/angelmondragon/warehouse-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

const formatVersion = 1

type entriesFile struct {
	Version int           `yaml:"version"`
	Entries []entryRecord `yaml:"entries"`
}

type reservationsFile struct {
	Version      int                 `yaml:"version"`
	Reservations []reservationRecord `yaml:"reservations"`
}

type entryRecord struct {
	BarCode        string            `yaml:"bar_code"`
	Kind           enums.ProductKind `yaml:"kind"`
	Name           string            `yaml:"name"`
	Price          string            `yaml:"price"`
	BasePrice      string            `yaml:"base_price"`
	Quantity       int               `yaml:"quantity"`
	Description    string            `yaml:"description,omitempty"`
	CreatedAt      time.Time         `yaml:"created_at"`
	ExpirationDate string            `yaml:"expiration_date,omitempty"`
	WarrantyDate   string            `yaml:"warranty_date,omitempty"`
	Size           string            `yaml:"size,omitempty"`
	Color          string            `yaml:"color,omitempty"`
	Material       string            `yaml:"material,omitempty"`
}

type reservationRecord struct {
	ID          string            `yaml:"id"`
	BarCode     string            `yaml:"bar_code"`
	ProductName string            `yaml:"product_name"`
	Kind        enums.ProductKind `yaml:"kind"`
	Quantity    int               `yaml:"quantity"`
	PickupAt    time.Time         `yaml:"pickup_at"`
	CreatedAt   time.Time         `yaml:"created_at"`
}

func newEntryRecord(entry catalog.Entry) entryRecord {
	record := entryRecord{
		BarCode:     entry.BarCode,
		Kind:        entry.Kind(),
		Name:        entry.Name,
		Price:       entry.Price.String(),
		BasePrice:   entry.BasePrice.String(),
		Quantity:    entry.Quantity,
		Description: entry.Description,
		CreatedAt:   entry.CreatedAt,
	}
	switch d := entry.Details.(type) {
	case catalog.Food:
		record.ExpirationDate = catalog.FormatDate(d.ExpirationDate)
	case catalog.Electronic:
		record.WarrantyDate = catalog.FormatDate(d.WarrantyDate)
	case catalog.Clothing:
		record.Size = d.Size
		record.Color = d.Color
		record.Material = d.Material
	}
	return record
}

func (r entryRecord) toEntry() (catalog.Entry, error) {
	price, err := decimal.NewFromString(r.Price)
	if err != nil {
		return catalog.Entry{}, fmt.Errorf("entry %s: price: %w", r.BarCode, err)
	}
	basePrice, err := decimal.NewFromString(r.BasePrice)
	if err != nil {
		return catalog.Entry{}, fmt.Errorf("entry %s: base price: %w", r.BarCode, err)
	}

	var details catalog.Variant
	switch r.Kind {
	case enums.ProductKindFood:
		date, err := catalog.ParseDate(r.ExpirationDate)
		if err != nil {
			return catalog.Entry{}, fmt.Errorf("entry %s: expiration date: %w", r.BarCode, err)
		}
		details = catalog.Food{ExpirationDate: date}
	case enums.ProductKindElectronic:
		date, err := catalog.ParseDate(r.WarrantyDate)
		if err != nil {
			return catalog.Entry{}, fmt.Errorf("entry %s: warranty date: %w", r.BarCode, err)
		}
		details = catalog.Electronic{WarrantyDate: date}
	case enums.ProductKindClothing:
		details = catalog.Clothing{Size: r.Size, Color: r.Color, Material: r.Material}
	default:
		return catalog.Entry{}, fmt.Errorf("entry %s: unknown kind %q", r.BarCode, r.Kind)
	}

	return catalog.Entry{
		BarCode:     r.BarCode,
		Name:        r.Name,
		Price:       price,
		BasePrice:   basePrice,
		Quantity:    r.Quantity,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		Details:     details,
	}, nil
}

func newReservationRecord(r warehouse.Reservation) reservationRecord {
	return reservationRecord{
		ID:          r.ID,
		BarCode:     r.BarCode,
		ProductName: r.ProductName,
		Kind:        r.Kind,
		Quantity:    r.Quantity,
		PickupAt:    r.PickupAt,
		CreatedAt:   r.CreatedAt,
	}
}

func (r reservationRecord) toReservation() warehouse.Reservation {
	return warehouse.Reservation{
		ID:          r.ID,
		BarCode:     r.BarCode,
		ProductName: r.ProductName,
		Kind:        r.Kind,
		Quantity:    r.Quantity,
		PickupAt:    r.PickupAt,
		CreatedAt:   r.CreatedAt,
	}
}
