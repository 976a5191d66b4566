package sqlstore

import (
	"fmt"

	"github.com/angelmondragon/warehouse-backend/internal/catalog"
	"github.com/angelmondragon/warehouse-backend/internal/warehouse"
	"github.com/angelmondragon/warehouse-backend/pkg/db/models"
	"github.com/angelmondragon/warehouse-backend/pkg/enums"
)

func toEntryModel(position int, entry catalog.Entry) models.CatalogEntry {
	record := models.CatalogEntry{
		BarCode:     entry.BarCode,
		Position:    position,
		Kind:        entry.Kind(),
		Name:        entry.Name,
		Price:       entry.Price,
		BasePrice:   entry.BasePrice,
		Quantity:    entry.Quantity,
		Description: entry.Description,
		CreatedAt:   entry.CreatedAt,
	}
	switch d := entry.Details.(type) {
	case catalog.Food:
		record.ExpirationDate = ptr(catalog.FormatDate(d.ExpirationDate))
	case catalog.Electronic:
		record.WarrantyDate = ptr(catalog.FormatDate(d.WarrantyDate))
	case catalog.Clothing:
		record.Size = ptr(d.Size)
		record.Color = ptr(d.Color)
		record.Material = ptr(d.Material)
	}
	return record
}

func fromEntryModel(record models.CatalogEntry) (catalog.Entry, error) {
	var details catalog.Variant
	switch record.Kind {
	case enums.ProductKindFood:
		date, err := catalog.ParseDate(deref(record.ExpirationDate))
		if err != nil {
			return catalog.Entry{}, fmt.Errorf("entry %s: expiration date: %w", record.BarCode, err)
		}
		details = catalog.Food{ExpirationDate: date}
	case enums.ProductKindElectronic:
		date, err := catalog.ParseDate(deref(record.WarrantyDate))
		if err != nil {
			return catalog.Entry{}, fmt.Errorf("entry %s: warranty date: %w", record.BarCode, err)
		}
		details = catalog.Electronic{WarrantyDate: date}
	case enums.ProductKindClothing:
		details = catalog.Clothing{
			Size:     deref(record.Size),
			Color:    deref(record.Color),
			Material: deref(record.Material),
		}
	default:
		return catalog.Entry{}, fmt.Errorf("entry %s: unknown kind %q", record.BarCode, record.Kind)
	}

	return catalog.Entry{
		BarCode:     record.BarCode,
		Name:        record.Name,
		Price:       record.Price,
		BasePrice:   record.BasePrice,
		Quantity:    record.Quantity,
		Description: record.Description,
		CreatedAt:   record.CreatedAt.UTC(),
		Details:     details,
	}, nil
}

func toReservationModel(position int, r warehouse.Reservation) models.Reservation {
	return models.Reservation{
		ID:          r.ID,
		Position:    position,
		BarCode:     r.BarCode,
		ProductName: r.ProductName,
		Kind:        r.Kind,
		Quantity:    r.Quantity,
		PickupAt:    r.PickupAt,
		CreatedAt:   r.CreatedAt,
	}
}

func fromReservationModel(record models.Reservation) warehouse.Reservation {
	return warehouse.Reservation{
		ID:          record.ID,
		BarCode:     record.BarCode,
		ProductName: record.ProductName,
		Kind:        record.Kind,
		Quantity:    record.Quantity,
		PickupAt:    record.PickupAt.UTC(),
		CreatedAt:   record.CreatedAt.UTC(),
	}
}

func ptr(value string) *string {
	return &value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
