package models

import (
	"time"

	"github.com/angelmondragon/warehouse-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// CatalogEntry is one stock-keeping unit. Variant columns are null when they
// do not apply to the kind; dates are stored as YYYY-MM-DD text.
type CatalogEntry struct {
	BarCode        string            `gorm:"column:bar_code;primaryKey"`
	Position       int               `gorm:"column:position;not null"`
	Kind           enums.ProductKind `gorm:"column:kind;not null"`
	Name           string            `gorm:"column:name;not null"`
	Price          decimal.Decimal   `gorm:"column:price;type:text;not null"`
	BasePrice      decimal.Decimal   `gorm:"column:base_price;type:text;not null"`
	Quantity       int               `gorm:"column:quantity;not null;default:0"`
	Description    string            `gorm:"column:description;not null;default:''"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime:false"`
	ExpirationDate *string           `gorm:"column:expiration_date"`
	WarrantyDate   *string           `gorm:"column:warranty_date"`
	Size           *string           `gorm:"column:size"`
	Color          *string           `gorm:"column:color"`
	Material       *string           `gorm:"column:material"`
}

func (CatalogEntry) TableName() string { return "catalog_entries" }
