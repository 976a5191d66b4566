package models

import (
	"time"

	"github.com/angelmondragon/warehouse-backend/pkg/enums"
)

// Reservation holds units debited from a catalog entry until pickup. BarCode
// is not a foreign key: a reservation outlives the deletion of its entry.
type Reservation struct {
	ID          string            `gorm:"column:id;primaryKey"`
	Position    int               `gorm:"column:position;not null"`
	BarCode     string            `gorm:"column:bar_code;not null;index"`
	ProductName string            `gorm:"column:product_name;not null"`
	Kind        enums.ProductKind `gorm:"column:kind;not null"`
	Quantity    int               `gorm:"column:quantity;not null"`
	PickupAt    time.Time         `gorm:"column:pickup_at;not null"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime:false"`
}

func (Reservation) TableName() string { return "reservations" }
