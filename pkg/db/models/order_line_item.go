package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderLineItem captures the snapshot of each purchased item. Name and unit
// price are denormalized at order time so later catalog edits never rewrite
// history. ReservedQty < Qty marks a stock shortfall on that line.
type OrderLineItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	SKU            string    `gorm:"column:sku;not null"`
	Name           string    `gorm:"column:name;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	Qty            int       `gorm:"column:qty;not null"`
	ReservedQty    int       `gorm:"column:reserved_qty;not null;default:0"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

// Short reports whether this line could not be fully reserved.
func (i OrderLineItem) Short() bool {
	return i.ReservedQty < i.Qty
}
