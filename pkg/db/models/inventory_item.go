package models

import "time"

// InventoryItem tracks the available stock counter per SKU. AvailableQty is
// only ever mutated through guarded single-statement updates and can never
// go negative.
type InventoryItem struct {
	SKU          string    `gorm:"column:sku;primaryKey"`
	Name         string    `gorm:"column:name;not null;default:''"`
	AvailableQty int       `gorm:"column:available_qty;not null;default:0"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
