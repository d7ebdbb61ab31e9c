package inventory

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/threadline-co/storefront-backend/pkg/db/models"
	pkgerrors "github.com/threadline-co/storefront-backend/pkg/errors"
)

// Restock atomically increments available stock for the SKU, creating
// the row when the SKU is new. Returns the item after the increment.
func Restock(ctx context.Context, db *gorm.DB, sku string, qty int) (models.InventoryItem, error) {
	if db == nil {
		return models.InventoryItem{}, errors.New("db required")
	}
	if sku == "" {
		return models.InventoryItem{}, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if qty <= 0 {
		return models.InventoryItem{}, pkgerrors.New(pkgerrors.CodeValidation, "restock qty must be positive")
	}

	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "sku"}},
			DoUpdates: clause.Assignments(map[string]any{
				"available_qty": gorm.Expr("available_qty + ?", qty),
			}),
		}).
		Create(&models.InventoryItem{SKU: sku, AvailableQty: qty})
	if res.Error != nil {
		return models.InventoryItem{}, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "restocking sku")
	}

	var item models.InventoryItem
	if err := db.WithContext(ctx).Where("sku = ?", sku).First(&item).Error; err != nil {
		return models.InventoryItem{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading restocked sku")
	}
	return item, nil
}

// LowStock lists SKUs at or below the threshold, lowest first.
func LowStock(ctx context.Context, db *gorm.DB, threshold int) ([]models.InventoryItem, error) {
	if db == nil {
		return nil, errors.New("db required")
	}
	if threshold < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "threshold must be non-negative")
	}

	var items []models.InventoryItem
	err := db.WithContext(ctx).
		Where("available_qty <= ?", threshold).
		Order("available_qty ASC").
		Order("sku ASC").
		Find(&items).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing low stock")
	}
	return items, nil
}
