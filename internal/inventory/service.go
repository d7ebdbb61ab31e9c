package inventory

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/threadline-co/storefront-backend/pkg/db/models"
)

// AdminService binds the stock operations to a connection for the
// HTTP layer. Reservation stays transaction-scoped and is not exposed here.
type AdminService struct {
	db *gorm.DB
}

func NewAdminService(db *gorm.DB) (*AdminService, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	return &AdminService{db: db}, nil
}

func (s *AdminService) Restock(ctx context.Context, sku string, qty int) (models.InventoryItem, error) {
	return Restock(ctx, s.db, sku, qty)
}

func (s *AdminService) LowStock(ctx context.Context, threshold int) ([]models.InventoryItem, error) {
	return LowStock(ctx, s.db, threshold)
}
