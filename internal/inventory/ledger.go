package inventory

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/threadline-co/storefront-backend/pkg/db/models"
	pkgerrors "github.com/threadline-co/storefront-backend/pkg/errors"
)

// clampRetries bounds the read-then-guarded-decrement loop used when a
// full reservation fails and the remainder must be clamped. Each retry
// only happens when a concurrent checkout changed the counter between
// the read and the guarded update.
const clampRetries = 3

// ReservationRequest asks for qty units of a SKU.
type ReservationRequest struct {
	SKU string
	Qty int
}

// ReservationResult reports the per-line outcome. Reserved < Requested
// marks a shortfall; Remaining is the stock level after the decrement.
type ReservationResult struct {
	SKU       string
	Requested int
	Reserved  int
	Remaining int
}

// Short reports whether the line could not be fully reserved.
func (r ReservationResult) Short() bool {
	return r.Reserved < r.Requested
}

// Reserve decrements stock for each line. Every decrement is a single
// guarded UPDATE (available_qty >= n) so two checkouts racing on the
// same SKU can never both take the last unit. Lines that cannot be
// fully served take whatever remains instead of failing the batch;
// applied decrements for other lines are never rolled back here.
func Reserve(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) ([]ReservationResult, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}

	results := make([]ReservationResult, 0, len(requests))
	for _, req := range requests {
		if req.SKU == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation line is missing sku")
		}
		if req.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("reservation qty for %s must be positive", req.SKU))
		}

		result, err := reserveLine(ctx, tx, req)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

func reserveLine(ctx context.Context, tx *gorm.DB, req ReservationRequest) (ReservationResult, error) {
	result := ReservationResult{SKU: req.SKU, Requested: req.Qty}

	// fast path: full decrement
	taken, err := guardedDecrement(ctx, tx, req.SKU, req.Qty)
	if err != nil {
		return ReservationResult{}, err
	}
	if taken {
		result.Reserved = req.Qty
	} else {
		// shortfall: clamp to whatever is left
		reserved, err := clampDecrement(ctx, tx, req.SKU, req.Qty)
		if err != nil {
			return ReservationResult{}, err
		}
		result.Reserved = reserved
	}

	remaining, err := availableQty(ctx, tx, req.SKU)
	if err != nil {
		return ReservationResult{}, err
	}
	result.Remaining = remaining
	return result, nil
}

// guardedDecrement runs the atomic compare-and-decrement. Returns false
// when stock was insufficient (no row touched).
func guardedDecrement(ctx context.Context, tx *gorm.DB, sku string, qty int) (bool, error) {
	res := tx.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("sku = ? AND available_qty >= ?", sku, qty).
		UpdateColumn("available_qty", gorm.Expr("available_qty - ?", qty))
	if res.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "decrementing stock")
	}
	return res.RowsAffected == 1, nil
}

// clampDecrement takes whatever stock remains, up to want. The read and
// the guarded update are separate statements, so the loop retries when a
// concurrent decrement invalidates the read.
func clampDecrement(ctx context.Context, tx *gorm.DB, sku string, want int) (int, error) {
	for attempt := 0; attempt < clampRetries; attempt++ {
		current, err := availableQty(ctx, tx, sku)
		if err != nil {
			return 0, err
		}
		if current <= 0 {
			return 0, nil
		}

		take := current
		if take > want {
			take = want
		}
		taken, err := guardedDecrement(ctx, tx, sku, take)
		if err != nil {
			return 0, err
		}
		if taken {
			return take, nil
		}
	}
	// lost every race; record a full shortfall rather than spinning
	return 0, nil
}

func availableQty(ctx context.Context, tx *gorm.DB, sku string) (int, error) {
	var item models.InventoryItem
	err := tx.WithContext(ctx).
		Where("sku = ?", sku).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading stock level")
	}
	return item.AvailableQty, nil
}
