package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/threadline-co/storefront-backend/internal/inventory"
	"github.com/threadline-co/storefront-backend/internal/payments"
	dbpkg "github.com/threadline-co/storefront-backend/pkg/db"
	"github.com/threadline-co/storefront-backend/pkg/db/models"
	"github.com/threadline-co/storefront-backend/pkg/enums"
	pkgerrors "github.com/threadline-co/storefront-backend/pkg/errors"
)

// Materialize turns a verified completion event plus its reservation
// outcome into the durable order row and line items. Orders with any
// short line are seeded needs_review so a human reconciles the paid-but-
// unreserved quantity; fully reserved orders start pending. The
// reconciler never mutates the order after this insert.
func Materialize(ctx context.Context, tx *gorm.DB, event payments.CompletionEvent, reservation []inventory.ReservationResult) (*models.Order, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	if len(reservation) != len(event.Items) {
		return nil, pkgerrors.New(pkgerrors.CodeInternal,
			fmt.Sprintf("reservation has %d lines for %d items", len(reservation), len(event.Items)))
	}

	status := enums.OrderStatusPending
	items := make([]models.OrderLineItem, 0, len(event.Items))
	for i, line := range event.Items {
		result := reservation[i]
		if result.SKU != line.SKU {
			return nil, pkgerrors.New(pkgerrors.CodeInternal,
				fmt.Sprintf("reservation line %d is %s, want %s", i, result.SKU, line.SKU))
		}
		if result.Short() {
			status = enums.OrderStatusNeedsReview
		}
		items = append(items, models.OrderLineItem{
			ID:             uuid.New(),
			SKU:            line.SKU,
			Name:           line.Name,
			UnitPriceCents: line.UnitPriceMinorUnits,
			Qty:            line.Quantity,
			ReservedQty:    result.Reserved,
		})
	}

	order := &models.Order{
		ID:            uuid.New(),
		SessionID:     event.SessionID,
		CustomerEmail: event.CustomerEmail,
		TotalCents:    event.TotalMinorUnits(),
		Currency:      event.Currency,
		PaymentStatus: event.PaymentStatus,
		OrderStatus:   status,
		Items:         items,
	}

	if _, err := NewRepository(tx).Create(ctx, order); err != nil {
		if dbpkg.IsUniqueViolation(err, "idx_orders_session_id") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order already exists for session")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persisting order")
	}
	return order, nil
}
