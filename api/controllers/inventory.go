package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/threadline-co/storefront-backend/api/responses"
	"github.com/threadline-co/storefront-backend/api/validators"
	"github.com/threadline-co/storefront-backend/pkg/db/models"
	pkgerrors "github.com/threadline-co/storefront-backend/pkg/errors"
	"github.com/threadline-co/storefront-backend/pkg/logger"
)

type inventoryService interface {
	Restock(ctx context.Context, sku string, qty int) (models.InventoryItem, error)
	LowStock(ctx context.Context, threshold int) ([]models.InventoryItem, error)
}

type restockRequest struct {
	Qty int `json:"qty" validate:"required,gt=0"`
}

// InventoryLowStock lists SKUs at or below the threshold, lowest first.
func InventoryLowStock(svc inventoryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		threshold, err := validators.ParseQueryInt(r, "threshold", 5, 0, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.LowStock(r.Context(), threshold)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items, "count": len(items)})
	}
}

// InventoryRestock increments available stock for a SKU, creating it if new.
func InventoryRestock(svc inventoryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		sku := strings.TrimSpace(chi.URLParam(r, "sku"))
		if sku == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "sku is required"))
			return
		}

		var req restockRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Restock(r.Context(), sku, req.Qty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}
