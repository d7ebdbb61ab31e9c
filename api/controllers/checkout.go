package controllers

import (
	"context"
	"net/http"

	"github.com/threadline-co/storefront-backend/api/responses"
	"github.com/threadline-co/storefront-backend/api/validators"
	"github.com/threadline-co/storefront-backend/internal/checkout"
	pkgerrors "github.com/threadline-co/storefront-backend/pkg/errors"
	"github.com/threadline-co/storefront-backend/pkg/logger"
)

type checkoutService interface {
	CreateSession(ctx context.Context, req checkout.SessionRequest) (checkout.Session, error)
}

// CreateCheckoutSession opens a hosted payment session for the submitted cart.
func CreateCheckoutSession(svc checkoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var req checkout.SessionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.CreateSession(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}
