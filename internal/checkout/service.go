package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/threadline-co/storefront-backend/pkg/config"
	pkgerrors "github.com/threadline-co/storefront-backend/pkg/errors"
	"github.com/threadline-co/storefront-backend/pkg/logger"
)

// SessionItem is one purchasable line in a checkout session request.
type SessionItem struct {
	SKU                 string `json:"sku" validate:"required"`
	Name                string `json:"name" validate:"required"`
	Quantity            int    `json:"quantity" validate:"required,gt=0"`
	UnitPriceMinorUnits int64  `json:"unitPriceMinorUnits" validate:"required,gt=0"`
}

// SessionRequest creates a provider checkout session.
type SessionRequest struct {
	Items      []SessionItem `json:"items" validate:"required,min=1,dive"`
	Currency   string        `json:"currency" validate:"omitempty,oneof=usd cad USD CAD"`
	SuccessURL string        `json:"successUrl" validate:"omitempty,url"`
	CancelURL  string        `json:"cancelUrl" validate:"omitempty,url"`
}

// Session is the created provider session handed back to the storefront.
type Session struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// Service creates provider checkout sessions. The line items are echoed
// into session metadata as JSON so the completion webhook payload is
// self-describing and the reconciler needs no catalog lookup.
type Service struct {
	client StripeSessionClient
	cfg    config.CheckoutConfig
	logg   *logger.Logger
}

func NewService(client StripeSessionClient, cfg config.CheckoutConfig, logg *logger.Logger) (*Service, error) {
	if client == nil {
		return nil, errors.New("stripe session client is required")
	}
	return &Service{client: client, cfg: cfg, logg: logg}, nil
}

// CreateSession builds and creates the provider checkout session.
func (s *Service) CreateSession(ctx context.Context, req SessionRequest) (Session, error) {
	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "usd"
	}

	successURL := req.SuccessURL
	if successURL == "" {
		successURL = s.cfg.SuccessURL
	}
	cancelURL := req.CancelURL
	if cancelURL == "" {
		cancelURL = s.cfg.CancelURL
	}
	if successURL == "" || cancelURL == "" {
		return Session{}, pkgerrors.New(pkgerrors.CodeValidation, "success and cancel urls are required")
	}

	metadata, err := json.Marshal(req.Items)
	if err != nil {
		return Session{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding item metadata")
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items))
	for _, item := range req.Items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(int64(item.Quantity)),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(item.UnitPriceMinorUnits),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lineItems,
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		Metadata: map[string]string{
			"items": string(metadata),
		},
	}

	session, err := s.client.CreateSession(ctx, params)
	if err != nil {
		return Session{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating checkout session")
	}

	if s.logg != nil {
		fields := map[string]any{"session_id": session.ID, "line_items": len(req.Items)}
		s.logg.Info(s.logg.WithFields(ctx, fields), "checkout session created")
	}
	return Session{SessionID: session.ID, URL: session.URL}, nil
}
