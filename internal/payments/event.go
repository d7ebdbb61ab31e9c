package payments

import (
	"encoding/json"
	"fmt"
	"strings"

	pkgerrors "github.com/threadline-co/storefront-backend/pkg/errors"
	"github.com/threadline-co/storefront-backend/pkg/enums"
)

// CompletionEvent is the provider's notification that a checkout session
// was paid. Immutable once parsed; the session id is the dedup key, not
// the event id (providers may redeliver under the same logical id).
type CompletionEvent struct {
	EventID       string              `json:"eventId"`
	SessionID     string              `json:"sessionId"`
	CustomerEmail string              `json:"customerEmail"`
	Currency      enums.Currency      `json:"currency"`
	PaymentStatus enums.PaymentStatus `json:"paymentStatus"`
	Items         []EventLineItem     `json:"items"`
}

// EventLineItem mirrors the metadata echoed through checkout session
// creation, so the event is self-describing.
type EventLineItem struct {
	SKU                 string `json:"sku"`
	Name                string `json:"name"`
	Quantity            int    `json:"quantity"`
	UnitPriceMinorUnits int64  `json:"unitPriceMinorUnits"`
}

// TotalMinorUnits sums quantity * unit price across all lines.
func (e CompletionEvent) TotalMinorUnits() int64 {
	var total int64
	for _, item := range e.Items {
		total += int64(item.Quantity) * item.UnitPriceMinorUnits
	}
	return total
}

// ParseEvent decodes and validates a raw completion payload. Returns
// CodeValidation errors for payloads that can never become processable.
func ParseEvent(raw []byte) (CompletionEvent, error) {
	var event rawEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return CompletionEvent{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed event payload")
	}
	return event.validate()
}

type rawEvent struct {
	EventID       string          `json:"eventId"`
	SessionID     string          `json:"sessionId"`
	CustomerEmail string          `json:"customerEmail"`
	Currency      string          `json:"currency"`
	PaymentStatus string          `json:"paymentStatus"`
	Items         []EventLineItem `json:"items"`
}

func (r rawEvent) validate() (CompletionEvent, error) {
	sessionID := strings.TrimSpace(r.SessionID)
	if sessionID == "" {
		return CompletionEvent{}, pkgerrors.New(pkgerrors.CodeValidation, "event is missing sessionId")
	}
	if len(r.Items) == 0 {
		return CompletionEvent{}, pkgerrors.New(pkgerrors.CodeValidation, "event has no line items")
	}
	for i, item := range r.Items {
		if strings.TrimSpace(item.SKU) == "" {
			return CompletionEvent{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d is missing sku", i))
		}
		if item.Quantity <= 0 {
			return CompletionEvent{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d has non-positive quantity", i))
		}
		if item.UnitPriceMinorUnits < 0 {
			return CompletionEvent{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d has negative unit price", i))
		}
	}

	currency, err := enums.ParseCurrency(r.Currency)
	if err != nil {
		return CompletionEvent{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
	}
	paymentStatus, err := enums.ParsePaymentStatus(r.PaymentStatus)
	if err != nil {
		return CompletionEvent{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status")
	}

	return CompletionEvent{
		EventID:       strings.TrimSpace(r.EventID),
		SessionID:     sessionID,
		CustomerEmail: strings.TrimSpace(r.CustomerEmail),
		Currency:      currency,
		PaymentStatus: paymentStatus,
		Items:         r.Items,
	}, nil
}
