package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/threadline-co/storefront-backend/internal/inventory"
	"github.com/threadline-co/storefront-backend/internal/orders"
	"github.com/threadline-co/storefront-backend/internal/payments"
	"github.com/threadline-co/storefront-backend/internal/processed"
	"github.com/threadline-co/storefront-backend/pkg/enums"
	pkgerrors "github.com/threadline-co/storefront-backend/pkg/errors"
	"github.com/threadline-co/storefront-backend/pkg/logger"
	"github.com/threadline-co/storefront-backend/pkg/metrics"
	"github.com/threadline-co/storefront-backend/pkg/outbox"
)

// TxRunner runs a function inside one database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Outcome is the result of reconciling one delivery.
type Outcome struct {
	OrderID     uuid.UUID
	Duplicate   bool
	NeedsReview bool
}

// Service drives a completion event from raw bytes to a durable order:
// verify, claim the session, reserve stock, materialize, queue the
// outbox record. Everything after verification runs in ONE transaction,
// so a crash at any point either commits the whole outcome or leaves
// nothing, and the provider's redelivery then starts clean.
type Service struct {
	db       TxRunner
	verifier *payments.Verifier
	events   *outbox.Service
	metrics  *metrics.WebhookMetrics
	timeout  time.Duration
	logg     *logger.Logger
}

// NewService builds the orchestrator. A timeout of 0 disables the
// per-delivery deadline.
func NewService(db TxRunner, verifier *payments.Verifier, events *outbox.Service, m *metrics.WebhookMetrics, timeout time.Duration, logg *logger.Logger) (*Service, error) {
	if db == nil {
		return nil, errors.New("tx runner is required")
	}
	if verifier == nil {
		return nil, errors.New("verifier is required")
	}
	return &Service{
		db:       db,
		verifier: verifier,
		events:   events,
		metrics:  m,
		timeout:  timeout,
		logg:     logg,
	}, nil
}

// Process reconciles one raw webhook delivery. A stalled database cannot
// pin the request past the configured timeout; the aborted transaction
// leaves no partial state and the provider redelivers.
func (s *Service) Process(ctx context.Context, rawPayload []byte, signatureHeader string) (Outcome, error) {
	start := time.Now()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	event, err := s.verifier.Verify(rawPayload, signatureHeader)
	if err != nil {
		s.observe(metrics.OutcomeRejected, start)
		return Outcome{}, err
	}

	if s.logg != nil {
		ctx = s.logg.WithSessionID(ctx, event.SessionID)
	}

	var outcome Outcome
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		outcome, txErr = s.reconcile(ctx, tx, event)
		return txErr
	})
	if err != nil {
		s.observe(metrics.OutcomeFailed, start)
		if s.logg != nil {
			s.logg.Error(ctx, "reconciliation failed", err)
		}
		return Outcome{}, err
	}

	switch {
	case outcome.Duplicate:
		s.observe(metrics.OutcomeDuplicate, start)
		if s.logg != nil {
			s.logg.Info(s.logg.WithOrderID(ctx, outcome.OrderID.String()), "duplicate delivery acknowledged")
		}
	default:
		s.observe(metrics.OutcomeProcessed, start)
		if s.logg != nil {
			fields := map[string]any{"needs_review": outcome.NeedsReview}
			logCtx := s.logg.WithOrderID(ctx, outcome.OrderID.String())
			s.logg.Info(s.logg.WithFields(logCtx, fields), "order reconciled")
		}
	}
	return outcome, nil
}

func (s *Service) reconcile(ctx context.Context, tx *gorm.DB, event payments.CompletionEvent) (Outcome, error) {
	claim, err := processed.Claim(ctx, tx, event.SessionID)
	if err != nil {
		return Outcome{}, err
	}

	if !claim.IsNew {
		if claim.OrderID != nil {
			return Outcome{OrderID: *claim.OrderID, Duplicate: true}, nil
		}
		// Claim exists without an order: a prior attempt won the insert
		// but its transaction never completed materialization (crashed
		// writer, operator repair). Finish the job instead of reporting
		// a false duplicate.
		existing, findErr := orders.NewRepository(tx).FindBySessionID(ctx, event.SessionID)
		if findErr == nil {
			if completeErr := processed.Complete(ctx, tx, event.SessionID, existing.ID); completeErr != nil {
				return Outcome{}, completeErr
			}
			return Outcome{OrderID: existing.ID, Duplicate: true}, nil
		}
		if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return Outcome{}, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "looking up order for claimed session")
		}
	}

	requests := make([]inventory.ReservationRequest, 0, len(event.Items))
	for _, item := range event.Items {
		requests = append(requests, inventory.ReservationRequest{SKU: item.SKU, Qty: item.Quantity})
	}
	reservation, err := inventory.Reserve(ctx, tx, requests)
	if err != nil {
		return Outcome{}, err
	}

	order, err := orders.Materialize(ctx, tx, event, reservation)
	if err != nil {
		return Outcome{}, err
	}

	if err := processed.Complete(ctx, tx, event.SessionID, order.ID); err != nil {
		return Outcome{}, err
	}

	if s.events != nil {
		eventType := enums.EventOrderCreated
		if order.OrderStatus == enums.OrderStatusNeedsReview {
			eventType = enums.EventOrderNeedsReview
		}
		if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID.String(),
			Version:       1,
			Data: map[string]any{
				"orderId":     order.ID.String(),
				"sessionId":   order.SessionID,
				"orderStatus": order.OrderStatus,
				"totalCents":  order.TotalCents,
				"currency":    order.Currency,
			},
		}); err != nil {
			return Outcome{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queueing order event")
		}
	}

	return Outcome{
		OrderID:     order.ID,
		NeedsReview: order.OrderStatus == enums.OrderStatusNeedsReview,
	}, nil
}

func (s *Service) observe(outcome string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncDelivery(outcome)
	s.metrics.ObserveReconcile(outcome, time.Since(start))
}
