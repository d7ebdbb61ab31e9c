package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/threadline-co/storefront-backend/pkg/db/models"
	"github.com/threadline-co/storefront-backend/pkg/enums"
	pkgerrors "github.com/threadline-co/storefront-backend/pkg/errors"
	"github.com/threadline-co/storefront-backend/pkg/logger"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// StatusUpdate carries the administrative status mutation. Nil fields
// are left untouched.
type StatusUpdate struct {
	OrderStatus   *string
	PaymentStatus *string
}

// Service is the admin surface over reconciler-produced orders.
type Service struct {
	repo Repository
	logg *logger.Logger
}

func NewService(repo Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg}
}

// List returns orders newest first, optionally filtered by status.
func (s *Service) List(ctx context.Context, statusFilter string, limit, offset int) ([]models.Order, error) {
	filter := ListFilter{Limit: limit, Offset: offset}
	if statusFilter != "" {
		status, err := enums.ParseOrderStatus(statusFilter)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filter.Status = status
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing orders")
	}
	return rows, nil
}

// Get loads one order with its line items.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}
	return order, nil
}

// UpdateStatuses applies an administrative status change and returns the
// updated order. This is the only mutation path for orders after
// materialization.
func (s *Service) UpdateStatuses(ctx context.Context, id uuid.UUID, update StatusUpdate) (*models.Order, error) {
	updates := map[string]any{}

	if update.OrderStatus != nil {
		status, err := enums.ParseOrderStatus(*update.OrderStatus)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status")
		}
		updates["order_status"] = status
	}
	if update.PaymentStatus != nil {
		status, err := enums.ParsePaymentStatus(*update.PaymentStatus)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status")
		}
		updates["payment_status"] = status
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no status fields provided")
	}

	// existence check first so a bad id reads as 404, not a no-op
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatuses(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating order status")
	}

	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.logg != nil {
		fields := map[string]any{"order_status": order.OrderStatus, "payment_status": order.PaymentStatus}
		logCtx := s.logg.WithOrderID(ctx, id.String())
		s.logg.Info(s.logg.WithFields(logCtx, fields), "order status updated")
	}
	return order, nil
}
