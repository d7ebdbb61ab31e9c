package processed

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/threadline-co/storefront-backend/pkg/db/models"
	pkgerrors "github.com/threadline-co/storefront-backend/pkg/errors"
)

// ClaimResult reports the outcome of an idempotency claim.
//
// IsNew is true only for the caller that won the insert race for the
// session. Losers receive the winner's order id once materialization has
// completed; a nil OrderID with IsNew=false means the winner claimed the
// session but has not finished yet.
type ClaimResult struct {
	IsNew   bool
	OrderID *uuid.UUID
}

// Claim atomically records the session as being processed. The insert is
// a single insert-if-absent statement, never read-then-write: concurrent
// deliveries of the same session race on the primary key and exactly one
// wins.
func Claim(ctx context.Context, tx *gorm.DB, sessionID string) (ClaimResult, error) {
	if tx == nil {
		return ClaimResult{}, errors.New("transaction required")
	}
	if sessionID == "" {
		return ClaimResult{}, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	record := models.ProcessedEvent{SessionID: sessionID}
	res := tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoNothing: true,
		}).
		Create(&record)
	if res.Error != nil {
		return ClaimResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "claiming session")
	}
	if res.RowsAffected == 1 {
		return ClaimResult{IsNew: true}, nil
	}

	existing, err := Lookup(ctx, tx, sessionID)
	if err != nil {
		return ClaimResult{}, err
	}
	return ClaimResult{IsNew: false, OrderID: existing.OrderID}, nil
}

// Complete backfills the claim with the materialized order. Runs in the
// same transaction as the order insert so the claim never points at an
// order that did not commit.
func Complete(ctx context.Context, tx *gorm.DB, sessionID string, orderID uuid.UUID) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	now := time.Now().UTC()
	res := tx.WithContext(ctx).
		Model(&models.ProcessedEvent{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]any{
			"order_id":     orderID,
			"processed_at": now,
		})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "completing session claim")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInternal, "completing a session that was never claimed")
	}
	return nil
}

// Lookup returns the processed-event record for the session.
func Lookup(ctx context.Context, tx *gorm.DB, sessionID string) (models.ProcessedEvent, error) {
	if tx == nil {
		return models.ProcessedEvent{}, errors.New("transaction required")
	}
	var record models.ProcessedEvent
	err := tx.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ProcessedEvent{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "session claim not found")
		}
		return models.ProcessedEvent{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading session claim")
	}
	return record, nil
}
