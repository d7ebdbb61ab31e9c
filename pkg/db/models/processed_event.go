package models

import (
	"time"

	"github.com/google/uuid"
)

// ProcessedEvent records that a completion event for a checkout session has
// been claimed for processing. At most one row per session ever exists; the
// row is created by whichever delivery wins the insert race and is never
// deleted. OrderID stays nil between the claim and successful
// materialization.
type ProcessedEvent struct {
	SessionID   string     `gorm:"column:session_id;primaryKey"`
	OrderID     *uuid.UUID `gorm:"column:order_id;type:uuid"`
	ProcessedAt *time.Time `gorm:"column:processed_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
}
