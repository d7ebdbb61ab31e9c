package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/threadline-co/storefront-backend/pkg/enums"
)

// Order is the durable record produced from a completed checkout session.
// The reconciler creates it exactly once per session and never mutates it
// afterwards; status changes come from the admin surface.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	SessionID     string              `gorm:"column:session_id;not null;uniqueIndex:idx_orders_session_id"`
	CustomerEmail string              `gorm:"column:customer_email;not null"`
	TotalCents    int64               `gorm:"column:total_cents;not null"`
	Currency      enums.Currency      `gorm:"column:currency;type:text;not null;default:'USD'"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:text;not null"`
	OrderStatus   enums.OrderStatus   `gorm:"column:order_status;type:text;not null;default:'pending'"`
	Items         []OrderLineItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
