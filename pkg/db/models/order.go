package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/danielcastano/eventgate-backend/pkg/db/types"
	"github.com/danielcastano/eventgate-backend/pkg/enums"
)

// Order represents a purchase intent for one event, from draft to a terminal outcome.
type Order struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID            uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	EventID           uuid.UUID           `gorm:"column:event_id;type:uuid;not null"`
	Status            enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'draft'"`
	Currency          enums.Currency      `gorm:"column:currency;type:text;not null;default:'USD'"`
	TotalAmountCents  int64               `gorm:"column:total_amount_cents;not null"`
	RefundStatus      enums.RefundStatus  `gorm:"column:refund_status;type:refund_status;not null;default:'none'"`
	RefundAmountCents int64               `gorm:"column:refund_amount_cents;not null;default:0"`
	RefundRequestedBy *uuid.UUID          `gorm:"column:refund_requested_by;type:uuid"`
	RefundApprovals   dbtypes.UUIDArray   `gorm:"column:refund_approvals;type:uuid[];not null"`
	ConfirmedAt       *time.Time          `gorm:"column:confirmed_at"`
	CheckedInAt       *time.Time          `gorm:"column:checked_in_at"`
	CheckedInBy       *uuid.UUID          `gorm:"column:checked_in_by;type:uuid"`
	RefundedAt        *time.Time          `gorm:"column:refunded_at"`
	CancelledAt       *time.Time          `gorm:"column:cancelled_at"`
	ExpiredAt         *time.Time          `gorm:"column:expired_at"`
	StatusHistory     []OrderStatusChange `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Items             []OrderLineItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
