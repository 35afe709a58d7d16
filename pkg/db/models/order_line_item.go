package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/danielcastano/eventgate-backend/pkg/enums"
)

// OrderLineItem captures the snapshot of one ticket tier within an order.
type OrderLineItem struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID          uuid.UUID        `gorm:"column:order_id;type:uuid;not null;index"`
	TierID           uuid.UUID        `gorm:"column:tier_id;type:uuid;not null"`
	TierName         string           `gorm:"column:tier_name;not null"`
	TicketType       enums.TicketType `gorm:"column:ticket_type;type:ticket_type;not null"`
	GenderConstraint *string          `gorm:"column:gender_constraint"`
	UnitPriceCents   int64            `gorm:"column:unit_price_cents;not null"`
	Qty              int              `gorm:"column:qty;not null"`
	TotalCents       int64            `gorm:"column:total_cents;not null"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
