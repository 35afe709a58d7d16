package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/danielcastano/eventgate-backend/pkg/enums"
	"github.com/danielcastano/eventgate-backend/pkg/types"
)

// OrderStatusChange is one append-only row in an order's transition history.
type OrderStatusChange struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	FromStatus enums.OrderStatus `gorm:"column:from_status;type:order_status;not null"`
	ToStatus   enums.OrderStatus `gorm:"column:to_status;type:order_status;not null"`
	Event      enums.OrderEvent  `gorm:"column:event;type:text;not null"`
	ActorID    uuid.UUID         `gorm:"column:actor_id;type:uuid;not null"`
	Reason     *string           `gorm:"column:reason"`
	Metadata   types.JSONMap     `gorm:"column:metadata;type:jsonb;serializer:json"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
}
