package orders

import (
	"github.com/google/uuid"

	"github.com/danielcastano/eventgate-backend/pkg/enums"
	"github.com/danielcastano/eventgate-backend/pkg/types"
)

// LineItemInput is one ticket tier being purchased.
type LineItemInput struct {
	TierID           uuid.UUID        `json:"tierId"`
	TierName         string           `json:"tierName"`
	TicketType       enums.TicketType `json:"ticketType"`
	GenderConstraint *string          `json:"genderConstraint,omitempty"`
	UnitPriceCents   int64            `json:"unitPriceCents"`
	Qty              int              `json:"qty"`
}

// CreateOrderInput captures the data required to open a draft order.
type CreateOrderInput struct {
	UserID   uuid.UUID       `json:"userId"`
	EventID  uuid.UUID       `json:"eventId"`
	Currency enums.Currency  `json:"currency"`
	Items    []LineItemInput `json:"items"`
}

// TransitionRequest drives one state machine event against an order.
type TransitionRequest struct {
	OrderID           uuid.UUID        `json:"orderId"`
	Event             enums.OrderEvent `json:"event"`
	Actor             Actor            `json:"-"`
	Reason            *string          `json:"reason,omitempty"`
	Metadata          types.JSONMap    `json:"metadata,omitempty"`
	RefundAmountCents int64            `json:"refundAmountCents,omitempty"`
	EntitlementID     *uuid.UUID       `json:"entitlementId,omitempty"`
	ReferenceID       *string          `json:"referenceId,omitempty"`
}

// StatusChangedEvent is emitted on every accepted transition.
type StatusChangedEvent struct {
	OrderID    uuid.UUID         `json:"orderId"`
	UserID     uuid.UUID         `json:"userId"`
	EventID    uuid.UUID         `json:"eventId"`
	FromStatus enums.OrderStatus `json:"fromStatus"`
	ToStatus   enums.OrderStatus `json:"toStatus"`
	Event      enums.OrderEvent  `json:"event"`
}
