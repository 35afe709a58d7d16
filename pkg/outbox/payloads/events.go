package payloads

import (
	"github.com/google/uuid"

	"github.com/danielcastano/eventgate-backend/pkg/enums"
)

// OrderStatusChangedEvent mirrors the payload the orders service emits for
// every lifecycle transition, order creation included.
type OrderStatusChangedEvent struct {
	OrderID    uuid.UUID         `json:"orderId"`
	UserID     uuid.UUID         `json:"userId"`
	EventID    uuid.UUID         `json:"eventId"`
	FromStatus enums.OrderStatus `json:"fromStatus"`
	ToStatus   enums.OrderStatus `json:"toStatus"`
	Event      enums.OrderEvent  `json:"event"`
}

// EntitlementsIssuedEvent is emitted once per order when its credentials are created.
type EntitlementsIssuedEvent struct {
	OrderID        uuid.UUID   `json:"orderId"`
	EventID        uuid.UUID   `json:"eventId"`
	EntitlementIDs []uuid.UUID `json:"entitlementIds"`
}

// EntitlementConsumedEvent is emitted when a gate scan consumes a credential.
type EntitlementConsumedEvent struct {
	EntitlementID uuid.UUID `json:"entitlementId"`
	EventID       uuid.UUID `json:"eventId"`
	OrderID       uuid.UUID `json:"orderId"`
	ScannerID     uuid.UUID `json:"scannerId"`
	ScanID        uuid.UUID `json:"scanId"`
}

// ScanDeniedEvent is emitted when an admission attempt is refused.
type ScanDeniedEvent struct {
	EventID   uuid.UUID              `json:"eventId"`
	ScannerID uuid.UUID              `json:"scannerId"`
	ScanID    uuid.UUID              `json:"scanId"`
	Reason    enums.ScanDenialReason `json:"reason"`
}

// EntitlementTransferredEvent is emitted when a credential changes owner.
type EntitlementTransferredEvent struct {
	SourceID   uuid.UUID `json:"sourceId"`
	NewID      uuid.UUID `json:"newId"`
	FromUserID uuid.UUID `json:"fromUserId"`
	ToUserID   uuid.UUID `json:"toUserId"`
}

// EntitlementRevokedEvent is emitted when a credential is revoked.
type EntitlementRevokedEvent struct {
	EntitlementID uuid.UUID `json:"entitlementId"`
	OrderID       uuid.UUID `json:"orderId"`
	Reason        string    `json:"reason"`
}

// MoneyStateChangedEvent is emitted for every balanced exit/entry pair.
type MoneyStateChangedEvent struct {
	GroupID     uuid.UUID        `json:"groupId"`
	EntityID    uuid.UUID        `json:"entityId"`
	From        enums.MoneyState `json:"from"`
	To          enums.MoneyState `json:"to"`
	AmountCents int64            `json:"amountCents"`
}

// PayoutRecordedEvent is emitted when a payout completes.
type PayoutRecordedEvent struct {
	PayoutID    uuid.UUID `json:"payoutId"`
	PartnerID   uuid.UUID `json:"partnerId"`
	AmountCents int64     `json:"amountCents"`
	ReferenceID string    `json:"referenceId"`
}

// DisputeFrozenEvent is emitted when a chargeback freezes order money.
type DisputeFrozenEvent struct {
	OrderID     uuid.UUID `json:"orderId"`
	AmountCents int64     `json:"amountCents"`
	ReferenceID string    `json:"referenceId"`
}
