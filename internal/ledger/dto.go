package ledger

import (
	"github.com/google/uuid"

	"github.com/danielcastano/eventgate-backend/pkg/enums"
	"github.com/danielcastano/eventgate-backend/pkg/types"
)

// EntryInput is one leg of a balanced transaction.
type EntryInput struct {
	EntityID    uuid.UUID              `json:"entityId"`
	EntityType  enums.LedgerEntityType `json:"entityType"`
	ActorID     uuid.UUID              `json:"actorId"`
	ActorType   enums.LedgerActorType  `json:"actorType"`
	AmountCents int64                  `json:"amountCents"`
	Currency    enums.Currency         `json:"currency"`
	State       enums.MoneyState       `json:"state"`
	ReferenceID *string                `json:"referenceId,omitempty"`
	Description string                 `json:"description"`
	Metadata    types.JSONMap          `json:"metadata,omitempty"`
	IsFrozen    bool                   `json:"isFrozen"`
}

// TransitionInput moves an amount between two money states as an exit/entry pair.
type TransitionInput struct {
	EntityID    uuid.UUID              `json:"entityId"`
	EntityType  enums.LedgerEntityType `json:"entityType"`
	ActorID     uuid.UUID              `json:"actorId"`
	ActorType   enums.LedgerActorType  `json:"actorType"`
	From        enums.MoneyState       `json:"from"`
	To          enums.MoneyState       `json:"to"`
	AmountCents int64                  `json:"amountCents"`
	Currency    enums.Currency         `json:"currency"`
	ReferenceID *string                `json:"referenceId,omitempty"`
	Description string                 `json:"description"`
	Metadata    types.JSONMap          `json:"metadata,omitempty"`
}

// Split names one settlement recipient and their share.
type Split struct {
	RecipientID uuid.UUID             `json:"recipientId"`
	ActorType   enums.LedgerActorType `json:"actorType"`
	AmountCents int64                 `json:"amountCents"`
	Description string                `json:"description,omitempty"`
}

// PayoutInput records money leaving the platform toward one recipient.
type PayoutInput struct {
	PayoutID    uuid.UUID             `json:"payoutId"`
	PartnerID   uuid.UUID             `json:"partnerId"`
	PartnerType enums.LedgerActorType `json:"partnerType"`
	AmountCents int64                 `json:"amountCents"`
	Currency    enums.Currency        `json:"currency"`
	ReferenceID string                `json:"referenceId"`
}

// DisputeInput freezes a disputed amount against the gateway.
type DisputeInput struct {
	OrderID     uuid.UUID        `json:"orderId"`
	AmountCents int64            `json:"amountCents"`
	Currency    enums.Currency   `json:"currency"`
	State       enums.MoneyState `json:"state"`
	ReferenceID string           `json:"referenceId"`
	Reason      string           `json:"reason,omitempty"`
}

// BalanceFilter selects the entries whose amounts are summed by GetBalance.
// Nil fields match everything.
type BalanceFilter struct {
	EntityID    *uuid.UUID              `json:"entityId,omitempty"`
	EntityType  *enums.LedgerEntityType `json:"entityType,omitempty"`
	ActorID     *uuid.UUID              `json:"actorId,omitempty"`
	ActorType   *enums.LedgerActorType  `json:"actorType,omitempty"`
	State       *enums.MoneyState       `json:"state,omitempty"`
	ReferenceID *string                 `json:"referenceId,omitempty"`
}

// MoneyStateChangedEvent is emitted whenever money moves between states.
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
