package entitlements

import (
	"github.com/google/uuid"

	"github.com/danielcastano/eventgate-backend/pkg/db/models"
	"github.com/danielcastano/eventgate-backend/pkg/enums"
)

// ScanContext carries the gate-side claims a scanner submits alongside a code.
type ScanContext struct {
	UserGender       *string `json:"userGender,omitempty"`
	PartnerPresent   bool    `json:"partnerPresent"`
	IsCoupleBypassed bool    `json:"isCoupleBypassed"`
}

// ScanRequest is one admission attempt at a gate.
type ScanRequest struct {
	Payload   CodePayload `json:"payload"`
	ScannerID uuid.UUID   `json:"-"`
	EventID   uuid.UUID   `json:"eventId"`
	Context   ScanContext `json:"context"`
}

// ScanOutcome reports the result of one admission attempt. Denials are
// outcomes, not errors: the attempt itself succeeded and was recorded.
type ScanOutcome struct {
	Granted     bool                    `json:"granted"`
	Reason      *enums.ScanDenialReason `json:"reason,omitempty"`
	ScanID      uuid.UUID               `json:"scanId"`
	Entitlement *models.Entitlement     `json:"entitlement,omitempty"`
}

// TransferInput moves a credential to a new owner.
type TransferInput struct {
	EntitlementID uuid.UUID `json:"entitlementId"`
	NewOwnerID    uuid.UUID `json:"newOwnerId"`
	ActorID       uuid.UUID `json:"-"`
}

// ConsumedEvent is emitted when a credential is consumed at a gate.
type ConsumedEvent struct {
	EntitlementID uuid.UUID `json:"entitlementId"`
	EventID       uuid.UUID `json:"eventId"`
	OrderID       uuid.UUID `json:"orderId"`
	ScannerID     uuid.UUID `json:"scannerId"`
	ScanID        uuid.UUID `json:"scanId"`
}

// DeniedScanEvent is emitted when an admission attempt is refused.
type DeniedScanEvent struct {
	EventID   uuid.UUID              `json:"eventId"`
	ScannerID uuid.UUID              `json:"scannerId"`
	ScanID    uuid.UUID              `json:"scanId"`
	Reason    enums.ScanDenialReason `json:"reason"`
}

// IssuedEvent is emitted once per order when its credentials are created.
type IssuedEvent struct {
	OrderID        uuid.UUID   `json:"orderId"`
	EventID        uuid.UUID   `json:"eventId"`
	EntitlementIDs []uuid.UUID `json:"entitlementIds"`
}

// TransferredEvent is emitted when a credential changes owner.
type TransferredEvent struct {
	SourceID   uuid.UUID `json:"sourceId"`
	NewID      uuid.UUID `json:"newId"`
	FromUserID uuid.UUID `json:"fromUserId"`
	ToUserID   uuid.UUID `json:"toUserId"`
}

// RevokedEvent is emitted when a credential is revoked.
type RevokedEvent struct {
	EntitlementID uuid.UUID `json:"entitlementId"`
	OrderID       uuid.UUID `json:"orderId"`
	Reason        string    `json:"reason"`
}
