package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/danielcastano/eventgate-backend/pkg/enums"
	"github.com/danielcastano/eventgate-backend/pkg/types"
)

// TransferRecord is one hop in an entitlement's transfer lineage.
type TransferRecord struct {
	FromUserID    uuid.UUID `json:"fromUserId"`
	ToUserID      uuid.UUID `json:"toUserId"`
	ActorID       uuid.UUID `json:"actorId"`
	TransferredAt time.Time `json:"transferredAt"`
}

// EntitlementMetadata is the typed, versioned extensible attribute bag on a credential.
type EntitlementMetadata struct {
	Version         int              `json:"version"`
	TierID          uuid.UUID        `json:"tierId"`
	TierName        string           `json:"tierName"`
	TransferredFrom *uuid.UUID       `json:"transferredFrom,omitempty"`
	TransferredTo   *uuid.UUID       `json:"transferredTo,omitempty"`
	TransferHistory []TransferRecord `json:"transferHistory,omitempty"`
}

// Entitlement is one unit of admission, scoped to exactly one human and one scan.
type Entitlement struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventID          uuid.UUID              `gorm:"column:event_id;type:uuid;not null;index"`
	OrderID          uuid.UUID              `gorm:"column:order_id;type:uuid;not null;index"`
	OwnerUserID      uuid.UUID              `gorm:"column:owner_user_id;type:uuid;not null;index"`
	TicketType       enums.TicketType       `gorm:"column:ticket_type;type:ticket_type;not null"`
	GenderConstraint *string                `gorm:"column:gender_constraint"`
	ScanCountAllowed int                    `gorm:"column:scan_count_allowed;not null;default:1"`
	ScanCountUsed    int                    `gorm:"column:scan_count_used;not null;default:0"`
	State            enums.EntitlementState `gorm:"column:state;type:entitlement_state;not null;default:'ISSUED'"`
	IssuedAt         time.Time              `gorm:"column:issued_at;not null"`
	ConsumedAt       *time.Time             `gorm:"column:consumed_at"`
	LastScannerID    *uuid.UUID             `gorm:"column:last_scanner_id;type:uuid"`
	ConsumedMetadata types.JSONMap          `gorm:"column:consumed_metadata;type:jsonb;serializer:json"`
	RevokeReason     *string                `gorm:"column:revoke_reason"`
	RevokedBy        *uuid.UUID             `gorm:"column:revoked_by;type:uuid"`
	Metadata         EntitlementMetadata    `gorm:"column:metadata;type:jsonb;serializer:json"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
