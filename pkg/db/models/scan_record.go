package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/danielcastano/eventgate-backend/pkg/enums"
	"github.com/danielcastano/eventgate-backend/pkg/types"
)

// ScanRecord is the immutable audit row for one admission attempt, granted or denied.
// Rows are append-only; nothing in the repository updates or deletes them.
type ScanRecord struct {
	ScanID        uuid.UUID               `gorm:"column:scan_id;type:uuid;default:gen_random_uuid();primaryKey"`
	EntitlementID *uuid.UUID              `gorm:"column:entitlement_id;type:uuid;index"`
	EventID       uuid.UUID               `gorm:"column:event_id;type:uuid;not null;index"`
	ScannerID     uuid.UUID               `gorm:"column:scanner_id;type:uuid;not null"`
	Result        enums.ScanResult        `gorm:"column:result;type:scan_result;not null"`
	ReasonCode    *enums.ScanDenialReason `gorm:"column:reason_code;type:text"`
	Metadata      types.JSONMap           `gorm:"column:metadata;type:jsonb;serializer:json"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime"`
}
