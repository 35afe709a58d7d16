package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/danielcastano/eventgate-backend/pkg/enums"
	"github.com/danielcastano/eventgate-backend/pkg/types"
)

// LedgerEntry is one leg of a double-entry bookkeeping transaction. Entries are
// append-only; money moves between states through new balancing entries, never updates.
type LedgerEntry struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	GroupID     uuid.UUID              `gorm:"column:group_id;type:uuid;not null;index"`
	EntityID    uuid.UUID              `gorm:"column:entity_id;type:uuid;not null;index"`
	EntityType  enums.LedgerEntityType `gorm:"column:entity_type;type:text;not null"`
	ActorID     uuid.UUID              `gorm:"column:actor_id;type:uuid;not null;index"`
	ActorType   enums.LedgerActorType  `gorm:"column:actor_type;type:text;not null"`
	AmountCents int64                  `gorm:"column:amount_cents;not null"`
	Currency    enums.Currency         `gorm:"column:currency;type:text;not null;default:'USD'"`
	State       enums.MoneyState       `gorm:"column:state;type:text;not null;index"`
	ReferenceID *string                `gorm:"column:reference_id;index"`
	Description string                 `gorm:"column:description;not null"`
	Metadata    types.JSONMap          `gorm:"column:metadata;type:jsonb;serializer:json"`
	IsFrozen    bool                   `gorm:"column:is_frozen;not null;default:false"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
}
