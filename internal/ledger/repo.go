package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danielcastano/eventgate-backend/pkg/db/models"
	"github.com/danielcastano/eventgate-backend/pkg/enums"
	"github.com/danielcastano/eventgate-backend/pkg/pagination"
)

// Repository manages the append-only ledger entry store.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateBatch(ctx context.Context, entries []models.LedgerEntry) error
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]models.LedgerEntry, error)
	ListByEntity(ctx context.Context, entityID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.LedgerEntry, error)
	SumAmount(ctx context.Context, filter BalanceFilter) (int64, error)
	ExistsReference(ctx context.Context, referenceID string, state enums.MoneyState) (bool, error)
	HasFrozenForEntity(ctx context.Context, entityID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateBatch(ctx context.Context, entries []models.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}

func (r *repository) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ListByEntity(ctx context.Context, entityID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.LedgerEntry, error) {
	query := r.db.WithContext(ctx).
		Where("entity_id = ?", entityID).
		Order("created_at DESC").
		Order("id DESC")
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var entries []models.LedgerEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) SumAmount(ctx context.Context, filter BalanceFilter) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.LedgerEntry{})
	if filter.EntityID != nil {
		query = query.Where("entity_id = ?", *filter.EntityID)
	}
	if filter.EntityType != nil {
		query = query.Where("entity_type = ?", *filter.EntityType)
	}
	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}
	if filter.ActorType != nil {
		query = query.Where("actor_type = ?", *filter.ActorType)
	}
	if filter.State != nil {
		query = query.Where("state = ?", *filter.State)
	}
	if filter.ReferenceID != nil {
		query = query.Where("reference_id = ?", *filter.ReferenceID)
	}

	var total *int64
	if err := query.Select("SUM(amount_cents)").Scan(&total).Error; err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

func (r *repository) ExistsReference(ctx context.Context, referenceID string, state enums.MoneyState) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("reference_id = ? AND state = ?", referenceID, state).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) HasFrozenForEntity(ctx context.Context, entityID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("entity_id = ? AND is_frozen = ?", entityID, true).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
