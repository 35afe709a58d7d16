package entitlements

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danielcastano/eventgate-backend/pkg/db/models"
	"github.com/danielcastano/eventgate-backend/pkg/enums"
)

var scannableStates = []enums.EntitlementState{
	enums.EntitlementStateIssued,
	enums.EntitlementStateActive,
}

// Repository manages persistence for entitlements and the append-only scan ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateBatch(ctx context.Context, entitlements []models.Entitlement) error
	Create(ctx context.Context, entitlement *models.Entitlement) error
	Find(ctx context.Context, id uuid.UUID) (*models.Entitlement, error)
	// ConsumeGuarded applies the consume mutation only while the row is still
	// scannable with scans remaining. The WHERE guard is what makes concurrent
	// duplicate scans lose: exactly one update matches.
	ConsumeGuarded(ctx context.Context, id uuid.UUID, updates map[string]any) (bool, error)
	// RevokeGuarded applies the revoke mutation only while the row is still
	// scannable.
	RevokeGuarded(ctx context.Context, id uuid.UUID, updates map[string]any) (bool, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Entitlement, error)
	ListByOwner(ctx context.Context, ownerUserID uuid.UUID) ([]models.Entitlement, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	AppendScan(ctx context.Context, record *models.ScanRecord) error
	ListScansByEvent(ctx context.Context, eventID uuid.UUID, limit int) ([]models.ScanRecord, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an entitlement repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateBatch(ctx context.Context, entitlements []models.Entitlement) error {
	if len(entitlements) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&entitlements).Error
}

func (r *repository) Create(ctx context.Context, entitlement *models.Entitlement) error {
	return r.db.WithContext(ctx).Create(entitlement).Error
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.Entitlement, error) {
	var entitlement models.Entitlement
	if err := r.db.WithContext(ctx).First(&entitlement, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entitlement, nil
}

func (r *repository) ConsumeGuarded(ctx context.Context, id uuid.UUID, updates map[string]any) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Entitlement{}).
		Where("id = ? AND state IN ? AND scan_count_used < scan_count_allowed", id, scannableStates).
		Updates(updates)
	return result.RowsAffected > 0, result.Error
}

func (r *repository) RevokeGuarded(ctx context.Context, id uuid.UUID, updates map[string]any) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Entitlement{}).
		Where("id = ? AND state IN ?", id, scannableStates).
		Updates(updates)
	return result.RowsAffected > 0, result.Error
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Entitlement, error) {
	var entitlements []models.Entitlement
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&entitlements).Error; err != nil {
		return nil, err
	}
	return entitlements, nil
}

func (r *repository) ListByOwner(ctx context.Context, ownerUserID uuid.UUID) ([]models.Entitlement, error) {
	var entitlements []models.Entitlement
	if err := r.db.WithContext(ctx).
		Where("owner_user_id = ?", ownerUserID).
		Order("created_at ASC").
		Find(&entitlements).Error; err != nil {
		return nil, err
	}
	return entitlements, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Entitlement{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) AppendScan(ctx context.Context, record *models.ScanRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) ListScansByEvent(ctx context.Context, eventID uuid.UUID, limit int) ([]models.ScanRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	var records []models.ScanRecord
	if err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
