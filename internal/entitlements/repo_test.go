package entitlements

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/danielcastano/eventgate-backend/pkg/db/models"
	"github.com/danielcastano/eventgate-backend/pkg/enums"
	"github.com/danielcastano/eventgate-backend/pkg/types"
)

func setupEntitlementsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:entitlements_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	entitlements := `
CREATE TABLE IF NOT EXISTS entitlements (
  id TEXT PRIMARY KEY,
  event_id TEXT NOT NULL,
  order_id TEXT NOT NULL,
  owner_user_id TEXT NOT NULL,
  ticket_type TEXT NOT NULL,
  gender_constraint TEXT,
  scan_count_allowed INTEGER NOT NULL DEFAULT 1,
  scan_count_used INTEGER NOT NULL DEFAULT 0,
  state TEXT NOT NULL DEFAULT 'ISSUED',
  issued_at DATETIME NOT NULL,
  consumed_at DATETIME,
  last_scanner_id TEXT,
  consumed_metadata TEXT,
  revoke_reason TEXT,
  revoked_by TEXT,
  metadata TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	scans := `
CREATE TABLE IF NOT EXISTS scan_records (
  scan_id TEXT PRIMARY KEY,
  entitlement_id TEXT,
  event_id TEXT NOT NULL,
  scanner_id TEXT NOT NULL,
  result TEXT NOT NULL,
  reason_code TEXT,
  metadata TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(entitlements).Error)
	require.NoError(t, db.Exec(scans).Error)
	return db
}

func insertEntitlement(t *testing.T, db *gorm.DB, state enums.EntitlementState) *models.Entitlement {
	t.Helper()

	entitlement := &models.Entitlement{
		ID:               uuid.New(),
		EventID:          uuid.New(),
		OrderID:          uuid.New(),
		OwnerUserID:      uuid.New(),
		TicketType:       enums.TicketTypePaid,
		ScanCountAllowed: 1,
		State:            state,
		IssuedAt:         time.Now().UTC(),
		Metadata:         models.EntitlementMetadata{Version: 1, TierID: uuid.New(), TierName: "GA"},
	}
	require.NoError(t, db.Create(entitlement).Error)
	return entitlement
}

func TestEntitlementRepositoryRoundTrip(t *testing.T) {
	db := setupEntitlementsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created := insertEntitlement(t, db, enums.EntitlementStateIssued)

	found, err := repo.Find(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, enums.EntitlementStateIssued, found.State)
	assert.Equal(t, "GA", found.Metadata.TierName)

	_, err = repo.Find(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestConsumeGuardedAppliesExactlyOnce(t *testing.T) {
	db := setupEntitlementsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	entitlement := insertEntitlement(t, db, enums.EntitlementStateIssued)
	now := time.Now().UTC()
	scanner := uuid.New()
	updates := map[string]any{
		"scan_count_used": gorm.Expr("scan_count_used + 1"),
		"state":           enums.EntitlementStateConsumed,
		"consumed_at":     &now,
		"last_scanner_id": &scanner,
	}

	applied, err := repo.ConsumeGuarded(ctx, entitlement.ID, updates)
	require.NoError(t, err)
	assert.True(t, applied)

	// The same guard must not match a second time.
	applied, err = repo.ConsumeGuarded(ctx, entitlement.ID, updates)
	require.NoError(t, err)
	assert.False(t, applied)

	reloaded, err := repo.Find(ctx, entitlement.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.EntitlementStateConsumed, reloaded.State)
	assert.Equal(t, 1, reloaded.ScanCountUsed)
	require.NotNil(t, reloaded.LastScannerID)
	assert.Equal(t, scanner, *reloaded.LastScannerID)
}

func TestConsumeGuardedRejectsNonScannableStates(t *testing.T) {
	db := setupEntitlementsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	for _, state := range []enums.EntitlementState{
		enums.EntitlementStateConsumed,
		enums.EntitlementStateRevoked,
		enums.EntitlementStateExpired,
	} {
		entitlement := insertEntitlement(t, db, state)
		applied, err := repo.ConsumeGuarded(ctx, entitlement.ID, map[string]any{
			"state": enums.EntitlementStateConsumed,
		})
		require.NoError(t, err)
		assert.False(t, applied, "state %s must not be consumable", state)
	}
}

func TestRevokeGuarded(t *testing.T) {
	db := setupEntitlementsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	entitlement := insertEntitlement(t, db, enums.EntitlementStateActive)
	actor := uuid.New()

	applied, err := repo.RevokeGuarded(ctx, entitlement.ID, map[string]any{
		"state":         enums.EntitlementStateRevoked,
		"revoke_reason": "REFUND",
		"revoked_by":    actor,
	})
	require.NoError(t, err)
	assert.True(t, applied)

	reloaded, err := repo.Find(ctx, entitlement.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.EntitlementStateRevoked, reloaded.State)
	require.NotNil(t, reloaded.RevokeReason)
	assert.Equal(t, "REFUND", *reloaded.RevokeReason)

	applied, err = repo.RevokeGuarded(ctx, entitlement.ID, map[string]any{
		"state": enums.EntitlementStateRevoked,
	})
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestCreateBatchAndListByOrder(t *testing.T) {
	db := setupEntitlementsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	orderID := uuid.New()
	batch := make([]models.Entitlement, 3)
	for i := range batch {
		batch[i] = models.Entitlement{
			ID:               uuid.New(),
			EventID:          uuid.New(),
			OrderID:          orderID,
			OwnerUserID:      uuid.New(),
			TicketType:       enums.TicketTypePaid,
			ScanCountAllowed: 1,
			State:            enums.EntitlementStateIssued,
			IssuedAt:         time.Now().UTC(),
		}
	}
	require.NoError(t, repo.CreateBatch(ctx, batch))

	listed, err := repo.ListByOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Len(t, listed, 3)
}

func TestAppendScanAndListByEvent(t *testing.T) {
	db := setupEntitlementsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	eventID := uuid.New()
	entitlementID := uuid.New()
	denial := enums.ScanDenialStaleQR

	require.NoError(t, repo.AppendScan(ctx, &models.ScanRecord{
		ScanID:        uuid.New(),
		EntitlementID: &entitlementID,
		EventID:       eventID,
		ScannerID:     uuid.New(),
		Result:        enums.ScanResultGranted,
		Metadata:      types.JSONMap{"gate": "north"},
		CreatedAt:     time.Now().UTC().Add(-time.Minute),
	}))
	require.NoError(t, repo.AppendScan(ctx, &models.ScanRecord{
		ScanID:     uuid.New(),
		EventID:    eventID,
		ScannerID:  uuid.New(),
		Result:     enums.ScanResultDenied,
		ReasonCode: &denial,
		CreatedAt:  time.Now().UTC(),
	}))

	records, err := repo.ListScansByEvent(ctx, eventID, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	// Newest first.
	assert.Equal(t, enums.ScanResultDenied, records[0].Result)
	require.NotNil(t, records[0].ReasonCode)
	assert.Equal(t, enums.ScanDenialStaleQR, *records[0].ReasonCode)
}
