package ledger

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
)

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:ledger_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = db.Exec(`
		CREATE TABLE ledger_entries (
			id TEXT PRIMARY KEY,
			group_id TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			entity_type TEXT NOT NULL,
			actor_id TEXT NOT NULL,
			actor_type TEXT NOT NULL,
			amount_cents INTEGER NOT NULL,
			currency TEXT NOT NULL DEFAULT 'USD',
			state TEXT NOT NULL,
			reference_id TEXT,
			description TEXT NOT NULL,
			metadata TEXT,
			is_frozen INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME
		)
	`).Error
	require.NoError(t, err)

	return db
}

func testEntry(entityID, actorID uuid.UUID, amount int64, state enums.MoneyState) models.LedgerEntry {
	return models.LedgerEntry{
		ID:          uuid.New(),
		GroupID:     uuid.New(),
		EntityID:    entityID,
		EntityType:  enums.LedgerEntityOrder,
		ActorID:     actorID,
		ActorType:   enums.LedgerActorPlatform,
		AmountCents: amount,
		Currency:    enums.CurrencyUSD,
		State:       state,
		Description: "test entry",
		CreatedAt:   time.Now().UTC(),
	}
}

func TestCreateBatchSharesGroup(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	orderID := uuid.New()
	groupID := uuid.New()
	exit := testEntry(orderID, uuid.New(), -5000, enums.MoneyStateCaptured)
	entry := testEntry(orderID, uuid.New(), 5000, enums.MoneyStateHeld)
	exit.GroupID = groupID
	entry.GroupID = groupID

	require.NoError(t, repo.CreateBatch(ctx, []models.LedgerEntry{exit, entry}))

	got, err := repo.ListByGroup(ctx, groupID)
	require.NoError(t, err)
	require.Len(t, got, 2)

	var sum int64
	for _, e := range got {
		assert.Equal(t, groupID, e.GroupID)
		sum += e.AmountCents
	}
	assert.Zero(t, sum)
}

func TestListByEntityIgnoresOtherEntities(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	orderID := uuid.New()
	require.NoError(t, repo.CreateBatch(ctx, []models.LedgerEntry{
		testEntry(orderID, uuid.New(), 1000, enums.MoneyStateAuthorized),
		testEntry(orderID, uuid.New(), -1000, enums.MoneyStateAuthorized),
		testEntry(uuid.New(), uuid.New(), 9999, enums.MoneyStateAuthorized),
	}))

	got, err := repo.ListByEntity(ctx, orderID, nil, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, e := range got {
		assert.Equal(t, orderID, e.EntityID)
	}
}

func TestSumAmountAppliesFilters(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	orderID := uuid.New()
	partnerID := uuid.New()

	partnerLeg := testEntry(orderID, partnerID, 7000, enums.MoneyStatePayable)
	partnerLeg.ActorType = enums.LedgerActorPartner
	require.NoError(t, repo.CreateBatch(ctx, []models.LedgerEntry{
		testEntry(orderID, uuid.New(), -10000, enums.MoneyStateSettled),
		testEntry(orderID, uuid.New(), 10000, enums.MoneyStateTransit),
		testEntry(orderID, uuid.New(), -7000, enums.MoneyStateTransit),
		partnerLeg,
	}))

	transit := enums.MoneyStateTransit
	total, err := repo.SumAmount(ctx, BalanceFilter{EntityID: &orderID, State: &transit})
	require.NoError(t, err)
	assert.Equal(t, int64(3000), total)

	payable := enums.MoneyStatePayable
	total, err = repo.SumAmount(ctx, BalanceFilter{ActorID: &partnerID, State: &payable})
	require.NoError(t, err)
	assert.Equal(t, int64(7000), total)

	partnerType := enums.LedgerActorPartner
	total, err = repo.SumAmount(ctx, BalanceFilter{ActorType: &partnerType})
	require.NoError(t, err)
	assert.Equal(t, int64(7000), total)
}

func TestSumAmountEmptyResultIsZero(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)

	missing := uuid.New()
	total, err := repo.SumAmount(context.Background(), BalanceFilter{EntityID: &missing})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestExistsReferenceMatchesStateExactly(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	ref := "pay_abc"
	entry := testEntry(uuid.New(), uuid.New(), 5000, enums.MoneyStateCaptured)
	entry.ReferenceID = &ref
	counter := testEntry(entry.EntityID, uuid.New(), -5000, enums.MoneyStateAuthorized)
	counter.ReferenceID = &ref
	require.NoError(t, repo.CreateBatch(ctx, []models.LedgerEntry{entry, counter}))

	exists, err := repo.ExistsReference(ctx, ref, enums.MoneyStateCaptured)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsReference(ctx, ref, enums.MoneyStateRefunded)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = repo.ExistsReference(ctx, "pay_other", enums.MoneyStateCaptured)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestHasFrozenForEntity(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	disputed := uuid.New()
	clean := uuid.New()
	frozen := testEntry(disputed, uuid.New(), 12000, enums.MoneyStateCaptured)
	frozen.IsFrozen = true
	require.NoError(t, repo.CreateBatch(ctx, []models.LedgerEntry{
		frozen,
		testEntry(disputed, uuid.New(), -12000, enums.MoneyStateCaptured),
		testEntry(clean, uuid.New(), 3000, enums.MoneyStateCaptured),
	}))

	got, err := repo.HasFrozenForEntity(ctx, disputed)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = repo.HasFrozenForEntity(ctx, clean)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestRepositoryWithTxRollsBack(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	orderID := uuid.New()
	err := db.Transaction(func(tx *gorm.DB) error {
		scoped := repo.WithTx(tx)
		if err := scoped.CreateBatch(ctx, []models.LedgerEntry{
			testEntry(orderID, uuid.New(), 1000, enums.MoneyStateAuthorized),
			testEntry(orderID, uuid.New(), -1000, enums.MoneyStateAuthorized),
		}); err != nil {
			return err
		}
		return gorm.ErrInvalidTransaction
	})
	require.Error(t, err)

	got, err := repo.ListByEntity(ctx, orderID, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}
