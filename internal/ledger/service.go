package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/danielcastano/eventgate-backend/pkg/db/models"
	"github.com/danielcastano/eventgate-backend/pkg/enums"
	pkgerrors "github.com/danielcastano/eventgate-backend/pkg/errors"
	"github.com/danielcastano/eventgate-backend/pkg/metrics"
	"github.com/danielcastano/eventgate-backend/pkg/outbox"
	"github.com/danielcastano/eventgate-backend/pkg/pagination"
	"github.com/danielcastano/eventgate-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines the double-entry ledger operations. The tx-scoped methods
// participate in a caller's transaction; the rest own their own.
type Service interface {
	RecordTransaction(ctx context.Context, entries []EntryInput) (uuid.UUID, error)
	TransitionMoneyState(ctx context.Context, input TransitionInput) (uuid.UUID, error)

	RecordOrderAuthorized(ctx context.Context, order *models.Order, referenceID string) error
	RecordOrderCaptured(ctx context.Context, order *models.Order, referenceID string) error
	HoldOrderRevenue(ctx context.Context, order *models.Order, referenceID string) error
	SettleOrderRevenue(ctx context.Context, order *models.Order, referenceID string) error
	AllocateToPayable(ctx context.Context, order *models.Order, splits []Split) error
	RecordPayout(ctx context.Context, input PayoutInput) error

	InitiateRefund(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, amountCents int64, referenceID string) error
	FinalizeRefund(ctx context.Context, orderID uuid.UUID, amountCents int64, referenceID string) error

	FreezeDispute(ctx context.Context, input DisputeInput) error
	HasFrozenEntries(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (bool, error)

	GetBalance(ctx context.Context, filter BalanceFilter) (int64, error)
	ListByEntity(ctx context.Context, entityID uuid.UUID, page pagination.Params) ([]models.LedgerEntry, string, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]models.LedgerEntry, error)
}

// ServiceParams wires the ledger service dependencies. PlatformAccountID is
// the actor id the platform's own legs are booked against.
type ServiceParams struct {
	Repo              Repository
	Tx                txRunner
	Outbox            outboxPublisher
	PlatformAccountID uuid.UUID

	// Metrics is optional; a nil value disables instrumentation.
	Metrics *metrics.LedgerMetrics
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	platform uuid.UUID
	metrics  *metrics.LedgerMetrics
}

// NewService builds a ledger service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.PlatformAccountID == uuid.Nil {
		return nil, fmt.Errorf("platform account id required")
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		outbox:   params.Outbox,
		platform: params.PlatformAccountID,
		metrics:  params.Metrics,
	}, nil
}

// RecordTransaction writes one balanced group of entries atomically. The
// arithmetic sum of all legs must be exactly zero; amounts are integer cents
// so there is no epsilon.
func (s *service) RecordTransaction(ctx context.Context, entries []EntryInput) (uuid.UUID, error) {
	var groupID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		groupID, err = s.recordTransactionInTx(ctx, tx, entries)
		return err
	})
	if err != nil {
		return uuid.Nil, err
	}
	return groupID, nil
}

func (s *service) recordTransactionInTx(ctx context.Context, tx *gorm.DB, entries []EntryInput) (uuid.UUID, error) {
	if len(entries) < 2 {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "a ledger transaction needs at least two legs")
	}

	sum := decimal.Zero
	for i, entry := range entries {
		if entry.EntityID == uuid.Nil {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("leg %d: entity id is required", i))
		}
		if !entry.EntityType.IsValid() {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("leg %d: invalid entity type %q", i, entry.EntityType))
		}
		if entry.ActorID == uuid.Nil {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("leg %d: actor id is required", i))
		}
		if !entry.ActorType.IsValid() {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("leg %d: invalid actor type %q", i, entry.ActorType))
		}
		if !entry.State.IsValid() {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("leg %d: invalid money state %q", i, entry.State))
		}
		if entry.AmountCents == 0 {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("leg %d: amount cannot be zero", i))
		}
		sum = sum.Add(decimal.NewFromInt(entry.AmountCents))
	}
	if !sum.IsZero() {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("ledger transaction is out of balance by %s cents", sum))
	}

	groupID := uuid.New()
	now := time.Now().UTC()
	rows := make([]models.LedgerEntry, 0, len(entries))
	for _, entry := range entries {
		currency := entry.Currency
		if currency == "" {
			currency = enums.CurrencyUSD
		}
		rows = append(rows, models.LedgerEntry{
			ID:          uuid.New(),
			GroupID:     groupID,
			EntityID:    entry.EntityID,
			EntityType:  entry.EntityType,
			ActorID:     entry.ActorID,
			ActorType:   entry.ActorType,
			AmountCents: entry.AmountCents,
			Currency:    currency,
			State:       entry.State,
			ReferenceID: entry.ReferenceID,
			Description: entry.Description,
			Metadata:    entry.Metadata,
			IsFrozen:    entry.IsFrozen,
			CreatedAt:   now,
		})
	}
	if err := s.repo.WithTx(tx).CreateBatch(ctx, rows); err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write ledger entries")
	}
	for _, entry := range entries {
		if entry.AmountCents > 0 {
			s.metrics.ObserveTransaction(string(entry.State), entry.AmountCents)
		}
	}
	return groupID, nil
}

// TransitionMoneyState moves an amount between two states as an exit/entry
// pair. The exit leg drives the old state's balance to zero; history is never
// rewritten.
func (s *service) TransitionMoneyState(ctx context.Context, input TransitionInput) (uuid.UUID, error) {
	var groupID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		groupID, err = s.transitionInTx(ctx, tx, input)
		return err
	})
	if err != nil {
		return uuid.Nil, err
	}
	return groupID, nil
}

func (s *service) transitionInTx(ctx context.Context, tx *gorm.DB, input TransitionInput) (uuid.UUID, error) {
	if err := CanMoveMoney(input.From, input.To); err != nil {
		return uuid.Nil, err
	}
	if input.AmountCents <= 0 {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "transition amount must be positive")
	}

	exit := EntryInput{
		EntityID:    input.EntityID,
		EntityType:  input.EntityType,
		ActorID:     input.ActorID,
		ActorType:   input.ActorType,
		AmountCents: -input.AmountCents,
		Currency:    input.Currency,
		State:       input.From,
		ReferenceID: input.ReferenceID,
		Description: input.Description,
		Metadata:    input.Metadata,
	}
	entry := exit
	entry.AmountCents = input.AmountCents
	entry.State = input.To

	groupID, err := s.recordTransactionInTx(ctx, tx, []EntryInput{exit, entry})
	if err != nil {
		return uuid.Nil, err
	}

	err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventMoneyStateChanged,
		AggregateType: enums.AggregateLedgerGroup,
		AggregateID:   groupID,
		Version:       1,
		Data: MoneyStateChangedEvent{
			GroupID:     groupID,
			EntityID:    input.EntityID,
			From:        input.From,
			To:          input.To,
			AmountCents: input.AmountCents,
		},
	})
	if err != nil {
		return uuid.Nil, err
	}
	return groupID, nil
}

// RecordOrderAuthorized books a fresh authorization: the guest's obligation
// against the platform's AUTHORIZED balance.
func (s *service) RecordOrderAuthorized(ctx context.Context, order *models.Order, referenceID string) error {
	if err := validateOrderAmount(order, referenceID); err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		done, err := s.alreadyApplied(ctx, tx, referenceID, enums.MoneyStateAuthorized)
		if err != nil || done {
			return err
		}
		ref := referenceID
		_, err = s.recordTransactionInTx(ctx, tx, []EntryInput{
			{
				EntityID:    order.ID,
				EntityType:  enums.LedgerEntityOrder,
				ActorID:     order.UserID,
				ActorType:   enums.LedgerActorGuest,
				AmountCents: -order.TotalAmountCents,
				Currency:    order.Currency,
				State:       enums.MoneyStateAuthorized,
				ReferenceID: &ref,
				Description: "order authorization",
			},
			{
				EntityID:    order.ID,
				EntityType:  enums.LedgerEntityOrder,
				ActorID:     s.platform,
				ActorType:   enums.LedgerActorPlatform,
				AmountCents: order.TotalAmountCents,
				Currency:    order.Currency,
				State:       enums.MoneyStateAuthorized,
				ReferenceID: &ref,
				Description: "order authorization",
			},
		})
		return err
	})
}

// RecordOrderCaptured moves an order's money AUTHORIZED→CAPTURED. Duplicate
// webhook deliveries with the same referenceId are no-ops.
func (s *service) RecordOrderCaptured(ctx context.Context, order *models.Order, referenceID string) error {
	return s.transitionOrder(ctx, order, referenceID,
		enums.MoneyStateAuthorized, enums.MoneyStateCaptured, "payment capture")
}

// HoldOrderRevenue moves an order's money CAPTURED→HELD for the event-window
// escrow period.
func (s *service) HoldOrderRevenue(ctx context.Context, order *models.Order, referenceID string) error {
	return s.transitionOrder(ctx, order, referenceID,
		enums.MoneyStateCaptured, enums.MoneyStateHeld, "revenue hold")
}

// SettleOrderRevenue moves an order's money HELD→SETTLED once the event has
// concluded without open disputes.
func (s *service) SettleOrderRevenue(ctx context.Context, order *models.Order, referenceID string) error {
	return s.transitionOrder(ctx, order, referenceID,
		enums.MoneyStateHeld, enums.MoneyStateSettled, "revenue settlement")
}

func (s *service) transitionOrder(ctx context.Context, order *models.Order, referenceID string, from, to enums.MoneyState, description string) error {
	if err := validateOrderAmount(order, referenceID); err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		done, err := s.alreadyApplied(ctx, tx, referenceID, to)
		if err != nil || done {
			return err
		}
		frozen, err := s.repo.WithTx(tx).HasFrozenForEntity(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "probe frozen entries")
		}
		if frozen {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order has frozen ledger entries under dispute")
		}
		ref := referenceID
		_, err = s.transitionInTx(ctx, tx, TransitionInput{
			EntityID:    order.ID,
			EntityType:  enums.LedgerEntityOrder,
			ActorID:     s.platform,
			ActorType:   enums.LedgerActorPlatform,
			From:        from,
			To:          to,
			AmountCents: order.TotalAmountCents,
			Currency:    order.Currency,
			ReferenceID: &ref,
			Description: description,
		})
		return err
	})
}

// AllocateToPayable fans an order's SETTLED balance out to its recipients via
// the TRANSIT pool. Every group written here balances to zero on its own even
// though the overall settlement distributes to several parties.
func (s *service) AllocateToPayable(ctx context.Context, order *models.Order, splits []Split) error {
	if order == nil || order.ID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order is required")
	}
	if len(splits) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one split is required")
	}

	total := decimal.Zero
	for i, split := range splits {
		if split.RecipientID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("split %d: recipient id is required", i))
		}
		if !split.ActorType.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("split %d: invalid actor type %q", i, split.ActorType))
		}
		if split.AmountCents <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("split %d: amount must be positive", i))
		}
		total = total.Add(decimal.NewFromInt(split.AmountCents))
	}
	if !total.Equal(decimal.NewFromInt(order.TotalAmountCents)) {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("splits total %s does not match order total %d", total, order.TotalAmountCents))
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		frozen, err := s.repo.WithTx(tx).HasFrozenForEntity(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "probe frozen entries")
		}
		if frozen {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order has frozen ledger entries under dispute")
		}

		// First hop: the whole settled balance enters the transit pool.
		if _, err := s.transitionInTx(ctx, tx, TransitionInput{
			EntityID:    order.ID,
			EntityType:  enums.LedgerEntityOrder,
			ActorID:     s.platform,
			ActorType:   enums.LedgerActorPlatform,
			From:        enums.MoneyStateSettled,
			To:          enums.MoneyStateTransit,
			AmountCents: order.TotalAmountCents,
			Currency:    order.Currency,
			Description: "settlement fan-out",
		}); err != nil {
			return err
		}

		// Second hop: one balanced pair per recipient out of the pool.
		for _, split := range splits {
			description := split.Description
			if description == "" {
				description = "settlement allocation"
			}
			_, err := s.recordTransactionInTx(ctx, tx, []EntryInput{
				{
					EntityID:    order.ID,
					EntityType:  enums.LedgerEntityOrder,
					ActorID:     s.platform,
					ActorType:   enums.LedgerActorPlatform,
					AmountCents: -split.AmountCents,
					Currency:    order.Currency,
					State:       enums.MoneyStateTransit,
					Description: description,
				},
				{
					EntityID:    order.ID,
					EntityType:  enums.LedgerEntityOrder,
					ActorID:     split.RecipientID,
					ActorType:   split.ActorType,
					AmountCents: split.AmountCents,
					Currency:    order.Currency,
					State:       enums.MoneyStatePayable,
					Description: description,
				},
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// RecordPayout moves a recipient's PAYABLE balance to PAID_OUT. Duplicate
// payout webhooks with the same referenceId are no-ops.
func (s *service) RecordPayout(ctx context.Context, input PayoutInput) error {
	if input.PayoutID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "payout id is required")
	}
	if input.PartnerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "partner id is required")
	}
	if !input.PartnerType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid partner type %q", input.PartnerType))
	}
	if input.AmountCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "payout amount must be positive")
	}
	if input.ReferenceID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "reference id is required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		done, err := s.alreadyApplied(ctx, tx, input.ReferenceID, enums.MoneyStatePaidOut)
		if err != nil || done {
			return err
		}
		ref := input.ReferenceID
		groupID, err := s.transitionInTx(ctx, tx, TransitionInput{
			EntityID:    input.PayoutID,
			EntityType:  enums.LedgerEntityPayout,
			ActorID:     input.PartnerID,
			ActorType:   input.PartnerType,
			From:        enums.MoneyStatePayable,
			To:          enums.MoneyStatePaidOut,
			AmountCents: input.AmountCents,
			Currency:    input.Currency,
			ReferenceID: &ref,
			Description: "payout",
		})
		if err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPayoutRecorded,
			AggregateType: enums.AggregateLedgerGroup,
			AggregateID:   groupID,
			Version:       1,
			Data: PayoutRecordedEvent{
				PayoutID:    input.PayoutID,
				PartnerID:   input.PartnerID,
				AmountCents: input.AmountCents,
				ReferenceID: input.ReferenceID,
			},
		})
	})
}

// InitiateRefund moves an order's money CAPTURED→REFUND_PENDING inside the
// caller's transaction, so refund approval and money movement commit together.
func (s *service) InitiateRefund(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, amountCents int64, referenceID string) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if referenceID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "reference id is required")
	}
	done, err := s.alreadyApplied(ctx, tx, referenceID, enums.MoneyStateRefundPending)
	if err != nil || done {
		return err
	}
	ref := referenceID
	_, err = s.transitionInTx(ctx, tx, TransitionInput{
		EntityID:    orderID,
		EntityType:  enums.LedgerEntityOrder,
		ActorID:     s.platform,
		ActorType:   enums.LedgerActorPlatform,
		From:        enums.MoneyStateCaptured,
		To:          enums.MoneyStateRefundPending,
		AmountCents: amountCents,
		ReferenceID: &ref,
		Description: "refund initiation",
	})
	return err
}

// FinalizeRefund moves an order's money REFUND_PENDING→REFUNDED once the
// gateway confirms. Duplicate confirmations are no-ops.
func (s *service) FinalizeRefund(ctx context.Context, orderID uuid.UUID, amountCents int64, referenceID string) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if referenceID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "reference id is required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		done, err := s.alreadyApplied(ctx, tx, referenceID, enums.MoneyStateRefunded)
		if err != nil || done {
			return err
		}
		ref := referenceID
		_, err = s.transitionInTx(ctx, tx, TransitionInput{
			EntityID:    orderID,
			EntityType:  enums.LedgerEntityOrder,
			ActorID:     s.platform,
			ActorType:   enums.LedgerActorPlatform,
			From:        enums.MoneyStateRefundPending,
			To:          enums.MoneyStateRefunded,
			AmountCents: amountCents,
			ReferenceID: &ref,
			Description: "refund finalization",
		})
		return err
	})
}

// FreezeDispute books a chargeback: the disputed amount moves to the gateway
// actor and both legs are tagged frozen. No new money state is introduced;
// downstream settlement skips any order carrying a frozen entry.
func (s *service) FreezeDispute(ctx context.Context, input DisputeInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if input.AmountCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "dispute amount must be positive")
	}
	if input.ReferenceID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "reference id is required")
	}
	state := input.State
	if state == "" {
		state = enums.MoneyStateCaptured
	}
	if !state.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid money state %q", input.State))
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ref := input.ReferenceID
		metadata := types.JSONMap{"disputeReason": input.Reason}
		groupID, err := s.recordTransactionInTx(ctx, tx, []EntryInput{
			{
				EntityID:    input.OrderID,
				EntityType:  enums.LedgerEntityOrder,
				ActorID:     s.platform,
				ActorType:   enums.LedgerActorPlatform,
				AmountCents: -input.AmountCents,
				Currency:    input.Currency,
				State:       state,
				ReferenceID: &ref,
				Description: "chargeback freeze",
				Metadata:    metadata,
				IsFrozen:    true,
			},
			{
				EntityID:    input.OrderID,
				EntityType:  enums.LedgerEntityOrder,
				ActorID:     s.platform,
				ActorType:   enums.LedgerActorGateway,
				AmountCents: input.AmountCents,
				Currency:    input.Currency,
				State:       state,
				ReferenceID: &ref,
				Description: "chargeback freeze",
				Metadata:    metadata,
				IsFrozen:    true,
			},
		})
		if err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDisputeFrozen,
			AggregateType: enums.AggregateLedgerGroup,
			AggregateID:   groupID,
			Version:       1,
			Data: DisputeFrozenEvent{
				OrderID:     input.OrderID,
				AmountCents: input.AmountCents,
				ReferenceID: input.ReferenceID,
			},
		})
	})
}

func (s *service) HasFrozenEntries(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (bool, error) {
	frozen, err := s.repo.WithTx(tx).HasFrozenForEntity(ctx, orderID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "probe frozen entries")
	}
	return frozen, nil
}

// GetBalance sums entry amounts over the filter. "How much does X hold in
// state Y" is exactly this query.
func (s *service) GetBalance(ctx context.Context, filter BalanceFilter) (int64, error) {
	total, err := s.repo.SumAmount(ctx, filter)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum ledger entries")
	}
	return total, nil
}

// ListByEntity pages newest-first through an entity's entries with an opaque
// cursor; the returned cursor is empty on the last page.
func (s *service) ListByEntity(ctx context.Context, entityID uuid.UUID, page pagination.Params) ([]models.LedgerEntry, string, error) {
	cursor, err := pagination.ParseCursor(page.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(page.Limit)
	entries, err := s.repo.ListByEntity(ctx, entityID, cursor, pagination.LimitWithBuffer(page.Limit))
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger entries")
	}

	next := ""
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[len(entries)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return entries, next, nil
}

func (s *service) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]models.LedgerEntry, error) {
	entries, err := s.repo.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger entries")
	}
	return entries, nil
}

func (s *service) alreadyApplied(ctx context.Context, tx *gorm.DB, referenceID string, state enums.MoneyState) (bool, error) {
	if referenceID == "" {
		return false, nil
	}
	exists, err := s.repo.WithTx(tx).ExistsReference(ctx, referenceID, state)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "probe reference idempotency")
	}
	return exists, nil
}

func validateOrderAmount(order *models.Order, referenceID string) error {
	if order == nil || order.ID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order is required")
	}
	if order.TotalAmountCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order total must be positive")
	}
	if referenceID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "reference id is required")
	}
	return nil
}
