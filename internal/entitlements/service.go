package entitlements

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danielcastano/eventgate-backend/pkg/db/models"
	"github.com/danielcastano/eventgate-backend/pkg/enums"
	pkgerrors "github.com/danielcastano/eventgate-backend/pkg/errors"
	"github.com/danielcastano/eventgate-backend/pkg/metrics"
	"github.com/danielcastano/eventgate-backend/pkg/outbox"
	"github.com/danielcastano/eventgate-backend/pkg/types"
)

const metadataVersion = 1

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines entitlement engine operations. The tx-scoped methods are
// driven by the order lifecycle inside its own transaction; the rest own
// their transaction boundaries.
type Service interface {
	IssueForOrder(ctx context.Context, tx *gorm.DB, order *models.Order, actorID uuid.UUID) ([]models.Entitlement, error)
	RevokeForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, reason string, actorID uuid.UUID) error
	ConsumeForCheckIn(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, entitlementID *uuid.UUID, scannerID uuid.UUID) error

	GenerateCode(ctx context.Context, entitlementID uuid.UUID) (*CodePayload, error)
	ProcessEntryScan(ctx context.Context, req ScanRequest) (*ScanOutcome, error)
	Transfer(ctx context.Context, input TransferInput) (*models.Entitlement, error)
	Revoke(ctx context.Context, entitlementID uuid.UUID, reason string, actorID uuid.UUID) error
	Get(ctx context.Context, entitlementID uuid.UUID) (*models.Entitlement, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Entitlement, error)
	ListByOwner(ctx context.Context, ownerUserID uuid.UUID) ([]models.Entitlement, error)
	ListScans(ctx context.Context, eventID uuid.UUID, limit int) ([]models.ScanRecord, error)
}

// ServiceParams wires the entitlement service dependencies.
type ServiceParams struct {
	Repo   Repository
	Tx     txRunner
	Outbox outboxPublisher
	Signer *CodeSigner
	// Metrics is optional; a nil value disables instrumentation.
	Metrics *metrics.ScanMetrics
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	signer  *CodeSigner
	metrics *metrics.ScanMetrics
}

// NewService builds an entitlement service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("entitlements repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Signer == nil {
		return nil, fmt.Errorf("code signer required")
	}
	return &service{
		repo:    params.Repo,
		tx:      params.Tx,
		outbox:  params.Outbox,
		signer:  params.Signer,
		metrics: params.Metrics,
	}, nil
}

// IssueForOrder creates one credential per unit quantity on the order's line
// items, all ISSUED, all in the caller's transaction.
func (s *service) IssueForOrder(ctx context.Context, tx *gorm.DB, order *models.Order, actorID uuid.UUID) ([]models.Entitlement, error) {
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order is required")
	}
	if len(order.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order has no line items to issue against")
	}

	now := time.Now().UTC()
	var entitlements []models.Entitlement
	for _, item := range order.Items {
		for unit := 0; unit < item.Qty; unit++ {
			entitlements = append(entitlements, models.Entitlement{
				ID:               uuid.New(),
				EventID:          order.EventID,
				OrderID:          order.ID,
				OwnerUserID:      order.UserID,
				TicketType:       item.TicketType,
				GenderConstraint: item.GenderConstraint,
				ScanCountAllowed: 1,
				State:            enums.EntitlementStateIssued,
				IssuedAt:         now,
				Metadata: models.EntitlementMetadata{
					Version:  metadataVersion,
					TierID:   item.TierID,
					TierName: item.TierName,
				},
			})
		}
	}

	repo := s.repo.WithTx(tx)
	if err := repo.CreateBatch(ctx, entitlements); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "issue entitlements")
	}

	ids := make([]uuid.UUID, 0, len(entitlements))
	for _, e := range entitlements {
		ids = append(ids, e.ID)
	}
	err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventEntitlementsIssued,
		AggregateType: enums.AggregateEntitlement,
		AggregateID:   order.ID,
		Version:       1,
		Actor:         &outbox.ActorRef{UserID: actorID},
		Data: IssuedEvent{
			OrderID:        order.ID,
			EventID:        order.EventID,
			EntitlementIDs: ids,
		},
	})
	if err != nil {
		return nil, err
	}
	return entitlements, nil
}

// RevokeForOrder revokes every credential on the order that is still
// revocable. Consumed and already-revoked credentials are left alone so a
// refund after partial check-in does not fail.
func (s *service) RevokeForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, reason string, actorID uuid.UUID) error {
	repo := s.repo.WithTx(tx)
	entitlements, err := repo.ListByOrder(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order entitlements")
	}
	for _, entitlement := range entitlements {
		if !entitlement.State.IsScannable() {
			continue
		}
		if _, err := s.revokeInTx(ctx, tx, &entitlement, reason, actorID, nil); err != nil {
			return err
		}
	}
	return nil
}

// ConsumeForCheckIn consumes either the named credential or every still
// scannable credential on the order. Check-in is an operator-driven admission:
// the gate already trusts the order, so no code verification happens here, but
// each consumption still lands in the scan ledger.
func (s *service) ConsumeForCheckIn(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, entitlementID *uuid.UUID, scannerID uuid.UUID) error {
	repo := s.repo.WithTx(tx)

	var targets []models.Entitlement
	if entitlementID != nil {
		entitlement, err := repo.Find(ctx, *entitlementID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "entitlement not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load entitlement")
		}
		if entitlement.OrderID != orderID {
			return pkgerrors.New(pkgerrors.CodeConflict, "entitlement does not belong to this order")
		}
		targets = append(targets, *entitlement)
	} else {
		all, err := repo.ListByOrder(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order entitlements")
		}
		for _, entitlement := range all {
			if entitlement.State.IsScannable() {
				targets = append(targets, entitlement)
			}
		}
	}
	if len(targets) == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order has no consumable entitlements")
	}

	for i := range targets {
		entitlement := &targets[i]
		_, applied, err := s.consumeInTx(ctx, tx, entitlement, scannerID, types.JSONMap{"via": "order_check_in"})
		if err != nil {
			return err
		}
		if !applied {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("entitlement %s is not consumable in state %s", entitlement.ID, entitlement.State))
		}
	}
	return nil
}

func (s *service) GenerateCode(ctx context.Context, entitlementID uuid.UUID) (*CodePayload, error) {
	entitlement, err := s.repo.Find(ctx, entitlementID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "entitlement not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load entitlement")
	}
	if !entitlement.State.IsScannable() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("entitlement in state %s cannot produce a code", entitlement.State))
	}
	payload := s.signer.Generate(entitlement.ID)
	return &payload, nil
}

// ProcessEntryScan is the gate's admission decision. Every attempt, granted
// or denied, writes exactly one scan ledger row; denials return a reason in
// the outcome rather than an error so the caller can render them.
func (s *service) ProcessEntryScan(ctx context.Context, req ScanRequest) (*ScanOutcome, error) {
	if req.ScannerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "scanner identity missing")
	}
	if req.EventID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id is required")
	}

	// Code verification runs outside the transaction: no entitlement row is
	// trusted yet, so there is nothing to lock.
	if err := s.signer.Verify(req.Payload); err != nil {
		reason := enums.ScanDenialInvalidQR
		// A stale code identifies a real credential, so the denial row
		// keeps the claimed id; a bad signature identifies nothing.
		var claimed *uuid.UUID
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeConflict {
			reason = enums.ScanDenialStaleQR
			id := req.Payload.ID
			claimed = &id
		}
		outcome, err := s.recordDenial(ctx, nil, req, claimed, reason)
		s.observeScan(req.EventID, outcome)
		return outcome, err
	}

	var outcome *ScanOutcome
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		entitlement, err := repo.Find(ctx, req.Payload.ID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				attempted := req.Payload.ID
				outcome, err = s.recordDenial(ctx, tx, req, &attempted, enums.ScanDenialEntitlementNotFound)
				return err
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load entitlement")
		}

		if reason := denialFor(entitlement, req); reason != nil {
			outcome, err = s.recordDenial(ctx, tx, req, &entitlement.ID, *reason)
			return err
		}

		granted, applied, err := s.consumeInTx(ctx, tx, entitlement, req.ScannerID, scanMetadata(req))
		if err != nil {
			return err
		}
		if !applied {
			// A concurrent scan won the guard between our read and write.
			outcome, err = s.recordDenial(ctx, tx, req, &entitlement.ID, enums.ScanDenialAlreadyConsumed)
			return err
		}
		outcome = granted
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.observeScan(req.EventID, outcome)
	return outcome, nil
}

func (s *service) observeScan(eventID uuid.UUID, outcome *ScanOutcome) {
	if outcome == nil {
		return
	}
	if outcome.Granted {
		s.metrics.IncGranted(eventID.String())
		return
	}
	reason := ""
	if outcome.Reason != nil {
		reason = string(*outcome.Reason)
	}
	s.metrics.IncDenied(eventID.String(), reason)
}

// denialFor applies the entitlement-level checks in spec order: existence and
// event scoping first, lifecycle state next, business rules last.
func denialFor(entitlement *models.Entitlement, req ScanRequest) *enums.ScanDenialReason {
	deny := func(reason enums.ScanDenialReason) *enums.ScanDenialReason { return &reason }

	if entitlement.EventID != req.EventID {
		return deny(enums.ScanDenialEventMismatch)
	}
	if entitlement.State == enums.EntitlementStateConsumed || entitlement.ScanCountUsed >= entitlement.ScanCountAllowed {
		return deny(enums.ScanDenialAlreadyConsumed)
	}
	if entitlement.State == enums.EntitlementStateRevoked {
		return deny(enums.ScanDenialRevoked)
	}
	if entitlement.State == enums.EntitlementStateExpired {
		return deny(enums.ScanDenialExpired)
	}
	if entitlement.GenderConstraint != nil {
		if req.Context.UserGender == nil || *req.Context.UserGender != *entitlement.GenderConstraint {
			return deny(enums.ScanDenialGenderMismatch)
		}
	}
	if entitlement.TicketType == enums.TicketTypeCouple &&
		!req.Context.PartnerPresent && !req.Context.IsCoupleBypassed {
		return deny(enums.ScanDenialCoupleIncomplete)
	}
	return nil
}

func (s *service) consumeInTx(ctx context.Context, tx *gorm.DB, entitlement *models.Entitlement, scannerID uuid.UUID, metadata types.JSONMap) (*ScanOutcome, bool, error) {
	repo := s.repo.WithTx(tx)
	now := time.Now().UTC()

	scanner := scannerID
	applied, err := repo.ConsumeGuarded(ctx, entitlement.ID, map[string]any{
		"scan_count_used":   gorm.Expr("scan_count_used + 1"),
		"state":             enums.EntitlementStateConsumed,
		"consumed_at":       &now,
		"last_scanner_id":   &scanner,
		"consumed_metadata": metadata,
	})
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume entitlement")
	}
	if !applied {
		return nil, false, nil
	}

	entitlement.ScanCountUsed++
	entitlement.State = enums.EntitlementStateConsumed
	entitlement.ConsumedAt = &now
	entitlement.LastScannerID = &scanner
	entitlement.ConsumedMetadata = metadata

	record := &models.ScanRecord{
		ScanID:        uuid.New(),
		EntitlementID: &entitlement.ID,
		EventID:       entitlement.EventID,
		ScannerID:     scannerID,
		Result:        enums.ScanResultGranted,
		Metadata:      metadata,
		CreatedAt:     now,
	}
	if err := repo.AppendScan(ctx, record); err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append scan record")
	}

	err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventEntitlementConsumed,
		AggregateType: enums.AggregateEntitlement,
		AggregateID:   entitlement.ID,
		Version:       1,
		Actor:         &outbox.ActorRef{UserID: scannerID},
		Data: ConsumedEvent{
			EntitlementID: entitlement.ID,
			EventID:       entitlement.EventID,
			OrderID:       entitlement.OrderID,
			ScannerID:     scannerID,
			ScanID:        record.ScanID,
		},
	})
	if err != nil {
		return nil, false, err
	}

	return &ScanOutcome{Granted: true, ScanID: record.ScanID, Entitlement: entitlement}, true, nil
}

// recordDenial writes the denial's scan row. With a nil tx the row is written
// directly (pre-transaction failures); inside a tx it commits with the rest.
func (s *service) recordDenial(ctx context.Context, tx *gorm.DB, req ScanRequest, entitlementID *uuid.UUID, reason enums.ScanDenialReason) (*ScanOutcome, error) {
	repo := s.repo.WithTx(tx)
	denial := reason
	record := &models.ScanRecord{
		ScanID:        uuid.New(),
		EntitlementID: entitlementID,
		EventID:       req.EventID,
		ScannerID:     req.ScannerID,
		Result:        enums.ScanResultDenied,
		ReasonCode:    &denial,
		Metadata:      scanMetadata(req),
		CreatedAt:     time.Now().UTC(),
	}
	if err := repo.AppendScan(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append scan record")
	}

	err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventScanDenied,
		AggregateType: enums.AggregateScan,
		AggregateID:   record.ScanID,
		Version:       1,
		Actor:         &outbox.ActorRef{UserID: req.ScannerID},
		Data: DeniedScanEvent{
			EventID:   req.EventID,
			ScannerID: req.ScannerID,
			ScanID:    record.ScanID,
			Reason:    reason,
		},
	})
	if err != nil {
		return nil, err
	}

	return &ScanOutcome{Granted: false, Reason: &denial, ScanID: record.ScanID}, nil
}

// Transfer revokes the source credential and issues a structurally identical
// replacement for the recipient, lineage preserved, in one transaction.
func (s *service) Transfer(ctx context.Context, input TransferInput) (*models.Entitlement, error) {
	if input.EntitlementID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "entitlement id is required")
	}
	if input.NewOwnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "new owner id is required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}

	var replacement *models.Entitlement
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		source, err := repo.Find(ctx, input.EntitlementID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "entitlement not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load entitlement")
		}
		if !source.State.IsScannable() {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("entitlement in state %s cannot be transferred", source.State))
		}

		newOwner := input.NewOwnerID
		applied, err := s.revokeInTx(ctx, tx, source, "TRANSFER", input.ActorID, &newOwner)
		if err != nil {
			return err
		}
		if !applied {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "entitlement changed state during transfer")
		}

		now := time.Now().UTC()
		sourceID := source.ID
		replacement = &models.Entitlement{
			ID:               uuid.New(),
			EventID:          source.EventID,
			OrderID:          source.OrderID,
			OwnerUserID:      input.NewOwnerID,
			TicketType:       source.TicketType,
			GenderConstraint: source.GenderConstraint,
			ScanCountAllowed: source.ScanCountAllowed,
			State:            enums.EntitlementStateIssued,
			IssuedAt:         now,
			Metadata: models.EntitlementMetadata{
				Version:         metadataVersion,
				TierID:          source.Metadata.TierID,
				TierName:        source.Metadata.TierName,
				TransferredFrom: &sourceID,
				TransferHistory: append(source.Metadata.TransferHistory, models.TransferRecord{
					FromUserID:    source.OwnerUserID,
					ToUserID:      input.NewOwnerID,
					ActorID:       input.ActorID,
					TransferredAt: now,
				}),
			},
		}
		if err := repo.Create(ctx, replacement); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create replacement entitlement")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEntitlementTransferred,
			AggregateType: enums.AggregateEntitlement,
			AggregateID:   replacement.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorID},
			Data: TransferredEvent{
				SourceID:   source.ID,
				NewID:      replacement.ID,
				FromUserID: source.OwnerUserID,
				ToUserID:   input.NewOwnerID,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return replacement, nil
}

// Revoke pulls a single credential out of circulation.
func (s *service) Revoke(ctx context.Context, entitlementID uuid.UUID, reason string, actorID uuid.UUID) error {
	if reason == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "revoke reason is required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		entitlement, err := repo.Find(ctx, entitlementID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "entitlement not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load entitlement")
		}
		applied, err := s.revokeInTx(ctx, tx, entitlement, reason, actorID, nil)
		if err != nil {
			return err
		}
		if !applied {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("entitlement in state %s cannot be revoked", entitlement.State))
		}
		return nil
	})
}

func (s *service) revokeInTx(ctx context.Context, tx *gorm.DB, entitlement *models.Entitlement, reason string, actorID uuid.UUID, newOwner *uuid.UUID) (bool, error) {
	repo := s.repo.WithTx(tx)

	updates := map[string]any{
		"state":         enums.EntitlementStateRevoked,
		"revoke_reason": reason,
		"revoked_by":    actorID,
	}
	if newOwner != nil {
		metadata := entitlement.Metadata
		metadata.TransferredTo = newOwner
		entitlement.Metadata = metadata
		updates["metadata"] = metadata
	}
	applied, err := repo.RevokeGuarded(ctx, entitlement.ID, updates)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke entitlement")
	}
	if !applied {
		return false, nil
	}

	return true, s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventEntitlementRevoked,
		AggregateType: enums.AggregateEntitlement,
		AggregateID:   entitlement.ID,
		Version:       1,
		Actor:         &outbox.ActorRef{UserID: actorID},
		Data: RevokedEvent{
			EntitlementID: entitlement.ID,
			OrderID:       entitlement.OrderID,
			Reason:        reason,
		},
	})
}

func (s *service) Get(ctx context.Context, entitlementID uuid.UUID) (*models.Entitlement, error) {
	entitlement, err := s.repo.Find(ctx, entitlementID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "entitlement not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load entitlement")
	}
	return entitlement, nil
}

func (s *service) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Entitlement, error) {
	entitlements, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order entitlements")
	}
	return entitlements, nil
}

func (s *service) ListByOwner(ctx context.Context, ownerUserID uuid.UUID) ([]models.Entitlement, error) {
	entitlements, err := s.repo.ListByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list owner entitlements")
	}
	return entitlements, nil
}

func (s *service) ListScans(ctx context.Context, eventID uuid.UUID, limit int) ([]models.ScanRecord, error) {
	records, err := s.repo.ListScansByEvent(ctx, eventID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list scan records")
	}
	return records, nil
}

func scanMetadata(req ScanRequest) types.JSONMap {
	metadata := types.JSONMap{
		"partnerPresent":   req.Context.PartnerPresent,
		"isCoupleBypassed": req.Context.IsCoupleBypassed,
	}
	if req.Context.UserGender != nil {
		metadata["userGender"] = *req.Context.UserGender
	}
	return metadata
}
