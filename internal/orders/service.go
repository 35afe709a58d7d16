package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danielcastano/eventgate-backend/pkg/db/models"
	"github.com/danielcastano/eventgate-backend/pkg/enums"
	pkgerrors "github.com/danielcastano/eventgate-backend/pkg/errors"
	"github.com/danielcastano/eventgate-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// EntitlementSideEffects is the slice of the entitlement engine the order
// lifecycle drives on specific transitions.
type EntitlementSideEffects interface {
	IssueForOrder(ctx context.Context, tx *gorm.DB, order *models.Order, actorID uuid.UUID) ([]models.Entitlement, error)
	RevokeForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, reason string, actorID uuid.UUID) error
	ConsumeForCheckIn(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, entitlementID *uuid.UUID, scannerID uuid.UUID) error
}

// LedgerSideEffects is the slice of the ledger engine the order lifecycle drives.
type LedgerSideEffects interface {
	InitiateRefund(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, amountCents int64, referenceID string) error
	HasFrozenEntries(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (bool, error)
}

// Service defines order lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	History(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusChange, error)
	Validate(ctx context.Context, orderID uuid.UUID, event enums.OrderEvent, actor Actor) (*ValidationResult, error)
	Transition(ctx context.Context, req TransitionRequest) (*models.Order, error)
	ApproveRefund(ctx context.Context, orderID uuid.UUID, approver Actor) (*models.Order, error)
}

// ServiceParams wires the order service dependencies.
type ServiceParams struct {
	Repo                   Repository
	Tx                     txRunner
	Outbox                 outboxPublisher
	Entitlements           EntitlementSideEffects
	Ledger                 LedgerSideEffects
	AutoApproveLimitCents  int64
	DualApprovalLimitCents int64
}

type service struct {
	repo         Repository
	tx           txRunner
	outbox       outboxPublisher
	entitlements EntitlementSideEffects
	ledger       LedgerSideEffects
	autoLimit    int64
	dualLimit    int64
}

// NewService builds an order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Entitlements == nil {
		return nil, fmt.Errorf("entitlement side effects required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger side effects required")
	}
	return &service{
		repo:         params.Repo,
		tx:           params.Tx,
		outbox:       params.Outbox,
		entitlements: params.Entitlements,
		ledger:       params.Ledger,
		autoLimit:    params.AutoApproveLimitCents,
		dualLimit:    params.DualApprovalLimitCents,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.EventID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id is required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line item is required")
	}
	currency := input.Currency
	if currency == "" {
		currency = enums.CurrencyUSD
	}
	if !currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid currency %q", input.Currency))
	}

	var total int64
	items := make([]models.OrderLineItem, 0, len(input.Items))
	for _, item := range input.Items {
		if item.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line item qty must be positive")
		}
		if item.UnitPriceCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line item price cannot be negative")
		}
		if !item.TicketType.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid ticket type %q", item.TicketType))
		}
		lineTotal := item.UnitPriceCents * int64(item.Qty)
		total += lineTotal
		items = append(items, models.OrderLineItem{
			TierID:           item.TierID,
			TierName:         item.TierName,
			TicketType:       item.TicketType,
			GenderConstraint: item.GenderConstraint,
			UnitPriceCents:   item.UnitPriceCents,
			Qty:              item.Qty,
			TotalCents:       lineTotal,
		})
	}

	order := &models.Order{
		UserID:           input.UserID,
		EventID:          input.EventID,
		Status:           enums.OrderStatusDraft,
		Currency:         currency,
		TotalAmountCents: total,
		Items:            items,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.UserID},
			Data: StatusChangedEvent{
				OrderID:  order.ID,
				UserID:   order.UserID,
				EventID:  order.EventID,
				ToStatus: order.Status,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindWithItems(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) History(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusChange, error) {
	changes, err := s.repo.ListStatusHistory(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load status history")
	}
	return changes, nil
}

func (s *service) Validate(ctx context.Context, orderID uuid.UUID, event enums.OrderEvent, actor Actor) (*ValidationResult, error) {
	order, err := s.repo.Find(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	result := ValidateTransition(order, event, actor, s.autoLimit, s.dualLimit)
	return &result, nil
}

// Transition applies one state machine event and its side effects in a single
// transaction. The fresh read inside the transaction is what makes concurrent
// callers safe: the second caller observes the post-mutation status and fails.
func (s *service) Transition(ctx context.Context, req TransitionRequest) (*models.Order, error) {
	if req.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !req.Event.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order event %q", req.Event))
	}
	if req.Actor.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.Find(ctx, req.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		if req.Event == enums.OrderEventRequestRefund {
			if err := s.stampRefundRequest(order, req); err != nil {
				return err
			}
		}
		if req.Event == enums.OrderEventApproveRefund {
			required := ApproversRequired(order.RefundAmountCents, s.autoLimit, s.dualLimit)
			if have := len(order.RefundApprovals); have < required {
				return pkgerrors.New(pkgerrors.CodeForbidden,
					fmt.Sprintf("refund needs %d approvals, has %d", required, have))
			}
		}

		change, err := ApplyTransition(order, TransitionInput{
			Event:    req.Event,
			Actor:    req.Actor,
			Reason:   req.Reason,
			Metadata: req.Metadata,
		})
		if err != nil {
			return err
		}

		if err := repo.Update(ctx, order.ID, transitionUpdates(order)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist transition")
		}
		if err := repo.AppendStatusChange(ctx, change); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
		}

		if err := s.applySideEffects(ctx, tx, order, req); err != nil {
			return err
		}

		result = order
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     outboxEventFor(req.Event),
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: req.Actor.ID},
			Data: StatusChangedEvent{
				OrderID:    order.ID,
				UserID:     order.UserID,
				EventID:    order.EventID,
				FromStatus: change.FromStatus,
				ToStatus:   change.ToStatus,
				Event:      req.Event,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ApproveRefund records one approval and applies APPROVE_REFUND once the
// amount's approval tier is satisfied.
func (s *service) ApproveRefund(ctx context.Context, orderID uuid.UUID, approver Actor) (*models.Order, error) {
	if !approver.IsAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "refund approval requires admin authority")
	}

	var ready bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.Find(ctx, orderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Status != enums.OrderStatusRefundRequested {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order has no pending refund request")
		}
		for _, id := range order.RefundApprovals {
			if id == approver.ID {
				return pkgerrors.New(pkgerrors.CodeConflict, "approver already recorded")
			}
		}
		order.RefundApprovals = append(order.RefundApprovals, approver.ID)
		if err := repo.Update(ctx, order.ID, map[string]any{"refund_approvals": order.RefundApprovals}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record approval")
		}
		required := ApproversRequired(order.RefundAmountCents, s.autoLimit, s.dualLimit)
		ready = len(order.RefundApprovals) >= required
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !ready {
		return s.Get(ctx, orderID)
	}
	return s.Transition(ctx, TransitionRequest{
		OrderID: orderID,
		Event:   enums.OrderEventApproveRefund,
		Actor:   approver,
	})
}

func (s *service) stampRefundRequest(order *models.Order, req TransitionRequest) error {
	amount := req.RefundAmountCents
	if amount <= 0 {
		amount = order.TotalAmountCents
	}
	if amount > order.TotalAmountCents {
		return pkgerrors.New(pkgerrors.CodeValidation, "refund amount exceeds order total")
	}
	order.RefundAmountCents = amount
	order.RefundApprovals = nil
	return nil
}

func (s *service) applySideEffects(ctx context.Context, tx *gorm.DB, order *models.Order, req TransitionRequest) error {
	switch req.Event {
	case enums.OrderEventPaymentSuccess:
		full, err := s.repo.WithTx(tx).FindWithItems(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order items")
		}
		if _, err := s.entitlements.IssueForOrder(ctx, tx, full, req.Actor.ID); err != nil {
			return err
		}
	case enums.OrderEventCheckIn:
		if err := s.entitlements.ConsumeForCheckIn(ctx, tx, order.ID, req.EntitlementID, req.Actor.ID); err != nil {
			return err
		}
	case enums.OrderEventApproveRefund:
		frozen, err := s.ledger.HasFrozenEntries(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		if frozen {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order has frozen ledger entries under dispute")
		}
		referenceID := fmt.Sprintf("refund-%s", order.ID)
		if req.ReferenceID != nil && *req.ReferenceID != "" {
			referenceID = *req.ReferenceID
		}
		if err := s.ledger.InitiateRefund(ctx, tx, order.ID, order.RefundAmountCents, referenceID); err != nil {
			return err
		}
		if err := s.entitlements.RevokeForOrder(ctx, tx, order.ID, "REFUND", req.Actor.ID); err != nil {
			return err
		}
	case enums.OrderEventCancel:
		if order.ConfirmedAt != nil {
			if err := s.entitlements.RevokeForOrder(ctx, tx, order.ID, "CANCELLED", req.Actor.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

func transitionUpdates(order *models.Order) map[string]any {
	return map[string]any{
		"status":              order.Status,
		"refund_status":       order.RefundStatus,
		"refund_amount_cents": order.RefundAmountCents,
		"refund_requested_by": order.RefundRequestedBy,
		"refund_approvals":    order.RefundApprovals,
		"confirmed_at":        order.ConfirmedAt,
		"checked_in_at":       order.CheckedInAt,
		"checked_in_by":       order.CheckedInBy,
		"refunded_at":         order.RefundedAt,
		"cancelled_at":        order.CancelledAt,
		"expired_at":          order.ExpiredAt,
	}
}

func outboxEventFor(event enums.OrderEvent) enums.OutboxEventType {
	switch event {
	case enums.OrderEventPaymentSuccess:
		return enums.EventOrderConfirmed
	case enums.OrderEventTimeout, enums.OrderEventExpire:
		return enums.EventOrderExpired
	case enums.OrderEventCancel:
		return enums.EventOrderCancelled
	case enums.OrderEventApproveRefund:
		return enums.EventOrderRefunded
	default:
		return enums.EventOrderStatusChanged
	}
}
