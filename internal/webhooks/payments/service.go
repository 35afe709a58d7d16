package paymentswebhook

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/danielcastano/eventgate-backend/internal/ledger"
	"github.com/danielcastano/eventgate-backend/internal/orders"
	"github.com/danielcastano/eventgate-backend/pkg/db/models"
	"github.com/danielcastano/eventgate-backend/pkg/enums"
	pkgerrors "github.com/danielcastano/eventgate-backend/pkg/errors"
	"github.com/danielcastano/eventgate-backend/pkg/types"
)

type orderTransitioner interface {
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	Transition(ctx context.Context, req orders.TransitionRequest) (*models.Order, error)
}

type ledgerRecorder interface {
	RecordOrderAuthorized(ctx context.Context, order *models.Order, referenceID string) error
	RecordOrderCaptured(ctx context.Context, order *models.Order, referenceID string) error
	FinalizeRefund(ctx context.Context, orderID uuid.UUID, amountCents int64, referenceID string) error
	FreezeDispute(ctx context.Context, input ledger.DisputeInput) error
}

// PaymentEvent is the gateway's webhook envelope.
type PaymentEvent struct {
	EventID string           `json:"eventId"`
	Type    string           `json:"type"`
	Data    PaymentEventData `json:"data"`
}

// PaymentEventData carries the order the event is about.
type PaymentEventData struct {
	OrderID     uuid.UUID      `json:"orderId"`
	AmountCents int64          `json:"amountCents"`
	Currency    enums.Currency `json:"currency"`
	ReferenceID string         `json:"referenceId"`
	Reason      string         `json:"reason,omitempty"`
}

// Gateway event types this service reacts to. Everything else is acknowledged
// and dropped.
const (
	EventPaymentAuthorized = "payment.authorized"
	EventPaymentCaptured   = "payment.captured"
	EventPaymentFailed     = "payment.failed"
	EventRefundSettled     = "refund.settled"
	EventDisputeCreated    = "dispute.created"
)

type ServiceParams struct {
	Orders orderTransitioner
	Ledger ledgerRecorder
	// SystemActorID is recorded as the actor on gateway-driven transitions.
	SystemActorID uuid.UUID
}

type Service struct {
	orders orderTransitioner
	ledger ledgerRecorder
	system uuid.UUID
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order service required")
	}
	if params.Ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger service required")
	}
	if params.SystemActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "system actor id required")
	}
	return &Service{
		orders: params.Orders,
		ledger: params.Ledger,
		system: params.SystemActorID,
	}, nil
}

// HandleEvent applies one verified gateway event. The caller has already
// checked the signature and the idempotency guard.
func (s *Service) HandleEvent(ctx context.Context, event *PaymentEvent) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment event required")
	}
	if event.Data.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id missing from event")
	}

	switch event.Type {
	case EventPaymentAuthorized:
		return s.handleAuthorized(ctx, event)
	case EventPaymentCaptured:
		return s.handleCaptured(ctx, event)
	case EventPaymentFailed:
		return s.handleFailed(ctx, event)
	case EventRefundSettled:
		return s.handleRefundSettled(ctx, event)
	case EventDisputeCreated:
		return s.handleDispute(ctx, event)
	default:
		return nil
	}
}

func (s *Service) handleAuthorized(ctx context.Context, event *PaymentEvent) error {
	if event.Data.ReferenceID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "reference id missing from event")
	}
	order, err := s.orders.Get(ctx, event.Data.OrderID)
	if err != nil {
		return err
	}
	return s.ledger.RecordOrderAuthorized(ctx, order, event.Data.ReferenceID)
}

func (s *Service) handleCaptured(ctx context.Context, event *PaymentEvent) error {
	if event.Data.ReferenceID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "reference id missing from event")
	}
	ref := event.Data.ReferenceID
	order, err := s.orders.Transition(ctx, orders.TransitionRequest{
		OrderID:     event.Data.OrderID,
		Event:       enums.OrderEventPaymentSuccess,
		Actor:       orders.Actor{ID: s.system},
		ReferenceID: &ref,
		Metadata:    types.JSONMap{"gatewayEventId": event.EventID},
	})
	if err != nil {
		// A redelivery after a failed capture finds the order already
		// confirmed. The capture is referenceId-idempotent, so fall
		// through and book it instead of stranding the money.
		if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeStateConflict {
			return err
		}
		current, getErr := s.orders.Get(ctx, event.Data.OrderID)
		if getErr != nil {
			return getErr
		}
		if current.Status != enums.OrderStatusConfirmed {
			return err
		}
		order = current
	}
	return s.ledger.RecordOrderCaptured(ctx, order, ref)
}

func (s *Service) handleFailed(ctx context.Context, event *PaymentEvent) error {
	reason := event.Data.Reason
	if reason == "" {
		reason = "payment declined by gateway"
	}
	_, err := s.orders.Transition(ctx, orders.TransitionRequest{
		OrderID:  event.Data.OrderID,
		Event:    enums.OrderEventPaymentFailed,
		Actor:    orders.Actor{ID: s.system},
		Reason:   &reason,
		Metadata: types.JSONMap{"gatewayEventId": event.EventID},
	})
	return err
}

func (s *Service) handleRefundSettled(ctx context.Context, event *PaymentEvent) error {
	if event.Data.ReferenceID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "reference id missing from event")
	}
	if event.Data.AmountCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("invalid refund amount %d", event.Data.AmountCents))
	}
	return s.ledger.FinalizeRefund(ctx, event.Data.OrderID, event.Data.AmountCents, event.Data.ReferenceID)
}

func (s *Service) handleDispute(ctx context.Context, event *PaymentEvent) error {
	if event.Data.ReferenceID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "reference id missing from event")
	}
	if event.Data.AmountCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("invalid dispute amount %d", event.Data.AmountCents))
	}
	return s.ledger.FreezeDispute(ctx, ledger.DisputeInput{
		OrderID:     event.Data.OrderID,
		AmountCents: event.Data.AmountCents,
		Currency:    event.Data.Currency,
		ReferenceID: event.Data.ReferenceID,
		Reason:      event.Data.Reason,
	})
}
