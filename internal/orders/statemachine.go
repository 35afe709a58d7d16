package orders

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/danielcastano/eventgate-backend/pkg/db/models"
	"github.com/danielcastano/eventgate-backend/pkg/enums"
	pkgerrors "github.com/danielcastano/eventgate-backend/pkg/errors"
	"github.com/danielcastano/eventgate-backend/pkg/types"
)

// transitionTable maps (status, event) to the only status the event may produce.
// Keep the table exhaustive over enums.OrderStatus so new statuses surface here.
var transitionTable = map[enums.OrderStatus]map[enums.OrderEvent]enums.OrderStatus{
	enums.OrderStatusDraft: {
		enums.OrderEventReserve: enums.OrderStatusReserved,
		enums.OrderEventCancel:  enums.OrderStatusCancelled,
	},
	enums.OrderStatusReserved: {
		enums.OrderEventInitiatePayment: enums.OrderStatusPaymentPending,
		enums.OrderEventExpire:          enums.OrderStatusExpired,
		enums.OrderEventCancel:          enums.OrderStatusCancelled,
	},
	enums.OrderStatusPaymentPending: {
		enums.OrderEventPaymentSuccess: enums.OrderStatusConfirmed,
		enums.OrderEventPaymentFailed:  enums.OrderStatusReserved,
		enums.OrderEventTimeout:        enums.OrderStatusExpired,
		enums.OrderEventCancel:         enums.OrderStatusCancelled,
	},
	enums.OrderStatusConfirmed: {
		enums.OrderEventCheckIn:       enums.OrderStatusCheckedIn,
		enums.OrderEventRequestRefund: enums.OrderStatusRefundRequested,
		enums.OrderEventCancel:        enums.OrderStatusCancelled,
	},
	enums.OrderStatusCheckedIn: {
		enums.OrderEventRequestRefund: enums.OrderStatusRefundRequested,
	},
	enums.OrderStatusRefundRequested: {
		enums.OrderEventApproveRefund: enums.OrderStatusRefunded,
		enums.OrderEventRejectRefund:  enums.OrderStatusConfirmed,
	},
	enums.OrderStatusRefunded:  {},
	enums.OrderStatusCancelled: {},
	enums.OrderStatusExpired:   {},
}

// NextStatus resolves the status the event produces from the given status.
func NextStatus(from enums.OrderStatus, event enums.OrderEvent) (enums.OrderStatus, error) {
	if !from.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", from))
	}
	if !event.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order event %q", event))
	}
	next, ok := transitionTable[from][event]
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("event %s is not allowed from status %s", event, from))
	}
	return next, nil
}

// CanTransition validates that the table maps (from, event) to exactly the given
// target status. Mismatches fail with a descriptive reason, never a silent coercion.
func CanTransition(from, to enums.OrderStatus, event enums.OrderEvent) error {
	if !to.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", to))
	}
	next, err := NextStatus(from, event)
	if err != nil {
		return err
	}
	if next != to {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("event %s moves %s to %s, not %s", event, from, next, to))
	}
	return nil
}

// RequiresAdminAuthority reports whether the event, fired from the given status,
// is reserved for callers with an elevated role.
func RequiresAdminAuthority(status enums.OrderStatus, event enums.OrderEvent) bool {
	switch event {
	case enums.OrderEventApproveRefund, enums.OrderEventRejectRefund:
		return true
	case enums.OrderEventCancel:
		return status == enums.OrderStatusConfirmed
	case enums.OrderEventRequestRefund:
		return status == enums.OrderStatusCheckedIn
	default:
		return false
	}
}

// ApproversRequired returns how many distinct approvals a refund of the given
// amount needs before APPROVE_REFUND may be applied. Advisory: the service owns
// counting the approvals actually recorded.
func ApproversRequired(amountCents, autoLimitCents, dualLimitCents int64) int {
	switch {
	case amountCents < autoLimitCents:
		return 0
	case amountCents <= dualLimitCents:
		return 1
	default:
		return 2
	}
}

// ValidationResult is the pre-flight answer for a proposed transition.
type ValidationResult struct {
	Valid             bool              `json:"valid"`
	Errors            []string          `json:"errors,omitempty"`
	Warnings          []string          `json:"warnings,omitempty"`
	NextStatus        enums.OrderStatus `json:"nextStatus,omitempty"`
	RequiresAdmin     bool              `json:"requiresAdmin"`
	ApproversRequired int               `json:"approversRequired,omitempty"`
}

// Actor identifies who is driving a transition.
type Actor struct {
	ID      uuid.UUID
	IsAdmin bool
}

// ValidateTransition checks a proposed transition without mutating the order.
func ValidateTransition(order *models.Order, event enums.OrderEvent, actor Actor, autoLimitCents, dualLimitCents int64) ValidationResult {
	result := ValidationResult{NextStatus: ""}

	next, err := NextStatus(order.Status, event)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	result.NextStatus = next
	result.RequiresAdmin = RequiresAdminAuthority(order.Status, event)

	if result.RequiresAdmin && !actor.IsAdmin {
		result.Errors = append(result.Errors, fmt.Sprintf("event %s requires admin authority", event))
		return result
	}

	if event == enums.OrderEventApproveRefund {
		required := ApproversRequired(order.RefundAmountCents, autoLimitCents, dualLimitCents)
		result.ApproversRequired = required
		if have := len(order.RefundApprovals); have < required {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("refund of %d cents needs %d approvals, has %d", order.RefundAmountCents, required, have))
		}
	}

	result.Valid = true
	return result
}

// TransitionInput carries the contextual fields stamped onto the history row.
type TransitionInput struct {
	Event    enums.OrderEvent
	Actor    Actor
	Reason   *string
	Metadata types.JSONMap
	Now      time.Time
}

// ApplyTransition mutates the order in memory: new status, milestone timestamps,
// and the history row mirroring the accepted transition. Pure with respect to I/O;
// persisting both mutations atomically is the caller's job.
func ApplyTransition(order *models.Order, input TransitionInput) (*models.OrderStatusChange, error) {
	next, err := NextStatus(order.Status, input.Event)
	if err != nil {
		return nil, err
	}
	if RequiresAdminAuthority(order.Status, input.Event) && !input.Actor.IsAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden,
			fmt.Sprintf("event %s requires admin authority", input.Event))
	}

	now := input.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	change := &models.OrderStatusChange{
		OrderID:    order.ID,
		FromStatus: order.Status,
		ToStatus:   next,
		Event:      input.Event,
		ActorID:    input.Actor.ID,
		Reason:     input.Reason,
		Metadata:   input.Metadata,
		CreatedAt:  now,
	}

	order.Status = next
	switch next {
	case enums.OrderStatusConfirmed:
		if input.Event == enums.OrderEventPaymentSuccess {
			order.ConfirmedAt = &now
		}
		if input.Event == enums.OrderEventRejectRefund {
			order.RefundStatus = enums.RefundStatusRejected
		}
	case enums.OrderStatusCheckedIn:
		order.CheckedInAt = &now
		actorID := input.Actor.ID
		order.CheckedInBy = &actorID
	case enums.OrderStatusRefundRequested:
		order.RefundStatus = enums.RefundStatusPending
		requester := input.Actor.ID
		order.RefundRequestedBy = &requester
	case enums.OrderStatusRefunded:
		order.RefundedAt = &now
		order.RefundStatus = enums.RefundStatusApproved
	case enums.OrderStatusCancelled:
		order.CancelledAt = &now
	case enums.OrderStatusExpired:
		order.ExpiredAt = &now
	}

	order.StatusHistory = append(order.StatusHistory, *change)
	return change, nil
}
