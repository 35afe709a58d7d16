package orders

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/danielcastano/eventgate-backend/api/middleware"
	"github.com/danielcastano/eventgate-backend/api/responses"
	"github.com/danielcastano/eventgate-backend/api/validators"
	internalorders "github.com/danielcastano/eventgate-backend/internal/orders"
	"github.com/danielcastano/eventgate-backend/pkg/enums"
	pkgerrors "github.com/danielcastano/eventgate-backend/pkg/errors"
	"github.com/danielcastano/eventgate-backend/pkg/logger"
	"github.com/danielcastano/eventgate-backend/pkg/types"
)

type createOrderItemRequest struct {
	TierID           string  `json:"tierId" validate:"required,uuid4"`
	TierName         string  `json:"tierName" validate:"required"`
	TicketType       string  `json:"ticketType" validate:"required"`
	GenderConstraint *string `json:"genderConstraint,omitempty"`
	UnitPriceCents   int64   `json:"unitPriceCents" validate:"min=0"`
	Qty              int     `json:"qty" validate:"required,min=1"`
}

type createOrderRequest struct {
	EventID  string                   `json:"eventId" validate:"required,uuid4"`
	Currency string                   `json:"currency,omitempty"`
	Items    []createOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// Create opens a draft order for the authenticated user.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		eventID, err := uuid.Parse(strings.TrimSpace(payload.EventID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid event id"))
			return
		}

		items := make([]internalorders.LineItemInput, 0, len(payload.Items))
		for _, item := range payload.Items {
			tierID, err := uuid.Parse(strings.TrimSpace(item.TierID))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tier id"))
				return
			}
			items = append(items, internalorders.LineItemInput{
				TierID:           tierID,
				TierName:         item.TierName,
				TicketType:       enums.TicketType(strings.ToLower(strings.TrimSpace(item.TicketType))),
				GenderConstraint: item.GenderConstraint,
				UnitPriceCents:   item.UnitPriceCents,
				Qty:              item.Qty,
			})
		}

		order, err := svc.Create(r.Context(), internalorders.CreateOrderInput{
			UserID:   actor.ID,
			EventID:  eventID,
			Currency: enums.Currency(strings.ToUpper(strings.TrimSpace(payload.Currency))),
			Items:    items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// Detail returns the full order after ensuring the caller owns it or is an admin.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if order.UserID != actor.ID && !actor.IsAdmin {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user"))
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// History returns the audit trail of status changes for an order.
func History(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if order.UserID != actor.ID && !actor.IsAdmin {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user"))
			return
		}

		changes, err := svc.History(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, changes)
	}
}

type transitionRequest struct {
	Event             string        `json:"event" validate:"required"`
	Reason            *string       `json:"reason,omitempty"`
	Metadata          types.JSONMap `json:"metadata,omitempty"`
	RefundAmountCents int64         `json:"refundAmountCents,omitempty"`
	EntitlementID     *string       `json:"entitlementId,omitempty"`
	ReferenceID       *string       `json:"referenceId,omitempty"`
}

// Transition applies one state machine event to an order.
func Transition(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload transitionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		event, err := enums.ParseOrderEvent(payload.Event)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid event"))
			return
		}

		req := internalorders.TransitionRequest{
			OrderID:           orderID,
			Event:             event,
			Actor:             actor,
			Reason:            payload.Reason,
			Metadata:          payload.Metadata,
			RefundAmountCents: payload.RefundAmountCents,
			ReferenceID:       payload.ReferenceID,
		}
		if payload.EntitlementID != nil {
			entID, err := uuid.Parse(strings.TrimSpace(*payload.EntitlementID))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid entitlement id"))
				return
			}
			req.EntitlementID = &entID
		}

		order, err := svc.Transition(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type validateTransitionRequest struct {
	Event string `json:"event" validate:"required"`
}

// ValidateTransition dry-runs a transition without mutating the order.
func ValidateTransition(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload validateTransitionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		event, err := enums.ParseOrderEvent(payload.Event)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid event"))
			return
		}

		result, err := svc.Validate(r.Context(), orderID, event, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type refundRequestBody struct {
	Reason      string  `json:"reason" validate:"required"`
	AmountCents int64   `json:"amountCents,omitempty"`
	ReferenceID *string `json:"referenceId,omitempty"`
}

// RequestRefund opens a refund request on a paid order.
func RequestRefund(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload refundRequestBody
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Transition(r.Context(), internalorders.TransitionRequest{
			OrderID:           orderID,
			Event:             enums.OrderEventRequestRefund,
			Actor:             actor,
			Reason:            &payload.Reason,
			RefundAmountCents: payload.AmountCents,
			ReferenceID:       payload.ReferenceID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, order)
	}
}

// ApproveRefund records one admin approval for a pending refund request.
func ApproveRefund(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.ApproveRefund(r.Context(), orderID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func actorFromContext(r *http.Request) (internalorders.Actor, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return internalorders.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	actorID, err := uuid.Parse(userID)
	if err != nil {
		return internalorders.Actor{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	role := middleware.RoleFromContext(r.Context())
	return internalorders.Actor{
		ID:      actorID,
		IsAdmin: role == string(enums.UserRoleAdmin),
	}, nil
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "orderId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	orderID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	return orderID, nil
}
