package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/danielcastano/eventgate-backend/api/middleware"
	internalorders "github.com/danielcastano/eventgate-backend/internal/orders"
	"github.com/danielcastano/eventgate-backend/pkg/db/models"
	"github.com/danielcastano/eventgate-backend/pkg/enums"
	pkgerrors "github.com/danielcastano/eventgate-backend/pkg/errors"
)

type stubOrdersService struct {
	order       *models.Order
	history     []models.OrderStatusChange
	validation  *internalorders.ValidationResult
	err         error
	created     []internalorders.CreateOrderInput
	transitions []internalorders.TransitionRequest
	approvals   []internalorders.Actor
}

func (s *stubOrdersService) Create(ctx context.Context, input internalorders.CreateOrderInput) (*models.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = append(s.created, input)
	return s.order, nil
}

func (s *stubOrdersService) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.order == nil || s.order.ID != orderID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return s.order, nil
}

func (s *stubOrdersService) History(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusChange, error) {
	return s.history, s.err
}

func (s *stubOrdersService) Validate(ctx context.Context, orderID uuid.UUID, event enums.OrderEvent, actor internalorders.Actor) (*internalorders.ValidationResult, error) {
	return s.validation, s.err
}

func (s *stubOrdersService) Transition(ctx context.Context, req internalorders.TransitionRequest) (*models.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.transitions = append(s.transitions, req)
	return s.order, nil
}

func (s *stubOrdersService) ApproveRefund(ctx context.Context, orderID uuid.UUID, approver internalorders.Actor) (*models.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.approvals = append(s.approvals, approver)
	return s.order, nil
}

func authedRequest(t *testing.T, method, target string, body any, userID uuid.UUID, role enums.UserRole, params map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")

	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithRole(ctx, string(role))

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)

	return req.WithContext(ctx)
}

func TestCreateOrderBindsAuthenticatedUser(t *testing.T) {
	userID := uuid.New()
	svc := &stubOrdersService{order: &models.Order{ID: uuid.New(), UserID: userID}}
	handler := Create(svc, nil)

	body := map[string]any{
		"eventId": uuid.New().String(),
		"items": []map[string]any{
			{"tierId": uuid.New().String(), "tierName": "GA", "ticketType": "paid", "unitPriceCents": 5000, "qty": 2},
		},
	}
	req := authedRequest(t, http.MethodPost, "/api/v1/orders", body, userID, enums.UserRoleGuest, nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(svc.created) != 1 {
		t.Fatalf("expected one create call, got %d", len(svc.created))
	}
	if svc.created[0].UserID != userID {
		t.Fatalf("expected user id from context, got %s", svc.created[0].UserID)
	}
	if len(svc.created[0].Items) != 1 || svc.created[0].Items[0].Qty != 2 {
		t.Fatalf("unexpected items: %+v", svc.created[0].Items)
	}
	if svc.created[0].Items[0].TicketType != enums.TicketTypePaid {
		t.Fatalf("unexpected ticket type %q", svc.created[0].Items[0].TicketType)
	}
}

func TestCreateOrderRejectsMissingItems(t *testing.T) {
	svc := &stubOrdersService{}
	handler := Create(svc, nil)

	body := map[string]any{"eventId": uuid.New().String(), "items": []map[string]any{}}
	req := authedRequest(t, http.MethodPost, "/api/v1/orders", body, uuid.New(), enums.UserRoleGuest, nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(svc.created) != 0 {
		t.Fatal("service should not be called on invalid body")
	}
}

func TestDetailDeniesOtherUsers(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrdersService{order: &models.Order{ID: orderID, UserID: uuid.New()}}
	handler := Detail(svc, nil)

	req := authedRequest(t, http.MethodGet, "/api/v1/orders/"+orderID.String(), nil,
		uuid.New(), enums.UserRoleGuest, map[string]string{"orderId": orderID.String()})
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestDetailAllowsAdmin(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrdersService{order: &models.Order{ID: orderID, UserID: uuid.New()}}
	handler := Detail(svc, nil)

	req := authedRequest(t, http.MethodGet, "/api/v1/orders/"+orderID.String(), nil,
		uuid.New(), enums.UserRoleAdmin, map[string]string{"orderId": orderID.String()})
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestTransitionPassesActorAndEvent(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()
	svc := &stubOrdersService{order: &models.Order{ID: orderID, UserID: userID}}
	handler := Transition(svc, nil)

	body := map[string]any{"event": "INITIATE_PAYMENT"}
	req := authedRequest(t, http.MethodPost, "/api/v1/orders/"+orderID.String()+"/transitions", body,
		userID, enums.UserRoleGuest, map[string]string{"orderId": orderID.String()})
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(svc.transitions) != 1 {
		t.Fatalf("expected one transition, got %d", len(svc.transitions))
	}
	got := svc.transitions[0]
	if got.Event != enums.OrderEventInitiatePayment {
		t.Fatalf("unexpected event %q", got.Event)
	}
	if got.Actor.ID != userID || got.Actor.IsAdmin {
		t.Fatalf("unexpected actor %+v", got.Actor)
	}
}

func TestTransitionRejectsUnknownEvent(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrdersService{order: &models.Order{ID: orderID}}
	handler := Transition(svc, nil)

	body := map[string]any{"event": "TELEPORT"}
	req := authedRequest(t, http.MethodPost, "/api/v1/orders/"+orderID.String()+"/transitions", body,
		uuid.New(), enums.UserRoleGuest, map[string]string{"orderId": orderID.String()})
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(svc.transitions) != 0 {
		t.Fatal("service should not be called for unknown events")
	}
}

func TestRequestRefundUsesRefundEvent(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()
	svc := &stubOrdersService{order: &models.Order{ID: orderID, UserID: userID}}
	handler := RequestRefund(svc, nil)

	body := map[string]any{"reason": "event cancelled", "amountCents": 2500}
	req := authedRequest(t, http.MethodPost, "/api/v1/orders/"+orderID.String()+"/refund-request", body,
		userID, enums.UserRoleGuest, map[string]string{"orderId": orderID.String()})
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(svc.transitions) != 1 {
		t.Fatalf("expected one transition, got %d", len(svc.transitions))
	}
	got := svc.transitions[0]
	if got.Event != enums.OrderEventRequestRefund {
		t.Fatalf("unexpected event %q", got.Event)
	}
	if got.RefundAmountCents != 2500 {
		t.Fatalf("unexpected refund amount %d", got.RefundAmountCents)
	}
	if got.Reason == nil || *got.Reason != "event cancelled" {
		t.Fatalf("unexpected reason %v", got.Reason)
	}
}

func TestApproveRefundForwardsAdminActor(t *testing.T) {
	adminID := uuid.New()
	orderID := uuid.New()
	svc := &stubOrdersService{order: &models.Order{ID: orderID, UserID: uuid.New()}}
	handler := ApproveRefund(svc, nil)

	req := authedRequest(t, http.MethodPost, "/api/v1/orders/"+orderID.String()+"/refund-approval", nil,
		adminID, enums.UserRoleAdmin, map[string]string{"orderId": orderID.String()})
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(svc.approvals) != 1 || svc.approvals[0].ID != adminID || !svc.approvals[0].IsAdmin {
		t.Fatalf("unexpected approvals %+v", svc.approvals)
	}
}

func TestValidateTransitionReturnsDryRunResult(t *testing.T) {
	orderID := uuid.New()
	userID := uuid.New()
	svc := &stubOrdersService{
		order:      &models.Order{ID: orderID, UserID: userID},
		validation: &internalorders.ValidationResult{Valid: true, NextStatus: enums.OrderStatusReserved},
	}
	handler := ValidateTransition(svc, nil)

	body := map[string]any{"event": "RESERVE"}
	req := authedRequest(t, http.MethodPost, "/api/v1/orders/"+orderID.String()+"/transitions/validate", body,
		userID, enums.UserRoleGuest, map[string]string{"orderId": orderID.String()})
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(svc.transitions) != 0 {
		t.Fatal("dry run must not apply a transition")
	}
}

func TestHandlersRequireUserContext(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrdersService{order: &models.Order{ID: orderID}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orderId", orderID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rec := httptest.NewRecorder()
	Detail(svc, nil)(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
