package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	paymentswebhook "github.com/danielcastano/eventgate-backend/internal/webhooks/payments"
)

func TestPaymentsWebhook_SuccessAndIdempotent(t *testing.T) {
	payload := buildPaymentEvent(t, paymentswebhook.EventPaymentCaptured)
	header := buildGatewaySignature(payload, "secret")
	service := &fakePaymentsWebhookService{}
	store := newMemIdempotencyStore()
	guard, err := paymentswebhook.NewIdempotencyGuard(store, time.Minute, "payments-webhook")
	if err != nil {
		t.Fatalf("guard setup: %v", err)
	}
	handler := PaymentsWebhook(service, "secret", guard, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payments", bytes.NewReader(payload))
	req.Header.Set("Gateway-Signature", header)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if service.calls != 1 {
		t.Fatalf("expected service called once, got %d", service.calls)
	}

	req2 := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payments", bytes.NewReader(payload))
	req2.Header.Set("Gateway-Signature", header)
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200 on duplicate, got %d", rec2.Code)
	}
	if service.calls != 1 {
		t.Fatalf("duplicate should not increment calls, got %d", service.calls)
	}
}

func TestPaymentsWebhook_InvalidSignature(t *testing.T) {
	payload := buildPaymentEvent(t, paymentswebhook.EventPaymentFailed)
	service := &fakePaymentsWebhookService{}
	store := newMemIdempotencyStore()
	guard, err := paymentswebhook.NewIdempotencyGuard(store, time.Minute, "payments-webhook")
	if err != nil {
		t.Fatalf("guard setup: %v", err)
	}
	handler := PaymentsWebhook(service, "secret", guard, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payments", bytes.NewReader(payload))
	req.Header.Set("Gateway-Signature", "invalid")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid signature, got %d", rec.Code)
	}
	if service.calls != 0 {
		t.Fatalf("service should not be invoked on invalid signature")
	}
}

func TestPaymentsWebhook_FailureReleasesGuard(t *testing.T) {
	payload := buildPaymentEvent(t, paymentswebhook.EventPaymentCaptured)
	header := buildGatewaySignature(payload, "secret")
	service := &fakePaymentsWebhookService{err: fmt.Errorf("downstream unavailable")}
	store := newMemIdempotencyStore()
	guard, err := paymentswebhook.NewIdempotencyGuard(store, time.Minute, "payments-webhook")
	if err != nil {
		t.Fatalf("guard setup: %v", err)
	}
	handler := PaymentsWebhook(service, "secret", guard, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payments", bytes.NewReader(payload))
	req.Header.Set("Gateway-Signature", header)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code == http.StatusOK {
		t.Fatal("expected failure status")
	}

	// The retry must reach the service again.
	service.err = nil
	req2 := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payments", bytes.NewReader(payload))
	req2.Header.Set("Gateway-Signature", header)
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200 on retry, got %d", rec2.Code)
	}
	if service.calls != 2 {
		t.Fatalf("expected 2 service calls, got %d", service.calls)
	}
}

func buildPaymentEvent(t *testing.T, eventType string) []byte {
	t.Helper()
	event := &paymentswebhook.PaymentEvent{
		EventID: "evt_" + uuid.NewString(),
		Type:    eventType,
		Data: paymentswebhook.PaymentEventData{
			OrderID:     uuid.New(),
			AmountCents: 12000,
			ReferenceID: "pay_" + uuid.NewString(),
		},
	}
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return payload
}

func buildGatewaySignature(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

type fakePaymentsWebhookService struct {
	calls int
	err   error
}

func (f *fakePaymentsWebhookService) HandleEvent(ctx context.Context, event *paymentswebhook.PaymentEvent) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return nil
}

type memIdempotencyStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemIdempotencyStore() *memIdempotencyStore {
	return &memIdempotencyStore{data: make(map[string]string)}
}

func (s *memIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key], nil
}

func (s *memIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[key]; exists {
		return false, nil
	}
	s.data[key] = fmt.Sprintf("%v", value)
	return true, nil
}

func (s *memIdempotencyStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("eg:idempotency:%s:%s", scope, id)
}

func (s *memIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}
