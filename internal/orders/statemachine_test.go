package orders

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/danielcastano/eventgate-backend/pkg/db/models"
	"github.com/danielcastano/eventgate-backend/pkg/enums"
)

var validTransitions = []struct {
	from  enums.OrderStatus
	event enums.OrderEvent
	to    enums.OrderStatus
}{
	{enums.OrderStatusDraft, enums.OrderEventReserve, enums.OrderStatusReserved},
	{enums.OrderStatusDraft, enums.OrderEventCancel, enums.OrderStatusCancelled},
	{enums.OrderStatusReserved, enums.OrderEventInitiatePayment, enums.OrderStatusPaymentPending},
	{enums.OrderStatusReserved, enums.OrderEventExpire, enums.OrderStatusExpired},
	{enums.OrderStatusReserved, enums.OrderEventCancel, enums.OrderStatusCancelled},
	{enums.OrderStatusPaymentPending, enums.OrderEventPaymentSuccess, enums.OrderStatusConfirmed},
	{enums.OrderStatusPaymentPending, enums.OrderEventPaymentFailed, enums.OrderStatusReserved},
	{enums.OrderStatusPaymentPending, enums.OrderEventTimeout, enums.OrderStatusExpired},
	{enums.OrderStatusPaymentPending, enums.OrderEventCancel, enums.OrderStatusCancelled},
	{enums.OrderStatusConfirmed, enums.OrderEventCheckIn, enums.OrderStatusCheckedIn},
	{enums.OrderStatusConfirmed, enums.OrderEventRequestRefund, enums.OrderStatusRefundRequested},
	{enums.OrderStatusConfirmed, enums.OrderEventCancel, enums.OrderStatusCancelled},
	{enums.OrderStatusCheckedIn, enums.OrderEventRequestRefund, enums.OrderStatusRefundRequested},
	{enums.OrderStatusRefundRequested, enums.OrderEventApproveRefund, enums.OrderStatusRefunded},
	{enums.OrderStatusRefundRequested, enums.OrderEventRejectRefund, enums.OrderStatusConfirmed},
}

func TestNextStatusAcceptsEveryTableEntry(t *testing.T) {
	for _, tc := range validTransitions {
		got, err := NextStatus(tc.from, tc.event)
		if err != nil {
			t.Fatalf("NextStatus(%s, %s): %v", tc.from, tc.event, err)
		}
		if got != tc.to {
			t.Fatalf("NextStatus(%s, %s) = %s, want %s", tc.from, tc.event, got, tc.to)
		}
	}
}

func TestNextStatusRejectsEveryOtherPair(t *testing.T) {
	allowed := map[enums.OrderStatus]map[enums.OrderEvent]bool{}
	for _, tc := range validTransitions {
		if allowed[tc.from] == nil {
			allowed[tc.from] = map[enums.OrderEvent]bool{}
		}
		allowed[tc.from][tc.event] = true
	}

	statuses := []enums.OrderStatus{
		enums.OrderStatusDraft, enums.OrderStatusReserved, enums.OrderStatusPaymentPending,
		enums.OrderStatusConfirmed, enums.OrderStatusCheckedIn, enums.OrderStatusRefundRequested,
		enums.OrderStatusRefunded, enums.OrderStatusCancelled, enums.OrderStatusExpired,
	}
	events := []enums.OrderEvent{
		enums.OrderEventReserve, enums.OrderEventInitiatePayment, enums.OrderEventPaymentSuccess,
		enums.OrderEventPaymentFailed, enums.OrderEventTimeout, enums.OrderEventExpire,
		enums.OrderEventCheckIn, enums.OrderEventRequestRefund, enums.OrderEventApproveRefund,
		enums.OrderEventRejectRefund, enums.OrderEventCancel,
	}

	for _, from := range statuses {
		for _, event := range events {
			if allowed[from][event] {
				continue
			}
			if _, err := NextStatus(from, event); err == nil {
				t.Fatalf("expected NextStatus(%s, %s) to fail", from, event)
			}
		}
	}
}

func TestNextStatusRejectsUnknownValues(t *testing.T) {
	if _, err := NextStatus(enums.OrderStatus("sideways"), enums.OrderEventReserve); err == nil {
		t.Fatal("expected unknown status to fail")
	}
	if _, err := NextStatus(enums.OrderStatusDraft, enums.OrderEvent("TELEPORT")); err == nil {
		t.Fatal("expected unknown event to fail")
	}
}

func TestCanTransitionRequiresExactTarget(t *testing.T) {
	if err := CanTransition(enums.OrderStatusDraft, enums.OrderStatusReserved, enums.OrderEventReserve); err != nil {
		t.Fatalf("expected valid transition, got %v", err)
	}
	if err := CanTransition(enums.OrderStatusDraft, enums.OrderStatusConfirmed, enums.OrderEventReserve); err == nil {
		t.Fatal("expected target mismatch to fail")
	}
	if err := CanTransition(enums.OrderStatusDraft, enums.OrderStatus("nowhere"), enums.OrderEventReserve); err == nil {
		t.Fatal("expected unknown target to fail")
	}
}

func TestTerminalStatusesHaveNoTransitions(t *testing.T) {
	for _, status := range []enums.OrderStatus{
		enums.OrderStatusRefunded, enums.OrderStatusCancelled, enums.OrderStatusExpired,
	} {
		if !status.IsTerminal() {
			t.Fatalf("expected %s to be terminal", status)
		}
		if len(transitionTable[status]) != 0 {
			t.Fatalf("terminal status %s has outgoing transitions", status)
		}
	}
}

func TestRequiresAdminAuthority(t *testing.T) {
	tests := []struct {
		status enums.OrderStatus
		event  enums.OrderEvent
		want   bool
	}{
		{enums.OrderStatusRefundRequested, enums.OrderEventApproveRefund, true},
		{enums.OrderStatusRefundRequested, enums.OrderEventRejectRefund, true},
		{enums.OrderStatusConfirmed, enums.OrderEventCancel, true},
		{enums.OrderStatusCheckedIn, enums.OrderEventRequestRefund, true},
		{enums.OrderStatusConfirmed, enums.OrderEventRequestRefund, false},
		{enums.OrderStatusDraft, enums.OrderEventCancel, false},
		{enums.OrderStatusReserved, enums.OrderEventCancel, false},
		{enums.OrderStatusDraft, enums.OrderEventReserve, false},
	}
	for _, tc := range tests {
		if got := RequiresAdminAuthority(tc.status, tc.event); got != tc.want {
			t.Fatalf("RequiresAdminAuthority(%s, %s) = %v, want %v", tc.status, tc.event, got, tc.want)
		}
	}
}

func TestApproversRequired(t *testing.T) {
	const autoLimit, dualLimit = 5000, 50000

	tests := []struct {
		amount int64
		want   int
	}{
		{0, 0},
		{4999, 0},
		{5000, 1},
		{50000, 1},
		{50001, 2},
		{1000000, 2},
	}
	for _, tc := range tests {
		if got := ApproversRequired(tc.amount, autoLimit, dualLimit); got != tc.want {
			t.Fatalf("ApproversRequired(%d) = %d, want %d", tc.amount, got, tc.want)
		}
	}
}

func TestApplyTransitionStampsMilestones(t *testing.T) {
	now := time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)
	actor := Actor{ID: uuid.New()}

	order := &models.Order{ID: uuid.New(), Status: enums.OrderStatusPaymentPending}
	change, err := ApplyTransition(order, TransitionInput{Event: enums.OrderEventPaymentSuccess, Actor: actor, Now: now})
	if err != nil {
		t.Fatalf("ApplyTransition: %v", err)
	}
	if order.Status != enums.OrderStatusConfirmed {
		t.Fatalf("unexpected status %s", order.Status)
	}
	if order.ConfirmedAt == nil || !order.ConfirmedAt.Equal(now) {
		t.Fatalf("confirmedAt not stamped: %v", order.ConfirmedAt)
	}
	if change.FromStatus != enums.OrderStatusPaymentPending || change.ToStatus != enums.OrderStatusConfirmed {
		t.Fatalf("unexpected history row: %+v", change)
	}
	if len(order.StatusHistory) != 1 {
		t.Fatalf("expected one history row, got %d", len(order.StatusHistory))
	}

	scanner := Actor{ID: uuid.New(), IsAdmin: false}
	if _, err := ApplyTransition(order, TransitionInput{Event: enums.OrderEventCheckIn, Actor: scanner, Now: now}); err != nil {
		t.Fatalf("check-in transition: %v", err)
	}
	if order.CheckedInAt == nil || order.CheckedInBy == nil || *order.CheckedInBy != scanner.ID {
		t.Fatalf("check-in stamps missing: at=%v by=%v", order.CheckedInAt, order.CheckedInBy)
	}
}

func TestApplyTransitionEnforcesAdminGate(t *testing.T) {
	order := &models.Order{ID: uuid.New(), Status: enums.OrderStatusRefundRequested}
	_, err := ApplyTransition(order, TransitionInput{
		Event: enums.OrderEventApproveRefund,
		Actor: Actor{ID: uuid.New(), IsAdmin: false},
	})
	if err == nil {
		t.Fatal("expected admin gate to reject non-admin actor")
	}
	if order.Status != enums.OrderStatusRefundRequested {
		t.Fatalf("status mutated on rejected transition: %s", order.Status)
	}
	if len(order.StatusHistory) != 0 {
		t.Fatal("history appended on rejected transition")
	}

	_, err = ApplyTransition(order, TransitionInput{
		Event: enums.OrderEventApproveRefund,
		Actor: Actor{ID: uuid.New(), IsAdmin: true},
	})
	if err != nil {
		t.Fatalf("admin transition rejected: %v", err)
	}
	if order.Status != enums.OrderStatusRefunded {
		t.Fatalf("unexpected status %s", order.Status)
	}
	if order.RefundedAt == nil {
		t.Fatal("refundedAt not stamped")
	}
	if order.RefundStatus != enums.RefundStatusApproved {
		t.Fatalf("unexpected refund status %s", order.RefundStatus)
	}
}

func TestApplyTransitionFailsFromTerminalStatus(t *testing.T) {
	order := &models.Order{ID: uuid.New(), Status: enums.OrderStatusRefunded}
	if _, err := ApplyTransition(order, TransitionInput{
		Event: enums.OrderEventCancel,
		Actor: Actor{ID: uuid.New(), IsAdmin: true},
	}); err == nil {
		t.Fatal("expected transition from terminal status to fail")
	}
}

func TestValidateTransitionReportsApprovals(t *testing.T) {
	order := &models.Order{
		ID:                uuid.New(),
		Status:            enums.OrderStatusRefundRequested,
		RefundAmountCents: 60000,
	}
	result := ValidateTransition(order, enums.OrderEventApproveRefund, Actor{ID: uuid.New(), IsAdmin: true}, 5000, 50000)
	if !result.Valid {
		t.Fatalf("expected valid result, errors: %v", result.Errors)
	}
	if result.NextStatus != enums.OrderStatusRefunded {
		t.Fatalf("unexpected next status %s", result.NextStatus)
	}
	if result.ApproversRequired != 2 {
		t.Fatalf("expected 2 approvers required, got %d", result.ApproversRequired)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("expected approval warning, got %v", result.Warnings)
	}

	denied := ValidateTransition(order, enums.OrderEventApproveRefund, Actor{ID: uuid.New()}, 5000, 50000)
	if denied.Valid {
		t.Fatal("expected non-admin validation to be invalid")
	}
}
