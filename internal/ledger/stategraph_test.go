package ledger

import (
	"testing"

	"github.com/danielcastano/eventgate-backend/pkg/enums"
	pkgerrors "github.com/danielcastano/eventgate-backend/pkg/errors"
)

var allMoneyStates = []enums.MoneyState{
	enums.MoneyStateAuthorized,
	enums.MoneyStateCaptured,
	enums.MoneyStateHeld,
	enums.MoneyStateSettled,
	enums.MoneyStateTransit,
	enums.MoneyStatePayable,
	enums.MoneyStatePaidOut,
	enums.MoneyStateRefundPending,
	enums.MoneyStateRefunded,
	enums.MoneyStateExpired,
	enums.MoneyStateVoid,
}

var allowedMoves = map[enums.MoneyState][]enums.MoneyState{
	enums.MoneyStateAuthorized:    {enums.MoneyStateCaptured, enums.MoneyStateExpired, enums.MoneyStateVoid},
	enums.MoneyStateCaptured:      {enums.MoneyStateHeld, enums.MoneyStateRefundPending, enums.MoneyStateVoid},
	enums.MoneyStateHeld:          {enums.MoneyStateSettled, enums.MoneyStateRefundPending},
	enums.MoneyStateSettled:       {enums.MoneyStatePayable, enums.MoneyStateRefundPending, enums.MoneyStateTransit},
	enums.MoneyStateTransit:       {enums.MoneyStatePayable},
	enums.MoneyStatePayable:       {enums.MoneyStatePaidOut},
	enums.MoneyStateRefundPending: {enums.MoneyStateRefunded},
}

func isAllowedMove(from, to enums.MoneyState) bool {
	for _, candidate := range allowedMoves[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

func TestCanMoveMoneyAcceptsEveryGraphEdge(t *testing.T) {
	for from, targets := range allowedMoves {
		for _, to := range targets {
			if err := CanMoveMoney(from, to); err != nil {
				t.Errorf("CanMoveMoney(%s, %s) = %v, want nil", from, to, err)
			}
		}
	}
}

func TestCanMoveMoneyRejectsEveryOtherPair(t *testing.T) {
	for _, from := range allMoneyStates {
		for _, to := range allMoneyStates {
			if isAllowedMove(from, to) {
				continue
			}
			err := CanMoveMoney(from, to)
			if err == nil {
				t.Errorf("CanMoveMoney(%s, %s) = nil, want state conflict", from, to)
				continue
			}
			appErr := pkgerrors.As(err)
			if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
				t.Errorf("CanMoveMoney(%s, %s): got %v, want %s", from, to, err, pkgerrors.CodeStateConflict)
			}
		}
	}
}

func TestCanMoveMoneyRejectsUnknownStates(t *testing.T) {
	cases := []struct {
		name string
		from enums.MoneyState
		to   enums.MoneyState
	}{
		{"unknown source", enums.MoneyState("FLOATING"), enums.MoneyStateCaptured},
		{"unknown target", enums.MoneyStateCaptured, enums.MoneyState("FLOATING")},
		{"empty source", enums.MoneyState(""), enums.MoneyStateCaptured},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CanMoveMoney(tc.from, tc.to)
			if err == nil {
				t.Fatal("expected error for unknown state")
			}
			appErr := pkgerrors.As(err)
			if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
				t.Fatalf("got %v, want %s", err, pkgerrors.CodeValidation)
			}
		})
	}
}

func TestTerminalMoneyStatesHaveNoOutgoingEdges(t *testing.T) {
	for _, state := range allMoneyStates {
		if !state.IsTerminal() {
			continue
		}
		if targets := allowedMoves[state]; len(targets) != 0 {
			t.Errorf("terminal state %s has outgoing edges %v", state, targets)
		}
		for _, to := range allMoneyStates {
			if err := CanMoveMoney(state, to); err == nil {
				t.Errorf("CanMoveMoney(%s, %s) = nil, terminal states must be final", state, to)
			}
		}
	}
}
