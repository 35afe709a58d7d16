package enums

import "fmt"

// MoneyState names a stage in the lifecycle of a sum of money.
type MoneyState string

const (
	MoneyStateAuthorized    MoneyState = "AUTHORIZED"
	MoneyStateCaptured      MoneyState = "CAPTURED"
	MoneyStateHeld          MoneyState = "HELD"
	MoneyStateSettled       MoneyState = "SETTLED"
	MoneyStateTransit       MoneyState = "TRANSIT"
	MoneyStatePayable       MoneyState = "PAYABLE"
	MoneyStatePaidOut       MoneyState = "PAID_OUT"
	MoneyStateRefundPending MoneyState = "REFUND_PENDING"
	MoneyStateRefunded      MoneyState = "REFUNDED"
	MoneyStateExpired       MoneyState = "EXPIRED"
	MoneyStateVoid          MoneyState = "VOID"
)

var validMoneyStates = []MoneyState{
	MoneyStateAuthorized,
	MoneyStateCaptured,
	MoneyStateHeld,
	MoneyStateSettled,
	MoneyStateTransit,
	MoneyStatePayable,
	MoneyStatePaidOut,
	MoneyStateRefundPending,
	MoneyStateRefunded,
	MoneyStateExpired,
	MoneyStateVoid,
}

// String implements fmt.Stringer.
func (s MoneyState) String() string {
	return string(s)
}

// IsValid reports whether the value is a known MoneyState.
func (s MoneyState) IsValid() bool {
	for _, candidate := range validMoneyStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether money can leave the state again.
func (s MoneyState) IsTerminal() bool {
	switch s {
	case MoneyStatePaidOut, MoneyStateRefunded, MoneyStateExpired, MoneyStateVoid:
		return true
	default:
		return false
	}
}

// ParseMoneyState converts raw input into a MoneyState.
func ParseMoneyState(value string) (MoneyState, error) {
	for _, candidate := range validMoneyStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid money state %q", value)
}
