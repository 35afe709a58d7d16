package ledger

import (
	"fmt"

	"github.com/danielcastano/eventgate-backend/pkg/enums"
	pkgerrors "github.com/danielcastano/eventgate-backend/pkg/errors"
)

// moneyStateGraph lists the only transitions money may make. Anything not in
// the graph is rejected before a single entry is written.
var moneyStateGraph = map[enums.MoneyState][]enums.MoneyState{
	enums.MoneyStateAuthorized:    {enums.MoneyStateCaptured, enums.MoneyStateExpired, enums.MoneyStateVoid},
	enums.MoneyStateCaptured:      {enums.MoneyStateHeld, enums.MoneyStateRefundPending, enums.MoneyStateVoid},
	enums.MoneyStateHeld:          {enums.MoneyStateSettled, enums.MoneyStateRefundPending},
	enums.MoneyStateSettled:       {enums.MoneyStatePayable, enums.MoneyStateRefundPending, enums.MoneyStateTransit},
	enums.MoneyStateTransit:       {enums.MoneyStatePayable},
	enums.MoneyStatePayable:       {enums.MoneyStatePaidOut},
	enums.MoneyStateRefundPending: {enums.MoneyStateRefunded},
}

// CanMoveMoney validates a (from, to) pair against the money state graph.
func CanMoveMoney(from, to enums.MoneyState) error {
	if !from.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown money state %q", from))
	}
	if !to.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown money state %q", to))
	}
	for _, candidate := range moneyStateGraph[from] {
		if candidate == to {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("money cannot move from %s to %s", from, to))
}
