package enums

import "fmt"

// LedgerEntityType classifies what a ledger entry is booked against.
type LedgerEntityType string

const (
	LedgerEntityOrder  LedgerEntityType = "order"
	LedgerEntityPayout LedgerEntityType = "payout"
	LedgerEntityRefund LedgerEntityType = "refund"
)

var validLedgerEntityTypes = []LedgerEntityType{
	LedgerEntityOrder,
	LedgerEntityPayout,
	LedgerEntityRefund,
}

// IsValid reports whether the value is a known LedgerEntityType.
func (t LedgerEntityType) IsValid() bool {
	for _, candidate := range validLedgerEntityTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseLedgerEntityType converts raw input into a LedgerEntityType.
func ParseLedgerEntityType(value string) (LedgerEntityType, error) {
	for _, candidate := range validLedgerEntityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger entity type %q", value)
}

// LedgerActorType identifies which party holds one leg of a ledger transaction.
type LedgerActorType string

const (
	LedgerActorPlatform LedgerActorType = "platform"
	LedgerActorPartner  LedgerActorType = "partner"
	LedgerActorPromoter LedgerActorType = "promoter"
	LedgerActorGuest    LedgerActorType = "guest"
	LedgerActorGateway  LedgerActorType = "gateway"
)

var validLedgerActorTypes = []LedgerActorType{
	LedgerActorPlatform,
	LedgerActorPartner,
	LedgerActorPromoter,
	LedgerActorGuest,
	LedgerActorGateway,
}

// IsValid reports whether the value is a known LedgerActorType.
func (t LedgerActorType) IsValid() bool {
	for _, candidate := range validLedgerActorTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseLedgerActorType converts raw input into a LedgerActorType.
func ParseLedgerActorType(value string) (LedgerActorType, error) {
	for _, candidate := range validLedgerActorTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger actor type %q", value)
}
