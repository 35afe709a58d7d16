package enums

import "fmt"

// EntitlementState tracks the lifecycle of one admission credential.
type EntitlementState string

const (
	EntitlementStateIssued   EntitlementState = "ISSUED"
	EntitlementStateActive   EntitlementState = "ACTIVE"
	EntitlementStateConsumed EntitlementState = "CONSUMED"
	EntitlementStateRevoked  EntitlementState = "REVOKED"
	EntitlementStateExpired  EntitlementState = "EXPIRED"
)

var validEntitlementStates = []EntitlementState{
	EntitlementStateIssued,
	EntitlementStateActive,
	EntitlementStateConsumed,
	EntitlementStateRevoked,
	EntitlementStateExpired,
}

// String implements fmt.Stringer.
func (s EntitlementState) String() string {
	return string(s)
}

// IsValid reports whether the value is a known EntitlementState.
func (s EntitlementState) IsValid() bool {
	for _, candidate := range validEntitlementStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsScannable reports whether a credential in this state may still be consumed.
func (s EntitlementState) IsScannable() bool {
	return s == EntitlementStateIssued || s == EntitlementStateActive
}

// ParseEntitlementState converts raw input into an EntitlementState.
func ParseEntitlementState(value string) (EntitlementState, error) {
	for _, candidate := range validEntitlementStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid entitlement state %q", value)
}
