package enums

import "fmt"

// ScanDenialReason explains why an admission attempt was denied.
type ScanDenialReason string

const (
	ScanDenialInvalidQR           ScanDenialReason = "INVALID_QR"
	ScanDenialStaleQR             ScanDenialReason = "STALE_QR"
	ScanDenialEntitlementNotFound ScanDenialReason = "ENTITLEMENT_NOT_FOUND"
	ScanDenialEventMismatch       ScanDenialReason = "EVENT_MISMATCH"
	ScanDenialAlreadyConsumed     ScanDenialReason = "ALREADY_CONSUMED"
	ScanDenialRevoked             ScanDenialReason = "REVOKED"
	ScanDenialGenderMismatch      ScanDenialReason = "GENDER_MISMATCH"
	ScanDenialCoupleIncomplete    ScanDenialReason = "COUPLE_INCOMPLETE"
	ScanDenialExpired             ScanDenialReason = "ENTITLEMENT_EXPIRED"
)

var validScanDenialReasons = []ScanDenialReason{
	ScanDenialInvalidQR,
	ScanDenialStaleQR,
	ScanDenialEntitlementNotFound,
	ScanDenialEventMismatch,
	ScanDenialAlreadyConsumed,
	ScanDenialRevoked,
	ScanDenialGenderMismatch,
	ScanDenialCoupleIncomplete,
	ScanDenialExpired,
}

// String implements fmt.Stringer.
func (r ScanDenialReason) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ScanDenialReason.
func (r ScanDenialReason) IsValid() bool {
	for _, candidate := range validScanDenialReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseScanDenialReason converts raw input into a ScanDenialReason.
func ParseScanDenialReason(value string) (ScanDenialReason, error) {
	for _, candidate := range validScanDenialReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid scan denial reason %q", value)
}
