package enums

import "fmt"

// ScanResult is the outcome of a single admission attempt.
type ScanResult string

const (
	ScanResultGranted ScanResult = "GRANTED"
	ScanResultDenied  ScanResult = "DENIED"
)

var validScanResults = []ScanResult{
	ScanResultGranted,
	ScanResultDenied,
}

// String implements fmt.Stringer.
func (r ScanResult) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ScanResult.
func (r ScanResult) IsValid() bool {
	for _, candidate := range validScanResults {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseScanResult converts raw input into a ScanResult.
func ParseScanResult(value string) (ScanResult, error) {
	for _, candidate := range validScanResults {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid scan result %q", value)
}
