package enums

import "fmt"

// TicketType classifies the admission product an entitlement was issued for.
type TicketType string

const (
	TicketTypePaid   TicketType = "paid"
	TicketTypeRSVP   TicketType = "rsvp"
	TicketTypeCouple TicketType = "couple"
)

var validTicketTypes = []TicketType{
	TicketTypePaid,
	TicketTypeRSVP,
	TicketTypeCouple,
}

// String implements fmt.Stringer.
func (t TicketType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TicketType.
func (t TicketType) IsValid() bool {
	for _, candidate := range validTicketTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTicketType converts raw input into a TicketType.
func ParseTicketType(value string) (TicketType, error) {
	for _, candidate := range validTicketTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ticket type %q", value)
}
