package enums

import "fmt"

// OrderStatus tracks the lifecycle of a ticket order.
type OrderStatus string

const (
	OrderStatusDraft           OrderStatus = "draft"
	OrderStatusReserved        OrderStatus = "reserved"
	OrderStatusPaymentPending  OrderStatus = "payment_pending"
	OrderStatusConfirmed       OrderStatus = "confirmed"
	OrderStatusCheckedIn       OrderStatus = "checked_in"
	OrderStatusRefundRequested OrderStatus = "refund_requested"
	OrderStatusRefunded        OrderStatus = "refunded"
	OrderStatusCancelled       OrderStatus = "cancelled"
	OrderStatusExpired         OrderStatus = "expired"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusDraft,
	OrderStatusReserved,
	OrderStatusPaymentPending,
	OrderStatusConfirmed,
	OrderStatusCheckedIn,
	OrderStatusRefundRequested,
	OrderStatusRefunded,
	OrderStatusCancelled,
	OrderStatusExpired,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is defined from the status.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusRefunded, OrderStatusCancelled, OrderStatusExpired:
		return true
	default:
		return false
	}
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
