package enums

import "fmt"

// OrderEvent names a trigger that moves an order between statuses.
type OrderEvent string

const (
	OrderEventReserve         OrderEvent = "RESERVE"
	OrderEventInitiatePayment OrderEvent = "INITIATE_PAYMENT"
	OrderEventPaymentSuccess  OrderEvent = "PAYMENT_SUCCESS"
	OrderEventPaymentFailed   OrderEvent = "PAYMENT_FAILED"
	OrderEventTimeout         OrderEvent = "TIMEOUT"
	OrderEventExpire          OrderEvent = "EXPIRE"
	OrderEventCheckIn         OrderEvent = "CHECK_IN"
	OrderEventRequestRefund   OrderEvent = "REQUEST_REFUND"
	OrderEventApproveRefund   OrderEvent = "APPROVE_REFUND"
	OrderEventRejectRefund    OrderEvent = "REJECT_REFUND"
	OrderEventCancel          OrderEvent = "CANCEL"
)

var validOrderEvents = []OrderEvent{
	OrderEventReserve,
	OrderEventInitiatePayment,
	OrderEventPaymentSuccess,
	OrderEventPaymentFailed,
	OrderEventTimeout,
	OrderEventExpire,
	OrderEventCheckIn,
	OrderEventRequestRefund,
	OrderEventApproveRefund,
	OrderEventRejectRefund,
	OrderEventCancel,
}

// String implements fmt.Stringer.
func (e OrderEvent) String() string {
	return string(e)
}

// IsValid reports whether the value is a known OrderEvent.
func (e OrderEvent) IsValid() bool {
	for _, candidate := range validOrderEvents {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOrderEvent converts raw input into an OrderEvent.
func ParseOrderEvent(value string) (OrderEvent, error) {
	for _, candidate := range validOrderEvents {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order event %q", value)
}
