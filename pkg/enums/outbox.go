package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateOrder       OutboxAggregateType = "order"
	AggregateEntitlement OutboxAggregateType = "entitlement"
	AggregateScan        OutboxAggregateType = "scan"
	AggregateLedgerGroup OutboxAggregateType = "ledger_group"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateEntitlement,
	AggregateScan,
	AggregateLedgerGroup,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventOrderCreated           OutboxEventType = "order_created"
	EventOrderStatusChanged     OutboxEventType = "order_status_changed"
	EventOrderConfirmed         OutboxEventType = "order_confirmed"
	EventOrderExpired           OutboxEventType = "order_expired"
	EventOrderCancelled         OutboxEventType = "order_cancelled"
	EventOrderRefunded          OutboxEventType = "order_refunded"
	EventEntitlementsIssued     OutboxEventType = "entitlements_issued"
	EventEntitlementConsumed    OutboxEventType = "entitlement_consumed"
	EventEntitlementTransferred OutboxEventType = "entitlement_transferred"
	EventEntitlementRevoked     OutboxEventType = "entitlement_revoked"
	EventScanDenied             OutboxEventType = "scan_denied"
	EventMoneyStateChanged      OutboxEventType = "money_state_changed"
	EventPayoutRecorded         OutboxEventType = "payout_recorded"
	EventDisputeFrozen          OutboxEventType = "dispute_frozen"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderStatusChanged,
	EventOrderConfirmed,
	EventOrderExpired,
	EventOrderCancelled,
	EventOrderRefunded,
	EventEntitlementsIssued,
	EventEntitlementConsumed,
	EventEntitlementTransferred,
	EventEntitlementRevoked,
	EventScanDenied,
	EventMoneyStateChanged,
	EventPayoutRecorded,
	EventDisputeFrozen,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
