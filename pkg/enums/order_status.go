package enums

import "fmt"

// OrderStatus drives a sub-order through the processing machine.
type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "pending"
	OrderStatusAccepted        OrderStatus = "accepted"
	OrderStatusRejected        OrderStatus = "rejected"
	OrderStatusReadyToDispatch OrderStatus = "ready_to_dispatch"
	OrderStatusInTransit       OrderStatus = "in_transit"
	OrderStatusCompleted       OrderStatus = "completed"
	OrderStatusCancelled       OrderStatus = "cancelled"
	OrderStatusReturn          OrderStatus = "return"
)

var validOrderStatuss = []OrderStatus{
	OrderStatusPending,
	OrderStatusAccepted,
	OrderStatusRejected,
	OrderStatusReadyToDispatch,
	OrderStatusInTransit,
	OrderStatusCompleted,
	OrderStatusCancelled,
	OrderStatusReturn,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuss {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into a OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuss {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
