package enums

import "fmt"

// ReturnStatus tracks a return request from request to refund.
type ReturnStatus string

const (
	ReturnStatusPending  ReturnStatus = "pending"
	ReturnStatusAccepted ReturnStatus = "accepted"
	ReturnStatusRejected ReturnStatus = "rejected"
	ReturnStatusPickUp   ReturnStatus = "pick_up"
	ReturnStatusReceived ReturnStatus = "received"
	ReturnStatusRefunded ReturnStatus = "refunded"
)

var validReturnStatuss = []ReturnStatus{
	ReturnStatusPending,
	ReturnStatusAccepted,
	ReturnStatusRejected,
	ReturnStatusPickUp,
	ReturnStatusReceived,
	ReturnStatusRefunded,
}

// String implements fmt.Stringer.
func (r ReturnStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReturnStatus.
func (r ReturnStatus) IsValid() bool {
	for _, candidate := range validReturnStatuss {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReturnStatus converts raw input into a ReturnStatus.
func ParseReturnStatus(value string) (ReturnStatus, error) {
	for _, candidate := range validReturnStatuss {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid return status %q", value)
}

// IsOpen reports whether the return is still in flight.
func (r ReturnStatus) IsOpen() bool {
	switch r {
	case ReturnStatusPending, ReturnStatusAccepted, ReturnStatusPickUp, ReturnStatusReceived:
		return true
	default:
		return false
	}
}
