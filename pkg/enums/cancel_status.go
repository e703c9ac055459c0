package enums

import "fmt"

// CancelStatus tracks a cancellation request.
type CancelStatus string

const (
	CancelStatusPending  CancelStatus = "pending"
	CancelStatusAccepted CancelStatus = "accepted"
	CancelStatusRejected CancelStatus = "rejected"
	CancelStatusRefunded CancelStatus = "refunded"
)

var validCancelStatuss = []CancelStatus{
	CancelStatusPending,
	CancelStatusAccepted,
	CancelStatusRejected,
	CancelStatusRefunded,
}

// String implements fmt.Stringer.
func (c CancelStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CancelStatus.
func (c CancelStatus) IsValid() bool {
	for _, candidate := range validCancelStatuss {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCancelStatus converts raw input into a CancelStatus.
func ParseCancelStatus(value string) (CancelStatus, error) {
	for _, candidate := range validCancelStatuss {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cancel status %q", value)
}

// IsOpen reports whether the request still awaits a decision or a refund.
func (c CancelStatus) IsOpen() bool {
	return c == CancelStatusPending || c == CancelStatusAccepted
}
