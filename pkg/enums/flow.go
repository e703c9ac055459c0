package enums

import "fmt"

// Flow selects which state machine a simple-order status change targets.
type Flow string

const (
	FlowProcessing Flow = "processing"
	FlowCancel     Flow = "cancel"
	FlowReturn     Flow = "return"
)

var validFlows = []Flow{
	FlowProcessing,
	FlowCancel,
	FlowReturn,
}

// String implements fmt.Stringer.
func (f Flow) String() string {
	return string(f)
}

// IsValid reports whether the value is a known Flow.
func (f Flow) IsValid() bool {
	for _, candidate := range validFlows {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFlow converts raw input into a Flow.
func ParseFlow(value string) (Flow, error) {
	for _, candidate := range validFlows {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid flow %q", value)
}
