package enums

import "fmt"

// AggregatedOrderState names which workflow is active on an aggregated sub-order.
type AggregatedOrderState string

const (
	AggregatedOrderStateProcessing       AggregatedOrderState = "processing"
	AggregatedOrderStateCancelled        AggregatedOrderState = "cancelled"
	AggregatedOrderStateReturn           AggregatedOrderState = "return"
	AggregatedOrderStateProcessingReturn AggregatedOrderState = "processing_return"
)

var validAggregatedOrderStates = []AggregatedOrderState{
	AggregatedOrderStateProcessing,
	AggregatedOrderStateCancelled,
	AggregatedOrderStateReturn,
	AggregatedOrderStateProcessingReturn,
}

// String implements fmt.Stringer.
func (a AggregatedOrderState) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AggregatedOrderState.
func (a AggregatedOrderState) IsValid() bool {
	for _, candidate := range validAggregatedOrderStates {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAggregatedOrderState converts raw input into a AggregatedOrderState.
func ParseAggregatedOrderState(value string) (AggregatedOrderState, error) {
	for _, candidate := range validAggregatedOrderStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregated order state %q", value)
}
