package enums

import "fmt"

// LineStatus is the derived state of a single order line.
type LineStatus string

const (
	LineStatusProcessing       LineStatus = "processing"
	LineStatusCancelled        LineStatus = "cancelled"
	LineStatusReturn           LineStatus = "return"
	LineStatusReturnProcessing LineStatus = "return_processing"
)

var validLineStatuss = []LineStatus{
	LineStatusProcessing,
	LineStatusCancelled,
	LineStatusReturn,
	LineStatusReturnProcessing,
}

// String implements fmt.Stringer.
func (l LineStatus) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LineStatus.
func (l LineStatus) IsValid() bool {
	for _, candidate := range validLineStatuss {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLineStatus converts raw input into a LineStatus.
func ParseLineStatus(value string) (LineStatus, error) {
	for _, candidate := range validLineStatuss {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid line status %q", value)
}
