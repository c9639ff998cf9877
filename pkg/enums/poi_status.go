package enums

import "fmt"

// POIStatus represents the visibility state of a point of interest.
type POIStatus string

const (
	POIStatusActive   POIStatus = "active"
	POIStatusInactive POIStatus = "inactive"
)

var validPOIStatuses = []POIStatus{
	POIStatusActive,
	POIStatusInactive,
}

// String implements fmt.Stringer.
func (p POIStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known POIStatus.
func (p POIStatus) IsValid() bool {
	for _, candidate := range validPOIStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePOIStatus converts raw input into a POIStatus.
func ParsePOIStatus(value string) (POIStatus, error) {
	for _, candidate := range validPOIStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid poi status %q", value)
}
