package enums

import "fmt"

// OwnerType identifies the aggregate an image row is attached to.
type OwnerType string

const (
	OwnerTypeEvent OwnerType = "event"
	OwnerTypePOI   OwnerType = "poi"
)

var validOwnerTypes = []OwnerType{
	OwnerTypeEvent,
	OwnerTypePOI,
}

// String implements fmt.Stringer.
func (o OwnerType) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OwnerType.
func (o OwnerType) IsValid() bool {
	for _, candidate := range validOwnerTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOwnerType converts raw input into an OwnerType.
func ParseOwnerType(value string) (OwnerType, error) {
	for _, candidate := range validOwnerTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid owner type %q", value)
}
