package enums

import (
	"fmt"
	"strings"
)

// ProductKind represents the catalog entry variants tracked by the warehouse.
type ProductKind string

const (
	ProductKindFood       ProductKind = "food"
	ProductKindElectronic ProductKind = "electronic"
	ProductKindClothing   ProductKind = "clothing"
)

var validProductKinds = []ProductKind{
	ProductKindFood,
	ProductKindElectronic,
	ProductKindClothing,
}

// ProductKinds returns every known kind in display order.
func ProductKinds() []ProductKind {
	kinds := make([]ProductKind, len(validProductKinds))
	copy(kinds, validProductKinds)
	return kinds
}

// String implements fmt.Stringer.
func (k ProductKind) String() string {
	return string(k)
}

// Label is the capitalized form used in listings ("Food", "Electronic", "Clothing").
func (k ProductKind) Label() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

// IsValid reports whether the value is a known ProductKind.
func (k ProductKind) IsValid() bool {
	for _, candidate := range validProductKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseProductKind converts raw input into a ProductKind, ignoring case and surrounding space.
func ParseProductKind(value string) (ProductKind, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validProductKinds {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product kind %q", value)
}
