package enums

import "fmt"

// AllocationTier records which fulfillment source matched a line.
type AllocationTier string

const (
	AllocationTierThirdPartyStore AllocationTier = "third_party_store"
	AllocationTierCompanyOwnStore AllocationTier = "company_own_store"
	AllocationTierUnassignedPool  AllocationTier = "unassigned_pool"
	AllocationTierTransfer        AllocationTier = "transfer"
)

var validAllocationTiers = []AllocationTier{
	AllocationTierThirdPartyStore,
	AllocationTierCompanyOwnStore,
	AllocationTierUnassignedPool,
	AllocationTierTransfer,
}

// String implements fmt.Stringer.
func (a AllocationTier) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AllocationTier.
func (a AllocationTier) IsValid() bool {
	for _, candidate := range validAllocationTiers {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAllocationTier converts raw input into a AllocationTier.
func ParseAllocationTier(value string) (AllocationTier, error) {
	for _, candidate := range validAllocationTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid allocation tier %q", value)
}
