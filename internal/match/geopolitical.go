package match

// CountryTier classifies how an entity's country relates to a geopolitical
// event's footprint.
type CountryTier int

const (
	TierUnaffected CountryTier = iota
	TierIndirect
	TierDirect
)

// Geopolitical returns the country tier of an entity for a geopolitical
// event. Directly affected wins over indirectly affected when a country
// appears in both lists.
func Geopolitical(directly, indirectly []string, country string) CountryTier {
	if _, ok := containsFolded(directly, country); ok {
		return TierDirect
	}
	if _, ok := containsFolded(indirectly, country); ok {
		return TierIndirect
	}
	return TierUnaffected
}

// Probability returns the occurrence probability for a country tier.
// TierUnaffected is only reachable defensively: the applicability gate
// filters unaffected entities before probability is computed.
func (t CountryTier) Probability() float64 {
	switch t {
	case TierDirect:
		return 90
	case TierIndirect:
		return 50
	default:
		return 10
	}
}

// Concerned reports whether the tier passes the applicability gate.
func (t CountryTier) Concerned() bool {
	return t != TierUnaffected
}
