package score

// Tier is the qualitative bucket of a normalized score.
type Tier string

const (
	TierPoor       Tier = "poor"
	TierDeveloping Tier = "developing"
	TierGood       Tier = "good"
	TierExcellent  Tier = "excellent"
)

func (t Tier) Valid() bool {
	switch t {
	case TierPoor, TierDeveloping, TierGood, TierExcellent:
		return true
	}
	return false
}

// Rank orders tiers from Poor (0) to Excellent (3). Unknown tiers rank -1.
func (t Tier) Rank() int {
	switch t {
	case TierPoor:
		return 0
	case TierDeveloping:
		return 1
	case TierGood:
		return 2
	case TierExcellent:
		return 3
	default:
		return -1
	}
}

// ParseTier accepts a tier name as written in policies and flags.
func ParseTier(s string) (Tier, bool) {
	t := Tier(s)
	return t, t.Valid()
}
