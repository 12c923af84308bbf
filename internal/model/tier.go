package model

// Tier is a pool-creation eligibility class. GENESIS is protocol-assigned and
// never earned from referral rank.
type Tier string

const (
	TierGenesis Tier = "GENESIS"
	Tier1       Tier = "TIER_1"
	Tier2       Tier = "TIER_2"
	Tier3       Tier = "TIER_3"
)

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	switch t {
	case TierGenesis, Tier1, Tier2, Tier3:
		return true
	}
	return false
}

// Ordinal orders earned tiers from best to worst. Lower is better. GENESIS
// and unknown tiers sort outside the earned range.
func (t Tier) Ordinal() int {
	switch t {
	case Tier1:
		return 1
	case Tier2:
		return 2
	case Tier3:
		return 3
	}
	return 0
}

// BetterThan reports whether t is a strictly better earned tier than other.
func (t Tier) BetterThan(other Tier) bool {
	return t.Ordinal() != 0 && other.Ordinal() != 0 && t.Ordinal() < other.Ordinal()
}

// TierConfig holds the static parameters of a tier. Cap and CreationFee are
// fixed-point micro-units; a nil Cap means uncapped.
type TierConfig struct {
	PercentileCutoff float64 `json:"percentile_cutoff"`
	Cap              *int64  `json:"cap"`
	CreationFee      int64   `json:"creation_fee"`
	CreatorFeeBps    int32   `json:"creator_fee_bps"`
}
