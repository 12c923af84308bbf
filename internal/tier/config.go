// Package tier maps referral percentiles to pool-creation tiers and caches
// the result per user.
package tier

import (
	"vlossom/internal/amount"
	"vlossom/internal/model"
)

func capOf(tokens int64) *int64 {
	v := tokens * amount.UnitsPerToken
	return &v
}

// Configs holds the static per-tier parameters. GENESIS is protocol-assigned
// and never earned from a percentile.
var Configs = map[model.Tier]model.TierConfig{
	model.TierGenesis: {PercentileCutoff: 0, Cap: nil, CreationFee: 0, CreatorFeeBps: 1000},
	model.Tier1:       {PercentileCutoff: 5, Cap: nil, CreationFee: 100 * amount.UnitsPerToken, CreatorFeeBps: 1000},
	model.Tier2:       {PercentileCutoff: 15, Cap: capOf(250_000), CreationFee: 50 * amount.UnitsPerToken, CreatorFeeBps: 750},
	model.Tier3:       {PercentileCutoff: 30, Cap: capOf(50_000), CreationFee: 25 * amount.UnitsPerToken, CreatorFeeBps: 500},
}

// earnedOrder lists earnable tiers by ascending cutoff.
var earnedOrder = []model.Tier{model.Tier1, model.Tier2, model.Tier3}

// ResolveTier returns the tier with the lowest percentile cutoff at or above
// the given percentile, or nil when the percentile exceeds every cutoff.
func ResolveTier(percentile float64) *model.Tier {
	for _, t := range earnedOrder {
		if percentile <= Configs[t].PercentileCutoff {
			tier := t
			return &tier
		}
	}
	return nil
}

// ConfigFor returns the static config for a tier.
func ConfigFor(t model.Tier) (model.TierConfig, bool) {
	cfg, ok := Configs[t]
	return cfg, ok
}
