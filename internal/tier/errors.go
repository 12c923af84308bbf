package tier

import (
	"fmt"

	"vlossom/internal/model"
)

// EligibilityError reports why a user may not create a pool. EarnedTier is
// nil when the percentile exceeds every cutoff.
type EligibilityError struct {
	Percentile    float64
	RequestedTier *model.Tier
	EarnedTier    *model.Tier
}

func (e *EligibilityError) Error() string {
	if e.RequestedTier != nil && *e.RequestedTier == model.TierGenesis {
		return "genesis tier is protocol-assigned and cannot be requested"
	}
	if e.EarnedTier == nil {
		return fmt.Sprintf("referral percentile %.2f does not qualify for any tier", e.Percentile)
	}
	return fmt.Sprintf("requested tier %s exceeds earned tier %s (percentile %.2f)",
		*e.RequestedTier, *e.EarnedTier, e.Percentile)
}
