package model

import "time"

// TierStatus caches a user's referral percentile and derived tier. Rows are
// recomputed lazily when stale or by the batch updater.
type TierStatus struct {
	UserID             string    `json:"user_id"`
	ReferralPercentile float64   `json:"referral_percentile"`
	Tier               *Tier     `json:"tier"`
	CanCreatePool      bool      `json:"can_create_pool"`
	LastCalculatedAt   time.Time `json:"last_calculated_at"`
}
