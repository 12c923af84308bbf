// Package referral ranks a user's referral score against the population of
// referrers.
package referral

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"vlossom/internal/storage"
)

// Calculator computes referral percentiles from the score projection.
//
// Each call recomputes from the full population, and the two counts it issues
// are independent reads without a shared snapshot. Scores change slowly
// enough that the gap is tolerable; the tier resolver caches the result.
type Calculator struct {
	store  storage.Store
	logger *zap.Logger
}

func NewCalculator(store storage.Store, logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{store: store, logger: logger}
}

// Percentile returns the user's referral rank: 0 is best, 100 is worst.
// Users with no positive score rank at 100.
func (c *Calculator) Percentile(ctx context.Context, userID string) (float64, error) {
	score, err := c.store.ReferralScore(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("referral score for %s: %w", userID, err)
	}
	if score <= 0 {
		return 100, nil
	}

	usersAbove, err := c.store.CountScoresAbove(ctx, score)
	if err != nil {
		return 0, fmt.Errorf("count scores above %d: %w", score, err)
	}
	totalReferrers, err := c.store.CountReferrers(ctx)
	if err != nil {
		return 0, fmt.Errorf("count referrers: %w", err)
	}
	if totalReferrers == 0 {
		// A positive score implies at least one referrer; degrade to best
		// rank rather than dividing by zero.
		c.logger.Warn("positive referral score with empty population", zap.String("user_id", userID))
		return 0, nil
	}

	percentile := round2(float64(usersAbove) / float64(totalReferrers) * 100)
	return percentile, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
