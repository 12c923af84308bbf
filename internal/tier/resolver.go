package tier

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"vlossom/internal/model"
	"vlossom/internal/referral"
	"vlossom/internal/storage"
)

// CacheTTL is how long a cached TierStatus row stays fresh.
const CacheTTL = time.Hour

// Eligibility is a positive pool-creation decision.
type Eligibility struct {
	Percentile float64
	Tier       model.Tier
}

// Resolver decides pool-creation eligibility from referral percentiles and
// maintains the TierStatus cache.
type Resolver struct {
	store   storage.Store
	calc    *referral.Calculator
	logger  *zap.Logger
	now     func() time.Time
	workers int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock overrides the resolver's clock.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// WithBatchWorkers sets the batch updater's concurrency.
func WithBatchWorkers(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.workers = n
		}
	}
}

func NewResolver(store storage.Store, calc *referral.Calculator, logger *zap.Logger, opts ...Option) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Resolver{
		store:   store,
		calc:    calc,
		logger:  logger,
		now:     time.Now,
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CanCreatePool resolves whether userID may create a pool of the requested
// tier. A nil requested tier asks for whatever tier the user has earned.
// Rejections are *EligibilityError.
func (r *Resolver) CanCreatePool(ctx context.Context, userID string, requested *model.Tier) (*Eligibility, error) {
	if requested != nil && *requested == model.TierGenesis {
		return nil, &EligibilityError{RequestedTier: requested}
	}

	percentile, err := r.calc.Percentile(ctx, userID)
	if err != nil {
		return nil, err
	}
	earned := ResolveTier(percentile)
	if earned == nil {
		return nil, &EligibilityError{Percentile: percentile, RequestedTier: requested}
	}
	if requested != nil && requested.BetterThan(*earned) {
		return nil, &EligibilityError{Percentile: percentile, RequestedTier: requested, EarnedTier: earned}
	}

	tier := *earned
	if requested != nil {
		tier = *requested
	}
	return &Eligibility{Percentile: percentile, Tier: tier}, nil
}

// UserTierInfo recomputes the user's percentile and tier, persists the
// refreshed status, and returns it.
func (r *Resolver) UserTierInfo(ctx context.Context, userID string) (*model.TierStatus, error) {
	status, err := r.compute(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := r.store.UpsertTierStatus(ctx, status); err != nil {
		return nil, fmt.Errorf("persist tier status for %s: %w", userID, err)
	}
	return status, nil
}

// CachedTierStatus returns the cached status when fresh, recomputing and
// persisting it otherwise. Cache-aside is the only invalidation path.
func (r *Resolver) CachedTierStatus(ctx context.Context, userID string) (*model.TierStatus, error) {
	status, err := r.store.GetTierStatus(ctx, userID)
	if err == nil && r.now().Sub(status.LastCalculatedAt) < CacheTTL {
		return status, nil
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("read tier status for %s: %w", userID, err)
	}
	return r.UserTierInfo(ctx, userID)
}

// BatchUpdateTierStatus recomputes and persists the tier status of every
// user with a positive referral score, returning the count processed.
// Idempotent; safe to re-run or interrupt.
func (r *Resolver) BatchUpdateTierStatus(ctx context.Context) (int, error) {
	ids, err := r.store.ListReferrerIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list referrers: %w", err)
	}

	var processed atomic.Int64
	workerPool := pond.NewPool(r.workers)
	group := workerPool.NewGroupContext(ctx)
	for _, id := range ids {
		userID := id
		group.Submit(func() {
			status, err := r.compute(ctx, userID)
			if err != nil {
				r.logger.Warn("tier status recompute failed", zap.String("user_id", userID), zap.Error(err))
				return
			}
			if err := r.store.UpsertTierStatus(ctx, status); err != nil {
				r.logger.Warn("tier status persist failed", zap.String("user_id", userID), zap.Error(err))
				return
			}
			processed.Add(1)
		})
	}
	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		r.logger.Warn("tier batch group error", zap.Error(err))
	}
	workerPool.StopAndWait()

	count := int(processed.Load())
	r.logger.Info("tier batch update complete", zap.Int("referrers", len(ids)), zap.Int("processed", count))
	return count, nil
}

func (r *Resolver) compute(ctx context.Context, userID string) (*model.TierStatus, error) {
	percentile, err := r.calc.Percentile(ctx, userID)
	if err != nil {
		return nil, err
	}
	earned := ResolveTier(percentile)
	return &model.TierStatus{
		UserID:             userID,
		ReferralPercentile: percentile,
		Tier:               earned,
		CanCreatePool:      earned != nil,
		LastCalculatedAt:   r.now().UTC(),
	}, nil
}
