package pool

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"vlossom/internal/model"
	"vlossom/internal/referral"
	"vlossom/internal/storage"
	"vlossom/internal/storage/memory"
	"vlossom/internal/tier"
)

// seedReferrers builds a population of 10 referrers where "target" has
// exactly two users ranked strictly above: percentile 20.00 -> TIER_3.
func seedReferrers(store *memory.Store) {
	store.SetReferralScore("target", 80)
	store.SetReferralScore("top-1", 100)
	store.SetReferralScore("top-2", 90)
	for i := 0; i < 7; i++ {
		store.SetReferralScore(fmt.Sprintf("below-%d", i), int64(10+i))
	}
}

func newRegistry(store *memory.Store) *Registry {
	calc := referral.NewCalculator(store, nil)
	resolver := tier.NewResolver(store, calc, nil)
	return NewRegistry(store, resolver, nil)
}

func TestCreatePoolEarnedTier(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedReferrers(store)
	registry := newRegistry(store)

	p, err := registry.CreatePool(ctx, "target", CreateParams{Name: "Target Pool"})
	require.NoError(t, err)
	require.Equal(t, model.Tier3, p.Tier)
	require.Equal(t, model.PoolStatusActive, p.Status)
	require.False(t, p.IsGenesis)
	require.NotNil(t, p.CreatorID)
	require.Equal(t, "target", *p.CreatorID)
	require.NotEmpty(t, p.SettlementAddress)

	cfg, _ := tier.ConfigFor(model.Tier3)
	require.Equal(t, cfg.CreatorFeeBps, p.CreatorFeeBps)
	require.Equal(t, *cfg.Cap, *p.Cap)
	require.Zero(t, p.TotalDeposits)
	require.Zero(t, p.TotalShares)
}

func TestCreatePoolRequestedTierTooHigh(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedReferrers(store)
	registry := newRegistry(store)

	requested := model.Tier2
	_, err := registry.CreatePool(ctx, "target", CreateParams{Name: "Ambitious", Tier: &requested})

	var elig *tier.EligibilityError
	require.ErrorAs(t, err, &elig)
	require.Equal(t, 20.00, elig.Percentile)
	require.Equal(t, model.Tier2, *elig.RequestedTier)
	require.Equal(t, model.Tier3, *elig.EarnedTier)
}

func TestCreatePoolRequestedTierMatchesEarned(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedReferrers(store)
	registry := newRegistry(store)

	requested := model.Tier3
	p, err := registry.CreatePool(ctx, "target", CreateParams{Name: "Earned", Tier: &requested})
	require.NoError(t, err)
	require.Equal(t, model.Tier3, p.Tier)
}

func TestCreatePoolZeroScoreUser(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedReferrers(store)
	store.SetReferralScore("loner", 0)
	registry := newRegistry(store)

	_, err := registry.CreatePool(ctx, "loner", CreateParams{Name: "No Rank"})

	var elig *tier.EligibilityError
	require.ErrorAs(t, err, &elig)
	require.Equal(t, 100.0, elig.Percentile)
	require.Nil(t, elig.EarnedTier)
}

func TestCreatePoolGenesisRequestRejected(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedReferrers(store)
	registry := newRegistry(store)

	requested := model.TierGenesis
	_, err := registry.CreatePool(ctx, "target", CreateParams{Name: "Sneaky", Tier: &requested})

	var elig *tier.EligibilityError
	require.ErrorAs(t, err, &elig)
}

func TestSeedGenesisPoolOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	registry := newRegistry(store)

	p, err := registry.SeedGenesisPool(ctx, "Genesis")
	require.NoError(t, err)
	require.True(t, p.IsGenesis)
	require.Equal(t, model.TierGenesis, p.Tier)
	require.Nil(t, p.CreatorID)

	_, err = registry.SeedGenesisPool(ctx, "Genesis Again")
	require.ErrorIs(t, err, ErrGenesisExists)

	got, err := registry.GetGenesisPool(ctx)
	require.NoError(t, err)
	require.Equal(t, p.ID, got.ID)
}

func TestPausePoolAuthorization(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedReferrers(store)
	registry := newRegistry(store)

	p, err := registry.CreatePool(ctx, "target", CreateParams{Name: "Pausable"})
	require.NoError(t, err)

	_, err = registry.PausePool(ctx, p.ID, "someone-else")
	require.ErrorIs(t, err, ErrUnauthorized)

	paused, err := registry.PausePool(ctx, p.ID, "target")
	require.NoError(t, err)
	require.Equal(t, model.PoolStatusPaused, paused.Status)
}

func TestPausePoolNotFound(t *testing.T) {
	ctx := context.Background()
	registry := newRegistry(memory.NewStore())

	_, err := registry.PausePool(ctx, "missing", "anyone")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

// interceptStore runs a callback once, just before the store's first write
// or transaction, so tests can interleave a competing operation.
type interceptStore struct {
	storage.Store
	once        sync.Once
	beforeWrite func()
}

func (s *interceptStore) fire() {
	if s.beforeWrite != nil {
		s.once.Do(s.beforeWrite)
	}
}

func (s *interceptStore) SavePool(ctx context.Context, p *model.Pool) error {
	s.fire()
	return s.Store.SavePool(ctx, p)
}

func (s *interceptStore) WithinTx(ctx context.Context, fn func(tx storage.Store) error) error {
	s.fire()
	return s.Store.WithinTx(ctx, fn)
}

func TestPausePoolKeepsInterleavedDeposit(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewStore()
	seedReferrers(inner)
	registry := newRegistry(inner)

	p, err := registry.CreatePool(ctx, "target", CreateParams{Name: "Busy"})
	require.NoError(t, err)

	// A deposit commits between the pause request and its write-back; the
	// paused row must keep the deposit's totals.
	ledger := NewLedger(inner, nil, nil)
	intercepted := &interceptStore{Store: inner, beforeWrite: func() {
		_, err := ledger.Deposit(ctx, "alice", p.ID, 100_000_000)
		require.NoError(t, err)
	}}
	calc := referral.NewCalculator(inner, nil)
	resolver := tier.NewResolver(inner, calc, nil)
	pauser := NewRegistry(intercepted, resolver, nil)

	paused, err := pauser.PausePool(ctx, p.ID, "target")
	require.NoError(t, err)
	require.Equal(t, model.PoolStatusPaused, paused.Status)

	got, err := inner.GetPool(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, model.PoolStatusPaused, got.Status)
	require.Equal(t, int64(100_000_000), got.TotalDeposits)

	dep, err := inner.GetDeposit(ctx, "alice", p.ID)
	require.NoError(t, err)
	require.Equal(t, dep.Shares, got.TotalShares)
	require.Equal(t, int64(1), got.DepositorCount)
}

func TestSeedGenesisPoolInterleavedSeeder(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewStore()
	calc := referral.NewCalculator(inner, nil)
	resolver := tier.NewResolver(inner, calc, nil)

	// A competing seeder wins just before this one's transaction begins.
	intercepted := &interceptStore{Store: inner, beforeWrite: func() {
		_, err := NewRegistry(inner, resolver, nil).SeedGenesisPool(ctx, "First")
		require.NoError(t, err)
	}}
	registry := NewRegistry(intercepted, resolver, nil)

	_, err := registry.SeedGenesisPool(ctx, "Second")
	require.ErrorIs(t, err, ErrGenesisExists)

	got, err := inner.GetGenesisPool(ctx)
	require.NoError(t, err)
	require.Equal(t, "First", got.Name)
}

func TestListPoolsOrdering(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	registry := newRegistry(store)

	genesis, err := registry.SeedGenesisPool(ctx, "Genesis")
	require.NoError(t, err)

	seedReferrers(store)
	small, err := registry.CreatePool(ctx, "target", CreateParams{Name: "Small"})
	require.NoError(t, err)
	big, err := registry.CreatePool(ctx, "target", CreateParams{Name: "Big"})
	require.NoError(t, err)

	// Give the non-genesis pools distinct sizes.
	ledger := NewLedger(store, nil, nil)
	_, err = ledger.Deposit(ctx, "user-a", big.ID, 90_000_000)
	require.NoError(t, err)
	_, err = ledger.Deposit(ctx, "user-a", small.ID, 10_000_000)
	require.NoError(t, err)

	pools, total, err := registry.ListPools(ctx, storage.PoolFilter{IncludeGenesis: true, Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Equal(t, genesis.ID, pools[0].ID)
	require.Equal(t, big.ID, pools[1].ID)
	require.Equal(t, small.ID, pools[2].ID)

	// Genesis excluded by default.
	pools, total, err = registry.ListPools(ctx, storage.PoolFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Equal(t, big.ID, pools[0].ID)
}
