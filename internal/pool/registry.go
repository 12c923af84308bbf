// Package pool holds the pool registry and the share ledger, the two
// services that own Pool and Deposit rows.
package pool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vlossom/internal/model"
	"vlossom/internal/settlement"
	"vlossom/internal/storage"
	"vlossom/internal/tier"
)

// CreateParams are the caller-supplied fields of a new pool. A nil Tier
// requests whatever tier the user has earned.
type CreateParams struct {
	Name string
	Tier *model.Tier
}

// Registry manages pool lifecycle.
type Registry struct {
	store    storage.Store
	resolver *tier.Resolver
	logger   *zap.Logger
	now      func() time.Time
}

func NewRegistry(store storage.Store, resolver *tier.Resolver, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{store: store, resolver: resolver, logger: logger, now: time.Now}
}

// ListPools returns a page of pools ordered genesis-first, then by total
// deposits descending, plus the total match count.
func (r *Registry) ListPools(ctx context.Context, filter storage.PoolFilter) ([]model.Pool, int, error) {
	return r.store.ListPools(ctx, filter)
}

func (r *Registry) GetPool(ctx context.Context, id string) (*model.Pool, error) {
	return r.store.GetPool(ctx, id)
}

func (r *Registry) GetGenesisPool(ctx context.Context) (*model.Pool, error) {
	return r.store.GetGenesisPool(ctx)
}

// CreatePool creates a pool for userID after the tier resolver approves the
// requested tier. Rejections surface as *tier.EligibilityError.
func (r *Registry) CreatePool(ctx context.Context, userID string, params CreateParams) (*model.Pool, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if params.Name == "" {
		return nil, fmt.Errorf("pool name is required")
	}
	if params.Tier != nil && !params.Tier.Valid() {
		return nil, fmt.Errorf("unknown tier: %s", *params.Tier)
	}

	eligibility, err := r.resolver.CanCreatePool(ctx, userID, params.Tier)
	if err != nil {
		return nil, err
	}
	cfg, ok := tier.ConfigFor(eligibility.Tier)
	if !ok {
		return nil, fmt.Errorf("no config for tier %s", eligibility.Tier)
	}

	now := r.now().UTC()
	creator := userID
	p := &model.Pool{
		ID:            uuid.NewString(),
		Name:          params.Name,
		Tier:          eligibility.Tier,
		Status:        model.PoolStatusActive,
		CreatorID:     &creator,
		CurrentAPY:    "0",
		Cap:           cfg.Cap,
		CreatorFeeBps: cfg.CreatorFeeBps,
		CreatedAt:     now,
		LastSyncAt:    now,
	}
	p.SettlementAddress = settlement.PlaceholderAddress(p.ID)

	if err := r.store.CreatePool(ctx, p); err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	r.logger.Info("pool created",
		zap.String("pool_id", p.ID),
		zap.String("creator_id", userID),
		zap.String("tier", string(p.Tier)),
		zap.Float64("percentile", eligibility.Percentile),
	)
	return p, nil
}

// SeedGenesisPool creates the single protocol-assigned genesis pool. The
// existence check and the insert share one transaction; a unique-violation
// from a racing seeder maps to ErrGenesisExists as well.
func (r *Registry) SeedGenesisPool(ctx context.Context, name string) (*model.Pool, error) {
	if name == "" {
		return nil, fmt.Errorf("pool name is required")
	}

	cfg, _ := tier.ConfigFor(model.TierGenesis)
	now := r.now().UTC()
	p := &model.Pool{
		ID:            uuid.NewString(),
		Name:          name,
		Tier:          model.TierGenesis,
		Status:        model.PoolStatusActive,
		IsGenesis:     true,
		CurrentAPY:    "0",
		Cap:           cfg.Cap,
		CreatorFeeBps: cfg.CreatorFeeBps,
		CreatedAt:     now,
		LastSyncAt:    now,
	}
	p.SettlementAddress = settlement.PlaceholderAddress(p.ID)

	err := r.store.WithinTx(ctx, func(tx storage.Store) error {
		if _, err := tx.GetGenesisPool(ctx); err == nil {
			return ErrGenesisExists
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return tx.CreatePool(ctx, p)
	})
	if errors.Is(err, storage.ErrConflict) {
		return nil, ErrGenesisExists
	}
	if err != nil {
		return nil, err
	}
	r.logger.Info("genesis pool created", zap.String("pool_id", p.ID), zap.String("name", name))
	return p, nil
}

// PausePool sets the pool status to PAUSED. Only the creator may pause.
// Runs inside a transaction with the pool row locked; SavePool writes the
// whole row, so an unlocked read-modify-write would revert any deposit that
// commits in between.
func (r *Registry) PausePool(ctx context.Context, poolID, userID string) (*model.Pool, error) {
	var p *model.Pool
	err := r.store.WithinTx(ctx, func(tx storage.Store) error {
		var err error
		p, err = tx.GetPoolForUpdate(ctx, poolID)
		if err != nil {
			return err
		}
		if p.CreatorID == nil || *p.CreatorID != userID {
			return ErrUnauthorized
		}
		p.Status = model.PoolStatusPaused
		if err := tx.SavePool(ctx, p); err != nil {
			return fmt.Errorf("save pool: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.logger.Info("pool paused", zap.String("pool_id", poolID), zap.String("user_id", userID))
	return p, nil
}
