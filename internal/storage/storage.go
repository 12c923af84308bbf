package storage

import (
	"context"
	"errors"

	"vlossom/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write violates a uniqueness constraint.
var ErrConflict = errors.New("conflict")

// PoolFilter narrows and pages ListPools results.
type PoolFilter struct {
	Tier           *model.Tier
	IncludeGenesis bool
	Page           int
	Limit          int
}

// Store is the durable store backing the engine. Pool, Deposit, and
// TierStatus rows are owned by the store; every operation re-reads, mutates,
// and writes back within one unit of work.
type Store interface {
	// Pools.
	CreatePool(ctx context.Context, pool *model.Pool) error
	GetPool(ctx context.Context, id string) (*model.Pool, error)
	// GetPoolForUpdate locks the pool row for the rest of the enclosing
	// transaction. Outside WithinTx it behaves like GetPool.
	GetPoolForUpdate(ctx context.Context, id string) (*model.Pool, error)
	GetGenesisPool(ctx context.Context) (*model.Pool, error)
	ListPools(ctx context.Context, filter PoolFilter) ([]model.Pool, int, error)
	SavePool(ctx context.Context, pool *model.Pool) error

	// Deposits.
	GetDeposit(ctx context.Context, userID, poolID string) (*model.Deposit, error)
	ListUserDeposits(ctx context.Context, userID string) ([]model.Deposit, error)
	SaveDeposit(ctx context.Context, dep *model.Deposit) error
	DeleteDeposit(ctx context.Context, id string) error

	// Tier status cache.
	GetTierStatus(ctx context.Context, userID string) (*model.TierStatus, error)
	UpsertTierStatus(ctx context.Context, status *model.TierStatus) error

	// Referral score projection, maintained by an external process.
	ReferralScore(ctx context.Context, userID string) (int64, error)
	CountScoresAbove(ctx context.Context, score int64) (int64, error)
	CountReferrers(ctx context.Context) (int64, error)
	ListReferrerIDs(ctx context.Context) ([]string, error)

	// WithinTx runs fn against a transactional view of the store. The
	// callback's writes commit together or not at all.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
