package model

import "time"

// PoolStatus is the lifecycle state of a pool.
type PoolStatus string

const (
	PoolStatusActive PoolStatus = "ACTIVE"
	PoolStatusPaused PoolStatus = "PAUSED"
	PoolStatusClosed PoolStatus = "CLOSED"
)

// Pool represents a liquidity pool row. All monetary fields are fixed-point
// micro-units with six implied decimals.
type Pool struct {
	ID                    string     `json:"id"`
	SettlementAddress     string     `json:"settlement_address"`
	Name                  string     `json:"name"`
	Tier                  Tier       `json:"tier"`
	Status                PoolStatus `json:"status"`
	CreatorID             *string    `json:"creator_id"`
	IsGenesis             bool       `json:"is_genesis"`
	TotalDeposits         int64      `json:"total_deposits"`
	TotalShares           int64      `json:"total_shares"`
	CurrentAPY            string     `json:"current_apy"`
	Cap                   *int64     `json:"cap"`
	DepositorCount        int64      `json:"depositor_count"`
	TotalYieldDistributed int64      `json:"total_yield_distributed"`
	SupplyIndex           int64      `json:"supply_index"`
	CreatorFeeBps         int32      `json:"creator_fee_bps"`
	CreatedAt             time.Time  `json:"created_at"`
	LastSyncAt            time.Time  `json:"last_sync_at"`
}

// Remaining returns the deposit headroom under the pool cap, or -1 when the
// pool is uncapped.
func (p *Pool) Remaining() int64 {
	if p.Cap == nil {
		return -1
	}
	remaining := *p.Cap - p.TotalDeposits
	if remaining < 0 {
		return 0
	}
	return remaining
}
