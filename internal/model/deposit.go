package model

import "time"

// Deposit is a user's position in a pool. Shares and DepositAmount are
// fixed-point micro-units; DepositIndex snapshots the pool supply index at
// the last deposit or claim.
type Deposit struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	PoolID        string    `json:"pool_id"`
	Shares        int64     `json:"shares"`
	DepositAmount int64     `json:"deposit_amount"`
	DepositIndex  int64     `json:"deposit_index"`
	LastClaimAt   time.Time `json:"last_claim_at"`
	CreatedAt     time.Time `json:"created_at"`
}
