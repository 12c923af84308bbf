// Package settlement is the boundary to the external settlement layer. Only
// the stub implementation exists today; the ledger stays internally
// consistent whether or not a settlement ever completes.
package settlement

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// Reference identifies a settlement transaction. Empty until the settlement
// layer is wired.
type Reference string

// Intent describes a confirmed ledger mutation awaiting settlement.
type Intent struct {
	PoolID            string
	SettlementAddress string
	UserID            string
	Amount            int64
	Shares            int64
}

// Settler submits deposit and withdraw intents for settlement.
type Settler interface {
	SubmitDeposit(ctx context.Context, intent Intent) (Reference, error)
	SubmitWithdraw(ctx context.Context, intent Intent) (Reference, error)
}

// Stub accepts every intent and returns an empty reference.
type Stub struct {
	logger *zap.Logger
}

var _ Settler = (*Stub)(nil)

func NewStub(logger *zap.Logger) *Stub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stub{logger: logger}
}

func (s *Stub) SubmitDeposit(ctx context.Context, intent Intent) (Reference, error) {
	s.logger.Debug("settlement stub: deposit intent accepted",
		zap.String("pool_id", intent.PoolID),
		zap.String("user_id", intent.UserID),
		zap.Int64("amount", intent.Amount),
	)
	return "", nil
}

func (s *Stub) SubmitWithdraw(ctx context.Context, intent Intent) (Reference, error) {
	s.logger.Debug("settlement stub: withdraw intent accepted",
		zap.String("pool_id", intent.PoolID),
		zap.String("user_id", intent.UserID),
		zap.Int64("amount", intent.Amount),
	)
	return "", nil
}

// PlaceholderAddress derives a deterministic settlement address for a pool
// that has not been wired to the settlement layer yet.
func PlaceholderAddress(poolID string) string {
	hash := crypto.Keccak256([]byte("vlossom/pool/" + poolID))
	return common.BytesToAddress(hash[12:]).Hex()
}

// ValidAddress reports whether addr is a well-formed settlement address.
func ValidAddress(addr string) bool {
	return common.IsHexAddress(addr)
}
