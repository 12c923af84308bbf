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
)

// DepositResult reports an accepted deposit. Reference stays empty until the
// settlement layer is wired.
type DepositResult struct {
	MintedShares int64
	Reference    settlement.Reference
}

// WithdrawResult reports an accepted withdrawal.
type WithdrawResult struct {
	AmountReturned int64
	Reference      settlement.Reference
}

// Position is a user deposit joined with its pool and the yield accrued
// since the position's supply-index snapshot.
type Position struct {
	Deposit      model.Deposit
	PoolName     string
	PoolStatus   model.PoolStatus
	PendingYield int64
}

// Ledger applies deposits and withdrawals to pool share accounting. The pool
// and deposit rows of one operation commit as a single transaction; without
// that guarantee interleaved deposits corrupt the share price.
type Ledger struct {
	store   storage.Store
	settler settlement.Settler
	logger  *zap.Logger
	now     func() time.Time
}

func NewLedger(store storage.Store, settler settlement.Settler, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settler == nil {
		settler = settlement.NewStub(logger)
	}
	return &Ledger{store: store, settler: settler, logger: logger, now: time.Now}
}

// Deposit adds amount to the pool and mints proportional shares for the user.
func (l *Ledger) Deposit(ctx context.Context, userID, poolID string, depositAmount int64) (*DepositResult, error) {
	if userID == "" || poolID == "" {
		return nil, fmt.Errorf("user id and pool id are required")
	}
	if depositAmount <= 0 {
		return nil, fmt.Errorf("deposit amount must be positive")
	}

	var (
		minted      int64
		settledAddr string
	)
	err := l.store.WithinTx(ctx, func(tx storage.Store) error {
		p, err := tx.GetPoolForUpdate(ctx, poolID)
		if err != nil {
			return err
		}
		if p.Status != model.PoolStatusActive {
			return ErrPoolInactive
		}
		if p.Cap != nil && p.TotalDeposits+depositAmount > *p.Cap {
			return &CapacityError{Cap: *p.Cap, Remaining: p.Remaining()}
		}

		minted = mintedShares(depositAmount, p.TotalShares, p.TotalDeposits)
		if minted <= 0 {
			return fmt.Errorf("deposit of %d mints no shares", depositAmount)
		}

		dep, err := tx.GetDeposit(ctx, userID, poolID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			now := l.now().UTC()
			dep = &model.Deposit{
				ID:            uuid.NewString(),
				UserID:        userID,
				PoolID:        poolID,
				Shares:        minted,
				DepositAmount: depositAmount,
				DepositIndex:  p.SupplyIndex,
				LastClaimAt:   now,
				CreatedAt:     now,
			}
			p.DepositorCount++
		case err != nil:
			return err
		default:
			dep.Shares += minted
			dep.DepositAmount += depositAmount
		}

		p.TotalDeposits += depositAmount
		p.TotalShares += minted
		if err := tx.SaveDeposit(ctx, dep); err != nil {
			return fmt.Errorf("save deposit: %w", err)
		}
		if err := tx.SavePool(ctx, p); err != nil {
			return fmt.Errorf("save pool: %w", err)
		}
		settledAddr = p.SettlementAddress
		return nil
	})
	if err != nil {
		return nil, err
	}

	ref := l.submitDeposit(ctx, settlement.Intent{
		PoolID:            poolID,
		SettlementAddress: settledAddr,
		UserID:            userID,
		Amount:            depositAmount,
		Shares:            minted,
	})
	l.logger.Info("deposit accepted",
		zap.String("pool_id", poolID),
		zap.String("user_id", userID),
		zap.Int64("amount", depositAmount),
		zap.Int64("minted_shares", minted),
	)
	return &DepositResult{MintedShares: minted, Reference: ref}, nil
}

// Withdraw burns requestedShares and returns the proportional amount.
func (l *Ledger) Withdraw(ctx context.Context, userID, poolID string, requestedShares int64) (*WithdrawResult, error) {
	if userID == "" || poolID == "" {
		return nil, fmt.Errorf("user id and pool id are required")
	}
	if requestedShares <= 0 {
		return nil, fmt.Errorf("requested shares must be positive")
	}

	var (
		amountToReturn int64
		settledAddr    string
	)
	err := l.store.WithinTx(ctx, func(tx storage.Store) error {
		p, err := tx.GetPoolForUpdate(ctx, poolID)
		if err != nil {
			return err
		}
		dep, err := tx.GetDeposit(ctx, userID, poolID)
		if err != nil {
			return err
		}
		if requestedShares > dep.Shares {
			return ErrInsufficientShares
		}

		amountToReturn = amountForShares(requestedShares, p.TotalDeposits, p.TotalShares)

		p.TotalShares -= requestedShares
		p.TotalDeposits -= amountToReturn
		dep.Shares -= requestedShares
		dep.DepositAmount -= amountToReturn
		if dep.DepositAmount < 0 {
			dep.DepositAmount = 0
		}

		if dep.Shares == 0 {
			if err := tx.DeleteDeposit(ctx, dep.ID); err != nil {
				return fmt.Errorf("delete deposit: %w", err)
			}
			if p.DepositorCount > 0 {
				p.DepositorCount--
			}
		} else {
			if err := tx.SaveDeposit(ctx, dep); err != nil {
				return fmt.Errorf("save deposit: %w", err)
			}
		}
		if err := tx.SavePool(ctx, p); err != nil {
			return fmt.Errorf("save pool: %w", err)
		}
		settledAddr = p.SettlementAddress
		return nil
	})
	if err != nil {
		return nil, err
	}

	ref := l.submitWithdraw(ctx, settlement.Intent{
		PoolID:            poolID,
		SettlementAddress: settledAddr,
		UserID:            userID,
		Amount:            amountToReturn,
		Shares:            requestedShares,
	})
	l.logger.Info("withdrawal accepted",
		zap.String("pool_id", poolID),
		zap.String("user_id", userID),
		zap.Int64("shares", requestedShares),
		zap.Int64("amount_returned", amountToReturn),
	)
	return &WithdrawResult{AmountReturned: amountToReturn, Reference: ref}, nil
}

// GetUserDeposits lists the user's positions with pending yield computed
// from each pool's current supply index. Read-only; the supply index itself
// belongs to the external yield-accrual process.
func (l *Ledger) GetUserDeposits(ctx context.Context, userID string) ([]Position, error) {
	deposits, err := l.store.ListUserDeposits(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list deposits for %s: %w", userID, err)
	}

	positions := make([]Position, 0, len(deposits))
	for _, dep := range deposits {
		p, err := l.store.GetPool(ctx, dep.PoolID)
		if err != nil {
			return nil, fmt.Errorf("pool %s for deposit %s: %w", dep.PoolID, dep.ID, err)
		}
		positions = append(positions, Position{
			Deposit:      dep,
			PoolName:     p.Name,
			PoolStatus:   p.Status,
			PendingYield: pendingYield(dep.Shares, p.SupplyIndex, dep.DepositIndex),
		})
	}
	return positions, nil
}

// Settlement failures never unwind the committed ledger mutation; the result
// just carries an empty reference.
func (l *Ledger) submitDeposit(ctx context.Context, intent settlement.Intent) settlement.Reference {
	ref, err := l.settler.SubmitDeposit(ctx, intent)
	if err != nil {
		l.logger.Warn("deposit settlement submission failed", zap.String("pool_id", intent.PoolID), zap.Error(err))
		return ""
	}
	return ref
}

func (l *Ledger) submitWithdraw(ctx context.Context, intent settlement.Intent) settlement.Reference {
	ref, err := l.settler.SubmitWithdraw(ctx, intent)
	if err != nil {
		l.logger.Warn("withdraw settlement submission failed", zap.String("pool_id", intent.PoolID), zap.Error(err))
		return ""
	}
	return ref
}
