package pool

import (
	"math/big"

	"vlossom/internal/amount"
)

// mintedShares converts a deposit amount into shares at the pool's current
// share price, flooring so the depositor never receives more ownership than
// the contribution implies. An empty pool bootstraps 1:1.
func mintedShares(depositAmount, totalShares, totalDeposits int64) int64 {
	if totalShares == 0 || totalDeposits == 0 {
		return depositAmount
	}
	minted := new(big.Int).Mul(big.NewInt(depositAmount), big.NewInt(totalShares))
	minted.Div(minted, big.NewInt(totalDeposits))
	return minted.Int64()
}

// amountForShares converts shares back into a deposit amount at the current
// share price, flooring in the pool's favor.
func amountForShares(shares, totalDeposits, totalShares int64) int64 {
	if totalShares == 0 {
		return 0
	}
	out := new(big.Int).Mul(big.NewInt(shares), big.NewInt(totalDeposits))
	out.Div(out, big.NewInt(totalShares))
	return out.Int64()
}

// pendingYield is shares times the supply-index growth since the position's
// snapshot. Both operands carry six implied decimals, so the product is
// scaled back down by one unit factor.
func pendingYield(shares, supplyIndex, depositIndex int64) int64 {
	delta := supplyIndex - depositIndex
	if delta <= 0 || shares <= 0 {
		return 0
	}
	out := new(big.Int).Mul(big.NewInt(shares), big.NewInt(delta))
	out.Div(out, big.NewInt(amount.UnitsPerToken))
	return out.Int64()
}
