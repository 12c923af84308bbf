package pool

import "testing"

func TestMintedSharesBootstrap(t *testing.T) {
	// Empty pool mints 1:1.
	if got := mintedShares(100_000_000, 0, 0); got != 100_000_000 {
		t.Fatalf("minted = %d, want 100000000", got)
	}
}

func TestMintedSharesProportional(t *testing.T) {
	cases := []struct {
		amount, totalShares, totalDeposits, want int64
	}{
		{50_000_000, 100_000_000, 100_000_000, 50_000_000},
		// floor: 10 * 20 / 30 = 6.66 -> 6
		{10, 20, 30, 6},
		// share price above one: 10 / 2 price -> fewer shares
		{100, 50, 100, 50},
	}
	for _, c := range cases {
		if got := mintedShares(c.amount, c.totalShares, c.totalDeposits); got != c.want {
			t.Fatalf("mintedShares(%d, %d, %d) = %d, want %d",
				c.amount, c.totalShares, c.totalDeposits, got, c.want)
		}
	}
}

func TestAmountForShares(t *testing.T) {
	if got := amountForShares(50_000_000, 150_000_000, 150_000_000); got != 50_000_000 {
		t.Fatalf("amount = %d, want 50000000", got)
	}
	// floor: 7 * 10 / 3 = 23.33 -> 23
	if got := amountForShares(7, 10, 3); got != 23 {
		t.Fatalf("amount = %d, want 23", got)
	}
	if got := amountForShares(5, 100, 0); got != 0 {
		t.Fatalf("amount = %d, want 0 for empty pool", got)
	}
}

func TestMintedValueNeverExceedsPrincipal(t *testing.T) {
	// For any deposit sequence into an initially empty pool, the value
	// implied by minted shares stays within floor-rounding dust of the
	// contributed principal.
	totalDeposits := int64(0)
	totalShares := int64(0)
	deposits := []int64{100_000_000, 33_333_333, 1, 999_999_999, 250_000}

	for _, amt := range deposits {
		minted := mintedShares(amt, totalShares, totalDeposits)
		totalDeposits += amt
		totalShares += minted

		implied := amountForShares(minted, totalDeposits, totalShares)
		if implied > amt {
			t.Fatalf("implied value %d exceeds principal %d", implied, amt)
		}
	}
}

func TestPendingYield(t *testing.T) {
	// 100 shares, index grew by 0.05 per share -> 5 tokens pending.
	if got := pendingYield(100_000_000, 1_050_000, 1_000_000); got != 5_000_000 {
		t.Fatalf("pendingYield = %d, want 5000000", got)
	}
	// Index unchanged or behind snapshot yields nothing.
	if got := pendingYield(100_000_000, 1_000_000, 1_000_000); got != 0 {
		t.Fatalf("pendingYield = %d, want 0", got)
	}
	if got := pendingYield(100_000_000, 900_000, 1_000_000); got != 0 {
		t.Fatalf("pendingYield = %d, want 0 for negative delta", got)
	}
}
