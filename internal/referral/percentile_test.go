package referral

import (
	"context"
	"fmt"
	"testing"

	"vlossom/internal/storage/memory"
)

func TestPercentileZeroScore(t *testing.T) {
	store := memory.NewStore()
	store.SetReferralScore("loner", 0)
	for i := 0; i < 9; i++ {
		store.SetReferralScore(fmt.Sprintf("user-%d", i), int64(i+1))
	}

	calc := NewCalculator(store, nil)
	got, err := calc.Percentile(context.Background(), "loner")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 100 {
		t.Fatalf("percentile = %v, want 100", got)
	}
}

func TestPercentileRanked(t *testing.T) {
	store := memory.NewStore()
	// 10 referrers; "target" has score 80, 2 users strictly above.
	store.SetReferralScore("target", 80)
	store.SetReferralScore("top-1", 100)
	store.SetReferralScore("top-2", 90)
	for i := 0; i < 7; i++ {
		store.SetReferralScore(fmt.Sprintf("below-%d", i), int64(10+i))
	}

	calc := NewCalculator(store, nil)
	got, err := calc.Percentile(context.Background(), "target")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 20.00 {
		t.Fatalf("percentile = %v, want 20.00", got)
	}
}

func TestPercentileUnknownUser(t *testing.T) {
	store := memory.NewStore()
	store.SetReferralScore("someone", 5)

	calc := NewCalculator(store, nil)
	got, err := calc.Percentile(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 100 {
		t.Fatalf("percentile = %v, want 100", got)
	}
}

func TestPercentileMonotoneInScore(t *testing.T) {
	store := memory.NewStore()
	for i := 0; i < 20; i++ {
		store.SetReferralScore(fmt.Sprintf("pop-%d", i), int64((i+1)*10))
	}

	calc := NewCalculator(store, nil)
	prev := 101.0
	// Raising the subject's score against a fixed population never worsens
	// the percentile.
	for _, score := range []int64{5, 55, 105, 155, 205} {
		store.SetReferralScore("subject", score)
		got, err := calc.Percentile(context.Background(), "subject")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got > prev {
			t.Fatalf("percentile increased from %v to %v at score %d", prev, got, score)
		}
		prev = got
	}
}
