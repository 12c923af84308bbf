package settlement

import (
	"context"
	"errors"
	"testing"
	"time"
)

type flakySettler struct {
	failures int
	calls    int
}

func (f *flakySettler) submit(_ context.Context, _ Intent) (Reference, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", errors.New("settlement unavailable")
	}
	return Reference("ref-ok"), nil
}

func (f *flakySettler) SubmitDeposit(ctx context.Context, intent Intent) (Reference, error) {
	return f.submit(ctx, intent)
}

func (f *flakySettler) SubmitWithdraw(ctx context.Context, intent Intent) (Reference, error) {
	return f.submit(ctx, intent)
}

func TestRetrySettlerRecovers(t *testing.T) {
	inner := &flakySettler{failures: 2}
	s := WithRetries(inner, 3, time.Millisecond)

	ref, err := s.SubmitDeposit(context.Background(), Intent{PoolID: "p1", UserID: "u1"})
	if err != nil {
		t.Fatalf("SubmitDeposit: %v", err)
	}
	if ref != "ref-ok" {
		t.Fatalf("reference = %q, want %q", ref, "ref-ok")
	}
	if inner.calls != 3 {
		t.Fatalf("calls = %d, want 3", inner.calls)
	}
}

func TestRetrySettlerExhaustsRetries(t *testing.T) {
	inner := &flakySettler{failures: 10}
	s := WithRetries(inner, 2, time.Millisecond)

	if _, err := s.SubmitWithdraw(context.Background(), Intent{PoolID: "p1", UserID: "u1"}); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if inner.calls != 3 {
		t.Fatalf("calls = %d, want 3", inner.calls)
	}
}

func TestRetrySettlerHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inner := &flakySettler{failures: 10}
	s := WithRetries(inner, 5, 10*time.Millisecond)

	if _, err := s.SubmitDeposit(ctx, Intent{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if inner.calls != 1 {
		t.Fatalf("calls = %d, want 1", inner.calls)
	}
}

func TestPlaceholderAddressDeterministic(t *testing.T) {
	a := PlaceholderAddress("pool-1")
	b := PlaceholderAddress("pool-1")
	if a != b {
		t.Fatalf("addresses differ: %s vs %s", a, b)
	}
	if !ValidAddress(a) {
		t.Fatalf("placeholder address %q is not well-formed", a)
	}
	if PlaceholderAddress("pool-2") == a {
		t.Fatal("distinct pools produced the same address")
	}
}
