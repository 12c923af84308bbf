package memory

import (
	"context"
	"errors"
	"testing"

	"vlossom/internal/model"
	"vlossom/internal/storage"
)

func TestCreatePoolSingleGenesis(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	if err := store.CreatePool(ctx, &model.Pool{ID: "g1", IsGenesis: true}); err != nil {
		t.Fatalf("first genesis: %v", err)
	}
	if err := store.CreatePool(ctx, &model.Pool{ID: "p1"}); err != nil {
		t.Fatalf("regular pool: %v", err)
	}
	err := store.CreatePool(ctx, &model.Pool{ID: "g2", IsGenesis: true})
	if !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("second genesis: err = %v, want ErrConflict", err)
	}
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	if err := store.CreatePool(ctx, &model.Pool{ID: "p1", TotalDeposits: 5}); err != nil {
		t.Fatalf("create: %v", err)
	}

	failure := errors.New("boom")
	err := store.WithinTx(ctx, func(tx storage.Store) error {
		p, err := tx.GetPoolForUpdate(ctx, "p1")
		if err != nil {
			return err
		}
		p.TotalDeposits = 999
		if err := tx.SavePool(ctx, p); err != nil {
			return err
		}
		return failure
	})
	if !errors.Is(err, failure) {
		t.Fatalf("err = %v, want boom", err)
	}

	p, err := store.GetPool(ctx, "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.TotalDeposits != 5 {
		t.Fatalf("total deposits = %d, want 5 after rollback", p.TotalDeposits)
	}
}
