// Package memory provides a mutex-guarded in-memory Store used by tests and
// local development. WithinTx clones the dataset and swaps it in on success,
// so a failed callback leaves no partial writes.
package memory

import (
	"context"
	"sort"
	"sync"

	"vlossom/internal/model"
	"vlossom/internal/storage"
)

type dataset struct {
	pools      map[string]model.Pool
	deposits   map[string]model.Deposit
	depositIdx map[string]string // userID+"\x00"+poolID -> deposit ID
	tierStatus map[string]model.TierStatus
	scores     map[string]int64
}

func newDataset() *dataset {
	return &dataset{
		pools:      make(map[string]model.Pool),
		deposits:   make(map[string]model.Deposit),
		depositIdx: make(map[string]string),
		tierStatus: make(map[string]model.TierStatus),
		scores:     make(map[string]int64),
	}
}

func (d *dataset) clone() *dataset {
	c := newDataset()
	for k, v := range d.pools {
		c.pools[k] = v
	}
	for k, v := range d.deposits {
		c.deposits[k] = v
	}
	for k, v := range d.depositIdx {
		c.depositIdx[k] = v
	}
	for k, v := range d.tierStatus {
		c.tierStatus[k] = v
	}
	for k, v := range d.scores {
		c.scores[k] = v
	}
	return c
}

func depositKey(userID, poolID string) string {
	return userID + "\x00" + poolID
}

// Store is an in-memory storage.Store.
type Store struct {
	mu   sync.Mutex
	data *dataset
	inTx bool
}

var _ storage.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{data: newDataset()}
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// WithinTx serializes transactions on the store mutex and applies fn to a
// clone, committing it only when fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(tx storage.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	txStore := &Store{data: s.data.clone(), inTx: true}
	if err := fn(txStore); err != nil {
		return err
	}
	s.data = txStore.data
	return nil
}

// SetReferralScore seeds the referral-score projection. Test helper; the
// engine never writes scores.
func (s *Store) SetReferralScore(userID string, score int64) {
	defer s.lock()()
	s.data.scores[userID] = score
}

func (s *Store) CreatePool(ctx context.Context, pool *model.Pool) error {
	defer s.lock()()
	if pool.IsGenesis {
		// Mirrors the partial unique index on pools.is_genesis.
		for _, p := range s.data.pools {
			if p.IsGenesis {
				return storage.ErrConflict
			}
		}
	}
	s.data.pools[pool.ID] = *pool
	return nil
}

func (s *Store) GetPool(ctx context.Context, id string) (*model.Pool, error) {
	defer s.lock()()
	pool, ok := s.data.pools[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &pool, nil
}

func (s *Store) GetPoolForUpdate(ctx context.Context, id string) (*model.Pool, error) {
	return s.GetPool(ctx, id)
}

func (s *Store) GetGenesisPool(ctx context.Context) (*model.Pool, error) {
	defer s.lock()()
	for _, pool := range s.data.pools {
		if pool.IsGenesis {
			p := pool
			return &p, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) ListPools(ctx context.Context, filter storage.PoolFilter) ([]model.Pool, int, error) {
	defer s.lock()()

	matched := make([]model.Pool, 0, len(s.data.pools))
	for _, pool := range s.data.pools {
		if filter.Tier != nil && pool.Tier != *filter.Tier {
			continue
		}
		if !filter.IncludeGenesis && pool.IsGenesis {
			continue
		}
		matched = append(matched, pool)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].IsGenesis != matched[j].IsGenesis {
			return matched[i].IsGenesis
		}
		if matched[i].TotalDeposits != matched[j].TotalDeposits {
			return matched[i].TotalDeposits > matched[j].TotalDeposits
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	total := len(matched)
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= total {
		return []model.Pool{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (s *Store) SavePool(ctx context.Context, pool *model.Pool) error {
	defer s.lock()()
	if _, ok := s.data.pools[pool.ID]; !ok {
		return storage.ErrNotFound
	}
	s.data.pools[pool.ID] = *pool
	return nil
}

func (s *Store) GetDeposit(ctx context.Context, userID, poolID string) (*model.Deposit, error) {
	defer s.lock()()
	id, ok := s.data.depositIdx[depositKey(userID, poolID)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	dep := s.data.deposits[id]
	return &dep, nil
}

func (s *Store) ListUserDeposits(ctx context.Context, userID string) ([]model.Deposit, error) {
	defer s.lock()()
	var deposits []model.Deposit
	for _, dep := range s.data.deposits {
		if dep.UserID == userID {
			deposits = append(deposits, dep)
		}
	}
	sort.Slice(deposits, func(i, j int) bool {
		return deposits[i].CreatedAt.Before(deposits[j].CreatedAt)
	})
	return deposits, nil
}

func (s *Store) SaveDeposit(ctx context.Context, dep *model.Deposit) error {
	defer s.lock()()
	key := depositKey(dep.UserID, dep.PoolID)
	if existing, ok := s.data.depositIdx[key]; ok && existing != dep.ID {
		// Upsert keyed on (user, pool), matching the Postgres constraint.
		delete(s.data.deposits, existing)
	}
	s.data.deposits[dep.ID] = *dep
	s.data.depositIdx[key] = dep.ID
	return nil
}

func (s *Store) DeleteDeposit(ctx context.Context, id string) error {
	defer s.lock()()
	dep, ok := s.data.deposits[id]
	if !ok {
		return storage.ErrNotFound
	}
	delete(s.data.deposits, id)
	delete(s.data.depositIdx, depositKey(dep.UserID, dep.PoolID))
	return nil
}

func (s *Store) GetTierStatus(ctx context.Context, userID string) (*model.TierStatus, error) {
	defer s.lock()()
	status, ok := s.data.tierStatus[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &status, nil
}

func (s *Store) UpsertTierStatus(ctx context.Context, status *model.TierStatus) error {
	defer s.lock()()
	s.data.tierStatus[status.UserID] = *status
	return nil
}

func (s *Store) ReferralScore(ctx context.Context, userID string) (int64, error) {
	defer s.lock()()
	return s.data.scores[userID], nil
}

func (s *Store) CountScoresAbove(ctx context.Context, score int64) (int64, error) {
	defer s.lock()()
	var count int64
	for _, v := range s.data.scores {
		if v > score {
			count++
		}
	}
	return count, nil
}

func (s *Store) CountReferrers(ctx context.Context) (int64, error) {
	defer s.lock()()
	var count int64
	for _, v := range s.data.scores {
		if v > 0 {
			count++
		}
	}
	return count, nil
}

func (s *Store) ListReferrerIDs(ctx context.Context) ([]string, error) {
	defer s.lock()()
	var ids []string
	for id, v := range s.data.scores {
		if v > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
