package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"vlossom/internal/model"
	"vlossom/internal/storage"
)

//go:embed schema.sql
var schemaSQL string

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides Postgres persistence for pools, deposits, and tier status.
type Store struct {
	pool *pgxpool.Pool
	q    querier
	inTx bool
}

var _ storage.Store = (*Store)(nil)

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, q: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate applies the embedded schema. All statements are idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.q.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// WithinTx runs fn against a transaction-backed store view.
func (s *Store) WithinTx(ctx context.Context, fn func(tx storage.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	txStore := &Store{pool: s.pool, q: tx, inTx: true}
	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, fmt.Errorf("rollback tx: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

const poolColumns = `
	id, settlement_address, name, tier, status, creator_id, is_genesis,
	total_deposits, total_shares, current_apy, cap_amount, depositor_count,
	total_yield_distributed, supply_index, creator_fee_bps, created_at, last_sync_at`

func scanPool(row pgx.Row) (*model.Pool, error) {
	var p model.Pool
	err := row.Scan(
		&p.ID, &p.SettlementAddress, &p.Name, &p.Tier, &p.Status, &p.CreatorID,
		&p.IsGenesis, &p.TotalDeposits, &p.TotalShares, &p.CurrentAPY, &p.Cap,
		&p.DepositorCount, &p.TotalYieldDistributed, &p.SupplyIndex,
		&p.CreatorFeeBps, &p.CreatedAt, &p.LastSyncAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreatePool(ctx context.Context, pool *model.Pool) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO pools (`+poolColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`,
		pool.ID, pool.SettlementAddress, pool.Name, pool.Tier, pool.Status,
		pool.CreatorID, pool.IsGenesis, pool.TotalDeposits, pool.TotalShares,
		pool.CurrentAPY, pool.Cap, pool.DepositorCount,
		pool.TotalYieldDistributed, pool.SupplyIndex, pool.CreatorFeeBps,
		pool.CreatedAt, pool.LastSyncAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return storage.ErrConflict
	}
	return err
}

func (s *Store) GetPool(ctx context.Context, id string) (*model.Pool, error) {
	return scanPool(s.q.QueryRow(ctx, `SELECT `+poolColumns+` FROM pools WHERE id=$1`, id))
}

func (s *Store) GetPoolForUpdate(ctx context.Context, id string) (*model.Pool, error) {
	query := `SELECT ` + poolColumns + ` FROM pools WHERE id=$1`
	if s.inTx {
		query += ` FOR UPDATE`
	}
	return scanPool(s.q.QueryRow(ctx, query, id))
}

func (s *Store) GetGenesisPool(ctx context.Context) (*model.Pool, error) {
	return scanPool(s.q.QueryRow(ctx, `SELECT `+poolColumns+` FROM pools WHERE is_genesis`))
}

// ListPools returns a page of pools ordered genesis-first then by total
// deposits, plus the total match count.
func (s *Store) ListPools(ctx context.Context, filter storage.PoolFilter) ([]model.Pool, int, error) {
	where := make([]string, 0, 2)
	args := make([]any, 0, 4)
	if filter.Tier != nil {
		args = append(args, *filter.Tier)
		where = append(where, fmt.Sprintf("tier=$%d", len(args)))
	}
	if !filter.IncludeGenesis {
		where = append(where, "NOT is_genesis")
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.q.QueryRow(ctx, `SELECT count(*) FROM pools`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)
	query := `SELECT ` + poolColumns + ` FROM pools` + clause +
		fmt.Sprintf(` ORDER BY is_genesis DESC, total_deposits DESC, created_at ASC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	pools := make([]model.Pool, 0, limit)
	for rows.Next() {
		p, err := scanPool(rows)
		if err != nil {
			return nil, 0, err
		}
		pools = append(pools, *p)
	}
	return pools, total, rows.Err()
}

func (s *Store) SavePool(ctx context.Context, pool *model.Pool) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE pools SET
			settlement_address=$2, name=$3, tier=$4, status=$5,
			total_deposits=$6, total_shares=$7, current_apy=$8, cap_amount=$9,
			depositor_count=$10, total_yield_distributed=$11, supply_index=$12,
			creator_fee_bps=$13, last_sync_at=$14
		WHERE id=$1
	`,
		pool.ID, pool.SettlementAddress, pool.Name, pool.Tier, pool.Status,
		pool.TotalDeposits, pool.TotalShares, pool.CurrentAPY, pool.Cap,
		pool.DepositorCount, pool.TotalYieldDistributed, pool.SupplyIndex,
		pool.CreatorFeeBps, pool.LastSyncAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

const depositColumns = `id, user_id, pool_id, shares, deposit_amount, deposit_index, last_claim_at, created_at`

func scanDeposit(row pgx.Row) (*model.Deposit, error) {
	var d model.Deposit
	err := row.Scan(&d.ID, &d.UserID, &d.PoolID, &d.Shares, &d.DepositAmount,
		&d.DepositIndex, &d.LastClaimAt, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (s *Store) GetDeposit(ctx context.Context, userID, poolID string) (*model.Deposit, error) {
	query := `SELECT ` + depositColumns + ` FROM deposits WHERE user_id=$1 AND pool_id=$2`
	if s.inTx {
		query += ` FOR UPDATE`
	}
	return scanDeposit(s.q.QueryRow(ctx, query, userID, poolID))
}

func (s *Store) ListUserDeposits(ctx context.Context, userID string) ([]model.Deposit, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+depositColumns+` FROM deposits WHERE user_id=$1 ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deposits []model.Deposit
	for rows.Next() {
		d, err := scanDeposit(rows)
		if err != nil {
			return nil, err
		}
		deposits = append(deposits, *d)
	}
	return deposits, rows.Err()
}

// SaveDeposit inserts or updates the (user, pool) position.
func (s *Store) SaveDeposit(ctx context.Context, dep *model.Deposit) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO deposits (`+depositColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (user_id, pool_id)
		DO UPDATE SET
			shares = EXCLUDED.shares,
			deposit_amount = EXCLUDED.deposit_amount,
			deposit_index = EXCLUDED.deposit_index,
			last_claim_at = EXCLUDED.last_claim_at
	`,
		dep.ID, dep.UserID, dep.PoolID, dep.Shares, dep.DepositAmount,
		dep.DepositIndex, dep.LastClaimAt, dep.CreatedAt,
	)
	return err
}

func (s *Store) DeleteDeposit(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM deposits WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) GetTierStatus(ctx context.Context, userID string) (*model.TierStatus, error) {
	var ts model.TierStatus
	var tierText *string
	err := s.q.QueryRow(ctx, `
		SELECT user_id, referral_percentile, tier, can_create_pool, last_calculated_at
		FROM tier_status WHERE user_id=$1
	`, userID).Scan(&ts.UserID, &ts.ReferralPercentile, &tierText, &ts.CanCreatePool, &ts.LastCalculatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	if tierText != nil {
		tier := model.Tier(*tierText)
		ts.Tier = &tier
	}
	return &ts, nil
}

func (s *Store) UpsertTierStatus(ctx context.Context, status *model.TierStatus) error {
	var tierText *string
	if status.Tier != nil {
		text := string(*status.Tier)
		tierText = &text
	}
	_, err := s.q.Exec(ctx, `
		INSERT INTO tier_status (user_id, referral_percentile, tier, can_create_pool, last_calculated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			referral_percentile = EXCLUDED.referral_percentile,
			tier = EXCLUDED.tier,
			can_create_pool = EXCLUDED.can_create_pool,
			last_calculated_at = EXCLUDED.last_calculated_at
	`, status.UserID, status.ReferralPercentile, tierText, status.CanCreatePool, status.LastCalculatedAt)
	return err
}

// ReferralScore returns the user's referral score; users without a row score
// zero.
func (s *Store) ReferralScore(ctx context.Context, userID string) (int64, error) {
	var score int64
	err := s.q.QueryRow(ctx, `SELECT score FROM referral_scores WHERE user_id=$1`, userID).Scan(&score)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return score, nil
}

func (s *Store) CountScoresAbove(ctx context.Context, score int64) (int64, error) {
	var count int64
	err := s.q.QueryRow(ctx, `SELECT count(*) FROM referral_scores WHERE score > $1`, score).Scan(&count)
	return count, err
}

func (s *Store) CountReferrers(ctx context.Context) (int64, error) {
	var count int64
	err := s.q.QueryRow(ctx, `SELECT count(*) FROM referral_scores WHERE score > 0`).Scan(&count)
	return count, err
}

func (s *Store) ListReferrerIDs(ctx context.Context) ([]string, error) {
	rows, err := s.q.Query(ctx, `SELECT user_id FROM referral_scores WHERE score > 0 ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
