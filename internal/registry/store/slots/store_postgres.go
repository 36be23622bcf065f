package slots

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"slotkeeper/internal/registry/models"
	"slotkeeper/pkg/domain"
	"slotkeeper/pkg/platform/sentinel"
)

// PostgresSlotStore persists the slot table in PostgreSQL. One row per
// occupied slot; the (netuid, key) unique index doubles as the membership
// index.
type PostgresSlotStore struct {
	pool *pgxpool.Pool
}

// NewPostgresSlotStore constructs a PostgreSQL-backed slot store.
func NewPostgresSlotStore(pool *pgxpool.Pool) *PostgresSlotStore {
	return &PostgresSlotStore{pool: pool}
}

// Migrate creates the slots table if it does not exist.
func (s *PostgresSlotStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS slots (
			netuid        integer NOT NULL,
			uid           integer NOT NULL,
			key           text    NOT NULL,
			pruning_score integer NOT NULL DEFAULT 0,
			registered_at bigint  NOT NULL,
			PRIMARY KEY (netuid, uid),
			UNIQUE (netuid, key)
		)`)
	if err != nil {
		return fmt.Errorf("migrate slots: %w", err)
	}
	return nil
}

func (s *PostgresSlotStore) OccupiedCount(ctx context.Context, net domain.NetID) (uint16, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM slots WHERE netuid = $1`, int(net)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("occupied count: %w", err)
	}
	return uint16(count), nil
}

func (s *PostgresSlotStore) IsMember(ctx context.Context, net domain.NetID, key domain.Key) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM slots WHERE netuid = $1 AND key = $2)`,
		int(net), string(key)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("is member: %w", err)
	}
	return exists, nil
}

func (s *PostgresSlotStore) UIDOf(ctx context.Context, net domain.NetID, key domain.Key) (domain.UID, error) {
	var uid int
	err := s.pool.QueryRow(ctx,
		`SELECT uid FROM slots WHERE netuid = $1 AND key = $2`,
		int(net), string(key)).Scan(&uid)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, sentinel.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("uid of: %w", err)
	}
	return domain.UID(uid), nil
}

func (s *PostgresSlotStore) PruningScore(ctx context.Context, net domain.NetID, uid domain.UID) (domain.Score, error) {
	var score int
	err := s.pool.QueryRow(ctx,
		`SELECT pruning_score FROM slots WHERE netuid = $1 AND uid = $2`,
		int(net), int(uid)).Scan(&score)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, sentinel.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("pruning score: %w", err)
	}
	return domain.Score(score), nil
}

func (s *PostgresSlotStore) SetPruningScore(ctx context.Context, net domain.NetID, uid domain.UID, score domain.Score) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE slots SET pruning_score = $3 WHERE netuid = $1 AND uid = $2`,
		int(net), int(uid), int(score))
	if err != nil {
		return fmt.Errorf("set pruning score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresSlotStore) RegistrationBlock(ctx context.Context, net domain.NetID, uid domain.UID) (domain.Block, error) {
	var block int64
	err := s.pool.QueryRow(ctx,
		`SELECT registered_at FROM slots WHERE netuid = $1 AND uid = $2`,
		int(net), int(uid)).Scan(&block)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, sentinel.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("registration block: %w", err)
	}
	return domain.Block(block), nil
}

func (s *PostgresSlotStore) Append(ctx context.Context, net domain.NetID, key domain.Key, block domain.Block) (domain.UID, error) {
	var uid int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO slots (netuid, uid, key, pruning_score, registered_at)
		SELECT $1, coalesce(max(uid) + 1, 0), $2, 0, $3 FROM slots WHERE netuid = $1
		RETURNING uid`,
		int(net), string(key), int64(block)).Scan(&uid)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return 0, sentinel.ErrConflict
	}
	if err != nil {
		return 0, fmt.Errorf("append slot: %w", err)
	}
	return domain.UID(uid), nil
}

func (s *PostgresSlotStore) Replace(ctx context.Context, net domain.NetID, uid domain.UID, key domain.Key, block domain.Block) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE slots SET key = $3, registered_at = $4 WHERE netuid = $1 AND uid = $2`,
		int(net), int(uid), string(key), int64(block))
	if err != nil {
		return fmt.Errorf("replace slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresSlotStore) Slots(ctx context.Context, net domain.NetID) ([]models.Slot, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT uid, key, pruning_score, registered_at
		FROM slots WHERE netuid = $1 ORDER BY uid`, int(net))
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	out := []models.Slot{}
	for rows.Next() {
		var (
			uid   int
			key   string
			score int
			block int64
		)
		if err := rows.Scan(&uid, &key, &score, &block); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		out = append(out, models.Slot{
			UID:          domain.UID(uid),
			Key:          domain.Key(key),
			PruningScore: domain.Score(score),
			RegisteredAt: domain.Block(block),
		})
	}
	return out, rows.Err()
}
