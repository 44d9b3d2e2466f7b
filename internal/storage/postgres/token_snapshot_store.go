package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"graduation-lab/internal/domain"
	"graduation-lab/internal/storage"
)

// TokenSnapshotStore implements storage.TokenSnapshotStore using PostgreSQL.
type TokenSnapshotStore struct {
	pool *Pool
}

// NewTokenSnapshotStore creates a new TokenSnapshotStore.
func NewTokenSnapshotStore(pool *Pool) *TokenSnapshotStore {
	return &TokenSnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenSnapshotStore = (*TokenSnapshotStore)(nil)

const snapshotColumns = `
	batch_id, id, symbol, name, mcap, liquidity, holder_count, price,
	volume_24h, created_at, fetched_at, minutes_ago, is_graduated, is_verified
`

// InsertBulk adds snapshots atomically. Fails entire batch on any duplicate.
func (s *TokenSnapshotStore) InsertBulk(ctx context.Context, snapshots []domain.TokenSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	for _, snap := range snapshots {
		if snap.ID == "" || snap.BatchID == "" {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO token_snapshots (` + snapshotColumns + `) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
	)`

	for _, snap := range snapshots {
		_, err := tx.Exec(ctx, query,
			snap.BatchID, snap.ID, snap.Symbol, snap.Name, snap.MarketCap, snap.Liquidity,
			snap.HolderCount, snap.Price, snap.Volume24h, snap.CreatedAt, snap.FetchedAt,
			snap.MinutesAgo, snap.IsGraduated, snap.IsVerified,
		)
		if err != nil {
			return storeError("insert token snapshot", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByBatch retrieves the snapshots of one fetch batch, newest token first.
func (s *TokenSnapshotStore) GetByBatch(ctx context.Context, batchID string) ([]domain.TokenSnapshot, error) {
	query := `SELECT ` + snapshotColumns + `
		FROM token_snapshots
		WHERE batch_id = $1
		ORDER BY created_at DESC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("get token snapshots by batch: %w", err)
	}
	defer rows.Close()

	snapshots := []domain.TokenSnapshot{}
	for rows.Next() {
		snap, err := scanTokenSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token snapshots: %w", err)
	}
	return snapshots, nil
}

// GetLatest retrieves the most recently fetched snapshot of a token.
func (s *TokenSnapshotStore) GetLatest(ctx context.Context, tokenID string) (domain.TokenSnapshot, error) {
	query := `SELECT ` + snapshotColumns + `
		FROM token_snapshots
		WHERE id = $1
		ORDER BY fetched_at DESC
		LIMIT 1
	`

	snap, err := scanTokenSnapshot(s.pool.QueryRow(ctx, query, tokenID))
	if err != nil {
		return domain.TokenSnapshot{}, storeError("get latest token snapshot", err)
	}
	return snap, nil
}

func scanTokenSnapshot(row pgx.Row) (domain.TokenSnapshot, error) {
	var snap domain.TokenSnapshot
	err := row.Scan(
		&snap.BatchID, &snap.ID, &snap.Symbol, &snap.Name, &snap.MarketCap, &snap.Liquidity,
		&snap.HolderCount, &snap.Price, &snap.Volume24h, &snap.CreatedAt, &snap.FetchedAt,
		&snap.MinutesAgo, &snap.IsGraduated, &snap.IsVerified,
	)
	if err != nil {
		return domain.TokenSnapshot{}, err
	}
	snap.CreatedAt = snap.CreatedAt.UTC()
	snap.FetchedAt = snap.FetchedAt.UTC()
	return snap, nil
}
