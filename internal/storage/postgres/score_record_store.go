package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"graduation-lab/internal/domain"
	"graduation-lab/internal/storage"
)

// ScoreRecordStore implements storage.ScoreRecordStore using PostgreSQL.
// Sub-scores, metrics, signals and warnings are stored as jsonb.
type ScoreRecordStore struct {
	pool *Pool
}

// NewScoreRecordStore creates a new ScoreRecordStore.
func NewScoreRecordStore(pool *Pool) *ScoreRecordStore {
	return &ScoreRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ScoreRecordStore = (*ScoreRecordStore)(nil)

const recordColumns = `
	batch_id, variant, token_id, symbol, name, total, label, pattern,
	eta_minutes, sub_scores, metrics, signals, warnings, scored_at
`

// InsertBulk adds records atomically. Fails entire batch on any duplicate.
func (s *ScoreRecordStore) InsertBulk(ctx context.Context, records []domain.ScoreRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO score_records (` + recordColumns + `) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
	)`

	for _, r := range records {
		if r.TokenID == "" || r.Variant == "" || r.BatchID == "" {
			return storage.ErrInvalidInput
		}
		args, err := recordArgs(r)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return storeError("insert score record", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByBatch retrieves one variant's records of a batch in insertion order.
func (s *ScoreRecordStore) GetByBatch(ctx context.Context, batchID, variant string) ([]domain.ScoreRecord, error) {
	query := `SELECT ` + recordColumns + `
		FROM score_records
		WHERE batch_id = $1 AND variant = $2
		ORDER BY seq ASC
	`
	rows, err := s.pool.Query(ctx, query, batchID, variant)
	if err != nil {
		return nil, fmt.Errorf("get score records by batch: %w", err)
	}
	defer rows.Close()
	return scanScoreRecords(rows)
}

// GetByToken retrieves every record of a token, oldest first.
func (s *ScoreRecordStore) GetByToken(ctx context.Context, tokenID string) ([]domain.ScoreRecord, error) {
	query := `SELECT ` + recordColumns + `
		FROM score_records
		WHERE token_id = $1
		ORDER BY seq ASC
	`
	rows, err := s.pool.Query(ctx, query, tokenID)
	if err != nil {
		return nil, fmt.Errorf("get score records by token: %w", err)
	}
	defer rows.Close()
	return scanScoreRecords(rows)
}

func recordArgs(r domain.ScoreRecord) ([]any, error) {
	subScores, err := json.Marshal(nonNilMap(r.SubScores))
	if err != nil {
		return nil, fmt.Errorf("encode sub-scores: %w", err)
	}
	metrics, err := json.Marshal(nonNilMap(r.Metrics))
	if err != nil {
		return nil, fmt.Errorf("encode metrics: %w", err)
	}
	signals, err := json.Marshal(nonNilSlice(r.Signals))
	if err != nil {
		return nil, fmt.Errorf("encode signals: %w", err)
	}
	warnings, err := json.Marshal(nonNilSlice(r.Warnings))
	if err != nil {
		return nil, fmt.Errorf("encode warnings: %w", err)
	}

	var scoredAt *time.Time
	if !r.ScoredAt.IsZero() {
		scoredAt = &r.ScoredAt
	}

	return []any{
		r.BatchID, r.Variant, r.TokenID, r.Symbol, r.Name, r.Total, r.Label, r.Pattern,
		r.ETAMinutes, subScores, metrics, signals, warnings, scoredAt,
	}, nil
}

func scanScoreRecords(rows pgx.Rows) ([]domain.ScoreRecord, error) {
	records := []domain.ScoreRecord{}
	for rows.Next() {
		var r domain.ScoreRecord
		var subScores, metrics, signals, warnings []byte
		var scoredAt *time.Time
		err := rows.Scan(
			&r.BatchID, &r.Variant, &r.TokenID, &r.Symbol, &r.Name, &r.Total, &r.Label, &r.Pattern,
			&r.ETAMinutes, &subScores, &metrics, &signals, &warnings, &scoredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan score record: %w", err)
		}
		if err := decodeJSON(subScores, &r.SubScores, "sub-scores"); err != nil {
			return nil, err
		}
		if err := decodeJSON(metrics, &r.Metrics, "metrics"); err != nil {
			return nil, err
		}
		if err := decodeJSON(signals, &r.Signals, "signals"); err != nil {
			return nil, err
		}
		if err := decodeJSON(warnings, &r.Warnings, "warnings"); err != nil {
			return nil, err
		}
		if scoredAt != nil {
			r.ScoredAt = scoredAt.UTC()
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate score records: %w", err)
	}
	return records, nil
}

func decodeJSON(data []byte, dst any, field string) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", field, err)
	}
	return nil
}

func nonNilMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return map[string]float64{}
	}
	return m
}

func nonNilSlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
