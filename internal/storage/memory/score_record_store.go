package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"graduation-lab/internal/domain"
	"graduation-lab/internal/storage"
)

// ScoreRecordStore is an in-memory implementation of storage.ScoreRecordStore.
type ScoreRecordStore struct {
	mu   sync.RWMutex
	data []domain.ScoreRecord
	keys map[string]struct{} // (batch_id, variant, token_id)
}

// NewScoreRecordStore creates a new in-memory score record store.
func NewScoreRecordStore() *ScoreRecordStore {
	return &ScoreRecordStore{
		keys: make(map[string]struct{}),
	}
}

func recordKey(r domain.ScoreRecord) string {
	return r.BatchID + "|" + r.Variant + "|" + r.TokenID
}

// InsertBulk adds records atomically. Fails entire batch on any duplicate.
func (s *ScoreRecordStore) InsertBulk(_ context.Context, records []domain.ScoreRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r.TokenID == "" || r.Variant == "" || r.BatchID == "" {
			return storage.ErrInvalidInput
		}
		key := recordKey(r)
		if _, exists := s.keys[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, r := range records {
		s.keys[recordKey(r)] = struct{}{}
		s.data = append(s.data, copyRecord(r))
	}
	return nil
}

// GetByBatch retrieves one variant's records of a batch in insertion order.
func (s *ScoreRecordStore) GetByBatch(_ context.Context, batchID, variant string) ([]domain.ScoreRecord, error) {
	return s.filter(func(r domain.ScoreRecord) bool {
		return r.BatchID == batchID && r.Variant == variant
	}), nil
}

// GetByToken retrieves every record of a token in insertion order.
func (s *ScoreRecordStore) GetByToken(_ context.Context, tokenID string) ([]domain.ScoreRecord, error) {
	return s.filter(func(r domain.ScoreRecord) bool {
		return r.TokenID == tokenID
	}), nil
}

func (s *ScoreRecordStore) filter(keep func(domain.ScoreRecord) bool) []domain.ScoreRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []domain.ScoreRecord{}
	for _, r := range s.data {
		if keep(r) {
			result = append(result, copyRecord(r))
		}
	}
	return result
}

// copyRecord detaches the maps and slices of a record from the caller's.
func copyRecord(r domain.ScoreRecord) domain.ScoreRecord {
	r.SubScores = maps.Clone(r.SubScores)
	r.Metrics = maps.Clone(r.Metrics)
	r.Signals = slices.Clone(r.Signals)
	r.Warnings = slices.Clone(r.Warnings)
	if r.ETAMinutes != nil {
		eta := *r.ETAMinutes
		r.ETAMinutes = &eta
	}
	return r
}

var _ storage.ScoreRecordStore = (*ScoreRecordStore)(nil)
