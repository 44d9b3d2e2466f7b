package memory

import (
	"context"
	"sort"
	"sync"

	"graduation-lab/internal/domain"
	"graduation-lab/internal/storage"
)

// TokenSnapshotStore is an in-memory implementation of storage.TokenSnapshotStore.
type TokenSnapshotStore struct {
	mu   sync.RWMutex
	data []domain.TokenSnapshot
	keys map[string]struct{} // (batch_id, id)
}

// NewTokenSnapshotStore creates a new in-memory snapshot store.
func NewTokenSnapshotStore() *TokenSnapshotStore {
	return &TokenSnapshotStore{
		keys: make(map[string]struct{}),
	}
}

func snapshotKey(batchID, tokenID string) string {
	return batchID + "|" + tokenID
}

// InsertBulk adds snapshots atomically. Fails entire batch on any duplicate.
func (s *TokenSnapshotStore) InsertBulk(_ context.Context, snapshots []domain.TokenSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(snapshots))
	for _, snap := range snapshots {
		if snap.ID == "" || snap.BatchID == "" {
			return storage.ErrInvalidInput
		}
		key := snapshotKey(snap.BatchID, snap.ID)
		if _, exists := s.keys[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for key := range batchKeys {
		s.keys[key] = struct{}{}
	}
	s.data = append(s.data, snapshots...)
	return nil
}

// GetByBatch retrieves the snapshots of one fetch batch, newest token first.
func (s *TokenSnapshotStore) GetByBatch(_ context.Context, batchID string) ([]domain.TokenSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []domain.TokenSnapshot{}
	for _, snap := range s.data {
		if snap.BatchID == batchID {
			result = append(result, snap)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// GetLatest retrieves the most recently fetched snapshot of a token.
func (s *TokenSnapshotStore) GetLatest(_ context.Context, tokenID string) (domain.TokenSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		latest domain.TokenSnapshot
		found  bool
	)
	for _, snap := range s.data {
		if snap.ID != tokenID {
			continue
		}
		if !found || !snap.FetchedAt.Before(latest.FetchedAt) {
			latest = snap
			found = true
		}
	}
	if !found {
		return domain.TokenSnapshot{}, storage.ErrNotFound
	}
	return latest, nil
}

var _ storage.TokenSnapshotStore = (*TokenSnapshotStore)(nil)
