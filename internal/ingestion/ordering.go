package ingestion

import (
	"sort"

	"graduation-lab/internal/domain"
)

// SortNewestFirst orders snapshots by creation time descending, then id ascending.
func SortNewestFirst(snaps []domain.TokenSnapshot) {
	sort.SliceStable(snaps, func(i, j int) bool {
		if !snaps[i].CreatedAt.Equal(snaps[j].CreatedAt) {
			return snaps[i].CreatedAt.After(snaps[j].CreatedAt)
		}
		return snaps[i].ID < snaps[j].ID
	})
}

// NonGraduated returns the snapshots still on the bonding curve, order preserved.
func NonGraduated(snaps []domain.TokenSnapshot) []domain.TokenSnapshot {
	return filter(snaps, func(s domain.TokenSnapshot) bool { return !s.IsGraduated })
}

// Graduated returns the snapshots that already migrated, order preserved.
func Graduated(snaps []domain.TokenSnapshot) []domain.TokenSnapshot {
	return filter(snaps, func(s domain.TokenSnapshot) bool { return s.IsGraduated })
}

func filter(snaps []domain.TokenSnapshot, keep func(domain.TokenSnapshot) bool) []domain.TokenSnapshot {
	out := make([]domain.TokenSnapshot, 0, len(snaps))
	for _, s := range snaps {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}
