package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graduation-lab/internal/jupiter"
	"graduation-lab/internal/storage/memory"
)

// 32-byte keys: the first four decode to points on the ed25519 curve, the last does not.
const (
	mintA   = "CiDwVBFgWV9E5MvXWoLgnEgn2hK7rJikbvfWavzAQzL"
	mintB   = "GcdayuLaLyrdmUu324nahyv33G5poQdLUEZ1nEytDeg"
	mintC   = "QRSsyMWN1yHT9ir42bgNZUNZ4PdEhcSWCrL2AryKpyN"
	mintD   = "g35TxFqwMx95vCk63fTxGTHb6ei4W24qg5t2x6xD3ck"
	mintPDA = "8opHzTAnfzRpPEx21XtnrVTX28YQuCpAjcn1PczScKz"
)

var testNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

type fakeSource struct {
	pages   [][]jupiter.TokenInfo
	errAt   map[int]error
	offsets []int
}

func (f *fakeSource) TopTokens(_ context.Context, _ string, limit, offset int) ([]jupiter.TokenInfo, error) {
	f.offsets = append(f.offsets, offset)
	page := offset / limit
	if err, ok := f.errAt[page]; ok {
		return nil, err
	}
	if page >= len(f.pages) {
		return nil, nil
	}
	return f.pages[page], nil
}

func tokenCreated(id string, minutesAgo float64) jupiter.TokenInfo {
	created := testNow.Add(-time.Duration(minutesAgo * float64(time.Minute)))
	return jupiter.TokenInfo{
		ID:        id,
		Symbol:    id[:3],
		CreatedAt: jupiter.Timestamp{Time: created},
	}
}

func newTestCollector(src TokenSource, opts CollectorOptions) *Collector {
	opts.Source = src
	opts.Dev = "dev"
	opts.PageDelay = -1
	opts.Clock = func() time.Time { return testNow }
	return NewCollector(opts)
}

func TestCollector_FiltersWindowAndSortsNewestFirst(t *testing.T) {
	src := &fakeSource{pages: [][]jupiter.TokenInfo{
		{tokenCreated(mintA, 30), tokenCreated(mintB, 5)},
		{tokenCreated(mintC, 90), tokenCreated(mintD, 59.5)},
	}}
	c := newTestCollector(src, CollectorOptions{PageSize: 2})

	col, err := c.Collect(context.Background())
	require.NoError(t, err)

	require.Len(t, col.Snapshots, 3)
	assert.Equal(t, mintB, col.Snapshots[0].ID)
	assert.Equal(t, mintA, col.Snapshots[1].ID)
	assert.Equal(t, mintD, col.Snapshots[2].ID)

	assert.Equal(t, 5.0, col.Snapshots[0].MinutesAgo)
	assert.Equal(t, 59.5, col.Snapshots[2].MinutesAgo)
	assert.Equal(t, testNow, col.Snapshots[0].FetchedAt)
	assert.Equal(t, col.BatchID, col.Snapshots[0].BatchID)
	assert.NotEmpty(t, col.BatchID)

	assert.Equal(t, testNow.Add(-time.Hour), col.From)
	assert.Equal(t, 4, col.Fetched)
	// Two full pages plus the empty one that ends pagination.
	assert.Equal(t, []int{0, 2, 4}, src.offsets)
}

func TestCollector_StopsAtMaxPages(t *testing.T) {
	page := []jupiter.TokenInfo{tokenCreated(mintA, 1)}
	src := &fakeSource{pages: [][]jupiter.TokenInfo{page, page, page, page}}
	c := newTestCollector(src, CollectorOptions{PageSize: 1, MaxPages: 2})

	col, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, col.Pages)
	assert.Len(t, col.Snapshots, 1, "duplicate ids across pages are collapsed")
}

func TestCollector_FirstPageErrorFails(t *testing.T) {
	src := &fakeSource{errAt: map[int]error{0: errors.New("boom")}}
	c := newTestCollector(src, CollectorOptions{})

	_, err := c.Collect(context.Background())
	assert.Error(t, err)
}

func TestCollector_LaterPageErrorKeepsCollected(t *testing.T) {
	src := &fakeSource{
		pages: [][]jupiter.TokenInfo{{tokenCreated(mintA, 10)}},
		errAt: map[int]error{1: errors.New("rate limited")},
	}
	c := newTestCollector(src, CollectorOptions{PageSize: 1})

	col, err := c.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, col.Snapshots, 1)
	assert.Equal(t, mintA, col.Snapshots[0].ID)
}

func TestCollector_SkipsInvalidMintsAndMissingTimes(t *testing.T) {
	src := &fakeSource{pages: [][]jupiter.TokenInfo{{
		tokenCreated("not-a-mint!", 1),
		{ID: mintB},
		tokenCreated(mintPDA, 2),
	}}}
	c := newTestCollector(src, CollectorOptions{})

	col, err := c.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, col.Snapshots, 1)
	assert.Equal(t, mintPDA, col.Snapshots[0].ID, "off-curve mints are kept")
}

func TestCollector_NegativeWindowKeepsEverything(t *testing.T) {
	src := &fakeSource{pages: [][]jupiter.TokenInfo{{tokenCreated(mintA, 600)}}}
	c := newTestCollector(src, CollectorOptions{Window: -1})

	col, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, col.Snapshots, 1)
	assert.True(t, col.From.IsZero())
}

func TestCollector_PersistsSnapshots(t *testing.T) {
	store := memory.NewTokenSnapshotStore()
	src := &fakeSource{pages: [][]jupiter.TokenInfo{{tokenCreated(mintA, 3), tokenCreated(mintB, 4)}}}
	c := newTestCollector(src, CollectorOptions{Store: store})

	col, err := c.Collect(context.Background())
	require.NoError(t, err)

	stored, err := store.GetByBatch(context.Background(), col.BatchID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestCreationTime_Precedence(t *testing.T) {
	var info jupiter.TokenInfo
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "x",
		"createdAt": "2026-10-16T09:00:00Z",
		"graduatedAt": "2026-10-16T09:30:00Z",
		"updatedAt": "2026-10-16T11:00:00Z",
		"firstPool": {"createdAt": "2026-10-16T08:00:00Z"}
	}`), &info))
	assert.Equal(t, time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC), CreationTime(info))

	info.FirstPool = nil
	assert.Equal(t, time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC), CreationTime(info))

	info.CreatedAt = jupiter.Timestamp{}
	assert.Equal(t, time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC), CreationTime(info))

	info.GraduatedAt = jupiter.Timestamp{}
	assert.Equal(t, time.Date(2026, 10, 16, 11, 0, 0, 0, time.UTC), CreationTime(info))

	info.UpdatedAt = jupiter.Timestamp{}
	assert.True(t, CreationTime(info).IsZero())
}

func TestValidateMint(t *testing.T) {
	onCurve, err := ValidateMint(mintA)
	require.NoError(t, err)
	assert.True(t, onCurve)

	onCurve, err = ValidateMint(mintPDA)
	require.NoError(t, err)
	assert.False(t, onCurve)

	for _, bad := range []string{"", "0OIl", "1111111111111111111111111111111"} {
		_, err := ValidateMint(bad)
		assert.ErrorIs(t, err, ErrInvalidMint, bad)
	}
}
