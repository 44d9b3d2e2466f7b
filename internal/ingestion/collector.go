// Package ingestion collects recently launched tokens into immutable snapshots.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"graduation-lab/internal/domain"
	"graduation-lab/internal/jupiter"
	"graduation-lab/internal/storage"
)

// Collector defaults.
const (
	DefaultPageSize  = 100
	DefaultMaxPages  = 10
	DefaultPageDelay = 200 * time.Millisecond
	DefaultWindow    = time.Hour
)

// Collection is one fetch batch of token snapshots, newest first.
type Collection struct {
	BatchID   string
	Dev       string
	FetchedAt time.Time
	From      time.Time // zero when no window was applied
	Pages     int
	Fetched   int // raw tokens returned across pages
	Snapshots []domain.TokenSnapshot
}

// Collector pages through a dev address's tokens and builds snapshots.
type Collector struct {
	source    TokenSource
	store     storage.TokenSnapshotStore
	dev       string
	pageSize  int
	maxPages  int
	pageDelay time.Duration
	window    time.Duration
	clock     func() time.Time
	newID     func() string
	logger    zerolog.Logger
}

// CollectorOptions contains configuration for creating a Collector.
type CollectorOptions struct {
	Source    TokenSource
	Store     storage.TokenSnapshotStore // optional; snapshots persisted when set
	Dev       string
	PageSize  int           // Default: 100
	MaxPages  int           // Default: 10
	PageDelay time.Duration // Default: 200ms; negative disables
	Window    time.Duration // Default: 1h; negative disables the filter
	Clock     func() time.Time
	Logger    *zerolog.Logger
}

// NewCollector creates a new token collector.
func NewCollector(opts CollectorOptions) *Collector {
	c := &Collector{
		source:    opts.Source,
		store:     opts.Store,
		dev:       opts.Dev,
		pageSize:  opts.PageSize,
		maxPages:  opts.MaxPages,
		pageDelay: opts.PageDelay,
		window:    opts.Window,
		clock:     opts.Clock,
		newID:     uuid.NewString,
		logger:    zerolog.Nop(),
	}
	if c.pageSize <= 0 {
		c.pageSize = DefaultPageSize
	}
	if c.maxPages <= 0 {
		c.maxPages = DefaultMaxPages
	}
	if c.pageDelay == 0 {
		c.pageDelay = DefaultPageDelay
	}
	if c.window == 0 {
		c.window = DefaultWindow
	}
	if c.clock == nil {
		c.clock = time.Now
	}
	if opts.Logger != nil {
		c.logger = opts.Logger.With().Str("component", "collector").Logger()
	}
	return c
}

// Collect fetches up to maxPages pages and returns the tokens created inside
// the window. A failure on the first page is an error; later page failures end
// pagination with what was collected so far.
func (c *Collector) Collect(ctx context.Context) (*Collection, error) {
	if c.source == nil {
		return nil, errors.New("collector: nil token source")
	}

	now := c.clock().UTC()
	col := &Collection{
		BatchID:   c.newID(),
		Dev:       c.dev,
		FetchedAt: now,
	}
	if c.window > 0 {
		col.From = now.Add(-c.window)
	}

	seen := make(map[string]struct{})
	for page := 0; page < c.maxPages; page++ {
		if page > 0 && c.pageDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.pageDelay):
			}
		}

		offset := page * c.pageSize
		tokens, err := c.source.TopTokens(ctx, c.dev, c.pageSize, offset)
		if err != nil {
			if page == 0 {
				return nil, fmt.Errorf("collect first page: %w", err)
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn().Err(err).Int("offset", offset).Msg("page fetch failed, stopping pagination")
			break
		}
		col.Pages++
		if len(tokens) == 0 {
			break
		}
		col.Fetched += len(tokens)

		for _, info := range tokens {
			if _, dup := seen[info.ID]; dup {
				continue
			}
			seen[info.ID] = struct{}{}

			snap, ok := c.snapshot(info, now, col)
			if !ok {
				continue
			}
			col.Snapshots = append(col.Snapshots, snap)
		}
		c.logger.Debug().Int("offset", offset).Int("tokens", len(tokens)).Msg("page fetched")
	}

	SortNewestFirst(col.Snapshots)

	if c.store != nil && len(col.Snapshots) > 0 {
		if err := c.store.InsertBulk(ctx, col.Snapshots); err != nil {
			return nil, fmt.Errorf("persist snapshots: %w", err)
		}
	}

	c.logger.Info().
		Str("batch_id", col.BatchID).
		Int("pages", col.Pages).
		Int("fetched", col.Fetched).
		Int("in_window", len(col.Snapshots)).
		Msg("tokens collected")
	return col, nil
}

// snapshot converts one API token. ok is false for invalid mints and tokens
// outside the window.
func (c *Collector) snapshot(info jupiter.TokenInfo, now time.Time, col *Collection) (domain.TokenSnapshot, bool) {
	onCurve, err := ValidateMint(info.ID)
	if err != nil {
		c.logger.Warn().Err(err).Msg("skipping token")
		return domain.TokenSnapshot{}, false
	}
	if !onCurve {
		c.logger.Warn().Str("token", info.ID).Msg("mint is off the ed25519 curve")
	}

	created := CreationTime(info)
	if created.IsZero() {
		return domain.TokenSnapshot{}, false
	}
	if !col.From.IsZero() && !created.After(col.From) {
		return domain.TokenSnapshot{}, false
	}

	return domain.TokenSnapshot{
		ID:          info.ID,
		Symbol:      info.Symbol,
		Name:        info.Name,
		MarketCap:   info.MarketCap,
		Liquidity:   info.Liquidity,
		HolderCount: info.HolderCount,
		Price:       info.USDPrice,
		Volume24h:   info.Volume24h(),
		CreatedAt:   created,
		FetchedAt:   now,
		MinutesAgo:  minutesSince(created, now),
		IsGraduated: info.IsGraduated(),
		IsVerified:  info.IsVerified,
		BatchID:     col.BatchID,
	}, true
}

// CreationTime picks the first known timestamp among the first pool's
// creation, the token's creation, graduation and last update.
func CreationTime(info jupiter.TokenInfo) time.Time {
	var candidates []time.Time
	if info.FirstPool != nil {
		candidates = append(candidates, info.FirstPool.CreatedAt.Time)
	}
	candidates = append(candidates, info.CreatedAt.Time, info.GraduatedAt.Time, info.UpdatedAt.Time)
	for _, t := range candidates {
		if !t.IsZero() {
			return t.UTC()
		}
	}
	return time.Time{}
}

// minutesSince returns elapsed minutes rounded to two decimals.
func minutesSince(created, now time.Time) float64 {
	return math.Round(now.Sub(created).Minutes()*100) / 100
}
