package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"graduation-lab/internal/cache"
	"graduation-lab/internal/config"
	"graduation-lab/internal/domain"
	"graduation-lab/internal/ingestion"
	"graduation-lab/internal/jupiter"
	"graduation-lab/internal/logging"
	"graduation-lab/internal/metrics"
	"graduation-lab/internal/observability"
	"graduation-lab/internal/scoring"
	"graduation-lab/internal/storage"
	chstore "graduation-lab/internal/storage/clickhouse"
	"graduation-lab/internal/storage/memory"
	"graduation-lab/internal/storage/migrations"
	pgstore "graduation-lab/internal/storage/postgres"
)

// app holds the dependencies a subcommand needs. Backends left unconfigured
// fall back to memory stores so every command runs without infrastructure.
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	metrics *observability.Metrics
	scoring scoring.Config

	client *jupiter.Client
	source domain.CandleSource

	snapshots storage.TokenSnapshotStore
	records   storage.ScoreRecordStore
	candles   storage.CandleStore

	closers []func()
}

// newApp loads configuration and connects the configured backends.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if scoringConfig != "" {
		cfg.ScoringConfig = scoringConfig
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}

	a := &app{
		cfg:     cfg,
		logger:  logging.New(cfg.LogLevel, cfg.LogPretty),
		metrics: observability.NewMetrics(""),
	}

	a.scoring, err = scoring.LoadConfig(cfg.ScoringConfig)
	if err != nil {
		return nil, err
	}

	a.client = jupiter.NewClient(cfg.JupiterBaseURL,
		jupiter.WithRPS(cfg.FetchRPS),
		jupiter.WithObserver(a.metrics),
	)
	a.source = a.client

	if err := a.connect(ctx); err != nil {
		a.Close()
		return nil, err
	}
	a.serveMetrics()
	return a, nil
}

func (a *app) connect(ctx context.Context) error {
	a.snapshots = memory.NewTokenSnapshotStore()
	a.records = memory.NewScoreRecordStore()
	a.candles = memory.NewCandleStore()

	if a.cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, a.cfg.PostgresDSN, pgstore.WithApplicationName("gradlab"))
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)

		applied, err := migrations.RunPostgresMigrations(ctx, pool)
		if err != nil {
			return fmt.Errorf("postgres migrations: %w", err)
		}
		if len(applied) > 0 {
			a.logger.Info().Strs("files", applied).Msg("postgres migrations applied")
		}
		a.snapshots = pgstore.NewTokenSnapshotStore(pool)
		a.records = pgstore.NewScoreRecordStore(pool)
	}

	if a.cfg.ClickhouseDSN != "" {
		conn, applied, err := migrations.RunClickhouseMigrations(ctx, a.cfg.ClickhouseDSN)
		if err != nil {
			return fmt.Errorf("clickhouse: %w", err)
		}
		if len(applied) > 0 {
			a.logger.Info().Strs("files", applied).Msg("clickhouse migrations applied")
		}
		a.closers = append(a.closers, func() { conn.Close() })
		a.candles = chstore.NewCandleStore(conn)
	}

	if a.cfg.RedisAddr != "" {
		rdb, err := cache.NewRedisClient(ctx, a.cfg.RedisAddr, a.cfg.RedisPassword, 0)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		a.closers = append(a.closers, func() { rdb.Close() })
		a.source = cache.NewCandleCache(rdb, a.client, cache.DefaultTTL, a.logger)
	}
	return nil
}

// serveMetrics exposes /metrics and /health when METRICS_ADDR is set.
func (a *app) serveMetrics() {
	if a.cfg.MetricsAddr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", a.metrics.Handler())

	srv := &http.Server{Addr: a.cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		a.logger.Info().Str("addr", a.cfg.MetricsAddr).Msg("metrics server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error().Err(err).Msg("metrics server failed")
		}
	}()
	a.closers = append(a.closers, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
}

// Close releases backends in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// collect runs one token collection against the configured dev address.
func (a *app) collect(ctx context.Context, window time.Duration, maxPages int) (*ingestion.Collection, error) {
	c := ingestion.NewCollector(ingestion.CollectorOptions{
		Source:   a.client,
		Store:    a.snapshots,
		Dev:      a.cfg.DevAddress,
		MaxPages: maxPages,
		Window:   window,
		Logger:   &a.logger,
	})
	col, err := c.Collect(ctx)
	if err != nil {
		return nil, err
	}
	a.metrics.RecordCollected(len(col.Snapshots))
	return col, nil
}

func (a *app) aggregator() *metrics.Aggregator {
	return metrics.NewAggregator(metrics.DefaultOptions(), a.records)
}

// parseVariants splits a comma-separated variant list; "all" selects every variant.
func parseVariants(s string) ([]string, error) {
	if strings.TrimSpace(s) == "all" {
		return scoring.Variants, nil
	}
	known := make(map[string]bool, len(scoring.Variants))
	for _, v := range scoring.Variants {
		known[v] = true
	}

	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		v := strings.TrimSpace(part)
		if v == "" || seen[v] {
			continue
		}
		if !known[v] {
			return nil, fmt.Errorf("unknown variant %q (known: %s)", v, strings.Join(scoring.Variants, ", "))
		}
		seen[v] = true
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, errors.New("no variants selected")
	}
	return out, nil
}
