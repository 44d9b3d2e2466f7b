package scoring

import (
	"reflect"
	"slices"
	"testing"

	"graduation-lab/internal/domain"
)

func flatSeries(n int, volume float64) []domain.Candle {
	out := make([]domain.Candle, n)
	for i := range out {
		out[i] = domain.Candle{Time: int64(i * 60), Open: 1, High: 1, Low: 1, Close: 1, Volume: volume}
	}
	return out
}

// risingSeries is ten green candles, each opening at the previous close.
func risingSeries(volume float64) []domain.Candle {
	closes := []float64{1, 2, 3, 3.5, 4, 4.2, 4.4, 4.6, 4.8, 5}
	out := make([]domain.Candle, len(closes))
	open := 0.5
	for i, c := range closes {
		out[i] = domain.Candle{Time: int64(i * 60), Open: open, High: c, Low: open, Close: c, Volume: volume}
		open = c
	}
	return out
}

func token(age float64, holders int) domain.TokenSnapshot {
	return domain.TokenSnapshot{ID: "mint1", Symbol: "TST", MinutesAgo: age, HolderCount: holders}
}

func mustScorer(t *testing.T, variant string) Scorer {
	t.Helper()
	s, err := New(variant, DefaultConfig())
	if err != nil {
		t.Fatalf("New(%q): %v", variant, err)
	}
	return s
}

func TestV1_ConstantVolumeFlatPrice(t *testing.T) {
	s := mustScorer(t, domain.VariantV1)
	flat := flatSeries(30, 20_000)
	rec := s.Score(Input{Token: token(30, 60), VolumeCandles: flat, PriceCandles: flat})

	want := map[string]float64{
		domain.SubVolume:    25,
		domain.SubPrice:     0,
		domain.SubMomentum:  0,
		domain.SubStability: 15,
		domain.SubHolders:   7,
		domain.SubTime:      10,
	}
	if !reflect.DeepEqual(rec.SubScores, want) {
		t.Errorf("SubScores = %v, want %v", rec.SubScores, want)
	}
	if rec.Total != 57 {
		t.Errorf("Total = %v, want 57", rec.Total)
	}
	if rec.Label != domain.LabelHigh {
		t.Errorf("Label = %q, want %q", rec.Label, domain.LabelHigh)
	}
	if rec.ETAMinutes != nil {
		t.Errorf("ETAMinutes = %v, want nil", *rec.ETAMinutes)
	}
	if got := rec.Metric(domain.VolumeMetric(domain.Minute30)); got != 600_000 {
		t.Errorf("volume_30m = %v, want 600000", got)
	}
	if rec.Metrics[domain.VolumeMetric(domain.Minute60)] != 0 {
		t.Error("volume_60m should be absent for a 30-candle series")
	}
}

func TestV1_FallsBackToPriceSeries(t *testing.T) {
	s := mustScorer(t, domain.VariantV1)
	rec := s.Score(Input{Token: token(30, 0), PriceCandles: flatSeries(30, 20_000)})
	if rec.SubScore(domain.SubVolume) != 25 {
		t.Errorf("volume = %v, want 25", rec.SubScore(domain.SubVolume))
	}
}

func TestV1_VolumeTierMonotonic(t *testing.T) {
	s := mustScorer(t, domain.VariantV1)
	prev := -1.0
	for _, perMinute := range []float64{0, 1_000, 2_000, 4_000, 8_000, 12_000, 16_000, 30_000} {
		rec := s.Score(Input{Token: token(30, 0), VolumeCandles: flatSeries(30, perMinute)})
		v := rec.SubScore(domain.SubVolume)
		if v < prev {
			t.Fatalf("volume score dropped from %v to %v at %v/min", prev, v, perMinute)
		}
		if v > 25 {
			t.Fatalf("volume score %v above cap", v)
		}
		prev = v
	}
	if prev != 25 {
		t.Errorf("top volume score = %v, want 25", prev)
	}
}

func TestV1Legacy_UsesOwnTiers(t *testing.T) {
	s := mustScorer(t, domain.VariantV1Legacy)
	rec := s.Score(Input{Token: token(30, 60), VolumeCandles: flatSeries(30, 20_000)})
	// 600K clears 500K but not 1M; no checkpoint bonuses in this preset.
	if got := rec.SubScore(domain.SubVolume); got != 20 {
		t.Errorf("volume = %v, want 20", got)
	}
	if got := rec.SubScore(domain.SubTime); got != 10 {
		t.Errorf("time = %v, want 10", got)
	}
	if rec.Variant != domain.VariantV1Legacy {
		t.Errorf("Variant = %q", rec.Variant)
	}
}

func TestScorers_EmptySeries(t *testing.T) {
	for _, variant := range Variants {
		t.Run(variant, func(t *testing.T) {
			rec := mustScorer(t, variant).Score(Input{Token: token(12, 40)})
			if rec.Total != 0 {
				t.Errorf("Total = %v, want 0", rec.Total)
			}
			for name, v := range rec.SubScores {
				if v != 0 {
					t.Errorf("sub-score %s = %v, want 0", name, v)
				}
			}
			if len(rec.SubScores) == 0 {
				t.Error("expected zeroed sub-scores")
			}
			if !slices.Contains(rec.Warnings, noCandlesWarning) {
				t.Errorf("Warnings = %v, want %q", rec.Warnings, noCandlesWarning)
			}
			if rec.ETAMinutes != nil {
				t.Error("ETAMinutes should be nil")
			}
			if rec.Label == "" {
				t.Error("Label should be set")
			}
		})
	}
}

func TestScorers_Deterministic(t *testing.T) {
	in := Input{Token: token(10, 30), VolumeCandles: risingSeries(30_000), PriceCandles: risingSeries(30_000)}
	for _, variant := range Variants {
		s := mustScorer(t, variant)
		a, b := s.Score(in), s.Score(in)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("%s: two runs differ:\n%+v\n%+v", variant, a, b)
		}
	}
}

func TestV2_ConstantVolumeFlatPrice(t *testing.T) {
	s := mustScorer(t, domain.VariantV2)
	flat := flatSeries(30, 20_000)
	rec := s.Score(Input{Token: token(30, 0), VolumeCandles: flat, PriceCandles: flat})

	// 30-min volume 600K clears the 458,057 critical, 5 and 10 do not.
	if got := rec.SubScore(domain.SubVolume); got != 40 {
		t.Errorf("volume = %v, want 40", got)
	}
	if got := rec.SubScore(domain.SubPrice); got != 0 {
		t.Errorf("price = %v, want 0", got)
	}
	if got := rec.SubScore(domain.SubTime); got != 80 {
		t.Errorf("time = %v, want 80", got)
	}
	if got := rec.SubScore(domain.SubMomentum); got != 0 {
		t.Errorf("momentum = %v, want 0", got)
	}
	// 0.40*40 + 0.15*80 = 28
	if rec.Total != 28 {
		t.Errorf("Total = %v, want 28", rec.Total)
	}
	if rec.Label != domain.LabelLow {
		t.Errorf("Label = %q, want LOW", rec.Label)
	}
	if rec.Pattern != domain.PatternSlow {
		t.Errorf("Pattern = %q, want SLOW", rec.Pattern)
	}
	if rec.ETAMinutes != nil {
		t.Error("no ETA below the minimum score")
	}
}

func TestV2_RisingTokenGetsETA(t *testing.T) {
	s := mustScorer(t, domain.VariantV2)
	rising := risingSeries(30_000)
	rec := s.Score(Input{Token: token(10, 0), VolumeCandles: rising, PriceCandles: rising})

	checks := map[string]float64{
		domain.SubVolume:   60, // 5 and 10 min critical hit
		domain.SubPrice:    65, // +300% at 5 min, +400% at 10 min
		domain.SubTime:     80,
		domain.SubMomentum: 70, // price trend and green run
	}
	for name, want := range checks {
		if got := rec.SubScore(name); got != want {
			t.Errorf("%s = %v, want %v", name, got, want)
		}
	}
	// 24 + 22.75 + 12 + 7 = 65.75
	if rec.Total != 66 {
		t.Errorf("Total = %v, want 66", rec.Total)
	}
	if rec.Label != domain.LabelHigh {
		t.Errorf("Label = %q, want HIGH", rec.Label)
	}
	// (572,572 - 300,000) / 30,000 = 9.09
	if rec.ETAMinutes == nil || *rec.ETAMinutes != 9 {
		t.Fatalf("ETAMinutes = %v, want 9", rec.ETAMinutes)
	}
}

func TestV2_TotalIsBoundedInteger(t *testing.T) {
	s := mustScorer(t, domain.VariantV2)
	inputs := []Input{
		{Token: token(0, 0), VolumeCandles: flatSeries(3, 1)},
		{Token: token(45, 500), VolumeCandles: flatSeries(120, 90_000), PriceCandles: risingSeries(90_000)},
		{Token: token(500, 0), PriceCandles: risingSeries(0)},
	}
	for i, in := range inputs {
		rec := s.Score(in)
		if rec.Total < 0 || rec.Total > 100 {
			t.Errorf("input %d: Total %v out of range", i, rec.Total)
		}
		if rec.Total != float64(int(rec.Total)) {
			t.Errorf("input %d: Total %v is not an integer", i, rec.Total)
		}
	}
}

func TestV2_WeightsSumToOne(t *testing.T) {
	if s := DefaultV2Config().Weights.Sum(); s < 0.999999 || s > 1.000001 {
		t.Errorf("weights sum = %v, want 1", s)
	}
}

func TestV2_AgeGatesCheckpoints(t *testing.T) {
	s := mustScorer(t, domain.VariantV2)
	rising := risingSeries(30_000)
	// Candles exist but the token is reported younger than 5 minutes.
	rec := s.Score(Input{Token: token(3, 0), VolumeCandles: rising, PriceCandles: rising})
	if got := rec.SubScore(domain.SubVolume); got != 0 {
		t.Errorf("volume = %v, want 0", got)
	}
	if got := rec.SubScore(domain.SubPrice); got != 0 {
		t.Errorf("price = %v, want 0", got)
	}
}

func TestPriceScorer_RisingSeries(t *testing.T) {
	s := mustScorer(t, domain.VariantPrice)
	rec := s.Score(Input{Token: token(10, 0), PriceCandles: risingSeries(0)})
	// 10-min cap 20 + green run cap 20 + efficiency cap 20
	if rec.Total != 60 {
		t.Errorf("Total = %v, want 60", rec.Total)
	}
	if rec.Pattern != domain.PatternVolatileGrowth || rec.Label != rec.Pattern {
		t.Errorf("Pattern/Label = %q/%q, want VOLATILE_GROWTH", rec.Pattern, rec.Label)
	}
	if got := rec.Metric(domain.PriceIncreaseMetric(domain.Minute10)); got != 400 {
		t.Errorf("price_increase_10m = %v, want 400", got)
	}
}

func TestPriceScorer_FlatSeries(t *testing.T) {
	s := mustScorer(t, domain.VariantPrice)
	rec := s.Score(Input{Token: token(30, 0), PriceCandles: flatSeries(30, 0)})
	if rec.Total != 0 {
		t.Errorf("Total = %v, want 0", rec.Total)
	}
	if rec.Pattern != domain.PatternMixed {
		t.Errorf("Pattern = %q, want MIXED", rec.Pattern)
	}
}

func TestPriceScorer_EmptyIsUnknown(t *testing.T) {
	s := mustScorer(t, domain.VariantPrice)
	rec := s.Score(Input{Token: token(30, 0), VolumeCandles: flatSeries(30, 1)})
	if rec.Label != domain.PatternUnknown {
		t.Errorf("Label = %q, want unknown", rec.Label)
	}
}

func TestPredictor_ConstantVolume(t *testing.T) {
	s := mustScorer(t, domain.VariantPredictor)
	rec := s.Score(Input{Token: token(30, 0), VolumeCandles: flatSeries(30, 20_000)})
	// +30 at 30 min, +15 velocity; 5 and 10 min fall short.
	if rec.Total != 45 {
		t.Errorf("Total = %v, want 45", rec.Total)
	}
	if rec.Label != domain.LabelMedium {
		t.Errorf("Label = %q, want MEDIUM", rec.Label)
	}
	if rec.ETAMinutes != nil {
		t.Error("target already reached, want no ETA")
	}
	if len(rec.Warnings) < 2 {
		t.Errorf("Warnings = %v, want checkpoint shortfalls", rec.Warnings)
	}
}

func TestPredictor_ETA(t *testing.T) {
	s := mustScorer(t, domain.VariantPredictor)
	rec := s.Score(Input{Token: token(10, 0), VolumeCandles: flatSeries(10, 20_000)})
	// (447,013 - 200,000) / 20,000 = 12.35
	if rec.ETAMinutes == nil || *rec.ETAMinutes != 12 {
		t.Fatalf("ETAMinutes = %v, want 12", rec.ETAMinutes)
	}
	if rec.Total != 15 {
		t.Errorf("Total = %v, want 15", rec.Total)
	}
	if rec.Label != domain.LabelVeryLow {
		t.Errorf("Label = %q, want VERY LOW", rec.Label)
	}
}

func TestNew_UnknownVariant(t *testing.T) {
	if _, err := New("v3", DefaultConfig()); err == nil {
		t.Fatal("expected error for unknown variant")
	}
}

func TestNeedsPrice(t *testing.T) {
	if NeedsPrice([]string{domain.VariantV1, domain.VariantPredictor}) {
		t.Error("volume-only variants should not need price")
	}
	if !NeedsPrice([]string{domain.VariantV1, domain.VariantV2}) {
		t.Error("v2 needs price")
	}
}

// checkpointSeries is n flat candles at close 1 except the given minute closes.
func checkpointSeries(n int, volume float64, closes map[int]float64) []domain.Candle {
	out := flatSeries(n, volume)
	for minute, c := range closes {
		out[minute-1].Close = c
		out[minute-1].High = max(c, 1)
	}
	return out
}

func TestV2_PriceSubScore(t *testing.T) {
	tests := []struct {
		name   string
		volume float64
		closes map[int]float64
		want   float64
		signal string
	}{
		{
			name:   "accumulation phase",
			volume: 25_000, // 125K by minute 5
			closes: map[int]float64{5: 0.8},
			want:   5,
			signal: "accumulation phase: price down with strong volume",
		},
		{
			name:   "price down on thin volume",
			volume: 10_000,
			closes: map[int]float64{5: 0.8},
			want:   0,
		},
		{
			name:   "strong but below critical",
			volume: 1,
			closes: map[int]float64{5: 1.6, 10: 2.5}, // +60%, +150%
			want:   15 + 20,
		},
		{
			name:   "explosive growth bonus",
			volume: 1,
			closes: map[int]float64{10: 3.5, 30: 5.5}, // +250%, +450%
			want:   35 + 35 + 20,
			signal: "explosive growth pattern",
		},
		{
			name:   "capped at 100",
			volume: 1,
			closes: map[int]float64{5: 3, 10: 3.5, 30: 5.5},
			want:   100, // 30 + 35 + 35 + 20
		},
	}

	s := mustScorer(t, domain.VariantV2)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series := checkpointSeries(30, tt.volume, tt.closes)
			rec := s.Score(Input{Token: token(30, 0), VolumeCandles: series, PriceCandles: series})
			if got := rec.SubScore(domain.SubPrice); got != tt.want {
				t.Errorf("price = %v, want %v", got, tt.want)
			}
			if tt.signal != "" && !slices.Contains(rec.Signals, tt.signal) {
				t.Errorf("signals %q missing %q", rec.Signals, tt.signal)
			}
		})
	}
}

func TestV2_ProfilesAgainstGraduationVolume(t *testing.T) {
	flat := flatSeries(60, 10_000)

	rec := mustScorer(t, domain.VariantV2).Score(Input{Token: token(60, 0), VolumeCandles: flat, PriceCandles: flat})
	if got := rec.Metrics[domain.MetricVolumeToTarget]; got != 510_000 {
		t.Errorf("volume_to_target = %v, want 510000", got)
	}
	if got := rec.Metrics[domain.MetricMinutesToTarget]; got != 51 {
		t.Errorf("minutes_to_target = %v, want 51", got)
	}

	cfg := DefaultV2Config()
	cfg.GraduationVolume = 300_000
	cfg.VolumeAverage.Min30 = 900_000
	rec = NewV2Scorer(cfg).Score(Input{Token: token(60, 0), VolumeCandles: flat, PriceCandles: flat})
	if got := rec.Metrics[domain.MetricMinutesToTarget]; got != 31 {
		t.Errorf("minutes_to_target = %v, want 31 with a 300K graduation volume", got)
	}
}
