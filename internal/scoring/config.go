package scoring

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"graduation-lab/internal/domain"
	"graduation-lab/internal/patterns"
)

// CheckpointBonus adds Points when the cumulative volume at Minute is above Above.
type CheckpointBonus struct {
	Minute int     `yaml:"minute"`
	Above  float64 `yaml:"above"`
	Points float64 `yaml:"points"`
}

// V1Config holds the tiers of the six-dimension volume scorer.
type V1Config struct {
	Version         string            `yaml:"version"`
	VolumeTiers     Tiers             `yaml:"volume_tiers"`
	VolumeBonuses   []CheckpointBonus `yaml:"volume_bonuses"`
	VolumeCap       float64           `yaml:"volume_cap"`
	PriceMinCandles int               `yaml:"price_min_candles"` // price trend needs more candles than this
	PriceTiers      Tiers             `yaml:"price_tiers"`
	MomentumWindow  int               `yaml:"momentum_window"`
	MomentumTiers   MultipleTiers     `yaml:"momentum_tiers"`
	StabilityTiers  BelowTiers        `yaml:"stability_tiers"`
	HolderTiers     Tiers             `yaml:"holder_tiers"`
	Age             AgeBands          `yaml:"age"`
	Labels          LabelTiers        `yaml:"labels"`
}

// PriceConfig holds the momentum blend of the price-only scorer.
type PriceConfig struct {
	Version        string       `yaml:"version"`
	Increase10m    CappedFactor `yaml:"increase_10m"`
	Increase30m    CappedFactor `yaml:"increase_30m"`
	GreenRun       CappedFactor `yaml:"green_run"`
	BreakoutPoints float64      `yaml:"breakout_points"`
	Efficiency     CappedFactor `yaml:"efficiency"`
	MaxScore       float64      `yaml:"max_score"`
}

// VolumeThresholds are cumulative volume checkpoints plus a velocity floor.
type VolumeThresholds struct {
	Min5           float64 `yaml:"min5"`
	Min10          float64 `yaml:"min10"`
	Min30          float64 `yaml:"min30"`
	Min60          float64 `yaml:"min60,omitempty"`
	VelocityPerMin float64 `yaml:"velocity_per_min"`
}

// PriceThresholds are percentage increases at checkpoints.
type PriceThresholds struct {
	Min5  float64 `yaml:"min5"`
	Min10 float64 `yaml:"min10"`
	Min30 float64 `yaml:"min30"`
	Min60 float64 `yaml:"min60,omitempty"`
}

// Weights blend the four combined sub-scores.
type Weights struct {
	Volume   float64 `yaml:"volume"`
	Price    float64 `yaml:"price"`
	Time     float64 `yaml:"time"`
	Momentum float64 `yaml:"momentum"`
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	return w.Volume + w.Price + w.Time + w.Momentum
}

// V2Points are the awards of the combined scorer.
type V2Points struct {
	Volume5            float64 `yaml:"volume_5m"`
	Volume10           float64 `yaml:"volume_10m"`
	Volume30           float64 `yaml:"volume_30m"`
	Price5             float64 `yaml:"price_5m"`
	Price5Strong       float64 `yaml:"price_5m_strong"`
	Price5Accumulation float64 `yaml:"price_5m_accumulation"`
	Price10            float64 `yaml:"price_10m"`
	Price10Strong      float64 `yaml:"price_10m_strong"`
	Price30            float64 `yaml:"price_30m"`
	ExplosiveBonus     float64 `yaml:"explosive_bonus"`
	VolumeTrend        float64 `yaml:"volume_trend"`
	PriceTrend         float64 `yaml:"price_trend"`
	GreenRun           float64 `yaml:"green_run"`
}

// V2Config holds the combined volume, price, time and momentum scorer.
type V2Config struct {
	Version            string           `yaml:"version"`
	VolumeCritical     VolumeThresholds `yaml:"volume_critical"`
	VolumeAverage      VolumeThresholds `yaml:"volume_average"`
	PriceCritical      PriceThresholds  `yaml:"price_critical"`
	PriceAverage       PriceThresholds  `yaml:"price_average"`
	Price5Strong       float64          `yaml:"price_5m_strong"`
	Price10Strong      float64          `yaml:"price_10m_strong"`
	AccumulationVolume float64          `yaml:"accumulation_volume"`
	// GraduationVolume is the cumulative volume profiled as the graduation
	// crossing. Calibration leaves it alone.
	GraduationVolume   float64          `yaml:"graduation_volume"`
	Age                AgeBands         `yaml:"age"`
	TrendWindow        int              `yaml:"trend_window"`
	VolumeTrendUp      float64          `yaml:"volume_trend_up"`
	VolumeTrendDown    float64          `yaml:"volume_trend_down"`
	PriceTrendUp       float64          `yaml:"price_trend_up"`
	GreenRunMin        int              `yaml:"green_run_min"`
	Points             V2Points         `yaml:"points"`
	Weights            Weights          `yaml:"weights"`
	ETAMinScore        float64          `yaml:"eta_min_score"`
	Labels             LabelTiers       `yaml:"labels"`
}

// PredictorPoints are the awards of the checkpoint predictor.
type PredictorPoints struct {
	Volume5     float64 `yaml:"volume_5m"`
	Volume10    float64 `yaml:"volume_10m"`
	Volume30    float64 `yaml:"volume_30m"`
	Velocity    float64 `yaml:"velocity"`
	Spikes      float64 `yaml:"spikes"`
	Momentum    float64 `yaml:"momentum"` // added when increasing, removed when decreasing
	BuyPressure float64 `yaml:"buy_pressure"`
}

// PredictorConfig holds the volume-only checkpoint predictor.
type PredictorConfig struct {
	Version           string           `yaml:"version"`
	Critical          VolumeThresholds `yaml:"critical"`
	Average           VolumeThresholds `yaml:"average"`
	TotalVolumeTarget float64          `yaml:"total_volume_target"`
	AvgTimeMinutes    float64          `yaml:"avg_time_minutes"`
	MinSpikes         int              `yaml:"min_spikes"`
	BuyPressureAbove  float64          `yaml:"buy_pressure_above"`
	TrendWindow       int              `yaml:"trend_window"`
	TrendUp           float64          `yaml:"trend_up"`
	TrendDown         float64          `yaml:"trend_down"`
	Points            PredictorPoints  `yaml:"points"`
	Labels            LabelTiers       `yaml:"labels"`
}

// Config holds every scorer variant. Variants never share thresholds.
type Config struct {
	V1        V1Config        `yaml:"v1"`
	V1Legacy  V1Config        `yaml:"v1_legacy"`
	Price     PriceConfig     `yaml:"price"`
	V2        V2Config        `yaml:"v2"`
	Predictor PredictorConfig `yaml:"predictor"`
}

func v1Labels() LabelTiers {
	return LabelTiers{
		Tiers: []LabelTier{
			{AtLeast: 50, Label: domain.LabelHigh, Note: "Good graduation potential"},
			{AtLeast: 30, Label: domain.LabelMedium, Note: "Moderate graduation potential"},
		},
		Fallback: LabelTier{Label: domain.LabelLow, Note: "Low graduation potential", Warn: true},
	}
}

func fiveLabels() LabelTiers {
	return LabelTiers{
		Tiers: []LabelTier{
			{AtLeast: 80, Label: domain.LabelVeryHigh, Note: "All indicators strongly positive"},
			{AtLeast: 60, Label: domain.LabelHigh, Note: "Most indicators positive"},
			{AtLeast: 40, Label: domain.LabelMedium, Note: "Mixed signals"},
			{AtLeast: 20, Label: domain.LabelLow, Note: "Weak indicators", Warn: true},
		},
		Fallback: LabelTier{Label: domain.LabelVeryLow, Note: "Poor performance across metrics", Warn: true},
	}
}

// DefaultV1Config returns the calibrated volume scorer tuning.
func DefaultV1Config() V1Config {
	return V1Config{
		Version: "1.1.0",
		VolumeTiers: Tiers{
			{Above: 400_000, Points: 25},
			{Above: 300_000, Points: 20},
			{Above: 200_000, Points: 15},
			{Above: 100_000, Points: 10},
			{Above: 50_000, Points: 5},
		},
		VolumeBonuses: []CheckpointBonus{
			{Minute: domain.Minute10, Above: 227_514, Points: 5},
			{Minute: domain.Minute30, Above: 458_057, Points: 25},
		},
		VolumeCap:       25,
		PriceMinCandles: 10,
		PriceTiers: Tiers{
			{Above: 100, Points: 20},
			{Above: 50, Points: 15},
			{Above: 20, Points: 10},
			{Above: 0, Points: 5},
		},
		MomentumWindow: 5,
		MomentumTiers: MultipleTiers{
			{Multiple: 2, Points: 20},
			{Multiple: 1.5, Points: 15},
			{Multiple: 1, Points: 10},
		},
		StabilityTiers: BelowTiers{
			{Below: 10, Points: 15},
			{Below: 25, Points: 10},
			{Below: 50, Points: 5},
		},
		HolderTiers: Tiers{
			{Above: 100, Points: 10},
			{Above: 50, Points: 7},
			{Above: 25, Points: 5},
			{Above: 10, Points: 3},
		},
		Age: AgeBands{
			Bands: []AgeBand{
				{From: 10, To: 60, Points: 10},
				{From: 0, To: 10, Points: 5},
			},
			Otherwise: 3,
		},
		Labels: v1Labels(),
	}
}

// DefaultV1LegacyConfig returns the pre-calibration volume scorer tuning.
func DefaultV1LegacyConfig() V1Config {
	cfg := DefaultV1Config()
	cfg.Version = "1.0.0"
	cfg.VolumeTiers = Tiers{
		{Above: 1_000_000, Points: 25},
		{Above: 500_000, Points: 20},
		{Above: 250_000, Points: 15},
		{Above: 100_000, Points: 10},
		{Above: 50_000, Points: 5},
	}
	cfg.VolumeBonuses = nil
	cfg.Age = AgeBands{
		Bands: []AgeBand{
			{From: 30, To: 120, Points: 10},
			{From: 15, To: 240, Points: 7},
			{From: 10, Points: 5},
		},
	}
	return cfg
}

// DefaultPriceConfig returns the price momentum blend.
func DefaultPriceConfig() PriceConfig {
	return PriceConfig{
		Version:        "2.0.0",
		Increase10m:    CappedFactor{Above: 20, Capped: 20, Scale: 1},
		Increase30m:    CappedFactor{Above: 50, Capped: 30, Scale: 0.6},
		GreenRun:       CappedFactor{Above: 5, Capped: 20, Scale: 4},
		BreakoutPoints: 10,
		Efficiency:     CappedFactor{Above: 20, Capped: 20, Scale: 1},
		MaxScore:       100,
	}
}

// DefaultV2Config returns the combined scorer tuning.
func DefaultV2Config() V2Config {
	return V2Config{
		Version: "2.0.0",
		VolumeCritical: VolumeThresholds{
			Min5: 134_325, Min10: 227_514, Min30: 458_057, VelocityPerMin: 13_360,
		},
		VolumeAverage: VolumeThresholds{
			Min5: 167_906, Min10: 284_392, Min30: 572_572, VelocityPerMin: 19_085,
		},
		PriceCritical:      PriceThresholds{Min5: 186.5, Min10: 235.7, Min30: 444.5},
		PriceAverage:       PriceThresholds{Min5: 233.08, Min10: 294.57, Min30: 555.59},
		Price5Strong:       50,
		Price10Strong:      100,
		AccumulationVolume: 100_000,
		GraduationVolume:   patterns.GraduationVolumeHeuristic,
		Age: AgeBands{
			Bands: []AgeBand{
				{From: 10, To: 60, Points: 80},
				{From: 0, To: 10, Points: 40},
			},
			Otherwise: 60,
		},
		TrendWindow:     5,
		VolumeTrendUp:   1.5,
		VolumeTrendDown: 0.7,
		PriceTrendUp:    1.2,
		GreenRunMin:     5,
		Points: V2Points{
			Volume5:            25,
			Volume10:           35,
			Volume30:           40,
			Price5:             30,
			Price5Strong:       15,
			Price5Accumulation: 5,
			Price10:            35,
			Price10Strong:      20,
			Price30:            35,
			ExplosiveBonus:     20,
			VolumeTrend:        30,
			PriceTrend:         30,
			GreenRun:           40,
		},
		Weights:     Weights{Volume: 0.40, Price: 0.35, Time: 0.15, Momentum: 0.10},
		ETAMinScore: 40,
		Labels:      fiveLabels(),
	}
}

// DefaultPredictorConfig returns the checkpoint predictor tuning.
func DefaultPredictorConfig() PredictorConfig {
	return PredictorConfig{
		Version: "1.1.0",
		Critical: VolumeThresholds{
			Min5: 134_325, Min10: 227_514, Min30: 458_057, Min60: 644_009, VelocityPerMin: 13_360,
		},
		Average: VolumeThresholds{
			Min5: 167_906, Min10: 284_392, Min30: 572_572, Min60: 805_011, VelocityPerMin: 19_085,
		},
		TotalVolumeTarget: 447_013,
		AvgTimeMinutes:    47,
		MinSpikes:         6,
		BuyPressureAbove:  60,
		TrendWindow:       5,
		TrendUp:           1.5,
		TrendDown:         0.7,
		Points: PredictorPoints{
			Volume5:     20,
			Volume10:    25,
			Volume30:    30,
			Velocity:    15,
			Spikes:      10,
			Momentum:    10,
			BuyPressure: 10,
		},
		Labels: fiveLabels(),
	}
}

// DefaultConfig returns the built-in tuning of every variant.
func DefaultConfig() Config {
	return Config{
		V1:        DefaultV1Config(),
		V1Legacy:  DefaultV1LegacyConfig(),
		Price:     DefaultPriceConfig(),
		V2:        DefaultV2Config(),
		Predictor: DefaultPredictorConfig(),
	}
}

// LoadConfig reads a YAML file over the defaults. Keys absent from the file keep
// their default values; lists present in the file replace the default list.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read scoring config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse scoring config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("scoring config %s: %w", path, err)
	}
	return cfg, nil
}

// Marshal renders the config as YAML.
func (c Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encode scoring config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode scoring config: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes the config as YAML to path.
func (c Config) Save(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write scoring config %s: %w", path, err)
	}
	return nil
}

// Validate rejects configs that would make scores meaningless.
func (c Config) Validate() error {
	if s := c.V2.Weights.Sum(); s < 0.999 || s > 1.001 {
		return fmt.Errorf("v2 weights sum to %.4f, want 1", s)
	}
	if c.V1.MomentumWindow <= 0 || c.V1Legacy.MomentumWindow <= 0 {
		return fmt.Errorf("v1 momentum window must be positive")
	}
	if c.V2.TrendWindow <= 0 || c.Predictor.TrendWindow <= 0 {
		return fmt.Errorf("trend window must be positive")
	}
	if c.V2.GraduationVolume <= 0 {
		return fmt.Errorf("v2 graduation volume must be positive")
	}
	if c.Price.MaxScore <= 0 {
		return fmt.Errorf("price max score must be positive")
	}
	return nil
}
