package scoring

import (
	"os"
	"path/filepath"
	"testing"

	"graduation-lab/internal/domain"
)

func TestDefaultConfig_Validates(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestDefaultConfig_VariantsAreIndependent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.V1.VolumeTiers[0].Points = 99
	if DefaultV1LegacyConfig().VolumeTiers[0].Points == 99 {
		t.Fatal("legacy preset shares tiers with v1")
	}
	if cfg.V1Legacy.VolumeTiers[0].Points == 99 {
		t.Fatal("legacy preset in Config shares tiers with v1")
	}
}

func TestLoadConfig_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.V2.Version != DefaultV2Config().Version {
		t.Errorf("V2.Version = %q", cfg.V2.Version)
	}
}

func TestLoadConfig_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scoring.yaml")
	data := []byte(`
v2:
  version: "2.1.0"
  volume_critical:
    min5: 100000
predictor:
  total_volume_target: 500000
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.V2.Version != "2.1.0" {
		t.Errorf("V2.Version = %q, want 2.1.0", cfg.V2.Version)
	}
	if cfg.V2.VolumeCritical.Min5 != 100_000 {
		t.Errorf("Min5 = %v, want 100000", cfg.V2.VolumeCritical.Min5)
	}
	// Sibling keys the file omits keep their defaults.
	if cfg.V2.VolumeCritical.Min10 != 227_514 {
		t.Errorf("Min10 = %v, want default 227514", cfg.V2.VolumeCritical.Min10)
	}
	if cfg.V2.Weights != DefaultV2Config().Weights {
		t.Errorf("Weights = %+v, want defaults", cfg.V2.Weights)
	}
	if cfg.Predictor.TotalVolumeTarget != 500_000 {
		t.Errorf("TotalVolumeTarget = %v", cfg.Predictor.TotalVolumeTarget)
	}
	if cfg.V1.Version != "1.1.0" {
		t.Errorf("V1.Version = %q, want default", cfg.V1.Version)
	}
}

func TestLoadConfig_RejectsBadWeights(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scoring.yaml")
	data := []byte("v2:\n  weights:\n    volume: 0.9\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected weight validation error")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error")
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Predictor.AvgTimeMinutes = 52
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got.Predictor.AvgTimeMinutes != 52 {
		t.Errorf("AvgTimeMinutes = %v, want 52", got.Predictor.AvgTimeMinutes)
	}
	if len(got.V1.VolumeTiers) != len(cfg.V1.VolumeTiers) {
		t.Errorf("VolumeTiers len = %d", len(got.V1.VolumeTiers))
	}
}

func TestCalibrate(t *testing.T) {
	stats := domain.BatchStats{
		Count: 4,
		Metrics: map[string]domain.Summary{
			domain.VolumeMetric(domain.Minute5):         {Mean: 150_000},
			domain.VolumeMetric(domain.Minute30):        {Mean: 600_000},
			domain.PriceIncreaseMetric(domain.Minute10): {Mean: 300},
			domain.MetricVolumeToTarget:                 {Mean: 520_000},
			domain.MetricMinutesToTarget:                {Mean: 0},
		},
	}
	th := domain.ThresholdSet{
		High: map[string]float64{
			domain.VolumeMetric(domain.Minute5): 120_000,
			domain.MetricVelocity30:             14_000,
		},
	}

	cfg := Calibrate(DefaultConfig(), stats, th)

	if cfg.V2.VolumeAverage.Min5 != 150_000 {
		t.Errorf("V2 average Min5 = %v", cfg.V2.VolumeAverage.Min5)
	}
	if cfg.V2.VolumeAverage.VelocityPerMin != 20_000 {
		t.Errorf("V2 average velocity = %v, want 20000", cfg.V2.VolumeAverage.VelocityPerMin)
	}
	if cfg.V2.VolumeCritical.Min5 != 120_000 {
		t.Errorf("V2 critical Min5 = %v", cfg.V2.VolumeCritical.Min5)
	}
	if cfg.V2.VolumeCritical.VelocityPerMin != 14_000 {
		t.Errorf("V2 critical velocity = %v", cfg.V2.VolumeCritical.VelocityPerMin)
	}
	// Unobserved keys keep their values.
	if cfg.V2.VolumeCritical.Min10 != 227_514 {
		t.Errorf("V2 critical Min10 = %v, want unchanged", cfg.V2.VolumeCritical.Min10)
	}
	if cfg.V2.PriceAverage.Min10 != 300 {
		t.Errorf("V2 price average Min10 = %v", cfg.V2.PriceAverage.Min10)
	}
	if cfg.Predictor.TotalVolumeTarget != 520_000 {
		t.Errorf("TotalVolumeTarget = %v", cfg.Predictor.TotalVolumeTarget)
	}
	if cfg.Predictor.AvgTimeMinutes != 47 {
		t.Errorf("AvgTimeMinutes = %v, want unchanged 47", cfg.Predictor.AvgTimeMinutes)
	}
	if cfg.V1.VolumeTiers[0].Above != 400_000 {
		t.Error("v1 must not be calibrated")
	}
}

func TestCalibrate_EmptyBatchIsNoop(t *testing.T) {
	def := DefaultConfig()
	got := Calibrate(def, domain.BatchStats{}, domain.ThresholdSet{})
	if got.V2.VolumeAverage != def.V2.VolumeAverage || got.Predictor.Critical != def.Predictor.Critical {
		t.Error("empty batch changed thresholds")
	}
}
