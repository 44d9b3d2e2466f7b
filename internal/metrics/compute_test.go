package metrics

import (
	"math"
	"testing"
)

func TestQuantile_Interpolates(t *testing.T) {
	sorted := []float64{10, 20, 30, 40}
	// idx = 0.5 * 3 = 1.5 -> 20 + 0.5*(30-20)
	if got := quantile(sorted, 0.5); got != 25 {
		t.Errorf("median = %v, want 25", got)
	}
	if got := quantile(sorted, 1); got != 40 {
		t.Errorf("p100 = %v, want 40", got)
	}
	if got := quantile(nil, 0.5); got != 0 {
		t.Errorf("empty = %v, want 0", got)
	}
}

func TestSampleStddev(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	avg := mean(values)
	if avg != 5 {
		t.Fatalf("mean = %v, want 5", avg)
	}
	// sum of squares 32, n-1 = 7
	want := math.Sqrt(32.0 / 7)
	if got := sampleStddev(values, avg); math.Abs(got-want) > 1e-12 {
		t.Errorf("stddev = %v, want %v", got, want)
	}
	if got := sampleStddev([]float64{3}, 3); got != 0 {
		t.Errorf("single value stddev = %v, want 0", got)
	}
}

func TestSummarize_DoesNotReorderInput(t *testing.T) {
	values := []float64{3, 1, 2}
	s := summarize(values)
	if s.Min != 1 || s.Max != 3 || s.Median != 2 || s.Mean != 2 {
		t.Errorf("summary = %+v", s)
	}
	if values[0] != 3 {
		t.Error("input was sorted in place")
	}
}
