package bounce

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quickConfig() Config {
	cfg := DefaultConfig()
	cfg.Ns = []int{1, 16, 256}
	cfg.MinTime = time.Millisecond
	cfg.Warmup = 0
	cfg.Samples = 1
	cfg.Logger = quietLogger
	return cfg
}

// TestRun_SimpleOperation verifies the runner measures every variant at every n.
func TestRun_SimpleOperation(t *testing.T) {
	variants := []Variant{Reference(), mustLookup(t, "fma")}
	cfg := quickConfig()

	series, err := Run(context.Background(), variants, cfg)
	require.NoError(t, err)
	require.Len(t, series, 2)

	for i, s := range series {
		assert.Equal(t, variants[i].Name, s.Variant)
		assert.Equal(t, variants[i].Class, s.Declared)
		require.Len(t, s.Points, len(cfg.Ns))
		for j, p := range s.Points {
			assert.Equal(t, cfg.Ns[j], p.N)
			assert.Positive(t, p.Iterations)
			assert.Positive(t, p.NsPerOp)
			assert.Len(t, p.Samples, cfg.Samples)
			assert.GreaterOrEqual(t, p.TailRatio, 1.0)
			t.Logf("%s n=%d: %.1f ns/op over %d calls", s.Variant, p.N, p.NsPerOp, p.Iterations)
		}
		assert.Len(t, s.Fit.Candidates, len(Classes()))
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"NaN height", func(c *Config) { c.H = math.NaN() }},
		{"Inf ratio", func(c *Config) { c.R = math.Inf(1) }},
		{"no n", func(c *Config) { c.Ns = nil }},
		{"zero n", func(c *Config) { c.Ns = []int{0, 1} }},
		{"zero min time", func(c *Config) { c.MinTime = 0 }},
		{"zero samples", func(c *Config) { c.Samples = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := quickConfig()
			tt.mutate(&cfg)
			_, err := Run(context.Background(), Variants(), cfg)
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, Variants(), quickConfig())
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "recursive at n=1")
}

func TestRun_SingleNCannotBeFitted(t *testing.T) {
	cfg := quickConfig()
	cfg.Ns = []int{64}

	_, err := Run(context.Background(), []Variant{Reference()}, cfg)
	require.ErrorIs(t, err, ErrInsufficientData)
}

// TestRun_GrowthOrders times the variants across n = 1..4096 and checks the
// fitted growth order against the declared one.
func TestRun_GrowthOrders(t *testing.T) {
	if testing.Short() {
		t.Skip("timing-sensitive; skipped in -short mode")
	}

	cfg := DefaultConfig()
	cfg.MinTime = 10 * time.Millisecond
	cfg.Samples = 5
	cfg.Logger = quietLogger

	var variants []Variant
	for _, name := range []string{"recursive", "loop", "fast_exp", "fma", "closed_form"} {
		variants = append(variants, mustLookup(t, name))
	}

	series, err := Run(context.Background(), variants, cfg)
	require.NoError(t, err)

	for _, s := range series {
		AssertComplexity(t, s)
	}
	PrintAnalysis(t, series)
}

// The first call of a series is at the largest n, so stack growth for the
// recursive variant never lands inside a timed sample.
func TestMeasureSeries_FirstCallAtLargestN(t *testing.T) {
	var calls []int
	v := Variant{Name: "spy", Fn: func(h, r float64, n int) float64 {
		calls = append(calls, n)
		return h
	}}

	cfg := quickConfig()
	cfg.Ns = []int{1, 64, 8}
	cfg.Warmup = 0

	points, err := measureSeries(context.Background(), v, cfg, quietLogger)
	require.NoError(t, err)
	require.NotEmpty(t, calls)
	assert.Equal(t, 64, calls[0])

	require.Len(t, points, 3)
	for i, p := range points {
		assert.Equal(t, cfg.Ns[i], p.N)
	}
}

func TestRun_RecursiveAtLargeNAfterWarmup(t *testing.T) {
	cfg := quickConfig()
	cfg.Ns = []int{1, 1 << 16}

	series, err := Run(context.Background(), []Variant{Reference()}, cfg)
	require.NoError(t, err)
	require.Len(t, series[0].Points, 2)
	assert.Greater(t, series[0].Points[1].NsPerOp, series[0].Points[0].NsPerOp)
}

func TestGeometricRange(t *testing.T) {
	ns := GeometricRange(1, 4096, 2)
	require.Len(t, ns, 13)
	assert.Equal(t, 1, ns[0])
	assert.Equal(t, 4096, ns[12])

	assert.Equal(t, []int{3, 9, 27}, GeometricRange(3, 30, 3))
	assert.Nil(t, GeometricRange(1, 10, 1))
	assert.Nil(t, GeometricRange(0, 10, 2))
}

// TestCalculateStatistics verifies the summary of repeated samples.
func TestCalculateStatistics(t *testing.T) {
	stats := CalculateStatistics([]float64{500, 100, 300, 200, 400})

	assert.Equal(t, 300.0, stats.Mean)
	assert.Equal(t, 300.0, stats.Median)
	assert.Equal(t, 100.0, stats.Min)
	assert.Equal(t, 500.0, stats.Max)
	assert.InDelta(t, math.Sqrt(20000), stats.Stddev, 1e-9)

	even := CalculateStatistics([]float64{4, 1, 3, 2})
	assert.Equal(t, 2.5, even.Median)

	assert.Equal(t, Statistics{}, CalculateStatistics(nil))
}

func TestRunFor_ReachesMinTime(t *testing.T) {
	d := 2 * time.Millisecond
	elapsed, iters := runFor(Loop, 64, 10, 0.85, d)
	assert.GreaterOrEqual(t, elapsed, d)
	assert.Greater(t, iters, int64(1))
}

func TestSeries_Matches(t *testing.T) {
	tests := []struct {
		declared, fitted Class
		want             bool
	}{
		{Linear, Linear, true},
		{Linear, Linearithmic, false},
		{Logarithmic, ConstantTime, true},
		{ConstantTime, Logarithmic, true},
		{Logarithmic, Linear, false},
	}
	for _, tt := range tests {
		s := Series{Declared: tt.declared, Fit: Fit{Class: tt.fitted}}
		assert.Equal(t, tt.want, s.Matches(), "declared %s fitted %s", tt.declared, tt.fitted)
	}
}

func mustLookup(t *testing.T, name string) Variant {
	t.Helper()
	v, err := Lookup(name)
	require.NoError(t, err)
	return v
}
