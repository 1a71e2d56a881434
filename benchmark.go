package bounce

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"slices"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrInvalidConfig is returned by Run when the Config cannot be measured.
var ErrInvalidConfig = errors.New("bounce: invalid benchmark config")

// Config controls a performance run.
type Config struct {
	H        float64       // Drop height passed to every call
	R        float64       // Restitution ratio passed to every call
	Ns       []int         // Bounce counts to measure (default: 1, 2, 4, …, 4096)
	MinTime  time.Duration // Minimum timed duration of one sample
	Warmup   time.Duration // Untimed calls before the first sample at each n
	Samples  int           // Samples per n; the median is reported
	MaxProcs int           // GOMAXPROCS during the run (0 = leave as is)
	Logger   *slog.Logger  // nil = slog.Default()
}

// DefaultConfig returns the settings used for the growth-order survey:
// h = 10, r = 0.85 and n doubling from 1 to 4096.
func DefaultConfig() Config {
	return Config{
		H:        10,
		R:        0.85,
		Ns:       GeometricRange(1, 4096, 2),
		MinTime:  20 * time.Millisecond,
		Warmup:   5 * time.Millisecond,
		Samples:  3,
		MaxProcs: 0,
	}
}

// Validate reports the first problem that would make the run meaningless.
func (c Config) Validate() error {
	if math.IsNaN(c.H) || math.IsInf(c.H, 0) || math.IsNaN(c.R) || math.IsInf(c.R, 0) {
		return fmt.Errorf("%w: h and r must be finite (h=%g, r=%g)", ErrInvalidConfig, c.H, c.R)
	}
	if len(c.Ns) == 0 {
		return fmt.Errorf("%w: no bounce counts", ErrInvalidConfig)
	}
	for _, n := range c.Ns {
		if n < 1 {
			return fmt.Errorf("%w: bounce count %d < 1", ErrInvalidConfig, n)
		}
	}
	if c.MinTime <= 0 {
		return fmt.Errorf("%w: min time must be positive, got %v", ErrInvalidConfig, c.MinTime)
	}
	if c.Samples < 1 {
		return fmt.Errorf("%w: need at least one sample, got %d", ErrInvalidConfig, c.Samples)
	}
	return nil
}

// GeometricRange returns start, start·mult, start·mult², … up to and
// including stop.
func GeometricRange(start, stop, mult int) []int {
	if start < 1 || mult < 2 {
		return nil
	}
	var out []int
	for n := start; n <= stop; n *= mult {
		out = append(out, n)
	}
	return out
}

// Point is the measurement of one variant at one bounce count.
type Point struct {
	N          int           // Bounce count
	PerCall    time.Duration // Median time per call
	NsPerOp    float64       // Median time per call in nanoseconds
	Iterations int64         // Calls timed across all samples
	Samples    []float64     // ns/op of each sample
	TailRatio  float64       // Slowest sample over the median sample
}

// Noisy reports whether the slowest sample strayed past NoisySpread.
func (p Point) Noisy() bool { return p.TailRatio > NoisySpread }

// Series is one variant measured across every n of the Config.
type Series struct {
	Variant  string
	Declared Class // Growth order the variant is expected to show
	Points   []Point
	Fit      Fit
}

// Matches reports whether the fitted class agrees with the declared one.
// O(1) and O(log n) are interchangeable: at these sizes a handful of squarings
// is indistinguishable from call overhead.
func (s Series) Matches() bool {
	if s.Declared.Sublinear() {
		return s.Fit.Class.Sublinear()
	}
	return s.Fit.Class == s.Declared
}

// Statistics summarizes repeated ns/op samples.
type Statistics struct {
	Mean   float64
	Stddev float64
	Min    float64
	Median float64
	Max    float64
}

// sink keeps measured results observable so the calls are not elided.
var sink float64

// Run measures every variant at every n in cfg.Ns and fits a growth order to
// each resulting series.
//
// Variants and points are measured one after another: the formulas are
// single-threaded, and running them side by side would only measure
// contention for the core.
func Run(ctx context.Context, variants []Variant, cfg Config) ([]Series, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxProcs > 0 {
		oldMaxProcs := runtime.GOMAXPROCS(cfg.MaxProcs)
		defer runtime.GOMAXPROCS(oldMaxProcs)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	out := make([]Series, 0, len(variants))

	for _, v := range variants {
		s := Series{Variant: v.Name, Declared: v.Class}

		// Each variant runs on its own goroutine so its stack starts from
		// scratch and is grown once, by the warmup at the largest n.
		var g errgroup.Group
		g.Go(func() error {
			pts, err := measureSeries(ctx, v, cfg, logger)
			s.Points = pts
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		fit, err := FitComplexity(s.Points)
		if err != nil {
			return nil, fmt.Errorf("fit %s: %w", v.Name, err)
		}
		s.Fit = fit

		logger.Info("fitted",
			"variant", v.Name,
			"declared", v.Class.String(),
			"fitted", fit.Class.String(),
			"rms", fit.RMS,
			"match", s.Matches())

		out = append(out, s)
	}

	return out, nil
}

// measureSeries measures v at every n in cfg.Ns, after calling it at the
// largest n so that stack growth for deep recursion happens before timing.
func measureSeries(ctx context.Context, v Variant, cfg Config, logger *slog.Logger) ([]Point, error) {
	maxN := slices.Max(cfg.Ns)
	if cfg.Warmup > 0 {
		runFor(v.Fn, maxN, cfg.H, cfg.R, cfg.Warmup)
	} else {
		sink = v.Fn(cfg.H, cfg.R, maxN)
	}

	points := make([]Point, 0, len(cfg.Ns))
	for _, n := range cfg.Ns {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s at n=%d: %w", v.Name, n, err)
		}
		p := measurePoint(v.Fn, n, cfg)
		logger.Debug("measured", "variant", v.Name, "n", n, "ns_per_op", p.NsPerOp, "iterations", p.Iterations)
		points = append(points, p)
	}
	return points, nil
}

// measurePoint warms up fn at n and then takes cfg.Samples timed samples.
func measurePoint(fn Func, n int, cfg Config) Point {
	if cfg.Warmup > 0 {
		runFor(fn, n, cfg.H, cfg.R, cfg.Warmup)
	}

	p := Point{N: n, Samples: make([]float64, 0, cfg.Samples)}
	tracker := NewSampleTracker(cfg.Samples)
	for i := 0; i < cfg.Samples; i++ {
		elapsed, iters := runFor(fn, n, cfg.H, cfg.R, cfg.MinTime)
		nsPerOp := float64(elapsed.Nanoseconds()) / float64(iters)
		p.Iterations += iters
		p.Samples = append(p.Samples, nsPerOp)
		tracker.Record(nsPerOp)
	}

	p.NsPerOp = CalculateStatistics(p.Samples).Median
	p.PerCall = time.Duration(p.NsPerOp)
	p.TailRatio = tracker.TailRatio()
	return p
}

// runFor calls fn in growing batches until one batch takes at least d, and
// returns that batch's duration and size.
func runFor(fn Func, n int, h, r float64, d time.Duration) (time.Duration, int64) {
	iters := int64(1)
	for {
		acc := 0.0
		start := time.Now()
		for i := int64(0); i < iters; i++ {
			acc += fn(h, r, n)
		}
		elapsed := time.Since(start)
		sink = acc

		if elapsed >= d || iters >= 1<<40 {
			return elapsed, iters
		}

		// Aim 20% past d, growing at most 100x per round.
		next := iters * 100
		if elapsed > 0 {
			predicted := int64(float64(iters) * 1.2 * float64(d) / float64(elapsed))
			next = min(next, predicted)
		}
		iters = max(next, iters+1)
	}
}

// CalculateStatistics summarizes samples. An empty slice yields the zero value.
func CalculateStatistics(samples []float64) Statistics {
	if len(samples) == 0 {
		return Statistics{}
	}

	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	var sum float64
	for _, s := range sorted {
		sum += s
	}
	mean := sum / float64(len(sorted))

	var variance float64
	for _, s := range sorted {
		diff := s - mean
		variance += diff * diff
	}

	median := sorted[len(sorted)/2]
	if len(sorted)%2 == 0 {
		median = (sorted[len(sorted)/2-1] + sorted[len(sorted)/2]) / 2
	}

	return Statistics{
		Mean:   mean,
		Stddev: math.Sqrt(variance / float64(len(sorted))),
		Min:    sorted[0],
		Median: median,
		Max:    sorted[len(sorted)-1],
	}
}
