package bounce

import (
	"math"
	"sort"
)

// Spread thresholds on TailRatio (slowest sample over median sample).
const (
	// StableSpread is the largest ratio treated as a clean measurement.
	StableSpread = 1.25
	// NoisySpread marks a point whose median should not be trusted: another
	// process, a GC cycle or frequency scaling landed inside a sample.
	NoisySpread = 2.0
)

// SampleTracker keeps the most recent ns/op samples of a measurement in a ring
// buffer and reports how far the slow tail sits from the median.
//
// Timing noise on an idle machine is roughly symmetric around the median.
// Interference is not: it only ever makes a sample slower, so it shows up as a
// stretched upper tail long before it moves the median.
//
//	tracker := NewSampleTracker(16)
//	for _, s := range samples {
//	    tracker.Record(s)
//	}
//	if tracker.Noisy() {
//	    // rerun with more samples or a longer MinTime
//	}
//
// A SampleTracker belongs to the goroutine timing one point and is not safe
// for concurrent use.
type SampleTracker struct {
	samples     []float64 // Ring buffer of ns/op
	maxSamples  int
	writeIndex  int
	sampleCount int64 // Total samples recorded (monotonic)
}

// NewSampleTracker creates a tracker holding at most maxSamples samples. A
// non-positive size defaults to 64.
func NewSampleTracker(maxSamples int) *SampleTracker {
	if maxSamples <= 0 {
		maxSamples = 64
	}
	return &SampleTracker{
		samples:    make([]float64, maxSamples),
		maxSamples: maxSamples,
	}
}

// Record adds one ns/op sample, overwriting the oldest once the buffer is full.
func (t *SampleTracker) Record(nsPerOp float64) {
	t.samples[t.writeIndex] = nsPerOp
	t.writeIndex = (t.writeIndex + 1) % t.maxSamples
	t.sampleCount++
}

// Len returns the number of samples currently held.
func (t *SampleTracker) Len() int {
	return t.effectiveSampleCount()
}

// Median returns the 50th percentile sample.
func (t *SampleTracker) Median() float64 { return t.Percentile(0.50) }

// P90 returns the 90th percentile sample.
func (t *SampleTracker) P90() float64 { return t.Percentile(0.90) }

// Percentile returns the nearest-rank p-th percentile, 0 ≤ p ≤ 1. It returns
// 0 when nothing has been recorded.
func (t *SampleTracker) Percentile(p float64) float64 {
	n := t.effectiveSampleCount()
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, t.samples[:n])
	sort.Float64s(sorted)

	index := int(math.Round(float64(n-1) * p))
	index = min(max(index, 0), n-1)
	return sorted[index]
}

// TailRatio returns the slowest sample over the median. It is 1 for a single
// sample or an empty tracker.
func (t *SampleTracker) TailRatio() float64 {
	median := t.Median()
	if median <= 0 {
		return 1
	}
	return t.Percentile(1) / median
}

// Stable reports whether TailRatio is within StableSpread.
func (t *SampleTracker) Stable() bool {
	return t.TailRatio() <= StableSpread
}

// Noisy reports whether TailRatio exceeds NoisySpread.
func (t *SampleTracker) Noisy() bool {
	return t.TailRatio() > NoisySpread
}

func (t *SampleTracker) effectiveSampleCount() int {
	if t.sampleCount < int64(t.maxSamples) {
		return int(t.sampleCount)
	}
	return t.maxSamples
}

// TailStats is a snapshot of a SampleTracker.
type TailStats struct {
	SampleCount int64
	Median      float64
	P90         float64
	Max         float64
	TailRatio   float64
	Stable      bool
	Noisy       bool
}

// Stats returns a snapshot of the tracker.
func (t *SampleTracker) Stats() TailStats {
	ratio := t.TailRatio()
	return TailStats{
		SampleCount: t.sampleCount,
		Median:      t.Median(),
		P90:         t.P90(),
		Max:         t.Percentile(1),
		TailRatio:   ratio,
		Stable:      ratio <= StableSpread,
		Noisy:       ratio > NoisySpread,
	}
}
