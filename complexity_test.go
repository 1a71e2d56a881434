package bounce

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// synthetic builds a series over n = 1..4096 with time per call t(n).
func synthetic(t func(n float64) float64) []Point {
	var pts []Point
	for _, n := range GeometricRange(1, 4096, 2) {
		pts = append(pts, Point{N: n, NsPerOp: t(float64(n))})
	}
	return pts
}

func TestFitComplexity_Classes(t *testing.T) {
	tests := []struct {
		name string
		t    func(n float64) float64
		want Class
	}{
		{"constant", func(n float64) float64 { return 5 }, ConstantTime},
		{"logarithmic", func(n float64) float64 { return 4 * math.Log2(n) }, Logarithmic},
		{"linear", func(n float64) float64 { return 2 + 3*n }, Linear},
		{"linearithmic", func(n float64) float64 { return n * math.Log2(n) }, Linearithmic},
		{"quadratic", func(n float64) float64 { return 0.5*n*n + n }, Quadratic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fit, err := FitComplexity(synthetic(tt.t))
			require.NoError(t, err)
			assert.Equal(t, tt.want, fit.Class, "candidates:\n%s", candidates(fit))
			assert.Len(t, fit.Candidates, len(Classes()))
			t.Logf("%s: fitted %s c=%.4g rms=%.4f", tt.name, fit.Class, fit.Coefficient, fit.RMS)
		})
	}
}

func TestFitComplexity_ExactLinearRecoversCoefficient(t *testing.T) {
	fit, err := FitComplexity(synthetic(func(n float64) float64 { return 1.5 * n }))
	require.NoError(t, err)
	assert.Equal(t, Linear, fit.Class)
	assert.InDelta(t, 1.5, fit.Coefficient, 1e-12)
	assert.InDelta(t, 0, fit.RMS, 1e-12)
	assert.InDelta(t, 1.5*4096, fit.Predict(4096), 1e-9)
}

// Call overhead plus a few squarings: either sublinear class is acceptable.
func TestFitComplexity_OverheadPlusLogIsSublinear(t *testing.T) {
	fit, err := FitComplexity(synthetic(func(n float64) float64 { return 3 + 0.4*math.Log2(n) }))
	require.NoError(t, err)
	assert.True(t, fit.Class.Sublinear(), "fitted %s", fit.Class)
}

func TestFitComplexity_NoisyConstant(t *testing.T) {
	noise := []float64{0.1, -0.2, 0.05, 0.15, -0.1, 0, 0.2, -0.05, 0.1, -0.15, 0.05, -0.1, 0}
	pts := synthetic(func(n float64) float64 { return 4 })
	for i := range pts {
		pts[i].NsPerOp += noise[i]
	}

	fit, err := FitComplexity(pts)
	require.NoError(t, err)
	assert.Equal(t, ConstantTime, fit.Class)
	assert.InDelta(t, 4, fit.Coefficient, 0.1)
}

// A linear series bent slightly upward at large n stays linear; a clearly
// superlinear one does not.
func TestFitComplexity_PrefersSimplerClassWithinSlack(t *testing.T) {
	bent, err := FitComplexity(synthetic(func(n float64) float64 { return n * (1 + 0.1*math.Log2(n)) }))
	require.NoError(t, err)
	assert.Equal(t, Linear, bent.Class, "candidates:\n%s", candidates(bent))

	steep, err := FitComplexity(synthetic(func(n float64) float64 { return n * (1 + 0.3*math.Log2(n)) }))
	require.NoError(t, err)
	assert.Equal(t, Linearithmic, steep.Class, "candidates:\n%s", candidates(steep))
}

func TestPickClass(t *testing.T) {
	tests := []struct {
		name string
		rms  []float64 // O(1), O(log n), O(n), O(n log n), O(n^2)
		want Class
	}{
		{"lowest wins", []float64{2, 1.5, 0.05, 0.4, 0.6}, Linear},
		{"simpler within slack", []float64{2, 1.5, 0.06, 0.05, 0.6}, Linear},
		{"simpler outside slack", []float64{2, 1.5, 0.08, 0.05, 0.6}, Linearithmic},
		{"steps down twice", []float64{0.12, 0.11, 0.1, 0.9, 1}, ConstantTime},
		{"exact tie", []float64{3, 0, 0, 1, 1}, Logarithmic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cands []Candidate
			for i, rms := range tt.rms {
				cands = append(cands, Candidate{Class: Classes()[i], RMS: rms})
			}
			assert.Equal(t, tt.want, pickClass(cands).Class)
		})
	}

	assert.True(t, math.IsInf(pickClass(nil).RMS, 1))
}

func TestFitComplexity_InsufficientData(t *testing.T) {
	_, err := FitComplexity(nil)
	require.ErrorIs(t, err, ErrInsufficientData)

	_, err = FitComplexity([]Point{{N: 8, NsPerOp: 1}, {N: 8, NsPerOp: 2}})
	require.ErrorIs(t, err, ErrInsufficientData)

	_, err = FitComplexity([]Point{{N: 1, NsPerOp: 0}, {N: 2, NsPerOp: 0}})
	require.ErrorIs(t, err, ErrInsufficientData)
}

func TestFitComplexity_LogarithmicNeedsNAboveOne(t *testing.T) {
	// With only n = 1 points g(n) = log2(1) = 0 and the candidate is skipped.
	cand := fitClass(Logarithmic, []Point{{N: 1, NsPerOp: 3}}, 3)
	assert.True(t, math.IsInf(cand.RMS, 1))
}

func TestGrowth(t *testing.T) {
	assert.Equal(t, 1.0, growth(ConstantTime, 1024))
	assert.Equal(t, 10.0, growth(Logarithmic, 1024))
	assert.Equal(t, 1024.0, growth(Linear, 1024))
	assert.Equal(t, 10240.0, growth(Linearithmic, 1024))
	assert.Equal(t, 1048576.0, growth(Quadratic, 1024))
	assert.True(t, math.IsNaN(growth(Class(99), 2)))
}
