package bounce

import (
	"errors"
	"fmt"
	"math"
)

// ErrInsufficientData is returned by FitComplexity when the points cannot
// distinguish growth orders.
var ErrInsufficientData = errors.New("bounce: insufficient data to fit complexity")

// Candidate is the least-squares fit of one growth order.
type Candidate struct {
	Class       Class
	Coefficient float64 // ns per unit of g(n)
	RMS         float64 // Root-mean-square residual divided by the mean time
}

// Fit is the best growth order for a series, plus every candidate tried.
type Fit struct {
	Class       Class
	Coefficient float64
	RMS         float64
	Candidates  []Candidate
}

// Predict returns the fitted time per call at n, in nanoseconds.
func (f Fit) Predict(n int) float64 {
	return f.Coefficient * growth(f.Class, float64(n))
}

// growth evaluates g(n) for a class.
func growth(c Class, n float64) float64 {
	switch c {
	case ConstantTime:
		return 1
	case Logarithmic:
		return math.Log2(n)
	case Linear:
		return n
	case Linearithmic:
		return n * math.Log2(n)
	case Quadratic:
		return n * n
	default:
		return math.NaN()
	}
}

// FitComplexity fits t(n) = c·g(n) for each class in Classes and picks the
// one with the smallest normalized RMS residual.
//
// For a fixed g the least-squares coefficient has the closed form
//
//	c = Σ t·g / Σ g²
//
// and the residual is normalized by the mean time so that fits of fast and
// slow variants are comparable. A simpler class whose residual is within
// simplerClassSlack of the best is preferred over it.
func FitComplexity(points []Point) (Fit, error) {
	distinct := make(map[int]struct{}, len(points))
	var meanT float64
	for _, p := range points {
		distinct[p.N] = struct{}{}
		meanT += p.NsPerOp
	}
	if len(distinct) < 2 {
		return Fit{}, fmt.Errorf("%w: need at least 2 distinct n, got %d", ErrInsufficientData, len(distinct))
	}
	meanT /= float64(len(points))
	if meanT <= 0 || math.IsNaN(meanT) || math.IsInf(meanT, 0) {
		return Fit{}, fmt.Errorf("%w: mean time %g ns", ErrInsufficientData, meanT)
	}

	cands := make([]Candidate, 0, len(Classes()))
	for _, class := range Classes() {
		cands = append(cands, fitClass(class, points, meanT))
	}

	pick := pickClass(cands)
	if math.IsInf(pick.RMS, 1) {
		return Fit{}, fmt.Errorf("%w: no class could be fitted", ErrInsufficientData)
	}
	return Fit{Class: pick.Class, Coefficient: pick.Coefficient, RMS: pick.RMS, Candidates: cands}, nil
}

// simplerClassSlack is how much larger a simpler class's RMS may be than the
// best one's and still be chosen.
const simplerClassSlack = 1.5

// pickClass returns the candidate with the lowest RMS, then steps down to
// each next simpler class while its RMS stays within simplerClassSlack of
// that lowest RMS. cands must be ordered simplest first.
func pickClass(cands []Candidate) Candidate {
	if len(cands) == 0 {
		return Candidate{RMS: math.Inf(1)}
	}
	best := 0
	for i, c := range cands {
		if c.RMS < cands[best].RMS {
			best = i
		}
	}
	limit := cands[best].RMS * simplerClassSlack
	for best > 0 && cands[best-1].RMS <= limit {
		best--
	}
	return cands[best]
}

func fitClass(class Class, points []Point, meanT float64) Candidate {
	var sumTG, sumGG float64
	for _, p := range points {
		g := growth(class, float64(p.N))
		sumTG += p.NsPerOp * g
		sumGG += g * g
	}
	if sumGG == 0 {
		return Candidate{Class: class, RMS: math.Inf(1)}
	}
	coef := sumTG / sumGG

	var ssRes float64
	for _, p := range points {
		resid := p.NsPerOp - coef*growth(class, float64(p.N))
		ssRes += resid * resid
	}
	rms := math.Sqrt(ssRes/float64(len(points))) / meanT

	return Candidate{Class: class, Coefficient: coef, RMS: rms}
}
