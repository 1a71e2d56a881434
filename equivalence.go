package bounce

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"
)

// Case is one (h, r, n) input of the equivalence matrix.
type Case struct {
	Group string  // Which part of the input space the case covers
	H     float64 // Drop height
	R     float64 // Restitution ratio
	N     int     // Bounce count
	Tol   float64 // Relative tolerance; 0 means ToleranceFor(N)
}

// Tolerance returns the relative tolerance the case is checked with.
func (c Case) Tolerance() float64 {
	if c.Tol > 0 {
		return c.Tol
	}
	return ToleranceFor(c.N)
}

func (c Case) String() string {
	return fmt.Sprintf("%s(h=%g, r=%g, n=%d)", c.Group, c.H, c.R, c.N)
}

// ToleranceFor returns the relative tolerance for n bounces. Summation and
// power-based evaluation round differently, and the difference compounds with
// n, so the bound widens as n grows:
//
//	n ≤ 10        1e-10
//	10 < n < 100  1e-9
//	n ≥ 100       1e-8
func ToleranceFor(n int) float64 {
	switch {
	case n <= 10:
		return 1e-10
	case n < 100:
		return 1e-9
	default:
		return 1e-8
	}
}

// EquivalenceCases returns the input matrix every variant is checked on:
// single drops, small n, the r == 1 boundary, energy-gaining r > 1, large n
// and extreme magnitudes.
func EquivalenceCases() []Case {
	var cases []Case

	for _, h := range []float64{1, 5, 100, 0.001} {
		for _, r := range []float64{0.1, 0.5, 0.9, 1, 2} {
			cases = append(cases, Case{Group: "single", H: h, R: r, N: 1})
		}
	}

	cases = append(cases,
		Case{Group: "small", H: 1, R: 0.5, N: 2},
		Case{Group: "small", H: 1, R: 0.5, N: 3},
		Case{Group: "small", H: 1, R: 0.5, N: 5},
		Case{Group: "small", H: 10, R: 0.9, N: 4},
		Case{Group: "small", H: 5, R: 0.75, N: 6},
		Case{Group: "small", H: 100, R: 0.8, N: 10},

		Case{Group: "lossless", H: 1, R: 1, N: 2},
		Case{Group: "lossless", H: 1, R: 1, N: 5},
		Case{Group: "lossless", H: 5, R: 1, N: 10},
		Case{Group: "lossless", H: 0.5, R: 1, N: 20},

		Case{Group: "gaining", H: 1, R: 1.1, N: 5, Tol: 1e-9},
		Case{Group: "gaining", H: 1, R: 2, N: 4, Tol: 1e-9},
		Case{Group: "gaining", H: 0.5, R: 1.5, N: 6, Tol: 1e-9},

		Case{Group: "large", H: 1, R: 0.5, N: 50, Tol: 1e-8},
		Case{Group: "large", H: 1, R: 0.9, N: 100, Tol: 1e-8},
		Case{Group: "large", H: 1, R: 0.99, N: 200, Tol: 1e-8},
		Case{Group: "large", H: 10, R: 0.95, N: 150, Tol: 1e-8},

		Case{Group: "extreme", H: 0.001, R: 0.5, N: 10, Tol: 1e-8},
		Case{Group: "extreme", H: 1e6, R: 0.5, N: 5, Tol: 1e-8},
		Case{Group: "extreme", H: 1, R: 0.001, N: 10, Tol: 1e-8},
		Case{Group: "extreme", H: 1, R: 0.9999, N: 50, Tol: 1e-8},
	)

	return cases
}

// Deviation is the outcome of checking one variant on one case.
type Deviation struct {
	Variant string
	Case    Case
	Got     float64
	Want    float64
	AbsErr  float64
	RelErr  float64 // |got-want| / |want|, or the absolute error when want == 0
	Tol     float64
	OK      bool
}

func (d Deviation) String() string {
	return fmt.Sprintf("%s %s: got %.17g, want %.17g (rel err %.3g, tol %.0e)",
		d.Variant, d.Case, d.Got, d.Want, d.RelErr, d.Tol)
}

// Compare evaluates v and ref on c and reports how far apart they are.
// Identical results (including equal infinities) always pass; NaN never does.
func Compare(v, ref Variant, c Case) Deviation {
	got := v.Distance(c.H, c.R, c.N)
	want := ref.Distance(c.H, c.R, c.N)
	return deviation(v.Name, c, got, want, c.Tolerance())
}

func deviation(name string, c Case, got, want, tol float64) Deviation {
	d := Deviation{Variant: name, Case: c, Got: got, Want: want, Tol: tol}
	if got == want {
		d.OK = true
		return d
	}
	d.AbsErr = math.Abs(got - want)
	d.RelErr = d.AbsErr
	if want != 0 {
		d.RelErr = d.AbsErr / math.Abs(want)
	}
	d.OK = d.RelErr <= tol
	return d
}

// EquivalenceReport collects every deviation from a Verify run, ordered by
// variant and then by case.
type EquivalenceReport struct {
	Reference  string
	Deviations []Deviation
}

// OK reports whether every checked pair was within tolerance.
func (r EquivalenceReport) OK() bool {
	for _, d := range r.Deviations {
		if !d.OK {
			return false
		}
	}
	return true
}

// Mismatches returns the deviations that exceeded their tolerance.
func (r EquivalenceReport) Mismatches() []Deviation {
	var out []Deviation
	for _, d := range r.Deviations {
		if !d.OK {
			out = append(out, d)
		}
	}
	return out
}

// WorstByVariant returns the largest relative error seen for each variant.
// Every variant in the report has an entry, 0 when all its results matched
// exactly. A NaN error sticks.
func (r EquivalenceReport) WorstByVariant() map[string]float64 {
	worst := make(map[string]float64)
	for _, d := range r.Deviations {
		cur, seen := worst[d.Variant]
		if !seen || d.RelErr > cur || math.IsNaN(d.RelErr) {
			worst[d.Variant] = d.RelErr
		}
	}
	return worst
}

// VerifyOptions tunes Verify. The zero value compares against Reference()
// and logs to slog.Default().
type VerifyOptions struct {
	Reference Variant
	Logger    *slog.Logger
}

// Verify checks every variant against the reference on every case.
//
// Variants are checked concurrently; the formulas share no state, so the
// result is the same as a sequential run. Only context cancellation
// produces an error.
func Verify(ctx context.Context, variants []Variant, cases []Case, opts VerifyOptions) (EquivalenceReport, error) {
	ref := opts.Reference
	if ref.Fn == nil {
		ref = Reference()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	perVariant := make([][]Deviation, len(variants))
	g, gctx := errgroup.WithContext(ctx)

	for i, v := range variants {
		g.Go(func() error {
			devs := make([]Deviation, 0, len(cases))
			for _, c := range cases {
				if err := gctx.Err(); err != nil {
					return fmt.Errorf("verify %s: %w", v.Name, err)
				}
				devs = append(devs, Compare(v, ref, c))
			}
			perVariant[i] = devs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return EquivalenceReport{}, err
	}

	report := EquivalenceReport{Reference: ref.Name}
	for i, devs := range perVariant {
		failed := 0
		for _, d := range devs {
			if !d.OK {
				failed++
				logger.Warn("variant out of tolerance",
					"variant", d.Variant, "case", d.Case.String(),
					"got", d.Got, "want", d.Want, "rel_err", d.RelErr, "tol", d.Tol)
			}
		}
		logger.Debug("variant verified",
			"variant", variants[i].Name, "cases", len(devs), "failed", failed)
		report.Deviations = append(report.Deviations, devs...)
	}

	return report, nil
}

// EdgeInputs lists the heights, ratios and bounce counts used to check the
// exact r == 1 and n == 1 rules.
type EdgeInputs struct {
	Heights []float64
	Ratios  []float64
	Bounces []int
}

// DefaultEdgeInputs uses heights whose multiples are exact in float64, so
// the summation variants reach h·(2n-1) without rounding as well.
func DefaultEdgeInputs() EdgeInputs {
	return EdgeInputs{
		Heights: []float64{1, 5, 100, 0.5, 0.25},
		Ratios:  []float64{0.1, 0.5, 0.9, 1, 2, -0.5},
		Bounces: []int{1, 2, 3, 4, 5, 10, 20},
	}
}

// CheckEdgeCases verifies v(h, r, 1) == h and v(h, 1, n) == h·(2n-1) exactly.
// Every result is returned; OK is false where equality fails.
func CheckEdgeCases(v Variant, in EdgeInputs) []Deviation {
	var out []Deviation

	for _, h := range in.Heights {
		for _, r := range in.Ratios {
			c := Case{Group: "n=1", H: h, R: r, N: 1}
			out = append(out, exact(v.Name, c, v.Distance(h, r, 1), h))
		}
		for _, n := range in.Bounces {
			c := Case{Group: "r=1", H: h, R: 1, N: n}
			out = append(out, exact(v.Name, c, v.Distance(h, 1, n), h*float64(2*n-1)))
		}
	}

	return out
}

func exact(name string, c Case, got, want float64) Deviation {
	d := deviation(name, c, got, want, 0)
	d.OK = got == want
	return d
}

// Monotone reports whether v is non-decreasing in r over rs for fixed h and
// n. rs must be ascending. On failure it returns the index i where
// v(rs[i]) > v(rs[i+1]).
func Monotone(v Variant, h float64, n int, rs []float64) (bool, int) {
	for i := 0; i+1 < len(rs); i++ {
		if v.Distance(h, rs[i], n) > v.Distance(h, rs[i+1], n) {
			return false, i
		}
	}
	return true, -1
}

// RatioSweep returns count evenly spaced ratios strictly inside (0, 1).
func RatioSweep(count int) []float64 {
	rs := make([]float64, count)
	for i := range rs {
		rs[i] = float64(i+1) / float64(count+1)
	}
	return rs
}
