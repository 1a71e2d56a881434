package bounce

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// recorder captures helper failures instead of failing the enclosing test.
type recorder struct {
	testing.TB
	errors []string
	logs   []string
}

func (r *recorder) Helper() {}

func (r *recorder) Errorf(format string, args ...any) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

func (r *recorder) Logf(format string, args ...any) {
	r.logs = append(r.logs, fmt.Sprintf(format, args...))
}

func TestAssertEquivalent_ReportsBrokenVariant(t *testing.T) {
	offByOne := Variant{
		Name: "off_by_one",
		Fn:   func(h, r float64, n int) float64 { return Loop(h, r, n+1) },
	}

	rec := &recorder{}
	AssertEquivalent(rec, offByOne, EquivalenceCases())

	if assert.Len(t, rec.errors, 1) {
		assert.Contains(t, rec.errors[0], "off_by_one disagrees with recursive")
	}
	assert.Empty(t, rec.logs)
}

func TestAssertEquivalent_PassesAndLogs(t *testing.T) {
	rec := &recorder{}
	AssertEquivalent(rec, mustLookup(t, "fast_exp"), EquivalenceCases())

	assert.Empty(t, rec.errors)
	if assert.Len(t, rec.logs, 1) {
		assert.Contains(t, rec.logs[0], "fast_exp matches recursive")
	}
}

func TestAssertEdgeCases_ReportsApproximateLinear(t *testing.T) {
	// h·(2n-1) computed as h + 2h(n-1) rounds twice.
	approx := Variant{
		Name: "approx",
		Fn: func(h, r float64, n int) float64 {
			if n <= 1 {
				return h
			}
			if r == 1 {
				return h + 2*h*float64(n-1) + 1e-9
			}
			return ClosedForm(h, r, n)
		},
	}

	rec := &recorder{}
	AssertEdgeCases(rec, approx, DefaultEdgeInputs())
	if assert.Len(t, rec.errors, 1) {
		assert.Contains(t, rec.errors[0], "approx breaks exact edge cases")
		assert.Contains(t, rec.errors[0], "r=1(h=1, r=1, n=2)")
	}
}

func TestAssertMonotone_ReportsDecrease(t *testing.T) {
	rec := &recorder{}
	dec := Variant{Name: "dec", Fn: func(h, r float64, n int) float64 { return -r }}
	AssertMonotone(rec, dec, 1, 2, RatioSweep(3))
	assert.Len(t, rec.errors, 1)
}

func TestAssertComplexity(t *testing.T) {
	rec := &recorder{}
	AssertComplexity(rec, Series{Variant: "x", Declared: Linear, Fit: Fit{Class: Quadratic}})
	assert.Len(t, rec.errors, 1)

	rec = &recorder{}
	AssertComplexity(rec, Series{Variant: "y", Declared: Logarithmic, Fit: Fit{Class: ConstantTime}})
	assert.Empty(t, rec.errors)
	assert.Len(t, rec.logs, 1)
}

func TestPrintAnalysis(t *testing.T) {
	rec := &recorder{}
	PrintAnalysis(rec, sampleSeries())
	assert.NotEmpty(t, rec.logs)
	assert.Empty(t, rec.errors)
}
