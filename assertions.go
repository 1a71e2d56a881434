package bounce

import (
	"fmt"
	"strings"
	"testing"
)

// AssertEquivalent verifies v agrees with the reference on every case.
//
// Mathematical property:
//
//	|V(h,r,n) - ref(h,r,n)| ≤ tol(n)·|ref(h,r,n)|
func AssertEquivalent(t testing.TB, v Variant, cases []Case) {
	t.Helper()

	ref := Reference()
	var failures []string
	worst := 0.0
	for _, c := range cases {
		d := Compare(v, ref, c)
		if !d.OK {
			failures = append(failures, "  "+d.String())
		}
		if d.RelErr > worst {
			worst = d.RelErr
		}
	}

	if len(failures) > 0 {
		t.Errorf("%s disagrees with %s on %d of %d cases:\n%s",
			v.Name, ref.Name, len(failures), len(cases), strings.Join(failures, "\n"))
		return
	}

	t.Logf("✓ %s matches %s on %d cases (worst rel err %.3g)", v.Name, ref.Name, len(cases), worst)
}

// AssertEdgeCases verifies the exact single-drop and lossless rules:
//
//	V(h, r, 1) == h
//	V(h, 1, n) == h·(2n-1)
func AssertEdgeCases(t testing.TB, v Variant, in EdgeInputs) {
	t.Helper()

	var failures []string
	devs := CheckEdgeCases(v, in)
	for _, d := range devs {
		if !d.OK {
			failures = append(failures, fmt.Sprintf("  %s: got %.17g, want %.17g", d.Case, d.Got, d.Want))
		}
	}

	if len(failures) > 0 {
		t.Errorf("%s breaks exact edge cases:\n%s", v.Name, strings.Join(failures, "\n"))
		return
	}

	t.Logf("✓ %s exact on %d edge cases", v.Name, len(devs))
}

// AssertMonotone verifies that for 0 < r < 1 the distance does not decrease
// as r grows.
func AssertMonotone(t testing.TB, v Variant, h float64, n int, rs []float64) {
	t.Helper()

	if ok, i := Monotone(v, h, n, rs); !ok {
		t.Errorf("%s not monotone in r at h=%g, n=%d: D(r=%g)=%.17g > D(r=%g)=%.17g",
			v.Name, h, n, rs[i], v.Distance(h, rs[i], n), rs[i+1], v.Distance(h, rs[i+1], n))
	}
}

// AssertComplexity verifies the fitted growth order of a measured series
// agrees with the variant's declared class.
func AssertComplexity(t testing.TB, s Series) {
	t.Helper()

	if !s.Matches() {
		t.Errorf("%s: declared %s, fitted %s (rms %.3f)\n%s",
			s.Variant, s.Declared, s.Fit.Class, s.Fit.RMS, candidates(s.Fit))
		return
	}

	t.Logf("✓ %s: declared %s, fitted %s (rms %.3f)", s.Variant, s.Declared, s.Fit.Class, s.Fit.RMS)
}

// PrintAnalysis writes the measured and predicted timings of each series to
// the test log.
func PrintAnalysis(t testing.TB, series []Series) {
	t.Helper()

	for _, s := range series {
		t.Logf("\n=== %s ===", s.Variant)
		t.Logf("Declared: %s  Fitted: %s  c=%.4g ns  rms=%.3f", s.Declared, s.Fit.Class, s.Fit.Coefficient, s.Fit.RMS)
		t.Logf("  n       measured     predicted")
		t.Logf("  ------  -----------  -----------")
		for _, p := range s.Points {
			t.Logf("  %-6d  %9.1fns  %9.1fns", p.N, p.NsPerOp, s.Fit.Predict(p.N))
		}
		t.Logf("\nCandidates:\n%s", candidates(s.Fit))
	}
}

func candidates(f Fit) string {
	var b strings.Builder
	for _, c := range f.Candidates {
		fmt.Fprintf(&b, "  %-10s c=%-12.4g rms=%.4f\n", c.Class, c.Coefficient, c.RMS)
	}
	return b.String()
}
