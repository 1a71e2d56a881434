// Package bounce computes the total distance traveled by a bouncing ball with
// several equivalent formulas and compares their accuracy and growth order.
//
// # Overview
//
// A ball dropped from height h rebounds to r·h, falls again, rebounds to r²·h,
// and so on. After n bounces it has traveled
//
//	D(1) = h
//	D(n) = h + 2·h·r·(1 + r + r² + … + r^(n-2))
//	     = h + 2·h·r·(1 - r^(n-1)) / (1 - r)      r ≠ 1
//	     = h·(2n - 1)                             r = 1
//
// The package implements this one quantity ten ways, each a separate Func:
//
//   - Recursive, Accumulator - one step per bounce, O(n)
//   - Loop, GeometricLoop    - iterative sums, O(n), O(1) space
//   - PowGeometric, ClosedForm - closed form through math.Pow
//   - FastExp                - closed form, exponentiation by squaring, O(log n)
//   - FMA                    - h·(1 + r - 2r^n)/(1 - r) with a fused multiply-add
//   - Branchless             - FMA form blended with 0/1 masks, no r == 1 branch
//   - Hybrid                 - unrolled n ≤ 4, FMA form above
//
// None of them fails. r == 1 is the singular point of the closed form and
// every variant answers it with h·(2n-1); n == 1 always yields h.
//
// # Quick Start
//
//	d := bounce.FMA(10, 0.5, 3) // 25
//
//	v, err := bounce.Lookup("branchless")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(v.Distance(1, 1, 5)) // 9
//
// # Equivalence
//
// Verify runs every variant against the reference (Recursive) over
// EquivalenceCases, allowing a relative error that widens with n:
//
//	report, err := bounce.Verify(ctx, bounce.Variants(), bounce.EquivalenceCases(), bounce.VerifyOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, d := range report.Mismatches() {
//	    log.Println(d)
//	}
//
// # Growth order
//
// Run times each variant as n doubles from 1 to 4096 and FitComplexity picks
// the growth order whose least-squares fit leaves the smallest residual:
//
//	series, err := bounce.Run(ctx, bounce.Variants(), bounce.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, s := range series {
//	    fmt.Printf("%-15s declared %-9s fitted %s\n", s.Variant, s.Declared, s.Fit.Class)
//	}
//
// Expect the recursive and loop variants to fit O(n) and the closed forms to
// fit O(1) or O(log n).
//
// Each Point also carries TailRatio, the slowest sample over the median. A
// point above NoisySpread was disturbed while it was timed; rerun it with
// more Samples or a longer MinTime before trusting its fit.
//
// # Precision
//
// The closed forms divide by 1 - r. For r within a few ulps of 1 (but not
// equal to it) that division cancels badly; only Branchless, whose mask
// triggers at |1 - r| ≤ 1e-15, falls back to the linear result there.
//
// # Testing
//
//	func TestMyVariant(t *testing.T) {
//	    v := bounce.Variant{Name: "mine", Fn: myDistance, Class: bounce.Logarithmic}
//	    bounce.AssertEquivalent(t, v, bounce.EquivalenceCases())
//	    bounce.AssertEdgeCases(t, v, bounce.DefaultEdgeInputs())
//	}
package bounce
