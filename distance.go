package bounce

import "math"

// Func computes the total vertical distance traveled by a ball dropped from
// height h that bounces back to r times its previous height, over n bounces.
//
// Every variant in this package implements the same quantity:
//
//	D(1) = h
//	D(n) = h + 2·h·r·(1 + r + r² + … + r^(n-2))   for n ≥ 2
//
// Implementations are pure and reentrant. They never fail: r == 1 and n == 1
// are answered exactly, and a bounce count below 1 is treated as a single drop.
type Func func(h, r float64, n int) float64

// branchlessEpsilon is the |1-r| threshold below which Branchless switches to
// the linear h·(2n-1) result.
const branchlessEpsilon = 1e-15

// Recursive accumulates h·r^k with one call per bounce. It is the reference
// every other variant is checked against.
//
// Each bounce adds a stack frame, so stack usage is O(n). Go stacks grow on
// demand; n in the millions costs memory, and n large enough to need more than
// the runtime's maximum stack size aborts the program. Use Accumulator or Loop
// when n is unbounded.
func Recursive(h, r float64, n int) float64 {
	if n <= 1 {
		return h
	}
	dist := h + r*h
	return dist + Recursive(h*r, r, n-1)
}

// Accumulator is the accumulator-passing form of Recursive: the running total
// travels with the call, so each step is a tail call. Go does not eliminate
// tail calls, so the recursion is written as the loop it would compile to.
//
// Complexity: O(n) time, O(1) stack.
func Accumulator(h, r float64, n int) float64 {
	n = max(n, 1)
	total := 0.0
	for {
		total += h
		if n == 1 {
			return total
		}
		total += r * h
		h, n = h*r, n-1
	}
}

// Loop adds 2·h·r^k for each bounce, keeping a running power of r.
//
// Complexity: O(n) time, O(1) space.
func Loop(h, r float64, n int) float64 {
	dist := h
	pow := r
	for i := 1; i < n; i++ {
		dist += 2 * h * pow
		pow *= r
	}
	return dist
}

// GeometricLoop sums r + r² + … + r^(n-1) on its own and scales by 2h once,
// taking one multiplication per iteration out of the loop body.
//
// Complexity: O(n) time, O(1) space.
func GeometricLoop(h, r float64, n int) float64 {
	sum := 0.0
	pow := r
	for i := 1; i < n; i++ {
		sum += pow
		pow *= r
	}
	return h + sum*2*h
}

// PowGeometric evaluates the series as (r^n - r)/(r - 1) with math.Pow.
//
// r == 1 is the singular point of the formula and is answered linearly.
// For r close to but not equal to 1 the division cancels badly; that is a
// precision boundary of the closed form, not something this function corrects.
func PowGeometric(h, r float64, n int) float64 {
	n = max(n, 1)
	if r == 1 {
		return linear(h, n)
	}
	geo := (math.Pow(r, float64(n)) - r) / (r - 1)
	return h + geo*2*h
}

// ClosedForm is the canonical closed form:
//
//	D(n) = h + 2·h·r·(1 - r^(n-1)) / (1 - r)
//
// r == 1 and n == 1 exit early, before any division.
func ClosedForm(h, r float64, n int) float64 {
	if r == 1 {
		return linear(h, n)
	}
	if n <= 1 {
		return h
	}
	return h + (2*h*r*(1-math.Pow(r, float64(n-1))))/(1-r)
}

// FastExp is ClosedForm with r^(n-1) computed by exponentiation by squaring
// instead of math.Pow.
//
// Complexity: O(log n) multiplications.
func FastExp(h, r float64, n int) float64 {
	if r == 1 {
		return linear(h, n)
	}
	if n <= 1 {
		return h
	}
	rn := powInt(r, n-1)
	return h + (2*h*r*(1-rn))/(1-r)
}

// FMA rearranges the closed form to
//
//	D(n) = h·(1 + r - 2·r^n) / (1 - r)
//
// so the numerator is a single fused multiply-add with one rounding.
// The r == 1 branch is h·2n - h, also fused, which rounds exactly once and
// therefore equals h·(2n-1).
func FMA(h, r float64, n int) float64 {
	if r == 1 {
		return math.FMA(h, float64(2*max(n, 1)), -h)
	}
	if n <= 1 {
		return h
	}
	rn := powInt(r, n)
	numer := math.FMA(-2, rn, 1+r)
	return h * numer / (1 - r)
}

// Branchless computes the fused form unconditionally and selects between the
// geometric and the linear result with bit masks instead of branches:
//
//	valid     = |1-r| > 1e-15            as an all-ones or all-zeros mask
//	safeDenom = valid ? 1-r : 1
//	result    = valid ? geometric : h·(2n-1)
//
// A second mask picks h when n == 1, where the fused form would otherwise
// return h·(1-r)/(1-r) with its rounding. Selection copies bits, so an
// overflowing branch that is not chosen cannot leak an Inf or NaN into the
// result.
func Branchless(h, r float64, n int) float64 {
	n = max(n, 1)
	rn := powInt(r, n)

	numer := 1 + r - 2*rn
	denom := 1 - r

	valid := greaterMask(math.Abs(denom), branchlessEpsilon)
	safeDenom := selectBits(valid, denom, 1)

	geometric := h * numer / safeDenom
	lin := h * float64(2*n-1)
	blended := selectBits(valid, geometric, lin)

	return selectBits(zeroMask(uint64(n-1)), h, blended)
}

// Hybrid writes out n = 1..4 as polynomials and uses the fused closed form
// from n = 5 on. Few bounces is the common case, and those never touch a
// division.
func Hybrid(h, r float64, n int) float64 {
	switch {
	case n <= 1:
		return h
	case r == 1:
		return linear(h, n)
	case n == 2:
		return h + 2*h*r
	case n == 3:
		return h + 2*h*r*(1+r)
	case n == 4:
		return h + 2*h*r*(1+r+r*r)
	}
	rn := powInt(r, n)
	return h * (1 + r - 2*rn) / (1 - r)
}

// linear is the r == 1 distance, h·(2n-1).
func linear(h float64, n int) float64 {
	return h * float64(2*max(n, 1)-1)
}

// powInt returns base^e for e ≥ 0 by squaring.
func powInt(base float64, e int) float64 {
	result := 1.0
	for k := uint(e); k > 0; k >>= 1 {
		if k&1 == 1 {
			result *= base
		}
		base *= base
	}
	return result
}

// greaterMask returns all ones when x > eps and zero otherwise, read from the
// sign bit of eps-x. x == eps gives +0 and therefore zero.
func greaterMask(x, eps float64) uint64 {
	return -(math.Float64bits(eps-x) >> 63)
}

// zeroMask returns all ones when v == 0 and zero otherwise.
func zeroMask(v uint64) uint64 {
	return ((v | -v) >> 63) - 1
}

// selectBits returns a where mask is all ones and b where it is zero.
func selectBits(mask uint64, a, b float64) float64 {
	return math.Float64frombits(math.Float64bits(a)&mask | math.Float64bits(b)&^mask)
}
