package bounce

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrUnknownVariant is returned when a lookup names no registered variant.
	ErrUnknownVariant = errors.New("bounce: unknown variant")

	// ErrDuplicateVariant is returned when a name is registered twice.
	ErrDuplicateVariant = errors.New("bounce: duplicate variant")
)

// Class is an asymptotic growth order in n.
type Class int

const (
	ConstantTime Class = iota // O(1)
	Logarithmic               // O(log n)
	Linear                    // O(n)
	Linearithmic              // O(n log n)
	Quadratic                 // O(n²)
)

// Classes lists every growth order FitComplexity considers, simplest first.
func Classes() []Class {
	return []Class{ConstantTime, Logarithmic, Linear, Linearithmic, Quadratic}
}

func (c Class) String() string {
	switch c {
	case ConstantTime:
		return "O(1)"
	case Logarithmic:
		return "O(log n)"
	case Linear:
		return "O(n)"
	case Linearithmic:
		return "O(n log n)"
	case Quadratic:
		return "O(n^2)"
	default:
		return fmt.Sprintf("Class(%d)", int(c))
	}
}

// Sublinear reports whether c grows slower than n.
func (c Class) Sublinear() bool {
	return c == ConstantTime || c == Logarithmic
}

// Variant is one named implementation of Func together with the growth order
// it is expected to show.
type Variant struct {
	Name      string // Stable identifier used by the CLI and in reports
	Fn        Func   // The implementation
	Class     Class  // Expected time complexity in n
	Reference bool   // True for the variant others are compared against
	Notes     string // One-line description of the strategy
}

// Distance evaluates the variant.
func (v Variant) Distance(h, r float64, n int) float64 {
	return v.Fn(h, r, n)
}

func (v Variant) String() string {
	return fmt.Sprintf("%s %s", v.Name, v.Class)
}

// Registry holds variants in registration order.
type Registry struct {
	variants []Variant
	byName   map[string]int
}

// NewRegistry creates a registry holding vs. It panics on a duplicate name,
// since the set is fixed at compile time.
func NewRegistry(vs ...Variant) *Registry {
	r := &Registry{byName: make(map[string]int, len(vs))}
	for _, v := range vs {
		if err := r.Register(v); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a variant. Names must be unique and non-empty, and Fn non-nil.
func (r *Registry) Register(v Variant) error {
	if v.Name == "" || v.Fn == nil {
		return fmt.Errorf("bounce: variant %q needs a name and a function", v.Name)
	}
	if _, ok := r.byName[v.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateVariant, v.Name)
	}
	r.byName[v.Name] = len(r.variants)
	r.variants = append(r.variants, v)
	return nil
}

// Lookup finds a variant by name.
func (r *Registry) Lookup(name string) (Variant, error) {
	i, ok := r.byName[name]
	if !ok {
		return Variant{}, fmt.Errorf("%w: %q (have: %v)", ErrUnknownVariant, name, r.Names())
	}
	return r.variants[i], nil
}

// Variants returns a copy of the registered variants in registration order.
func (r *Registry) Variants() []Variant {
	out := make([]Variant, len(r.variants))
	copy(out, r.variants)
	return out
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.variants))
	for _, v := range r.variants {
		names = append(names, v.Name)
	}
	sort.Strings(names)
	return names
}

// Reference returns the first variant flagged as the reference.
func (r *Registry) Reference() (Variant, bool) {
	for _, v := range r.variants {
		if v.Reference {
			return v, true
		}
	}
	return Variant{}, false
}

var defaultRegistry = NewRegistry(
	Variant{Name: "recursive", Fn: Recursive, Class: Linear, Reference: true,
		Notes: "one call per bounce, O(n) stack"},
	Variant{Name: "accumulator", Fn: Accumulator, Class: Linear,
		Notes: "tail-call form with running total, flattened"},
	Variant{Name: "loop", Fn: Loop, Class: Linear,
		Notes: "running power, 2hr^k per iteration"},
	Variant{Name: "geometric_loop", Fn: GeometricLoop, Class: Linear,
		Notes: "sum r^k, scale by 2h once"},
	Variant{Name: "pow_geometric", Fn: PowGeometric, Class: ConstantTime,
		Notes: "(r^n - r)/(r - 1) via math.Pow"},
	Variant{Name: "closed_form", Fn: ClosedForm, Class: ConstantTime,
		Notes: "early exits, then math.Pow closed form"},
	Variant{Name: "fast_exp", Fn: FastExp, Class: Logarithmic,
		Notes: "closed form, r^(n-1) by squaring"},
	Variant{Name: "fma", Fn: FMA, Class: Logarithmic,
		Notes: "h(1 + r - 2r^n)/(1 - r) with fused multiply-add"},
	Variant{Name: "branchless", Fn: Branchless, Class: Logarithmic,
		Notes: "fused form blended with 0/1 masks"},
	Variant{Name: "hybrid", Fn: Hybrid, Class: Logarithmic,
		Notes: "unrolled n <= 4, fused form above"},
)

// Variants returns every built-in variant in a stable order.
func Variants() []Variant {
	return defaultRegistry.Variants()
}

// Lookup finds a built-in variant by name.
func Lookup(name string) (Variant, error) {
	return defaultRegistry.Lookup(name)
}

// Names returns the sorted names of the built-in variants.
func Names() []string {
	return defaultRegistry.Names()
}

// Reference returns the variant every other one is checked against.
func Reference() Variant {
	v, _ := defaultRegistry.Reference()
	return v
}
