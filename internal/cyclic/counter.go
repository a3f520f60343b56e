// Package cyclic provides a modular counter for tracking the next write
// position in a fixed-size ring.
package cyclic

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Counter is a value in [0, Max()) that wraps around on increment.
//
// The zero Counter is not usable; create one with ExclusiveMax or InclusiveMax.
type Counter[T constraints.Integer] struct {
	max T
	cur T
}

// ExclusiveMax returns a counter at 0 with valid range [0, max).
//
// It panics if max < 1.
func ExclusiveMax[T constraints.Integer](max T) Counter[T] {
	if max < 1 {
		panic(fmt.Sprintf("cyclic: exclusive max must be >= 1, got %v", max))
	}
	return Counter[T]{max: max}
}

// InclusiveMax returns a counter at 0 with valid range [0, max].
//
// It is equivalent to ExclusiveMax(max+1) and panics if max+1 overflows T.
func InclusiveMax[T constraints.Integer](max T) Counter[T] {
	if max+1 <= max {
		panic(fmt.Sprintf("cyclic: inclusive max %v overflows", max))
	}
	return ExclusiveMax(max + 1)
}

// Max returns the exclusive upper bound.
func (c Counter[T]) Max() T { return c.max }

// Current returns the current value.
func (c Counter[T]) Current() T { return c.cur }

// PeekNext returns the value after one forward step without changing c.
func (c Counter[T]) PeekNext() T { return c.add(1) }

// PeekLast returns the value after one backward step without changing c.
func (c Counter[T]) PeekLast() T {
	if c.cur == 0 {
		return c.max - 1
	}
	return c.cur - 1
}

// IncrementOne advances the counter by one.
func (c *Counter[T]) IncrementOne() { c.cur = c.add(1) }

// IncrementBy advances the counter by delta. Any delta is accepted; the result
// is always renormalized into [0, Max()).
func (c *Counter[T]) IncrementBy(delta T) { c.cur = c.add(delta) }

func (c Counter[T]) add(delta T) T {
	if c.max < 1 {
		panic("cyclic: use of uninitialized counter")
	}
	d := delta % c.max
	if d < 0 {
		d += c.max
	}
	// cur+d may overflow T when max is close to the type limit.
	if d >= c.max-c.cur {
		return c.cur - (c.max - d)
	}
	return c.cur + d
}

// String implements fmt.Stringer.
func (c Counter[T]) String() string {
	return fmt.Sprintf("%v/%v", c.cur, c.max)
}
