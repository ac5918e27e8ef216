package triage

import "github.com/andresuchdata/locallens/internal/domain"

// DefaultStoreDivisor is the number of stores assumed to share demand that
// was recorded in aggregate.
const DefaultStoreDivisor = 5

// Allocator splits aggregate demand down to a single store.
type Allocator struct {
	Divisor int
}

func NewAllocator(divisor int) Allocator {
	if divisor <= 0 {
		divisor = DefaultStoreDivisor
	}
	return Allocator{Divisor: divisor}
}

// Allocate returns demand for the scope: unchanged for all stores, floored
// share for one store.
func (a Allocator) Allocate(demand int, scope domain.Scope) int {
	if scope.IsAll() {
		return demand
	}
	d := a.Divisor
	if d <= 0 {
		d = DefaultStoreDivisor
	}
	return demand / d
}
