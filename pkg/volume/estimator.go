// Package volume estimates the obstacle-free fraction of the planning domain
// by Monte-Carlo sampling.
package volume

import (
	"math/rand/v2"

	"prm-planner/pkg/collision"
	"prm-planner/pkg/geometry"
)

// DefaultBudget is the total number of samples after which an estimate is
// considered converged.
const DefaultBudget = 10000

// Estimator accumulates free and non-free sample counts over the domain.
// Free points are those not inside any obstacle (clearance 0).
type Estimator struct {
	obstacles *collision.Obstacles
	domain    geometry.Bounds
	rng       *rand.Rand
	budget    int

	free    int
	nonFree int
	fixed   bool
	value   float64
}

// NewEstimator creates an estimator that converges after budget samples.
// A non-positive budget selects DefaultBudget.
func NewEstimator(obstacles *collision.Obstacles, domain geometry.Bounds, rng *rand.Rand, budget int) *Estimator {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &Estimator{
		obstacles: obstacles,
		domain:    domain,
		rng:       rng,
		budget:    budget,
	}
}

// Fixed returns an already converged estimator reporting the given free
// fraction. It is used when the obstacle set was measured before.
func Fixed(fraction float64, domain geometry.Bounds) *Estimator {
	return &Estimator{domain: domain, fixed: true, value: fraction}
}

// Sample draws n uniform points in the domain and classifies them.
// It is a no-op on a fixed estimate.
func (e *Estimator) Sample(n int) {
	if e.fixed {
		return
	}
	for i := 0; i < n; i++ {
		p := e.domain.Uniform(e.rng.Float64(), e.rng.Float64())
		if e.obstacles != nil && e.obstacles.PointCollides(p, 0) {
			e.nonFree++
		} else {
			e.free++
		}
	}
}

// Estimate returns the free fraction in [0, 1]. Before the first sample it
// returns 0.
func (e *Estimator) Estimate() float64 {
	if e.fixed {
		return e.value
	}
	total := e.free + e.nonFree
	if total == 0 {
		return 0
	}
	return float64(e.free) / float64(total)
}

// FreeArea returns the estimated free area: the free fraction scaled by the
// domain area.
func (e *Estimator) FreeArea() float64 {
	return e.Estimate() * e.domain.Area()
}

// Converged reports whether the sample budget has been spent.
func (e *Estimator) Converged() bool {
	return e.fixed || e.free+e.nonFree >= e.budget
}

// Counts returns the number of free and non-free samples drawn so far.
func (e *Estimator) Counts() (free, nonFree int) {
	return e.free, e.nonFree
}

// Domain returns the sampled region.
func (e *Estimator) Domain() geometry.Bounds {
	return e.domain
}
