package roadmap

import "math"

// Dimension of the configuration space.
const Dimension = 2

// RadiusPolicy chooses the connection threshold for a roadmap with n
// milestones.
type RadiusPolicy interface {
	Threshold(n int) float64
}

// FixedThreshold connects within a constant radius (plain PRM).
type FixedThreshold float64

func (f FixedThreshold) Threshold(int) float64 {
	return float64(f)
}

// OptimalRadius is the PRM* shrinking radius
// Safety * Gamma * (ln m / m)^(1/d), where m = n+1 is the vertex count once
// the next milestone is inserted. ln(m)/m decreases for m > e, so the
// threshold strictly decreases for every n > 1.
type OptimalRadius struct {
	Gamma  float64 `json:"gamma"`
	Safety float64 `json:"safety"`
}

// NewOptimalRadius derives gamma from the free area of the domain.
func NewOptimalRadius(freeArea, safety float64) OptimalRadius {
	return OptimalRadius{Gamma: Gamma(freeArea), Safety: safety}
}

// Gamma returns 2 * ((1 + 1/d) * freeArea / ζ)^(1/d), with ζ = π the area of
// the unit disk.
func Gamma(freeArea float64) float64 {
	d := float64(Dimension)
	return 2 * math.Pow((1+1/d)*freeArea/math.Pi, 1/d)
}

func (o OptimalRadius) Threshold(n int) float64 {
	if n < 2 {
		n = 2
	}
	safety := o.Safety
	if safety <= 0 {
		safety = 1
	}
	m := float64(n + 1)
	return safety * o.Gamma * math.Pow(math.Log(m)/m, 1/float64(Dimension))
}
