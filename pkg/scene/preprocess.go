package scene

import (
	"log"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"

	"prm-planner/pkg/collision"
	"prm-planner/pkg/geometry"
)

// RemoveContained removes polygons that are fully contained within other
// polygons. Of two identical polygons the first is kept.
func RemoveContained(polygons []geometry.Polygon) []geometry.Polygon {
	if len(polygons) <= 1 {
		return polygons
	}

	result := make([]geometry.Polygon, 0, len(polygons))
	contained := make([]bool, len(polygons))

	for i := 0; i < len(polygons); i++ {
		if contained[i] {
			continue
		}

		for j := 0; j < len(polygons); j++ {
			if i == j || contained[j] {
				continue
			}

			// Check if polygon i is contained in polygon j
			if isContainedIn(polygons[i], polygons[j]) {
				contained[i] = true
				break
			}

			// Check if polygon j is contained in polygon i
			if isContainedIn(polygons[j], polygons[i]) {
				contained[j] = true
			}
		}
	}

	for i := 0; i < len(polygons); i++ {
		if !contained[i] {
			result = append(result, polygons[i])
		}
	}

	if removed := len(polygons) - len(result); removed > 0 {
		log.Printf("   Polygons after removing contained: %d (removed %d)\n", len(result), removed)
	}
	return result
}

// isContainedIn checks if every vertex of a lies inside b. Vertices shared
// with b count as inside.
func isContainedIn(a, b geometry.Polygon) bool {
	if len(a.Vertices) == 0 || len(b.Vertices) == 0 {
		return false
	}

	// Quick bounding box check first
	ba, bb := a.Bounds(), b.Bounds()
	if !bb.Contains(ba.Min) || !bb.Contains(ba.Max) {
		return false
	}

	for _, vertex := range a.Vertices {
		if !isVertexOf(vertex, b) && !collision.PointInPolygon(vertex, b) {
			return false
		}
	}
	return true
}

func isVertexOf(p geometry.Point, polygon geometry.Polygon) bool {
	for _, v := range polygon.Vertices {
		if v == p {
			return true
		}
	}
	return false
}

// Simplify reduces polygon complexity with Douglas-Peucker. A polygon that
// would fall below three vertices is kept unchanged.
func Simplify(polygons []geometry.Polygon, epsilon float64) []geometry.Polygon {
	simplified := make([]geometry.Polygon, len(polygons))
	removed := 0
	for i, p := range polygons {
		simplified[i] = simplifyPolygon(p, epsilon)
		removed += p.Len() - simplified[i].Len()
	}

	if removed > 0 {
		log.Printf("   Simplified polygons: removed %d vertices (epsilon %.4f)\n", removed, epsilon)
	}
	return simplified
}

func simplifyPolygon(p geometry.Polygon, epsilon float64) geometry.Polygon {
	if p.Len() <= 3 || epsilon <= 0 {
		return p
	}

	ring, ok := simplify.DouglasPeucker(epsilon).Simplify(ToRing(p)).(orb.Ring)
	if !ok {
		return p
	}
	out, err := FromRing(ring)
	if err != nil {
		return p
	}
	return out
}

// Stats describes an obstacle set.
type Stats struct {
	Polygons      int     `json:"polygons"`
	Vertices      int     `json:"vertices"`
	ObstacleArea  float64 `json:"obstacleArea"` // Sum of polygon areas, overlaps counted twice
	DomainArea    float64 `json:"domainArea"`
	FreeFraction  float64 `json:"freeFraction"` // 1 - obstacle area / domain area, clamped to [0, 1]
	LargestRadius float64 `json:"largestRadius"`
}

// Area returns the area enclosed by the polygon.
func Area(p geometry.Polygon) float64 {
	return math.Abs(planar.Area(ToRing(p)))
}

// ComputeStats summarizes the scene's obstacles relative to a domain. The
// free fraction ignores overlaps and clipping to the domain.
func (s Scene) ComputeStats(domain geometry.Bounds) Stats {
	st := Stats{Polygons: len(s.Obstacles), DomainArea: domain.Area()}
	for _, p := range s.Obstacles {
		st.Vertices += p.Len()
		st.ObstacleArea += Area(p)

		b := p.Bounds()
		st.LargestRadius = math.Max(st.LargestRadius, b.Diagonal()/2)
	}
	if st.DomainArea > 0 {
		st.FreeFraction = math.Max(0, math.Min(1, 1-st.ObstacleArea/st.DomainArea))
	}
	return st
}
