// Package collision answers point and segment queries against polygonal
// obstacles with a clearance margin.
package collision

import (
	"math"

	"prm-planner/pkg/geometry"
)

const (
	// RayEpsilon is how far beyond the polygon's bounding box the
	// point-in-polygon ray ends.
	RayEpsilon = 0.01

	// SegmentStep is the spacing between sample points when checking a
	// segment against obstacles.
	SegmentStep = 0.01
)

// SegmentsIntersect checks if two segments cross at an interior point.
// Segments sharing an endpoint, parallel segments and collinear segments
// never intersect.
func SegmentsIntersect(seg1, seg2 geometry.Segment) bool {
	p1, p2 := seg1.A, seg1.B
	p3, p4 := seg2.A, seg2.B

	if p1 == p3 || p1 == p4 || p2 == p3 || p2 == p4 {
		return false
	}

	d1 := direction(p3, p4, p1)
	d2 := direction(p3, p4, p2)
	d3 := direction(p1, p2, p3)
	d4 := direction(p1, p2, p4)

	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

// direction calculates the cross product to determine orientation
func direction(p1, p2, p3 geometry.Point) float64 {
	return (p3.X-p1.X)*(p2.Y-p1.Y) - (p2.X-p1.X)*(p3.Y-p1.Y)
}

// PointInPolygon checks if a point is inside a polygon using ray casting.
// The ray runs from the point to just beyond the polygon's upper-right
// bounding box corner; an odd number of edge crossings means inside.
// Crossings are counted half-open so rays through a vertex stay correct.
func PointInPolygon(point geometry.Point, polygon geometry.Polygon) bool {
	n := len(polygon.Vertices)
	if n < 3 {
		return false
	}

	bounds := polygon.Bounds()
	ray := geometry.Segment{
		A: point,
		B: geometry.Point{X: bounds.Max.X + RayEpsilon, Y: bounds.Max.Y + RayEpsilon},
	}

	count := 0
	for i := 0; i < n; i++ {
		if rayCrosses(ray, polygon.Edge(i)) {
			count++
		}
	}

	return count%2 == 1
}

// rayCrosses counts an edge as crossed when the ray's endpoints lie strictly
// on opposite sides of the edge and the edge's endpoints lie on opposite
// sides of the ray's line, with a vertex on the ray's line treated as below
// it. A vertex hit by the ray is then counted once when the boundary passes
// through and zero or two times when it only touches.
func rayCrosses(ray, edge geometry.Segment) bool {
	d1 := direction(edge.A, edge.B, ray.A)
	d2 := direction(edge.A, edge.B, ray.B)
	if !((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) {
		return false
	}
	d3 := direction(ray.A, ray.B, edge.A)
	d4 := direction(ray.A, ray.B, edge.B)
	return (d3 > 0) != (d4 > 0)
}

// DistancePointToSegment projects the point onto the segment's line, clamps
// each coordinate of the projection to the segment's span and returns the
// distance to the clamped point.
func DistancePointToSegment(point geometry.Point, segment geometry.Segment) float64 {
	x1, y1 := segment.A.X, segment.A.Y
	x2, y2 := segment.B.X, segment.B.Y

	// ax + by + c = 0
	a := y1 - y2
	b := x2 - x1
	c := x1*y2 - x2*y1

	norm := a*a + b*b
	if norm == 0 {
		return point.Distance(segment.A)
	}

	x0, y0 := point.X, point.Y
	x := (b*b*x0 - a*b*y0 - a*c) / norm
	y := (a*a*y0 - a*b*x0 - b*c) / norm

	x = clamp(x, math.Min(x1, x2), math.Max(x1, x2))
	y = clamp(y, math.Min(y1, y2), math.Max(y1, y2))

	return math.Hypot(x-x0, y-y0)
}

func clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// PointCollidesPolygon reports whether the point is inside the polygon or
// closer than clearance to any of its edges.
func PointCollidesPolygon(point geometry.Point, polygon geometry.Polygon, clearance float64) bool {
	if PointInPolygon(point, polygon) {
		return true
	}
	for i := range polygon.Vertices {
		if DistancePointToSegment(point, polygon.Edge(i)) < clearance {
			return true
		}
	}
	return false
}

// PointCollides reports whether the point collides with any polygon.
func PointCollides(point geometry.Point, polygons []geometry.Polygon, clearance float64) bool {
	for _, polygon := range polygons {
		if PointCollidesPolygon(point, polygon, clearance) {
			return true
		}
	}
	return false
}

// SegmentCollides discretizes the segment at SegmentStep and reports whether
// any sample point collides. This is a conservative approximation, not an
// exact continuous check.
func SegmentCollides(segment geometry.Segment, polygons []geometry.Polygon, clearance float64) bool {
	return sampleSegment(segment, func(p geometry.Point) bool {
		return PointCollides(p, polygons, clearance)
	})
}

// sampleSegment evaluates collides at ceil(length/SegmentStep)+1 evenly
// spaced points, endpoints included, stopping at the first hit.
func sampleSegment(segment geometry.Segment, collides func(geometry.Point) bool) bool {
	intervals := int(math.Ceil(segment.Length() / SegmentStep))
	if intervals < 1 {
		intervals = 1
	}
	for i := 0; i <= intervals; i++ {
		t := float64(i) / float64(intervals)
		if collides(segment.A.Lerp(segment.B, t)) {
			return true
		}
	}
	return false
}
