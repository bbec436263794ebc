package collision

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"prm-planner/pkg/geometry"
)

var unitSquare = geometry.MustPolygon(
	[2]float64{-1, -1}, [2]float64{1, -1}, [2]float64{1, 1}, [2]float64{-1, 1},
)

func seg(x1, y1, x2, y2 float64) geometry.Segment {
	return geometry.NewSegment(geometry.Point{X: x1, Y: y1}, geometry.Point{X: x2, Y: y2})
}

func TestSegmentsIntersect(t *testing.T) {
	tests := []struct {
		name string
		a, b geometry.Segment
		want bool
	}{
		{"crossing", seg(0, 0, 1, 1), seg(0, 1, 1, 0), true},
		{"vertical crosses horizontal", seg(0.5, -1, 0.5, 1), seg(0, 0, 1, 0), true},
		{"disjoint", seg(0, 0, 1, 0), seg(0, 1, 1, 1), false},
		{"parallel", seg(0, 0, 1, 1), seg(0, 0.1, 1, 1.1), false},
		{"collinear overlapping", seg(0, 0, 2, 0), seg(1, 0, 3, 0), false},
		{"shared endpoint", seg(0, 0, 1, 1), seg(1, 1, 2, 0), false},
		{"touching at interior", seg(0, 0, 2, 0), seg(1, 0, 1, 1), false},
		{"near parallel crossing", seg(0, 0, 1, 1e-9), seg(0, 1e-9, 1, 0), true},
		{"beyond span", seg(0, 0, 1, 1), seg(2, 0, 3, -1), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := SegmentsIntersect(tc.a, tc.b); got != tc.want {
				t.Errorf("SegmentsIntersect(a, b): expected %v, got %v", tc.want, got)
			}
			if got := SegmentsIntersect(tc.b, tc.a); got != tc.want {
				t.Errorf("SegmentsIntersect(b, a): expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestSegmentsIntersectSymmetricRandom(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	r := func() float64 { return rng.Float64()*2 - 1 }
	for i := 0; i < 5000; i++ {
		a := seg(r(), r(), r(), r())
		b := seg(r(), r(), r(), r())
		if SegmentsIntersect(a, b) != SegmentsIntersect(b, a) {
			t.Fatalf("asymmetric result for %v and %v", a, b)
		}
	}
}

func TestSharedEndpointNeverIntersects(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	r := func() float64 { return rng.Float64()*2 - 1 }
	for i := 0; i < 1000; i++ {
		shared := geometry.Point{X: r(), Y: r()}
		a := geometry.NewSegment(shared, geometry.Point{X: r(), Y: r()})
		b := geometry.NewSegment(geometry.Point{X: r(), Y: r()}, shared)
		if SegmentsIntersect(a, b) {
			t.Fatalf("segments sharing %v reported as intersecting", shared)
		}
	}
}

func TestPointInPolygonSquare(t *testing.T) {
	if !PointInPolygon(geometry.Point{X: 0, Y: 0}, unitSquare) {
		t.Errorf("origin should be inside the square")
	}
	if PointInPolygon(geometry.Point{X: 5, Y: 5}, unitSquare) {
		t.Errorf("(5, 5) should be outside the square")
	}
	if PointInPolygon(geometry.Point{X: -3, Y: 0.2}, unitSquare) {
		t.Errorf("(-3, 0.2) should be outside the square")
	}
}

func TestPointInPolygonMatchesOrb(t *testing.T) {
	// Non-convex "C" shape.
	poly := geometry.MustPolygon(
		[2]float64{-0.8, -0.8}, [2]float64{0.8, -0.8}, [2]float64{0.8, -0.4},
		[2]float64{-0.3, -0.4}, [2]float64{-0.3, 0.4}, [2]float64{0.8, 0.4},
		[2]float64{0.8, 0.8}, [2]float64{-0.8, 0.8},
	)
	ring := make(orb.Ring, 0, len(poly.Vertices)+1)
	for _, v := range poly.Vertices {
		ring = append(ring, orb.Point{v.X, v.Y})
	}
	ring = append(ring, ring[0])

	rng := rand.New(rand.NewPCG(5, 6))
	mismatches := 0
	for i := 0; i < 2000; i++ {
		p := geometry.Point{X: rng.Float64()*2 - 1, Y: rng.Float64()*2 - 1}
		if PointInPolygon(p, poly) != planar.RingContains(ring, orb.Point{p.X, p.Y}) {
			mismatches++
		}
	}
	if mismatches != 0 {
		t.Errorf("PointInPolygon disagreed with orb on %d of 2000 points", mismatches)
	}
}

func TestPointInPolygonRayThroughVertex(t *testing.T) {
	// Points on y = x cast their ray through the square's corners.
	small := geometry.MustPolygon(
		[2]float64{-0.2, -0.2}, [2]float64{0.2, -0.2}, [2]float64{0.2, 0.2}, [2]float64{-0.2, 0.2},
	)
	// Triangle with one edge along y = x.
	wedge := geometry.MustPolygon([2]float64{0, 0}, [2]float64{2, 0}, [2]float64{2, 2})

	tests := []struct {
		name    string
		point   geometry.Point
		polygon geometry.Polygon
		want    bool
	}{
		{"origin in unit square", geometry.Point{X: 0, Y: 0}, unitSquare, true},
		{"off-center on diagonal", geometry.Point{X: -0.5, Y: -0.5}, unitSquare, true},
		{"through two corners", geometry.Point{X: -3, Y: -3}, unitSquare, false},
		{"small square", geometry.Point{X: -0.05, Y: -0.05}, small, true},
		{"ray along an edge", geometry.Point{X: -1, Y: -1}, wedge, false},
		{"inside wedge", geometry.Point{X: 1.5, Y: 0.5}, wedge, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := PointInPolygon(tc.point, tc.polygon); got != tc.want {
				t.Errorf("PointInPolygon(%v): expected %v, got %v", tc.point, tc.want, got)
			}
		})
	}
}

func TestDiagonalThroughSquareCollides(t *testing.T) {
	small := geometry.MustPolygon(
		[2]float64{-0.2, -0.2}, [2]float64{0.2, -0.2}, [2]float64{0.2, 0.2}, [2]float64{-0.2, 0.2},
	)
	obstacles, err := NewObstacles([]geometry.Polygon{small})
	if err != nil {
		t.Fatal(err)
	}

	if !obstacles.PointCollides(geometry.Point{X: -0.05, Y: -0.05}, 0.03) {
		t.Errorf("interior point on the diagonal should collide")
	}
	if !obstacles.SegmentCollides(seg(-0.1, -0.1, 0.1, 0.1), 0.03) {
		t.Errorf("diagonal segment inside the square should collide")
	}
}

func TestDistancePointToSegment(t *testing.T) {
	s := seg(0, 0, 2, 0)

	if d := DistancePointToSegment(geometry.Point{X: 1, Y: 1}, s); math.Abs(d-1) > 1e-10 {
		t.Errorf("perpendicular distance: expected 1, got %v", d)
	}
	// Projection beyond B falls back to the endpoint.
	if d := DistancePointToSegment(geometry.Point{X: 5, Y: 4}, s); math.Abs(d-5) > 1e-10 {
		t.Errorf("endpoint distance: expected 5, got %v", d)
	}
	if d := DistancePointToSegment(geometry.Point{X: 1, Y: 1}, seg(3, 3, 3, 3)); math.Abs(d-math.Sqrt(8)) > 1e-10 {
		t.Errorf("zero-length segment: expected %v, got %v", math.Sqrt(8), d)
	}
}

func TestDistanceOutsideSpanIsEndpointDistance(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 8))
	r := func() float64 { return rng.Float64()*2 - 1 }
	checked := 0
	for checked < 500 {
		s := seg(r(), r(), r(), r())
		p := geometry.Point{X: r() * 3, Y: r() * 3}

		d := s.Direction()
		t0 := ((p.X-s.A.X)*d.X + (p.Y-s.A.Y)*d.Y) / (d.X*d.X + d.Y*d.Y)
		if t0 >= 0 && t0 <= 1 {
			continue
		}
		checked++

		want := math.Min(p.Distance(s.A), p.Distance(s.B))
		if got := DistancePointToSegment(p, s); math.Abs(got-want) > 1e-9 {
			t.Fatalf("distance from %v to %v: expected %v, got %v", p, s, want, got)
		}
	}
}

func TestPointCollidesClearance(t *testing.T) {
	small := geometry.MustPolygon(
		[2]float64{-0.1, -0.1}, [2]float64{0.1, -0.1}, [2]float64{0.1, 0.1}, [2]float64{-0.1, 0.1},
	)
	polygons := []geometry.Polygon{small}

	if !PointCollides(geometry.Point{X: 0, Y: 0}, polygons, 0) {
		t.Errorf("interior point should collide")
	}
	near := geometry.Point{X: 0.15, Y: 0}
	if PointCollides(near, polygons, 0.01) {
		t.Errorf("point 0.05 away should be free with clearance 0.01")
	}
	if !PointCollides(near, polygons, 0.1) {
		t.Errorf("point 0.05 away should collide with clearance 0.1")
	}
	if PointCollides(near, nil, 1) {
		t.Errorf("no obstacles means no collision")
	}
}

func TestSegmentCollides(t *testing.T) {
	wall := geometry.MustPolygon(
		[2]float64{-0.05, -0.5}, [2]float64{0.05, -0.5}, [2]float64{0.05, 0.5}, [2]float64{-0.05, 0.5},
	)
	polygons := []geometry.Polygon{wall}

	if !SegmentCollides(seg(-0.5, 0, 0.5, 0), polygons, 0.01) {
		t.Errorf("segment through the wall should collide")
	}
	if SegmentCollides(seg(-0.5, 0.8, 0.5, 0.8), polygons, 0.01) {
		t.Errorf("segment above the wall should be free")
	}
	if !SegmentCollides(seg(-0.5, 0.52, 0.5, 0.52), polygons, 0.05) {
		t.Errorf("segment grazing the wall within clearance should collide")
	}
}

func TestObstaclesMatchFreeFunctions(t *testing.T) {
	polygons := []geometry.Polygon{
		geometry.MustPolygon([2]float64{-0.8, 0.2}, [2]float64{-0.6, 0.6}, [2]float64{-0.5, 0.4}, [2]float64{-0.15, 0.27}),
		geometry.MustPolygon([2]float64{-0.5, -0.6}, [2]float64{-0.8, -0.6}, [2]float64{-0.2, -0.4}, [2]float64{-0.46, -0.92}),
		geometry.MustPolygon([2]float64{0.33, -0.12}, [2]float64{0, -0.2}, [2]float64{0.2, 0.2}, [2]float64{0.4, 0.04}, [2]float64{0.8, 0.2}, [2]float64{0.62, -0.27}),
	}
	obstacles, err := NewObstacles(polygons)
	if err != nil {
		t.Fatal(err)
	}
	if obstacles.Len() != 3 {
		t.Fatalf("expected 3 obstacles, got %d", obstacles.Len())
	}

	rng := rand.New(rand.NewPCG(9, 10))
	r := func() float64 { return rng.Float64()*2 - 1 }
	for i := 0; i < 2000; i++ {
		p := geometry.Point{X: r(), Y: r()}
		if obstacles.PointCollides(p, 0.03) != PointCollides(p, polygons, 0.03) {
			t.Fatalf("indexed point query disagrees at %v", p)
		}
	}
	for i := 0; i < 200; i++ {
		s := seg(r(), r(), r(), r())
		if obstacles.SegmentCollides(s, 0.03) != SegmentCollides(s, polygons, 0.03) {
			t.Fatalf("indexed segment query disagrees for %v", s)
		}
	}
}

func TestNewObstaclesRejectsDegenerate(t *testing.T) {
	bad := geometry.Polygon{Vertices: []geometry.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}}
	if _, err := NewObstacles([]geometry.Polygon{bad}); err == nil {
		t.Fatalf("expected an error for a two-vertex obstacle")
	}
}
