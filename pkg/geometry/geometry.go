// Package geometry holds the planar value types shared by the planner:
// points, segments, obstacle polygons, paths and axis-aligned bounds.
package geometry

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidGeometry is returned when a polygon has fewer than three vertices.
var ErrInvalidGeometry = errors.New("geometry: invalid geometry")

// Point is a configuration in the planning domain.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance calculates Euclidean distance between two points
func (p Point) Distance(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Sub returns p - other.
func (p Point) Sub(other Point) Point {
	return Point{X: p.X - other.X, Y: p.Y - other.Y}
}

// Lerp returns the point at parameter t on the line from p to other.
func (p Point) Lerp(other Point, t float64) Point {
	return Point{
		X: p.X + (other.X-p.X)*t,
		Y: p.Y + (other.Y-p.Y)*t,
	}
}

func (p Point) String() string {
	return fmt.Sprintf("(%.4f, %.4f)", p.X, p.Y)
}

// Segment is the straight line between two points
type Segment struct {
	A Point `json:"a"`
	B Point `json:"b"`
}

// NewSegment creates a segment from a to b.
func NewSegment(a, b Point) Segment {
	return Segment{A: a, B: b}
}

// Length returns the Euclidean length of the segment.
func (s Segment) Length() float64 {
	return s.A.Distance(s.B)
}

// Direction returns the displacement vector B - A.
func (s Segment) Direction() Point {
	return s.B.Sub(s.A)
}

// Angle returns the heading of the segment in radians, in (-π, π].
func (s Segment) Angle() float64 {
	d := s.Direction()
	return math.Atan2(d.Y, d.X)
}

// Polygon represents an obstacle as a closed list of vertices.
// Edges join consecutive vertices and wrap from the last vertex to the first.
type Polygon struct {
	Vertices []Point `json:"vertices"`
}

// NewPolygon copies the vertices into a new polygon.
func NewPolygon(vertices ...Point) (Polygon, error) {
	p := Polygon{Vertices: append([]Point(nil), vertices...)}
	if err := p.Validate(); err != nil {
		return Polygon{}, err
	}
	return p, nil
}

// MustPolygon is like NewPolygon but panics on invalid input. Used for
// literal scenes.
func MustPolygon(coords ...[2]float64) Polygon {
	vertices := make([]Point, len(coords))
	for i, c := range coords {
		vertices[i] = Point{X: c[0], Y: c[1]}
	}
	p, err := NewPolygon(vertices...)
	if err != nil {
		panic(err)
	}
	return p
}

// Validate checks that the polygon has enough vertices to define its edges.
func (p Polygon) Validate() error {
	if len(p.Vertices) < 3 {
		return fmt.Errorf("%w: polygon needs at least 3 vertices, got %d", ErrInvalidGeometry, len(p.Vertices))
	}
	return nil
}

// Len returns the number of vertices (and edges).
func (p Polygon) Len() int {
	return len(p.Vertices)
}

// Edge returns the i-th edge, from vertex i to vertex i+1 (wrapping).
func (p Polygon) Edge(i int) Segment {
	n := len(p.Vertices)
	return Segment{A: p.Vertices[i], B: p.Vertices[(i+1)%n]}
}

// Edges returns all edges of the polygon.
func (p Polygon) Edges() []Segment {
	edges := make([]Segment, len(p.Vertices))
	for i := range p.Vertices {
		edges[i] = p.Edge(i)
	}
	return edges
}

// Bounds returns the axis-aligned bounding box of the polygon.
func (p Polygon) Bounds() Bounds {
	return BoundsOf(p.Vertices...)
}

// Path is an ordered sequence of waypoints from start to goal.
type Path []Point

// Length returns the summed length of all legs of the path.
func (p Path) Length() float64 {
	total := 0.0
	for i := 0; i+1 < len(p); i++ {
		total += p[i].Distance(p[i+1])
	}
	return total
}

// Segments returns the legs of the path.
func (p Path) Segments() []Segment {
	if len(p) < 2 {
		return nil
	}
	legs := make([]Segment, 0, len(p)-1)
	for i := 0; i+1 < len(p); i++ {
		legs = append(legs, Segment{A: p[i], B: p[i+1]})
	}
	return legs
}

// Bounds represents an axis-aligned bounding box
type Bounds struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// Square returns the box [-half, half]².
func Square(half float64) Bounds {
	return Bounds{Min: Point{X: -half, Y: -half}, Max: Point{X: half, Y: half}}
}

// BoundsOf computes the bounding box of a set of points.
func BoundsOf(points ...Point) Bounds {
	if len(points) == 0 {
		return Bounds{}
	}

	b := Bounds{Min: points[0], Max: points[0]}
	for _, v := range points[1:] {
		b.Min.X = math.Min(b.Min.X, v.X)
		b.Min.Y = math.Min(b.Min.Y, v.Y)
		b.Max.X = math.Max(b.Max.X, v.X)
		b.Max.Y = math.Max(b.Max.Y, v.Y)
	}
	return b
}

func (b Bounds) Width() float64  { return b.Max.X - b.Min.X }
func (b Bounds) Height() float64 { return b.Max.Y - b.Min.Y }

// Area returns width × height.
func (b Bounds) Area() float64 {
	return b.Width() * b.Height()
}

// Diagonal returns the length of the box diagonal.
func (b Bounds) Diagonal() float64 {
	return b.Min.Distance(b.Max)
}

// Contains reports whether p lies in the closed box.
func (b Bounds) Contains(p Point) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

// Expand grows the box by margin on every side.
func (b Bounds) Expand(margin float64) Bounds {
	return Bounds{
		Min: Point{X: b.Min.X - margin, Y: b.Min.Y - margin},
		Max: Point{X: b.Max.X + margin, Y: b.Max.Y + margin},
	}
}

// Uniform maps two unit-interval samples onto a point in the box.
func (b Bounds) Uniform(u, v float64) Point {
	return Point{
		X: b.Min.X + u*b.Width(),
		Y: b.Min.Y + v*b.Height(),
	}
}
