package collision

import (
	"fmt"

	"github.com/dhconnelly/rtreego"

	"prm-planner/pkg/geometry"
)

// minExtent keeps bounding boxes of flat polygons non-degenerate; rtreego
// rejects rectangles with a zero-length side.
const minExtent = 1e-9

// polygonEntry wraps a polygon for R-tree storage
type polygonEntry struct {
	polygon geometry.Polygon
	bbox    rtreego.Rect
}

// Bounds implements rtreego.Spatial interface
func (e *polygonEntry) Bounds() rtreego.Rect {
	return e.bbox
}

// Obstacles is an immutable obstacle set with an R-tree over the polygons'
// bounding boxes. Its queries return exactly what the package-level
// functions return for the same polygons; the index only skips polygons that
// cannot be within clearance of the query.
type Obstacles struct {
	polygons []geometry.Polygon
	tree     *rtreego.Rtree
}

// NewObstacles validates and indexes the polygons.
func NewObstacles(polygons []geometry.Polygon) (*Obstacles, error) {
	tree := rtreego.NewTree(2, 25, 50) // 2D, min 25, max 50 entries per node
	kept := make([]geometry.Polygon, 0, len(polygons))

	for i, polygon := range polygons {
		if err := polygon.Validate(); err != nil {
			return nil, fmt.Errorf("obstacle %d: %w", i, err)
		}
		polygon = geometry.Polygon{Vertices: append([]geometry.Point(nil), polygon.Vertices...)}
		bbox, err := toRect(polygon.Bounds())
		if err != nil {
			return nil, fmt.Errorf("obstacle %d: %w", i, err)
		}
		tree.Insert(&polygonEntry{polygon: polygon, bbox: bbox})
		kept = append(kept, polygon)
	}

	return &Obstacles{polygons: kept, tree: tree}, nil
}

// Polygons returns the obstacle polygons in insertion order.
func (o *Obstacles) Polygons() []geometry.Polygon {
	return o.polygons
}

// Len returns the number of obstacles.
func (o *Obstacles) Len() int {
	return len(o.polygons)
}

// Near returns the polygons whose bounding boxes intersect the given box.
func (o *Obstacles) Near(bounds geometry.Bounds) []geometry.Polygon {
	if len(o.polygons) == 0 {
		return nil
	}
	rect, err := toRect(bounds)
	if err != nil {
		return nil
	}

	results := o.tree.SearchIntersect(rect)
	polygons := make([]geometry.Polygon, 0, len(results))
	for _, item := range results {
		polygons = append(polygons, item.(*polygonEntry).polygon)
	}
	return polygons
}

// PointCollides reports whether the point is inside an obstacle or within
// clearance of one of its edges.
func (o *Obstacles) PointCollides(point geometry.Point, clearance float64) bool {
	if len(o.polygons) == 0 {
		return false
	}
	query := geometry.Bounds{Min: point, Max: point}.Expand(clearance + minExtent)
	return PointCollides(point, o.Near(query), clearance)
}

// SegmentCollides is the indexed counterpart of SegmentCollides. Candidate
// polygons are gathered once for the segment's inflated bounding box.
func (o *Obstacles) SegmentCollides(segment geometry.Segment, clearance float64) bool {
	if len(o.polygons) == 0 {
		return false
	}
	near := o.Near(geometry.BoundsOf(segment.A, segment.B).Expand(clearance + minExtent))
	if len(near) == 0 {
		return false
	}
	return SegmentCollides(segment, near, clearance)
}

// toRect converts bounds to an rtreego rectangle, padding flat sides.
func toRect(b geometry.Bounds) (rtreego.Rect, error) {
	return rtreego.NewRect(
		rtreego.Point{b.Min.X, b.Min.Y},
		[]float64{max(b.Width(), minExtent), max(b.Height(), minExtent)},
	)
}
