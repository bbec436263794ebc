package scene

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"

	"prm-planner/pkg/collision"
	"prm-planner/pkg/geometry"
)

func TestBuiltinScenes(t *testing.T) {
	for _, name := range Names() {
		s, err := Builtin(name)
		if err != nil {
			t.Fatalf("Builtin(%q): %v", name, err)
		}
		if s.Name != name {
			t.Errorf("scene %q reports name %q", name, s.Name)
		}
		for i, p := range s.Obstacles {
			if err := p.Validate(); err != nil {
				t.Errorf("%s: polygon %d: %v", name, i, err)
			}
		}
		if collision.PointCollides(s.Start, s.Obstacles, 0.03) {
			t.Errorf("%s: start %v collides", name, s.Start)
		}
		if collision.PointCollides(s.Goal, s.Obstacles, 0.03) {
			t.Errorf("%s: goal %v collides", name, s.Goal)
		}
	}

	if _, err := Builtin("maze"); !errors.Is(err, ErrUnknownScene) {
		t.Errorf("expected ErrUnknownScene, got %v", err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := Default()
	c := s.Clone()
	c.Obstacles[0].Vertices[0] = geometry.Point{X: 9, Y: 9}
	if s.Obstacles[0].Vertices[0] == (geometry.Point{X: 9, Y: 9}) {
		t.Errorf("Clone shares vertex storage")
	}
}

const squareCollection = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {},
     "geometry": {"type": "Polygon", "coordinates": [[[-0.2,-0.2],[0.2,-0.2],[0.2,0.2],[-0.2,0.2],[-0.2,-0.2]]]}},
    {"type": "Feature", "properties": {},
     "geometry": {"type": "MultiPolygon", "coordinates": [
       [[[0.5,0.5],[0.6,0.5],[0.6,0.6],[0.5,0.5]]],
       [[[-0.6,-0.6],[-0.5,-0.6],[-0.5,-0.5],[-0.6,-0.6]]]
     ]}},
    {"type": "Feature", "properties": {"role": "start"},
     "geometry": {"type": "Point", "coordinates": [-0.9, 0.1]}},
    {"type": "Feature", "properties": {"role": "goal"},
     "geometry": {"type": "Point", "coordinates": [0.9, -0.1]}},
    {"type": "Feature", "properties": {},
     "geometry": {"type": "LineString", "coordinates": [[0,0],[1,1]]}}
  ]
}`

func TestParseGeoJSON(t *testing.T) {
	s, err := ParseGeoJSON("squares", []byte(squareCollection))
	if err != nil {
		t.Fatal(err)
	}
	if s.Name != "squares" {
		t.Errorf("name: expected squares, got %q", s.Name)
	}
	if len(s.Obstacles) != 3 {
		t.Fatalf("expected 3 obstacles, got %d", len(s.Obstacles))
	}
	if s.Obstacles[0].Len() != 4 {
		t.Errorf("closing point not dropped: %v", s.Obstacles[0].Vertices)
	}
	if s.Obstacles[1].Len() != 3 || s.Obstacles[2].Len() != 3 {
		t.Errorf("unexpected multipolygon parts: %v", s.Obstacles[1:])
	}
	if s.Start != (geometry.Point{X: -0.9, Y: 0.1}) || s.Goal != (geometry.Point{X: 0.9, Y: -0.1}) {
		t.Errorf("endpoints: got %v, %v", s.Start, s.Goal)
	}
}

func TestParseGeoJSONErrors(t *testing.T) {
	if _, err := ParseGeoJSON("bad", []byte("{")); err == nil {
		t.Errorf("expected a parse error")
	}

	degenerate := `{"type": "FeatureCollection", "features": [{"type": "Feature", "properties": {},
	  "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[0,0]]]}}]}`
	if _, err := ParseGeoJSON("degenerate", []byte(degenerate)); !errors.Is(err, geometry.ErrInvalidGeometry) {
		t.Errorf("expected ErrInvalidGeometry, got %v", err)
	}
}

func TestGeoJSONRoundTrip(t *testing.T) {
	s := Pathological()
	data, err := json.Marshal(s.FeatureCollection())
	if err != nil {
		t.Fatal(err)
	}

	filename := filepath.Join(t.TempDir(), "pathological.geojson")
	if err := os.WriteFile(filename, data, 0644); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadGeoJSON(filename)
	if err != nil {
		t.Fatal(err)
	}

	if loaded.Name != "pathological" || loaded.Start != s.Start || loaded.Goal != s.Goal {
		t.Errorf("scene header changed: %+v", loaded)
	}
	if len(loaded.Obstacles) != len(s.Obstacles) {
		t.Fatalf("expected %d obstacles, got %d", len(s.Obstacles), len(loaded.Obstacles))
	}
	for i := range s.Obstacles {
		for j, v := range s.Obstacles[i].Vertices {
			if loaded.Obstacles[i].Vertices[j] != v {
				t.Errorf("polygon %d vertex %d: expected %v, got %v", i, j, v, loaded.Obstacles[i].Vertices[j])
			}
		}
	}
}

func TestRemoveContained(t *testing.T) {
	outer := geometry.MustPolygon([2]float64{-0.5, -0.5}, [2]float64{0.5, -0.5}, [2]float64{0.5, 0.5}, [2]float64{-0.5, 0.5})
	inner := geometry.MustPolygon([2]float64{-0.1, -0.1}, [2]float64{0.1, -0.1}, [2]float64{0.1, 0.1})
	apart := geometry.MustPolygon([2]float64{0.7, 0.7}, [2]float64{0.9, 0.7}, [2]float64{0.9, 0.9})

	got := RemoveContained([]geometry.Polygon{inner, outer, apart})
	if len(got) != 2 {
		t.Fatalf("expected 2 polygons, got %d", len(got))
	}
	if got[0].Vertices[0] != outer.Vertices[0] || got[1].Vertices[0] != apart.Vertices[0] {
		t.Errorf("wrong polygons kept: %v", got)
	}

	single := []geometry.Polygon{outer}
	if len(RemoveContained(single)) != 1 {
		t.Errorf("single polygon should be kept")
	}
}

func TestSimplify(t *testing.T) {
	// A unit square with a collinear extra vertex on its bottom edge.
	square := geometry.MustPolygon([2]float64{0, 0}, [2]float64{0.5, 0}, [2]float64{1, 0}, [2]float64{1, 1}, [2]float64{0, 1})
	triangle := geometry.MustPolygon([2]float64{0, 0}, [2]float64{1, 0}, [2]float64{0, 1})

	got := Simplify([]geometry.Polygon{square, triangle}, 0.01)
	if got[0].Len() != 4 {
		t.Errorf("expected the collinear vertex to be removed, got %v", got[0].Vertices)
	}
	if got[1].Len() != 3 {
		t.Errorf("triangle should not change, got %v", got[1].Vertices)
	}
	if math.Abs(Area(got[0])-1) > 1e-12 {
		t.Errorf("simplified area: expected 1, got %v", Area(got[0]))
	}
	if square.Len() != 5 {
		t.Errorf("Simplify modified its input")
	}
}

func TestSimplifyKeepsPolygonWhenCollapsed(t *testing.T) {
	// Douglas-Peucker reduces the sliver to its first vertex and far corner.
	sliver := geometry.MustPolygon([2]float64{0, 0}, [2]float64{1, 0}, [2]float64{1, 0.001}, [2]float64{0, 0.001})

	got := Simplify([]geometry.Polygon{sliver}, 0.1)
	if got[0].Len() != 4 {
		t.Errorf("expected the original sliver, got %v", got[0].Vertices)
	}
}

func TestFromRingDropsClosingPoint(t *testing.T) {
	p, err := FromRing(orb.Ring{{0, 0}, {1, 0}, {0, 1}, {0, 0}})
	if err != nil {
		t.Fatal(err)
	}
	if p.Len() != 3 {
		t.Errorf("expected 3 vertices, got %v", p.Vertices)
	}

	if _, err := FromRing(orb.Ring{{0, 0}, {1, 0}, {0, 0}}); !errors.Is(err, geometry.ErrInvalidGeometry) {
		t.Errorf("closed three-point ring: expected ErrInvalidGeometry, got %v", err)
	}
	if p, err := FromRing(orb.Ring{{0, 0}, {1, 0}, {0, 1}}); err != nil || p.Len() != 3 {
		t.Errorf("open ring: expected 3 vertices, got %v (%v)", p.Vertices, err)
	}
}

func TestComputeStats(t *testing.T) {
	s := Scene{Obstacles: []geometry.Polygon{
		geometry.MustPolygon([2]float64{0, 0}, [2]float64{1, 0}, [2]float64{1, 1}, [2]float64{0, 1}),
	}}
	st := s.ComputeStats(geometry.Square(1))
	if st.Polygons != 1 || st.Vertices != 4 {
		t.Errorf("unexpected counts: %+v", st)
	}
	if math.Abs(st.ObstacleArea-1) > 1e-12 || math.Abs(st.FreeFraction-0.75) > 1e-12 {
		t.Errorf("area 1 in a domain of 4: got %+v", st)
	}
	if math.Abs(st.LargestRadius-math.Sqrt2/2) > 1e-12 {
		t.Errorf("largest radius: expected %v, got %v", math.Sqrt2/2, st.LargestRadius)
	}
}
