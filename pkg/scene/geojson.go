package scene

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"prm-planner/pkg/geometry"
)

// Endpoint roles recognised in the "role" property of GeoJSON Point features.
const (
	RoleStart = "start"
	RoleGoal  = "goal"
)

// LoadGeoJSON reads a scene from a GeoJSON file. The scene is named after
// the file.
func LoadGeoJSON(filename string) (Scene, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Scene{}, fmt.Errorf("failed to read file: %w", err)
	}

	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	s, err := ParseGeoJSON(name, data)
	if err != nil {
		return Scene{}, err
	}

	log.Printf("   ✅ Loaded %d polygons from %s\n", len(s.Obstacles), filepath.Base(filename))
	return s, nil
}

// ParseGeoJSON builds a scene from a FeatureCollection. Polygon and
// MultiPolygon features become obstacles, using their outer rings. Point
// features with a "role" property of "start" or "goal" set the endpoints;
// missing endpoints keep the Empty scene's defaults.
func ParseGeoJSON(name string, data []byte) (Scene, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return Scene{}, fmt.Errorf("failed to parse feature collection: %w", err)
	}

	s := Empty()
	s.Name = name

	for i, feature := range fc.Features {
		switch g := feature.Geometry.(type) {
		case orb.Polygon:
			if err := s.addRings(g); err != nil {
				return Scene{}, fmt.Errorf("feature %d: %w", i, err)
			}
		case orb.MultiPolygon:
			for _, polygon := range g {
				if err := s.addRings(polygon); err != nil {
					return Scene{}, fmt.Errorf("feature %d: %w", i, err)
				}
			}
		case orb.Point:
			switch feature.Properties.MustString("role", "") {
			case RoleStart:
				s.Start = geometry.Point{X: g.X(), Y: g.Y()}
			case RoleGoal:
				s.Goal = geometry.Point{X: g.X(), Y: g.Y()}
			}
		default:
			log.Printf("⚠️  Skipping feature %d with geometry %s\n", i, feature.Geometry.GeoJSONType())
		}
	}
	return s, nil
}

// addRings appends the outer ring of a polygon; holes are ignored.
func (s *Scene) addRings(polygon orb.Polygon) error {
	if len(polygon) == 0 {
		return nil
	}
	p, err := FromRing(polygon[0])
	if err != nil {
		return err
	}
	s.Obstacles = append(s.Obstacles, p)
	return nil
}

// FromRing converts an orb ring into a polygon, dropping the closing point.
func FromRing(ring orb.Ring) (geometry.Polygon, error) {
	points := ring
	if len(points) > 1 && points[0] == points[len(points)-1] {
		points = points[:len(points)-1]
	}

	vertices := make([]geometry.Point, len(points))
	for i, p := range points {
		vertices[i] = geometry.Point{X: p.X(), Y: p.Y()}
	}
	return geometry.NewPolygon(vertices...)
}

// ToRing converts a polygon into a closed orb ring.
func ToRing(p geometry.Polygon) orb.Ring {
	ring := make(orb.Ring, 0, len(p.Vertices)+1)
	for _, v := range p.Vertices {
		ring = append(ring, orb.Point{v.X, v.Y})
	}
	if len(ring) > 0 {
		ring = append(ring, ring[0])
	}
	return ring
}

// FeatureCollection encodes the scene as GeoJSON, the inverse of
// ParseGeoJSON.
func (s Scene) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range s.Obstacles {
		fc.Append(geojson.NewFeature(orb.Polygon{ToRing(p)}))
	}

	start := geojson.NewFeature(orb.Point{s.Start.X, s.Start.Y})
	start.Properties["role"] = RoleStart
	goal := geojson.NewFeature(orb.Point{s.Goal.X, s.Goal.Y})
	goal.Properties["role"] = RoleGoal
	fc.Append(start)
	fc.Append(goal)
	return fc
}
