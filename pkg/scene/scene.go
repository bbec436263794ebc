// Package scene provides obstacle sets for the planner: built-in scenes,
// GeoJSON files and the preprocessing applied before planning.
package scene

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"prm-planner/pkg/geometry"
)

// ErrUnknownScene is returned by Builtin for names it does not know.
var ErrUnknownScene = errors.New("scene: unknown scene")

// Scene is an obstacle set with the endpoints of the first episode.
type Scene struct {
	Name      string             `json:"name"`
	Obstacles []geometry.Polygon `json:"obstacles"`
	Start     geometry.Point     `json:"start"`
	Goal      geometry.Point     `json:"goal"`
}

// Default has three irregular polygons around the origin. The start sits at
// the origin with the goal half a unit to its left.
func Default() Scene {
	return Scene{
		Name: "default",
		Obstacles: []geometry.Polygon{
			geometry.MustPolygon([2]float64{-0.8, 0.2}, [2]float64{-0.6, 0.6}, [2]float64{-0.5, 0.4}, [2]float64{-0.15, 0.27}),
			geometry.MustPolygon([2]float64{-0.5, -0.6}, [2]float64{-0.8, -0.6}, [2]float64{-0.2, -0.4}, [2]float64{-0.46, -0.92}),
			geometry.MustPolygon(
				[2]float64{0.33, -0.12}, [2]float64{0, -0.2}, [2]float64{0.2, 0.2},
				[2]float64{0.4, 0.04}, [2]float64{0.8, 0.2}, [2]float64{0.62, -0.27},
			),
		},
		Start: geometry.Point{X: 0, Y: 0},
		Goal:  geometry.Point{X: -0.5, Y: 0},
	}
}

// Pathological is a row of three pillars with narrow vertical corridors
// between them. Start and goal are on opposite sides of the row.
func Pathological() Scene {
	return Scene{
		Name: "pathological",
		Obstacles: []geometry.Polygon{
			geometry.MustPolygon([2]float64{-0.8, -0.4}, [2]float64{-0.75, 0.4}, [2]float64{-0.45, 0.4}, [2]float64{-0.4, -0.4}),
			geometry.MustPolygon([2]float64{-0.15, -0.4}, [2]float64{-0.2, 0.4}, [2]float64{0.2, 0.4}, [2]float64{0.15, -0.4}),
			geometry.MustPolygon([2]float64{0.4, -0.4}, [2]float64{0.45, 0.4}, [2]float64{0.75, 0.4}, [2]float64{0.8, -0.4}),
		},
		Start: geometry.Point{X: -0.9, Y: 0},
		Goal:  geometry.Point{X: 0.9, Y: 0},
	}
}

// Empty has no obstacles.
func Empty() Scene {
	return Scene{
		Name:  "empty",
		Start: geometry.Point{X: -0.5, Y: 0},
		Goal:  geometry.Point{X: 0.5, Y: 0},
	}
}

var builtins = map[string]func() Scene{
	"default":      Default,
	"pathological": Pathological,
	"empty":        Empty,
}

// Builtin returns the built-in scene with the given name.
func Builtin(name string) (Scene, error) {
	build, ok := builtins[name]
	if !ok {
		return Scene{}, fmt.Errorf("%w: %q (known: %v)", ErrUnknownScene, name, Names())
	}
	return build(), nil
}

// Names lists the built-in scenes in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of the scene.
func (s Scene) Clone() Scene {
	out := s
	out.Obstacles = make([]geometry.Polygon, len(s.Obstacles))
	for i, p := range s.Obstacles {
		out.Obstacles[i] = geometry.Polygon{Vertices: slices.Clone(p.Vertices)}
	}
	return out
}
