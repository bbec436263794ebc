// Package visibility computes shortest paths among polygonal obstacles with
// zero clearance. Each polygon blocks only its own interior: paths may run
// along obstacle edges, through the zero-width seam between obstacles that
// touch, and outside the sampling domain. The cost is therefore a lower
// bound for any roadmap path over the same obstacles, but not always an
// attainable one.
package visibility

import (
	"errors"
	"fmt"
	"log"
	"math"

	"prm-planner/pkg/collision"
	"prm-planner/pkg/geometry"
)

// MaxNodes caps the visibility graph size; edge checks grow quadratically.
const MaxNodes = 1000

// ErrTooManyNodes is returned when the obstacles have more than MaxNodes
// distinct vertices.
var ErrTooManyNodes = errors.New("visibility: too many nodes")

// Graph represents a visibility graph for pathfinding
type Graph struct {
	Nodes map[int]geometry.Point
	Edges map[int][]Edge
}

// Edge represents a connection between two nodes with a cost
type Edge struct {
	To   int     // Index of the destination node
	Cost float64 // Euclidean distance
}

// Node indices of the endpoints in a built graph.
const (
	StartNode = 0
	GoalNode  = 1
)

// Build constructs a visibility graph from start, goal, and the obstacle
// polygons' vertices.
func Build(start, goal geometry.Point, obstacles []geometry.Polygon) (*Graph, error) {
	graph := &Graph{
		Nodes: make(map[int]geometry.Point),
		Edges: make(map[int][]Edge),
	}

	graph.Nodes[StartNode] = start
	graph.Nodes[GoalNode] = goal
	nodeIndex := 2

	// Track vertex to node index mapping
	vertexToIdx := map[geometry.Point]int{start: StartNode}
	if _, dup := vertexToIdx[goal]; !dup {
		vertexToIdx[goal] = GoalNode
	}

	for _, zone := range obstacles {
		for _, vertex := range zone.Vertices {
			// Skip shared vertices
			if _, exists := vertexToIdx[vertex]; !exists {
				graph.Nodes[nodeIndex] = vertex
				vertexToIdx[vertex] = nodeIndex
				nodeIndex++
			}
		}
	}

	if len(graph.Nodes) > MaxNodes {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyNodes, len(graph.Nodes), MaxNodes)
	}

	// Build edges: connect nodes that have line-of-sight
	for i := 0; i < nodeIndex; i++ {
		for j := i + 1; j < nodeIndex; j++ {
			nodeI, nodeJ := graph.Nodes[i], graph.Nodes[j]
			if !IsPathClear(nodeI, nodeJ, obstacles) {
				continue
			}

			distance := nodeI.Distance(nodeJ)
			graph.Edges[i] = append(graph.Edges[i], Edge{To: j, Cost: distance})
			graph.Edges[j] = append(graph.Edges[j], Edge{To: i, Cost: distance})
		}
	}

	return graph, nil
}

// IsPathClear checks if a straight line between two points avoids the
// interior of every obstacle. Travelling along an obstacle edge is allowed,
// also when the edge is shared by two obstacles.
func IsPathClear(p1, p2 geometry.Point, obstacles []geometry.Polygon) bool {
	segment := geometry.NewSegment(p1, p2)
	midpoint := p1.Lerp(p2, 0.5)

	for _, zone := range obstacles {
		if isBoundaryEdge(zone, p1, p2) {
			continue
		}

		for i := range zone.Vertices {
			if collision.SegmentsIntersect(segment, zone.Edge(i)) {
				return false
			}
		}

		// Polygon vertices lie on the boundary, so only off-polygon endpoints
		// are tested for containment.
		if !isVertex(zone, p1) && collision.PointInPolygon(p1, zone) {
			return false
		}
		if !isVertex(zone, p2) && collision.PointInPolygon(p2, zone) {
			return false
		}

		// Catches diagonals running through the interior
		if collision.PointInPolygon(midpoint, zone) {
			return false
		}
	}

	return true
}

func isVertex(zone geometry.Polygon, p geometry.Point) bool {
	for _, v := range zone.Vertices {
		if v == p {
			return true
		}
	}
	return false
}

func isBoundaryEdge(zone geometry.Polygon, p1, p2 geometry.Point) bool {
	for i := range zone.Vertices {
		e := zone.Edge(i)
		if (e.A == p1 && e.B == p2) || (e.A == p2 && e.B == p1) {
			return true
		}
	}
	return false
}

// ShortestPath returns the zero-clearance shortest path from start to goal
// and its length. When the goal is unreachable the path is nil and the cost
// +Inf.
func ShortestPath(start, goal geometry.Point, obstacles []geometry.Polygon) (geometry.Path, float64, error) {
	graph, err := Build(start, goal, obstacles)
	if err != nil {
		return nil, math.Inf(1), err
	}

	path, ok := AStar(graph, StartNode, GoalNode)
	if !ok {
		log.Printf("⚠️  No visibility path from %v to %v\n", start, goal)
		return nil, math.Inf(1), nil
	}
	return path, path.Length(), nil
}
