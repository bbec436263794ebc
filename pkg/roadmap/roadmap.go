// Package roadmap grows a probabilistic roadmap between a start and a goal
// and keeps the shortest start-goal path through it up to date.
package roadmap

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"sort"

	"github.com/dhconnelly/rtreego"

	"prm-planner/pkg/collision"
	"prm-planner/pkg/geometry"
)

// Milestone indices of the episode endpoints.
const (
	StartIndex = 0
	GoalIndex  = 1
)

// pointTolerance is the half-size of a milestone's rectangle in the R-tree.
const pointTolerance = 1e-9

// IndexedSegment is a roadmap edge: a segment plus the milestone indices of
// its endpoints. Its weight is the segment length.
type IndexedSegment struct {
	geometry.Segment
	From int `json:"from"`
	To   int `json:"to"`
}

type edgeKey struct{ lo, hi int }

func keyOf(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{lo: a, hi: b}
}

// milestoneEntry wraps a milestone for R-tree storage
type milestoneEntry struct {
	index int
	point geometry.Point
}

// Bounds implements rtreego.Spatial interface
func (m *milestoneEntry) Bounds() rtreego.Rect {
	return rtreego.Point{m.point.X, m.point.Y}.ToRect(pointTolerance)
}

// candidate is a possible edge from a new milestone to an existing one.
type candidate struct {
	index   int
	segment geometry.Segment
	length  float64
}

// Roadmap owns the milestones and edges of one planning episode. Milestone 0
// is always the start and milestone 1 the goal; growth only appends.
type Roadmap struct {
	cfg       Config
	obstacles *collision.Obstacles
	rng       *rand.Rand

	milestones []geometry.Point
	edges      []IndexedSegment
	connected  map[edgeKey]struct{}
	tree       *rtreego.Rtree
	threshold  float64

	// The start-goal connection is attempted by the first Update after a
	// reset, so Edges stays empty until something connects.
	bootstrapPending bool

	path         geometry.Path
	cost         float64
	previousCost float64
}

// New creates a roadmap over the obstacle set. A nil obstacle set means an
// empty scene. rng is the only source of randomness the roadmap uses.
func New(obstacles *collision.Obstacles, cfg Config, rng *rand.Rand, start, goal geometry.Point) (*Roadmap, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: nil random source", ErrInvalidConfig)
	}
	if obstacles == nil {
		var err error
		if obstacles, err = collision.NewObstacles(nil); err != nil {
			return nil, err
		}
	}

	r := &Roadmap{
		cfg:       cfg,
		obstacles: obstacles,
		rng:       rng,
	}
	r.Reset(start, goal)
	return r, nil
}

// Reset starts a new episode: milestones become [start, goal], edges and
// path state are cleared. The obstacle set is kept.
func (r *Roadmap) Reset(start, goal geometry.Point) {
	r.milestones = r.milestones[:0]
	r.edges = nil
	r.connected = make(map[edgeKey]struct{})
	r.tree = rtreego.NewTree(2, 25, 50)
	r.addMilestone(start)
	r.addMilestone(goal)

	r.threshold = r.cfg.Threshold
	r.bootstrapPending = true
	r.path = nil
	r.cost = math.Inf(1)
	r.previousCost = math.Inf(1)
}

func (r *Roadmap) addMilestone(p geometry.Point) int {
	index := len(r.milestones)
	r.milestones = append(r.milestones, p)
	r.tree.Insert(&milestoneEntry{index: index, point: p})
	return index
}

// Sample draws n uniform candidates in the domain, appends the ones that are
// collision free at the configured clearance and returns their indices.
func (r *Roadmap) Sample(n int) []int {
	var added []int
	for i := 0; i < n; i++ {
		p := r.randomPoint()
		if r.obstacles.PointCollides(p, r.cfg.Clearance) {
			continue
		}
		added = append(added, r.addMilestone(p))
	}
	return added
}

// SampleFree returns n collision-free points without adding them to the
// roadmap. It gives up with ErrNoFreeSpace after Config.MaxAttempts draws.
func (r *Roadmap) SampleFree(n int) ([]geometry.Point, error) {
	points := make([]geometry.Point, 0, n)
	for attempts := 0; len(points) < n; attempts++ {
		if attempts >= r.cfg.MaxAttempts {
			return nil, fmt.Errorf("%w: %d of %d points after %d attempts",
				ErrNoFreeSpace, len(points), n, attempts)
		}
		p := r.randomPoint()
		if !r.obstacles.PointCollides(p, r.cfg.Clearance) {
			points = append(points, p)
		}
	}
	return points, nil
}

func (r *Roadmap) randomPoint() geometry.Point {
	return r.cfg.Domain.Uniform(r.rng.Float64(), r.rng.Float64())
}

// Connect links each of the given milestones to at most maxDegree of its
// nearest milestones closer than threshold, skipping edges that collide.
// Candidates are ordered by length, then by milestone index. It returns the
// number of edges added.
func (r *Roadmap) Connect(indices []int, threshold float64, maxDegree int) int {
	added := 0
	for _, v := range indices {
		if v < 0 || v >= len(r.milestones) {
			continue
		}

		candidates := r.nearby(v, threshold)
		sort.Slice(candidates, func(i, j int) bool {
			if candidates[i].length != candidates[j].length {
				return candidates[i].length < candidates[j].length
			}
			return candidates[i].index < candidates[j].index
		})
		if len(candidates) > maxDegree {
			candidates = candidates[:maxDegree]
		}

		for _, c := range candidates {
			if r.obstacles.SegmentCollides(c.segment, r.cfg.Clearance) {
				continue
			}
			r.edges = append(r.edges, IndexedSegment{Segment: c.segment, From: v, To: c.index})
			r.connected[keyOf(v, c.index)] = struct{}{}
			added++
		}
	}
	return added
}

// nearby returns unconnected milestones strictly closer than threshold to
// milestone v. Self-loops are excluded by index.
func (r *Roadmap) nearby(v int, threshold float64) []candidate {
	origin := r.milestones[v]

	var indices []int
	if threshold >= r.cfg.Domain.Diagonal() || math.IsInf(threshold, 1) {
		indices = make([]int, len(r.milestones))
		for i := range indices {
			indices[i] = i
		}
	} else {
		query := rtreego.Point{origin.X, origin.Y}.ToRect(threshold)
		for _, item := range r.tree.SearchIntersect(query) {
			indices = append(indices, item.(*milestoneEntry).index)
		}
	}

	candidates := make([]candidate, 0, len(indices))
	for _, u := range indices {
		if u == v {
			continue
		}
		if _, ok := r.connected[keyOf(u, v)]; ok {
			continue
		}
		segment := geometry.NewSegment(origin, r.milestones[u])
		length := segment.Length()
		if length < threshold {
			candidates = append(candidates, candidate{index: u, segment: segment, length: length})
		}
	}
	return candidates
}

// Update performs one growth step with the given connection threshold:
// sample, connect, then recompute the shortest path. It returns false
// without growing once the roadmap has more than maxMilestones milestones,
// and, with Config.StopOnPath, once a start-goal path exists.
func (r *Roadmap) Update(threshold float64, maxMilestones int) bool {
	if len(r.milestones) > maxMilestones {
		return false
	}
	if r.cfg.StopOnPath && r.PathExists() {
		return false
	}

	r.threshold = threshold
	if r.bootstrapPending {
		r.bootstrapPending = false
		r.Connect([]int{GoalIndex}, threshold, r.cfg.MaxNeighbors)
	}

	added := r.Sample(r.cfg.SamplesPerStep)
	r.Connect(added, threshold, r.cfg.MaxNeighbors)
	r.RecomputePath()

	if r.cfg.StopOnPath && r.PathExists() {
		return false
	}
	return true
}

// Milestones returns a copy of the milestone list.
func (r *Roadmap) Milestones() []geometry.Point {
	return slices.Clone(r.milestones)
}

// NumMilestones returns the number of milestones, start and goal included.
func (r *Roadmap) NumMilestones() int {
	return len(r.milestones)
}

// Edges returns a copy of the edge list.
func (r *Roadmap) Edges() []IndexedSegment {
	return slices.Clone(r.edges)
}

// NumEdges returns the number of edges.
func (r *Roadmap) NumEdges() int {
	return len(r.edges)
}

func (r *Roadmap) Start() geometry.Point { return r.milestones[StartIndex] }
func (r *Roadmap) Goal() geometry.Point  { return r.milestones[GoalIndex] }

// Threshold returns the connection threshold used by the latest Update, or
// Config.Threshold when no Update ran since the last reset.
func (r *Roadmap) Threshold() float64 {
	return r.threshold
}

// Config returns the roadmap configuration.
func (r *Roadmap) Config() Config {
	return r.cfg
}

// Obstacles returns the shared obstacle set.
func (r *Roadmap) Obstacles() *collision.Obstacles {
	return r.obstacles
}

// Lines returns the edges as point pairs for visualization.
func (r *Roadmap) Lines() [][]geometry.Point {
	lines := make([][]geometry.Point, 0, len(r.edges))
	for _, e := range r.edges {
		lines = append(lines, []geometry.Point{e.A, e.B})
	}
	return lines
}

// Snapshot is a plain record of the roadmap state.
type Snapshot struct {
	Milestones []geometry.Point `json:"milestones"`
	Edges      []IndexedSegment `json:"edges"`
	Path       geometry.Path    `json:"path,omitempty"`
	PathExists bool             `json:"pathExists"`
	Cost       *float64         `json:"cost,omitempty"` // nil while no path exists
	Threshold  float64          `json:"threshold"`
}

// Snapshot copies the current state into a serializable record.
func (r *Roadmap) Snapshot() Snapshot {
	s := Snapshot{
		Milestones: r.Milestones(),
		Edges:      r.Edges(),
		Path:       r.Path(),
		PathExists: r.PathExists(),
		Threshold:  r.threshold,
	}
	if s.PathExists {
		cost := r.cost
		s.Cost = &cost
	}
	return s
}
