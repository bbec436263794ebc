package roadmap

import (
	"container/heap"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"

	"prm-planner/pkg/geometry"
)

// queueItem is a milestone waiting in the Dijkstra frontier
type queueItem struct {
	node  int
	dist  float64
	index int // Index in the heap
}

// priorityQueue implements heap.Interface ordered by tentative distance
type priorityQueue []*queueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	return pq[i].dist < pq[j].dist
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	item := x.(*queueItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[0 : n-1]
	return item
}

// adjacency builds the dense symmetric weight matrix of an n-milestone
// roadmap. Missing edges weigh +Inf and the diagonal is 0. Parallel edges
// keep the shorter weight.
func adjacency(n int, edges []IndexedSegment) *mat.SymDense {
	data := make([]float64, n*n)
	for i := range data {
		data[i] = math.Inf(1)
	}
	for i := 0; i < n; i++ {
		data[i*n+i] = 0
	}
	adj := mat.NewSymDense(n, data)

	for _, e := range edges {
		w := e.Length()
		if w < adj.At(e.From, e.To) {
			adj.SetSym(e.From, e.To, w)
		}
	}
	return adj
}

// dijkstra computes single-source shortest distances over the adjacency
// matrix. prev[i] is the predecessor of i on its shortest path, -1 for the
// source and for unreachable milestones.
func dijkstra(adj *mat.SymDense, source int) (dist []float64, prev []int) {
	n := adj.SymmetricDim()
	dist = make([]float64, n)
	prev = make([]int, n)
	for i := range dist {
		dist[i] = math.Inf(1)
		prev[i] = -1
	}
	dist[source] = 0

	items := make([]*queueItem, n)
	done := make([]bool, n)
	pq := &priorityQueue{}
	heap.Init(pq)
	items[source] = &queueItem{node: source}
	heap.Push(pq, items[source])

	for pq.Len() > 0 {
		current := heap.Pop(pq).(*queueItem)
		u := current.node
		done[u] = true

		for v := 0; v < n; v++ {
			w := adj.At(u, v)
			if v == u || done[v] || math.IsInf(w, 1) {
				continue
			}

			tentative := dist[u] + w
			if tentative >= dist[v] {
				continue
			}
			dist[v] = tentative
			prev[v] = u

			if items[v] == nil {
				items[v] = &queueItem{node: v, dist: tentative}
				heap.Push(pq, items[v])
			} else {
				// Found a better path to this milestone
				items[v].dist = tentative
				heap.Fix(pq, items[v].index)
			}
		}
	}
	return dist, prev
}

// RecomputePath rebuilds the weighted graph from the edge list and runs
// Dijkstra from the start. The previous cost is kept for delta reporting.
func (r *Roadmap) RecomputePath() {
	r.previousCost = r.cost

	adj := adjacency(len(r.milestones), r.edges)
	dist, prev := dijkstra(adj, StartIndex)

	r.cost = dist[GoalIndex]
	if math.IsInf(r.cost, 1) {
		r.path = nil
		return
	}

	var path geometry.Path
	for node := GoalIndex; node != -1; node = prev[node] {
		path = append(path, r.milestones[node])
	}
	slices.Reverse(path)
	r.path = path
}

// Path returns a copy of the current shortest path, nil when start and goal
// are disconnected.
func (r *Roadmap) Path() geometry.Path {
	return slices.Clone(r.path)
}

// Cost returns the length of the shortest path, +Inf when none exists.
func (r *Roadmap) Cost() float64 {
	return r.cost
}

// PreviousCost returns the cost before the latest recomputation.
func (r *Roadmap) PreviousCost() float64 {
	return r.previousCost
}

// CostDelta returns previous minus current cost: the improvement made by the
// latest recomputation. It is 0 while no path has been found, and +Inf on the
// step that found the first path.
func (r *Roadmap) CostDelta() float64 {
	if math.IsInf(r.cost, 1) {
		return 0
	}
	return r.previousCost - r.cost
}

// PathExists reports whether start and goal are connected.
func (r *Roadmap) PathExists() bool {
	return !math.IsInf(r.cost, 1)
}
