package visibility

import (
	"container/heap"

	"prm-planner/pkg/geometry"
)

// node represents a node in the A* search
type node struct {
	id     int     // ID of the node in the graph
	g      float64 // Cost from start to this node
	h      float64 // Heuristic cost from this node to end
	f      float64 // Total cost (g + h)
	parent *node
	index  int // Index in the heap
}

// priorityQueue implements heap.Interface for A* algorithm
type priorityQueue []*node

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	return pq[i].f < pq[j].f
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	n := x.(*node)
	n.index = len(*pq)
	*pq = append(*pq, n)
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

// AStar computes the shortest path between two graph nodes using the
// straight-line distance heuristic.
func AStar(graph *Graph, startIdx, endIdx int) (geometry.Path, bool) {
	if graph == nil || len(graph.Nodes) == 0 {
		return nil, false
	}

	startPoint := graph.Nodes[startIdx]
	endPoint := graph.Nodes[endIdx]

	openSet := &priorityQueue{}
	heap.Init(openSet)

	startNode := &node{
		id: startIdx,
		h:  startPoint.Distance(endPoint),
		f:  startPoint.Distance(endPoint),
	}
	heap.Push(openSet, startNode)

	closedSet := make(map[int]bool)
	openSetMap := map[int]*node{startIdx: startNode}

	for openSet.Len() > 0 {
		current := heap.Pop(openSet).(*node)
		delete(openSetMap, current.id)

		if current.id == endIdx {
			var path geometry.Path
			for n := current; n != nil; n = n.parent {
				path = append(geometry.Path{graph.Nodes[n.id]}, path...)
			}
			return path, true
		}

		closedSet[current.id] = true

		for _, edge := range graph.Edges[current.id] {
			neighborID := edge.To
			if closedSet[neighborID] {
				continue
			}

			tentativeG := current.g + edge.Cost

			neighbor, exists := openSetMap[neighborID]
			if !exists {
				neighbor = &node{
					id:     neighborID,
					g:      tentativeG,
					h:      graph.Nodes[neighborID].Distance(endPoint),
					parent: current,
				}
				neighbor.f = neighbor.g + neighbor.h
				heap.Push(openSet, neighbor)
				openSetMap[neighborID] = neighbor
			} else if tentativeG < neighbor.g {
				// Found a better path to this neighbor
				neighbor.g = tentativeG
				neighbor.f = neighbor.g + neighbor.h
				neighbor.parent = current
				heap.Fix(openSet, neighbor.index)
			}
		}
	}

	// No path found
	return nil, false
}
