package relation

import (
	"sort"
	"strings"
)

// Cycle is one circular dependency. Path holds the cycle's node ids in
// edge order, rotated so the lexicographically smallest id comes first;
// Nodes is the same set, sorted.
type Cycle struct {
	Nodes []string `json:"nodes"`
	Path  []string `json:"path"`
}

// cycleEdgeKinds are the kinds considered for circular-dependency
// detection.
var cycleEdgeKinds = map[string]struct{}{
	KindDependsOn: {},
	KindCalls:     {},
}

// DFS colors.
const (
	white = iota // unvisited
	gray         // in progress (on the current DFS path)
	black        // done
)

// FindCircularDependencies detects cycles over depends-on and calls edges
// using a single colored DFS across the whole graph. A back-edge to an
// in-progress node yields the suffix of the current path as a cycle.
// Cycles are deduplicated by canonical rotation, so each distinct cycle is
// reported exactly once regardless of which node the DFS reached it from.
func (g *Graph) FindCircularDependencies() []Cycle {
	colors := make(map[string]int, len(g.nodes))
	onPath := make(map[string]int) // node id -> index in path
	var path []string

	seen := make(map[string]struct{})
	var cycles []Cycle

	var visit func(id string)
	visit = func(id string) {
		colors[id] = gray
		onPath[id] = len(path)
		path = append(path, id)

		if n, ok := g.nodes[id]; ok {
			for _, edge := range n.outgoing {
				if _, relevant := cycleEdgeKinds[edge.Kind]; !relevant {
					continue
				}
				switch colors[edge.To] {
				case white:
					visit(edge.To)
				case gray:
					cycle := canonicalize(path[onPath[edge.To]:])
					key := strings.Join(cycle.Path, "\x00")
					if _, dup := seen[key]; !dup {
						seen[key] = struct{}{}
						cycles = append(cycles, cycle)
					}
				}
			}
		}

		path = path[:len(path)-1]
		delete(onPath, id)
		colors[id] = black
	}

	// Sorted roots keep reporting order deterministic.
	roots := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		roots = append(roots, id)
	}
	sort.Strings(roots)

	for _, id := range roots {
		if colors[id] == white {
			visit(id)
		}
	}

	return cycles
}

// canonicalize rotates the cycle so its smallest node id comes first,
// giving every traversal of the same cycle an identical path.
func canonicalize(raw []string) Cycle {
	path := make([]string, len(raw))
	copy(path, raw)

	smallest := 0
	for i, id := range path {
		if id < path[smallest] {
			smallest = i
		}
	}
	rotated := append(path[smallest:], path[:smallest]...)

	nodes := make([]string, len(rotated))
	copy(nodes, rotated)
	sort.Strings(nodes)

	return Cycle{Nodes: nodes, Path: rotated}
}
