package relation

import (
	"github.com/srwlli/coderef/pkg/coderef"
)

// Visit is one node reached during a traversal.
type Visit struct {
	Record *coderef.IndexRecord `json:"record"`
	Depth  int                  `json:"depth"`
}

// Traverse walks the graph depth-first in preorder from start, following
// only outgoing edges of the given kind, down to maxDepth. Each node is
// visited at most once even when reachable via several paths. Placeholder
// nodes (targets never ingested) terminate their branch and are not
// reported.
func (g *Graph) Traverse(start *coderef.IndexRecord, kind string, maxDepth int) []Visit {
	if start == nil || maxDepth < 0 {
		return nil
	}
	if _, ok := g.nodes[start.ID]; !ok {
		return nil
	}

	visited := make(map[string]struct{})
	var out []Visit

	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		if depth > maxDepth {
			return
		}
		if _, seen := visited[id]; seen {
			return
		}
		visited[id] = struct{}{}

		n, ok := g.nodes[id]
		if !ok || n.record == nil {
			return
		}
		out = append(out, Visit{Record: n.record, Depth: depth})

		for _, edge := range n.outgoing {
			if edge.Kind == kind {
				walk(edge.To, depth+1)
			}
		}
	}

	walk(start.ID, 0)
	return out
}

// dependencyEdgeKinds are the kinds that express "X needs Y" for the
// purposes of transitive-dependent analysis.
var dependencyEdgeKinds = map[string]struct{}{
	KindDependsOn: {},
	KindUsedBy:    {},
}

// TransitiveDependents returns every record that directly or transitively
// depends on (or uses) the given record, via reverse DFS over incoming
// depends-on and used-by edges. The record itself is excluded.
func (g *Graph) TransitiveDependents(rec *coderef.IndexRecord) []*coderef.IndexRecord {
	if rec == nil {
		return nil
	}
	if _, ok := g.nodes[rec.ID]; !ok {
		return nil
	}

	visited := map[string]struct{}{rec.ID: {}}
	var out []*coderef.IndexRecord

	var walk func(id string)
	walk = func(id string) {
		n, ok := g.nodes[id]
		if !ok {
			return
		}
		for _, edge := range n.incoming {
			if _, dep := dependencyEdgeKinds[edge.Kind]; !dep {
				continue
			}
			if _, seen := visited[edge.From]; seen {
				continue
			}
			visited[edge.From] = struct{}{}
			if src, ok := g.nodes[edge.From]; ok && src.record != nil {
				out = append(out, src.record)
			}
			walk(edge.From)
		}
	}

	walk(rec.ID)
	return out
}
