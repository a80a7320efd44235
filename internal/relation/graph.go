// Package relation implements the relationship index: a directed, typed
// graph over record ids.
//
// Nodes live in an arena keyed by record id; edges store id pairs, never
// embedded pointers, so back-references and not-yet-ingested targets cannot
// create ownership cycles. Targets referenced before ingestion get
// placeholder nodes that bind to their record when it arrives.
package relation

import (
	"log/slog"
	"sort"

	"github.com/srwlli/coderef/internal/errors"
	"github.com/srwlli/coderef/pkg/coderef"
)

// Relationship kinds. The vocabulary is closed and fixed at build time.
const (
	KindDependsOn     = "depends-on"
	KindUsedBy        = "used-by"
	KindCalls         = "calls"
	KindImplements    = "implements"
	KindExtends       = "extends"
	KindImports       = "imports"
	KindObserves      = "observes"
	KindEmits         = "emits"
	KindListens       = "listens"
	KindConflictsWith = "conflicts-with"
)

// DefaultKinds is the full relationship-kind vocabulary.
var DefaultKinds = []string{
	KindDependsOn, KindUsedBy, KindCalls, KindImplements, KindExtends,
	KindImports, KindObserves, KindEmits, KindListens, KindConflictsWith,
}

// Config configures the relationship index.
type Config struct {
	// Kinds is the recognized edge-kind vocabulary.
	Kinds []string
}

// DefaultConfig returns the standard ten-kind vocabulary.
func DefaultConfig() Config {
	return Config{Kinds: DefaultKinds}
}

// Edge is one directed, typed relationship between two record ids.
// Resolved is false while To names an entity that has not been ingested;
// it flips to true when the target record binds.
type Edge struct {
	Kind     string           `json:"kind"`
	From     string           `json:"from"`
	To       string           `json:"to"`
	Resolved bool             `json:"resolved"`
	Metadata coderef.Metadata `json:"metadata,omitempty"`
}

// node is the arena entry for one record id. record is nil for
// placeholder nodes created by edges to not-yet-ingested targets.
type node struct {
	record   *coderef.IndexRecord
	outgoing []*Edge
	incoming []*Edge
}

// Graph is the relationship index.
type Graph struct {
	kinds  map[string]struct{}
	edges  []*Edge
	byKind map[string][]*Edge
	nodes  map[string]*node
}

// New creates an empty graph with the given edge-kind vocabulary.
func New(cfg Config) *Graph {
	kinds := make(map[string]struct{}, len(cfg.Kinds))
	for _, k := range cfg.Kinds {
		kinds[k] = struct{}{}
	}
	g := &Graph{kinds: kinds}
	g.reset()
	return g
}

func (g *Graph) reset() {
	g.edges = nil
	g.byKind = make(map[string][]*Edge)
	g.nodes = make(map[string]*node)
}

// Target names the destination of an edge: either an ingested record or a
// bare id for an entity that may not exist yet.
type Target struct {
	id  string
	rec *coderef.IndexRecord
}

// To targets an ingested record.
func To(rec *coderef.IndexRecord) Target {
	return Target{id: rec.ID, rec: rec}
}

// ToID targets a bare record id that may not have been ingested.
func ToID(id string) Target {
	return Target{id: id}
}

// Link adds one edge from a record to a target. The kind must belong to
// the configured vocabulary.
func (g *Graph) Link(from *coderef.IndexRecord, kind string, to Target, md coderef.Metadata) (*Edge, error) {
	if from == nil {
		return nil, errors.ValidationError("relationship source record is required", nil)
	}
	if _, ok := g.kinds[kind]; !ok {
		return nil, errors.New(errors.ErrCodeUnknownRelation, "unknown relationship kind: "+kind, nil)
	}
	if to.id == "" {
		return nil, errors.ValidationError("relationship target is required", nil)
	}

	edge := &Edge{
		Kind:     kind,
		From:     from.ID,
		To:       to.id,
		Metadata: md,
	}

	// Unresolved targets still get a placeholder node so their incoming
	// edges are already in place if the record is ingested later. An edge
	// is resolved whenever the target node carries a record, whether the
	// caller passed it or it was bound earlier.
	dst := g.ensureNode(to.id)
	if to.rec != nil {
		dst.record = to.rec
	}
	dst.incoming = append(dst.incoming, edge)
	edge.Resolved = dst.record != nil

	g.edges = append(g.edges, edge)
	g.byKind[kind] = append(g.byKind[kind], edge)

	src := g.ensureNode(from.ID)
	src.record = from
	src.outgoing = append(src.outgoing, edge)

	slog.Debug("relationship_added",
		slog.String("kind", kind),
		slog.String("from", edge.From),
		slog.String("to", edge.To),
		slog.Bool("resolved", edge.Resolved))

	return edge, nil
}

// IndexRecord derives edges from the record's own metadata. A field whose
// namespace (or bare key) names a relationship kind yields one edge per
// string value; anything else produces no edge.
func (g *Graph) IndexRecord(rec *coderef.IndexRecord) {
	if rec == nil {
		return
	}

	g.Bind(rec)

	for _, field := range rec.Ref.Metadata {
		kind, ok := g.resolveKind(field.Key)
		if !ok {
			continue
		}

		switch field.Value.Kind() {
		case coderef.ValueList:
			for _, target := range field.Value.List() {
				if target == "" {
					continue
				}
				_, _ = g.Link(rec, kind, ToID(target), nil)
			}
		case coderef.ValueString:
			if field.Value.Str() != "" {
				_, _ = g.Link(rec, kind, ToID(field.Value.Str()), nil)
			}
		}
	}
}

// Bind registers the record's node. If a placeholder already exists for it
// (created by edges that referenced the record before it was ingested),
// the record attaches to it and the pending incoming edges become resolved.
func (g *Graph) Bind(rec *coderef.IndexRecord) {
	n := g.ensureNode(rec.ID)
	if n.record != nil {
		return
	}
	n.record = rec
	for _, edge := range n.incoming {
		edge.Resolved = true
	}
}

// resolveKind applies the shared key-parsing rule against the edge-kind
// vocabulary instead of metadata categories.
func (g *Graph) resolveKind(key string) (string, bool) {
	if ns, _, ok := coderef.SplitKey(key); ok {
		if _, known := g.kinds[ns]; known {
			return ns, true
		}
		return "", false
	}
	if _, known := g.kinds[key]; known {
		return key, true
	}
	return "", false
}

func (g *Graph) ensureNode(id string) *node {
	if n, ok := g.nodes[id]; ok {
		return n
	}
	n := &node{}
	g.nodes[id] = n
	return n
}

// Outgoing returns the record's outgoing edges, optionally filtered by
// kind (empty kind means all).
func (g *Graph) Outgoing(rec *coderef.IndexRecord, kind string) []*Edge {
	if rec == nil {
		return nil
	}
	n, ok := g.nodes[rec.ID]
	if !ok {
		return nil
	}
	return filterEdges(n.outgoing, kind)
}

// Incoming returns the record's incoming edges, optionally filtered by
// kind (empty kind means all).
func (g *Graph) Incoming(rec *coderef.IndexRecord, kind string) []*Edge {
	if rec == nil {
		return nil
	}
	n, ok := g.nodes[rec.ID]
	if !ok {
		return nil
	}
	return filterEdges(n.incoming, kind)
}

// ByKind returns all edges of the given kind, in insertion order.
func (g *Graph) ByKind(kind string) []*Edge {
	return filterEdges(g.byKind[kind], "")
}

func filterEdges(edges []*Edge, kind string) []*Edge {
	out := make([]*Edge, 0, len(edges))
	for _, e := range edges {
		if kind == "" || e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Stats summarizes the graph.
type Stats struct {
	EdgeCount int            `json:"edge_count"`
	NodeCount int            `json:"node_count"`
	PerKind   map[string]int `json:"per_kind_count"`
}

// GetStats returns edge, node, and per-kind counts.
func (g *Graph) GetStats() Stats {
	perKind := make(map[string]int, len(g.byKind))
	for kind, edges := range g.byKind {
		perKind[kind] = len(edges)
	}
	return Stats{
		EdgeCount: len(g.edges),
		NodeCount: len(g.nodes),
		PerKind:   perKind,
	}
}

// Clear drops all edges and nodes; the vocabulary is kept.
func (g *Graph) Clear() {
	g.reset()
}

// Export is the serializable shape of the graph.
type Export struct {
	Edges []*Edge  `json:"edges"`
	Nodes []string `json:"nodes"`
	Stats Stats    `json:"stats"`
}

// Export returns a deterministic snapshot of the graph.
func (g *Graph) Export() Export {
	nodes := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		nodes = append(nodes, id)
	}
	sort.Strings(nodes)

	edges := make([]*Edge, len(g.edges))
	copy(edges, g.edges)

	return Export{Edges: edges, Nodes: nodes, Stats: g.GetStats()}
}
