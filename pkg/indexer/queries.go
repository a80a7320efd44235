package indexer

import (
	"github.com/srwlli/coderef/internal/query"
	"github.com/srwlli/coderef/internal/relation"
	"github.com/srwlli/coderef/pkg/coderef"
)

// observe forwards a query result's latency to the metrics collectors.
func (s *Service) observe(res *query.Result) *query.Result {
	s.metrics.ObserveQuery(res.ExecutionTime)
	return res
}

// QueryByKind returns all references of the given kind.
func (s *Service) QueryByKind(kind string) *query.Result {
	return s.observe(s.engine.ByKind(kind))
}

// QueryByPath returns all references at the given exact path.
func (s *Service) QueryByPath(path string) *query.Result {
	return s.observe(s.engine.ByPath(path))
}

// QueryByPathPrefix returns all references under the given path prefix.
func (s *Service) QueryByPathPrefix(prefix string) *query.Result {
	return s.observe(s.engine.ByPathPrefix(prefix))
}

// QueryByElement returns all references with the given element name.
func (s *Service) QueryByElement(element string) *query.Result {
	return s.observe(s.engine.ByElement(element))
}

// QueryByMetadata returns all references tagged (category, value).
func (s *Service) QueryByMetadata(category, value string) *query.Result {
	return s.observe(s.engine.ByMetadata(category, value))
}

// QueryByMetadataMultiple ORs several values within one category.
func (s *Service) QueryByMetadataMultiple(category string, values []string) *query.Result {
	return s.observe(s.engine.ByMetadataMultiple(category, values))
}

// QueryByMetadataCategory returns every reference tagged under a category.
func (s *Service) QueryByMetadataCategory(category string) *query.Result {
	return s.observe(s.engine.ByMetadataCategory(category))
}

// QueryByRelationshipKind returns the source records of all edges of kind.
func (s *Service) QueryByRelationshipKind(kind string) *query.Result {
	return s.observe(s.engine.ByRelationshipKind(kind))
}

// Where returns all references satisfying the predicate (uncached).
func (s *Service) Where(pred func(*coderef.IndexRecord) bool) *query.Result {
	return s.observe(s.engine.Where(pred))
}

// ComplexQuery evaluates a compound AND query (uncached).
func (s *Service) ComplexQuery(cond query.Conditions) *query.Result {
	return s.observe(s.engine.Complex(cond))
}

// Paginate slices the full result of queryFn.
func (s *Service) Paginate(queryFn func() *query.Result, page, pageSize int) *query.Page {
	return s.engine.Paginate(queryFn, page, pageSize)
}

// Outgoing returns a record's outgoing edges, optionally filtered by kind.
func (s *Service) Outgoing(id, kind string) []*relation.Edge {
	return s.graph.Outgoing(s.store.Get(id), kind)
}

// Incoming returns a record's incoming edges, optionally filtered by kind.
func (s *Service) Incoming(id, kind string) []*relation.Edge {
	return s.graph.Incoming(s.store.Get(id), kind)
}

// Traverse walks the relationship graph depth-first from the record with
// the given id, following only edges of kind, down to maxDepth.
func (s *Service) Traverse(id, kind string, maxDepth int) []relation.Visit {
	return s.graph.Traverse(s.store.Get(id), kind, maxDepth)
}

// TransitiveDependents returns every record that directly or transitively
// depends on (or uses) the record with the given id.
func (s *Service) TransitiveDependents(id string) []*coderef.IndexRecord {
	return s.graph.TransitiveDependents(s.store.Get(id))
}

// FindCircularDependencies reports all dependency cycles in the graph.
func (s *Service) FindCircularDependencies() []relation.Cycle {
	return s.graph.FindCircularDependencies()
}

// ClearCache drops all cached query results.
func (s *Service) ClearCache() {
	s.engine.ClearCache()
}

// EnableCache turns query-result caching on.
func (s *Service) EnableCache() {
	s.engine.EnableCache()
}

// DisableCache turns query-result caching off and drops existing entries.
func (s *Service) DisableCache() {
	s.engine.DisableCache()
}
