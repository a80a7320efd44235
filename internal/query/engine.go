// Package query implements the caching query engine: a facade over the
// reference store, the metadata index, and the relationship graph.
//
// Cacheable lookups are keyed by a canonical (operation, arguments) string
// and served from a size-bounded, TTL-expiring LRU. Predicate-based queries
// always bypass the cache because predicates have no canonical key.
package query

import (
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/srwlli/coderef/internal/meta"
	"github.com/srwlli/coderef/internal/relation"
	"github.com/srwlli/coderef/internal/store"
	"github.com/srwlli/coderef/pkg/coderef"
)

// Default cache settings.
const (
	DefaultCacheMaxSize = 1000
	DefaultCacheTTL     = 60 * time.Second
)

// ErrNilDependency is returned when a required dependency is nil.
var ErrNilDependency = errors.New("nil dependency")

// Config configures the query engine.
type Config struct {
	// EnableCaching toggles the result cache (default on).
	EnableCaching bool
	// CacheMaxSize is the maximum number of cached results.
	CacheMaxSize int
	// CacheTTL is how long a cached result stays fresh.
	CacheTTL time.Duration
}

// DefaultConfig returns the standard cache settings.
func DefaultConfig() Config {
	return Config{
		EnableCaching: true,
		CacheMaxSize:  DefaultCacheMaxSize,
		CacheTTL:      DefaultCacheTTL,
	}
}

// Result is the envelope every query returns: an immutable snapshot of the
// matching references, never a live view of the indices.
type Result struct {
	References    []*coderef.IndexRecord `json:"references"`
	Count         int                    `json:"count"`
	ExecutionTime time.Duration          `json:"execution_time"`
	FromCache     bool                   `json:"from_cache"`
}

// Engine answers multi-dimensional lookups across the three indices.
type Engine struct {
	store *store.Store
	meta  *meta.Index
	graph *relation.Graph

	config  Config
	cache   *expirable.LRU[string, []*coderef.IndexRecord]
	enabled bool

	totalQueries int
	cacheHits    int
	cacheMisses  int
}

// New creates a query engine over the given indices.
// Returns an error if any dependency is nil.
func New(s *store.Store, m *meta.Index, g *relation.Graph, cfg Config) (*Engine, error) {
	if s == nil {
		return nil, errors.Join(ErrNilDependency, errors.New("reference store is required"))
	}
	if m == nil {
		return nil, errors.Join(ErrNilDependency, errors.New("metadata index is required"))
	}
	if g == nil {
		return nil, errors.Join(ErrNilDependency, errors.New("relationship graph is required"))
	}

	if cfg.CacheMaxSize <= 0 {
		cfg.CacheMaxSize = DefaultCacheMaxSize
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}

	return &Engine{
		store:   s,
		meta:    m,
		graph:   g,
		config:  cfg,
		cache:   expirable.NewLRU[string, []*coderef.IndexRecord](cfg.CacheMaxSize, nil, cfg.CacheTTL),
		enabled: cfg.EnableCaching,
	}, nil
}

// ByKind returns all references of the given kind.
func (e *Engine) ByKind(kind string) *Result {
	return e.cached("kind", []string{kind}, func() []*coderef.IndexRecord {
		return e.store.QueryByKind(kind)
	})
}

// ByPath returns all references at the given exact path.
func (e *Engine) ByPath(path string) *Result {
	return e.cached("path", []string{path}, func() []*coderef.IndexRecord {
		return e.store.QueryByPath(path)
	})
}

// ByPathPrefix returns all references under the given path prefix.
func (e *Engine) ByPathPrefix(prefix string) *Result {
	return e.cached("path-prefix", []string{prefix}, func() []*coderef.IndexRecord {
		return e.store.QueryByPathPrefix(prefix)
	})
}

// ByElement returns all references with the given element name.
func (e *Engine) ByElement(element string) *Result {
	return e.cached("element", []string{element}, func() []*coderef.IndexRecord {
		return e.store.QueryByElement(element)
	})
}

// ByMetadata returns all references tagged (category, value).
// An unknown category simply yields zero results.
func (e *Engine) ByMetadata(category, value string) *Result {
	return e.cached("meta", []string{category, value}, func() []*coderef.IndexRecord {
		return e.meta.Query(category, value)
	})
}

// ByMetadataMultiple ORs several values within one category.
func (e *Engine) ByMetadataMultiple(category string, values []string) *Result {
	args := append([]string{category}, values...)
	return e.cached("meta-multi", args, func() []*coderef.IndexRecord {
		return e.meta.QueryMultiple(category, values)
	})
}

// ByMetadataCategory returns every reference tagged under a category,
// deduplicated, flattened in count-descending value-group order.
func (e *Engine) ByMetadataCategory(category string) *Result {
	return e.cached("meta-category", []string{category}, func() []*coderef.IndexRecord {
		seen := make(map[string]struct{})
		var out []*coderef.IndexRecord
		for _, group := range e.meta.QueryCategory(category) {
			for _, rec := range group.Records {
				if _, ok := seen[rec.ID]; ok {
					continue
				}
				seen[rec.ID] = struct{}{}
				out = append(out, rec)
			}
		}
		return out
	})
}

// ByRelationshipKind returns the distinct source records of all edges of
// the given kind, in edge insertion order.
func (e *Engine) ByRelationshipKind(kind string) *Result {
	return e.cached("relationship", []string{kind}, func() []*coderef.IndexRecord {
		seen := make(map[string]struct{})
		var out []*coderef.IndexRecord
		for _, edge := range e.graph.ByKind(kind) {
			if _, ok := seen[edge.From]; ok {
				continue
			}
			seen[edge.From] = struct{}{}
			if rec := e.store.Get(edge.From); rec != nil {
				out = append(out, rec)
			}
		}
		return out
	})
}

// Where returns all references satisfying the predicate. Predicates have
// no canonical cache key, so this always bypasses the cache.
func (e *Engine) Where(pred func(*coderef.IndexRecord) bool) *Result {
	start := time.Now()
	e.totalQueries++

	var out []*coderef.IndexRecord
	for _, rec := range e.store.All() {
		if pred(rec) {
			out = append(out, rec)
		}
	}
	return newResult(out, start, false)
}

// MetadataCondition is one (category, value) constraint.
type MetadataCondition struct {
	Category string
	Value    string
}

// Conditions describes a compound query. All present conditions are ANDed,
// in order: kind, path, element, each metadata pair, then the predicate.
type Conditions struct {
	Kind      string
	Path      string
	Element   string
	Metadata  []MetadataCondition
	Predicate func(*coderef.IndexRecord) bool
}

// Complex evaluates a compound query by progressive intersection.
// Always uncached.
func (e *Engine) Complex(cond Conditions) *Result {
	start := time.Now()
	e.totalQueries++

	var running []*coderef.IndexRecord
	if cond.Kind != "" {
		running = e.store.QueryByKind(cond.Kind)
	} else {
		running = e.store.All()
	}

	if cond.Path != "" {
		running = filter(running, func(r *coderef.IndexRecord) bool { return r.Ref.Path == cond.Path })
	}
	if cond.Element != "" {
		running = filter(running, func(r *coderef.IndexRecord) bool { return r.Ref.Element == cond.Element })
	}

	for _, mc := range cond.Metadata {
		matching := make(map[string]struct{})
		for _, rec := range e.meta.Query(mc.Category, mc.Value) {
			matching[rec.ID] = struct{}{}
		}
		running = filter(running, func(r *coderef.IndexRecord) bool {
			_, ok := matching[r.ID]
			return ok
		})
	}

	if cond.Predicate != nil {
		running = filter(running, cond.Predicate)
	}

	return newResult(running, start, false)
}

// Page is one slice of a paginated result.
type Page struct {
	References []*coderef.IndexRecord `json:"references"`
	Page       int                    `json:"page"`
	PageSize   int                    `json:"page_size"`
	Total      int                    `json:"total"`
	Pages      int                    `json:"pages"`
}

// Paginate slices the full result of queryFn. Pages are 1-based; this is a
// client-side slice, not a limit/offset pushed into the indices.
func (e *Engine) Paginate(queryFn func() *Result, page, pageSize int) *Page {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	full := queryFn()
	total := full.Count
	pages := (total + pageSize - 1) / pageSize

	startIdx := (page - 1) * pageSize
	endIdx := startIdx + pageSize
	var slice []*coderef.IndexRecord
	if startIdx < total {
		if endIdx > total {
			endIdx = total
		}
		slice = full.References[startIdx:endIdx]
	}

	return &Page{
		References: slice,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		Pages:      pages,
	}
}

func filter(recs []*coderef.IndexRecord, keep func(*coderef.IndexRecord) bool) []*coderef.IndexRecord {
	out := recs[:0:0]
	for _, r := range recs {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func newResult(recs []*coderef.IndexRecord, start time.Time, fromCache bool) *Result {
	snapshot := make([]*coderef.IndexRecord, len(recs))
	copy(snapshot, recs)
	return &Result{
		References:    snapshot,
		Count:         len(snapshot),
		ExecutionTime: time.Since(start),
		FromCache:     fromCache,
	}
}
