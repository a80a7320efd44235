// Package meta implements the metadata index: an inverted index from
// (category, value) pairs to the records tagged with them.
//
// Categories are a closed recognized set plus the open "custom" fallback.
// The set is configuration, not ambient state, so engines with different
// vocabularies can coexist in one process.
package meta

import (
	"log/slog"
	"sort"

	"github.com/srwlli/coderef/pkg/coderef"
)

// CategoryCustom is the fallback category for unrecognized keys.
const CategoryCustom = "custom"

// DefaultCategories is the recognized category vocabulary.
var DefaultCategories = []string{
	"status", "significance", "security", "performance",
	"complexity", "scope", "env",
}

// Config configures the metadata index.
type Config struct {
	// Categories is the recognized category set. The custom fallback is
	// always present and need not be listed.
	Categories []string
}

// DefaultConfig returns the standard vocabulary.
func DefaultConfig() Config {
	return Config{Categories: DefaultCategories}
}

// bucket holds the records for one (category, value) pair, deduplicated by
// record id while preserving first-seen order.
type bucket struct {
	records []*coderef.IndexRecord
	seen    map[string]struct{}
}

func (b *bucket) add(rec *coderef.IndexRecord) {
	if _, ok := b.seen[rec.ID]; ok {
		return
	}
	b.seen[rec.ID] = struct{}{}
	b.records = append(b.records, rec)
}

// Index is the metadata inverted index.
type Index struct {
	recognized map[string]struct{}
	buckets    map[string]map[string]*bucket // category -> value -> bucket
}

// New creates an empty metadata index with the given vocabulary.
func New(cfg Config) *Index {
	recognized := make(map[string]struct{}, len(cfg.Categories)+1)
	for _, c := range cfg.Categories {
		recognized[c] = struct{}{}
	}
	recognized[CategoryCustom] = struct{}{}

	return &Index{
		recognized: recognized,
		buckets:    make(map[string]map[string]*bucket),
	}
}

// IndexRecord indexes every metadata field on the record. Re-indexing the
// same record is a no-op per (category, value) bucket.
func (ix *Index) IndexRecord(rec *coderef.IndexRecord) {
	if rec == nil {
		return
	}
	for _, field := range rec.Ref.Metadata {
		ix.indexField(rec, field.Key, field.Value)
	}
}

// indexField derives (category, value) pairs from one metadata field.
func (ix *Index) indexField(rec *coderef.IndexRecord, key string, value coderef.MetaValue) {
	category, subkey := ix.resolveCategory(key)

	switch value.Kind() {
	case coderef.ValueList:
		for _, v := range value.List() {
			if v == "" {
				continue
			}
			ix.insert(category, v, rec)
		}
	case coderef.ValueBool:
		// A bare true flag indexes the (sub)key itself as the value.
		if value.Flag() {
			ix.insert(category, subkey, rec)
		}
	case coderef.ValueString:
		if value.Str() != "" {
			ix.insert(category, value.Str(), rec)
		}
	}
}

// resolveCategory applies the key-parsing rule: a recognized namespace
// before the first colon wins, then a bare key matching a category name,
// then the custom fallback.
func (ix *Index) resolveCategory(key string) (category, subkey string) {
	if ns, sub, ok := coderef.SplitKey(key); ok {
		if _, recognized := ix.recognized[ns]; recognized {
			return ns, sub
		}
		return CategoryCustom, sub
	}
	if _, recognized := ix.recognized[key]; recognized {
		return key, key
	}
	return CategoryCustom, key
}

func (ix *Index) insert(category, value string, rec *coderef.IndexRecord) {
	values, ok := ix.buckets[category]
	if !ok {
		values = make(map[string]*bucket)
		ix.buckets[category] = values
	}
	b, ok := values[value]
	if !ok {
		b = &bucket{seen: make(map[string]struct{})}
		values[value] = b
	}
	b.add(rec)

	slog.Debug("metadata_indexed",
		slog.String("category", category),
		slog.String("value", value),
		slog.String("record", rec.ID))
}

// Query returns the records tagged (category, value), in first-seen order.
func (ix *Index) Query(category, value string) []*coderef.IndexRecord {
	values, ok := ix.buckets[category]
	if !ok {
		return nil
	}
	b, ok := values[value]
	if !ok {
		return nil
	}
	out := make([]*coderef.IndexRecord, len(b.records))
	copy(out, b.records)
	return out
}

// QueryMultiple ORs several values within a category, deduplicating by
// record id and preserving first-seen order across the value list.
func (ix *Index) QueryMultiple(category string, values []string) []*coderef.IndexRecord {
	seen := make(map[string]struct{})
	var out []*coderef.IndexRecord
	for _, v := range values {
		for _, rec := range ix.Query(category, v) {
			if _, ok := seen[rec.ID]; ok {
				continue
			}
			seen[rec.ID] = struct{}{}
			out = append(out, rec)
		}
	}
	return out
}

// ValueGroup is one value bucket within a category.
type ValueGroup struct {
	Value   string                 `json:"value"`
	Count   int                    `json:"count"`
	Records []*coderef.IndexRecord `json:"records"`
}

// QueryCategory returns every value bucket in a category, sorted by count
// descending (ties broken by value, ascending, for determinism).
func (ix *Index) QueryCategory(category string) []ValueGroup {
	values, ok := ix.buckets[category]
	if !ok {
		return nil
	}

	groups := make([]ValueGroup, 0, len(values))
	for value, b := range values {
		records := make([]*coderef.IndexRecord, len(b.records))
		copy(records, b.records)
		groups = append(groups, ValueGroup{Value: value, Count: len(records), Records: records})
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Value < groups[j].Value
	})

	return groups
}

// Categories returns all categories with at least one entry, sorted.
func (ix *Index) Categories() []string {
	out := make([]string, 0, len(ix.buckets))
	for c := range ix.buckets {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Values returns all values indexed under a category, sorted.
func (ix *Index) Values(category string) []string {
	values, ok := ix.buckets[category]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(values))
	for v := range values {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of records tagged (category, value).
func (ix *Index) Count(category, value string) int {
	values, ok := ix.buckets[category]
	if !ok {
		return 0
	}
	b, ok := values[value]
	if !ok {
		return 0
	}
	return len(b.records)
}

// Stats summarizes the index contents.
type Stats struct {
	CategoryCount int `json:"category_count"`
	ValueCount    int `json:"value_count"`
	EntryCount    int `json:"entry_count"`
}

// GetStats returns category, value, and entry counts.
func (ix *Index) GetStats() Stats {
	stats := Stats{CategoryCount: len(ix.buckets)}
	for _, values := range ix.buckets {
		stats.ValueCount += len(values)
		for _, b := range values {
			stats.EntryCount += len(b.records)
		}
	}
	return stats
}

// Clear drops all entries; the vocabulary is kept.
func (ix *Index) Clear() {
	ix.buckets = make(map[string]map[string]*bucket)
}

// CategoryExport is the serializable shape of one category.
type CategoryExport struct {
	Category string       `json:"category"`
	Values   []ValueGroup `json:"values"`
}

// Export returns a deterministic snapshot of the whole index.
func (ix *Index) Export() []CategoryExport {
	out := make([]CategoryExport, 0, len(ix.buckets))
	for _, c := range ix.Categories() {
		out = append(out, CategoryExport{Category: c, Values: ix.QueryCategory(c)})
	}
	return out
}
