// Package store implements the primary reference store: the canonical
// record set plus the kind/path/element forward indices.
//
// The store is append-only (records are never mutated after insert) and
// idempotent: re-adding a reference with the same identity returns the
// existing record. It is single-writer by contract; hosts serialize access.
package store

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/srwlli/coderef/internal/errors"
	"github.com/srwlli/coderef/pkg/coderef"
)

// Store owns the canonical record set and the three forward indices.
type Store struct {
	records   []*coderef.IndexRecord
	byID      map[string]*coderef.IndexRecord
	byKind    map[string][]*coderef.IndexRecord
	byPath    map[string][]*coderef.IndexRecord
	byElement map[string][]*coderef.IndexRecord

	now func() time.Time
}

// New creates an empty reference store.
func New() *Store {
	s := &Store{now: time.Now}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.records = nil
	s.byID = make(map[string]*coderef.IndexRecord)
	s.byKind = make(map[string][]*coderef.IndexRecord)
	s.byPath = make(map[string][]*coderef.IndexRecord)
	s.byElement = make(map[string][]*coderef.IndexRecord)
}

// Add inserts a reference, returning its record. If a record with the same
// identity already exists it is returned unchanged and created is false.
// Kind and Path must be non-empty; anything beyond that is the service's
// job to validate.
func (s *Store) Add(ref coderef.CodeReference) (rec *coderef.IndexRecord, created bool, err error) {
	if ref.Kind == "" {
		return nil, false, errors.New(errors.ErrCodeMissingKind, "reference kind is required", nil)
	}
	if ref.Path == "" {
		return nil, false, errors.New(errors.ErrCodeMissingPath, "reference path is required", nil)
	}

	id := ref.ID()
	if existing, ok := s.byID[id]; ok {
		slog.Debug("reference_already_indexed", slog.String("id", id))
		return existing, false, nil
	}

	rec = coderef.NewIndexRecord(ref, s.now())
	s.records = append(s.records, rec)
	s.byID[id] = rec
	s.byKind[ref.Kind] = append(s.byKind[ref.Kind], rec)
	s.byPath[ref.Path] = append(s.byPath[ref.Path], rec)
	if ref.Element != "" {
		s.byElement[ref.Element] = append(s.byElement[ref.Element], rec)
	}

	return rec, true, nil
}

// AddBatch inserts references sequentially. The first failure aborts and
// bubbles up; partial-failure handling lives in the service layer.
func (s *Store) AddBatch(refs []coderef.CodeReference) ([]*coderef.IndexRecord, error) {
	records := make([]*coderef.IndexRecord, 0, len(refs))
	for _, ref := range refs {
		rec, _, err := s.Add(ref)
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// QueryByKind returns all records with the given kind, in insertion order.
func (s *Store) QueryByKind(kind string) []*coderef.IndexRecord {
	return copyRecords(s.byKind[kind])
}

// QueryByPath returns all records at the given exact path.
func (s *Store) QueryByPath(path string) []*coderef.IndexRecord {
	return copyRecords(s.byPath[path])
}

// QueryByElement returns all records with the given element name.
func (s *Store) QueryByElement(element string) []*coderef.IndexRecord {
	return copyRecords(s.byElement[element])
}

// QueryByPathPrefix returns all records whose path starts with prefix.
// This is a linear scan over distinct paths; fine at the target scale of
// hundreds-to-thousands of records, and a known limit beyond that.
func (s *Store) QueryByPathPrefix(prefix string) []*coderef.IndexRecord {
	var out []*coderef.IndexRecord
	for path, recs := range s.byPath {
		if strings.HasPrefix(path, prefix) {
			out = append(out, recs...)
		}
	}
	return out
}

// IsIndexed reports whether a reference with this identity is present.
func (s *Store) IsIndexed(ref coderef.CodeReference) bool {
	_, ok := s.byID[ref.ID()]
	return ok
}

// Get returns the record with the given id, or nil.
func (s *Store) Get(id string) *coderef.IndexRecord {
	return s.byID[id]
}

// Count returns the total number of records.
func (s *Store) Count() int { return len(s.records) }

// CountByKind returns the number of records with the given kind.
func (s *Store) CountByKind(kind string) int { return len(s.byKind[kind]) }

// CountByPath returns the number of records at the given path.
func (s *Store) CountByPath(path string) int { return len(s.byPath[path]) }

// CountByElement returns the number of records with the given element.
func (s *Store) CountByElement(element string) int { return len(s.byElement[element]) }

// Kinds returns all distinct kinds, sorted.
func (s *Store) Kinds() []string { return sortedKeys(s.byKind) }

// Paths returns all distinct paths, sorted.
func (s *Store) Paths() []string { return sortedKeys(s.byPath) }

// Elements returns all distinct element names, sorted.
func (s *Store) Elements() []string { return sortedKeys(s.byElement) }

// All returns every record in insertion order.
func (s *Store) All() []*coderef.IndexRecord {
	return copyRecords(s.records)
}

// Clear drops all records and indices.
func (s *Store) Clear() {
	s.reset()
}

func copyRecords(recs []*coderef.IndexRecord) []*coderef.IndexRecord {
	out := make([]*coderef.IndexRecord, len(recs))
	copy(out, recs)
	return out
}

func sortedKeys(m map[string][]*coderef.IndexRecord) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
