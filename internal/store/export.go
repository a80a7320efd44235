package store

import (
	"log/slog"

	"github.com/srwlli/coderef/pkg/coderef"
)

// Stats summarizes the store's contents.
type Stats struct {
	TotalRecords int `json:"total_records"`
	KindCount    int `json:"kind_count"`
	PathCount    int `json:"path_count"`
	ElementCount int `json:"element_count"`
}

// Export is the serializable shape of the store. Index state not reachable
// from Records is intentionally absent: Import rebuilds everything.
type Export struct {
	Records []*coderef.IndexRecord `json:"records"`
	Stats   Stats                  `json:"stats"`
}

// GetStats returns current store statistics.
func (s *Store) GetStats() Stats {
	return Stats{
		TotalRecords: len(s.records),
		KindCount:    len(s.byKind),
		PathCount:    len(s.byPath),
		ElementCount: len(s.byElement),
	}
}

// Export returns a snapshot of all records plus stats.
func (s *Store) Export() Export {
	return Export{
		Records: s.All(),
		Stats:   s.GetStats(),
	}
}

// Import replaces the store's contents with the given records, fully
// rebuilding the three forward indices. Pre-existing state is dropped.
// Duplicate ids in the input collapse to the first occurrence.
func (s *Store) Import(records []*coderef.IndexRecord) {
	s.reset()

	for _, rec := range records {
		if rec == nil {
			continue
		}
		if _, ok := s.byID[rec.ID]; ok {
			slog.Warn("import_duplicate_record", slog.String("id", rec.ID))
			continue
		}
		s.records = append(s.records, rec)
		s.byID[rec.ID] = rec
		s.byKind[rec.Ref.Kind] = append(s.byKind[rec.Ref.Kind], rec)
		s.byPath[rec.Ref.Path] = append(s.byPath[rec.Ref.Path], rec)
		if rec.Ref.Element != "" {
			s.byElement[rec.Ref.Element] = append(s.byElement[rec.Ref.Element], rec)
		}
	}

	slog.Debug("store_imported", slog.Int("records", len(s.records)))
}
