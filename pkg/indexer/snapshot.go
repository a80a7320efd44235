package indexer

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/srwlli/coderef/internal/errors"
	"github.com/srwlli/coderef/internal/meta"
	"github.com/srwlli/coderef/internal/relation"
	"github.com/srwlli/coderef/pkg/coderef"
)

// SchemaVersion is the current snapshot wire version. Import rejects any
// other version outright rather than attempting a partial read.
const SchemaVersion = 1

// Snapshot is the serializable state of a service. The metadata and
// relationship sections are informational: Import rebuilds both from the
// records themselves, so edges added with AddRelationship (which have no
// backing metadata) do not survive a round-trip.
type Snapshot struct {
	SchemaVersion int                    `json:"schema_version"`
	ExportedAt    time.Time              `json:"exported_at"`
	Records       []*coderef.IndexRecord `json:"records"`
	Metadata      []meta.CategoryExport  `json:"metadata"`
	Relations     relation.Export        `json:"relationships"`
	Stats         Stats                  `json:"stats"`
}

// Export captures the full service state.
func (s *Service) Export() Snapshot {
	return Snapshot{
		SchemaVersion: SchemaVersion,
		ExportedAt:    time.Now().UTC(),
		Records:       s.store.All(),
		Metadata:      s.meta.Export(),
		Relations:     s.graph.Export(),
		Stats:         s.GetStats(),
	}
}

// Import replaces the service state with the snapshot's records. The
// metadata index and relationship graph are recomputed from each record's
// own metadata; the snapshot's Metadata and Relations sections are ignored.
// Counters reset and the query cache is dropped.
func (s *Service) Import(snap Snapshot) error {
	if snap.SchemaVersion != SchemaVersion {
		return errors.New(errors.ErrCodeSchemaVersion,
			"snapshot schema version mismatch", nil).
			WithDetail("got", strconv.Itoa(snap.SchemaVersion)).
			WithDetail("want", strconv.Itoa(SchemaVersion))
	}

	s.store.Import(snap.Records)
	s.meta.Clear()
	s.graph.Clear()
	for _, rec := range s.store.All() {
		if len(rec.Ref.Metadata) > 0 {
			s.meta.IndexRecord(rec)
			s.graph.IndexRecord(rec)
		} else {
			s.graph.Bind(rec)
		}
	}

	s.engine.ClearCache()
	s.recentErrors.Clear()
	s.totalSubmitted = 0
	s.totalIndexed = s.store.Count()
	s.totalExisting = 0
	s.totalFailed = 0

	slog.Info("snapshot_imported",
		slog.Int("records", s.store.Count()),
		slog.Time("exported_at", snap.ExportedAt))

	return nil
}
