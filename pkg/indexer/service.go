// Package indexer is the public entry point of the coderef engine: an
// orchestration facade that owns one instance each of the reference store,
// the metadata index, the relationship graph, and the query engine, and
// wires them into a single ingestion/query pipeline.
//
// The service is single-writer: concurrent mutation from multiple
// goroutines must be serialized by the host.
package indexer

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/srwlli/coderef/internal/config"
	"github.com/srwlli/coderef/internal/errors"
	"github.com/srwlli/coderef/internal/logging"
	"github.com/srwlli/coderef/internal/meta"
	"github.com/srwlli/coderef/internal/query"
	"github.com/srwlli/coderef/internal/relation"
	"github.com/srwlli/coderef/internal/store"
	"github.com/srwlli/coderef/internal/telemetry"
	"github.com/srwlli/coderef/pkg/coderef"
)

// recentErrorCap bounds the service's recent-error log.
const recentErrorCap = 10

// Service is the indexing and query facade.
type Service struct {
	store  *store.Store
	meta   *meta.Index
	graph  *relation.Graph
	engine *query.Engine

	validate     *validator.Validate
	metrics      *telemetry.Metrics
	recentErrors *telemetry.RingBuffer[IndexError]

	totalSubmitted int
	totalIndexed   int
	totalExisting  int
	totalFailed    int
}

// Option configures optional service behavior.
type Option func(*Service)

// WithMetrics attaches Prometheus collectors for ingestion counts and
// query latency.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New creates a service from the given configuration. A configured log
// level installs a JSON logger as the process default; leave Logging.Level
// empty to keep the host's logger.
func New(cfg config.Config, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Logging.Level != "" {
		slog.SetDefault(logging.Setup(logging.Config{Level: cfg.Logging.Level}))
	}

	metaCfg := meta.DefaultConfig()
	if len(cfg.Metadata.ExtraCategories) > 0 {
		categories := make([]string, 0, len(metaCfg.Categories)+len(cfg.Metadata.ExtraCategories))
		categories = append(categories, metaCfg.Categories...)
		categories = append(categories, cfg.Metadata.ExtraCategories...)
		metaCfg.Categories = categories
	}

	s := store.New()
	m := meta.New(metaCfg)
	g := relation.New(relation.DefaultConfig())

	engine, err := query.New(s, m, g, query.Config{
		EnableCaching: cfg.Query.EnableCaching,
		CacheMaxSize:  cfg.Query.CacheMaxSize,
		CacheTTL:      cfg.Query.CacheTTL,
	})
	if err != nil {
		return nil, err
	}

	svc := &Service{
		store:        s,
		meta:         m,
		graph:        g,
		engine:       engine,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		recentErrors: telemetry.NewRingBuffer[IndexError](recentErrorCap),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// NewDefault creates a service with default configuration.
func NewDefault(opts ...Option) *Service {
	svc, err := New(config.Default(), opts...)
	if err != nil {
		// Default config always validates.
		panic("indexer.NewDefault: " + err.Error())
	}
	return svc
}

// IndexReference runs one reference through the pipeline. It never returns
// an error: every failure is converted into a failed IndexResult carrying
// the last stage that actually completed.
func (s *Service) IndexReference(ref coderef.CodeReference) IndexResult {
	s.totalSubmitted++

	// Kind and Path presence is the store's own contract; the validator
	// covers everything else (line bounds and future constraints).
	if err := s.validate.StructExcept(ref, "Kind", "Path"); err != nil {
		return s.fail(ref, StageNone, fmt.Errorf("invalid reference: %w", err))
	}

	rec, created, err := s.store.Add(ref)
	if err != nil {
		// The insert checks kind before path. A missing path therefore
		// fails the path phase with the type phase already passed;
		// indices stay untouched either way.
		stage := StageNone
		if errors.GetCode(err) == errors.ErrCodeMissingPath {
			stage = StageKind
		}
		return s.fail(ref, stage, err)
	}
	stage := StagePath // kind and path indices are populated by one insert

	if !created {
		// Idempotent re-ingestion: the existing record is returned and
		// the secondary indices are left untouched.
		slog.Warn("reference_already_indexed", slog.String("id", rec.ID))
		s.totalExisting++
		if s.metrics != nil {
			s.metrics.ReferencesExisted.Inc()
		}
		return IndexResult{
			Success:        true,
			Outcome:        OutcomeExists,
			Reference:      ref,
			Record:         rec,
			StageCompleted: StageReady,
		}
	}

	if len(ref.Metadata) > 0 {
		s.meta.IndexRecord(rec)
		stage = StageMetadata

		s.graph.IndexRecord(rec)
		stage = StageRelationships
	} else {
		// Records referenced by earlier edges still bind to their
		// placeholder nodes.
		s.graph.Bind(rec)
	}

	s.totalIndexed++
	if s.metrics != nil {
		s.metrics.ReferencesIndexed.Inc()
	}

	slog.Debug("reference_indexed",
		slog.String("id", rec.ID),
		slog.String("stage", string(stage)))

	return IndexResult{
		Success:        true,
		Outcome:        OutcomeCreated,
		Reference:      ref,
		Record:         rec,
		StageCompleted: StageReady,
	}
}

// fail converts an error into a failed result and records it.
func (s *Service) fail(ref coderef.CodeReference, stage Stage, err error) IndexResult {
	s.totalFailed++
	if s.metrics != nil {
		s.metrics.ReferencesFailed.Inc()
	}

	entry := IndexError{ReferenceID: ref.ID(), Error: err.Error()}
	s.recentErrors.Add(entry)

	slog.Warn("reference_index_failed",
		slog.String("id", entry.ReferenceID),
		slog.String("stage", string(stage)),
		slog.String("error", entry.Error))

	return IndexResult{
		Success:        false,
		Outcome:        OutcomeFailed,
		Reference:      ref,
		Error:          err.Error(),
		StageCompleted: stage,
	}
}

// IndexReferences ingests a batch. One item's failure never aborts the
// batch; the summary carries counts and the batch's errors (capped at the
// recent-error bound).
func (s *Service) IndexReferences(refs []coderef.CodeReference) BatchResult {
	start := time.Now()

	result := BatchResult{
		TotalSubmitted: len(refs),
		StageReached:   StageReady,
	}

	for _, ref := range refs {
		r := s.IndexReference(ref)
		if r.Success {
			result.TotalIndexed++
			continue
		}
		result.TotalFailed++
		result.StageReached = r.StageCompleted
		if len(result.Errors) < recentErrorCap {
			result.Errors = append(result.Errors, IndexError{
				ReferenceID: ref.ID(),
				Error:       r.Error,
			})
		}
	}

	if result.TotalSubmitted > 0 {
		result.SuccessRate = float64(result.TotalIndexed) / float64(result.TotalSubmitted)
	}
	result.Duration = time.Since(start)

	slog.Info("batch_indexed",
		slog.Int("submitted", result.TotalSubmitted),
		slog.Int("indexed", result.TotalIndexed),
		slog.Int("failed", result.TotalFailed),
		slog.Duration("duration", result.Duration))

	return result
}

// AddRelationship adds a direct edge between two record ids. The source
// must be indexed; the target may be a not-yet-ingested id. Edges added
// this way are not reflected in any record's metadata and are therefore
// lost on an export/import round-trip.
func (s *Service) AddRelationship(fromID, kind, toID string, md coderef.Metadata) error {
	from := s.store.Get(fromID)
	if from == nil {
		return fmt.Errorf("unknown source record: %s", fromID)
	}

	target := relation.ToID(toID)
	if rec := s.store.Get(toID); rec != nil {
		target = relation.To(rec)
	}

	_, err := s.graph.Link(from, kind, target, md)
	return err
}

// RecentErrors returns the bounded recent-error log, oldest first.
func (s *Service) RecentErrors() []IndexError {
	return s.recentErrors.Items()
}

// GetStats aggregates component statistics and service totals.
func (s *Service) GetStats() Stats {
	return Stats{
		Store:          s.store.GetStats(),
		Metadata:       s.meta.GetStats(),
		Relations:      s.graph.GetStats(),
		Query:          s.engine.GetStats(),
		TotalSubmitted: s.totalSubmitted,
		TotalIndexed:   s.totalIndexed,
		TotalExisting:  s.totalExisting,
		TotalFailed:    s.totalFailed,
	}
}

// Reset clears every component and all counters.
func (s *Service) Reset() {
	s.store.Clear()
	s.meta.Clear()
	s.graph.Clear()
	s.engine.ClearCache()
	s.recentErrors.Clear()
	s.totalSubmitted = 0
	s.totalIndexed = 0
	s.totalExisting = 0
	s.totalFailed = 0

	slog.Info("indexer_reset")
}
