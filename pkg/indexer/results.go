package indexer

import (
	"time"

	"github.com/srwlli/coderef/internal/meta"
	"github.com/srwlli/coderef/internal/query"
	"github.com/srwlli/coderef/internal/relation"
	"github.com/srwlli/coderef/internal/store"
	"github.com/srwlli/coderef/pkg/coderef"
)

// Stage names one step of the ingestion pipeline, in execution order.
type Stage string

const (
	// StageNone means ingestion failed before any stage completed.
	StageNone Stage = "none"
	// StageKind means the kind phase of the store insert completed.
	StageKind Stage = "indexing-type"
	// StagePath means the record was inserted under the kind and path
	// indices.
	StagePath Stage = "indexing-path"
	// StageMetadata means metadata tags were indexed.
	StageMetadata Stage = "indexing-metadata"
	// StageRelationships means relationship edges were derived.
	StageRelationships Stage = "indexing-relationships"
	// StageReady means the pipeline completed.
	StageReady Stage = "ready"
)

// Outcome makes idempotent re-ingestion observable to callers instead of
// collapsing it into a plain success.
type Outcome string

const (
	// OutcomeCreated means a new record was indexed.
	OutcomeCreated Outcome = "created"
	// OutcomeExists means the reference was already indexed; the existing
	// record is returned untouched.
	OutcomeExists Outcome = "already-present"
	// OutcomeFailed means ingestion failed; see Error.
	OutcomeFailed Outcome = "failed"
)

// IndexResult reports one reference's trip through the pipeline.
type IndexResult struct {
	Success        bool                  `json:"success"`
	Outcome        Outcome               `json:"outcome"`
	Reference      coderef.CodeReference `json:"reference"`
	Record         *coderef.IndexRecord  `json:"record,omitempty"`
	Error          string                `json:"error,omitempty"`
	StageCompleted Stage                 `json:"stage_completed"`
}

// IndexError is one entry in the bounded recent-error log.
type IndexError struct {
	ReferenceID string `json:"reference_id"`
	Error       string `json:"error"`
}

// BatchResult summarizes one batch ingestion. A failed item never aborts
// the batch; the host decides whether any failure rate is fatal.
type BatchResult struct {
	TotalSubmitted int           `json:"total_submitted"`
	TotalIndexed   int           `json:"total_indexed"`
	TotalFailed    int           `json:"total_failed"`
	SuccessRate    float64       `json:"success_rate"`
	Duration       time.Duration `json:"duration"`
	StageReached   Stage         `json:"stage_reached"`
	Errors         []IndexError  `json:"errors"`
}

// Stats aggregates every component's statistics plus service totals.
type Stats struct {
	Store          store.Stats    `json:"store"`
	Metadata       meta.Stats     `json:"metadata"`
	Relations      relation.Stats `json:"relationships"`
	Query          query.Stats    `json:"query"`
	TotalSubmitted int            `json:"total_submitted"`
	TotalIndexed   int            `json:"total_indexed"`
	TotalExisting  int            `json:"total_existing"`
	TotalFailed    int            `json:"total_failed"`
}
