package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srwlli/coderef/internal/config"
	"github.com/srwlli/coderef/internal/query"
	"github.com/srwlli/coderef/internal/relation"
	"github.com/srwlli/coderef/internal/telemetry"
	"github.com/srwlli/coderef/pkg/coderef"
)

func funcRef(path, element string, line int) coderef.CodeReference {
	return coderef.CodeReference{Kind: "function", Path: path, Element: element, Line: line}
}

func taggedRef(path, element string, line int, md coderef.Metadata) coderef.CodeReference {
	ref := funcRef(path, element, line)
	ref.Metadata = md
	return ref
}

func TestService_IndexReference_Created(t *testing.T) {
	// Given an empty service
	svc := NewDefault()

	// When a valid reference with metadata is indexed
	ref := taggedRef("src/utils/helpers.ts", "formatDate", 10,
		coderef.Metadata{}.
			Set("status", coderef.String("stable")).
			Set("depends-on", coderef.Strings("function:src/utils/parse.ts:parseDate:5")))
	res := svc.IndexReference(ref)

	// Then the pipeline completes with a new record
	assert.True(t, res.Success)
	assert.Equal(t, OutcomeCreated, res.Outcome)
	assert.Equal(t, StageReady, res.StageCompleted)
	require.NotNil(t, res.Record)
	assert.Equal(t, ref.ID(), res.Record.ID)

	// And every secondary index saw it
	assert.Equal(t, 1, svc.QueryByKind("function").Count)
	assert.Equal(t, 1, svc.QueryByMetadata("status", "stable").Count)

	edges := svc.Outgoing(res.Record.ID, relation.KindDependsOn)
	require.Len(t, edges, 1)
	assert.False(t, edges[0].Resolved)
}

func TestService_IndexReference_Duplicate(t *testing.T) {
	svc := NewDefault()
	ref := funcRef("src/a.ts", "a", 1)
	first := svc.IndexReference(ref)
	require.Equal(t, OutcomeCreated, first.Outcome)

	// Re-ingesting the same reference reports the existing record.
	second := svc.IndexReference(ref)
	assert.True(t, second.Success)
	assert.Equal(t, OutcomeExists, second.Outcome)
	assert.Same(t, first.Record, second.Record)

	stats := svc.GetStats()
	assert.Equal(t, 2, stats.TotalSubmitted)
	assert.Equal(t, 1, stats.TotalIndexed)
	assert.Equal(t, 1, stats.TotalExisting)
	assert.Equal(t, 1, stats.Store.TotalRecords)
}

func TestService_IndexReference_ValidationFailure(t *testing.T) {
	svc := NewDefault()

	// Missing kind fails before any stage completes.
	res := svc.IndexReference(coderef.CodeReference{Path: "src/a.ts"})
	assert.False(t, res.Success)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, StageNone, res.StageCompleted)
	assert.NotEmpty(t, res.Error)
	assert.Nil(t, res.Record)

	errs := svc.RecentErrors()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error, "kind is required")

	// A negative line fails struct validation, also before any stage.
	res = svc.IndexReference(coderef.CodeReference{Kind: "function", Path: "src/a.ts", Line: -1})
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, StageNone, res.StageCompleted)
	assert.Contains(t, res.Error, "invalid reference")

	assert.Equal(t, 2, svc.GetStats().TotalFailed)
	assert.Equal(t, 0, svc.GetStats().Store.TotalRecords)
}

func TestService_IndexReference_MissingPathFailsPathStage(t *testing.T) {
	svc := NewDefault()

	// Kind is present, so the type phase completes before the insert
	// rejects the missing path.
	res := svc.IndexReference(coderef.CodeReference{Kind: "function", Element: "a"})
	assert.False(t, res.Success)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, StageKind, res.StageCompleted)
	assert.Contains(t, res.Error, "path is required")
	assert.Equal(t, 0, svc.GetStats().Store.TotalRecords)
}

func TestService_IndexReferences_PartialFailure(t *testing.T) {
	svc := NewDefault()

	refs := []coderef.CodeReference{
		funcRef("src/a.ts", "a", 1),
		{Path: "src/broken.ts"}, // no kind
		funcRef("src/b.ts", "b", 2),
	}

	batch := svc.IndexReferences(refs)

	assert.Equal(t, 3, batch.TotalSubmitted)
	assert.Equal(t, 2, batch.TotalIndexed)
	assert.Equal(t, 1, batch.TotalFailed)
	assert.InDelta(t, 2.0/3.0, batch.SuccessRate, 1e-9)
	assert.Equal(t, StageNone, batch.StageReached)
	require.Len(t, batch.Errors, 1)
}

func TestService_IndexReferences_AllSucceed(t *testing.T) {
	svc := NewDefault()

	batch := svc.IndexReferences([]coderef.CodeReference{
		funcRef("src/a.ts", "a", 1),
		funcRef("src/b.ts", "b", 2),
	})

	assert.Equal(t, StageReady, batch.StageReached)
	assert.Equal(t, 1.0, batch.SuccessRate)
	assert.Empty(t, batch.Errors)
}

func TestService_RecentErrors_Bounded(t *testing.T) {
	svc := NewDefault()

	// 15 failures through a 10-entry ring keep only the newest 10.
	for i := 0; i < 15; i++ {
		svc.IndexReference(coderef.CodeReference{Path: fmt.Sprintf("src/%d.ts", i)})
	}

	errs := svc.RecentErrors()
	require.Len(t, errs, recentErrorCap)
	assert.Contains(t, errs[0].ReferenceID, "src/5.ts")
	assert.Contains(t, errs[len(errs)-1].ReferenceID, "src/14.ts")
}

func TestService_AddRelationship(t *testing.T) {
	svc := NewDefault()
	a := svc.IndexReference(funcRef("src/a.ts", "a", 1))
	b := svc.IndexReference(funcRef("src/b.ts", "b", 2))

	// A direct edge between two indexed records resolves immediately.
	err := svc.AddRelationship(a.Record.ID, relation.KindCalls, b.Record.ID, nil)
	require.NoError(t, err)

	edges := svc.Outgoing(a.Record.ID, relation.KindCalls)
	require.Len(t, edges, 1)
	assert.True(t, edges[0].Resolved)

	// Unknown source is rejected.
	err = svc.AddRelationship("function:nope.ts:x:1", relation.KindCalls, b.Record.ID, nil)
	assert.Error(t, err)

	// Unknown kind is rejected.
	err = svc.AddRelationship(a.Record.ID, "frobnicates", b.Record.ID, nil)
	assert.Error(t, err)
}

func TestService_GraphQueries(t *testing.T) {
	// Given a -> b -> c -> a dependency triangle
	svc := NewDefault()
	ids := make([]string, 3)
	for i, name := range []string{"a", "b", "c"} {
		res := svc.IndexReference(funcRef("src/"+name+".ts", name, 1))
		ids[i] = res.Record.ID
	}
	require.NoError(t, svc.AddRelationship(ids[0], relation.KindDependsOn, ids[1], nil))
	require.NoError(t, svc.AddRelationship(ids[1], relation.KindDependsOn, ids[2], nil))
	require.NoError(t, svc.AddRelationship(ids[2], relation.KindDependsOn, ids[0], nil))

	visits := svc.Traverse(ids[0], relation.KindDependsOn, 10)
	assert.Len(t, visits, 3)

	dependents := svc.TransitiveDependents(ids[2])
	assert.Len(t, dependents, 2)

	cycles := svc.FindCircularDependencies()
	require.Len(t, cycles, 1)
	assert.Len(t, cycles[0].Nodes, 3)
}

func TestService_QueryPassthroughs(t *testing.T) {
	svc := NewDefault()
	svc.IndexReferences([]coderef.CodeReference{
		taggedRef("utils/helpers/a.ts", "a", 1,
			coderef.Metadata{}.Set("status", coderef.String("stable"))),
		taggedRef("utils/helpers/b.ts", "b", 2,
			coderef.Metadata{}.Set("status", coderef.String("deprecated"))),
		taggedRef("core/c.ts", "c", 3,
			coderef.Metadata{}.Set("security", coderef.String("critical"))),
	})

	assert.Equal(t, 3, svc.QueryByKind("function").Count)
	assert.Equal(t, 1, svc.QueryByPath("core/c.ts").Count)
	assert.Equal(t, 2, svc.QueryByPathPrefix("utils/").Count)
	assert.Equal(t, 1, svc.QueryByElement("a").Count)
	assert.Equal(t, 2, svc.QueryByMetadataMultiple("status", []string{"stable", "deprecated"}).Count)
	assert.Equal(t, 2, svc.QueryByMetadataCategory("status").Count)

	res := svc.Where(func(rec *coderef.IndexRecord) bool {
		return rec.Ref.Line > 1
	})
	assert.Equal(t, 2, res.Count)

	page := svc.Paginate(func() *query.Result {
		return svc.QueryByKind("function")
	}, 1, 2)
	assert.Equal(t, 2, len(page.References))
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.Pages)
}

func TestService_WithMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := telemetry.NewMetrics(reg)
	svc := NewDefault(WithMetrics(m))

	svc.IndexReference(funcRef("src/a.ts", "a", 1))
	svc.IndexReference(funcRef("src/a.ts", "a", 1))
	svc.IndexReference(coderef.CodeReference{Path: "src/bad.ts"})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReferencesIndexed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReferencesExisted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReferencesFailed))
}

func TestNew_AppliesConfiguredLogLevel(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	cfg := config.Default()
	cfg.Logging.Level = "error"
	_, err := New(cfg)
	require.NoError(t, err)

	ctx := context.Background()
	assert.False(t, slog.Default().Enabled(ctx, slog.LevelWarn))
	assert.True(t, slog.Default().Enabled(ctx, slog.LevelError))
}

func TestService_ExtraCategories(t *testing.T) {
	cfg := config.Default()
	cfg.Metadata.ExtraCategories = []string{"team"}
	svc, err := New(cfg)
	require.NoError(t, err)

	svc.IndexReference(taggedRef("src/a.ts", "a", 1,
		coderef.Metadata{}.Set("team:platform", coderef.Bool(true))))

	// "team" is a recognized category, not a custom tag.
	assert.Equal(t, 1, svc.QueryByMetadata("team", "platform").Count)
	assert.Equal(t, 0, svc.QueryByMetadataCategory("custom").Count)
}

func TestService_Reset(t *testing.T) {
	svc := NewDefault()
	svc.IndexReference(taggedRef("src/a.ts", "a", 1,
		coderef.Metadata{}.Set("status", coderef.String("stable"))))
	svc.IndexReference(coderef.CodeReference{Path: "src/bad.ts"})

	svc.Reset()

	stats := svc.GetStats()
	assert.Equal(t, 0, stats.Store.TotalRecords)
	assert.Equal(t, 0, stats.Metadata.EntryCount)
	assert.Equal(t, 0, stats.Relations.NodeCount)
	assert.Equal(t, 0, stats.TotalSubmitted)
	assert.Equal(t, 0, stats.TotalFailed)
	assert.Empty(t, svc.RecentErrors())
}
