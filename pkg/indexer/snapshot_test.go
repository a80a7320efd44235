package indexer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierrors "github.com/srwlli/coderef/internal/errors"
	"github.com/srwlli/coderef/internal/relation"
	"github.com/srwlli/coderef/pkg/coderef"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	// Given a populated service
	src := NewDefault()
	src.IndexReferences([]coderef.CodeReference{
		taggedRef("src/a.ts", "a", 1,
			coderef.Metadata{}.
				Set("status", coderef.String("stable")).
				Set("depends-on", coderef.Strings("function:src/b.ts:b:2"))),
		taggedRef("src/b.ts", "b", 2,
			coderef.Metadata{}.Set("security", coderef.String("critical"))),
	})

	// When the snapshot passes through JSON into a fresh service
	data, err := json.Marshal(src.Export())
	require.NoError(t, err)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))

	dst := NewDefault()
	require.NoError(t, dst.Import(snap))

	// Then every index answers as before
	assert.Equal(t, 2, dst.QueryByKind("function").Count)
	assert.Equal(t, 1, dst.QueryByMetadata("status", "stable").Count)
	assert.Equal(t, 1, dst.QueryByMetadata("security", "critical").Count)

	aID := coderef.CodeReference{Kind: "function", Path: "src/a.ts", Element: "a", Line: 1}.ID()
	edges := dst.Outgoing(aID, relation.KindDependsOn)
	require.Len(t, edges, 1)
	assert.True(t, edges[0].Resolved)

	stats := dst.GetStats()
	assert.Equal(t, 2, stats.TotalIndexed)
	assert.Equal(t, 0, stats.TotalFailed)
}

func TestSnapshot_DirectEdgesNotRoundTripped(t *testing.T) {
	src := NewDefault()
	a := src.IndexReference(funcRef("src/a.ts", "a", 1))
	b := src.IndexReference(funcRef("src/b.ts", "b", 2))
	require.NoError(t, src.AddRelationship(a.Record.ID, relation.KindCalls, b.Record.ID, nil))
	require.Len(t, src.Outgoing(a.Record.ID, relation.KindCalls), 1)

	dst := NewDefault()
	require.NoError(t, dst.Import(src.Export()))

	// Directly added edges have no backing metadata to rebuild from.
	assert.Empty(t, dst.Outgoing(a.Record.ID, relation.KindCalls))
	assert.Equal(t, 2, dst.GetStats().Store.TotalRecords)
}

func TestSnapshot_SchemaVersionMismatch(t *testing.T) {
	svc := NewDefault()
	svc.IndexReference(funcRef("src/a.ts", "a", 1))

	snap := svc.Export()
	snap.SchemaVersion = 99

	dst := NewDefault()
	err := dst.Import(snap)
	require.Error(t, err)
	assert.Equal(t, ierrors.ErrCodeSchemaVersion, ierrors.GetCode(err))

	// Failed import leaves the target untouched.
	assert.Equal(t, 0, dst.GetStats().Store.TotalRecords)
}

func TestSnapshot_ImportReplacesState(t *testing.T) {
	src := NewDefault()
	src.IndexReference(taggedRef("src/new.ts", "n", 1,
		coderef.Metadata{}.Set("status", coderef.String("stable"))))
	snap := src.Export()

	dst := NewDefault()
	dst.IndexReference(funcRef("src/old.ts", "o", 1))
	dst.IndexReference(coderef.CodeReference{Path: "src/bad.ts"})

	require.NoError(t, dst.Import(snap))

	assert.Equal(t, 0, dst.QueryByPath("src/old.ts").Count)
	assert.Equal(t, 1, dst.QueryByPath("src/new.ts").Count)
	assert.Equal(t, 0, dst.GetStats().TotalFailed)
	assert.Empty(t, dst.RecentErrors())
}
