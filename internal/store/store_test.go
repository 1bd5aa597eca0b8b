package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterFileIsIdempotent(t *testing.T) {
	db := NewDatabase(nil, nil)
	id1 := db.RegisterFile("file:///a.graphql", FileKindSchema, LanguageGraphQL)
	id2 := db.RegisterFile("file:///a.graphql", FileKindSchema, LanguageGraphQL)
	assert.Equal(t, id1, id2)

	id3 := db.RegisterFile("file:///b.graphql", FileKindExecutableGraphQL, LanguageGraphQL)
	assert.NotEqual(t, id1, id3)
}

func TestSetTextIgnoresNoOpWrites(t *testing.T) {
	db := NewDatabase(nil, nil)
	id := db.RegisterFile("file:///a.graphql", FileKindSchema, LanguageGraphQL)
	before := db.current().rev

	db.SetText(id, "type Query { x: ID }")
	afterFirst := db.current().rev
	require.Greater(t, afterFirst, before)

	db.SetText(id, "type Query { x: ID }")
	afterSecond := db.current().rev
	assert.Equal(t, afterFirst, afterSecond, "identical text must not bump the revision")
}

func countingQuery(t *testing.T, db *Database, snap *Snapshot, id FileId, calls *int) (string, error) {
	qc := RootQueryContext(context.Background(), snap)
	return Query(qc, "upper_text", fileKey(id), DefaultEqual[string], func(child *QueryContext) (string, error) {
		*calls++
		text, _ := child.ReadText(id)
		return text, nil
	})
}

func TestQueryMemoizesUntilDependencyChanges(t *testing.T) {
	db := NewDatabase(nil, nil)
	id := db.RegisterFile("file:///a.graphql", FileKindSchema, LanguageGraphQL)
	db.SetText(id, "one")

	calls := 0
	snap := db.Snapshot()

	v1, err := countingQuery(t, db, snap, id, &calls)
	require.NoError(t, err)
	assert.Equal(t, "one", v1)
	assert.Equal(t, 1, calls)

	v2, err := countingQuery(t, db, snap, id, &calls)
	require.NoError(t, err)
	assert.Equal(t, "one", v2)
	assert.Equal(t, 1, calls, "second read against the same unchanged snapshot must hit the cache")

	db.SetText(id, "two")
	snap2 := db.Snapshot()
	v3, err := countingQuery(t, db, snap2, id, &calls)
	require.NoError(t, err)
	assert.Equal(t, "two", v3)
	assert.Equal(t, 2, calls, "a changed dependency forces recomputation")
}

func TestSnapshotIsolation(t *testing.T) {
	db := NewDatabase(nil, nil)
	id := db.RegisterFile("file:///a.graphql", FileKindSchema, LanguageGraphQL)
	db.SetText(id, "v1")

	snap := db.Snapshot()
	text, ok := snap.fileEntry(id)
	require.True(t, ok)
	assert.Equal(t, "v1", text.text)

	db.SetText(id, "v2")

	// The snapshot taken before the write must still observe the old text.
	entryAfterWrite, ok := snap.fileEntry(id)
	require.True(t, ok)
	assert.Equal(t, "v1", entryAfterWrite.text)

	fresh := db.Snapshot()
	freshEntry, ok := fresh.fileEntry(id)
	require.True(t, ok)
	assert.Equal(t, "v2", freshEntry.text)
}

func TestProjectFilesRejectsOverlap(t *testing.T) {
	pf := ProjectFiles{SchemaFileIds: []FileId{1, 2}, DocumentFileIds: []FileId{2, 3}}
	assert.False(t, pf.disjoint())
}

func TestBackdatingPreservesPointerIdentity(t *testing.T) {
	db := NewDatabase(nil, nil)
	schemaID := db.RegisterFile("file:///schema.graphql", FileKindSchema, LanguageGraphQL)
	docID := db.RegisterFile("file:///doc.graphql", FileKindExecutableGraphQL, LanguageGraphQL)
	db.SetText(schemaID, "type Query { x: ID }")
	db.SetText(docID, "query Q { x }")

	type boxed struct{ v string }
	eq := func(a, b *boxed) bool { return a.v == b.v }

	compute := func(qc *QueryContext) (*boxed, error) {
		text, _ := qc.ReadText(schemaID)
		return &boxed{v: text}, nil
	}

	snap1 := db.Snapshot()
	qc1 := RootQueryContext(context.Background(), snap1)
	v1, err := Query(qc1, "schema_box", "", eq, compute)
	require.NoError(t, err)

	// Editing an unrelated file's text must not change this query's value,
	// and since the recomputed value is equal, the store must backdate and
	// keep serving the same pointer.
	db.SetText(docID, "query Q { x y }")

	snap2 := db.Snapshot()
	qc2 := RootQueryContext(context.Background(), snap2)
	v2, err := Query(qc2, "schema_box", "", eq, compute)
	require.NoError(t, err)

	assert.Same(t, v1, v2, "unrelated edit must not change a node's recorded identity")
}

func TestCancellationTokenSignalsContext(t *testing.T) {
	tok := NewCancellationToken(context.Background())
	require.NoError(t, tok.Context().Err())
	tok.Cancel()
	assert.Error(t, tok.Context().Err())
}
