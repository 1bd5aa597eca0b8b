package hir

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jzeiders/graphql-intel/internal/store"
)

func setupProject(t *testing.T, db *store.Database) (schemaID, docID store.FileId) {
	t.Helper()
	schemaID = db.RegisterFile("file:///schema.graphql", store.FileKindSchema, store.LanguageGraphQL)
	db.SetText(schemaID, `
type Query {
  user: User
}

type User {
  id: ID!
  name: String
}
`)
	docID = db.RegisterFile("file:///op.graphql", store.FileKindExecutableGraphQL, store.LanguageGraphQL)
	db.SetText(docID, `
query GetUser {
  user {
    ...UserFields
  }
}

fragment UserFields on User {
  id
  ...MoreFields
}

fragment MoreFields on User {
  name
}
`)
	db.SetProjectFiles(store.ProjectFiles{
		SchemaFileIds:   []store.FileId{schemaID},
		DocumentFileIds: []store.FileId{docID},
	})
	return schemaID, docID
}

func TestSchemaTypesMergesAcrossFiles(t *testing.T) {
	db := newTestDB()
	setupProject(t, db)

	qc := store.RootQueryContext(nil, db.Snapshot())
	types, conflicts, err := SchemaTypes(qc)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
	assert.Contains(t, types, "Query")
	assert.Contains(t, types, "User")
}

func TestSchemaTypesIsStableAcrossUnrelatedDocumentEdit(t *testing.T) {
	db := newTestDB()
	_, docID := setupProject(t, db)

	qc1 := store.RootQueryContext(nil, db.Snapshot())
	types1, _, err := SchemaTypes(qc1)
	require.NoError(t, err)

	db.SetText(docID, db_currentText(db, docID)+"\nfragment Extra on User { id }\n")

	qc2 := store.RootQueryContext(nil, db.Snapshot())
	types2, _, err := SchemaTypes(qc2)
	require.NoError(t, err)

	// schema_types never even reads the document file, so editing it must
	// not force recomputation: the returned map is the exact same backdated
	// reference both times.
	assert.Equal(t, reflect.ValueOf(types1).Pointer(), reflect.ValueOf(types2).Pointer())
}

func db_currentText(db *store.Database, id store.FileId) string {
	snap := db.Snapshot()
	qc := store.RootQueryContext(nil, snap)
	text, _ := qc.ReadText(id)
	return text
}

func TestOperationTransitiveFragmentsWalksClosure(t *testing.T) {
	db := newTestDB()
	_, docID := setupProject(t, db)

	qc := store.RootQueryContext(nil, db.Snapshot())
	result, err := OperationTransitiveFragments(qc, docID, 0)
	require.NoError(t, err)
	assert.False(t, result.Cycle)
	names := []string{}
	for _, f := range result.Fragments {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "UserFields")
	assert.Contains(t, names, "MoreFields")
}

func TestAllFragmentsReportsConflicts(t *testing.T) {
	db := newTestDB()
	docA := db.RegisterFile("file:///a.graphql", store.FileKindExecutableGraphQL, store.LanguageGraphQL)
	db.SetText(docA, "fragment Dup on User { id }")
	docB := db.RegisterFile("file:///b.graphql", store.FileKindExecutableGraphQL, store.LanguageGraphQL)
	db.SetText(docB, "fragment Dup on User { name }")
	db.SetProjectFiles(store.ProjectFiles{DocumentFileIds: []store.FileId{docA, docB}})

	qc := store.RootQueryContext(nil, db.Snapshot())
	_, conflicts, err := AllFragments(qc)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "Dup", conflicts[0].Name)
}
