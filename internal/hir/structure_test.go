package hir

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jzeiders/graphql-intel/internal/store"
)

func newTestDB() *store.Database {
	return store.NewDatabase(nil, nil)
}

func TestFileStructureExtractsSchemaTypes(t *testing.T) {
	db := newTestDB()
	id := db.RegisterFile("file:///schema.graphql", store.FileKindSchema, store.LanguageGraphQL)
	db.SetText(id, `
type Query {
  hello: String!
}

type User {
  id: ID!
  name: String
}
`)

	qc := store.RootQueryContext(nil, db.Snapshot())
	fs, err := FileStructureOf(qc, id)
	require.NoError(t, err)
	require.Len(t, fs.Types, 2)
	assert.Equal(t, "Query", fs.Types[0].Name)
	assert.Equal(t, "User", fs.Types[1].Name)
	assert.Equal(t, TypeKindObject, fs.Types[1].Kind)
	require.Len(t, fs.Types[1].Fields, 2)
	assert.Equal(t, "id", fs.Types[1].Fields[0].Name)
}

func TestFileStructureBackdatesAcrossUnrelatedBodyEdit(t *testing.T) {
	db := newTestDB()
	docID := db.RegisterFile("file:///op.graphql", store.FileKindExecutableGraphQL, store.LanguageGraphQL)
	db.SetText(docID, `
query GetUser {
  user {
    id
  }
}
`)

	qc1 := store.RootQueryContext(nil, db.Snapshot())
	fs1, err := FileStructureOf(qc1, docID)
	require.NoError(t, err)

	// Edit only the selection body, leaving the operation's name/signature
	// (and therefore the file's overall byte length up to that point)
	// unchanged at the structural level.
	db.SetText(docID, `
query GetUser {
  user {
    id
    name
  }
}
`)

	qc2 := store.RootQueryContext(nil, db.Snapshot())
	fs2, err := FileStructureOf(qc2, docID)
	require.NoError(t, err)

	assert.Equal(t, fs1.Operations[0].Name, fs2.Operations[0].Name)
	assert.Equal(t, reflect.ValueOf(fs1.Operations).Pointer(), reflect.ValueOf(fs2.Operations).Pointer())
}
