package hir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jzeiders/graphql-intel/internal/store"
)

func TestOperationBodyCollectsFragmentSpreadsAndVariables(t *testing.T) {
	db := newTestDB()
	id := db.RegisterFile("file:///op.graphql", store.FileKindExecutableGraphQL, store.LanguageGraphQL)
	db.SetText(id, `
query GetUser($id: ID!) {
  user(id: $id) {
    ...UserFields
  }
}

fragment UserFields on User {
  id
  name
}
`)

	qc := store.RootQueryContext(nil, db.Snapshot())
	body, err := OperationBodyOf(qc, id, 0)
	require.NoError(t, err)
	assert.Equal(t, "GetUser", body.Name)
	assert.Equal(t, []string{"UserFields"}, body.FragmentSpreads)
	require.Len(t, body.VariableUsages, 1)
	assert.Equal(t, "id", body.VariableUsages[0].VariableName)
	assert.Equal(t, "id", body.VariableUsages[0].ArgumentName)
}

func TestOperationBodyBackdatesAcrossUnrelatedFragmentEdit(t *testing.T) {
	db := newTestDB()
	id := db.RegisterFile("file:///op.graphql", store.FileKindExecutableGraphQL, store.LanguageGraphQL)
	db.SetText(id, `
query GetUser {
  user {
    id
  }
}

fragment Unused on User {
  id
}
`)
	qc1 := store.RootQueryContext(nil, db.Snapshot())
	body1, err := OperationBodyOf(qc1, id, 0)
	require.NoError(t, err)

	db.SetText(id, `
query GetUser {
  user {
    id
  }
}

fragment Unused on User {
  id
  name
}
`)
	qc2 := store.RootQueryContext(nil, db.Snapshot())
	body2, err := OperationBodyOf(qc2, id, 0)
	require.NoError(t, err)

	assert.Equal(t, body1, body2)
}

func TestOperationBodyTreatsFragmentInterpolationAsImplicitSpread(t *testing.T) {
	db := newTestDB()
	id := db.RegisterFile("file:///component.ts", store.FileKindHostEmbedded, store.LanguageTypeScript)
	db.SetText(id, "const FRAG = gql`fragment F on User { id }`;\nconst Q = gql`${FRAG} query Q { user { id } }`;\n")

	qc := store.RootQueryContext(nil, db.Snapshot())
	body, err := OperationBodyOf(qc, id, 0)
	require.NoError(t, err)
	assert.Equal(t, "Q", body.Name)
	assert.Contains(t, body.FragmentSpreads, "F", "a bare ${FRAG} interpolation with no explicit ...F spread must still register as a fragment dependency")
}

func TestFragmentBodyLooksUpByName(t *testing.T) {
	db := newTestDB()
	id := db.RegisterFile("file:///frag.graphql", store.FileKindExecutableGraphQL, store.LanguageGraphQL)
	db.SetText(id, `
fragment UserFields on User {
  id
  name
}
`)
	qc := store.RootQueryContext(nil, db.Snapshot())
	body, err := FragmentBodyOf(qc, id, "UserFields")
	require.NoError(t, err)
	assert.Equal(t, "UserFields", body.Name)
	require.Len(t, body.Selections, 2)
}
