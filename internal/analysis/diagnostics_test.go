package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jzeiders/graphql-intel/internal/store"
	"github.com/jzeiders/graphql-intel/pkg/config"
)

func setupProject(t *testing.T) (db *store.Database, schemaID, docID store.FileId) {
	t.Helper()
	db = store.NewDatabase(nil, nil)
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
    id
    name
  }
}
`)
	db.SetProjectFiles(store.ProjectFiles{
		SchemaFileIds:   []store.FileId{schemaID},
		DocumentFileIds: []store.FileId{docID},
	})
	return db, schemaID, docID
}

func TestMergedSchemaBuildsFromPartialFiles(t *testing.T) {
	db, _, _ := setupProject(t)
	qc := store.RootQueryContext(nil, db.Snapshot())
	result, err := MergedSchema(qc)
	require.NoError(t, err)
	require.NotNil(t, result.Schema)
	assert.Empty(t, result.Diagnostics)
}

func TestMergedSchemaReportsDuplicateType(t *testing.T) {
	db, schemaID, _ := setupProject(t)
	other := db.RegisterFile("file:///schema2.graphql", store.FileKindSchema, store.LanguageGraphQL)
	db.SetText(other, `
type User {
  id: ID!
  name: Int
}
`)
	db.SetProjectFiles(store.ProjectFiles{
		SchemaFileIds:   []store.FileId{schemaID, other},
		DocumentFileIds: []store.FileId{},
	})

	qc := store.RootQueryContext(nil, db.Snapshot())
	result, err := MergedSchema(qc)
	require.NoError(t, err)
	require.NotEmpty(t, result.Diagnostics)
	found := false
	for _, d := range result.Diagnostics {
		if d.Code == "duplicate-type" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateFileFlagsUnknownField(t *testing.T) {
	db, _, docID := setupProject(t)
	db.SetText(docID, `
query GetUser {
  user {
    nope
  }
}
`)
	qc := store.RootQueryContext(nil, db.Snapshot())
	diags, err := ValidateFile(qc, docID)
	require.NoError(t, err)
	require.NotEmpty(t, diags)
}

func TestValidateFileAcceptsValidDocument(t *testing.T) {
	db, _, docID := setupProject(t)
	qc := store.RootQueryContext(nil, db.Snapshot())
	diags, err := ValidateFile(qc, docID)
	require.NoError(t, err)
	assert.Empty(t, diags)
}

func TestLintFileAllowsASoleAnonymousOperation(t *testing.T) {
	db, _, docID := setupProject(t)
	db.SetText(docID, `
query {
  user {
    id
  }
}
`)
	db.SetConfig("lint", config.LintConfig{Recommended: true, Rules: map[string]string{}})

	qc := store.RootQueryContext(nil, db.Snapshot())
	diags, err := LintFile(qc, docID)
	require.NoError(t, err)

	for _, d := range diags {
		assert.NotEqual(t, "no_anonymous_operations", d.Code)
	}
}

func TestLintFileFlagsAnonymousOperationOnceASecondOperationExists(t *testing.T) {
	db, _, docID := setupProject(t)
	db.SetText(docID, `
query {
  user {
    id
  }
}

query GetUser {
  user {
    id
  }
}
`)
	db.SetConfig("lint", config.LintConfig{Recommended: true, Rules: map[string]string{}})

	qc := store.RootQueryContext(nil, db.Snapshot())
	diags, err := LintFile(qc, docID)
	require.NoError(t, err)

	found := false
	for _, d := range diags {
		if d.Code == "no_anonymous_operations" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestFileDiagnosticsComposesAllSources(t *testing.T) {
	db, _, docID := setupProject(t)
	qc := store.RootQueryContext(nil, db.Snapshot())
	diags, err := FileDiagnostics(qc, docID)
	require.NoError(t, err)
	assert.NotNil(t, diags)
}
