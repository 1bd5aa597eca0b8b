package lint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gqlast "github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/jzeiders/graphql-intel/internal/hir"
	"github.com/jzeiders/graphql-intel/internal/store"
	"github.com/jzeiders/graphql-intel/pkg/schema"
)

func TestDefaultRegistryHasAllBuiltinRules(t *testing.T) {
	r := NewDefaultRegistry()
	names := []string{
		"unique_names", "no_anonymous_operations", "operation_name_suffix",
		"no_deprecated", "redundant_fields", "require_id_field",
		"unused_fragments", "unused_fields", "unused_variables",
	}
	for _, n := range names {
		assert.True(t, r.Has(n), "expected rule %q to be registered", n)
	}
	assert.Len(t, r.Standalone(), 3)
	assert.Len(t, r.SchemaAware(), 3)
	assert.Len(t, r.ProjectWide(), 3)
}

func parseDoc(t *testing.T, src string) *gqlast.QueryDocument {
	t.Helper()
	doc, err := parser.ParseQuery(&gqlast.Source{Input: src})
	require.NoError(t, err)
	return doc
}

func TestUniqueNamesFindsDuplicateOperation(t *testing.T) {
	doc := parseDoc(t, `
query GetUser { a }
query GetUser { b }
`)
	findings := uniqueNamesRule{}.CheckDocument(DocumentInput{Doc: doc})
	require.Len(t, findings, 1)
}

func TestNoAnonymousOperationsAllowsASoleUnnamedOperation(t *testing.T) {
	doc := parseDoc(t, `{ a }`)
	findings := noAnonymousOperationsRule{}.CheckDocument(DocumentInput{Doc: doc})
	assert.Empty(t, findings)
}

func TestNoAnonymousOperationsFlagsUnnamedOnceASecondOperationExists(t *testing.T) {
	doc := parseDoc(t, `
{ a }
query GetB { b }
`)
	findings := noAnonymousOperationsRule{}.CheckDocument(DocumentInput{Doc: doc})
	require.Len(t, findings, 1)
}

func TestOperationNameSuffixRequiresKindSuffix(t *testing.T) {
	doc := parseDoc(t, `query GetUser { a }`)
	findings := operationNameSuffixRule{}.CheckDocument(DocumentInput{Doc: doc})
	require.Len(t, findings, 1)

	doc2 := parseDoc(t, `query GetUserQuery { a }`)
	findings2 := operationNameSuffixRule{}.CheckDocument(DocumentInput{Doc: doc2})
	assert.Empty(t, findings2)
}

func buildSchema(t *testing.T) *gqlast.Schema {
	t.Helper()
	sch, err := schema.BuildMergedSchema([]*gqlast.Source{{Name: "t", Input: `
type Query {
  user: User
}

type User {
  id: ID!
  name: String
  oldName: String @deprecated(reason: "use name")
}
`}})
	require.NoError(t, err)
	return sch
}

func TestNoDeprecatedFlagsDeprecatedFieldSelection(t *testing.T) {
	sch := buildSchema(t)
	doc := parseDoc(t, `
query GetUser {
  user {
    id
    oldName
  }
}
`)
	findings := noDeprecatedRule{}.CheckDocumentWithSchema(DocumentInput{Doc: doc}, sch)
	require.Len(t, findings, 1)
}

func TestRedundantFieldsFindsDuplicateSelection(t *testing.T) {
	sch := buildSchema(t)
	doc := parseDoc(t, `
query GetUser {
  user {
    id
    id
  }
}
`)
	findings := redundantFieldsRule{}.CheckDocumentWithSchema(DocumentInput{Doc: doc}, sch)
	require.Len(t, findings, 1)
}

func TestUnusedFragmentsFlagsUnreachableFragment(t *testing.T) {
	db := store.NewDatabase(nil, nil)
	opID := db.RegisterFile("file:///op.graphql", store.FileKindExecutableGraphQL, store.LanguageGraphQL)
	db.SetText(opID, `
query GetUser {
  user {
    ...Used
  }
}

fragment Used on User {
  id
}

fragment Unused on User {
  id
}
`)
	db.SetProjectFiles(store.ProjectFiles{DocumentFileIds: []store.FileId{opID}})

	qc := store.RootQueryContext(nil, db.Snapshot())
	allFragments, _, err := hir.AllFragments(qc)
	require.NoError(t, err)

	bodies := make(map[string]hir.FragmentBody)
	for name, ref := range allFragments {
		body, err := hir.FragmentBodyOf(qc, ref.FileId, name)
		require.NoError(t, err)
		bodies[name] = body
	}

	structure, err := hir.FileStructureOf(qc, opID)
	require.NoError(t, err)
	require.Len(t, structure.Operations, 1)

	transitive, err := hir.OperationTransitiveFragments(qc, opID, structure.Operations[0].DefinitionIndex)
	require.NoError(t, err)

	body, err := hir.OperationBodyOf(qc, opID, structure.Operations[0].DefinitionIndex)
	require.NoError(t, err)

	input := ProjectInput{
		Operations: []OperationEntry{{
			FileID:              opID,
			DefinitionIndex:     structure.Operations[0].DefinitionIndex,
			Body:                body,
			TransitiveFragments: transitive,
		}},
		FragmentBodies: bodies,
		AllFragments:   allFragments,
	}

	findings := unusedFragmentsRule{}.CheckProject(input)
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Message, "Unused")
}

func TestUnusedVariablesFlagsUnreferencedVariable(t *testing.T) {
	db := store.NewDatabase(nil, nil)
	opID := db.RegisterFile("file:///op.graphql", store.FileKindExecutableGraphQL, store.LanguageGraphQL)
	db.SetText(opID, `
query GetUser($id: ID!, $unused: String) {
  user(id: $id) {
    id
  }
}
`)
	db.SetProjectFiles(store.ProjectFiles{DocumentFileIds: []store.FileId{opID}})

	qc := store.RootQueryContext(nil, db.Snapshot())
	structure, err := hir.FileStructureOf(qc, opID)
	require.NoError(t, err)
	body, err := hir.OperationBodyOf(qc, opID, structure.Operations[0].DefinitionIndex)
	require.NoError(t, err)
	transitive, err := hir.OperationTransitiveFragments(qc, opID, structure.Operations[0].DefinitionIndex)
	require.NoError(t, err)

	input := ProjectInput{
		Operations: []OperationEntry{{
			FileID:              opID,
			Variables:           structure.Operations[0].Variables,
			Body:                body,
			TransitiveFragments: transitive,
		}},
		FragmentBodies: map[string]hir.FragmentBody{},
	}

	findings := unusedVariablesRule{}.CheckProject(input)
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Message, "unused")
}
