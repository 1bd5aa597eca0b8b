package ide

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jzeiders/graphql-intel/internal/store"
	"github.com/jzeiders/graphql-intel/internal/syntax"
)

func setupHost(t *testing.T) (*AnalysisHost, store.FileUri, store.FileUri) {
	t.Helper()
	h := NewAnalysisHost(nil, nil)

	schemaURI := store.FileUri("file:///schema.graphql")
	h.AddFile(schemaURI, store.FileKindSchema, store.LanguageGraphQL, `
type Query {
  user: User
}

type User {
  id: ID!
  name: String
}
`, 1)

	docURI := store.FileUri("file:///op.graphql")
	h.AddFile(docURI, store.FileKindExecutableGraphQL, store.LanguageGraphQL, `
query GetUser($id: ID!) {
  user {
    ...UserFields
  }
}

fragment UserFields on User {
  id
  name
}
`, 1)

	h.RebuildProjectFiles()
	return h, schemaURI, docURI
}

func posOf(text string, needle string) syntax.Position {
	li := syntax.NewLineIndex(text)
	idx := indexOf(text, needle)
	if idx < 0 {
		return syntax.Position{}
	}
	return li.PositionFor(idx)
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

const opText = `
query GetUser($id: ID!) {
  user {
    ...UserFields
  }
}

fragment UserFields on User {
  id
  name
}
`

func TestHoverOnFragmentSpreadShowsTypeCondition(t *testing.T) {
	h, _, docURI := setupHost(t)
	a := h.Snapshot()

	pos := posOf(opText, "UserFields")
	hover, err := a.Hover(context.Background(), docURI, pos)
	require.NoError(t, err)
	require.NotNil(t, hover)
	assert.Contains(t, hover.Contents, "fragment UserFields on User")
}

func TestHoverOnFieldShowsSignature(t *testing.T) {
	h, _, docURI := setupHost(t)
	a := h.Snapshot()

	pos := posOf(opText, "user {")
	hover, err := a.Hover(context.Background(), docURI, pos)
	require.NoError(t, err)
	require.NotNil(t, hover)
	assert.Contains(t, hover.Contents, "Query.user")
}

func TestGotoDefinitionOnFragmentSpreadResolvesToDefinition(t *testing.T) {
	h, _, docURI := setupHost(t)
	a := h.Snapshot()

	pos := posOf(opText, "UserFields")
	locs, err := a.GotoDefinition(context.Background(), docURI, pos)
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, docURI, locs[0].URI)
}

func TestGotoDefinitionOnFieldResolvesToSchemaFile(t *testing.T) {
	h, schemaURI, docURI := setupHost(t)
	a := h.Snapshot()

	pos := posOf(opText, "user {")
	locs, err := a.GotoDefinition(context.Background(), docURI, pos)
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, schemaURI, locs[0].URI)
}

func TestFindReferencesOnFragmentSpreadFindsItself(t *testing.T) {
	h, _, docURI := setupHost(t)
	a := h.Snapshot()

	pos := posOf(opText, "UserFields")
	locs, err := a.FindReferences(context.Background(), docURI, pos)
	require.NoError(t, err)
	require.Len(t, locs, 1)
}

func TestDocumentSymbolsListsOperationAndFragment(t *testing.T) {
	h, _, docURI := setupHost(t)
	a := h.Snapshot()

	syms, err := a.DocumentSymbols(context.Background(), docURI)
	require.NoError(t, err)
	var names []string
	for _, s := range syms {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "GetUser")
	assert.Contains(t, names, "UserFields")
}

func TestWorkspaceSymbolsFiltersByQuery(t *testing.T) {
	h, _, _ := setupHost(t)
	a := h.Snapshot()

	syms, err := a.WorkspaceSymbols(context.Background(), "userfields")
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, "UserFields", syms[0].Name)
}

func TestFileDiagnosticsReportsNoneForValidDocument(t *testing.T) {
	h, _, docURI := setupHost(t)
	a := h.Snapshot()

	diags, err := a.FileDiagnostics(context.Background(), docURI)
	require.NoError(t, err)
	assert.Empty(t, diags)
}

func TestFileDiagnosticsReportsUnknownField(t *testing.T) {
	h := NewAnalysisHost(nil, nil)
	schemaURI := store.FileUri("file:///schema.graphql")
	h.AddFile(schemaURI, store.FileKindSchema, store.LanguageGraphQL, `
type Query {
  user: User
}
type User {
  id: ID!
}
`, 1)
	docURI := store.FileUri("file:///bad.graphql")
	h.AddFile(docURI, store.FileKindExecutableGraphQL, store.LanguageGraphQL, `
query Bad {
  user {
    doesNotExist
  }
}
`, 1)
	h.RebuildProjectFiles()
	a := h.Snapshot()

	diags, err := a.FileDiagnostics(context.Background(), docURI)
	require.NoError(t, err)
	assert.NotEmpty(t, diags)
}

func TestCompletionsOffersFieldsAtSelectionContext(t *testing.T) {
	h, _, docURI := setupHost(t)
	a := h.Snapshot()

	// Position on the `UserFields` spread inside `user { ... }`'s
	// selection set, whose type is User.
	pos := posOf(opText, "UserFields")
	items, err := a.Completions(context.Background(), docURI, pos)
	require.NoError(t, err)
	var labels []string
	for _, it := range items {
		labels = append(labels, it.Label)
	}
	assert.Contains(t, labels, "id")
	assert.Contains(t, labels, "name")
}

func TestFoldingRangesCoversOperationBody(t *testing.T) {
	h, _, docURI := setupHost(t)
	a := h.Snapshot()

	ranges, err := a.FoldingRanges(context.Background(), docURI)
	require.NoError(t, err)
	assert.NotEmpty(t, ranges)
}

func TestCodeLensesReportsFragmentReferenceCount(t *testing.T) {
	h, _, docURI := setupHost(t)
	a := h.Snapshot()

	lenses, err := a.CodeLenses(context.Background(), docURI)
	require.NoError(t, err)
	require.Len(t, lenses, 1)
	assert.Equal(t, "1 reference", lenses[0].Title)
}

func TestSemanticTokensClassifiesFragmentSpread(t *testing.T) {
	h, _, docURI := setupHost(t)
	a := h.Snapshot()

	toks, err := a.SemanticTokens(context.Background(), docURI)
	require.NoError(t, err)
	found := false
	for _, tok := range toks {
		if tok.Kind == TokenFragmentName {
			found = true
		}
	}
	assert.True(t, found)
}

func TestInlayHintsAnnotatesFieldType(t *testing.T) {
	h, _, docURI := setupHost(t)
	a := h.Snapshot()

	hints, err := a.InlayHints(context.Background(), docURI)
	require.NoError(t, err)
	found := false
	for _, hint := range hints {
		if hint.Label == ": User" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestUpdateFileRejectsStaleVersion(t *testing.T) {
	h, _, docURI := setupHost(t)
	ok := h.UpdateFile(docURI, "query Newer { user { id } }", 0)
	assert.False(t, ok)
}

func TestAnalysisCancelledAfterWriterAdvances(t *testing.T) {
	h, _, docURI := setupHost(t)
	a := h.Snapshot()
	assert.False(t, a.Cancelled())

	h.UpdateFile(docURI, opText+"\n# trailing comment\n", 2)
	assert.True(t, a.Cancelled())
}
