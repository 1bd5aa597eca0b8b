package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

func TestBuildMergedSchemaCombinesPartialFiles(t *testing.T) {
	sources := []*ast.Source{
		{Name: "a.graphql", Input: `
			type Query {
				user: User
			}
		`},
		{Name: "b.graphql", Input: `
			type User {
				id: ID!
				name: String
			}
		`},
	}

	merged, err := BuildMergedSchema(sources)
	require.NoError(t, err)
	require.NotNil(t, merged)
	assert.NotNil(t, merged.Query)
	assert.NotNil(t, merged.Types["User"])
}

func TestBuildMergedSchemaReportsMissingQuery(t *testing.T) {
	sources := []*ast.Source{
		{Name: "a.graphql", Input: `type User { id: ID! }`},
	}
	_, err := BuildMergedSchema(sources)
	assert.Error(t, err)
}

func parseOneType(t *testing.T, sdl string) *ast.Definition {
	t.Helper()
	doc, err := parser.ParseSchema(&ast.Source{Name: "t", Input: sdl})
	require.NoError(t, err)
	require.Len(t, doc.Definitions, 1)
	return doc.Definitions[0]
}

func TestDetectTypeConflictFindsFieldTypeMismatch(t *testing.T) {
	left := parseOneType(t, `type User { id: ID! name: String }`)
	right := parseOneType(t, `type User { id: ID! name: Int }`)

	conflict, err := DetectTypeConflict(left, right)
	require.NoError(t, err)
	require.NotNil(t, conflict)
	assert.Equal(t, "field", conflict.ConflictType)
}

func TestDetectTypeConflictAllowsIdenticalRedeclaration(t *testing.T) {
	left := parseOneType(t, `type User { id: ID! }`)
	right := parseOneType(t, `type User { id: ID! }`)

	conflict, err := DetectTypeConflict(left, right)
	require.NoError(t, err)
	assert.Nil(t, conflict)
}

func TestDetectTypeConflictFindsEnumMismatch(t *testing.T) {
	left := parseOneType(t, `enum Color { RED GREEN }`)
	right := parseOneType(t, `enum Color { RED BLUE }`)

	conflict, err := DetectTypeConflict(left, right)
	require.NoError(t, err)
	require.NotNil(t, conflict)
	assert.Equal(t, "enum", conflict.ConflictType)
}
