package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSchemaWellFormed(t *testing.T) {
	p := ParseSchema("schema.graphql", "type Query { user: User }\ntype User { id: ID! name: String }")
	require.NotNil(t, p.AST)
	assert.Empty(t, p.Errors)
	assert.Len(t, p.AST.Definitions, 2)
}

func TestParseSchemaToleratesSyntaxErrors(t *testing.T) {
	p := ParseSchema("schema.graphql", "type Query { user: }")
	assert.NotNil(t, p.AST, "a tree must always be returned, even on error")
	assert.NotEmpty(t, p.Errors)
	for _, e := range p.Errors {
		assert.NotEqual(t, 0, e.Offset, "offset must never default to 0 when the source is non-empty")
	}
}

func TestParseQueryWellFormed(t *testing.T) {
	p := ParseQuery("doc.graphql", "query GetUser { user { id name } }")
	require.NotNil(t, p.AST)
	assert.Empty(t, p.Errors)
	require.Len(t, p.AST.Operations, 1)
	assert.Equal(t, "GetUser", p.AST.Operations[0].Name)
}

func TestByteOffsetFromLineColumn(t *testing.T) {
	text := "line one\nline two\nline three"
	offset := byteOffsetFromLineColumn(text, 2, 6)
	assert.Equal(t, len("line one\n")+5, offset)
}
