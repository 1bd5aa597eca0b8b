package syntax

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTaggedTemplate(t *testing.T) {
	src := "const Q = gql`query Q { user { id } }`;\n"
	res := Extract(LanguageTypeScript, src, DefaultExtractConfig())

	require.Len(t, res.Blocks, 1)
	assert.Contains(t, res.Blocks[0].Source, "query Q")
	assert.False(t, strings.Contains(res.Blocks[0].Source, "`"))
}

func TestExtractIgnoresUnrecognizedTag(t *testing.T) {
	src := "const s = html`<div></div>`;\n"
	res := Extract(LanguageTypeScript, src, DefaultExtractConfig())
	assert.Empty(t, res.Blocks)
}

func TestExtractRawGraphqlImport(t *testing.T) {
	src := "import Doc from './query.graphql';\n"
	res := Extract(LanguageTypeScript, src, DefaultExtractConfig())
	require.Len(t, res.RawImports, 1)
	assert.Equal(t, "./query.graphql", res.RawImports[0].ModulePath)
	assert.False(t, res.RawImports[0].Unresolvable)
}

func TestEffectiveSourceConcatenatesBlocks(t *testing.T) {
	result := ExtractResult{Blocks: []Block{
		{Source: "fragment F on User { id }", RangeInHost: [2]int{10, 35}},
		{Source: "query Q { user { ...F } }", RangeInHost: [2]int{50, 75}},
	}}
	combined, offsets := result.EffectiveSource()
	assert.Contains(t, combined, "fragment F")
	assert.Contains(t, combined, "query Q")
	assert.Equal(t, len(combined), len(offsets))
}

func TestExtractRecordsFragmentInterpolation(t *testing.T) {
	src := "const FRAG = gql`fragment F on User { id }`;\nconst Q = gql`${FRAG} query Q { user { id } }`;\n"
	res := Extract(LanguageTypeScript, src, DefaultExtractConfig())

	require.Len(t, res.Blocks, 2)
	require.Len(t, res.Blocks[1].Interpolations, 1)
	assert.Equal(t, "FRAG", res.Blocks[1].Interpolations[0].Name)
	assert.False(t, strings.Contains(res.Blocks[1].Source, "${"), "the substitution text must be elided, not re-parsed")
}

func TestEffectiveInterpolationsRelocatesOffsetsAcrossBlocks(t *testing.T) {
	result := ExtractResult{Blocks: []Block{
		{Source: "fragment F on User { id }", RangeInHost: [2]int{10, 35}},
		{Source: " query Q { user { id } }", RangeInHost: [2]int{50, 74}, Interpolations: []FragmentInterpolation{
			{Name: "F", OffsetInBlock: 0},
		}},
	}}
	combined, _ := result.EffectiveSource()
	interps := result.EffectiveInterpolations()
	require.Len(t, interps, 1)
	assert.Equal(t, "F", interps[0].Name)
	// block 1 starts right after block 0's text plus the synthetic
	// separator EffectiveSource inserts between blocks.
	wantOffset := len(result.Blocks[0].Source) + 1
	assert.Equal(t, wantOffset, interps[0].Offset)
	assert.Less(t, interps[0].Offset, len(combined))
}
