package hir

import (
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/jzeiders/graphql-intel/internal/store"
	"github.com/jzeiders/graphql-intel/internal/syntax"
)

// ParsedFile is the memoized result of parsing one file's effective
// GraphQL text: for a pure .graphql file that is its own text; for a host
// file it is the extracted-and-concatenated text from internal/syntax,
// carrying an offset map back to host-file byte positions.
type ParsedFile struct {
	Kind            store.FileKind
	SchemaAST       *ast.SchemaDocument
	QueryAST        *ast.QueryDocument
	ParseErrors     []syntax.ParseError
	ExtractErrors   []syntax.ExtractDiagnostic
	EffectiveSource string
	HostOffsets     []int // len == len(EffectiveSource); -1 for synthetic bytes
	LineOffset      int
	// Interpolations are this file's `${name}` fragment interpolations
	// (host files only), already relocated into EffectiveSource's own
	// coordinate space (§4.2, Design Note "Cross-file fragment
	// interpolation"). They are merged into whichever operation/fragment
	// body's own AST range contains them, as an implicit fragment spread.
	Interpolations []syntax.EffectiveInterpolation
}

// HostOffset translates a byte offset in EffectiveSource back to the host
// file's byte offset, or -1 if it falls on a synthetic separator.
func (p ParsedFile) HostOffset(effectiveOffset int) int {
	if effectiveOffset < 0 {
		return -1
	}
	if effectiveOffset >= len(p.HostOffsets) {
		if len(p.HostOffsets) == 0 {
			return effectiveOffset
		}
		return p.HostOffsets[len(p.HostOffsets)-1]
	}
	return p.HostOffsets[effectiveOffset]
}

const extractConfigKey = "extract"

func defaultExtractConfig(qc *store.QueryContext) syntax.ExtractConfig {
	v, ok := qc.ReadConfig(extractConfigKey)
	if !ok {
		return syntax.DefaultExtractConfig()
	}
	cfg, ok := v.(syntax.ExtractConfig)
	if !ok {
		return syntax.DefaultExtractConfig()
	}
	return cfg
}

// ParseFile is the memoized "parse(FileId)" query (§4.2): its dependency
// set is exactly this file's text and metadata plus, for host files, the
// extract configuration.
func ParseFile(qc *store.QueryContext, id store.FileId) (ParsedFile, error) {
	return store.Query(qc, "parse_file", fileKey(id), store.DefaultEqual[ParsedFile], func(child *store.QueryContext) (ParsedFile, error) {
		text, ok := child.ReadText(id)
		if !ok {
			return ParsedFile{}, nil
		}
		meta, _ := child.ReadMetadata(id)

		var effective string
		var offsets []int
		var extractErrs []syntax.ExtractDiagnostic
		var interpolations []syntax.EffectiveInterpolation

		if meta.Kind == store.FileKindHostEmbedded {
			cfg := defaultExtractConfig(child)
			result := syntax.Extract(meta.Language, text, cfg)
			effective, offsets = result.EffectiveSource()
			extractErrs = result.Diagnostics
			interpolations = result.EffectiveInterpolations()
		} else {
			effective = text
			offsets = make([]int, len(text))
			for i := range offsets {
				offsets[i] = i
			}
		}

		parsed := ParsedFile{
			Kind:            meta.Kind,
			EffectiveSource: effective,
			HostOffsets:     offsets,
			LineOffset:      meta.LineOffset,
			ExtractErrors:   extractErrs,
			Interpolations:  interpolations,
		}

		switch meta.Kind {
		case store.FileKindSchema:
			sp := syntax.ParseSchema(string(meta.Uri), effective)
			parsed.SchemaAST = sp.AST
			parsed.ParseErrors = sp.Errors
		default:
			qp := syntax.ParseQuery(string(meta.Uri), effective)
			parsed.QueryAST = qp.AST
			parsed.ParseErrors = qp.Errors
		}

		return parsed, nil
	})
}

func fileKey(id store.FileId) string {
	return id.String()
}
