package syntax

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"
)

// ParseError is a positioned syntax error from the tolerant parser. Offset
// is always a valid byte offset into the parsed source — the ParseError
// position policy (§4.2) forbids defaulting to 0 when the underlying
// parser error carries no usable location; callers that hit that case use
// the end of the source as the nearest prior token's end offset.
type ParseError struct {
	Message string
	Offset  int
}

// SchemaParse is the result of parsing one schema file. AST is always
// non-nil, even when Errors is non-empty, per Property 1 (parse
// tolerance): gqlparser's recursive-descent parser recovers locally from
// most syntax errors and keeps building the document.
type SchemaParse struct {
	AST    *ast.SchemaDocument
	Errors []ParseError
}

// QueryParse is the result of parsing one executable-document file
// (operations and/or fragments).
type QueryParse struct {
	AST    *ast.QueryDocument
	Errors []ParseError
}

// ParseSchema parses text as a schema document (type definitions,
// extensions, directive definitions). name is used only for error
// messages and as the gqlparser ast.Source name.
func ParseSchema(name, text string) SchemaParse {
	src := &ast.Source{Name: name, Input: text}
	doc, err := parser.ParseSchema(src)
	if doc == nil {
		// gqlparser returns a nil document on a fatal early error (e.g. an
		// unterminated string at position 0); synthesize an empty one so
		// callers never see a nil AST.
		doc = &ast.SchemaDocument{}
	}
	return SchemaParse{AST: doc, Errors: toParseErrors(src, text, err)}
}

// ParseQuery parses text as an executable document (operations and
// fragments only — no type system definitions).
func ParseQuery(name, text string) QueryParse {
	src := &ast.Source{Name: name, Input: text}
	doc, err := parser.ParseQuery(src)
	if doc == nil {
		doc = &ast.QueryDocument{}
	}
	return QueryParse{AST: doc, Errors: toParseErrors(src, text, err)}
}

func toParseErrors(src *ast.Source, text string, err *gqlerror.Error) []ParseError {
	if err == nil {
		return nil
	}
	var out []ParseError
	for _, e := range flattenGqlError(err) {
		out = append(out, ParseError{
			Message: e.Message,
			Offset:  offsetOf(src, text, e),
		})
	}
	return out
}

// flattenGqlError normalizes a gqlerror.Error (which may wrap a .Locations
// list with more than one entry in rare multi-location cases) into one
// ParseError source per location, falling back to a single entry with no
// location information.
func flattenGqlError(err *gqlerror.Error) []*gqlerror.Error {
	if len(err.Locations) <= 1 {
		return []*gqlerror.Error{err}
	}
	out := make([]*gqlerror.Error, 0, len(err.Locations))
	for _, loc := range err.Locations {
		out = append(out, &gqlerror.Error{Message: err.Message, Locations: []gqlerror.Location{loc}})
	}
	return out
}

func offsetOf(src *ast.Source, text string, err *gqlerror.Error) int {
	if len(err.Locations) == 0 {
		// No usable location: treat the end of the tokenized input as the
		// nearest prior token's end offset, per the ParseError position
		// policy — never (0,0).
		return len(text)
	}
	loc := err.Locations[0]
	return byteOffsetFromLineColumn(text, loc.Line, loc.Column)
}

// byteOffsetFromLineColumn converts gqlparser's 1-based (line, column)
// (column counted in runes) into a byte offset within text.
func byteOffsetFromLineColumn(text string, line, column int) int {
	if line < 1 {
		line = 1
	}
	curLine := 1
	i := 0
	for curLine < line && i < len(text) {
		if text[i] == '\n' {
			curLine++
		}
		i++
	}
	if curLine < line {
		return len(text)
	}
	// Walk `column-1` runes into the line.
	remaining := column - 1
	for remaining > 0 && i < len(text) {
		_, size := decodeRuneSize(text[i:])
		i += size
		remaining--
	}
	if i > len(text) {
		i = len(text)
	}
	return i
}

// decodeRuneSize returns a rune's UTF-8 encoded length without pulling in
// a full decode when only the size is needed for offset walking.
func decodeRuneSize(s string) (byte, int) {
	if len(s) == 0 {
		return 0, 0
	}
	b := s[0]
	switch {
	case b < 0x80:
		return b, 1
	case b>>5 == 0x6:
		return b, 2
	case b>>4 == 0xE:
		return b, 3
	case b>>3 == 0x1E:
		return b, 4
	default:
		return b, 1
	}
}

// ErrorForHumans renders a ParseError for CLI/log output; engine callers
// should prefer translating Offset through a LineIndex into a Diagnostic.
func (e ParseError) ErrorForHumans() string {
	return fmt.Sprintf("%d: %s", e.Offset, e.Message)
}
