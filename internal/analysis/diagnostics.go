// Package analysis sits above internal/hir: it builds the project's
// single validated schema, runs gqlparser's query/fragment validator
// against each document, and dispatches the lint engine, merging every
// source of diagnostics into the file_diagnostics query IDE features
// consume.
package analysis

import (
	"github.com/jzeiders/graphql-intel/internal/store"
	"github.com/jzeiders/graphql-intel/internal/syntax"
)

// Severity mirrors the LSP diagnostic severity levels.
type Severity int

const (
	SeverityError Severity = iota + 1
	SeverityWarning
	SeverityInformation
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "information"
	case SeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}

// Diagnostic is the engine's unified diagnostic shape: every producer
// (tolerant parse errors, extraction failures, schema-merge conflicts,
// query/fragment validation, lint rules) converges on this type before
// reaching pkg/ide.
type Diagnostic struct {
	Range    syntax.Range
	Severity Severity
	Source   string // "parser" | "extract" | "schema" | "validation" | "lint"
	Code     string
	Message  string
}

func parseErrorToDiagnostic(source string, lineIndex *syntax.LineIndex, perr syntax.ParseError) Diagnostic {
	pos := lineIndex.PositionFor(perr.Offset)
	return Diagnostic{
		Range:    syntax.Range{Start: pos, End: pos},
		Severity: SeverityError,
		Source:   source,
		Message:  perr.Message,
	}
}

func extractDiagnosticToDiagnostic(lineIndex *syntax.LineIndex, d syntax.ExtractDiagnostic) Diagnostic {
	pos := lineIndex.PositionFor(d.Offset)
	return Diagnostic{
		Range:    syntax.Range{Start: pos, End: pos},
		Severity: SeverityWarning,
		Source:   "extract",
		Message:  d.Message,
	}
}

// byteRangeToRange translates a store.ByteRange (in the effective/host
// text lineIndex was built over) to a UTF-16 Position range, clamping any
// out-of-range offset rather than dropping the diagnostic (§3 invariant).
func byteRangeToRange(lineIndex *syntax.LineIndex, r store.ByteRange) syntax.Range {
	return syntax.Range{
		Start: lineIndex.PositionFor(r.Start),
		End:   lineIndex.PositionFor(r.End),
	}
}
