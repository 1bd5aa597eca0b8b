package analysis

import (
	"github.com/jzeiders/graphql-intel/internal/hir"
	"github.com/jzeiders/graphql-intel/internal/store"
	"github.com/jzeiders/graphql-intel/internal/syntax"
)

// FileDiagnostics is the memoized file_diagnostics(FileId, ProjectFiles)
// query (§4.4): every diagnostic an IDE should show for one file, composed
// from parse errors, extraction warnings, schema/document validation, and
// lint findings, each translated to host-file positions when the file is
// a host-embedded block rather than a pure .graphql file.
func FileDiagnostics(qc *store.QueryContext, id store.FileId) ([]Diagnostic, error) {
	return store.Query(qc, "file_diagnostics", fileKey(id), diagnosticsEqual, func(child *store.QueryContext) ([]Diagnostic, error) {
		parsed, err := hir.ParseFile(child, id)
		if err != nil {
			return nil, err
		}

		diags, err := ValidateFile(child, id)
		if err != nil {
			return nil, err
		}

		lintDiags, err := LintFile(child, id)
		if err != nil {
			return nil, err
		}
		diags = append(diags, lintDiags...)

		projectLints, err := ProjectLints(child)
		if err != nil {
			return nil, err
		}
		diags = append(diags, projectLints[id]...)
		if diags == nil {
			diags = []Diagnostic{}
		}

		if parsed.Kind != store.FileKindHostEmbedded {
			return diags, nil
		}

		hostText, _ := child.ReadText(id)
		effectiveLI := syntax.NewLineIndex(parsed.EffectiveSource)
		hostLI := syntax.NewLineIndex(hostText)
		out := make([]Diagnostic, len(diags))
		for i, d := range diags {
			out[i] = d
			out[i].Range = translateToHost(parsed, effectiveLI, hostLI, d.Range)
		}
		return out, nil
	})
}

// translateToHost maps a diagnostic range reported in a host-embedded
// file's synthetic effective-source coordinate space back to the
// surrounding host document's own coordinates, adding the file's
// LineOffset (for a file presented as a logical sub-document, e.g. one
// block of a multi-block host file).
func translateToHost(parsed hir.ParsedFile, effectiveLI, hostLI *syntax.LineIndex, r syntax.Range) syntax.Range {
	return syntax.Range{
		Start: translatePosition(parsed, effectiveLI, hostLI, r.Start),
		End:   translatePosition(parsed, effectiveLI, hostLI, r.End),
	}
}

func translatePosition(parsed hir.ParsedFile, effectiveLI, hostLI *syntax.LineIndex, pos syntax.Position) syntax.Position {
	effectiveOffset := effectiveLI.ByteOffsetFor(pos)
	hostOffset := parsed.HostOffset(effectiveOffset)
	if hostOffset < 0 {
		hostOffset = 0
	}
	hostPos := hostLI.PositionFor(hostOffset)
	hostPos.Line += parsed.LineOffset
	return hostPos
}
