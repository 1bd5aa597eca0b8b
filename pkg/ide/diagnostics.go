package ide

import (
	"context"

	"github.com/jzeiders/graphql-intel/internal/analysis"
	"github.com/jzeiders/graphql-intel/internal/store"
)

// FileDiagnostics returns every diagnostic for uri (§4.6), pre-translated
// to host-file positions by internal/analysis.FileDiagnostics itself (the
// translation already happens at that layer since it needs the parsed
// file's offset map regardless of caller).
func (a *Analysis) FileDiagnostics(ctx context.Context, uri store.FileUri) ([]analysis.Diagnostic, error) {
	id, ok := a.resolve(uri)
	if !ok {
		return nil, nil
	}
	qc := a.qc(ctx)
	return analysis.FileDiagnostics(qc, id)
}

// WorkspaceDiagnostics returns every diagnostic across every file known to
// this snapshot, keyed by uri. Useful for a CLI's whole-project batch
// report (the LSP adapter instead pulls per-file, on open/change).
func (a *Analysis) WorkspaceDiagnostics(ctx context.Context) (map[store.FileUri][]analysis.Diagnostic, error) {
	qc := a.qc(ctx)
	out := make(map[store.FileUri][]analysis.Diagnostic, len(a.pathToID))
	for uri, id := range a.pathToID {
		diags, err := analysis.FileDiagnostics(qc, id)
		if err != nil {
			return nil, err
		}
		out[uri] = diags
		if qc.Cancelled() {
			return out, store.ErrCancelled
		}
	}
	return out, nil
}
