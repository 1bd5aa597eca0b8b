package ide

import (
	"context"
	"fmt"

	"github.com/jzeiders/graphql-intel/internal/hir"
	"github.com/jzeiders/graphql-intel/internal/store"
	"github.com/jzeiders/graphql-intel/internal/syntax"
)

// CodeLens is a small actionable annotation rendered above a definition
// (§4.6), here used to surface a fragment's reference count — the kind
// of cross-file fact (§4.4 transitive fragment resolution) that isn't
// visible just by looking at the fragment's own file.
type CodeLens struct {
	Range syntax.Range
	Title string
}

// CodeLenses reports, for every fragment defined in uri, how many
// operations and fragments across the project spread it — exercising
// the same project-wide fragment index (hir.AllFragments) FindReferences
// uses, but aggregated to a count instead of a location list.
func (a *Analysis) CodeLenses(ctx context.Context, uri store.FileUri) ([]CodeLens, error) {
	qc := a.qc(ctx)
	id, ok := a.resolve(uri)
	if !ok {
		return nil, nil
	}
	fc, err := a.openFileByID(qc, id)
	if err != nil || fc == nil {
		return nil, err
	}
	structure, err := hir.FileStructureOf(qc, id)
	if err != nil {
		return nil, err
	}
	if len(structure.Fragments) == 0 {
		return nil, nil
	}

	counts, err := a.countFragmentSpreads(qc)
	if err != nil {
		return nil, err
	}

	var out []CodeLens
	for _, frag := range structure.Fragments {
		n := counts[frag.Name]
		title := fmt.Sprintf("%d reference", n)
		if n != 1 {
			title += "s"
		}
		out = append(out, CodeLens{Range: fc.toHostRange(frag.NameRange), Title: title})
	}
	return out, nil
}

// countFragmentSpreads tallies, across every document file, how many
// times each fragment name is spread — reusing each file's memoized
// operation/fragment bodies (hir.OperationBodyOf/FragmentBodyOf) rather
// than re-walking raw ASTs, since a reference count has no
// position-sensitivity to recover.
func (a *Analysis) countFragmentSpreads(qc *store.QueryContext) (map[string]int, error) {
	pf := qc.ReadProjectFiles()
	counts := make(map[string]int)
	for _, fid := range pf.DocumentFileIds {
		structure, err := hir.FileStructureOf(qc, fid)
		if err != nil {
			return nil, err
		}
		for _, op := range structure.Operations {
			body, err := hir.OperationBodyOf(qc, fid, op.DefinitionIndex)
			if err != nil {
				return nil, err
			}
			for _, name := range body.FragmentSpreads {
				counts[name]++
			}
		}
		for _, frag := range structure.Fragments {
			body, err := hir.FragmentBodyOf(qc, fid, frag.Name)
			if err != nil {
				return nil, err
			}
			for _, name := range body.FragmentSpreads {
				counts[name]++
			}
		}
		if qc.Cancelled() {
			return counts, store.ErrCancelled
		}
	}
	return counts, nil
}
