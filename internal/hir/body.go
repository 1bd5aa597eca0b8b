package hir

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/jzeiders/graphql-intel/internal/store"
	"github.com/jzeiders/graphql-intel/internal/syntax"
)

// OperationBody is the dynamic half of an operation's HIR: its selection
// tree and the fragment/variable dependencies discovered inside it. It
// deliberately carries no byte ranges, so it is insensitive to byte-offset
// shifts caused by edits to sibling definitions (§4.3 structure/body
// separation) and can backdate across any edit that leaves the selection
// tree itself unchanged.
type OperationBody struct {
	Name            string
	Selections      []Selection
	FragmentSpreads []string
	VariableUsages  []VariableUsage
}

// FragmentBody is the dynamic half of a fragment's HIR, mirroring
// OperationBody.
type FragmentBody struct {
	Name            string
	TypeCondition   string
	Selections      []Selection
	FragmentSpreads []string
	VariableUsages  []VariableUsage
}

// operationBodyKey identifies an operation body query by file and
// definition index, since anonymous operations have no name to key on.
func operationBodyKey(id store.FileId, definitionIndex int) string {
	return fmt.Sprintf("%s#%d", fileKey(id), definitionIndex)
}

// OperationBodyOf is the memoized operation_body(FileId, definitionIndex)
// query (§4.3). Its dependency set is only parse_file(id): it reads
// nothing about any other definition in the file.
func OperationBodyOf(qc *store.QueryContext, id store.FileId, definitionIndex int) (OperationBody, error) {
	return store.Query(qc, "operation_body", operationBodyKey(id, definitionIndex), store.DefaultEqual[OperationBody], func(child *store.QueryContext) (OperationBody, error) {
		parsed, err := ParseFile(child, id)
		if err != nil || parsed.QueryAST == nil {
			return OperationBody{}, err
		}
		if definitionIndex < 0 || definitionIndex >= len(parsed.QueryAST.Operations) {
			return OperationBody{}, nil
		}
		op := parsed.QueryAST.Operations[definitionIndex]
		sels := selectionSetFromAST(op.SelectionSet)
		spreads := mergeInterpolatedFragments(collectFragmentSpreads(sels), parsed.Interpolations, op.Position)
		return OperationBody{
			Name:            op.Name,
			Selections:      sels,
			FragmentSpreads: spreads,
			VariableUsages:  collectVariableUsages(sels),
		}, nil
	})
}

// fragmentBodyKey identifies a fragment body query by file and fragment
// name; fragment names are required to be unique, unlike operation names.
func fragmentBodyKey(id store.FileId, name string) string {
	return fileKey(id) + "#" + name
}

// FragmentBodyOf is the memoized fragment_body(FileId, name) query.
func FragmentBodyOf(qc *store.QueryContext, id store.FileId, name string) (FragmentBody, error) {
	return store.Query(qc, "fragment_body", fragmentBodyKey(id, name), store.DefaultEqual[FragmentBody], func(child *store.QueryContext) (FragmentBody, error) {
		parsed, err := ParseFile(child, id)
		if err != nil || parsed.QueryAST == nil {
			return FragmentBody{}, err
		}
		for _, frag := range parsed.QueryAST.Fragments {
			if frag.Name != name {
				continue
			}
			sels := selectionSetFromAST(frag.SelectionSet)
			spreads := mergeInterpolatedFragments(collectFragmentSpreads(sels), parsed.Interpolations, frag.Position)
			return FragmentBody{
				Name:            frag.Name,
				TypeCondition:   frag.TypeCondition,
				Selections:      sels,
				FragmentSpreads: spreads,
				VariableUsages:  collectVariableUsages(sels),
			}, nil
		}
		return FragmentBody{}, nil
	})
}

// mergeInterpolatedFragments folds a definition's `${name}` interpolations
// (§4.2, §9 Design Note "Cross-file fragment interpolation") into its
// explicit fragment spreads: any interpolation whose relocated
// EffectiveSource offset falls within pos's own range is an implicit
// dependency the tolerant parser could never see, since the extractor
// elides the `${...}` text entirely before parsing. Names already present
// as an explicit `...Name` spread are not duplicated.
func mergeInterpolatedFragments(spreads []string, interpolations []syntax.EffectiveInterpolation, pos *ast.Position) []string {
	if len(interpolations) == 0 || pos == nil {
		return spreads
	}
	seen := make(map[string]bool, len(spreads))
	for _, s := range spreads {
		seen[s] = true
	}
	for _, interp := range interpolations {
		if interp.Offset < pos.Start || interp.Offset >= pos.End {
			continue
		}
		if seen[interp.Name] {
			continue
		}
		seen[interp.Name] = true
		spreads = append(spreads, interp.Name)
	}
	return spreads
}
