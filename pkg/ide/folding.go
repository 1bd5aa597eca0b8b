package ide

import (
	"context"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/jzeiders/graphql-intel/internal/store"
	"github.com/jzeiders/graphql-intel/internal/syntax"
)

// FoldingRange is one collapsible region in a document (§4.6): a
// selection set's braces, or a type definition's body.
type FoldingRange struct {
	Range syntax.Range
}

// FoldingRanges walks uri's raw AST (query document or schema document,
// whichever the file parsed as) collecting the byte span of every
// selection set and type-definition body, then translates each to
// host-file coordinates. Like refs.go's navigation walk, this reads
// ast.Position directly rather than going through hir's body/structure
// queries, since folding ranges are a position-sensitive, snapshot-time
// concern outside what those memoized queries promise to track.
func (a *Analysis) FoldingRanges(ctx context.Context, uri store.FileUri) ([]FoldingRange, error) {
	qc := a.qc(ctx)
	fc, err := a.openFile(qc, uri)
	if err != nil || fc == nil {
		return nil, err
	}

	var out []FoldingRange
	add := func(startOffset, endOffset int) {
		if endOffset <= startOffset {
			return
		}
		out = append(out, FoldingRange{Range: fc.toHostRange(store.ByteRange{Start: startOffset, End: endOffset})})
	}

	if fc.parsed.QueryAST != nil {
		var walkSet func(ast.SelectionSet)
		walkSet = func(set ast.SelectionSet) {
			for _, sel := range set {
				switch v := sel.(type) {
				case *ast.Field:
					if v.Position != nil && len(v.SelectionSet) > 0 {
						add(v.Position.Start, selectionSetEnd(v.SelectionSet, v.Position))
					}
					walkSet(v.SelectionSet)
				case *ast.InlineFragment:
					if v.Position != nil && len(v.SelectionSet) > 0 {
						add(v.Position.Start, selectionSetEnd(v.SelectionSet, v.Position))
					}
					walkSet(v.SelectionSet)
				}
			}
		}
		for _, op := range fc.parsed.QueryAST.Operations {
			if op.Position != nil && len(op.SelectionSet) > 0 {
				add(op.Position.Start, selectionSetEnd(op.SelectionSet, op.Position))
			}
			walkSet(op.SelectionSet)
		}
		for _, frag := range fc.parsed.QueryAST.Fragments {
			if frag.Position != nil && len(frag.SelectionSet) > 0 {
				add(frag.Position.Start, selectionSetEnd(frag.SelectionSet, frag.Position))
			}
			walkSet(frag.SelectionSet)
		}
	}

	if fc.parsed.SchemaAST != nil {
		for _, def := range fc.parsed.SchemaAST.Definitions {
			if def.Position == nil {
				continue
			}
			end := def.Position.Start
			for _, f := range def.Fields {
				if f.Position != nil && f.Position.Start > end {
					end = f.Position.Start + len(f.Name)
				}
			}
			add(def.Position.Start, end)
		}
	}
	return out, nil
}

// selectionSetEnd approximates a selection set's closing-brace offset as
// the end of its last selection's own last token, since gqlparser does
// not carry an explicit end position for a selection set node.
func selectionSetEnd(set ast.SelectionSet, fallback *ast.Position) int {
	end := 0
	if fallback != nil {
		end = fallback.Start
	}
	for _, sel := range set {
		switch v := sel.(type) {
		case *ast.Field:
			if v.Position != nil {
				candidate := v.Position.Start + len(v.Name)
				if len(v.SelectionSet) > 0 {
					candidate = selectionSetEnd(v.SelectionSet, v.Position)
				}
				if candidate > end {
					end = candidate
				}
			}
		case *ast.FragmentSpread:
			if v.Position != nil {
				candidate := v.Position.Start + len(v.Name)
				if candidate > end {
					end = candidate
				}
			}
		case *ast.InlineFragment:
			if v.Position != nil {
				candidate := selectionSetEnd(v.SelectionSet, v.Position)
				if candidate > end {
					end = candidate
				}
			}
		}
	}
	return end
}
