package ide

import (
	"context"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/jzeiders/graphql-intel/internal/analysis"
	"github.com/jzeiders/graphql-intel/internal/hir"
	"github.com/jzeiders/graphql-intel/internal/store"
	"github.com/jzeiders/graphql-intel/internal/syntax"
)

// CompletionItemKind distinguishes what a CompletionItem completes to,
// for an editor to pick an icon/sort bucket.
type CompletionItemKind int

const (
	CompletionField CompletionItemKind = iota
	CompletionFragmentSpread
	CompletionTypeName
	CompletionVariable
	CompletionArgument
)

// CompletionItem is one candidate offered at a cursor position (§4.6).
type CompletionItem struct {
	Label  string
	Kind   CompletionItemKind
	Detail string
}

// Completions resolves the selection-set context at path/position and
// offers the fields available on the type in scope there, plus every
// fragment in the project whose type condition is compatible, plus,
// anywhere inside an operation, that operation's declared variables. It
// does not attempt to parse a half-typed token out of the surrounding
// text; callers are expected to filter the returned list by whatever
// prefix the editor has already typed.
func (a *Analysis) Completions(ctx context.Context, uri store.FileUri, pos syntax.Position) ([]CompletionItem, error) {
	qc := a.qc(ctx)
	fc, err := a.openFile(qc, uri)
	if err != nil || fc == nil || fc.parsed.QueryAST == nil {
		return nil, err
	}
	merged, err := analysis.MergedSchema(qc)
	if err != nil {
		return nil, err
	}
	schema := schemaRawOrNil(merged.Schema)
	offset := fc.toSubDoc(pos)

	typeName, opIdx := enclosingSelectionType(fc.parsed.QueryAST, schema, offset)
	if typeName == "" {
		return nil, nil
	}

	var out []CompletionItem
	if schema != nil {
		if def, ok := schema.Types[typeName]; ok {
			for _, f := range def.Fields {
				out = append(out, CompletionItem{Label: f.Name, Kind: CompletionField, Detail: renderASTType(f.Type)})
			}
		}
	}

	fragRefs, _, err := hir.AllFragments(qc)
	if err != nil {
		return nil, err
	}
	for name, ref := range fragRefs {
		structure, err := hir.FileStructureOf(qc, ref.FileId)
		if err != nil {
			continue
		}
		for _, fr := range structure.Fragments {
			if fr.Name == name && fragmentApplies(schema, fr.TypeCondition, typeName) {
				out = append(out, CompletionItem{Label: "..." + name, Kind: CompletionFragmentSpread, Detail: "on " + fr.TypeCondition})
			}
		}
	}

	if opIdx >= 0 && opIdx < len(fc.parsed.QueryAST.Operations) {
		for _, v := range fc.parsed.QueryAST.Operations[opIdx].VariableDefinitions {
			out = append(out, CompletionItem{Label: "$" + v.Variable, Kind: CompletionVariable, Detail: renderASTType(v.Type)})
		}
	}
	return out, nil
}

// fragmentApplies reports whether a fragment declared on typeCondition
// can be spread into a selection set of type selectionType: an exact
// match, or selectionType implementing/being a member of typeCondition.
func fragmentApplies(schema *ast.Schema, typeCondition, selectionType string) bool {
	if typeCondition == "" || typeCondition == selectionType {
		return true
	}
	if schema == nil {
		return false
	}
	def, ok := schema.Types[selectionType]
	if !ok {
		return false
	}
	for _, iface := range def.Interfaces {
		if iface == typeCondition {
			return true
		}
	}
	if possible, ok := schema.PossibleTypes[typeCondition]; ok {
		for _, p := range possible {
			if p.Name == selectionType {
				return true
			}
		}
	}
	return false
}

// enclosingSelectionType finds the innermost selection set containing
// offset and returns the GraphQL type it selects against, along with the
// owning operation's index (-1 if offset falls within a fragment
// instead). It picks the selection whose own name token starts closest
// to, but not after, offset — a best-effort proxy for "still inside this
// field's braces" since the tolerant parser does not guarantee a
// selection set's closing brace exists yet while the user is typing.
func enclosingSelectionType(doc *ast.QueryDocument, schema *ast.Schema, offset int) (string, int) {
	bestType := ""
	bestOp := -1
	bestStart := -1

	var walk func(set ast.SelectionSet, parentType string, opIdx int)
	walk = func(set ast.SelectionSet, parentType string, opIdx int) {
		for _, sel := range set {
			switch v := sel.(type) {
			case *ast.Field:
				childType := fieldReturnType(schema, parentType, v.Name)
				if v.Position != nil && v.Position.Start <= offset && v.Position.Start > bestStart {
					// Once the cursor is at or past this field's own start,
					// the more useful completion context is what's inside its
					// braces (childType) rather than the field's own parent
					// type — a deeper nested field's match below overrides
					// this again, giving the innermost enclosing type.
					if len(v.SelectionSet) > 0 {
						bestStart, bestType, bestOp = v.Position.Start, childType, opIdx
					} else {
						bestStart, bestType, bestOp = v.Position.Start, parentType, opIdx
					}
				}
				if len(v.SelectionSet) > 0 {
					walk(v.SelectionSet, childType, opIdx)
				}
			case *ast.InlineFragment:
				condType := v.TypeCondition
				if condType == "" {
					condType = parentType
				}
				if v.Position != nil && v.Position.Start <= offset && v.Position.Start > bestStart {
					bestStart, bestType, bestOp = v.Position.Start, condType, opIdx
				}
				walk(v.SelectionSet, condType, opIdx)
			}
		}
	}

	for i, op := range doc.Operations {
		root := rootTypeName(schema, op.Operation)
		if op.Position != nil && op.Position.Start <= offset && op.Position.Start > bestStart {
			bestStart, bestType, bestOp = op.Position.Start, root, i
		}
		walk(op.SelectionSet, root, i)
	}
	for _, frag := range doc.Fragments {
		if frag.Position != nil && frag.Position.Start <= offset && frag.Position.Start > bestStart {
			bestStart, bestType, bestOp = frag.Position.Start, frag.TypeCondition, -1
		}
		walk(frag.SelectionSet, frag.TypeCondition, -1)
	}
	if bestType == "" {
		return "", -1
	}
	return bestType, bestOp
}
