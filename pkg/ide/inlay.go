package ide

import (
	"context"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/jzeiders/graphql-intel/internal/analysis"
	"github.com/jzeiders/graphql-intel/internal/store"
	"github.com/jzeiders/graphql-intel/internal/syntax"
)

// InlayHint is a small piece of editor-rendered annotation positioned
// after a token (§4.6), used here to surface a selected field's resolved
// return type inline, the same information hover gives on demand.
type InlayHint struct {
	Position syntax.Position
	Label    string
}

// InlayHints walks uri's selection sets, resolving each field against the
// merged schema the same way findRefAtOffset does, and emits one hint per
// field showing its declared return type.
func (a *Analysis) InlayHints(ctx context.Context, uri store.FileUri) ([]InlayHint, error) {
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

	var out []InlayHint
	var walkSet func(set ast.SelectionSet, parentType string)
	walkSet = func(set ast.SelectionSet, parentType string) {
		for _, sel := range set {
			switch v := sel.(type) {
			case *ast.Field:
				if v.Position != nil {
					retType := fieldReturnType(schema, parentType, v.Name)
					if sig := fieldTypeSignature(schema, parentType, v.Name); sig != "" {
						tokenLen := len(v.Name)
						if v.Alias != "" && v.Alias != v.Name {
							tokenLen = len(v.Alias)
						}
						out = append(out, InlayHint{
							Position: fc.toHost(v.Position.Start + tokenLen),
							Label:    ": " + sig,
						})
					}
					walkSet(v.SelectionSet, retType)
				}
			case *ast.InlineFragment:
				condType := v.TypeCondition
				if condType == "" {
					condType = parentType
				}
				walkSet(v.SelectionSet, condType)
			}
		}
	}
	for _, op := range fc.parsed.QueryAST.Operations {
		walkSet(op.SelectionSet, rootTypeName(schema, op.Operation))
	}
	for _, frag := range fc.parsed.QueryAST.Fragments {
		walkSet(frag.SelectionSet, frag.TypeCondition)
	}
	return out, nil
}

func fieldTypeSignature(schema *ast.Schema, parentType, fieldName string) string {
	if schema == nil {
		return ""
	}
	def, ok := schema.Types[parentType]
	if !ok {
		return ""
	}
	if fieldName == "__typename" {
		return "String!"
	}
	for _, f := range def.Fields {
		if f.Name == fieldName {
			return renderASTType(f.Type)
		}
	}
	return ""
}

func renderASTType(t *ast.Type) string {
	if t == nil {
		return ""
	}
	var s string
	if t.Elem != nil {
		s = "[" + renderASTType(t.Elem) + "]"
	} else {
		s = t.NamedType
	}
	if t.NonNull {
		s += "!"
	}
	return s
}
