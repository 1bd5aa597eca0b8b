package ide

import (
	"context"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/jzeiders/graphql-intel/internal/store"
	"github.com/jzeiders/graphql-intel/internal/syntax"
)

// SemanticTokenKind classifies a token span for editor syntax
// highlighting beyond what plain grammar-based highlighting can tell
// (§4.6): distinguishing a field name from a fragment name from a type
// name, all of which look identical to a generic GraphQL grammar.
type SemanticTokenKind int

const (
	TokenField SemanticTokenKind = iota
	TokenFragmentName
	TokenTypeName
	TokenVariable
	TokenArgument
	TokenDirective
)

// SemanticToken is one classified span in a document.
type SemanticToken struct {
	Range syntax.Range
	Kind  SemanticTokenKind
}

// SemanticTokens walks uri's raw AST emitting one SemanticToken per name
// token it can classify. Editors request these in bulk per file (rather
// than per position, like hover/definition), so this mirrors
// InlayHints/FoldingRanges' whole-document walk shape instead of
// findRefAtOffset's single-point lookup.
func (a *Analysis) SemanticTokens(ctx context.Context, uri store.FileUri) ([]SemanticToken, error) {
	qc := a.qc(ctx)
	fc, err := a.openFile(qc, uri)
	if err != nil || fc == nil || fc.parsed.QueryAST == nil {
		return nil, err
	}

	var out []SemanticToken
	emit := func(pos *ast.Position, length int, kind SemanticTokenKind) {
		if pos == nil || length <= 0 {
			return
		}
		out = append(out, SemanticToken{
			Range: fc.toHostRange(store.ByteRange{Start: pos.Start, End: pos.Start + length}),
			Kind:  kind,
		})
	}

	var walkSet func(ast.SelectionSet)
	walkSet = func(set ast.SelectionSet) {
		for _, sel := range set {
			switch v := sel.(type) {
			case *ast.Field:
				tokenLen := len(v.Name)
				if v.Alias != "" && v.Alias != v.Name {
					tokenLen = len(v.Alias)
				}
				emit(v.Position, tokenLen, TokenField)
				for _, arg := range v.Arguments {
					emit(arg.Position, len(arg.Name), TokenArgument)
					if arg.Value != nil && arg.Value.Kind == ast.Variable {
						emit(arg.Value.Position, len(arg.Value.Raw)+1, TokenVariable)
					}
				}
				for _, d := range v.Directives {
					emit(d.Position, len(d.Name)+1, TokenDirective)
				}
				walkSet(v.SelectionSet)
			case *ast.FragmentSpread:
				emit(v.Position, len(v.Name), TokenFragmentName)
				for _, d := range v.Directives {
					emit(d.Position, len(d.Name)+1, TokenDirective)
				}
			case *ast.InlineFragment:
				if v.Position != nil && v.TypeCondition != "" {
					if start, end, ok := locateTypeConditionToken(fc.parsed.EffectiveSource, v.Position.Start, v.TypeCondition); ok {
						out = append(out, SemanticToken{
							Range: fc.toHostRange(store.ByteRange{Start: start, End: end}),
							Kind:  TokenTypeName,
						})
					}
				}
				walkSet(v.SelectionSet)
			}
		}
	}

	for _, op := range fc.parsed.QueryAST.Operations {
		for _, v := range op.VariableDefinitions {
			emit(v.Position, len(v.Variable)+1, TokenVariable)
		}
		walkSet(op.SelectionSet)
	}
	for _, frag := range fc.parsed.QueryAST.Fragments {
		emit(frag.Position, len(frag.Name), TokenFragmentName)
		if frag.Position != nil {
			if start, end, ok := locateTypeConditionToken(fc.parsed.EffectiveSource, frag.Position.Start, frag.TypeCondition); ok {
				out = append(out, SemanticToken{
					Range: fc.toHostRange(store.ByteRange{Start: start, End: end}),
					Kind:  TokenTypeName,
				})
			}
		}
		walkSet(frag.SelectionSet)
	}
	return out, nil
}
