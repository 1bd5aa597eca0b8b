package hir

import "github.com/vektah/gqlparser/v2/ast"

// SelectionKind discriminates the three GraphQL selection forms.
type SelectionKind int

const (
	SelectionField SelectionKind = iota
	SelectionFragmentSpread
	SelectionInlineFragment
)

// Argument is a `name: value` pair on a field selection.
type Argument struct {
	Name  string
	Value string
}

// VariableUsage records one `$name` reference found inside a selection
// set's arguments, by the argument it fills.
type VariableUsage struct {
	VariableName string
	ArgumentName string
	FieldName    string
}

// Selection is one entry of a selection set: a field, a fragment spread,
// or an inline fragment. Exactly the fields relevant to its Kind are
// populated.
type Selection struct {
	Kind          SelectionKind
	Alias         string // field only; equals Name when no alias given
	Name          string // field name, or spread/inline-fragment target name
	Arguments     []Argument
	Directives    []DirectiveUse
	TypeCondition string // inline fragment only
	Selections    []Selection
}

func selectionSetFromAST(set ast.SelectionSet) []Selection {
	if len(set) == 0 {
		return nil
	}
	out := make([]Selection, 0, len(set))
	for _, s := range set {
		switch v := s.(type) {
		case *ast.Field:
			f := Selection{
				Kind:       SelectionField,
				Alias:      v.Alias,
				Name:       v.Name,
				Directives: directivesFromAST(v.Directives),
				Selections: selectionSetFromAST(v.SelectionSet),
			}
			for _, a := range v.Arguments {
				f.Arguments = append(f.Arguments, Argument{Name: a.Name, Value: valueToString(a.Value)})
			}
			out = append(out, f)
		case *ast.FragmentSpread:
			out = append(out, Selection{
				Kind:       SelectionFragmentSpread,
				Name:       v.Name,
				Directives: directivesFromAST(v.Directives),
			})
		case *ast.InlineFragment:
			out = append(out, Selection{
				Kind:          SelectionInlineFragment,
				TypeCondition: v.TypeCondition,
				Directives:    directivesFromAST(v.Directives),
				Selections:    selectionSetFromAST(v.SelectionSet),
			})
		}
	}
	return out
}

// collectFragmentSpreads walks a selection tree and returns the names of
// every fragment spread reachable from it (not transitively through other
// fragments' bodies — that closure is computed separately in index.go).
func collectFragmentSpreads(selections []Selection) []string {
	var out []string
	var walk func([]Selection)
	walk = func(sels []Selection) {
		for _, s := range sels {
			if s.Kind == SelectionFragmentSpread {
				out = append(out, s.Name)
			}
			walk(s.Selections)
		}
	}
	walk(selections)
	return out
}

// collectVariableUsages walks a selection tree and records every `$var`
// reference found in field arguments.
func collectVariableUsages(selections []Selection) []VariableUsage {
	var out []VariableUsage
	var walk func([]Selection)
	walk = func(sels []Selection) {
		for _, s := range sels {
			if s.Kind == SelectionField {
				for _, a := range s.Arguments {
					if len(a.Value) > 0 && a.Value[0] == '$' {
						out = append(out, VariableUsage{
							VariableName: a.Value[1:],
							ArgumentName: a.Name,
							FieldName:    s.Name,
						})
					}
				}
			}
			walk(s.Selections)
		}
	}
	walk(selections)
	return out
}
