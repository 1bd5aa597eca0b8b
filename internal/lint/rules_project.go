package lint

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/jzeiders/graphql-intel/internal/hir"
)

// unusedFragmentsRule flags a fragment that no operation, and no other
// fragment reachable from an operation, ever spreads.
type unusedFragmentsRule struct{}

func (unusedFragmentsRule) Meta() Meta {
	return Meta{
		Name:            "unused_fragments",
		DefaultSeverity: Warn,
		InRecommended:   true,
		Description:     "a fragment should be spread by at least one operation",
	}
}

func (unusedFragmentsRule) CheckProject(p ProjectInput) []Finding {
	used := make(map[string]bool)
	for _, op := range p.Operations {
		for _, frag := range op.TransitiveFragments.Fragments {
			used[frag.Name] = true
		}
	}

	var findings []Finding
	for name, ref := range p.AllFragments {
		if used[name] {
			continue
		}
		findings = append(findings, Finding{
			Message: fmt.Sprintf("fragment %q (in %s) is never spread by any operation", name, ref.FileId),
		})
	}
	return findings
}

// unusedVariablesRule flags a variable declared on an operation that is
// never referenced, directly or through a spread fragment's own body.
type unusedVariablesRule struct{}

func (unusedVariablesRule) Meta() Meta {
	return Meta{
		Name:            "unused_variables",
		DefaultSeverity: Warn,
		InRecommended:   true,
		Description:     "a declared operation variable should be used somewhere in its selection",
	}
}

func (unusedVariablesRule) CheckProject(p ProjectInput) []Finding {
	var findings []Finding
	for _, op := range p.Operations {
		usedVars := make(map[string]bool)
		for _, u := range op.Body.VariableUsages {
			usedVars[u.VariableName] = true
		}
		for _, fragRef := range op.TransitiveFragments.Fragments {
			body := p.FragmentBodies[fragRef.Name]
			for _, u := range body.VariableUsages {
				usedVars[u.VariableName] = true
			}
		}
		for _, v := range op.Variables {
			if !usedVars[v.Name] {
				findings = append(findings, Finding{
					Message: fmt.Sprintf("variable %q is declared but never used in %q", v.Name, operationLabel(op)),
				})
			}
		}
	}
	return findings
}

func operationLabel(op OperationEntry) string {
	if op.Body.Name != "" {
		return op.Body.Name
	}
	return "<anonymous>"
}

// unusedFieldsRule flags an object or interface field that the schema
// declares but that no operation or fragment in the project ever selects.
// Introspection fields are out of scope: this is meant to spot dead API
// surface on the application's own domain types, not to police the
// schema's own meta-fields.
type unusedFieldsRule struct{}

func (unusedFieldsRule) Meta() Meta {
	return Meta{
		Name:            "unused_fields",
		DefaultSeverity: Off,
		InRecommended:   false,
		Description:     "a schema field should be selected by at least one operation",
	}
}

func (unusedFieldsRule) CheckProject(p ProjectInput) []Finding {
	if p.Schema == nil {
		return nil
	}
	used := make(map[string]map[string]bool) // type name -> field name -> used

	mark := func(typeName, fieldName string) {
		if used[typeName] == nil {
			used[typeName] = make(map[string]bool)
		}
		used[typeName][fieldName] = true
	}

	var walk func(sels []hir.Selection, parentType *ast.Definition)
	walk = func(sels []hir.Selection, parentType *ast.Definition) {
		for _, s := range sels {
			switch s.Kind {
			case hir.SelectionField:
				if parentType != nil {
					mark(parentType.Name, s.Name)
				}
				walk(s.Selections, fieldReturnType(p.Schema, parentType, s.Name))
			case hir.SelectionInlineFragment:
				next := p.Schema.Types[s.TypeCondition]
				if next == nil {
					next = parentType
				}
				walk(s.Selections, next)
			case hir.SelectionFragmentSpread:
				frag := p.FragmentBodies[s.Name]
				next := p.Schema.Types[frag.TypeCondition]
				if next == nil {
					next = parentType
				}
				walk(frag.Selections, next)
			}
		}
	}

	for _, op := range p.Operations {
		root := rootTypeFor(p.Schema, astOperationFor(op.Kind))
		walk(op.Body.Selections, root)
	}

	var findings []Finding
	for _, def := range p.Schema.Types {
		if def == nil || (def.Kind != ast.Object && def.Kind != ast.Interface) {
			continue
		}
		if isIntrospectionType(def.Name) {
			continue
		}
		for _, f := range def.Fields {
			if f.Name == "__typename" || f.Name == "__schema" || f.Name == "__type" {
				continue
			}
			if !used[def.Name][f.Name] {
				findings = append(findings, Finding{
					Range:   rangeFromPosition(f.Position),
					Message: fmt.Sprintf("field %s.%s is never selected by any operation", def.Name, f.Name),
				})
			}
		}
	}
	return findings
}

func isIntrospectionType(name string) bool {
	return len(name) >= 2 && name[0] == '_' && name[1] == '_'
}

func astOperationFor(k hir.OperationKind) ast.Operation {
	switch k {
	case hir.OperationMutation:
		return ast.Mutation
	case hir.OperationSubscription:
		return ast.Subscription
	default:
		return ast.Query
	}
}
