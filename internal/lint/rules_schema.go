package lint

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/jzeiders/graphql-intel/internal/store"
)

// noDeprecatedRule flags selections against a field or enum value marked
// @deprecated in the schema.
type noDeprecatedRule struct{}

func (noDeprecatedRule) Meta() Meta {
	return Meta{
		Name:            "no_deprecated",
		DefaultSeverity: Warn,
		InRecommended:   true,
		Description:     "selections should not reference deprecated schema members",
	}
}

func (noDeprecatedRule) CheckDocumentWithSchema(doc DocumentInput, schemaAST *ast.Schema) []Finding {
	var findings []Finding
	var walkSet func(set ast.SelectionSet, parentType *ast.Definition)
	walkSet = func(set ast.SelectionSet, parentType *ast.Definition) {
		for _, sel := range set {
			switch s := sel.(type) {
			case *ast.Field:
				if parentType != nil {
					if fd := findField(parentType, s.Name); fd != nil {
						if reason, ok := deprecationReason(fd.Directives); ok {
							findings = append(findings, Finding{
								Range:   rangeFromPosition(s.Position),
								Message: deprecationMessage("field", s.Name, reason),
							})
						}
					}
				}
				next := fieldReturnType(schemaAST, parentType, s.Name)
				walkSet(s.SelectionSet, next)
			case *ast.InlineFragment:
				next := schemaAST.Types[s.TypeCondition]
				if next == nil {
					next = parentType
				}
				walkSet(s.SelectionSet, next)
			case *ast.FragmentSpread:
				if s.Definition != nil {
					next := schemaAST.Types[s.Definition.TypeCondition]
					if next == nil {
						next = parentType
					}
					walkSet(s.Definition.SelectionSet, next)
				}
			}
		}
	}

	for _, op := range doc.Doc.Operations {
		root := rootTypeFor(schemaAST, op.Operation)
		walkSet(op.SelectionSet, root)
	}
	return findings
}

func deprecationReason(directives ast.DirectiveList) (string, bool) {
	d := directives.ForName("deprecated")
	if d == nil {
		return "", false
	}
	if arg := d.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
		return valueLiteral(arg.Value), true
	}
	return "No longer supported", true
}

func deprecationMessage(kind, name, reason string) string {
	return fmt.Sprintf("%s %q is deprecated: %s", kind, name, reason)
}

func valueLiteral(v *ast.Value) string {
	if v == nil {
		return ""
	}
	return v.Raw
}

func rootTypeFor(schemaAST *ast.Schema, op ast.Operation) *ast.Definition {
	if schemaAST == nil {
		return nil
	}
	switch op {
	case ast.Mutation:
		return schemaAST.Mutation
	case ast.Subscription:
		return schemaAST.Subscription
	default:
		return schemaAST.Query
	}
}

func findField(def *ast.Definition, name string) *ast.FieldDefinition {
	if def == nil {
		return nil
	}
	if name == "__typename" {
		return nil
	}
	for _, f := range def.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func fieldReturnType(schemaAST *ast.Schema, parentType *ast.Definition, fieldName string) *ast.Definition {
	fd := findField(parentType, fieldName)
	if fd == nil || schemaAST == nil {
		return nil
	}
	return schemaAST.Types[baseNamedType(fd.Type)]
}

// baseNamedType unwraps list/non-null wrappers down to the underlying
// named type.
func baseNamedType(t *ast.Type) string {
	for t != nil && t.Elem != nil {
		t = t.Elem
	}
	if t == nil {
		return ""
	}
	return t.NamedType
}

// redundantFieldsRule flags a selection set that selects the same field
// (same name+alias+arguments) more than once — harmless to the server,
// but a sign of a copy/paste mistake in hand-written documents.
type redundantFieldsRule struct{}

func (redundantFieldsRule) Meta() Meta {
	return Meta{
		Name:            "redundant_fields",
		DefaultSeverity: Warn,
		InRecommended:   true,
		Description:     "a selection set should not select the same field twice",
	}
}

func (redundantFieldsRule) CheckDocumentWithSchema(doc DocumentInput, schemaAST *ast.Schema) []Finding {
	var findings []Finding
	var walkSet func(set ast.SelectionSet)
	walkSet = func(set ast.SelectionSet) {
		seen := make(map[string]bool)
		for _, sel := range set {
			field, ok := sel.(*ast.Field)
			if !ok {
				continue
			}
			key := fieldSelectionKey(field)
			if seen[key] {
				findings = append(findings, Finding{
					Range:   rangeFromPosition(field.Position),
					Message: fmt.Sprintf("field %q is selected more than once in this selection set", responseKeyFor(field)),
				})
			}
			seen[key] = true
			walkSet(field.SelectionSet)
		}
	}
	for _, op := range doc.Doc.Operations {
		walkSet(op.SelectionSet)
	}
	for _, frag := range doc.Doc.Fragments {
		walkSet(frag.SelectionSet)
	}
	return findings
}

func responseKeyFor(f *ast.Field) string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

func fieldSelectionKey(f *ast.Field) string {
	key := responseKeyFor(f) + ":" + f.Name
	for _, a := range f.Arguments {
		if a.Value != nil {
			key += "|" + a.Name + "=" + a.Value.Raw
		}
	}
	return key
}

// requireIDFieldRule requires every selection set on a type that declares
// an `id` field to select it, so normalized client caches can key the
// result.
type requireIDFieldRule struct{}

func (requireIDFieldRule) Meta() Meta {
	return Meta{
		Name:            "require_id_field",
		DefaultSeverity: Off,
		InRecommended:   false,
		Description:     "a selection set on a type with an id field should select id",
	}
}

func (requireIDFieldRule) CheckDocumentWithSchema(doc DocumentInput, schemaAST *ast.Schema) []Finding {
	var findings []Finding
	var walkSet func(set ast.SelectionSet, parentType *ast.Definition)
	walkSet = func(set ast.SelectionSet, parentType *ast.Definition) {
		if parentType != nil && (parentType.Kind == ast.Object || parentType.Kind == ast.Interface) && findField(parentType, "id") != nil {
			hasID := false
			for _, sel := range set {
				if f, ok := sel.(*ast.Field); ok && f.Name == "id" {
					hasID = true
					break
				}
			}
			if !hasID && len(set) > 0 {
				findings = append(findings, Finding{
					Range:   rangeFromSelectionSet(set),
					Message: fmt.Sprintf("selection on %q should include id", parentType.Name),
				})
			}
		}
		for _, sel := range set {
			switch s := sel.(type) {
			case *ast.Field:
				next := fieldReturnType(schemaAST, parentType, s.Name)
				walkSet(s.SelectionSet, next)
			case *ast.InlineFragment:
				next := schemaAST.Types[s.TypeCondition]
				if next == nil {
					next = parentType
				}
				walkSet(s.SelectionSet, next)
			case *ast.FragmentSpread:
				if s.Definition != nil {
					next := schemaAST.Types[s.Definition.TypeCondition]
					if next == nil {
						next = parentType
					}
					walkSet(s.Definition.SelectionSet, next)
				}
			}
		}
	}
	for _, op := range doc.Doc.Operations {
		root := rootTypeFor(schemaAST, op.Operation)
		walkSet(op.SelectionSet, root)
	}
	return findings
}

func rangeFromSelectionSet(set ast.SelectionSet) store.ByteRange {
	for _, sel := range set {
		if f, ok := sel.(*ast.Field); ok {
			return rangeFromPosition(f.Position)
		}
	}
	return store.ByteRange{}
}
