package ide

import (
	"strings"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/jzeiders/graphql-intel/internal/hir"
	"github.com/jzeiders/graphql-intel/internal/store"
)

// refKind discriminates what kind of name token a cursor position landed
// on inside an executable document. The IDE layer resolves the AST itself
// directly (rather than through internal/hir's Selection tree) because
// hir.OperationBody/FragmentBody deliberately carry no byte ranges (§4.3:
// "insensitive to byte-offset shifts ... can backdate across any edit
// that leaves the selection tree itself unchanged") — position-sensitive
// navigation is an Analysis-snapshot-time concern, not a memoized query,
// so it is free to read raw ast.Position values that hir's bodies must
// not depend on.
type refKind int

const (
	refNone refKind = iota
	refFragmentSpread
	refTypeName
	refVariableUsage
	refVariableDecl
	refField
	refDirective
)

// locatedRef is what findRefAtOffset resolves a cursor position to.
type locatedRef struct {
	Kind       refKind
	Name       string
	ParentType string // populated for refField: the type declaring the field
	OpIndex    int
	FragName   string
}

func withinToken(pos *ast.Position, tokenLen int, offset int) bool {
	if pos == nil || tokenLen <= 0 {
		return false
	}
	return offset >= pos.Start && offset < pos.Start+tokenLen
}

// rootTypeName returns the schema's root type name for an operation kind,
// preferring the merged schema's own `schema { query: ... }` declaration
// and falling back to the GraphQL-conventional default name when the
// schema doesn't declare one explicitly (permitted since gqlparser's own
// validator applies the same convention).
func rootTypeName(schema *ast.Schema, kind ast.Operation) string {
	if schema != nil {
		switch kind {
		case ast.Query:
			if schema.Query != nil {
				return schema.Query.Name
			}
			return "Query"
		case ast.Mutation:
			if schema.Mutation != nil {
				return schema.Mutation.Name
			}
			return "Mutation"
		case ast.Subscription:
			if schema.Subscription != nil {
				return schema.Subscription.Name
			}
			return "Subscription"
		}
	}
	switch kind {
	case ast.Mutation:
		return "Mutation"
	case ast.Subscription:
		return "Subscription"
	default:
		return "Query"
	}
}

// namedTypeOf unwraps a TypeRef to its innermost named type.
func namedTypeOf(t *ast.Type) string {
	for t != nil && t.Elem != nil {
		t = t.Elem
	}
	if t == nil {
		return ""
	}
	return t.NamedType
}

// fieldReturnType looks up fieldName's declared return type on typeName
// within schema, for stepping one level deeper into a selection set.
func fieldReturnType(schema *ast.Schema, typeName, fieldName string) string {
	if schema == nil {
		return ""
	}
	def, ok := schema.Types[typeName]
	if !ok {
		return ""
	}
	if fieldName == "__typename" {
		return "String"
	}
	for _, f := range def.Fields {
		if f.Name == fieldName {
			return namedTypeOf(f.Type)
		}
	}
	return ""
}

// findRefAtOffset walks doc looking for the ast node at effectiveOffset,
// resolving selection-set field names against schema to track which
// type each nested selection belongs to.
func findRefAtOffset(doc *ast.QueryDocument, schema *ast.Schema, source string, effectiveOffset int) *locatedRef {
	if doc == nil {
		return nil
	}
	for i, op := range doc.Operations {
		if r := matchOperation(op, i, schema, effectiveOffset); r != nil {
			return r
		}
	}
	for _, frag := range doc.Fragments {
		if frag.Position != nil {
			if start, end, ok := locateTypeConditionToken(source, frag.Position.Start, frag.TypeCondition); ok && effectiveOffset >= start && effectiveOffset < end {
				return &locatedRef{Kind: refTypeName, Name: frag.TypeCondition}
			}
		}
		if r := matchFragment(frag, schema, effectiveOffset); r != nil {
			return r
		}
	}
	return nil
}

// locateTypeConditionToken finds the byte span of typeName's occurrence
// in an " on TypeName" clause starting its search at searchFrom, bounded
// to a short window. gqlparser's AST does not carry a standalone position
// for a type condition (only the fragment/inline-fragment node's own
// position), so this is a best-effort textual re-scan rather than a
// structural lookup.
func locateTypeConditionToken(source string, searchFrom int, typeName string) (int, int, bool) {
	if typeName == "" || searchFrom < 0 || searchFrom > len(source) {
		return 0, 0, false
	}
	window := source[searchFrom:]
	if len(window) > 200 {
		window = window[:200]
	}
	needle := "on " + typeName
	idx := strings.Index(window, needle)
	if idx < 0 {
		return 0, 0, false
	}
	start := searchFrom + idx + len("on ")
	return start, start + len(typeName), true
}

func matchOperation(op *ast.OperationDefinition, idx int, schema *ast.Schema, offset int) *locatedRef {
	for _, v := range op.VariableDefinitions {
		if withinToken(v.Position, len(v.Variable)+1, offset) {
			return &locatedRef{Kind: refVariableDecl, Name: v.Variable, OpIndex: idx}
		}
		// The type reference's own token span is not reliably recoverable
		// from gqlparser's position data (only the leading "$name" carries
		// one), so click-precision on a variable's declared type is not
		// supported here; hover/goto-definition on the variable's own name
		// still resolves it (see refVariableDecl above).
	}
	root := rootTypeName(schema, op.Operation)
	r := matchSelectionSet(op.SelectionSet, root, schema, offset)
	if r != nil && r.Kind == refVariableUsage {
		r.OpIndex = idx
	}
	return r
}

func matchFragment(frag *ast.FragmentDefinition, schema *ast.Schema, offset int) *locatedRef {
	if r := matchSelectionSet(frag.SelectionSet, frag.TypeCondition, schema, offset); r != nil {
		return r
	}
	return nil
}

func matchSelectionSet(set ast.SelectionSet, parentType string, schema *ast.Schema, offset int) *locatedRef {
	for _, sel := range set {
		switch v := sel.(type) {
		case *ast.Field:
			nameLen := len(v.Name)
			tokenLen := nameLen
			if v.Alias != "" && v.Alias != v.Name {
				tokenLen = len(v.Alias)
			}
			if withinToken(v.Position, tokenLen, offset) {
				return &locatedRef{Kind: refField, Name: v.Name, ParentType: parentType}
			}
			for _, arg := range v.Arguments {
				if arg.Value != nil && arg.Value.Kind == ast.Variable && withinToken(arg.Value.Position, len(arg.Value.Raw)+1, offset) {
					return &locatedRef{Kind: refVariableUsage, Name: arg.Value.Raw}
				}
			}
			childType := fieldReturnType(schema, parentType, v.Name)
			if r := matchSelectionSet(v.SelectionSet, childType, schema, offset); r != nil {
				return r
			}
		case *ast.FragmentSpread:
			if withinToken(v.Position, len(v.Name), offset) {
				return &locatedRef{Kind: refFragmentSpread, Name: v.Name}
			}
		case *ast.InlineFragment:
			// Like a fragment definition's type condition, an inline
			// fragment's "on Type" token has no independently reliable
			// position in gqlparser's AST, so this only offset-matches
			// its selection set; the type-condition textual fallback
			// above (findRefAtOffset) covers the fragment-definition
			// case, which is the common one (Scenario B/D/F).
			condType := v.TypeCondition
			if condType == "" {
				condType = parentType
			}
			if r := matchSelectionSet(v.SelectionSet, condType, schema, offset); r != nil {
				return r
			}
		}
	}
	return nil
}

// resolveFragmentLocation locates a fragment's own definition (by name)
// within its owning file, returning the owning FileId and the name
// token's ByteRange, or ok=false if the name is unresolved (undeclared,
// or ambiguous per the duplicate-name policy of §4.4: "resolution for
// validation uses no occurrence").
func resolveFragmentLocation(qc *store.QueryContext, name string) (store.FileId, store.ByteRange, bool, error) {
	refs, conflicts, err := hir.AllFragments(qc)
	if err != nil {
		return 0, store.ByteRange{}, false, err
	}
	for _, c := range conflicts {
		if c.Name == name {
			return 0, store.ByteRange{}, false, nil
		}
	}
	ref, ok := refs[name]
	if !ok {
		return 0, store.ByteRange{}, false, nil
	}
	structure, err := hir.FileStructureOf(qc, ref.FileId)
	if err != nil {
		return 0, store.ByteRange{}, false, err
	}
	for _, f := range structure.Fragments {
		if f.Name == name {
			return ref.FileId, f.NameRange, true, nil
		}
	}
	return 0, store.ByteRange{}, false, nil
}

// resolveTypeLocation locates a schema type's definition by name.
func resolveTypeLocation(qc *store.QueryContext, name string) (store.FileId, store.ByteRange, bool, error) {
	fid, td, ok := hir.TypeOwner(qc, name)
	if !ok {
		return 0, store.ByteRange{}, false, nil
	}
	return fid, td.NameRange, true, nil
}

// resolveFieldLocation locates a field's definition within its declaring
// type's owning schema file.
func resolveFieldLocation(qc *store.QueryContext, parentType, fieldName string) (store.FileId, store.ByteRange, bool, error) {
	fid, td, ok := hir.TypeOwner(qc, parentType)
	if !ok {
		return 0, store.ByteRange{}, false, nil
	}
	for _, f := range td.Fields {
		if f.Name == fieldName {
			return fid, f.NameRange, true, nil
		}
	}
	return 0, store.ByteRange{}, false, nil
}

// resolveVariableLocation locates a `$name` usage's declaration within
// the same operation's variable list.
func resolveVariableLocation(vars []hir.VarDecl, name string) (store.ByteRange, bool) {
	name = strings.TrimPrefix(name, "$")
	for _, v := range vars {
		if v.Name == name {
			return v.NameRange, true
		}
	}
	return store.ByteRange{}, false
}
