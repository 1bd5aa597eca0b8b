// Package hir builds the engine's high-level intermediate representation:
// per-file structure queries (stable names/signatures) kept strictly
// separate from per-definition body queries (selection sets, fragment
// spreads, variable usages), plus the project-wide indices built on top
// of them.
package hir

import (
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/jzeiders/graphql-intel/internal/store"
)

// TypeKind enumerates the schema type-definition kinds the engine tracks.
type TypeKind int

const (
	TypeKindUnknown TypeKind = iota
	TypeKindObject
	TypeKindInterface
	TypeKindUnion
	TypeKindEnum
	TypeKindInput
	TypeKindScalar
)

func typeKindFromAST(k ast.DefinitionKind) TypeKind {
	switch k {
	case ast.Object:
		return TypeKindObject
	case ast.Interface:
		return TypeKindInterface
	case ast.Union:
		return TypeKindUnion
	case ast.Enum:
		return TypeKindEnum
	case ast.InputObject:
		return TypeKindInput
	case ast.Scalar:
		return TypeKindScalar
	default:
		return TypeKindUnknown
	}
}

// TypeRef is a type reference: a list type sets List (its element type)
// and leaves Named empty, a named type sets Named and leaves List nil.
// typeRefFromAST only builds those two shapes, but the struct itself does
// not stop both fields from being set at once.
type TypeRef struct {
	Named    string
	List     *TypeRef
	NonNull  bool
}

func typeRefFromAST(t *ast.Type) TypeRef {
	if t == nil {
		return TypeRef{}
	}
	if t.Elem != nil {
		inner := typeRefFromAST(t.Elem)
		return TypeRef{List: &inner, NonNull: t.NonNull}
	}
	return TypeRef{Named: t.NamedType, NonNull: t.NonNull}
}

func (t TypeRef) equal(o TypeRef) bool {
	if t.NonNull != o.NonNull {
		return false
	}
	if t.List != nil || o.List != nil {
		if t.List == nil || o.List == nil {
			return false
		}
		return t.List.equal(*o.List)
	}
	return t.Named == o.Named
}

// DirectiveUse is a `@name(args...)` application.
type DirectiveUse struct {
	Name string
	Args map[string]string
}

func directivesFromAST(dirs ast.DirectiveList) []DirectiveUse {
	if len(dirs) == 0 {
		return nil
	}
	out := make([]DirectiveUse, 0, len(dirs))
	for _, d := range dirs {
		use := DirectiveUse{Name: d.Name}
		if len(d.Arguments) > 0 {
			use.Args = make(map[string]string, len(d.Arguments))
			for _, a := range d.Arguments {
				use.Args[a.Name] = valueToString(a.Value)
			}
		}
		out = append(out, use)
	}
	return out
}

func valueToString(v *ast.Value) string {
	if v == nil {
		return ""
	}
	switch v.Kind {
	case ast.ListValue:
		parts := make([]string, 0, len(v.Children))
		for _, c := range v.Children {
			parts = append(parts, valueToString(c.Value))
		}
		return "[" + joinComma(parts) + "]"
	case ast.ObjectValue:
		parts := make([]string, 0, len(v.Children))
		for _, c := range v.Children {
			parts = append(parts, c.Name+": "+valueToString(c.Value))
		}
		return "{" + joinComma(parts) + "}"
	case ast.Variable:
		return "$" + v.Raw
	default:
		return v.Raw
	}
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

// ArgSig is the signature of a field or directive argument.
type ArgSig struct {
	Name         string
	Type         TypeRef
	DefaultValue string
	Directives   []DirectiveUse
}

// FieldSig is the structural signature of one field on a type.
type FieldSig struct {
	Name       string
	Type       TypeRef
	Arguments  []ArgSig
	Directives []DirectiveUse
	NameRange  store.ByteRange
}

// TypeDef is the stable structure of one schema type definition.
type TypeDef struct {
	Name           string
	Kind           TypeKind
	Fields         []FieldSig
	Implements     []string
	Members        []string // union members
	EnumValues     []string
	Directives     []DirectiveUse
	NameRange      store.ByteRange
	DefinitionRange store.ByteRange
}

// VarDecl is an operation's declared variable.
type VarDecl struct {
	Name         string
	Type         TypeRef
	DefaultValue string
	NameRange    store.ByteRange
}

// OperationKind mirrors ast.Operation without exposing the gqlparser type
// at the HIR boundary.
type OperationKind int

const (
	OperationUnknown OperationKind = iota
	OperationQuery
	OperationMutation
	OperationSubscription
)

func operationKindFromAST(k ast.Operation) OperationKind {
	switch k {
	case ast.Query:
		return OperationQuery
	case ast.Mutation:
		return OperationMutation
	case ast.Subscription:
		return OperationSubscription
	default:
		return OperationUnknown
	}
}

// OperationStructure is the stable shape of one operation definition.
type OperationStructure struct {
	Name          string
	Kind          OperationKind
	Variables     []VarDecl
	Directives    []DirectiveUse
	OperationRange store.ByteRange
	NameRange     *store.ByteRange
	DefinitionIndex int
}

// FragmentStructure is the stable shape of one fragment definition.
type FragmentStructure struct {
	Name           string
	TypeCondition  string
	Directives     []DirectiveUse
	NameRange      store.ByteRange
	FragmentRange  store.ByteRange
	DefinitionIndex int
}

// FileStructure is the result of the file_structure query (§4.3).
type FileStructure struct {
	Types      []TypeDef
	Operations []OperationStructure
	Fragments  []FragmentStructure
}
