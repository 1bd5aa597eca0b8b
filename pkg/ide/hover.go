package ide

import (
	"context"
	"fmt"
	"strings"

	gqlast "github.com/vektah/gqlparser/v2/ast"

	"github.com/jzeiders/graphql-intel/internal/analysis"
	"github.com/jzeiders/graphql-intel/internal/hir"
	"github.com/jzeiders/graphql-intel/internal/store"
	"github.com/jzeiders/graphql-intel/internal/syntax"
	"github.com/jzeiders/graphql-intel/pkg/schema"
)

// Hover is a markdown-style summary for the symbol under the cursor
// (§4.6): a field or type's signature and, for a field, its deprecation
// reason when applicable. Schema descriptions are not included.
type Hover struct {
	Contents string
	Range    syntax.Range
}

// Hover resolves the symbol at path/position and renders its signature.
// It returns (nil, nil) when no symbol is found at that position, per the
// feature surface's "Hover?" optional-result contract.
func (a *Analysis) Hover(ctx context.Context, uri store.FileUri, pos syntax.Position) (*Hover, error) {
	qc := a.qc(ctx)
	fc, err := a.openFile(qc, uri)
	if err != nil || fc == nil {
		return nil, err
	}
	if fc.parsed.QueryAST == nil {
		return a.hoverSchema(qc, fc, pos)
	}

	offset := fc.toSubDoc(pos)
	merged, err := analysis.MergedSchema(qc)
	if err != nil {
		return nil, err
	}
	ref := findRefAtOffset(fc.parsed.QueryAST, schemaRawOrNil(merged.Schema), fc.parsed.EffectiveSource, offset)
	if ref == nil {
		return nil, nil
	}

	switch ref.Kind {
	case refFragmentSpread:
		return a.hoverFragment(qc, fc, ref.Name)
	case refField:
		return a.hoverField(qc, fc, ref.ParentType, ref.Name)
	case refTypeName:
		return a.hoverType(qc, fc, ref.Name)
	case refVariableDecl, refVariableUsage:
		return a.hoverVariable(qc, fc, ref)
	}
	return nil, nil
}

func schemaRawOrNil(s schema.Schema) *gqlast.Schema {
	if s == nil {
		return nil
	}
	return s.Raw()
}

func (a *Analysis) hoverSchema(qc *store.QueryContext, fc *fileContext, pos syntax.Position) (*Hover, error) {
	if fc.parsed.SchemaAST == nil {
		return nil, nil
	}
	offset := fc.toSubDoc(pos)
	structure, err := hir.FileStructureOf(qc, fc.id)
	if err != nil {
		return nil, err
	}
	for _, td := range structure.Types {
		if offset >= td.NameRange.Start && offset < td.NameRange.End {
			return &Hover{Contents: renderTypeSignature(td), Range: fc.toHostRange(td.NameRange)}, nil
		}
		for _, f := range td.Fields {
			if offset >= f.NameRange.Start && offset < f.NameRange.End {
				return &Hover{Contents: renderFieldSignature(td.Name, f), Range: fc.toHostRange(f.NameRange)}, nil
			}
		}
	}
	return nil, nil
}

func (a *Analysis) hoverFragment(qc *store.QueryContext, fc *fileContext, name string) (*Hover, error) {
	fid, rng, ok, err := resolveFragmentLocation(qc, name)
	if err != nil || !ok {
		return nil, err
	}
	structure, err := hir.FileStructureOf(qc, fid)
	if err != nil {
		return nil, err
	}
	for _, fr := range structure.Fragments {
		if fr.Name == name {
			content := fmt.Sprintf("```graphql\nfragment %s on %s\n```", fr.Name, fr.TypeCondition)
			hostRng, err := a.rangeInFile(qc, fid, rng)
			if err != nil {
				return nil, err
			}
			return &Hover{Contents: content, Range: hostRng}, nil
		}
	}
	return nil, nil
}

func (a *Analysis) hoverField(qc *store.QueryContext, fc *fileContext, parentType, fieldName string) (*Hover, error) {
	if parentType == "" {
		return nil, nil
	}
	_, td, ok := hir.TypeOwner(qc, parentType)
	if !ok {
		return nil, nil
	}
	for _, f := range td.Fields {
		if f.Name == fieldName {
			return &Hover{Contents: renderFieldSignature(parentType, f)}, nil
		}
	}
	return nil, nil
}

func (a *Analysis) hoverType(qc *store.QueryContext, fc *fileContext, name string) (*Hover, error) {
	_, td, ok := hir.TypeOwner(qc, name)
	if !ok {
		return nil, nil
	}
	return &Hover{Contents: renderTypeSignature(td)}, nil
}

func (a *Analysis) hoverVariable(qc *store.QueryContext, fc *fileContext, ref *locatedRef) (*Hover, error) {
	structure, err := hir.FileStructureOf(qc, fc.id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimPrefix(ref.Name, "$")
	for _, op := range structure.Operations {
		for _, v := range op.Variables {
			if v.Name == name {
				return &Hover{Contents: fmt.Sprintf("```graphql\n$%s: %s\n```", v.Name, renderTypeRef(v.Type))}, nil
			}
		}
	}
	return nil, nil
}

func (a *Analysis) rangeInFile(qc *store.QueryContext, id store.FileId, r store.ByteRange) (syntax.Range, error) {
	fc, err := a.openFileByID(qc, id)
	if err != nil || fc == nil {
		return syntax.Range{}, err
	}
	return fc.toHostRange(r), nil
}

func renderTypeRef(t hir.TypeRef) string {
	var sb strings.Builder
	renderTypeRefInto(&sb, t)
	return sb.String()
}

func renderTypeRefInto(sb *strings.Builder, t hir.TypeRef) {
	if t.List != nil {
		sb.WriteByte('[')
		renderTypeRefInto(sb, *t.List)
		sb.WriteByte(']')
	} else {
		sb.WriteString(t.Named)
	}
	if t.NonNull {
		sb.WriteByte('!')
	}
}

func renderFieldSignature(parentType string, f hir.FieldSig) string {
	sig := f.Name
	if len(f.Arguments) > 0 {
		parts := make([]string, 0, len(f.Arguments))
		for _, a := range f.Arguments {
			parts = append(parts, fmt.Sprintf("%s: %s", a.Name, renderTypeRef(a.Type)))
		}
		sig += "(" + strings.Join(parts, ", ") + ")"
	}
	sig += ": " + renderTypeRef(f.Type)
	out := fmt.Sprintf("```graphql\n%s.%s\n```", parentType, sig)
	if dep := deprecationReason(f.Directives); dep != "" {
		out += "\n\n**Deprecated:** " + dep
	}
	return out
}

func renderTypeSignature(td hir.TypeDef) string {
	kind := typeKindLabel(td.Kind)
	header := fmt.Sprintf("%s %s", kind, td.Name)
	if len(td.Implements) > 0 {
		header += " implements " + strings.Join(td.Implements, " & ")
	}
	return fmt.Sprintf("```graphql\n%s\n```", header)
}

func typeKindLabel(k hir.TypeKind) string {
	switch k {
	case hir.TypeKindObject:
		return "type"
	case hir.TypeKindInterface:
		return "interface"
	case hir.TypeKindUnion:
		return "union"
	case hir.TypeKindEnum:
		return "enum"
	case hir.TypeKindInput:
		return "input"
	case hir.TypeKindScalar:
		return "scalar"
	default:
		return "type"
	}
}

func deprecationReason(dirs []hir.DirectiveUse) string {
	for _, d := range dirs {
		if d.Name == "deprecated" {
			if reason, ok := d.Args["reason"]; ok {
				return reason
			}
			return "No longer supported"
		}
	}
	return ""
}
