package hir

import (
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/jzeiders/graphql-intel/internal/store"
)

// FileStructureOf is the memoized file_structure(FileId) query (§4.3): it
// derives the stable, name/signature-level shape of one file from its
// parsed AST. Equality is a full reflect.DeepEqual over FileStructure, so
// an edit confined to one definition's body (which never touches
// FileStructure) backdates and leaves sibling definitions' byte ranges
// untouched; an edit that changes the file's overall length shifts every
// trailing definition's range and is therefore correctly seen as a change,
// even when only one definition's text actually differs. That is an
// accepted, documented trade-off: file_structure's own pointer identity is
// not guaranteed stable across a length-changing edit, only schema_types
// across files is (see DESIGN.md).
func FileStructureOf(qc *store.QueryContext, id store.FileId) (FileStructure, error) {
	return store.Query(qc, "file_structure", fileKey(id), store.DefaultEqual[FileStructure], func(child *store.QueryContext) (FileStructure, error) {
		parsed, err := ParseFile(child, id)
		if err != nil {
			return FileStructure{}, err
		}

		var out FileStructure
		if parsed.SchemaAST != nil {
			out.Types = typeDefsFromSchema(parsed.SchemaAST)
		}
		if parsed.QueryAST != nil {
			out.Operations, out.Fragments = structureFromQueryDoc(parsed.QueryAST)
		}
		return out, nil
	})
}

func typeDefsFromSchema(doc *ast.SchemaDocument) []TypeDef {
	if len(doc.Definitions) == 0 {
		return nil
	}
	defs := make([]TypeDef, 0, len(doc.Definitions))
	for _, d := range doc.Definitions {
		defs = append(defs, typeDefFromAST(d))
	}
	return defs
}

func typeDefFromAST(d *ast.Definition) TypeDef {
	td := TypeDef{
		Name:            d.Name,
		Kind:            typeKindFromAST(d.Kind),
		Implements:      append([]string(nil), d.Interfaces...),
		Directives:      directivesFromAST(d.Directives),
		NameRange:       positionToRange(d.Position, len(d.Name)),
		DefinitionRange: definitionRange(d),
	}
	for _, f := range d.Fields {
		td.Fields = append(td.Fields, fieldSigFromAST(f))
	}
	for _, u := range d.Types {
		td.Members = append(td.Members, u)
	}
	for _, ev := range d.EnumValues {
		td.EnumValues = append(td.EnumValues, ev.Name)
	}
	return td
}

func fieldSigFromAST(f *ast.FieldDefinition) FieldSig {
	sig := FieldSig{
		Name:       f.Name,
		Type:       typeRefFromAST(f.Type),
		Directives: directivesFromAST(f.Directives),
		NameRange:  positionToRange(f.Position, len(f.Name)),
	}
	for _, a := range f.Arguments {
		arg := ArgSig{
			Name:       a.Name,
			Type:       typeRefFromAST(a.Type),
			Directives: directivesFromAST(a.Directives),
		}
		if a.DefaultValue != nil {
			arg.DefaultValue = valueToString(a.DefaultValue)
		}
		sig.Arguments = append(sig.Arguments, arg)
	}
	return sig
}

func structureFromQueryDoc(doc *ast.QueryDocument) ([]OperationStructure, []FragmentStructure) {
	var ops []OperationStructure
	var frags []FragmentStructure

	for i, op := range doc.Operations {
		s := OperationStructure{
			Name:            op.Name,
			Kind:            operationKindFromAST(op.Operation),
			Directives:      directivesFromAST(op.Directives),
			OperationRange:  positionToRange(op.Position, 0),
			DefinitionIndex: i,
		}
		if op.Name != "" && op.Position != nil {
			r := positionToRange(op.Position, len(op.Name))
			s.NameRange = &r
		}
		for _, v := range op.VariableDefinitions {
			vd := VarDecl{Name: v.Variable, Type: typeRefFromAST(v.Type), NameRange: positionToRange(v.Position, len(v.Variable)+1)}
			if v.DefaultValue != nil {
				vd.DefaultValue = valueToString(v.DefaultValue)
			}
			s.Variables = append(s.Variables, vd)
		}
		ops = append(ops, s)
	}

	for i, frag := range doc.Fragments {
		s := FragmentStructure{
			Name:            frag.Name,
			TypeCondition:   frag.TypeCondition,
			Directives:      directivesFromAST(frag.Directives),
			NameRange:       positionToRange(frag.Position, len(frag.Name)),
			FragmentRange:   positionToRange(frag.Position, 0),
			DefinitionIndex: i,
		}
		frags = append(frags, s)
	}

	return ops, frags
}

// positionToRange builds a ByteRange from a gqlparser *ast.Position. Both
// ends are a best-effort approximation: gqlparser records token start
// positions, not full definition spans, so a zero-width or name-length
// range is used as a stand-in when the precise end is not tracked.
func positionToRange(pos *ast.Position, nameLen int) store.ByteRange {
	if pos == nil {
		return store.ByteRange{}
	}
	return store.ByteRange{Start: pos.Start, End: pos.Start + nameLen}
}

func definitionRange(d *ast.Definition) store.ByteRange {
	if d.Position == nil {
		return store.ByteRange{}
	}
	end := d.Position.End
	if end <= d.Position.Start {
		end = d.Position.Start
	}
	return store.ByteRange{Start: d.Position.Start, End: end}
}
