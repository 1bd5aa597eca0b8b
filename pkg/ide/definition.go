package ide

import (
	"context"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/jzeiders/graphql-intel/internal/analysis"
	"github.com/jzeiders/graphql-intel/internal/hir"
	"github.com/jzeiders/graphql-intel/internal/store"
	"github.com/jzeiders/graphql-intel/internal/syntax"
)

// GotoDefinition resolves the symbol at path/position to its defining
// location(s) (§4.6): a fragment spread to its fragment definition, a
// type reference to its type definition (possibly in another schema
// file), a field reference to its declaring type's field, a variable
// reference to its declaration.
func (a *Analysis) GotoDefinition(ctx context.Context, uri store.FileUri, pos syntax.Position) ([]Location, error) {
	qc := a.qc(ctx)
	fc, err := a.openFile(qc, uri)
	if err != nil || fc == nil || fc.parsed.QueryAST == nil {
		return nil, err
	}

	merged, err := analysis.MergedSchema(qc)
	if err != nil {
		return nil, err
	}
	offset := fc.toSubDoc(pos)
	ref := findRefAtOffset(fc.parsed.QueryAST, schemaRawOrNil(merged.Schema), fc.parsed.EffectiveSource, offset)
	if ref == nil {
		return nil, nil
	}

	switch ref.Kind {
	case refFragmentSpread:
		fid, rng, ok, err := resolveFragmentLocation(qc, ref.Name)
		if err != nil || !ok {
			return nil, err
		}
		loc, err := a.locationForFile(qc, fid, rng)
		if err != nil || loc == (Location{}) {
			return nil, err
		}
		return []Location{loc}, nil

	case refTypeName:
		fid, rng, ok, err := resolveTypeLocation(qc, ref.Name)
		if err != nil || !ok {
			return nil, err
		}
		loc, err := a.locationForFile(qc, fid, rng)
		if err != nil {
			return nil, err
		}
		return []Location{loc}, nil

	case refField:
		fid, rng, ok, err := resolveFieldLocation(qc, ref.ParentType, ref.Name)
		if err != nil || !ok {
			return nil, nil
		}
		loc, err := a.locationForFile(qc, fid, rng)
		if err != nil {
			return nil, err
		}
		return []Location{loc}, nil

	case refVariableDecl, refVariableUsage:
		structure, err := hir.FileStructureOf(qc, fc.id)
		if err != nil {
			return nil, err
		}
		opIdx := ref.OpIndex
		if opIdx < 0 || opIdx >= len(structure.Operations) {
			return nil, nil
		}
		rng, ok := resolveVariableLocation(structure.Operations[opIdx].Variables, ref.Name)
		if !ok {
			return nil, nil
		}
		return []Location{{URI: uri, Range: fc.toHostRange(rng)}}, nil
	}
	return nil, nil
}

// FindReferences is the symmetric counterpart to GotoDefinition: given a
// cursor on a definition (or a usage of one), it returns every usage
// across the project. It supports the two name-based cross-file cases
// the spec calls referenceable — fragment spreads and type references —
// plus same-file variable usages; project-wide field-reference search
// would require indexing every document's selections by declaring type,
// which §4.3's per-file structure/body split does not precompute (each
// file's operation/fragment bodies are read independently, on demand).
func (a *Analysis) FindReferences(ctx context.Context, uri store.FileUri, pos syntax.Position) ([]Location, error) {
	qc := a.qc(ctx)
	fc, err := a.openFile(qc, uri)
	if err != nil || fc == nil {
		return nil, err
	}

	var targetKind refKind
	var targetName string

	if fc.parsed.QueryAST != nil {
		merged, err := analysis.MergedSchema(qc)
		if err != nil {
			return nil, err
		}
		offset := fc.toSubDoc(pos)
		ref := findRefAtOffset(fc.parsed.QueryAST, schemaRawOrNil(merged.Schema), fc.parsed.EffectiveSource, offset)
		if ref == nil {
			// The cursor might be directly on a fragment's own name token
			// (its definition, not a spread of it) — check that too.
			if name, ok := fragmentDefNameAt(fc.parsed.QueryAST, offset); ok {
				targetKind, targetName = refFragmentSpread, name
			} else {
				return nil, nil
			}
		} else {
			targetKind, targetName = ref.Kind, ref.Name
		}
	} else if fc.parsed.SchemaAST != nil {
		structure, err := hir.FileStructureOf(qc, fc.id)
		if err != nil {
			return nil, err
		}
		offset := fc.toSubDoc(pos)
		for _, td := range structure.Types {
			if offset >= td.NameRange.Start && offset < td.NameRange.End {
				targetKind, targetName = refTypeName, td.Name
				break
			}
		}
		if targetName == "" {
			return nil, nil
		}
	} else {
		return nil, nil
	}

	switch targetKind {
	case refFragmentSpread:
		return a.findFragmentSpreadReferences(qc, targetName)
	case refTypeName:
		return a.findTypeReferences(qc, targetName)
	case refVariableDecl, refVariableUsage:
		return a.findVariableReferences(qc, fc, targetName)
	}
	return nil, nil
}

func fragmentDefNameAt(doc *ast.QueryDocument, offset int) (string, bool) {
	for _, frag := range doc.Fragments {
		if withinToken(frag.Position, len(frag.Name), offset) {
			return frag.Name, true
		}
	}
	return "", false
}

// findFragmentSpreadReferences scans every document file's parsed AST for
// `...name` spreads. A project-wide textual scan (rather than a
// precomputed reverse index) is acceptable here: each file's parse is
// already memoized, so this reuses cached ASTs rather than reparsing.
func (a *Analysis) findFragmentSpreadReferences(qc *store.QueryContext, name string) ([]Location, error) {
	pf := qc.ReadProjectFiles()
	var out []Location
	for _, fid := range pf.DocumentFileIds {
		parsed, err := hir.ParseFile(qc, fid)
		if err != nil || parsed.QueryAST == nil {
			continue
		}
		fc, err := a.openFileByID(qc, fid)
		if err != nil {
			return nil, err
		}
		uri, _ := a.uriFor(qc, fid)
		walkSpreads(parsed.QueryAST, func(spreadName string, pos *ast.Position) {
			if spreadName != name || pos == nil {
				return
			}
			out = append(out, Location{URI: uri, Range: fc.toHostRange(store.ByteRange{Start: pos.Start, End: pos.Start + len(name)})})
		})
	}
	return out, nil
}

func walkSpreads(doc *ast.QueryDocument, visit func(name string, pos *ast.Position)) {
	var walkSet func(ast.SelectionSet)
	walkSet = func(set ast.SelectionSet) {
		for _, sel := range set {
			switch v := sel.(type) {
			case *ast.Field:
				walkSet(v.SelectionSet)
			case *ast.FragmentSpread:
				visit(v.Name, v.Position)
			case *ast.InlineFragment:
				walkSet(v.SelectionSet)
			}
		}
	}
	for _, op := range doc.Operations {
		walkSet(op.SelectionSet)
	}
	for _, frag := range doc.Fragments {
		walkSet(frag.SelectionSet)
	}
}

// findTypeReferences returns every fragment definition's type condition
// across the project matching name, plus the type's own declaration site
// (inline fragments' type conditions are not searched), using the same
// textual fallback
// findRefAtOffset uses for single-position lookups (gqlparser carries no
// standalone position for a type condition token).
func (a *Analysis) findTypeReferences(qc *store.QueryContext, name string) ([]Location, error) {
	var out []Location
	if fid, rng, ok, err := resolveTypeLocation(qc, name); err != nil {
		return nil, err
	} else if ok {
		if loc, err := a.locationForFile(qc, fid, rng); err == nil {
			out = append(out, loc)
		}
	}

	pf := qc.ReadProjectFiles()
	for _, fid := range pf.DocumentFileIds {
		parsed, err := hir.ParseFile(qc, fid)
		if err != nil || parsed.QueryAST == nil {
			continue
		}
		fc, err := a.openFileByID(qc, fid)
		if err != nil {
			return nil, err
		}
		uri, _ := a.uriFor(qc, fid)
		for _, frag := range parsed.QueryAST.Fragments {
			if frag.TypeCondition != name || frag.Position == nil {
				continue
			}
			start, end, ok := locateTypeConditionToken(parsed.EffectiveSource, frag.Position.Start, name)
			if !ok {
				continue
			}
			out = append(out, Location{URI: uri, Range: fc.toHostRange(store.ByteRange{Start: start, End: end})})
		}
	}
	return out, nil
}

func (a *Analysis) findVariableReferences(qc *store.QueryContext, fc *fileContext, rawName string) ([]Location, error) {
	name := rawName
	if len(name) > 0 && name[0] == '$' {
		name = name[1:]
	}
	parsed := fc.parsed
	if parsed.QueryAST == nil {
		return nil, nil
	}
	uri, _ := a.uriFor(qc, fc.id)
	var out []Location
	for _, op := range parsed.QueryAST.Operations {
		for _, v := range op.VariableDefinitions {
			if v.Variable == name && v.Position != nil {
				out = append(out, Location{URI: uri, Range: fc.toHostRange(store.ByteRange{Start: v.Position.Start, End: v.Position.Start + len(name) + 1})})
			}
		}
		walkVariableUsages(op.SelectionSet, func(usage string, pos *ast.Position) {
			if usage != name || pos == nil {
				return
			}
			out = append(out, Location{URI: uri, Range: fc.toHostRange(store.ByteRange{Start: pos.Start, End: pos.Start + len(usage) + 1})})
		})
	}
	return out, nil
}

func walkVariableUsages(set ast.SelectionSet, visit func(name string, pos *ast.Position)) {
	for _, sel := range set {
		switch v := sel.(type) {
		case *ast.Field:
			for _, arg := range v.Arguments {
				if arg.Value != nil && arg.Value.Kind == ast.Variable {
					visit(arg.Value.Raw, arg.Value.Position)
				}
			}
			walkVariableUsages(v.SelectionSet, visit)
		case *ast.InlineFragment:
			walkVariableUsages(v.SelectionSet, visit)
		}
	}
}
