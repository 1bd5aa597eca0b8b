package ide

import (
	"context"
	"strings"

	"github.com/jzeiders/graphql-intel/internal/hir"
	"github.com/jzeiders/graphql-intel/internal/store"
	"github.com/jzeiders/graphql-intel/internal/syntax"
)

// SymbolKind mirrors the handful of top-level GraphQL definition shapes
// the engine surfaces as symbols, independent of any particular editor
// protocol's own enum values.
type SymbolKind int

const (
	SymbolKindOperation SymbolKind = iota
	SymbolKindFragment
	SymbolKindObjectType
	SymbolKindInterfaceType
	SymbolKindUnionType
	SymbolKindEnumType
	SymbolKindInputType
	SymbolKindScalarType
	SymbolKindField
)

// Symbol is one entry in a document or workspace symbol listing (§4.6).
type Symbol struct {
	Name      string
	Kind      SymbolKind
	Range     syntax.Range
	Detail    string
	Children  []Symbol
}

func symbolKindForType(k hir.TypeKind) SymbolKind {
	switch k {
	case hir.TypeKindInterface:
		return SymbolKindInterfaceType
	case hir.TypeKindUnion:
		return SymbolKindUnionType
	case hir.TypeKindEnum:
		return SymbolKindEnumType
	case hir.TypeKindInput:
		return SymbolKindInputType
	case hir.TypeKindScalar:
		return SymbolKindScalarType
	default:
		return SymbolKindObjectType
	}
}

// DocumentSymbols lists the top-level definitions in uri, each carrying
// its nested fields/variables as children, for an editor's outline view.
func (a *Analysis) DocumentSymbols(ctx context.Context, uri store.FileUri) ([]Symbol, error) {
	qc := a.qc(ctx)
	id, ok := a.resolve(uri)
	if !ok {
		return nil, nil
	}
	fc, err := a.openFileByID(qc, id)
	if err != nil || fc == nil {
		return nil, err
	}
	structure, err := hir.FileStructureOf(qc, id)
	if err != nil {
		return nil, err
	}

	var out []Symbol
	for _, td := range structure.Types {
		sym := Symbol{
			Name:   td.Name,
			Kind:   symbolKindForType(td.Kind),
			Range:  fc.toHostRange(td.DefinitionRange),
			Detail: typeKindLabel(td.Kind),
		}
		for _, f := range td.Fields {
			sym.Children = append(sym.Children, Symbol{
				Name:   f.Name,
				Kind:   SymbolKindField,
				Range:  fc.toHostRange(f.NameRange),
				Detail: renderTypeRef(f.Type),
			})
		}
		out = append(out, sym)
	}
	for _, op := range structure.Operations {
		name := op.Name
		if name == "" {
			name = "<anonymous>"
		}
		sym := Symbol{
			Name:   name,
			Kind:   SymbolKindOperation,
			Range:  fc.toHostRange(op.OperationRange),
			Detail: operationKindLabel(op.Kind),
		}
		for _, v := range op.Variables {
			sym.Children = append(sym.Children, Symbol{
				Name:   "$" + v.Name,
				Kind:   SymbolKindField,
				Range:  fc.toHostRange(v.NameRange),
				Detail: renderTypeRef(v.Type),
			})
		}
		out = append(out, sym)
	}
	for _, frag := range structure.Fragments {
		out = append(out, Symbol{
			Name:   frag.Name,
			Kind:   SymbolKindFragment,
			Range:  fc.toHostRange(frag.FragmentRange),
			Detail: "on " + frag.TypeCondition,
		})
	}
	return out, nil
}

func operationKindLabel(k hir.OperationKind) string {
	switch k {
	case hir.OperationMutation:
		return "mutation"
	case hir.OperationSubscription:
		return "subscription"
	default:
		return "query"
	}
}

// WorkspaceSymbol is a DocumentSymbols entry tagged with its owning uri,
// for cross-file name search (§4.6: workspace_symbols(query) → [Symbol]).
type WorkspaceSymbol struct {
	Symbol
	URI store.FileUri
}

// WorkspaceSymbols searches every document and schema file's top-level
// symbols for a case-insensitive substring match against query. An empty
// query returns every symbol, matching the common "browse everything"
// editor affordance.
func (a *Analysis) WorkspaceSymbols(ctx context.Context, query string) ([]WorkspaceSymbol, error) {
	qc := a.qc(ctx)
	pf := qc.ReadProjectFiles()
	needle := strings.ToLower(query)

	ids := append(append([]store.FileId(nil), pf.SchemaFileIds...), pf.DocumentFileIds...)
	var out []WorkspaceSymbol
	for _, id := range sortedFileIds(ids) {
		uri, ok := a.uriFor(qc, id)
		if !ok {
			continue
		}
		syms, err := a.DocumentSymbols(ctx, uri)
		if err != nil {
			return nil, err
		}
		for _, s := range syms {
			if needle == "" || strings.Contains(strings.ToLower(s.Name), needle) {
				out = append(out, WorkspaceSymbol{Symbol: s, URI: uri})
			}
		}
		if qc.Cancelled() {
			return out, store.ErrCancelled
		}
	}
	return out, nil
}
