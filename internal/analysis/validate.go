package analysis

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/validator"

	"github.com/jzeiders/graphql-intel/internal/hir"
	"github.com/jzeiders/graphql-intel/internal/store"
	"github.com/jzeiders/graphql-intel/internal/syntax"
	"github.com/jzeiders/graphql-intel/pkg/schema"
)

// MergedSchemaResult is the memoized merged_schema(ProjectFiles) result:
// the project's single validated schema, plus any diagnostics produced
// while building it (parse failures in a schema file, or a type declared
// incompatibly in two files).
type MergedSchemaResult struct {
	Schema      schema.Schema
	Diagnostics []Diagnostic
}

// MergedSchema is the memoized merged_schema(ProjectFiles) query (§4.4).
func MergedSchema(qc *store.QueryContext) (MergedSchemaResult, error) {
	return store.Query(qc, "merged_schema", "", store.DefaultEqual[MergedSchemaResult], func(child *store.QueryContext) (MergedSchemaResult, error) {
		pf := child.ReadProjectFiles()

		var sources []*ast.Source
		var diags []Diagnostic
		schemaDocs := make(map[store.FileId]*ast.SchemaDocument, len(pf.SchemaFileIds))

		for _, fid := range pf.SchemaFileIds {
			parsed, err := hir.ParseFile(child, fid)
			if err != nil {
				return MergedSchemaResult{}, err
			}
			text, _ := child.ReadText(fid)
			meta, _ := child.ReadMetadata(fid)
			li := syntax.NewLineIndex(parsed.EffectiveSource)
			for _, perr := range parsed.ParseErrors {
				diags = append(diags, parseErrorToDiagnostic("parser", li, perr))
			}
			schemaDocs[fid] = parsed.SchemaAST
			sources = append(sources, &ast.Source{Name: string(meta.Uri), Input: text})
		}

		_, conflicts, err := hir.SchemaTypes(child)
		if err != nil {
			return MergedSchemaResult{}, err
		}
		for _, c := range conflicts {
			diags = append(diags, typeConflictDiagnostic(c, schemaDocs))
		}

		var merged schema.Schema
		if len(sources) > 0 {
			validated, err := schema.BuildMergedSchema(sources)
			if err != nil {
				diags = append(diags, Diagnostic{
					Severity: SeverityError,
					Source:   "schema",
					Message:  err.Error(),
				})
			} else {
				merged = schema.NewSchema(validated, "merged")
			}
		}

		return MergedSchemaResult{Schema: merged, Diagnostics: diags}, nil
	})
}

func typeConflictDiagnostic(c hir.TypeConflict, docs map[store.FileId]*ast.SchemaDocument) Diagnostic {
	msg := fmt.Sprintf("type %q is declared in multiple schema files", c.Name)
	if len(c.FileIds) >= 2 {
		var left, right *ast.Definition
		if doc, ok := docs[c.FileIds[0]]; ok {
			left = findDefinition(doc, c.Name)
		}
		if doc, ok := docs[c.FileIds[1]]; ok {
			right = findDefinition(doc, c.Name)
		}
		if left != nil && right != nil {
			if conflict, err := schema.DetectTypeConflict(left, right); err == nil && conflict != nil {
				msg = conflict.Error()
			}
		}
	}
	return Diagnostic{Severity: SeverityError, Source: "schema", Code: "duplicate-type", Message: msg}
}

func findDefinition(doc *ast.SchemaDocument, name string) *ast.Definition {
	if doc == nil {
		return nil
	}
	for _, d := range doc.Definitions {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// ValidateFile is the memoized validate_file(FileId) query: it runs
// gqlparser's query/fragment validator for one document file's effective
// source against the project's merged schema. Per §4.4, the validator's
// input document is not merely this file's own AST: it is this file's
// operations and fragments plus every fragment transitively reachable
// from them, pulled in from wherever in the project it is actually
// defined. Without that closure the validator would report a false
// "unknown fragment" for any cross-file spread (Scenario B).
func ValidateFile(qc *store.QueryContext, id store.FileId) ([]Diagnostic, error) {
	return store.Query(qc, "validate_file", fileKey(id), diagnosticsEqual, func(child *store.QueryContext) ([]Diagnostic, error) {
		parsed, err := hir.ParseFile(child, id)
		if err != nil {
			return nil, err
		}
		li := syntax.NewLineIndex(parsed.EffectiveSource)

		var diags []Diagnostic
		for _, perr := range parsed.ParseErrors {
			diags = append(diags, parseErrorToDiagnostic("parser", li, perr))
		}
		for _, ed := range parsed.ExtractErrors {
			diags = append(diags, extractDiagnosticToDiagnostic(li, ed))
		}
		if parsed.QueryAST == nil {
			return diags, nil
		}

		merged, err := MergedSchema(child)
		if err != nil {
			return nil, err
		}
		if merged.Schema == nil || merged.Schema.Raw() == nil {
			return diags, nil
		}

		validationDoc, err := buildValidationDocument(child, id, parsed)
		if err != nil {
			return nil, err
		}

		errs := validator.Validate(merged.Schema.Raw(), validationDoc)
		diags = append(diags, gqlErrorsToDiagnostics(li, errs)...)
		return diags, nil
	})
}

// buildValidationDocument assembles the executable document handed to the
// validator: id's own operations and fragments, plus every fragment
// reachable transitively from id's operations (§4.4 "Validation input
// must include every transitively referenced fragment"). A fragment name
// that collides across files (hir.AllFragments reports it as a conflict)
// resolves to no occurrence here, matching "resolution for validation
// uses no occurrence (treating the name as undefined), avoiding silent
// wrong-binding" — the validator then reports it as unknown, which is the
// intended diagnostic (Scenario F).
func buildValidationDocument(qc *store.QueryContext, id store.FileId, parsed hir.ParsedFile) (*ast.QueryDocument, error) {
	doc := &ast.QueryDocument{
		Operations: parsed.QueryAST.Operations,
		Fragments:  append(ast.FragmentDefinitionList(nil), parsed.QueryAST.Fragments...),
	}

	structure, err := hir.FileStructureOf(qc, id)
	if err != nil {
		return nil, err
	}
	_, conflicts, err := hir.AllFragments(qc)
	if err != nil {
		return nil, err
	}
	conflicted := make(map[string]bool, len(conflicts))
	for _, c := range conflicts {
		conflicted[c.Name] = true
	}

	have := make(map[string]bool, len(doc.Fragments))
	for _, f := range doc.Fragments {
		have[f.Name] = true
	}

	for _, opStruct := range structure.Operations {
		closure, err := hir.OperationTransitiveFragments(qc, id, opStruct.DefinitionIndex)
		if err != nil {
			return nil, err
		}
		for _, ref := range closure.Fragments {
			if have[ref.Name] || conflicted[ref.Name] {
				continue
			}
			defNode, err := fetchFragmentDefinition(qc, ref)
			if err != nil {
				return nil, err
			}
			if defNode != nil {
				doc.Fragments = append(doc.Fragments, defNode)
				have[ref.Name] = true
			}
		}
	}
	return doc, nil
}

// fetchFragmentDefinition looks up the *ast.FragmentDefinition for a
// fragment reference by re-parsing (memoized, so effectively free after
// the first call) its owning file and scanning for the matching name.
func fetchFragmentDefinition(qc *store.QueryContext, ref hir.FragmentRef) (*ast.FragmentDefinition, error) {
	owner, err := hir.ParseFile(qc, ref.FileId)
	if err != nil || owner.QueryAST == nil {
		return nil, err
	}
	for _, f := range owner.QueryAST.Fragments {
		if f.Name == ref.Name {
			return f, nil
		}
	}
	return nil, nil
}

func gqlErrorsToDiagnostics(li *syntax.LineIndex, errs gqlerror.List) []Diagnostic {
	var out []Diagnostic
	for _, e := range errs {
		offset := 0
		if len(e.Locations) > 0 {
			offset = li.ByteOffsetFor(syntax.Position{Line: e.Locations[0].Line - 1, Character: e.Locations[0].Column - 1})
		}
		pos := li.PositionFor(offset)
		out = append(out, Diagnostic{
			Range:    syntax.Range{Start: pos, End: pos},
			Severity: SeverityError,
			Source:   "validation",
			Message:  e.Message,
		})
	}
	return out
}

func fileKey(id store.FileId) string { return id.String() }

func diagnosticsEqual(a, b []Diagnostic) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
