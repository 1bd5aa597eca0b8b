package analysis

import (
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/jzeiders/graphql-intel/internal/hir"
	"github.com/jzeiders/graphql-intel/internal/lint"
	"github.com/jzeiders/graphql-intel/internal/store"
	"github.com/jzeiders/graphql-intel/internal/syntax"
	"github.com/jzeiders/graphql-intel/pkg/config"
)

const lintConfigKey = "lint"

var defaultRegistry = lint.NewDefaultRegistry()

// resolveLintConfig reads the tracked "lint" config input, falling back to
// the recommended rule set when none has been set.
func resolveLintConfig(qc *store.QueryContext) config.LintConfig {
	raw, ok := qc.ReadConfig(lintConfigKey)
	if !ok {
		return config.LintConfig{Recommended: true, Rules: map[string]string{}}
	}
	cfg, ok := raw.(config.LintConfig)
	if !ok {
		return config.LintConfig{Recommended: true, Rules: map[string]string{}}
	}
	return cfg
}

// severityFor resolves a rule's effective severity: an explicit override in
// LintConfig.Rules wins; otherwise a rule's default applies only when the
// rule is in the recommended set (or the project opted into "all rules").
func severityFor(meta lint.Meta, cfg config.LintConfig) lint.Severity {
	if override, ok := cfg.Rules[meta.Name]; ok {
		switch override {
		case "error":
			return lint.Error
		case "warning":
			return lint.Warn
		case "off":
			return lint.Off
		}
	}
	if cfg.Recommended && meta.InRecommended {
		return meta.DefaultSeverity
	}
	if !cfg.Recommended {
		return meta.DefaultSeverity
	}
	return lint.Off
}

func findingToDiagnostic(li *syntax.LineIndex, meta lint.Meta, sev lint.Severity, f lint.Finding) Diagnostic {
	return Diagnostic{
		Range:    byteRangeToRange(li, f.Range),
		Severity: lintSeverityToDiagnosticSeverity(sev),
		Source:   "lint",
		Code:     meta.Name,
		Message:  f.Message,
	}
}

func lintSeverityToDiagnosticSeverity(s lint.Severity) Severity {
	if s == lint.Error {
		return SeverityError
	}
	return SeverityWarning
}

// LintFile is the memoized lint_file(FileId, ProjectFiles) query (§4.5):
// every standalone and schema-aware rule result for one document file, at
// its currently configured severities.
func LintFile(qc *store.QueryContext, id store.FileId) ([]Diagnostic, error) {
	return store.Query(qc, "lint_file", fileKey(id), diagnosticsEqual, func(child *store.QueryContext) ([]Diagnostic, error) {
		parsed, err := hir.ParseFile(child, id)
		if err != nil || parsed.QueryAST == nil {
			return nil, err
		}
		li := syntax.NewLineIndex(parsed.EffectiveSource)
		cfg := resolveLintConfig(child)
		docInput := lint.DocumentInput{FileID: id, Doc: parsed.QueryAST}

		var diags []Diagnostic
		for _, rule := range defaultRegistry.Standalone() {
			meta := rule.Meta()
			sev := severityFor(meta, cfg)
			if sev == lint.Off {
				continue
			}
			for _, f := range rule.CheckDocument(docInput) {
				diags = append(diags, findingToDiagnostic(li, meta, sev, f))
			}
		}

		merged, err := MergedSchema(child)
		if err != nil {
			return nil, err
		}
		if merged.Schema != nil && merged.Schema.Raw() != nil {
			for _, rule := range defaultRegistry.SchemaAware() {
				meta := rule.Meta()
				sev := severityFor(meta, cfg)
				if sev == lint.Off {
					continue
				}
				for _, f := range rule.CheckDocumentWithSchema(docInput, merged.Schema.Raw()) {
					diags = append(diags, findingToDiagnostic(li, meta, sev, f))
				}
			}
		}

		return diags, nil
	})
}

// ProjectLints is the memoized project_lints(ProjectFiles) query (§4.5):
// every project-wide rule's findings, each translated to its owning file's
// positions.
func ProjectLints(qc *store.QueryContext) (map[store.FileId][]Diagnostic, error) {
	type result struct {
		byFile map[store.FileId][]Diagnostic
	}
	r, err := store.Query(qc, "project_lints", "", func(a, b result) bool {
		return diagnosticsByFileEqual(a.byFile, b.byFile)
	}, func(child *store.QueryContext) (result, error) {
		cfg := resolveLintConfig(child)
		hasProjectRule := false
		for _, rule := range defaultRegistry.ProjectWide() {
			if severityFor(rule.Meta(), cfg) != lint.Off {
				hasProjectRule = true
				break
			}
		}
		if !hasProjectRule {
			return result{}, nil
		}

		input, lineIndexes, err := buildProjectInput(child)
		if err != nil {
			return result{}, err
		}

		byFile := make(map[store.FileId][]Diagnostic)
		for _, rule := range defaultRegistry.ProjectWide() {
			meta := rule.Meta()
			sev := severityFor(meta, cfg)
			if sev == lint.Off {
				continue
			}
			for _, f := range rule.CheckProject(input) {
				fid, li := ownerFor(f, input, lineIndexes)
				byFile[fid] = append(byFile[fid], findingToDiagnostic(li, meta, sev, f))
			}
		}
		return result{byFile: byFile}, nil
	})
	return r.byFile, err
}

// buildProjectInput assembles lint.ProjectInput from HIR indices: every
// operation across every document file (with its transitive fragment
// closure already resolved), every fragment body by name, the project
// fragment index, and the merged schema.
func buildProjectInput(qc *store.QueryContext) (lint.ProjectInput, map[store.FileId]*syntax.LineIndex, error) {
	pf := qc.ReadProjectFiles()
	lineIndexes := make(map[store.FileId]*syntax.LineIndex, len(pf.DocumentFileIds))

	allFragments, _, err := hir.AllFragments(qc)
	if err != nil {
		return lint.ProjectInput{}, nil, err
	}
	fragmentBodies := make(map[string]hir.FragmentBody, len(allFragments))
	for name, ref := range allFragments {
		body, err := hir.FragmentBodyOf(qc, ref.FileId, name)
		if err != nil {
			return lint.ProjectInput{}, nil, err
		}
		fragmentBodies[name] = body
	}

	var operations []lint.OperationEntry
	for _, fid := range pf.DocumentFileIds {
		parsed, err := hir.ParseFile(qc, fid)
		if err != nil {
			return lint.ProjectInput{}, nil, err
		}
		lineIndexes[fid] = syntax.NewLineIndex(parsed.EffectiveSource)
		if parsed.QueryAST == nil {
			continue
		}
		structure, err := hir.FileStructureOf(qc, fid)
		if err != nil {
			return lint.ProjectInput{}, nil, err
		}
		for i, opStruct := range structure.Operations {
			body, err := hir.OperationBodyOf(qc, fid, opStruct.DefinitionIndex)
			if err != nil {
				return lint.ProjectInput{}, nil, err
			}
			transitive, err := hir.OperationTransitiveFragments(qc, fid, opStruct.DefinitionIndex)
			if err != nil {
				return lint.ProjectInput{}, nil, err
			}
			operations = append(operations, lint.OperationEntry{
				FileID:              fid,
				DefinitionIndex:     i,
				Kind:                opStruct.Kind,
				Variables:           opStruct.Variables,
				Body:                body,
				TransitiveFragments: transitive,
			})
		}
	}

	merged, err := MergedSchema(qc)
	if err != nil {
		return lint.ProjectInput{}, nil, err
	}
	var schemaAST *ast.Schema
	if merged.Schema != nil {
		schemaAST = merged.Schema.Raw()
	}

	return lint.ProjectInput{
		Operations:     operations,
		FragmentBodies: fragmentBodies,
		AllFragments:   allFragments,
		Schema:         schemaAST,
	}, lineIndexes, nil
}

// ownerFor picks which file a project-wide finding's position should be
// reported against. Project-wide rules (unused fragments/variables/fields)
// inherently span the whole project rather than belonging to one file, so
// findings are attached to the file of the first entry in
// input.Operations (FileId 0 when there is none) as a default home; IDE surfaces that want per-file precision can
// still read the finding's own message for the fragment/operation/field
// name it names.
func ownerFor(f lint.Finding, input lint.ProjectInput, lineIndexes map[store.FileId]*syntax.LineIndex) (store.FileId, *syntax.LineIndex) {
	for _, op := range input.Operations {
		if li, ok := lineIndexes[op.FileID]; ok {
			return op.FileID, li
		}
	}
	return 0, syntax.NewLineIndex("")
}

func diagnosticsByFileEqual(a, b map[store.FileId][]Diagnostic) bool {
	if len(a) != len(b) {
		return false
	}
	for fid, da := range a {
		db, ok := b[fid]
		if !ok || !diagnosticsEqual(da, db) {
			return false
		}
	}
	return true
}
