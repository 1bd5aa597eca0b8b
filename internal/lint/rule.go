// Package lint hosts the engine's rule registry and built-in rules (§4.5).
// Every rule declares exactly one capability set — standalone document,
// schema-aware document, or project-wide — and the dispatcher in
// internal/analysis picks the query that supplies the right input bundle.
package lint

import (
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/jzeiders/graphql-intel/internal/hir"
	"github.com/jzeiders/graphql-intel/internal/store"
)

// Severity is a rule's effective severity after config overrides are
// applied.
type Severity int

const (
	Off Severity = iota
	Warn
	Error
)

// Meta is a rule's static description.
type Meta struct {
	Name            string
	DefaultSeverity Severity
	InRecommended   bool
	Description     string
}

// Finding is one lint hit, prior to severity resolution and position
// translation (both applied by internal/analysis).
type Finding struct {
	Range   store.ByteRange
	Message string
}

// DocumentInput bundles one document file's parsed form for standalone and
// schema-aware rules.
type DocumentInput struct {
	FileID store.FileId
	Doc    *ast.QueryDocument
}

// OperationEntry bundles one operation's structure and body together with
// its precomputed transitive fragment closure, so project-wide rules never
// need to re-walk fragment spreads themselves.
type OperationEntry struct {
	FileID              store.FileId
	DefinitionIndex     int
	Kind                hir.OperationKind
	Variables           []hir.VarDecl
	Body                hir.OperationBody
	TransitiveFragments hir.TransitiveResult
}

// ProjectInput bundles whole-project HIR indices for project-wide rules:
// every operation (with its transitive fragment closure already resolved),
// every known fragment body (by name, so a rule can inspect a fragment's
// own selections and variable usages), the project's fragment name index,
// and the merged schema.
type ProjectInput struct {
	Operations     []OperationEntry
	FragmentBodies map[string]hir.FragmentBody
	AllFragments   map[string]hir.FragmentRef
	Schema         *ast.Schema
}

// StandaloneRule needs only one document's own AST.
type StandaloneRule interface {
	Meta() Meta
	CheckDocument(doc DocumentInput) []Finding
}

// SchemaAwareRule needs one document's AST plus the merged schema.
type SchemaAwareRule interface {
	Meta() Meta
	CheckDocumentWithSchema(doc DocumentInput, schema *ast.Schema) []Finding
}

// ProjectWideRule needs indices spanning every file in the project.
type ProjectWideRule interface {
	Meta() Meta
	CheckProject(p ProjectInput) []Finding
}
