// Package store implements the engine's input database and the demand-driven
// memoized query substrate that every higher layer (syntax, HIR, analysis,
// IDE) is built on top of.
package store

import "fmt"

// FileId is an opaque, dense integer allocated by the store at first
// registration of a FileUri. It never changes for the lifetime of the file.
type FileId uint32

func (id FileId) String() string {
	return fmt.Sprintf("file#%d", uint32(id))
}

// FileUri is the URI form of a file path, as supplied by the caller.
type FileUri string

// FileKind determines how a file's content is parsed and validated.
type FileKind int

const (
	// FileKindUnknown is the zero value; register_file always assigns one
	// of the other kinds, so this should never be observed downstream.
	FileKindUnknown FileKind = iota
	FileKindSchema
	FileKindExecutableGraphQL
	FileKindHostEmbedded
)

func (k FileKind) String() string {
	switch k {
	case FileKindSchema:
		return "schema"
	case FileKindExecutableGraphQL:
		return "executable"
	case FileKindHostEmbedded:
		return "host-embedded"
	default:
		return "unknown"
	}
}

// Language determines whether a host-file extraction pass runs over a file.
type Language int

const (
	LanguageUnknown Language = iota
	LanguageGraphQL
	LanguageTypeScript
	LanguageJavaScript
)

func (l Language) String() string {
	switch l {
	case LanguageGraphQL:
		return "graphql"
	case LanguageTypeScript:
		return "typescript"
	case LanguageJavaScript:
		return "javascript"
	default:
		return "unknown"
	}
}

// Metadata is the non-text tracked input for a file.
type Metadata struct {
	Uri FileUri
	Kind FileKind
	Language Language
	// LineOffset is added to reported line numbers; used when a host file's
	// embedded GraphQL is presented as a logical sub-document. Zero for pure
	// GraphQL files.
	LineOffset int
}

func (m Metadata) equal(o Metadata) bool {
	return m.Uri == o.Uri && m.Kind == o.Kind && m.Language == o.Language && m.LineOffset == o.LineOffset
}

// ProjectFiles is the tracked aggregate partitioning a project's files into
// schema-producing and document-producing sets. The two sets are disjoint.
type ProjectFiles struct {
	SchemaFileIds   []FileId
	DocumentFileIds []FileId
}

func (p ProjectFiles) equal(o ProjectFiles) bool {
	return idSliceEqual(p.SchemaFileIds, o.SchemaFileIds) && idSliceEqual(p.DocumentFileIds, o.DocumentFileIds)
}

// disjoint reports whether the schema and document sets share no FileId.
// pkg/ide's RebuildProjectFiles builds ProjectFiles by partitioning files
// on their FileKind, so each file lands in exactly one bucket;
// SetProjectFiles itself does not check this.
func (p ProjectFiles) disjoint() bool {
	seen := make(map[FileId]struct{}, len(p.SchemaFileIds))
	for _, id := range p.SchemaFileIds {
		seen[id] = struct{}{}
	}
	for _, id := range p.DocumentFileIds {
		if _, ok := seen[id]; ok {
			return false
		}
	}
	return true
}

// Disjoint is the exported form of disjoint. Nothing in the module calls
// it, and no diagnostic is emitted for an overlapping ProjectFiles.
func (p ProjectFiles) Disjoint() bool { return p.disjoint() }

// ByteRange is a half-open [Start, End) byte-offset range within one
// file's (or extracted sub-document's) text. Higher layers translate it
// to a UTF-16 Position range via that file's LineIndex.
type ByteRange struct {
	Start int
	End   int
}

func idSliceEqual(a, b []FileId) bool {
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
