// Package schema wraps gqlparser's validated *ast.Schema with the hashing
// and lookup conveniences the analysis layer and IDE features need, and
// provides the type/field conflict-comparison helpers used to describe
// duplicate schema definitions found across project files.
package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

// Schema wraps a validated gqlparser schema.
type Schema interface {
	// Hash returns a content hash of the schema's type names, stable
	// across edits that don't change the set of declared types.
	Hash() string

	// Raw returns the underlying gqlparser schema.
	Raw() *ast.Schema

	// GetType looks up a type by name.
	GetType(name string) *ast.Definition

	GetQueryType() *ast.Definition
	GetMutationType() *ast.Definition
	GetSubscriptionType() *ast.Definition
}

type schemaImpl struct {
	schema *ast.Schema
	hash   string
	source string
}

// NewSchema wraps a gqlparser-validated schema, computing a content hash
// over its declared type names.
func NewSchema(astSchema *ast.Schema, source string) Schema {
	var sb strings.Builder
	if astSchema != nil {
		names := make([]string, 0, len(astSchema.Types))
		for name := range astSchema.Types {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			sb.WriteString(name)
		}
	}
	hash := sha256.Sum256([]byte(sb.String()))

	return &schemaImpl{
		schema: astSchema,
		hash:   hex.EncodeToString(hash[:]),
		source: source,
	}
}

func (s *schemaImpl) Hash() string { return s.hash }

func (s *schemaImpl) Raw() *ast.Schema { return s.schema }

func (s *schemaImpl) GetType(name string) *ast.Definition {
	if s.schema == nil || s.schema.Types == nil {
		return nil
	}
	return s.schema.Types[name]
}

func (s *schemaImpl) GetQueryType() *ast.Definition {
	if s.schema == nil {
		return nil
	}
	return s.schema.Query
}

func (s *schemaImpl) GetMutationType() *ast.Definition {
	if s.schema == nil {
		return nil
	}
	return s.schema.Mutation
}

func (s *schemaImpl) GetSubscriptionType() *ast.Definition {
	if s.schema == nil {
		return nil
	}
	return s.schema.Subscription
}

// ComputeHash returns the hex SHA256 hash of data, the same hash
// pkg/documents.ComputeDocumentHash computes for a block's source.
func ComputeHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
