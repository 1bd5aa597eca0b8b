package lint

import (
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/jzeiders/graphql-intel/internal/store"
)

// uniqueNamesRule flags two operations or fragments in the same document
// sharing a name; gqlparser's own validator catches this for operations
// spread across a whole project, but a tolerant per-document pass on the
// raw AST surfaces it immediately, even while a document doesn't parse
// cleanly enough for project-wide validation.
type uniqueNamesRule struct{}

func (uniqueNamesRule) Meta() Meta {
	return Meta{
		Name:            "unique_names",
		DefaultSeverity: Error,
		InRecommended:   true,
		Description:     "operations and fragments in a document must have unique names",
	}
}

func (uniqueNamesRule) CheckDocument(doc DocumentInput) []Finding {
	var findings []Finding
	seenOps := make(map[string]bool)
	for _, op := range doc.Doc.Operations {
		if op.Name == "" {
			continue
		}
		if seenOps[op.Name] {
			findings = append(findings, Finding{
				Range:   rangeFromPosition(op.Position),
				Message: fmt.Sprintf("operation %q is defined more than once in this document", op.Name),
			})
			continue
		}
		seenOps[op.Name] = true
	}
	seenFrags := make(map[string]bool)
	for _, frag := range doc.Doc.Fragments {
		if seenFrags[frag.Name] {
			findings = append(findings, Finding{
				Range:   rangeFromPosition(frag.Position),
				Message: fmt.Sprintf("fragment %q is defined more than once in this document", frag.Name),
			})
			continue
		}
		seenFrags[frag.Name] = true
	}
	return findings
}

// noAnonymousOperationsRule requires every operation to be named, since
// unnamed operations can't be addressed by tooling (go-to-definition,
// codegen output naming, per-operation lint suppression).
type noAnonymousOperationsRule struct{}

func (noAnonymousOperationsRule) Meta() Meta {
	return Meta{
		Name:            "no_anonymous_operations",
		DefaultSeverity: Warn,
		InRecommended:   true,
		Description:     "every operation should have a name",
	}
}

func (noAnonymousOperationsRule) CheckDocument(doc DocumentInput) []Finding {
	// A document with exactly one operation may leave it anonymous
	// (query shorthand, `{ a }`) with no ambiguity about what tooling
	// should call it; the rule only bites once a second operation makes
	// the document's operations addressable by name.
	if len(doc.Doc.Operations) <= 1 {
		return nil
	}
	var findings []Finding
	for _, op := range doc.Doc.Operations {
		if op.Name == "" {
			findings = append(findings, Finding{
				Range:   rangeFromPosition(op.Position),
				Message: "anonymous operation should be given a name",
			})
		}
	}
	return findings
}

// operationNameSuffixRule enforces the convention that an operation's
// name ends in its kind (GetUserQuery, UpdateUserMutation,
// OnUserUpdatedSubscription) — common in generated-client codebases so
// the client-side symbol name tells you the operation kind at a glance.
type operationNameSuffixRule struct{}

func (operationNameSuffixRule) Meta() Meta {
	return Meta{
		Name:            "operation_name_suffix",
		DefaultSeverity: Off,
		InRecommended:   false,
		Description:     "operation names should end in Query/Mutation/Subscription",
	}
}

func (operationNameSuffixRule) CheckDocument(doc DocumentInput) []Finding {
	var findings []Finding
	for _, op := range doc.Doc.Operations {
		if op.Name == "" {
			continue
		}
		suffix := operationSuffixFor(op.Operation)
		if !strings.HasSuffix(op.Name, suffix) {
			findings = append(findings, Finding{
				Range:   rangeFromPosition(op.Position),
				Message: fmt.Sprintf("operation %q should end in %q", op.Name, suffix),
			})
		}
	}
	return findings
}

func operationSuffixFor(kind ast.Operation) string {
	switch kind {
	case ast.Mutation:
		return "Mutation"
	case ast.Subscription:
		return "Subscription"
	default:
		return "Query"
	}
}

func rangeFromPosition(pos *ast.Position) store.ByteRange {
	if pos == nil {
		return store.ByteRange{}
	}
	return store.ByteRange{Start: pos.Start, End: pos.Start}
}
