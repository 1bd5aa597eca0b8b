// Package ide is the engine's public, protocol-neutral feature surface
// (§4.6): AnalysisHost is the single-writer mutator, Analysis is an
// immutable, many-reader snapshot exposing hover, goto-definition,
// find-references, completion, symbols, folding, inlay hints, semantic
// tokens, and code lenses. Nothing here knows about LSP/JSON-RPC, CLI
// framing, or UTF-16 wire encoding beyond the Position contract itself —
// those adapters are out of this package's scope (§1).
package ide

import (
	"github.com/jzeiders/graphql-intel/internal/store"
	"github.com/jzeiders/graphql-intel/internal/syntax"
)

// Location names a range within a file by URI, matching §6.A: "Locations
// carry a file URI and a range."
type Location struct {
	URI   store.FileUri
	Range syntax.Range
}
