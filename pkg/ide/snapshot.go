package ide

import (
	"context"
	"sort"

	"github.com/jzeiders/graphql-intel/internal/hir"
	"github.com/jzeiders/graphql-intel/internal/store"
	"github.com/jzeiders/graphql-intel/internal/syntax"
)

// Analysis is the read-only snapshot side of the engine's public surface
// (§4.6). Every method is a pure query over the frozen generation
// captured at Snapshot() time: the writer lock is never taken (only the
// query cache's own mutex, briefly, inside store.Query), and two Analysis
// values (or two calls on the same one) from different goroutines never
// race, satisfying Property 6 (snapshot isolation).
type Analysis struct {
	db       *store.Database
	snap     *store.Snapshot
	pathToID map[store.FileUri]store.FileId
}

// Revision reports the database revision this snapshot is pinned to.
func (a *Analysis) Revision() store.Revision { return a.snap.Revision() }

// resolve looks up a uri against this snapshot's frozen path table.
func (a *Analysis) resolve(uri store.FileUri) (store.FileId, bool) {
	id, ok := a.pathToID[uri]
	return id, ok
}

// qc starts a fresh root query context bound to this snapshot. ctx carries
// cooperative cancellation (§5): a nil ctx becomes context.Background().
func (a *Analysis) qc(ctx context.Context) *store.QueryContext {
	return store.RootQueryContext(ctx, a.snap)
}

// Cancelled reports whether a writer has advanced past this snapshot,
// i.e. whether a long-running read built on it should abandon work at its
// next natural boundary (§5).
func (a *Analysis) Cancelled() bool { return a.snap.Stale() }

// fileContext bundles the handful of values every position-taking feature
// needs: the resolved FileId, its parse result, and the line indices for
// translating between host-file and effective-source coordinates.
type fileContext struct {
	id        store.FileId
	parsed    hir.ParsedFile
	hostText  string
	hostLI    *syntax.LineIndex
	effLI     *syntax.LineIndex
}

func (a *Analysis) openFile(qc *store.QueryContext, uri store.FileUri) (*fileContext, error) {
	id, ok := a.resolve(uri)
	if !ok {
		return nil, nil
	}
	return a.openFileByID(qc, id)
}

// toSubDoc converts a position given in host-file coordinates (§4.6: "The
// IDE layer receives ... positions in host-file coordinates") into the
// corresponding byte offset within the file's effective GraphQL source,
// undoing LineOffset and, for host-embedded files, mapping through the
// extraction offset map. For a pure GraphQL file (LineOffset zero,
// EffectiveSource identical to the file's own text) this is the identity
// translation.
func (fc *fileContext) toSubDoc(pos syntax.Position) int {
	hostPos := pos
	hostPos.Line -= fc.parsed.LineOffset
	if hostPos.Line < 0 {
		hostPos.Line = 0
	}
	hostOffset := fc.hostLI.ByteOffsetFor(hostPos)
	if fc.parsed.Kind != store.FileKindHostEmbedded {
		return hostOffset
	}
	return reverseHostOffset(fc.parsed.HostOffsets, hostOffset)
}

// toHost converts an effective-source byte offset back into a host-file
// Position, applying the extraction offset map and LineOffset in the
// opposite direction from toSubDoc. It is the inverse used on every
// value the engine returns (§4.6: "runs the query, and converts back on
// the way out").
func (fc *fileContext) toHost(effectiveOffset int) syntax.Position {
	hostOffset := effectiveOffset
	if fc.parsed.Kind == store.FileKindHostEmbedded {
		hostOffset = fc.parsed.HostOffset(effectiveOffset)
		if hostOffset < 0 {
			hostOffset = 0
		}
	}
	pos := fc.hostLI.PositionFor(hostOffset)
	pos.Line += fc.parsed.LineOffset
	return pos
}

func (fc *fileContext) toHostRange(r store.ByteRange) syntax.Range {
	return syntax.Range{Start: fc.toHost(r.Start), End: fc.toHost(r.End)}
}

// reverseHostOffset finds the effective-source index whose host byte
// offset is the closest one at-or-after hostOffset, skipping synthetic
// separator bytes (marked -1 in offsets, §4.2 "effective GraphQL text is
// the concatenation (with synthetic separators) of its blocks"). offsets
// is weakly increasing within each block, so a linear scan is sufficient
// here; this runs once per IDE feature call, not on the hot incremental
// recompute path.
func reverseHostOffset(offsets []int, hostOffset int) int {
	best := 0
	for i, off := range offsets {
		if off == -1 {
			continue
		}
		if off <= hostOffset {
			best = i
		}
		if off >= hostOffset {
			return i
		}
	}
	return best
}

// locationForFile builds a Location in a given file's host coordinates.
func (a *Analysis) locationForFile(qc *store.QueryContext, id store.FileId, r store.ByteRange) (Location, error) {
	fc, err := a.openFileByID(qc, id)
	if err != nil || fc == nil {
		return Location{}, err
	}
	uri, _ := a.uriFor(qc, id)
	return Location{URI: uri, Range: fc.toHostRange(r)}, nil
}

func (a *Analysis) openFileByID(qc *store.QueryContext, id store.FileId) (*fileContext, error) {
	parsed, err := hir.ParseFile(qc, id)
	if err != nil {
		return nil, err
	}
	hostText, _ := qc.ReadText(id)
	return &fileContext{
		id:       id,
		parsed:   parsed,
		hostText: hostText,
		hostLI:   syntax.NewLineIndex(hostText),
		effLI:    syntax.NewLineIndex(parsed.EffectiveSource),
	}, nil
}

func (a *Analysis) uriFor(qc *store.QueryContext, id store.FileId) (store.FileUri, bool) {
	meta, ok := qc.ReadMetadata(id)
	if !ok {
		return "", false
	}
	return meta.Uri, true
}

// sortedFileIds is a small helper WorkspaceSymbols uses for deterministic
// iteration order over the project's schema and document files.
func sortedFileIds(ids []store.FileId) []store.FileId {
	out := append([]store.FileId(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
