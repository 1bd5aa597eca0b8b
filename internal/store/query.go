package store

import (
	"context"
	"fmt"
	"reflect"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// nodeID names a single memoized node in the query graph: either a tracked
// input cell (query names prefixed with "input:") or a derived query
// result keyed by (query name, key).
type nodeID struct {
	query string
	key   string
}

func (n nodeID) String() string { return n.query + "/" + n.key }

// depRecord is one entry in a node's recorded dependency set: which node
// was read, and what that node's changedAt stamp was at read time.
type depRecord struct {
	id        nodeID
	changedAt Revision
}

// node is a single cached entry: either a pushed input value or the result
// of the most recent execution of a derived query.
type node struct {
	value      any
	err        error
	changedAt  Revision
	verifiedAt Revision
	deps       []depRecord
}

// EqualFunc reports whether two query results are equivalent. When a
// recomputed value is equal to the previous cached value, the store
// "backdates" the node: it keeps serving the old value (preserving pointer
// identity for reference types) and does not advance changedAt, so
// dependents that only read through this node are not forced to
// recompute. This is what makes Property 3 (the golden invariant) hold.
type EqualFunc[V any] func(a, b V) bool

// DefaultEqual is a reflect.DeepEqual-based fallback for queries that do
// not supply a cheaper comparison.
func DefaultEqual[V any](a, b V) bool {
	return reflect.DeepEqual(a, b)
}

// QueryContext threads the generation a query executes against, the
// dependency set it accumulates as it reads inputs and nested queries, and
// a context.Context for cooperative cancellation.
type QueryContext struct {
	db    *Database
	snap  *Snapshot
	ctx   context.Context
	reads []depRecord
}

// RootQueryContext starts a fresh top-level query execution bound to snap.
func RootQueryContext(ctx context.Context, snap *Snapshot) *QueryContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &QueryContext{db: snap.db, snap: snap, ctx: ctx}
}

func (qc *QueryContext) child() *QueryContext {
	return &QueryContext{db: qc.db, snap: qc.snap, ctx: qc.ctx}
}

func (qc *QueryContext) record(id nodeID, changedAt Revision) {
	qc.reads = append(qc.reads, depRecord{id: id, changedAt: changedAt})
}

// Context exposes the underlying context.Context, e.g. for passing to
// tree-sitter parses that accept one, or for checking ctx.Err() directly.
func (qc *QueryContext) Context() context.Context { return qc.ctx }

// ErrCancelled is returned by pkg/ide's multi-file loops (workspace
// diagnostics, workspace symbols, code-lens counting) when they observe
// the snapshot going stale mid-flight.
// It is an internal control signal, never surfaced as a file diagnostic
// (see spec error taxonomy: Cancellation).
var ErrCancelled = fmt.Errorf("store: query cancelled")

// Cancelled reports whether this query execution should abandon work: the
// caller's context was cancelled, or a writer has advanced past the
// snapshot this query is reading through.
func (qc *QueryContext) Cancelled() bool {
	if err := qc.ctx.Err(); err != nil {
		return true
	}
	return qc.snap.Stale()
}

// ReadText reads a file's tracked text input and records the dependency.
func (qc *QueryContext) ReadText(id FileId) (string, bool) {
	entry, ok := qc.snap.fileEntry(id)
	if !ok {
		return "", false
	}
	qc.record(nodeID{"input:text", fileKey(id)}, entry.textChangedAt)
	return entry.text, true
}

// ReadMetadata reads a file's tracked metadata input and records the
// dependency.
func (qc *QueryContext) ReadMetadata(id FileId) (Metadata, bool) {
	entry, ok := qc.snap.fileEntry(id)
	if !ok {
		return Metadata{}, false
	}
	qc.record(nodeID{"input:meta", fileKey(id)}, entry.metaChangedAt)
	return entry.meta, true
}

// ReadProjectFiles reads the tracked ProjectFiles aggregate and records
// the dependency.
func (qc *QueryContext) ReadProjectFiles() ProjectFiles {
	qc.record(nodeID{"input:project", ""}, qc.snap.gen.projectChangedAt)
	return qc.snap.gen.project
}

// singleflightGroup is a thin rename so query.go does not need to import
// singleflight in every call site that embeds a Database.
type singleflightGroup = singleflight.Group

// Query runs a memoized, dependency-tracked query. name/key identify the
// node; eq (nil is allowed, falling back to DefaultEqual semantics being
// skipped, i.e. no backdating) decides whether a freshly recomputed value
// can reuse the previously cached reference; compute is the query body,
// given a fresh child QueryContext whose accumulated reads become this
// node's recorded dependency set.
//
// Query is generic over the result type so call sites in internal/hir and
// internal/analysis get typed results without casts.
func Query[V any](parent *QueryContext, name string, key string, eq EqualFunc[V], compute func(*QueryContext) (V, error)) (V, error) {
	id := nodeID{name, key}
	db := parent.db

	if v, cachedErr, changedAt, ok := tryCachedHit(db, id); ok {
		parent.record(id, changedAt)
		return v.(V), cachedErr
	}

	type outcome struct {
		value     any
		err       error
		changedAt Revision
	}

	res, _, _ := db.sf.Do(id.String(), func() (any, error) {
		// Re-check under the singleflight key: another goroutine may have
		// just finished the same recomputation while we queued.
		if v, cachedErr, changedAt, ok := tryCachedHit(db, id); ok {
			return outcome{v, cachedErr, changedAt}, nil
		}

		db.metrics.miss(name)
		child := parent.child()
		val, computeErr := compute(child)

		db.cacheMu.Lock()
		rev := db.current().rev
		changedAt := rev
		prev, hadPrev := db.nodes[id]
		if hadPrev && eq != nil && prev.err == nil && computeErr == nil {
			if prevVal, ok := prev.value.(V); ok && eq(prevVal, val) {
				val = prevVal
				changedAt = prev.changedAt
				db.logger.Debug("query backdated", zap.String("node", id.String()))
			} else {
				db.metrics.invalidate(name)
			}
		} else if hadPrev {
			db.metrics.invalidate(name)
		}

		db.nodes[id] = &node{
			value:      val,
			err:        computeErr,
			changedAt:  changedAt,
			verifiedAt: rev,
			deps:       child.reads,
		}
		db.cacheMu.Unlock()
		return outcome{val, computeErr, changedAt}, nil
	})

	out := res.(outcome)
	parent.record(id, out.changedAt)
	return out.value.(V), out.err
}

// tryCachedHit returns (value, err, changedAt, true) when a valid cached
// entry exists for id against the database's live generation.
func tryCachedHit(db *Database, id nodeID) (any, error, Revision, bool) {
	db.cacheMu.Lock()
	defer db.cacheMu.Unlock()

	n, ok := db.nodes[id]
	if !ok {
		return nil, nil, 0, false
	}
	rev := db.current().rev
	if n.verifiedAt == rev {
		db.metrics.hit(id.query)
		return n.value, n.err, n.changedAt, true
	}
	if depsValidLocked(db, n.deps) {
		n.verifiedAt = rev
		db.metrics.hit(id.query)
		return n.value, n.err, n.changedAt, true
	}
	return nil, nil, 0, false
}

// depsValidLocked must be called with db.cacheMu held. A dependency is
// still valid if the node it names has not changed since it was recorded.
// Input-cell deps are re-read directly off the live generation; derived
// deps recurse through the nodes table.
func depsValidLocked(db *Database, deps []depRecord) bool {
	gen := db.current()
	for _, d := range deps {
		var liveChangedAt Revision
		switch d.id.query {
		case "input:text":
			fid := parseFileIDKey(d.id.key)
			entry, ok := gen.files[fid]
			if !ok {
				return false
			}
			liveChangedAt = entry.textChangedAt
		case "input:meta":
			fid := parseFileIDKey(d.id.key)
			entry, ok := gen.files[fid]
			if !ok {
				return false
			}
			liveChangedAt = entry.metaChangedAt
		case "input:project":
			liveChangedAt = gen.projectChangedAt
		case "input:config":
			entry, ok := gen.configs[d.id.key]
			if !ok {
				liveChangedAt = 0
			} else {
				liveChangedAt = entry.changedAt
			}
		default:
			depNode, ok := db.nodes[d.id]
			if !ok {
				return false
			}
			liveChangedAt = depNode.changedAt
		}
		if liveChangedAt != d.changedAt {
			return false
		}
	}
	return true
}

func fileKey(id FileId) string {
	return strconv.FormatUint(uint64(id), 10)
}

func parseFileIDKey(key string) FileId {
	n, _ := strconv.ParseUint(key, 10, 32)
	return FileId(n)
}
