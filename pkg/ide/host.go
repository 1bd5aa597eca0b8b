package ide

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/jzeiders/graphql-intel/internal/store"
)

// AnalysisHost is the single-writer mutator side of the engine's public
// surface (§4.6). Every mutating method serializes through the database's
// own writer lock; AnalysisHost additionally tracks the path→FileId
// table and the per-file version discipline, neither of which belongs in
// internal/store since they are IDE-surface concerns, not tracked query
// inputs.
type AnalysisHost struct {
	mu       sync.Mutex
	db       *store.Database
	pathToID map[store.FileUri]store.FileId
	versions map[store.FileId]int64
	logger   *zap.Logger
}

// NewAnalysisHost builds an empty host over a fresh database. A nil logger
// is replaced with a no-op logger, matching store.NewDatabase's own
// discipline.
func NewAnalysisHost(logger *zap.Logger, metrics *store.Metrics) *AnalysisHost {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalysisHost{
		db:       store.NewDatabase(logger, metrics),
		pathToID: make(map[store.FileUri]store.FileId),
		versions: make(map[store.FileId]int64),
		logger:   logger,
	}
}

// AddFile registers a new file and sets its initial text. It is O(1)
// amortized (§4.6, "File-loading discipline"): it never touches
// ProjectFiles itself. Callers must call RebuildProjectFiles once after a
// batch of adds/removes.
func (h *AnalysisHost) AddFile(uri store.FileUri, kind store.FileKind, language store.Language, text string, version int64) store.FileId {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.db.RegisterFile(uri, kind, language)
	h.db.SetText(id, text)
	h.pathToID[uri] = id
	h.versions[id] = version
	return id
}

// UpdateFile applies a full-text replacement for an already-known file, if
// version is strictly greater than the file's last-applied version (§4.6
// Version discipline / Property 7). A stale update is silently ignored and
// UpdateFile reports false.
func (h *AnalysisHost) UpdateFile(uri store.FileUri, text string, version int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	id, ok := h.pathToID[uri]
	if !ok {
		return false
	}
	if last, seen := h.versions[id]; seen && version <= last {
		h.logger.Debug("update_file: stale version ignored", zap.String("uri", string(uri)), zap.Int64("version", version), zap.Int64("last", last))
		return false
	}
	h.db.SetText(id, text)
	h.versions[id] = version
	return true
}

// SetMetadata updates a file's kind/language/line-offset (rename or
// reclassify, §3 Lifecycles).
func (h *AnalysisHost) SetMetadata(uri store.FileUri, kind store.FileKind, language store.Language, lineOffset int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	id, ok := h.pathToID[uri]
	if !ok {
		return false
	}
	h.db.SetMetadata(id, store.Metadata{Uri: uri, Kind: kind, Language: language, LineOffset: lineOffset})
	return true
}

// RemoveFile destroys a file's tracked inputs and drops it from the
// path→id table. Callers must call RebuildProjectFiles afterward for the
// removal to take effect in ProjectFiles.
func (h *AnalysisHost) RemoveFile(uri store.FileUri) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id, ok := h.pathToID[uri]
	if !ok {
		return
	}
	h.db.RemoveFile(id)
	delete(h.pathToID, uri)
	delete(h.versions, id)
}

// SetConfig pushes a named tracked configuration value (lint config,
// extract config, ...). §6.B: configuration is read, not parsed, by the
// engine; this is where a caller hands over an already-resolved value.
func (h *AnalysisHost) SetConfig(key string, value any) {
	h.db.SetConfig(key, value)
}

// RebuildProjectFiles recomputes the ProjectFiles aggregate from every
// currently-registered file's metadata, partitioning by FileKind. Schema
// files and document files (executable GraphQL or host-embedded) are
// ordered by FileId, giving schema_types (§4.3) and merged_schema (§4.4) a
// stable, deterministic merge order. A file whose kind cannot be
// classified (FileKindUnknown) is skipped with a log line rather than
// silently dropped from both sets — register_file never assigns that
// kind, so observing it here indicates a caller bypassed AddFile.
func (h *AnalysisHost) RebuildProjectFiles() {
	h.mu.Lock()
	defer h.mu.Unlock()

	var schemaIDs, docIDs []store.FileId
	snap := h.db.Snapshot()
	qc := store.RootQueryContext(nil, snap)
	for _, id := range h.pathToID {
		meta, ok := qc.ReadMetadata(id)
		if !ok {
			continue
		}
		switch meta.Kind {
		case store.FileKindSchema:
			schemaIDs = append(schemaIDs, id)
		case store.FileKindExecutableGraphQL, store.FileKindHostEmbedded:
			docIDs = append(docIDs, id)
		default:
			h.logger.Warn("rebuild_project_files: file has unclassified kind, skipping", zap.Stringer("file", id))
		}
	}
	sort.Slice(schemaIDs, func(i, j int) bool { return schemaIDs[i] < schemaIDs[j] })
	sort.Slice(docIDs, func(i, j int) bool { return docIDs[i] < docIDs[j] })

	h.db.SetProjectFiles(store.ProjectFiles{SchemaFileIds: schemaIDs, DocumentFileIds: docIDs})
}

// Lookup resolves a uri to its FileId, for callers (e.g. internal/workspace)
// that need it outside a snapshot.
func (h *AnalysisHost) Lookup(uri store.FileUri) (store.FileId, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id, ok := h.pathToID[uri]
	return id, ok
}

// Snapshot captures an immutable, independently-readable view consistent
// with the database at this moment (§3 Lifecycles, Property 6). Many
// snapshots may coexist and be read concurrently; none blocks a
// subsequent writer, and a writer blocks only long enough to publish the
// next generation (internal/store.Database.Snapshot never takes a lock
// that could be held across I/O).
func (h *AnalysisHost) Snapshot() *Analysis {
	h.mu.Lock()
	paths := make(map[store.FileUri]store.FileId, len(h.pathToID))
	for k, v := range h.pathToID {
		paths[k] = v
	}
	h.mu.Unlock()

	return &Analysis{
		db:       h.db,
		snap:     h.db.Snapshot(),
		pathToID: paths,
	}
}

// Database exposes the underlying store, for callers (internal/workspace,
// cmd/graphql-intel) that need raw FileId allocation outside the
// host/analysis split, e.g. during initial bulk load.
func (h *AnalysisHost) Database() *store.Database { return h.db }
