package store

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Revision is a monotonically increasing counter. The database bumps it by
// exactly one for every write operation that actually changes something.
type Revision uint64

// fileEntry is an immutable value. A new one is allocated only when a
// file's text or metadata actually changes; unrelated writes reuse the same
// pointer across generations, which is what gives derived queries cheap
// pointer-identity dependency checks.
type fileEntry struct {
	id            FileId
	text          string
	meta          Metadata
	textChangedAt Revision
	metaChangedAt Revision
}

// generation is an immutable, structurally-shared view of every tracked
// input at one point in the database's history. Writers never mutate a
// generation in place; they build the next one and swap it in.
type generation struct {
	rev              Revision
	files            map[FileId]*fileEntry
	uris             map[FileUri]FileId
	project          ProjectFiles
	projectChangedAt Revision
	configs          map[string]configEntry
}

func emptyGeneration() *generation {
	return &generation{
		files:   map[FileId]*fileEntry{},
		uris:    map[FileUri]FileId{},
		configs: map[string]configEntry{},
	}
}

// Database is the engine's input store plus the shared memoized query
// table layered over it. It is safe for concurrent use: writers serialize
// against each other through writerMu; readers operate against a captured
// *generation and never block.
type Database struct {
	writerMu sync.Mutex
	nextID   FileId

	genPtr atomic.Pointer[generation]

	cancelEpoch atomic.Uint64

	cacheMu sync.Mutex
	nodes   map[nodeID]*node

	sf singleflightGroup

	logger  *zap.Logger
	metrics *Metrics
}

// NewDatabase builds an empty database. A nil logger is replaced with a
// no-op logger; a nil metrics registers against prometheus's default
// registerer on first use.
func NewDatabase(logger *zap.Logger, metrics *Metrics) *Database {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	db := &Database{
		logger:  logger,
		metrics: metrics,
		nodes:   map[nodeID]*node{},
	}
	db.genPtr.Store(emptyGeneration())
	return db
}

func (db *Database) current() *generation {
	return db.genPtr.Load()
}

// bumpRevision returns the next revision and advances the cancellation
// epoch so in-flight long reads started against an older snapshot notice
// and abandon their work.
func (db *Database) bumpRevision(prev *generation) Revision {
	rev := prev.rev + 1
	db.cancelEpoch.Add(1)
	return rev
}

// RegisterFile is idempotent on uri: re-registering an already-known uri
// returns its existing FileId rather than allocating a new one.
func (db *Database) RegisterFile(uri FileUri, kind FileKind, language Language) FileId {
	db.writerMu.Lock()
	defer db.writerMu.Unlock()

	prev := db.current()
	if id, ok := prev.uris[uri]; ok {
		return id
	}

	id := db.nextID
	db.nextID++

	rev := db.bumpRevision(prev)
	entry := &fileEntry{
		id:            id,
		meta:          Metadata{Uri: uri, Kind: kind, Language: language},
		textChangedAt: rev,
		metaChangedAt: rev,
	}
	next := cloneGeneration(prev, rev)
	next.files[id] = entry
	next.uris[uri] = id
	db.genPtr.Store(next)

	db.logger.Debug("file registered", zap.Stringer("file", id), zap.String("uri", string(uri)), zap.Stringer("kind", kind))
	return id
}

// SetText marks the file's text input dirty if the new text differs from
// the current one. It never recomputes anything itself.
func (db *Database) SetText(id FileId, text string) {
	db.writerMu.Lock()
	defer db.writerMu.Unlock()

	prev := db.current()
	entry, ok := prev.files[id]
	if !ok {
		return
	}
	if entry.text == text {
		return
	}

	rev := db.bumpRevision(prev)
	newEntry := &fileEntry{
		id:            id,
		text:          text,
		meta:          entry.meta,
		textChangedAt: rev,
		metaChangedAt: entry.metaChangedAt,
	}
	next := cloneGeneration(prev, rev)
	next.files[id] = newEntry
	db.genPtr.Store(next)

	db.logger.Debug("file text updated", zap.Stringer("file", id), zap.Int("len", len(text)))
}

// SetMetadata marks the file's metadata input dirty if it differs from the
// current value.
func (db *Database) SetMetadata(id FileId, meta Metadata) {
	db.writerMu.Lock()
	defer db.writerMu.Unlock()

	prev := db.current()
	entry, ok := prev.files[id]
	if !ok {
		return
	}
	if entry.meta.equal(meta) {
		return
	}

	rev := db.bumpRevision(prev)
	newEntry := &fileEntry{
		id:            id,
		text:          entry.text,
		meta:          meta,
		textChangedAt: entry.textChangedAt,
		metaChangedAt: rev,
	}
	next := cloneGeneration(prev, rev)
	next.uris = cloneUris(prev.uris)
	if newEntry.meta.Uri != entry.meta.Uri {
		delete(next.uris, entry.meta.Uri)
		next.uris[newEntry.meta.Uri] = id
	}
	next.files[id] = newEntry
	db.genPtr.Store(next)
}

// SetProjectFiles replaces the project aggregate. Dependents re-evaluate
// lazily on next demand.
func (db *Database) SetProjectFiles(pf ProjectFiles) {
	db.writerMu.Lock()
	defer db.writerMu.Unlock()

	prev := db.current()
	if prev.project.equal(pf) {
		return
	}

	rev := db.bumpRevision(prev)
	next := cloneGeneration(prev, rev)
	next.project = pf
	next.projectChangedAt = rev
	db.genPtr.Store(next)

	db.logger.Debug("project files updated", zap.Int("schema_files", len(pf.SchemaFileIds)), zap.Int("document_files", len(pf.DocumentFileIds)))
}

// RemoveFile removes the file's inputs. Dependent query results become
// stale and are recomputed (or fail to find the file) on next demand.
func (db *Database) RemoveFile(id FileId) {
	db.writerMu.Lock()
	defer db.writerMu.Unlock()

	prev := db.current()
	entry, ok := prev.files[id]
	if !ok {
		return
	}

	rev := db.bumpRevision(prev)
	next := cloneGeneration(prev, rev)
	next.uris = cloneUris(prev.uris)
	delete(next.files, id)
	delete(next.uris, entry.meta.Uri)
	db.genPtr.Store(next)

	db.logger.Debug("file removed", zap.Stringer("file", id))
}

// Lookup resolves a uri to its FileId against the live generation.
func (db *Database) Lookup(uri FileUri) (FileId, bool) {
	gen := db.current()
	id, ok := gen.uris[uri]
	return id, ok
}

func cloneGeneration(prev *generation, rev Revision) *generation {
	files := make(map[FileId]*fileEntry, len(prev.files)+1)
	for k, v := range prev.files {
		files[k] = v
	}
	return &generation{
		rev:              rev,
		files:            files,
		uris:             prev.uris,
		project:          prev.project,
		projectChangedAt: prev.projectChangedAt,
		configs:          prev.configs,
	}
}

func cloneUris(prev map[FileUri]FileId) map[FileUri]FileId {
	out := make(map[FileUri]FileId, len(prev)+1)
	for k, v := range prev {
		out[k] = v
	}
	return out
}

// Snapshot is an immutable, independently-readable view of the database
// fixed at the moment it was taken. It satisfies Property 6 (snapshot
// isolation) by construction: it holds a *generation, and generations are
// never mutated after being published.
type Snapshot struct {
	db      *Database
	gen     *generation
	epoch   uint64
	Created Revision
}

// Snapshot captures the live generation. Released by simply letting it be
// garbage collected; there is no explicit Close, since generations do not
// pin any resource beyond memory shared structurally with the live state.
func (db *Database) Snapshot() *Snapshot {
	gen := db.current()
	return &Snapshot{
		db:      db,
		gen:     gen,
		epoch:   db.cancelEpoch.Load(),
		Created: gen.rev,
	}
}

// Revision reports the revision this snapshot is pinned to.
func (s *Snapshot) Revision() Revision { return s.gen.rev }

// Stale reports whether the live database has advanced past this
// snapshot's epoch, i.e. whether a writer has applied a mutation since the
// snapshot was taken. It does not change what the snapshot returns; it is
// advisory, used by long-running queries as a cancellation signal.
func (s *Snapshot) Stale() bool {
	return s.db.cancelEpoch.Load() != s.epoch
}

func (s *Snapshot) fileEntry(id FileId) (*fileEntry, bool) {
	e, ok := s.gen.files[id]
	return e, ok
}

func (s *Snapshot) String() string {
	return fmt.Sprintf("snapshot(rev=%d)", s.gen.rev)
}
