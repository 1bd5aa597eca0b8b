// Package workspace is the multi-project front door to the engine: it
// owns one AnalysisHost per project root, discovers each root's files
// from its config.Config, and routes an incoming file_uri to its owning
// project in O(1) via a reverse index maintained as files are loaded —
// rather than a per-call longest-prefix search over every known root.
package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jzeiders/graphql-intel/internal/store"
	"github.com/jzeiders/graphql-intel/pkg/config"
	"github.com/jzeiders/graphql-intel/pkg/ide"
)

// ProjectID names one loaded project: its workspace root directory and
// the human-readable name reported in multi-project diagnostics output.
type ProjectID struct {
	Root string
	Name string
}

// ephemeralRoot is the synthetic workspace root used for URIs that don't
// resolve under any known project (§9 Open Question: "untitled: / non-file
// URIs" — decided YES, first-class). It is never a real filesystem path,
// so it can never collide with a loaded project's root.
const ephemeralRoot = ""

// Project bundles one project's resolved configuration with its own
// AnalysisHost — every project gets an independent store.Database, so a
// recompute storm in one project never blocks or invalidates another's
// queries.
type Project struct {
	ID     ProjectID
	Config *config.Config
	Host   *ide.AnalysisHost
}

// Manager owns every loaded project plus the ephemeral one, and the
// uri→ProjectID reverse index used to route single-file requests.
type Manager struct {
	mu       sync.RWMutex
	projects map[string]*Project // keyed by ProjectID.Root
	index    map[store.FileUri]string // file uri -> ProjectID.Root
	logger   *zap.Logger
	metrics  *store.Metrics
}

// NewManager builds an empty Manager with its built-in ephemeral project
// ready to accept unrooted URIs immediately.
func NewManager(logger *zap.Logger, metrics *store.Metrics) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		projects: make(map[string]*Project),
		index:    make(map[store.FileUri]string),
		logger:   logger,
		metrics:  metrics,
	}
	m.projects[ephemeralRoot] = &Project{
		ID:   ProjectID{Root: ephemeralRoot, Name: "(unrooted)"},
		Host: ide.NewAnalysisHost(logger.Named("ephemeral"), metrics),
	}
	return m
}

// LoadProject discovers root's files per configPath's resolved config,
// registers them all with a fresh AnalysisHost, and publishes the
// project under name. Calling LoadProject again for the same root
// replaces the previous project outright (a full reload, not an
// incremental update — config changes are rare enough that rebuilding is
// simpler than diffing file sets).
func (m *Manager) LoadProject(name, root, configPath string) (*Project, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("workspace: loading config for %s: %w", name, err)
	}

	host := ide.NewAnalysisHost(m.logger.Named(name), m.metrics)
	host.SetConfig("lint", cfg.Lint)
	host.SetConfig("extract", cfg.Extract)

	id := ProjectID{Root: root, Name: name}
	proj := &Project{ID: id, Config: cfg, Host: host}

	uris, err := discoverFiles(cfg)
	if err != nil {
		return nil, fmt.Errorf("workspace: discovering files for %s: %w", name, err)
	}

	m.mu.Lock()
	if _, exists := m.projects[root]; exists {
		for uri, r := range m.index {
			if r == root {
				delete(m.index, uri)
			}
		}
	}
	for _, f := range uris {
		resolved, ok := canonicalizeUnderRoot(root, f.path)
		if !ok {
			m.logger.Warn("workspace: skipping path escaping workspace root", zap.String("path", f.path), zap.String("root", root))
			continue
		}
		text, err := os.ReadFile(resolved)
		if err != nil {
			m.logger.Warn("workspace: skipping unreadable file", zap.String("path", resolved), zap.Error(err))
			continue
		}
		uri := store.FileUri("file://" + resolved)
		host.AddFile(uri, f.kind, f.language, string(text), 0)
		m.index[uri] = root
	}
	host.RebuildProjectFiles()
	m.projects[root] = proj
	m.mu.Unlock()

	return proj, nil
}

// RemoveProject drops a loaded project and every uri it owns from the
// reverse index; the ephemeral project can never be removed this way.
func (m *Manager) RemoveProject(root string) {
	if root == ephemeralRoot {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.projects, root)
	for uri, r := range m.index {
		if r == root {
			delete(m.index, uri)
		}
	}
}

// ProjectFor resolves uri to its owning project in O(1), falling back to
// the ephemeral project for an unrecognized uri (§9 Open Question).
func (m *Manager) ProjectFor(uri store.FileUri) *Project {
	m.mu.RLock()
	defer m.mu.RUnlock()
	root, ok := m.index[uri]
	if !ok {
		root = ephemeralRoot
	}
	return m.projects[root]
}

// AddEphemeralFile registers uri directly against the ephemeral project,
// for an editor buffer that hasn't been matched to any workspace root
// (an unsaved file, or one outside every configured project).
func (m *Manager) AddEphemeralFile(uri store.FileUri, kind store.FileKind, language store.Language, text string, version int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	eph := m.projects[ephemeralRoot]
	eph.Host.AddFile(uri, kind, language, text, version)
	eph.Host.RebuildProjectFiles()
	m.index[uri] = ephemeralRoot
}

// Projects returns every loaded project, including the ephemeral one,
// for a batch operation across the whole workspace.
func (m *Manager) Projects() []*Project {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Project, 0, len(m.projects))
	for _, p := range m.projects {
		out = append(out, p)
	}
	return out
}

// DispatchResult pairs one project's batch result with its identity, so
// a caller presenting a multi-project report can label each entry.
type DispatchResult[T any] struct {
	Project ProjectID
	Value   T
	Err     error
}

// Dispatch runs fn concurrently over every loaded project (including the
// ephemeral one) via golang.org/x/sync/errgroup, collecting each
// project's result independently — one project's error never cancels
// the others' in-flight work, matching the snapshot-isolation guarantee
// each Analysis already gives within a single project (§3 Property 6).
func Dispatch[T any](ctx context.Context, m *Manager, fn func(ctx context.Context, p *Project) (T, error)) []DispatchResult[T] {
	projects := m.Projects()
	results := make([]DispatchResult[T], len(projects))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range projects {
		i, p := i, p
		g.Go(func() error {
			v, err := fn(gctx, p)
			results[i] = DispatchResult[T]{Project: p.ID, Value: v, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// canonicalizeUnderRoot resolves a glob-matched path to its canonical
// absolute form and verifies it still falls under root once symlinks are
// resolved (§5 Path safety). A path reaching outside root via a ".."
// segment or a symlink pointing elsewhere is rejected rather than read.
func canonicalizeUnderRoot(root, path string) (string, bool) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", false
	}
	resolvedRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		resolvedRoot = absRoot
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		resolved = abs
	}

	rel, err := filepath.Rel(resolvedRoot, resolved)
	if err != nil {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return resolved, true
}

type discoveredFile struct {
	path     string
	kind     store.FileKind
	language store.Language
}

// discoverFiles globs cfg's schema sources and document include/exclude
// patterns into a flat file list, classifying each by extension.
func discoverFiles(cfg *config.Config) ([]discoveredFile, error) {
	var out []discoveredFile
	seen := make(map[string]bool)

	for _, s := range cfg.Schema {
		matches, err := filepath.Glob(s.Path)
		if err != nil {
			return nil, fmt.Errorf("schema pattern %q: %w", s.Path, err)
		}
		for _, path := range matches {
			if seen[path] {
				continue
			}
			seen[path] = true
			out = append(out, discoveredFile{path: path, kind: store.FileKindSchema, language: store.LanguageGraphQL})
		}
	}

	excluded := make(map[string]bool)
	for _, pattern := range cfg.Documents.Exclude {
		matches, _ := filepath.Glob(pattern)
		for _, path := range matches {
			excluded[path] = true
		}
	}
	for _, pattern := range cfg.Documents.Include {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("documents pattern %q: %w", pattern, err)
		}
		for _, path := range matches {
			if seen[path] || excluded[path] {
				continue
			}
			seen[path] = true
			kind, lang := classify(path)
			out = append(out, discoveredFile{path: path, kind: kind, language: lang})
		}
	}
	return out, nil
}

func classify(path string) (store.FileKind, store.Language) {
	switch filepath.Ext(path) {
	case ".graphql", ".gql":
		return store.FileKindExecutableGraphQL, store.LanguageGraphQL
	case ".ts", ".tsx":
		return store.FileKindHostEmbedded, store.LanguageTypeScript
	case ".js", ".jsx":
		return store.FileKindHostEmbedded, store.LanguageJavaScript
	default:
		return store.FileKindExecutableGraphQL, store.LanguageGraphQL
	}
}
