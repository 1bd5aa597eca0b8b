package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jzeiders/graphql-intel/internal/store"
)

func writeProjectFixture(t *testing.T) (root, configPath string) {
	t.Helper()
	root = t.TempDir()

	schemaPath := filepath.Join(root, "schema.graphql")
	require.NoError(t, os.WriteFile(schemaPath, []byte(`
type Query {
  user: User
}

type User {
  id: ID!
  name: String
}
`), 0o644))

	docPath := filepath.Join(root, "op.graphql")
	require.NoError(t, os.WriteFile(docPath, []byte(`
query GetUser {
  user {
    id
  }
}
`), 0o644))

	configPath = filepath.Join(root, "graphql-intel.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
schema:
  - path: schema.graphql
documents:
  include:
    - "*.graphql"
  exclude:
    - schema.graphql
`), 0o644))
	return root, configPath
}

func TestLoadProjectRegistersDiscoveredFiles(t *testing.T) {
	root, configPath := writeProjectFixture(t)
	m := NewManager(nil, nil)

	proj, err := m.LoadProject("demo", root, configPath)
	require.NoError(t, err)
	require.NotNil(t, proj)

	docURI := store.FileUri("file://" + filepath.Join(root, "op.graphql"))
	found := m.ProjectFor(docURI)
	require.NotNil(t, found)
	assert.Equal(t, root, found.ID.Root)
	assert.Equal(t, "demo", found.ID.Name)

	if _, ok := found.Host.Lookup(docURI); !ok {
		t.Fatalf("expected %s to be registered with the loaded project", docURI)
	}
}

func TestProjectForFallsBackToEphemeralForUnknownURI(t *testing.T) {
	m := NewManager(nil, nil)
	p := m.ProjectFor(store.FileUri("untitled:Untitled-1"))
	require.NotNil(t, p)
	assert.Equal(t, ephemeralRoot, p.ID.Root)
}

func TestAddEphemeralFileRoutesThroughEphemeralProject(t *testing.T) {
	m := NewManager(nil, nil)
	uri := store.FileUri("untitled:Untitled-1")
	m.AddEphemeralFile(uri, store.FileKindExecutableGraphQL, store.LanguageGraphQL, "query Q { __typename }", 1)

	p := m.ProjectFor(uri)
	require.NotNil(t, p)
	_, ok := p.Host.Lookup(uri)
	assert.True(t, ok)
}

func TestRemoveProjectClearsItsURIsFromTheIndex(t *testing.T) {
	root, configPath := writeProjectFixture(t)
	m := NewManager(nil, nil)
	_, err := m.LoadProject("demo", root, configPath)
	require.NoError(t, err)

	docURI := store.FileUri("file://" + filepath.Join(root, "op.graphql"))
	require.NotEqual(t, ephemeralRoot, m.ProjectFor(docURI).ID.Root)

	m.RemoveProject(root)
	assert.Equal(t, ephemeralRoot, m.ProjectFor(docURI).ID.Root)
}

func TestRemoveProjectCannotRemoveEphemeral(t *testing.T) {
	m := NewManager(nil, nil)
	m.RemoveProject(ephemeralRoot)
	assert.NotNil(t, m.ProjectFor(store.FileUri("untitled:Untitled-1")))
}

func TestLoadProjectReloadReplacesPreviousFileSet(t *testing.T) {
	root, configPath := writeProjectFixture(t)
	m := NewManager(nil, nil)
	_, err := m.LoadProject("demo", root, configPath)
	require.NoError(t, err)

	extraPath := filepath.Join(root, "extra.graphql")
	require.NoError(t, os.WriteFile(extraPath, []byte(`query Extra { __typename }`), 0o644))

	_, err = m.LoadProject("demo", root, configPath)
	require.NoError(t, err)

	extraURI := store.FileUri("file://" + extraPath)
	p := m.ProjectFor(extraURI)
	_, ok := p.Host.Lookup(extraURI)
	assert.True(t, ok, "reload must pick up files added since the first load")
}

func TestLoadProjectSkipsSymlinkEscapingWorkspaceRoot(t *testing.T) {
	root, configPath := writeProjectFixture(t)

	outside := t.TempDir()
	secretPath := filepath.Join(outside, "secret.graphql")
	require.NoError(t, os.WriteFile(secretPath, []byte(`query Secret { __typename }`), 0o644))

	linkPath := filepath.Join(root, "escape.graphql")
	if err := os.Symlink(secretPath, linkPath); err != nil {
		t.Skipf("symlinks unsupported in this environment: %v", err)
	}

	m := NewManager(nil, nil)
	proj, err := m.LoadProject("demo", root, configPath)
	require.NoError(t, err)

	linkURI := store.FileUri("file://" + linkPath)
	_, ok := proj.Host.Lookup(linkURI)
	assert.False(t, ok, "a document symlink resolving outside the workspace root must never be read")
}

func TestDispatchCollectsPerProjectResultsAndIsolatesErrors(t *testing.T) {
	root, configPath := writeProjectFixture(t)
	m := NewManager(nil, nil)
	_, err := m.LoadProject("demo", root, configPath)
	require.NoError(t, err)

	results := Dispatch(context.Background(), m, func(ctx context.Context, p *Project) (string, error) {
		if p.ID.Root == ephemeralRoot {
			return "", assert.AnError
		}
		return p.ID.Name, nil
	})

	require.Len(t, results, 2)
	var sawError, sawOK bool
	for _, r := range results {
		if r.Project.Root == ephemeralRoot {
			assert.Error(t, r.Err)
			sawError = true
		} else {
			assert.NoError(t, r.Err)
			sawOK = true
		}
	}
	assert.True(t, sawError)
	assert.True(t, sawOK)
}
