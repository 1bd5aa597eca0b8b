package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "graphql-intel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaultsAndResolvesPaths(t *testing.T) {
	path := writeTempConfig(t, `
schema:
  - path: schema.graphql
documents:
  include:
    - "src/**/*.ts"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	dir := filepath.Dir(path)
	assert.Equal(t, filepath.Join(dir, "schema.graphql"), cfg.Schema[0].Path)
	assert.Equal(t, []string{filepath.Join(dir, "src/**/*.ts")}, cfg.Documents.Include)
	assert.NotEmpty(t, cfg.Extract.TagIdentifiers)
}

func TestLoadRejectsMissingSchema(t *testing.T) {
	path := writeTempConfig(t, `
documents:
  include:
    - "**/*.graphql"
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsInvalidLintSeverity(t *testing.T) {
	path := writeTempConfig(t, `
schema:
  - path: schema.graphql
lint:
  rules:
    no_deprecated: critical
`)
	_, err := Load(path)
	assert.Error(t, err)
}
