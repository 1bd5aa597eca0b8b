// Package config loads the engine's project configuration: which files
// form the schema and document sets, lint rule severities, and the
// host-file extraction settings. Loaded values become store.Database
// tracked config inputs (§6.B); nothing here is read as an ambient
// singleton by lower layers.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/jzeiders/graphql-intel/internal/syntax"
)

// SchemaSource is one glob pattern contributing files to the project's
// schema set.
type SchemaSource struct {
	Path string `yaml:"path"`
}

// Documents defines the glob patterns that contribute files to the
// project's document set (pure .graphql/.gql files and host files alike).
type Documents struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// LintConfig is the project's lint rule configuration: a severity
// override per rule name, plus whether the built-in recommended preset is
// the baseline those overrides apply on top of.
type LintConfig struct {
	Recommended bool              `yaml:"recommended"`
	Rules       map[string]string `yaml:"rules"` // rule name -> "error" | "warning" | "off"
}

// Config is the full, resolved project configuration.
type Config struct {
	Schema    []SchemaSource       `yaml:"schema"`
	Documents Documents            `yaml:"documents"`
	Lint      LintConfig           `yaml:"lint"`
	Extract   syntax.ExtractConfig `yaml:"extract"`
}

// Load reads and parses a YAML configuration file, applying defaults and
// resolving relative paths against the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	c.setDefaults()
	c.resolveRelativePaths(filepath.Dir(path))

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &c, nil
}

func (c *Config) setDefaults() {
	if len(c.Documents.Include) == 0 {
		c.Documents.Include = []string{
			"**/*.graphql",
			"**/*.gql",
			"**/*.ts",
			"**/*.tsx",
			"**/*.js",
			"**/*.jsx",
		}
	}
	if len(c.Extract.TagIdentifiers) == 0 && c.Extract.MagicComment == "" {
		c.Extract = syntax.DefaultExtractConfig()
	}
	if c.Lint.Rules == nil {
		c.Lint.Rules = map[string]string{}
	}
}

// Validate checks the configuration is internally consistent.
func (c *Config) Validate() error {
	if len(c.Schema) == 0 {
		return fmt.Errorf("at least one schema source is required")
	}
	for i, s := range c.Schema {
		if s.Path == "" {
			return fmt.Errorf("schema[%d]: path is required", i)
		}
	}
	if len(c.Documents.Include) == 0 {
		return fmt.Errorf("documents.include cannot be empty")
	}
	for rule, severity := range c.Lint.Rules {
		switch severity {
		case "error", "warning", "off":
		default:
			return fmt.Errorf("lint.rules[%s]: invalid severity %q", rule, severity)
		}
	}
	return nil
}

// resolveRelativePaths resolves every glob pattern relative to the
// config file's directory, matching the teacher's ResolveRelativePaths
// discipline of keeping config authoring relative and resolution explicit.
func (c *Config) resolveRelativePaths(baseDir string) {
	for i := range c.Schema {
		if c.Schema[i].Path != "" && !filepath.IsAbs(c.Schema[i].Path) {
			c.Schema[i].Path = filepath.Join(baseDir, c.Schema[i].Path)
		}
	}
	for i := range c.Documents.Include {
		if !filepath.IsAbs(c.Documents.Include[i]) {
			c.Documents.Include[i] = filepath.Join(baseDir, c.Documents.Include[i])
		}
	}
	for i := range c.Documents.Exclude {
		if !filepath.IsAbs(c.Documents.Exclude[i]) {
			c.Documents.Exclude[i] = filepath.Join(baseDir, c.Documents.Exclude[i])
		}
	}
}
