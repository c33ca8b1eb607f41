// Package config loads and validates the builder configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/stacbuilder/internal/foundation"
)

// CatalogConfig names the root catalog document.
type CatalogConfig struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	// RootHref is the published base URL of the catalog. Empty keeps all
	// self links relative.
	RootHref string `yaml:"root_href"`
}

// Config is the full build configuration.
type Config struct {
	Catalog   CatalogConfig `yaml:"catalog"`
	DataDir   string        `yaml:"data_dir"`
	OutputDir string        `yaml:"output"`
	Pretty    *bool         `yaml:"pretty"`
	// ExtentPolicy decides whether declared extents beat derived ones:
	// "declared-wins" (default) or "derived-wins".
	ExtentPolicy string `yaml:"extent_policy"`
}

// PrettyPrint resolves the pretty flag with its default (true).
func (c *Config) PrettyPrint() bool {
	if c.Pretty == nil {
		return true
	}
	return *c.Pretty
}

// Load reads the configuration file, overlays .env variables, applies
// defaults and validates.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, foundation.ConfigurationError("failed to read configuration file").
			WithContext(foundation.Fields{"path": path}).
			WithCause(err).
			Build()
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, foundation.ConfigurationError("failed to parse configuration file").
			WithContext(foundation.Fields{"path": path}).
			WithCause(err).
			Build()
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Catalog.ID == "" {
		c.Catalog.ID = "catalog"
	}
	if c.Catalog.Title == "" {
		c.Catalog.Title = c.Catalog.ID
	}
	if c.Catalog.Description == "" {
		c.Catalog.Description = c.Catalog.Title
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.OutputDir == "" {
		c.OutputDir = "dist"
	}
	if c.ExtentPolicy == "" {
		c.ExtentPolicy = "declared-wins"
	}
}

// applyEnvOverrides lets deployment environments redirect the data and
// output directories without editing the config file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("STACBUILDER_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("STACBUILDER_OUTPUT"); v != "" {
		c.OutputDir = v
	}
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	switch c.ExtentPolicy {
	case "declared-wins", "derived-wins":
	default:
		return foundation.ConfigurationError(
			fmt.Sprintf("unknown extent_policy %q (want declared-wins or derived-wins)", c.ExtentPolicy)).
			Build()
	}
	if c.DataDir == c.OutputDir {
		return foundation.ConfigurationError("data_dir and output must differ").Build()
	}
	return nil
}

const defaultConfig = `# stacbuilder configuration
catalog:
  id: catalog
  title: Science Catalog
  description: Static catalog of science data products.
  # root_href: https://example.org/catalog/

data_dir: data
output: dist
pretty: true
extent_policy: declared-wins
`

// Init writes a starter configuration file.
func Init(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return foundation.ConfigurationError("configuration file already exists (use --force to overwrite)").
				WithContext(foundation.Fields{"path": path}).
				Build()
		}
	}
	return os.WriteFile(path, []byte(defaultConfig), 0o644)
}
