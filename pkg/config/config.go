// Package config handles the workspace configuration for the automation engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mohanavadivelu2/automation-framework/pkg/core"
)

// Defaults applied by Load when a key is absent.
const (
	DefaultTestCaseDir      = "test_case"
	DefaultCommonDir        = "common"
	DefaultGroupFile        = "master/all_test_case.json"
	DefaultGroupField       = "all_test_case"
	DefaultImagesDir        = "images"
	DefaultLogDir           = "logs"
	DefaultScriptDir        = "scripts"
	DefaultMaxFragmentDepth = 32
)

// Config represents the workspace configuration (config.yaml).
type Config struct {
	// Document locations, relative to BaseDir unless absolute
	BaseDir     string `yaml:"baseDir"`
	TestCaseDir string `yaml:"testCaseDir"` // <id>.json test case documents
	CommonDir   string `yaml:"commonDir"`   // Fragment documents
	GroupFile   string `yaml:"groupFile"`   // Test case group document
	GroupField  string `yaml:"groupField"`  // Key holding the ordered id list
	ImagesDir   string `yaml:"imagesDir"`   // Reference images for handlers
	LogDir      string `yaml:"logDir"`      // Application and per-test-case logs
	ScriptDir   string `yaml:"scriptDir"`   // JavaScript files for the script handler

	// Execution settings
	Video            bool   `yaml:"video"`            // Record one video per device per test case
	StrictFragments  bool   `yaml:"strictFragments"`  // Missing fragment fails instead of expanding to nothing
	MaxFragmentDepth int    `yaml:"maxFragmentDepth"` // Nesting bound for fragment references
	LogLevel         string `yaml:"logLevel"`         // debug, info, warn, error

	// Device settings
	Devices []Device `yaml:"devices"`

	// Rig settings read by handlers, e.g. radio_button's check_for
	Options map[string]interface{} `yaml:"options"`
}

// Device describes one automation backend session, keyed by its base path.
type Device struct {
	BasePath     string                 `yaml:"basePath"`
	ServerURL    string                 `yaml:"serverURL"`
	Capabilities map[string]interface{} `yaml:"capabilities"`
}

// Load loads configuration from a file, applies defaults and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.BaseDir == "" {
		cfg.BaseDir = filepath.Dir(path)
	} else if !filepath.IsAbs(cfg.BaseDir) {
		cfg.BaseDir = filepath.Join(filepath.Dir(path), cfg.BaseDir)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromDir looks for config.yaml or config.yml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	for _, name := range configNames {
		configPath := filepath.Join(dir, name)
		if _, err := os.Stat(configPath); err == nil {
			return Load(configPath)
		}
	}

	// No config file found, use defaults rooted at dir
	cfg := &Config{BaseDir: dir}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills empty fields with their default values.
func (c *Config) ApplyDefaults() {
	if c.TestCaseDir == "" {
		c.TestCaseDir = DefaultTestCaseDir
	}
	if c.CommonDir == "" {
		c.CommonDir = DefaultCommonDir
	}
	if c.GroupFile == "" {
		c.GroupFile = DefaultGroupFile
	}
	if c.GroupField == "" {
		c.GroupField = DefaultGroupField
	}
	if c.ImagesDir == "" {
		c.ImagesDir = DefaultImagesDir
	}
	if c.LogDir == "" {
		c.LogDir = DefaultLogDir
	}
	if c.ScriptDir == "" {
		c.ScriptDir = DefaultScriptDir
	}
	if c.MaxFragmentDepth == 0 {
		c.MaxFragmentDepth = DefaultMaxFragmentDepth
	}
	if c.LogLevel == "" {
		c.LogLevel = "debug"
	}
}

// Validate fails fast on configuration the engine cannot run with.
func (c *Config) Validate() error {
	if c.MaxFragmentDepth < 0 {
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("maxFragmentDepth must be positive, got %d", c.MaxFragmentDepth))
	}

	seen := make(map[string]bool, len(c.Devices))
	for i, d := range c.Devices {
		if d.BasePath == "" {
			return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("devices[%d]: basePath is required", i))
		}
		if d.ServerURL == "" {
			return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("devices[%d] (%s): serverURL is required", i, d.BasePath))
		}
		if seen[d.BasePath] {
			return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("devices[%d]: duplicate basePath %q", i, d.BasePath))
		}
		seen[d.BasePath] = true
	}
	return nil
}

// Resolve returns p joined onto BaseDir unless it is already absolute.
func (c *Config) Resolve(p string) string {
	if filepath.IsAbs(p) || c.BaseDir == "" {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

// TestCasePath returns the directory holding test case documents.
func (c *Config) TestCasePath() string { return c.Resolve(c.TestCaseDir) }

// CommonPath returns the directory holding fragment documents.
func (c *Config) CommonPath() string { return c.Resolve(c.CommonDir) }

// GroupPath returns the group document path.
func (c *Config) GroupPath() string { return c.Resolve(c.GroupFile) }

// ImagesPath returns the reference image directory.
func (c *Config) ImagesPath() string { return c.Resolve(c.ImagesDir) }

// LogPath returns the log root directory.
func (c *Config) LogPath() string { return c.Resolve(c.LogDir) }

// ScriptPath returns the script directory.
func (c *Config) ScriptPath() string { return c.Resolve(c.ScriptDir) }

// Device returns the device entry for a base path.
func (c *Config) Device(basePath string) (Device, bool) {
	for _, d := range c.Devices {
		if d.BasePath == basePath {
			return d, true
		}
	}
	return Device{}, false
}
