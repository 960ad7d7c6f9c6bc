package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iancoleman/strcase"
	"gopkg.in/yaml.v3"

	"github.com/mcncl/goflatten/internal/transformer"
)

// Key cases accepted by naming.key_case
const (
	KeyCaseNone           = "none"
	KeyCaseSnake          = "snake"
	KeyCaseScreamingSnake = "screaming_snake"
	KeyCaseCamel          = "camel"
	KeyCaseLowerCamel     = "lower_camel"
	KeyCaseKebab          = "kebab"
)

var (
	inputFormats  = []string{"json", "yaml", "yml"}
	outputFormats = []string{"json", "yaml", "yml", "msgpack"}
	keyCases      = []string{KeyCaseNone, KeyCaseSnake, KeyCaseScreamingSnake, KeyCaseCamel, KeyCaseLowerCamel, KeyCaseKebab}
)

// Config represents the complete configuration for goflatten
type Config struct {
	Input   InputConfig   `yaml:"input"`
	Output  OutputConfig  `yaml:"output"`
	Flatten FlattenConfig `yaml:"flatten"`
	Naming  NamingConfig  `yaml:"naming"`
	Dev     DevConfig     `yaml:"dev"`

	// Transformations run in order before flattening
	Transformations []transformer.Step `yaml:"transformations"`
}

// InputConfig controls how documents are decoded
type InputConfig struct {
	// Format is json or yaml; empty means guess from the file extension
	Format string `yaml:"format"`
}

// OutputConfig controls how the flattened document is written
type OutputConfig struct {
	Format  string `yaml:"format"`
	Indent  int    `yaml:"indent"`
	Compact bool   `yaml:"compact"`
}

// FlattenConfig controls which part of the document is flattened
type FlattenConfig struct {
	Pointer string `yaml:"pointer"`
	Report  bool   `yaml:"report"`
}

// NamingConfig controls renaming of mapping keys in the output
type NamingConfig struct {
	KeyCase     string            `yaml:"key_case"`
	KeyMappings map[string]string `yaml:"key_mappings"`
}

// DevConfig contains development/debug options
type DevConfig struct {
	Debug bool `yaml:"debug"`
}

// Overrides holds command-line values. Zero values leave the config untouched.
type Overrides struct {
	InputFormat  string
	OutputFormat string
	Indent       int
	Compact      bool
	Pointer      string
	KeyCase      string
	Report       bool
	Debug        bool
	// TransformFile replaces the configured transformations with the steps it holds
	TransformFile string
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Format: "json",
			Indent: 2,
		},
		Naming: NamingConfig{
			KeyCase:     KeyCaseNone,
			KeyMappings: make(map[string]string),
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults
	cfg := NewConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.Naming.KeyMappings == nil {
		cfg.Naming.KeyMappings = make(map[string]string)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return cfg, nil
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	configNames := []string{".goflatten.yml", ".goflatten.yaml", "goflatten.yml", "goflatten.yaml"}

	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		for _, name := range configNames {
			configPath := filepath.Join(currentDir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root directory
			break
		}
		currentDir = parentDir
	}

	return ""
}

// Validate checks formats, key case and indent
func (c *Config) Validate() error {
	if c.Input.Format != "" && !oneOf(c.Input.Format, inputFormats) {
		return fmt.Errorf("unknown input format '%s' (want one of %s)", c.Input.Format, strings.Join(inputFormats, ", "))
	}
	if !oneOf(c.Output.Format, outputFormats) {
		return fmt.Errorf("unknown output format '%s' (want one of %s)", c.Output.Format, strings.Join(outputFormats, ", "))
	}
	if c.Output.Indent < 0 {
		return fmt.Errorf("indent must not be negative, got %d", c.Output.Indent)
	}
	if c.Naming.KeyCase != "" && !oneOf(c.Naming.KeyCase, keyCases) {
		return fmt.Errorf("unknown key case '%s' (want one of %s)", c.Naming.KeyCase, strings.Join(keyCases, ", "))
	}
	if c.Flatten.Pointer != "" && !strings.HasPrefix(c.Flatten.Pointer, "/") {
		return fmt.Errorf("pointer '%s' must start with '/'", c.Flatten.Pointer)
	}
	if _, err := transformer.New(c.Transformations); err != nil {
		return fmt.Errorf("invalid transformations: %w", err)
	}
	return nil
}

// Apply returns a copy of c with the non-zero overrides applied
func (c *Config) Apply(o Overrides) *Config {
	merged := *c

	if o.InputFormat != "" {
		merged.Input.Format = strings.ToLower(o.InputFormat)
	}
	if o.OutputFormat != "" {
		merged.Output.Format = strings.ToLower(o.OutputFormat)
	}
	if o.Indent > 0 {
		merged.Output.Indent = o.Indent
	}
	if o.Pointer != "" {
		merged.Flatten.Pointer = o.Pointer
	}
	if o.KeyCase != "" {
		merged.Naming.KeyCase = strings.ToLower(o.KeyCase)
	}

	// Boolean flags can only switch features on
	merged.Output.Compact = merged.Output.Compact || o.Compact
	merged.Flatten.Report = merged.Flatten.Report || o.Report
	merged.Dev.Debug = merged.Dev.Debug || o.Debug

	return &merged
}

// LoadConfigWithCLI loads config with CLI argument precedence: CLI flags,
// then the config file, then defaults.
func LoadConfigWithCLI(configPath string, o Overrides) (*Config, error) {
	cfg := NewConfig()

	if configPath != "" {
		fileConfig, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileConfig
	}

	cfg = cfg.Apply(o)
	if o.TransformFile != "" {
		steps, err := transformer.LoadFile(o.TransformFile)
		if err != nil {
			return nil, err
		}
		cfg.Transformations = steps
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetKeyName returns the output name for a mapping key, applying naming rules
func (c *Config) GetKeyName(key string) string {
	// Check custom mappings first
	if mapped, exists := c.Naming.KeyMappings[key]; exists {
		return mapped
	}

	switch c.Naming.KeyCase {
	case KeyCaseSnake:
		return strcase.ToSnake(key)
	case KeyCaseScreamingSnake:
		return strcase.ToScreamingSnake(key)
	case KeyCaseCamel:
		return strcase.ToCamel(key)
	case KeyCaseLowerCamel:
		return strcase.ToLowerCamel(key)
	case KeyCaseKebab:
		return strcase.ToKebab(key)
	default:
		return key
	}
}

// RenamesKeys reports whether GetKeyName can change any key
func (c *Config) RenamesKeys() bool {
	return len(c.Naming.KeyMappings) > 0 || (c.Naming.KeyCase != "" && c.Naming.KeyCase != KeyCaseNone)
}

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return true
		}
	}
	return false
}
