package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/goflatten/internal/transformer"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp("", "config_test_*.yml")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Remove(tmpFile.Name()) })

	_, err = tmpFile.WriteString(content)
	require.NoError(t, err)
	_ = tmpFile.Close()
	return tmpFile.Name()
}

func TestConfig_DefaultValues(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, "", cfg.Input.Format)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, 2, cfg.Output.Indent)
	assert.False(t, cfg.Output.Compact)
	assert.Equal(t, "", cfg.Flatten.Pointer)
	assert.Equal(t, KeyCaseNone, cfg.Naming.KeyCase)
	assert.False(t, cfg.Dev.Debug)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_LoadFromYAML(t *testing.T) {
	path := writeConfig(t, `
input:
  format: yaml
output:
  format: msgpack
  indent: 4
  compact: true
flatten:
  pointer: "/data/items"
  report: true
naming:
  key_case: snake
  key_mappings:
    "userID": "user"
dev:
  debug: true
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "yaml", cfg.Input.Format)
	assert.Equal(t, "msgpack", cfg.Output.Format)
	assert.Equal(t, 4, cfg.Output.Indent)
	assert.True(t, cfg.Output.Compact)
	assert.Equal(t, "/data/items", cfg.Flatten.Pointer)
	assert.True(t, cfg.Flatten.Report)
	assert.Equal(t, KeyCaseSnake, cfg.Naming.KeyCase)
	assert.Equal(t, "user", cfg.Naming.KeyMappings["userID"])
	assert.True(t, cfg.Dev.Debug)
}

func TestConfig_LoadKeepsDefaultsForMissingSections(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "dev:\n  debug: true\n"))
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, 2, cfg.Output.Indent)
	assert.NotNil(t, cfg.Naming.KeyMappings)
}

func TestConfig_LoadNonExistentFile(t *testing.T) {
	_, err := LoadConfig("/non/existent/config.yml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no such file or directory")
}

func TestConfig_LoadInvalidYAML(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
output:
  format: "json"
invalid_yaml: [unclosed array
`))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestConfig_LoadInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		message string
	}{
		{"output format", "output:\n  format: xml\n", "unknown output format 'xml'"},
		{"input format", "input:\n  format: msgpack\n", "unknown input format 'msgpack'"},
		{"indent", "output:\n  indent: -1\n", "indent must not be negative"},
		{"key case", "naming:\n  key_case: title\n", "unknown key case 'title'"},
		{"pointer", "flatten:\n  pointer: data\n", "must start with '/'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid config file")
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestConfig_FindConfigFile(t *testing.T) {
	tmpDir := t.TempDir()

	nestedDir := filepath.Join(tmpDir, "project", "subdir")
	require.NoError(t, os.MkdirAll(nestedDir, 0o755))

	configPath := filepath.Join(tmpDir, "project", ".goflatten.yml")
	require.NoError(t, os.WriteFile(configPath, []byte("output:\n  format: yaml\n"), 0o644))

	originalWd, err := os.Getwd()
	require.NoError(t, err)
	defer func() { _ = os.Chdir(originalWd) }()

	require.NoError(t, os.Chdir(nestedDir))

	// Should find it in the parent directory
	foundPath := FindConfigFile()
	require.NotEmpty(t, foundPath, "Should find config file")

	foundContent, err := os.ReadFile(foundPath)
	require.NoError(t, err)
	assert.Contains(t, string(foundContent), "format: yaml")
}

func TestConfig_FindConfigFileNotFound(t *testing.T) {
	tmpDir := t.TempDir()

	originalWd, err := os.Getwd()
	require.NoError(t, err)
	defer func() { _ = os.Chdir(originalWd) }()

	require.NoError(t, os.Chdir(tmpDir))

	assert.Empty(t, FindConfigFile())
}

func TestConfig_GetKeyName(t *testing.T) {
	tests := []struct {
		keyCase  string
		input    string
		expected string
	}{
		{KeyCaseNone, "userName", "userName"},
		{"", "user_name", "user_name"},
		{KeyCaseSnake, "userName", "user_name"},
		{KeyCaseScreamingSnake, "userName", "USER_NAME"},
		{KeyCaseCamel, "user_name", "UserName"},
		{KeyCaseLowerCamel, "user_name", "userName"},
		{KeyCaseKebab, "userName", "user-name"},
	}

	for _, tt := range tests {
		t.Run(tt.keyCase+"/"+tt.input, func(t *testing.T) {
			cfg := NewConfig()
			cfg.Naming.KeyCase = tt.keyCase
			assert.Equal(t, tt.expected, cfg.GetKeyName(tt.input))
		})
	}
}

func TestConfig_GetKeyNameMappingsTakePrecedence(t *testing.T) {
	cfg := NewConfig()
	cfg.Naming.KeyCase = KeyCaseSnake
	cfg.Naming.KeyMappings["userID"] = "uid"

	assert.Equal(t, "uid", cfg.GetKeyName("userID"))
	assert.Equal(t, "first_name", cfg.GetKeyName("firstName"))
}

func TestConfig_RenamesKeys(t *testing.T) {
	cfg := NewConfig()
	assert.False(t, cfg.RenamesKeys())

	cfg.Naming.KeyCase = KeyCaseKebab
	assert.True(t, cfg.RenamesKeys())

	cfg = NewConfig()
	cfg.Naming.KeyMappings["a"] = "b"
	assert.True(t, cfg.RenamesKeys())
}

func TestConfig_Apply(t *testing.T) {
	base := NewConfig()
	base.Output.Format = "yaml"
	base.Flatten.Pointer = "/from/file"

	merged := base.Apply(Overrides{
		OutputFormat: "JSON",
		Indent:       4,
		Report:       true,
	})

	assert.Equal(t, "json", merged.Output.Format)
	assert.Equal(t, 4, merged.Output.Indent)
	assert.Equal(t, "/from/file", merged.Flatten.Pointer)
	assert.True(t, merged.Flatten.Report)

	// Base is untouched
	assert.Equal(t, "yaml", base.Output.Format)
	assert.False(t, base.Flatten.Report)
}

func TestLoadConfigWithCLI(t *testing.T) {
	path := writeConfig(t, `
output:
  format: yaml
  indent: 4
naming:
  key_case: kebab
`)

	cfg, err := LoadConfigWithCLI(path, Overrides{OutputFormat: "msgpack", Debug: true})
	require.NoError(t, err)

	// Precedence: CLI > config file > defaults
	assert.Equal(t, "msgpack", cfg.Output.Format)
	assert.Equal(t, 4, cfg.Output.Indent)
	assert.Equal(t, KeyCaseKebab, cfg.Naming.KeyCase)
	assert.True(t, cfg.Dev.Debug)
}

func TestLoadConfigWithCLI_NoFile(t *testing.T) {
	cfg, err := LoadConfigWithCLI("", Overrides{})
	require.NoError(t, err)
	assert.Equal(t, NewConfig(), cfg)
}

func TestLoadConfigWithCLI_InvalidOverride(t *testing.T) {
	_, err := LoadConfigWithCLI("", Overrides{OutputFormat: "xml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestConfig_LoadTransformations(t *testing.T) {
	path := writeConfig(t, `
transformations:
  - sourcePointer: /items[i]/name
    resultPointer: /names
  - resultPointer: /meta
    expressions:
      - copy(/kind, /kind)
      - '"static"'
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []transformer.Step{
		{SourcePointer: "/items[i]/name", ResultPointer: "/names"},
		{ResultPointer: "/meta", Expressions: []string{"copy(/kind, /kind)", `"static"`}},
	}, cfg.Transformations)
}

func TestConfig_LoadInvalidTransformation(t *testing.T) {
	path := writeConfig(t, `
transformations:
  - expressions: ["script(x)"]
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid transformations")
	assert.ErrorIs(t, err, transformer.ErrUnknownFunction)
}

func TestLoadConfigWithCLI_TransformFileReplacesConfigured(t *testing.T) {
	path := writeConfig(t, `
transformations:
  - sourcePointer: /a
    resultPointer: /a
`)
	stepsPath := filepath.Join(t.TempDir(), "steps.json")
	require.NoError(t, os.WriteFile(stepsPath, []byte(`{"transformations": [{"sourcePointer": "/b", "resultPointer": "/c"}]}`), 0644))

	cfg, err := LoadConfigWithCLI(path, Overrides{TransformFile: stepsPath})
	require.NoError(t, err)
	assert.Equal(t, []transformer.Step{{SourcePointer: "/b", ResultPointer: "/c"}}, cfg.Transformations)

	_, err = LoadConfigWithCLI("", Overrides{TransformFile: filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)
}
