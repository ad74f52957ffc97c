package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// Feature: timerdeck, Property 6: Config merge precedence
func TestConfigMergePrecedence(t *testing.T) {
	nonEmptyString := rapid.StringMatching(`[a-zA-Z0-9/_.:-]{1,20}`)

	configGen := rapid.Custom(func(t *rapid.T) *Config {
		cfg := &Config{}
		for _, f := range []struct {
			name string
			dst  *string
		}{
			{"dataDir", &cfg.DataDir},
			{"backend", &cfg.Backend},
			{"exportDir", &cfg.ExportDir},
			{"exportFormat", &cfg.ExportFormat},
			{"logLevel", &cfg.LogLevel},
			{"listenAddr", &cfg.ListenAddr},
		} {
			if rapid.Bool().Draw(t, "has_"+f.name) {
				*f.dst = nonEmptyString.Draw(t, f.name)
			}
		}
		return cfg
	})

	rapid.Check(t, func(t *rapid.T) {
		var global, project *Config
		if rapid.Bool().Draw(t, "hasGlobal") {
			global = configGen.Draw(t, "global")
		}
		if rapid.Bool().Draw(t, "hasProject") {
			project = configGen.Draw(t, "project")
		}

		merged := Merge(global, project)
		defaults := Defaults()
		fields := func(c *Config) []string {
			if c == nil {
				return make([]string, 6)
			}
			return []string{c.DataDir, c.Backend, c.ExportDir, c.ExportFormat, c.LogLevel, c.ListenAddr}
		}
		names := []string{"DataDir", "Backend", "ExportDir", "ExportFormat", "LogLevel", "ListenAddr"}
		g, p, d, m := fields(global), fields(project), fields(&defaults), fields(&merged)
		for i, name := range names {
			checkStringField(t, name, g[i], p[i], d[i], m[i])
		}
	})
}

// checkStringField asserts the merge precedence rule for a single string field:
//   - project non-empty  → merged == project
//   - project empty, global non-empty → merged == global
//   - both empty → merged == defaultVal
func checkStringField(t *rapid.T, name, globalVal, projectVal, defaultVal, mergedVal string) {
	t.Helper()
	switch {
	case projectVal != "":
		if mergedVal != projectVal {
			t.Fatalf("%s: both set, expected project value %q, got %q", name, projectVal, mergedVal)
		}
	case globalVal != "":
		if mergedVal != globalVal {
			t.Fatalf("%s: only global set, expected global value %q, got %q", name, globalVal, mergedVal)
		}
	default:
		if mergedVal != defaultVal {
			t.Fatalf("%s: neither set, expected default %q, got %q", name, defaultVal, mergedVal)
		}
	}
}

func TestDefaultsValues(t *testing.T) {
	d := Defaults()
	assert.Equal(t, "file", d.Backend)
	assert.Equal(t, ".", d.ExportDir)
	assert.Equal(t, "json", d.ExportFormat)
	assert.Equal(t, "warn", d.LogLevel)
	assert.Equal(t, "127.0.0.1:8080", d.ListenAddr)
	assert.Empty(t, d.DataDir)
}

func TestLoadGlobalMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadGlobal()
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, Defaults(), *cfg)
}

func writeGlobal(t *testing.T, name, content string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".config", "timerdeck")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadGlobalYAML(t *testing.T) {
	writeGlobal(t, "config.yaml", "backend: sqlite\nlog_level: debug\n")

	cfg, err := LoadGlobal()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Backend)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Empty(t, cfg.ExportDir)
}

func TestLoadGlobalJSONFallback(t *testing.T) {
	writeGlobal(t, "config.json", `{"export_format": "markdown"}`)

	cfg, err := LoadGlobal()
	require.NoError(t, err)
	assert.Equal(t, "markdown", cfg.ExportFormat)
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(orig) })
}

func TestLoadProjectMissingFileReturnsNil(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadProject()
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestLoadProjectAcceptsJSONAndYAML(t *testing.T) {
	for name, content := range map[string]string{
		"yaml": "export_dir: exports\n",
		"json": `{"export_dir": "exports"}`,
	} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			chdir(t, dir)
			require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectFile), []byte(content), 0o644))

			cfg, err := LoadProject()
			require.NoError(t, err)
			require.NotNil(t, cfg)
			assert.Equal(t, "exports", cfg.ExportDir)
		})
	}
}

func TestLoadGlobalParseError(t *testing.T) {
	writeGlobal(t, "config.yaml", "backend: [unterminated\n")

	_, err := LoadGlobal()
	require.Error(t, err)
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr), "expected *ParseError, got %T: %v", err, err)
	assert.Contains(t, err.Error(), "config.yaml")
}
