package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configurable timerdeck settings.
type Config struct {
	DataDir      string `json:"data_dir" yaml:"data_dir"` // empty means the XDG data dir
	Backend      string `json:"backend" yaml:"backend"`   // "file" | "sqlite" | "memory"
	ExportDir    string `json:"export_dir" yaml:"export_dir"`
	ExportFormat string `json:"export_format" yaml:"export_format"` // "json" | "markdown"
	LogLevel     string `json:"log_level" yaml:"log_level"`
	ListenAddr   string `json:"listen_addr" yaml:"listen_addr"`
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		Backend:      "file",
		ExportDir:    ".",
		ExportFormat: "json",
		LogLevel:     "warn",
		ListenAddr:   "127.0.0.1:8080",
	}
}

// ProjectFile is read from the current working directory.
const ProjectFile = ".timerdeck"

// LoadGlobal reads ~/.config/timerdeck/config.yaml, falling back to
// config.json next to it. Returns defaults if neither file exists.
func LoadGlobal() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(home, ".config", "timerdeck")
	cfg, err := loadFile(filepath.Join(dir, "config.yaml"), false)
	if err != nil || cfg != nil {
		return cfg, err
	}
	return loadFile(filepath.Join(dir, "config.json"), true)
}

// LoadProject reads .timerdeck in the current working directory. The file
// may be YAML or JSON. Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(ProjectFile, false)
}

// loadFile reads and parses the config file at path.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if filepath.Ext(path) == ".json" {
		err = json.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()
	for _, layer := range []*Config{global, project} {
		if layer == nil {
			continue
		}
		overlay(&result.DataDir, layer.DataDir)
		overlay(&result.Backend, layer.Backend)
		overlay(&result.ExportDir, layer.ExportDir)
		overlay(&result.ExportFormat, layer.ExportFormat)
		overlay(&result.LogLevel, layer.LogLevel)
		overlay(&result.ListenAddr, layer.ListenAddr)
	}
	return result
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
