// Package config provides hierarchical configuration management.
// Priority: defaults < user < project < env < flags
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all csvsift configuration.
type Config struct {
	Version int `yaml:"version"`

	Filter FilterConfig `yaml:"filter"`
	Ingest IngestConfig `yaml:"ingest"`
	Export ExportConfig `yaml:"export"`
	Watch  WatchConfig  `yaml:"watch"`
}

// FilterConfig controls the batch pipeline.
type FilterConfig struct {
	TemplateColumn string `yaml:"template_column"`
	TargetColumn   string `yaml:"target_column"`
	Workers        int    `yaml:"workers"` // values below 2 mean sequential
}

// IngestConfig controls the loader.
type IngestConfig struct {
	Delimiter string   `yaml:"delimiter"` // single character, default ","
	Encodings []string `yaml:"encodings"` // fallback chain order, default utf-8, latin-1, windows-1252
}

// knownEncodings lists the encoding names the loader accepts, in any
// spelling variant it recognizes.
var knownEncodings = map[string]bool{
	"utf-8": true, "utf8": true,
	"latin-1": true, "latin1": true, "iso-8859-1": true,
	"windows-1252": true, "cp1252": true,
}

// ExportConfig controls result serialization.
type ExportConfig struct {
	OutputDir string `yaml:"output_dir"`
	Workbook  bool   `yaml:"workbook"`   // also write the combined workbook
	OmitEmpty bool   `yaml:"omit_empty"` // drop zero-row results from exports
}

// WatchConfig controls the directory watcher.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: 1,
		Filter: FilterConfig{
			Workers: 1,
		},
		Ingest: IngestConfig{
			Delimiter: ",",
		},
		Export: ExportConfig{
			OutputDir: ".",
			Workbook:  false,
			OmitEmpty: false,
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
	}
}

// DelimiterRune returns the configured delimiter as a rune, or comma if
// the config value is empty or not a single character.
func (c *Config) DelimiterRune() rune {
	runes := []rune(c.Ingest.Delimiter)
	if len(runes) != 1 {
		return ','
	}
	return runes[0]
}

// Validate rejects configurations no run could honor.
func (c *Config) Validate() error {
	if len([]rune(c.Ingest.Delimiter)) > 1 {
		return fmt.Errorf("ingest.delimiter must be a single character, got %q", c.Ingest.Delimiter)
	}
	if c.Filter.Workers < 0 {
		return fmt.Errorf("filter.workers must not be negative, got %d", c.Filter.Workers)
	}
	for _, e := range c.Ingest.Encodings {
		if !knownEncodings[strings.ToLower(strings.TrimSpace(e))] {
			return fmt.Errorf("ingest.encodings: unknown encoding %q", e)
		}
	}
	return nil
}

// Manager handles configuration loading and merging.
type Manager struct {
	mu     sync.RWMutex
	config *Config
	paths  []string // paths that were loaded
}

// NewManager creates a new configuration manager.
func NewManager() *Manager {
	return &Manager{
		config: Default(),
	}
}

// Load loads configuration from all sources in priority order.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.config = Default()

	for _, path := range m.getConfigPaths() {
		if err := m.loadFile(path); err != nil {
			if !os.IsNotExist(err) {
				return err
			}
		} else {
			m.paths = append(m.paths, path)
		}
	}

	m.loadEnv()

	return m.config.Validate()
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Sources returns the config file paths that were actually loaded.
func (m *Manager) Sources() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paths
}

// getConfigPaths returns config file paths in priority order.
func (m *Manager) getConfigPaths() []string {
	var paths []string

	// User config
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".csvsift", "config.yaml"))
	}

	// Project config (current directory)
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".csvsift.yaml"))
	}

	return paths
}

// loadFile loads a single config file and merges it.
func (m *Manager) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var partial Config
	if err := yaml.Unmarshal(data, &partial); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	m.merge(&partial)
	return nil
}

// merge merges non-zero values from src into config.
func (m *Manager) merge(src *Config) {
	if src.Filter.TemplateColumn != "" {
		m.config.Filter.TemplateColumn = src.Filter.TemplateColumn
	}
	if src.Filter.TargetColumn != "" {
		m.config.Filter.TargetColumn = src.Filter.TargetColumn
	}
	if src.Filter.Workers != 0 {
		m.config.Filter.Workers = src.Filter.Workers
	}

	if src.Ingest.Delimiter != "" {
		m.config.Ingest.Delimiter = src.Ingest.Delimiter
	}
	if len(src.Ingest.Encodings) > 0 {
		m.config.Ingest.Encodings = src.Ingest.Encodings
	}

	if src.Export.OutputDir != "" {
		m.config.Export.OutputDir = src.Export.OutputDir
	}
	if src.Export.Workbook {
		m.config.Export.Workbook = true
	}
	if src.Export.OmitEmpty {
		m.config.Export.OmitEmpty = true
	}

	if src.Watch.Debounce != 0 {
		m.config.Watch.Debounce = src.Watch.Debounce
	}
}

// loadEnv overrides config from CSVSIFT_* environment variables.
func (m *Manager) loadEnv() {
	if v := os.Getenv("CSVSIFT_TEMPLATE_COLUMN"); v != "" {
		m.config.Filter.TemplateColumn = v
	}
	if v := os.Getenv("CSVSIFT_TARGET_COLUMN"); v != "" {
		m.config.Filter.TargetColumn = v
	}
	if v := os.Getenv("CSVSIFT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			m.config.Filter.Workers = n
		}
	}
	if v := os.Getenv("CSVSIFT_DELIMITER"); v != "" {
		m.config.Ingest.Delimiter = v
	}
	if v := os.Getenv("CSVSIFT_ENCODINGS"); v != "" {
		m.config.Ingest.Encodings = strings.Split(v, ",")
	}
	if v := os.Getenv("CSVSIFT_OUTPUT_DIR"); v != "" {
		m.config.Export.OutputDir = v
	}
}
