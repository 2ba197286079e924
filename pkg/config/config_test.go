package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Version != 1 {
		t.Errorf("Expected version 1, got %d", cfg.Version)
	}
	if cfg.Ingest.Delimiter != "," {
		t.Errorf("Expected comma delimiter, got %q", cfg.Ingest.Delimiter)
	}
	if cfg.Filter.Workers != 1 {
		t.Errorf("Expected sequential default, got %d workers", cfg.Filter.Workers)
	}
	if cfg.Export.OmitEmpty {
		t.Error("Empty results should be kept by default")
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("Unexpected debounce default: %v", cfg.Watch.Debounce)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config must validate: %v", err)
	}
}

func TestDelimiterRune(t *testing.T) {
	cfg := Default()
	if cfg.DelimiterRune() != ',' {
		t.Errorf("Expected comma, got %q", cfg.DelimiterRune())
	}

	cfg.Ingest.Delimiter = ";"
	if cfg.DelimiterRune() != ';' {
		t.Errorf("Expected semicolon, got %q", cfg.DelimiterRune())
	}

	cfg.Ingest.Delimiter = ""
	if cfg.DelimiterRune() != ',' {
		t.Errorf("Empty delimiter should fall back to comma, got %q", cfg.DelimiterRune())
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Ingest.Delimiter = ";;"
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for multi-character delimiter")
	}

	cfg = Default()
	cfg.Filter.Workers = -1
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for negative workers")
	}

	cfg = Default()
	cfg.Ingest.Encodings = []string{"utf-8", "ebcdic"}
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for unknown encoding name")
	}

	cfg = Default()
	cfg.Ingest.Encodings = []string{"latin-1", "Windows-1252", "utf8"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Known encoding spellings must validate: %v", err)
	}
}

func TestLoadFileMerge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
version: 1
filter:
  template_column: gene_id
  workers: 4
ingest:
  delimiter: ";"
  encodings: ["windows-1252", "latin-1"]
export:
  omit_empty: true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	m := NewManager()
	if err := m.loadFile(path); err != nil {
		t.Fatalf("loadFile failed: %v", err)
	}

	cfg := m.Get()
	if cfg.Filter.TemplateColumn != "gene_id" {
		t.Errorf("template_column not merged: %q", cfg.Filter.TemplateColumn)
	}
	if cfg.Filter.Workers != 4 {
		t.Errorf("workers not merged: %d", cfg.Filter.Workers)
	}
	if cfg.Ingest.Delimiter != ";" {
		t.Errorf("delimiter not merged: %q", cfg.Ingest.Delimiter)
	}
	if len(cfg.Ingest.Encodings) != 2 || cfg.Ingest.Encodings[0] != "windows-1252" {
		t.Errorf("encodings not merged: %v", cfg.Ingest.Encodings)
	}
	if !cfg.Export.OmitEmpty {
		t.Error("omit_empty not merged")
	}

	// Values the file does not set keep their defaults.
	if cfg.Export.OutputDir != "." {
		t.Errorf("output_dir default lost: %q", cfg.Export.OutputDir)
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("debounce default lost: %v", cfg.Watch.Debounce)
	}
}

func TestLoadFileRejectsBadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("filter: ["), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	m := NewManager()
	if err := m.loadFile(path); err == nil {
		t.Error("Expected error for malformed yaml")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CSVSIFT_TARGET_COLUMN", "sku")
	t.Setenv("CSVSIFT_WORKERS", "8")
	t.Setenv("CSVSIFT_DELIMITER", "|")
	t.Setenv("CSVSIFT_ENCODINGS", "latin-1,utf-8")

	m := NewManager()
	m.loadEnv()

	cfg := m.Get()
	if cfg.Filter.TargetColumn != "sku" {
		t.Errorf("env target column not applied: %q", cfg.Filter.TargetColumn)
	}
	if cfg.Filter.Workers != 8 {
		t.Errorf("env workers not applied: %d", cfg.Filter.Workers)
	}
	if cfg.Ingest.Delimiter != "|" {
		t.Errorf("env delimiter not applied: %q", cfg.Ingest.Delimiter)
	}
	if len(cfg.Ingest.Encodings) != 2 || cfg.Ingest.Encodings[0] != "latin-1" {
		t.Errorf("env encodings not applied: %v", cfg.Ingest.Encodings)
	}
}
