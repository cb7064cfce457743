package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCLIConfigMissingFile(t *testing.T) {
	cfg, err := loadCLIConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("missing file should fall back to defaults: %v", err)
	}
	if cfg.Profile != "default" {
		t.Errorf("expected default profile, got %q", cfg.Profile)
	}
	if cfg.ProfileDir == "" {
		t.Error("expected a default profile directory")
	}
}

func TestLoadCLIConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "profile_dir = \"/data/vault\"\nprofile = \"study\"\nverbose = true\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := loadCLIConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.ProfileDir != "/data/vault" || cfg.Profile != "study" || !cfg.Verbose {
		t.Errorf("config mismatch: %+v", cfg)
	}
}

func TestLoadCLIConfigInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("profile_dir = [broken"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := loadCLIConfig(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadCLIConfigRejectsEmptyDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("profile_dir = \"\"\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := loadCLIConfig(path); err == nil {
		t.Error("expected validation error for empty profile_dir")
	}
}

func TestParseVector(t *testing.T) {
	vector, err := parseVector("0.1, 0.2,0.3")
	if err != nil {
		t.Fatalf("failed to parse vector: %v", err)
	}
	if len(vector) != 3 {
		t.Errorf("expected 3 components, got %d", len(vector))
	}

	if _, err := parseVector(""); err == nil {
		t.Error("expected error for empty vector")
	}
	if _, err := parseVector("1,x,3"); err == nil {
		t.Error("expected error for malformed component")
	}
}
