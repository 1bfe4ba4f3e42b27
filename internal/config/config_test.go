package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Database != "bankdm.db" {
		t.Errorf("Database = %q, want bankdm.db", cfg.Database)
	}
	if cfg.DataDir != "data" {
		t.Errorf("DataDir = %q, want data", cfg.DataDir)
	}
	if len(cfg.LocalCurrencyCodes) != 2 {
		t.Errorf("LocalCurrencyCodes = %v, want the two ruble codes", cfg.LocalCurrencyCodes)
	}
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Database != Default().Database {
		t.Errorf("Database = %q, want default", cfg.Database)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "database: /var/lib/bankdm/prod.db\ndata_dir: /srv/extracts\nlocal_currency_codes: [\"810\"]\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Database != "/var/lib/bankdm/prod.db" {
		t.Errorf("Database = %q", cfg.Database)
	}
	if cfg.DataDir != "/srv/extracts" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if len(cfg.LocalCurrencyCodes) != 1 || cfg.LocalCurrencyCodes[0] != "810" {
		t.Errorf("LocalCurrencyCodes = %v", cfg.LocalCurrencyCodes)
	}
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() with missing explicit file succeeded, want error")
	}
}

func TestLoad_InvalidYAMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("database: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() with invalid YAML succeeded, want error")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("database: from-file.db\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvDatabase, "from-env.db")
	t.Setenv(EnvDataDir, "/env/extracts")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Database != "from-env.db" {
		t.Errorf("Database = %q, env must win over file", cfg.Database)
	}
	if cfg.DataDir != "/env/extracts" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
}

func TestLoad_EmptyCodeListFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("local_currency_codes: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(cfg.LocalCurrencyCodes) != 2 {
		t.Errorf("LocalCurrencyCodes = %v, want default fallback", cfg.LocalCurrencyCodes)
	}
}
