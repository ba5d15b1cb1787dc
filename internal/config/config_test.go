package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_SetsBaseline(t *testing.T) {
	cfg := Default()

	if cfg.PrimaryUser != "user" {
		t.Errorf("PrimaryUser = %q, want user", cfg.PrimaryUser)
	}
	if cfg.MaxSearchResults != 20 {
		t.Errorf("MaxSearchResults = %d, want 20", cfg.MaxSearchResults)
	}
	if filepath.Base(cfg.DataDir) != ".mnemo" {
		t.Errorf("DataDir = %q, want a ~/.mnemo path", cfg.DataDir)
	}
	if cfg.JournalKeep != 200 {
		t.Errorf("JournalKeep = %d, want 200", cfg.JournalKeep)
	}
}

func TestLoad_MissingDefaultFileIsFine(t *testing.T) {
	t.Setenv(EnvDataDir, t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load with no config file: %v", err)
	}
	if cfg.PrimaryUser != "user" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoad_ExplicitMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Error("explicit missing config file should error")
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "primary_user: alex\nmax_search_results: 7\ndata_dir: " + dir + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PrimaryUser != "alex" {
		t.Errorf("PrimaryUser = %q, want alex", cfg.PrimaryUser)
	}
	if cfg.MaxSearchResults != 7 {
		t.Errorf("MaxSearchResults = %d, want 7", cfg.MaxSearchResults)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("primary_user: alex\n"), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	t.Setenv(EnvPrimaryUser, "sam")
	t.Setenv(EnvDBPath, filepath.Join(dir, "custom.db"))

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PrimaryUser != "sam" {
		t.Errorf("env should win over file: PrimaryUser = %q", cfg.PrimaryUser)
	}
	if cfg.DBPath != filepath.Join(dir, "custom.db") {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
}

func TestLoad_BadYAMLErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(":\n\t- not yaml"), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("unparsable YAML should error")
	}
}

func TestLoad_BadEnvNumberIgnored(t *testing.T) {
	t.Setenv(EnvDataDir, t.TempDir())
	t.Setenv(EnvMaxResults, "not-a-number")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxSearchResults != 20 {
		t.Errorf("bad env number should keep default, got %d", cfg.MaxSearchResults)
	}
}

func TestMemory_MapsFields(t *testing.T) {
	cfg := Config{
		DataDir:          "/tmp/x",
		DBPath:           "/tmp/x/mem.db",
		PrimaryUser:      "alex",
		MaxSearchResults: 9,
	}
	m := cfg.Memory()
	if m.DataDir != cfg.DataDir || m.DBPath != cfg.DBPath ||
		m.PrimaryUser != cfg.PrimaryUser || m.MaxSearchResults != cfg.MaxSearchResults {
		t.Errorf("Memory() mapping wrong: %+v", m)
	}
}
