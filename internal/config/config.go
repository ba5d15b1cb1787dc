// Package config resolves mnemo's runtime configuration at the process
// edge: defaults first, an optional YAML file second, environment
// variables last. The engine itself never reads this — it takes a plain
// memory.Config struct, so all ambient resolution stays here.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/mnemolab/mnemo/internal/memory"
)

// Env var names recognized by Load.
const (
	EnvDBPath      = "MNEMO_DB_PATH"
	EnvDataDir     = "MNEMO_DATA_DIR"
	EnvPrimaryUser = "MNEMO_PRIMARY_USER"
	EnvMaxResults  = "MNEMO_MAX_RESULTS"
)

// Config is the process-level configuration.
type Config struct {
	// DataDir holds the database and the ingest journal. Defaults to
	// ~/.mnemo.
	DataDir string `yaml:"data_dir"`
	// DBPath overrides the default <DataDir>/memory.db location.
	DBPath string `yaml:"db_path"`
	// PrimaryUser is the fact subject that identifies the user.
	PrimaryUser string `yaml:"primary_user"`
	// MaxSearchResults caps every search operation's result count.
	MaxSearchResults int `yaml:"max_search_results"`
	// JournalKeep bounds how many ingest journal records are retained.
	JournalKeep int `yaml:"journal_keep"`
}

// Default returns the baseline configuration.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:          filepath.Join(home, ".mnemo"),
		PrimaryUser:      "user",
		MaxSearchResults: 20,
		JournalKeep:      200,
	}
}

// Load resolves the effective configuration. A non-empty path names a
// YAML file that must exist and parse; an empty path tries the default
// location (<DataDir>/config.yaml) and silently skips a missing file.
// Environment variables override whatever the file set.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = filepath.Join(cfg.DataDir, "config.yaml")
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// No config file is the common case.
	default:
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	applyEnv(&cfg)

	if cfg.PrimaryUser == "" {
		cfg.PrimaryUser = "user"
	}
	if cfg.MaxSearchResults <= 0 {
		cfg.MaxSearchResults = 20
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(EnvPrimaryUser); v != "" {
		cfg.PrimaryUser = v
	}
	if v := os.Getenv(EnvMaxResults); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxSearchResults = n
		}
	}
}

// Memory maps the process configuration onto the engine's explicit
// dependency struct.
func (c Config) Memory() memory.Config {
	return memory.Config{
		DataDir:          c.DataDir,
		DBPath:           c.DBPath,
		PrimaryUser:      c.PrimaryUser,
		MaxSearchResults: c.MaxSearchResults,
	}
}
