package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/store"
)

// FileName is the project config file, relative to the project root.
const FileName = "tracker.yaml"

// Environment overrides applied by ApplyEnv.
const (
	EnvStoreDriver = "TRACKER_STORE_DRIVER"
	EnvDatabaseURL = "TRACKER_DATABASE_URL"
	EnvTableURL    = "TRACKER_TABLE_URL"
	EnvAddr        = "TRACKER_ADDR"
	EnvLogLevel    = "TRACKER_LOG_LEVEL"
)

// Config represents the top-level tracker.yaml configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store"`
	Rules  RulesConfig  `yaml:"rules"`
	Import ImportConfig `yaml:"import"`
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Git    GitConfig    `yaml:"git"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver    string `yaml:"driver"` // csv, postgres, aztables or memory
	Path      string `yaml:"path"`   // csv data dir, relative to the project root
	DSN       string `yaml:"dsn,omitempty"`
	TableURL  string `yaml:"table_url,omitempty"`
	TableName string `yaml:"table_name,omitempty"`
}

// RulesConfig locates the user's categorization rules.
type RulesConfig struct {
	Path            string `yaml:"path"`
	IncludeDefaults bool   `yaml:"include_defaults"`
}

// ImportConfig names the bank export format statements are parsed as.
type ImportConfig struct {
	Format string `yaml:"format"`
}

// ServerConfig configures `tracker serve`.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig sets the log level (debug, info, warn, error).
type LogConfig struct {
	Level string `yaml:"level"`
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a tracker.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Driver:    store.DriverCSV,
			Path:      "data",
			TableName: "transactions",
		},
		Rules: RulesConfig{
			Path:            "rules/categorization-rules.yaml",
			IncludeDefaults: true,
		},
		Import: ImportConfig{Format: "wellsfargo"},
		Server: ServerConfig{Addr: ":8080"},
		Log:    LogConfig{Level: "info"},
		Git: GitConfig{
			AutoCommit:  false,
			AuthorName:  "Transaction Tracker",
			AuthorEmail: "tracker@localhost",
		},
	}
}

// ApplyEnv loads <projectDir>/.env if present and overlays the TRACKER_*
// environment variables onto cfg. Variables already set in the process
// environment win over .env values.
func ApplyEnv(cfg *Config, projectDir string) error {
	err := godotenv.Load(filepath.Join(projectDir, ".env"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	if v := os.Getenv(EnvStoreDriver); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		cfg.Store.DSN = v
	}
	if v := os.Getenv(EnvTableURL); v != "" {
		cfg.Store.TableURL = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

// StoreOptions resolves the store section against projectDir.
func (c *Config) StoreOptions(projectDir string) store.Options {
	return store.Options{
		Driver:    c.Store.Driver,
		Path:      resolve(projectDir, c.Store.Path),
		DSN:       c.Store.DSN,
		TableURL:  c.Store.TableURL,
		TableName: c.Store.TableName,
	}
}

// RulesPath returns the rules file path resolved against projectDir.
func (c *Config) RulesPath(projectDir string) string {
	return resolve(projectDir, c.Rules.Path)
}

func resolve(projectDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(projectDir, p)
}
