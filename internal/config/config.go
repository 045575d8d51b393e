// Package config provides configuration loading for docsmith.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/docsmithlabs/docsmith/internal/indexer"
	"github.com/docsmithlabs/docsmith/internal/sections"
)

const (
	envPrefix         = "DOCSMITH_"
	maxConfigFileSize = 1024 * 1024 // 1MB
)

// Config is the complete runtime configuration, passed down explicitly.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Storage  StorageConfig  `koanf:"storage"`
	Git      GitConfig      `koanf:"git"`
	Groq     GroqConfig     `koanf:"groq"`
	Index    IndexConfig    `koanf:"index"`
	Sections SectionsConfig `koanf:"sections"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
	// AuthToken guards the mutating endpoints. Empty disables auth, which
	// is only sensible for local development.
	AuthToken string `koanf:"auth_token"`
}

// StorageConfig selects and locates the session store.
type StorageConfig struct {
	// DataRoot is the directory holding per-session materialized trees.
	DataRoot string `koanf:"data_root"`
	// Backend is "manifest" (per-session manifest.json files) or "sqlite".
	Backend string `koanf:"backend"`
	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string `koanf:"sqlite_path"`
}

// GitConfig carries clone credentials. The token is injected explicitly,
// never read from the ambient environment by the materializer itself.
type GitConfig struct {
	Token string `koanf:"token"`
	// Hosts limits token injection to these hosts. Defaults to github.com.
	Hosts []string `koanf:"hosts"`
}

// GroqConfig configures the section generation API client.
type GroqConfig struct {
	APIKey  string   `koanf:"api_key"`
	BaseURL string   `koanf:"base_url"`
	Models  []string `koanf:"models"`
}

// IndexConfig sets file indexing caps applied when requests omit them.
type IndexConfig struct {
	MaxFiles int   `koanf:"max_files"`
	MaxBytes int64 `koanf:"max_bytes"`
}

// SectionsConfig selects the generator provider.
type SectionsConfig struct {
	// Provider is "groq", "static", or empty for auto-detection by API key.
	Provider  string `koanf:"provider"`
	CacheSize int    `koanf:"cache_size"`
}

// Load reads configuration from an optional YAML file, then overrides with
// DOCSMITH_* environment variables.
//
// Precedence (highest to lowest):
//  1. Environment variables (DOCSMITH_SERVER_PORT, DOCSMITH_STORAGE_DATA_ROOT, ...)
//  2. YAML config file, when configPath is non-empty and the file exists
//  3. Defaults
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	// GROQ_API_KEY is the provider's conventional variable. Loaded first so
	// both the config file and DOCSMITH_GROQ_API_KEY override it.
	if err := k.Load(env.Provider(sections.EnvGroqAPIKey, ".", func(s string) string {
		return "groq.api_key"
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			f, err := os.Open(configPath)
			if err != nil {
				return nil, fmt.Errorf("failed to open config file: %w", err)
			}
			defer f.Close()

			info, err := f.Stat()
			if err != nil {
				return nil, fmt.Errorf("failed to stat config file: %w", err)
			}
			if info.Size() > maxConfigFileSize {
				return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
			}

			content, err := io.ReadAll(f)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
			}
		}
	}

	// Environment variables map to dotted keys: the prefix is stripped, the
	// first underscore separates section from field, later underscores stay.
	// Example: DOCSMITH_STORAGE_DATA_ROOT -> storage.data_root
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// List-valued keys accept comma-separated env values.
	for _, key := range []string{"groq.models", "git.hosts"} {
		if v, ok := k.Get(key).(string); ok {
			if err := k.Set(key, splitList(v)); err != nil {
				return nil, fmt.Errorf("failed to normalize %s: %w", key, err)
			}
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Storage.DataRoot == "" {
		return fmt.Errorf("storage data_root is required")
	}
	switch c.Storage.Backend {
	case "manifest", "sqlite":
	default:
		return fmt.Errorf("unknown storage backend %q (expected manifest or sqlite)", c.Storage.Backend)
	}
	if c.Index.MaxFiles < 1 {
		return fmt.Errorf("index max_files must be positive")
	}
	if c.Index.MaxBytes < 1 {
		return fmt.Errorf("index max_bytes must be positive")
	}
	switch c.Sections.Provider {
	case "", sections.ProviderGroq, sections.ProviderStatic:
	default:
		return fmt.Errorf("unknown sections provider %q", c.Sections.Provider)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	if cfg.Storage.DataRoot == "" {
		cfg.Storage.DataRoot = "data"
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "manifest"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "docsmith.db"
	}

	if len(cfg.Git.Hosts) == 0 {
		cfg.Git.Hosts = []string{"github.com"}
	}

	if cfg.Index.MaxFiles == 0 {
		cfg.Index.MaxFiles = indexer.DefaultMaxFiles
	}
	if cfg.Index.MaxBytes == 0 {
		cfg.Index.MaxBytes = indexer.DefaultMaxBytes
	}

	if cfg.Sections.CacheSize == 0 {
		cfg.Sections.CacheSize = 1000
	}
}

func splitList(value string) []string {
	var out []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
