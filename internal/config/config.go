// Package config loads application configuration from defaults, an optional
// YAML file, and CODESCOUT_* environment variables, in increasing
// precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Walker   WalkerConfig   `mapstructure:"walker"`
	Chunker  ChunkerConfig  `mapstructure:"chunker"`
	Embedder EmbedderConfig `mapstructure:"embedder"`
	Store    StoreConfig    `mapstructure:"store"`
	Search   SearchConfig   `mapstructure:"search"`
	Log      LogConfig      `mapstructure:"log"`
}

// WalkerConfig controls file discovery.
type WalkerConfig struct {
	IgnoreDirs   []string `mapstructure:"ignore_dirs"`
	Extensions   []string `mapstructure:"extensions"`
	MaxFileBytes int64    `mapstructure:"max_file_bytes"`
}

// ChunkerConfig controls chunk sizing.
type ChunkerConfig struct {
	WindowLines   int `mapstructure:"window_lines"`
	OverlapLines  int `mapstructure:"overlap_lines"`
	MaxChunkBytes int `mapstructure:"max_chunk_bytes"`
}

// EmbedderConfig selects and tunes the embedding provider.
type EmbedderConfig struct {
	Provider       string `mapstructure:"provider"` // openai, local
	Model          string `mapstructure:"model"`
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	BatchSize      int    `mapstructure:"batch_size"`
	Concurrency    int    `mapstructure:"concurrency"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	CacheSize      int    `mapstructure:"cache_size"`
}

// StoreConfig locates the vector database.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// SearchConfig bounds result counts.
type SearchConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
	MaxLimit     int `mapstructure:"max_limit"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Walker: WalkerConfig{
			IgnoreDirs: []string{
				".git", ".hg", ".svn", "node_modules", "vendor", "dist",
				"build", "target", "__pycache__", ".venv", "venv",
				".idea", ".vscode",
			},
			Extensions: []string{
				".go", ".py", ".js", ".jsx", ".ts", ".tsx", ".java", ".cs",
				".c", ".h", ".cpp", ".hpp", ".cc", ".rs", ".rb", ".php",
				".kt", ".swift", ".scala", ".sh", ".sql", ".md",
			},
			MaxFileBytes: 1 << 20, // 1 MiB
		},
		Chunker: ChunkerConfig{
			WindowLines:   80,
			OverlapLines:  10,
			MaxChunkBytes: 4096,
		},
		Embedder: EmbedderConfig{
			Provider:       "local",
			BatchSize:      50,
			Concurrency:    4,
			TimeoutSeconds: 30,
			CacheSize:      10000,
		},
		Store: StoreConfig{
			Path: defaultStorePath(),
		},
		Search: SearchConfig{
			DefaultLimit: 10,
			MaxLimit:     100,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".codescout", "index.db")
	}
	return filepath.Join(home, ".codescout", "index.db")
}

// Load loads configuration from file and environment.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".codescout"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("codescout")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("CODESCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("embedder.provider", "CODESCOUT_EMBEDDER_PROVIDER")
	v.BindEnv("embedder.model", "CODESCOUT_EMBEDDER_MODEL")
	v.BindEnv("embedder.api_key", "CODESCOUT_EMBEDDER_API_KEY", "OPENAI_API_KEY")
	v.BindEnv("embedder.base_url", "CODESCOUT_EMBEDDER_BASE_URL", "OPENAI_BASE_URL")
	v.BindEnv("store.path", "CODESCOUT_STORE_PATH")
	v.BindEnv("log.level", "CODESCOUT_LOG_LEVEL")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// An explicit path that does not exist is a hard error; the
			// default search locations finding nothing is not.
			if configPath != "" || !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}
