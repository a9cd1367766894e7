// Package config provides configuration loading and structs for podsearch.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/podsearch/internal/vector"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Data      DataConfig      `yaml:"data"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	Search    SearchConfig    `yaml:"search"`
	Bench     BenchConfig     `yaml:"bench"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the vector matrix and the utterance catalog.
type StorageConfig struct {
	VectorPath   string `yaml:"vector_path"`
	DatabasePath string `yaml:"database_path"`
}

// DataConfig points at the podcast corpus.
type DataConfig struct {
	TranscriptsDir string `yaml:"transcripts_dir"`
	MetadataPath   string `yaml:"metadata_path"`
	QueriesPath    string `yaml:"queries_path"`
	// Limit caps the number of transcript files read; -1 reads all.
	Limit int `yaml:"limit"`
}

// EmbeddingConfig holds embedder settings.
type EmbeddingConfig struct {
	// Provider is "onnx" or "mock".
	Provider   string `yaml:"provider"`
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
	BatchSize  int    `yaml:"batch_size"`
}

// IndexConfig selects and tunes the search backend.
type IndexConfig struct {
	Type                string `yaml:"type"`
	Seed                uint64 `yaml:"seed"`
	LeafSize            int    `yaml:"leaf_size"`
	GraphM              int    `yaml:"graph_m"`
	GraphEfConstruction int    `yaml:"graph_ef_construction"`
	GraphEfSearch       int    `yaml:"graph_ef_search"`
	FlatLists           int    `yaml:"flat_lists"`
	FlatProbes          int    `yaml:"flat_probes"`
	KMeansIterations    int    `yaml:"kmeans_iterations"`
}

// Options converts the section into backend options.
func (c IndexConfig) Options() vector.Options {
	return vector.Options{
		Seed:                c.Seed,
		LeafSize:            c.LeafSize,
		GraphM:              c.GraphM,
		GraphEfConstruction: c.GraphEfConstruction,
		GraphEfSearch:       c.GraphEfSearch,
		FlatLists:           c.FlatLists,
		FlatProbes:          c.FlatProbes,
		KMeansIterations:    c.KMeansIterations,
	}
}

// SearchConfig holds query settings.
type SearchConfig struct {
	DefaultK int `yaml:"default_k"`
	MaxK     int `yaml:"max_k"`
	// QueryLimit caps how many topics the CLI runs from the queries file.
	QueryLimit int `yaml:"query_limit"`
}

// BenchConfig holds benchmark settings.
type BenchConfig struct {
	Backends    []string `yaml:"backends"`
	Parallelism int      `yaml:"parallelism"`
	Recall      bool     `yaml:"recall"`
}

// WatchConfig controls reloading the vector file when it changes on disk.
type WatchConfig struct {
	Enabled    bool `yaml:"enabled"`
	DebounceMS int  `yaml:"debounce_ms"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	cfg.Storage.VectorPath = expandPath(cfg.Storage.VectorPath, configDir)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	cfg.Data.TranscriptsDir = expandPath(cfg.Data.TranscriptsDir, configDir)
	cfg.Data.MetadataPath = expandPath(cfg.Data.MetadataPath, configDir)
	cfg.Data.QueriesPath = expandPath(cfg.Data.QueriesPath, configDir)

	return &cfg, nil
}

// Validate rejects settings that defaults cannot repair.
func Validate(cfg *Config) error {
	if _, err := vector.ParseIndexType(cfg.Index.Type); err != nil {
		return fmt.Errorf("invalid index.type: %w", err)
	}
	for _, b := range cfg.Bench.Backends {
		if _, err := vector.ParseIndexType(b); err != nil {
			return fmt.Errorf("invalid bench.backends: %w", err)
		}
	}
	switch cfg.Embedding.Provider {
	case ProviderONNX, ProviderMock:
	default:
		return fmt.Errorf("invalid embedding.provider %q (supported: %s, %s)", cfg.Embedding.Provider, ProviderONNX, ProviderMock)
	}
	if cfg.Search.DefaultK > cfg.Search.MaxK {
		return fmt.Errorf("search.default_k %d exceeds search.max_k %d", cfg.Search.DefaultK, cfg.Search.MaxK)
	}
	return nil
}

// Summary returns the settings reported by status.
func (c *Config) Summary() map[string]any {
	return map[string]any{
		"index_type":           c.Index.Type,
		"vector_path":          c.Storage.VectorPath,
		"database_path":        c.Storage.DatabasePath,
		"embedding_provider":   c.Embedding.Provider,
		"embedding_dimensions": c.Embedding.Dimensions,
		"default_k":            c.Search.DefaultK,
		"max_k":                c.Search.MaxK,
		"watch_enabled":        c.Watch.Enabled,
	}
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. Empty paths stay empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
