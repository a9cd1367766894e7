package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/podsearch/internal/vector"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
index:
  type: kdtree
  seed: 7
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
	if cfg.Index.Type != "kdtree" || cfg.Index.Seed != 7 {
		t.Errorf("unexpected index config: %+v", cfg.Index)
	}
}

func TestLoad_debugTrue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
embedding:
  provider: mock
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
	if cfg.Embedding.Provider != ProviderMock {
		t.Errorf("provider = %s", cfg.Embedding.Provider)
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  vector_path: "./data/vectors/utterances.npy"
  database_path: "./data/db/utterances.db"
data:
  transcripts_dir: "./corpus"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantDB := filepath.Join(dir, "data", "db", "utterances.db")
	if cfg.Storage.DatabasePath != wantDB {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, wantDB)
	}
	wantVec := filepath.Join(dir, "data", "vectors", "utterances.npy")
	if cfg.Storage.VectorPath != wantVec {
		t.Errorf("vector_path = %s, want %s", cfg.Storage.VectorPath, wantVec)
	}
	if want := filepath.Join(dir, "corpus"); cfg.Data.TranscriptsDir != want {
		t.Errorf("transcripts_dir = %s, want %s", cfg.Data.TranscriptsDir, want)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown index", "index:\n  type: lsh\n", "index.type"},
		{"unknown bench backend", "bench:\n  backends: [linear, annoy]\n", "bench.backends"},
		{"unknown provider", "embedding:\n  provider: openai\n", "embedding.provider"},
		{"default above max", "search:\n  default_k: 50\n  max_k: 10\n", "default_k"},
		{"bad yaml", "server: [", "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Search.DefaultK != 5 {
		t.Errorf("default k: got %d", cfg.Search.DefaultK)
	}
	if cfg.Data.Limit != 100 {
		t.Errorf("default data limit: got %d", cfg.Data.Limit)
	}
	if cfg.Index.Type != string(vector.DefaultIndexType) {
		t.Errorf("default index type: got %s", cfg.Index.Type)
	}
	if cfg.Embedding.Provider != ProviderONNX || cfg.Embedding.Dimensions != 384 {
		t.Errorf("embedding defaults: %+v", cfg.Embedding)
	}
	if len(cfg.Bench.Backends) != 6 || cfg.Bench.Parallelism != 1 {
		t.Errorf("bench defaults: %+v", cfg.Bench)
	}
	if cfg.Watch.Enabled {
		t.Error("watch should be disabled by default")
	}
	if cfg.Watch.DebounceMS != 500 {
		t.Errorf("debounce: got %d", cfg.Watch.DebounceMS)
	}
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := &Config{
		Data:  DataConfig{Limit: -1},
		Index: IndexConfig{Type: "graph", GraphM: 32},
		Bench: BenchConfig{Backends: []string{"linear"}},
	}
	ApplyDefaults(cfg)
	if cfg.Data.Limit != -1 {
		t.Errorf("limit -1 should mean all, got %d", cfg.Data.Limit)
	}
	if cfg.Index.Type != "graph" || cfg.Index.GraphM != 32 {
		t.Errorf("index overridden: %+v", cfg.Index)
	}
	if len(cfg.Bench.Backends) != 1 {
		t.Errorf("bench backends overridden: %v", cfg.Bench.Backends)
	}
}

func TestIndexConfig_Options(t *testing.T) {
	c := IndexConfig{Seed: 3, LeafSize: 10, GraphM: 8, FlatLists: 16, FlatProbes: 2}
	o := c.Options()
	if o.Seed != 3 || o.LeafSize != 10 || o.GraphM != 8 || o.FlatLists != 16 || o.FlatProbes != 2 {
		t.Errorf("Options() = %+v", o)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{DatabasePath: "/tmp/db"},
	}
	ApplyDefaults(cfg)
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if loaded.Storage.DatabasePath != "/tmp/db" {
		t.Errorf("loaded database_path: got %s", loaded.Storage.DatabasePath)
	}
}

func TestSummary(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	s := cfg.Summary()
	if s["index_type"] != cfg.Index.Type || s["max_k"] != 100 || s["watch_enabled"] != false {
		t.Errorf("Summary() = %v", s)
	}
}
