package config

import "github.com/hyperjump/podsearch/internal/vector"

// Embedding providers.
const (
	ProviderONNX = "onnx"
	ProviderMock = "mock"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.VectorPath == "" {
		cfg.Storage.VectorPath = "/usr/local/var/podsearch/data/vectors/utterances.npy"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/podsearch/data/db/utterances.db"
	}
	if cfg.Data.TranscriptsDir == "" {
		cfg.Data.TranscriptsDir = "/usr/local/var/podsearch/data/podcasts-transcripts"
	}
	if cfg.Data.MetadataPath == "" {
		cfg.Data.MetadataPath = "/usr/local/var/podsearch/data/metadata.tsv"
	}
	if cfg.Data.QueriesPath == "" {
		cfg.Data.QueriesPath = "/usr/local/var/podsearch/data/queries.xml"
	}
	if cfg.Data.Limit == 0 {
		cfg.Data.Limit = 100
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = ProviderONNX
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/podsearch/data/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 64
	}

	d := vector.DefaultOptions()
	if cfg.Index.Type == "" {
		cfg.Index.Type = string(vector.DefaultIndexType)
	}
	if cfg.Index.Seed == 0 {
		cfg.Index.Seed = d.Seed
	}
	if cfg.Index.LeafSize == 0 {
		cfg.Index.LeafSize = d.LeafSize
	}
	if cfg.Index.GraphM == 0 {
		cfg.Index.GraphM = d.GraphM
	}
	if cfg.Index.GraphEfConstruction == 0 {
		cfg.Index.GraphEfConstruction = d.GraphEfConstruction
	}
	if cfg.Index.GraphEfSearch == 0 {
		cfg.Index.GraphEfSearch = d.GraphEfSearch
	}
	if cfg.Index.FlatProbes == 0 {
		cfg.Index.FlatProbes = d.FlatProbes
	}
	if cfg.Index.KMeansIterations == 0 {
		cfg.Index.KMeansIterations = d.KMeansIterations
	}

	if cfg.Search.DefaultK == 0 {
		cfg.Search.DefaultK = 5
	}
	if cfg.Search.MaxK == 0 {
		cfg.Search.MaxK = 100
	}
	if cfg.Search.QueryLimit == 0 {
		cfg.Search.QueryLimit = 10
	}

	if cfg.Bench.Backends == nil {
		cfg.Bench.Backends = []string{
			string(vector.IndexTypeLinear),
			string(vector.IndexTypeKDTree),
			string(vector.IndexTypeBallTree),
			string(vector.IndexTypeCluster),
			string(vector.IndexTypeGraph),
			string(vector.IndexTypeFlat),
		}
	}
	if cfg.Bench.Parallelism == 0 {
		cfg.Bench.Parallelism = 1
	}

	if cfg.Watch.DebounceMS == 0 {
		cfg.Watch.DebounceMS = 500
	}
}
