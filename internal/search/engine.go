// Package search answers utterance queries against the built index and
// resolves hits to their transcript payloads.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/podsearch/internal/config"
	"github.com/hyperjump/podsearch/internal/indexer"
	"github.com/hyperjump/podsearch/internal/models"
	"github.com/hyperjump/podsearch/internal/storage"
	"github.com/hyperjump/podsearch/internal/vector"
)

// Engine runs nearest-neighbor search over utterance embeddings.
type Engine struct {
	storage storage.Storage
	indexer *indexer.Indexer
	index   *vector.Index
	config  config.SearchConfig
	logger  *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates a search engine. storage may be nil, in which case
// results carry only positions and distances.
func NewEngine(
	storage storage.Storage,
	idx *indexer.Indexer,
	index *vector.Index,
	cfg config.SearchConfig,
	opts ...EngineOption,
) *Engine {
	e := &Engine{
		storage: storage,
		indexer: idx,
		index:   index,
		config:  cfg,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Index returns the underlying index.
func (e *Engine) Index() *vector.Index { return e.index }

// Search embeds the query if needed, retrieves its nearest utterances and
// attaches their payloads. QueryTime covers embedding, search and
// resolution.
func (e *Engine) Search(ctx context.Context, q *models.Query) (*models.SearchResponse, error) {
	start := time.Now()
	if err := ProcessQuery(q, e.config); err != nil {
		return nil, err
	}
	if len(q.Embedding) == 0 {
		if err := e.indexer.VectorizeQueries(ctx, []*models.Query{q}); err != nil {
			return nil, fmt.Errorf("embedding failed: %w", err)
		}
	}

	hits, err := e.index.Search(ctx, q.Embedding, q.K)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	results, err := e.resolve(ctx, hits)
	if err != nil {
		return nil, err
	}
	resp := &models.SearchResponse{
		Query:     q.Text,
		Index:     string(e.index.Type()),
		K:         q.K,
		Results:   results,
		Total:     len(results),
		QueryTime: time.Since(start).Microseconds(),
	}
	e.logger.Debug("Search",
		zap.String("query", q.Text),
		zap.Int("k", q.K),
		zap.Int("results", resp.Total),
		zap.Int64("query_time_us", resp.QueryTime))
	return resp, nil
}

// SearchAll runs queries in order. Queries are embedded together first.
func (e *Engine) SearchAll(ctx context.Context, queries []*models.Query) ([]*models.SearchResponse, error) {
	if err := e.indexer.VectorizeQueries(ctx, queries); err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	out := make([]*models.SearchResponse, len(queries))
	for i, q := range queries {
		resp, err := e.Search(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("query %d: %w", i+1, err)
		}
		out[i] = resp
	}
	return out, nil
}

// resolve looks up the utterance and episode behind each hit. Hits whose
// payload is missing from the catalog keep only position and distance.
func (e *Engine) resolve(ctx context.Context, hits []vector.Neighbor) ([]*models.SearchResult, error) {
	results := make([]*models.SearchResult, len(hits))
	for i, h := range hits {
		results[i] = &models.SearchResult{Rank: i + 1, Index: h.Index, Distance: h.Distance}
	}
	if e.storage == nil || len(hits) == 0 {
		return results, nil
	}

	indices := make([]int, len(hits))
	for i, h := range hits {
		indices[i] = h.Index
	}
	utts, err := e.storage.GetUtterances(ctx, indices)
	if err != nil {
		return nil, fmt.Errorf("resolve utterances: %w", err)
	}
	episodes := make(map[string]*models.Episode)
	for _, r := range results {
		u, ok := utts[r.Index]
		if !ok {
			continue
		}
		r.Utterance = u
		ep, seen := episodes[u.EpisodeURI]
		if !seen {
			ep, err = e.storage.GetEpisode(ctx, u.EpisodeURI)
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				return nil, fmt.Errorf("resolve episode: %w", err)
			}
			episodes[u.EpisodeURI] = ep
		}
		r.Episode = ep
	}
	return results, nil
}

// Rebuild builds the index over space and swaps it in. Searches in flight
// finish against the previous handle.
func (e *Engine) Rebuild(ctx context.Context, space *vector.SearchSpace) error {
	return e.index.Build(ctx, space)
}

// Reload reads the matrix at vectorPath and rebuilds the index over it. A
// failed reload keeps the current index.
func (e *Engine) Reload(ctx context.Context, vectorPath string) error {
	space, err := e.indexer.Load(ctx, vectorPath)
	if err != nil {
		return err
	}
	if err := e.Rebuild(ctx, space); err != nil {
		return err
	}
	e.logger.Info("Reloaded index", zap.String("path", vectorPath), zap.Int("vectors", space.Size()))
	return nil
}

// Status summarizes the engine for the status command and endpoint.
type Status struct {
	Index      vector.Stats  `json:"index"`
	Utterances int64         `json:"utterances"`
	Episodes   int64         `json:"episodes"`
	Disk       storage.Usage `json:"disk"`
}

// Status reports index and catalog sizes. Disk usage is measured for the
// given paths.
func (e *Engine) Status(ctx context.Context, vectorPath, databasePath string) (*Status, error) {
	st := &Status{Index: e.index.Stats()}
	if e.storage != nil {
		var err error
		if st.Utterances, err = e.storage.CountUtterances(ctx); err != nil {
			return nil, err
		}
		if st.Episodes, err = e.storage.CountEpisodes(ctx); err != nil {
			return nil, err
		}
	}
	usage, err := storage.DiskUsage(vectorPath, databasePath)
	if err != nil {
		return nil, err
	}
	st.Disk = usage
	return st, nil
}
