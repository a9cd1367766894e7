// Package indexer vectorizes the podcast corpus into a search space and
// keeps the utterance catalog aligned with it.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/podsearch/internal/embedding"
	"github.com/hyperjump/podsearch/internal/models"
	"github.com/hyperjump/podsearch/internal/storage"
	"github.com/hyperjump/podsearch/internal/transcript"
	"github.com/hyperjump/podsearch/internal/vector"
)

const defaultBatchSize = 64

// Indexer embeds utterances and queries and persists the result.
type Indexer struct {
	storage   storage.Storage
	embedder  embedding.Embedder
	batchSize int
	workers   int
	logger    *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for progress output.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// WithBatchSize sets how many texts go to the embedder per call.
func WithBatchSize(n int) IndexerOption {
	return func(idx *Indexer) {
		if n > 0 {
			idx.batchSize = n
		}
	}
}

// WithWorkers sets how many batches are embedded concurrently.
func WithWorkers(n int) IndexerOption {
	return func(idx *Indexer) {
		if n > 0 {
			idx.workers = n
		}
	}
}

// NewIndexer creates an indexer. storage may be nil when only vectorizing.
func NewIndexer(storage storage.Storage, embedder embedding.Embedder, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		storage:   storage,
		embedder:  embedder,
		batchSize: defaultBatchSize,
		workers:   1,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// embedTexts preprocesses and embeds texts, preserving order.
func (idx *Indexer) embedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.workers)
	for start := 0; start < len(texts); start += idx.batchSize {
		end := min(start+idx.batchSize, len(texts))
		g.Go(func() error {
			batch := make([]string, end-start)
			for i, t := range texts[start:end] {
				batch[i] = Preprocess(t)
			}
			embs, err := idx.embedder.EmbedBatch(ctx, batch)
			if err != nil {
				return fmt.Errorf("embed batch %d-%d: %w", start, end, err)
			}
			if len(embs) != len(batch) {
				return fmt.Errorf("embed batch %d-%d: got %d embeddings", start, end, len(embs))
			}
			copy(out[start:end], embs)
			idx.logger.Debug("Embedded batch", zap.Int("start", start), zap.Int("end", end))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Vectorize sets the embedding of every utterance.
func (idx *Indexer) Vectorize(ctx context.Context, utterances []*models.Utterance) error {
	texts := make([]string, len(utterances))
	for i, u := range utterances {
		texts[i] = u.Text
	}
	embs, err := idx.embedTexts(ctx, texts)
	if err != nil {
		return err
	}
	for i, u := range utterances {
		u.Embedding = embs[i]
	}
	return nil
}

// VectorizeQueries sets the embedding of every query that lacks one.
func (idx *Indexer) VectorizeQueries(ctx context.Context, queries []*models.Query) error {
	var pending []*models.Query
	var texts []string
	for _, q := range queries {
		if len(q.Embedding) == 0 {
			pending = append(pending, q)
			texts = append(texts, q.Text)
		}
	}
	embs, err := idx.embedTexts(ctx, texts)
	if err != nil {
		return err
	}
	for i, q := range pending {
		q.Embedding = embs[i]
	}
	return nil
}

// CreateResult summarizes a Create run.
type CreateResult struct {
	Space      *vector.SearchSpace
	Utterances int
	Episodes   int
	Duration   time.Duration
}

// Create reads the corpus, embeds every utterance, replaces the catalog and
// writes the matrix to vectorPath so row i describes utterance i.
func (idx *Indexer) Create(ctx context.Context, reader *transcript.Reader, episodes []*models.Episode, vectorPath string) (*CreateResult, error) {
	start := time.Now()
	utterances, err := reader.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read transcripts: %w", err)
	}
	if len(utterances) == 0 {
		return nil, fmt.Errorf("%w: no utterances under %s", vector.ErrEmptyIndex, reader.Dir())
	}
	if err := idx.Vectorize(ctx, utterances); err != nil {
		return nil, fmt.Errorf("vectorize utterances: %w", err)
	}
	items := make([]vector.Item, len(utterances))
	for i, u := range utterances {
		items[i] = u
	}
	space, err := vector.Create(items)
	if err != nil {
		return nil, err
	}
	// The catalog is written before the matrix so a reload triggered by the
	// new file finds matching rows.
	if idx.storage != nil {
		if err := idx.storage.UpsertEpisodes(ctx, episodes); err != nil {
			return nil, fmt.Errorf("store episodes: %w", err)
		}
		if err := idx.storage.ReplaceUtterances(ctx, utterances); err != nil {
			return nil, fmt.Errorf("store utterances: %w", err)
		}
	}
	if err := space.Save(vectorPath); err != nil {
		return nil, err
	}
	res := &CreateResult{
		Space:      space,
		Utterances: len(utterances),
		Episodes:   len(episodes),
		Duration:   time.Since(start),
	}
	idx.logger.Info("Created search space",
		zap.String("path", vectorPath),
		zap.Int("utterances", res.Utterances),
		zap.Int("dimensions", space.Dimensions()),
		zap.Duration("duration", res.Duration))
	return res, nil
}

// Load reads the matrix at vectorPath. When the catalog holds utterances they
// are attached as items and must match the matrix row for row.
func (idx *Indexer) Load(ctx context.Context, vectorPath string) (*vector.SearchSpace, error) {
	var items []vector.Item
	if idx.storage != nil {
		n, err := idx.storage.CountUtterances(ctx)
		if err != nil {
			return nil, fmt.Errorf("count utterances: %w", err)
		}
		if n > 0 {
			utts, err := idx.storage.ListUtterances(ctx, 0, int(n))
			if err != nil {
				return nil, fmt.Errorf("list utterances: %w", err)
			}
			items = make([]vector.Item, len(utts))
			for i, u := range utts {
				if u.Index != i {
					return nil, fmt.Errorf("%w: catalog position %d holds utterance %d", vector.ErrInvalidState, i, u.Index)
				}
				items[i] = u
			}
		}
	}
	space, err := vector.Load(vectorPath, items)
	if err != nil {
		if errors.Is(err, vector.ErrNotFound) {
			return nil, fmt.Errorf("%w (run create first)", err)
		}
		return nil, err
	}
	for i, it := range items {
		it.(*models.Utterance).Embedding = space.Vector(i)
	}
	idx.logger.Info("Loaded search space",
		zap.String("path", vectorPath),
		zap.Int("vectors", space.Size()),
		zap.Int("dimensions", space.Dimensions()))
	return space, nil
}
