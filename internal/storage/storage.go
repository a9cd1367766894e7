// Package storage persists the payloads that search results resolve to:
// episodes and utterances keyed by their search space position.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/podsearch/internal/models"
)

// ErrNotFound is returned when a requested episode or utterance does not exist.
var ErrNotFound = errors.New("not found")

// Storage defines episode and utterance persistence operations.
type Storage interface {
	// Episode operations
	UpsertEpisodes(ctx context.Context, episodes []*models.Episode) error
	GetEpisode(ctx context.Context, uri string) (*models.Episode, error)

	// Utterance operations. The catalog is replaced wholesale whenever the
	// vector file is recreated, so positions always match the matrix rows.
	ReplaceUtterances(ctx context.Context, utterances []*models.Utterance) error
	GetUtterance(ctx context.Context, index int) (*models.Utterance, error)
	GetUtterances(ctx context.Context, indices []int) (map[int]*models.Utterance, error)
	ListUtterances(ctx context.Context, offset, limit int) ([]*models.Utterance, error)

	// Stats
	CountEpisodes(ctx context.Context) (int64, error)
	CountUtterances(ctx context.Context) (int64, error)

	Close() error
}
