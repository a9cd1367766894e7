package vector

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/podsearch/internal/cluster"
)

// ClusterBackend builds a Ward merge tree and answers queries by best-first
// centroid descent followed by an exact re-rank. Approximate.
type ClusterBackend struct {
	Logger *zap.Logger
}

// Type returns the index type identifier.
func (ClusterBackend) Type() IndexType { return IndexTypeCluster }

// Build clusters the whole matrix. It is quadratic in the number of vectors.
func (b ClusterBackend) Build(ctx context.Context, space *SearchSpace) (Handle, error) {
	if err := requireVectors(space); err != nil {
		return nil, err
	}
	start := time.Now()
	tree, err := cluster.Build(ctx, space.Vectors())
	if err != nil {
		if errors.Is(err, cluster.ErrEmpty) {
			return nil, ErrEmptyIndex
		}
		return nil, err
	}
	if b.Logger != nil {
		b.Logger.Debug("Cluster tree built",
			zap.Int("leaves", tree.Len()),
			zap.Int("depth", tree.Depth()),
			zap.Duration("duration", time.Since(start)))
	}
	return &ClusterHandle{tree: tree}, nil
}

// ClusterHandle is a built cluster tree index.
type ClusterHandle struct {
	tree *cluster.Tree
}

// Tree exposes the underlying merge tree.
func (h *ClusterHandle) Tree() *cluster.Tree { return h.tree }

// Search implements Handle.
func (h *ClusterHandle) Search(query []float32, k int) ([]Neighbor, error) {
	k, err := checkQuery(query, h.tree.Dimensions(), h.tree.Len(), k)
	if err != nil {
		return nil, err
	}
	hits := h.tree.Search(query, k)
	out := make([]Neighbor, len(hits))
	for i, hit := range hits {
		out[i] = Neighbor{Index: hit.Index, Distance: hit.Distance}
	}
	return out, nil
}

// Len implements Handle.
func (h *ClusterHandle) Len() int { return h.tree.Len() }

// Dimensions implements Handle.
func (h *ClusterHandle) Dimensions() int { return h.tree.Dimensions() }

// Close implements Handle.
func (h *ClusterHandle) Close() error { return nil }
