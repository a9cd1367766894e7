package vector

import (
	"context"

	"github.com/hyperjump/podsearch/internal/distance"
)

// LinearBackend scans every vector on each query. Exact Euclidean; used as
// the reference the other backends are measured against.
type LinearBackend struct{}

// Type returns the index type identifier.
func (LinearBackend) Type() IndexType { return IndexTypeLinear }

// Build wraps the space's matrix; there is nothing to precompute.
func (LinearBackend) Build(ctx context.Context, space *SearchSpace) (Handle, error) {
	if err := requireVectors(space); err != nil {
		return nil, err
	}
	return &linearHandle{vectors: space.Vectors(), dims: space.Dimensions()}, nil
}

type linearHandle struct {
	vectors [][]float32
	dims    int
}

func (h *linearHandle) Search(query []float32, k int) ([]Neighbor, error) {
	k, err := checkQuery(query, h.dims, len(h.vectors), k)
	if err != nil {
		return nil, err
	}
	scores := make([]Neighbor, len(h.vectors))
	for i, v := range h.vectors {
		scores[i] = Neighbor{Index: i, Distance: distance.Euclidean(query, v)}
	}
	sortNeighbors(scores)
	return scores[:k:k], nil
}

func (h *linearHandle) Len() int        { return len(h.vectors) }
func (h *linearHandle) Dimensions() int { return h.dims }
func (h *linearHandle) Close() error    { return nil }
