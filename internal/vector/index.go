// Package vector holds the search space and the nearest-neighbor backends
// that are built over it.
package vector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Neighbor is one ranked result: an item position in the search space and its
// distance to the query under the backend's metric.
type Neighbor struct {
	Index    int     `json:"index"`
	Distance float64 `json:"distance"`
}

// Handle is an immutable, built index. It is safe for concurrent searches.
// Search returns at most min(k, Len()) neighbors in ascending distance, ties
// broken by index.
type Handle interface {
	Search(query []float32, k int) ([]Neighbor, error)
	Len() int
	Dimensions() int
	Close() error
}

// Backend builds handles of one index type.
type Backend interface {
	Type() IndexType
	Build(ctx context.Context, space *SearchSpace) (Handle, error)
}

// built is the unit swapped into an Index.
type built struct {
	handle    Handle
	space     *SearchSpace
	builtAt   time.Time
	buildTime time.Duration
}

// Index serves searches from the most recently built handle of its backend.
// Rebuilding swaps in a fresh handle; searches already holding the previous
// handle finish against it unaffected.
type Index struct {
	backend Backend
	current atomic.Pointer[built]
	logger  *zap.Logger
}

// IndexOption configures an Index.
type IndexOption func(*Index)

// WithLogger sets the logger used for build events.
func WithLogger(l *zap.Logger) IndexOption {
	return func(x *Index) {
		if l != nil {
			x.logger = l
		}
	}
}

// NewIndex returns an unbuilt index over backend.
func NewIndex(backend Backend, opts ...IndexOption) *Index {
	x := &Index{backend: backend, logger: zap.NewNop()}
	for _, o := range opts {
		o(x)
	}
	return x
}

// Type returns the backend's index type.
func (x *Index) Type() IndexType { return x.backend.Type() }

// Build builds a new handle over space and makes it current. On failure the
// previous handle, if any, stays current.
func (x *Index) Build(ctx context.Context, space *SearchSpace) error {
	start := time.Now()
	h, err := x.backend.Build(ctx, space)
	if err != nil {
		return fmt.Errorf("build %s index: %w", x.backend.Type(), err)
	}
	b := &built{handle: h, space: space, builtAt: time.Now(), buildTime: time.Since(start)}
	x.current.Store(b)
	x.logger.Info("Index built",
		zap.String("type", string(x.backend.Type())),
		zap.Int("vectors", h.Len()),
		zap.Int("dimensions", h.Dimensions()),
		zap.Duration("duration", b.buildTime))
	return nil
}

// Search queries the current handle.
func (x *Index) Search(ctx context.Context, query []float32, k int) ([]Neighbor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b := x.current.Load()
	if b == nil {
		return nil, ErrNotBuilt
	}
	return b.handle.Search(query, k)
}

// Handle returns the current handle, nil before the first build.
func (x *Index) Handle() Handle {
	if b := x.current.Load(); b != nil {
		return b.handle
	}
	return nil
}

// Space returns the search space of the current handle, nil before the first build.
func (x *Index) Space() *SearchSpace {
	if b := x.current.Load(); b != nil {
		return b.space
	}
	return nil
}

// Stats describes the current handle.
type Stats struct {
	Type       IndexType     `json:"type"`
	Built      bool          `json:"built"`
	Vectors    int           `json:"vectors"`
	Dimensions int           `json:"dimensions"`
	BuiltAt    time.Time     `json:"built_at,omitempty"`
	BuildTime  time.Duration `json:"build_time_ns,omitempty"`
}

// Stats reports on the current handle.
func (x *Index) Stats() Stats {
	st := Stats{Type: x.backend.Type()}
	if b := x.current.Load(); b != nil {
		st.Built = true
		st.Vectors = b.handle.Len()
		st.Dimensions = b.handle.Dimensions()
		st.BuiltAt = b.builtAt
		st.BuildTime = b.buildTime
	}
	return st
}

// Close releases the current handle. Handles replaced by earlier builds are
// left to their holders.
func (x *Index) Close() error {
	if b := x.current.Swap(nil); b != nil {
		return b.handle.Close()
	}
	return nil
}

// checkQuery validates a search request against a handle of n vectors with
// dims dimensions and returns k clamped to n. Every query component must be
// finite.
func checkQuery(query []float32, dims, n, k int) (int, error) {
	if k <= 0 {
		return 0, fmt.Errorf("%w: k must be positive, got %d", ErrInvalidArgument, k)
	}
	if len(query) != dims {
		return 0, fmt.Errorf("%w: query has %d dimensions, index has %d", ErrInvalidArgument, len(query), dims)
	}
	for i, x := range query {
		if f := float64(x); math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("%w: query component %d is %v", ErrInvalidArgument, i, x)
		}
	}
	return min(k, n), nil
}

// sortNeighbors orders by ascending distance, then ascending index.
func sortNeighbors(ns []Neighbor) {
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].Distance != ns[j].Distance {
			return ns[i].Distance < ns[j].Distance
		}
		return ns[i].Index < ns[j].Index
	})
}

// requireVectors fails with ErrEmptyIndex for an empty or nil space.
func requireVectors(space *SearchSpace) error {
	if space == nil || space.Size() == 0 {
		return ErrEmptyIndex
	}
	return nil
}
