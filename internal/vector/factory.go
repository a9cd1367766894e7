package vector

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// IndexType names a backend.
type IndexType string

const (
	// IndexTypeLinear scans every vector. Exact; the reference for the others.
	IndexTypeLinear IndexType = "linear"
	// IndexTypeKDTree is an exact k-d tree.
	IndexTypeKDTree IndexType = "kdtree"
	// IndexTypeBallTree is an exact ball tree.
	IndexTypeBallTree IndexType = "balltree"
	// IndexTypeCluster descends a Ward merge tree centroid-first. Approximate.
	IndexTypeCluster IndexType = "cluster"
	// IndexTypeGraph is an HNSW graph under cosine distance. Approximate.
	IndexTypeGraph IndexType = "graph"
	// IndexTypeFlat is an exact L2 flat scan, or an inverted file when FlatLists > 0.
	IndexTypeFlat IndexType = "flat"
	// IndexTypeFAISS is a FAISS IndexFlatL2. Requires -tags=faiss and the FAISS C library.
	IndexTypeFAISS IndexType = "faiss"
)

// DefaultIndexType is used when no type is configured.
const DefaultIndexType = IndexTypeCluster

// Types lists every index type in a stable order.
func Types() []IndexType {
	return []IndexType{
		IndexTypeLinear, IndexTypeKDTree, IndexTypeBallTree, IndexTypeCluster,
		IndexTypeGraph, IndexTypeFlat, IndexTypeFAISS,
	}
}

// Options tunes backend construction. Zero values select defaults.
type Options struct {
	// Seed drives every randomized build step (graph levels, k-means init).
	Seed uint64
	// LeafSize is the maximum number of points in a ball tree leaf.
	LeafSize int
	// GraphM is the HNSW connection count per node and layer (2*M on layer 0).
	GraphM int
	// GraphEfConstruction is the HNSW candidate list size while building.
	GraphEfConstruction int
	// GraphEfSearch is the HNSW candidate list size while searching.
	GraphEfSearch int
	// FlatLists is the number of inverted lists; 0 keeps the flat index exact.
	FlatLists int
	// FlatProbes is how many lists a flat IVF search scans at minimum.
	FlatProbes int
	// KMeansIterations bounds the coarse quantizer training.
	KMeansIterations int

	Logger *zap.Logger
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Seed:                42,
		LeafSize:            40,
		GraphM:              16,
		GraphEfConstruction: 200,
		GraphEfSearch:       50,
		FlatProbes:          8,
		KMeansIterations:    25,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.LeafSize <= 0 {
		o.LeafSize = d.LeafSize
	}
	if o.GraphM < 2 {
		o.GraphM = d.GraphM
	}
	if o.GraphEfConstruction <= 0 {
		o.GraphEfConstruction = d.GraphEfConstruction
	}
	if o.GraphEfSearch <= 0 {
		o.GraphEfSearch = d.GraphEfSearch
	}
	if o.FlatLists < 0 {
		o.FlatLists = 0
	}
	if o.FlatProbes <= 0 {
		o.FlatProbes = d.FlatProbes
	}
	if o.KMeansIterations <= 0 {
		o.KMeansIterations = d.KMeansIterations
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// ParseIndexType resolves a configured name, mapping "" to DefaultIndexType.
func ParseIndexType(name string) (IndexType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return DefaultIndexType, nil
	}
	for _, t := range Types() {
		if string(t) == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown index type %q (supported: %s)", ErrInvalidArgument, name, supported())
}

func supported() string {
	names := make([]string, 0, len(Types()))
	for _, t := range Types() {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}

// NewBackend creates a backend of the named type.
// FAISS requires building with -tags=faiss and having the FAISS library installed.
func NewBackend(indexType string, opts Options) (Backend, error) {
	t, err := ParseIndexType(indexType)
	if err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	switch t {
	case IndexTypeLinear:
		return LinearBackend{}, nil
	case IndexTypeKDTree:
		return KDTreeBackend{}, nil
	case IndexTypeBallTree:
		return BallTreeBackend{LeafSize: opts.LeafSize}, nil
	case IndexTypeCluster:
		return ClusterBackend{Logger: opts.Logger}, nil
	case IndexTypeGraph:
		return GraphBackend{
			M:              opts.GraphM,
			EfConstruction: opts.GraphEfConstruction,
			EfSearch:       opts.GraphEfSearch,
			Seed:           opts.Seed,
		}, nil
	case IndexTypeFlat:
		return FlatBackend{
			Lists:      opts.FlatLists,
			Probes:     opts.FlatProbes,
			Iterations: opts.KMeansIterations,
			Seed:       opts.Seed,
		}, nil
	case IndexTypeFAISS:
		if !IsFAISSAvailable() {
			return nil, errFAISSUnavailable
		}
		return FAISSBackend{}, nil
	}
	return nil, fmt.Errorf("%w: unknown index type %q", ErrInvalidArgument, indexType)
}

// IsFAISSAvailable reports whether FAISS support is compiled in.
// This is determined by the build tag -tags=faiss.
func IsFAISSAvailable() bool {
	return faissAvailable
}
