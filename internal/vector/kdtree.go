package vector

import (
	"context"
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// KDTreeBackend builds a gonum k-d tree. Exact Euclidean search; efficient
// for low to moderate dimensionality.
type KDTreeBackend struct{}

// Type returns the index type identifier.
func (KDTreeBackend) Type() IndexType { return IndexTypeKDTree }

// Build copies the matrix into float64 points and partitions them by median.
func (KDTreeBackend) Build(ctx context.Context, space *SearchSpace) (Handle, error) {
	if err := requireVectors(space); err != nil {
		return nil, err
	}
	pts := make(kdPoints, space.Size())
	for i, v := range space.Vectors() {
		c := make([]float64, len(v))
		for j, x := range v {
			c[j] = float64(x)
		}
		pts[i] = kdPoint{index: i, coords: c}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &kdHandle{
		tree: kdtree.New(pts, false),
		n:    len(pts),
		dims: space.Dimensions(),
	}, nil
}

// kdPoint is a vector tagged with its position in the search space.
type kdPoint struct {
	index  int
	coords []float64
}

func (p kdPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return p.coords[d] - c.(kdPoint).coords[d]
}

func (p kdPoint) Dims() int { return len(p.coords) }

// Distance is squared Euclidean, as the tree's pruning expects.
func (p kdPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(kdPoint)
	var sum float64
	for i, x := range p.coords {
		d := x - q.coords[i]
		sum += d * d
	}
	return sum
}

type kdPoints []kdPoint

func (p kdPoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p kdPoints) Len() int                              { return len(p) }
func (p kdPoints) Pivot(d kdtree.Dim) int                { return kdPlane{Dim: d, kdPoints: p}.Pivot() }
func (p kdPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// kdPlane sorts points along one dimension.
type kdPlane struct {
	kdtree.Dim
	kdPoints
}

func (p kdPlane) Less(i, j int) bool {
	return p.kdPoints[i].coords[p.Dim] < p.kdPoints[j].coords[p.Dim]
}
func (p kdPlane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p kdPlane) Slice(start, end int) kdtree.SortSlicer {
	p.kdPoints = p.kdPoints[start:end]
	return p
}
func (p kdPlane) Swap(i, j int) {
	p.kdPoints[i], p.kdPoints[j] = p.kdPoints[j], p.kdPoints[i]
}

type kdHandle struct {
	tree *kdtree.Tree
	n    int
	dims int
}

func (h *kdHandle) Search(query []float32, k int) ([]Neighbor, error) {
	k, err := checkQuery(query, h.dims, h.n, k)
	if err != nil {
		return nil, err
	}
	q := kdPoint{index: -1, coords: make([]float64, len(query))}
	for i, x := range query {
		q.coords[i] = float64(x)
	}
	keep := kdtree.NewNKeeper(k)
	h.tree.NearestSet(keep, q)

	out := make([]Neighbor, 0, k)
	for _, cd := range keep.Heap {
		if cd.Comparable == nil {
			continue
		}
		out = append(out, Neighbor{Index: cd.Comparable.(kdPoint).index, Distance: math.Sqrt(cd.Dist)})
	}
	sortNeighbors(out)
	return out, nil
}

func (h *kdHandle) Len() int        { return h.n }
func (h *kdHandle) Dimensions() int { return h.dims }
func (h *kdHandle) Close() error    { return nil }
