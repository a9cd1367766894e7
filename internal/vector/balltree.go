package vector

import (
	"container/heap"
	"context"
	"math"
	"sort"

	"github.com/hyperjump/podsearch/internal/distance"
)

// BallTreeBackend builds a ball tree: each node bounds its points with a
// hypersphere around their mean. Exact Euclidean search.
type BallTreeBackend struct {
	// LeafSize is the maximum number of points kept in one leaf.
	LeafSize int
}

// Type returns the index type identifier.
func (BallTreeBackend) Type() IndexType { return IndexTypeBallTree }

type ballNode struct {
	center      []float64
	radius      float64
	start, end  int // range into perm
	left, right *ballNode
}

// Build splits recursively along the dimension of widest spread at its median.
func (b BallTreeBackend) Build(ctx context.Context, space *SearchSpace) (Handle, error) {
	if err := requireVectors(space); err != nil {
		return nil, err
	}
	leaf := b.LeafSize
	if leaf <= 0 {
		leaf = DefaultOptions().LeafSize
	}
	h := &ballHandle{
		vectors: space.Vectors(),
		dims:    space.Dimensions(),
		perm:    make([]int, space.Size()),
	}
	for i := range h.perm {
		h.perm[i] = i
	}
	var err error
	h.root, err = h.build(ctx, 0, len(h.perm), leaf)
	if err != nil {
		return nil, err
	}
	return h, nil
}

type ballHandle struct {
	vectors [][]float32
	dims    int
	perm    []int
	root    *ballNode
}

func (h *ballHandle) build(ctx context.Context, start, end, leaf int) (*ballNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := &ballNode{start: start, end: end, center: make([]float64, h.dims)}
	for _, id := range h.perm[start:end] {
		for j, x := range h.vectors[id] {
			n.center[j] += float64(x)
		}
	}
	count := float64(end - start)
	for j := range n.center {
		n.center[j] /= count
	}
	for _, id := range h.perm[start:end] {
		n.radius = math.Max(n.radius, distance.SquaredEuclidean64(h.vectors[id], n.center))
	}
	n.radius = math.Sqrt(n.radius)
	if end-start <= leaf || n.radius == 0 {
		return n, nil
	}

	split := h.widestDim(start, end)
	seg := h.perm[start:end]
	sort.Slice(seg, func(a, b int) bool {
		va, vb := h.vectors[seg[a]][split], h.vectors[seg[b]][split]
		if va != vb {
			return va < vb
		}
		return seg[a] < seg[b]
	})
	mid := start + (end-start)/2

	var err error
	if n.left, err = h.build(ctx, start, mid, leaf); err != nil {
		return nil, err
	}
	if n.right, err = h.build(ctx, mid, end, leaf); err != nil {
		return nil, err
	}
	return n, nil
}

func (h *ballHandle) widestDim(start, end int) int {
	best, bestSpread := 0, -1.0
	for d := 0; d < h.dims; d++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, id := range h.perm[start:end] {
			x := float64(h.vectors[id][d])
			lo, hi = math.Min(lo, x), math.Max(hi, x)
		}
		if hi-lo > bestSpread {
			best, bestSpread = d, hi-lo
		}
	}
	return best
}

// neighborHeap is a max-heap on (distance, index) holding the best k so far.
type neighborHeap []Neighbor

func (nh neighborHeap) Len() int { return len(nh) }
func (nh neighborHeap) Less(i, j int) bool {
	if nh[i].Distance != nh[j].Distance {
		return nh[i].Distance > nh[j].Distance
	}
	return nh[i].Index > nh[j].Index
}
func (nh neighborHeap) Swap(i, j int) { nh[i], nh[j] = nh[j], nh[i] }
func (nh *neighborHeap) Push(x any)   { *nh = append(*nh, x.(Neighbor)) }
func (nh *neighborHeap) Pop() any {
	old := *nh
	x := old[len(old)-1]
	*nh = old[:len(old)-1]
	return x
}

// offer keeps n if it beats the current worst of a full heap of size k.
func (nh *neighborHeap) offer(n Neighbor, k int) {
	if nh.Len() < k {
		heap.Push(nh, n)
		return
	}
	worst := (*nh)[0]
	if n.Distance < worst.Distance || (n.Distance == worst.Distance && n.Index < worst.Index) {
		(*nh)[0] = n
		heap.Fix(nh, 0)
	}
}

func (h *ballHandle) Search(query []float32, k int) ([]Neighbor, error) {
	k, err := checkQuery(query, h.dims, len(h.vectors), k)
	if err != nil {
		return nil, err
	}
	best := make(neighborHeap, 0, k)

	type frame struct {
		node  *ballNode
		bound float64
	}
	lowerBound := func(n *ballNode) float64 {
		return math.Max(0, math.Sqrt(distance.SquaredEuclidean64(query, n.center))-n.radius)
	}
	stack := []frame{{h.root, lowerBound(h.root)}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		// Slack absorbs rounding in the bound so exact ties are never pruned.
		if best.Len() == k && f.bound > best[0].Distance*(1+1e-9)+1e-12 {
			continue
		}
		n := f.node
		if n.left == nil {
			for _, id := range h.perm[n.start:n.end] {
				best.offer(Neighbor{Index: id, Distance: distance.Euclidean(query, h.vectors[id])}, k)
			}
			continue
		}
		lb, rb := lowerBound(n.left), lowerBound(n.right)
		if lb <= rb {
			stack = append(stack, frame{n.right, rb}, frame{n.left, lb})
		} else {
			stack = append(stack, frame{n.left, lb}, frame{n.right, rb})
		}
	}

	out := []Neighbor(best)
	sortNeighbors(out)
	return out, nil
}

func (h *ballHandle) Len() int        { return len(h.vectors) }
func (h *ballHandle) Dimensions() int { return h.dims }
func (h *ballHandle) Close() error    { return nil }
