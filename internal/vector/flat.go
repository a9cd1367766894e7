package vector

import (
	"context"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/hyperjump/podsearch/internal/distance"
)

// FlatBackend indexes the raw matrix contiguously. With Lists == 0 every query
// is an exact L2 scan. With Lists > 0 the vectors are partitioned into
// inverted lists by a k-means coarse quantizer and a query scans only the
// lists nearest to it, which makes the search approximate.
type FlatBackend struct {
	Lists      int
	Probes     int
	Iterations int
	Seed       uint64
}

// Type returns the index type identifier.
func (FlatBackend) Type() IndexType { return IndexTypeFlat }

type flatHandle struct {
	data []float32 // row-major, n*dims
	n    int
	dims int

	// Inverted file; empty when exact.
	centroids [][]float32
	lists     [][]int
	probes    int
}

func (h *flatHandle) row(i int) []float32 {
	return h.data[i*h.dims : (i+1)*h.dims : (i+1)*h.dims]
}

// Build copies the matrix and, when configured, trains the coarse quantizer.
func (b FlatBackend) Build(ctx context.Context, space *SearchSpace) (Handle, error) {
	if err := requireVectors(space); err != nil {
		return nil, err
	}
	h := &flatHandle{
		n:    space.Size(),
		dims: space.Dimensions(),
	}
	h.data = make([]float32, h.n*h.dims)
	for i, v := range space.Vectors() {
		copy(h.data[i*h.dims:], v)
	}
	if b.Lists <= 0 {
		return h, nil
	}

	iters := b.Iterations
	if iters <= 0 {
		iters = DefaultOptions().KMeansIterations
	}
	lists := min(b.Lists, h.n)
	centroids, assign, err := kmeans(ctx, h, lists, iters, b.Seed)
	if err != nil {
		return nil, err
	}
	h.centroids = centroids
	h.lists = make([][]int, lists)
	for i, c := range assign {
		h.lists[c] = append(h.lists[c], i)
	}
	h.probes = b.Probes
	if h.probes <= 0 {
		h.probes = DefaultOptions().FlatProbes
	}
	h.probes = min(h.probes, lists)
	return h, nil
}

// kmeans runs Lloyd's algorithm from a k-means++ seeding.
func kmeans(ctx context.Context, h *flatHandle, k, iters int, seed uint64) ([][]float32, []int, error) {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	centroids := make([][]float32, 0, k)
	first := rng.IntN(h.n)
	centroids = append(centroids, append([]float32(nil), h.row(first)...))

	nearest := make([]float64, h.n)
	for i := range nearest {
		nearest[i] = distance.SquaredEuclidean(h.row(i), centroids[0])
	}
	for len(centroids) < k {
		var total float64
		for _, d := range nearest {
			total += d
		}
		next := 0
		if total > 0 {
			target := rng.Float64() * total
			for i, d := range nearest {
				target -= d
				if target <= 0 {
					next = i
					break
				}
			}
		} else {
			next = rng.IntN(h.n)
		}
		c := append([]float32(nil), h.row(next)...)
		centroids = append(centroids, c)
		for i := range nearest {
			nearest[i] = math.Min(nearest[i], distance.SquaredEuclidean(h.row(i), c))
		}
	}

	assign := make([]int, h.n)
	sums := make([][]float64, k)
	for c := range sums {
		sums[c] = make([]float64, h.dims)
	}
	counts := make([]int, k)
	for it := 0; it < iters; it++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		changed := it == 0
		for i := 0; i < h.n; i++ {
			c := nearestCentroid(centroids, h.row(i))
			if c != assign[i] {
				assign[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}
		for c := range sums {
			clear(sums[c])
			counts[c] = 0
		}
		for i, c := range assign {
			for j, x := range h.row(i) {
				sums[c][j] += float64(x)
			}
			counts[c]++
		}
		for c := range centroids {
			if counts[c] == 0 {
				// Empty list keeps its previous centroid.
				continue
			}
			for j := range centroids[c] {
				centroids[c][j] = float32(sums[c][j] / float64(counts[c]))
			}
		}
	}
	for i := 0; i < h.n; i++ {
		assign[i] = nearestCentroid(centroids, h.row(i))
	}
	return centroids, assign, nil
}

func nearestCentroid(centroids [][]float32, v []float32) int {
	best, bestD := 0, math.Inf(1)
	for c, cv := range centroids {
		if d := distance.SquaredEuclidean(v, cv); d < bestD {
			best, bestD = c, d
		}
	}
	return best
}

func (h *flatHandle) Search(query []float32, k int) ([]Neighbor, error) {
	k, err := checkQuery(query, h.dims, h.n, k)
	if err != nil {
		return nil, err
	}
	var out []Neighbor
	if h.lists == nil {
		out = make([]Neighbor, h.n)
		for i := range out {
			out[i] = Neighbor{Index: i, Distance: distance.SquaredEuclidean(query, h.row(i))}
		}
	} else {
		out = h.probe(query, k)
	}
	sortNeighbors(out)
	out = out[:k:k]
	for i := range out {
		out[i].Distance = math.Sqrt(out[i].Distance)
	}
	return out, nil
}

// probe scans the nearest lists until at least probes lists and k vectors
// have been seen. Distances are squared.
func (h *flatHandle) probe(query []float32, k int) []Neighbor {
	order := make([]distItem, len(h.centroids))
	for c, cv := range h.centroids {
		order[c] = distItem{id: int32(c), dist: distance.SquaredEuclidean(query, cv)}
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].dist != order[j].dist {
			return order[i].dist < order[j].dist
		}
		return order[i].id < order[j].id
	})
	var out []Neighbor
	for p, o := range order {
		if p >= h.probes && len(out) >= k {
			break
		}
		for _, id := range h.lists[o.id] {
			out = append(out, Neighbor{Index: id, Distance: distance.SquaredEuclidean(query, h.row(id))})
		}
	}
	return out
}

func (h *flatHandle) Len() int        { return h.n }
func (h *flatHandle) Dimensions() int { return h.dims }
func (h *flatHandle) Close() error    { return nil }
