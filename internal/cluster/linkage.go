// Package cluster builds a Ward-linkage merge tree over embeddings and answers
// nearest-neighbor queries by descending it centroid-first.
package cluster

import (
	"context"
	"errors"
	"math"
	"sort"
)

// ErrEmpty is returned when clustering is requested over zero vectors.
var ErrEmpty = errors.New("cluster: no vectors to cluster")

// Merge is one row of a linkage matrix. Leaves are clusters 0..N-1 and the
// merge at row i creates cluster N+i. Left is always the smaller cluster id.
type Merge struct {
	Left     int
	Right    int
	Distance float64
	Count    int
}

// wardState holds the live clusters during agglomeration. Each live cluster
// occupies the slot of one of its member points.
type wardState struct {
	centroids [][]float64
	sizes     []int
	heights   []float64
	alive     []int
	pos       []int
}

func newWardState(vectors [][]float32) *wardState {
	n := len(vectors)
	s := &wardState{
		centroids: make([][]float64, n),
		sizes:     make([]int, n),
		heights:   make([]float64, n),
		alive:     make([]int, n),
		pos:       make([]int, n),
	}
	for i, v := range vectors {
		c := make([]float64, len(v))
		for j, x := range v {
			c[j] = float64(x)
		}
		s.centroids[i] = c
		s.sizes[i] = 1
		s.alive[i] = i
		s.pos[i] = i
	}
	return s
}

// dist returns the squared Ward distance between two live clusters:
// 2·|A|·|B|/(|A|+|B|) · ‖cA − cB‖².
func (s *wardState) dist(a, b int) float64 {
	ca, cb := s.centroids[a], s.centroids[b]
	var sq float64
	for i := range ca {
		d := ca[i] - cb[i]
		sq += d * d
	}
	na, nb := float64(s.sizes[a]), float64(s.sizes[b])
	return 2 * na * nb / (na + nb) * sq
}

// nearest returns the live cluster closest to a. prev, when >= 0, wins ties so
// that the chain always terminates on a reciprocal pair.
func (s *wardState) nearest(a, prev int) (int, float64) {
	best, bestD := -1, math.Inf(1)
	if prev >= 0 {
		best, bestD = prev, s.dist(a, prev)
	}
	for _, b := range s.alive {
		if b == a {
			continue
		}
		if d := s.dist(a, b); d < bestD {
			best, bestD = b, d
		}
	}
	return best, bestD
}

// merge folds cluster b into a's slot and retires b.
func (s *wardState) merge(a, b int, height float64) {
	na, nb := float64(s.sizes[a]), float64(s.sizes[b])
	ca, cb := s.centroids[a], s.centroids[b]
	for i := range ca {
		ca[i] = (na*ca[i] + nb*cb[i]) / (na + nb)
	}
	s.sizes[a] += s.sizes[b]
	s.heights[a] = height

	i := s.pos[b]
	last := len(s.alive) - 1
	s.alive[i] = s.alive[last]
	s.pos[s.alive[i]] = i
	s.alive = s.alive[:last]
	s.pos[b] = -1
	s.centroids[b] = nil
}

// Ward runs minimum-variance agglomerative clustering over vectors with the
// nearest-neighbor-chain algorithm. It needs O(N·D) memory and O(N²·D) time and
// yields the same linkage matrix as the classic pairwise formulation: merges
// sorted by distance, clusters relabelled in merge order.
func Ward(ctx context.Context, vectors [][]float32) ([]Merge, error) {
	n := len(vectors)
	if n == 0 {
		return nil, ErrEmpty
	}
	if n == 1 {
		return []Merge{}, nil
	}

	type rawMerge struct {
		a, b int
		dist float64
	}
	s := newWardState(vectors)
	raw := make([]rawMerge, 0, n-1)
	chain := make([]int, 0, n)

	for len(s.alive) > 1 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(chain) == 0 {
			chain = append(chain, s.alive[0])
		}
		for {
			a := chain[len(chain)-1]
			prev := -1
			if len(chain) >= 2 {
				prev = chain[len(chain)-2]
			}
			b, d := s.nearest(a, prev)
			if b != prev {
				chain = append(chain, b)
				continue
			}
			chain = chain[:len(chain)-2]
			keep, drop := a, b
			if drop < keep {
				keep, drop = drop, keep
			}
			h := math.Sqrt(d)
			// Rounding can leave a parent a hair below a child; keep heights monotone.
			h = math.Max(h, math.Max(s.heights[a], s.heights[b]))
			raw = append(raw, rawMerge{a: a, b: b, dist: h})
			s.merge(keep, drop, h)
			break
		}
	}

	sort.SliceStable(raw, func(i, j int) bool { return raw[i].dist < raw[j].dist })

	uf := newUnionFind(n)
	merges := make([]Merge, len(raw))
	for i, m := range raw {
		x, y := uf.find(m.a), uf.find(m.b)
		if x > y {
			x, y = y, x
		}
		merges[i] = Merge{Left: x, Right: y, Distance: m.dist, Count: uf.union(x, y)}
	}
	return merges, nil
}

// unionFind relabels slot-based merges into linkage cluster ids.
type unionFind struct {
	parent []int
	size   []int
	next   int
}

func newUnionFind(n int) *unionFind {
	u := &unionFind{
		parent: make([]int, 2*n-1),
		size:   make([]int, 2*n-1),
		next:   n,
	}
	for i := range u.parent {
		u.parent[i] = i
	}
	for i := 0; i < n; i++ {
		u.size[i] = 1
	}
	return u
}

func (u *unionFind) find(x int) int {
	root := x
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for u.parent[x] != root {
		x, u.parent[x] = u.parent[x], root
	}
	return root
}

func (u *unionFind) union(x, y int) int {
	id := u.next
	u.parent[x] = id
	u.parent[y] = id
	u.size[id] = u.size[x] + u.size[y]
	u.next++
	return u.size[id]
}
