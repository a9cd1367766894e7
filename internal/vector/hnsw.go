package vector

import (
	"container/heap"
	"context"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/hyperjump/podsearch/internal/distance"
)

// GraphBackend builds a Hierarchical Navigable Small World graph under cosine
// distance. Approximate: search is a greedy walk from the top layer followed
// by a beam search on layer 0.
type GraphBackend struct {
	// M is the maximum number of connections per node per layer (2*M on layer 0).
	M int
	// EfConstruction is the candidate list size while inserting.
	EfConstruction int
	// EfSearch is the candidate list size while searching; raised to k when smaller.
	EfSearch int
	// Seed makes level assignment reproducible.
	Seed uint64
}

// Type returns the index type identifier.
func (GraphBackend) Type() IndexType { return IndexTypeGraph }

type graphNode struct {
	level   int
	friends [][]int32 // friends[layer]
}

type graphHandle struct {
	vectors  [][]float32
	dims     int
	nodes    []graphNode
	entry    int32
	maxLevel int
	m        int
	efSearch int
}

// distItem pairs a node with its distance to a query vector.
type distItem struct {
	id   int32
	dist float64
}

// minDistHeap is a min-heap ordered by distance (closest first).
type minDistHeap []distItem

func (h minDistHeap) Len() int           { return len(h) }
func (h minDistHeap) Less(i, j int) bool { return h[i].dist < h[j].dist }
func (h minDistHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *minDistHeap) Push(x any)        { *h = append(*h, x.(distItem)) }
func (h *minDistHeap) Pop() any          { old := *h; n := len(old); x := old[n-1]; *h = old[:n-1]; return x }

// maxDistHeap is a max-heap ordered by distance (farthest first).
type maxDistHeap []distItem

func (h maxDistHeap) Len() int           { return len(h) }
func (h maxDistHeap) Less(i, j int) bool { return h[i].dist > h[j].dist }
func (h maxDistHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *maxDistHeap) Push(x any)        { *h = append(*h, x.(distItem)) }
func (h *maxDistHeap) Pop() any          { old := *h; n := len(old); x := old[n-1]; *h = old[:n-1]; return x }

// Build inserts every vector in item order.
func (b GraphBackend) Build(ctx context.Context, space *SearchSpace) (Handle, error) {
	if err := requireVectors(space); err != nil {
		return nil, err
	}
	m := b.M
	if m < 2 {
		m = DefaultOptions().GraphM
	}
	efc := b.EfConstruction
	if efc <= 0 {
		efc = DefaultOptions().GraphEfConstruction
	}
	efs := b.EfSearch
	if efs <= 0 {
		efs = DefaultOptions().GraphEfSearch
	}
	h := &graphHandle{
		vectors:  space.Vectors(),
		dims:     space.Dimensions(),
		nodes:    make([]graphNode, space.Size()),
		entry:    -1,
		m:        m,
		efSearch: efs,
	}
	rng := rand.New(rand.NewPCG(b.Seed, b.Seed^0x9e3779b97f4a7c15))
	levelMul := 1.0 / math.Log(float64(m))
	for i := range h.nodes {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		r := max(rng.Float64(), math.SmallestNonzeroFloat64)
		level := min(int(-math.Log(r)*levelMul), 31)
		h.insert(int32(i), level, efc)
	}
	return h, nil
}

func (h *graphHandle) maxConns(layer int) int {
	if layer == 0 {
		return h.m * 2
	}
	return h.m
}

func (h *graphHandle) dist(q []float32, id int32) float64 {
	return distance.Cosine(q, h.vectors[id])
}

func (h *graphHandle) insert(idx int32, level, efc int) {
	vec := h.vectors[idx]
	h.nodes[idx] = graphNode{level: level, friends: make([][]int32, level+1)}
	if h.entry < 0 {
		h.entry = idx
		h.maxLevel = level
		return
	}

	cur := h.greedy(vec, h.entry, h.maxLevel, level)

	ep := []int32{cur}
	for lev := min(level, h.maxLevel); lev >= 0; lev-- {
		candidates := h.searchLayer(vec, ep, efc, lev)
		maxC := h.maxConns(lev)
		neighbors := h.selectClosest(vec, candidates, maxC)
		h.nodes[idx].friends[lev] = neighbors
		for _, nID := range neighbors {
			nn := &h.nodes[nID]
			nn.friends[lev] = append(nn.friends[lev], idx)
			if len(nn.friends[lev]) > maxC {
				nn.friends[lev] = h.selectClosest(h.vectors[nID], nn.friends[lev], maxC)
			}
		}
		ep = candidates
	}
	if level > h.maxLevel {
		h.entry = idx
		h.maxLevel = level
	}
}

// greedy walks from cur through layers top down to (but excluding) floor,
// tracking only the single closest node.
func (h *graphHandle) greedy(q []float32, cur int32, top, floor int) int32 {
	curDist := h.dist(q, cur)
	for lev := top; lev > floor; lev-- {
		for changed := true; changed; {
			changed = false
			nd := h.nodes[cur]
			if lev >= len(nd.friends) {
				break
			}
			for _, f := range nd.friends[lev] {
				if d := h.dist(q, f); d < curDist {
					cur, curDist, changed = f, d, true
				}
			}
		}
	}
	return cur
}

// searchLayer is a beam search on one layer returning up to ef node ids.
func (h *graphHandle) searchLayer(q []float32, entryPoints []int32, ef, layer int) []int32 {
	visited := make(map[int32]struct{}, ef*2)
	var candidates minDistHeap
	var results maxDistHeap
	for _, ep := range entryPoints {
		if _, seen := visited[ep]; seen {
			continue
		}
		visited[ep] = struct{}{}
		d := h.dist(q, ep)
		heap.Push(&candidates, distItem{id: ep, dist: d})
		heap.Push(&results, distItem{id: ep, dist: d})
		if results.Len() > ef {
			heap.Pop(&results)
		}
	}
	for candidates.Len() > 0 {
		closest := heap.Pop(&candidates).(distItem)
		if results.Len() >= ef && closest.dist > results[0].dist {
			break
		}
		nd := h.nodes[closest.id]
		if layer >= len(nd.friends) {
			continue
		}
		for _, f := range nd.friends[layer] {
			if _, seen := visited[f]; seen {
				continue
			}
			visited[f] = struct{}{}
			d := h.dist(q, f)
			if results.Len() < ef || d < results[0].dist {
				heap.Push(&candidates, distItem{id: f, dist: d})
				heap.Push(&results, distItem{id: f, dist: d})
				if results.Len() > ef {
					heap.Pop(&results)
				}
			}
		}
	}
	out := make([]int32, results.Len())
	for i := range out {
		out[i] = results[i].id
	}
	return out
}

// selectClosest returns up to maxN ids from candidates nearest to q.
func (h *graphHandle) selectClosest(q []float32, candidates []int32, maxN int) []int32 {
	if len(candidates) <= maxN {
		out := make([]int32, len(candidates))
		copy(out, candidates)
		return out
	}
	items := make([]distItem, len(candidates))
	for i, c := range candidates {
		items[i] = distItem{id: c, dist: h.dist(q, c)}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].dist != items[j].dist {
			return items[i].dist < items[j].dist
		}
		return items[i].id < items[j].id
	})
	out := make([]int32, maxN)
	for i := range out {
		out[i] = items[i].id
	}
	return out
}

func (h *graphHandle) Search(query []float32, k int) ([]Neighbor, error) {
	k, err := checkQuery(query, h.dims, len(h.vectors), k)
	if err != nil {
		return nil, err
	}
	ef := max(h.efSearch, k)
	cur := h.greedy(query, h.entry, h.maxLevel, 0)
	ids := h.searchLayer(query, []int32{cur}, ef, 0)

	out := make([]Neighbor, 0, max(len(ids), k))
	seen := make(map[int32]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
		out = append(out, Neighbor{Index: int(id), Distance: h.dist(query, id)})
	}
	// A walk confined to a disconnected region can come back short; fill
	// exactly from the rest so every query yields min(k, N) results.
	if len(out) < k {
		for i := range h.vectors {
			if _, ok := seen[int32(i)]; ok {
				continue
			}
			out = append(out, Neighbor{Index: i, Distance: h.dist(query, int32(i))})
		}
	}
	sortNeighbors(out)
	return out[:k:k], nil
}

func (h *graphHandle) Len() int        { return len(h.vectors) }
func (h *graphHandle) Dimensions() int { return h.dims }
func (h *graphHandle) Close() error    { return nil }
