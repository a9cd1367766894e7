package cluster

import (
	"sort"

	"github.com/hyperjump/podsearch/internal/distance"
)

// Hit is a ranked search result.
type Hit struct {
	Index    int
	Distance float64
}

// Candidates descends the tree best-first and returns up to k leaf ids in the
// order they are reached, before any exact ranking.
//
// At each internal node the child whose centroid is nearer to query is
// explored first (left on an exact tie). When that subtree runs out of leaves
// before k ids are collected, the sibling supplies the shortfall. The pending
// stack holds each sibling below its primary, so a subtree is drained
// completely before its sibling starts and no node is visited twice.
func (t *Tree) Candidates(query []float32, k int) []int {
	if k > len(t.vectors) {
		k = len(t.vectors)
	}
	if k <= 0 {
		return nil
	}
	out := make([]int, 0, k)
	stack := make([]*Node, 1, 64)
	stack[0] = t.root
	for len(stack) > 0 && len(out) < k {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.IsLeaf() {
			out = append(out, n.ID)
			continue
		}
		if n.Left == nil || n.Right == nil {
			panic("cluster: internal node with a missing child")
		}
		primary, secondary := n.Left, n.Right
		if distance.SquaredEuclidean(query, n.Right.Centroid) < distance.SquaredEuclidean(query, n.Left.Centroid) {
			primary, secondary = secondary, primary
		}
		stack = append(stack, secondary, primary)
	}
	return out
}

// Search returns up to k hits for query: the best-first candidates re-ranked by
// their exact Euclidean distance, ascending, ties by index. The result is
// approximate because a branch is chosen by centroid distance alone.
func (t *Tree) Search(query []float32, k int) []Hit {
	ids := t.Candidates(query, k)
	hits := make([]Hit, len(ids))
	for i, id := range ids {
		hits[i] = Hit{Index: id, Distance: distance.Euclidean(query, t.vectors[id])}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Index < hits[j].Index
	})
	return hits
}
