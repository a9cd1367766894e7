package cluster

import (
	"context"
	"fmt"
)

// Node is a vertex of the merge tree. Leaves have no children and carry the
// item index in ID; internal nodes always have both children.
type Node struct {
	ID     int
	Left   *Node
	Right  *Node
	Count  int
	Height float64
	// Centroid is the mean of all leaf embeddings below the node. For a leaf it
	// aliases the item's embedding.
	Centroid []float32
}

// IsLeaf reports whether n is a leaf.
func (n *Node) IsLeaf() bool {
	return n.Left == nil && n.Right == nil
}

// Tree is an immutable Ward merge tree over a fixed set of vectors. It is safe
// for concurrent readers.
type Tree struct {
	root    *Node
	vectors [][]float32
	merges  []Merge
	dims    int
}

// Build clusters vectors and assembles the merge tree. vectors must be non-empty
// and share one dimensionality; the tree keeps references to them and they
// must not be mutated afterwards.
func Build(ctx context.Context, vectors [][]float32) (*Tree, error) {
	merges, err := Ward(ctx, vectors)
	if err != nil {
		return nil, err
	}
	root, err := fromLinkage(vectors, merges)
	if err != nil {
		return nil, err
	}
	return &Tree{
		root:    root,
		vectors: vectors,
		merges:  merges,
		dims:    len(vectors[0]),
	}, nil
}

// fromLinkage turns a linkage matrix into linked nodes. Internal centroids are
// combined from the children weighted by their member counts.
func fromLinkage(vectors [][]float32, merges []Merge) (*Node, error) {
	n := len(vectors)
	if len(merges) != n-1 {
		return nil, fmt.Errorf("cluster: linkage has %d merges for %d leaves", len(merges), n)
	}
	nodes := make([]*Node, 2*n-1)
	sums := make([][]float64, 2*n-1)
	for i, v := range vectors {
		nodes[i] = &Node{ID: i, Count: 1, Centroid: v}
		c := make([]float64, len(v))
		for j, x := range v {
			c[j] = float64(x)
		}
		sums[i] = c
	}
	for i, m := range merges {
		id := n + i
		left, right := nodes[m.Left], nodes[m.Right]
		if left == nil || right == nil {
			return nil, fmt.Errorf("cluster: merge %d references unbuilt cluster", i)
		}
		nl, nr := float64(left.Count), float64(right.Count)
		cl, cr := sums[m.Left], sums[m.Right]
		c := make([]float64, len(cl))
		centroid := make([]float32, len(cl))
		for j := range cl {
			c[j] = (nl*cl[j] + nr*cr[j]) / (nl + nr)
			centroid[j] = float32(c[j])
		}
		sums[id] = c
		nodes[id] = &Node{
			ID:       id,
			Left:     left,
			Right:    right,
			Count:    left.Count + right.Count,
			Height:   m.Distance,
			Centroid: centroid,
		}
		sums[m.Left], sums[m.Right] = nil, nil
	}
	return nodes[2*n-2], nil
}

// Root returns the root node.
func (t *Tree) Root() *Node { return t.root }

// Len returns the number of leaves.
func (t *Tree) Len() int { return len(t.vectors) }

// Dimensions returns the dimensionality of the clustered vectors.
func (t *Tree) Dimensions() int { return t.dims }

// Merges returns a copy of the linkage matrix.
func (t *Tree) Merges() []Merge {
	out := make([]Merge, len(t.merges))
	copy(out, t.merges)
	return out
}

// Walk visits every node in pre-order until fn returns false.
func (t *Tree) Walk(fn func(n *Node) bool) {
	stack := []*Node{t.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(n) {
			return
		}
		if !n.IsLeaf() {
			stack = append(stack, n.Right, n.Left)
		}
	}
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (t *Tree) Depth() int {
	type frame struct {
		n     *Node
		depth int
	}
	deepest := 0
	stack := []frame{{t.root, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.n.IsLeaf() {
			deepest = max(deepest, f.depth)
			continue
		}
		stack = append(stack, frame{f.n.Left, f.depth + 1}, frame{f.n.Right, f.depth + 1})
	}
	return deepest
}

// Members returns the leaf ids under n in left-to-right order.
func Members(n *Node) []int {
	out := make([]int, 0, n.Count)
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.IsLeaf() {
			out = append(out, cur.ID)
			continue
		}
		stack = append(stack, cur.Right, cur.Left)
	}
	return out
}
