package cluster

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"
)

func twoClusters() [][]float32 {
	return [][]float32{
		{0, 0}, {0, 1}, {1, 0},
		{10, 10}, {10, 11}, {11, 10},
	}
}

func randomVectors(n, dims int, seed uint64) [][]float32 {
	r := rand.New(rand.NewPCG(seed, seed+1))
	out := make([][]float32, n)
	for i := range out {
		v := make([]float32, dims)
		for j := range v {
			v[j] = float32(r.NormFloat64())
		}
		out[i] = v
	}
	return out
}

func TestWard_KnownLinkage(t *testing.T) {
	merges, err := Ward(context.Background(), [][]float32{{0}, {1}, {5}})
	if err != nil {
		t.Fatal(err)
	}
	want := []Merge{
		{Left: 0, Right: 1, Distance: 1, Count: 2},
		{Left: 2, Right: 3, Distance: math.Sqrt(27), Count: 3},
	}
	if len(merges) != len(want) {
		t.Fatalf("got %d merges, want %d", len(merges), len(want))
	}
	for i := range want {
		got := merges[i]
		if got.Left != want[i].Left || got.Right != want[i].Right || got.Count != want[i].Count {
			t.Errorf("merge %d = %+v, want %+v", i, got, want[i])
		}
		if math.Abs(got.Distance-want[i].Distance) > 1e-9 {
			t.Errorf("merge %d distance = %v, want %v", i, got.Distance, want[i].Distance)
		}
	}
}

func TestWard_MonotoneAndLabelled(t *testing.T) {
	vectors := randomVectors(60, 5, 7)
	merges, err := Ward(context.Background(), vectors)
	if err != nil {
		t.Fatal(err)
	}
	n := len(vectors)
	if len(merges) != n-1 {
		t.Fatalf("got %d merges, want %d", len(merges), n-1)
	}
	used := make(map[int]bool)
	for i, m := range merges {
		if m.Left >= m.Right {
			t.Errorf("merge %d: left %d not below right %d", i, m.Left, m.Right)
		}
		if m.Right >= n+i {
			t.Errorf("merge %d references future cluster %d", i, m.Right)
		}
		if used[m.Left] || used[m.Right] {
			t.Errorf("merge %d reuses a cluster", i)
		}
		used[m.Left], used[m.Right] = true, true
		if i > 0 && m.Distance < merges[i-1].Distance {
			t.Errorf("merge %d distance %v below previous %v", i, m.Distance, merges[i-1].Distance)
		}
	}
	if last := merges[len(merges)-1]; last.Count != n {
		t.Errorf("root count = %d, want %d", last.Count, n)
	}
}

func TestWard_Empty(t *testing.T) {
	_, err := Ward(context.Background(), nil)
	if !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
	_, err = Build(context.Background(), [][]float32{})
	if !errors.Is(err, ErrEmpty) {
		t.Errorf("Build: expected ErrEmpty, got %v", err)
	}
}

func TestWard_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Ward(ctx, randomVectors(10, 2, 1)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestBuild_Structure(t *testing.T) {
	vectors := randomVectors(40, 3, 11)
	tree, err := Build(context.Background(), vectors)
	if err != nil {
		t.Fatal(err)
	}
	leaves, internal := 0, 0
	seen := make(map[int]bool)
	tree.Walk(func(n *Node) bool {
		if n.IsLeaf() {
			leaves++
			if seen[n.ID] {
				t.Errorf("leaf %d appears twice", n.ID)
			}
			seen[n.ID] = true
			return true
		}
		internal++
		if n.Count != n.Left.Count+n.Right.Count {
			t.Errorf("node %d count %d != %d+%d", n.ID, n.Count, n.Left.Count, n.Right.Count)
		}
		return true
	})
	if leaves != 40 || internal != 39 {
		t.Errorf("leaves=%d internal=%d, want 40 and 39", leaves, internal)
	}
	if tree.Root().Count != 40 {
		t.Errorf("root count = %d", tree.Root().Count)
	}
	if d := tree.Depth(); d < 6 || d > 39 {
		t.Errorf("depth %d out of range", d)
	}
}

func TestBuild_CentroidIsMeanOfMembers(t *testing.T) {
	for _, seed := range []uint64{1, 2, 3} {
		vectors := randomVectors(50, 4, seed)
		tree, err := Build(context.Background(), vectors)
		if err != nil {
			t.Fatal(err)
		}
		tree.Walk(func(n *Node) bool {
			members := Members(n)
			if len(members) != n.Count {
				t.Fatalf("node %d: %d members, count %d", n.ID, len(members), n.Count)
			}
			for d := 0; d < 4; d++ {
				var sum float64
				for _, m := range members {
					sum += float64(vectors[m][d])
				}
				mean := sum / float64(len(members))
				if math.Abs(mean-float64(n.Centroid[d])) > 1e-5 {
					t.Errorf("seed %d node %d dim %d: centroid %v, mean %v", seed, n.ID, d, n.Centroid[d], mean)
				}
			}
			return true
		})
	}
}

func TestBuild_SingleVector(t *testing.T) {
	tree, err := Build(context.Background(), [][]float32{{1, 2}})
	if err != nil {
		t.Fatal(err)
	}
	if !tree.Root().IsLeaf() {
		t.Fatal("single-vector tree root should be a leaf")
	}
	hits := tree.Search([]float32{0, 0}, 5)
	if len(hits) != 1 || hits[0].Index != 0 {
		t.Errorf("hits = %+v", hits)
	}
}

func TestBuild_SeparatesObviousClusters(t *testing.T) {
	tree, err := Build(context.Background(), twoClusters())
	if err != nil {
		t.Fatal(err)
	}
	root := tree.Root()
	left, right := Members(root.Left), Members(root.Right)
	if len(left) != 3 || len(right) != 3 {
		t.Fatalf("root split %v / %v", left, right)
	}
	side := func(ids []int) int {
		s := ids[0] / 3
		for _, id := range ids {
			if id/3 != s {
				return -1
			}
		}
		return s
	}
	if side(left) < 0 || side(right) < 0 || side(left) == side(right) {
		t.Errorf("root split mixes clusters: %v / %v", left, right)
	}
}
