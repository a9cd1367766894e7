package vector

import (
	"context"
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/hyperjump/podsearch/internal/distance"
)

// testBackends returns every backend that can be built in this binary.
func testBackends() []Backend {
	out := []Backend{
		LinearBackend{},
		KDTreeBackend{},
		BallTreeBackend{LeafSize: 4},
		ClusterBackend{},
		GraphBackend{M: 8, EfConstruction: 64, EfSearch: 32, Seed: 1},
		FlatBackend{},
		FlatBackend{Lists: 4, Probes: 1, Iterations: 10, Seed: 1},
	}
	if IsFAISSAvailable() {
		out = append(out, FAISSBackend{})
	}
	return out
}

func backendName(b Backend) string {
	if f, ok := b.(FlatBackend); ok && f.Lists > 0 {
		return "flat-ivf"
	}
	return string(b.Type())
}

func mustBuild(t testing.TB, b Backend, s *SearchSpace) Handle {
	t.Helper()
	h, err := b.Build(context.Background(), s)
	if err != nil {
		t.Fatalf("%s: Build: %v", backendName(b), err)
	}
	return h
}

func TestBackends_ResultCountAndOrder(t *testing.T) {
	space := randomSpace(t, 120, 6, 9)
	queries := randomSpace(t, 10, 6, 77)
	for _, b := range testBackends() {
		t.Run(backendName(b), func(t *testing.T) {
			h := mustBuild(t, b, space)
			defer h.Close()
			if h.Len() != 120 || h.Dimensions() != 6 {
				t.Errorf("Len=%d Dimensions=%d", h.Len(), h.Dimensions())
			}
			for _, k := range []int{1, 5, 17, 120, 400} {
				for qi := 0; qi < queries.Size(); qi++ {
					res, err := h.Search(queries.Vector(qi), k)
					if err != nil {
						t.Fatalf("k=%d: %v", k, err)
					}
					if want := min(k, 120); len(res) != want {
						t.Fatalf("k=%d: got %d results, want %d", k, len(res), want)
					}
					seen := make(map[int]bool, len(res))
					for i, n := range res {
						if seen[n.Index] {
							t.Fatalf("k=%d: duplicate index %d", k, n.Index)
						}
						seen[n.Index] = true
						if i > 0 && n.Distance < res[i-1].Distance {
							t.Fatalf("k=%d: results not sorted at %d", k, i)
						}
					}
				}
			}
		})
	}
}

func TestBackends_InvalidArguments(t *testing.T) {
	space := sixPoints(t)
	for _, b := range testBackends() {
		t.Run(backendName(b), func(t *testing.T) {
			h := mustBuild(t, b, space)
			defer h.Close()
			for _, k := range []int{0, -1} {
				if _, err := h.Search([]float32{0, 0}, k); !errors.Is(err, ErrInvalidArgument) {
					t.Errorf("k=%d: expected ErrInvalidArgument, got %v", k, err)
				}
			}
			if _, err := h.Search([]float32{0, 0, 0}, 1); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("dimension mismatch: expected ErrInvalidArgument, got %v", err)
			}
			nan := float32(math.NaN())
			inf := float32(math.Inf(1))
			for _, q := range [][]float32{{nan, 0}, {0, inf}, {-inf, 0}} {
				if _, err := h.Search(q, 2); !errors.Is(err, ErrInvalidArgument) {
					t.Errorf("query %v: expected ErrInvalidArgument, got %v", q, err)
				}
			}
		})
	}
}

func TestBackends_EmptySpace(t *testing.T) {
	empty, err := Create(nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range testBackends() {
		t.Run(backendName(b), func(t *testing.T) {
			if _, err := b.Build(context.Background(), empty); !errors.Is(err, ErrEmptyIndex) {
				t.Errorf("expected ErrEmptyIndex, got %v", err)
			}
		})
	}
}

func TestBackends_ClampsKToSize(t *testing.T) {
	space := sixPoints(t)
	for _, b := range testBackends() {
		t.Run(backendName(b), func(t *testing.T) {
			h := mustBuild(t, b, space)
			defer h.Close()
			res, err := h.Search([]float32{0.5, 0.5}, 10)
			if err != nil {
				t.Fatal(err)
			}
			if len(res) != 6 {
				t.Errorf("got %d results, want 6", len(res))
			}
		})
	}
}

func TestEuclideanBackends_TwoClusters(t *testing.T) {
	space := sixPoints(t)
	for _, b := range testBackends() {
		if b.Type() == IndexTypeGraph {
			// Cosine distance: (10,10) points the same way as the query.
			continue
		}
		t.Run(backendName(b), func(t *testing.T) {
			h := mustBuild(t, b, space)
			defer h.Close()
			res, err := h.Search([]float32{0.5, 0.5}, 2)
			if err != nil {
				t.Fatal(err)
			}
			if len(res) != 2 {
				t.Fatalf("got %d results", len(res))
			}
			for _, n := range res {
				if n.Index > 2 {
					t.Errorf("result %d is from the far cluster", n.Index)
				}
			}
			if res[0].Distance > res[1].Distance {
				t.Errorf("results not ascending: %+v", res)
			}
		})
	}
}

func TestLinear_MatchesHandComputed(t *testing.T) {
	space := sixPoints(t)
	h := mustBuild(t, LinearBackend{}, space)
	res, err := h.Search([]float32{9, 9}, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []Neighbor{
		{Index: 3, Distance: math.Sqrt(2)},
		{Index: 4, Distance: math.Sqrt(5)},
		{Index: 5, Distance: math.Sqrt(5)},
	}
	for i := range want {
		if res[i].Index != want[i].Index || math.Abs(res[i].Distance-want[i].Distance) > 1e-12 {
			t.Errorf("result %d = %+v, want %+v", i, res[i], want[i])
		}
	}
}

func TestExactBackends_MatchLinear(t *testing.T) {
	space := randomSpace(t, 400, 5, 12)
	queries := randomSpace(t, 25, 5, 13)
	oracle := mustBuild(t, LinearBackend{}, space)
	exact := []Backend{
		KDTreeBackend{},
		BallTreeBackend{LeafSize: 8},
		FlatBackend{},
		FlatBackend{Lists: 6, Probes: 6, Seed: 2},
	}
	for _, b := range exact {
		t.Run(backendName(b), func(t *testing.T) {
			h := mustBuild(t, b, space)
			for qi := 0; qi < queries.Size(); qi++ {
				q := queries.Vector(qi)
				got, err := h.Search(q, 10)
				if err != nil {
					t.Fatal(err)
				}
				want, _ := oracle.Search(q, 10)
				for i := range want {
					if got[i].Index != want[i].Index || math.Abs(got[i].Distance-want[i].Distance) > 1e-9 {
						t.Fatalf("query %d result %d = %+v, want %+v", qi, i, got[i], want[i])
					}
				}
			}
		})
	}
}

func TestGraph_RecallAgainstCosineScan(t *testing.T) {
	space := randomSpace(t, 600, 8, 31)
	queries := randomSpace(t, 30, 8, 32)
	h := mustBuild(t, GraphBackend{M: 16, EfConstruction: 200, EfSearch: 64, Seed: 5}, space)
	const k = 10
	var hits int
	for qi := 0; qi < queries.Size(); qi++ {
		q := queries.Vector(qi)
		truth := make([]Neighbor, space.Size())
		for i := range truth {
			truth[i] = Neighbor{Index: i, Distance: distance.Cosine(q, space.Vector(i))}
		}
		sortNeighbors(truth)
		want := make(map[int]bool, k)
		for _, n := range truth[:k] {
			want[n.Index] = true
		}
		got, err := h.Search(q, k)
		if err != nil {
			t.Fatal(err)
		}
		for _, n := range got {
			if want[n.Index] {
				hits++
			}
		}
	}
	if recall := float64(hits) / float64(k*queries.Size()); recall < 0.8 {
		t.Errorf("recall@%d = %.2f", k, recall)
	}
}

func TestGraph_SameSeedSameGraph(t *testing.T) {
	space := randomSpace(t, 200, 4, 8)
	b := GraphBackend{M: 6, EfConstruction: 32, EfSearch: 8, Seed: 99}
	h1 := mustBuild(t, b, space).(*graphHandle)
	h2 := mustBuild(t, b, space).(*graphHandle)
	if h1.entry != h2.entry || h1.maxLevel != h2.maxLevel {
		t.Errorf("entry/level differ: %d/%d vs %d/%d", h1.entry, h1.maxLevel, h2.entry, h2.maxLevel)
	}
}

func TestFlatIVF_ListsPartitionItems(t *testing.T) {
	space := randomSpace(t, 150, 3, 4)
	h := mustBuild(t, FlatBackend{Lists: 5, Probes: 2, Seed: 3}, space).(*flatHandle)
	var ids []int
	for _, l := range h.lists {
		ids = append(ids, l...)
	}
	sort.Ints(ids)
	if len(ids) != 150 {
		t.Fatalf("lists hold %d ids, want 150", len(ids))
	}
	for i, id := range ids {
		if id != i {
			t.Fatalf("id %d missing or duplicated", i)
		}
	}
}

// Well-separated three-point clusters with queries next to stored points:
// the best-first descent reaches the exact nearest neighbor.
func TestCluster_AgreesWithLinearOnSeparatedClusters(t *testing.T) {
	var rows [][]float32
	for _, off := range [][2]float32{{0, 0}, {100, 0}, {0, 100}, {100, 100}} {
		for _, p := range [][2]float32{{0, 0}, {0, 1}, {1, 0}} {
			rows = append(rows, []float32{off[0] + p[0], off[1] + p[1]})
		}
	}
	space, err := FromMatrix(rows)
	if err != nil {
		t.Fatal(err)
	}
	ch := mustBuild(t, ClusterBackend{}, space)
	lh := mustBuild(t, LinearBackend{}, space)
	for i, r := range rows {
		q := []float32{r[0] + 0.01, r[1] + 0.01}
		got, err := ch.Search(q, 1)
		if err != nil {
			t.Fatal(err)
		}
		want, _ := lh.Search(q, 1)
		if got[0].Index != want[0].Index {
			t.Errorf("query near %d: cluster top-1 %d, linear top-1 %d", i, got[0].Index, want[0].Index)
		}
	}
}

// An outlier merged into the far cluster sits in the branch whose centroid is
// farther from the query, so the approximate descent misses it.
func TestCluster_MayMissOutlierAcrossBranches(t *testing.T) {
	rows := [][]float32{{0}, {0.1}, {0.2}, {10}, {10.1}, {10.2}, {4}}
	space, err := FromMatrix(rows)
	if err != nil {
		t.Fatal(err)
	}
	q := []float32{5.8}
	want, _ := mustBuild(t, LinearBackend{}, space).Search(q, 1)
	got, err := mustBuild(t, ClusterBackend{}, space).Search(q, 1)
	if err != nil {
		t.Fatal(err)
	}
	if want[0].Index != 6 {
		t.Fatalf("linear top-1 = %d, want the outlier", want[0].Index)
	}
	if got[0].Index < 3 || got[0].Index > 5 {
		t.Errorf("cluster top-1 = %d, expected a point of the right-hand cluster", got[0].Index)
	}
	// With k covering the sibling branch the outlier comes back.
	got, _ = mustBuild(t, ClusterBackend{}, space).Search(q, 4)
	if got[0].Index != 6 {
		t.Errorf("k=4 top-1 = %d, want 6", got[0].Index)
	}
}

func TestClusterHandle_Tree(t *testing.T) {
	h := mustBuild(t, ClusterBackend{}, sixPoints(t)).(*ClusterHandle)
	if h.Tree().Len() != 6 || h.Tree().Root().Count != 6 {
		t.Errorf("tree has %d leaves", h.Tree().Len())
	}
}

func TestBackends_BuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	space := randomSpace(t, 50, 3, 1)
	for _, b := range []Backend{ClusterBackend{}, BallTreeBackend{}, KDTreeBackend{}, GraphBackend{}, FlatBackend{Lists: 3}} {
		t.Run(backendName(b), func(t *testing.T) {
			if _, err := b.Build(ctx, space); !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		})
	}
}

func BenchmarkBackends(b *testing.B) {
	space := randomSpace(b, 2000, 32, 1)
	queries := randomSpace(b, 64, 32, 2)
	for _, be := range testBackends() {
		h := mustBuild(b, be, space)
		b.Run(backendName(be), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := h.Search(queries.Vector(i%queries.Size()), 10); err != nil {
					b.Fatal(err)
				}
			}
		})
		h.Close()
	}
}
