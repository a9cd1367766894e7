package vector

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"
)

func TestIndex_SearchBeforeBuild(t *testing.T) {
	for _, b := range testBackends() {
		t.Run(backendName(b), func(t *testing.T) {
			idx := NewIndex(b)
			if _, err := idx.Search(context.Background(), []float32{0, 0}, 1); !errors.Is(err, ErrNotBuilt) {
				t.Errorf("expected ErrNotBuilt, got %v", err)
			}
			if idx.Handle() != nil || idx.Space() != nil {
				t.Error("unbuilt index should have no handle")
			}
			if st := idx.Stats(); st.Built {
				t.Error("Stats reports built")
			}
		})
	}
}

func TestIndex_BuildAndSearch(t *testing.T) {
	idx := NewIndex(LinearBackend{}, WithLogger(zap.NewNop()))
	defer idx.Close()
	ctx := context.Background()
	if err := idx.Build(ctx, sixPoints(t)); err != nil {
		t.Fatal(err)
	}
	res, err := idx.Search(ctx, []float32{10, 10}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 || res[0].Index != 3 || res[0].Distance != 0 {
		t.Errorf("res = %+v", res)
	}
	st := idx.Stats()
	if !st.Built || st.Vectors != 6 || st.Dimensions != 2 || st.Type != IndexTypeLinear {
		t.Errorf("Stats = %+v", st)
	}
}

func TestIndex_BuildEmptyKeepsPrevious(t *testing.T) {
	idx := NewIndex(ClusterBackend{})
	ctx := context.Background()
	if err := idx.Build(ctx, sixPoints(t)); err != nil {
		t.Fatal(err)
	}
	empty, _ := Create(nil)
	if err := idx.Build(ctx, empty); !errors.Is(err, ErrEmptyIndex) {
		t.Fatalf("expected ErrEmptyIndex, got %v", err)
	}
	if idx.Stats().Vectors != 6 {
		t.Error("failed build replaced the current handle")
	}
}

func TestIndex_SearchCancelled(t *testing.T) {
	idx := NewIndex(LinearBackend{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := idx.Search(ctx, []float32{0, 0}, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestIndex_OldHandleSurvivesRebuild(t *testing.T) {
	idx := NewIndex(ClusterBackend{})
	ctx := context.Background()
	if err := idx.Build(ctx, sixPoints(t)); err != nil {
		t.Fatal(err)
	}
	old := idx.Handle()

	shifted, err := FromMatrix([][]float32{{50, 50}, {60, 60}})
	if err != nil {
		t.Fatal(err)
	}
	if err := idx.Build(ctx, shifted); err != nil {
		t.Fatal(err)
	}
	res, err := old.Search([]float32{0, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 6 || res[0].Index != 0 {
		t.Errorf("old handle results changed: %+v", res)
	}
	res, err = idx.Search(ctx, []float32{0, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 2 {
		t.Errorf("new handle returned %d results, want 2", len(res))
	}
}

func TestIndex_ConcurrentSearchDuringRebuild(t *testing.T) {
	idx := NewIndex(BallTreeBackend{LeafSize: 4})
	ctx := context.Background()
	a := randomSpace(t, 200, 4, 1)
	b := randomSpace(t, 300, 4, 2)
	if err := idx.Build(ctx, a); err != nil {
		t.Fatal(err)
	}
	q := []float32{0.1, 0.2, 0.3, 0.4}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				res, err := idx.Search(ctx, q, 5)
				if err != nil {
					errs <- err
					return
				}
				if len(res) != 5 {
					errs <- errors.New("short result")
					return
				}
			}
		}()
	}
	for i := 0; i < 10; i++ {
		space := a
		if i%2 == 0 {
			space = b
		}
		if err := idx.Build(ctx, space); err != nil {
			t.Fatal(err)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestIndex_Close(t *testing.T) {
	idx := NewIndex(LinearBackend{})
	if err := idx.Build(context.Background(), sixPoints(t)); err != nil {
		t.Fatal(err)
	}
	if err := idx.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := idx.Search(context.Background(), []float32{0, 0}, 1); !errors.Is(err, ErrNotBuilt) {
		t.Errorf("expected ErrNotBuilt after Close, got %v", err)
	}
}
