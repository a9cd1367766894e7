//go:build faiss && cgo
// +build faiss,cgo

package vector

import (
	"context"
	"math"
	"testing"
)

func TestFAISSBackend_MatchesLinear(t *testing.T) {
	space := randomSpace(t, 300, 8, 4)
	ctx := context.Background()
	fh, err := FAISSBackend{}.Build(ctx, space)
	if err != nil {
		t.Fatal(err)
	}
	defer fh.Close()
	lh, err := LinearBackend{}.Build(ctx, space)
	if err != nil {
		t.Fatal(err)
	}
	q := space.Vector(17)
	got, err := fh.Search(q, 5)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := lh.Search(q, 5)
	if len(got) != len(want) {
		t.Fatalf("got %d results, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i].Distance-want[i].Distance) > 1e-3 {
			t.Errorf("result %d distance %v, want %v", i, got[i].Distance, want[i].Distance)
		}
	}
}

func TestFAISSHandle_SearchAfterClose(t *testing.T) {
	h, err := FAISSBackend{}.Build(context.Background(), sixPoints(t))
	if err != nil {
		t.Fatal(err)
	}
	h.Close()
	if _, err := h.Search([]float32{0, 0}, 1); err == nil {
		t.Error("expected error searching a closed FAISS handle")
	}
}
