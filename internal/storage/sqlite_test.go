package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/podsearch/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testUtterances(n int) []*models.Utterance {
	out := make([]*models.Utterance, n)
	for i := range out {
		out[i] = &models.Utterance{
			ID:         fmt.Sprintf("utt-%d", i),
			Index:      i,
			EpisodeURI: "spotify:episode:abc",
			Text:       fmt.Sprintf("utterance number %d", i),
			Start:      time.Duration(i) * 1500 * time.Millisecond,
			Speaker:    i % 2,
		}
	}
	return out
}

func TestSQLiteStorage_Episodes(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ep := &models.Episode{
		URI:       "spotify:episode:abc",
		ShowURI:   "spotify:show:xyz",
		ShowName:  "Show",
		Name:      "Pilot",
		Publisher: "Pub",
		Language:  "en",
		Prefix:    "show_xyz",
		Duration:  42.5,
	}
	if err := store.UpsertEpisodes(ctx, []*models.Episode{ep}); err != nil {
		t.Fatal(err)
	}
	ep.Name = "Pilot (remastered)"
	if err := store.UpsertEpisodes(ctx, []*models.Episode{ep}); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetEpisode(ctx, ep.URI)
	if err != nil {
		t.Fatal(err)
	}
	if *got != *ep {
		t.Errorf("got %+v, want %+v", got, ep)
	}
	n, err := store.CountEpisodes(ctx)
	if err != nil || n != 1 {
		t.Errorf("CountEpisodes = %d, %v", n, err)
	}

	if _, err := store.GetEpisode(ctx, "spotify:episode:missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStorage_Utterances(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.ReplaceUtterances(ctx, testUtterances(5)); err != nil {
		t.Fatal(err)
	}
	got, err := store.GetUtterance(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := testUtterances(5)[3]
	if got.ID != want.ID || got.Text != want.Text || got.Start != want.Start || got.Speaker != want.Speaker {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if _, err := store.GetUtterance(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	batch, err := store.GetUtterances(ctx, []int{4, 0, 99})
	if err != nil {
		t.Fatal(err)
	}
	if len(batch) != 2 || batch[4] == nil || batch[0] == nil {
		t.Errorf("GetUtterances = %v", batch)
	}
	empty, err := store.GetUtterances(ctx, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("GetUtterances(nil) = %v, %v", empty, err)
	}

	list, err := store.ListUtterances(ctx, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Index != 1 || list[1].Index != 2 {
		t.Errorf("ListUtterances = %+v", list)
	}
}

func TestSQLiteStorage_ReplaceUtterances(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.ReplaceUtterances(ctx, testUtterances(10)); err != nil {
		t.Fatal(err)
	}
	if err := store.ReplaceUtterances(ctx, testUtterances(3)); err != nil {
		t.Fatal(err)
	}
	n, err := store.CountUtterances(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("CountUtterances = %d, want 3", n)
	}
	if _, err := store.GetUtterance(ctx, 7); !errors.Is(err, ErrNotFound) {
		t.Errorf("stale utterance survived replace: %v", err)
	}
}

func TestSQLiteStorage_ReplaceRollsBackOnConflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.ReplaceUtterances(ctx, testUtterances(4)); err != nil {
		t.Fatal(err)
	}
	dup := testUtterances(2)
	dup[1].ID = dup[0].ID
	if err := store.ReplaceUtterances(ctx, dup); err == nil {
		t.Fatal("expected unique constraint error")
	}
	n, err := store.CountUtterances(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("failed replace should leave catalog intact, got %d rows", n)
	}
}
