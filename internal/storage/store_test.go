package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_SaveAndGetSource(t *testing.T) {
	store := setupTestStore(t)

	src := &Source{
		ID:           "test-source-1",
		URL:          "http://example.com/reels.xml",
		Title:        "Test Source",
		Description:  "A test source",
		LastFetched:  time.Now(),
		ETag:         "\"abc123\"",
		LastModified: "Wed, 01 Jan 2025 00:00:00 GMT",
		UpdatedAt:    time.Now(),
	}

	if err := store.SaveSource(src); err != nil {
		t.Fatalf("failed to save source: %v", err)
	}

	retrieved, err := store.GetSource("test-source-1")
	if err != nil {
		t.Fatalf("failed to get source: %v", err)
	}

	if retrieved.URL != src.URL {
		t.Errorf("expected URL %s, got %s", src.URL, retrieved.URL)
	}
	if retrieved.Title != src.Title {
		t.Errorf("expected Title %s, got %s", src.Title, retrieved.Title)
	}
	if retrieved.ETag != src.ETag {
		t.Errorf("expected ETag %s, got %s", src.ETag, retrieved.ETag)
	}
}

func TestStore_GetSource_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetSource("non-existent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_GetAllSources_SortedByTitle(t *testing.T) {
	store := setupTestStore(t)

	sources := []*Source{
		{ID: "s1", URL: "http://example.com/c.xml", Title: "charlie"},
		{ID: "s2", URL: "http://example.com/a.xml", Title: "Alpha"},
		{ID: "s3", URL: "http://example.com/b.xml"},
	}
	for _, src := range sources {
		if err := store.SaveSource(src); err != nil {
			t.Fatalf("failed to save source: %v", err)
		}
	}

	all, err := store.GetAllSources()
	if err != nil {
		t.Fatalf("failed to get all sources: %v", err)
	}

	want := []string{"s2", "s1", "s3"}
	if len(all) != len(want) {
		t.Fatalf("expected %d sources, got %d", len(want), len(all))
	}
	for i, id := range want {
		if all[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, all[i].ID)
		}
	}
}

func TestStore_SaveAndGetReels(t *testing.T) {
	store := setupTestStore(t)

	now := time.Now()
	reels := []*Reel{
		{ID: "r1", SourceID: "s1", Title: "Reel 1", MediaURI: "http://example.com/1.mp4", Width: 1080, Height: 1920, Published: now.Add(-2 * time.Hour)},
		{ID: "r2", SourceID: "s1", Title: "Reel 2", MediaURI: "http://example.com/2.mp4", Published: now.Add(-1 * time.Hour)},
		{ID: "r3", SourceID: "s2", Title: "Reel 3", MediaURI: "http://example.com/3.mp4", Published: now},
	}

	if err := store.SaveReels(reels); err != nil {
		t.Fatalf("failed to save reels: %v", err)
	}

	s1Reels, err := store.GetReels("s1", 10)
	if err != nil {
		t.Fatalf("failed to get reels: %v", err)
	}
	if len(s1Reels) != 2 {
		t.Errorf("expected 2 reels for s1, got %d", len(s1Reels))
	}

	all, err := store.GetReels("", 10)
	if err != nil {
		t.Fatalf("failed to get all reels: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 total reels, got %d", len(all))
	}
	if all[0].ID != "r3" {
		t.Errorf("expected newest reel first, got %s", all[0].ID)
	}

	r1, err := store.GetReel("r1")
	if err != nil {
		t.Fatalf("failed to get reel: %v", err)
	}
	if r1.Width != 1080 || r1.Height != 1920 {
		t.Errorf("expected 1080x1920 hint, got %dx%d", r1.Width, r1.Height)
	}
}

func TestStore_ToggleLike(t *testing.T) {
	store := setupTestStore(t)

	if err := store.SaveReels([]*Reel{{ID: "r1", SourceID: "s1"}}); err != nil {
		t.Fatalf("failed to save reel: %v", err)
	}

	liked, err := store.ToggleLike("r1")
	if err != nil {
		t.Fatalf("failed to toggle like: %v", err)
	}
	if !liked {
		t.Error("first toggle should like the reel")
	}

	liked, err = store.ToggleLike("r1")
	if err != nil {
		t.Fatalf("failed to toggle like: %v", err)
	}
	if liked {
		t.Error("second toggle should unlike the reel")
	}

	if _, err := store.ToggleLike("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing reel, got %v", err)
	}
}

func TestStore_RefreshPreservesUserFlags(t *testing.T) {
	store := setupTestStore(t)

	if err := store.SaveReels([]*Reel{{ID: "r1", SourceID: "s1", Title: "old"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.ToggleLike("r1"); err != nil {
		t.Fatal(err)
	}
	if err := store.SetSaved("r1", true); err != nil {
		t.Fatal(err)
	}
	if err := store.MarkSeen("r1"); err != nil {
		t.Fatal(err)
	}

	if err := store.SaveReels([]*Reel{{ID: "r1", SourceID: "s1", Title: "new"}}); err != nil {
		t.Fatal(err)
	}

	reel, err := store.GetReel("r1")
	if err != nil {
		t.Fatal(err)
	}
	if reel.Title != "new" {
		t.Errorf("expected refreshed title, got %s", reel.Title)
	}
	if !reel.Liked || !reel.Saved || !reel.Seen {
		t.Errorf("user flags lost on refresh: liked=%t saved=%t seen=%t", reel.Liked, reel.Saved, reel.Seen)
	}
}

func TestStore_DeleteSource(t *testing.T) {
	store := setupTestStore(t)

	if err := store.SaveSource(&Source{ID: "gone", URL: "http://example.com/feed.xml"}); err != nil {
		t.Fatalf("failed to save source: %v", err)
	}

	reels := []*Reel{
		{ID: "r1", SourceID: "gone"},
		{ID: "r2", SourceID: "gone"},
		{ID: "r3", SourceID: "other"},
		{ID: "r4", SourceID: "gone"},
	}
	if err := store.SaveReels(reels); err != nil {
		t.Fatalf("failed to save reels: %v", err)
	}

	removed, err := store.DeleteSource("gone")
	if err != nil {
		t.Fatalf("failed to delete source: %v", err)
	}
	if len(removed) != 3 {
		t.Errorf("expected 3 removed reels, got %v", removed)
	}

	if _, err := store.GetSource("gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for deleted source, got %v", err)
	}

	remaining, err := store.GetReels("", 10)
	if err != nil {
		t.Fatalf("failed to get reels: %v", err)
	}
	if len(remaining) != 1 || remaining[0].SourceID != "other" {
		t.Errorf("wrong reels remained after source deletion: %v", remaining)
	}
}

func TestStore_GetReels_Limit(t *testing.T) {
	store := setupTestStore(t)

	reels := make([]*Reel, 20)
	for i := 0; i < 20; i++ {
		reels[i] = &Reel{
			ID:        fmt.Sprintf("reel%02d", i),
			SourceID:  "s1",
			Published: time.Now().Add(time.Duration(-i) * time.Hour),
		}
	}
	if err := store.SaveReels(reels); err != nil {
		t.Fatalf("failed to save reels: %v", err)
	}

	limited, err := store.GetReels("s1", 5)
	if err != nil {
		t.Fatalf("failed to get reels with limit: %v", err)
	}
	if len(limited) != 5 {
		t.Errorf("expected 5 reels with limit, got %d", len(limited))
	}
	if limited[0].ID != "reel00" {
		t.Errorf("expected newest reel first, got %s", limited[0].ID)
	}
}

func TestStore_Position(t *testing.T) {
	store := setupTestStore(t)

	_, ok, err := store.GetPosition()
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("fresh store should have no position")
	}

	want := Position{ReelID: "r7", Index: 7, UpdatedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}
	if err := store.SavePosition(want); err != nil {
		t.Fatal(err)
	}

	got, ok, err := store.GetPosition()
	if err != nil {
		t.Fatal(err)
	}
	if !ok || got.ReelID != want.ReelID || got.Index != want.Index || !got.UpdatedAt.Equal(want.UpdatedAt) {
		t.Errorf("GetPosition() = %+v, %t; want %+v", got, ok, want)
	}
}
