package vectorstore

import (
	"context"
	"testing"
)

func newInMemoryStore(t *testing.T) *ChromemStore {
	t.Helper()
	store, err := NewChromemStore("")
	if err != nil {
		t.Fatalf("NewChromemStore() error = %v", err)
	}
	return store
}

func testPoints() []Point {
	return []Point{
		{
			ID:  "p1",
			Vec: []float32{1, 0, 0},
			Meta: map[string]any{
				"library_id":  "lib-a",
				"document_id": "doc-1",
				"chunk_index": 0,
				"text":        "alpha content",
			},
		},
		{
			ID:  "p2",
			Vec: []float32{0, 1, 0},
			Meta: map[string]any{
				"library_id":  "lib-a",
				"document_id": "doc-2",
				"chunk_index": 0,
				"text":        "beta content",
			},
		},
		{
			ID:  "p3",
			Vec: []float32{0, 0, 1},
			Meta: map[string]any{
				"library_id":  "lib-b",
				"document_id": "doc-3",
				"chunk_index": 0,
				"text":        "gamma content",
			},
		},
	}
}

func TestChromemStore_UpsertAndSearch(t *testing.T) {
	store := newInMemoryStore(t)
	ctx := context.Background()

	if err := store.EnsureCollection(ctx, "docs", 3); err != nil {
		t.Fatalf("EnsureCollection() error = %v", err)
	}
	if err := store.Upsert(ctx, "docs", testPoints()); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	results, err := store.Search(ctx, "docs", []float32{1, 0, 0}, 3, nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Search() returned %d results, want 3", len(results))
	}
	if results[0].PointID != "p1" {
		t.Errorf("nearest point = %q, want p1", results[0].PointID)
	}
	if results[0].Score < results[1].Score {
		t.Error("results should be ordered by descending similarity")
	}
	if results[0].Meta["text"] != "alpha content" {
		t.Errorf(`Meta["text"] = %v, want alpha content`, results[0].Meta["text"])
	}
	if results[0].Meta["library_id"] != "lib-a" {
		t.Errorf(`Meta["library_id"] = %v, want lib-a`, results[0].Meta["library_id"])
	}
}

func TestChromemStore_Search_ClampsK(t *testing.T) {
	store := newInMemoryStore(t)
	ctx := context.Background()

	if err := store.Upsert(ctx, "docs", testPoints()[:2]); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	// k larger than the collection size is clamped, not an error.
	results, err := store.Search(ctx, "docs", []float32{1, 0, 0}, 50, nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Errorf("Search() returned %d results, want 2", len(results))
	}
}

func TestChromemStore_Search_EmptyCollection(t *testing.T) {
	store := newInMemoryStore(t)

	results, err := store.Search(context.Background(), "docs", []float32{1, 0, 0}, 5, nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Search() on empty collection returned %d results, want 0", len(results))
	}
}

func TestChromemStore_Search_InvalidK(t *testing.T) {
	store := newInMemoryStore(t)

	if _, err := store.Search(context.Background(), "docs", []float32{1, 0, 0}, 0, nil); err == nil {
		t.Error("Search() with k=0 should fail")
	}
}

func TestChromemStore_Search_Filters(t *testing.T) {
	store := newInMemoryStore(t)
	ctx := context.Background()

	if err := store.Upsert(ctx, "docs", testPoints()); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	results, err := store.Search(ctx, "docs", []float32{0, 0, 1}, 3, map[string]any{"library_id": "lib-a"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	for _, res := range results {
		if res.Meta["library_id"] != "lib-a" {
			t.Errorf("filtered search returned point from %v", res.Meta["library_id"])
		}
	}
	if len(results) == 0 {
		t.Error("filtered search returned no results")
	}
}

func TestChromemStore_Delete(t *testing.T) {
	store := newInMemoryStore(t)
	ctx := context.Background()

	if err := store.Upsert(ctx, "docs", testPoints()); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if err := store.Delete(ctx, "docs", []string{"p1", "p2"}); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	results, err := store.Search(ctx, "docs", []float32{1, 0, 0}, 5, nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Search() after delete returned %d results, want 1", len(results))
	}
	if results[0].PointID != "p3" {
		t.Errorf("remaining point = %q, want p3", results[0].PointID)
	}

	// Deleting nothing is a no-op.
	if err := store.Delete(ctx, "docs", nil); err != nil {
		t.Errorf("Delete() with no IDs error = %v", err)
	}
}

func TestChromemStore_Persistence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewChromemStore(dir)
	if err != nil {
		t.Fatalf("NewChromemStore() error = %v", err)
	}
	if err := store.Upsert(ctx, "docs", testPoints()[:1]); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	// A fresh store on the same path sees the data.
	reopened, err := NewChromemStore(dir)
	if err != nil {
		t.Fatalf("NewChromemStore() reopen error = %v", err)
	}
	results, err := reopened.Search(ctx, "docs", []float32{1, 0, 0}, 1, nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 || results[0].PointID != "p1" {
		t.Errorf("reopened store results = %+v, want p1", results)
	}
}

func TestStringifyMeta(t *testing.T) {
	got := stringifyMeta(map[string]any{
		"s": "str",
		"i": 42,
		"b": true,
	})
	want := map[string]string{"s": "str", "i": "42", "b": "true"}
	for key, value := range want {
		if got[key] != value {
			t.Errorf("stringifyMeta()[%q] = %q, want %q", key, got[key], value)
		}
	}

	if stringifyMeta(nil) != nil {
		t.Error("stringifyMeta(nil) should be nil")
	}
}
