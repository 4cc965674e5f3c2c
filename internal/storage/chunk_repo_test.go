package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
)

func newTestChunkRepo(t *testing.T) (*ChunkRepo, *sql.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewChunkRepo(db), db
}

func createTestDocument(t *testing.T, db *sql.DB, libraryID, title string) string {
	t.Helper()
	doc := &DocumentRecord{LibraryID: libraryID, Title: title, Content: "content", ContentHash: "hash"}
	if err := NewDocumentRepo(db).Create(context.Background(), doc); err != nil {
		t.Fatalf("Create() document error = %v", err)
	}
	return doc.ID
}

func TestChunkRepo_InsertAndGet(t *testing.T) {
	repo, db := newTestChunkRepo(t)
	libID := createTestLibrary(t, db, "react")
	docID := createTestDocument(t, db, libID, "Hooks")
	ctx := context.Background()

	chunk := &ChunkRecord{
		ID:           "chunk-1",
		DocumentID:   docID,
		ChunkIndex:   0,
		SectionTitle: "Introduction",
		Text:         "useState is a hook.",
	}
	if err := repo.Insert(ctx, chunk); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	got, err := repo.GetByID(ctx, "chunk-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.DocumentID != docID {
		t.Errorf("DocumentID = %q, want %q", got.DocumentID, docID)
	}
	if got.SectionTitle != "Introduction" {
		t.Errorf("SectionTitle = %q, want %q", got.SectionTitle, "Introduction")
	}
	if got.Text != chunk.Text {
		t.Errorf("Text = %q, want %q", got.Text, chunk.Text)
	}
}

func TestChunkRepo_GetByID_NotFound(t *testing.T) {
	repo, _ := newTestChunkRepo(t)

	_, err := repo.GetByID(context.Background(), "no-such-chunk")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestChunkRepo_Insert_DuplicateID(t *testing.T) {
	repo, db := newTestChunkRepo(t)
	libID := createTestLibrary(t, db, "react")
	docID := createTestDocument(t, db, libID, "Hooks")
	ctx := context.Background()

	chunk := &ChunkRecord{ID: "chunk-1", DocumentID: docID, ChunkIndex: 0, Text: "a"}
	if err := repo.Insert(ctx, chunk); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := repo.Insert(ctx, chunk); err == nil {
		t.Error("Insert() with duplicate ID should fail")
	}
}

func TestChunkRepo_ListByDocument(t *testing.T) {
	repo, db := newTestChunkRepo(t)
	libID := createTestLibrary(t, db, "react")
	docID := createTestDocument(t, db, libID, "Hooks")
	otherDocID := createTestDocument(t, db, libID, "Context")
	ctx := context.Background()

	// Insert out of order; listing must come back sorted by chunk_index.
	for _, idx := range []int{2, 0, 1} {
		chunk := &ChunkRecord{
			ID:         fmt.Sprintf("chunk-%d", idx),
			DocumentID: docID,
			ChunkIndex: idx,
			Text:       fmt.Sprintf("text %d", idx),
		}
		if err := repo.Insert(ctx, chunk); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}
	other := &ChunkRecord{ID: "other-chunk", DocumentID: otherDocID, ChunkIndex: 0, Text: "other"}
	if err := repo.Insert(ctx, other); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	chunks, err := repo.ListByDocument(ctx, docID)
	if err != nil {
		t.Fatalf("ListByDocument() error = %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("ListByDocument() returned %d chunks, want 3", len(chunks))
	}
	for i, chunk := range chunks {
		if chunk.ChunkIndex != i {
			t.Errorf("ListByDocument()[%d].ChunkIndex = %d, want %d", i, chunk.ChunkIndex, i)
		}
	}

	ids, err := repo.ListIDsByDocument(ctx, docID)
	if err != nil {
		t.Fatalf("ListIDsByDocument() error = %v", err)
	}
	wantIDs := []string{"chunk-0", "chunk-1", "chunk-2"}
	if len(ids) != len(wantIDs) {
		t.Fatalf("ListIDsByDocument() returned %d IDs, want %d", len(ids), len(wantIDs))
	}
	for i, id := range ids {
		if id != wantIDs[i] {
			t.Errorf("ListIDsByDocument()[%d] = %q, want %q", i, id, wantIDs[i])
		}
	}
}

func TestChunkRepo_ListByDocument_Empty(t *testing.T) {
	repo, db := newTestChunkRepo(t)
	libID := createTestLibrary(t, db, "react")
	docID := createTestDocument(t, db, libID, "Empty")
	ctx := context.Background()

	chunks, err := repo.ListByDocument(ctx, docID)
	if err != nil {
		t.Fatalf("ListByDocument() error = %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("ListByDocument() returned %d chunks, want 0", len(chunks))
	}

	ids, err := repo.ListIDsByDocument(ctx, docID)
	if err != nil {
		t.Fatalf("ListIDsByDocument() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("ListIDsByDocument() returned %d IDs, want 0", len(ids))
	}
}

func TestChunkRepo_DeleteByDocument(t *testing.T) {
	repo, db := newTestChunkRepo(t)
	libID := createTestLibrary(t, db, "react")
	docID := createTestDocument(t, db, libID, "Hooks")
	keepDocID := createTestDocument(t, db, libID, "Context")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		chunk := &ChunkRecord{ID: fmt.Sprintf("del-%d", i), DocumentID: docID, ChunkIndex: i, Text: "t"}
		if err := repo.Insert(ctx, chunk); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}
	keep := &ChunkRecord{ID: "keep-0", DocumentID: keepDocID, ChunkIndex: 0, Text: "t"}
	if err := repo.Insert(ctx, keep); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	if err := repo.DeleteByDocument(ctx, docID); err != nil {
		t.Fatalf("DeleteByDocument() error = %v", err)
	}

	chunks, err := repo.ListByDocument(ctx, docID)
	if err != nil {
		t.Fatalf("ListByDocument() error = %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("chunks remaining after DeleteByDocument() = %d, want 0", len(chunks))
	}

	if _, err := repo.GetByID(ctx, "keep-0"); err != nil {
		t.Errorf("DeleteByDocument() removed chunk of another document: %v", err)
	}

	// Deleting chunks of a document that has none is not an error.
	if err := repo.DeleteByDocument(ctx, docID); err != nil {
		t.Errorf("DeleteByDocument() second run error = %v", err)
	}
}

func TestChunkRepo_ListTextsByLibrary(t *testing.T) {
	repo, db := newTestChunkRepo(t)
	ctx := context.Background()

	reactID := createTestLibrary(t, db, "react")
	vueID := createTestLibrary(t, db, "vue")

	docA := createTestDocument(t, db, reactID, "First")
	docB := createTestDocument(t, db, reactID, "Second")
	setCreatedAt(t, db, docA, "2025-01-01 10:00:00")
	setCreatedAt(t, db, docB, "2025-01-02 10:00:00")

	inserts := []*ChunkRecord{
		{ID: "b-1", DocumentID: docB, ChunkIndex: 1, Text: "second doc, second chunk"},
		{ID: "a-0", DocumentID: docA, ChunkIndex: 0, Text: "first doc, first chunk"},
		{ID: "b-0", DocumentID: docB, ChunkIndex: 0, Text: "second doc, first chunk"},
		{ID: "a-1", DocumentID: docA, ChunkIndex: 1, Text: "first doc, second chunk"},
	}
	for _, chunk := range inserts {
		if err := repo.Insert(ctx, chunk); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	vueDoc := createTestDocument(t, db, vueID, "Vue")
	vueChunk := &ChunkRecord{ID: "v-0", DocumentID: vueDoc, ChunkIndex: 0, Text: "vue chunk"}
	if err := repo.Insert(ctx, vueChunk); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	texts, err := repo.ListTextsByLibrary(ctx, reactID)
	if err != nil {
		t.Fatalf("ListTextsByLibrary() error = %v", err)
	}

	want := []string{
		"first doc, first chunk",
		"first doc, second chunk",
		"second doc, first chunk",
		"second doc, second chunk",
	}
	if len(texts) != len(want) {
		t.Fatalf("ListTextsByLibrary() returned %d texts, want %d", len(texts), len(want))
	}
	for i, text := range texts {
		if text != want[i] {
			t.Errorf("ListTextsByLibrary()[%d] = %q, want %q", i, text, want[i])
		}
	}

	texts, err = repo.ListTextsByLibrary(ctx, "no-such-library")
	if err != nil {
		t.Fatalf("ListTextsByLibrary() error = %v", err)
	}
	if len(texts) != 0 {
		t.Errorf("ListTextsByLibrary() for unknown library returned %d texts, want 0", len(texts))
	}
}
