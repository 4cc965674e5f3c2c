package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/docstore/docstore/internal/contextutil"
	"github.com/docstore/docstore/internal/ingest"
	"github.com/docstore/docstore/internal/storage"
)

// DocumentHandler handles document upload, retrieval and lifecycle requests.
type DocumentHandler struct {
	pipeline     *ingest.Pipeline
	documentRepo storage.DocumentStore
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(pipeline *ingest.Pipeline, documentRepo storage.DocumentStore) *DocumentHandler {
	return &DocumentHandler{
		pipeline:     pipeline,
		documentRepo: documentRepo,
	}
}

// UploadDocumentRequest is the payload for uploading raw document content.
type UploadDocumentRequest struct {
	LibraryID string `json:"library_id" validate:"required"`
	Title     string `json:"title" validate:"required"`
	Content   string `json:"content" validate:"required"`
}

// FetchDocumentRequest is the payload for ingesting a document by URL.
type FetchDocumentRequest struct {
	LibraryID string `json:"library_id" validate:"required"`
	Title     string `json:"title"`
	URL       string `json:"url" validate:"required,url"`
}

// UpdateContentRequest is the payload for replacing document content.
type UpdateContentRequest struct {
	Content string `json:"content" validate:"required"`
}

// PatchTitleRequest is the payload for renaming a document.
type PatchTitleRequest struct {
	Title string `json:"title" validate:"required"`
}

// MoveDocumentRequest is the payload for moving a document between libraries.
type MoveDocumentRequest struct {
	LibraryID string `json:"library_id" validate:"required"`
}

// DocumentResponse is the JSON shape of a document, without its content.
type DocumentResponse struct {
	ID            string `json:"id"`
	LibraryID     string `json:"library_id"`
	Title         string `json:"title"`
	SourceURL     string `json:"source_url,omitempty"`
	ContentHash   string `json:"content_hash"`
	HasEmbeddings bool   `json:"has_embeddings"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

// DocumentContentResponse carries the raw stored content.
type DocumentContentResponse struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

func documentResponse(doc *storage.DocumentRecord) DocumentResponse {
	return DocumentResponse{
		ID:            doc.ID,
		LibraryID:     doc.LibraryID,
		Title:         doc.Title,
		SourceURL:     doc.SourceURL,
		ContentHash:   doc.ContentHash,
		HasEmbeddings: doc.HasEmbeddings,
		CreatedAt:     doc.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     doc.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// Upload ingests raw document content into a library.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req UploadDocumentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	doc, err := h.pipeline.Upload(ctx, req.LibraryID, req.Title, req.Content)
	if err != nil {
		logger.ErrorContext(ctx, "failed to upload document", "library_id", req.LibraryID, "error", err)
		writeStorageError(w, err, "Failed to upload document")
		return
	}
	writeJSON(w, http.StatusCreated, documentResponse(doc))
}

// Fetch downloads a document from a URL and ingests it.
func (h *DocumentHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req FetchDocumentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	doc, err := h.pipeline.FetchURL(ctx, req.LibraryID, req.Title, req.URL)
	if err != nil {
		logger.ErrorContext(ctx, "failed to fetch document", "url", req.URL, "error", err)
		writeIngestError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, documentResponse(doc))
}

// List returns documents, filtered by ?library_id= and paged by
// ?limit=/?offset=.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	limit := queryInt(r, "limit", -1)
	offset := queryInt(r, "offset", 0)

	docs, err := h.documentRepo.List(ctx, r.URL.Query().Get("library_id"), limit, offset)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list documents", "error", err)
		writeStorageError(w, err, "Failed to list documents")
		return
	}

	responses := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		responses = append(responses, documentResponse(doc))
	}
	writeJSON(w, http.StatusOK, responses)
}

// Get returns document metadata by ID.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.documentRepo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStorageError(w, err, "Failed to get document")
		return
	}
	writeJSON(w, http.StatusOK, documentResponse(doc))
}

// GetContent returns the raw stored content of a document.
func (h *DocumentHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	doc, err := h.documentRepo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStorageError(w, err, "Failed to get document")
		return
	}
	writeJSON(w, http.StatusOK, DocumentContentResponse{ID: doc.ID, Content: doc.Content})
}

// PutContent replaces document content and reindexes it. Unchanged content
// is a no-op.
func (h *DocumentHandler) PutContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req UpdateContentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.pipeline.UpdateContent(ctx, id, req.Content); err != nil {
		logger.ErrorContext(ctx, "failed to update document content", "document_id", id, "error", err)
		writeIngestError(w, err)
		return
	}

	doc, err := h.documentRepo.GetByID(ctx, id)
	if err != nil {
		writeStorageError(w, err, "Failed to load updated document")
		return
	}
	writeJSON(w, http.StatusOK, documentResponse(doc))
}

// PatchTitle renames a document.
func (h *DocumentHandler) PatchTitle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req PatchTitleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.documentRepo.UpdateTitle(ctx, id, req.Title); err != nil {
		writeStorageError(w, err, "Failed to update title")
		return
	}

	doc, err := h.documentRepo.GetByID(ctx, id)
	if err != nil {
		writeStorageError(w, err, "Failed to load updated document")
		return
	}
	writeJSON(w, http.StatusOK, documentResponse(doc))
}

// PutLibrary moves a document to another library.
func (h *DocumentHandler) PutLibrary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req MoveDocumentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.documentRepo.UpdateLibrary(ctx, id, req.LibraryID); err != nil {
		writeStorageError(w, err, "Failed to move document")
		return
	}

	doc, err := h.documentRepo.GetByID(ctx, id)
	if err != nil {
		writeStorageError(w, err, "Failed to load updated document")
		return
	}
	writeJSON(w, http.StatusOK, documentResponse(doc))
}

// Reindex rebuilds a document's chunks and embeddings.
func (h *DocumentHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id := chi.URLParam(r, "id")
	if err := h.pipeline.Reindex(ctx, id); err != nil {
		logger.ErrorContext(ctx, "failed to reindex document", "document_id", id, "error", err)
		writeIngestError(w, err)
		return
	}

	doc, err := h.documentRepo.GetByID(ctx, id)
	if err != nil {
		writeStorageError(w, err, "Failed to load document")
		return
	}
	writeJSON(w, http.StatusOK, documentResponse(doc))
}

// Delete removes a document, its chunks and their vectors.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id := chi.URLParam(r, "id")
	if err := h.pipeline.DeleteDocument(ctx, id); err != nil {
		writeStorageError(w, err, "Failed to delete document")
		return
	}

	logger.InfoContext(ctx, "deleted document", "document_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// writeIngestError maps pipeline failures: storage errors keep their usual
// codes, everything else (embedder, vector store, fetch) is an upstream
// failure.
func writeIngestError(w http.ResponseWriter, err error) {
	if isStorageError(err) {
		writeStorageError(w, err, "Failed to process document")
		return
	}
	writeError(w, http.StatusBadGateway, "External service error")
}

func queryInt(r *http.Request, key string, fallback int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}
