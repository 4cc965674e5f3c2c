package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/docstore/docstore/internal/contextutil"
	"github.com/docstore/docstore/internal/ingest"
	"github.com/docstore/docstore/internal/storage"
)

// LibraryHandler handles CRUD requests for documentation libraries.
type LibraryHandler struct {
	libraryRepo storage.LibraryStore
	pipeline    *ingest.Pipeline
}

// NewLibraryHandler creates a new LibraryHandler. Deletion goes through the
// pipeline so the documents' vectors are removed along with the rows.
func NewLibraryHandler(libraryRepo storage.LibraryStore, pipeline *ingest.Pipeline) *LibraryHandler {
	return &LibraryHandler{libraryRepo: libraryRepo, pipeline: pipeline}
}

// CreateLibraryRequest is the payload for registering a library.
type CreateLibraryRequest struct {
	Name            string   `json:"name" validate:"required"`
	Ecosystem       string   `json:"ecosystem"`
	Description     string   `json:"description"`
	Keywords        []string `json:"keywords"`
	PopularityScore int      `json:"popularity_score" validate:"gte=0,lte=100"`
}

// UpdateLibraryRequest is the payload for a full library update.
type UpdateLibraryRequest struct {
	Name            string   `json:"name" validate:"required"`
	Ecosystem       string   `json:"ecosystem"`
	Description     string   `json:"description"`
	Keywords        []string `json:"keywords"`
	PopularityScore int      `json:"popularity_score" validate:"gte=0,lte=100"`
}

// PatchLibraryRequest is the payload for a partial library update. Nil
// fields are left unchanged.
type PatchLibraryRequest struct {
	Name            *string   `json:"name,omitempty"`
	Ecosystem       *string   `json:"ecosystem,omitempty"`
	Description     *string   `json:"description,omitempty"`
	Keywords        *[]string `json:"keywords,omitempty"`
	PopularityScore *int      `json:"popularity_score,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// LibraryResponse is the JSON shape of a library.
type LibraryResponse struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Ecosystem       string   `json:"ecosystem"`
	Context7ID      string   `json:"context7_id"`
	Description     string   `json:"description"`
	Keywords        []string `json:"keywords"`
	PopularityScore int      `json:"popularity_score"`
	DocumentCount   int      `json:"document_count"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

func libraryResponse(lib *storage.LibraryRecord) LibraryResponse {
	keywords := lib.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return LibraryResponse{
		ID:              lib.ID,
		Name:            lib.Name,
		Ecosystem:       lib.Ecosystem,
		Context7ID:      lib.Context7ID,
		Description:     lib.Description,
		Keywords:        keywords,
		PopularityScore: lib.PopularityScore,
		DocumentCount:   lib.DocumentCount,
		CreatedAt:       lib.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       lib.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// Create registers a new library.
func (h *LibraryHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req CreateLibraryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	lib := &storage.LibraryRecord{
		Name:            req.Name,
		Ecosystem:       req.Ecosystem,
		Description:     req.Description,
		Keywords:        req.Keywords,
		PopularityScore: req.PopularityScore,
	}
	if err := h.libraryRepo.Create(ctx, lib); err != nil {
		logger.ErrorContext(ctx, "failed to create library", "name", req.Name, "error", err)
		writeStorageError(w, err, "Failed to create library")
		return
	}

	created, err := h.libraryRepo.GetByID(ctx, lib.ID)
	if err != nil {
		writeStorageError(w, err, "Failed to load created library")
		return
	}
	writeJSON(w, http.StatusCreated, libraryResponse(created))
}

// List returns all libraries, or those matching ?name= when given.
func (h *LibraryHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var (
		libraries []*storage.LibraryRecord
		err       error
	)
	if name := r.URL.Query().Get("name"); name != "" {
		libraries, err = h.libraryRepo.SearchByName(ctx, name)
	} else {
		libraries, err = h.libraryRepo.List(ctx)
	}
	if err != nil {
		logger.ErrorContext(ctx, "failed to list libraries", "error", err)
		writeStorageError(w, err, "Failed to list libraries")
		return
	}

	responses := make([]LibraryResponse, 0, len(libraries))
	for _, lib := range libraries {
		responses = append(responses, libraryResponse(lib))
	}
	writeJSON(w, http.StatusOK, responses)
}

// Get returns a single library by ID.
func (h *LibraryHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	lib, err := h.libraryRepo.GetByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeStorageError(w, err, "Failed to get library")
		return
	}
	writeJSON(w, http.StatusOK, libraryResponse(lib))
}

// Update replaces all mutable fields of a library.
func (h *LibraryHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req UpdateLibraryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	lib := &storage.LibraryRecord{
		ID:              chi.URLParam(r, "id"),
		Name:            req.Name,
		Ecosystem:       req.Ecosystem,
		Description:     req.Description,
		Keywords:        req.Keywords,
		PopularityScore: req.PopularityScore,
	}
	if err := h.libraryRepo.Update(ctx, lib); err != nil {
		logger.ErrorContext(ctx, "failed to update library", "library_id", lib.ID, "error", err)
		writeStorageError(w, err, "Failed to update library")
		return
	}

	updated, err := h.libraryRepo.GetByID(ctx, lib.ID)
	if err != nil {
		writeStorageError(w, err, "Failed to load updated library")
		return
	}
	writeJSON(w, http.StatusOK, libraryResponse(updated))
}

// Patch applies a partial update, leaving absent fields unchanged.
func (h *LibraryHandler) Patch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req PatchLibraryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	lib, err := h.libraryRepo.GetByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeStorageError(w, err, "Failed to get library")
		return
	}

	if req.Name != nil {
		lib.Name = *req.Name
	}
	if req.Ecosystem != nil {
		lib.Ecosystem = *req.Ecosystem
	}
	if req.Description != nil {
		lib.Description = *req.Description
	}
	if req.Keywords != nil {
		lib.Keywords = *req.Keywords
	}
	if req.PopularityScore != nil {
		lib.PopularityScore = *req.PopularityScore
	}

	if err := h.libraryRepo.Update(ctx, lib); err != nil {
		logger.ErrorContext(ctx, "failed to patch library", "library_id", lib.ID, "error", err)
		writeStorageError(w, err, "Failed to update library")
		return
	}

	updated, err := h.libraryRepo.GetByID(ctx, lib.ID)
	if err != nil {
		writeStorageError(w, err, "Failed to load updated library")
		return
	}
	writeJSON(w, http.StatusOK, libraryResponse(updated))
}

// Delete removes a library, its documents, chunks and indexed vectors.
func (h *LibraryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id := chi.URLParam(r, "id")
	if err := h.pipeline.DeleteLibrary(ctx, id); err != nil {
		logger.ErrorContext(ctx, "failed to delete library", "library_id", id, "error", err)
		writeStorageError(w, err, "Failed to delete library")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
