package handlers

import (
	"net/http"

	"github.com/docstore/docstore/internal/contextutil"
	"github.com/docstore/docstore/internal/llm"
	"github.com/docstore/docstore/internal/vectorstore"
)

// DefaultSearchK is how many results a search returns when k is unset.
const DefaultSearchK = 5

// SearchHandler handles vector similarity search requests.
type SearchHandler struct {
	embedder    llm.Embedder
	vectorStore vectorstore.VectorStore
	collection  string
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(embedder llm.Embedder, vectorStore vectorstore.VectorStore, collection string) *SearchHandler {
	return &SearchHandler{
		embedder:    embedder,
		vectorStore: vectorStore,
		collection:  collection,
	}
}

// SearchRequest is the payload for a similarity search.
type SearchRequest struct {
	Query      string `json:"query" validate:"required"`
	K          int    `json:"k,omitempty" validate:"gte=0,lte=100"`
	LibraryID  string `json:"library_id,omitempty"`
	DocumentID string `json:"document_id,omitempty"`
}

// SearchResultResponse is one search hit.
type SearchResultResponse struct {
	ChunkID      string  `json:"chunk_id"`
	Score        float32 `json:"score"`
	Text         string  `json:"text,omitempty"`
	LibraryID    string  `json:"library_id,omitempty"`
	DocumentID   string  `json:"document_id,omitempty"`
	SectionTitle string  `json:"section_title,omitempty"`
}

// SearchResponse is the full search result set.
type SearchResponse struct {
	Query   string                 `json:"query"`
	Results []SearchResultResponse `json:"results"`
}

// ServeHTTP embeds the query and runs a filtered vector search.
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req SearchRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	k := req.K
	if k == 0 {
		k = DefaultSearchK
	}

	vectors, err := h.embedder.EmbedTexts(ctx, []string{req.Query})
	if err != nil {
		logger.ErrorContext(ctx, "failed to embed query", "error", err)
		writeError(w, http.StatusBadGateway, "Embeddings service error")
		return
	}

	filters := make(map[string]any)
	if req.LibraryID != "" {
		filters["library_id"] = req.LibraryID
	}
	if req.DocumentID != "" {
		filters["document_id"] = req.DocumentID
	}

	results, err := h.vectorStore.Search(ctx, h.collection, vectors[0], k, filters)
	if err != nil {
		logger.ErrorContext(ctx, "failed to search vectors", "k", k, "error", err)
		writeError(w, http.StatusServiceUnavailable, "Vector store unavailable")
		return
	}

	response := SearchResponse{
		Query:   req.Query,
		Results: make([]SearchResultResponse, 0, len(results)),
	}
	for _, res := range results {
		response.Results = append(response.Results, SearchResultResponse{
			ChunkID:      res.PointID,
			Score:        res.Score,
			Text:         metaString(res.Meta, "text"),
			LibraryID:    metaString(res.Meta, "library_id"),
			DocumentID:   metaString(res.Meta, "document_id"),
			SectionTitle: metaString(res.Meta, "section_title"),
		})
	}

	writeJSON(w, http.StatusOK, response)
}

func metaString(meta map[string]any, key string) string {
	if meta == nil {
		return ""
	}
	if s, ok := meta[key].(string); ok {
		return s
	}
	return ""
}
