package http

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/docstore/docstore/internal/handlers"
	"github.com/docstore/docstore/internal/ingest"
	"github.com/docstore/docstore/internal/llm"
	"github.com/docstore/docstore/internal/mcp"
	"github.com/docstore/docstore/internal/storage"
	"github.com/docstore/docstore/internal/vectorstore"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	DB                 *sql.DB
	LibraryRepo        storage.LibraryStore
	DocumentRepo       storage.DocumentStore
	ChunkRepo          storage.ChunkStore
	Pipeline           *ingest.Pipeline
	Embedder           llm.Embedder
	VectorStore        vectorstore.VectorStore
	Collection         string
	EmbeddingModelName string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)
	r.Use(LoggerMiddleware)

	healthHandler := handlers.NewHealthHandler(deps.DB)
	libraryHandler := handlers.NewLibraryHandler(deps.LibraryRepo, deps.Pipeline)
	documentHandler := handlers.NewDocumentHandler(deps.Pipeline, deps.DocumentRepo)
	searchHandler := handlers.NewSearchHandler(deps.Embedder, deps.VectorStore, deps.Collection)
	statsHandler := handlers.NewStatsHandler(deps.Pipeline, deps.EmbeddingModelName)
	mcpHandler := mcp.NewHandler(deps.LibraryRepo, deps.ChunkRepo)

	r.Method(http.MethodGet, "/healthz", healthHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/libraries", func(r chi.Router) {
			r.Post("/", libraryHandler.Create)
			r.Get("/", libraryHandler.List)
			r.Get("/{id}", libraryHandler.Get)
			r.Put("/{id}", libraryHandler.Update)
			r.Patch("/{id}", libraryHandler.Patch)
			r.Delete("/{id}", libraryHandler.Delete)
		})

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", documentHandler.Upload)
			r.Post("/fetch", documentHandler.Fetch)
			r.Get("/", documentHandler.List)
			r.Get("/{id}", documentHandler.Get)
			r.Delete("/{id}", documentHandler.Delete)
			r.Get("/{id}/content", documentHandler.GetContent)
			r.Put("/{id}/content", documentHandler.PutContent)
			r.Patch("/{id}/title", documentHandler.PatchTitle)
			r.Put("/{id}/library", documentHandler.PutLibrary)
			r.Post("/{id}/reindex", documentHandler.Reindex)
		})

		r.Method(http.MethodPost, "/search", searchHandler)
		r.Method(http.MethodGet, "/stats", statsHandler)
	})

	r.Method(http.MethodPost, "/mcp", mcpHandler)

	return r
}
