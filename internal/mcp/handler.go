package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/docstore/docstore/internal/contextutil"
	"github.com/docstore/docstore/internal/ranker"
	"github.com/docstore/docstore/internal/storage"
)

var validate = validator.New()

// Handler serves the Context7-compatible MCP endpoint. Only the
// "tools/call" method is supported, with the resolve-library-id and
// query-docs tools.
type Handler struct {
	libraryRepo storage.LibraryStore
	chunkRepo   storage.ChunkStore
}

// NewHandler creates the MCP handler.
func NewHandler(libraryRepo storage.LibraryStore, chunkRepo storage.ChunkStore) *Handler {
	return &Handler{
		libraryRepo: libraryRepo,
		chunkRepo:   chunkRepo,
	}
}

// ServeHTTP handles a JSON-RPC 2.0 request over HTTP POST.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRPCError(w, nil, CodeInvalidRequest, "invalid JSON-RPC request")
		return
	}

	if req.Method != "tools/call" {
		writeRPCError(w, req.ID, CodeMethodNotFound,
			fmt.Sprintf("unsupported method: %s. Only 'tools/call' is supported.", req.Method))
		return
	}

	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var (
		text string
		err  error
	)
	switch req.Params.Name {
	case "resolve-library-id":
		var args resolveLibraryIDArgs
		if jsonErr := json.Unmarshal(req.Params.Arguments, &args); jsonErr != nil {
			writeRPCError(w, req.ID, CodeInvalidParams, "invalid arguments for resolve-library-id")
			return
		}
		if validate.Struct(args) != nil {
			writeRPCError(w, req.ID, CodeInvalidParams, "libraryName is required")
			return
		}
		text, err = h.resolveLibraryID(ctx, args.LibraryName)

	case "query-docs":
		var args queryDocsArgs
		if jsonErr := json.Unmarshal(req.Params.Arguments, &args); jsonErr != nil {
			writeRPCError(w, req.ID, CodeInvalidParams, "invalid arguments for query-docs")
			return
		}
		if validate.Struct(args) != nil {
			writeRPCError(w, req.ID, CodeInvalidParams, "libraryId and query are required")
			return
		}
		text, err = h.queryDocs(ctx, args.LibraryID, args.Query)

	default:
		writeRPCError(w, req.ID, CodeInvalidParams,
			fmt.Sprintf("unknown tool: %s", req.Params.Name))
		return
	}

	if err != nil {
		logger.ErrorContext(ctx, "tool invocation failed", "tool", req.Params.Name, "error", err)
		writeRPCError(w, req.ID, CodeInvalidRequest, "tool invocation failed")
		return
	}

	writeResponse(w, Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  textResult(text),
	})
}

// resolveLibraryID formats the libraries matching name as Context7-style
// text, one section per library separated by dashed lines. An empty match
// list is reported in the text, not as an RPC error.
func (h *Handler) resolveLibraryID(ctx context.Context, name string) (string, error) {
	libraries, err := h.libraryRepo.SearchByName(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to search libraries: %w", err)
	}

	if len(libraries) == 0 {
		return fmt.Sprintf("No libraries found matching %q. Try a different name.", name), nil
	}

	var b strings.Builder
	b.WriteString("Available Libraries (top matches):\n\n")
	for i, lib := range libraries {
		if i > 0 {
			b.WriteString("----------\n")
		}
		fmt.Fprintf(&b, "- Title: %s\n", lib.Name)
		fmt.Fprintf(&b, "- Context7-compatible library ID: %s\n", lib.Context7ID)
		if lib.Description != "" {
			fmt.Fprintf(&b, "- Description: %s\n", lib.Description)
		}
		fmt.Fprintf(&b, "- Code Snippets: %d\n", lib.DocumentCount)
		fmt.Fprintf(&b, "- Trust Score: %d\n", lib.PopularityScore)
	}
	return b.String(), nil
}

// queryDocs returns the most relevant stored chunk texts for the query,
// assembled by keyword relevance under the response size budget.
func (h *Handler) queryDocs(ctx context.Context, libraryID, query string) (string, error) {
	lib, err := h.libraryRepo.GetByContext7ID(ctx, libraryID)
	if errors.Is(err, storage.ErrNotFound) {
		// Allow raw UUIDs too.
		lib, err = h.libraryRepo.GetByID(ctx, libraryID)
	}
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Sprintf("Library %q not found. Use resolve-library-id to find a valid library ID.", libraryID), nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve library: %w", err)
	}

	texts, err := h.chunkRepo.ListTextsByLibrary(ctx, lib.ID)
	if err != nil {
		return "", fmt.Errorf("failed to load chunks: %w", err)
	}

	if len(texts) == 0 {
		return fmt.Sprintf("No documentation indexed for %q yet.", lib.Name), nil
	}

	return ranker.BuildResponse(query, texts), nil
}

func writeRPCError(w http.ResponseWriter, id any, code int, message string) {
	writeResponse(w, Response{
		JSONRPC: "2.0",
		ID:      id,
		Error: &Error{
			Code:    code,
			Message: message,
		},
	})
}

func writeResponse(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
