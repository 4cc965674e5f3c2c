package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/docstore/docstore/internal/storage"
)

func newTestHandler(t *testing.T) (*Handler, *storage.LibraryRepo, *storage.DocumentRepo, *storage.ChunkRepo) {
	t.Helper()

	db, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	libraryRepo := storage.NewLibraryRepo(db)
	docRepo := storage.NewDocumentRepo(db)
	chunkRepo := storage.NewChunkRepo(db)
	return NewHandler(libraryRepo, chunkRepo), libraryRepo, docRepo, chunkRepo
}

// call posts a raw JSON-RPC body and decodes the response.
func call(t *testing.T, h *Handler, body string) (Response, int) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp, rec.Code
}

func callTool(t *testing.T, h *Handler, tool string, args any) (Response, int) {
	t.Helper()

	rawArgs, err := json.Marshal(args)
	if err != nil {
		t.Fatalf("failed to marshal arguments: %v", err)
	}
	body, err := json.Marshal(Request{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  Params{Name: tool, Arguments: rawArgs},
	})
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}
	return call(t, h, string(body))
}

func resultText(t *testing.T, resp Response) string {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("unexpected RPC error: %d %s", resp.Error.Code, resp.Error.Message)
	}
	if resp.Result == nil || len(resp.Result.Content) == 0 {
		t.Fatal("response has no content")
	}
	return resp.Result.Content[0].Text
}

func TestHandler_InvalidJSON(t *testing.T) {
	h, _, _, _ := newTestHandler(t)

	resp, code := call(t, h, "{not json")
	if code != http.StatusOK {
		t.Errorf("HTTP status = %d, want 200", code)
	}
	if resp.Error == nil || resp.Error.Code != CodeInvalidRequest {
		t.Errorf("error = %+v, want code %d", resp.Error, CodeInvalidRequest)
	}
}

func TestHandler_MethodNotFound(t *testing.T) {
	h, _, _, _ := newTestHandler(t)

	resp, _ := call(t, h, `{"jsonrpc":"2.0","id":7,"method":"tools/list"}`)
	if resp.Error == nil || resp.Error.Code != CodeMethodNotFound {
		t.Errorf("error = %+v, want code %d", resp.Error, CodeMethodNotFound)
	}
	if resp.ID != float64(7) {
		t.Errorf("response ID = %v, want 7", resp.ID)
	}
}

func TestHandler_UnknownTool(t *testing.T) {
	h, _, _, _ := newTestHandler(t)

	resp, _ := callTool(t, h, "no-such-tool", map[string]string{})
	if resp.Error == nil || resp.Error.Code != CodeInvalidParams {
		t.Errorf("error = %+v, want code %d", resp.Error, CodeInvalidParams)
	}
}

func TestHandler_ResolveLibraryID_MissingArgs(t *testing.T) {
	h, _, _, _ := newTestHandler(t)

	resp, _ := callTool(t, h, "resolve-library-id", map[string]string{})
	if resp.Error == nil || resp.Error.Code != CodeInvalidParams {
		t.Errorf("error = %+v, want code %d", resp.Error, CodeInvalidParams)
	}
}

func TestHandler_QueryDocs_MissingArgs(t *testing.T) {
	h, _, _, _ := newTestHandler(t)

	resp, _ := callTool(t, h, "query-docs", map[string]string{"libraryId": "/npm/react"})
	if resp.Error == nil || resp.Error.Code != CodeInvalidParams {
		t.Errorf("error = %+v, want code %d", resp.Error, CodeInvalidParams)
	}
}

func TestHandler_ResolveLibraryID(t *testing.T) {
	h, libraryRepo, _, _ := newTestHandler(t)
	ctx := context.Background()

	react := &storage.LibraryRecord{
		Name:            "react",
		Ecosystem:       "npm",
		Context7ID:      "/npm/react",
		Description:     "A JavaScript library for building user interfaces",
		PopularityScore: 95,
	}
	if err := libraryRepo.Create(ctx, react); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	reactRouter := &storage.LibraryRecord{
		Name:       "react-router",
		Ecosystem:  "npm",
		Context7ID: "/npm/react-router",
	}
	if err := libraryRepo.Create(ctx, reactRouter); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	resp, code := callTool(t, h, "resolve-library-id", map[string]string{"libraryName": "react"})
	if code != http.StatusOK {
		t.Errorf("HTTP status = %d, want 200", code)
	}
	text := resultText(t, resp)

	if !strings.HasPrefix(text, "Available Libraries (top matches):") {
		t.Errorf("text should start with the header, got %q", text)
	}
	for _, want := range []string{
		"- Title: react\n",
		"- Context7-compatible library ID: /npm/react\n",
		"- Description: A JavaScript library for building user interfaces\n",
		"- Trust Score: 95\n",
		"- Context7-compatible library ID: /npm/react-router\n",
		"----------\n",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("text missing %q:\n%s", want, text)
		}
	}

	// The exact name match should rank first.
	if strings.Index(text, "/npm/react\n") > strings.Index(text, "/npm/react-router") {
		t.Errorf("exact match should come first:\n%s", text)
	}
}

func TestHandler_ResolveLibraryID_NoMatches(t *testing.T) {
	h, _, _, _ := newTestHandler(t)

	resp, _ := callTool(t, h, "resolve-library-id", map[string]string{"libraryName": "nonexistent"})
	text := resultText(t, resp)
	if !strings.Contains(text, `No libraries found matching "nonexistent"`) {
		t.Errorf("text = %q, want a not-found message", text)
	}
}

func TestHandler_QueryDocs(t *testing.T) {
	h, libraryRepo, docRepo, chunkRepo := newTestHandler(t)
	ctx := context.Background()

	lib := &storage.LibraryRecord{Name: "react", Ecosystem: "npm", Context7ID: "/npm/react"}
	if err := libraryRepo.Create(ctx, lib); err != nil {
		t.Fatalf("Create() library error = %v", err)
	}
	doc := &storage.DocumentRecord{LibraryID: lib.ID, Title: "Guide", Content: "c", ContentHash: "h"}
	if err := docRepo.Create(ctx, doc); err != nil {
		t.Fatalf("Create() document error = %v", err)
	}

	texts := []string{
		"Routing is configured with nested route objects.",
		"Authentication uses tokens stored in secure cookies. Refresh the authentication token before expiry.",
		"Styling is handled by CSS modules.",
	}
	for i, text := range texts {
		chunk := &storage.ChunkRecord{ID: chunkID(i), DocumentID: doc.ID, ChunkIndex: i, Text: text}
		if err := chunkRepo.Insert(ctx, chunk); err != nil {
			t.Fatalf("Insert() chunk error = %v", err)
		}
	}

	t.Run("by context7 id", func(t *testing.T) {
		resp, _ := callTool(t, h, "query-docs", map[string]string{
			"libraryId": "/npm/react",
			"query":     "authentication tokens",
		})
		text := resultText(t, resp)
		if !strings.Contains(text, "Authentication uses tokens") {
			t.Errorf("response missing the relevant chunk:\n%s", text)
		}
		// The keyword match should lead the response.
		if !strings.HasPrefix(text, "Authentication uses tokens") {
			t.Errorf("relevant chunk should come first:\n%s", text)
		}
	})

	t.Run("by raw uuid", func(t *testing.T) {
		resp, _ := callTool(t, h, "query-docs", map[string]string{
			"libraryId": lib.ID,
			"query":     "routing",
		})
		text := resultText(t, resp)
		if !strings.Contains(text, "Routing is configured") {
			t.Errorf("response missing the relevant chunk:\n%s", text)
		}
	})
}

func TestHandler_QueryDocs_UnknownLibrary(t *testing.T) {
	h, _, _, _ := newTestHandler(t)

	resp, code := callTool(t, h, "query-docs", map[string]string{
		"libraryId": "/npm/ghost",
		"query":     "anything",
	})
	if code != http.StatusOK {
		t.Errorf("HTTP status = %d, want 200", code)
	}
	text := resultText(t, resp)
	if !strings.Contains(text, `Library "/npm/ghost" not found`) {
		t.Errorf("text = %q, want a not-found message", text)
	}
}

func TestHandler_QueryDocs_NoChunks(t *testing.T) {
	h, libraryRepo, _, _ := newTestHandler(t)
	ctx := context.Background()

	lib := &storage.LibraryRecord{Name: "vue", Ecosystem: "npm", Context7ID: "/npm/vue"}
	if err := libraryRepo.Create(ctx, lib); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	resp, _ := callTool(t, h, "query-docs", map[string]string{
		"libraryId": "/npm/vue",
		"query":     "anything",
	})
	text := resultText(t, resp)
	if !strings.Contains(text, `No documentation indexed for "vue" yet.`) {
		t.Errorf("text = %q, want a no-docs message", text)
	}
}

func chunkID(i int) string {
	return "chunk-" + string(rune('a'+i))
}
