package vectorstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/docstore/docstore/internal/contextutil"
)

// ChromemStore implements VectorStore using chromem-go, an embedded vector
// database persisted to a local directory. It is the default engine: no
// external service required, one table-like collection per logical scope.
type ChromemStore struct {
	db *chromem.DB

	mu          sync.Mutex
	collections map[string]*chromem.Collection
}

// NewChromemStore opens (or creates) an embedded vector database at path.
// An empty path keeps the store purely in memory, which is what tests use.
func NewChromemStore(path string) (*ChromemStore, error) {
	var db *chromem.DB
	if path == "" {
		db = chromem.NewDB()
	} else {
		var err error
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open chromem database: %w", err)
		}
	}
	return &ChromemStore{
		db:          db,
		collections: make(map[string]*chromem.Collection),
	}, nil
}

// EnsureCollection creates the collection when missing. chromem infers the
// vector size from the first stored embedding, so vectorSize is only kept
// for interface compatibility.
func (s *ChromemStore) EnsureCollection(_ context.Context, collection string, _ int) error {
	_, err := s.collection(collection)
	return err
}

func (s *ChromemStore) collection(name string) (*chromem.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if col, ok := s.collections[name]; ok {
		return col, nil
	}
	col, err := s.db.GetOrCreateCollection(name, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %q: %w", name, err)
	}
	s.collections[name] = col
	return col, nil
}

// Upsert inserts or updates points in the collection. The point's "text"
// metadata value, when present, becomes the document content so search
// results can be displayed without a storage round trip.
func (s *ChromemStore) Upsert(ctx context.Context, collection string, points []Point) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(points) == 0 {
		return nil
	}

	col, err := s.collection(collection)
	if err != nil {
		return err
	}

	for _, point := range points {
		doc := chromem.Document{
			ID:        point.ID,
			Embedding: point.Vec,
			Metadata:  stringifyMeta(point.Meta),
		}
		if text, ok := point.Meta["text"].(string); ok {
			doc.Content = text
		}
		if err := col.AddDocument(ctx, doc); err != nil {
			logger.ErrorContext(ctx, "failed to upsert point", "collection", collection, "id", point.ID, "error", err)
			return fmt.Errorf("failed to upsert point: %w", err)
		}
	}

	logger.InfoContext(ctx, "upserted points", "collection", collection, "count", len(points))
	return nil
}

// Search performs a similarity search with optional metadata filters.
// k is clamped to the collection size; an empty collection yields no results.
func (s *ChromemStore) Search(ctx context.Context, collection string, query []float32, k int, filters map[string]any) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	col, err := s.collection(collection)
	if err != nil {
		return nil, err
	}

	if count := col.Count(); k > count {
		k = count
	}
	if k == 0 {
		return nil, nil
	}

	results, err := col.QueryEmbedding(ctx, query, k, stringifyMeta(filters), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	searchResults := make([]SearchResult, 0, len(results))
	for _, res := range results {
		meta := make(map[string]any, len(res.Metadata)+1)
		for key, value := range res.Metadata {
			meta[key] = value
		}
		if res.Content != "" {
			meta["text"] = res.Content
		}
		searchResults = append(searchResults, SearchResult{
			PointID: res.ID,
			Score:   res.Similarity,
			Meta:    meta,
		})
	}
	return searchResults, nil
}

// Delete removes points by their IDs.
func (s *ChromemStore) Delete(ctx context.Context, collection string, ids []string) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(ids) == 0 {
		return nil
	}

	col, err := s.collection(collection)
	if err != nil {
		return err
	}

	if err := col.Delete(ctx, nil, nil, ids...); err != nil {
		logger.ErrorContext(ctx, "failed to delete points", "collection", collection, "count", len(ids), "error", err)
		return fmt.Errorf("failed to delete points: %w", err)
	}

	logger.InfoContext(ctx, "deleted points", "collection", collection, "count", len(ids))
	return nil
}

// stringifyMeta converts metadata to the map[string]string form chromem
// stores and filters on.
func stringifyMeta(meta map[string]any) map[string]string {
	if len(meta) == 0 {
		return nil
	}
	out := make(map[string]string, len(meta))
	for key, value := range meta {
		if s, ok := value.(string); ok {
			out[key] = s
		} else {
			out[key] = fmt.Sprintf("%v", value)
		}
	}
	return out
}
