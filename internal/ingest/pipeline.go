package ingest

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/docstore/docstore/internal/chunker"
	"github.com/docstore/docstore/internal/contextutil"
	"github.com/docstore/docstore/internal/llm"
	"github.com/docstore/docstore/internal/storage"
	"github.com/docstore/docstore/internal/vectorstore"
)

// Chunking strategy names accepted by ChunkingOptions.Strategy.
const (
	StrategyFixed      = "fixed"
	StrategySentences  = "sentences"
	StrategyParagraphs = "paragraphs"
	StrategyTokens     = "tokens"
	StrategyHeadings   = "headings"
	StrategyLevel3     = "level3"
)

// ChunkingOptions selects how documents are split before embedding.
type ChunkingOptions struct {
	Strategy     string // one of the Strategy* constants
	ChunkSize    int    // characters, sentences or tokens depending on strategy
	Overlap      int    // trailing units carried into the next chunk
	StripHeaders bool   // headings strategies: drop the heading line from chunk text
	Encoding     string // tiktoken encoding name for the tokens strategy
}

// DefaultChunkingOptions is fixed-size chunking with the chunker defaults.
func DefaultChunkingOptions() ChunkingOptions {
	return ChunkingOptions{
		Strategy:  StrategyFixed,
		ChunkSize: chunker.DefaultChunkSize,
		Overlap:   chunker.DefaultOverlap,
	}
}

// Pipeline orchestrates document ingestion: store the raw content in SQLite,
// chunk it, embed the chunks and index them in the vector store.
type Pipeline struct {
	libraryRepo  storage.LibraryStore
	documentRepo storage.DocumentStore
	chunkRepo    storage.ChunkStore
	embedder     llm.Embedder
	vectorStore  vectorstore.VectorStore
	collection   string
	opts         ChunkingOptions
	splitter     chunker.HeaderSplitter
	tokenizer    chunker.Tokenizer
	fetcher      *Fetcher
	logger       *slog.Logger
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	libraryRepo storage.LibraryStore,
	documentRepo storage.DocumentStore,
	chunkRepo storage.ChunkStore,
	embedder llm.Embedder,
	vectorStore vectorstore.VectorStore,
	collection string,
	opts ChunkingOptions,
) *Pipeline {
	if opts.Strategy == "" {
		opts = DefaultChunkingOptions()
	}
	p := &Pipeline{
		libraryRepo:  libraryRepo,
		documentRepo: documentRepo,
		chunkRepo:    chunkRepo,
		embedder:     embedder,
		vectorStore:  vectorStore,
		collection:   collection,
		opts:         opts,
		splitter:     chunker.NewGoldmarkSplitter(),
		fetcher:      NewFetcher(),
		logger:       slog.Default(),
	}
	if opts.Strategy == StrategyTokens && opts.Encoding != "" {
		tok, err := chunker.NewTiktokenTokenizer(opts.Encoding)
		if err != nil {
			// Fall back to whitespace tokens inside ChunkByTokens.
			p.logger.Warn("failed to load token encoding, using word tokens", "encoding", opts.Encoding, "error", err)
		} else {
			p.tokenizer = tok
		}
	}
	return p
}

// Upload stores new document content under a library and indexes it.
func (p *Pipeline) Upload(ctx context.Context, libraryID, title, content string) (*storage.DocumentRecord, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if _, err := p.libraryRepo.GetByID(ctx, libraryID); err != nil {
		return nil, fmt.Errorf("failed to resolve library: %w", err)
	}

	doc := &storage.DocumentRecord{
		ID:          uuid.New().String(),
		LibraryID:   libraryID,
		Title:       title,
		Content:     content,
		ContentHash: contentHash(content),
	}
	if err := p.documentRepo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	if err := p.indexDocument(ctx, doc); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "uploaded document", "document_id", doc.ID, "library_id", libraryID, "title", title)
	return doc, nil
}

// FetchURL downloads content from a URL and ingests it like Upload.
// When title is empty the URL is used as the title.
func (p *Pipeline) FetchURL(ctx context.Context, libraryID, title, rawURL string) (*storage.DocumentRecord, error) {
	content, err := p.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if title == "" {
		title = rawURL
	}

	if _, err := p.libraryRepo.GetByID(ctx, libraryID); err != nil {
		return nil, fmt.Errorf("failed to resolve library: %w", err)
	}

	doc := &storage.DocumentRecord{
		ID:          uuid.New().String(),
		LibraryID:   libraryID,
		Title:       title,
		SourceURL:   rawURL,
		Content:     content,
		ContentHash: contentHash(content),
	}
	if err := p.documentRepo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	if err := p.indexDocument(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// UpdateContent replaces a document's content and reindexes it. Unchanged
// content (same hash) that is already embedded is skipped.
func (p *Pipeline) UpdateContent(ctx context.Context, documentID, content string) error {
	logger := contextutil.LoggerFromContext(ctx)

	doc, err := p.documentRepo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	hash := contentHash(content)
	if doc.HasEmbeddings && doc.ContentHash == hash {
		logger.DebugContext(ctx, "skipping unchanged document", "document_id", documentID, "hash", hash)
		return nil
	}

	if err := p.documentRepo.UpdateContent(ctx, documentID, content, hash); err != nil {
		return fmt.Errorf("failed to update content: %w", err)
	}

	doc.Content = content
	doc.ContentHash = hash
	return p.indexDocument(ctx, doc)
}

// Reindex rebuilds a document's chunks and embeddings from its stored content.
func (p *Pipeline) Reindex(ctx context.Context, documentID string) error {
	doc, err := p.documentRepo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	return p.indexDocument(ctx, doc)
}

// DeleteDocument removes a document, its chunks and their vectors.
func (p *Pipeline) DeleteDocument(ctx context.Context, documentID string) error {
	logger := contextutil.LoggerFromContext(ctx)

	chunkIDs, err := p.chunkRepo.ListIDsByDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to list chunk IDs: %w", err)
	}

	if len(chunkIDs) > 0 {
		if err := p.vectorStore.Delete(ctx, p.collection, chunkIDs); err != nil {
			logger.WarnContext(ctx, "failed to delete vectors", "document_id", documentID, "count", len(chunkIDs), "error", err)
			// The SQLite delete below still removes the chunks; orphaned
			// vectors are overwritten on the next reindex.
		}
	}

	if err := p.documentRepo.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	logger.InfoContext(ctx, "deleted document", "document_id", documentID, "chunks", len(chunkIDs))
	return nil
}

// DeleteLibrary removes a library together with its documents, chunks and
// their vectors. Dropping the library row alone would cascade the SQLite
// side but leave the documents' points in the vector store.
func (p *Pipeline) DeleteLibrary(ctx context.Context, libraryID string) error {
	logger := contextutil.LoggerFromContext(ctx)

	if _, err := p.libraryRepo.GetByID(ctx, libraryID); err != nil {
		return fmt.Errorf("failed to get library: %w", err)
	}

	docs, err := p.documentRepo.List(ctx, libraryID, 0, 0)
	if err != nil {
		return fmt.Errorf("failed to list library documents: %w", err)
	}
	for _, doc := range docs {
		if err := p.DeleteDocument(ctx, doc.ID); err != nil {
			return fmt.Errorf("failed to delete document %s: %w", doc.ID, err)
		}
	}

	if err := p.libraryRepo.Delete(ctx, libraryID); err != nil {
		return fmt.Errorf("failed to delete library: %w", err)
	}

	logger.InfoContext(ctx, "deleted library", "library_id", libraryID, "documents", len(docs))
	return nil
}

// piece is one chunk of a document with its originating section heading,
// when the strategy knows one.
type piece struct {
	Text         string
	SectionTitle string
}

// indexDocument chunks a document, replaces any previous chunks in both
// stores, embeds the new chunks and upserts them to the vector store.
func (p *Pipeline) indexDocument(ctx context.Context, doc *storage.DocumentRecord) error {
	logger := contextutil.LoggerFromContext(ctx)

	pieces, err := p.chunkContent(doc.Content)
	if err != nil {
		return fmt.Errorf("failed to chunk document: %w", err)
	}

	// Drop previous chunks before writing the new set.
	oldChunkIDs, err := p.chunkRepo.ListIDsByDocument(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("failed to list old chunk IDs: %w", err)
	}
	if len(oldChunkIDs) > 0 {
		if err := p.vectorStore.Delete(ctx, p.collection, oldChunkIDs); err != nil {
			logger.WarnContext(ctx, "failed to delete old vectors", "document_id", doc.ID, "count", len(oldChunkIDs), "error", err)
			// Continue anyway - new points get fresh IDs.
		}
		if err := p.chunkRepo.DeleteByDocument(ctx, doc.ID); err != nil {
			return fmt.Errorf("failed to delete old chunks: %w", err)
		}
	}

	if len(pieces) == 0 {
		logger.WarnContext(ctx, "no chunks generated", "document_id", doc.ID)
		if err := p.documentRepo.SetHasEmbeddings(ctx, doc.ID, false); err != nil {
			return err
		}
		doc.HasEmbeddings = false
		return nil
	}

	texts := make([]string, len(pieces))
	for i, pc := range pieces {
		texts[i] = pc.Text
	}

	embeddings, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(embeddings) != len(pieces) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(pieces), len(embeddings))
	}

	points := make([]vectorstore.Point, len(pieces))
	for i, pc := range pieces {
		chunkID := uuid.New().String()

		record := &storage.ChunkRecord{
			ID:           chunkID,
			DocumentID:   doc.ID,
			ChunkIndex:   i,
			SectionTitle: pc.SectionTitle,
			Text:         pc.Text,
		}
		if err := p.chunkRepo.Insert(ctx, record); err != nil {
			return fmt.Errorf("failed to insert chunk: %w", err)
		}

		points[i] = vectorstore.Point{
			ID:  chunkID,
			Vec: embeddings[i],
			Meta: map[string]any{
				"library_id":    doc.LibraryID,
				"document_id":   doc.ID,
				"title":         doc.Title,
				"section_title": pc.SectionTitle,
				"chunk_index":   i,
				"text":          pc.Text,
			},
		}
	}

	if err := p.vectorStore.Upsert(ctx, p.collection, points); err != nil {
		return fmt.Errorf("failed to upsert vectors: %w", err)
	}

	if err := p.documentRepo.SetHasEmbeddings(ctx, doc.ID, true); err != nil {
		return fmt.Errorf("failed to mark document as embedded: %w", err)
	}
	doc.HasEmbeddings = true

	logger.InfoContext(ctx, "indexed document", "document_id", doc.ID, "chunks", len(pieces), "strategy", p.opts.Strategy)
	return nil
}

// chunkContent splits content according to the configured strategy.
func (p *Pipeline) chunkContent(content string) ([]piece, error) {
	switch p.opts.Strategy {
	case StrategyFixed:
		return plainPieces(chunker.ChunkText(content, p.opts.ChunkSize, p.opts.Overlap)), nil
	case StrategySentences:
		return plainPieces(chunker.ChunkBySentences(content, p.opts.ChunkSize, p.opts.Overlap)), nil
	case StrategyParagraphs:
		return plainPieces(chunker.ChunkByParagraphs(content, p.opts.ChunkSize)), nil
	case StrategyTokens:
		return plainPieces(chunker.ChunkByTokens(content, p.opts.ChunkSize, p.opts.Overlap, p.tokenizer)), nil
	case StrategyHeadings:
		sections := p.splitter.Split(content, chunker.DefaultHeaderLevels, p.opts.StripHeaders)
		pieces := make([]piece, 0, len(sections))
		for _, sec := range sections {
			pieces = append(pieces, piece{Text: sec.Text, SectionTitle: sec.Heading})
		}
		return pieces, nil
	case StrategyLevel3:
		return plainPieces(chunker.ChunkByLevel3Headings(content, p.opts.StripHeaders)), nil
	default:
		return nil, fmt.Errorf("unknown chunking strategy %q", p.opts.Strategy)
	}
}

func plainPieces(chunks []string) []piece {
	pieces := make([]piece, len(chunks))
	for i, c := range chunks {
		pieces[i] = piece{Text: c}
	}
	return pieces
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x", sum)
}
