package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"

	"github.com/docstore/docstore/internal/storage"
)

const (
	// ChunkerVersion is the version identifier for the chunking logic.
	// Update this when chunking behavior changes significantly.
	ChunkerVersion = "v1.0"
	// TokensPerRune is an approximation for token counting (4 chars per token).
	TokensPerRune = 4.0
)

// CoverageStats describes the current state of the index.
type CoverageStats struct {
	// DocsProcessed is the total number of documents stored.
	DocsProcessed int `json:"docs_processed"`
	// DocsWith0Chunks is the number of documents that produced 0 chunks.
	DocsWith0Chunks int `json:"docs_with_0_chunks"`
	// ChunksEmbedded is the number of chunks stored and indexed.
	ChunksEmbedded int `json:"chunks_embedded"`
	// ChunkTokenStats contains statistics about token counts per chunk.
	ChunkTokenStats ChunkTokenStats `json:"chunk_token_stats"`
	// ChunkerVersion is the version of the chunker used.
	ChunkerVersion string `json:"chunker_version"`
	// IndexVersion is a hash identifying the index build (chunker version +
	// embedding model + chunking params).
	IndexVersion string `json:"index_version"`
}

// ChunkTokenStats contains statistics about token counts in chunks.
type ChunkTokenStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

// GetCoverageStats computes index coverage statistics from the database.
func (p *Pipeline) GetCoverageStats(ctx context.Context, embeddingModelName string) (*CoverageStats, error) {
	documentRepo, ok := p.documentRepo.(*storage.DocumentRepo)
	if !ok {
		return nil, fmt.Errorf("documentRepo is not *storage.DocumentRepo, cannot query stats")
	}
	chunkRepo, ok := p.chunkRepo.(*storage.ChunkRepo)
	if !ok {
		return nil, fmt.Errorf("chunkRepo is not *storage.ChunkRepo, cannot query stats")
	}

	db := documentRepo.DB()
	if db == nil {
		return nil, fmt.Errorf("documentRepo.DB() returned nil")
	}

	stats := &CoverageStats{
		ChunkerVersion: ChunkerVersion,
	}

	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&stats.DocsProcessed); err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}

	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents
		 WHERE id NOT IN (SELECT DISTINCT document_id FROM chunks)`).Scan(&stats.DocsWith0Chunks)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents with 0 chunks: %w", err)
	}

	tokenCounts, err := chunkTokenCounts(ctx, chunkRepo)
	if err != nil {
		return nil, err
	}

	stats.ChunksEmbedded = len(tokenCounts)
	stats.ChunkTokenStats = computeTokenStats(tokenCounts)

	indexVersionInput := fmt.Sprintf("%s|%s|strategy=%s|chunkSize=%d|overlap=%d",
		ChunkerVersion, embeddingModelName, p.opts.Strategy, p.opts.ChunkSize, p.opts.Overlap)
	hash := sha256.Sum256([]byte(indexVersionInput))
	stats.IndexVersion = hex.EncodeToString(hash[:])[:16] // 16 hex chars = 64 bits

	return stats, nil
}

// chunkTokenCounts estimates the token count of every stored chunk.
func chunkTokenCounts(ctx context.Context, chunkRepo *storage.ChunkRepo) ([]int, error) {
	db := chunkRepo.DB()
	if db == nil {
		return nil, fmt.Errorf("chunkRepo.DB() returned nil")
	}

	rows, err := db.QueryContext(ctx, "SELECT text FROM chunks")
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var counts []int
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("failed to scan chunk text: %w", err)
		}
		runeCount := utf8.RuneCountInString(text)
		tokenCount := int(math.Round(float64(runeCount) / TokensPerRune))
		if tokenCount < 1 {
			tokenCount = 1
		}
		counts = append(counts, tokenCount)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return counts, nil
}

// computeTokenStats computes min, max, mean, and p95 from token counts.
func computeTokenStats(tokenCounts []int) ChunkTokenStats {
	if len(tokenCounts) == 0 {
		return ChunkTokenStats{}
	}

	sorted := make([]int, len(tokenCounts))
	copy(sorted, tokenCounts)
	sort.Ints(sorted)

	sum := 0
	for _, count := range tokenCounts {
		sum += count
	}
	mean := float64(sum) / float64(len(tokenCounts))

	p95Index := int(math.Ceil(float64(len(sorted)) * 0.95))
	if p95Index >= len(sorted) {
		p95Index = len(sorted) - 1
	}

	return ChunkTokenStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100,
		P95:  sorted[p95Index],
	}
}
