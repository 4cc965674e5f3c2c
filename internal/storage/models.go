package storage

import (
	"strings"
	"time"
)

// LibraryRecord represents a documentation library in the database.
type LibraryRecord struct {
	ID              string // UUID
	Name            string // Display name, unique
	Ecosystem       string // Package ecosystem, e.g. "npm", "pypi"
	Context7ID      string // Resolution path, e.g. "/npm/react"
	Description     string
	Keywords        []string // Searchable terms, stored comma-joined
	PopularityScore int      // Normalized 0-100
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DocumentCount   int // Computed on read, not stored
}

// DocumentRecord represents one ingested document in the database.
type DocumentRecord struct {
	ID            string // UUID
	LibraryID     string // Foreign key to libraries.id
	Title         string
	SourceURL     string // Empty for raw uploads
	Content       string // Raw document text
	ContentHash   string // SHA256 hex string of content
	HasEmbeddings bool   // Whether chunks were embedded and stored
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ChunkRecord represents a chunk of text from a document, indexed for
// vector search. The ID doubles as the vector store point ID.
type ChunkRecord struct {
	ID           string // UUID (same as vector point ID)
	DocumentID   string // Foreign key to documents.id
	ChunkIndex   int    // Index within document (starts at 0)
	SectionTitle string // Heading of the section the chunk came from, if any
	Text         string // Chunk text content
}

// joinKeywords serializes keywords for the comma-joined TEXT column.
func joinKeywords(keywords []string) string {
	return strings.Join(keywords, ",")
}

// splitKeywords parses the comma-joined TEXT column back into a slice.
func splitKeywords(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	keywords := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keywords = append(keywords, p)
		}
	}
	return keywords
}
