package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// DocumentStore defines the interface for document storage operations.
type DocumentStore interface {
	// Create inserts a new document. A UUID is generated when ID is unset.
	Create(ctx context.Context, doc *DocumentRecord) error
	// GetByID gets a document by its ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (*DocumentRecord, error)
	// List returns documents, optionally filtered by library, newest first.
	List(ctx context.Context, libraryID string, limit, offset int) ([]*DocumentRecord, error)
	// UpdateContent replaces a document's content and hash and invalidates
	// its embeddings flag.
	UpdateContent(ctx context.Context, id, content, hash string) error
	// UpdateTitle replaces a document's title.
	UpdateTitle(ctx context.Context, id, title string) error
	// UpdateLibrary moves a document to a different library.
	UpdateLibrary(ctx context.Context, id, libraryID string) error
	// SetHasEmbeddings records whether the document's chunks were embedded.
	SetHasEmbeddings(ctx context.Context, id string, has bool) error
	// Delete removes a document and, via cascade, its chunks.
	Delete(ctx context.Context, id string) error
}

// DocumentRepo provides methods for document operations.
// It implements the DocumentStore interface.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// DB exposes the underlying database handle for stats queries.
func (r *DocumentRepo) DB() *sql.DB {
	return r.db
}

const documentSelectColumns = `id, library_id, title, source_url, content, content_hash,
	has_embeddings, created_at, updated_at`

// Create inserts a new document, generating its UUID when unset.
func (r *DocumentRepo) Create(ctx context.Context, doc *DocumentRecord) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (id, library_id, title, source_url, content, content_hash, has_embeddings)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.LibraryID, doc.Title, doc.SourceURL, doc.Content,
		doc.ContentHash, doc.HasEmbeddings,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// GetByID gets a document by its ID. Returns ErrNotFound if not found.
func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*DocumentRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+documentSelectColumns+" FROM documents WHERE id = ?", id)
	return scanDocument(row)
}

// List returns documents newest first. An empty libraryID lists across all
// libraries. limit <= 0 means no limit.
func (r *DocumentRepo) List(ctx context.Context, libraryID string, limit, offset int) ([]*DocumentRecord, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	if offset < 0 {
		offset = 0
	}

	var rows *sql.Rows
	var err error
	if libraryID == "" {
		rows, err = r.db.QueryContext(ctx,
			"SELECT "+documentSelectColumns+` FROM documents
			 ORDER BY created_at DESC, id LIMIT ? OFFSET ?`, limit, offset)
	} else {
		rows, err = r.db.QueryContext(ctx,
			"SELECT "+documentSelectColumns+` FROM documents WHERE library_id = ?
			 ORDER BY created_at DESC, id LIMIT ? OFFSET ?`, libraryID, limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var docs []*DocumentRecord
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return docs, nil
}

// UpdateContent replaces a document's content, marking embeddings stale.
func (r *DocumentRepo) UpdateContent(ctx context.Context, id, content, hash string) error {
	return r.exec(ctx,
		`UPDATE documents
		 SET content = ?, content_hash = ?, has_embeddings = 0, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		content, hash, id,
	)
}

// UpdateTitle replaces a document's title.
func (r *DocumentRepo) UpdateTitle(ctx context.Context, id, title string) error {
	return r.exec(ctx,
		"UPDATE documents SET title = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		title, id,
	)
}

// UpdateLibrary moves a document to a different library.
func (r *DocumentRepo) UpdateLibrary(ctx context.Context, id, libraryID string) error {
	return r.exec(ctx,
		"UPDATE documents SET library_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		libraryID, id,
	)
}

// SetHasEmbeddings records whether the document's chunks were embedded.
func (r *DocumentRepo) SetHasEmbeddings(ctx context.Context, id string, has bool) error {
	return r.exec(ctx,
		"UPDATE documents SET has_embeddings = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		has, id,
	)
}

// Delete removes a document. Chunks cascade.
func (r *DocumentRepo) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, "DELETE FROM documents WHERE id = ?", id)
}

// exec runs a statement that must affect exactly one row, mapping zero
// affected rows to ErrNotFound.
func (r *DocumentRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to execute statement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanDocument(row rowScanner) (*DocumentRecord, error) {
	var doc DocumentRecord
	var createdAt, updatedAt string

	err := row.Scan(&doc.ID, &doc.LibraryID, &doc.Title, &doc.SourceURL,
		&doc.Content, &doc.ContentHash, &doc.HasEmbeddings, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}

	if doc.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
	}
	if doc.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at timestamp: %w", err)
	}
	return &doc, nil
}
