package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// LibraryStore defines the interface for library storage operations.
type LibraryStore interface {
	// Create inserts a new library. A UUID and Context7ID are generated when
	// unset. Returns ErrConflict if the name or Context7 ID is taken.
	Create(ctx context.Context, lib *LibraryRecord) error
	// GetByID gets a library by its ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (*LibraryRecord, error)
	// GetByContext7ID gets a library by its resolution path, e.g. "/npm/react".
	GetByContext7ID(ctx context.Context, context7ID string) (*LibraryRecord, error)
	// List returns all libraries ordered by name.
	List(ctx context.Context) ([]*LibraryRecord, error)
	// SearchByName returns libraries whose name or keywords match the given
	// name, case-insensitively. An empty result is not an error.
	SearchByName(ctx context.Context, name string) ([]*LibraryRecord, error)
	// Update replaces all mutable fields of a library.
	Update(ctx context.Context, lib *LibraryRecord) error
	// Delete removes a library and, via cascade, its documents and chunks.
	Delete(ctx context.Context, id string) error
}

// LibraryRepo provides methods for library operations.
// It implements the LibraryStore interface.
type LibraryRepo struct {
	db *sql.DB
}

// NewLibraryRepo creates a new LibraryRepo.
func NewLibraryRepo(db *sql.DB) *LibraryRepo {
	return &LibraryRepo{db: db}
}

const librarySelectColumns = `id, name, ecosystem, context7_id, description, keywords, popularity_score,
	created_at, updated_at,
	(SELECT COUNT(*) FROM documents WHERE documents.library_id = libraries.id) AS document_count`

// Create inserts a new library, generating its UUID and Context7 ID when
// unset. The Context7 ID follows the "/{ecosystem}/{slug}" convention.
func (r *LibraryRepo) Create(ctx context.Context, lib *LibraryRecord) error {
	if lib.ID == "" {
		lib.ID = uuid.New().String()
	}
	if lib.Context7ID == "" {
		lib.Context7ID = Context7ID(lib.Ecosystem, lib.Name)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO libraries (id, name, ecosystem, context7_id, description, keywords, popularity_score)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		lib.ID, lib.Name, lib.Ecosystem, lib.Context7ID, lib.Description,
		joinKeywords(lib.Keywords), lib.PopularityScore,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrConflict
		}
		return fmt.Errorf("failed to insert library: %w", err)
	}
	return nil
}

// GetByID gets a library by its ID. Returns ErrNotFound if not found.
func (r *LibraryRepo) GetByID(ctx context.Context, id string) (*LibraryRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+librarySelectColumns+" FROM libraries WHERE id = ?", id)
	return scanLibrary(row)
}

// GetByContext7ID gets a library by its resolution path.
func (r *LibraryRepo) GetByContext7ID(ctx context.Context, context7ID string) (*LibraryRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+librarySelectColumns+" FROM libraries WHERE context7_id = ?", context7ID)
	return scanLibrary(row)
}

// List returns all libraries ordered by name.
func (r *LibraryRepo) List(ctx context.Context) ([]*LibraryRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+librarySelectColumns+" FROM libraries ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query libraries: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()
	return scanLibraries(rows)
}

// SearchByName returns libraries whose name or keywords contain the given
// name, case-insensitively, best matches (exact name) first.
func (r *LibraryRepo) SearchByName(ctx context.Context, name string) ([]*LibraryRecord, error) {
	pattern := "%" + strings.ToLower(name) + "%"
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+librarySelectColumns+` FROM libraries
		 WHERE LOWER(name) LIKE ? OR LOWER(keywords) LIKE ?
		 ORDER BY CASE WHEN LOWER(name) = ? THEN 0 ELSE 1 END, popularity_score DESC, name`,
		pattern, pattern, strings.ToLower(name),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search libraries: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()
	return scanLibraries(rows)
}

// Update replaces all mutable fields of a library and bumps updated_at.
func (r *LibraryRepo) Update(ctx context.Context, lib *LibraryRecord) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE libraries
		 SET name = ?, ecosystem = ?, description = ?, keywords = ?, popularity_score = ?,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		lib.Name, lib.Ecosystem, lib.Description, joinKeywords(lib.Keywords),
		lib.PopularityScore, lib.ID,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrConflict
		}
		return fmt.Errorf("failed to update library: %w", err)
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

// Delete removes a library. Documents and chunks cascade.
func (r *LibraryRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM libraries WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete library: %w", err)
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

// Context7ID builds the "/{ecosystem}/{slug}" resolution path for a library.
func Context7ID(ecosystem, name string) string {
	slug := strings.ToLower(strings.Join(strings.Fields(name), "-"))
	eco := strings.ToLower(strings.TrimSpace(ecosystem))
	if eco == "" {
		eco = "misc"
	}
	return "/" + eco + "/" + slug
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLibrary(row rowScanner) (*LibraryRecord, error) {
	var lib LibraryRecord
	var keywords, createdAt, updatedAt string

	err := row.Scan(&lib.ID, &lib.Name, &lib.Ecosystem, &lib.Context7ID,
		&lib.Description, &keywords, &lib.PopularityScore,
		&createdAt, &updatedAt, &lib.DocumentCount)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan library: %w", err)
	}

	lib.Keywords = splitKeywords(keywords)
	if lib.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
	}
	if lib.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at timestamp: %w", err)
	}
	return &lib, nil
}

func scanLibraries(rows *sql.Rows) ([]*LibraryRecord, error) {
	var libs []*LibraryRecord
	for rows.Next() {
		lib, err := scanLibrary(rows)
		if err != nil {
			return nil, err
		}
		libs = append(libs, lib)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return libs, nil
}
