package sop

import (
	"context"
	"fmt"
	"log/slog"

	"rxops/internal/domain"
	models "rxops/internal/domain/models/sop"
	sopRepo "rxops/internal/domain/repositories/sop"
	"rxops/internal/repository/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
)

const documentColumns = "id, org_id, title, description, status, version, published_at, created_by, created_at, updated_at"

// PostgresDocumentRepository implements the DocumentRepository interface
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *postgres.RepositoryConfig) sopRepo.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

func scanDocument(row interface{ Scan(...interface{}) error }, doc *models.Document) error {
	return row.Scan(
		&doc.ID,
		&doc.OrgID,
		&doc.Title,
		&doc.Description,
		&doc.Status,
		&doc.Version,
		&doc.PublishedAt,
		&doc.CreatedBy,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
}

// Create inserts a new draft document
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, org_id, title, description, status, version, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		doc.ID,
		doc.OrgID,
		doc.Title,
		doc.Description,
		doc.Status,
		doc.Version,
		doc.CreatedBy,
		doc.CreatedAt,
		doc.UpdatedAt,
	).Scan(&doc.CreatedAt, &doc.UpdatedAt)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("document %s already exists", doc.ID),
				ResourceType: "document",
				ResourceID:   doc.ID,
			}
		}
		return &domain.TransientStoreError{Op: "create document", Err: err}
	}

	return nil
}

// GetByID retrieves a document by ID, scoped to orgID when non-empty
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id, orgID string) (*models.Document, error) {
	var query string
	var args []interface{}

	if orgID != "" {
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE id = $1 AND org_id = $2
		`, documentColumns, r.tables.Documents)
		args = []interface{}{id, orgID}
	} else {
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE id = $1
		`, documentColumns, r.tables.Documents)
		args = []interface{}{id}
	}

	var doc models.Document
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := scanDocument(executor.QueryRow(ctx, query, args...), &doc); err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("document %s not found", id)}
		}
		return nil, &domain.TransientStoreError{Op: "get document", Err: err}
	}

	return &doc, nil
}

// ListByOrg lists an organization's documents newest-first
func (r *PostgresDocumentRepository) ListByOrg(ctx context.Context, orgID string, status models.DocumentStatus) ([]models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE org_id = $1
	`, documentColumns, r.tables.Documents)
	args := []interface{}{orgID}

	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY updated_at DESC`

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, &domain.TransientStoreError{Op: "list documents", Err: err}
	}
	defer rows.Close()

	documents := []models.Document{}
	for rows.Next() {
		var doc models.Document
		if err := scanDocument(rows, &doc); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		documents = append(documents, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.TransientStoreError{Op: "iterate documents", Err: err}
	}

	return documents, nil
}

// UpdateMetadata updates title and description only
func (r *PostgresDocumentRepository) UpdateMetadata(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, description = $2, updated_at = NOW()
		WHERE id = $3 AND org_id = $4
		RETURNING updated_at
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, doc.Title, doc.Description, doc.ID, doc.OrgID).Scan(&doc.UpdatedAt)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return &domain.NotFoundError{Message: fmt.Sprintf("document %s not found", doc.ID)}
		}
		return &domain.TransientStoreError{Op: "update document", Err: err}
	}

	return nil
}

// Publish bumps version, sets status and published_at in one statement so a
// reader can never observe the new timestamp with the old version.
func (r *PostgresDocumentRepository) Publish(ctx context.Context, id, orgID string) (*models.Document, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET version = version + 1,
		    status = 'published',
		    published_at = NOW(),
		    updated_at = NOW()
		WHERE id = $1 AND org_id = $2 AND status <> 'archived'
		RETURNING %s
	`, r.tables.Documents, documentColumns)

	var doc models.Document
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := scanDocument(executor.QueryRow(ctx, query, id, orgID), &doc); err != nil {
		if postgres.IsPgNoRowsError(err) {
			// Row is either missing or archived; let the caller distinguish.
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("document %s not found or archived", id)}
		}
		return nil, &domain.TransientStoreError{Op: "publish document", Err: err}
	}

	return &doc, nil
}

// Archive marks the document terminal
func (r *PostgresDocumentRepository) Archive(ctx context.Context, id, orgID string) (*models.Document, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = 'archived', updated_at = NOW()
		WHERE id = $1 AND org_id = $2 AND status <> 'archived'
		RETURNING %s
	`, r.tables.Documents, documentColumns)

	var doc models.Document
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := scanDocument(executor.QueryRow(ctx, query, id, orgID), &doc); err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("document %s not found or already archived", id)}
		}
		return nil, &domain.TransientStoreError{Op: "archive document", Err: err}
	}

	return &doc, nil
}
