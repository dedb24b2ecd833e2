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

// PostgresCompletionRepository implements the CompletionRepository interface
type PostgresCompletionRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewCompletionRepository creates a new completion repository
func NewCompletionRepository(config *postgres.RepositoryConfig) sopRepo.CompletionRepository {
	return &PostgresCompletionRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Upsert inserts or overwrites the record for the (document, member) pair.
// Records are superseded in place, never appended.
func (r *PostgresCompletionRepository) Upsert(ctx context.Context, rec *models.CompletionRecord) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (document_id, member_id, document_version, completed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (document_id, member_id)
		DO UPDATE SET document_version = EXCLUDED.document_version,
		              completed_at = EXCLUDED.completed_at
		RETURNING completed_at
	`, r.tables.Completions)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		rec.DocumentID,
		rec.MemberID,
		rec.DocumentVersion,
		rec.CompletedAt,
	).Scan(&rec.CompletedAt)
	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return &domain.NotFoundError{Message: fmt.Sprintf("document %s not found", rec.DocumentID)}
		}
		return &domain.TransientStoreError{Op: "upsert completion", Err: err}
	}

	return nil
}

// GetByDocumentMember retrieves the single record for a pair
func (r *PostgresCompletionRepository) GetByDocumentMember(ctx context.Context, documentID, memberID string) (*models.CompletionRecord, error) {
	query := fmt.Sprintf(`
		SELECT document_id, member_id, document_version, completed_at
		FROM %s
		WHERE document_id = $1 AND member_id = $2
	`, r.tables.Completions)

	var rec models.CompletionRecord
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, documentID, memberID).Scan(
		&rec.DocumentID,
		&rec.MemberID,
		&rec.DocumentVersion,
		&rec.CompletedAt,
	)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, &domain.NotFoundError{Message: "no completion record for this member"}
		}
		return nil, &domain.TransientStoreError{Op: "get completion", Err: err}
	}

	return &rec, nil
}

// ListByDocument lists all records for a document
func (r *PostgresCompletionRepository) ListByDocument(ctx context.Context, documentID string) ([]models.CompletionRecord, error) {
	query := fmt.Sprintf(`
		SELECT document_id, member_id, document_version, completed_at
		FROM %s
		WHERE document_id = $1
		ORDER BY completed_at DESC
	`, r.tables.Completions)

	return r.queryRecords(ctx, query, documentID)
}

// ListByMember lists a member's records across the organization's documents
func (r *PostgresCompletionRepository) ListByMember(ctx context.Context, orgID, memberID string) ([]models.CompletionRecord, error) {
	query := fmt.Sprintf(`
		SELECT c.document_id, c.member_id, c.document_version, c.completed_at
		FROM %s c
		JOIN %s d ON d.id = c.document_id
		WHERE d.org_id = $1 AND c.member_id = $2
		ORDER BY c.completed_at DESC
	`, r.tables.Completions, r.tables.Documents)

	return r.queryRecords(ctx, query, orgID, memberID)
}

func (r *PostgresCompletionRepository) queryRecords(ctx context.Context, query string, args ...interface{}) ([]models.CompletionRecord, error) {
	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, &domain.TransientStoreError{Op: "list completions", Err: err}
	}
	defer rows.Close()

	records := []models.CompletionRecord{}
	for rows.Next() {
		var rec models.CompletionRecord
		if err := rows.Scan(&rec.DocumentID, &rec.MemberID, &rec.DocumentVersion, &rec.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.TransientStoreError{Op: "iterate completions", Err: err}
	}

	return records, nil
}
