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

const nodeColumns = "id, document_id, parent_id, title, sort_order, content_type, rich_content, external_ref, created_at, updated_at"

// PostgresNodeRepository implements the NodeRepository interface
type PostgresNodeRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewNodeRepository creates a new node repository
func NewNodeRepository(config *postgres.RepositoryConfig) sopRepo.NodeRepository {
	return &PostgresNodeRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

func scanNode(row interface{ Scan(...interface{}) error }, node *models.Node) error {
	return row.Scan(
		&node.ID,
		&node.DocumentID,
		&node.ParentID,
		&node.Title,
		&node.SortOrder,
		&node.ContentType,
		&node.RichContent,
		&node.ExternalRef,
		&node.CreatedAt,
		&node.UpdatedAt,
	)
}

// Create inserts a new node
func (r *PostgresNodeRepository) Create(ctx context.Context, node *models.Node) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, parent_id, title, sort_order, content_type, rich_content, external_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		node.ID,
		node.DocumentID,
		node.ParentID,
		node.Title,
		node.SortOrder,
		node.ContentType,
		node.RichContent,
		node.ExternalRef,
		node.CreatedAt,
		node.UpdatedAt,
	).Scan(&node.CreatedAt, &node.UpdatedAt)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      "a sibling already holds this position",
				ResourceType: "node",
				ResourceID:   node.ID,
			}
		}
		if postgres.IsPgForeignKeyError(err) {
			return &domain.NotFoundError{Message: "parent node or document not found"}
		}
		return &domain.TransientStoreError{Op: "create node", Err: err}
	}

	return nil
}

// GetByID retrieves a node by ID
func (r *PostgresNodeRepository) GetByID(ctx context.Context, id string) (*models.Node, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, nodeColumns, r.tables.Nodes)

	var node models.Node
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := scanNode(executor.QueryRow(ctx, query, id), &node); err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("node %s not found", id)}
		}
		return nil, &domain.TransientStoreError{Op: "get node", Err: err}
	}

	return &node, nil
}

// GetAllByDocument retrieves the document's flat node collection
func (r *PostgresNodeRepository) GetAllByDocument(ctx context.Context, documentID string) ([]models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE document_id = $1
		ORDER BY parent_id NULLS FIRST, sort_order ASC
	`, nodeColumns, r.tables.Nodes)

	return r.queryNodes(ctx, query, documentID)
}

// ListSiblings lists the sibling group sharing parentID, ascending by sort_order
func (r *PostgresNodeRepository) ListSiblings(ctx context.Context, documentID string, parentID *string) ([]models.Node, error) {
	var query string
	var args []interface{}

	if parentID == nil {
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE document_id = $1 AND parent_id IS NULL
			ORDER BY sort_order ASC
		`, nodeColumns, r.tables.Nodes)
		args = []interface{}{documentID}
	} else {
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE document_id = $1 AND parent_id = $2
			ORDER BY sort_order ASC
		`, nodeColumns, r.tables.Nodes)
		args = []interface{}{documentID, *parentID}
	}

	return r.queryNodes(ctx, query, args...)
}

func (r *PostgresNodeRepository) queryNodes(ctx context.Context, query string, args ...interface{}) ([]models.Node, error) {
	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, &domain.TransientStoreError{Op: "list nodes", Err: err}
	}
	defer rows.Close()

	nodes := []models.Node{}
	for rows.Next() {
		var node models.Node
		if err := scanNode(rows, &node); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.TransientStoreError{Op: "iterate nodes", Err: err}
	}

	return nodes, nil
}

// MaxSortOrder returns the highest sort_order in the sibling group, or -1
// when the group is empty.
func (r *PostgresNodeRepository) MaxSortOrder(ctx context.Context, documentID string, parentID *string) (int, error) {
	var query string
	var args []interface{}

	if parentID == nil {
		query = fmt.Sprintf(`
			SELECT COALESCE(MAX(sort_order), -1) FROM %s
			WHERE document_id = $1 AND parent_id IS NULL
		`, r.tables.Nodes)
		args = []interface{}{documentID}
	} else {
		query = fmt.Sprintf(`
			SELECT COALESCE(MAX(sort_order), -1) FROM %s
			WHERE document_id = $1 AND parent_id = $2
		`, r.tables.Nodes)
		args = []interface{}{documentID, *parentID}
	}

	var max int
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, args...).Scan(&max); err != nil {
		return 0, &domain.TransientStoreError{Op: "max sort order", Err: err}
	}

	return max, nil
}

// UpdateTitle renames a node
func (r *PostgresNodeRepository) UpdateTitle(ctx context.Context, id, title string) error {
	query := fmt.Sprintf(`
		UPDATE %s SET title = $1, updated_at = NOW() WHERE id = $2
	`, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, title, id)
	if err != nil {
		return &domain.TransientStoreError{Op: "rename node", Err: err}
	}
	if result.RowsAffected() == 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("node %s not found", id)}
	}

	return nil
}

// UpdateSortOrder sets one node's sort_order. Callers swapping siblings run
// this inside a transaction via the context-carried executor.
func (r *PostgresNodeRepository) UpdateSortOrder(ctx context.Context, id string, sortOrder int) error {
	query := fmt.Sprintf(`
		UPDATE %s SET sort_order = $1, updated_at = NOW() WHERE id = $2
	`, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, sortOrder, id)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      "a sibling already holds this position",
				ResourceType: "node",
				ResourceID:   id,
			}
		}
		return &domain.TransientStoreError{Op: "update sort order", Err: err}
	}
	if result.RowsAffected() == 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("node %s not found", id)}
	}

	return nil
}

// UpdateParent moves a node under a new parent with a new sort_order
func (r *PostgresNodeRepository) UpdateParent(ctx context.Context, id string, parentID *string, sortOrder int) error {
	query := fmt.Sprintf(`
		UPDATE %s SET parent_id = $1, sort_order = $2, updated_at = NOW() WHERE id = $3
	`, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, parentID, sortOrder, id)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      "a sibling already holds this position",
				ResourceType: "node",
				ResourceID:   id,
			}
		}
		if postgres.IsPgForeignKeyError(err) {
			return &domain.NotFoundError{Message: "new parent not found"}
		}
		return &domain.TransientStoreError{Op: "reparent node", Err: err}
	}
	if result.RowsAffected() == 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("node %s not found", id)}
	}

	return nil
}

// UpdateContent persists the content variant columns
func (r *PostgresNodeRepository) UpdateContent(ctx context.Context, node *models.Node) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET content_type = $1, rich_content = $2, external_ref = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at
	`, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		node.ContentType,
		node.RichContent,
		node.ExternalRef,
		node.ID,
	).Scan(&node.UpdatedAt)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return &domain.NotFoundError{Message: fmt.Sprintf("node %s not found", node.ID)}
		}
		return &domain.TransientStoreError{Op: "update content", Err: err}
	}

	return nil
}

// DeleteSubtree removes a node and all descendants via recursive CTE,
// returning how many rows went away.
func (r *PostgresNodeRepository) DeleteSubtree(ctx context.Context, id string) (int, error) {
	query := fmt.Sprintf(`
		WITH RECURSIVE subtree AS (
			SELECT id FROM %s WHERE id = $1
			UNION ALL
			SELECT n.id FROM %s n
			JOIN subtree s ON n.parent_id = s.id
		)
		DELETE FROM %s WHERE id IN (SELECT id FROM subtree)
	`, r.tables.Nodes, r.tables.Nodes, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return 0, &domain.TransientStoreError{Op: "delete subtree", Err: err}
	}

	removed := int(result.RowsAffected())
	if removed == 0 {
		return 0, &domain.NotFoundError{Message: fmt.Sprintf("node %s not found", id)}
	}

	return removed, nil
}
