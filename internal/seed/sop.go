package seed

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"rxops/internal/repository/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/yaml.v3"
)

//go:embed fixtures/*.yaml
var fixtureFiles embed.FS

// fixture is the YAML shape of a seeded SOP document
type fixture struct {
	Document struct {
		ID          string `yaml:"id"`
		OrgID       string `yaml:"org_id"`
		Title       string `yaml:"title"`
		Description string `yaml:"description"`
		CreatedBy   string `yaml:"created_by"`
	} `yaml:"document"`
	Nodes []fixtureNode `yaml:"nodes"`
}

type fixtureNode struct {
	ID          string        `yaml:"id"`
	Title       string        `yaml:"title"`
	ContentType string        `yaml:"content_type"`
	RichContent string        `yaml:"rich_content"`
	ExternalRef string        `yaml:"external_ref"`
	Children    []fixtureNode `yaml:"children"`
}

// SOPSeeder loads embedded fixtures into the document tables
type SOPSeeder struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewSOPSeeder creates a new seeder
func NewSOPSeeder(pool *pgxpool.Pool, tables *postgres.TableNames, logger *slog.Logger) *SOPSeeder {
	return &SOPSeeder{
		pool:   pool,
		tables: tables,
		logger: logger,
	}
}

// SeedAll loads every embedded fixture. Fixed IDs plus ON CONFLICT DO NOTHING
// make re-runs idempotent.
func (s *SOPSeeder) SeedAll(ctx context.Context) error {
	entries, err := fixtureFiles.ReadDir("fixtures")
	if err != nil {
		return fmt.Errorf("failed to list fixtures: %w", err)
	}

	for _, entry := range entries {
		data, err := fixtureFiles.ReadFile("fixtures/" + entry.Name())
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}

		var f fixture
		if err := yaml.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("failed to unmarshal %s: %w", entry.Name(), err)
		}

		if err := s.seedFixture(ctx, &f); err != nil {
			return fmt.Errorf("failed to seed %s: %w", entry.Name(), err)
		}
		s.logger.Info("fixture seeded", "file", entry.Name(), "document_id", f.Document.ID)
	}

	return nil
}

func (s *SOPSeeder) seedFixture(ctx context.Context, f *fixture) error {
	now := time.Now()

	query := `INSERT INTO ` + s.tables.Documents + ` (id, org_id, title, description, status, version, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'draft', 0, $5, $6, $6)
		ON CONFLICT (id) DO NOTHING`
	if _, err := s.pool.Exec(ctx, query, f.Document.ID, f.Document.OrgID, f.Document.Title, f.Document.Description, f.Document.CreatedBy, now); err != nil {
		return err
	}

	return s.insertNodes(ctx, f.Document.ID, nil, f.Nodes, now)
}

func (s *SOPSeeder) insertNodes(ctx context.Context, documentID string, parentID *string, nodes []fixtureNode, now time.Time) error {
	query := `INSERT INTO ` + s.tables.Nodes + ` (id, document_id, parent_id, title, sort_order, content_type, rich_content, external_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (id) DO NOTHING`

	for i, n := range nodes {
		contentType := n.ContentType
		if contentType == "" {
			contentType = "rich_text"
		}
		if _, err := s.pool.Exec(ctx, query, n.ID, documentID, parentID, n.Title, i, contentType, n.RichContent, n.ExternalRef, now); err != nil {
			return err
		}
		if len(n.Children) > 0 {
			id := n.ID
			if err := s.insertNodes(ctx, documentID, &id, n.Children, now); err != nil {
				return err
			}
		}
	}
	return nil
}

// ClearAll removes all seeded data. Completions cascade from documents.
func (s *SOPSeeder) ClearAll(ctx context.Context) error {
	for _, table := range []string{s.tables.Completions, s.tables.Nodes, s.tables.Documents} {
		if _, err := s.pool.Exec(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}
