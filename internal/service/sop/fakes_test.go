package sop

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"rxops/internal/domain"
	models "rxops/internal/domain/models/sop"
	"rxops/internal/domain/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTxManager runs the function directly; the fakes mutate shared maps so
// there is nothing to roll back.
type fakeTxManager struct{}

func (fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

// fakeDocumentRepo is an in-memory DocumentRepository
type fakeDocumentRepo struct {
	mu   sync.Mutex
	docs map[string]*models.Document
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{docs: make(map[string]*models.Document)}
}

func (r *fakeDocumentRepo) Create(ctx context.Context, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *fakeDocumentRepo) GetByID(ctx context.Context, id, orgID string) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok || (orgID != "" && doc.OrgID != orgID) {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("document %s not found", id)}
	}
	cp := *doc
	return &cp, nil
}

func (r *fakeDocumentRepo) ListByOrg(ctx context.Context, orgID string, status models.DocumentStatus) ([]models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Document
	for _, doc := range r.docs {
		if doc.OrgID != orgID {
			continue
		}
		if status != "" && doc.Status != status {
			continue
		}
		out = append(out, *doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeDocumentRepo) UpdateMetadata(ctx context.Context, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.docs[doc.ID]
	if !ok {
		return &domain.NotFoundError{Message: "document not found"}
	}
	stored.Title = doc.Title
	stored.Description = doc.Description
	return nil
}

func (r *fakeDocumentRepo) Publish(ctx context.Context, id, orgID string) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok || doc.OrgID != orgID || doc.Status == models.StatusArchived {
		return nil, &domain.NotFoundError{Message: "document not found"}
	}
	doc.Version++
	doc.Status = models.StatusPublished
	now := doc.UpdatedAt
	doc.PublishedAt = &now
	cp := *doc
	return &cp, nil
}

func (r *fakeDocumentRepo) Archive(ctx context.Context, id, orgID string) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok || doc.OrgID != orgID {
		return nil, &domain.NotFoundError{Message: "document not found"}
	}
	doc.Status = models.StatusArchived
	cp := *doc
	return &cp, nil
}

// fakeNodeRepo is an in-memory NodeRepository
type fakeNodeRepo struct {
	mu    sync.Mutex
	nodes map[string]*models.Node
}

func newFakeNodeRepo() *fakeNodeRepo {
	return &fakeNodeRepo{nodes: make(map[string]*models.Node)}
}

func (r *fakeNodeRepo) Create(ctx context.Context, node *models.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *node
	r.nodes[node.ID] = &cp
	return nil
}

func (r *fakeNodeRepo) GetByID(ctx context.Context, id string) (*models.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	node, ok := r.nodes[id]
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("node %s not found", id)}
	}
	cp := *node
	return &cp, nil
}

func (r *fakeNodeRepo) GetAllByDocument(ctx context.Context, documentID string) ([]models.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Node
	for _, node := range r.nodes {
		if node.DocumentID == documentID {
			out = append(out, *node)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (r *fakeNodeRepo) ListSiblings(ctx context.Context, documentID string, parentID *string) ([]models.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Node
	for _, node := range r.nodes {
		if node.DocumentID == documentID && sameParent(node.ParentID, parentID) {
			out = append(out, *node)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (r *fakeNodeRepo) MaxSortOrder(ctx context.Context, documentID string, parentID *string) (int, error) {
	siblings, _ := r.ListSiblings(ctx, documentID, parentID)
	max := -1
	for _, n := range siblings {
		if n.SortOrder > max {
			max = n.SortOrder
		}
	}
	return max, nil
}

func (r *fakeNodeRepo) UpdateTitle(ctx context.Context, id, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	node, ok := r.nodes[id]
	if !ok {
		return &domain.NotFoundError{Message: "node not found"}
	}
	node.Title = title
	return nil
}

func (r *fakeNodeRepo) UpdateSortOrder(ctx context.Context, id string, sortOrder int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	node, ok := r.nodes[id]
	if !ok {
		return &domain.NotFoundError{Message: "node not found"}
	}
	node.SortOrder = sortOrder
	return nil
}

func (r *fakeNodeRepo) UpdateParent(ctx context.Context, id string, parentID *string, sortOrder int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	node, ok := r.nodes[id]
	if !ok {
		return &domain.NotFoundError{Message: "node not found"}
	}
	node.ParentID = parentID
	node.SortOrder = sortOrder
	return nil
}

func (r *fakeNodeRepo) UpdateContent(ctx context.Context, node *models.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.nodes[node.ID]
	if !ok {
		return &domain.NotFoundError{Message: "node not found"}
	}
	stored.ContentType = node.ContentType
	stored.RichContent = node.RichContent
	stored.ExternalRef = node.ExternalRef
	return nil
}

func (r *fakeNodeRepo) DeleteSubtree(ctx context.Context, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.nodes[id]; !ok {
		return 0, &domain.NotFoundError{Message: "node not found"}
	}

	toDelete := map[string]bool{id: true}
	for {
		grew := false
		for _, node := range r.nodes {
			if node.ParentID != nil && toDelete[*node.ParentID] && !toDelete[node.ID] {
				toDelete[node.ID] = true
				grew = true
			}
		}
		if !grew {
			break
		}
	}
	for nodeID := range toDelete {
		delete(r.nodes, nodeID)
	}
	return len(toDelete), nil
}

// fakeCompletionRepo is an in-memory CompletionRepository
type fakeCompletionRepo struct {
	mu      sync.Mutex
	records map[string]*models.CompletionRecord // key: documentID + "/" + memberID
	docs    *fakeDocumentRepo                   // for org scoping in ListByMember
}

func newFakeCompletionRepo(docs *fakeDocumentRepo) *fakeCompletionRepo {
	return &fakeCompletionRepo{
		records: make(map[string]*models.CompletionRecord),
		docs:    docs,
	}
}

func (r *fakeCompletionRepo) Upsert(ctx context.Context, rec *models.CompletionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.records[rec.DocumentID+"/"+rec.MemberID] = &cp
	return nil
}

func (r *fakeCompletionRepo) GetByDocumentMember(ctx context.Context, documentID, memberID string) (*models.CompletionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[documentID+"/"+memberID]
	if !ok {
		return nil, &domain.NotFoundError{Message: "completion not found"}
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeCompletionRepo) ListByDocument(ctx context.Context, documentID string) ([]models.CompletionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.CompletionRecord
	for _, rec := range r.records {
		if rec.DocumentID == documentID {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MemberID < out[j].MemberID })
	return out, nil
}

func (r *fakeCompletionRepo) ListByMember(ctx context.Context, orgID, memberID string) ([]models.CompletionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.CompletionRecord
	for _, rec := range r.records {
		if rec.MemberID != memberID {
			continue
		}
		if doc, err := r.docs.GetByID(ctx, rec.DocumentID, orgID); err != nil || doc == nil {
			continue
		}
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocumentID < out[j].DocumentID })
	return out, nil
}

// countingInvalidator records invalidation calls
type countingInvalidator struct {
	mu    sync.Mutex
	calls []string
}

func (c *countingInvalidator) Invalidate(ctx context.Context, documentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, documentID)
	return nil
}

func (c *countingInvalidator) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}
