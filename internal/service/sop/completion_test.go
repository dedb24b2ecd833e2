package sop

import (
	"context"
	"errors"
	"testing"

	"rxops/internal/domain"
	models "rxops/internal/domain/models/sop"
	sopSvc "rxops/internal/domain/services/sop"
)

func newCompletionFixture(t *testing.T) (sopSvc.DocumentService, sopSvc.CompletionService) {
	t.Helper()
	docRepo := newFakeDocumentRepo()
	completionRepo := newFakeCompletionRepo(docRepo)
	docSvc := NewDocumentService(docRepo, nil, testLogger())
	compSvc := NewCompletionService(completionRepo, docRepo, testLogger())
	return docSvc, compSvc
}

func TestMarkCompleteValidation(t *testing.T) {
	docSvc, compSvc := newCompletionFixture(t)
	ctx := context.Background()

	doc, _ := docSvc.CreateDocument(ctx, &sopSvc.CreateDocumentRequest{
		OrgID: "org-a", CreatedBy: "m1", Title: "T",
	})

	tests := []struct {
		name    string
		setup   func()
		version int
	}{
		{"zero version", func() {}, 0},
		{"negative version", func() {}, -1},
		{"never published", func() {}, 1},
		{"future version", func() { docSvc.Publish(ctx, "org-a", doc.ID) }, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			_, err := compSvc.MarkComplete(ctx, &sopSvc.MarkCompleteRequest{
				OrgID: "org-a", MemberID: "m1", DocumentID: doc.ID, Version: tt.version,
			})
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("got %v, want validation error", err)
			}
		})
	}
}

func TestCompletionGoesStaleOnRepublish(t *testing.T) {
	docSvc, compSvc := newCompletionFixture(t)
	ctx := context.Background()

	doc, _ := docSvc.CreateDocument(ctx, &sopSvc.CreateDocumentRequest{
		OrgID: "org-a", CreatedBy: "m1", Title: "T",
	})
	docSvc.Publish(ctx, "org-a", doc.ID)

	rec, err := compSvc.MarkComplete(ctx, &sopSvc.MarkCompleteRequest{
		OrgID: "org-a", MemberID: "m1", DocumentID: doc.ID, Version: 1,
	})
	if err != nil {
		t.Fatalf("MarkComplete failed: %v", err)
	}
	if rec.DocumentVersion != 1 {
		t.Errorf("recorded version = %d, want 1", rec.DocumentVersion)
	}

	statuses, err := compSvc.ListForDocument(ctx, "org-a", doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(statuses) != 1 || !statuses[0].Current {
		t.Error("fresh completion should be current")
	}

	// A new revision restales every record without touching the ledger rows
	docSvc.Publish(ctx, "org-a", doc.ID)

	statuses, _ = compSvc.ListForDocument(ctx, "org-a", doc.ID)
	if len(statuses) != 1 {
		t.Fatalf("ledger row count changed: %d", len(statuses))
	}
	if statuses[0].Current {
		t.Error("completion should be stale after republish")
	}
	if statuses[0].DocumentVersion != 1 {
		t.Errorf("stored version rewritten to %d", statuses[0].DocumentVersion)
	}

	// Re-acknowledging at the new version overwrites the pair's record
	compSvc.MarkComplete(ctx, &sopSvc.MarkCompleteRequest{
		OrgID: "org-a", MemberID: "m1", DocumentID: doc.ID, Version: 2,
	})
	statuses, _ = compSvc.ListForDocument(ctx, "org-a", doc.ID)
	if len(statuses) != 1 || !statuses[0].Current || statuses[0].DocumentVersion != 2 {
		t.Error("re-acknowledgement did not overwrite the record")
	}
}

func TestMarkCompleteAllowedOnArchived(t *testing.T) {
	docSvc, compSvc := newCompletionFixture(t)
	ctx := context.Background()

	doc, _ := docSvc.CreateDocument(ctx, &sopSvc.CreateDocumentRequest{
		OrgID: "org-a", CreatedBy: "m1", Title: "T",
	})
	docSvc.Publish(ctx, "org-a", doc.ID)
	docSvc.Archive(ctx, "org-a", doc.ID)

	// Archiving stops edits, not acknowledgements
	if _, err := compSvc.MarkComplete(ctx, &sopSvc.MarkCompleteRequest{
		OrgID: "org-a", MemberID: "m1", DocumentID: doc.ID, Version: 1,
	}); err != nil {
		t.Errorf("MarkComplete on archived document failed: %v", err)
	}
}

func TestListForMemberSpansDocuments(t *testing.T) {
	docSvc, compSvc := newCompletionFixture(t)
	ctx := context.Background()

	d1, _ := docSvc.CreateDocument(ctx, &sopSvc.CreateDocumentRequest{OrgID: "org-a", CreatedBy: "m1", Title: "One"})
	d2, _ := docSvc.CreateDocument(ctx, &sopSvc.CreateDocumentRequest{OrgID: "org-a", CreatedBy: "m1", Title: "Two"})
	docSvc.Publish(ctx, "org-a", d1.ID)
	docSvc.Publish(ctx, "org-a", d2.ID)

	compSvc.MarkComplete(ctx, &sopSvc.MarkCompleteRequest{OrgID: "org-a", MemberID: "m1", DocumentID: d1.ID, Version: 1})
	compSvc.MarkComplete(ctx, &sopSvc.MarkCompleteRequest{OrgID: "org-a", MemberID: "m1", DocumentID: d2.ID, Version: 1})
	compSvc.MarkComplete(ctx, &sopSvc.MarkCompleteRequest{OrgID: "org-a", MemberID: "m2", DocumentID: d1.ID, Version: 1})

	// d2 moves on, m1's record there goes stale
	docSvc.Publish(ctx, "org-a", d2.ID)

	statuses, err := compSvc.ListForMember(ctx, "org-a", "m1")
	if err != nil {
		t.Fatal(err)
	}
	if len(statuses) != 2 {
		t.Fatalf("got %d records, want 2", len(statuses))
	}

	byDoc := map[string]models.CompletionStatus{}
	for _, s := range statuses {
		byDoc[s.DocumentID] = s
	}
	if !byDoc[d1.ID].Current {
		t.Error("d1 record should be current")
	}
	if byDoc[d2.ID].Current {
		t.Error("d2 record should be stale")
	}
}
