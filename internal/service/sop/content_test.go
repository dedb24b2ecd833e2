package sop

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	blobMemory "rxops/internal/blob/memory"
	"rxops/internal/config"
	"rxops/internal/domain"
	models "rxops/internal/domain/models/sop"
	sopSvc "rxops/internal/domain/services/sop"
)

func newContentFixture(t *testing.T, delay time.Duration) (*fakeDocumentRepo, *fakeNodeRepo, *blobMemory.Store, sopSvc.ContentService) {
	t.Helper()
	docRepo := newFakeDocumentRepo()
	nodeRepo := newFakeNodeRepo()
	store := blobMemory.New()
	svc := NewContentService(nodeRepo, docRepo, store, delay, nil, testLogger())

	ctx := context.Background()
	docRepo.Create(ctx, &models.Document{ID: "d1", OrgID: "org-a", Status: models.StatusDraft})
	nodeRepo.Create(ctx, &models.Node{
		ID:          "n1",
		DocumentID:  "d1",
		Title:       "Step",
		ContentType: models.ContentRichText,
	})
	return docRepo, nodeRepo, store, svc
}

func TestStageRichContentPersistsAfterQuietPeriod(t *testing.T) {
	_, nodeRepo, _, svc := newContentFixture(t, 20*time.Millisecond)
	ctx := context.Background()

	if err := svc.StageRichContent(ctx, "org-a", "n1", "v1"); err != nil {
		t.Fatalf("StageRichContent failed: %v", err)
	}
	if err := svc.StageRichContent(ctx, "org-a", "n1", "v2"); err != nil {
		t.Fatalf("StageRichContent failed: %v", err)
	}

	waitFor(t, func() bool {
		node, _ := nodeRepo.GetByID(ctx, "n1")
		return node != nil && node.RichContent == "v2"
	})
}

func TestStageRichContentRejectsOversize(t *testing.T) {
	_, _, _, svc := newContentFixture(t, time.Hour)

	huge := strings.Repeat("x", config.MaxRichContentBytes+1)
	err := svc.StageRichContent(context.Background(), "org-a", "n1", huge)
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("got %v, want validation error", err)
	}
}

func TestFlushOnNavigatePersists(t *testing.T) {
	_, nodeRepo, _, svc := newContentFixture(t, time.Hour)
	ctx := context.Background()

	svc.StageRichContent(ctx, "org-a", "n1", "staged")
	if err := svc.Flush(ctx, "org-a", "n1"); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	node, _ := nodeRepo.GetByID(ctx, "n1")
	if node.RichContent != "staged" {
		t.Errorf("content = %q after flush", node.RichContent)
	}
}

func TestFlushScopedToOrg(t *testing.T) {
	_, nodeRepo, _, svc := newContentFixture(t, time.Hour)
	ctx := context.Background()

	svc.StageRichContent(ctx, "org-a", "n1", "staged")

	err := svc.Flush(ctx, "org-b", "n1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("got %v, want not found for foreign org", err)
	}
	node, _ := nodeRepo.GetByID(ctx, "n1")
	if node.RichContent != "" {
		t.Errorf("foreign org flush persisted %q", node.RichContent)
	}

	// The owning org can still flush the pending edit
	if err := svc.Flush(ctx, "org-a", "n1"); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	node, _ = nodeRepo.GetByID(ctx, "n1")
	if node.RichContent != "staged" {
		t.Errorf("content = %q after flush", node.RichContent)
	}
}

func TestDiscardDropsPendingEdit(t *testing.T) {
	_, nodeRepo, _, svc := newContentFixture(t, time.Hour)
	ctx := context.Background()

	svc.StageRichContent(ctx, "org-a", "n1", "unwanted")

	if err := svc.Discard(ctx, "org-b", "n1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("got %v, want not found for foreign org", err)
	}
	if err := svc.Discard(ctx, "org-a", "n1"); err != nil {
		t.Fatalf("Discard failed: %v", err)
	}

	// Nothing left to flush
	if err := svc.Flush(ctx, "org-a", "n1"); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	node, _ := nodeRepo.GetByID(ctx, "n1")
	if node.RichContent != "" {
		t.Errorf("discarded edit landed as %q", node.RichContent)
	}
}

func TestPendingEditDroppedIfArchivedBeforeTimer(t *testing.T) {
	docRepo, nodeRepo, _, svc := newContentFixture(t, time.Hour)
	ctx := context.Background()

	svc.StageRichContent(ctx, "org-a", "n1", "too late")
	docRepo.Archive(ctx, "d1", "org-a")

	// The write is rejected at persist time, not retried
	if err := svc.Flush(ctx, "org-a", "n1"); err == nil {
		t.Fatal("flush into an archived document should fail")
	}

	node, _ := nodeRepo.GetByID(ctx, "n1")
	if node.RichContent != "" {
		t.Errorf("archived document gained content %q", node.RichContent)
	}
}

func TestSaveRichContentBypassesDebounce(t *testing.T) {
	_, nodeRepo, _, svc := newContentFixture(t, time.Hour)
	ctx := context.Background()

	svc.StageRichContent(ctx, "org-a", "n1", "pending")
	node, err := svc.SaveRichContent(ctx, "org-a", "n1", "direct")
	if err != nil {
		t.Fatalf("SaveRichContent failed: %v", err)
	}
	if node.RichContent != "direct" {
		t.Errorf("returned content = %q", node.RichContent)
	}

	// The superseded pending edit must not land later
	if err := svc.Flush(ctx, "org-a", "n1"); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	stored, _ := nodeRepo.GetByID(ctx, "n1")
	if stored.RichContent != "direct" {
		t.Errorf("stored content = %q, want %q", stored.RichContent, "direct")
	}
}

func TestSwitchContentTypeKeepsBothPayloads(t *testing.T) {
	_, nodeRepo, _, svc := newContentFixture(t, time.Hour)
	ctx := context.Background()

	if _, err := svc.SaveRichContent(ctx, "org-a", "n1", "rich body"); err != nil {
		t.Fatal(err)
	}

	node, err := svc.SwitchContentType(ctx, "org-a", "n1", models.ContentExternalDocument)
	if err != nil {
		t.Fatalf("SwitchContentType failed: %v", err)
	}
	if node.ContentType != models.ContentExternalDocument {
		t.Errorf("content type = %q", node.ContentType)
	}
	if node.RichContent != "rich body" {
		t.Error("rich content lost on switch")
	}

	// Switching back restores the rich variant untouched
	node, err = svc.SwitchContentType(ctx, "org-a", "n1", models.ContentRichText)
	if err != nil {
		t.Fatal(err)
	}
	stored, _ := nodeRepo.GetByID(ctx, "n1")
	if stored.RichContent != "rich body" || stored.ContentType != models.ContentRichText {
		t.Errorf("round trip lost state: type=%q content=%q", stored.ContentType, stored.RichContent)
	}

	if _, err := svc.SwitchContentType(ctx, "org-a", "n1", "bogus"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("got %v, want validation error for bogus type", err)
	}
}

func TestAttachExternalStoresLocatorNotURL(t *testing.T) {
	_, nodeRepo, store, svc := newContentFixture(t, time.Hour)
	ctx := context.Background()

	node, err := svc.AttachExternal(ctx, &sopSvc.AttachExternalRequest{
		OrgID:       "org-a",
		NodeID:      "n1",
		Filename:    "fridge-manual.pdf",
		ContentType: "application/pdf",
		Body:        strings.NewReader("pdf bytes"),
		Size:        9,
	})
	if err != nil {
		t.Fatalf("AttachExternal failed: %v", err)
	}

	if node.ContentType != models.ContentExternalDocument {
		t.Errorf("content type = %q", node.ContentType)
	}
	if node.ExternalRef == "" {
		t.Fatal("no locator persisted")
	}
	if strings.HasPrefix(node.ExternalRef, "http") {
		t.Errorf("locator %q looks like a URL; only the opaque key belongs on the node", node.ExternalRef)
	}
	if store.Len() != 1 {
		t.Errorf("store holds %d objects, want 1", store.Len())
	}

	// Resolution happens on demand
	url, err := svc.ResolveExternalURL(ctx, "org-a", "n1")
	if err != nil {
		t.Fatalf("ResolveExternalURL failed: %v", err)
	}
	if url == "" {
		t.Error("resolved URL is empty")
	}

	stored, _ := nodeRepo.GetByID(ctx, "n1")
	if stored.ExternalRef != node.ExternalRef {
		t.Error("locator not persisted on the node")
	}
}

func TestResolveExternalURLWithoutAttachment(t *testing.T) {
	_, _, _, svc := newContentFixture(t, time.Hour)

	_, err := svc.ResolveExternalURL(context.Background(), "org-a", "n1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("got %v, want not found", err)
	}
}
