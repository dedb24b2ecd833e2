package sop

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"rxops/internal/blob"
	"rxops/internal/config"
	"rxops/internal/domain"
	models "rxops/internal/domain/models/sop"
	sopRepo "rxops/internal/domain/repositories/sop"
	sopSvc "rxops/internal/domain/services/sop"

	"github.com/google/uuid"
)

const attachmentURLExpiry = 15 * time.Minute

// contentService implements the ContentService interface
type contentService struct {
	nodeRepo    sopRepo.NodeRepository
	docRepo     sopRepo.DocumentRepository
	blobStore   blob.Store
	scheduler   *AutosaveScheduler
	invalidator TreeInvalidator
	logger      *slog.Logger
}

// NewContentService creates the content store. The scheduler's persist
// function is bound here so timer-fired writes go through the same path as
// synchronous saves. invalidator may be nil.
func NewContentService(
	nodeRepo sopRepo.NodeRepository,
	docRepo sopRepo.DocumentRepository,
	blobStore blob.Store,
	autosaveDelay time.Duration,
	invalidator TreeInvalidator,
	logger *slog.Logger,
) sopSvc.ContentService {
	s := &contentService{
		nodeRepo:    nodeRepo,
		docRepo:     docRepo,
		blobStore:   blobStore,
		invalidator: invalidator,
		logger:      logger,
	}
	s.scheduler = NewAutosaveScheduler(autosaveDelay, s.persistRichContent, logger)
	return s
}

// StageRichContent records an edit and (re)starts the node's autosave timer.
// Validation and the archived guard run at staging time so the editor hears
// about a rejected edit immediately, not 1.5s later.
func (s *contentService) StageRichContent(ctx context.Context, orgID, nodeID, richContent string) error {
	if len(richContent) > config.MaxRichContentBytes {
		return &domain.ValidationError{Message: "rich content exceeds the maximum size"}
	}

	node, err := s.nodeRepo.GetByID(ctx, nodeID)
	if err != nil {
		return err
	}
	if _, err := mutableDocument(ctx, s.docRepo, node.DocumentID, orgID); err != nil {
		return err
	}

	s.scheduler.Schedule(nodeID, richContent)
	return nil
}

// Flush persists the node's pending edit immediately (navigate-away path).
// The org scope is checked here; the archived state is re-checked by the
// persist path itself.
func (s *contentService) Flush(ctx context.Context, orgID, nodeID string) error {
	node, err := s.nodeRepo.GetByID(ctx, nodeID)
	if err != nil {
		return err
	}
	if _, err := s.docRepo.GetByID(ctx, node.DocumentID, orgID); err != nil {
		return err
	}
	return s.scheduler.Flush(ctx, nodeID)
}

// Discard drops the node's pending edit without persisting
func (s *contentService) Discard(ctx context.Context, orgID, nodeID string) error {
	node, err := s.nodeRepo.GetByID(ctx, nodeID)
	if err != nil {
		return err
	}
	if _, err := s.docRepo.GetByID(ctx, node.DocumentID, orgID); err != nil {
		return err
	}
	s.scheduler.Cancel(nodeID)
	return nil
}

// Shutdown flushes all pending edits; called on server stop.
func (s *contentService) Shutdown(ctx context.Context) {
	s.scheduler.Close(ctx)
}

// SaveRichContent writes rich content synchronously, bypassing the debounce.
// Any pending autosave for the node is superseded by this write.
func (s *contentService) SaveRichContent(ctx context.Context, orgID, nodeID, richContent string) (*models.Node, error) {
	if len(richContent) > config.MaxRichContentBytes {
		return nil, &domain.ValidationError{Message: "rich content exceeds the maximum size"}
	}

	node, err := s.nodeRepo.GetByID(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if _, err := mutableDocument(ctx, s.docRepo, node.DocumentID, orgID); err != nil {
		return nil, err
	}

	s.scheduler.Cancel(nodeID)

	node.RichContent = richContent
	if err := s.nodeRepo.UpdateContent(ctx, node); err != nil {
		return nil, err
	}

	return node, nil
}

// persistRichContent is the scheduler's write path. The archived state is
// re-checked because the document may have been archived during the quiet
// window; a write rejected here is dropped with a log, matching the
// pessimistic no-dangling-state rule.
func (s *contentService) persistRichContent(ctx context.Context, nodeID, richContent string) error {
	node, err := s.nodeRepo.GetByID(ctx, nodeID)
	if err != nil {
		return err
	}

	doc, err := s.docRepo.GetByID(ctx, node.DocumentID, "")
	if err != nil {
		return err
	}
	if !doc.Mutable() {
		return &domain.DocumentArchivedError{DocumentID: doc.ID}
	}

	node.RichContent = richContent
	return s.nodeRepo.UpdateContent(ctx, node)
}

// SwitchContentType changes the active variant. Both payload columns are
// retained, so switching back restores the previous variant untouched.
func (s *contentService) SwitchContentType(ctx context.Context, orgID, nodeID string, contentType models.ContentType) (*models.Node, error) {
	if !contentType.Valid() {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("invalid content type %q", contentType)}
	}

	node, err := s.nodeRepo.GetByID(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if _, err := mutableDocument(ctx, s.docRepo, node.DocumentID, orgID); err != nil {
		return nil, err
	}

	if node.ContentType == contentType {
		return node, nil
	}

	node.ContentType = contentType
	if err := s.nodeRepo.UpdateContent(ctx, node); err != nil {
		return nil, err
	}

	s.invalidateTree(ctx, node.DocumentID)

	return node, nil
}

// AttachExternal uploads the file through the storage collaborator and
// persists only the opaque locator on the node.
func (s *contentService) AttachExternal(ctx context.Context, req *sopSvc.AttachExternalRequest) (*models.Node, error) {
	if req.Filename == "" {
		return nil, &domain.ValidationError{Message: "filename is required"}
	}
	if req.Size > config.MaxUploadBytes {
		return nil, &domain.ValidationError{Message: "upload exceeds the maximum size"}
	}

	node, err := s.nodeRepo.GetByID(ctx, req.NodeID)
	if err != nil {
		return nil, err
	}
	if _, err := mutableDocument(ctx, s.docRepo, node.DocumentID, req.OrgID); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("sop-attachments/%s/%s-%s", node.DocumentID, uuid.NewString(), path.Base(req.Filename))
	info, err := s.blobStore.Put(ctx, key, req.Body, blob.PutOptions{
		ContentType: req.ContentType,
		Metadata:    map[string]string{"node_id": req.NodeID},
	})
	if err != nil {
		return nil, &domain.TransientStoreError{Op: "upload attachment", Err: err}
	}

	node.ExternalRef = info.Key
	node.ContentType = models.ContentExternalDocument
	if err := s.nodeRepo.UpdateContent(ctx, node); err != nil {
		return nil, err
	}

	s.invalidateTree(ctx, node.DocumentID)
	s.logger.Info("attachment stored",
		"node_id", req.NodeID,
		"locator", info.Key,
		"size", info.Size,
	)

	return node, nil
}

// ResolveExternalURL resolves a node's locator to a retrievable URL
func (s *contentService) ResolveExternalURL(ctx context.Context, orgID, nodeID string) (string, error) {
	node, err := s.nodeRepo.GetByID(ctx, nodeID)
	if err != nil {
		return "", err
	}
	if _, err := s.docRepo.GetByID(ctx, node.DocumentID, orgID); err != nil {
		return "", err
	}
	if node.ExternalRef == "" {
		return "", &domain.NotFoundError{Message: "node has no external document attached"}
	}

	url, err := s.blobStore.ResolveURL(ctx, node.ExternalRef, attachmentURLExpiry)
	if err != nil {
		return "", &domain.TransientStoreError{Op: "resolve attachment url", Err: err}
	}
	return url, nil
}

func (s *contentService) invalidateTree(ctx context.Context, documentID string) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx, documentID); err != nil {
		s.logger.Warn("tree cache invalidation failed", "document_id", documentID, "error", err)
	}
}
