package sop

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"rxops/internal/config"
	"rxops/internal/domain"
	models "rxops/internal/domain/models/sop"
	sopRepo "rxops/internal/domain/repositories/sop"
	sopSvc "rxops/internal/domain/services/sop"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var publishesTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "rxops_sop_publishes_total",
	Help: "Publish transitions that committed successfully",
})

// documentService implements the DocumentService interface
type documentService struct {
	docRepo     sopRepo.DocumentRepository
	invalidator TreeInvalidator
	logger      *slog.Logger
}

// NewDocumentService creates the lifecycle service. invalidator may be nil.
func NewDocumentService(
	docRepo sopRepo.DocumentRepository,
	invalidator TreeInvalidator,
	logger *slog.Logger,
) sopSvc.DocumentService {
	return &documentService{
		docRepo:     docRepo,
		invalidator: invalidator,
		logger:      logger,
	}
}

// CreateDocument creates a new draft at version 0
func (s *documentService) CreateDocument(ctx context.Context, req *sopSvc.CreateDocumentRequest) (*models.Document, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validateCreate(req); err != nil {
		return nil, err
	}

	now := time.Now()
	doc := &models.Document{
		ID:          uuid.NewString(),
		OrgID:       req.OrgID,
		Title:       req.Title,
		Description: req.Description,
		Status:      models.StatusDraft,
		Version:     0, // first publish makes it 1
		CreatedBy:   req.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, err
	}

	s.logger.Info("document created",
		"id", doc.ID,
		"org_id", doc.OrgID,
		"title", doc.Title,
	)

	return doc, nil
}

// GetDocument retrieves a document scoped to the caller's organization
func (s *documentService) GetDocument(ctx context.Context, orgID, documentID string) (*models.Document, error) {
	return s.docRepo.GetByID(ctx, documentID, orgID)
}

// ListDocuments lists the organization's documents
func (s *documentService) ListDocuments(ctx context.Context, orgID string, status models.DocumentStatus) ([]models.Document, error) {
	if status != "" && !status.Valid() {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("invalid status filter %q", status)}
	}
	return s.docRepo.ListByOrg(ctx, orgID, status)
}

// UpdateDocument updates title/description. Permitted in draft and published;
// never touches version.
func (s *documentService) UpdateDocument(ctx context.Context, orgID, documentID string, req *sopSvc.UpdateDocumentRequest) (*models.Document, error) {
	if req.Title == nil && req.Description == nil {
		return nil, &domain.ValidationError{Message: "at least one field must be provided"}
	}

	doc, err := mutableDocument(ctx, s.docRepo, documentID, orgID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if err := validation.Validate(title,
			validation.Required.Error("title must not be blank"),
			validation.Length(1, config.MaxDocumentTitleLength),
		); err != nil {
			return nil, &domain.ValidationError{Message: fmt.Sprintf("invalid title: %v", err)}
		}
		doc.Title = title
	}
	if req.Description != nil {
		if err := validation.Validate(*req.Description,
			validation.Length(0, config.MaxDescriptionLength),
		); err != nil {
			return nil, &domain.ValidationError{Message: fmt.Sprintf("invalid description: %v", err)}
		}
		doc.Description = *req.Description
	}

	if err := s.docRepo.UpdateMetadata(ctx, doc); err != nil {
		return nil, err
	}

	return doc, nil
}

// Publish increments the version and stamps published_at. Deliberately not
// idempotent: each call is a new revision of the procedure, so publishing
// twice yields two increments and restales every completion record.
func (s *documentService) Publish(ctx context.Context, orgID, documentID string) (*models.Document, error) {
	if _, err := mutableDocument(ctx, s.docRepo, documentID, orgID); err != nil {
		return nil, err
	}

	doc, err := s.docRepo.Publish(ctx, documentID, orgID)
	if err != nil {
		return nil, err
	}

	s.invalidateTree(ctx, documentID)
	publishesTotal.Inc()
	s.logger.Info("document published",
		"id", doc.ID,
		"org_id", doc.OrgID,
		"version", doc.Version,
	)

	return doc, nil
}

// Archive is the one-way terminal transition; version is untouched and
// reads remain valid afterwards.
func (s *documentService) Archive(ctx context.Context, orgID, documentID string) (*models.Document, error) {
	if _, err := mutableDocument(ctx, s.docRepo, documentID, orgID); err != nil {
		return nil, err
	}

	doc, err := s.docRepo.Archive(ctx, documentID, orgID)
	if err != nil {
		return nil, err
	}

	s.invalidateTree(ctx, documentID)
	s.logger.Info("document archived", "id", doc.ID, "org_id", doc.OrgID)

	return doc, nil
}

func (s *documentService) validateCreate(req *sopSvc.CreateDocumentRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.OrgID, validation.Required),
		validation.Field(&req.CreatedBy, validation.Required),
		validation.Field(&req.Title,
			validation.Required.Error("title must not be blank"),
			validation.Length(1, config.MaxDocumentTitleLength),
		),
		validation.Field(&req.Description, validation.Length(0, config.MaxDescriptionLength)),
	)
	if err != nil {
		return &domain.ValidationError{Message: fmt.Sprintf("invalid document: %v", err)}
	}
	return nil
}

func (s *documentService) invalidateTree(ctx context.Context, documentID string) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx, documentID); err != nil {
		s.logger.Warn("tree cache invalidation failed", "document_id", documentID, "error", err)
	}
}
