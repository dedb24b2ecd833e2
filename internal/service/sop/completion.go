package sop

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"rxops/internal/domain"
	models "rxops/internal/domain/models/sop"
	sopRepo "rxops/internal/domain/repositories/sop"
	sopSvc "rxops/internal/domain/services/sop"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var completionsMarkedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "sop_completions_marked_total",
	Help: "Total read acknowledgements recorded.",
})

// completionService implements the CompletionService interface
type completionService struct {
	completionRepo sopRepo.CompletionRepository
	docRepo        sopRepo.DocumentRepository
	logger         *slog.Logger
}

// NewCompletionService creates the completion ledger service
func NewCompletionService(
	completionRepo sopRepo.CompletionRepository,
	docRepo sopRepo.DocumentRepository,
	logger *slog.Logger,
) sopSvc.CompletionService {
	return &completionService{
		completionRepo: completionRepo,
		docRepo:        docRepo,
		logger:         logger,
	}
}

// MarkComplete records that the member has read the document at the given
// version. A later call for the same pair overwrites the earlier record.
// Archived documents still accept acknowledgements; members can finish
// reading a document that was retired under them.
func (s *completionService) MarkComplete(ctx context.Context, req *sopSvc.MarkCompleteRequest) (*models.CompletionRecord, error) {
	if req.Version <= 0 {
		return nil, &domain.ValidationError{Message: "version must be a positive integer"}
	}

	doc, err := s.docRepo.GetByID(ctx, req.DocumentID, req.OrgID)
	if err != nil {
		return nil, err
	}

	if doc.Version == 0 {
		return nil, &domain.ValidationError{Message: "document has never been published"}
	}
	if req.Version > doc.Version {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("version %d has not been published yet (current is %d)", req.Version, doc.Version),
		}
	}

	rec := &models.CompletionRecord{
		DocumentID:      req.DocumentID,
		MemberID:        req.MemberID,
		DocumentVersion: req.Version,
		CompletedAt:     time.Now(),
	}

	if err := s.completionRepo.Upsert(ctx, rec); err != nil {
		return nil, err
	}

	completionsMarkedTotal.Inc()
	s.logger.Info("completion marked",
		"document_id", req.DocumentID,
		"member_id", req.MemberID,
		"version", req.Version,
	)

	return rec, nil
}

// ListForDocument lists a document's records with their derived currency
func (s *completionService) ListForDocument(ctx context.Context, orgID, documentID string) ([]models.CompletionStatus, error) {
	doc, err := s.docRepo.GetByID(ctx, documentID, orgID)
	if err != nil {
		return nil, err
	}

	recs, err := s.completionRepo.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	statuses := make([]models.CompletionStatus, 0, len(recs))
	for _, rec := range recs {
		statuses = append(statuses, models.CompletionStatus{
			CompletionRecord: rec,
			Current:          rec.IsCurrentFor(doc),
		})
	}
	return statuses, nil
}

// ListForMember lists a member's records across the organization. Currency is
// derived against each record's document, fetched once per distinct document.
func (s *completionService) ListForMember(ctx context.Context, orgID, memberID string) ([]models.CompletionStatus, error) {
	recs, err := s.completionRepo.ListByMember(ctx, orgID, memberID)
	if err != nil {
		return nil, err
	}

	docs := make(map[string]*models.Document, len(recs))
	statuses := make([]models.CompletionStatus, 0, len(recs))
	for _, rec := range recs {
		doc, ok := docs[rec.DocumentID]
		if !ok {
			doc, err = s.docRepo.GetByID(ctx, rec.DocumentID, orgID)
			if err != nil {
				return nil, err
			}
			docs[rec.DocumentID] = doc
		}
		statuses = append(statuses, models.CompletionStatus{
			CompletionRecord: rec,
			Current:          rec.IsCurrentFor(doc),
		})
	}
	return statuses, nil
}
