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
	"rxops/internal/domain/repositories"
	sopRepo "rxops/internal/domain/repositories/sop"
	sopSvc "rxops/internal/domain/services/sop"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var nodeMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rxops_sop_node_mutations_total",
	Help: "Node mutator operations that committed successfully",
}, []string{"op"})

// swapPlaceholder parks a node outside the non-negative sort_order range
// while its sibling takes over the vacated position.
const swapPlaceholder = -1

type nodeService struct {
	nodeRepo    sopRepo.NodeRepository
	docRepo     sopRepo.DocumentRepository
	txManager   repositories.TransactionManager
	invalidator TreeInvalidator // nil when no cache is wired
	logger      *slog.Logger
}

// NewNodeService creates the node mutator. invalidator may be nil.
func NewNodeService(
	nodeRepo sopRepo.NodeRepository,
	docRepo sopRepo.DocumentRepository,
	txManager repositories.TransactionManager,
	invalidator TreeInvalidator,
	logger *slog.Logger,
) sopSvc.NodeService {
	return &nodeService{
		nodeRepo:    nodeRepo,
		docRepo:     docRepo,
		txManager:   txManager,
		invalidator: invalidator,
		logger:      logger,
	}
}

// CreateNode appends a node at the end of the target sibling group
func (s *nodeService) CreateNode(ctx context.Context, req *sopSvc.CreateNodeRequest) (*models.Node, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validateTitle(req.Title); err != nil {
		return nil, err
	}

	if _, err := mutableDocument(ctx, s.docRepo, req.DocumentID, req.OrgID); err != nil {
		return nil, err
	}

	if req.ParentID != nil {
		parent, err := s.nodeRepo.GetByID(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.DocumentID != req.DocumentID {
			return nil, &domain.ValidationError{Message: "parent node belongs to a different document"}
		}
	}

	max, err := s.nodeRepo.MaxSortOrder(ctx, req.DocumentID, req.ParentID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	node := &models.Node{
		ID:          uuid.NewString(),
		DocumentID:  req.DocumentID,
		ParentID:    req.ParentID,
		Title:       req.Title,
		SortOrder:   max + 1, // 0 when the group was empty
		ContentType: models.ContentRichText,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.nodeRepo.Create(ctx, node); err != nil {
		return nil, err
	}

	s.invalidateTree(ctx, req.DocumentID)
	nodeMutationsTotal.WithLabelValues("create").Inc()
	s.logger.Info("node created",
		"id", node.ID,
		"document_id", node.DocumentID,
		"parent_id", node.ParentID,
		"sort_order", node.SortOrder,
	)

	return node, nil
}

// GetNode retrieves a node, verifying the document belongs to the org
func (s *nodeService) GetNode(ctx context.Context, orgID, nodeID string) (*models.Node, error) {
	node, err := s.nodeRepo.GetByID(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if _, err := s.docRepo.GetByID(ctx, node.DocumentID, orgID); err != nil {
		return nil, err
	}
	return node, nil
}

// ListNodes returns the flat node collection for a document
func (s *nodeService) ListNodes(ctx context.Context, orgID, documentID string) ([]models.Node, error) {
	if _, err := s.docRepo.GetByID(ctx, documentID, orgID); err != nil {
		return nil, err
	}
	return s.nodeRepo.GetAllByDocument(ctx, documentID)
}

// RenameNode retitles a node; no ordering effect
func (s *nodeService) RenameNode(ctx context.Context, orgID, nodeID, title string) (*models.Node, error) {
	title = strings.TrimSpace(title)
	if err := s.validateTitle(title); err != nil {
		return nil, err
	}

	node, err := s.nodeRepo.GetByID(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if _, err := mutableDocument(ctx, s.docRepo, node.DocumentID, orgID); err != nil {
		return nil, err
	}

	if err := s.nodeRepo.UpdateTitle(ctx, nodeID, title); err != nil {
		return nil, err
	}
	node.Title = title

	s.invalidateTree(ctx, node.DocumentID)
	nodeMutationsTotal.WithLabelValues("rename").Inc()

	return node, nil
}

// DeleteNode removes the node and its whole subtree. The removed count is
// reported back so the caller's confirmation UX can show the blast radius;
// the deletion itself is irreversible.
func (s *nodeService) DeleteNode(ctx context.Context, orgID, nodeID string) (*sopSvc.DeleteNodeResult, error) {
	node, err := s.nodeRepo.GetByID(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if _, err := mutableDocument(ctx, s.docRepo, node.DocumentID, orgID); err != nil {
		return nil, err
	}

	removed, err := s.nodeRepo.DeleteSubtree(ctx, nodeID)
	if err != nil {
		return nil, err
	}

	s.invalidateTree(ctx, node.DocumentID)
	nodeMutationsTotal.WithLabelValues("delete").Inc()
	s.logger.Info("node subtree deleted",
		"id", nodeID,
		"document_id", node.DocumentID,
		"removed_count", removed,
	)

	return &sopSvc.DeleteNodeResult{NodeID: nodeID, RemovedCount: removed}, nil
}

// MoveNode swaps the node with its adjacent sibling. Both order updates run
// in one transaction, and the sibling pair is re-derived from current state
// inside it, so an interleaved concurrent move can never leave duplicate
// positions behind.
func (s *nodeService) MoveNode(ctx context.Context, orgID, nodeID string, direction models.MoveDirection) error {
	if !direction.Valid() {
		return &domain.ValidationError{Message: fmt.Sprintf("invalid move direction %q", direction)}
	}

	node, err := s.nodeRepo.GetByID(ctx, nodeID)
	if err != nil {
		return err
	}
	if _, err := mutableDocument(ctx, s.docRepo, node.DocumentID, orgID); err != nil {
		return err
	}

	moved := false
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		siblings, err := s.nodeRepo.ListSiblings(txCtx, node.DocumentID, node.ParentID)
		if err != nil {
			return err
		}

		idx := -1
		for i := range siblings {
			if siblings[i].ID == nodeID {
				idx = i
				break
			}
		}
		if idx == -1 {
			// Moved or deleted between the guard and the transaction
			return &domain.NotFoundError{Message: fmt.Sprintf("node %s not found among its siblings", nodeID)}
		}

		var neighborIdx int
		switch direction {
		case models.MoveUp:
			neighborIdx = idx - 1
		case models.MoveDown:
			neighborIdx = idx + 1
		}
		if neighborIdx < 0 || neighborIdx >= len(siblings) {
			// Already at the edge: a no-op, not an error
			return nil
		}

		current := siblings[idx]
		neighbor := siblings[neighborIdx]

		// Step through a placeholder so the sibling-order uniqueness
		// constraint holds at every point inside the transaction.
		if err := s.nodeRepo.UpdateSortOrder(txCtx, current.ID, swapPlaceholder); err != nil {
			return err
		}
		if err := s.nodeRepo.UpdateSortOrder(txCtx, neighbor.ID, current.SortOrder); err != nil {
			return err
		}
		if err := s.nodeRepo.UpdateSortOrder(txCtx, current.ID, neighbor.SortOrder); err != nil {
			return err
		}

		moved = true
		return nil
	})
	if err != nil {
		return err
	}

	if moved {
		s.invalidateTree(ctx, node.DocumentID)
		nodeMutationsTotal.WithLabelValues("move").Inc()
		s.logger.Info("node moved",
			"id", nodeID,
			"document_id", node.DocumentID,
			"direction", direction,
		)
	}

	return nil
}

// ReparentNode moves a node (with its subtree) under a new parent at the end
// of the target sibling group.
func (s *nodeService) ReparentNode(ctx context.Context, orgID, nodeID string, newParentID *string) (*models.Node, error) {
	node, err := s.nodeRepo.GetByID(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if _, err := mutableDocument(ctx, s.docRepo, node.DocumentID, orgID); err != nil {
		return nil, err
	}

	if newParentID != nil {
		if err := s.validateNoCycle(ctx, node, *newParentID); err != nil {
			return nil, err
		}
	}

	max, err := s.nodeRepo.MaxSortOrder(ctx, node.DocumentID, newParentID)
	if err != nil {
		return nil, err
	}

	if err := s.nodeRepo.UpdateParent(ctx, nodeID, newParentID, max+1); err != nil {
		return nil, err
	}
	node.ParentID = newParentID
	node.SortOrder = max + 1

	s.invalidateTree(ctx, node.DocumentID)
	nodeMutationsTotal.WithLabelValues("reparent").Inc()
	s.logger.Info("node reparented",
		"id", nodeID,
		"document_id", node.DocumentID,
		"new_parent_id", newParentID,
	)

	return node, nil
}

// validateNoCycle walks the new parent's ancestor chain and rejects the move
// if the node appears in it (the node must never become its own ancestor).
func (s *nodeService) validateNoCycle(ctx context.Context, node *models.Node, newParentID string) error {
	if newParentID == node.ID {
		return &domain.CycleError{NodeID: node.ID}
	}

	currentID := newParentID
	for {
		parent, err := s.nodeRepo.GetByID(ctx, currentID)
		if err != nil {
			return err
		}
		if parent.DocumentID != node.DocumentID {
			return &domain.ValidationError{Message: "new parent belongs to a different document"}
		}
		if parent.ParentID == nil {
			return nil
		}
		if *parent.ParentID == node.ID {
			return &domain.CycleError{NodeID: node.ID}
		}
		currentID = *parent.ParentID
	}
}

func (s *nodeService) validateTitle(title string) error {
	err := validation.Validate(title,
		validation.Required.Error("title must not be blank"),
		validation.Length(1, config.MaxNodeTitleLength),
	)
	if err != nil {
		return &domain.ValidationError{Message: fmt.Sprintf("invalid title: %v", err)}
	}
	return nil
}

func (s *nodeService) invalidateTree(ctx context.Context, documentID string) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx, documentID); err != nil {
		s.logger.Warn("tree cache invalidation failed", "document_id", documentID, "error", err)
	}
}
