package sop

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	models "rxops/internal/domain/models/sop"
	sopRepo "rxops/internal/domain/repositories/sop"
	sopSvc "rxops/internal/domain/services/sop"

	"rxops/internal/cache"
)

// BuildTree converts a document's flat node collection into a forest.
// Within every sibling group children are ordered ascending by sort_order.
// A node whose parent_id references a node missing from the collection is
// treated as root-level rather than dropped: a partially fetched collection
// must never crash the view. Pure function of its input; safe to recompute
// on every edit.
func BuildTree(documentID string, nodes []models.Node) *models.Tree {
	nodeMap := make(map[string]*models.TreeNode, len(nodes))
	for i := range nodes {
		nodeMap[nodes[i].ID] = &models.TreeNode{
			Node:     nodes[i],
			Children: []*models.TreeNode{},
		}
	}

	roots := []*models.TreeNode{}
	for i := range nodes {
		tn := nodeMap[nodes[i].ID]
		if nodes[i].ParentID == nil {
			roots = append(roots, tn)
			continue
		}
		if parent, exists := nodeMap[*nodes[i].ParentID]; exists {
			parent.Children = append(parent.Children, tn)
		} else {
			// Orphan: parent not in the collection, fall back to root
			roots = append(roots, tn)
		}
	}

	sortSiblings(roots)
	for _, tn := range nodeMap {
		sortSiblings(tn.Children)
	}

	return &models.Tree{DocumentID: documentID, Roots: roots}
}

func sortSiblings(group []*models.TreeNode) {
	sort.SliceStable(group, func(i, j int) bool {
		if group[i].SortOrder != group[j].SortOrder {
			return group[i].SortOrder < group[j].SortOrder
		}
		return group[i].ID < group[j].ID
	})
}

// treeService implements the TreeService interface
type treeService struct {
	docRepo   sopRepo.DocumentRepository
	nodeRepo  sopRepo.NodeRepository
	treeCache *cache.TreeCache // nil disables caching
	logger    *slog.Logger
}

// NewTreeService creates a new tree service. treeCache may be nil.
func NewTreeService(
	docRepo sopRepo.DocumentRepository,
	nodeRepo sopRepo.NodeRepository,
	treeCache *cache.TreeCache,
	logger *slog.Logger,
) sopSvc.TreeService {
	return &treeService{
		docRepo:   docRepo,
		nodeRepo:  nodeRepo,
		treeCache: treeCache,
		logger:    logger,
	}
}

// GetTree builds and returns the node forest for a document
func (s *treeService) GetTree(ctx context.Context, orgID, documentID string) (*models.Tree, error) {
	// Existence and org scoping first, so a cached tree can't leak across orgs
	if _, err := s.docRepo.GetByID(ctx, documentID, orgID); err != nil {
		return nil, err
	}

	if s.treeCache != nil {
		tree, err := s.treeCache.Get(ctx, documentID)
		if err == nil {
			return tree, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("tree cache read failed", "document_id", documentID, "error", err)
		}
	}

	nodes, err := s.nodeRepo.GetAllByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	tree := BuildTree(documentID, nodes)

	if s.treeCache != nil {
		if err := s.treeCache.Set(ctx, tree); err != nil {
			s.logger.Warn("tree cache write failed", "document_id", documentID, "error", err)
		}
	}

	s.logger.Debug("tree built", "document_id", documentID, "node_count", len(nodes))

	return tree, nil
}
