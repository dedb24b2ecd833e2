package handler

import (
	"log/slog"
	"net/http"

	models "rxops/internal/domain/models/sop"
	sopSvc "rxops/internal/domain/services/sop"
	"rxops/internal/httputil"
)

// NodeHandler handles node HTTP requests
type NodeHandler struct {
	nodeService sopSvc.NodeService
	logger      *slog.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(nodeService sopSvc.NodeService, logger *slog.Logger) *NodeHandler {
	return &NodeHandler{
		nodeService: nodeService,
		logger:      logger,
	}
}

// CreateNode creates a node at the end of the target sibling group
// POST /api/documents/{id}/nodes
func (h *NodeHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	documentID := r.PathValue("id")
	if documentID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Document ID is required")
		return
	}

	var req sopSvc.CreateNodeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.OrgID = httputil.GetOrgID(r)
	req.DocumentID = documentID

	node, err := h.nodeService.CreateNode(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, node)
}

// ListNodes returns the document's flat node collection
// GET /api/documents/{id}/nodes
func (h *NodeHandler) ListNodes(w http.ResponseWriter, r *http.Request) {
	documentID := r.PathValue("id")
	if documentID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Document ID is required")
		return
	}

	nodes, err := h.nodeService.ListNodes(r.Context(), httputil.GetOrgID(r), documentID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"nodes": nodes})
}

// RenameNode retitles a node
// PATCH /api/nodes/{id}
func (h *NodeHandler) RenameNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Node ID is required")
		return
	}

	var req struct {
		Title string `json:"title"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	node, err := h.nodeService.RenameNode(r.Context(), httputil.GetOrgID(r), id, req.Title)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}

// DeleteNode deletes a node and its whole subtree
// DELETE /api/nodes/{id}
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Node ID is required")
		return
	}

	result, err := h.nodeService.DeleteNode(r.Context(), httputil.GetOrgID(r), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// MoveNode swaps the node with its adjacent sibling
// POST /api/nodes/{id}/move
func (h *NodeHandler) MoveNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Node ID is required")
		return
	}

	var req struct {
		Direction models.MoveDirection `json:"direction"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.nodeService.MoveNode(r.Context(), httputil.GetOrgID(r), id, req.Direction); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ReparentNode moves a node and its subtree under a new parent
// POST /api/nodes/{id}/reparent
func (h *NodeHandler) ReparentNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Node ID is required")
		return
	}

	var req struct {
		ParentID *string `json:"parent_id"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	node, err := h.nodeService.ReparentNode(r.Context(), httputil.GetOrgID(r), id, req.ParentID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}
