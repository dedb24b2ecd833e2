package handler

import (
	"log/slog"
	"net/http"

	sopSvc "rxops/internal/domain/services/sop"
	"rxops/internal/httputil"
)

// TreeHandler handles HTTP requests for tree reads
type TreeHandler struct {
	treeService sopSvc.TreeService
	logger      *slog.Logger
}

// NewTreeHandler creates a new tree handler
func NewTreeHandler(treeService sopSvc.TreeService, logger *slog.Logger) *TreeHandler {
	return &TreeHandler{
		treeService: treeService,
		logger:      logger,
	}
}

// GetTree returns the nested forest for a document
// GET /api/documents/{id}/tree
func (h *TreeHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	documentID := r.PathValue("id")
	if documentID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Document ID is required")
		return
	}

	tree, err := h.treeService.GetTree(r.Context(), httputil.GetOrgID(r), documentID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, tree)
}
