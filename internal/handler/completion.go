package handler

import (
	"log/slog"
	"net/http"

	sopSvc "rxops/internal/domain/services/sop"
	"rxops/internal/httputil"
)

// CompletionHandler handles completion ledger HTTP requests
type CompletionHandler struct {
	completionService sopSvc.CompletionService
	logger            *slog.Logger
}

// NewCompletionHandler creates a new completion handler
func NewCompletionHandler(completionService sopSvc.CompletionService, logger *slog.Logger) *CompletionHandler {
	return &CompletionHandler{
		completionService: completionService,
		logger:            logger,
	}
}

// MarkComplete records the caller's read acknowledgement for the document
// PUT /api/documents/{id}/completions
func (h *CompletionHandler) MarkComplete(w http.ResponseWriter, r *http.Request) {
	documentID := r.PathValue("id")
	if documentID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Document ID is required")
		return
	}

	var req sopSvc.MarkCompleteRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.OrgID = httputil.GetOrgID(r)
	req.MemberID = httputil.GetMemberID(r)
	req.DocumentID = documentID

	rec, err := h.completionService.MarkComplete(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, rec)
}

// ListForDocument lists the document's ledger with derived currency
// GET /api/documents/{id}/completions
func (h *CompletionHandler) ListForDocument(w http.ResponseWriter, r *http.Request) {
	documentID := r.PathValue("id")
	if documentID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Document ID is required")
		return
	}

	statuses, err := h.completionService.ListForDocument(r.Context(), httputil.GetOrgID(r), documentID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"completions": statuses})
}

// ListMine lists the caller's records across the organization's documents
// GET /api/members/me/completions
func (h *CompletionHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.completionService.ListForMember(r.Context(), httputil.GetOrgID(r), httputil.GetMemberID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"completions": statuses})
}
