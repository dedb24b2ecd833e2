package handler

import (
	"log/slog"
	"net/http"

	models "rxops/internal/domain/models/sop"
	sopSvc "rxops/internal/domain/services/sop"
	"rxops/internal/httputil"
)

// DocumentHandler handles document HTTP requests
type DocumentHandler struct {
	documentService sopSvc.DocumentService
	logger          *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documentService sopSvc.DocumentService, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		logger:          logger,
	}
}

// CreateDocument creates a new draft document
// POST /api/documents
func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req sopSvc.CreateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.OrgID = httputil.GetOrgID(r)
	req.CreatedBy = httputil.GetMemberID(r)

	doc, err := h.documentService.CreateDocument(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// ListDocuments lists the organization's documents
// GET /api/documents?status=draft|published|archived
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	status := models.DocumentStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		httputil.RespondError(w, http.StatusBadRequest, "invalid status filter")
		return
	}

	docs, err := h.documentService.ListDocuments(r.Context(), httputil.GetOrgID(r), status)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"documents": docs})
}

// GetDocument retrieves a document by ID
// GET /api/documents/{id}
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Document ID is required")
		return
	}

	doc, err := h.documentService.GetDocument(r.Context(), httputil.GetOrgID(r), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// UpdateDocument updates a document's title and description
// PATCH /api/documents/{id}
func (h *DocumentHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Document ID is required")
		return
	}

	var req sopSvc.UpdateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	doc, err := h.documentService.UpdateDocument(r.Context(), httputil.GetOrgID(r), id, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// Publish increments the document's version
// POST /api/documents/{id}/publish
func (h *DocumentHandler) Publish(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Document ID is required")
		return
	}

	doc, err := h.documentService.Publish(r.Context(), httputil.GetOrgID(r), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// Archive retires the document
// POST /api/documents/{id}/archive
func (h *DocumentHandler) Archive(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Document ID is required")
		return
	}

	doc, err := h.documentService.Archive(r.Context(), httputil.GetOrgID(r), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}
