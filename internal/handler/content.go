package handler

import (
	"log/slog"
	"net/http"

	"rxops/internal/config"
	models "rxops/internal/domain/models/sop"
	sopSvc "rxops/internal/domain/services/sop"
	"rxops/internal/httputil"
)

// ContentHandler handles node content HTTP requests
type ContentHandler struct {
	contentService sopSvc.ContentService
	logger         *slog.Logger
}

// NewContentHandler creates a new content handler
func NewContentHandler(contentService sopSvc.ContentService, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{
		contentService: contentService,
		logger:         logger,
	}
}

// SetRichContent stages a rich content edit behind the autosave debounce.
// PUT /api/nodes/{id}/content
// Returns 202 because the write lands after the quiet window, not before the
// response.
func (h *ContentHandler) SetRichContent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Node ID is required")
		return
	}

	var req struct {
		RichContent string `json:"rich_content"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.contentService.StageRichContent(r.Context(), httputil.GetOrgID(r), id, req.RichContent); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// FlushContent persists the node's pending autosave immediately
// POST /api/nodes/{id}/content/flush
func (h *ContentHandler) FlushContent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Node ID is required")
		return
	}

	if err := h.contentService.Flush(r.Context(), httputil.GetOrgID(r), id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DiscardContent drops the node's pending autosave without persisting
// POST /api/nodes/{id}/content/discard
func (h *ContentHandler) DiscardContent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Node ID is required")
		return
	}

	if err := h.contentService.Discard(r.Context(), httputil.GetOrgID(r), id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SwitchContentType changes the node's active content variant
// POST /api/nodes/{id}/content-type
func (h *ContentHandler) SwitchContentType(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Node ID is required")
		return
	}

	var req struct {
		ContentType models.ContentType `json:"content_type"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	node, err := h.contentService.SwitchContentType(r.Context(), httputil.GetOrgID(r), id, req.ContentType)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}

// UploadAttachment stores an external document and links it to the node.
// POST /api/nodes/{id}/attachment (multipart/form-data, field "file")
func (h *ContentHandler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Node ID is required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	node, err := h.contentService.AttachExternal(r.Context(), &sopSvc.AttachExternalRequest{
		OrgID:       httputil.GetOrgID(r),
		NodeID:      id,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
		Size:        header.Size,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, node)
}

// GetAttachmentURL resolves the node's locator to a retrievable URL
// GET /api/nodes/{id}/attachment-url
func (h *ContentHandler) GetAttachmentURL(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Node ID is required")
		return
	}

	url, err := h.contentService.ResolveExternalURL(r.Context(), httputil.GetOrgID(r), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{"url": url})
}
