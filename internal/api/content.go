package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/agencyhub/internal/content"
	"github.com/starford/agencyhub/internal/models"
	"github.com/starford/agencyhub/internal/store"
)

// ListContent handles GET /api/content.
//
//	@Summary		List content assets
//	@Tags			content
//	@Produce		json
//	@Param			client_id	query	string	false	"Client id"
//	@Param			project_id	query	string	false	"Project id"
//	@Param			type		query	string	false	"Asset type"
//	@Param			q			query	string	false	"Title or text match"
//	@Security		BearerAuth
//	@Router			/content [get]
func (h *Handler) ListContent(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := page(r)
	items, total, err := h.svc.Content.List(r.Context(), store.ContentFilter{
		ClientID:  q.Get("client_id"),
		ProjectID: q.Get("project_id"),
		AssetType: models.AssetType(q.Get("type")),
		Query:     q.Get("q"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		writeError(w, "list content", err)
		return
	}
	writeJSON(w, http.StatusOK, list(items, total))
}

func (h *Handler) CreateContent(w http.ResponseWriter, r *http.Request) {
	var req ContentRequest
	if !readJSON(w, r, &req) {
		return
	}
	a := req.model("")
	if err := h.svc.Content.Create(r.Context(), a); err != nil {
		writeError(w, "create content", err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *Handler) GetContent(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Content.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get content", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	var req ContentRequest
	if !readJSON(w, r, &req) {
		return
	}
	a := req.model(chi.URLParam(r, "id"))
	if err := h.svc.Content.Update(r.Context(), a); err != nil {
		writeError(w, "update content", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) DeleteContent(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Content.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete content", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BulkContent handles POST /api/content/bulk.
func (h *Handler) BulkContent(w http.ResponseWriter, r *http.Request) {
	var req BulkRequest
	if !readJSON(w, r, &req) {
		return
	}
	n, err := h.svc.Content.Bulk(r.Context(), content.BulkAction(req.Action), req.IDs, req.ProjectID)
	if err != nil {
		writeError(w, "bulk content", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"affected": n})
}

// ExportContentPDF handles GET /api/content/{id}/export.pdf.
func (h *Handler) ExportContentPDF(w http.ResponseWriter, r *http.Request) {
	data, title, err := h.svc.Content.ExportPDF(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "export pdf", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", pdfName(title)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func pdfName(title string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '-'
		}
		return -1
	}, title)
	if name == "" {
		name = "export"
	}
	return name + ".pdf"
}
