package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/agencyhub/internal/models"
	"github.com/starford/agencyhub/internal/rag"
)

func (h *Handler) ListFrameworks(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Frameworks.List(r.Context())
	if err != nil {
		writeError(w, "list frameworks", err)
		return
	}
	writeJSON(w, http.StatusOK, list(items, len(items)))
}

func (h *Handler) CreateFramework(w http.ResponseWriter, r *http.Request) {
	var req FrameworkRequest
	if !readJSON(w, r, &req) {
		return
	}
	f := &models.Framework{Name: req.Name, Description: req.Description, Content: req.Content}
	if err := h.svc.Frameworks.Create(r.Context(), f); err != nil {
		writeError(w, "create framework", err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (h *Handler) GetFramework(w http.ResponseWriter, r *http.Request) {
	f, err := h.svc.Frameworks.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get framework", err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *Handler) UpdateFramework(w http.ResponseWriter, r *http.Request) {
	var req FrameworkRequest
	if !readJSON(w, r, &req) {
		return
	}
	f := &models.Framework{ID: chi.URLParam(r, "id"), Name: req.Name, Description: req.Description, Content: req.Content}
	if err := h.svc.Frameworks.Update(r.Context(), f); err != nil {
		writeError(w, "update framework", err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *Handler) DeleteFramework(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Frameworks.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete framework", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReindexFramework handles POST /api/frameworks/{id}/reindex.
func (h *Handler) ReindexFramework(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Frameworks.Reindex(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "reindex framework", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"chunk_count": n})
}

// SearchFrameworks handles POST /api/frameworks/search.
//
//	@Summary		Preview framework retrieval for a prompt
//	@Tags			frameworks
//	@Accept			json
//	@Produce		json
//	@Param			body	body		FrameworkSearchRequest	true	"Query"
//	@Success		200		{array}		models.ChunkMatch
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/frameworks/search [post]
func (h *Handler) SearchFrameworks(w http.ResponseWriter, r *http.Request) {
	var req FrameworkSearchRequest
	if !readJSON(w, r, &req) {
		return
	}
	matches, err := h.svc.Frameworks.Search(r.Context(), rag.Query{Text: req.Query, K: req.K, Threshold: req.Threshold})
	if err != nil {
		writeError(w, "search frameworks", err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}
