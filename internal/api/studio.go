package api

import (
	"net/http"

	"github.com/starford/agencyhub/internal/studio"
)

// Generate handles POST /api/studio/generate.
//
//	@Summary		Generate copy with brand context and framework retrieval
//	@Tags			studio
//	@Accept			json
//	@Produce		json
//	@Param			body	body		studio.Request	true	"Generation request"
//	@Success		200		{object}	studio.Result
//	@Failure		422		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/studio/generate [post]
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req studio.Request
	if !readJSON(w, r, &req) {
		return
	}
	res, err := h.svc.Studio.Generate(r.Context(), req)
	if err != nil {
		writeError(w, "generate", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListModels handles GET /api/studio/models.
func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"models":     h.svc.Studio.Models(),
		"task_types": studio.TaskTypes(),
	})
}
