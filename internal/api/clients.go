package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/agencyhub/internal/models"
	"github.com/starford/agencyhub/internal/store"
)

// ListClients handles GET /api/clients.
//
//	@Summary		List live clients
//	@Tags			clients
//	@Produce		json
//	@Param			q		query		string	false	"Match name, company, email or client code"
//	@Param			status	query		string	false	"Questionnaire status"	Enums(not_started, in_progress, completed)
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Security		BearerAuth
//	@Router			/clients [get]
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	limit, offset := page(r)
	items, total, err := h.svc.Clients.List(r.Context(), store.ClientFilter{
		Query:  r.URL.Query().Get("q"),
		Status: models.QuestionnaireStatus(r.URL.Query().Get("status")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(w, "list clients", err)
		return
	}
	writeJSON(w, http.StatusOK, list(items, total))
}

// CreateClient handles POST /api/clients.
//
//	@Summary		Create a client
//	@Tags			clients
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ClientRequest	true	"Client"
//	@Success		201		{object}	models.Client
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/clients [post]
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req ClientRequest
	if !readJSON(w, r, &req) {
		return
	}
	c := req.model("")
	if err := h.svc.Clients.Create(r.Context(), c); err != nil {
		writeError(w, "create client", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// GetClient handles GET /api/clients/{id}.
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Clients.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get client", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// UpdateClient handles PUT /api/clients/{id}.
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	var req ClientRequest
	if !readJSON(w, r, &req) {
		return
	}
	c, err := h.svc.Clients.Update(r.Context(), req.model(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, "update client", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DeleteClient handles DELETE /api/clients/{id} (soft delete).
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Clients.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete client", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetQuestionnaire handles GET /api/clients/{id}/questionnaire. The ETag is
// the checksum to send back as If-Match on autosave.
func (h *Handler) GetQuestionnaire(w http.ResponseWriter, r *http.Request) {
	q, err := h.svc.Clients.Questionnaire(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get questionnaire", err)
		return
	}
	w.Header().Set("ETag", strconv.Quote(q.Checksum))
	writeJSON(w, http.StatusOK, q)
}

// SaveSection handles PUT /api/clients/{id}/questionnaire/sections/{n}.
//
//	@Summary		Autosave one questionnaire section
//	@Tags			clients
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string			true	"Client id"
//	@Param			n			path		int				true	"Section number (1-8)"
//	@Param			If-Match	header		string			false	"Checksum of the responses the edit is based on"
//	@Param			body		body		SectionRequest	true	"Answers"
//	@Success		200			{object}	clients.Questionnaire
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/clients/{id}/questionnaire/sections/{n} [put]
func (h *Handler) SaveSection(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("section must be a number"))
		return
	}
	var req SectionRequest
	if !readJSON(w, r, &req) {
		return
	}
	q, err := h.svc.Clients.SaveSection(r.Context(), chi.URLParam(r, "id"), n, req.Answers, r.Header.Get("If-Match"))
	if err != nil {
		writeError(w, "save section", err)
		return
	}
	w.Header().Set("ETag", strconv.Quote(q.Checksum))
	writeJSON(w, http.StatusOK, q)
}

// SubmitQuestionnaire handles POST /api/clients/{id}/questionnaire/submit.
func (h *Handler) SubmitQuestionnaire(w http.ResponseWriter, r *http.Request) {
	q, err := h.svc.Clients.Submit(r.Context(), chi.URLParam(r, "id"), r.Header.Get("If-Match"))
	if err != nil {
		writeError(w, "submit questionnaire", err)
		return
	}
	w.Header().Set("ETag", strconv.Quote(q.Checksum))
	writeJSON(w, http.StatusOK, q)
}

// QuestionnaireSchema handles GET /api/questionnaire/schema.
func (h *Handler) QuestionnaireSchema(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sections": h.svc.Clients.Schema()})
}
