package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/agencyhub/internal/board"
	"github.com/starford/agencyhub/internal/models"
)

// ListProjects handles GET /api/projects (list view).
//
//	@Summary		List projects with filters, search and sort
//	@Tags			projects
//	@Produce		json
//	@Param			client_id	query	string	false	"Client id"
//	@Param			status		query	string	false	"Status"	Enums(backlog, in_progress, in_review, done)
//	@Param			priority	query	string	false	"Priority"	Enums(low, medium, high, urgent)
//	@Param			q			query	string	false	"Name or description match"
//	@Param			sort		query	string	false	"Sort field"	Enums(position, due_date, priority, updated_at, name)
//	@Security		BearerAuth
//	@Router			/projects [get]
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := page(r)
	items, total, err := h.svc.Board.List(r.Context(), board.ListFilter{
		ClientID: q.Get("client_id"),
		Status:   models.ProjectStatus(q.Get("status")),
		Priority: models.Priority(q.Get("priority")),
		Query:    q.Get("q"),
		Sort:     q.Get("sort"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		writeError(w, "list projects", err)
		return
	}
	writeJSON(w, http.StatusOK, list(items, total))
}

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req ProjectRequest
	if !readJSON(w, r, &req) {
		return
	}
	p := req.model("")
	if err := h.svc.Board.Create(r.Context(), p); err != nil {
		writeError(w, "create project", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Board.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get project", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdateProject handles PUT /api/projects/{id}. A missing status keeps the
// current one.
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var req ProjectRequest
	if !readJSON(w, r, &req) {
		return
	}
	p := req.model(chi.URLParam(r, "id"))
	if p.Status == "" || p.Priority == "" {
		cur, err := h.svc.Board.Get(r.Context(), p.ID)
		if err != nil {
			writeError(w, "update project", err)
			return
		}
		if p.Status == "" {
			p.Status = cur.Status
		}
		if p.Priority == "" {
			p.Priority = cur.Priority
		}
	}
	if err := h.svc.Board.Update(r.Context(), p); err != nil {
		writeError(w, "update project", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Board.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete project", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Board handles GET /api/board: one column per status, in workflow order.
func (h *Handler) Board(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cols, err := h.svc.Board.Board(r.Context(), board.Filter{
		ClientID: q.Get("client_id"),
		Priority: models.Priority(q.Get("priority")),
		Query:    q.Get("q"),
	})
	if err != nil {
		writeError(w, "board", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"columns": cols})
}

// MoveProject handles POST /api/board/moves.
//
//	@Summary		Move a project on the Kanban board
//	@Description	Positions in the source and target columns are renumbered in one transaction.
//	@Tags			projects
//	@Accept			json
//	@Produce		json
//	@Param			body	body		MoveRequest	true	"Move"
//	@Success		200		{object}	board.MoveResult
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/board/moves [post]
func (h *Handler) MoveProject(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if !readJSON(w, r, &req) {
		return
	}
	res, err := h.svc.Board.Move(r.Context(), req.ProjectID, models.ProjectStatus(req.ToStatus), req.ToIndex)
	if err != nil {
		writeError(w, "move project", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
