package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/starford/agencyhub/internal/apperr"
	"github.com/starford/agencyhub/internal/store"
)

// Search handles GET /api/search?q=.
//
//	@Summary		Global search across clients, projects, content and journal
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search text"
//	@Param			limit	query		int		false	"Hits per group"
//	@Success		200		{object}	search.Results
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	res, err := h.svc.Search.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Dashboard.Overview(r.Context())
	if err != nil {
		writeError(w, "dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// Spend handles GET /api/analytics/spend?group_by=&from=&to=.
func (h *Handler) Spend(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := parseTime("from", q.Get("from"))
	if err != nil {
		writeError(w, "spend", err)
		return
	}
	to, err := parseTime("to", q.Get("to"))
	if err != nil {
		writeError(w, "spend", err)
		return
	}
	rep, err := h.svc.Dashboard.Spend(r.Context(), store.SpendGroup(q.Get("group_by")), from, to)
	if err != nil {
		writeError(w, "spend", err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// parseTime accepts RFC 3339 or a bare date. Empty is the zero time.
func parseTime(field, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t, nil
	}
	return time.Time{}, apperr.Invalid(field, "must be RFC 3339 or YYYY-MM-DD")
}
