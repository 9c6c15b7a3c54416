package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/agencyhub/internal/store"
)

// ListJournal handles GET /api/journal.
//
//	@Summary		List journal entries, newest first
//	@Tags			journal
//	@Produce		json
//	@Param			chat_id		query	string	false	"Chat id"
//	@Param			tag			query	string	false	"Hashtag without #"
//	@Param			client_id	query	string	false	"Mentioned client"
//	@Param			project_id	query	string	false	"Mentioned project"
//	@Param			content_id	query	string	false	"Mentioned content asset"
//	@Param			q			query	string	false	"Text match"
//	@Security		BearerAuth
//	@Router			/journal [get]
func (h *Handler) ListJournal(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := page(r)
	items, total, err := h.svc.Journal.List(r.Context(), store.JournalFilter{
		ChatID:    q.Get("chat_id"),
		Tag:       q.Get("tag"),
		ClientID:  q.Get("client_id"),
		ProjectID: q.Get("project_id"),
		ContentID: q.Get("content_id"),
		Query:     q.Get("q"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		writeError(w, "list journal", err)
		return
	}
	writeJSON(w, http.StatusOK, list(items, total))
}

func (h *Handler) CreateJournal(w http.ResponseWriter, r *http.Request) {
	var req JournalRequest
	if !readJSON(w, r, &req) {
		return
	}
	e, err := h.svc.Journal.Create(r.Context(), req.Content, req.ChatID)
	if err != nil {
		writeError(w, "create journal entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *Handler) GetJournal(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.Journal.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get journal entry", err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) UpdateJournal(w http.ResponseWriter, r *http.Request) {
	var req JournalRequest
	if !readJSON(w, r, &req) {
		return
	}
	e, err := h.svc.Journal.Update(r.Context(), chi.URLParam(r, "id"), req.Content, req.ChatID)
	if err != nil {
		writeError(w, "update journal entry", err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) DeleteJournal(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Journal.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete journal entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ParseJournal handles POST /api/journal/parse: the mentions and tags that
// saving the text would record.
func (h *Handler) ParseJournal(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if !readJSON(w, r, &req) {
		return
	}
	res, err := h.svc.Journal.Parse(r.Context(), req.Content)
	if err != nil {
		writeError(w, "parse journal", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) ListChats(w http.ResponseWriter, r *http.Request) {
	chats, err := h.svc.Journal.ListChats(r.Context())
	if err != nil {
		writeError(w, "list chats", err)
		return
	}
	writeJSON(w, http.StatusOK, list(chats, len(chats)))
}

func (h *Handler) CreateChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !readJSON(w, r, &req) {
		return
	}
	c, err := h.svc.Journal.CreateChat(r.Context(), req.Title)
	if err != nil {
		writeError(w, "create chat", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) RenameChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !readJSON(w, r, &req) {
		return
	}
	c, err := h.svc.Journal.RenameChat(r.Context(), chi.URLParam(r, "id"), req.Title)
	if err != nil {
		writeError(w, "rename chat", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Journal.DeleteChat(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete chat", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
