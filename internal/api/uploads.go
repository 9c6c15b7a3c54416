package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/agencyhub/internal/content"
	"github.com/starford/agencyhub/internal/models"
)

// objectKey reads the wildcard key and rejects anything outside the upload
// namespace or containing traversal segments.
func objectKey(r *http.Request) (string, bool) {
	key := chi.URLParam(r, "*")
	if !strings.HasPrefix(key, "uploads/") || strings.Contains(key, "..") || strings.Contains(key, `\`) {
		return "", false
	}
	return key, true
}

// SignUpload handles POST /api/uploads/sign.
//
//	@Summary		Reserve an object key and return a signed upload URL
//	@Tags			files
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SignUploadRequest	true	"File name"
//	@Success		200		{object}	storage.SignedUpload
//	@Security		BearerAuth
//	@Router			/uploads/sign [post]
func (h *Handler) SignUpload(w http.ResponseWriter, r *http.Request) {
	var req SignUploadRequest
	if !readJSON(w, r, &req) {
		return
	}
	signed, err := h.svc.Content.SignUpload(req.Filename)
	if err != nil {
		writeError(w, "sign upload", err)
		return
	}
	writeJSON(w, http.StatusOK, signed)
}

// Upload handles PUT /api/uploads/{key}?expires=&sig=. The signature is the
// only credential, so this route sits outside bearer auth.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	key, ok := objectKey(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid object key"))
		return
	}
	q := r.URL.Query()
	obj, err := h.svc.Content.Upload(r.Context(), key, q.Get("expires"), q.Get("sig"), r.Body)
	if err != nil {
		writeError(w, "upload", err)
		return
	}
	writeJSON(w, http.StatusCreated, obj)
}

// ServeFile handles GET /api/files/{key}.
func (h *Handler) ServeFile(w http.ResponseWriter, r *http.Request) {
	key, ok := objectKey(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	f, obj, err := h.svc.Content.Open(key)
	if err != nil {
		writeError(w, "serve file", err)
		return
	}
	defer f.Close()
	if obj.MimeType != "" {
		w.Header().Set("Content-Type", obj.MimeType)
	}
	http.ServeContent(w, r, key, obj.ModTime, f)
}

// RegisterFile handles POST /api/content/files.
func (h *Handler) RegisterFile(w http.ResponseWriter, r *http.Request) {
	var req RegisterFileRequest
	if !readJSON(w, r, &req) {
		return
	}
	a, err := h.svc.Content.RegisterFile(r.Context(), content.FileRegistration{
		ClientID:  req.ClientID,
		ProjectID: req.ProjectID,
		Title:     req.Title,
		AssetType: models.AssetType(req.AssetType),
		ObjectKey: req.ObjectKey,
		Filename:  req.Filename,
	})
	if err != nil {
		writeError(w, "register file", err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}
