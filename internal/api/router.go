package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// Signed uploads are accepted outside the auth group: the URL signature is
// their credential.
func NewRouter(svc Services, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Put("/uploads/*", h.Upload)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(authEnabled, token))

		r.Route("/clients", func(r chi.Router) {
			r.Get("/", h.ListClients)
			r.Post("/", h.CreateClient)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetClient)
				r.Put("/", h.UpdateClient)
				r.Delete("/", h.DeleteClient)
				r.Get("/questionnaire", h.GetQuestionnaire)
				r.Put("/questionnaire/sections/{n}", h.SaveSection)
				r.Post("/questionnaire/submit", h.SubmitQuestionnaire)
			})
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.ListProjects)
			r.Post("/", h.CreateProject)
			r.Get("/{id}", h.GetProject)
			r.Put("/{id}", h.UpdateProject)
			r.Delete("/{id}", h.DeleteProject)
		})
		r.Get("/questionnaire/schema", h.QuestionnaireSchema)
		r.Get("/board", h.Board)
		r.Post("/board/moves", h.MoveProject)

		r.Route("/content", func(r chi.Router) {
			r.Get("/", h.ListContent)
			r.Post("/", h.CreateContent)
			r.Post("/bulk", h.BulkContent)
			r.Post("/files", h.RegisterFile)
			r.Get("/{id}", h.GetContent)
			r.Put("/{id}", h.UpdateContent)
			r.Delete("/{id}", h.DeleteContent)
			r.Get("/{id}/export.pdf", h.ExportContentPDF)
		})
		r.Post("/uploads/sign", h.SignUpload)
		r.Get("/files/*", h.ServeFile)

		r.Route("/journal", func(r chi.Router) {
			r.Get("/", h.ListJournal)
			r.Post("/", h.CreateJournal)
			r.Post("/parse", h.ParseJournal)
			r.Get("/chats", h.ListChats)
			r.Post("/chats", h.CreateChat)
			r.Put("/chats/{id}", h.RenameChat)
			r.Delete("/chats/{id}", h.DeleteChat)
			r.Get("/{id}", h.GetJournal)
			r.Put("/{id}", h.UpdateJournal)
			r.Delete("/{id}", h.DeleteJournal)
		})

		r.Route("/frameworks", func(r chi.Router) {
			r.Get("/", h.ListFrameworks)
			r.Post("/", h.CreateFramework)
			r.Post("/search", h.SearchFrameworks)
			r.Get("/{id}", h.GetFramework)
			r.Put("/{id}", h.UpdateFramework)
			r.Delete("/{id}", h.DeleteFramework)
			r.Post("/{id}/reindex", h.ReindexFramework)
		})

		r.Post("/studio/generate", h.Generate)
		r.Get("/studio/models", h.ListModels)

		r.Get("/search", h.Search)
		r.Get("/dashboard", h.Dashboard)
		r.Get("/analytics/spend", h.Spend)

		if sseHandler != nil {
			r.Get("/events", sseHandler.ServeHTTP)
		}
	})

	return r
}
