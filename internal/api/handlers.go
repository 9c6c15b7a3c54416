package api

import (
	"github.com/starford/agencyhub/internal/board"
	"github.com/starford/agencyhub/internal/clients"
	"github.com/starford/agencyhub/internal/content"
	"github.com/starford/agencyhub/internal/dashboard"
	"github.com/starford/agencyhub/internal/frameworks"
	"github.com/starford/agencyhub/internal/journal"
	"github.com/starford/agencyhub/internal/search"
	"github.com/starford/agencyhub/internal/studio"
)

// Services bundles the use-case layer the handlers call into.
type Services struct {
	Clients    *clients.Service
	Board      *board.Service
	Content    *content.Service
	Journal    *journal.Service
	Frameworks *frameworks.Service
	Studio     *studio.Service
	Search     *search.Searcher
	Dashboard  *dashboard.Service
}

// Handler holds API route handlers.
type Handler struct {
	svc Services
}

// NewHandler creates a new Handler.
func NewHandler(svc Services) *Handler {
	return &Handler{svc: svc}
}
