// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes agency tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/agencyhub/internal/ai"
	"github.com/starford/agencyhub/internal/apperr"
	"github.com/starford/agencyhub/internal/board"
	"github.com/starford/agencyhub/internal/clients"
	"github.com/starford/agencyhub/internal/content"
	"github.com/starford/agencyhub/internal/journal"
	"github.com/starford/agencyhub/internal/models"
	"github.com/starford/agencyhub/internal/search"
	"github.com/starford/agencyhub/internal/studio"
)

const journalSyntaxURI = "agencyhub://journal-syntax"

// Deps are the services the tools call into.
type Deps struct {
	Search  *search.Searcher
	Journal *journal.Service
	Board   *board.Service
	Clients *clients.Service
	Studio  *studio.Service
	Content *content.Service
}

// Server wraps the MCP server with agency tools.
type Server struct {
	mcp  *server.MCPServer
	deps Deps
}

// New creates a new MCP server with all tools registered.
func New(deps Deps, version string) *Server {
	s := &Server{deps: deps}

	s.mcp = server.NewMCPServer(
		"AgencyHub",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search",
		mcp.WithDescription("Search clients, projects, content and journal entries by name or text."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search text")),
		mcp.WithNumber("limit", mcp.Description("Hits per group (default 5, max 25)")),
	), s.search)

	s.mcp.AddTool(mcp.NewTool("capture_journal",
		mcp.WithDescription("Save a journal entry. Mentions (@Client, @Project, @Content title) and "+
			"#tags are linked automatically; read "+journalSyntaxURI+" for the syntax."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Entry text")),
		mcp.WithString("chat_id", mcp.Description("Optional journal chat to file the entry under")),
	), s.captureJournal)

	s.mcp.AddTool(mcp.NewTool("list_projects",
		mcp.WithDescription("List projects, optionally narrowed to one client or status."),
		mcp.WithString("client_id", mcp.Description("Client id")),
		mcp.WithString("status", mcp.Description("Project status"), mcp.Enum("backlog", "in_progress", "in_review", "done")),
	), s.listProjects)

	s.mcp.AddTool(mcp.NewTool("get_client_brief",
		mcp.WithDescription("Return a client's contact details, questionnaire status and brand profile."),
		mcp.WithString("client_id", mcp.Required(), mcp.Description("Client id")),
	), s.getClientBrief)

	s.mcp.AddTool(mcp.NewTool("generate_copy",
		mcp.WithDescription("Generate marketing copy with the client's brand profile and matching copywriting frameworks."),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("What to write")),
		mcp.WithString("task_type", mcp.Description("Kind of copy"), mcp.Enum("email", "ad_copy", "blog_post", "landing_page", "social_post", "custom")),
		mcp.WithString("client_id", mcp.Description("Client whose brand profile to apply")),
		mcp.WithString("tier", mcp.Description("Model tier"), mcp.Enum("simple", "medium", "complex")),
		mcp.WithBoolean("save", mcp.Description("Save the result to the client's content library")),
	), s.generateCopy)

	s.mcp.AddTool(mcp.NewTool("attach_file",
		mcp.WithDescription("Download a file from an http(s) URL or a base64 data URI and add it to a client's content library."),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data: URI")),
		mcp.WithString("client_id", mcp.Required(), mcp.Description("Owning client")),
		mcp.WithString("project_id", mcp.Description("Optional project of the same client")),
		mcp.WithString("filename", mcp.Description("Name to store the file under")),
		mcp.WithString("title", mcp.Description("Library title (defaults to the filename)")),
	), s.attachFile)

	s.mcp.AddResource(
		mcp.NewResource(journalSyntaxURI, "Journal syntax",
			mcp.WithResourceDescription("How mentions and tags in journal entries are recognised."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readJournalSyntax,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// toolError turns a service error into a tool-level error result. Only
// validation details and sentinel kinds are shown to the model.
func toolError(err error) *mcp.CallToolResult {
	if ve, ok := apperr.AsValidation(err); ok {
		parts := make([]string, 0, len(ve.Fields))
		for f, msg := range ve.Fields {
			parts = append(parts, f+": "+msg)
		}
		return mcp.NewToolResultError("invalid input: " + strings.Join(parts, "; "))
	}
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("not found")
	case errors.Is(err, studio.ErrGeneration):
		return mcp.NewToolResultError("generation failed")
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcpserver: encode result: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) search(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.deps.Search.Search(ctx, query, req.GetInt("limit", 0))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(res)
}

func (s *Server) captureJournal(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var chatID *string
	if v := req.GetString("chat_id", ""); v != "" {
		chatID = &v
	}
	e, err := s.deps.Journal.Create(ctx, text, chatID)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(e)
}

func (s *Server) listProjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, total, err := s.deps.Board.List(ctx, board.ListFilter{
		ClientID: req.GetString("client_id", ""),
		Status:   models.ProjectStatus(req.GetString("status", "")),
		Sort:     "position",
		Limit:    200,
	})
	if err != nil {
		return toolError(err), nil
	}
	if total == 0 {
		return mcp.NewToolResultText("no projects found"), nil
	}
	var b strings.Builder
	for _, p := range projects {
		fmt.Fprintf(&b, "%s\t%s\t%s\t%s", p.ID, p.Status, p.Priority, p.Name)
		if p.DueDate != nil {
			fmt.Fprintf(&b, "\tdue %s", p.DueDate.Format("2006-01-02"))
		}
		b.WriteByte('\n')
	}
	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}

type clientBrief struct {
	Client   *models.Client      `json:"client"`
	Status   string              `json:"questionnaire_status"`
	Progress int                 `json:"questionnaire_percent"`
	Brand    models.BrandProfile `json:"brand_profile"`
	Projects []models.Project    `json:"projects"`
}

func (s *Server) getClientBrief(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("client_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c, err := s.deps.Clients.Get(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	q, err := s.deps.Clients.Questionnaire(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	projects, _, err := s.deps.Board.List(ctx, board.ListFilter{ClientID: id, Limit: 50})
	if err != nil {
		return toolError(err), nil
	}
	if projects == nil {
		projects = []models.Project{}
	}
	return jsonResult(clientBrief{
		Client:   c,
		Status:   string(q.Status),
		Progress: q.Progress.Percent,
		Brand:    c.BrandProfile,
		Projects: projects,
	})
}

func (s *Server) generateCopy(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt, err := req.RequireString("prompt")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.deps.Studio.Generate(ctx, studio.Request{
		ClientID: req.GetString("client_id", ""),
		TaskType: studio.TaskType(req.GetString("task_type", "")),
		Prompt:   prompt,
		Tier:     ai.Tier(req.GetString("tier", "")),
		AutoSave: req.GetBool("save", false),
	})
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(res)
}

func (s *Server) readJournalSyntax(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      journalSyntaxURI,
			MIMEType: "text/markdown",
			Text:     JournalSyntax,
		},
	}, nil
}
