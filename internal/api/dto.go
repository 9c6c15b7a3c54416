package api

import (
	"time"

	"github.com/starford/agencyhub/internal/models"
)

// ClientRequest is the body of POST /clients and PUT /clients/{id}.
type ClientRequest struct {
	Name    string `json:"name" example:"Acme Corp" validate:"required,max=200"`
	Email   string `json:"email" example:"hello@acme.test" validate:"omitempty,email"`
	Phone   string `json:"phone" validate:"omitempty,max=40"`
	Company string `json:"company" validate:"omitempty,max=200"`
	Website string `json:"website" example:"https://acme.test" validate:"omitempty,url"`
}

func (r ClientRequest) model(id string) *models.Client {
	return &models.Client{ID: id, Name: r.Name, Email: r.Email, Phone: r.Phone, Company: r.Company, Website: r.Website}
}

// SectionRequest is the autosave body of one questionnaire section.
type SectionRequest struct {
	Answers map[string]any `json:"answers" validate:"required"`
}

// ProjectRequest is the body of POST /projects and PUT /projects/{id}.
type ProjectRequest struct {
	ClientID    string     `json:"client_id" validate:"required"`
	Name        string     `json:"name" example:"Spring launch" validate:"required,max=200"`
	Description string     `json:"description"`
	Status      string     `json:"status" validate:"omitempty,oneof=backlog in_progress in_review done"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	DueDate     *time.Time `json:"due_date"`
}

func (r ProjectRequest) model(id string) *models.Project {
	return &models.Project{
		ID:          id,
		ClientID:    r.ClientID,
		Name:        r.Name,
		Description: r.Description,
		Status:      models.ProjectStatus(r.Status),
		Priority:    models.Priority(r.Priority),
		DueDate:     r.DueDate,
	}
}

// MoveRequest is a Kanban drop: the project lands at ToIndex of ToStatus.
type MoveRequest struct {
	ProjectID string `json:"project_id" validate:"required"`
	ToStatus  string `json:"to_status" validate:"required,oneof=backlog in_progress in_review done"`
	ToIndex   int    `json:"to_index" validate:"gte=0"`
}

// ContentRequest is the body of POST /content and PUT /content/{id}.
type ContentRequest struct {
	ClientID  string                `json:"client_id" validate:"required"`
	ProjectID *string               `json:"project_id"`
	Title     string                `json:"title" validate:"required,max=300"`
	AssetType string                `json:"asset_type" validate:"required"`
	Body      models.Body           `json:"body"`
	Metadata  *models.AssetMetadata `json:"metadata"`
}

func (r ContentRequest) model(id string) *models.ContentAsset {
	a := &models.ContentAsset{
		ID:        id,
		ClientID:  r.ClientID,
		ProjectID: r.ProjectID,
		Title:     r.Title,
		AssetType: models.AssetType(r.AssetType),
		Body:      r.Body,
	}
	if r.Metadata != nil {
		a.Metadata = *r.Metadata
	}
	return a
}

// BulkRequest applies one action to many content assets.
type BulkRequest struct {
	Action    string   `json:"action" validate:"required,oneof=delete assign_project"`
	IDs       []string `json:"ids" validate:"required,min=1,max=500"`
	ProjectID *string  `json:"project_id"`
}

// SignUploadRequest asks for a signed upload URL.
type SignUploadRequest struct {
	Filename string `json:"filename" example:"brief.pdf" validate:"required,max=255"`
}

// RegisterFileRequest attaches an uploaded object to the content library.
type RegisterFileRequest struct {
	ClientID  string  `json:"client_id" validate:"required"`
	ProjectID *string `json:"project_id"`
	Title     string  `json:"title" validate:"omitempty,max=300"`
	AssetType string  `json:"asset_type" validate:"omitempty,oneof=file research_pdf"`
	ObjectKey string  `json:"object_key" validate:"required"`
	Filename  string  `json:"filename" validate:"omitempty,max=255"`
}

// JournalRequest is the body of POST /journal and PUT /journal/{id}.
type JournalRequest struct {
	Content string  `json:"content" example:"Call with @Acme about #launch" validate:"required"`
	ChatID  *string `json:"chat_id"`
}

// ParseRequest previews mention parsing.
type ParseRequest struct {
	Content string `json:"content"`
}

// ChatRequest names a journal chat.
type ChatRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

// FrameworkRequest is the body of POST /frameworks and PUT /frameworks/{id}.
type FrameworkRequest struct {
	Name        string `json:"name" example:"AIDA" validate:"required,max=200"`
	Description string `json:"description"`
	Content     string `json:"content" validate:"required"`
}

// FrameworkSearchRequest previews retrieval for a prompt.
type FrameworkSearchRequest struct {
	Query     string   `json:"query" validate:"required"`
	K         int      `json:"k" validate:"omitempty,gte=1,lte=20"`
	Threshold *float64 `json:"threshold" validate:"omitempty,gte=-1,lte=1"`
}
