package board

import (
	"context"

	"github.com/starford/agencyhub/internal/apperr"
	"github.com/starford/agencyhub/internal/models"
	"github.com/starford/agencyhub/internal/sse"
	"github.com/starford/agencyhub/internal/store"
)

// ListFilter is the list view's filter, search and sort.
type ListFilter = store.ProjectFilter

// Create validates and inserts p at the bottom of its column. Status and
// priority default to backlog and medium.
func (s *Service) Create(ctx context.Context, p *models.Project) error {
	if p.Status == "" {
		p.Status = models.StatusBacklog
	}
	if p.Priority == "" {
		p.Priority = models.PriorityMedium
	}
	if err := apperr.FromRules(p.Validate()); err != nil {
		return err
	}
	if err := s.db.CreateProject(ctx, p); err != nil {
		return err
	}
	s.notify.Notify(sse.Change{Entity: sse.EntityProject, Action: sse.ActionCreated, ID: p.ID, ClientID: p.ClientID, To: string(p.Status)})
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Project, error) {
	return s.db.GetProject(ctx, id)
}

// List returns one page of projects and the total match count.
func (s *Service) List(ctx context.Context, f ListFilter) ([]models.Project, int, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, apperr.Invalid("status", "unknown status")
	}
	switch f.Sort {
	case "", "position", "due_date", "priority", "updated_at", "name":
	default:
		return nil, 0, apperr.Invalid("sort", "must be position, due_date, priority, updated_at or name")
	}
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	return s.db.ListProjects(ctx, f)
}

// Update writes p. Changing the status moves the project to the bottom of
// the new column.
func (s *Service) Update(ctx context.Context, p *models.Project) error {
	if err := apperr.FromRules(p.Validate()); err != nil {
		return err
	}
	if err := s.db.UpdateProject(ctx, p); err != nil {
		return err
	}
	s.notify.Notify(sse.Change{Entity: sse.EntityProject, Action: sse.ActionUpdated, ID: p.ID, ClientID: p.ClientID})
	return nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.db.DeleteProject(ctx, id); err != nil {
		return err
	}
	s.notify.Notify(sse.Change{Entity: sse.EntityProject, Action: sse.ActionDeleted, ID: id})
	return nil
}
