// Package clients manages agency clients and their onboarding questionnaire.
package clients

import (
	"context"

	"github.com/starford/agencyhub/internal/apperr"
	"github.com/starford/agencyhub/internal/models"
	"github.com/starford/agencyhub/internal/sse"
	"github.com/starford/agencyhub/internal/store"
)

// Service is the client use-case layer.
type Service struct {
	db     *store.DB
	notify sse.Notifier
}

func NewService(db *store.DB, notify sse.Notifier) *Service {
	if notify == nil {
		notify = sse.Nop
	}
	return &Service{db: db, notify: notify}
}

// Create validates c and stores it with a fresh client code.
func (s *Service) Create(ctx context.Context, c *models.Client) error {
	if err := apperr.FromRules(c.Validate()); err != nil {
		return err
	}
	if err := s.db.CreateClient(ctx, c); err != nil {
		return err
	}
	s.notify.Notify(sse.Change{Entity: sse.EntityClient, Action: sse.ActionCreated, ID: c.ID, ClientID: c.ID})
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Client, error) {
	return s.db.GetClient(ctx, id)
}

// List returns live clients by name and the total match count.
func (s *Service) List(ctx context.Context, f store.ClientFilter) ([]models.Client, int, error) {
	switch f.Status {
	case "", models.QuestionnaireNotStarted, models.QuestionnaireInProgress, models.QuestionnaireCompleted:
	default:
		return nil, 0, apperr.Invalid("status", "unknown questionnaire status")
	}
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 100
	}
	return s.db.ListClients(ctx, f)
}

// Update writes the contact fields of c. Questionnaire state is untouched.
func (s *Service) Update(ctx context.Context, c *models.Client) (*models.Client, error) {
	if err := apperr.FromRules(c.Validate()); err != nil {
		return nil, err
	}
	if err := s.db.UpdateClient(ctx, c); err != nil {
		return nil, err
	}
	s.notify.Notify(sse.Change{Entity: sse.EntityClient, Action: sse.ActionUpdated, ID: c.ID, ClientID: c.ID})
	return s.db.GetClient(ctx, c.ID)
}

// Delete soft-deletes a client. Its projects, content and journal links stay
// in place but stop appearing in lists and searches.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.db.DeleteClient(ctx, id); err != nil {
		return err
	}
	s.notify.Notify(sse.Change{Entity: sse.EntityClient, Action: sse.ActionDeleted, ID: id, ClientID: id})
	return nil
}
