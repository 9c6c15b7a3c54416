// Package journal captures quick notes and links them to clients, projects
// and content through @mentions and #tags.
package journal

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/sync/errgroup"

	"github.com/starford/agencyhub/internal/apperr"
	"github.com/starford/agencyhub/internal/mention"
	"github.com/starford/agencyhub/internal/models"
	"github.com/starford/agencyhub/internal/sse"
	"github.com/starford/agencyhub/internal/store"
)

const maxContentLen = 20000

// Entry is a stored entry plus the mention spans derived from its content.
type Entry struct {
	models.JournalEntry
	Spans []mention.Span `json:"spans"`
}

// Service is the single write path for journal entries: mention and tag
// arrays are recomputed from the content on every create and update.
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

// Candidates loads the live clients, projects and content a mention can
// resolve to.
func (s *Service) Candidates(ctx context.Context) (mention.Candidates, error) {
	var c mention.Candidates
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		c.Clients, err = s.db.ClientEntities(gctx)
		return err
	})
	g.Go(func() (err error) {
		c.Projects, err = s.db.ProjectEntities(gctx)
		return err
	})
	g.Go(func() (err error) {
		c.Content, err = s.db.ContentEntities(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return mention.Candidates{}, err
	}
	return c, nil
}

// Parse previews what saving text would link, without writing anything.
func (s *Service) Parse(ctx context.Context, text string) (mention.Result, error) {
	c, err := s.Candidates(ctx)
	if err != nil {
		return mention.Result{}, err
	}
	return mention.Parse(text, c), nil
}

func validateContent(content string) error {
	return apperr.FromRules(validation.Errors{
		"content": validation.Validate(strings.TrimSpace(content), validation.Required, validation.RuneLength(1, maxContentLen)),
	}.Filter())
}

// Create saves a new entry, optionally inside a chat.
func (s *Service) Create(ctx context.Context, content string, chatID *string) (*Entry, error) {
	return s.write(ctx, &models.JournalEntry{}, content, chatID, sse.ActionCreated)
}

// Update replaces an entry's content and chat.
func (s *Service) Update(ctx context.Context, id, content string, chatID *string) (*Entry, error) {
	e, err := s.db.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.write(ctx, e, content, chatID, sse.ActionUpdated)
}

func (s *Service) write(ctx context.Context, e *models.JournalEntry, content string, chatID *string, action sse.Action) (*Entry, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}
	if chatID != nil && *chatID == "" {
		chatID = nil
	}
	if chatID != nil {
		if _, err := s.db.GetChat(ctx, *chatID); err != nil {
			return nil, err
		}
	}
	c, err := s.Candidates(ctx)
	if err != nil {
		return nil, err
	}
	res := mention.Parse(content, c)

	e.Content = content
	e.ChatID = chatID
	e.MentionedClients = res.Clients
	e.MentionedProjects = res.Projects
	e.MentionedContent = res.Content
	e.Tags = res.Tags
	if err := s.db.SaveEntry(ctx, e); err != nil {
		return nil, err
	}
	s.notify.Notify(sse.Change{Entity: sse.EntityJournal, Action: action, ID: e.ID})
	return &Entry{JournalEntry: *e, Spans: res.Spans}, nil
}

// Get returns an entry with spans re-derived against current names. The
// stored arrays are not touched.
func (s *Service) Get(ctx context.Context, id string) (*Entry, error) {
	e, err := s.db.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	c, err := s.Candidates(ctx)
	if err != nil {
		return nil, err
	}
	return &Entry{JournalEntry: *e, Spans: mention.Parse(e.Content, c).Spans}, nil
}

func (s *Service) List(ctx context.Context, f store.JournalFilter) ([]models.JournalEntry, int, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	return s.db.ListJournal(ctx, f)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.db.DeleteEntry(ctx, id); err != nil {
		return err
	}
	s.notify.Notify(sse.Change{Entity: sse.EntityJournal, Action: sse.ActionDeleted, ID: id})
	return nil
}

func validateTitle(title string) error {
	return apperr.FromRules(validation.Errors{
		"title": validation.Validate(strings.TrimSpace(title), validation.Required, validation.RuneLength(1, 200)),
	}.Filter())
}

func (s *Service) CreateChat(ctx context.Context, title string) (*models.JournalChat, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	c := &models.JournalChat{Title: strings.TrimSpace(title)}
	if err := s.db.CreateChat(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) ListChats(ctx context.Context) ([]models.JournalChat, error) {
	return s.db.ListChats(ctx)
}

func (s *Service) RenameChat(ctx context.Context, id, title string) (*models.JournalChat, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := s.db.RenameChat(ctx, id, strings.TrimSpace(title)); err != nil {
		return nil, err
	}
	return s.db.GetChat(ctx, id)
}

// DeleteChat removes a chat; its entries stay in the journal without a chat.
func (s *Service) DeleteChat(ctx context.Context, id string) error {
	return s.db.DeleteChat(ctx, id)
}
