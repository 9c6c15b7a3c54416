// Package search backs the command palette: one query fanned out over
// clients, projects, content and journal entries.
package search

import (
	"context"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/starford/agencyhub/internal/apperr"
	"github.com/starford/agencyhub/internal/store"
)

// Kind tags a hit with the entity it points at.
type Kind string

const (
	KindClient  Kind = "client"
	KindProject Kind = "project"
	KindContent Kind = "content"
	KindJournal Kind = "journal"
)

// Hit is one palette row.
type Hit struct {
	Kind     Kind   `json:"kind"`
	ID       string `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
}

// Results groups hits per entity. Every group is non-nil.
type Results struct {
	Query    string `json:"query"`
	Clients  []Hit  `json:"clients"`
	Projects []Hit  `json:"projects"`
	Content  []Hit  `json:"content"`
	Journal  []Hit  `json:"journal"`
}

// Searcher runs palette queries.
type Searcher struct {
	db *store.DB
}

func New(db *store.DB) *Searcher {
	return &Searcher{db: db}
}

const (
	defaultLimit = 5
	maxLimit     = 25
	snippetRunes = 80
)

// Search queries all four entity tables concurrently. limit caps each group.
// The first failing query cancels the rest and its error is returned.
func (s *Searcher) Search(ctx context.Context, q string, limit int) (*Results, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, apperr.Invalid("q", "cannot be blank")
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	res := &Results{Query: q, Clients: []Hit{}, Projects: []Hit{}, Content: []Hit{}, Journal: []Hit{}}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		list, _, err := s.db.ListClients(ctx, store.ClientFilter{Query: q, Limit: limit})
		if err != nil {
			return err
		}
		for _, c := range list {
			res.Clients = append(res.Clients, Hit{Kind: KindClient, ID: c.ID, Title: c.Name, Subtitle: c.ClientCode})
		}
		return nil
	})
	g.Go(func() error {
		list, _, err := s.db.ListProjects(ctx, store.ProjectFilter{Query: q, Limit: limit})
		if err != nil {
			return err
		}
		for _, p := range list {
			res.Projects = append(res.Projects, Hit{Kind: KindProject, ID: p.ID, Title: p.Name, Subtitle: p.ClientName})
		}
		return nil
	})
	g.Go(func() error {
		list, _, err := s.db.ListContent(ctx, store.ContentFilter{Query: q, Limit: limit})
		if err != nil {
			return err
		}
		for _, a := range list {
			res.Content = append(res.Content, Hit{Kind: KindContent, ID: a.ID, Title: a.Title, Subtitle: string(a.AssetType)})
		}
		return nil
	})
	g.Go(func() error {
		list, _, err := s.db.ListJournal(ctx, store.JournalFilter{Query: q, Limit: limit})
		if err != nil {
			return err
		}
		for _, e := range list {
			res.Journal = append(res.Journal, Hit{Kind: KindJournal, ID: e.ID, Title: snippet(e.Content), Subtitle: e.CreatedAt.Format("2 Jan 2006")})
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= snippetRunes {
		return s
	}
	r := []rune(s)
	return string(r[:snippetRunes]) + "..."
}
