// Package dashboard assembles the overview page and the AI spend report.
package dashboard

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/agencyhub/internal/apperr"
	"github.com/starford/agencyhub/internal/models"
	"github.com/starford/agencyhub/internal/store"
)

// Overview is the landing page payload.
type Overview struct {
	Clients          map[string]int       `json:"clients"`
	Projects         map[string]int       `json:"projects"`
	Content          map[string]int       `json:"content"`
	Upcoming         []models.Project     `json:"upcoming"`
	RecentExecutions []models.AIExecution `json:"recent_executions"`
	Spend30d         Totals               `json:"spend_30d"`
	GeneratedAt      time.Time            `json:"generated_at"`
}

// Totals sums a set of spend rows.
type Totals struct {
	Calls        int     `json:"calls"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
}

// SpendReport is a grouped rollup over a time range.
type SpendReport struct {
	GroupBy store.SpendGroup  `json:"group_by"`
	From    *time.Time        `json:"from,omitempty"`
	To      *time.Time        `json:"to,omitempty"`
	Rows    []models.SpendRow `json:"rows"`
	Total   Totals            `json:"total"`
}

// Service runs the read queries behind the dashboard.
type Service struct {
	db  *store.DB
	now func() time.Time
}

func NewService(db *store.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// upcomingWindow is how far ahead Overview looks for due projects.
const upcomingWindow = 14 * 24 * time.Hour

// Overview issues every dashboard query concurrently and joins them.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	now := s.now().UTC()
	out := &Overview{GeneratedAt: now}
	var spend []models.SpendRow

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Clients, err = s.db.ClientCounts(ctx)
		return err
	})
	g.Go(func() (err error) {
		out.Projects, err = s.db.ProjectCounts(ctx)
		return err
	})
	g.Go(func() (err error) {
		out.Content, err = s.db.ContentCounts(ctx)
		return err
	})
	g.Go(func() (err error) {
		out.Upcoming, err = s.db.UpcomingProjects(ctx, now.Add(upcomingWindow), 10)
		return err
	})
	g.Go(func() (err error) {
		out.RecentExecutions, err = s.db.RecentExecutions(ctx, 10)
		return err
	})
	g.Go(func() (err error) {
		spend, err = s.db.Spend(ctx, store.SpendByModel, now.Add(-30*24*time.Hour), time.Time{})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out.Spend30d = sum(spend)
	return out, nil
}

// Spend rolls up AI executions in [from, to). Zero times leave a side open.
func (s *Service) Spend(ctx context.Context, group store.SpendGroup, from, to time.Time) (*SpendReport, error) {
	if group == "" {
		group = store.SpendByModel
	}
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return nil, apperr.Invalid("from", "must be before to")
	}
	rows, err := s.db.Spend(ctx, group, from, to)
	if err != nil {
		return nil, err
	}
	rep := &SpendReport{GroupBy: group, Rows: rows, Total: sum(rows)}
	if !from.IsZero() {
		rep.From = &from
	}
	if !to.IsZero() {
		rep.To = &to
	}
	return rep, nil
}

func sum(rows []models.SpendRow) Totals {
	var t Totals
	for _, r := range rows {
		t.Calls += r.Calls
		t.InputTokens += r.InputTokens
		t.OutputTokens += r.OutputTokens
		t.CostUSD += r.CostUSD
	}
	return t
}
