// Package board serves the project Kanban: columns per status and
// server-side moves that keep positions dense.
package board

import (
	"context"

	"github.com/starford/agencyhub/internal/apperr"
	"github.com/starford/agencyhub/internal/models"
	"github.com/starford/agencyhub/internal/sse"
	"github.com/starford/agencyhub/internal/store"
)

var columnTitles = map[models.ProjectStatus]string{
	models.StatusBacklog:    "Backlog",
	models.StatusInProgress: "In Progress",
	models.StatusInReview:   "In Review",
	models.StatusDone:       "Done",
}

// Column is one Kanban column with its projects in position order.
type Column struct {
	Status   models.ProjectStatus `json:"status"`
	Title    string               `json:"title"`
	Projects []models.Project     `json:"projects"`
}

// Filter narrows the board without changing column order.
type Filter struct {
	ClientID string
	Priority models.Priority
	Query    string
}

// MoveResult carries the moved project and the columns it touched, so a
// client can replace its optimistic state.
type MoveResult struct {
	Project models.Project `json:"project"`
	Columns []Column       `json:"columns"`
}

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

// Board returns every column in status order, including empty ones.
func (s *Service) Board(ctx context.Context, f Filter) ([]Column, error) {
	projects, _, err := s.db.ListProjects(ctx, store.ProjectFilter{
		ClientID: f.ClientID,
		Priority: f.Priority,
		Query:    f.Query,
		Limit:    10000,
	})
	if err != nil {
		return nil, err
	}
	return group(projects, models.ProjectStatuses), nil
}

func group(projects []models.Project, statuses []models.ProjectStatus) []Column {
	cols := make([]Column, len(statuses))
	idx := make(map[models.ProjectStatus]int, len(statuses))
	for i, st := range statuses {
		cols[i] = Column{Status: st, Title: columnTitles[st], Projects: []models.Project{}}
		idx[st] = i
	}
	for _, p := range projects {
		if i, ok := idx[p.Status]; ok {
			cols[i].Projects = append(cols[i].Projects, p)
		}
	}
	return cols
}

// Move places a project at toIndex in toStatus. Nothing is written on error.
func (s *Service) Move(ctx context.Context, projectID string, toStatus models.ProjectStatus, toIndex int) (*MoveResult, error) {
	if !toStatus.Valid() {
		return nil, apperr.Invalid("to_status", "must be one of backlog, in_progress, in_review, done")
	}
	before, err := s.db.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.db.MoveProject(ctx, projectID, toStatus, toIndex); err != nil {
		return nil, err
	}

	statuses := []models.ProjectStatus{before.Status}
	if toStatus != before.Status {
		statuses = affectedInOrder(before.Status, toStatus)
	}
	cols := make([]Column, 0, len(statuses))
	for _, st := range statuses {
		projects, _, err := s.db.ListProjects(ctx, store.ProjectFilter{Status: st, Limit: 10000})
		if err != nil {
			return nil, err
		}
		cols = append(cols, group(projects, []models.ProjectStatus{st})[0])
	}
	after, err := s.db.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	s.notify.Notify(sse.Change{
		Entity:   sse.EntityProject,
		Action:   sse.ActionMoved,
		ID:       projectID,
		ClientID: after.ClientID,
		From:     string(before.Status),
		To:       string(after.Status),
	})
	return &MoveResult{Project: *after, Columns: cols}, nil
}

func affectedInOrder(a, b models.ProjectStatus) []models.ProjectStatus {
	var out []models.ProjectStatus
	for _, st := range models.ProjectStatuses {
		if st == a || st == b {
			out = append(out, st)
		}
	}
	return out
}
