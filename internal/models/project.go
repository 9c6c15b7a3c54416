package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ProjectStatus is the Kanban column a project sits in.
type ProjectStatus string

const (
	StatusBacklog    ProjectStatus = "backlog"
	StatusInProgress ProjectStatus = "in_progress"
	StatusInReview   ProjectStatus = "in_review"
	StatusDone       ProjectStatus = "done"
)

// ProjectStatuses lists the board columns in display order.
var ProjectStatuses = []ProjectStatus{StatusBacklog, StatusInProgress, StatusInReview, StatusDone}

// Valid reports whether s is a known status.
func (s ProjectStatus) Valid() bool {
	for _, v := range ProjectStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Priority orders work within the agency.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank sorts priorities from most to least pressing.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

// Project is a unit of client work shown on the board.
type Project struct {
	ID          string        `json:"id"`
	ClientID    string        `json:"client_id"`
	ClientName  string        `json:"client_name,omitempty"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Status      ProjectStatus `json:"status"`
	Priority    Priority      `json:"priority"`
	DueDate     *time.Time    `json:"due_date,omitempty"`
	Position    int           `json:"position"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Validate checks a project before it is written.
func (p *Project) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.ClientID, validation.Required),
		validation.Field(&p.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.Status, validation.Required,
			validation.In(StatusBacklog, StatusInProgress, StatusInReview, StatusDone)),
		validation.Field(&p.Priority, validation.Required,
			validation.In(PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent)),
		validation.Field(&p.Position, validation.Min(0)),
	)
}
