// Package models defines the domain types for the agency dashboard.
package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// QuestionnaireStatus tracks how far a client got through onboarding.
type QuestionnaireStatus string

const (
	QuestionnaireNotStarted QuestionnaireStatus = "not_started"
	QuestionnaireInProgress QuestionnaireStatus = "in_progress"
	QuestionnaireCompleted  QuestionnaireStatus = "completed"
)

// IntakeResponses maps section key -> question key -> answer.
type IntakeResponses map[string]map[string]any

// Clone returns a deep-enough copy: section maps are copied, answer values are shared.
func (r IntakeResponses) Clone() IntakeResponses {
	out := make(IntakeResponses, len(r))
	for section, answers := range r {
		cp := make(map[string]any, len(answers))
		for k, v := range answers {
			cp[k] = v
		}
		out[section] = cp
	}
	return out
}

// BrandProfile is the intake flattened for prompts: section title -> question
// label -> answer. It is recomputed whenever the questionnaire is submitted.
type BrandProfile map[string]map[string]any

// Client is an agency customer.
type Client struct {
	ID                  string              `json:"id"`
	Name                string              `json:"name"`
	Email               string              `json:"email,omitempty"`
	Phone               string              `json:"phone,omitempty"`
	Company             string              `json:"company,omitempty"`
	Website             string              `json:"website,omitempty"`
	ClientCode          string              `json:"client_code"`
	IntakeResponses     IntakeResponses     `json:"intake_responses"`
	QuestionnaireStatus QuestionnaireStatus `json:"questionnaire_status"`
	BrandProfile        BrandProfile        `json:"brand_profile,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
	DeletedAt           *time.Time          `json:"deleted_at,omitempty"`
}

// Validate checks the contact fields a client form can submit.
func (c *Client) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&c.Email, is.EmailFormat),
		validation.Field(&c.Website, is.URL),
		validation.Field(&c.Phone, validation.Length(0, 40)),
	)
}

// Entity is the {id, name} pair mention parsing and search work with.
type Entity struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}
