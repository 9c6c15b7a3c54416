package clients

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/agencyhub/internal/apperr"
	"github.com/starford/agencyhub/internal/checksum"
	"github.com/starford/agencyhub/internal/models"
	"github.com/starford/agencyhub/internal/questionnaire"
	"github.com/starford/agencyhub/internal/sse"
)

// Questionnaire is the intake state returned to the form.
type Questionnaire struct {
	ClientID  string                     `json:"client_id"`
	Status    models.QuestionnaireStatus `json:"status"`
	Responses models.IntakeResponses     `json:"responses"`
	Checksum  string                     `json:"checksum"`
	Progress  questionnaire.Progress     `json:"progress"`
	// Errors holds the current problems of the saved section only.
	Errors questionnaire.Errors `json:"errors,omitempty"`
}

// ResponsesChecksum is the version tag of stored responses used for If-Match.
func ResponsesChecksum(r models.IntakeResponses) string {
	if r == nil {
		r = models.IntakeResponses{}
	}
	return checksum.JSON(r)
}

func view(c *models.Client) *Questionnaire {
	r := c.IntakeResponses
	if r == nil {
		r = models.IntakeResponses{}
	}
	return &Questionnaire{
		ClientID:  c.ID,
		Status:    c.QuestionnaireStatus,
		Responses: r,
		Checksum:  ResponsesChecksum(r),
		Progress:  questionnaire.Report(r),
	}
}

// Schema returns the form definition.
func (s *Service) Schema() []questionnaire.Section {
	return questionnaire.Sections
}

// Questionnaire loads the stored intake with its progress.
func (s *Service) Questionnaire(ctx context.Context, clientID string) (*Questionnaire, error) {
	c, err := s.db.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return view(c), nil
}

// SaveSection merges one section's answers into the stored responses. The
// write is never blocked by validation; the section's current errors come
// back for display. A non-empty ifMatch must equal the stored checksum.
func (s *Service) SaveSection(ctx context.Context, clientID string, number int, answers map[string]any, ifMatch string) (*Questionnaire, error) {
	sec, ok := questionnaire.SectionByNumber(number)
	if !ok {
		return nil, apperr.Invalid("section", fmt.Sprintf("must be between 1 and %d", len(questionnaire.Sections)))
	}
	c, err := s.db.UpdateIntake(ctx, clientID, func(c *models.Client) error {
		if err := checkVersion(c.IntakeResponses, ifMatch); err != nil {
			return err
		}
		c.IntakeResponses = questionnaire.Merge(c.IntakeResponses, sec, answers)
		c.QuestionnaireStatus = questionnaire.Status(c.QuestionnaireStatus, c.IntakeResponses, false)
		if c.QuestionnaireStatus == models.QuestionnaireCompleted {
			c.BrandProfile = questionnaire.BrandProfile(c.IntakeResponses)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify.Notify(sse.Change{Entity: sse.EntityClient, Action: sse.ActionQuestionnaireSaved, ID: clientID, ClientID: clientID})

	v := view(c)
	v.Errors = questionnaire.ValidateSection(sec, c.IntakeResponses[sec.Key])
	return v, nil
}

// Submit validates the whole form. On success the status becomes completed
// and the brand profile is rebuilt from the answers.
func (s *Service) Submit(ctx context.Context, clientID, ifMatch string) (*Questionnaire, error) {
	c, err := s.db.UpdateIntake(ctx, clientID, func(c *models.Client) error {
		if err := checkVersion(c.IntakeResponses, ifMatch); err != nil {
			return err
		}
		if errs := questionnaire.Validate(c.IntakeResponses); len(errs) > 0 {
			return apperr.NewValidation(errs)
		}
		c.QuestionnaireStatus = questionnaire.Status(c.QuestionnaireStatus, c.IntakeResponses, true)
		c.BrandProfile = questionnaire.BrandProfile(c.IntakeResponses)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify.Notify(sse.Change{Entity: sse.EntityClient, Action: sse.ActionQuestionnaireSubmitted, ID: clientID, ClientID: clientID})
	return view(c), nil
}

func checkVersion(stored models.IntakeResponses, ifMatch string) error {
	tag := strings.Trim(strings.TrimPrefix(strings.TrimSpace(ifMatch), "W/"), `"`)
	if tag == "" || tag == "*" {
		return nil
	}
	if tag != ResponsesChecksum(stored) {
		return fmt.Errorf("clients: questionnaire was changed by someone else: %w", apperr.ErrConflict)
	}
	return nil
}
