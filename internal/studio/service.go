// Package studio generates marketing copy: it assembles the prompt from brand
// context and retrieved frameworks, calls the selected model and books the cost.
package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/agencyhub/internal/ai"
	"github.com/starford/agencyhub/internal/apperr"
	"github.com/starford/agencyhub/internal/models"
	"github.com/starford/agencyhub/internal/questionnaire"
	"github.com/starford/agencyhub/internal/rag"
	"github.com/starford/agencyhub/internal/sse"
	"github.com/starford/agencyhub/internal/store"
)

// ErrGeneration is returned when the model call fails. The cause is wrapped
// for logs; callers show only this message.
var ErrGeneration = errors.New("generation failed")

// Request is one generation.
type Request struct {
	ClientID       string       `json:"client_id,omitempty"`
	ProjectID      *string      `json:"project_id,omitempty"`
	TaskType       TaskType     `json:"task_type"`
	Prompt         string       `json:"prompt"`
	History        []ai.Message `json:"history,omitempty"`
	Tier           ai.Tier      `json:"tier,omitempty"`
	Model          string       `json:"model,omitempty"`
	SkipFrameworks bool         `json:"skip_frameworks,omitempty"`
	AutoSave       bool         `json:"auto_save,omitempty"`
	Title          string       `json:"title,omitempty"`
	MaxTokens      int          `json:"max_tokens,omitempty"`
	Temperature    *float32     `json:"temperature,omitempty"`
}

func (r *Request) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Prompt, validation.Required, validation.Length(1, 20000)),
		validation.Field(&r.TaskType, validation.By(func(any) error {
			if !r.TaskType.Valid() {
				return errors.New("unknown task type")
			}
			return nil
		})),
		validation.Field(&r.ClientID, validation.When(r.AutoSave, validation.Required.Error("is required to auto-save"))),
		validation.Field(&r.Title, validation.Length(0, 300)),
		validation.Field(&r.MaxTokens, validation.Min(0)),
		validation.Field(&r.History, validation.Each(validation.By(func(v any) error {
			m, _ := v.(ai.Message)
			if m.Role != ai.RoleUser && m.Role != ai.RoleAssistant {
				return errors.New("role must be user or assistant")
			}
			return nil
		}))),
	)
}

// FrameworkRef names a framework snippet that went into the prompt.
type FrameworkRef struct {
	FrameworkID   string  `json:"framework_id"`
	FrameworkName string  `json:"framework_name"`
	Similarity    float64 `json:"similarity"`
}

// Result of a successful generation.
type Result struct {
	Text         string         `json:"text"`
	Model        string         `json:"model"`
	Provider     string         `json:"provider"`
	InputTokens  int            `json:"input_tokens"`
	OutputTokens int            `json:"output_tokens"`
	CostUSD      float64        `json:"cost_usd"`
	ExecutionID  string         `json:"execution_id"`
	AssetID      string         `json:"asset_id,omitempty"`
	SaveError    string         `json:"save_error,omitempty"`
	Frameworks   []FrameworkRef `json:"frameworks"`
}

// Config holds generation defaults.
type Config struct {
	DefaultMaxTokens   int
	DefaultTemperature float32
}

// Service runs generations.
type Service struct {
	db        *store.DB
	models    *ai.Registry
	retriever *rag.Retriever
	notify    sse.Notifier
	cfg       Config
}

// NewService wires a studio. retriever may be nil when no embedder is configured.
func NewService(db *store.DB, models *ai.Registry, retriever *rag.Retriever, notify sse.Notifier, cfg Config) *Service {
	if notify == nil {
		notify = sse.Nop
	}
	if cfg.DefaultMaxTokens <= 0 {
		cfg.DefaultMaxTokens = 2048
	}
	return &Service{db: db, models: models, retriever: retriever, notify: notify, cfg: cfg}
}

// Models lists the selectable models.
func (s *Service) Models() []ai.ModelSpec {
	return s.models.Models()
}

// Generate runs one generation. Every model call, failed or not, is appended
// to the execution log.
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	if req.TaskType == "" {
		req.TaskType = TaskCustom
	}
	if err := apperr.FromRules(req.Validate()); err != nil {
		return nil, err
	}
	sel, err := s.models.Select(req.Tier, req.Model)
	if err != nil {
		return nil, err
	}

	var (
		brand    models.BrandProfile
		clientID *string
	)
	if req.ClientID != "" {
		c, err := s.db.GetClient(ctx, req.ClientID)
		if err != nil {
			return nil, err
		}
		brand = c.BrandProfile
		if len(brand) == 0 && len(c.IntakeResponses) > 0 {
			brand = questionnaire.BrandProfile(c.IntakeResponses)
		}
		clientID = &c.ID
	}
	if req.AutoSave && req.ProjectID != nil && *req.ProjectID != "" {
		if err := s.checkProject(ctx, req.ClientID, *req.ProjectID); err != nil {
			return nil, err
		}
	}

	snippets := s.retrieve(ctx, req)
	system, err := systemPrompt(req.TaskType, brand, snippets)
	if err != nil {
		return nil, err
	}

	creq := ai.CompletionRequest{
		Model:        sel.Spec.ID,
		SystemPrompt: system,
		Messages:     append(append([]ai.Message{}, req.History...), ai.Message{Role: ai.RoleUser, Content: req.Prompt}),
		MaxTokens:    req.MaxTokens,
		Temperature:  req.Temperature,
	}
	if creq.MaxTokens == 0 {
		creq.MaxTokens = s.cfg.DefaultMaxTokens
	}
	if creq.Temperature == nil {
		t := s.cfg.DefaultTemperature
		creq.Temperature = &t
	}

	resp, callErr := sel.Model.Complete(ctx, creq)

	exec := &models.AIExecution{
		ModelID:  sel.Spec.ID,
		Provider: sel.Spec.Provider,
		ClientID: clientID,
		TaskType: string(req.TaskType),
	}
	if callErr != nil {
		exec.Error = callErr.Error()
	} else {
		exec.Succeeded = true
		exec.InputTokens = resp.InputTokens
		exec.OutputTokens = resp.OutputTokens
		exec.CostUSD = sel.Spec.Cost(resp.InputTokens, resp.OutputTokens)
	}
	// The log entry is written even when the caller has gone away.
	bg := context.WithoutCancel(ctx)
	if err := s.db.RecordExecution(bg, exec); err != nil {
		slog.Error("record ai execution", slog.String("model", sel.Spec.ID), slog.String("error", err.Error()))
	}
	if callErr != nil {
		slog.Error("generation failed",
			slog.String("model", sel.Spec.ID),
			slog.String("task_type", string(req.TaskType)),
			slog.String("error", callErr.Error()))
		return nil, fmt.Errorf("studio: %s: %w: %w", sel.Spec.ID, ErrGeneration, callErr)
	}

	res := &Result{
		Text:         resp.Text,
		Model:        sel.Spec.ID,
		Provider:     sel.Spec.Provider,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
		CostUSD:      exec.CostUSD,
		ExecutionID:  exec.ID,
		Frameworks:   make([]FrameworkRef, 0, len(snippets)),
	}
	frameworkIDs := make([]string, 0, len(snippets))
	seen := make(map[string]bool)
	for _, sn := range snippets {
		res.Frameworks = append(res.Frameworks, FrameworkRef{FrameworkID: sn.FrameworkID, FrameworkName: sn.FrameworkName, Similarity: sn.Similarity})
		if !seen[sn.FrameworkID] {
			seen[sn.FrameworkID] = true
			frameworkIDs = append(frameworkIDs, sn.FrameworkID)
		}
	}

	if req.AutoSave {
		s.save(bg, req, res, frameworkIDs)
	}
	return res, nil
}

// checkProject rejects auto-saving into a project of another client before
// any tokens are spent.
func (s *Service) checkProject(ctx context.Context, clientID, projectID string) error {
	p, err := s.db.GetProject(ctx, projectID)
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.Invalid("project_id", "unknown project")
	}
	if err != nil {
		return err
	}
	if p.ClientID != clientID {
		return apperr.Invalid("project_id", "belongs to another client")
	}
	return nil
}

func (s *Service) retrieve(ctx context.Context, req Request) []models.ChunkMatch {
	if s.retriever == nil || req.SkipFrameworks {
		return nil
	}
	matches, err := s.retriever.Retrieve(ctx, rag.Query{Text: req.Prompt})
	if err != nil {
		slog.Warn("framework retrieval failed; generating without frameworks", slog.String("error", err.Error()))
		return nil
	}
	return matches
}

func (s *Service) save(ctx context.Context, req Request, res *Result, frameworkIDs []string) {
	title := req.Title
	if title == "" {
		title = defaultTitle(req.TaskType, req.Prompt)
	}
	projectID := req.ProjectID
	if projectID != nil && *projectID == "" {
		projectID = nil
	}
	asset := &models.ContentAsset{
		ClientID:  req.ClientID,
		ProjectID: projectID,
		Title:     title,
		AssetType: tasks[req.TaskType].asset,
		Body:      models.Body{Note: &models.NoteBody{Format: models.FormatHTML, HTML: textToHTML(res.Text)}},
		Metadata: models.AssetMetadata{AI: &models.AIProvenance{
			Model:        res.Model,
			Provider:     res.Provider,
			TaskType:     string(req.TaskType),
			InputTokens:  res.InputTokens,
			OutputTokens: res.OutputTokens,
			CostUSD:      res.CostUSD,
			ExecutionID:  res.ExecutionID,
			FrameworkIDs: frameworkIDs,
		}},
	}
	if err := s.db.CreateContent(ctx, asset); err != nil {
		slog.Error("auto-save generated content", slog.String("client", req.ClientID), slog.String("error", err.Error()))
		res.SaveError = "auto-save failed"
		return
	}
	res.AssetID = asset.ID
	if err := s.db.LinkExecutionAsset(ctx, res.ExecutionID, asset.ID); err != nil {
		slog.Warn("link execution to asset", slog.String("execution", res.ExecutionID), slog.String("error", err.Error()))
	}
	s.notify.Notify(sse.Change{Entity: sse.EntityContent, Action: sse.ActionCreated, ID: asset.ID, ClientID: asset.ClientID})
}
