// Package gemini adapts the Google GenAI SDK to the ai interfaces.
package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/starford/agencyhub/internal/ai"
)

var (
	_ ai.ChatModel = (*Client)(nil)
	_ ai.Embedder  = (*Embedder)(nil)
)

// Client serves chat completions from Gemini models.
type Client struct {
	client *genai.Client
}

// NewClient builds a Gemini API client. baseURL overrides the endpoint when set.
func NewClient(ctx context.Context, apiKey, baseURL string) (*Client, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	c, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &Client{client: c}, nil
}

// Complete implements ai.ChatModel.
func (c *Client) Complete(ctx context.Context, req ai.CompletionRequest) (ai.CompletionResponse, error) {
	resp, err := c.client.Models.GenerateContent(ctx, req.Model, toContents(req.Messages), generateConfig(req))
	if err != nil {
		return ai.CompletionResponse{}, fmt.Errorf("gemini: generate: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return ai.CompletionResponse{}, fmt.Errorf("gemini: empty response")
	}
	out := ai.CompletionResponse{Text: text, Model: req.Model}
	if resp.ModelVersion != "" {
		out.Model = resp.ModelVersion
	}
	if u := resp.UsageMetadata; u != nil {
		out.InputTokens = int(u.PromptTokenCount)
		out.OutputTokens = int(u.CandidatesTokenCount)
	}
	slog.Default().Debug("gemini completion", "model", out.Model, "input_tokens", out.InputTokens, "output_tokens", out.OutputTokens)
	return out, nil
}

func toContents(msgs []ai.Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := genai.Role(genai.RoleUser)
		if m.Role == ai.RoleAssistant {
			role = genai.RoleModel
		}
		out = append(out, genai.NewContentFromText(m.Content, role))
	}
	return out
}

func generateConfig(req ai.CompletionRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{Temperature: req.Temperature}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	return cfg
}

// Embedder produces retrieval embeddings with a Gemini embedding model.
type Embedder struct {
	client   *genai.Client
	model    string
	dims     int
	taskType string
}

// NewEmbedder uses the document retrieval task type; see ForQueries.
func NewEmbedder(c *Client, model string, dims int) *Embedder {
	return &Embedder{client: c.client, model: model, dims: dims, taskType: "RETRIEVAL_DOCUMENT"}
}

// ForQueries returns a copy that embeds search queries instead of documents.
func (e *Embedder) ForQueries() *Embedder {
	cp := *e
	cp.taskType = "RETRIEVAL_QUERY"
	return &cp
}

func (e *Embedder) Dimensions() int { return e.dims }

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}
	cfg := &genai.EmbedContentConfig{TaskType: e.taskType}
	if e.dims > 0 {
		cfg.OutputDimensionality = genai.Ptr(int32(e.dims))
	}
	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: embed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini: got %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}
	out := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		if e.dims > 0 && len(emb.Values) != e.dims {
			return nil, fmt.Errorf("gemini: embedding %d has %d dimensions, want %d", i, len(emb.Values), e.dims)
		}
		out[i] = emb.Values
	}
	return out, nil
}
