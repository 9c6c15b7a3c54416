// Package openai talks to the OpenAI-compatible chat and embedding APIs.
package openai

import (
	"context"
	"fmt"
	"log/slog"

	"resty.dev/v3"

	"github.com/starford/agencyhub/internal/ai"
)

const DefaultBaseURL = "https://api.openai.com/v1"

type Client struct {
	httpClient       *resty.Client
	maxRetryAttempts uint
}

// NewClient returns a client for apiKey. An empty baseURL means the public API.
func NewClient(apiKey, baseURL string, retryAttempts uint) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeader("Authorization", "Bearer "+apiKey)
	client.SetHeader("Content-Type", "application/json")

	return &Client{
		httpClient:       client,
		maxRetryAttempts: retryAttempts,
	}
}

func (client *Client) Close() error {
	return client.httpClient.Close()
}

type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float32  `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Complete implements ai.ChatModel.
func (client *Client) Complete(ctx context.Context, req ai.CompletionRequest) (ai.CompletionResponse, error) {
	var result ai.CompletionResponse
	err := client.withRetry(ctx, func() error {
		resp, err := client.complete(ctx, req)
		if err != nil {
			return err
		}
		result = resp
		return nil
	})
	return result, err
}

func (client *Client) complete(ctx context.Context, req ai.CompletionRequest) (ai.CompletionResponse, error) {
	body := ChatCompletionRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.SystemPrompt != "" {
		body.Messages = append(body.Messages, Message{Role: "system", Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, Message{Role: string(m.Role), Content: m.Content})
	}

	response, err := client.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&ChatCompletionResponse{}).
		Post("/chat/completions")
	if err != nil {
		return ai.CompletionResponse{}, fmt.Errorf("httpClient.Post > %w", err)
	}
	if response.IsError() {
		return ai.CompletionResponse{}, fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
	}

	responseBody := response.Result().(*ChatCompletionResponse)
	if responseBody == nil || len(responseBody.Choices) == 0 {
		return ai.CompletionResponse{}, fmt.Errorf("empty response body or choices: %s", response.String())
	}
	slog.Default().Debug("openai completion",
		"model", responseBody.Model,
		"prompt_tokens", responseBody.Usage.PromptTokens,
		"completion_tokens", responseBody.Usage.CompletionTokens,
	)

	model := responseBody.Model
	if model == "" {
		model = req.Model
	}
	return ai.CompletionResponse{
		Text:         responseBody.Choices[0].Message.Content,
		Model:        model,
		InputTokens:  responseBody.Usage.PromptTokens,
		OutputTokens: responseBody.Usage.CompletionTokens,
	}, nil
}
