package openai

import (
	"context"
	"fmt"
	"sort"

	"github.com/starford/agencyhub/internal/ai"
)

var _ ai.Embedder = (*Embedder)(nil)

// Embedder produces vectors through the /embeddings endpoint.
type Embedder struct {
	client *Client
	model  string
	dims   int
}

func NewEmbedder(client *Client, model string, dims int) *Embedder {
	return &Embedder{client: client, model: model, dims: dims}
}

func (e *Embedder) Dimensions() int { return e.dims }

type EmbeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type EmbeddingResponse struct {
	Data  []EmbeddingData `json:"data"`
	Model string          `json:"model"`
	Usage Usage           `json:"usage"`
}

type EmbeddingData struct {
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}

// Embed returns one vector per input text, in input order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	var out [][]float32
	err := e.client.withRetry(ctx, func() error {
		vecs, err := e.embed(ctx, texts)
		if err != nil {
			return err
		}
		out = vecs
		return nil
	})
	return out, err
}

func (e *Embedder) embed(ctx context.Context, texts []string) ([][]float32, error) {
	response, err := e.client.httpClient.R().
		SetContext(ctx).
		SetBody(EmbeddingRequest{Model: e.model, Input: texts, Dimensions: e.dims}).
		SetResult(&EmbeddingResponse{}).
		Post("/embeddings")
	if err != nil {
		return nil, fmt.Errorf("httpClient.Post > %w", err)
	}
	if response.IsError() {
		return nil, fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
	}
	body := response.Result().(*EmbeddingResponse)
	if body == nil || len(body.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d: %s", len(texts), response.String())
	}
	sort.Slice(body.Data, func(i, j int) bool { return body.Data[i].Index < body.Data[j].Index })
	out := make([][]float32, len(body.Data))
	for i, d := range body.Data {
		if e.dims > 0 && len(d.Embedding) != e.dims {
			return nil, fmt.Errorf("embedding %d has %d dimensions, want %d", i, len(d.Embedding), e.dims)
		}
		out[i] = d.Embedding
	}
	return out, nil
}
