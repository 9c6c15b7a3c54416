package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/agencyhub/internal/ai"
	"github.com/starford/agencyhub/internal/models"
	"github.com/starford/agencyhub/internal/store"
)

// Retriever finds the framework chunks most similar to a query.
type Retriever struct {
	db        *store.DB
	embedder  ai.Embedder
	topK      int
	threshold float64
}

// NewRetriever uses topK and threshold when a Query leaves them unset.
func NewRetriever(db *store.DB, embedder ai.Embedder, topK int, threshold float64) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	return &Retriever{db: db, embedder: embedder, topK: topK, threshold: threshold}
}

// Query parameters. K <= 0 and a nil Threshold fall back to the defaults.
type Query struct {
	Text      string
	K         int
	Threshold *float64
}

// Retrieve embeds q.Text and returns up to K chunks whose cosine similarity is
// at least Threshold, most similar first.
func (r *Retriever) Retrieve(ctx context.Context, q Query) ([]models.ChunkMatch, error) {
	if strings.TrimSpace(q.Text) == "" {
		return []models.ChunkMatch{}, nil
	}
	k := q.K
	if k <= 0 {
		k = r.topK
	}
	threshold := r.threshold
	if q.Threshold != nil {
		threshold = *q.Threshold
	}

	vecs, err := r.embedder.Embed(ctx, []string{q.Text})
	if err != nil {
		return nil, fmt.Errorf("rag: embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("rag: embed query: got %d vectors", len(vecs))
	}
	matches, err := r.db.NearestChunks(ctx, vecs[0], k)
	if err != nil {
		return nil, err
	}
	out := matches[:0]
	for _, m := range matches {
		if m.Similarity >= threshold {
			out = append(out, m)
		}
	}
	return out, nil
}
