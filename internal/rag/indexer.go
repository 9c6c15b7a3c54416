package rag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/agencyhub/internal/ai"
	"github.com/starford/agencyhub/internal/models"
	"github.com/starford/agencyhub/internal/store"
)

const defaultBatchSize = 32

// Indexer rebuilds the embedded chunks of a framework.
type Indexer struct {
	db        *store.DB
	embedder  ai.Embedder
	chunker   Chunker
	batchSize int
}

func NewIndexer(db *store.DB, embedder ai.Embedder, chunker Chunker) *Indexer {
	return &Indexer{db: db, embedder: embedder, chunker: chunker, batchSize: defaultBatchSize}
}

// Index splits f.Content, embeds every chunk and replaces the stored chunk set.
// It returns the number of chunks written.
func (ix *Indexer) Index(ctx context.Context, f *models.Framework) (int, error) {
	texts := ix.chunker.Split(f.Content)
	chunks := make([]models.FrameworkChunk, 0, len(texts))
	for start := 0; start < len(texts); start += ix.batchSize {
		end := min(start+ix.batchSize, len(texts))
		vecs, err := ix.embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return 0, fmt.Errorf("rag: embed %s: %w", f.ID, err)
		}
		if len(vecs) != end-start {
			return 0, fmt.Errorf("rag: embed %s: got %d vectors for %d chunks", f.ID, len(vecs), end-start)
		}
		for i, v := range vecs {
			chunks = append(chunks, models.FrameworkChunk{
				ChunkIndex: start + i,
				Content:    texts[start+i],
				Embedding:  v,
			})
		}
	}
	if err := ix.db.ReplaceChunks(ctx, f.ID, chunks); err != nil {
		return 0, err
	}
	slog.Debug("framework indexed", slog.String("framework", f.ID), slog.Int("chunks", len(chunks)))
	return len(chunks), nil
}
