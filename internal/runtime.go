package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/starford/agencyhub/internal/ai"
	"github.com/starford/agencyhub/internal/ai/gemini"
	"github.com/starford/agencyhub/internal/ai/openai"
	"github.com/starford/agencyhub/internal/api"
	"github.com/starford/agencyhub/internal/board"
	"github.com/starford/agencyhub/internal/clients"
	"github.com/starford/agencyhub/internal/content"
	"github.com/starford/agencyhub/internal/dashboard"
	"github.com/starford/agencyhub/internal/frameworks"
	"github.com/starford/agencyhub/internal/journal"
	"github.com/starford/agencyhub/internal/mcpserver"
	"github.com/starford/agencyhub/internal/rag"
	"github.com/starford/agencyhub/internal/search"
	"github.com/starford/agencyhub/internal/sse"
	"github.com/starford/agencyhub/internal/storage"
	"github.com/starford/agencyhub/internal/store"
	"github.com/starford/agencyhub/internal/studio"
)

// runtime owns the database, providers and services shared by every command.
type runtime struct {
	db      *store.DB
	closers []func() error

	clients    *clients.Service
	board      *board.Service
	content    *content.Service
	journal    *journal.Service
	frameworks *frameworks.Service
	studio     *studio.Service
	search     *search.Searcher
	dashboard  *dashboard.Service
}

func newRuntime(ctx context.Context, cfg *Config, notify sse.Notifier) (_ *runtime, err error) {
	rt := &runtime{}
	defer func() {
		if err != nil {
			_ = rt.Close()
		}
	}()

	if err := os.MkdirAll(filepath.Dir(cfg.SQLite.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}
	rt.db, err = store.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	rt.closers = append(rt.closers, rt.db.Close)

	if err := os.MkdirAll(cfg.Storage.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	blobs, err := storage.NewFS(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	registry, err := ai.NewRegistry(cfg.AI.Models, cfg.AI.Tiers)
	if err != nil {
		return nil, fmt.Errorf("init model registry: %w", err)
	}

	var (
		oc            *openai.Client
		gc            *gemini.Client
		docEmbedder   ai.Embedder
		queryEmbedder ai.Embedder
	)
	if cfg.AI.OpenAI.Enabled() {
		oc = openai.NewClient(cfg.AI.OpenAI.APIKey, cfg.AI.OpenAI.BaseURL, cfg.AI.RetryAttempts)
		rt.closers = append(rt.closers, oc.Close)
		registry.Register("openai", oc)
	}
	if cfg.AI.Gemini.Enabled() {
		gc, err = gemini.NewClient(ctx, cfg.AI.Gemini.APIKey, cfg.AI.Gemini.BaseURL)
		if err != nil {
			return nil, err
		}
		registry.Register("gemini", gc)
	}

	emb := cfg.AI.Embedding
	switch emb.Provider {
	case EmbeddingOpenAI:
		e := openai.NewEmbedder(oc, emb.Model, emb.Dimensions)
		docEmbedder, queryEmbedder = e, e
	case EmbeddingGemini:
		e := gemini.NewEmbedder(gc, emb.Model, emb.Dimensions)
		docEmbedder, queryEmbedder = e, e.ForQueries()
	}

	var (
		indexer   *rag.Indexer
		retriever *rag.Retriever
	)
	if docEmbedder != nil {
		indexer = rag.NewIndexer(rt.db, docEmbedder, rag.NewChunker(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap))
		retriever = rag.NewRetriever(rt.db, queryEmbedder, cfg.RAG.TopK, cfg.RAG.SimilarityThreshold)
	} else {
		slog.Warn("no embedding provider configured; framework retrieval is off")
	}

	signer := storage.NewSigner(cfg.Storage.SigningSecret, cfg.Storage.URLTTL)

	rt.clients = clients.NewService(rt.db, notify)
	rt.board = board.NewService(rt.db, notify)
	rt.content = content.NewService(rt.db, blobs, signer, notify, content.Config{MaxUploadBytes: cfg.Storage.MaxUploadBytes})
	rt.journal = journal.NewService(rt.db, notify)
	rt.frameworks = frameworks.NewService(rt.db, indexer, retriever, notify)
	rt.studio = studio.NewService(rt.db, registry, retriever, notify, studio.Config{
		DefaultMaxTokens:   cfg.AI.DefaultMaxTokens,
		DefaultTemperature: cfg.AI.DefaultTemperature,
	})
	rt.search = search.New(rt.db)
	rt.dashboard = dashboard.NewService(rt.db)
	return rt, nil
}

func (rt *runtime) apiServices() api.Services {
	return api.Services{
		Clients:    rt.clients,
		Board:      rt.board,
		Content:    rt.content,
		Journal:    rt.journal,
		Frameworks: rt.frameworks,
		Studio:     rt.studio,
		Search:     rt.search,
		Dashboard:  rt.dashboard,
	}
}

func (rt *runtime) mcpDeps() mcpserver.Deps {
	return mcpserver.Deps{
		Search:  rt.search,
		Journal: rt.journal,
		Board:   rt.board,
		Clients: rt.clients,
		Studio:  rt.studio,
		Content: rt.content,
	}
}

// Close releases resources in reverse order of acquisition.
func (rt *runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		errs = append(errs, rt.closers[i]())
	}
	rt.closers = nil
	return errors.Join(errs...)
}
