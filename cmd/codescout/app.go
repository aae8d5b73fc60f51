package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/codescout/codescout/internal/chunker"
	"github.com/codescout/codescout/internal/config"
	"github.com/codescout/codescout/internal/embedder"
	"github.com/codescout/codescout/internal/index"
	"github.com/codescout/codescout/internal/search"
	"github.com/codescout/codescout/internal/service"
	"github.com/codescout/codescout/internal/store"
	"github.com/codescout/codescout/internal/walker"
)

// app holds the wired application components behind each CLI command.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.SQLiteStore
	emb    embedder.Embedder
	svc    *service.Service
}

// newApp wires walker, chunker, embedder, store, pipeline, engine, and
// service from configuration.
func newApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	st, err := store.NewSQLiteStore(context.Background(), store.Options{
		Path:   cfg.Store.Path,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	emb, err := embedder.New(embedder.Config{
		Provider:  cfg.Embedder.Provider,
		APIKey:    cfg.Embedder.APIKey,
		BaseURL:   cfg.Embedder.BaseURL,
		Model:     cfg.Embedder.Model,
		CacheSize: cfg.Embedder.CacheSize,
		Timeout:   time.Duration(cfg.Embedder.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		st.Close()
		return nil, err
	}

	w := walker.New(walker.Config{
		IgnoreDirs:   cfg.Walker.IgnoreDirs,
		Extensions:   cfg.Walker.Extensions,
		MaxFileBytes: cfg.Walker.MaxFileBytes,
	}, logger)

	ch := chunker.New(chunker.Config{
		WindowLines:   cfg.Chunker.WindowLines,
		OverlapLines:  cfg.Chunker.OverlapLines,
		MaxChunkBytes: cfg.Chunker.MaxChunkBytes,
	})

	pipeline := index.New(w, ch, emb, st, index.Config{
		BatchSize:   cfg.Embedder.BatchSize,
		Concurrency: cfg.Embedder.Concurrency,
	}, logger)

	engine := search.New(emb, st, search.Config{
		DefaultLimit: cfg.Search.DefaultLimit,
		MaxLimit:     cfg.Search.MaxLimit,
	}, logger)

	svc := service.New(st, pipeline, engine, logger)

	return &app{
		cfg:    cfg,
		logger: logger,
		store:  st,
		emb:    emb,
		svc:    svc,
	}, nil
}

// Close releases the embedder and store.
func (a *app) Close() {
	if err := a.emb.Close(); err != nil {
		a.logger.Warn("closing embedder", zap.Error(err))
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing store", zap.Error(err))
	}
	_ = a.logger.Sync()
}
