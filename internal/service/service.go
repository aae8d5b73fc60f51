// Package service exposes the project-level operations behind the CLI and
// MCP surfaces: register (index) a project, select the active one, list
// what is registered, and search. The active project is per Service
// instance; two instances sharing a database do not share a selection.
package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/codescout/codescout/internal/index"
	"github.com/codescout/codescout/internal/project"
	"github.com/codescout/codescout/internal/search"
	"github.com/codescout/codescout/pkg/types"
)

// Service coordinates the registry, the indexing pipeline, and the search
// engine.
type Service struct {
	registry project.Registry
	pipeline *index.Pipeline
	engine   *search.Engine
	logger   *zap.Logger

	mu     sync.RWMutex
	active *project.Project
}

// New creates a Service.
func New(registry project.Registry, pipeline *index.Pipeline, engine *search.Engine, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		registry: registry,
		pipeline: pipeline,
		engine:   engine,
		logger:   logger,
	}
}

// RegisterProject indexes the tree at path and records it in the registry.
// The path must exist and be a directory. Registering an already-registered
// path re-indexes it into the same collection. The newly registered project
// becomes the active one.
func (s *Service) RegisterProject(ctx context.Context, path string) (*project.Project, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %s: %v", types.ErrNotFound, path, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", types.ErrPermission, abs)
		}
		return nil, fmt.Errorf("%w: %s", types.ErrNotFound, abs)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", types.ErrNotFound, abs)
	}

	p := project.New(abs)

	summary, err := s.pipeline.Run(ctx, p.Path, p.CollectionID)
	if err != nil {
		return nil, err
	}

	p.LastIndexedAt = summary.CompletedAt
	p.LastSummary = summary
	if err := s.registry.Save(ctx, p); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.active = p
	s.mu.Unlock()

	s.logger.Info("project registered",
		zap.String("path", p.Path),
		zap.String("collection", p.CollectionID),
		zap.Int("chunks_created", summary.ChunksCreated))

	return p, nil
}

// SetActiveProject selects a previously registered project by path. Paths
// never registered fail with types.ErrUnknownProject.
func (s *Service) SetActiveProject(ctx context.Context, path string) (*project.Project, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownProject, path)
	}

	p, err := s.registry.Get(ctx, filepath.Clean(abs))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.active = p
	s.mu.Unlock()

	s.logger.Info("active project set", zap.String("path", p.Path))
	return p, nil
}

// ActiveProject returns the current selection, or nil when none is set.
func (s *Service) ActiveProject() *project.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// ListProjects returns all registered projects ordered by path.
func (s *Service) ListProjects(ctx context.Context) ([]*project.Project, error) {
	return s.registry.List(ctx)
}

// Search ranks the active project's chunks against query. Fails with
// types.ErrNoActiveProject when no project has been selected.
func (s *Service) Search(ctx context.Context, query string, k int) ([]types.Result, error) {
	s.mu.RLock()
	active := s.active
	s.mu.RUnlock()

	if active == nil {
		return nil, types.ErrNoActiveProject
	}

	started := time.Now()
	results, err := s.engine.Search(ctx, active.CollectionID, query, k)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("search served",
		zap.String("project", active.Path),
		zap.Int("results", len(results)),
		zap.Duration("elapsed", time.Since(started)))

	return results, nil
}

// SearchProject ranks a specific registered project's chunks against query
// without changing the active selection.
func (s *Service) SearchProject(ctx context.Context, path, query string, k int) ([]types.Result, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownProject, path)
	}
	p, err := s.registry.Get(ctx, filepath.Clean(abs))
	if err != nil {
		return nil, err
	}
	return s.engine.Search(ctx, p.CollectionID, query, k)
}
