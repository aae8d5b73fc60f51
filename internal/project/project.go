// Package project defines the project registry: the mapping from a root
// path to its name, vector-store collection, and last indexing summary. The
// core consumes the registry through the Registry interface and does not own
// its storage format; the SQLite store provides the default implementation.
package project

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"time"

	"github.com/codescout/codescout/pkg/types"
)

// Project is an indexed source tree.
type Project struct {
	// Path is the absolute root path identifying the project.
	Path string `json:"path"`
	// Name is derived from the path's last segment.
	Name string `json:"name"`
	// CollectionID names the vector store collection, derived
	// deterministically from the path.
	CollectionID string `json:"collection_id"`

	LastIndexedAt time.Time           `json:"last_indexed_at,omitzero"`
	LastSummary   *types.IndexSummary `json:"last_summary,omitempty"`

	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// New builds a Project for a root path with its derived name and collection.
func New(path string) *Project {
	path = filepath.Clean(path)
	return &Project{
		Path:         path,
		Name:         filepath.Base(path),
		CollectionID: CollectionID(path),
	}
}

// CollectionID derives the stable collection identifier for a root path.
// Same path, same collection, always.
func CollectionID(path string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(path)))
	return "col_" + hex.EncodeToString(sum[:8])
}

// Registry persists the path -> project mapping. Get returns
// types.ErrUnknownProject for paths never saved.
type Registry interface {
	Save(ctx context.Context, p *Project) error
	Get(ctx context.Context, path string) (*Project, error)
	List(ctx context.Context) ([]*Project, error)
}
