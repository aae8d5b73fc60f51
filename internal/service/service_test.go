package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codescout/codescout/internal/chunker"
	"github.com/codescout/codescout/internal/embedder"
	"github.com/codescout/codescout/internal/index"
	"github.com/codescout/codescout/internal/search"
	"github.com/codescout/codescout/internal/store"
	"github.com/codescout/codescout/internal/walker"
	"github.com/codescout/codescout/pkg/types"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st, err := store.NewSQLiteStore(context.Background(), store.Options{
		Path: filepath.Join(t.TempDir(), "svc.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	emb := embedder.NewLocalProvider(embedder.NewCache(100))
	w := walker.New(walker.Config{Extensions: []string{".py", ".go"}}, nil)
	ch := chunker.New(chunker.Config{})
	pipeline := index.New(w, ch, emb, st, index.Config{}, nil)
	engine := search.New(emb, st, search.Config{}, nil)

	return New(st, pipeline, engine, nil)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestRegisterProject(t *testing.T) {
	svc := newTestService(t)
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "def fetch_user(id):\n    return db.get(id)\n")

	p, err := svc.RegisterProject(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Base(dir), p.Name)
	require.NotNil(t, p.LastSummary)
	assert.Equal(t, 1, p.LastSummary.ChunksCreated)
	assert.False(t, p.LastIndexedAt.IsZero())

	// Registration makes the project active.
	active := svc.ActiveProject()
	require.NotNil(t, active)
	assert.Equal(t, p.Path, active.Path)
}

func TestRegisterProjectMissingPath(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.RegisterProject(context.Background(), "/does/not/exist")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestRegisterProjectFileNotDir(t *testing.T) {
	svc := newTestService(t)
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "pass")

	_, err := svc.RegisterProject(context.Background(), filepath.Join(dir, "a.py"))
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestReRegisterIsIncremental(t *testing.T) {
	svc := newTestService(t)
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "def a():\n    return 1\n")

	first, err := svc.RegisterProject(context.Background(), dir)
	require.NoError(t, err)

	second, err := svc.RegisterProject(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, first.CollectionID, second.CollectionID)
	assert.True(t, second.LastSummary.Clean())
	assert.Equal(t, 1, second.LastSummary.ChunksUnchanged)
}

func TestSetActiveProject(t *testing.T) {
	svc := newTestService(t)
	a, b := t.TempDir(), t.TempDir()
	writeFile(t, a, "a.py", "def alpha_only():\n    return 'alpha'\n")
	writeFile(t, b, "b.py", "def beta_only():\n    return 'beta'\n")

	_, err := svc.RegisterProject(context.Background(), a)
	require.NoError(t, err)
	_, err = svc.RegisterProject(context.Background(), b)
	require.NoError(t, err)

	// b is active after registration; switch back to a.
	p, err := svc.SetActiveProject(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean(a), p.Path)

	results, err := svc.Search(context.Background(), "alpha only", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "a.py", results[0].Chunk.FilePath)
}

func TestSetActiveProjectUnknown(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.SetActiveProject(context.Background(), "/never/registered")
	assert.ErrorIs(t, err, types.ErrUnknownProject)
}

func TestSearchWithoutActiveProject(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Search(context.Background(), "anything", 5)
	assert.ErrorIs(t, err, types.ErrNoActiveProject)
}

func TestSearchScopedToActiveProject(t *testing.T) {
	svc := newTestService(t)
	a, b := t.TempDir(), t.TempDir()
	writeFile(t, a, "a.py", "def connect_database():\n    pass\n")
	writeFile(t, b, "b.py", "def render_template():\n    pass\n")

	_, err := svc.RegisterProject(context.Background(), a)
	require.NoError(t, err)
	_, err = svc.RegisterProject(context.Background(), b)
	require.NoError(t, err)

	// Active project is b: a's chunks never appear.
	results, err := svc.Search(context.Background(), "connect database", 10)
	require.NoError(t, err)
	for _, r := range results {
		assert.Equal(t, "b.py", r.Chunk.FilePath)
	}
}

func TestSearchProjectWithoutActivation(t *testing.T) {
	svc := newTestService(t)
	a, b := t.TempDir(), t.TempDir()
	writeFile(t, a, "a.py", "def target():\n    pass\n")
	writeFile(t, b, "b.py", "def other():\n    pass\n")

	_, err := svc.RegisterProject(context.Background(), a)
	require.NoError(t, err)
	_, err = svc.RegisterProject(context.Background(), b)
	require.NoError(t, err)

	results, err := svc.SearchProject(context.Background(), a, "target", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "a.py", results[0].Chunk.FilePath)

	// Active selection is untouched.
	assert.Equal(t, filepath.Clean(b), svc.ActiveProject().Path)
}

func TestListProjects(t *testing.T) {
	svc := newTestService(t)

	list, err := svc.ListProjects(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)

	dir := t.TempDir()
	writeFile(t, dir, "a.py", "x = 1\n")
	_, err = svc.RegisterProject(context.Background(), dir)
	require.NoError(t, err)

	list, err = svc.ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotNil(t, list[0].LastSummary)
}
