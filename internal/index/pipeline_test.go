package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codescout/codescout/internal/chunker"
	"github.com/codescout/codescout/internal/embedder"
	"github.com/codescout/codescout/internal/project"
	"github.com/codescout/codescout/internal/store"
	"github.com/codescout/codescout/internal/walker"
	"github.com/codescout/codescout/pkg/types"
)

func newTestPipeline(t *testing.T) (*Pipeline, *store.SQLiteStore) {
	t.Helper()
	st := newTestStore(t)
	emb := embedder.NewLocalProvider(embedder.NewCache(100))
	return newPipelineWith(t, st, emb), st
}

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLiteStore(context.Background(), store.Options{
		Path: filepath.Join(t.TempDir(), "index.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newPipelineWith(t *testing.T, vs store.VectorStore, emb embedder.Embedder) *Pipeline {
	t.Helper()
	w := walker.New(walker.Config{
		Extensions: []string{".go", ".py"},
		IgnoreDirs: []string{".git", "node_modules"},
	}, nil)
	ch := chunker.New(chunker.Config{})
	return New(w, ch, emb, vs, Config{BatchSize: 2, Concurrency: 2}, nil)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRunIndexesTree(t *testing.T) {
	p, st := newTestPipeline(t)
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "def a():\n    return 1\n")
	writeFile(t, dir, "b.py", "def b():\n    return 2\n")

	col := project.CollectionID(dir)
	sum, err := p.Run(context.Background(), dir, col)
	require.NoError(t, err)

	assert.Equal(t, 2, sum.FilesScanned)
	assert.Equal(t, 0, sum.FilesSkipped)
	assert.Equal(t, 2, sum.ChunksCreated)
	assert.Zero(t, sum.ChunksUnchanged)
	assert.Zero(t, sum.ChunksDeleted)
	assert.NotEmpty(t, sum.RunID)
	assert.False(t, sum.CompletedAt.Before(sum.StartedAt))

	fps, err := st.ListFingerprints(context.Background(), col)
	require.NoError(t, err)
	assert.Len(t, fps, 2)
}

func TestRunIdempotent(t *testing.T) {
	p, _ := newTestPipeline(t)
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "def a():\n    return 1\n")

	col := project.CollectionID(dir)
	first, err := p.Run(context.Background(), dir, col)
	require.NoError(t, err)
	require.Equal(t, 1, first.ChunksCreated)

	second, err := p.Run(context.Background(), dir, col)
	require.NoError(t, err)

	assert.True(t, second.Clean())
	assert.Equal(t, 1, second.ChunksUnchanged)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRunDetectsChange(t *testing.T) {
	p, st := newTestPipeline(t)
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "def a():\n    return 1\n")
	writeFile(t, dir, "b.py", "def b():\n    return 2\n")

	col := project.CollectionID(dir)
	_, err := p.Run(context.Background(), dir, col)
	require.NoError(t, err)

	// Edit one file; the other must not be re-embedded or deleted.
	writeFile(t, dir, "a.py", "def a():\n    return 42\n")

	sum, err := p.Run(context.Background(), dir, col)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.ChunksCreated)
	assert.Equal(t, 1, sum.ChunksUnchanged)
	assert.Equal(t, 1, sum.ChunksDeleted)

	fps, err := st.ListFingerprints(context.Background(), col)
	require.NoError(t, err)
	assert.Len(t, fps, 2)
}

func TestRunDeletesRemovedFile(t *testing.T) {
	p, st := newTestPipeline(t)
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "def a():\n    return 1\n")
	writeFile(t, dir, "b.py", "def b():\n    return 2\n")

	col := project.CollectionID(dir)
	_, err := p.Run(context.Background(), dir, col)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "b.py")))

	sum, err := p.Run(context.Background(), dir, col)
	require.NoError(t, err)

	assert.Zero(t, sum.ChunksCreated)
	assert.Equal(t, 1, sum.ChunksDeleted)

	fps, err := st.ListFingerprints(context.Background(), col)
	require.NoError(t, err)
	require.Len(t, fps, 1)
	for _, path := range fps {
		assert.Equal(t, "a.py", path)
	}
}

func TestRunSkipsEmptyFile(t *testing.T) {
	p, _ := newTestPipeline(t)
	dir := t.TempDir()
	writeFile(t, dir, "empty.py", "")
	writeFile(t, dir, "blank.py", "\n\n  \n")
	writeFile(t, dir, "real.py", "def f():\n    return 0\n")

	sum, err := p.Run(context.Background(), dir, project.CollectionID(dir))
	require.NoError(t, err)

	assert.Equal(t, 1, sum.ChunksCreated)
	assert.Equal(t, 2, sum.FilesSkipped)
	// Empty files count as skipped only, not scanned.
	assert.Equal(t, 1, sum.FilesScanned)
	reasons := make(map[string]string)
	for _, s := range sum.Skipped {
		reasons[s.Path] = s.Reason
	}
	assert.Equal(t, "empty", reasons["empty.py"])
	assert.Equal(t, "empty", reasons["blank.py"])
}

// failingStore delegates to a real store but fails every Upsert on demand.
type failingStore struct {
	store.VectorStore
	failUpserts bool
}

func (f *failingStore) Upsert(ctx context.Context, collectionID string, records []store.Record) error {
	if f.failUpserts {
		return fmt.Errorf("%w: upsert: disk I/O error", types.ErrStoreConnection)
	}
	return f.VectorStore.Upsert(ctx, collectionID, records)
}

func TestRunAbortsOnStoreFailure(t *testing.T) {
	st := newTestStore(t)
	fs := &failingStore{VectorStore: st}
	p := newPipelineWith(t, fs, embedder.NewLocalProvider(embedder.NewCache(100)))

	dir := t.TempDir()
	writeFile(t, dir, "a.py", "def a():\n    return 1\n")

	col := project.CollectionID(dir)
	_, err := p.Run(context.Background(), dir, col)
	require.NoError(t, err)

	// Edit the file, then fail every upsert. The run must report the store
	// failure and must not sweep the committed record as stale.
	writeFile(t, dir, "a.py", "def a():\n    return 42\n")
	fs.failUpserts = true

	_, err = p.Run(context.Background(), dir, col)
	assert.ErrorIs(t, err, types.ErrStoreConnection)
	assert.Equal(t, StateFailed, p.State(col))

	fps, err := st.ListFingerprints(context.Background(), col)
	require.NoError(t, err)
	assert.Len(t, fps, 1)
}

// rejectingEmbedder delegates to a real provider but fails any call whose
// input contains the marker text, batch or single.
type rejectingEmbedder struct {
	embedder.Embedder
	marker string
}

func (r *rejectingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	for _, text := range texts {
		if strings.Contains(text, r.marker) {
			return nil, fmt.Errorf("%w: input rejected by provider", types.ErrEmbedding)
		}
	}
	return r.Embedder.EmbedBatch(ctx, texts)
}

func TestRunSkipsOnlyRejectedChunk(t *testing.T) {
	st := newTestStore(t)
	emb := &rejectingEmbedder{
		Embedder: embedder.NewLocalProvider(embedder.NewCache(100)),
		marker:   "unembeddable",
	}
	p := newPipelineWith(t, st, emb)

	dir := t.TempDir()
	writeFile(t, dir, "good.py", "def good():\n    return 1\n")
	writeFile(t, dir, "bad.py", "def unembeddable():\n    return 2\n")

	col := project.CollectionID(dir)
	sum, err := p.Run(context.Background(), dir, col)
	require.NoError(t, err)

	// The batch fails, the retry drops only the rejected chunk.
	assert.Equal(t, 1, sum.ChunksCreated)
	assert.Equal(t, 1, sum.ChunksSkipped)
	require.Len(t, sum.Errors, 1)
	assert.Contains(t, sum.Errors[0], "bad.py")

	fps, err := st.ListFingerprints(context.Background(), col)
	require.NoError(t, err)
	require.Len(t, fps, 1)
	for _, path := range fps {
		assert.Equal(t, "good.py", path)
	}
}

func TestRunMissingRoot(t *testing.T) {
	p, _ := newTestPipeline(t)

	_, err := p.Run(context.Background(), "/does/not/exist", "col_x")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestRunRejectsConcurrentRun(t *testing.T) {
	p, _ := newTestPipeline(t)

	require.True(t, p.locks.TryLock("col_busy"))
	defer p.locks.Unlock("col_busy")

	dir := t.TempDir()
	writeFile(t, dir, "a.py", "def a(): pass\n")

	_, err := p.Run(context.Background(), dir, "col_busy")
	assert.ErrorIs(t, err, types.ErrIndexInProgress)
}

func TestRunReleasesLock(t *testing.T) {
	p, _ := newTestPipeline(t)
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "def a(): pass\n")

	col := project.CollectionID(dir)
	_, err := p.Run(context.Background(), dir, col)
	require.NoError(t, err)

	// The lock must be free for the next run.
	assert.True(t, p.locks.TryLock(col))
	p.locks.Unlock(col)
}

func TestStateTransitions(t *testing.T) {
	p, _ := newTestPipeline(t)
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "def a(): pass\n")

	col := project.CollectionID(dir)
	assert.Equal(t, StateIdle, p.State(col))

	_, err := p.Run(context.Background(), dir, col)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, p.State(col))

	_, err = p.Run(context.Background(), "/does/not/exist", col)
	require.Error(t, err)
	assert.Equal(t, StateFailed, p.State(col))
}

func TestCollectionLocks(t *testing.T) {
	locks := newCollectionLocks()

	assert.True(t, locks.TryLock("a"))
	assert.False(t, locks.TryLock("a"))
	assert.True(t, locks.TryLock("b"))

	locks.Unlock("a")
	assert.True(t, locks.TryLock("a"))
}

func TestCollectionLocksConcurrent(t *testing.T) {
	locks := newCollectionLocks()

	var wg sync.WaitGroup
	wins := make(chan bool, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wins <- locks.TryLock("shared")
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for w := range wins {
		if w {
			won++
		}
	}
	assert.Equal(t, 1, won)
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, embedder.DefaultBatchSize, cfg.BatchSize)
	assert.Equal(t, DefaultConcurrency, cfg.Concurrency)

	capped := Config{BatchSize: 10000}.withDefaults()
	assert.Equal(t, embedder.MaxBatchSize, capped.BatchSize)
}
