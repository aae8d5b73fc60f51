package index

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/codescout/codescout/internal/chunker"
	"github.com/codescout/codescout/internal/embedder"
	"github.com/codescout/codescout/internal/language"
	"github.com/codescout/codescout/internal/store"
	"github.com/codescout/codescout/internal/walker"
	"github.com/codescout/codescout/pkg/types"
)

const (
	// DefaultConcurrency bounds parallel embedding batches in flight.
	DefaultConcurrency = 4

	// maxErrorMessages caps per-file error messages kept in a summary.
	maxErrorMessages = 25

	// headLen is how many leading bytes feed language detection.
	headLen = 256
)

// Config tunes a pipeline.
type Config struct {
	// BatchSize is how many chunks are embedded per provider call.
	BatchSize int
	// Concurrency bounds embedding batches in flight.
	Concurrency int
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = embedder.DefaultBatchSize
	}
	if c.BatchSize > embedder.MaxBatchSize {
		c.BatchSize = embedder.MaxBatchSize
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	return c
}

// Pipeline wires the walker, chunker, embedder, and vector store into a
// single indexing flow.
type Pipeline struct {
	walker  *walker.Walker
	chunker *chunker.Chunker
	emb     embedder.Embedder
	store   store.VectorStore
	cfg     Config
	locks   *collectionLocks
	states  *stateTracker
	logger  *zap.Logger
}

// New creates a Pipeline.
func New(w *walker.Walker, c *chunker.Chunker, emb embedder.Embedder, vs store.VectorStore, cfg Config, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		walker:  w,
		chunker: c,
		emb:     emb,
		store:   vs,
		cfg:     cfg.withDefaults(),
		locks:   newCollectionLocks(),
		states:  newStateTracker(),
		logger:  logger,
	}
}

// State reports the current run phase of a collection. Collections with no
// run in progress (or whose last run completed) report StateIdle; a failed
// last run reports StateFailed until the next run starts.
func (p *Pipeline) State(collectionID string) State {
	return p.states.get(collectionID)
}

// run tracks the mutable state of one indexing run. Counters touched from
// embedding goroutines go through mu; everything else is written only from
// the walk goroutine.
type run struct {
	rootPath     string
	collectionID string
	existing     map[string]string   // fingerprint -> file path, pre-run
	seen         map[string]struct{} // fingerprints produced this run
	pending      []types.Chunk
	summary      *types.IndexSummary

	mu sync.Mutex
}

func (r *run) recordError(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.summary.Errors) < maxErrorMessages {
		r.summary.Errors = append(r.summary.Errors, msg)
	}
}

func (r *run) addCreated(n int) {
	r.mu.Lock()
	r.summary.ChunksCreated += n
	r.mu.Unlock()
}

func (r *run) addSkippedChunks(n int) {
	r.mu.Lock()
	r.summary.ChunksSkipped += n
	r.mu.Unlock()
}

// Run indexes the tree at rootPath into collectionID and returns a summary.
// Re-running against an unchanged tree embeds nothing and deletes nothing.
// A concurrent run against the same collection fails with
// types.ErrIndexInProgress.
func (p *Pipeline) Run(ctx context.Context, rootPath, collectionID string) (*types.IndexSummary, error) {
	if !p.locks.TryLock(collectionID) {
		return nil, fmt.Errorf("%w: collection %s", types.ErrIndexInProgress, collectionID)
	}
	defer p.locks.Unlock(collectionID)

	summary, err := p.runLocked(ctx, rootPath, collectionID)
	if err != nil {
		p.states.set(collectionID, StateFailed)
		return nil, err
	}
	p.states.set(collectionID, StateIdle)
	return summary, nil
}

func (p *Pipeline) runLocked(ctx context.Context, rootPath, collectionID string) (*types.IndexSummary, error) {
	p.states.set(collectionID, StateWalking)

	if err := p.store.EnsureCollection(ctx, collectionID); err != nil {
		return nil, err
	}
	existing, err := p.store.ListFingerprints(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	started := time.Now().UTC()
	r := &run{
		rootPath:     rootPath,
		collectionID: collectionID,
		existing:     existing,
		seen:         make(map[string]struct{}),
		summary: &types.IndexSummary{
			RunID:     uuid.New().String(),
			RootPath:  rootPath,
			StartedAt: started,
		},
	}

	p.logger.Info("indexing run started",
		zap.String("run_id", r.summary.RunID),
		zap.String("root", rootPath),
		zap.String("collection", collectionID),
		zap.Int("existing_chunks", len(existing)))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.cfg.Concurrency)

	walkErr := p.walker.Walk(ctx, rootPath,
		func(path string, info fs.FileInfo) error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			p.visitFile(groupCtx, group, r, path)
			return nil
		},
		func(path, reason string) {
			rel := relativePath(rootPath, path)
			r.summary.FilesSkipped++
			r.summary.Skipped = append(r.summary.Skipped, types.SkippedFile{Path: rel, Reason: reason})
		})

	// Flush whatever is buffered even on walk failure so partial progress
	// is persisted, then wait for in-flight batches.
	p.states.set(collectionID, StateEmbedding)
	p.flush(groupCtx, group, r)
	embedErr := group.Wait()

	// A store failure cancels groupCtx, which also makes the walk return
	// context.Canceled; report the underlying cause first.
	if embedErr != nil {
		return nil, embedErr
	}
	if walkErr != nil {
		return nil, walkErr
	}

	p.states.set(collectionID, StatePersisting)

	// Stale records: stored fingerprints the tree no longer produces.
	var stale []string
	for fp := range r.existing {
		if _, ok := r.seen[fp]; !ok {
			stale = append(stale, fp)
		}
	}
	if len(stale) > 0 {
		deleted, err := p.store.Delete(ctx, collectionID, stale)
		if err != nil {
			return nil, err
		}
		r.summary.ChunksDeleted = deleted
	}

	r.summary.CompletedAt = time.Now().UTC()
	r.summary.Duration = r.summary.CompletedAt.Sub(r.summary.StartedAt)

	p.logger.Info("indexing run completed",
		zap.String("run_id", r.summary.RunID),
		zap.Int("files_scanned", r.summary.FilesScanned),
		zap.Int("files_skipped", r.summary.FilesSkipped),
		zap.Int("chunks_created", r.summary.ChunksCreated),
		zap.Int("chunks_unchanged", r.summary.ChunksUnchanged),
		zap.Int("chunks_deleted", r.summary.ChunksDeleted),
		zap.Int("chunks_skipped", r.summary.ChunksSkipped),
		zap.Duration("duration", r.summary.Duration))

	return r.summary, nil
}

// visitFile reads, classifies, and chunks one file, queueing new chunks for
// embedding. File-level failures are recorded and do not stop the run.
func (p *Pipeline) visitFile(ctx context.Context, group *errgroup.Group, r *run, path string) {
	rel := relativePath(r.rootPath, path)

	data, err := os.ReadFile(path)
	if err != nil {
		reason := types.SkipReasonReadError
		if os.IsPermission(err) {
			reason = types.SkipReasonPermission
		}
		r.summary.FilesSkipped++
		r.summary.Skipped = append(r.summary.Skipped, types.SkippedFile{Path: rel, Reason: reason})
		p.logger.Warn("skipping unreadable file", zap.String("path", rel), zap.Error(err))
		return
	}

	head := data
	if len(head) > headLen {
		head = head[:headLen]
	}
	lang := language.Detect(path, head)

	chunks := p.chunker.ChunkText(rel, lang, string(data))
	if len(chunks) == 0 {
		r.summary.FilesSkipped++
		r.summary.Skipped = append(r.summary.Skipped, types.SkippedFile{Path: rel, Reason: types.SkipReasonEmpty})
		return
	}

	r.summary.FilesScanned++

	for _, chunk := range chunks {
		r.seen[chunk.Fingerprint] = struct{}{}
		if _, ok := r.existing[chunk.Fingerprint]; ok {
			r.summary.ChunksUnchanged++
			continue
		}
		r.pending = append(r.pending, chunk)
		if len(r.pending) >= p.cfg.BatchSize {
			p.flush(ctx, group, r)
		}
	}
}

// flush hands the buffered chunks to an embedding goroutine and resets the
// buffer. Called only from the walk goroutine.
func (p *Pipeline) flush(ctx context.Context, group *errgroup.Group, r *run) {
	if len(r.pending) == 0 {
		return
	}
	batch := r.pending
	r.pending = nil

	group.Go(func() error {
		return p.embedBatch(ctx, r, batch)
	})
}

// embedBatch embeds one batch and upserts the resulting records. When the
// batch embed fails the chunks are retried one at a time so a single bad
// chunk is skipped rather than the whole batch. Store failures abort the
// run: returning the error cancels the group and leaves committed records
// untouched.
func (p *Pipeline) embedBatch(ctx context.Context, r *run, batch []types.Chunk) error {
	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = chunk.Text
	}

	vectors, err := p.emb.EmbedBatch(ctx, texts)
	if err != nil {
		p.logger.Warn("embedding batch failed, retrying chunks individually",
			zap.Int("batch_size", len(batch)),
			zap.String("first_file", batch[0].FilePath),
			zap.Error(err))
		return p.embedChunks(ctx, r, batch)
	}

	if err := p.upsertChunks(ctx, r, batch, vectors); err != nil {
		return err
	}
	r.addCreated(len(batch))
	return nil
}

// embedChunks embeds chunks one at a time. Chunks the provider still
// rejects are skipped and counted; store failures remain fatal.
func (p *Pipeline) embedChunks(ctx context.Context, r *run, batch []types.Chunk) error {
	for _, chunk := range batch {
		vectors, err := p.emb.EmbedBatch(ctx, []string{chunk.Text})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.addSkippedChunks(1)
			r.recordError(fmt.Sprintf("embed %s:%d: %v", chunk.FilePath, chunk.StartLine, err))
			p.logger.Warn("skipping chunk after embed failure",
				zap.String("file", chunk.FilePath),
				zap.Int("start_line", chunk.StartLine),
				zap.Error(err))
			continue
		}
		if err := p.upsertChunks(ctx, r, []types.Chunk{chunk}, vectors); err != nil {
			return err
		}
		r.addCreated(1)
	}
	return nil
}

func (p *Pipeline) upsertChunks(ctx context.Context, r *run, batch []types.Chunk, vectors [][]float32) error {
	now := time.Now().UTC()
	records := make([]store.Record, len(batch))
	for i, chunk := range batch {
		records[i] = store.Record{
			Fingerprint: chunk.Fingerprint,
			Vector:      vectors[i],
			FilePath:    chunk.FilePath,
			Language:    chunk.Language,
			StartLine:   chunk.StartLine,
			EndLine:     chunk.EndLine,
			Content:     chunk.Text,
			Oversized:   chunk.Oversized,
			Provider:    p.emb.Provider(),
			Model:       p.emb.Model(),
			IndexedAt:   now,
		}
	}
	return p.store.Upsert(ctx, r.collectionID, records)
}

// relativePath rewrites an absolute file path relative to the project root.
// Falls back to the input when Rel fails (distinct volumes).
func relativePath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
