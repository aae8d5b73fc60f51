package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/codescout/codescout/internal/project"
	"github.com/codescout/codescout/pkg/types"
)

// SQLiteStore implements VectorStore and project.Registry on a single SQLite
// database file. Vectors live as little-endian float32 blobs and similarity
// is computed in Go at query time, which keeps the store dependency-free of
// any vector extension and works with both the cgo and pure-Go drivers.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// Options configures the SQLite store.
type Options struct {
	// Path is the database file path. The parent directory is created if
	// missing.
	Path string

	Logger *zap.Logger
}

// NewSQLiteStore opens (or creates) the database and applies pending
// migrations.
func NewSQLiteStore(ctx context.Context, opts Options) (*SQLiteStore, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("%w: database path is required", types.ErrStoreConnection)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create database directory: %v", types.ErrStoreConnection, err)
	}

	db, err := openDatabase(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", types.ErrStoreConnection, opts.Path, err)
	}

	if err := ApplyMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: migrate %s: %v", types.ErrStoreConnection, opts.Path, err)
	}

	logger.Debug("opened vector store",
		zap.String("path", opts.Path),
		zap.String("driver", DriverName),
		zap.String("build", BuildMode))

	return &SQLiteStore{db: db, path: opts.Path, logger: logger}, nil
}

// openDatabase opens the file with WAL journaling and foreign keys enabled.
// A single connection serializes writers; readers share it, which is plenty
// for a local index.
func openDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec %q: %w", pragma, err)
		}
	}
	return db, nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// EnsureCollection creates the collection row if it does not exist.
func (s *SQLiteStore) EnsureCollection(ctx context.Context, collectionID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO collections (id) VALUES (?) ON CONFLICT(id) DO NOTHING",
		collectionID)
	if err != nil {
		return fmt.Errorf("%w: ensure collection %s: %v", types.ErrStoreConnection, collectionID, err)
	}
	return nil
}

// collectionExists reports whether the collection row is present.
func (s *SQLiteStore) collectionExists(ctx context.Context, collectionID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM collections WHERE id = ?", collectionID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: check collection %s: %v", types.ErrStoreConnection, collectionID, err)
	}
	return true, nil
}

// Upsert inserts or replaces records keyed by (collection, fingerprint).
func (s *SQLiteStore) Upsert(ctx context.Context, collectionID string, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	exists, err := s.collectionExists(ctx, collectionID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", types.ErrCollectionNotFound, collectionID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin upsert: %v", types.ErrStoreConnection, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (
			collection_id, fingerprint, vector, dimension,
			file_path, language, start_line, end_line, content, oversized,
			provider, model, indexed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection_id, fingerprint) DO UPDATE SET
			vector = excluded.vector,
			dimension = excluded.dimension,
			file_path = excluded.file_path,
			language = excluded.language,
			start_line = excluded.start_line,
			end_line = excluded.end_line,
			content = excluded.content,
			oversized = excluded.oversized,
			provider = excluded.provider,
			model = excluded.model,
			indexed_at = excluded.indexed_at`)
	if err != nil {
		return fmt.Errorf("%w: prepare upsert: %v", types.ErrStoreConnection, err)
	}
	defer stmt.Close()

	for _, rec := range records {
		indexedAt := rec.IndexedAt
		if indexedAt.IsZero() {
			indexedAt = time.Now().UTC()
		}
		_, err := stmt.ExecContext(ctx,
			collectionID, rec.Fingerprint, serializeVector(rec.Vector), len(rec.Vector),
			rec.FilePath, rec.Language, rec.StartLine, rec.EndLine, rec.Content, rec.Oversized,
			rec.Provider, rec.Model, indexedAt)
		if err != nil {
			return fmt.Errorf("%w: upsert %s: %v", types.ErrStoreConnection, rec.Fingerprint, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit upsert: %v", types.ErrStoreConnection, err)
	}
	return nil
}

// Query scans the collection's records, scores each by cosine similarity
// against the query vector, and returns the top k.
func (s *SQLiteStore) Query(ctx context.Context, collectionID string, vector []float32, k int) ([]Match, error) {
	exists, err := s.collectionExists(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", types.ErrCollectionNotFound, collectionID)
	}
	if k <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT fingerprint, vector, dimension,
		       file_path, language, start_line, end_line, content, oversized,
		       provider, model, indexed_at
		FROM records WHERE collection_id = ?`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("%w: query collection %s: %v", types.ErrStoreConnection, collectionID, err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var rec Record
		var blob []byte
		var dimension int
		if err := rows.Scan(
			&rec.Fingerprint, &blob, &dimension,
			&rec.FilePath, &rec.Language, &rec.StartLine, &rec.EndLine, &rec.Content, &rec.Oversized,
			&rec.Provider, &rec.Model, &rec.IndexedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scan record: %v", types.ErrStoreConnection, err)
		}
		stored, err := deserializeVector(blob, dimension)
		if err != nil {
			s.logger.Warn("skipping corrupt vector",
				zap.String("collection", collectionID),
				zap.String("fingerprint", rec.Fingerprint),
				zap.Error(err))
			continue
		}
		rec.Vector = stored
		matches = append(matches, Match{Record: rec, Score: cosineSimilarity(vector, stored)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate records: %v", types.ErrStoreConnection, err)
	}

	sortMatches(matches)
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Delete removes records by fingerprint and returns how many were removed.
func (s *SQLiteStore) Delete(ctx context.Context, collectionID string, fingerprints []string) (int, error) {
	if len(fingerprints) == 0 {
		return 0, nil
	}

	placeholders := strings.Repeat("?,", len(fingerprints))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(fingerprints)+1)
	args = append(args, collectionID)
	for _, fp := range fingerprints {
		args = append(args, fp)
	}

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM records WHERE collection_id = ? AND fingerprint IN ("+placeholders+")",
		args...)
	if err != nil {
		return 0, fmt.Errorf("%w: delete records: %v", types.ErrStoreConnection, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: rows affected: %v", types.ErrStoreConnection, err)
	}
	return int(n), nil
}

// ListFingerprints returns every fingerprint in the collection mapped to its
// file path. A missing collection returns an empty map, not an error, so
// first-run indexing diffs against nothing.
func (s *SQLiteStore) ListFingerprints(ctx context.Context, collectionID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT fingerprint, file_path FROM records WHERE collection_id = ?", collectionID)
	if err != nil {
		return nil, fmt.Errorf("%w: list fingerprints %s: %v", types.ErrStoreConnection, collectionID, err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var fp, path string
		if err := rows.Scan(&fp, &path); err != nil {
			return nil, fmt.Errorf("%w: scan fingerprint: %v", types.ErrStoreConnection, err)
		}
		out[fp] = path
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate fingerprints: %v", types.ErrStoreConnection, err)
	}
	return out, nil
}

// DropCollection removes a collection and all of its records.
func (s *SQLiteStore) DropCollection(ctx context.Context, collectionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin drop: %v", types.ErrStoreConnection, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM records WHERE collection_id = ?", collectionID); err != nil {
		return fmt.Errorf("%w: drop records %s: %v", types.ErrStoreConnection, collectionID, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM collections WHERE id = ?", collectionID); err != nil {
		return fmt.Errorf("%w: drop collection %s: %v", types.ErrStoreConnection, collectionID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit drop: %v", types.ErrStoreConnection, err)
	}
	return nil
}

// Save upserts a project registry entry.
func (s *SQLiteStore) Save(ctx context.Context, p *project.Project) error {
	var summary any
	if p.LastSummary != nil {
		data, err := json.Marshal(p.LastSummary)
		if err != nil {
			return fmt.Errorf("%w: marshal summary: %v", types.ErrStoreConnection, err)
		}
		summary = string(data)
	}

	now := time.Now().UTC()
	var lastIndexed any
	if !p.LastIndexedAt.IsZero() {
		lastIndexed = p.LastIndexedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (path, name, collection_id, last_indexed_at, last_summary, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			name = excluded.name,
			collection_id = excluded.collection_id,
			last_indexed_at = excluded.last_indexed_at,
			last_summary = excluded.last_summary,
			updated_at = excluded.updated_at`,
		p.Path, p.Name, p.CollectionID, lastIndexed, summary, now, now)
	if err != nil {
		return fmt.Errorf("%w: save project %s: %v", types.ErrStoreConnection, p.Path, err)
	}
	return nil
}

// Get loads a project registry entry by root path.
func (s *SQLiteStore) Get(ctx context.Context, path string) (*project.Project, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT path, name, collection_id, last_indexed_at, last_summary, created_at, updated_at
		FROM projects WHERE path = ?`, path)

	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownProject, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get project %s: %v", types.ErrStoreConnection, path, err)
	}
	return p, nil
}

// List returns all registered projects ordered by path.
func (s *SQLiteStore) List(ctx context.Context) ([]*project.Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, name, collection_id, last_indexed_at, last_summary, created_at, updated_at
		FROM projects ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("%w: list projects: %v", types.ErrStoreConnection, err)
	}
	defer rows.Close()

	var projects []*project.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan project: %v", types.ErrStoreConnection, err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate projects: %v", types.ErrStoreConnection, err)
	}
	return projects, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanProject.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*project.Project, error) {
	var p project.Project
	var lastIndexed sql.NullTime
	var summary sql.NullString
	if err := row.Scan(&p.Path, &p.Name, &p.CollectionID, &lastIndexed, &summary, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if lastIndexed.Valid {
		p.LastIndexedAt = lastIndexed.Time
	}
	if summary.Valid && summary.String != "" {
		var s types.IndexSummary
		if err := json.Unmarshal([]byte(summary.String), &s); err == nil {
			p.LastSummary = &s
		}
	}
	return &p, nil
}
