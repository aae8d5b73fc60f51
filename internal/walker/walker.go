// Package walker enumerates candidate source files under a project root.
// Each Walk call re-walks the tree from scratch; there is no hidden caching.
// Directories in the ignore set and hidden directories are pruned, files are
// filtered by extension allow-list, size cap, and a binary sniff, and
// symlink cycles are broken by tracking visited resolved paths.
package walker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/codescout/codescout/pkg/types"
)

// sniffLen is how many leading bytes are inspected for binary content.
const sniffLen = 512

// Config controls which files a walk yields.
type Config struct {
	// IgnoreDirs are directory names pruned from the walk (e.g. ".git").
	IgnoreDirs []string
	// Extensions is the allow-list of file extensions (with leading dot).
	Extensions []string
	// MaxFileBytes skips files larger than this. Zero means no cap.
	MaxFileBytes int64
}

// VisitFunc is called for every candidate file, with the absolute path and
// its FileInfo. Returning an error stops the walk.
type VisitFunc func(path string, info fs.FileInfo) error

// SkipFunc is called for files excluded with a reportable reason
// (permission, too-large, binary). Silently filtered extensions are not
// reported.
type SkipFunc func(path, reason string)

// Walker discovers source files under a root path.
type Walker struct {
	cfg        Config
	extensions map[string]bool
	ignored    map[string]bool
	logger     *zap.Logger
}

// New creates a Walker with the given config.
func New(cfg Config, logger *zap.Logger) *Walker {
	if logger == nil {
		logger = zap.NewNop()
	}
	extMap := make(map[string]bool, len(cfg.Extensions))
	for _, ext := range cfg.Extensions {
		extMap[strings.ToLower(ext)] = true
	}
	ignoreMap := make(map[string]bool, len(cfg.IgnoreDirs))
	for _, dir := range cfg.IgnoreDirs {
		ignoreMap[dir] = true
	}
	return &Walker{
		cfg:        cfg,
		extensions: extMap,
		ignored:    ignoreMap,
		logger:     logger,
	}
}

// Walk enumerates candidate files under root, calling visit for each one.
// One unreadable file never stops the walk: it is reported through skip and
// the walk continues. A missing root fails with types.ErrNotFound.
func (w *Walker) Walk(ctx context.Context, root string, visit VisitFunc, skip SkipFunc) error {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", types.ErrNotFound, root)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", types.ErrNotFound, root)
	}
	if skip == nil {
		skip = func(string, string) {}
	}

	visited := make(map[string]struct{})
	return w.walkDir(ctx, root, visited, visit, skip)
}

// walkDir recursively descends into dir. Resolved real paths of visited
// directories break symlink cycles.
func (w *Walker) walkDir(ctx context.Context, dir string, visited map[string]struct{}, visit VisitFunc, skip SkipFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	real, err := filepath.EvalSymlinks(dir)
	if err != nil {
		w.logger.Warn("cannot resolve directory, skipping",
			zap.String("dir", dir), zap.Error(err))
		return nil
	}
	if _, seen := visited[real]; seen {
		w.logger.Debug("symlink cycle detected, skipping", zap.String("dir", dir))
		return nil
	}
	visited[real] = struct{}{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsPermission(err) {
			w.logger.Warn("unreadable directory, skipping",
				zap.String("dir", dir), zap.Error(err))
			skip(dir, types.SkipReasonPermission)
			return nil
		}
		return err
	}

	// Deterministic order keeps runs reproducible. ReadDir already sorts,
	// but we depend on it explicitly.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if isDir(entry, path) {
			if w.pruneDir(entry.Name()) {
				continue
			}
			if err := w.walkDir(ctx, path, visited, visit, skip); err != nil {
				return err
			}
			continue
		}

		if err := w.visitFile(path, visit, skip); err != nil {
			return err
		}
	}
	return nil
}

// pruneDir reports whether a directory name is excluded from the walk.
func (w *Walker) pruneDir(name string) bool {
	if w.ignored[name] {
		return true
	}
	// Hidden directories are never source trees worth indexing.
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// visitFile applies the per-file filters and invokes visit on a match.
func (w *Walker) visitFile(path string, visit VisitFunc, skip SkipFunc) error {
	ext := strings.ToLower(filepath.Ext(path))
	if len(w.extensions) > 0 && !w.extensions[ext] {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsPermission(err) {
			skip(path, types.SkipReasonPermission)
			return nil
		}
		// Broken symlink or vanished file: skip, keep walking.
		w.logger.Debug("stat failed, skipping", zap.String("path", path), zap.Error(err))
		return nil
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	if w.cfg.MaxFileBytes > 0 && info.Size() > w.cfg.MaxFileBytes {
		skip(path, types.SkipReasonTooLarge)
		return nil
	}

	binary, err := isBinary(path)
	if err != nil {
		if os.IsPermission(err) {
			w.logger.Warn("unreadable file, skipping", zap.String("path", path))
			skip(path, types.SkipReasonPermission)
			return nil
		}
		skip(path, types.SkipReasonReadError)
		return nil
	}
	if binary {
		skip(path, types.SkipReasonBinary)
		return nil
	}

	return visit(path, info)
}

// isDir resolves directory-ness through symlinks so linked directories are
// walked (cycle tracking in walkDir keeps this safe).
func isDir(entry fs.DirEntry, path string) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// isBinary sniffs the first bytes of a file for a NUL byte.
func isBinary(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, sniffLen)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return false, err
	}
	return bytes.IndexByte(buf[:n], 0) >= 0, nil
}
