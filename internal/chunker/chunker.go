package chunker

import (
	"strings"

	"github.com/codescout/codescout/pkg/types"
)

// Defaults for chunk sizing.
const (
	DefaultWindowLines   = 80
	DefaultOverlapLines  = 10
	DefaultMaxChunkBytes = 4096
)

// Config controls chunk sizing.
type Config struct {
	// WindowLines is the line count of a fixed window chunk.
	WindowLines int
	// OverlapLines is how many trailing lines repeat at the start of the
	// next window chunk.
	OverlapLines int
	// MaxChunkBytes caps chunk byte size. A single line over the cap is
	// still emitted as its own chunk, flagged Oversized.
	MaxChunkBytes int
}

// withDefaults fills zero fields and clamps the overlap below the window.
func (c Config) withDefaults() Config {
	if c.WindowLines <= 0 {
		c.WindowLines = DefaultWindowLines
	}
	if c.OverlapLines < 0 {
		c.OverlapLines = DefaultOverlapLines
	}
	if c.MaxChunkBytes <= 0 {
		c.MaxChunkBytes = DefaultMaxChunkBytes
	}
	if c.OverlapLines >= c.WindowLines {
		c.OverlapLines = c.WindowLines / 4
	}
	return c
}

// Span is a contiguous line range produced by a Strategy. Lines are 1-based
// and inclusive.
type Span struct {
	StartLine int
	EndLine   int
	Text      string
	Oversized bool
}

// Strategy splits file text into ordered spans.
type Strategy interface {
	Chunk(text string) []Span
}

// Chunker dispatches file text to a per-language strategy.
type Chunker struct {
	cfg        Config
	strategies map[string]Strategy
	fallback   Strategy
}

// New creates a Chunker with boundary-aware strategies registered for the
// built-in language patterns and a fixed-window fallback for everything
// else.
func New(cfg Config) *Chunker {
	cfg = cfg.withDefaults()
	window := newWindowStrategy(cfg.WindowLines, cfg.OverlapLines, cfg.MaxChunkBytes)

	c := &Chunker{
		cfg:        cfg,
		strategies: make(map[string]Strategy),
		fallback:   window,
	}
	for lang, pattern := range boundaryPatterns {
		c.strategies[lang] = newBoundaryStrategy(pattern, cfg.MaxChunkBytes, window)
	}
	return c
}

// Register installs a strategy for a language tag, replacing any built-in.
func (c *Chunker) Register(lang string, s Strategy) {
	c.strategies[lang] = s
}

// ChunkText splits text into chunks tagged with the file's relative path and
// language. Empty and whitespace-only text produces zero chunks.
func (c *Chunker) ChunkText(relPath, lang, text string) []types.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	strategy, ok := c.strategies[lang]
	if !ok {
		strategy = c.fallback
	}

	spans := strategy.Chunk(text)
	chunks := make([]types.Chunk, 0, len(spans))
	for _, sp := range spans {
		chunk := types.Chunk{
			FilePath:  relPath,
			Language:  lang,
			StartLine: sp.StartLine,
			EndLine:   sp.EndLine,
			Text:      sp.Text,
			Oversized: sp.Oversized,
		}
		chunk.Fingerprint = types.Fingerprint(relPath, sp.StartLine, sp.Text)
		chunks = append(chunks, chunk)
	}
	return chunks
}

// splitLines splits text into lines without a trailing artifact for files
// that end in a newline.
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// byteLen returns the byte size of a line range joined with newlines.
func byteLen(lines []string) int {
	size := 0
	for _, l := range lines {
		size += len(l) + 1
	}
	if size > 0 {
		size-- // no trailing newline
	}
	return size
}

// blank reports whether every line in the range is whitespace.
func blank(lines []string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return false
		}
	}
	return true
}
