package types

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
)

// Chunk represents a contiguous span of one file's text treated as a single
// embeddable unit for search
type Chunk struct {
	// Location
	FilePath  string // Relative to project root
	Language  string
	StartLine int // 1-based, inclusive
	EndLine   int // 1-based, inclusive

	// Content
	Text        string
	Fingerprint string // Content hash for change detection

	// Oversized marks a chunk whose text could not be split below the
	// configured byte cap (a single very long line). It is emitted whole
	// rather than silently truncated.
	Oversized bool
}

// Fingerprint computes the content hash identifying a chunk's current text.
// The file path and start line participate so identical text in two places
// yields distinct records, and deleting a file removes exactly its own
// records. Editing a line in place changes only the fingerprints of the
// chunks that overlap it.
func Fingerprint(filePath string, startLine int, text string) string {
	h := sha256.New()
	h.Write([]byte(filePath))
	h.Write([]byte{'\n'})
	h.Write([]byte(strconv.Itoa(startLine)))
	h.Write([]byte{'\n'})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Validate checks the chunk invariants: non-empty text, positive line
// numbers, start <= end, and a computed fingerprint.
func (c *Chunk) Validate() error {
	if c.Text == "" {
		return errors.New("chunk text cannot be empty")
	}
	if c.StartLine <= 0 || c.EndLine <= 0 {
		return errors.New("line numbers must be positive")
	}
	if c.StartLine > c.EndLine {
		return errors.New("start line must be before or equal to end line")
	}
	if c.FilePath == "" {
		return errors.New("file path is required")
	}
	if c.Fingerprint == "" {
		return errors.New("fingerprint must be computed")
	}
	return nil
}

// LineCount returns the number of lines the chunk spans.
func (c *Chunk) LineCount() int {
	return c.EndLine - c.StartLine + 1
}
