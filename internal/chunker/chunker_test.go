package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkTextEmpty(t *testing.T) {
	c := New(Config{})

	assert.Nil(t, c.ChunkText("a.go", "go", ""))
	assert.Nil(t, c.ChunkText("a.go", "go", "   \n\n\t\n"))
}

func TestChunkTextSmallFileSingleChunk(t *testing.T) {
	c := New(Config{})
	text := "package main\n\nfunc main() {\n\tprintln(\"hi\")\n}\n"

	chunks := c.ChunkText("main.go", "go", text)
	require.Len(t, chunks, 1)

	assert.Equal(t, "main.go", chunks[0].FilePath)
	assert.Equal(t, "go", chunks[0].Language)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 5, chunks[0].EndLine)
	assert.NotEmpty(t, chunks[0].Fingerprint)
	assert.False(t, chunks[0].Oversized)
}

func TestChunkTextDeterministicFingerprints(t *testing.T) {
	c := New(Config{})
	text := "def a():\n    pass\n\ndef b():\n    pass\n"

	first := c.ChunkText("m.py", "python", text)
	second := c.ChunkText("m.py", "python", text)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Fingerprint, second[i].Fingerprint)
	}
}

func TestChunkTextFingerprintChangesWithPath(t *testing.T) {
	c := New(Config{})
	text := "func f() {}\n"

	a := c.ChunkText("a.go", "go", text)
	b := c.ChunkText("b.go", "go", text)
	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.NotEqual(t, a[0].Fingerprint, b[0].Fingerprint)
}

func TestWindowStrategyOverlap(t *testing.T) {
	s := newWindowStrategy(4, 1, 4096)

	var lines []string
	for i := 1; i <= 10; i++ {
		lines = append(lines, fmt.Sprintf("line %d", i))
	}

	spans := s.Chunk(strings.Join(lines, "\n"))
	require.True(t, len(spans) >= 2)

	assert.Equal(t, 1, spans[0].StartLine)
	assert.Equal(t, 4, spans[0].EndLine)
	// Next window starts one line before the previous ended.
	assert.Equal(t, 4, spans[1].StartLine)

	// All lines covered.
	assert.Equal(t, 10, spans[len(spans)-1].EndLine)
}

func TestWindowStrategyByteCap(t *testing.T) {
	s := newWindowStrategy(80, 0, 20)

	text := strings.Repeat("aaaaaaaaa\n", 6) // 10 bytes per line
	spans := s.Chunk(text)

	require.True(t, len(spans) >= 3)
	for _, sp := range spans {
		assert.LessOrEqual(t, len(sp.Text), 20)
		assert.False(t, sp.Oversized)
	}
}

func TestWindowStrategyOversizedLine(t *testing.T) {
	s := newWindowStrategy(80, 0, 16)

	long := strings.Repeat("x", 100)
	spans := s.Chunk("short\n" + long + "\nshort again")

	require.Len(t, spans, 3)
	assert.False(t, spans[0].Oversized)
	assert.True(t, spans[1].Oversized)
	assert.Equal(t, long, spans[1].Text)
	assert.False(t, spans[2].Oversized)
}

func TestWindowStrategyDropsBlankWindows(t *testing.T) {
	s := newWindowStrategy(2, 0, 4096)

	spans := s.Chunk("code\n\n\n\nmore code")
	for _, sp := range spans {
		assert.NotEqual(t, "", strings.TrimSpace(sp.Text))
	}
}

func TestBoundaryStrategyKeepsFunctionsIntact(t *testing.T) {
	c := New(Config{WindowLines: 4, OverlapLines: 1, MaxChunkBytes: 60})

	text := strings.Join([]string{
		"def first():",
		"    return 1",
		"",
		"def second():",
		"    return 2",
		"",
	}, "\n")

	chunks := c.ChunkText("m.py", "python", text)
	require.NotEmpty(t, chunks)

	// No chunk starts mid-function body.
	for _, ch := range chunks {
		firstLine := strings.SplitN(ch.Text, "\n", 2)[0]
		assert.False(t, strings.HasPrefix(strings.TrimSpace(firstLine), "return"),
			"chunk starts mid-body: %q", ch.Text)
	}
}

func TestBoundaryStrategyMergesSmallSegments(t *testing.T) {
	c := New(Config{})

	text := strings.Join([]string{
		"def a():",
		"    return 1",
		"def b():",
		"    return 2",
	}, "\n")

	// Both functions fit well under the default cap and merge into one chunk.
	chunks := c.ChunkText("m.py", "python", text)
	require.Len(t, chunks, 1)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 4, chunks[0].EndLine)
}

func TestBoundaryStrategyOversizedSegmentFallsBack(t *testing.T) {
	c := New(Config{WindowLines: 3, OverlapLines: 0, MaxChunkBytes: 50})

	var body []string
	body = append(body, "def big():")
	for i := 0; i < 10; i++ {
		body = append(body, "    x = 1  # padding line")
	}

	chunks := c.ChunkText("m.py", "python", strings.Join(body, "\n"))
	require.Greater(t, len(chunks), 1)
	for _, ch := range chunks {
		assert.LessOrEqual(t, len(ch.Text), 50)
	}
}

func TestChunkTextUnknownLanguageUsesWindow(t *testing.T) {
	c := New(Config{WindowLines: 2, OverlapLines: 0, MaxChunkBytes: 4096})

	chunks := c.ChunkText("notes.txt", "unknown", "a\nb\nc\nd")
	require.Len(t, chunks, 2)
	assert.Equal(t, "a\nb", chunks[0].Text)
	assert.Equal(t, "c\nd", chunks[1].Text)
}

func TestRegisterOverridesStrategy(t *testing.T) {
	c := New(Config{})
	c.Register("go", newWindowStrategy(1, 0, 4096))

	chunks := c.ChunkText("a.go", "go", "x := 1\ny := 2")
	require.Len(t, chunks, 2)
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, DefaultWindowLines, cfg.WindowLines)
	assert.Equal(t, DefaultOverlapLines, cfg.OverlapLines)
	assert.Equal(t, DefaultMaxChunkBytes, cfg.MaxChunkBytes)

	clamped := Config{WindowLines: 4, OverlapLines: 8}.withDefaults()
	assert.Less(t, clamped.OverlapLines, clamped.WindowLines)
}
