package chunker

import (
	"regexp"
	"strings"
)

// boundaryPatterns maps language tags to regexes matching the first line of
// a block unit (function, class, type). A line match starts a new segment.
var boundaryPatterns = map[string]string{
	"python":     `^\s*(async\s+def|def|class)\s+\w`,
	"go":         `^(func|type)\s`,
	"javascript": `^\s*(export\s+)?(default\s+)?(async\s+)?(function[\s*]|class\s+\w)|^\s*(export\s+)?(const|let|var)\s+\w+\s*=\s*(async\s*)?(function\b|\()`,
	"typescript": `^\s*(export\s+)?(default\s+)?(async\s+)?(function[\s*]|class\s+\w|interface\s+\w|enum\s+\w)|^\s*(export\s+)?(const|let|var)\s+\w+\s*=\s*(async\s*)?(function\b|\()`,
	"java":       `^\s*(public|private|protected|static|abstract|final)\b.*[({]\s*$|^\s*(class|interface|enum|record)\s+\w`,
	"csharp":     `^\s*(public|private|protected|internal|static)\b.*[({]\s*$|^\s*(class|interface|struct|enum|namespace)\s+\w`,
	"c":          `^[A-Za-z_][\w \t*]*\([^;]*$|^[A-Za-z_][\w \t*]*\(.*\)\s*\{?\s*$|^\s*(struct|enum|union)\s+\w+\s*\{`,
	"cpp":        `^[A-Za-z_][\w :<>,&*~]*\(.*$|^\s*(class|struct|enum|namespace|template)\b`,
	"rust":       `^\s*(pub(\([^)]*\))?\s+)?(fn|struct|enum|trait|impl|mod)\s`,
	"ruby":       `^\s*(def|class|module)\s`,
	"php":        `^\s*(abstract\s+|final\s+)?(public\s+|private\s+|protected\s+|static\s+)*function\s+\w|^\s*(class|interface|trait)\s+\w`,
	"kotlin":     `^\s*(private\s+|internal\s+|public\s+)?(fun|class|object|interface)\s`,
	"swift":      `^\s*(public\s+|private\s+|internal\s+)?(func|class|struct|enum|protocol|extension)\s`,
	"scala":      `^\s*(private\s+|protected\s+)?(def|class|object|trait|case\s+class)\s`,
}

// windowStrategy is the default fixed-size sliding window of lines with
// overlap. It is also the fallback splitter for oversized segments of
// boundary-aware strategies.
type windowStrategy struct {
	window   int
	overlap  int
	maxBytes int
}

func newWindowStrategy(window, overlap, maxBytes int) *windowStrategy {
	return &windowStrategy{window: window, overlap: overlap, maxBytes: maxBytes}
}

// Chunk splits text into overlapping line windows.
func (s *windowStrategy) Chunk(text string) []Span {
	lines := splitLines(text)
	if len(lines) == 0 {
		return nil
	}
	return s.chunkLines(lines, 1)
}

// chunkLines windows over lines, with baseLine as the 1-based line number of
// lines[0]. Windows close early at the byte cap; a single line over the cap
// becomes its own span flagged Oversized. Whitespace-only windows are
// dropped.
func (s *windowStrategy) chunkLines(lines []string, baseLine int) []Span {
	var spans []Span

	i := 0
	for i < len(lines) {
		j := i
		size := 0
		for j < len(lines) && j-i < s.window {
			lineSize := len(lines[j])
			if j > i {
				lineSize++ // joining newline
			}
			if size+lineSize > s.maxBytes && j > i {
				break
			}
			size += lineSize
			j++
			if size > s.maxBytes {
				break // single line over the cap, emitted whole
			}
		}

		window := lines[i:j]
		if !blank(window) {
			spans = append(spans, Span{
				StartLine: baseLine + i,
				EndLine:   baseLine + j - 1,
				Text:      strings.Join(window, "\n"),
				Oversized: j-i == 1 && len(window[0]) > s.maxBytes,
			})
		}

		if j >= len(lines) {
			break
		}
		next := j - s.overlap
		if next <= i {
			next = i + 1
		}
		i = next
	}
	return spans
}

// boundaryStrategy cuts at detected block starts, keeping a function or
// class unit intact where it fits the byte cap. Adjacent small segments
// merge up to the cap; segments over the cap fall back to window splitting.
type boundaryStrategy struct {
	start    *regexp.Regexp
	maxBytes int
	window   *windowStrategy
}

func newBoundaryStrategy(pattern string, maxBytes int, window *windowStrategy) *boundaryStrategy {
	return &boundaryStrategy{
		start:    regexp.MustCompile(pattern),
		maxBytes: maxBytes,
		window:   window,
	}
}

func (s *boundaryStrategy) Chunk(text string) []Span {
	lines := splitLines(text)
	if len(lines) == 0 {
		return nil
	}

	bounds := s.boundaries(lines)

	var spans []Span
	groupStart, groupEnd := bounds[0], bounds[0]
	for k := 0; k < len(bounds); k++ {
		segEnd := len(lines)
		if k+1 < len(bounds) {
			segEnd = bounds[k+1]
		}

		switch {
		case groupEnd == groupStart:
			// Empty group: adopt the segment.
			groupEnd = segEnd
		case byteLen(lines[groupStart:segEnd]) <= s.maxBytes:
			// Segment fits alongside the current group.
			groupEnd = segEnd
		default:
			spans = append(spans, s.emit(lines, groupStart, groupEnd)...)
			groupStart, groupEnd = bounds[k], segEnd
		}
	}
	spans = append(spans, s.emit(lines, groupStart, groupEnd)...)
	return spans
}

// boundaries returns the sorted line indices that start a segment, always
// including line 0.
func (s *boundaryStrategy) boundaries(lines []string) []int {
	bounds := []int{0}
	for i, line := range lines {
		if i > 0 && s.start.MatchString(line) {
			bounds = append(bounds, i)
		}
	}
	return bounds
}

// emit produces spans for lines[start:end): one span when it fits the cap,
// window-split otherwise.
func (s *boundaryStrategy) emit(lines []string, start, end int) []Span {
	if start >= end {
		return nil
	}
	seg := lines[start:end]
	if blank(seg) {
		return nil
	}
	if byteLen(seg) <= s.maxBytes {
		return []Span{{
			StartLine: start + 1,
			EndLine:   end,
			Text:      strings.Join(seg, "\n"),
		}}
	}
	return s.window.chunkLines(seg, start+1)
}
