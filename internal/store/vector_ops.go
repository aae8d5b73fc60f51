package store

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// serializeVector encodes a float32 vector as a little-endian byte blob.
func serializeVector(vector []float32) []byte {
	buf := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// deserializeVector decodes a little-endian byte blob into a float32 vector
// of the given dimension.
func deserializeVector(data []byte, dimension int) ([]float32, error) {
	if len(data) != dimension*4 {
		return nil, fmt.Errorf("vector blob is %d bytes, want %d for dimension %d", len(data), dimension*4, dimension)
	}
	vector := make([]float32, dimension)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vector, nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Returns 0 for mismatched dimensions or zero-magnitude vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// sortMatches orders matches by descending score. Equal scores tie-break on
// shorter file path, then lower start line, so rankings are stable across
// runs.
func sortMatches(matches []Match) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		pi, pj := matches[i].Record.FilePath, matches[j].Record.FilePath
		if len(pi) != len(pj) {
			return len(pi) < len(pj)
		}
		if pi != pj {
			return pi < pj
		}
		return matches[i].Record.StartLine < matches[j].Record.StartLine
	})
}
