package ingest

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kailas-cloud/knowme/internal/domain"
)

// Splitter greedily packs document text into windows of at most ChunkSize
// runes, with consecutive windows overlapping by exactly ChunkOverlap runes.
// It prefers to end a window at a paragraph, line, sentence, or word boundary
// before falling back to a hard cut.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
}

// NewSplitter creates a splitter. ChunkSize must be positive and the overlap
// must be smaller than the chunk size.
func NewSplitter(chunkSize, chunkOverlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap must be in [0, chunk size), got %d", chunkOverlap)
	}
	return &Splitter{chunkSize: chunkSize, chunkOverlap: chunkOverlap}, nil
}

// boundary markers in preference order. Each entry is scanned backwards from
// the window end; the cut is placed after the marker.
var boundaries = []string{"\n\n", "\n", ". ", "! ", "? ", " "}

// Split cuts one document into ordered chunks. Every chunk inherits the
// document metadata and records its starting rune offset.
func (s *Splitter) Split(doc domain.Document) []domain.Chunk {
	runes := []rune(doc.Content)
	if len(runes) == 0 {
		return nil
	}

	var chunks []domain.Chunk
	start := 0
	for start < len(runes) {
		end := start + s.chunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = s.cut(runes, start, end)
		}

		chunks = append(chunks, domain.Chunk{
			ID:         uuid.NewString(),
			Text:       string(runes[start:end]),
			StartIndex: start,
			Metadata:   copyMetadata(doc.Metadata),
		})

		if end == len(runes) {
			break
		}
		start = end - s.chunkOverlap
	}
	return chunks
}

// cut finds the window end for runes[start:limit], preferring the latest
// boundary marker that still leaves a substantial window. A boundary shorter
// than the overlap would make the next window start before this one, and one
// in the first third of the window degrades into rune-by-rune steps, so both
// are rejected in favour of the next marker class or a hard cut.
func (s *Splitter) cut(runes []rune, start, limit int) int {
	window := string(runes[start:limit])
	minLen := s.chunkOverlap + 1
	if third := s.chunkSize / 3; third > minLen {
		minLen = third
	}
	for _, b := range boundaries {
		idx := strings.LastIndex(window, b)
		if idx < 0 {
			continue
		}
		end := len([]rune(window[:idx])) + len([]rune(b))
		if end >= minLen {
			return start + end
		}
	}
	return limit
}

func copyMetadata(src map[string]string) map[string]string {
	if src == nil {
		return nil
	}
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
