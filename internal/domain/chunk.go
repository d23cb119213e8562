package domain

// Document is a single logical source document before splitting: one website
// page or one CV file.
type Document struct {
	// Path is the originating file path, kept for provenance.
	Path string
	// Content is the full extracted text.
	Content string
	// Metadata is inherited by every chunk split from this document.
	Metadata map[string]string
}

// Chunk is the unit of retrieval: a bounded span of source text plus
// metadata. Chunks are immutable once produced by an ingestor.
type Chunk struct {
	ID string
	// Text is at most the configured chunk size in runes.
	Text string
	// StartIndex is the rune offset of Text within the source document.
	StartIndex int
	// Metadata is copied from the source document (e.g. "filename").
	Metadata map[string]string
}

// ScoredChunk is a single retrieval hit.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}
