package ingest

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/knowme/internal/domain"
)

func mustSplitter(t *testing.T, size, overlap int) *Splitter {
	t.Helper()
	s, err := NewSplitter(size, overlap)
	if err != nil {
		t.Fatalf("NewSplitter: %v", err)
	}
	return s
}

func TestNewSplitter_RejectsBadPolicy(t *testing.T) {
	if _, err := NewSplitter(0, 0); err == nil {
		t.Error("expected error for zero chunk size")
	}
	if _, err := NewSplitter(100, 100); err == nil {
		t.Error("expected error for overlap == chunk size")
	}
	if _, err := NewSplitter(100, -1); err == nil {
		t.Error("expected error for negative overlap")
	}
}

func TestSplit_SingleChunkFitsWhole(t *testing.T) {
	s := mustSplitter(t, 100, 20)
	doc := domain.Document{Content: "short text", Metadata: map[string]string{"filename": "a.md"}}

	chunks := s.Split(doc)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "short text" {
		t.Errorf("unexpected chunk text %q", chunks[0].Text)
	}
	if chunks[0].StartIndex != 0 {
		t.Errorf("expected start index 0, got %d", chunks[0].StartIndex)
	}
	if chunks[0].Metadata["filename"] != "a.md" {
		t.Errorf("metadata not inherited: %v", chunks[0].Metadata)
	}
}

// Concatenating chunks while dropping each declared overlap must reconstruct
// the original document exactly.
func TestSplit_Reconstruction(t *testing.T) {
	const size, overlap = 50, 10
	s := mustSplitter(t, size, overlap)

	texts := []string{
		strings.Repeat("abcdefghij", 30),
		"First paragraph about the person.\n\nSecond paragraph with more detail. It has two sentences.\n\nThird one.",
		"One long unbroken word " + strings.Repeat("x", 200) + " then a tail.",
	}

	for _, text := range texts {
		chunks := s.Split(domain.Document{Content: text})
		if len(chunks) == 0 {
			t.Fatal("expected at least one chunk")
		}

		var sb strings.Builder
		for i, ch := range chunks {
			runes := []rune(ch.Text)
			if len(runes) > size {
				t.Errorf("chunk %d exceeds chunk size: %d > %d", i, len(runes), size)
			}
			if i == 0 {
				sb.WriteString(ch.Text)
			} else {
				sb.WriteString(string(runes[overlap:]))
			}
		}
		if sb.String() != text {
			t.Errorf("reconstruction mismatch:\ngot:  %q\nwant: %q", sb.String(), text)
		}
	}
}

// Every consecutive pair must overlap by exactly the configured number of runes.
func TestSplit_ExactOverlap(t *testing.T) {
	const size, overlap = 40, 8
	s := mustSplitter(t, size, overlap)

	text := "Alpha beta gamma delta epsilon zeta eta theta iota kappa lambda mu nu xi omicron pi rho sigma tau."
	chunks := s.Split(domain.Document{Content: text})
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	runes := []rune(text)
	for i := 1; i < len(chunks); i++ {
		prevEnd := chunks[i-1].StartIndex + len([]rune(chunks[i-1].Text))
		if got := prevEnd - chunks[i].StartIndex; got != overlap {
			t.Errorf("chunks %d/%d overlap by %d runes, want %d", i-1, i, got, overlap)
		}
		if want := string(runes[chunks[i].StartIndex:][:overlap]); !strings.HasPrefix(chunks[i].Text, want) {
			t.Errorf("chunk %d does not start with the overlap runes", i)
		}
	}
}

func TestSplit_PrefersParagraphBoundary(t *testing.T) {
	s := mustSplitter(t, 60, 5)
	text := "A short opening paragraph.\n\nA second paragraph that will not fit into the same sixty rune window at all."

	chunks := s.Split(domain.Document{Content: text})
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	if !strings.HasSuffix(chunks[0].Text, "paragraph.\n\n") {
		t.Errorf("expected first chunk to end at the paragraph break, got %q", chunks[0].Text)
	}
}

func TestSplit_EmptyDocument(t *testing.T) {
	s := mustSplitter(t, 100, 10)
	if chunks := s.Split(domain.Document{Content: ""}); chunks != nil {
		t.Errorf("expected no chunks for empty document, got %d", len(chunks))
	}
}

func TestSplit_ChunkIDsAssigned(t *testing.T) {
	s := mustSplitter(t, 30, 5)
	chunks := s.Split(domain.Document{Content: strings.Repeat("word ", 40)})

	seen := make(map[string]bool)
	for _, ch := range chunks {
		if ch.ID == "" {
			t.Fatal("chunk without ID")
		}
		if seen[ch.ID] {
			t.Fatalf("duplicate chunk ID %s", ch.ID)
		}
		seen[ch.ID] = true
	}
}
