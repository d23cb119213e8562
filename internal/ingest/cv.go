package ingest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/kailas-cloud/knowme/internal/domain"
)

// CVIngestor extracts the text of a single CV document (PDF, markdown, or
// plain text) and splits it into chunks.
type CVIngestor struct {
	path     string
	splitter *Splitter
	logger   *zap.Logger
}

// NewCVIngestor creates a CV ingestor for the given file.
func NewCVIngestor(path string, splitter *Splitter, logger *zap.Logger) *CVIngestor {
	return &CVIngestor{path: path, splitter: splitter, logger: logger}
}

// Ingest extracts the CV text and returns the ordered chunk sequence.
func (i *CVIngestor) Ingest() ([]domain.Chunk, error) {
	if _, err := os.Stat(i.path); err != nil {
		return nil, fmt.Errorf("cv file %s: %v: %w", i.path, err, domain.ErrIngest)
	}

	var text string
	var err error
	switch strings.ToLower(filepath.Ext(i.path)) {
	case ".pdf":
		text, err = extractPDFText(i.path)
	case ".txt", ".md", ".markdown":
		var data []byte
		data, err = os.ReadFile(i.path)
		text = string(data)
	default:
		return nil, fmt.Errorf("unsupported cv format %q: %w", filepath.Ext(i.path), domain.ErrIngest)
	}
	if err != nil {
		return nil, fmt.Errorf("extract cv text: %v: %w", err, domain.ErrIngest)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("cv file %s contains no text: %w", i.path, domain.ErrIngest)
	}

	doc := domain.Document{
		Path:     i.path,
		Content:  text,
		Metadata: map[string]string{"filename": i.path},
	}
	chunks := i.splitter.Split(doc)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("cv file %s produced no chunks: %w", i.path, domain.ErrIngest)
	}

	i.logger.Info("cv ingested",
		zap.String("file", i.path),
		zap.Int("chunks", len(chunks)),
	)
	return chunks, nil
}

// extractPDFText concatenates the plain text of every physical page.
func extractPDFText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer func() { _ = f.Close() }()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}
