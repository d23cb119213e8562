package ingest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/knowme/internal/domain"
)

// page extensions recognised in a website export.
var pageExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
	".html":     true,
}

// SiteIngestor reads every page file recursively under a website export
// directory (e.g. an unzipped Notion export) and splits each page into
// chunks tagged with its file path.
type SiteIngestor struct {
	dir      string
	splitter *Splitter
	logger   *zap.Logger
}

// NewSiteIngestor creates a website ingestor over the given export directory.
func NewSiteIngestor(dir string, splitter *Splitter, logger *zap.Logger) *SiteIngestor {
	return &SiteIngestor{dir: dir, splitter: splitter, logger: logger}
}

// Ingest enumerates the pages and returns the ordered chunk sequence.
func (i *SiteIngestor) Ingest() ([]domain.Chunk, error) {
	info, err := os.Stat(i.dir)
	if err != nil {
		return nil, fmt.Errorf("site export %s: %v: %w", i.dir, err, domain.ErrIngest)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("site export %s is not a directory: %w", i.dir, domain.ErrIngest)
	}

	var chunks []domain.Chunk
	pages := 0
	walkErr := filepath.WalkDir(i.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !pageExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read page %s: %w", path, err)
		}
		pages++
		doc := domain.Document{
			Path:     path,
			Content:  string(data),
			Metadata: map[string]string{"filename": path},
		}
		chunks = append(chunks, i.splitter.Split(doc)...)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk site export: %v: %w", walkErr, domain.ErrIngest)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no pages found under %s: %w", i.dir, domain.ErrIngest)
	}

	i.logger.Info("site export ingested",
		zap.String("dir", i.dir),
		zap.Int("pages", pages),
		zap.Int("chunks", len(chunks)),
	)
	return chunks, nil
}
