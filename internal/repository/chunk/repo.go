// Package chunk persists (vector, chunk) pairs of one knowledge source in a
// SQLite database inside the index location directory.
package chunk

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/kailas-cloud/knowme/internal/domain"
)

const dbFileName = "chunks.db"

// Repo is a SQLite-backed chunk repository. One Repo owns one index location.
type Repo struct {
	db       *sql.DB
	location string
}

// Open opens (creating if needed) the chunk database at the given index
// location directory.
func Open(location string) (*Repo, error) {
	if err := os.MkdirAll(location, 0o755); err != nil {
		return nil, fmt.Errorf("create index location %s: %v: %w", location, err, domain.ErrStore)
	}

	db, err := sql.Open("sqlite", filepath.Join(location, dbFileName))
	if err != nil {
		return nil, fmt.Errorf("open chunk db: %v: %w", err, domain.ErrStore)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping chunk db: %v: %w", err, domain.ErrStore)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS chunks (
		position    INTEGER PRIMARY KEY,
		id          TEXT NOT NULL,
		text        TEXT NOT NULL,
		start_index INTEGER NOT NULL,
		metadata    TEXT NOT NULL,
		vector      BLOB NOT NULL
	);
	CREATE TABLE IF NOT EXISTS index_info (
		key   TEXT PRIMARY KEY,
		value INTEGER NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create chunk schema: %v: %w", err, domain.ErrStore)
	}

	return &Repo{db: db, location: location}, nil
}

// Location returns the index location directory this repo persists to.
func (r *Repo) Location() string { return r.location }

// Count returns the number of persisted chunks. A positive count marks the
// location as populated.
func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count chunks: %v: %w", err, domain.ErrStore)
	}
	return n, nil
}

// Dimensions returns the recorded embedding dimension, or 0 when unset.
func (r *Repo) Dimensions(ctx context.Context) (int, error) {
	var dim int
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM index_info WHERE key = 'dimensions'`).Scan(&dim)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read dimensions: %v: %w", err, domain.ErrStore)
	}
	return dim, nil
}

// SaveAll persists the chunk sequence with one vector per chunk, in order.
func (r *Repo) SaveAll(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("got %d chunks but %d vectors: %w", len(chunks), len(vectors), domain.ErrStore)
	}
	if len(chunks) == 0 {
		return fmt.Errorf("refusing to persist an empty index: %w", domain.ErrStore)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %v: %w", err, domain.ErrStore)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (position, id, text, start_index, metadata, vector)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare save: %v: %w", err, domain.ErrStore)
	}
	defer func() { _ = stmt.Close() }()

	for i, ch := range chunks {
		meta, err := json.Marshal(ch.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %v: %w", err, domain.ErrStore)
		}
		if _, err := stmt.ExecContext(ctx,
			i, ch.ID, ch.Text, ch.StartIndex, string(meta), encodeVector(vectors[i]),
		); err != nil {
			return fmt.Errorf("insert chunk %d: %v: %w", i, err, domain.ErrStore)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO index_info (key, value) VALUES ('dimensions', ?)`,
		len(vectors[0]),
	); err != nil {
		return fmt.Errorf("record dimensions: %v: %w", err, domain.ErrStore)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %v: %w", err, domain.ErrStore)
	}
	return nil
}

// LoadAll reads every persisted chunk and vector, in insertion order.
func (r *Repo) LoadAll(ctx context.Context) ([]domain.Chunk, [][]float32, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, text, start_index, metadata, vector FROM chunks ORDER BY position`)
	if err != nil {
		return nil, nil, fmt.Errorf("load chunks: %v: %w", err, domain.ErrStore)
	}
	defer func() { _ = rows.Close() }()

	var chunks []domain.Chunk
	var vectors [][]float32
	for rows.Next() {
		var ch domain.Chunk
		var meta string
		var blob []byte
		if err := rows.Scan(&ch.ID, &ch.Text, &ch.StartIndex, &meta, &blob); err != nil {
			return nil, nil, fmt.Errorf("scan chunk: %v: %w", err, domain.ErrStore)
		}
		if err := json.Unmarshal([]byte(meta), &ch.Metadata); err != nil {
			return nil, nil, fmt.Errorf("unmarshal metadata: %v: %w", err, domain.ErrStore)
		}
		chunks = append(chunks, ch)
		vectors = append(vectors, decodeVector(blob))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate chunks: %v: %w", err, domain.ErrStore)
	}
	return chunks, vectors, nil
}

// Clear removes every persisted chunk. Used by explicit rebuilds only.
func (r *Repo) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return fmt.Errorf("clear chunks: %v: %w", err, domain.ErrStore)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM index_info`); err != nil {
		return fmt.Errorf("clear index info: %v: %w", err, domain.ErrStore)
	}
	return nil
}

// Close releases the database handle.
func (r *Repo) Close() error {
	return r.db.Close()
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}
