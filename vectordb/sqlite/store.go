// Package sqlite implements vectordb.VectorStore on a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/viant/sqlite-vec/vector"
	_ "modernc.org/sqlite"

	"github.com/studykit/corpus/schema"
	"github.com/studykit/corpus/vectordb"
)

// Store persists records in two tables: corpus_chunk holds embedded chunks
// with typed metadata columns, corpus_asset holds per-source ingestion
// fingerprints. Similarity is computed in Go over the filtered scope.
type Store struct {
	db            *sql.DB
	openedLocally bool
	// Concurrent reads are safe; writes are serialized to keep the
	// insert-or-ignore duplicate accounting stable.
	writeMu sync.Mutex
}

// Option configures a Store.
type Option func(*config)

type config struct {
	dsn string
	db  *sql.DB
}

// WithDSN sets the SQLite DSN to open, e.g. /path/to/corpus.db.
func WithDSN(dsn string) Option {
	return func(c *config) { c.dsn = dsn }
}

// WithDB uses an existing database handle instead of opening one.
func WithDB(db *sql.DB) Option {
	return func(c *config) { c.db = db }
}

// New opens and initializes a SQLite-backed store.
func New(opts ...Option) (*Store, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	s := &Store{db: cfg.db}
	if s.db == nil {
		if cfg.dsn == "" {
			return nil, fmt.Errorf("sqlite store: dsn required")
		}
		db, err := sql.Open("sqlite", ensurePragmas(cfg.dsn))
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(4)
		s.db = db
		s.openedLocally = true
	}
	if err := s.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database if the store opened it.
func (s *Store) Close() error {
	if s.openedLocally && s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS corpus_chunk (
			chunk_id     TEXT PRIMARY KEY,
			owner_id     TEXT NOT NULL,
			subject      TEXT NOT NULL DEFAULT '',
			chapter      TEXT NOT NULL DEFAULT '',
			source       TEXT NOT NULL,
			page         INTEGER NOT NULL,
			file_type    TEXT NOT NULL,
			content      TEXT NOT NULL,
			content_hash TEXT NOT NULL,
			embedding    BLOB NOT NULL
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS corpus_chunk_identity
			ON corpus_chunk(owner_id, subject, chapter, content_hash);`,
		`CREATE INDEX IF NOT EXISTS corpus_chunk_scope
			ON corpus_chunk(owner_id, subject, chapter);`,
		`CREATE INDEX IF NOT EXISTS corpus_chunk_neighbor
			ON corpus_chunk(owner_id, source, page);`,
		`CREATE TABLE IF NOT EXISTS corpus_asset (
			owner_id    TEXT NOT NULL,
			subject     TEXT NOT NULL DEFAULT '',
			chapter     TEXT NOT NULL DEFAULT '',
			source      TEXT NOT NULL,
			fingerprint TEXT NOT NULL,
			ingested_at TEXT NOT NULL,
			PRIMARY KEY(owner_id, subject, chapter, source)
		);`,
	}
	for _, statement := range statements {
		if _, err := s.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// AddRecords persists the batch with insert-or-ignore semantics on the
// (owner, subject, chapter, content hash) identity and returns the number
// of rows actually inserted.
func (s *Store) AddRecords(ctx context.Context, records []vectordb.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO corpus_chunk
		(chunk_id, owner_id, subject, chapter, source, page, file_type, content, content_hash, embedding)
		VALUES (?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(owner_id, subject, chapter, content_hash) DO NOTHING`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, record := range records {
		meta := record.Chunk.Metadata
		if meta.OwnerID == "" {
			return 0, fmt.Errorf("record %s: owner_id is required", meta.ChunkID)
		}
		blob, err := vector.EncodeEmbedding(record.Embedding)
		if err != nil {
			return 0, fmt.Errorf("encode embedding: %w", err)
		}
		result, err := stmt.ExecContext(ctx,
			meta.ChunkID, meta.OwnerID, meta.Subject, meta.Chapter,
			meta.Source, meta.Page, string(meta.FileType),
			record.Chunk.Content, record.ContentHash, blob)
		if err != nil {
			return 0, err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return 0, err
		}
		inserted += int(affected)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// SimilaritySearch scans the filtered scope and ranks by cosine distance.
func (s *Store) SimilaritySearch(ctx context.Context, query []float32, k int, filter vectordb.Filter) ([]vectordb.Match, error) {
	if filter.OwnerID == "" {
		return nil, fmt.Errorf("owner filter is required")
	}
	if k <= 0 {
		k = 10
	}
	where, args := filterClause(filter)
	rows, err := s.db.QueryContext(ctx, `SELECT chunk_id, owner_id, subject, chapter, source, page, file_type, content, embedding
		FROM corpus_chunk WHERE `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []vectordb.Match
	for rows.Next() {
		chunk, blob, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		embedding, err := vector.DecodeEmbedding(blob)
		if err != nil {
			return nil, fmt.Errorf("decode embedding for %s: %w", chunk.Metadata.ChunkID, err)
		}
		matches = append(matches, vectordb.Match{
			Chunk:    chunk,
			Distance: 1 - cosineSimilarity(query, embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// PageChunks returns chunks of one source page within the filter scope.
func (s *Store) PageChunks(ctx context.Context, filter vectordb.Filter, source string, page, limit int) ([]schema.Chunk, error) {
	if filter.OwnerID == "" {
		return nil, fmt.Errorf("owner filter is required")
	}
	if limit <= 0 {
		limit = 1
	}
	where, args := filterClause(filter)
	args = append(args, source, page, limit)
	rows, err := s.db.QueryContext(ctx, `SELECT chunk_id, owner_id, subject, chapter, source, page, file_type, content, embedding
		FROM corpus_chunk WHERE `+where+` AND source = ? AND page = ? ORDER BY chunk_id LIMIT ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []schema.Chunk
	for rows.Next() {
		chunk, _, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

// AssetFingerprint reports the stored fingerprint for a source document.
func (s *Store) AssetFingerprint(ctx context.Context, filter vectordb.Filter, source string) (uint64, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT fingerprint FROM corpus_asset
		WHERE owner_id = ? AND subject = ? AND chapter = ? AND source = ?`,
		filter.OwnerID, filter.Subject, filter.Chapter, source)
	var stored string
	if err := row.Scan(&stored); err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, err
	}
	fingerprint, err := strconv.ParseUint(stored, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt fingerprint %q for %s: %w", stored, source, err)
	}
	return fingerprint, true, nil
}

// SetAssetFingerprint upserts the fingerprint for a source document.
func (s *Store) SetAssetFingerprint(ctx context.Context, filter vectordb.Filter, source string, fingerprint uint64) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.db.ExecContext(ctx, `INSERT INTO corpus_asset(owner_id, subject, chapter, source, fingerprint, ingested_at)
		VALUES (?,?,?,?,?,?)
		ON CONFLICT(owner_id, subject, chapter, source) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			ingested_at = excluded.ingested_at`,
		filter.OwnerID, filter.Subject, filter.Chapter, source,
		strconv.FormatUint(fingerprint, 10), time.Now().UTC().Format(time.RFC3339))
	return err
}

func filterClause(filter vectordb.Filter) (string, []any) {
	where := "owner_id = ?"
	args := []any{filter.OwnerID}
	if filter.Subject != "" {
		where += " AND subject = ?"
		args = append(args, filter.Subject)
	}
	if filter.Chapter != "" {
		where += " AND chapter = ?"
		args = append(args, filter.Chapter)
	}
	return where, args
}

func scanChunk(rows *sql.Rows) (schema.Chunk, []byte, error) {
	var chunk schema.Chunk
	var fileType string
	var blob []byte
	err := rows.Scan(&chunk.Metadata.ChunkID, &chunk.Metadata.OwnerID, &chunk.Metadata.Subject,
		&chunk.Metadata.Chapter, &chunk.Metadata.Source, &chunk.Metadata.Page,
		&fileType, &chunk.Content, &blob)
	if err != nil {
		return schema.Chunk{}, nil, err
	}
	chunk.Metadata.FileType = schema.FileType(fileType)
	return chunk, blob, nil
}

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
	denominator := math.Sqrt(normA) * math.Sqrt(normB)
	if denominator == 0 {
		return 0
	}
	return dot / denominator
}
