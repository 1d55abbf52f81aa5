package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	"entrenai/models"
)

// ErrDimensionMismatch is returned when a vector's length differs from the
// dimension the course collection was created with, or when ensure is called
// with a different dimension than already configured.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Store owns the per-course chunk tables and the global file tracker on a
// pgvector-enabled Postgres. All writes are transactional per call.
type Store struct {
	db  *sql.DB
	dim int
}

// NewStore bootstraps the vector extension and the tracker table, then returns
// a store configured for the given embedding dimension.
func NewStore(ctx context.Context, db *sql.DB, dim int) (*Store, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive, got %d", dim)
	}

	if _, err := db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return nil, fmt.Errorf("failed to create vector extension: %w", err)
	}

	const trackerDDL = `
		CREATE TABLE IF NOT EXISTS course_file_tracker (
			course_id          BIGINT NOT NULL,
			file_identifier    TEXT   NOT NULL,
			source_modified_at BIGINT NOT NULL,
			processed_at       BIGINT NOT NULL,
			PRIMARY KEY (course_id, file_identifier)
		)
	`
	if _, err := db.ExecContext(ctx, trackerDDL); err != nil {
		return nil, fmt.Errorf("failed to create tracker table: %w", err)
	}

	return &Store{db: db, dim: dim}, nil
}

// chunkTable returns the per-course table name. The identifier is derived
// from an integer id only, so it is safe to interpolate.
func chunkTable(courseID int64) string {
	return fmt.Sprintf("course_%d_chunks", courseID)
}

// EnsureCollection idempotently creates the per-course chunk table and its
// cosine similarity index. Calling it again with a different dimension than
// the existing table is an ErrDimensionMismatch.
func (s *Store) EnsureCollection(ctx context.Context, courseID int64) error {
	table := chunkTable(courseID)

	var existing sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT a.atttypmod
		FROM pg_attribute a
		WHERE a.attrelid = to_regclass($1) AND a.attname = 'embedding'
	`, table).Scan(&existing)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to inspect collection %s: %w", table, err)
	}
	if err == nil && existing.Valid {
		// pgvector stores the dimension in the column typmod.
		if int(existing.Int64) != s.dim {
			return fmt.Errorf("%w: collection %s has dimension %d, configured %d",
				ErrDimensionMismatch, table, existing.Int64, s.dim)
		}
		return nil
	}

	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id          TEXT PRIMARY KEY,
			course_id   TEXT NOT NULL,
			document_id TEXT NOT NULL,
			text        TEXT NOT NULL,
			metadata    JSONB,
			embedding   vector(%d)
		)
	`, table, s.dim)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", table, err)
	}

	idx := fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s USING hnsw (embedding vector_cosine_ops)`,
		table, table,
	)
	if _, err := s.db.ExecContext(ctx, idx); err != nil {
		return fmt.Errorf("failed to create similarity index on %s: %w", table, err)
	}

	// Chunks for a withdrawn document are looked up by document_id.
	docIdx := fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS %s_document_idx ON %s (document_id)`,
		table, table,
	)
	if _, err := s.db.ExecContext(ctx, docIdx); err != nil {
		return fmt.Errorf("failed to create document index on %s: %w", table, err)
	}

	return nil
}

// validateChunks rejects a batch containing any vector whose length differs
// from the configured dimension, before anything is written.
func validateChunks(chunks []models.DocumentChunk, dim int) error {
	for i := range chunks {
		if len(chunks[i].Embedding) != dim {
			return fmt.Errorf("%w: chunk %s has %d dimensions, collection expects %d",
				ErrDimensionMismatch, chunks[i].ID, len(chunks[i].Embedding), dim)
		}
	}
	return nil
}

// Upsert inserts or replaces chunks keyed by id, atomically per batch.
func (s *Store) Upsert(ctx context.Context, courseID int64, chunks []models.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := validateChunks(chunks, s.dim); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin upsert: %w", err)
	}

	if err := upsertChunks(ctx, tx, courseID, chunks); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ReplaceFileChunks atomically removes every chunk of one document and writes
// the new set. Reprocessing a modified file goes through here so chunks from
// the previous version never survive, even when the new set is smaller or empty.
func (s *Store) ReplaceFileChunks(ctx context.Context, courseID int64, documentID string, chunks []models.DocumentChunk) error {
	if err := validateChunks(chunks, s.dim); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin replace: %w", err)
	}

	del := fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, chunkTable(courseID))
	if _, err := tx.ExecContext(ctx, del, documentID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to delete old chunks for %s: %w", documentID, err)
	}

	if err := upsertChunks(ctx, tx, courseID, chunks); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func upsertChunks(ctx context.Context, tx *sql.Tx, courseID int64, chunks []models.DocumentChunk) error {
	q := fmt.Sprintf(`
		INSERT INTO %s (id, course_id, document_id, text, metadata, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			course_id   = EXCLUDED.course_id,
			document_id = EXCLUDED.document_id,
			text        = EXCLUDED.text,
			metadata    = EXCLUDED.metadata,
			embedding   = EXCLUDED.embedding
	`, chunkTable(courseID))

	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for i := range chunks {
		ch := &chunks[i]
		meta, err := json.Marshal(ch.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata for chunk %s: %w", ch.ID, err)
		}
		vec := pgvector.NewVector(ch.Embedding)
		if _, err := stmt.ExecContext(ctx, ch.ID, ch.CourseID, ch.DocumentID, ch.Text, meta, vec); err != nil {
			return fmt.Errorf("failed to upsert chunk %s: %w", ch.ID, err)
		}
	}
	return nil
}

// Search returns the topK most similar chunks, highest score first. Score is
// 1 - cosine_distance.
func (s *Store) Search(ctx context.Context, courseID int64, queryVec []float32, topK int) ([]models.SearchResult, error) {
	if len(queryVec) != s.dim {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, collection expects %d",
			ErrDimensionMismatch, len(queryVec), s.dim)
	}
	if topK <= 0 {
		topK = 5
	}

	q := fmt.Sprintf(`
		SELECT id, document_id, text, metadata, 1 - (embedding <=> $1) AS score
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2
	`, chunkTable(courseID))

	vec := pgvector.NewVector(queryVec)
	rows, err := s.db.QueryContext(ctx, q, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer rows.Close()

	var out []models.SearchResult
	for rows.Next() {
		var (
			r    models.SearchResult
			meta []byte
		)
		if err := rows.Scan(&r.ID, &r.DocumentID, &r.Text, &meta, &r.Score); err != nil {
			return nil, fmt.Errorf("failed to scan search row: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &r.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode metadata for chunk %s: %w", r.ID, err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetProcessedFile returns the tracker record for a file, or nil when the file
// has never been successfully processed.
func (s *Store) GetProcessedFile(ctx context.Context, courseID int64, fileIdentifier string) (*models.ProcessedFileRecord, error) {
	const q = `
		SELECT course_id, file_identifier, source_modified_at, processed_at
		FROM course_file_tracker
		WHERE course_id = $1 AND file_identifier = $2
	`
	var rec models.ProcessedFileRecord
	err := s.db.QueryRowContext(ctx, q, courseID, fileIdentifier).Scan(
		&rec.CourseID, &rec.FileIdentifier, &rec.SourceModifiedAt, &rec.ProcessedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("tracker lookup failed: %w", err)
	}
	return &rec, nil
}

// MarkProcessed upserts the tracker record. This is always the last step of a
// successful file task; a task that failed earlier never reaches it.
func (s *Store) MarkProcessed(ctx context.Context, courseID int64, fileIdentifier string, sourceModifiedAt int64) error {
	const q = `
		INSERT INTO course_file_tracker (course_id, file_identifier, source_modified_at, processed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (course_id, file_identifier) DO UPDATE SET
			source_modified_at = EXCLUDED.source_modified_at,
			processed_at       = EXCLUDED.processed_at
	`
	if _, err := s.db.ExecContext(ctx, q, courseID, fileIdentifier, sourceModifiedAt, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to mark %s processed: %w", fileIdentifier, err)
	}
	return nil
}

// DeleteFile removes all chunks of a document and its tracker record, used
// when a teacher withdraws a file from the index.
func (s *Store) DeleteFile(ctx context.Context, courseID int64, fileIdentifier string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete: %w", err)
	}

	del := fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, chunkTable(courseID))
	if _, err := tx.ExecContext(ctx, del, fileIdentifier); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to delete chunks for %s: %w", fileIdentifier, err)
	}

	const delTracker = `DELETE FROM course_file_tracker WHERE course_id = $1 AND file_identifier = $2`
	if _, err := tx.ExecContext(ctx, delTracker, courseID, fileIdentifier); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to delete tracker record for %s: %w", fileIdentifier, err)
	}

	return tx.Commit()
}
