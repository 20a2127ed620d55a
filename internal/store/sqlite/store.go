// Package sqlite implements the relational fallback store, used when the
// remote vector index is not configured. Dense vectors are serialized as
// JSON text and similarity is computed in-process, which is O(namespace
// size) per query, a documented scalability ceiling of the fallback path.
// There is no sparse support: sparse queries return no candidates and
// ranking degrades to dense-only.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // database/sql driver

	"github.com/kailas-cloud/ragstore/internal/domain"
	"github.com/kailas-cloud/ragstore/internal/domain/document"
	"github.com/kailas-cloud/ragstore/internal/domain/search/result"
	"github.com/kailas-cloud/ragstore/internal/metrics"
	"github.com/kailas-cloud/ragstore/internal/store"
)

const backend = "sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS context_documents (
	id               TEXT    NOT NULL,
	namespace        TEXT    NOT NULL,
	content          TEXT    NOT NULL,
	content_type     TEXT    NOT NULL DEFAULT 'text',
	vector_embedding TEXT    NOT NULL,
	hash             TEXT    NOT NULL,
	source           TEXT,
	metadata         TEXT,
	created          INTEGER NOT NULL,
	PRIMARY KEY (namespace, id)
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_context_documents_ns_hash
	ON context_documents (namespace, hash);
`

// Store is the relational fallback vector store.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// New opens (or creates) the database at path and ensures the schema.
func New(path string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// Single writer; sqlite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

var _ store.VectorStore = (*Store)(nil)

// Upsert stores the document with its dense vector serialized as JSON.
// Insert is skipped silently when the content hash is already present in the
// namespace; the skip is logged, not an error.
func (s *Store) Upsert(ctx context.Context, doc *document.Document) error {
	start := time.Now()
	err := s.upsert(ctx, doc)
	metrics.ObserveStoreOp(backend, "upsert", time.Since(start).Seconds(), err)
	return err
}

func (s *Store) upsert(ctx context.Context, doc *document.Document) error {
	exists, err := s.HasContent(ctx, doc.Namespace(), doc.ID())
	if err != nil {
		return err
	}
	if exists {
		s.logger.Debug("duplicate content, skipping insert",
			zap.String("namespace", doc.Namespace()),
			zap.String("hash", doc.ID()),
		)
		return nil
	}

	vec, err := json.Marshal(doc.DenseVector())
	if err != nil {
		return fmt.Errorf("encode vector: %w", err)
	}
	meta, err := json.Marshal(doc.Metadata())
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO context_documents
			(id, namespace, content, content_type, vector_embedding, hash, source, metadata, created)
		VALUES (?, ?, ?, 'text', ?, ?, ?, ?, ?)`,
		doc.ID(), doc.Namespace(), doc.Content(), string(vec),
		doc.ID(), doc.Source(), string(meta), doc.Created(),
	)
	if err != nil {
		return fmt.Errorf("insert document: %v: %w", err, domain.ErrStoreFailure)
	}
	return nil
}

// QueryDense loads every row in the namespace and ranks by in-process cosine
// similarity.
func (s *Store) QueryDense(
	ctx context.Context, namespace string, vector []float32, topK int,
) ([]result.Match, error) {
	start := time.Now()
	matches, err := s.queryDense(ctx, namespace, vector, topK)
	metrics.ObserveStoreOp(backend, "query_dense", time.Since(start).Seconds(), err)
	return matches, err
}

func (s *Store) queryDense(
	ctx context.Context, namespace string, vector []float32, topK int,
) ([]result.Match, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, source, metadata, created, vector_embedding
		FROM context_documents WHERE namespace = ?`, namespace)
	if err != nil {
		return nil, fmt.Errorf("select namespace %s: %v: %w", namespace, err, domain.ErrStoreFailure)
	}
	defer func() { _ = rows.Close() }()

	var matches []result.Match
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, err
		}

		var docVec []float32
		if err := json.Unmarshal([]byte(row.vector), &docVec); err != nil {
			// A corrupt row should not sink the whole query.
			s.logger.Warn("skipping row with unreadable vector",
				zap.String("namespace", namespace),
				zap.String("id", row.id),
			)
			continue
		}

		score := cosine(vector, docVec)
		matches = append(matches, result.NewMatch(row.id, score, row.storageMetadata()))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan namespace %s: %v: %w", namespace, err, domain.ErrStoreFailure)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score() > matches[j].Score()
	})
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// QuerySparse has no relational implementation; ranking degrades to
// dense-only.
func (s *Store) QuerySparse(
	context.Context, string, domain.SparseVector, int,
) ([]result.Match, error) {
	return nil, nil
}

// HasContent reports whether the content hash exists in the namespace.
func (s *Store) HasContent(ctx context.Context, namespace, hash string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM context_documents WHERE namespace = ? AND hash = ?`,
		namespace, hash).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("dedup check: %v: %w", err, domain.ErrStoreFailure)
	}
	return true, nil
}

// Fetch returns one stored document by id.
func (s *Store) Fetch(ctx context.Context, namespace, id string) (document.Document, error) {
	start := time.Now()
	doc, err := s.fetch(ctx, namespace, id)
	metrics.ObserveStoreOp(backend, "fetch", time.Since(start).Seconds(), err)
	return doc, err
}

func (s *Store) fetch(ctx context.Context, namespace, id string) (document.Document, error) {
	r := s.db.QueryRowContext(ctx, `
		SELECT id, content, source, metadata, created, vector_embedding
		FROM context_documents WHERE namespace = ? AND id = ?`, namespace, id)

	row, err := scanRow(r)
	if errors.Is(err, sql.ErrNoRows) {
		return document.Document{}, fmt.Errorf("id %s in namespace %s: %w", id, namespace, domain.ErrNotFound)
	}
	if err != nil {
		return document.Document{}, err
	}

	var vec []float32
	_ = json.Unmarshal([]byte(row.vector), &vec)

	return document.Reconstruct(
		row.id, namespace, row.content, row.source.String,
		row.metadata(), row.created, vec, domain.SparseVector{},
	), nil
}

// Delete removes one document.
func (s *Store) Delete(ctx context.Context, namespace, id string) error {
	start := time.Now()
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM context_documents WHERE namespace = ? AND id = ?`, namespace, id)
	metrics.ObserveStoreOp(backend, "delete", time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("delete document: %v: %w", err, domain.ErrStoreFailure)
	}
	return nil
}

// Purge removes every document in the namespace.
func (s *Store) Purge(ctx context.Context, namespace string) error {
	start := time.Now()
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM context_documents WHERE namespace = ?`, namespace)
	metrics.ObserveStoreOp(backend, "purge", time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("purge namespace: %v: %w", err, domain.ErrStoreFailure)
	}
	return nil
}

// List returns up to limit documents, newest first.
func (s *Store) List(ctx context.Context, namespace string, limit int) ([]document.Document, error) {
	start := time.Now()
	docs, err := s.list(ctx, namespace, limit)
	metrics.ObserveStoreOp(backend, "list", time.Since(start).Seconds(), err)
	return docs, err
}

func (s *Store) list(ctx context.Context, namespace string, limit int) ([]document.Document, error) {
	if limit <= 0 {
		limit = 5000
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, source, metadata, created, vector_embedding
		FROM context_documents WHERE namespace = ?
		ORDER BY created DESC LIMIT ?`, namespace, limit)
	if err != nil {
		return nil, fmt.Errorf("list namespace %s: %v: %w", namespace, err, domain.ErrStoreFailure)
	}
	defer func() { _ = rows.Close() }()

	var docs []document.Document
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, document.Reconstruct(
			row.id, namespace, row.content, row.source.String,
			row.metadata(), row.created, nil, domain.SparseVector{},
		))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan list: %v: %w", err, domain.ErrStoreFailure)
	}
	return docs, nil
}

// ListNamespaces returns the stored namespaces with their document counts.
func (s *Store) ListNamespaces(ctx context.Context) ([]store.NamespaceStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT namespace, COUNT(*) FROM context_documents GROUP BY namespace`)
	if err != nil {
		return nil, fmt.Errorf("list namespaces: %v: %w", err, domain.ErrStoreFailure)
	}
	defer func() { _ = rows.Close() }()

	var out []store.NamespaceStat
	for rows.Next() {
		var ns store.NamespaceStat
		if err := rows.Scan(&ns.Name, &ns.VectorCount); err != nil {
			return nil, fmt.Errorf("scan namespace: %v: %w", err, domain.ErrStoreFailure)
		}
		out = append(out, ns)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan namespaces: %v: %w", err, domain.ErrStoreFailure)
	}
	return out, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}

// docRow is one scanned table row.
type docRow struct {
	id       string
	content  string
	source   sql.NullString
	metaJSON sql.NullString
	created  int64
	vector   string
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(r scanner) (docRow, error) {
	var row docRow
	err := r.Scan(&row.id, &row.content, &row.source, &row.metaJSON, &row.created, &row.vector)
	if errors.Is(err, sql.ErrNoRows) {
		return docRow{}, err
	}
	if err != nil {
		return docRow{}, fmt.Errorf("scan row: %v: %w", err, domain.ErrStoreFailure)
	}
	return row, nil
}

func (r docRow) metadata() domain.Metadata {
	if !r.metaJSON.Valid || r.metaJSON.String == "" {
		return nil
	}
	var m domain.Metadata
	if err := json.Unmarshal([]byte(r.metaJSON.String), &m); err != nil {
		return nil
	}
	return m
}

// storageMetadata mirrors the payload shape the primary store attaches to
// matches, so fusion sees identical metadata regardless of backend.
func (r docRow) storageMetadata() domain.Metadata {
	out := domain.Metadata{
		"content":   r.content,
		"source":    r.source.String,
		"hash":      r.id,
		"timestamp": r.created,
	}
	for k, v := range r.metadata() {
		out[k] = v
	}
	return out
}
