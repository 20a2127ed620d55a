// Package pinecone implements the primary vector store: a remote index
// service split into two physical indexes (dense and sparse) addressed by
// namespace. The two indexes are written and queried independently; there is
// no cross-index transaction, so a failed partner write can leave a
// one-sided document. Queries tolerate one-sided presence by design.
package pinecone

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragstore/internal/domain"
	"github.com/kailas-cloud/ragstore/internal/domain/document"
	"github.com/kailas-cloud/ragstore/internal/domain/search/result"
	"github.com/kailas-cloud/ragstore/internal/metrics"
	"github.com/kailas-cloud/ragstore/internal/store"
	pctransport "github.com/kailas-cloud/ragstore/internal/transport/pinecone"
)

const backend = "pinecone"

// serverlessHost matches deployment tiers whose stats endpoint cannot be
// used for listing.
var serverlessHost = regexp.MustCompile(`(?i)\.svc\.|gcp-.*\.pinecone\.io$`)

// Store is the remote dense+sparse index pair.
type Store struct {
	client     *pctransport.Client
	denseHost  string
	sparseHost string
	dimensions int
	listLimit  int
	logger     *zap.Logger
}

// Config holds the index pair settings.
type Config struct {
	DenseHost  string
	SparseHost string
	Dimensions int
	ListLimit  int
	Logger     *zap.Logger
}

// New creates the primary store.
func New(client *pctransport.Client, cfg Config) *Store {
	return &Store{
		client:     client,
		denseHost:  cfg.DenseHost,
		sparseHost: cfg.SparseHost,
		dimensions: cfg.Dimensions,
		listLimit:  cfg.ListLimit,
		logger:     cfg.Logger,
	}
}

var _ store.VectorStore = (*Store)(nil)

// Upsert writes the dense vector to the dense index and the sparse vector to
// the sparse index, both under the same id and with identical flattened
// metadata. The writes are independent network calls.
func (s *Store) Upsert(ctx context.Context, doc *document.Document) error {
	start := time.Now()
	err := s.upsert(ctx, doc)
	metrics.ObserveStoreOp(backend, "upsert", time.Since(start).Seconds(), err)
	return err
}

func (s *Store) upsert(ctx context.Context, doc *document.Document) error {
	meta := doc.StorageMetadata()

	denseReq := upsertRequest{
		Namespace: doc.Namespace(),
		Vectors: []vectorPayload{{
			ID:       doc.ID(),
			Values:   doc.DenseVector(),
			Metadata: meta,
		}},
	}
	if err := s.client.Post(ctx, s.denseHost, "/vectors/upsert", denseReq, nil); err != nil {
		return fmt.Errorf("dense upsert: %w", err)
	}

	sv := doc.SparseVector()
	sparseReq := upsertRequest{
		Namespace: doc.Namespace(),
		Vectors: []vectorPayload{{
			ID:           doc.ID(),
			SparseValues: &sparseValues{Indices: sv.Indices, Values: sv.Values},
			Metadata:     meta,
		}},
	}
	if err := s.client.Post(ctx, s.sparseHost, "/vectors/upsert", sparseReq, nil); err != nil {
		// The dense write already persisted; re-ingesting the same content
		// overwrites both sides, so surface the id for the operator.
		s.logger.Error("sparse upsert failed after dense write persisted",
			zap.String("namespace", doc.Namespace()),
			zap.String("id", doc.ID()),
			zap.Error(err),
		)
		return fmt.Errorf("sparse upsert: %w", err)
	}

	return nil
}

// QueryDense returns ranked candidates from the dense index.
func (s *Store) QueryDense(
	ctx context.Context, namespace string, vector []float32, topK int,
) ([]result.Match, error) {
	start := time.Now()
	matches, err := s.query(ctx, s.denseHost, queryRequest{
		Namespace:       namespace,
		TopK:            topK,
		Vector:          vector,
		IncludeMetadata: true,
	})
	metrics.ObserveStoreOp(backend, "query_dense", time.Since(start).Seconds(), err)
	return matches, err
}

// QuerySparse returns ranked candidates from the sparse index.
func (s *Store) QuerySparse(
	ctx context.Context, namespace string, vector domain.SparseVector, topK int,
) ([]result.Match, error) {
	start := time.Now()
	matches, err := s.query(ctx, s.sparseHost, queryRequest{
		Namespace:       namespace,
		TopK:            topK,
		SparseVector:    &sparseValues{Indices: vector.Indices, Values: vector.Values},
		IncludeMetadata: true,
	})
	metrics.ObserveStoreOp(backend, "query_sparse", time.Since(start).Seconds(), err)
	return matches, err
}

func (s *Store) query(ctx context.Context, host string, req queryRequest) ([]result.Match, error) {
	var resp queryResponse
	if err := s.client.Post(ctx, host, "/query", req, &resp); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	matches := make([]result.Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		matches = append(matches, result.NewMatch(m.ID, m.Score, m.Metadata))
	}
	return matches, nil
}

// HasContent reports whether the content hash is already stored. The id is
// the hash, so this is a point fetch against the dense index. A failed check
// reports not-found: the subsequent upsert is idempotent on the id, so a
// duplicate write is harmless while a skipped ingest would lose data.
func (s *Store) HasContent(ctx context.Context, namespace, hash string) (bool, error) {
	var resp fetchResponse
	err := s.client.Post(ctx, s.denseHost, "/vectors/fetch",
		fetchRequest{Namespace: namespace, IDs: []string{hash}}, &resp)
	if err != nil {
		s.logger.Warn("dedup fetch failed, assuming new content",
			zap.String("namespace", namespace),
			zap.Error(err),
		)
		return false, nil
	}
	_, ok := resp.Vectors[hash]
	return ok, nil
}

// Fetch returns one stored document by id.
func (s *Store) Fetch(ctx context.Context, namespace, id string) (document.Document, error) {
	start := time.Now()
	doc, err := s.fetch(ctx, namespace, id)
	metrics.ObserveStoreOp(backend, "fetch", time.Since(start).Seconds(), err)
	return doc, err
}

func (s *Store) fetch(ctx context.Context, namespace, id string) (document.Document, error) {
	var resp fetchResponse
	err := s.client.Post(ctx, s.denseHost, "/vectors/fetch",
		fetchRequest{Namespace: namespace, IDs: []string{id}}, &resp)
	if err != nil {
		return document.Document{}, fmt.Errorf("fetch: %w", err)
	}

	vec, ok := resp.Vectors[id]
	if !ok {
		return document.Document{}, fmt.Errorf("id %s in namespace %s: %w", id, namespace, domain.ErrNotFound)
	}

	return hydrate(namespace, id, vec.Metadata, vec.Values), nil
}

// Delete removes a document from both indexes. Each side is attempted even
// if the other fails.
func (s *Store) Delete(ctx context.Context, namespace, id string) error {
	start := time.Now()
	err := s.deleteBoth(ctx, deleteRequest{Namespace: namespace, IDs: []string{id}})
	metrics.ObserveStoreOp(backend, "delete", time.Since(start).Seconds(), err)
	return err
}

// Purge removes every vector in the namespace from both indexes.
func (s *Store) Purge(ctx context.Context, namespace string) error {
	start := time.Now()
	err := s.deleteBoth(ctx, deleteRequest{Namespace: namespace, DeleteAll: true})
	metrics.ObserveStoreOp(backend, "purge", time.Since(start).Seconds(), err)
	return err
}

func (s *Store) deleteBoth(ctx context.Context, req deleteRequest) error {
	denseErr := s.client.Post(ctx, s.denseHost, "/vectors/delete", req, nil)
	sparseErr := s.client.Post(ctx, s.sparseHost, "/vectors/delete", req, nil)

	if denseErr != nil || sparseErr != nil {
		return fmt.Errorf("delete: %w", errors.Join(denseErr, sparseErr))
	}
	return nil
}

// List returns up to limit documents from the namespace. The index has no
// native list primitive, so this probes with an all-zero vector after
// reading the namespace's vector count, best-effort for large namespaces.
// Serverless tiers cannot serve the stats call at all and yield an empty
// list rather than an error.
func (s *Store) List(ctx context.Context, namespace string, limit int) ([]document.Document, error) {
	start := time.Now()
	docs, err := s.list(ctx, namespace, limit)
	if errors.Is(err, domain.ErrListingUnsupported) {
		// Degrade to an empty listing rather than failing the caller.
		s.logger.Debug("listing unsupported on serverless host", zap.String("host", s.denseHost))
		err = nil
	}
	metrics.ObserveStoreOp(backend, "list", time.Since(start).Seconds(), err)
	return docs, err
}

func (s *Store) list(ctx context.Context, namespace string, limit int) ([]document.Document, error) {
	if serverlessHost.MatchString(s.denseHost) {
		return nil, fmt.Errorf("host %s: %w", s.denseHost, domain.ErrListingUnsupported)
	}

	var stats statsResponse
	if err := s.client.Post(ctx, s.denseHost, "/describe_index_stats", struct{}{}, &stats); err != nil {
		return nil, fmt.Errorf("index stats: %w", err)
	}

	ns, ok := stats.Namespaces[namespace]
	if !ok || ns.VectorCount == 0 {
		return nil, nil
	}

	if limit <= 0 || limit > s.listLimit {
		limit = s.listLimit
	}
	if limit > ns.VectorCount {
		limit = ns.VectorCount
	}

	probe := make([]float32, s.dimensions)
	var resp queryResponse
	err := s.client.Post(ctx, s.denseHost, "/query", queryRequest{
		Namespace:       namespace,
		TopK:            limit,
		Vector:          probe,
		IncludeMetadata: true,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("probe query: %w", err)
	}

	docs := make([]document.Document, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		docs = append(docs, hydrate(namespace, m.ID, m.Metadata, nil))
	}
	return docs, nil
}

// ListNamespaces returns the namespaces known to the dense index.
func (s *Store) ListNamespaces(ctx context.Context) ([]store.NamespaceStat, error) {
	var stats statsResponse
	if err := s.client.Post(ctx, s.denseHost, "/describe_index_stats", struct{}{}, &stats); err != nil {
		return nil, fmt.Errorf("index stats: %w", err)
	}

	out := make([]store.NamespaceStat, 0, len(stats.Namespaces))
	for name, ns := range stats.Namespaces {
		out = append(out, store.NamespaceStat{Name: name, VectorCount: ns.VectorCount})
	}
	return out, nil
}

// Close implements store.VectorStore; the HTTP client holds no resources.
func (s *Store) Close() error { return nil }

// hydrate rebuilds a document from index metadata. The stored payload keeps
// content, source, hash and timestamp alongside the caller's extra fields.
func hydrate(namespace, id string, meta domain.Metadata, dense []float32) document.Document {
	extra := make(domain.Metadata)
	for k, v := range meta {
		switch k {
		case "content", "source", "hash", "timestamp":
		default:
			extra[k] = v
		}
	}

	var created int64
	switch ts := meta["timestamp"].(type) {
	case float64:
		created = int64(ts)
	case int64:
		created = ts
	}

	return document.Reconstruct(
		id, namespace,
		meta.StringValue("content"), meta.StringValue("source"),
		extra, created, dense, domain.SparseVector{},
	)
}
