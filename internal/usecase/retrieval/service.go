// Package retrieval is the query facade: embed the prompt, gather dense and
// sparse candidates, fuse, and return the top results. Errors on the
// retrieval path degrade to "no results" rather than propagating to the
// caller; lifecycle operations surface their errors normally.
package retrieval

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragstore/internal/domain"
	"github.com/kailas-cloud/ragstore/internal/domain/document"
	"github.com/kailas-cloud/ragstore/internal/domain/search/result"
	"github.com/kailas-cloud/ragstore/internal/store"
	"github.com/kailas-cloud/ragstore/internal/usecase/fusion"
)

// Config holds the static retrieval settings, read at query time.
type Config struct {
	Weights    fusion.Weights
	CandidateK int
	TopK       int
}

// Service answers similarity queries over a namespace.
type Service struct {
	store  SearchStore
	dense  domain.DenseEmbedder
	sparse domain.SparseEmbedder
	cfg    Config
	logger *zap.Logger
}

// New creates the retrieval facade.
func New(
	st SearchStore, dense domain.DenseEmbedder, sparse domain.SparseEmbedder,
	cfg Config, logger *zap.Logger,
) *Service {
	return &Service{store: st, dense: dense, sparse: sparse, cfg: cfg, logger: logger}
}

// Retrieve returns the most relevant documents for a conversation. The final
// turn must be a non-empty user message; any other shape means there is
// nothing to search for and yields an empty result, not an error.
func (s *Service) Retrieve(
	ctx context.Context, namespace string, turns []domain.Turn, topK int,
) []result.Result {
	query, ok := domain.LastUserQuery(turns)
	if !ok {
		s.logger.Debug("conversation has no trailing user turn, nothing to search",
			zap.String("namespace", namespace))
		return nil
	}
	return s.search(ctx, namespace, query, topK)
}

// DebugSearch runs the identical pipeline on a literal query string, for
// diagnostic tooling.
func (s *Service) DebugSearch(
	ctx context.Context, namespace, query string, topK int,
) []result.Result {
	if query == "" {
		return nil
	}
	return s.search(ctx, namespace, query, topK)
}

func (s *Service) search(
	ctx context.Context, namespace, query string, topK int,
) []result.Result {
	if topK <= 0 {
		topK = s.cfg.TopK
	}

	denseVec, err := s.dense.EmbedDense(ctx, query)
	if err != nil {
		s.logger.Error("query embedding failed",
			zap.String("namespace", namespace),
			zap.Error(err),
		)
		return nil
	}

	// Best-effort: falls back to the local encoder, so an empty vector here
	// means the query had no tokens at all.
	sparseVec, err := s.sparse.EmbedSparse(ctx, query, domain.SparseModeQuery)
	if err != nil {
		s.logger.Warn("sparse query embedding failed", zap.Error(err))
		sparseVec = domain.SparseVector{}
	}

	denseMatches, sparseMatches := s.gather(ctx, namespace, denseVec, sparseVec)

	return fusion.Fuse(denseMatches, sparseMatches, s.cfg.Weights, topK)
}

// gather issues the dense and sparse queries concurrently; neither depends
// on the other and a failure on one side must not abort the other. Fusion
// degrades to single-signal ranking with an empty list for the failed side.
func (s *Service) gather(
	ctx context.Context, namespace string, denseVec []float32, sparseVec domain.SparseVector,
) (denseMatches, sparseMatches []result.Match) {
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		m, err := s.store.QueryDense(ctx, namespace, denseVec, s.cfg.CandidateK)
		if err != nil {
			s.logger.Error("dense query failed",
				zap.String("namespace", namespace), zap.Error(err))
			return
		}
		denseMatches = m
	}()

	if !sparseVec.IsEmpty() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := s.store.QuerySparse(ctx, namespace, sparseVec, s.cfg.CandidateK)
			if err != nil {
				s.logger.Error("sparse query failed",
					zap.String("namespace", namespace), zap.Error(err))
				return
			}
			sparseMatches = m
		}()
	}

	wg.Wait()
	return denseMatches, sparseMatches
}

// ListDocuments returns stored documents for the namespace.
func (s *Service) ListDocuments(
	ctx context.Context, namespace string, limit int,
) ([]document.Document, error) {
	docs, err := s.store.List(ctx, namespace, limit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// FetchDocument returns one stored document by id.
func (s *Service) FetchDocument(
	ctx context.Context, namespace, id string,
) (document.Document, error) {
	doc, err := s.store.Fetch(ctx, namespace, id)
	if err != nil {
		return document.Document{}, fmt.Errorf("fetch document: %w", err)
	}
	return doc, nil
}

// DeleteDocument removes one stored document by id.
func (s *Service) DeleteDocument(ctx context.Context, namespace, id string) error {
	if err := s.store.Delete(ctx, namespace, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// PurgeNamespace removes every document in the namespace.
func (s *Service) PurgeNamespace(ctx context.Context, namespace string) error {
	if err := s.store.Purge(ctx, namespace); err != nil {
		return fmt.Errorf("purge namespace: %w", err)
	}
	return nil
}

// ListNamespaces returns the known namespaces with vector counts.
func (s *Service) ListNamespaces(ctx context.Context) ([]store.NamespaceStat, error) {
	stats, err := s.store.ListNamespaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("list namespaces: %w", err)
	}
	return stats, nil
}
