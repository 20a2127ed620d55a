package retrieval

import (
	"context"

	"github.com/kailas-cloud/ragstore/internal/domain"
	"github.com/kailas-cloud/ragstore/internal/domain/document"
	"github.com/kailas-cloud/ragstore/internal/domain/search/result"
	"github.com/kailas-cloud/ragstore/internal/store"
)

// SearchStore is the storage surface the retrieval facade consumes.
type SearchStore interface {
	QueryDense(ctx context.Context, namespace string, vector []float32, topK int) ([]result.Match, error)
	QuerySparse(ctx context.Context, namespace string, vector domain.SparseVector, topK int) ([]result.Match, error)
	Fetch(ctx context.Context, namespace, id string) (document.Document, error)
	Delete(ctx context.Context, namespace, id string) error
	Purge(ctx context.Context, namespace string) error
	List(ctx context.Context, namespace string, limit int) ([]document.Document, error)
	ListNamespaces(ctx context.Context) ([]store.NamespaceStat, error)
}
