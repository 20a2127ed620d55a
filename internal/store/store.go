// Package store defines the vector storage capability and its backends.
// The backend is chosen once at construction time in the composition root;
// call sites never branch on which implementation is active.
package store

import (
	"context"

	"github.com/kailas-cloud/ragstore/internal/domain"
	"github.com/kailas-cloud/ragstore/internal/domain/document"
	"github.com/kailas-cloud/ragstore/internal/domain/search/result"
)

// NamespaceStat is a namespace with its stored vector count.
type NamespaceStat struct {
	Name        string
	VectorCount int
}

// VectorStore persists and queries document vectors. All operations are
// scoped to a namespace; there are no cross-namespace queries.
type VectorStore interface {
	// Upsert writes the document's dense and sparse vectors together with
	// its flattened metadata. Idempotent on the content-derived id.
	Upsert(ctx context.Context, doc *document.Document) error

	// QueryDense returns up to topK candidates ranked by dense similarity.
	QueryDense(ctx context.Context, namespace string, vector []float32, topK int) ([]result.Match, error)

	// QuerySparse returns up to topK candidates ranked by sparse relevance.
	// Backends without sparse support return an empty list, not an error.
	QuerySparse(ctx context.Context, namespace string, vector domain.SparseVector, topK int) ([]result.Match, error)

	// HasContent reports whether a document with the given content hash
	// already exists in the namespace (the dedup check).
	HasContent(ctx context.Context, namespace, hash string) (bool, error)

	// Fetch returns a stored document by id, domain.ErrNotFound if absent.
	Fetch(ctx context.Context, namespace, id string) (document.Document, error)

	// Delete removes one document by id.
	Delete(ctx context.Context, namespace, id string) error

	// Purge removes every document in the namespace.
	Purge(ctx context.Context, namespace string) error

	// List returns up to limit documents from the namespace. Completeness
	// is best-effort on backends without a native list primitive.
	List(ctx context.Context, namespace string, limit int) ([]document.Document, error)

	// ListNamespaces returns the known namespaces with their vector counts.
	ListNamespaces(ctx context.Context) ([]NamespaceStat, error)

	// Close releases backend resources.
	Close() error
}
