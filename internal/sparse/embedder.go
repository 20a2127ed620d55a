package sparse

import (
	"context"

	"github.com/kailas-cloud/ragstore/internal/domain"
)

// Embedder adapts the local encoder to domain.SparseEmbedder for deployments
// without a remote sparse provider. The encoding ignores the mode: the local
// TF scheme has no separate query and passage variants.
type Embedder struct{}

// EmbedSparse implements domain.SparseEmbedder.
func (Embedder) EmbedSparse(_ context.Context, text string, _ domain.SparseMode) (domain.SparseVector, error) {
	return Encode(text), nil
}
