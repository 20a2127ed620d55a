package domain

import "context"

// SparseMode selects the sparse encoding variant: passages at ingestion time,
// queries at retrieval time. The two modes may encode the same text
// differently.
type SparseMode string

// Sparse embedding modes.
const (
	SparseModeQuery   SparseMode = "query"
	SparseModePassage SparseMode = "passage"
)

// DenseEmbedder turns text into a fixed-dimensionality dense vector.
type DenseEmbedder interface {
	EmbedDense(ctx context.Context, text string) ([]float32, error)
}

// SparseEmbedder turns text into a sparse bag-of-terms vector. Sparse
// candidates are best-effort, so implementations degrade to a deterministic
// local encoding instead of failing when the provider is unreachable.
type SparseEmbedder interface {
	EmbedSparse(ctx context.Context, text string, mode SparseMode) (SparseVector, error)
}
