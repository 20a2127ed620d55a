package pinecone

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragstore/internal/domain"
	"github.com/kailas-cloud/ragstore/internal/metrics"
	"github.com/kailas-cloud/ragstore/internal/sparse"
)

// sparseModel is the hosted sparse-embedding model.
const sparseModel = "pinecone-sparse-english-v0"

// SparseEmbedder produces sparse vectors via the hosted inference endpoint,
// degrading to the deterministic local TF encoder when the call fails.
// Sparse candidates are best-effort, so callers never see a provider error.
type SparseEmbedder struct {
	client *Client
	host   string
	logger *zap.Logger
}

// NewSparseEmbedder creates a sparse embedding provider.
func NewSparseEmbedder(client *Client, host string, logger *zap.Logger) *SparseEmbedder {
	return &SparseEmbedder{client: client, host: host, logger: logger}
}

type embedRequest struct {
	Model      string          `json:"model"`
	Parameters embedParameters `json:"parameters"`
	Inputs     []embedInput    `json:"inputs"`
}

type embedParameters struct {
	InputType string `json:"input_type"`
	Truncate  string `json:"truncate"`
}

type embedInput struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Data []struct {
		SparseIndices []uint32  `json:"sparse_indices"`
		SparseValues  []float32 `json:"sparse_values"`
	} `json:"data"`
}

// EmbedSparse implements domain.SparseEmbedder.
func (e *SparseEmbedder) EmbedSparse(
	ctx context.Context, text string, mode domain.SparseMode,
) (domain.SparseVector, error) {
	v, err := e.embedRemote(ctx, text, mode)
	if err != nil {
		e.logger.Warn("sparse embedding failed, using local fallback",
			zap.String("mode", string(mode)),
			zap.Error(err),
		)
		metrics.SparseFallbackTotal.Inc()
		return sparse.Encode(text), nil
	}
	return v, nil
}

func (e *SparseEmbedder) embedRemote(
	ctx context.Context, text string, mode domain.SparseMode,
) (domain.SparseVector, error) {
	req := embedRequest{
		Model: sparseModel,
		Parameters: embedParameters{
			InputType: string(mode),
			Truncate:  "END",
		},
		Inputs: []embedInput{{Text: text}},
	}

	var resp embedResponse
	if err := e.client.Post(ctx, e.host, "/embed", req, &resp); err != nil {
		return domain.SparseVector{}, err
	}

	if len(resp.Data) == 0 || len(resp.Data[0].SparseIndices) != len(resp.Data[0].SparseValues) {
		return domain.SparseVector{}, fmt.Errorf(
			"unexpected sparse embedding response shape: %w", domain.ErrEmbeddingProviderError)
	}

	// The index rejects weights outside [0,1].
	values := make([]float32, len(resp.Data[0].SparseValues))
	for i, v := range resp.Data[0].SparseValues {
		values[i] = clamp01(v)
	}

	v := domain.SparseVector{
		Indices: resp.Data[0].SparseIndices,
		Values:  values,
	}
	return v.Normalized(), nil
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
