package chi

import (
	"github.com/kailas-cloud/ragstore/internal/domain"
	"github.com/kailas-cloud/ragstore/internal/domain/document"
	"github.com/kailas-cloud/ragstore/internal/domain/report"
	"github.com/kailas-cloud/ragstore/internal/domain/search/result"
	"github.com/kailas-cloud/ragstore/internal/store"
	"github.com/kailas-cloud/ragstore/internal/usecase/ingest"
)

// Error codes returned in JSON error bodies.
const (
	codeBadRequest       = "bad_request"
	codeValidation       = "validation_failed"
	codeUnauthorized     = "unauthorized"
	codeNotFound         = "document_not_found"
	codeProviderError    = "embedding_provider_error"
	codeStoreError       = "store_error"
	codeStoreUnavailable = "store_unavailable"
	codeRateLimited      = "rate_limited"
	codeInternal         = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ingestRequest struct {
	Title     string          `json:"title"`
	Text      string          `json:"text"`
	Timestamp int64           `json:"timestamp,omitempty"`
	Metadata  domain.Metadata `json:"metadata,omitempty"`
}

type ingestResponse struct {
	ID     string `json:"id"`
	Stored bool   `json:"stored"`
}

type batchRequest struct {
	Sections []ingestRequest `json:"sections"`
}

type batchItemResponse struct {
	Title           string `json:"title"`
	Status          string `json:"status"`
	ID              string `json:"id,omitempty"`
	Attempts        int    `json:"attempts,omitempty"`
	Bytes           int    `json:"bytes,omitempty"`
	EstimatedTokens int    `json:"estimated_tokens,omitempty"`
	Error           string `json:"error,omitempty"`
}

type batchResponse struct {
	Items []batchItemResponse `json:"items"`
}

type turnDTO struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type retrieveRequest struct {
	Messages []turnDTO `json:"messages"`
	TopK     int       `json:"top_k,omitempty"`
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

type resultDTO struct {
	ID          string          `json:"id"`
	Content     string          `json:"content"`
	Source      string          `json:"source"`
	Metadata    domain.Metadata `json:"metadata,omitempty"`
	DenseScore  float64         `json:"dense_score"`
	SparseScore float64         `json:"sparse_score"`
	HybridScore float64         `json:"hybrid_score"`
}

type resultsResponse struct {
	Results []resultDTO `json:"results"`
}

type documentDTO struct {
	ID       string          `json:"id"`
	Content  string          `json:"content"`
	Source   string          `json:"source"`
	Metadata domain.Metadata `json:"metadata,omitempty"`
	Created  int64           `json:"created,omitempty"`
}

type documentsResponse struct {
	Documents []documentDTO `json:"documents"`
}

type namespaceDTO struct {
	Name        string `json:"name"`
	VectorCount int    `json:"vector_count"`
}

type namespacesResponse struct {
	Namespaces []namespaceDTO `json:"namespaces"`
}

func sectionsFromDTO(reqs []ingestRequest) []ingest.Section {
	sections := make([]ingest.Section, len(reqs))
	for i, r := range reqs {
		sections[i] = ingest.Section{
			Title:    r.Title,
			Content:  r.Text,
			Created:  r.Timestamp,
			Metadata: r.Metadata,
		}
	}
	return sections
}

func batchToDTO(items []report.Section) batchResponse {
	resp := batchResponse{Items: make([]batchItemResponse, len(items))}
	for i, it := range items {
		dto := batchItemResponse{
			Title:           it.Title(),
			Status:          string(it.Status()),
			ID:              it.DocID(),
			Attempts:        it.Attempts(),
			Bytes:           it.Bytes(),
			EstimatedTokens: it.EstimatedTokens(),
		}
		if it.Err() != nil {
			dto.Error = it.Err().Error()
		}
		resp.Items[i] = dto
	}
	return resp
}

func resultsToDTO(results []result.Result) resultsResponse {
	resp := resultsResponse{Results: make([]resultDTO, len(results))}
	for i, r := range results {
		resp.Results[i] = resultDTO{
			ID:          r.ID(),
			Content:     r.Content(),
			Source:      r.Source(),
			Metadata:    r.Metadata(),
			DenseScore:  r.DenseScore(),
			SparseScore: r.SparseScore(),
			HybridScore: r.HybridScore(),
		}
	}
	return resp
}

func documentsToDTO(docs []document.Document) documentsResponse {
	resp := documentsResponse{Documents: make([]documentDTO, len(docs))}
	for i := range docs {
		resp.Documents[i] = documentToDTO(&docs[i])
	}
	return resp
}

func documentToDTO(d *document.Document) documentDTO {
	return documentDTO{
		ID:       d.ID(),
		Content:  d.Content(),
		Source:   d.Source(),
		Metadata: d.Metadata(),
		Created:  d.Created(),
	}
}

func namespacesToDTO(stats []store.NamespaceStat) namespacesResponse {
	resp := namespacesResponse{Namespaces: make([]namespaceDTO, len(stats))}
	for i, s := range stats {
		resp.Namespaces[i] = namespaceDTO{Name: s.Name, VectorCount: s.VectorCount}
	}
	return resp
}
