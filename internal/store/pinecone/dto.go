package pinecone

import "github.com/kailas-cloud/ragstore/internal/domain"

// Wire types for the remote index JSON API.

type sparseValues struct {
	Indices []uint32  `json:"indices"`
	Values  []float32 `json:"values"`
}

type vectorPayload struct {
	ID           string          `json:"id"`
	Values       []float32       `json:"values,omitempty"`
	SparseValues *sparseValues   `json:"sparse_values,omitempty"`
	Metadata     domain.Metadata `json:"metadata,omitempty"`
}

type upsertRequest struct {
	Namespace string          `json:"namespace"`
	Vectors   []vectorPayload `json:"vectors"`
}

type queryRequest struct {
	Namespace       string        `json:"namespace"`
	TopK            int           `json:"topK"`
	Vector          []float32     `json:"vector,omitempty"`
	SparseVector    *sparseValues `json:"sparseVector,omitempty"`
	IncludeMetadata bool          `json:"includeMetadata"`
}

type queryMatch struct {
	ID       string          `json:"id"`
	Score    float64         `json:"score"`
	Metadata domain.Metadata `json:"metadata"`
}

type queryResponse struct {
	Matches []queryMatch `json:"matches"`
}

type fetchRequest struct {
	Namespace string   `json:"namespace"`
	IDs       []string `json:"ids"`
}

type fetchedVector struct {
	ID       string          `json:"id"`
	Values   []float32       `json:"values"`
	Metadata domain.Metadata `json:"metadata"`
}

type fetchResponse struct {
	Vectors map[string]fetchedVector `json:"vectors"`
}

type deleteRequest struct {
	Namespace string   `json:"namespace"`
	IDs       []string `json:"ids,omitempty"`
	DeleteAll bool     `json:"deleteAll,omitempty"`
}

type namespaceStats struct {
	VectorCount int `json:"vectorCount"`
}

type statsResponse struct {
	Namespaces map[string]namespaceStats `json:"namespaces"`
}
