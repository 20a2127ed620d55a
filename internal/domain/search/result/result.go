package result

import "github.com/kailas-cloud/ragstore/internal/domain"

// Match is a single-signal candidate returned by one index: a document id
// with the raw score assigned by that index and the stored metadata payload.
type Match struct {
	id       string
	score    float64
	metadata domain.Metadata
}

// NewMatch creates a raw index match.
func NewMatch(id string, score float64, metadata domain.Metadata) Match {
	return Match{id: id, score: score, metadata: metadata}
}

// ID returns the document id.
func (m Match) ID() string { return m.id }

// Score returns the raw index score.
func (m Match) Score() float64 { return m.score }

// Metadata returns the stored metadata payload.
func (m Match) Metadata() domain.Metadata { return m.metadata }

// Result is a fused query result. It is produced fresh per query and never
// persisted.
type Result struct {
	id          string
	content     string
	source      string
	metadata    domain.Metadata
	denseScore  float64
	sparseScore float64
	hybridScore float64
}

// New creates a fused result, lifting content and source out of the stored
// metadata payload.
func New(id string, metadata domain.Metadata, denseScore, sparseScore, hybridScore float64) Result {
	return Result{
		id:          id,
		content:     metadata.StringValue("content"),
		source:      metadata.StringValue("source"),
		metadata:    metadata,
		denseScore:  denseScore,
		sparseScore: sparseScore,
		hybridScore: hybridScore,
	}
}

// ID returns the document id.
func (r Result) ID() string { return r.id }

// Content returns the document text body.
func (r Result) Content() string { return r.content }

// Source returns the origin label.
func (r Result) Source() string { return r.source }

// Metadata returns the stored metadata payload.
func (r Result) Metadata() domain.Metadata { return r.metadata }

// DenseScore returns the dense-side contribution (0 when absent).
func (r Result) DenseScore() float64 { return r.denseScore }

// SparseScore returns the normalized sparse-side contribution (0 when absent).
func (r Result) SparseScore() float64 { return r.sparseScore }

// HybridScore returns the weighted combined ranking score.
func (r Result) HybridScore() float64 { return r.hybridScore }
