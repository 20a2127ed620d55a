package document

import (
	"fmt"

	"github.com/kailas-cloud/ragstore/internal/domain"
)

// Document is the unit of storage: one embedded text chunk scoped to a
// namespace. The id is derived from the content, so a document is immutable
// apart from full re-ingestion of identical content (which overwrites in
// place) and explicit deletion.
type Document struct {
	id        string
	namespace string
	content   string
	source    string
	metadata  domain.Metadata
	created   int64
	dense     []float32
	sparse    domain.SparseVector
}

// New validates inputs and creates a Document with its content-derived id.
// Vectors are attached later by the ingestion pipeline.
func New(namespace, source, content string, created int64, meta domain.Metadata) (Document, error) {
	if namespace == "" {
		return Document{}, fmt.Errorf("namespace is required: %w", domain.ErrValidation)
	}
	if content == "" {
		return Document{}, fmt.Errorf("content is required: %w", domain.ErrValidation)
	}

	flat, err := meta.Flatten()
	if err != nil {
		return Document{}, err
	}

	return Document{
		id:        domain.ContentHash(content),
		namespace: namespace,
		content:   content,
		source:    source,
		metadata:  flat,
		created:   created,
	}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(
	id, namespace, content, source string, meta domain.Metadata,
	created int64, dense []float32, sparse domain.SparseVector,
) Document {
	return Document{
		id: id, namespace: namespace, content: content, source: source,
		metadata: meta, created: created, dense: dense, sparse: sparse,
	}
}

// ID returns the content-derived document id.
func (d *Document) ID() string { return d.id }

// Namespace returns the logical partition the document belongs to.
func (d *Document) Namespace() string { return d.namespace }

// Content returns the raw text body.
func (d *Document) Content() string { return d.content }

// Source returns the human-readable origin label.
func (d *Document) Source() string { return d.source }

// Metadata returns the extra metadata fields (already flattened).
func (d *Document) Metadata() domain.Metadata { return d.metadata }

// Created returns the creation timestamp (unix seconds).
func (d *Document) Created() int64 { return d.created }

// DenseVector returns the dense embedding, nil before embedding.
func (d *Document) DenseVector() []float32 { return d.dense }

// SparseVector returns the sparse embedding, empty before embedding.
func (d *Document) SparseVector() domain.SparseVector { return d.sparse }

// SetDenseVector attaches the dense embedding.
func (d *Document) SetDenseVector(v []float32) { d.dense = v }

// SetSparseVector attaches the sparse embedding, normalizing it first:
// the backing index requires sorted, collision-free indices.
func (d *Document) SetSparseVector(v domain.SparseVector) { d.sparse = v.Normalized() }

// StorageMetadata returns the flattened payload written to both indexes.
// Both sides receive the identical map so that metadata can be read back
// from whichever index answered a query.
func (d *Document) StorageMetadata() domain.Metadata {
	out := domain.Metadata{
		"content":   d.content,
		"source":    d.source,
		"hash":      d.id,
		"timestamp": d.created,
	}
	for k, v := range d.metadata {
		out[k] = v
	}
	return out
}
