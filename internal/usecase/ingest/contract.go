package ingest

import (
	"context"

	"github.com/kailas-cloud/ragstore/internal/domain/document"
)

// DocumentStore is the storage surface the pipeline consumes.
type DocumentStore interface {
	Upsert(ctx context.Context, doc *document.Document) error
	HasContent(ctx context.Context, namespace, hash string) (bool, error)
}
