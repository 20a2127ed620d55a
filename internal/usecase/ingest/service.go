// Package ingest is the ingestion pipeline: deduplicate, embed and upsert,
// with bounded retry and backoff for bulk imports.
package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragstore/internal/domain"
	"github.com/kailas-cloud/ragstore/internal/domain/document"
	"github.com/kailas-cloud/ragstore/internal/domain/report"
)

// Section is one text chunk of a bulk import.
type Section struct {
	Title    string
	Content  string
	Created  int64
	Metadata domain.Metadata
}

// Config holds retry and pacing settings for bulk ingestion.
type Config struct {
	MaxAttempts  int
	BaseDelay    time.Duration
	SectionDelay time.Duration
	MaxBatchSize int
}

// Service drives document ingestion.
type Service struct {
	store  DocumentStore
	dense  domain.DenseEmbedder
	sparse domain.SparseEmbedder
	cfg    Config
	logger *zap.Logger

	// sleep is swapped out in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates the ingestion pipeline.
func New(
	store DocumentStore, dense domain.DenseEmbedder, sparse domain.SparseEmbedder,
	cfg Config, logger *zap.Logger,
) *Service {
	return &Service{
		store:  store,
		dense:  dense,
		sparse: sparse,
		cfg:    cfg,
		logger: logger,
		sleep:  sleepCtx,
	}
}

// Ingest embeds and stores one document. Returns the content-derived
// document id and whether a write happened: re-ingesting identical content
// is a silent no-op (stored=false), never a duplicate row. An embedding
// failure aborts the whole ingestion with no partial write.
func (s *Service) Ingest(
	ctx context.Context, namespace, title, content string, created int64, meta domain.Metadata,
) (string, bool, error) {
	doc, err := document.New(namespace, title, content, created, meta)
	if err != nil {
		return "", false, err
	}

	exists, err := s.store.HasContent(ctx, namespace, doc.ID())
	if err != nil {
		return "", false, fmt.Errorf("dedup check: %w", err)
	}
	if exists {
		s.logger.Debug("document already stored, skipping",
			zap.String("namespace", namespace),
			zap.String("id", doc.ID()),
		)
		return doc.ID(), false, nil
	}

	dense, err := s.dense.EmbedDense(ctx, content)
	if err != nil {
		return "", false, fmt.Errorf("embed dense: %w", err)
	}
	doc.SetDenseVector(dense)

	// Passage mode at ingestion time; queries use query mode.
	sv, err := s.sparse.EmbedSparse(ctx, content, domain.SparseModePassage)
	if err != nil {
		return "", false, fmt.Errorf("embed sparse: %w", err)
	}
	doc.SetSparseVector(sv)

	if err := s.store.Upsert(ctx, &doc); err != nil {
		return "", false, fmt.Errorf("upsert: %w", err)
	}

	s.logger.Info("document ingested",
		zap.String("namespace", namespace),
		zap.String("id", doc.ID()),
		zap.String("source", title),
	)
	return doc.ID(), true, nil
}

// IngestBatch processes sections independently: a failed section is reported
// and the batch moves on. Network-class failures are retried with
// exponential backoff up to MaxAttempts; validation and provider-shape
// errors are not, since retrying cannot fix them. A fixed delay separates
// successive sections regardless of outcome, to respect provider rate
// limits.
func (s *Service) IngestBatch(
	ctx context.Context, namespace string, sections []Section,
) []report.Section {
	results := make([]report.Section, len(sections))

	if s.cfg.MaxBatchSize > 0 && len(sections) > s.cfg.MaxBatchSize {
		err := fmt.Errorf("batch size exceeds %d: %w", s.cfg.MaxBatchSize, domain.ErrValidation)
		for i, sec := range sections {
			results[i] = report.NewError(sec.Title, 0, len(sec.Content), err)
		}
		return results
	}

	for i, sec := range sections {
		if i > 0 {
			if err := s.sleep(ctx, s.cfg.SectionDelay); err != nil {
				for j := i; j < len(sections); j++ {
					results[j] = report.NewError(sections[j].Title, 0, len(sections[j].Content), err)
				}
				return results
			}
		}
		results[i] = s.ingestWithRetry(ctx, namespace, sec)
	}

	return results
}

func (s *Service) ingestWithRetry(
	ctx context.Context, namespace string, sec Section,
) report.Section {
	var lastErr error

	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		id, stored, err := s.Ingest(ctx, namespace, sec.Title, sec.Content, sec.Created, sec.Metadata)
		if err == nil {
			if !stored {
				return report.NewSkipped(sec.Title, id)
			}
			return report.NewOK(sec.Title, id, attempt)
		}
		lastErr = err

		if !domain.Retryable(err) {
			return report.NewError(sec.Title, attempt, len(sec.Content), err)
		}

		if attempt < s.cfg.MaxAttempts {
			delay := s.cfg.BaseDelay * (1 << attempt)
			s.logger.Warn("section ingest failed, retrying",
				zap.String("namespace", namespace),
				zap.String("title", sec.Title),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", delay),
				zap.Error(err),
			)
			if serr := s.sleep(ctx, delay); serr != nil {
				return report.NewError(sec.Title, attempt, len(sec.Content), serr)
			}
		}
	}

	return report.NewError(sec.Title, s.cfg.MaxAttempts, len(sec.Content), lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err() //nolint:wrapcheck // context cancellation passes through
	case <-t.C:
		return nil
	}
}
