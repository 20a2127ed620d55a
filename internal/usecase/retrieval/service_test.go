package retrieval

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragstore/internal/domain"
	"github.com/kailas-cloud/ragstore/internal/domain/document"
	"github.com/kailas-cloud/ragstore/internal/domain/search/result"
	"github.com/kailas-cloud/ragstore/internal/store"
	"github.com/kailas-cloud/ragstore/internal/usecase/fusion"
)

// --- Mocks ---

type mockStore struct {
	denseMatches  []result.Match
	denseErr      error
	sparseMatches []result.Match
	sparseErr     error
	denseCalled   bool
	sparseCalled  bool

	fetchDoc  document.Document
	fetchErr  error
	deleteErr error
	purgeErr  error
	listDocs  []document.Document
	listErr   error
	nsStats   []store.NamespaceStat
	nsErr     error
}

func (m *mockStore) QueryDense(
	context.Context, string, []float32, int,
) ([]result.Match, error) {
	m.denseCalled = true
	return m.denseMatches, m.denseErr
}

func (m *mockStore) QuerySparse(
	context.Context, string, domain.SparseVector, int,
) ([]result.Match, error) {
	m.sparseCalled = true
	return m.sparseMatches, m.sparseErr
}

func (m *mockStore) Fetch(context.Context, string, string) (document.Document, error) {
	return m.fetchDoc, m.fetchErr
}

func (m *mockStore) Delete(context.Context, string, string) error { return m.deleteErr }

func (m *mockStore) Purge(context.Context, string) error { return m.purgeErr }

func (m *mockStore) List(context.Context, string, int) ([]document.Document, error) {
	return m.listDocs, m.listErr
}

func (m *mockStore) ListNamespaces(context.Context) ([]store.NamespaceStat, error) {
	return m.nsStats, m.nsErr
}

type mockDense struct {
	vec []float32
	err error
}

func (m *mockDense) EmbedDense(context.Context, string) ([]float32, error) {
	return m.vec, m.err
}

type mockSparse struct {
	vec domain.SparseVector
	err error
}

func (m *mockSparse) EmbedSparse(
	context.Context, string, domain.SparseMode,
) (domain.SparseVector, error) {
	return m.vec, m.err
}

var testCfg = Config{
	Weights:    fusion.Weights{Dense: 0.6, Sparse: 0.4},
	CandidateK: 20,
	TopK:       3,
}

func match(id string, score float64) result.Match {
	return result.NewMatch(id, score, domain.Metadata{"content": "c-" + id})
}

func userTurns(q string) []domain.Turn {
	return []domain.Turn{
		{Role: "assistant", Content: "earlier answer"},
		{Role: "user", Content: q},
	}
}

func nonEmptySparse() domain.SparseVector {
	return domain.SparseVector{Indices: []uint32{1}, Values: []float32{0.5}}
}

// --- Tests ---

func TestRetrieve_HappyPath(t *testing.T) {
	st := &mockStore{
		denseMatches:  []result.Match{match("A", 0.9)},
		sparseMatches: []result.Match{match("B", 2.0)},
	}
	svc := New(st, &mockDense{vec: []float32{0.1}}, &mockSparse{vec: nonEmptySparse()}, testCfg, zap.NewNop())

	results := svc.Retrieve(context.Background(), "proj", userTurns("question"), 0)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if !st.denseCalled || !st.sparseCalled {
		t.Error("both indexes should be queried")
	}
}

func TestRetrieve_NoTrailingUserTurn(t *testing.T) {
	st := &mockStore{}
	svc := New(st, &mockDense{vec: []float32{0.1}}, &mockSparse{vec: nonEmptySparse()}, testCfg, zap.NewNop())

	turns := []domain.Turn{
		{Role: "user", Content: "question"},
		{Role: "assistant", Content: "answer"},
	}
	if results := svc.Retrieve(context.Background(), "proj", turns, 0); len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
	if st.denseCalled {
		t.Error("no query should be issued without a trailing user turn")
	}
}

func TestRetrieve_DenseEmbeddingFailureDegrades(t *testing.T) {
	st := &mockStore{denseMatches: []result.Match{match("A", 0.9)}}
	svc := New(st,
		&mockDense{err: fmt.Errorf("down: %w", domain.ErrUnavailable)},
		&mockSparse{vec: nonEmptySparse()}, testCfg, zap.NewNop())

	if results := svc.Retrieve(context.Background(), "proj", userTurns("q"), 0); results != nil {
		t.Errorf("query embedding failure must yield empty results, got %v", results)
	}
	if st.denseCalled {
		t.Error("no store query without a query vector")
	}
}

func TestRetrieve_SparseFailureDegradesToDenseOnly(t *testing.T) {
	st := &mockStore{denseMatches: []result.Match{match("A", 0.9)}}
	svc := New(st,
		&mockDense{vec: []float32{0.1}},
		&mockSparse{err: errors.New("sparse provider down")}, testCfg, zap.NewNop())

	results := svc.Retrieve(context.Background(), "proj", userTurns("q"), 0)
	if len(results) != 1 {
		t.Fatalf("expected dense-only ranking, got %d results", len(results))
	}
	if st.sparseCalled {
		t.Error("an empty sparse vector must not be sent to the index")
	}
}

func TestRetrieve_SparseQueryFailureDegrades(t *testing.T) {
	st := &mockStore{
		denseMatches: []result.Match{match("A", 0.9)},
		sparseErr:    fmt.Errorf("index down: %w", domain.ErrUnavailable),
	}
	svc := New(st, &mockDense{vec: []float32{0.1}}, &mockSparse{vec: nonEmptySparse()}, testCfg, zap.NewNop())

	results := svc.Retrieve(context.Background(), "proj", userTurns("q"), 0)
	if len(results) != 1 || results[0].ID() != "A" {
		t.Fatalf("expected dense-only results, got %v", results)
	}
}

func TestRetrieve_BothQueriesFail(t *testing.T) {
	st := &mockStore{
		denseErr:  fmt.Errorf("down: %w", domain.ErrUnavailable),
		sparseErr: fmt.Errorf("down: %w", domain.ErrUnavailable),
	}
	svc := New(st, &mockDense{vec: []float32{0.1}}, &mockSparse{vec: nonEmptySparse()}, testCfg, zap.NewNop())

	if results := svc.Retrieve(context.Background(), "proj", userTurns("q"), 0); len(results) != 0 {
		t.Errorf("expected empty results, got %d", len(results))
	}
}

func TestRetrieve_TopKDefault(t *testing.T) {
	st := &mockStore{denseMatches: []result.Match{
		match("A", 0.9), match("B", 0.8), match("C", 0.7), match("D", 0.6), match("E", 0.5),
	}}
	svc := New(st, &mockDense{vec: []float32{0.1}}, &mockSparse{}, testCfg, zap.NewNop())

	results := svc.Retrieve(context.Background(), "proj", userTurns("q"), 0)
	if len(results) != testCfg.TopK {
		t.Errorf("expected default top_k=%d, got %d", testCfg.TopK, len(results))
	}

	results = svc.Retrieve(context.Background(), "proj", userTurns("q"), 5)
	if len(results) != 5 {
		t.Errorf("expected explicit top_k=5, got %d", len(results))
	}
}

func TestDebugSearch(t *testing.T) {
	st := &mockStore{denseMatches: []result.Match{match("A", 0.9)}}
	svc := New(st, &mockDense{vec: []float32{0.1}}, &mockSparse{}, testCfg, zap.NewNop())

	if results := svc.DebugSearch(context.Background(), "proj", "query text", 0); len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results := svc.DebugSearch(context.Background(), "proj", "", 0); results != nil {
		t.Error("empty query yields no results")
	}
}

func TestLifecycleOperations_PropagateErrors(t *testing.T) {
	t.Run("fetch not found", func(t *testing.T) {
		st := &mockStore{fetchErr: fmt.Errorf("id x: %w", domain.ErrNotFound)}
		svc := New(st, &mockDense{}, &mockSparse{}, testCfg, zap.NewNop())
		if _, err := svc.FetchDocument(context.Background(), "proj", "x"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("delete store failure", func(t *testing.T) {
		st := &mockStore{deleteErr: fmt.Errorf("oops: %w", domain.ErrStoreFailure)}
		svc := New(st, &mockDense{}, &mockSparse{}, testCfg, zap.NewNop())
		if err := svc.DeleteDocument(context.Background(), "proj", "x"); !errors.Is(err, domain.ErrStoreFailure) {
			t.Errorf("expected ErrStoreFailure, got %v", err)
		}
	})

	t.Run("purge ok", func(t *testing.T) {
		svc := New(&mockStore{}, &mockDense{}, &mockSparse{}, testCfg, zap.NewNop())
		if err := svc.PurgeNamespace(context.Background(), "proj"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("list namespaces", func(t *testing.T) {
		st := &mockStore{nsStats: []store.NamespaceStat{{Name: "proj", VectorCount: 7}}}
		svc := New(st, &mockDense{}, &mockSparse{}, testCfg, zap.NewNop())
		stats, err := svc.ListNamespaces(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(stats) != 1 || stats[0].VectorCount != 7 {
			t.Errorf("unexpected stats: %v", stats)
		}
	})
}
