package sqlite

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragstore/internal/domain"
	"github.com/kailas-cloud/ragstore/internal/domain/document"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:", zap.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustDoc(t *testing.T, namespace, source, content string, vec []float32) document.Document {
	t.Helper()
	doc, err := document.New(namespace, source, content, 1700000000, domain.Metadata{"tag": "test"})
	if err != nil {
		t.Fatalf("document.New: %v", err)
	}
	doc.SetDenseVector(vec)
	return doc
}

func TestUpsertAndFetch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := mustDoc(t, "proj", "notes.md", "hello world", []float32{1, 0, 0})
	if err := s.Upsert(ctx, &doc); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := s.Fetch(ctx, "proj", doc.ID())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.Content() != "hello world" {
		t.Errorf("content = %q", got.Content())
	}
	if got.Source() != "notes.md" {
		t.Errorf("source = %q", got.Source())
	}
	if got.Metadata()["tag"] != "test" {
		t.Errorf("metadata lost: %v", got.Metadata())
	}
	if len(got.DenseVector()) != 3 {
		t.Errorf("vector not round-tripped: %v", got.DenseVector())
	}
}

func TestFetch_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Fetch(context.Background(), "proj", "missing-id")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsert_DuplicateContentSingleRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := mustDoc(t, "proj", "a", "identical content", []float32{1, 0})
	if err := s.Upsert(ctx, &doc); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	again := mustDoc(t, "proj", "b", "identical content", []float32{0, 1})
	if err := s.Upsert(ctx, &again); err != nil {
		t.Fatalf("second upsert must be a silent no-op: %v", err)
	}

	docs, err := s.List(ctx, "proj", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 row after duplicate upsert, got %d", len(docs))
	}
	// First write wins.
	if docs[0].Source() != "a" {
		t.Errorf("source = %q, want the original write", docs[0].Source())
	}
}

func TestHasContent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := mustDoc(t, "proj", "src", "some content", []float32{1})
	if err := s.Upsert(ctx, &doc); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	ok, err := s.HasContent(ctx, "proj", doc.ID())
	if err != nil || !ok {
		t.Errorf("expected stored hash to be found: ok=%v err=%v", ok, err)
	}
	ok, err = s.HasContent(ctx, "proj", "unknown-hash")
	if err != nil || ok {
		t.Errorf("unknown hash should not be found: ok=%v err=%v", ok, err)
	}
	// Same hash, different namespace.
	ok, err = s.HasContent(ctx, "other", doc.ID())
	if err != nil || ok {
		t.Errorf("hash must be scoped to the namespace: ok=%v err=%v", ok, err)
	}
}

func TestQueryDense_RanksByCosine(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	exact := mustDoc(t, "proj", "exact", "exact match", []float32{1, 0, 0})
	near := mustDoc(t, "proj", "near", "near match", []float32{0.9, 0.1, 0})
	far := mustDoc(t, "proj", "far", "far away", []float32{0, 0, 1})
	for _, d := range []*document.Document{&exact, &near, &far} {
		if err := s.Upsert(ctx, d); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	matches, err := s.QueryDense(ctx, "proj", []float32{1, 0, 0}, 10)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(matches))
	}
	if matches[0].ID() != exact.ID() {
		t.Errorf("exact match should rank first")
	}
	if matches[0].Score() < 0.9999 {
		t.Errorf("identical vector should score ~1.0, got %f", matches[0].Score())
	}
	if matches[2].ID() != far.ID() {
		t.Errorf("orthogonal vector should rank last")
	}
	if matches[2].Score() > 0.0001 {
		t.Errorf("orthogonal vector should score ~0, got %f", matches[2].Score())
	}

	// Match payload mirrors the primary store's shape.
	if matches[0].Metadata().StringValue("content") != "exact match" {
		t.Errorf("match metadata missing content: %v", matches[0].Metadata())
	}
}

func TestQueryDense_TopK(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, c := range []string{"one", "two", "three", "four"} {
		doc := mustDoc(t, "proj", c, "content "+c, []float32{1, 0})
		if err := s.Upsert(ctx, &doc); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	matches, err := s.QueryDense(ctx, "proj", []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("expected 2 matches, got %d", len(matches))
	}
}

func TestQuerySparse_NoCandidates(t *testing.T) {
	s := newTestStore(t)
	matches, err := s.QuerySparse(context.Background(), "proj",
		domain.SparseVector{Indices: []uint32{1}, Values: []float32{1}}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if matches != nil {
		t.Errorf("sparse queries have no relational implementation, got %v", matches)
	}
}

func TestNamespaceIsolation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	docA := mustDoc(t, "proj_a", "a", "content in a", []float32{1, 0})
	docB := mustDoc(t, "proj_b", "b", "content in b", []float32{1, 0})
	for _, d := range []*document.Document{&docA, &docB} {
		if err := s.Upsert(ctx, d); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	matches, err := s.QueryDense(ctx, "proj_a", []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(matches) != 1 || matches[0].ID() != docA.ID() {
		t.Errorf("query must only see its own namespace: %v", matches)
	}

	if err := s.Purge(ctx, "proj_a"); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if _, err := s.Fetch(ctx, "proj_b", docB.ID()); err != nil {
		t.Errorf("purge of proj_a must not touch proj_b: %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := mustDoc(t, "proj", "src", "to be removed", []float32{1})
	if err := s.Upsert(ctx, &doc); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.Delete(ctx, "proj", doc.ID()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Fetch(ctx, "proj", doc.ID()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	// Deleting a missing id is not an error.
	if err := s.Delete(ctx, "proj", doc.ID()); err != nil {
		t.Errorf("repeat delete: %v", err)
	}
}

func TestListNamespaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, ns := range []string{"proj_a", "proj_a", "proj_b"} {
		doc := mustDoc(t, ns, "src", "content number "+string(rune('0'+i)), []float32{1})
		if err := s.Upsert(ctx, &doc); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	stats, err := s.ListNamespaces(ctx)
	if err != nil {
		t.Fatalf("list namespaces: %v", err)
	}
	counts := make(map[string]int, len(stats))
	for _, st := range stats {
		counts[st.Name] = st.VectorCount
	}
	if counts["proj_a"] != 2 || counts["proj_b"] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func TestCosine(t *testing.T) {
	t.Run("identical", func(t *testing.T) {
		if got := cosine([]float32{1, 2, 3}, []float32{1, 2, 3}); got < 0.9999 {
			t.Errorf("got %f, want ~1.0", got)
		}
	})
	t.Run("orthogonal", func(t *testing.T) {
		if got := cosine([]float32{1, 0}, []float32{0, 1}); got != 0 {
			t.Errorf("got %f, want 0", got)
		}
	})
	t.Run("zero norm", func(t *testing.T) {
		if got := cosine([]float32{0, 0}, []float32{1, 1}); got != 0 {
			t.Errorf("zero vector must score 0, got %f", got)
		}
	})
	t.Run("opposite", func(t *testing.T) {
		if got := cosine([]float32{1, 0}, []float32{-1, 0}); got > -0.9999 {
			t.Errorf("got %f, want ~-1.0", got)
		}
	})
}
