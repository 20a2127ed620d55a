package pinecone

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kailas-cloud/ragstore/internal/domain"
)

func TestPost_SetsHeaders(t *testing.T) {
	var gotKey, gotVersion, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Api-Key")
		gotVersion = r.Header.Get("X-Pinecone-Api-Version")
		gotType = r.Header.Get("Content-Type")
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	c := NewClient("secret-key", 5*time.Second)
	var out map[string]bool
	if err := c.Post(context.Background(), srv.URL, "/query", struct{}{}, &out); err != nil {
		t.Fatalf("post: %v", err)
	}

	if gotKey != "secret-key" {
		t.Errorf("Api-Key = %q", gotKey)
	}
	if gotVersion != apiVersion {
		t.Errorf("X-Pinecone-Api-Version = %q", gotVersion)
	}
	if gotType != "application/json" {
		t.Errorf("Content-Type = %q", gotType)
	}
	if !out["ok"] {
		t.Error("response not decoded")
	}
}

func TestPost_NilOutSkipsDecode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json at all`))
	}))
	defer srv.Close()

	c := NewClient("k", 5*time.Second)
	if err := c.Post(context.Background(), srv.URL, "/vectors/upsert", struct{}{}, nil); err != nil {
		t.Errorf("nil out must skip decoding: %v", err)
	}
}

func TestPost_ErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"rate limited", http.StatusTooManyRequests, domain.ErrRateLimited},
		{"server error", http.StatusInternalServerError, domain.ErrUnavailable},
		{"bad gateway", http.StatusBadGateway, domain.ErrUnavailable},
		{"bad request", http.StatusBadRequest, domain.ErrStoreFailure},
		{"unauthorized", http.StatusUnauthorized, domain.ErrStoreFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"message": "nope"}`))
			}))
			defer srv.Close()

			c := NewClient("k", 5*time.Second)
			err := c.Post(context.Background(), srv.URL, "/query", struct{}{}, nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("status %d: got %v, want %v", tt.status, err, tt.want)
			}
		})
	}
}

func TestPost_TransportFailureIsRetryable(t *testing.T) {
	c := NewClient("k", 500*time.Millisecond)
	// Nothing listens here.
	err := c.Post(context.Background(), "http://127.0.0.1:1", "/query", struct{}{}, nil)
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Errorf("connection failure should map to ErrUnavailable, got %v", err)
	}
}

func TestPost_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{truncated`))
	}))
	defer srv.Close()

	c := NewClient("k", 5*time.Second)
	var out map[string]any
	err := c.Post(context.Background(), srv.URL, "/query", struct{}{}, &out)
	if !errors.Is(err, domain.ErrStoreFailure) {
		t.Errorf("decode failure should map to ErrStoreFailure, got %v", err)
	}
}
