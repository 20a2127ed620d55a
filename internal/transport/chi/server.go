// Package chi is the HTTP API for the context store.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragstore/internal/domain"
	ingestuc "github.com/kailas-cloud/ragstore/internal/usecase/ingest"
	retrievaluc "github.com/kailas-cloud/ragstore/internal/usecase/retrieval"
)

// Server exposes the ingestion and retrieval services over HTTP.
type Server struct {
	ingest    *ingestuc.Service
	retrieval *retrievaluc.Service
	logger    *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(ingest *ingestuc.Service, retrieval *retrievaluc.Service, logger *zap.Logger) *Server {
	return &Server{ingest: ingest, retrieval: retrieval, logger: logger}
}

// Register mounts the API routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.handleHealth)
	r.Get("/namespaces", s.handleListNamespaces)
	r.Route("/namespaces/{namespace}", func(r chi.Router) {
		r.Delete("/", s.handlePurge)
		r.Post("/retrieve", s.handleRetrieve)
		r.Post("/search", s.handleSearch)
		r.Route("/documents", func(r chi.Router) {
			r.Get("/", s.handleListDocuments)
			r.Post("/", s.handleIngest)
			r.Post("/batch", s.handleIngestBatch)
			r.Get("/{id}", s.handleFetchDocument)
			r.Delete("/{id}", s.handleDeleteDocument)
		})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	namespace := chi.URLParam(r, "namespace")

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	id, stored, err := s.ingest.Ingest(r.Context(), namespace, req.Title, req.Text, req.Timestamp, req.Metadata)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	status := http.StatusCreated
	if !stored {
		status = http.StatusOK // duplicate content, idempotent no-op
	}
	writeJSON(w, status, ingestResponse{ID: id, Stored: stored})
}

func (s *Server) handleIngestBatch(w http.ResponseWriter, r *http.Request) {
	namespace := chi.URLParam(r, "namespace")

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Sections) == 0 {
		writeError(w, http.StatusBadRequest, codeValidation, "sections are required")
		return
	}

	results := s.ingest.IngestBatch(r.Context(), namespace, sectionsFromDTO(req.Sections))
	writeJSON(w, http.StatusOK, batchToDTO(results))
}

func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	namespace := chi.URLParam(r, "namespace")

	var req retrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	turns := make([]domain.Turn, len(req.Messages))
	for i, m := range req.Messages {
		turns[i] = domain.Turn{Role: m.Role, Content: m.Content}
	}

	results := s.retrieval.Retrieve(r.Context(), namespace, turns, req.TopK)
	writeJSON(w, http.StatusOK, resultsToDTO(results))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	namespace := chi.URLParam(r, "namespace")

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	results := s.retrieval.DebugSearch(r.Context(), namespace, req.Query, req.TopK)
	writeJSON(w, http.StatusOK, resultsToDTO(results))
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	namespace := chi.URLParam(r, "namespace")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, codeValidation, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	docs, err := s.retrieval.ListDocuments(r.Context(), namespace, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentsToDTO(docs))
}

func (s *Server) handleFetchDocument(w http.ResponseWriter, r *http.Request) {
	namespace := chi.URLParam(r, "namespace")
	id := chi.URLParam(r, "id")

	doc, err := s.retrieval.FetchDocument(r.Context(), namespace, id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToDTO(&doc))
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	namespace := chi.URLParam(r, "namespace")
	id := chi.URLParam(r, "id")

	if err := s.retrieval.DeleteDocument(r.Context(), namespace, id); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	namespace := chi.URLParam(r, "namespace")

	if err := s.retrieval.PurgeNamespace(r.Context(), namespace); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListNamespaces(w http.ResponseWriter, r *http.Request) {
	stats, err := s.retrieval.ListNamespaces(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, namespacesToDTO(stats))
}

// handleDomainError maps domain sentinels to HTTP statuses.
func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, err.Error())
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, codeRateLimited, err.Error())
	case errors.Is(err, domain.ErrEmbeddingProviderError):
		writeError(w, http.StatusBadGateway, codeProviderError, err.Error())
	case errors.Is(err, domain.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, codeStoreUnavailable, err.Error())
	case errors.Is(err, domain.ErrStoreFailure):
		writeError(w, http.StatusBadGateway, codeStoreError, err.Error())
	default:
		s.logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
