package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragstore/internal/config"
	"github.com/kailas-cloud/ragstore/internal/domain"
	logpkg "github.com/kailas-cloud/ragstore/internal/logger"
	"github.com/kailas-cloud/ragstore/internal/metrics"
	"github.com/kailas-cloud/ragstore/internal/sparse"
	"github.com/kailas-cloud/ragstore/internal/store"
	pineconestore "github.com/kailas-cloud/ragstore/internal/store/pinecone"
	sqlitestore "github.com/kailas-cloud/ragstore/internal/store/sqlite"
	chiTransport "github.com/kailas-cloud/ragstore/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/ragstore/internal/transport/openai"
	pctransport "github.com/kailas-cloud/ragstore/internal/transport/pinecone"
	"github.com/kailas-cloud/ragstore/internal/usecase/fusion"
	ingestuc "github.com/kailas-cloud/ragstore/internal/usecase/ingest"
	retrievaluc "github.com/kailas-cloud/ragstore/internal/usecase/retrieval"
	"github.com/kailas-cloud/ragstore/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting ragstore API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("store_driver", cfg.Store.Driver),
		zap.String("embedding_model", cfg.Embedding.Model),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterStoreMetrics()

	denseEmbedder := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	// Create the vector store based on driver. The pinecone driver gets the
	// hosted sparse embedder with a local fallback; sqlite keeps everything
	// dense-only, so it encodes sparse vectors locally and never uses them.
	var (
		vstore      store.VectorStore
		sparseEmbed domain.SparseEmbedder
	)
	switch cfg.Store.Driver {
	case "pinecone":
		client := pctransport.NewClient(
			cfg.Store.Pinecone.APIKey,
			time.Duration(cfg.Store.Pinecone.TimeoutSec)*time.Second,
		)
		vstore = pineconestore.New(client, pineconestore.Config{
			DenseHost:  cfg.Store.Pinecone.DenseHost,
			SparseHost: cfg.Store.Pinecone.SparseHost,
			Dimensions: cfg.Embedding.Dimensions,
			ListLimit:  cfg.Store.Pinecone.ListLimit,
			Logger:     logger,
		})
		sparseEmbed = pctransport.NewSparseEmbedder(client, cfg.Store.Pinecone.InferenceHost, logger)
	case "sqlite":
		vstore, err = sqlitestore.New(cfg.Store.SQLite.Path, logger)
		if err != nil {
			logger.Fatal("Failed to open sqlite store", zap.Error(err))
		}
		sparseEmbed = sparse.Embedder{}
	default:
		logger.Fatal("Unknown store driver", zap.String("driver", cfg.Store.Driver))
	}
	defer vstore.Close()

	// Create use case services
	ingestSvc := ingestuc.New(vstore, denseEmbedder, sparseEmbed, ingestuc.Config{
		MaxAttempts:  cfg.Ingest.MaxAttempts,
		BaseDelay:    time.Duration(cfg.Ingest.BaseDelayMS) * time.Millisecond,
		SectionDelay: time.Duration(cfg.Ingest.SectionDelayMS) * time.Millisecond,
		MaxBatchSize: cfg.Ingest.MaxBatchSize,
	}, logger)

	retrievalSvc := retrievaluc.New(vstore, denseEmbedder, sparseEmbed, retrievaluc.Config{
		Weights: fusion.Weights{
			Dense:  cfg.Retrieval.DenseWeight,
			Sparse: cfg.Retrieval.SparseWeight,
		},
		CandidateK: cfg.Retrieval.CandidateK,
		TopK:       cfg.Retrieval.TopK,
	}, logger)

	// Create chi server
	server := chiTransport.NewServer(ingestSvc, retrievalSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	r.Handle("/metrics", promhttp.Handler())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.WithContext(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
