package config

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/ragstore/internal/domain"
)

func validSQLiteConfig() Config {
	cfg := Config{
		HTTP:      HTTPConfig{Port: 8080},
		Store:     StoreConfig{Driver: "sqlite"},
		Embedding: EmbeddingConfig{APIKey: "test-key"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Store.Driver != "sqlite" {
		t.Errorf("default driver = %q", cfg.Store.Driver)
	}
	if cfg.Embedding.Model != "text-embedding-ada-002" {
		t.Errorf("default model = %q", cfg.Embedding.Model)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("default dimensions = %d", cfg.Embedding.Dimensions)
	}
	if cfg.Retrieval.DenseWeight != 0.6 || cfg.Retrieval.SparseWeight != 0.4 {
		t.Errorf("default weights = %f/%f", cfg.Retrieval.DenseWeight, cfg.Retrieval.SparseWeight)
	}
	if cfg.Retrieval.CandidateK != 20 || cfg.Retrieval.TopK != 3 {
		t.Errorf("default candidate_k/top_k = %d/%d", cfg.Retrieval.CandidateK, cfg.Retrieval.TopK)
	}
	if cfg.Ingest.MaxAttempts != 4 {
		t.Errorf("default max_attempts = %d", cfg.Ingest.MaxAttempts)
	}
	if cfg.Ingest.BaseDelayMS != 500 || cfg.Ingest.SectionDelayMS != 200 {
		t.Errorf("default delays = %d/%d", cfg.Ingest.BaseDelayMS, cfg.Ingest.SectionDelayMS)
	}
	if cfg.Store.Pinecone.ListLimit != 5000 {
		t.Errorf("default list_limit = %d", cfg.Store.Pinecone.ListLimit)
	}
	if cfg.Store.Pinecone.InferenceHost == "" {
		t.Error("inference host should default")
	}
}

func TestValidate_SQLiteDriver(t *testing.T) {
	cfg := validSQLiteConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_MissingEmbeddingKey(t *testing.T) {
	cfg := validSQLiteConfig()
	cfg.Embedding.APIKey = ""

	if err := cfg.Validate(); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		cfg := validSQLiteConfig()
		cfg.HTTP.Port = port
		if err := cfg.Validate(); !errors.Is(err, domain.ErrInvalidConfig) {
			t.Errorf("port %d: expected ErrInvalidConfig, got %v", port, err)
		}
	}
}

func TestValidate_PineconeDriver(t *testing.T) {
	base := func() Config {
		cfg := validSQLiteConfig()
		cfg.Store.Driver = "pinecone"
		cfg.Store.Pinecone.APIKey = "pc-key"
		cfg.Store.Pinecone.DenseHost = "https://dense.example"
		cfg.Store.Pinecone.SparseHost = "https://sparse.example"
		return cfg
	}

	t.Run("complete", func(t *testing.T) {
		cfg := base()
		if err := cfg.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("missing api key", func(t *testing.T) {
		cfg := base()
		cfg.Store.Pinecone.APIKey = ""
		if err := cfg.Validate(); !errors.Is(err, domain.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("missing sparse host", func(t *testing.T) {
		cfg := base()
		cfg.Store.Pinecone.SparseHost = ""
		if err := cfg.Validate(); !errors.Is(err, domain.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validSQLiteConfig()
	cfg.Store.Driver = "postgres"

	if err := cfg.Validate(); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("RAGSTORE_TEST_VAR", "from-env")

	t.Run("set variable", func(t *testing.T) {
		out := expandEnvVars([]byte("key: ${RAGSTORE_TEST_VAR}"))
		if string(out) != "key: from-env" {
			t.Errorf("got %q", out)
		}
	})

	t.Run("default used when unset", func(t *testing.T) {
		out := expandEnvVars([]byte("key: ${RAGSTORE_UNSET_VAR:-fallback}"))
		if string(out) != "key: fallback" {
			t.Errorf("got %q", out)
		}
	})

	t.Run("set variable beats default", func(t *testing.T) {
		out := expandEnvVars([]byte("key: ${RAGSTORE_TEST_VAR:-fallback}"))
		if string(out) != "key: from-env" {
			t.Errorf("got %q", out)
		}
	})

	t.Run("unset without default is empty", func(t *testing.T) {
		out := expandEnvVars([]byte("key: ${RAGSTORE_UNSET_VAR}"))
		if string(out) != "key: " {
			t.Errorf("got %q", out)
		}
	})
}
