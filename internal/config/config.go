package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/ragstore/internal/domain"
)

// Config holds the ragstore API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Store     StoreConfig     `yaml:"store"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// StoreConfig selects and configures the vector store backend.
type StoreConfig struct {
	Driver   string         `yaml:"driver"` // pinecone, sqlite (default: sqlite)
	Pinecone PineconeConfig `yaml:"pinecone"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
}

// PineconeConfig holds the remote index pair settings.
type PineconeConfig struct {
	APIKey        string `yaml:"api_key"`
	DenseHost     string `yaml:"dense_host"`
	SparseHost    string `yaml:"sparse_host"`
	InferenceHost string `yaml:"inference_host"`
	TimeoutSec    int    `yaml:"timeout_sec"`
	ListLimit     int    `yaml:"list_limit"`
}

// SQLiteConfig holds the relational fallback store settings.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// EmbeddingConfig holds dense embedding provider settings.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	Provider   string `yaml:"provider"`
}

// RetrievalConfig holds fusion weights and result counts.
type RetrievalConfig struct {
	DenseWeight  float64 `yaml:"dense_weight"`
	SparseWeight float64 `yaml:"sparse_weight"`
	CandidateK   int     `yaml:"candidate_k"`
	TopK         int     `yaml:"top_k"`
}

// IngestConfig holds bulk ingestion retry settings.
type IngestConfig struct {
	MaxAttempts    int `yaml:"max_attempts"`
	BaseDelayMS    int `yaml:"base_delay_ms"`
	SectionDelayMS int `yaml:"section_delay_ms"`
	MaxBatchSize   int `yaml:"max_batch_size"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "sqlite"
	}
	if c.Store.Pinecone.InferenceHost == "" {
		c.Store.Pinecone.InferenceHost = "https://api.pinecone.io"
	}
	if c.Store.Pinecone.TimeoutSec <= 0 {
		c.Store.Pinecone.TimeoutSec = 30
	}
	if c.Store.Pinecone.ListLimit <= 0 {
		c.Store.Pinecone.ListLimit = 5000
	}
	if c.Store.SQLite.Path == "" {
		c.Store.SQLite.Path = "ragstore.db"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-ada-002"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Retrieval.DenseWeight <= 0 {
		c.Retrieval.DenseWeight = 0.6
	}
	if c.Retrieval.SparseWeight <= 0 {
		c.Retrieval.SparseWeight = 0.4
	}
	if c.Retrieval.CandidateK <= 0 {
		c.Retrieval.CandidateK = 20
	}
	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = 3
	}
	if c.Ingest.MaxAttempts <= 0 {
		c.Ingest.MaxAttempts = 4
	}
	if c.Ingest.BaseDelayMS <= 0 {
		c.Ingest.BaseDelayMS = 500
	}
	if c.Ingest.SectionDelayMS <= 0 {
		c.Ingest.SectionDelayMS = 200
	}
	if c.Ingest.MaxBatchSize <= 0 {
		c.Ingest.MaxBatchSize = 100
	}
}

// Validate checks the configuration for correctness. Connection settings are
// verified here so a misconfigured process fails before any network call.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d: %w",
			c.HTTP.Port, domain.ErrInvalidConfig)
	}
	if c.Embedding.APIKey == "" {
		return fmt.Errorf("embedding.api_key is required: %w", domain.ErrInvalidConfig)
	}

	switch c.Store.Driver {
	case "sqlite":
		// path is defaulted, nothing else to check
	case "pinecone":
		p := c.Store.Pinecone
		if p.APIKey == "" {
			return fmt.Errorf("store.pinecone.api_key is required: %w", domain.ErrInvalidConfig)
		}
		if p.DenseHost == "" || p.SparseHost == "" {
			return fmt.Errorf(
				"store.pinecone.dense_host and sparse_host are required: %w",
				domain.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("store.driver must be \"pinecone\" or \"sqlite\", got %q: %w",
			c.Store.Driver, domain.ErrInvalidConfig)
	}

	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
