// Package config loads application settings from an optional YAML file, a
// .env file and the process environment, in increasing order of precedence.
// Credentials are only ever read from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	// ErrMissingCredential is returned when a credential required by the
	// selected backends is not set.
	ErrMissingCredential = errors.New("missing credential")

	// ErrInvalidConfig is returned for settings that cannot be used.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// VectorStoreConfig selects and configures the vector store.
type VectorStoreConfig struct {
	Type      string `yaml:"type"`       // "chroma" or "memory"
	TableName string `yaml:"table_name"` // collection holding the document chunks
	URL       string `yaml:"url"`
	Tenant    string `yaml:"tenant"`
	Database  string `yaml:"-"`
	Token     string `yaml:"-"`
}

// EmbedderConfig selects and configures the embedding model.
type EmbedderConfig struct {
	Provider  string `yaml:"provider"` // "huggingface" or "ollama"
	Model     string `yaml:"model"`
	OllamaURL string `yaml:"ollama_url"`
	HFToken   string `yaml:"-"`
}

// LLMConfig selects and configures the completion model.
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // "groq" or "gemini"
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
	APIKey      string  `yaml:"-"`
}

// ChunkingConfig controls how documents are split.
type ChunkingConfig struct {
	Strategy  string `yaml:"strategy"` // "character" or "recursive"
	Size      int    `yaml:"size"`
	Overlap   int    `yaml:"overlap"`
	Separator string `yaml:"separator"`
	TopK      int    `yaml:"top_k"`
}

// Config is the root application configuration.
type Config struct {
	Port           string            `yaml:"port"`
	GinMode        string            `yaml:"gin_mode"`
	CORSOrigins    []string          `yaml:"cors_origins"`
	UploadDir      string            `yaml:"upload_dir"`
	MaxUploadBytes int64             `yaml:"max_upload_bytes"`
	WatchDir       string            `yaml:"watch_dir"`
	QueryRateLimit float64           `yaml:"query_rate_limit"` // questions per second, 0 disables
	QueryBurst     int               `yaml:"query_burst"`
	OTLPEndpoint   string            `yaml:"otlp_endpoint"`
	VectorStore    VectorStoreConfig `yaml:"vector_store"`
	Embedder       EmbedderConfig    `yaml:"embedder"`
	LLM            LLMConfig         `yaml:"llm"`
	Chunking       ChunkingConfig    `yaml:"chunking"`

	UnidocLicenseKey string `yaml:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Port:           "8080",
		GinMode:        "debug",
		CORSOrigins:    []string{"*"},
		UploadDir:      "uploads",
		MaxUploadBytes: 20 << 20,
		QueryRateLimit: 1,
		QueryBurst:     5,
		VectorStore: VectorStoreConfig{
			Type:      "chroma",
			TableName: "qa_pdf",
			URL:       "http://localhost:8000",
			Tenant:    "default_tenant",
		},
		Embedder: EmbedderConfig{
			Provider:  "huggingface",
			Model:     "sentence-transformers/all-MiniLM-L6-v2",
			OllamaURL: "http://localhost:11434",
		},
		LLM: LLMConfig{
			Provider:    "groq",
			Temperature: 0,
		},
		Chunking: ChunkingConfig{
			Strategy:  "character",
			Size:      800,
			Overlap:   200,
			Separator: "\n",
			TopK:      3,
		},
	}
}

// Load reads the YAML file at path (a missing file is not an error), then the
// .env file and the environment, and validates the result.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
			}
		}
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.GinMode = getEnv("GIN_MODE", cfg.GinMode)
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = strings.Split(origins, ",")
	}
	cfg.UploadDir = getEnv("UPLOAD_DIR", cfg.UploadDir)
	cfg.MaxUploadBytes = getEnvInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.WatchDir = getEnv("WATCH_DIR", cfg.WatchDir)
	cfg.QueryRateLimit = getEnvFloat("QUERY_RATE_LIMIT", cfg.QueryRateLimit)
	cfg.QueryBurst = getEnvInt("QUERY_BURST", cfg.QueryBurst)
	cfg.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTLPEndpoint)

	cfg.VectorStore.Type = getEnv("VECTOR_STORE", cfg.VectorStore.Type)
	cfg.VectorStore.TableName = getEnv("VECTOR_TABLE", cfg.VectorStore.TableName)
	cfg.VectorStore.URL = getEnv("CHROMA_URL", cfg.VectorStore.URL)
	cfg.VectorStore.Tenant = getEnv("CHROMA_TENANT", cfg.VectorStore.Tenant)
	cfg.VectorStore.Database = os.Getenv("CHROMA_DATABASE")
	cfg.VectorStore.Token = os.Getenv("CHROMA_TOKEN")

	cfg.Embedder.Provider = getEnv("EMBEDDER", cfg.Embedder.Provider)
	cfg.Embedder.Model = getEnv("EMBEDDING_MODEL", cfg.Embedder.Model)
	cfg.Embedder.OllamaURL = getEnv("OLLAMA_URL", cfg.Embedder.OllamaURL)
	cfg.Embedder.HFToken = os.Getenv("HUGGINGFACEHUB_API_TOKEN")

	cfg.LLM.Provider = getEnv("LLM_PROVIDER", cfg.LLM.Provider)
	cfg.LLM.Model = getEnv("LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.BaseURL = getEnv("LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.Temperature = getEnvFloat("LLM_TEMPERATURE", cfg.LLM.Temperature)
	switch cfg.LLM.Provider {
	case "gemini":
		cfg.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
	default:
		cfg.LLM.APIKey = os.Getenv("GROQ_API_KEY")
	}

	cfg.Chunking.Strategy = getEnv("CHUNK_STRATEGY", cfg.Chunking.Strategy)
	cfg.Chunking.Size = getEnvInt("CHUNK_SIZE", cfg.Chunking.Size)
	cfg.Chunking.Overlap = getEnvInt("CHUNK_OVERLAP", cfg.Chunking.Overlap)
	cfg.Chunking.Separator = getEnv("CHUNK_SEPARATOR", cfg.Chunking.Separator)
	cfg.Chunking.TopK = getEnvInt("TOP_K", cfg.Chunking.TopK)

	cfg.UnidocLicenseKey = os.Getenv("UNIDOC_LICENSE_KEY")
}

// Validate checks that the selected backends are known and that their
// credentials are present.
func (c *Config) Validate() error {
	switch c.VectorStore.Type {
	case "chroma":
		if c.VectorStore.Token == "" {
			return fmt.Errorf("%w: CHROMA_TOKEN is required", ErrMissingCredential)
		}
		if c.VectorStore.Database == "" {
			return fmt.Errorf("%w: CHROMA_DATABASE is required", ErrMissingCredential)
		}
	case "memory":
	default:
		return fmt.Errorf("%w: unknown vector store %q", ErrInvalidConfig, c.VectorStore.Type)
	}

	switch c.Embedder.Provider {
	case "huggingface":
		if c.Embedder.HFToken == "" {
			return fmt.Errorf("%w: HUGGINGFACEHUB_API_TOKEN is required", ErrMissingCredential)
		}
	case "ollama":
	default:
		return fmt.Errorf("%w: unknown embedder %q", ErrInvalidConfig, c.Embedder.Provider)
	}

	switch c.LLM.Provider {
	case "groq":
		if c.LLM.APIKey == "" {
			return fmt.Errorf("%w: GROQ_API_KEY is required", ErrMissingCredential)
		}
	case "gemini":
		if c.LLM.APIKey == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY is required", ErrMissingCredential)
		}
	default:
		return fmt.Errorf("%w: unknown llm provider %q", ErrInvalidConfig, c.LLM.Provider)
	}

	switch c.Chunking.Strategy {
	case "character", "recursive":
	default:
		return fmt.Errorf("%w: unknown chunk strategy %q", ErrInvalidConfig, c.Chunking.Strategy)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
