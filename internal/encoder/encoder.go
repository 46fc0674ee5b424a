// Package encoder turns journal text into fixed-width feature vectors.
// Supports multiple backends: a deterministic hashing encoder (no external
// service), Ollama (local) and Google GenAI (cloud).
package encoder

import (
	"context"
	"fmt"

	"moodscope/internal/logging"
)

// TextEncoder produces a dense vector representation of text. The classifier
// treats the vector as opaque input; only Dimensions must stay stable for the
// lifetime of a trained model.
type TextEncoder interface {
	// Encode generates a vector for a single text.
	Encode(ctx context.Context, text string) ([]float32, error)

	// EncodeBatch generates vectors for multiple texts.
	EncodeBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the width of produced vectors.
	Dimensions() int

	// Name identifies the backend and model, e.g. "ollama:embeddinggemma".
	// Cached vectors and persisted models are keyed by this name.
	Name() string
}

// HealthChecker is an optional interface for encoders backed by a remote
// service. Commands probe availability once at startup instead of failing
// mid-epoch.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Config holds encoder backend configuration.
type Config struct {
	// Provider: "hashing", "ollama" or "genai"
	Provider string `json:"provider"`

	// Hashing configuration
	HashDimensions int `json:"hash_dimensions"` // Default: 512

	// Ollama configuration
	OllamaEndpoint string `json:"ollama_endpoint"` // Default: "http://localhost:11434"
	OllamaModel    string `json:"ollama_model"`    // Default: "embeddinggemma"

	// GenAI configuration
	GenAIAPIKey string `json:"genai_api_key"`
	GenAIModel  string `json:"genai_model"` // Default: "gemini-embedding-001"
}

// DefaultConfig returns sensible defaults: the hashing encoder works offline
// with no service dependency.
func DefaultConfig() Config {
	return Config{
		Provider:       "hashing",
		HashDimensions: 512,
		OllamaEndpoint: "http://localhost:11434",
		OllamaModel:    "embeddinggemma",
		GenAIModel:     "gemini-embedding-001",
	}
}

// New creates a text encoder based on configuration.
func New(cfg Config) (TextEncoder, error) {
	timer := logging.StartTimer(logging.CategoryEncoder, "New")
	defer timer.Stop()

	logging.Encoder("Creating text encoder with provider=%s", cfg.Provider)

	var enc TextEncoder
	var err error

	switch cfg.Provider {
	case "hashing", "":
		logging.Encoder("Initializing hashing encoder: dimensions=%d", cfg.HashDimensions)
		enc, err = NewHashingEncoder(cfg.HashDimensions)
	case "ollama":
		logging.Encoder("Initializing Ollama encoder: endpoint=%s, model=%s", cfg.OllamaEndpoint, cfg.OllamaModel)
		enc, err = NewOllamaEncoder(cfg.OllamaEndpoint, cfg.OllamaModel)
	case "genai":
		logging.Encoder("Initializing GenAI encoder: model=%s", cfg.GenAIModel)
		enc, err = NewGenAIEncoder(cfg.GenAIAPIKey, cfg.GenAIModel)
	default:
		err = fmt.Errorf("unsupported encoder provider: %s (use 'hashing', 'ollama' or 'genai')", cfg.Provider)
		logging.Get(logging.CategoryEncoder).Error("Unsupported encoder provider: %s", cfg.Provider)
		return nil, err
	}

	if err != nil {
		logging.Get(logging.CategoryEncoder).Error("Failed to create text encoder: %v", err)
		return nil, err
	}

	logging.Encoder("Text encoder ready: name=%s, dimensions=%d", enc.Name(), enc.Dimensions())
	return enc, nil
}
