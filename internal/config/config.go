// Package config holds all moodscope configuration: the emotion vocabulary,
// dataset schema, encoder backend, training hyperparameters, and split
// ratios. Configuration is a validated, typed struct; unrecognized or
// out-of-range values are rejected at load time, before any data is touched.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all moodscope configuration.
type Config struct {
	Name string `yaml:"name"`

	// Emotions is the ordered label vocabulary. Order is significant: it
	// defines the index mapping used by the label matrix, the classifier
	// logits, and the threshold vector. Immutable once a model is trained.
	Emotions []string `yaml:"emotions"`

	// Aliases collapses known spelling variants to canonical vocabulary
	// entries before label extraction.
	Aliases map[string]string `yaml:"aliases"`

	Dataset  DatasetConfig  `yaml:"dataset"`
	Encoder  EncoderConfig  `yaml:"encoder"`
	Training TrainingConfig `yaml:"training"`
	Split    SplitConfig    `yaml:"split"`
	Artifact ArtifactConfig `yaml:"artifact"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatasetConfig locates and describes the labeled dataset.
type DatasetConfig struct {
	// Path points at a single dataset file (JSON array or CSV) to be split.
	Path string `yaml:"path"`

	// TrainPath/ValPath/TestPath point at pre-split files (DepressionEmo
	// ships train.json/val.json/test.json). When set they take precedence
	// over Path and the stratified splitter is bypassed.
	TrainPath string `yaml:"train_path"`
	ValPath   string `yaml:"val_path"`
	TestPath  string `yaml:"test_path"`

	Schema SchemaConfig `yaml:"schema"`

	// MinTextLength drops records whose raw text is shorter (runes).
	MinTextLength int `yaml:"min_text_length"`
}

// SchemaConfig declares which fields carry text and labels. When empty the
// extractor falls back to name-based guessing (text/post/content columns,
// emotion-named label columns); the declared mapping is the primary contract.
type SchemaConfig struct {
	TextField     string `yaml:"text_field"`     // JSON field or CSV column with text
	EmotionsField string `yaml:"emotions_field"` // JSON field with an emotions list

	// LabelColumns maps CSV columns to emotions for datasets with one
	// boolean-like column per emotion. Empty means "columns named after
	// vocabulary entries".
	LabelColumns []string `yaml:"label_columns"`
}

// EncoderConfig selects and configures the text encoder backend.
type EncoderConfig struct {
	// Provider: "hashing", "ollama" or "genai".
	Provider string `yaml:"provider"`

	OllamaEndpoint string `yaml:"ollama_endpoint"`
	OllamaModel    string `yaml:"ollama_model"`

	GenAIAPIKey string `yaml:"genai_api_key"`
	GenAIModel  string `yaml:"genai_model"`

	// HashDimensions sets the vector width of the hashing encoder.
	HashDimensions int `yaml:"hash_dimensions"`

	// CachePath is the SQLite embedding cache; empty disables caching.
	CachePath string `yaml:"cache_path"`
}

// TrainingConfig holds training hyperparameters.
type TrainingConfig struct {
	// LossStrategy: "weighted_bce" or "focal".
	LossStrategy string  `yaml:"loss_strategy"`
	FocalGamma   float64 `yaml:"focal_gamma"`
	FocalAlpha   float64 `yaml:"focal_alpha"`

	Epochs       int     `yaml:"epochs"`
	BatchSize    int     `yaml:"batch_size"`
	LearningRate float64 `yaml:"learning_rate"`

	// EarlyStoppingPatience is the number of consecutive evaluations
	// without macro-F1 improvement before training stops.
	EarlyStoppingPatience int `yaml:"early_stopping_patience"`

	// MaxSequenceLength truncates normalized text (runes) before encoding,
	// at training and inference time alike.
	MaxSequenceLength int `yaml:"max_sequence_length"`

	// ClassWeightCap bounds per-label positive-class weights so extremely
	// rare labels cannot blow up the loss.
	ClassWeightCap float64 `yaml:"class_weight_cap"`

	Seed int64 `yaml:"seed"`
}

// SplitConfig holds train/validation/test fractions.
type SplitConfig struct {
	Train      float64 `yaml:"train"`
	Validation float64 `yaml:"validation"`
	Test       float64 `yaml:"test"`
}

// ArtifactConfig locates the persisted model bundle.
type ArtifactConfig struct {
	Dir string `yaml:"dir"`

	// Watch enables reloading the serving engine when the bundle's
	// metadata file is rewritten by a retraining run.
	Watch bool `yaml:"watch"`
}

// LoggingConfig configures the categorized file logger.
type LoggingConfig struct {
	Dir   string `yaml:"dir"`
	Level string `yaml:"level"` // debug, info, warn, error
}

// ConfigError reports an invalid configuration value. Fatal at startup.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// DefaultConfig returns the default configuration: the eight standard
// depression emotions, the known alias table, and the hyperparameters the
// model card documents.
func DefaultConfig() *Config {
	return &Config{
		Name: "moodscope",

		Emotions: []string{
			"sadness",
			"emptiness",
			"hopelessness",
			"loneliness",
			"anger",
			"guilt",
			"shame",
			"fear",
		},

		Aliases: map[string]string{
			"suicide intent":             "suicide_intent",
			"brain dysfunction (forget)": "brain_dysfunction",
			"cognitive_dysfunction":      "brain_dysfunction",
			"cognitive dysfunction":      "brain_dysfunction",
		},

		Dataset: DatasetConfig{
			Schema: SchemaConfig{
				TextField:     "text",
				EmotionsField: "emotions",
			},
			MinTextLength: 10,
		},

		Encoder: EncoderConfig{
			Provider:       "hashing",
			OllamaEndpoint: "http://localhost:11434",
			OllamaModel:    "embeddinggemma",
			GenAIModel:     "gemini-embedding-001",
			HashDimensions: 512,
			CachePath:      "data/embeddings.db",
		},

		Training: TrainingConfig{
			LossStrategy:          "weighted_bce",
			FocalGamma:            2.0,
			FocalAlpha:            1.0,
			Epochs:                20,
			BatchSize:             16,
			LearningRate:          0.05,
			EarlyStoppingPatience: 2,
			MaxSequenceLength:     512,
			ClassWeightCap:        10.0,
			Seed:                  42,
		},

		Split: SplitConfig{
			Train:      0.70,
			Validation: 0.15,
			Test:       0.15,
		},

		Artifact: ArtifactConfig{
			Dir: "models/emotion_classifier",
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file, applying defaults for any
// omitted field and environment overrides on top. A missing file yields the
// defaults. The result is validated before being returned.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides lets the environment supply or override credentials and
// endpoints without touching the config file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GENAI_API_KEY"); v != "" {
		c.Encoder.GenAIAPIKey = v
	}
	if v := os.Getenv("MOODSCOPE_ENCODER"); v != "" {
		c.Encoder.Provider = v
	}
	if v := os.Getenv("OLLAMA_ENDPOINT"); v != "" {
		c.Encoder.OllamaEndpoint = v
	}
	if v := os.Getenv("MOODSCOPE_ARTIFACT_DIR"); v != "" {
		c.Artifact.Dir = v
	}
}

// Validate checks all fields, returning a *ConfigError describing the first
// violation found.
func (c *Config) Validate() error {
	if len(c.Emotions) < 2 {
		return &ConfigError{Field: "emotions", Reason: "at least two emotions required"}
	}
	seen := make(map[string]bool, len(c.Emotions))
	for _, e := range c.Emotions {
		if e == "" {
			return &ConfigError{Field: "emotions", Reason: "empty emotion name"}
		}
		if seen[e] {
			return &ConfigError{Field: "emotions", Reason: fmt.Sprintf("duplicate emotion %q", e)}
		}
		seen[e] = true
	}

	switch c.Encoder.Provider {
	case "hashing", "ollama", "genai":
	default:
		return &ConfigError{Field: "encoder.provider", Reason: fmt.Sprintf("unsupported provider %q (use 'hashing', 'ollama' or 'genai')", c.Encoder.Provider)}
	}
	if c.Encoder.Provider == "hashing" && c.Encoder.HashDimensions <= 0 {
		return &ConfigError{Field: "encoder.hash_dimensions", Reason: "must be positive"}
	}

	t := c.Training
	switch t.LossStrategy {
	case "weighted_bce", "focal":
	default:
		return &ConfigError{Field: "training.loss_strategy", Reason: fmt.Sprintf("unrecognized strategy %q (use 'weighted_bce' or 'focal')", t.LossStrategy)}
	}
	if t.Epochs <= 0 {
		return &ConfigError{Field: "training.epochs", Reason: "must be positive"}
	}
	if t.BatchSize <= 0 {
		return &ConfigError{Field: "training.batch_size", Reason: "must be positive"}
	}
	if t.LearningRate <= 0 {
		return &ConfigError{Field: "training.learning_rate", Reason: "must be positive"}
	}
	if t.EarlyStoppingPatience < 0 {
		return &ConfigError{Field: "training.early_stopping_patience", Reason: "must not be negative"}
	}
	if t.MaxSequenceLength <= 0 {
		return &ConfigError{Field: "training.max_sequence_length", Reason: "must be positive"}
	}
	if t.FocalGamma < 0 {
		return &ConfigError{Field: "training.focal_gamma", Reason: "must not be negative"}
	}
	if t.FocalAlpha <= 0 {
		return &ConfigError{Field: "training.focal_alpha", Reason: "must be positive"}
	}
	if t.ClassWeightCap < 1 {
		return &ConfigError{Field: "training.class_weight_cap", Reason: "must be at least 1"}
	}

	s := c.Split
	if s.Train <= 0 || s.Validation <= 0 || s.Test <= 0 {
		return &ConfigError{Field: "split", Reason: "all fractions must be positive"}
	}
	sum := s.Train + s.Validation + s.Test
	if sum < 0.999 || sum > 1.001 {
		return &ConfigError{Field: "split", Reason: fmt.Sprintf("fractions must sum to 1.0, got %.3f", sum)}
	}
	if s.Train <= s.Validation || s.Train <= s.Test {
		return &ConfigError{Field: "split", Reason: "train fraction must be strictly larger than eval fractions"}
	}

	if c.Dataset.MinTextLength < 0 {
		return &ConfigError{Field: "dataset.min_text_length", Reason: "must not be negative"}
	}

	return nil
}
