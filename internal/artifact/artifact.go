// Package artifact persists trained models. One directory per model holds
// the classifier weights and a single metadata file. Vocabulary order and
// thresholds live in the same file so they cannot drift apart between a
// training run and the serving process that loads it.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"moodscope/internal/classifier"
	"moodscope/internal/logging"
)

const (
	// MetadataFile binds vocabulary, thresholds and encoder identity.
	MetadataFile = "metadata.json"
	// WeightsFile holds the serialized classifier head.
	WeightsFile = "weights.json"
)

// ErrModelNotFound reports a missing artifact directory or metadata file.
var ErrModelNotFound = errors.New("model artifact not found: run training first")

// VocabularyMismatchError reports internally inconsistent metadata. A bundle
// in this state would silently mislabel every prediction, so loading fails
// instead.
type VocabularyMismatchError struct {
	Names      int
	Thresholds int
	Detail     string
}

func (e *VocabularyMismatchError) Error() string {
	return fmt.Sprintf("vocabulary mismatch: %d emotion names vs %d thresholds (%s); retrain the model",
		e.Names, e.Thresholds, e.Detail)
}

// Metadata is the persisted model contract. EmotionNames defines the index
// mapping; OptimalThresholds is parallel to it.
type Metadata struct {
	EmotionNames      []string  `json:"emotion_names"`
	NumEmotions       int       `json:"num_emotions"`
	OptimalThresholds []float64 `json:"optimal_thresholds"`

	EncoderName  string    `json:"encoder_name"`
	Dimensions   int       `json:"dimensions"`
	LossStrategy string    `json:"loss_strategy"`
	RunID        string    `json:"run_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// Bundle is a loaded model plus its metadata, treated as read-only after
// loading.
type Bundle struct {
	Metadata Metadata
	Model    *classifier.Model
}

// Validate checks the internal consistency of a bundle before saving or
// after loading.
func (b *Bundle) Validate() error {
	md := b.Metadata
	if len(md.EmotionNames) == 0 {
		return &VocabularyMismatchError{Detail: "empty emotion_names"}
	}
	if md.NumEmotions != len(md.EmotionNames) {
		return &VocabularyMismatchError{
			Names:      len(md.EmotionNames),
			Thresholds: len(md.OptimalThresholds),
			Detail:     fmt.Sprintf("num_emotions=%d disagrees with emotion_names", md.NumEmotions),
		}
	}
	if len(md.OptimalThresholds) != len(md.EmotionNames) {
		return &VocabularyMismatchError{
			Names:      len(md.EmotionNames),
			Thresholds: len(md.OptimalThresholds),
			Detail:     "thresholds not parallel to emotion_names",
		}
	}
	for j, th := range md.OptimalThresholds {
		if th < 0 || th > 1 {
			return fmt.Errorf("threshold for %s out of range: %v", md.EmotionNames[j], th)
		}
	}
	if b.Model != nil {
		if b.Model.NumLabels() != len(md.EmotionNames) {
			return &VocabularyMismatchError{
				Names:      len(md.EmotionNames),
				Thresholds: len(md.OptimalThresholds),
				Detail:     fmt.Sprintf("model has %d output labels", b.Model.NumLabels()),
			}
		}
		if md.Dimensions != 0 && b.Model.Dimensions() != md.Dimensions {
			return fmt.Errorf("model expects %d-dimensional input, metadata says %d",
				b.Model.Dimensions(), md.Dimensions)
		}
	}
	return nil
}

// Save writes the bundle to dir, creating it if needed. Files are written to
// temp names and renamed so a crashed run never leaves a half-written
// contract behind.
func Save(dir string, b *Bundle) error {
	timer := logging.StartTimer(logging.CategoryInference, "artifact.Save")
	defer timer.Stop()

	if err := b.Validate(); err != nil {
		return err
	}
	if b.Model == nil {
		return fmt.Errorf("cannot save bundle without model weights")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	if err := writeJSON(filepath.Join(dir, WeightsFile), b.Model); err != nil {
		return fmt.Errorf("failed to write weights: %w", err)
	}
	// Metadata goes last: its presence marks the bundle complete.
	if err := writeJSON(filepath.Join(dir, MetadataFile), b.Metadata); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	logging.Inference("Saved model artifact to %s (%d labels, encoder=%s)",
		dir, b.Metadata.NumEmotions, b.Metadata.EncoderName)
	return nil
}

// Load reads a bundle from dir. Returns ErrModelNotFound when the directory
// or metadata file is absent, and a VocabularyMismatchError when the stored
// contract is inconsistent.
func Load(dir string) (*Bundle, error) {
	timer := logging.StartTimer(logging.CategoryInference, "artifact.Load")
	defer timer.Stop()

	var md Metadata
	if err := readJSON(filepath.Join(dir, MetadataFile), &md); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, dir)
		}
		return nil, fmt.Errorf("corrupt model metadata in %s (retrain the model): %w", dir, err)
	}

	var model classifier.Model
	if err := readJSON(filepath.Join(dir, WeightsFile), &model); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: weights missing in %s", ErrModelNotFound, dir)
		}
		return nil, fmt.Errorf("corrupt model weights in %s (retrain the model): %w", dir, err)
	}

	b := &Bundle{Metadata: md, Model: &model}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	logging.Inference("Loaded model artifact from %s (%d labels, encoder=%s)",
		dir, md.NumEmotions, md.EncoderName)
	return b, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
