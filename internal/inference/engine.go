// Package inference serves predictions from a persisted model. An Engine is
// immutable once built, so any number of concurrent Predict calls can share
// it without locking.
package inference

import (
	"context"
	"fmt"
	"sort"

	"moodscope/internal/artifact"
	"moodscope/internal/encoder"
	"moodscope/internal/logging"
	"moodscope/internal/textnorm"
)

// Prediction is one emotion whose probability cleared its threshold.
type Prediction struct {
	Emotion    string  `json:"emotion"`
	Confidence float64 `json:"confidence"`
}

// Engine classifies text against a loaded model bundle.
type Engine struct {
	bundle *artifact.Bundle
	enc    encoder.TextEncoder
	maxSeq int
}

// NewEngine binds a bundle to the encoder it was trained with. The encoder
// name must match the one recorded at training time; a different encoder
// would produce vectors the weights were never fit to.
func NewEngine(bundle *artifact.Bundle, enc encoder.TextEncoder, maxSequenceLength int) (*Engine, error) {
	if err := bundle.Validate(); err != nil {
		return nil, err
	}
	if enc.Name() != bundle.Metadata.EncoderName {
		return nil, fmt.Errorf("model was trained with encoder %q but engine was given %q; retrain or switch encoders",
			bundle.Metadata.EncoderName, enc.Name())
	}
	if enc.Dimensions() != bundle.Model.Dimensions() {
		return nil, fmt.Errorf("encoder produces %d dimensions, model expects %d",
			enc.Dimensions(), bundle.Model.Dimensions())
	}
	return &Engine{bundle: bundle, enc: enc, maxSeq: maxSequenceLength}, nil
}

// Emotions returns the label vocabulary in model order.
func (e *Engine) Emotions() []string {
	return e.bundle.Metadata.EmotionNames
}

// Thresholds returns the calibrated per-label cutoffs, parallel to Emotions.
func (e *Engine) Thresholds() []float64 {
	return e.bundle.Metadata.OptimalThresholds
}

// Predict returns every emotion whose probability clears its stored
// threshold, sorted by confidence descending. An empty list is a valid
// outcome meaning no strong signal, not an error.
func (e *Engine) Predict(ctx context.Context, text string) ([]Prediction, error) {
	normalized := textnorm.CleanTruncate(text, e.maxSeq)

	vec, err := e.enc.Encode(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to encode text: %w", err)
	}

	probs, err := e.bundle.Model.Probabilities(vec)
	if err != nil {
		return nil, err
	}

	md := e.bundle.Metadata
	preds := make([]Prediction, 0, len(probs))
	for j, p := range probs {
		if p >= md.OptimalThresholds[j] {
			preds = append(preds, Prediction{Emotion: md.EmotionNames[j], Confidence: p})
		}
	}

	sort.SliceStable(preds, func(i, j int) bool {
		return preds[i].Confidence > preds[j].Confidence
	})

	logging.InferenceDebug("Predict: %d/%d labels cleared threshold", len(preds), len(probs))
	return preds, nil
}

// Probabilities returns the raw per-label probabilities in vocabulary order,
// without threshold filtering. Used by the evaluate command.
func (e *Engine) Probabilities(ctx context.Context, text string) ([]float64, error) {
	normalized := textnorm.CleanTruncate(text, e.maxSeq)

	vec, err := e.enc.Encode(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to encode text: %w", err)
	}
	return e.bundle.Model.Probabilities(vec)
}
