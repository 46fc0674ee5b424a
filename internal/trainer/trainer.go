// Package trainer runs the full training pipeline: encode, fit with early
// stopping on validation macro-F1, calibrate per-label thresholds, and score
// the held-out test split.
package trainer

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"moodscope/internal/artifact"
	"moodscope/internal/classifier"
	"moodscope/internal/config"
	"moodscope/internal/dataset"
	"moodscope/internal/encoder"
	"moodscope/internal/logging"
	"moodscope/internal/threshold"
)

// Result is the run summary produced alongside the persisted bundle.
type Result struct {
	RunID        string    `json:"run_id"`
	CreatedAt    time.Time `json:"created_at"`
	LossStrategy string    `json:"loss_strategy"`
	EncoderName  string    `json:"encoder_name"`

	EpochsRun int `json:"epochs_run"`
	BestEpoch int `json:"best_epoch"`

	TrainExamples       int    `json:"train_examples"`
	ValidationExamples  int    `json:"validation_examples"`
	TestExamples        int    `json:"test_examples"`
	SplitDegraded       bool   `json:"split_degraded,omitempty"`
	SplitDegradedReason string `json:"split_degraded_reason,omitempty"`

	ValidationMacroF1 float64            `json:"validation_macro_f1"`
	Test              classifier.Metrics `json:"test"`
	Thresholds        []float64          `json:"thresholds"`
	Emotions          []string           `json:"emotions"`
	Duration          time.Duration      `json:"duration_ns"`
}

// Trainer fits a classifier over encoded text.
type Trainer struct {
	enc  encoder.TextEncoder
	opts config.TrainingConfig
}

// New creates a trainer using the given encoder and training options.
func New(enc encoder.TextEncoder, opts config.TrainingConfig) *Trainer {
	return &Trainer{enc: enc, opts: opts}
}

// Train runs the pipeline over an already-split dataset and returns the
// persistable bundle plus the run summary. It fails fast on datasets that
// cannot support training.
func (t *Trainer) Train(ctx context.Context, split *dataset.SplitResult) (*artifact.Bundle, *Result, error) {
	timer := logging.StartTimer(logging.CategoryTrainer, "Train")
	defer timer.Stop()
	start := time.Now()

	if err := split.Train.ValidateForTraining(); err != nil {
		return nil, nil, err
	}
	if split.Validation.Len() == 0 || split.Test.Len() == 0 {
		return nil, nil, &dataset.DataError{Reason: "validation and test splits must be non-empty"}
	}

	loss, err := classifier.NewLoss(t.opts.LossStrategy, t.opts.FocalGamma, t.opts.FocalAlpha)
	if err != nil {
		return nil, nil, &config.ConfigError{Field: "training.loss_strategy", Reason: err.Error()}
	}

	// Class weights come from the training split only; the validation and
	// test label distributions stay unseen.
	var classWeights []float64
	if loss.Name() == "weighted_bce" {
		classWeights, err = split.Train.ClassWeights(t.opts.ClassWeightCap)
		if err != nil {
			return nil, nil, err
		}
		logging.TrainerDebug("Class weights: %v", classWeights)
	}

	vocab := split.Train.Vocabulary
	logging.Trainer("Training %s on %d examples (%d validation, %d test, %d labels)",
		loss.Name(), split.Train.Len(), split.Validation.Len(), split.Test.Len(), vocab.Len())
	if split.Degraded {
		logging.TrainerWarn("Split was degraded (%s); results may be less reliable", split.DegradedReason)
	}

	trainX, err := t.encodeAll(ctx, split.Train)
	if err != nil {
		return nil, nil, err
	}
	valX, err := t.encodeAll(ctx, split.Validation)
	if err != nil {
		return nil, nil, err
	}
	testX, err := t.encodeAll(ctx, split.Test)
	if err != nil {
		return nil, nil, err
	}

	trainY := split.Train.LabelMatrix()
	valY := split.Validation.LabelMatrix()
	testY := split.Test.LabelMatrix()

	model, err := classifier.NewModel(vocab.Len(), t.enc.Dimensions(), t.opts.Seed)
	if err != nil {
		return nil, nil, err
	}

	best := model.Clone()
	bestMacroF1 := -1.0
	bestEpoch := 0
	sinceImprovement := 0
	epochsRun := 0

	rng := rand.New(rand.NewSource(t.opts.Seed))
	order := make([]int, len(trainX))
	for i := range order {
		order[i] = i
	}

	for epoch := 1; epoch <= t.opts.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		epochsRun = epoch

		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		var epochLoss float64
		batches := 0
		for s := 0; s < len(order); s += t.opts.BatchSize {
			e := s + t.opts.BatchSize
			if e > len(order) {
				e = len(order)
			}
			bx := make([][]float32, 0, e-s)
			by := make([][]float64, 0, e-s)
			for _, i := range order[s:e] {
				bx = append(bx, trainX[i])
				by = append(by, trainY[i])
			}
			l, err := model.Step(bx, by, classWeights, loss, t.opts.LearningRate)
			if err != nil {
				return nil, nil, err
			}
			epochLoss += l
			batches++
		}

		valMetrics, err := t.evaluate(model, valX, valY, classifier.UniformThresholds(vocab.Len(), threshold.DefaultCutoff))
		if err != nil {
			return nil, nil, err
		}

		logging.Trainer("Epoch %d/%d: loss=%.4f val_macro_f1=%.4f val_micro_f1=%.4f",
			epoch, t.opts.Epochs, epochLoss/float64(batches), valMetrics.MacroF1, valMetrics.MicroF1)

		if valMetrics.MacroF1 > bestMacroF1 {
			bestMacroF1 = valMetrics.MacroF1
			bestEpoch = epoch
			best = model.Clone()
			sinceImprovement = 0
		} else {
			sinceImprovement++
			if t.opts.EarlyStoppingPatience > 0 && sinceImprovement >= t.opts.EarlyStoppingPatience {
				logging.Trainer("Early stopping at epoch %d (no macro-F1 gain for %d epochs, best was epoch %d)",
					epoch, sinceImprovement, bestEpoch)
				break
			}
		}
	}

	// Calibrate thresholds on validation predictions from the best model.
	valProbs, err := t.probabilities(best, valX)
	if err != nil {
		return nil, nil, err
	}
	thresholds, err := threshold.Optimize(valProbs, valY, vocab.Len())
	if err != nil {
		return nil, nil, err
	}

	testMetrics, err := t.evaluate(best, testX, testY, thresholds)
	if err != nil {
		return nil, nil, err
	}
	logging.Trainer("Test: exact_match=%.4f micro_f1=%.4f macro_f1=%.4f",
		testMetrics.ExactMatch, testMetrics.MicroF1, testMetrics.MacroF1)

	runID := uuid.NewString()
	bundle := &artifact.Bundle{
		Metadata: artifact.Metadata{
			EmotionNames:      vocab.Names(),
			NumEmotions:       vocab.Len(),
			OptimalThresholds: thresholds,
			EncoderName:       t.enc.Name(),
			Dimensions:        t.enc.Dimensions(),
			LossStrategy:      loss.Name(),
			RunID:             runID,
			CreatedAt:         time.Now().UTC(),
		},
		Model: best,
	}
	if err := bundle.Validate(); err != nil {
		return nil, nil, err
	}

	result := &Result{
		RunID:               runID,
		CreatedAt:           bundle.Metadata.CreatedAt,
		LossStrategy:        loss.Name(),
		EncoderName:         t.enc.Name(),
		EpochsRun:           epochsRun,
		BestEpoch:           bestEpoch,
		TrainExamples:       split.Train.Len(),
		ValidationExamples:  split.Validation.Len(),
		TestExamples:        split.Test.Len(),
		SplitDegraded:       split.Degraded,
		SplitDegradedReason: split.DegradedReason,
		ValidationMacroF1:   bestMacroF1,
		Test:                testMetrics,
		Thresholds:          thresholds,
		Emotions:            vocab.Names(),
		Duration:            time.Since(start),
	}
	return bundle, result, nil
}

func (t *Trainer) probabilities(m *classifier.Model, inputs [][]float32) ([][]float64, error) {
	probs := make([][]float64, len(inputs))
	for i, x := range inputs {
		p, err := m.Probabilities(x)
		if err != nil {
			return nil, err
		}
		probs[i] = p
	}
	return probs, nil
}

func (t *Trainer) evaluate(m *classifier.Model, inputs [][]float32, targets [][]float64, thresholds []float64) (classifier.Metrics, error) {
	probs, err := t.probabilities(m, inputs)
	if err != nil {
		return classifier.Metrics{}, err
	}
	return classifier.Evaluate(probs, targets, thresholds)
}

func validateShapes(vectors [][]float32, want int) error {
	for i, v := range vectors {
		if len(v) != want {
			return fmt.Errorf("encoder returned %d dimensions for example %d, expected %d", len(v), i, want)
		}
	}
	return nil
}
