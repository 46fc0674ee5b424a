package inference

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moodscope/internal/artifact"
	"moodscope/internal/classifier"
)

// fixedEncoder always returns the same vector, so probabilities are fully
// determined by the model bias.
type fixedEncoder struct {
	vec  []float32
	name string
}

func (f *fixedEncoder) Encode(context.Context, string) ([]float32, error) {
	return f.vec, nil
}

func (f *fixedEncoder) EncodeBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = f.vec
	}
	return out, nil
}

func (f *fixedEncoder) Dimensions() int { return len(f.vec) }
func (f *fixedEncoder) Name() string    { return f.name }

// biasBundle builds a two-label bundle whose probabilities equal
// sigmoid(bias) for every input.
func biasBundle(biases, thresholds []float64) *artifact.Bundle {
	weights := make([][]float64, len(biases))
	for j := range weights {
		weights[j] = []float64{0, 0}
	}
	return &artifact.Bundle{
		Metadata: artifact.Metadata{
			EmotionNames:      []string{"sadness", "anger"},
			NumEmotions:       2,
			OptimalThresholds: thresholds,
			EncoderName:       "fixed:2",
			Dimensions:        2,
			CreatedAt:         time.Now().UTC(),
		},
		Model: &classifier.Model{Weights: weights, Bias: biases},
	}
}

func testEngine(t *testing.T, biases, thresholds []float64) *Engine {
	t.Helper()
	enc := &fixedEncoder{vec: []float32{0, 0}, name: "fixed:2"}
	eng, err := NewEngine(biasBundle(biases, thresholds), enc, 512)
	require.NoError(t, err)
	return eng
}

func TestPredictThresholdBoundary(t *testing.T) {
	// Both labels score exactly 0.5; only sadness (threshold 0.4) clears,
	// anger needs 0.6.
	eng := testEngine(t, []float64{0, 0}, []float64{0.4, 0.6})

	preds, err := eng.Predict(context.Background(), "an ordinary day")
	require.NoError(t, err)
	require.Len(t, preds, 1)
	require.Equal(t, "sadness", preds[0].Emotion)
	require.InDelta(t, 0.5, preds[0].Confidence, 1e-9)
}

func TestPredictEmptyResultIsValid(t *testing.T) {
	eng := testEngine(t, []float64{0, 0}, []float64{0.9, 0.9})

	preds, err := eng.Predict(context.Background(), "nothing stands out")
	require.NoError(t, err)
	require.Empty(t, preds)
}

func TestPredictSortedByConfidence(t *testing.T) {
	// anger gets the higher bias, so it must come first.
	eng := testEngine(t, []float64{0.5, 2.0}, []float64{0.1, 0.1})

	preds, err := eng.Predict(context.Background(), "everything at once")
	require.NoError(t, err)
	require.Len(t, preds, 2)
	require.Equal(t, "anger", preds[0].Emotion)
	require.Equal(t, "sadness", preds[1].Emotion)
	require.Greater(t, preds[0].Confidence, preds[1].Confidence)
}

func TestPredictEmptyInput(t *testing.T) {
	// Empty input normalizes to the empty-text sentinel instead of erroring;
	// emotion absence is a valid outcome.
	eng := testEngine(t, []float64{-5, -5}, []float64{0.5, 0.5})

	preds, err := eng.Predict(context.Background(), "   ")
	require.NoError(t, err)
	require.Empty(t, preds)
}

func TestPredictIdempotent(t *testing.T) {
	eng := testEngine(t, []float64{0.3, -0.2}, []float64{0.4, 0.4})

	a, err := eng.Predict(context.Background(), "same entry twice")
	require.NoError(t, err)
	b, err := eng.Predict(context.Background(), "same entry twice")
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestPredictConcurrent(t *testing.T) {
	eng := testEngine(t, []float64{1, -1}, []float64{0.5, 0.5})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := 0; k < 50; k++ {
				preds, err := eng.Predict(context.Background(), "shared engine")
				assert.NoError(t, err)
				if assert.Len(t, preds, 1) {
					assert.Equal(t, "sadness", preds[0].Emotion)
				}
			}
		}()
	}
	wg.Wait()
}

func TestNewEngineRejectsWrongEncoder(t *testing.T) {
	enc := &fixedEncoder{vec: []float32{0, 0}, name: "other:2"}
	_, err := NewEngine(biasBundle([]float64{0, 0}, []float64{0.5, 0.5}), enc, 512)
	require.Error(t, err)
	require.Contains(t, err.Error(), "trained with encoder")
}

func TestNewEngineRejectsDimensionMismatch(t *testing.T) {
	enc := &fixedEncoder{vec: []float32{0, 0, 0}, name: "fixed:2"}
	b := biasBundle([]float64{0, 0}, []float64{0.5, 0.5})
	b.Metadata.Dimensions = 0 // skip the metadata dimension check
	_, err := NewEngine(b, enc, 512)
	require.Error(t, err)
}

func TestNewEngineRejectsSkewedBundle(t *testing.T) {
	enc := &fixedEncoder{vec: []float32{0, 0}, name: "fixed:2"}
	b := biasBundle([]float64{0, 0}, []float64{0.5})
	_, err := NewEngine(b, enc, 512)
	var mismatch *artifact.VocabularyMismatchError
	require.ErrorAs(t, err, &mismatch)
}
