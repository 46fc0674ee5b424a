package trainer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"moodscope/internal/config"
	"moodscope/internal/dataset"
	"moodscope/internal/encoder"
)

var sadTexts = []string{
	"crying all night and feeling hopeless",
	"tears again today so much sadness",
	"everything feels heavy and sad lately",
	"grief and sorrow will not let go",
	"sobbing quietly feeling miserable and low",
	"another sad day full of crying",
	"heartbroken and weeping most of the evening",
	"deep sadness settled over me today",
}

var angryTexts = []string{
	"furious at everyone and everything today",
	"rage boiling over at small things",
	"so mad i slammed the door",
	"irritated and angry the entire shift",
	"seething with anger after that call",
	"snapped at my friend out of fury",
	"angry outburst again feeling resentful",
	"fuming about the argument all morning",
}

// separableSplit builds a two-label problem the linear head can solve: the
// sad and angry word pools share no tokens.
func separableSplit(t *testing.T) *dataset.SplitResult {
	t.Helper()
	vocab, err := dataset.NewVocabulary([]string{"sadness", "anger"}, nil)
	require.NoError(t, err)

	build := func(reps int, tag string) *dataset.Dataset {
		d := &dataset.Dataset{Vocabulary: vocab}
		n := 0
		for r := 0; r < reps; r++ {
			for _, text := range sadTexts {
				d.Examples = append(d.Examples, dataset.Example{
					ID: fmt.Sprintf("%s-sad-%d", tag, n), Text: text, Labels: []string{"sadness"},
				})
				n++
			}
			for _, text := range angryTexts {
				d.Examples = append(d.Examples, dataset.Example{
					ID: fmt.Sprintf("%s-angry-%d", tag, n), Text: text, Labels: []string{"anger"},
				})
				n++
			}
		}
		return d
	}

	return &dataset.SplitResult{
		Train:      build(4, "train"),
		Validation: build(1, "val"),
		Test:       build(1, "test"),
	}
}

func testOpts() config.TrainingConfig {
	return config.TrainingConfig{
		LossStrategy:          "weighted_bce",
		Epochs:                30,
		BatchSize:             8,
		LearningRate:          0.5,
		EarlyStoppingPatience: 5,
		MaxSequenceLength:     512,
		ClassWeightCap:        10,
		Seed:                  42,
	}
}

func TestTrainLearnsSeparableLabels(t *testing.T) {
	enc, err := encoder.NewHashingEncoder(256)
	require.NoError(t, err)

	tr := New(enc, testOpts())
	bundle, result, err := tr.Train(context.Background(), separableSplit(t))
	require.NoError(t, err)

	require.NoError(t, bundle.Validate())
	require.Equal(t, []string{"sadness", "anger"}, bundle.Metadata.EmotionNames)
	require.Len(t, bundle.Metadata.OptimalThresholds, 2)
	require.Equal(t, "hashing:256", bundle.Metadata.EncoderName)

	require.Greater(t, result.Test.MacroF1, 0.8, "separable labels should be learned")
	require.Greater(t, result.ValidationMacroF1, 0.8)
	require.LessOrEqual(t, result.EpochsRun, 30)
	require.GreaterOrEqual(t, result.BestEpoch, 1)
	require.NotEmpty(t, result.RunID)
	require.False(t, result.SplitDegraded)
	require.Len(t, result.Test.PerLabel, 2)
}

func TestTrainDeterministicForSeed(t *testing.T) {
	enc, err := encoder.NewHashingEncoder(128)
	require.NoError(t, err)

	a, ra, err := New(enc, testOpts()).Train(context.Background(), separableSplit(t))
	require.NoError(t, err)
	b, rb, err := New(enc, testOpts()).Train(context.Background(), separableSplit(t))
	require.NoError(t, err)

	require.Equal(t, a.Model.Weights, b.Model.Weights)
	require.Equal(t, a.Metadata.OptimalThresholds, b.Metadata.OptimalThresholds)
	require.Equal(t, ra.Test, rb.Test)
}

func TestTrainFocalLoss(t *testing.T) {
	enc, err := encoder.NewHashingEncoder(128)
	require.NoError(t, err)

	opts := testOpts()
	opts.LossStrategy = "focal"
	opts.FocalGamma = 2
	opts.FocalAlpha = 1

	bundle, result, err := New(enc, opts).Train(context.Background(), separableSplit(t))
	require.NoError(t, err)
	require.Equal(t, "focal", bundle.Metadata.LossStrategy)
	require.Greater(t, result.Test.MacroF1, 0.5)
}

func TestTrainRejectsUnknownLoss(t *testing.T) {
	enc, err := encoder.NewHashingEncoder(64)
	require.NoError(t, err)

	opts := testOpts()
	opts.LossStrategy = "hinge"

	_, _, err = New(enc, opts).Train(context.Background(), separableSplit(t))
	var cfgErr *config.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestTrainFailsFastOnDeadLabel(t *testing.T) {
	enc, err := encoder.NewHashingEncoder(64)
	require.NoError(t, err)

	split := separableSplit(t)
	// Strip every anger positive from the training split.
	for i := range split.Train.Examples {
		split.Train.Examples[i].Labels = []string{"sadness"}
	}

	_, _, err = New(enc, testOpts()).Train(context.Background(), split)
	var dataErr *dataset.DataError
	require.ErrorAs(t, err, &dataErr)
}

func TestTrainHonorsCancellation(t *testing.T) {
	enc, err := encoder.NewHashingEncoder(64)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err = New(enc, testOpts()).Train(ctx, separableSplit(t))
	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestResultSave(t *testing.T) {
	enc, err := encoder.NewHashingEncoder(64)
	require.NoError(t, err)

	_, result, err := New(enc, testOpts()).Train(context.Background(), separableSplit(t))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "runs", "results.json")
	require.NoError(t, result.Save(path))
	require.FileExists(t, path)
}
