package artifact

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"moodscope/internal/classifier"
)

func testBundle(t *testing.T) *Bundle {
	t.Helper()
	model, err := classifier.NewModel(3, 8, 42)
	require.NoError(t, err)

	return &Bundle{
		Metadata: Metadata{
			EmotionNames:      []string{"sadness", "anger", "fear"},
			NumEmotions:       3,
			OptimalThresholds: []float64{0.31, 0.5, 0.18},
			EncoderName:       "hashing:8",
			Dimensions:        8,
			LossStrategy:      "weighted_bce",
			RunID:             "test-run",
			CreatedAt:         time.Now().UTC().Truncate(time.Second),
		},
		Model: model,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "model")
	b := testBundle(t)
	require.NoError(t, Save(dir, b))

	loaded, err := Load(dir)
	require.NoError(t, err)

	if diff := cmp.Diff(b.Metadata, loaded.Metadata); diff != "" {
		t.Errorf("metadata round trip mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(b.Model, loaded.Model); diff != "" {
		t.Errorf("model round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMissingDirectory(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "never-trained"))
	require.ErrorIs(t, err, ErrModelNotFound)
}

func TestLoadMissingWeights(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "model")
	b := testBundle(t)
	require.NoError(t, Save(dir, b))
	require.NoError(t, os.Remove(filepath.Join(dir, WeightsFile)))

	_, err := Load(dir)
	require.ErrorIs(t, err, ErrModelNotFound)
}

func TestLoadCorruptMetadata(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "model")
	b := testBundle(t)
	require.NoError(t, Save(dir, b))
	require.NoError(t, os.WriteFile(filepath.Join(dir, MetadataFile), []byte("{nope"), 0644))

	_, err := Load(dir)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrModelNotFound)
	require.Contains(t, err.Error(), "retrain")
}

func TestLoadVocabularyMismatch(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "model")
	b := testBundle(t)
	require.NoError(t, Save(dir, b))

	// Drop one threshold behind the bundle's back.
	b.Metadata.OptimalThresholds = b.Metadata.OptimalThresholds[:2]
	raw, err := json.Marshal(b.Metadata)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, MetadataFile), raw, 0644))

	_, err = Load(dir)
	var mismatch *VocabularyMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, 3, mismatch.Names)
	require.Equal(t, 2, mismatch.Thresholds)
}

func TestValidateRejectsSkew(t *testing.T) {
	b := testBundle(t)
	b.Metadata.NumEmotions = 5
	var mismatch *VocabularyMismatchError
	require.True(t, errors.As(b.Validate(), &mismatch))

	b = testBundle(t)
	b.Metadata.OptimalThresholds[1] = 1.4
	require.Error(t, b.Validate())

	b = testBundle(t)
	model, err := classifier.NewModel(2, 8, 1)
	require.NoError(t, err)
	b.Model = model
	require.True(t, errors.As(b.Validate(), &mismatch))
}

func TestSaveRejectsInvalidBundle(t *testing.T) {
	dir := t.TempDir()
	b := testBundle(t)
	b.Metadata.OptimalThresholds = nil
	require.Error(t, Save(dir, b))

	// Nothing should have been written.
	_, err := os.Stat(filepath.Join(dir, MetadataFile))
	require.True(t, os.IsNotExist(err))
}
