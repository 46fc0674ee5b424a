package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"moodscope/internal/artifact"
	"moodscope/internal/trainer"
)

var trainDataPath string

// trainCmd runs the full training pipeline
var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train an emotion classifier and persist the model artifact",
	Long: `Runs the full training pipeline:
  1. Extract labeled records and normalize text
  2. Stratified train/validation/test split
  3. Fit the classifier with early stopping on validation macro-F1
  4. Calibrate per-emotion decision thresholds on the validation split
  5. Score the held-out test split and persist the bundle

The artifact directory and a results.json run summary are written to the
configured artifact dir. Retraining never mutates an existing artifact
in place; the bundle is replaced atomically.`,
	RunE: runTrain,
}

func init() {
	trainCmd.Flags().StringVar(&trainDataPath, "data", "", "Labeled dataset path (overrides config)")
}

func runTrain(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	enc, closeCache, err := buildEncoder(ctx, cfg)
	if err != nil {
		return err
	}
	if closeCache != nil {
		defer closeCache()
	}

	split, err := loadSplit(cfg, trainDataPath)
	if err != nil {
		return err
	}
	if split.Degraded {
		logger.Warn("Stratified split degraded to plain random split; results may be less reliable",
			zap.String("reason", split.DegradedReason))
	}
	logger.Info("Dataset split",
		zap.Int("train", split.Train.Len()),
		zap.Int("validation", split.Validation.Len()),
		zap.Int("test", split.Test.Len()))

	bundle, result, err := trainer.New(enc, cfg.Training).Train(ctx, split)
	if err != nil {
		return err
	}

	if err := artifact.Save(cfg.Artifact.Dir, bundle); err != nil {
		return err
	}
	resultsPath := filepath.Join(cfg.Artifact.Dir, "results.json")
	if err := result.Save(resultsPath); err != nil {
		return err
	}

	logger.Info("Training complete",
		zap.String("run_id", result.RunID),
		zap.Int("best_epoch", result.BestEpoch),
		zap.Float64("validation_macro_f1", result.ValidationMacroF1),
		zap.Float64("test_macro_f1", result.Test.MacroF1))

	fmt.Printf("Model saved to %s (run %s)\n", cfg.Artifact.Dir, result.RunID)
	fmt.Printf("  epochs run:    %d (best %d)\n", result.EpochsRun, result.BestEpoch)
	fmt.Printf("  test accuracy: %.4f\n", result.Test.ExactMatch)
	fmt.Printf("  test micro-F1: %.4f\n", result.Test.MicroF1)
	fmt.Printf("  test macro-F1: %.4f\n", result.Test.MacroF1)
	for j, name := range result.Emotions {
		lm := result.Test.PerLabel[j]
		fmt.Printf("  %-18s p=%.3f r=%.3f f1=%.3f threshold=%.3f\n",
			name, lm.Precision, lm.Recall, lm.F1, result.Thresholds[j])
	}
	if result.SplitDegraded {
		fmt.Printf("  WARNING: split degraded (%s)\n", result.SplitDegradedReason)
	}
	return nil
}
