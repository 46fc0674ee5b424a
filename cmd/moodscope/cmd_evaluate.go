package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"moodscope/internal/classifier"
	"moodscope/internal/dataset"
	"moodscope/internal/inference"
)

// evaluateCmd scores the persisted model on a labeled dataset
var evaluateCmd = &cobra.Command{
	Use:   "evaluate [dataset]",
	Short: "Score the trained model on a labeled dataset",
	Long: `Loads the persisted model and scores it against a labeled dataset
using the calibrated thresholds stored in the artifact.

Useful for checking a deployed model against fresh labeled data without
retraining.`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	enc, closeCache, err := buildEncoder(ctx, cfg)
	if err != nil {
		return err
	}
	if closeCache != nil {
		defer closeCache()
	}

	engine, err := inference.NewLoader(cfg.Artifact.Dir, enc, cfg.Training.MaxSequenceLength).Engine()
	if err != nil {
		return err
	}

	// The dataset must use the model's vocabulary, not the config's: the
	// artifact defines the label order.
	vocab, err := dataset.NewVocabulary(engine.Emotions(), cfg.Aliases)
	if err != nil {
		return err
	}
	d, err := dataset.Load(args[0], vocab, dataset.ExtractOptions{
		Schema: dataset.Schema{
			TextField:     cfg.Dataset.Schema.TextField,
			EmotionsField: cfg.Dataset.Schema.EmotionsField,
			LabelColumns:  cfg.Dataset.Schema.LabelColumns,
		},
		MinTextLength: cfg.Dataset.MinTextLength,
	})
	if err != nil {
		return err
	}
	if d.Len() == 0 {
		return &dataset.DataError{Reason: "no usable records in " + args[0]}
	}

	probs := make([][]float64, d.Len())
	for i, ex := range d.Examples {
		probs[i], err = engine.Probabilities(ctx, ex.Text)
		if err != nil {
			return err
		}
	}

	metrics, err := classifier.Evaluate(probs, d.LabelMatrix(), engine.Thresholds())
	if err != nil {
		return err
	}

	fmt.Printf("Evaluated %d records from %s\n", d.Len(), args[0])
	fmt.Printf("  accuracy: %.4f\n", metrics.ExactMatch)
	fmt.Printf("  micro-F1: %.4f\n", metrics.MicroF1)
	fmt.Printf("  macro-F1: %.4f\n", metrics.MacroF1)
	for j, name := range engine.Emotions() {
		lm := metrics.PerLabel[j]
		fmt.Printf("  %-18s p=%.3f r=%.3f f1=%.3f\n", name, lm.Precision, lm.Recall, lm.F1)
	}
	return nil
}
