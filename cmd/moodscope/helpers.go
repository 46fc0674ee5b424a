package main

import (
	"context"
	"fmt"

	"moodscope/internal/config"
	"moodscope/internal/dataset"
	"moodscope/internal/encoder"
	"moodscope/internal/store"
)

// buildEncoder constructs the configured text encoder, wrapped in the SQLite
// embedding cache when one is configured. Remote providers are probed once
// here so an unreachable backend fails the command up front instead of
// mid-run. The returned closer is nil when no cache is open.
func buildEncoder(ctx context.Context, cfg *config.Config) (encoder.TextEncoder, func() error, error) {
	enc, err := encoder.New(encoder.Config{
		Provider:       cfg.Encoder.Provider,
		HashDimensions: cfg.Encoder.HashDimensions,
		OllamaEndpoint: cfg.Encoder.OllamaEndpoint,
		OllamaModel:    cfg.Encoder.OllamaModel,
		GenAIAPIKey:    cfg.Encoder.GenAIAPIKey,
		GenAIModel:     cfg.Encoder.GenAIModel,
	})
	if err != nil {
		return nil, nil, err
	}
	if hc, ok := enc.(encoder.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return nil, nil, fmt.Errorf("encoder %s is not reachable: %w", enc.Name(), err)
		}
	}

	if cfg.Encoder.CachePath == "" {
		return enc, nil, nil
	}
	cache, err := store.NewEmbeddingCache(cfg.Encoder.CachePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open embedding cache: %w", err)
	}
	return store.NewCachedEncoder(enc, cache), cache.Close, nil
}

// loadSplit produces the train/validation/test datasets. Pre-split files are
// honored when configured; otherwise a single dataset is split by the
// configured fractions.
func loadSplit(cfg *config.Config, dataPath string) (*dataset.SplitResult, error) {
	vocab, err := dataset.NewVocabulary(cfg.Emotions, cfg.Aliases)
	if err != nil {
		return nil, err
	}

	opts := dataset.ExtractOptions{
		Schema: dataset.Schema{
			TextField:     cfg.Dataset.Schema.TextField,
			EmotionsField: cfg.Dataset.Schema.EmotionsField,
			LabelColumns:  cfg.Dataset.Schema.LabelColumns,
		},
		MinTextLength: cfg.Dataset.MinTextLength,
	}

	if cfg.Dataset.TrainPath != "" {
		if cfg.Dataset.ValPath == "" || cfg.Dataset.TestPath == "" {
			return nil, &config.ConfigError{
				Field:  "dataset",
				Reason: "train_path requires val_path and test_path",
			}
		}
		train, err := dataset.Load(cfg.Dataset.TrainPath, vocab, opts)
		if err != nil {
			return nil, err
		}
		val, err := dataset.Load(cfg.Dataset.ValPath, vocab, opts)
		if err != nil {
			return nil, err
		}
		test, err := dataset.Load(cfg.Dataset.TestPath, vocab, opts)
		if err != nil {
			return nil, err
		}
		return &dataset.SplitResult{Train: train, Validation: val, Test: test}, nil
	}

	if dataPath == "" {
		dataPath = cfg.Dataset.Path
	}
	if dataPath == "" {
		return nil, &config.ConfigError{Field: "dataset.path", Reason: "no dataset configured"}
	}

	full, err := dataset.Load(dataPath, vocab, opts)
	if err != nil {
		return nil, err
	}
	return dataset.Split(full, cfg.Split.Train, cfg.Split.Validation, cfg.Split.Test, cfg.Training.Seed)
}
