package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"moodscope/internal/artifact"
	"moodscope/internal/config"
)

// inspectCmd prints the persisted model contract
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show the persisted model's vocabulary, thresholds and provenance",
	RunE:  runInspect,
}

// initConfigCmd writes a starter config file
var initConfigCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.DefaultConfig().Save(configPath); err != nil {
			return err
		}
		fmt.Printf("Wrote default configuration to %s\n", configPath)
		return nil
	},
}

func runInspect(cmd *cobra.Command, args []string) error {
	bundle, err := artifact.Load(cfg.Artifact.Dir)
	if err != nil {
		return err
	}

	md := bundle.Metadata
	fmt.Printf("Model artifact: %s\n", cfg.Artifact.Dir)
	fmt.Printf("  run:       %s\n", md.RunID)
	fmt.Printf("  trained:   %s\n", md.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("  encoder:   %s (%d dimensions)\n", md.EncoderName, md.Dimensions)
	fmt.Printf("  loss:      %s\n", md.LossStrategy)
	fmt.Printf("  emotions:  %d\n", md.NumEmotions)
	for j, name := range md.EmotionNames {
		fmt.Printf("    %-18s threshold=%.4f\n", name, md.OptimalThresholds[j])
	}
	return nil
}
