package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"moodscope/internal/inference"
)

var (
	predictJSON        bool
	predictInteractive bool
)

// predictCmd classifies text against the persisted model
var predictCmd = &cobra.Command{
	Use:   "predict [text]",
	Short: "Classify text against the trained model",
	Long: `Loads the persisted model artifact and prints every emotion whose
probability clears its calibrated threshold, sorted by confidence.

An empty result means no strong emotional signal, which is a valid
outcome, not an error.

Examples:
  moodscope predict "could not get out of bed again today"
  moodscope predict --json "everything went wrong and it is my fault"
  moodscope predict --interactive`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPredict,
}

func init() {
	predictCmd.Flags().BoolVar(&predictJSON, "json", false, "Emit predictions as JSON")
	predictCmd.Flags().BoolVarP(&predictInteractive, "interactive", "i", false, "Read entries from stdin, one per line")
}

func runPredict(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	enc, closeCache, err := buildEncoder(ctx, cfg)
	if err != nil {
		return err
	}
	if closeCache != nil {
		defer closeCache()
	}

	loader := inference.NewLoader(cfg.Artifact.Dir, enc, cfg.Training.MaxSequenceLength)

	if predictInteractive {
		return predictLoop(ctx, loader)
	}

	if len(args) == 0 {
		return fmt.Errorf("provide text to classify or use --interactive")
	}

	engine, err := loader.Engine()
	if err != nil {
		return err
	}
	preds, err := engine.Predict(ctx, args[0])
	if err != nil {
		return err
	}
	return printPredictions(preds)
}

// predictLoop reads one entry per line. With artifact watching enabled, a
// retrained model is picked up between entries without restarting.
func predictLoop(ctx context.Context, loader *inference.Loader) error {
	if cfg.Artifact.Watch {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := loader.Watch(watchCtx); err != nil && watchCtx.Err() == nil {
				logger.Warn("Artifact watcher stopped: " + err.Error())
			}
		}()
	}

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	fmt.Println("Enter one journal line per row (ctrl-d to quit):")
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		engine, err := loader.Engine()
		if err != nil {
			return err
		}
		preds, err := engine.Predict(ctx, line)
		if err != nil {
			return err
		}
		if err := printPredictions(preds); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func printPredictions(preds []inference.Prediction) error {
	if predictJSON {
		out, err := json.Marshal(preds)
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	if len(preds) == 0 {
		fmt.Println("no strong emotional signal")
		return nil
	}
	for _, p := range preds {
		fmt.Printf("%-18s %.4f\n", p.Emotion, p.Confidence)
	}
	return nil
}
