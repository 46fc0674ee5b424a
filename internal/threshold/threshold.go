// Package threshold calibrates per-label decision cutoffs on validation
// predictions. A single 0.5 cutoff underserves rare emotions: their
// probabilities rarely clear it even when the ranking is right.
package threshold

import (
	"fmt"

	"moodscope/internal/classifier"
	"moodscope/internal/logging"
)

const (
	// DefaultCutoff is used when a label cannot be calibrated.
	DefaultCutoff = 0.5

	gridStart  = 0.01
	gridEnd    = 0.99
	gridPoints = 100
)

// Optimize sweeps a fixed grid of cutoffs per label and returns, for each
// label, the cutoff maximizing that label's F1 on the given predictions.
// Labels with no positive examples keep DefaultCutoff. The chosen cutoff for
// a calibratable label never scores below F1 at the default.
func Optimize(probs, targets [][]float64, numLabels int) ([]float64, error) {
	timer := logging.StartTimer(logging.CategoryThreshold, "Optimize")
	defer timer.Stop()

	if len(probs) != len(targets) {
		return nil, fmt.Errorf("got %d probability rows but %d target rows", len(probs), len(targets))
	}
	if len(probs) == 0 {
		return nil, fmt.Errorf("no validation rows to calibrate on")
	}
	for i := range probs {
		if len(probs[i]) != numLabels || len(targets[i]) != numLabels {
			return nil, fmt.Errorf("row %d does not match %d labels", i, numLabels)
		}
	}

	thresholds := make([]float64, numLabels)
	for j := 0; j < numLabels; j++ {
		thresholds[j] = optimizeLabel(probs, targets, j)
	}

	logging.Threshold("Calibrated %d label thresholds on %d validation rows", numLabels, len(probs))
	logging.ThresholdDebug("Thresholds: %v", thresholds)
	return thresholds, nil
}

func optimizeLabel(probs, targets [][]float64, j int) float64 {
	positives := 0
	for i := range targets {
		if targets[i][j] > 0 {
			positives++
		}
	}
	if positives == 0 {
		logging.ThresholdDebug("Label %d has no validation positives, keeping default %.2f", j, DefaultCutoff)
		return DefaultCutoff
	}

	best := DefaultCutoff
	bestF1 := f1At(probs, targets, j, DefaultCutoff)

	step := (gridEnd - gridStart) / float64(gridPoints-1)
	for k := 0; k < gridPoints; k++ {
		cutoff := gridStart + float64(k)*step
		if f1 := f1At(probs, targets, j, cutoff); f1 > bestF1 {
			bestF1 = f1
			best = cutoff
		}
	}

	logging.ThresholdDebug("Label %d: cutoff=%.4f f1=%.4f (%d positives)", j, best, bestF1, positives)
	return best
}

func f1At(probs, targets [][]float64, j int, cutoff float64) float64 {
	var tp, fp, fn int
	for i := range probs {
		predicted := probs[i][j] >= cutoff
		actual := targets[i][j] > 0
		switch {
		case predicted && actual:
			tp++
		case predicted && !actual:
			fp++
		case !predicted && actual:
			fn++
		}
	}
	return classifier.F1(tp, fp, fn)
}
