package classifier

import "fmt"

// Metrics summarizes multi-label prediction quality on one dataset split.
type Metrics struct {
	ExactMatch float64        `json:"exact_match"`
	MicroF1    float64        `json:"micro_f1"`
	MacroF1    float64        `json:"macro_f1"`
	PerLabel   []LabelMetrics `json:"per_label"`
}

// LabelMetrics holds the precision/recall/F1 triple for one label.
type LabelMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// F1 computes the F1 score from true positive, false positive and false
// negative counts. A label with no predicted and no actual positives scores 0.
func F1(tp, fp, fn int) float64 {
	denom := 2*tp + fp + fn
	if denom == 0 {
		return 0
	}
	return 2 * float64(tp) / float64(denom)
}

// Evaluate scores probability rows against 0/1 target rows using per-label
// decision thresholds. MacroF1 averages the per-label F1 scores equally, so
// rare emotions count as much as common ones.
func Evaluate(probs, targets [][]float64, thresholds []float64) (Metrics, error) {
	if len(probs) != len(targets) {
		return Metrics{}, fmt.Errorf("got %d probability rows but %d target rows", len(probs), len(targets))
	}
	if len(probs) == 0 {
		return Metrics{}, fmt.Errorf("no rows to evaluate")
	}
	numLabels := len(thresholds)

	tp := make([]int, numLabels)
	fp := make([]int, numLabels)
	fn := make([]int, numLabels)
	exact := 0

	for i, row := range probs {
		if len(row) != numLabels || len(targets[i]) != numLabels {
			return Metrics{}, fmt.Errorf("row %d does not match %d labels", i, numLabels)
		}
		allMatch := true
		for j, p := range row {
			predicted := p >= thresholds[j]
			actual := targets[i][j] > 0
			switch {
			case predicted && actual:
				tp[j]++
			case predicted && !actual:
				fp[j]++
				allMatch = false
			case !predicted && actual:
				fn[j]++
				allMatch = false
			}
		}
		if allMatch {
			exact++
		}
	}

	m := Metrics{
		ExactMatch: float64(exact) / float64(len(probs)),
		PerLabel:   make([]LabelMetrics, numLabels),
	}

	var totalTP, totalFP, totalFN int
	var macroSum float64
	for j := 0; j < numLabels; j++ {
		m.PerLabel[j] = LabelMetrics{
			Precision: ratio(tp[j], tp[j]+fp[j]),
			Recall:    ratio(tp[j], tp[j]+fn[j]),
			F1:        F1(tp[j], fp[j], fn[j]),
		}
		macroSum += m.PerLabel[j].F1
		totalTP += tp[j]
		totalFP += fp[j]
		totalFN += fn[j]
	}
	m.MacroF1 = macroSum / float64(numLabels)
	m.MicroF1 = F1(totalTP, totalFP, totalFN)

	return m, nil
}

func ratio(num, denom int) float64 {
	if denom == 0 {
		return 0
	}
	return float64(num) / float64(denom)
}

// UniformThresholds returns a threshold slice with the same cutoff for every
// label.
func UniformThresholds(numLabels int, cutoff float64) []float64 {
	t := make([]float64, numLabels)
	for j := range t {
		t[j] = cutoff
	}
	return t
}
