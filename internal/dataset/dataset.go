package dataset

import (
	"fmt"
	"strings"
)

// DataError reports a dataset problem that makes training meaningless.
// Fatal: training must not proceed past one of these.
type DataError struct {
	Reason string
}

func (e *DataError) Error() string {
	return "dataset: " + e.Reason
}

// Example is one labeled text. Labels holds canonical vocabulary entries
// only; labels outside the working vocabulary are dropped at extraction
// time (the text still contributes negative signal for every active label).
type Example struct {
	ID     string
	Text   string
	Labels []string
}

// Dataset is a list of examples bound to the vocabulary they were extracted
// against.
type Dataset struct {
	Vocabulary *Vocabulary
	Examples   []Example
}

// Len returns the number of examples.
func (d *Dataset) Len() int {
	return len(d.Examples)
}

// LabelMatrix builds the binary label matrix: rows are examples, columns
// are vocabulary positions, matrix[i][j] = 1 iff example i carries label j.
// Rows may hold zero, one, or many ones.
func (d *Dataset) LabelMatrix() [][]float64 {
	matrix := make([][]float64, len(d.Examples))
	for i, ex := range d.Examples {
		row := make([]float64, d.Vocabulary.Len())
		for _, label := range ex.Labels {
			if j, ok := d.Vocabulary.Index(label); ok {
				row[j] = 1
			}
		}
		matrix[i] = row
	}
	return matrix
}

// PositiveCounts returns, per label, how many examples carry it.
func (d *Dataset) PositiveCounts() []int {
	counts := make([]int, d.Vocabulary.Len())
	for _, ex := range d.Examples {
		for _, label := range ex.Labels {
			if j, ok := d.Vocabulary.Index(label); ok {
				counts[j]++
			}
		}
	}
	return counts
}

// ClassWeights computes one positive-class weight per label from this
// split's label frequencies: negatives/positives, capped. Compute this on
// the training split only; deriving weights from validation or test data
// leaks evaluation information into training.
func (d *Dataset) ClassWeights(cap float64) ([]float64, error) {
	counts := d.PositiveCounts()
	n := float64(len(d.Examples))
	weights := make([]float64, len(counts))

	for j, pos := range counts {
		if pos == 0 {
			return nil, &DataError{Reason: fmt.Sprintf(
				"label %q has no positive examples in the training split; cannot weight or threshold it",
				d.Vocabulary.Names()[j])}
		}
		w := (n - float64(pos)) / float64(pos)
		if w < 1 {
			w = 1
		}
		if w > cap {
			w = cap
		}
		weights[j] = w
	}
	return weights, nil
}

// ValidateForTraining rejects datasets whose per-label statistics would be
// undefined: every label needs at least one positive example, and at least
// two labels must be positive somewhere.
func (d *Dataset) ValidateForTraining() error {
	if len(d.Examples) == 0 {
		return &DataError{Reason: "no usable examples"}
	}

	counts := d.PositiveCounts()
	var missing []string
	active := 0
	for j, c := range counts {
		if c == 0 {
			missing = append(missing, d.Vocabulary.Names()[j])
		} else {
			active++
		}
	}
	if len(missing) > 0 {
		return &DataError{Reason: fmt.Sprintf(
			"labels without positive examples in the training split: %s",
			strings.Join(missing, ", "))}
	}
	if active < 2 {
		return &DataError{Reason: "fewer than two labels with positive examples"}
	}
	return nil
}
