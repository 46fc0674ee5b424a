// Package classifier implements a multi-label linear classifier over text
// embeddings. Each label gets an independent sigmoid output, so one journal
// entry can carry any subset of emotions.
package classifier

import (
	"fmt"
	"math"
	"math/rand"
)

// Model is a linear classification head: one weight row and bias per label
// over a fixed-width input vector.
type Model struct {
	Weights [][]float64 `json:"weights"` // [labels][dimensions]
	Bias    []float64   `json:"bias"`    // [labels]
}

// NewModel creates a model with small random weights. The same seed always
// yields the same initialization.
func NewModel(numLabels, dimensions int, seed int64) (*Model, error) {
	if numLabels <= 0 {
		return nil, fmt.Errorf("numLabels must be positive, got %d", numLabels)
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}

	rng := rand.New(rand.NewSource(seed))
	scale := 1 / math.Sqrt(float64(dimensions))

	m := &Model{
		Weights: make([][]float64, numLabels),
		Bias:    make([]float64, numLabels),
	}
	for j := range m.Weights {
		row := make([]float64, dimensions)
		for k := range row {
			row[k] = rng.NormFloat64() * scale
		}
		m.Weights[j] = row
	}
	return m, nil
}

// NumLabels returns the number of output labels.
func (m *Model) NumLabels() int {
	return len(m.Weights)
}

// Dimensions returns the expected input vector width.
func (m *Model) Dimensions() int {
	if len(m.Weights) == 0 {
		return 0
	}
	return len(m.Weights[0])
}

// Logits computes the raw pre-sigmoid score for each label.
func (m *Model) Logits(x []float32) ([]float64, error) {
	if len(x) != m.Dimensions() {
		return nil, fmt.Errorf("input has %d dimensions, model expects %d", len(x), m.Dimensions())
	}

	z := make([]float64, len(m.Weights))
	for j, row := range m.Weights {
		sum := m.Bias[j]
		for k, w := range row {
			sum += w * float64(x[k])
		}
		z[j] = sum
	}
	return z, nil
}

// Probabilities computes the per-label sigmoid probabilities.
func (m *Model) Probabilities(x []float32) ([]float64, error) {
	z, err := m.Logits(x)
	if err != nil {
		return nil, err
	}
	for j := range z {
		z[j] = Sigmoid(z[j])
	}
	return z, nil
}

// Clone returns a deep copy. The trainer snapshots the best model this way
// so later epochs cannot overwrite it.
func (m *Model) Clone() *Model {
	c := &Model{
		Weights: make([][]float64, len(m.Weights)),
		Bias:    append([]float64(nil), m.Bias...),
	}
	for j, row := range m.Weights {
		c.Weights[j] = append([]float64(nil), row...)
	}
	return c
}

// Step applies one gradient-descent update over a minibatch. inputs and
// targets are parallel; targets rows hold 0/1 per label. weights holds the
// per-label positive class weight (nil means unweighted). Returns the mean
// loss over the batch.
func (m *Model) Step(inputs [][]float32, targets [][]float64, classWeights []float64, loss Loss, learningRate float64) (float64, error) {
	if len(inputs) == 0 {
		return 0, fmt.Errorf("empty batch")
	}
	if len(inputs) != len(targets) {
		return 0, fmt.Errorf("batch has %d inputs but %d target rows", len(inputs), len(targets))
	}

	numLabels := m.NumLabels()
	dim := m.Dimensions()

	gradW := make([][]float64, numLabels)
	for j := range gradW {
		gradW[j] = make([]float64, dim)
	}
	gradB := make([]float64, numLabels)

	var total float64
	for i, x := range inputs {
		z, err := m.Logits(x)
		if err != nil {
			return 0, err
		}
		if len(targets[i]) != numLabels {
			return 0, fmt.Errorf("target row %d has %d labels, model expects %d", i, len(targets[i]), numLabels)
		}

		for j := 0; j < numLabels; j++ {
			w := 1.0
			if classWeights != nil {
				w = classWeights[j]
			}
			l, g := loss.Eval(z[j], targets[i][j], w)
			total += l
			gradB[j] += g
			for k := 0; k < dim; k++ {
				gradW[j][k] += g * float64(x[k])
			}
		}
	}

	scale := learningRate / float64(len(inputs))
	for j := 0; j < numLabels; j++ {
		m.Bias[j] -= scale * gradB[j]
		for k := 0; k < dim; k++ {
			m.Weights[j][k] -= scale * gradW[j][k]
		}
	}

	return total / float64(len(inputs)*numLabels), nil
}

// Sigmoid computes 1/(1+exp(-z)) without overflow at extreme logits.
func Sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// logSigmoid computes log(sigmoid(z)) stably: large negative z yields z
// rather than -Inf.
func logSigmoid(z float64) float64 {
	if z >= 0 {
		return -math.Log1p(math.Exp(-z))
	}
	return z - math.Log1p(math.Exp(z))
}
