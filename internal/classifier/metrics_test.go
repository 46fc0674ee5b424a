package classifier

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestF1(t *testing.T) {
	require.Equal(t, 0.0, F1(0, 0, 0))
	require.Equal(t, 1.0, F1(5, 0, 0))
	// tp=1 fp=1 fn=1: precision=0.5 recall=0.5
	require.InDelta(t, 0.5, F1(1, 1, 1), 1e-12)
}

func TestEvaluateHandComputed(t *testing.T) {
	// Two labels, three rows, uniform 0.5 cutoff.
	probs := [][]float64{
		{0.9, 0.2}, // predicts {1,0}
		{0.8, 0.7}, // predicts {1,1}
		{0.1, 0.4}, // predicts {0,0}
	}
	targets := [][]float64{
		{1, 0}, // match
		{1, 0}, // label 1 false positive
		{0, 1}, // label 1 false negative
	}

	m, err := Evaluate(probs, targets, UniformThresholds(2, 0.5))
	require.NoError(t, err)

	require.InDelta(t, 1.0/3.0, m.ExactMatch, 1e-12)
	// Label 0: tp=2 fp=0 fn=0 -> 1.0. Label 1: tp=0 fp=1 fn=1 -> 0.0.
	require.InDelta(t, 1.0, m.PerLabel[0].F1, 1e-12)
	require.InDelta(t, 1.0, m.PerLabel[0].Precision, 1e-12)
	require.InDelta(t, 1.0, m.PerLabel[0].Recall, 1e-12)
	require.InDelta(t, 0.0, m.PerLabel[1].F1, 1e-12)
	require.InDelta(t, 0.0, m.PerLabel[1].Precision, 1e-12)
	require.InDelta(t, 0.0, m.PerLabel[1].Recall, 1e-12)
	require.InDelta(t, 0.5, m.MacroF1, 1e-12)
	// Micro: tp=2 fp=1 fn=1 -> 2*2/(4+1+1).
	require.InDelta(t, 4.0/6.0, m.MicroF1, 1e-12)
}

func TestEvaluateMacroWeighsRareLabels(t *testing.T) {
	// Label 0 perfect on many rows, label 1 always wrong on one positive.
	probs := [][]float64{
		{0.9, 0.1}, {0.9, 0.1}, {0.9, 0.1}, {0.9, 0.1},
	}
	targets := [][]float64{
		{1, 0}, {1, 0}, {1, 0}, {1, 1},
	}

	m, err := Evaluate(probs, targets, UniformThresholds(2, 0.5))
	require.NoError(t, err)
	require.InDelta(t, 0.5, m.MacroF1, 1e-12, "one dead label must halve macro-F1")
	require.Greater(t, m.MicroF1, m.MacroF1)
}

func TestEvaluateValidation(t *testing.T) {
	_, err := Evaluate(nil, nil, UniformThresholds(2, 0.5))
	require.Error(t, err)

	_, err = Evaluate([][]float64{{0.5}}, [][]float64{{1, 0}}, UniformThresholds(2, 0.5))
	require.Error(t, err)
}
