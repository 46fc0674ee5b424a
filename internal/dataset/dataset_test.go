package dataset

import (
	"errors"
	"testing"
)

func buildDataset(t *testing.T, labels [][]string) *Dataset {
	t.Helper()
	v := testVocab(t)
	ds := &Dataset{Vocabulary: v}
	for i, ls := range labels {
		ds.Examples = append(ds.Examples, Example{
			ID:     string(rune('a' + i)),
			Text:   "sample text long enough to matter",
			Labels: ls,
		})
	}
	return ds
}

func TestLabelMatrix(t *testing.T) {
	ds := buildDataset(t, [][]string{
		{"sadness", "fear"},
		{},
		{"anger"},
		{"sadness", "anger", "fear", "suicide_intent", "brain_dysfunction"},
	})

	m := ds.LabelMatrix()
	want := [][]float64{
		{1, 0, 1, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 1, 0, 0, 0},
		{1, 1, 1, 1, 1},
	}
	for i := range want {
		for j := range want[i] {
			if m[i][j] != want[i][j] {
				t.Errorf("matrix[%d][%d] = %v, want %v", i, j, m[i][j], want[i][j])
			}
		}
	}
}

func TestClassWeights(t *testing.T) {
	// 10 examples: sadness 5 positives, anger 1 positive, others spread.
	labels := [][]string{
		{"sadness"}, {"sadness"}, {"sadness"}, {"sadness"}, {"sadness"},
		{"anger"},
		{"fear"}, {"fear"},
		{"suicide_intent"}, {"brain_dysfunction"},
	}
	ds := buildDataset(t, labels)

	weights, err := ds.ClassWeights(10)
	if err != nil {
		t.Fatalf("ClassWeights failed: %v", err)
	}

	// sadness: (10-5)/5 = 1.0
	if weights[0] != 1.0 {
		t.Errorf("sadness weight = %v, want 1.0", weights[0])
	}
	// anger: (10-1)/1 = 9.0, below cap
	if weights[1] != 9.0 {
		t.Errorf("anger weight = %v, want 9.0", weights[1])
	}
}

func TestClassWeightsCap(t *testing.T) {
	labels := make([][]string, 100)
	labels[0] = []string{"anger"}
	for i := 1; i < 100; i++ {
		labels[i] = []string{"sadness"}
	}
	for i := 0; i < 100; i++ {
		// Every label needs a positive somewhere; pile the rest on one row.
		if i == 50 {
			labels[i] = []string{"sadness", "fear", "suicide_intent", "brain_dysfunction"}
		}
	}
	ds := buildDataset(t, labels)

	weights, err := ds.ClassWeights(10)
	if err != nil {
		t.Fatalf("ClassWeights failed: %v", err)
	}
	// anger has 1 positive in 100 -> raw weight 99, capped at 10.
	if weights[1] != 10 {
		t.Errorf("anger weight = %v, want capped 10", weights[1])
	}
}

func TestClassWeightsZeroPositives(t *testing.T) {
	ds := buildDataset(t, [][]string{{"sadness"}, {"anger"}})
	_, err := ds.ClassWeights(10)
	if err == nil {
		t.Fatal("expected error for label with zero positives")
	}
	var de *DataError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DataError, got %T", err)
	}
}

func TestValidateForTraining(t *testing.T) {
	full := buildDataset(t, [][]string{
		{"sadness"}, {"anger"}, {"fear"}, {"suicide_intent"}, {"brain_dysfunction"},
	})
	if err := full.ValidateForTraining(); err != nil {
		t.Errorf("expected valid dataset, got %v", err)
	}

	// "fear" (and others) have zero positives: must fail before training.
	missing := buildDataset(t, [][]string{{"sadness"}, {"anger"}})
	err := missing.ValidateForTraining()
	if err == nil {
		t.Fatal("expected DataError for labels without positives")
	}
	var de *DataError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DataError, got %T", err)
	}

	empty := &Dataset{Vocabulary: testVocab(t)}
	if err := empty.ValidateForTraining(); err == nil {
		t.Error("expected DataError for empty dataset")
	}
}
