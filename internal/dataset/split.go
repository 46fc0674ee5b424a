package dataset

import (
	"fmt"
	"math/rand"

	"moodscope/internal/logging"
)

// SplitResult carries the three partitions plus an explicit degradation
// marker. A degraded split is not an error: training proceeds, but results
// built on it should be flagged as potentially less reliable.
type SplitResult struct {
	Train      *Dataset
	Validation *Dataset
	Test       *Dataset

	// Degraded is true when the iterative stratifier could not run and a
	// plain random split was used instead.
	Degraded       bool
	DegradedReason string
}

// Split partitions a multi-label dataset into train/validation/test,
// keeping each label's positive rate comparable across splits via iterative
// stratification. When stratification has nothing to balance it falls back
// to a plain random split and says so in the result.
//
// Fractions must be positive and sum to 1; the caller is expected to have
// validated them (config.Validate does).
func Split(d *Dataset, trainFrac, valFrac, testFrac float64, seed int64) (*SplitResult, error) {
	n := d.Len()
	if n == 0 {
		return nil, &DataError{Reason: "cannot split an empty dataset"}
	}
	if float64(n)*valFrac < 1 || float64(n)*testFrac < 1 {
		return nil, &DataError{Reason: fmt.Sprintf(
			"dataset too small to split: %d examples cannot fill %.0f/%.0f/%.0f splits",
			n, trainFrac*100, valFrac*100, testFrac*100)}
	}

	rng := rand.New(rand.NewSource(seed))
	fractions := []float64{trainFrac, valFrac, testFrac}

	counts := d.PositiveCounts()
	totalPositives := 0
	for _, c := range counts {
		totalPositives += c
	}

	var assignment []int
	result := &SplitResult{}

	if totalPositives == 0 {
		assignment = randomAssignment(n, fractions, rng)
		result.Degraded = true
		result.DegradedReason = "no positive labels to stratify on; fell back to plain random split"
		logging.DatasetWarn("stratified split degraded: %s", result.DegradedReason)
	} else {
		assignment = stratifiedAssignment(d, fractions, rng)
	}

	parts := make([][]Example, len(fractions))
	for i, k := range assignment {
		parts[k] = append(parts[k], d.Examples[i])
	}

	result.Train = &Dataset{Vocabulary: d.Vocabulary, Examples: parts[0]}
	result.Validation = &Dataset{Vocabulary: d.Vocabulary, Examples: parts[1]}
	result.Test = &Dataset{Vocabulary: d.Vocabulary, Examples: parts[2]}

	logging.Dataset("split %d examples into train=%d val=%d test=%d (degraded=%v)",
		n, result.Train.Len(), result.Validation.Len(), result.Test.Len(), result.Degraded)
	return result, nil
}

// randomAssignment deals examples into splits proportionally after a
// shuffle. Used only as the degraded fallback.
func randomAssignment(n int, fractions []float64, rng *rand.Rand) []int {
	order := rng.Perm(n)
	assignment := make([]int, n)

	start := 0
	for k, frac := range fractions {
		end := start + int(float64(n)*frac)
		if k == len(fractions)-1 || end > n {
			end = n
		}
		for _, i := range order[start:end] {
			assignment[i] = k
		}
		start = end
	}
	// Round-off leftovers land in train.
	for _, i := range order[start:] {
		assignment[i] = 0
	}
	return assignment
}

// stratifiedAssignment implements iterative stratification: labels are
// processed rarest-first, and each example carrying the current label goes
// to the split with the greatest remaining demand for that label. This
// keeps rare-label positives from starving the evaluation splits, which
// would make per-label threshold search meaningless.
func stratifiedAssignment(d *Dataset, fractions []float64, rng *rand.Rand) []int {
	n := d.Len()
	numLabels := d.Vocabulary.Len()
	numSplits := len(fractions)
	matrix := d.LabelMatrix()

	// Remaining desired positives per split per label, and remaining
	// example capacity per split.
	desired := make([][]float64, numSplits)
	capacity := make([]float64, numSplits)
	counts := d.PositiveCounts()
	for k, frac := range fractions {
		desired[k] = make([]float64, numLabels)
		for j, c := range counts {
			desired[k][j] = frac * float64(c)
		}
		capacity[k] = frac * float64(n)
	}

	assignment := make([]int, n)
	for i := range assignment {
		assignment[i] = -1
	}

	// remaining[j] = indices of unassigned examples carrying label j.
	remaining := make(map[int][]int, numLabels)
	for i, row := range matrix {
		for j, v := range row {
			if v > 0 {
				remaining[j] = append(remaining[j], i)
			}
		}
	}

	for len(remaining) > 0 {
		// Rarest label first: its positives have the least slack. Scanning
		// by label index (not map order) keeps tie-breaks, and therefore
		// RNG consumption, identical across runs with the same seed.
		rarest := -1
		rarestLive := 0
		for j := 0; j < numLabels; j++ {
			idxs, ok := remaining[j]
			if !ok {
				continue
			}
			live := liveCount(idxs, assignment)
			if live == 0 {
				delete(remaining, j)
				continue
			}
			if rarest < 0 || live < rarestLive {
				rarest, rarestLive = j, live
			}
		}
		if rarest < 0 {
			break
		}

		idxs := remaining[rarest]
		rng.Shuffle(len(idxs), func(a, b int) { idxs[a], idxs[b] = idxs[b], idxs[a] })

		for _, i := range idxs {
			if assignment[i] >= 0 {
				continue
			}
			k := pickSplit(desired, capacity, rarest, rng)
			assignment[i] = k
			capacity[k]--
			for j, v := range matrix[i] {
				if v > 0 {
					desired[k][j]--
				}
			}
		}
		delete(remaining, rarest)
	}

	// Label-free examples fill whichever split has the most capacity left.
	for i := range assignment {
		if assignment[i] >= 0 {
			continue
		}
		k := 0
		for kk := 1; kk < numSplits; kk++ {
			if capacity[kk] > capacity[k] {
				k = kk
			}
		}
		assignment[i] = k
		capacity[k]--
	}
	return assignment
}

func liveCount(idxs []int, assignment []int) int {
	live := 0
	for _, i := range idxs {
		if assignment[i] < 0 {
			live++
		}
	}
	return live
}

// pickSplit chooses the split with the largest remaining demand for label
// j, breaking ties by remaining capacity, then randomly.
func pickSplit(desired [][]float64, capacity []float64, j int, rng *rand.Rand) int {
	best := []int{0}
	for k := 1; k < len(desired); k++ {
		switch {
		case desired[k][j] > desired[best[0]][j]:
			best = []int{k}
		case desired[k][j] == desired[best[0]][j]:
			if capacity[k] > capacity[best[0]] {
				best = []int{k}
			} else if capacity[k] == capacity[best[0]] {
				best = append(best, k)
			}
		}
	}
	return best[rng.Intn(len(best))]
}
