package trainer

import (
	"context"

	"golang.org/x/sync/errgroup"

	"moodscope/internal/dataset"
	"moodscope/internal/logging"
	"moodscope/internal/textnorm"
)

// encodeConcurrency bounds the number of in-flight encode batches. Remote
// backends tolerate a few parallel requests; the hashing encoder is CPU-only
// and just gains throughput.
const encodeConcurrency = 4

// encodeBatchSize is independent of the training batch size: it only shapes
// how work is handed to the encoder.
const encodeBatchSize = 32

// encodeAll turns every example in d into a feature vector, truncating
// pathologically long entries first so one runaway journal entry cannot
// dominate encode cost.
func (t *Trainer) encodeAll(ctx context.Context, d *dataset.Dataset) ([][]float32, error) {
	timer := logging.StartTimer(logging.CategoryTrainer, "encodeAll")
	defer timer.StopWithInfo()

	logging.TrainerDebug("Encoding %d examples with %s", d.Len(), t.enc.Name())

	texts := make([]string, d.Len())
	for i, ex := range d.Examples {
		texts[i] = textnorm.CleanTruncate(ex.Text, t.opts.MaxSequenceLength)
	}

	vectors := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(encodeConcurrency)

	for s := 0; s < len(texts); s += encodeBatchSize {
		e := s + encodeBatchSize
		if e > len(texts) {
			e = len(texts)
		}
		g.Go(func() error {
			batch, err := t.enc.EncodeBatch(gctx, texts[s:e])
			if err != nil {
				return err
			}
			copy(vectors[s:e], batch)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := validateShapes(vectors, t.enc.Dimensions()); err != nil {
		return nil, err
	}
	return vectors, nil
}
