package store

import (
	"context"
	"fmt"

	"moodscope/internal/encoder"
	"moodscope/internal/logging"
)

// CachedEncoder wraps a TextEncoder with the embedding cache. Hits skip the
// backend entirely; misses are encoded and written through.
type CachedEncoder struct {
	inner encoder.TextEncoder
	cache *EmbeddingCache
}

// NewCachedEncoder wraps enc with cache. A nil cache returns enc unchanged.
func NewCachedEncoder(enc encoder.TextEncoder, cache *EmbeddingCache) encoder.TextEncoder {
	if cache == nil {
		return enc
	}
	return &CachedEncoder{inner: enc, cache: cache}
}

// Encode returns the cached vector when present, otherwise delegates to the
// wrapped encoder and stores the result.
func (e *CachedEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	vec, ok, err := e.cache.Get(e.inner.Name(), text)
	if err != nil {
		return nil, err
	}
	if ok {
		return vec, nil
	}

	vec, err = e.inner.Encode(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := e.cache.Put(e.inner.Name(), text, vec); err != nil {
		// A failed write only costs a re-encode next run.
		logging.Get(logging.CategoryStore).Warn("Cache write failed: %v", err)
	}
	return vec, nil
}

// EncodeBatch resolves hits from the cache and encodes only the misses in a
// single backend call.
func (e *CachedEncoder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	timer := logging.StartTimer(logging.CategoryStore, "EncodeBatch")
	defer timer.Stop()

	vectors := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string

	for i, text := range texts {
		vec, ok, err := e.cache.Get(e.inner.Name(), text)
		if err != nil {
			return nil, err
		}
		if ok {
			vectors[i] = vec
		} else {
			missIdx = append(missIdx, i)
			missTexts = append(missTexts, text)
		}
	}

	logging.StoreDebug("EncodeBatch: %d hits, %d misses of %d texts",
		len(texts)-len(missTexts), len(missTexts), len(texts))

	if len(missTexts) == 0 {
		return vectors, nil
	}

	fresh, err := e.inner.EncodeBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missTexts) {
		return nil, fmt.Errorf("encoder returned %d vectors for %d texts", len(fresh), len(missTexts))
	}

	for j, i := range missIdx {
		vectors[i] = fresh[j]
		if err := e.cache.Put(e.inner.Name(), texts[i], fresh[j]); err != nil {
			logging.Get(logging.CategoryStore).Warn("Cache write failed: %v", err)
		}
	}
	return vectors, nil
}

// Dimensions returns the wrapped encoder's vector width.
func (e *CachedEncoder) Dimensions() int {
	return e.inner.Dimensions()
}

// Name returns the wrapped encoder's name. Sharing the name keeps cache keys
// and model metadata consistent whether or not caching is enabled.
func (e *CachedEncoder) Name() string {
	return e.inner.Name()
}
