package encoder

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// =============================================================================
// HASHING ENCODER
// =============================================================================

// HashingEncoder maps text to a fixed-width vector via feature hashing of
// word unigrams and bigrams. It needs no model download or network access
// and the same text always produces the same vector, which makes persisted
// classifier weights portable across machines.
type HashingEncoder struct {
	dimensions int
}

// NewHashingEncoder creates a hashing encoder with the given vector width.
func NewHashingEncoder(dimensions int) (*HashingEncoder, error) {
	if dimensions <= 0 {
		dimensions = 512
	}
	return &HashingEncoder{dimensions: dimensions}, nil
}

// Encode generates a vector for a single text.
func (e *HashingEncoder) Encode(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dimensions)

	tokens := tokenize(text)
	for _, tok := range tokens {
		e.accumulate(vec, tok)
	}
	// Bigrams capture short negations ("not okay", "no hope") that unigrams
	// wash out.
	for i := 0; i+1 < len(tokens); i++ {
		e.accumulate(vec, tokens[i]+" "+tokens[i+1])
	}

	normalize(vec)
	return vec, nil
}

// EncodeBatch generates vectors for multiple texts.
func (e *HashingEncoder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Encode(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to encode text %d: %w", i, err)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// Dimensions returns the width of produced vectors.
func (e *HashingEncoder) Dimensions() int {
	return e.dimensions
}

// Name returns the encoder name.
func (e *HashingEncoder) Name() string {
	return fmt.Sprintf("hashing:%d", e.dimensions)
}

// accumulate hashes a feature into its bucket with a sign derived from a
// second hash bit, so collisions cancel rather than pile up.
func (e *HashingEncoder) accumulate(vec []float32, feature string) {
	h := fnv.New64a()
	h.Write([]byte(feature))
	sum := h.Sum64()

	bucket := int(sum % uint64(e.dimensions))
	if sum&(1<<63) != 0 {
		vec[bucket]--
	} else {
		vec[bucket]++
	}
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
}
