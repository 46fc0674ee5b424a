package encoder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewUnsupportedProvider(t *testing.T) {
	_, err := New(Config{Provider: "tarot"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported encoder provider")
}

func TestNewDefaultsToHashing(t *testing.T) {
	enc, err := New(Config{HashDimensions: 128})
	require.NoError(t, err)
	require.Equal(t, "hashing:128", enc.Name())
}

func TestNewGenAIRequiresKey(t *testing.T) {
	_, err := New(Config{Provider: "genai"})
	require.Error(t, err)
}

// Compile-level guard: the GenAI type must keep satisfying TextEncoder even
// though its tests cannot reach the real API.
func TestGenAIEncoderSatisfiesTextEncoder(t *testing.T) {
	var enc TextEncoder = (*GenAIEncoder)(nil)
	require.Equal(t, 768, enc.Dimensions())
}

func TestOllamaEncoder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embeddings", r.URL.Path)

		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "embeddinggemma", req.Model)
		require.NotEmpty(t, req.Prompt)

		json.NewEncoder(w).Encode(ollamaEmbedResponse{
			Embedding: []float32{0.1, 0.2, 0.3},
		})
	}))
	defer srv.Close()

	enc, err := NewOllamaEncoder(srv.URL, "")
	require.NoError(t, err)

	vec, err := enc.Encode(context.Background(), "quiet day, nothing to report")
	require.NoError(t, err)
	require.Equal(t, []float32{0.1, 0.2, 0.3}, vec)

	vecs, err := enc.EncodeBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
}

func TestOllamaEncoderServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	enc, err := NewOllamaEncoder(srv.URL, "missing-model")
	require.NoError(t, err)

	_, err = enc.Encode(context.Background(), "hello")
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 404")
}

func TestOllamaHealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		w.Write([]byte(`{"models":[]}`))
	}))
	defer srv.Close()

	enc, err := NewOllamaEncoder(srv.URL, "")
	require.NoError(t, err)
	require.NoError(t, enc.HealthCheck(context.Background()))

	srv.Close()
	require.Error(t, enc.HealthCheck(context.Background()))
}
