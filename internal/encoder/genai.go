package encoder

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// =============================================================================
// GOOGLE GENAI ENCODER
// =============================================================================

// GenAIEncoder generates embeddings using Google's Gemini API. Classification
// task type is requested so the embedding space separates categories rather
// than optimizing for retrieval.
type GenAIEncoder struct {
	client *genai.Client
	model  string
}

// NewGenAIEncoder creates a new GenAI-backed encoder.
func NewGenAIEncoder(apiKey, model string) (*GenAIEncoder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-embedding-001"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIEncoder{
		client: client,
		model:  model,
	}, nil
}

// Encode generates an embedding for a single text.
func (e *GenAIEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}

	result, err := e.client.Models.EmbedContent(ctx,
		e.model,
		contents,
		&genai.EmbedContentConfig{
			TaskType: "CLASSIFICATION",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("GenAI embed failed: %w", err)
	}

	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}

	return result.Embeddings[0].Values, nil
}

// EncodeBatch generates embeddings for multiple texts.
// GenAI has native batch support.
func (e *GenAIEncoder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	result, err := e.client.Models.EmbedContent(ctx,
		e.model,
		contents,
		&genai.EmbedContentConfig{
			TaskType: "CLASSIFICATION",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("GenAI batch embed failed: %w", err)
	}

	embeddings := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		embeddings[i] = emb.Values
	}

	return embeddings, nil
}

// Dimensions returns the dimensionality of embeddings.
// gemini-embedding-001 produces 768-dimensional vectors.
func (e *GenAIEncoder) Dimensions() int {
	return 768
}

// Name returns the encoder name.
func (e *GenAIEncoder) Name() string {
	return fmt.Sprintf("genai:%s", e.model)
}
