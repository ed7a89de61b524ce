package vectorindex

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Embedder turns passage text into a dense vector. It is a narrow seam so
// common/vectorindex never depends on common/llm's chat-completion surface.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

type openaiEmbedder struct {
	client openai.Client
	model  string
	dims   int
}

// NewOpenAIEmbedder wires an embedding model over the same openai-go
// transport common/llm already uses. An empty model falls back to
// text-embedding-3-small and dims <= 0 to 384, matching the Qdrant
// collection config.
func NewOpenAIEmbedder(apiKey, baseURL, model string, dims int) (Embedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("vectorindex: embedder API key is required")
	}
	if model == "" {
		model = "text-embedding-3-small"
	}
	if dims <= 0 {
		dims = 384
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &openaiEmbedder{
		client: openai.NewClient(opts...),
		model:  model,
		dims:   dims,
	}, nil
}

func (e *openaiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model:          e.model,
		Input:          openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Dimensions:     openai.Int(int64(e.dims)),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		return nil, fmt.Errorf("vectorindex: embed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("vectorindex: embed: no data in response")
	}

	vec := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

func (e *openaiEmbedder) Dimensions() int {
	return e.dims
}
