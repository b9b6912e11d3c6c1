package adapter

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// Embedder converts text into a fixed-dimension vector. ModelVersion
// identifies the embedding model so index and query vectors are never
// silently mismatched across an upgrade.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	ModelVersion() string
}

// LLM produces a free-text answer from a system instruction and a
// prompt. Implementations are stateless across calls.
type LLM interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

type GeminiClient struct {
	client          *genai.Client
	generativeModel string
	embeddingModel  string
}

type GeminiOption func(*GeminiClient)

func WithGenerativeModel(model string) GeminiOption {
	return func(g *GeminiClient) {
		g.generativeModel = model
	}
}

func WithEmbeddingModel(model string) GeminiOption {
	return func(g *GeminiClient) {
		g.embeddingModel = model
	}
}

// NewGemini creates a Gemini client backed by Vertex AI. It serves both
// as the Embedder for the index and as one of the generation backends.
func NewGemini(ctx context.Context, projectID, location string, opts ...GeminiOption) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client")
	}

	g := &GeminiClient{
		client:          client,
		generativeModel: "gemini-2.5-flash",
		embeddingModel:  "gemini-embedding-001",
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

func (g *GeminiClient) ModelVersion() string {
	return g.embeddingModel
}

func (g *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := g.client.Models.EmbedContent(ctx, g.embeddingModel, genai.Text(text), &genai.EmbedContentConfig{})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed content")
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, goerr.New("empty embedding response")
	}

	return resp.Embeddings[0].Values, nil
}

func (g *GeminiClient) Generate(ctx context.Context, system, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, "")
	}

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.generativeModel, contents, config)
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate content")
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", goerr.New("no candidates in generation response")
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		text += part.Text
	}
	if text == "" {
		return "", goerr.New("empty generation response")
	}

	return text, nil
}
