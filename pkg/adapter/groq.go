package adapter

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	openai "github.com/sashabaranov/go-openai"
)

// GroqBaseURL is the OpenAI-compatible endpoint of the Groq API.
const GroqBaseURL = "https://api.groq.com/openai/v1"

const defaultGroqModel = "llama-3.3-70b-versatile"

// GroqClient implements LLM against any OpenAI-compatible chat API.
type GroqClient struct {
	client *openai.Client
	model  string
}

type GroqOption func(*GroqClient)

func WithGroqModel(model string) GroqOption {
	return func(g *GroqClient) {
		g.model = model
	}
}

// NewGroq creates a Groq chat client. An empty baseURL targets the
// Groq API; any other OpenAI-compatible endpoint works too.
func NewGroq(apiKey, baseURL string, opts ...GroqOption) (*GroqClient, error) {
	if apiKey == "" {
		return nil, goerr.New("groq api key is required")
	}
	if baseURL == "" {
		baseURL = GroqBaseURL
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL

	g := &GroqClient{
		client: openai.NewClientWithConfig(config),
		model:  defaultGroqModel,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

func (g *GroqClient) Generate(ctx context.Context, system, prompt string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: 0,
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to create chat completion")
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", goerr.New("empty chat completion response")
	}

	return resp.Choices[0].Message.Content, nil
}
