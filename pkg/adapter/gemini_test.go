package adapter_test

import (
	"context"
	"os"
	"testing"

	"github.com/gema-dev/gema/pkg/adapter"
	"github.com/m-mizutani/gt"
)

func TestGeminiEmbed(t *testing.T) {
	projectID := os.Getenv("TEST_GEMINI_PROJECT")
	if projectID == "" {
		t.Skip("TEST_GEMINI_PROJECT is not set")
	}

	ctx := context.Background()
	client, err := adapter.NewGemini(ctx, projectID, "us-central1")
	gt.NoError(t, err)

	vec, err := client.Embed(ctx, "company: Acme Robotics | amount: 2,000,000")
	gt.NoError(t, err)
	gt.Number(t, len(vec)).Greater(0)
	gt.V(t, client.ModelVersion()).NotEqual("")
}

func TestGeminiGenerate(t *testing.T) {
	projectID := os.Getenv("TEST_GEMINI_PROJECT")
	if projectID == "" {
		t.Skip("TEST_GEMINI_PROJECT is not set")
	}

	ctx := context.Background()
	client, err := adapter.NewGemini(ctx, projectID, "us-central1")
	gt.NoError(t, err)

	answer, err := client.Generate(ctx, "You are a concise assistant.", "What is the capital of France?")
	gt.NoError(t, err)
	gt.S(t, answer).Contains("Paris")
}
