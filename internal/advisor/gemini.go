package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiAdvisor answers through the Gemini API
type GeminiAdvisor struct {
	client *genai.Client
	model  string
}

func NewGeminiAdvisor(ctx context.Context, apiKey, model string) (*GeminiAdvisor, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiAdvisor{client: client, model: model}, nil
}

func (a *GeminiAdvisor) Name() string {
	return "gemini"
}

func (a *GeminiAdvisor) Respond(ctx context.Context, question, contextBlock string) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: SystemPrompt}},
		},
		Temperature: genai.Ptr(float32(defaultTemperature)),
	}

	result, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(BuildPrompt(question, contextBlock)), config)
	if err != nil {
		return "", &CallError{Provider: a.Name(), Err: err}
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return "", &CallError{Provider: a.Name(), Err: errors.New("empty completion")}
	}
	return text, nil
}
