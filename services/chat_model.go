package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"google.golang.org/genai"
)

// ChatModel produces a completion for a single prompt.
type ChatModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Defaults for the hosted models.
const (
	GroqBaseURL        = "https://api.groq.com/openai/v1"
	DefaultGroqModel   = "llama-3.1-8b-instant"
	DefaultGeminiModel = "gemini-2.5-flash"
)

// OpenAICompatibleChatModel talks to any OpenAI-compatible chat completions
// API through langchaingo. Groq is the default endpoint.
type OpenAICompatibleChatModel struct {
	llm         llms.Model
	temperature float64
}

// NewOpenAICompatibleChatModel returns a chat model for baseURL and model.
func NewOpenAICompatibleChatModel(apiKey, baseURL, model string, temperature float64) (*OpenAICompatibleChatModel, error) {
	if baseURL == "" {
		baseURL = GroqBaseURL
	}
	if model == "" {
		model = DefaultGroqModel
	}
	llm, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithBaseURL(baseURL),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("could not create chat client: %w", err)
	}
	return &OpenAICompatibleChatModel{llm: llm, temperature: temperature}, nil
}

// Complete implements ChatModel.
func (m *OpenAICompatibleChatModel) Complete(ctx context.Context, prompt string) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m.llm, prompt, llms.WithTemperature(m.temperature))
}

// GeminiChatModel generates answers with Google Gemini.
type GeminiChatModel struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGeminiChatModel connects to the Gemini API.
func NewGeminiChatModel(ctx context.Context, apiKey, model string, temperature float64) (*GeminiChatModel, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create gemini client: %w", err)
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiChatModel{client: client, model: model, temperature: float32(temperature)}, nil
}

// Complete implements ChatModel.
func (m *GeminiChatModel) Complete(ctx context.Context, prompt string) (string, error) {
	result, err := m.client.Models.GenerateContent(ctx, m.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(m.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("gemini api call failed: %w", err)
	}
	if len(result.Candidates) == 0 {
		return "", errors.New("gemini returned no candidates")
	}
	return result.Text(), nil
}
