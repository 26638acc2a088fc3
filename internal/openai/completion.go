package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultCompletionModel is the chat model used to answer questions
	DefaultCompletionModel = openai.GPT4oMini
	// DefaultMaxTokens caps the answer length
	DefaultMaxTokens = 2000
	// DefaultTemperature is the sampling temperature for answers
	DefaultTemperature = 0.7
)

// ErrEmptyCompletion is returned when the model returns no usable choice
var ErrEmptyCompletion = errors.New("completion returned no content")

// ChatAPI defines the subset of the chat completion API used by Generator
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// GeneratorConfig configures the answer generator.
type GeneratorConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
}

// Generator produces grounded answers with a chat completion model.
type Generator struct {
	api         ChatAPI
	model       string
	maxTokens   int
	temperature float32
}

// NewGenerator creates a Generator backed by the OpenAI chat API.
func NewGenerator(cfg GeneratorConfig) *Generator {
	return newGenerator(newAPIClient(cfg.APIKey, cfg.BaseURL), cfg)
}

func newGenerator(api ChatAPI, cfg GeneratorConfig) *Generator {
	model := cfg.Model
	if model == "" {
		model = DefaultCompletionModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	return &Generator{
		api:         api,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

// Complete sends prompt as a single user message and returns the reply text.
func (g *Generator) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyText
	}

	resp, err := g.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyCompletion
	}

	return content, nil
}
