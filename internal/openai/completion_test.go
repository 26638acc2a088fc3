package openai

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockChatAPI struct {
	mock.Mock
}

func (m *MockChatAPI) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(openai.ChatCompletionResponse), args.Error(1)
}

func chatResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
		},
	}
}

func TestGenerator_Complete_Success(t *testing.T) {
	mockAPI := new(MockChatAPI)
	gen := newGenerator(mockAPI, GeneratorConfig{})

	mockAPI.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return req.Model == DefaultCompletionModel &&
			req.MaxTokens == DefaultMaxTokens &&
			len(req.Messages) == 1 &&
			req.Messages[0].Role == openai.ChatMessageRoleUser &&
			req.Messages[0].Content == "What is the refund window?"
	})).Return(chatResponse("  Refunds are accepted for 30 days.\n"), nil)

	answer, err := gen.Complete(context.Background(), "What is the refund window?")

	require.NoError(t, err)
	assert.Equal(t, "Refunds are accepted for 30 days.", answer)
	mockAPI.AssertExpectations(t)
}

func TestGenerator_Complete_CustomModel(t *testing.T) {
	mockAPI := new(MockChatAPI)
	gen := newGenerator(mockAPI, GeneratorConfig{Model: "gpt-4o", MaxTokens: 100, Temperature: 0.2})

	mockAPI.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return req.Model == "gpt-4o" && req.MaxTokens == 100 && req.Temperature == float32(0.2)
	})).Return(chatResponse("ok"), nil)

	_, err := gen.Complete(context.Background(), "prompt")

	require.NoError(t, err)
	mockAPI.AssertExpectations(t)
}

func TestGenerator_Complete_APIError(t *testing.T) {
	mockAPI := new(MockChatAPI)
	gen := newGenerator(mockAPI, GeneratorConfig{})
	apiErr := errors.New("service unavailable")

	mockAPI.On("CreateChatCompletion", mock.Anything, mock.Anything).Return(openai.ChatCompletionResponse{}, apiErr)

	answer, err := gen.Complete(context.Background(), "prompt")

	assert.Empty(t, answer)
	assert.ErrorIs(t, err, apiErr)
	assert.Contains(t, err.Error(), "failed to create completion")
}

func TestGenerator_Complete_NoChoices(t *testing.T) {
	mockAPI := new(MockChatAPI)
	gen := newGenerator(mockAPI, GeneratorConfig{})

	mockAPI.On("CreateChatCompletion", mock.Anything, mock.Anything).Return(openai.ChatCompletionResponse{}, nil)

	_, err := gen.Complete(context.Background(), "prompt")

	assert.Equal(t, ErrEmptyCompletion, err)
}

func TestGenerator_Complete_EmptyPrompt(t *testing.T) {
	gen := newGenerator(new(MockChatAPI), GeneratorConfig{})

	_, err := gen.Complete(context.Background(), "   ")

	assert.Equal(t, ErrEmptyText, err)
}
