package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	openaiClient "github.com/sashabaranov/go-openai"

	"github.com/harborml/gateway/models"
)

// DefaultEmbeddingModel is used when an embedding request names no model.
const DefaultEmbeddingModel = string(openaiClient.SmallEmbedding3)

// OpenAIProvider implements the OpenAI-specific functionality
type OpenAIProvider struct {
	client *openaiClient.Client
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider() (*OpenAIProvider, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable is not set")
	}

	config := openaiClient.DefaultConfig(apiKey)
	if baseURL := os.Getenv("OPENAI_API_BASE"); baseURL != "" {
		config.BaseURL = baseURL
	}

	return &OpenAIProvider{
		client: openaiClient.NewClientWithConfig(config),
	}, nil
}

// GenerateCompletion generates a completion using the specified OpenAI model
func (p *OpenAIProvider) GenerateCompletion(ctx context.Context, modelName string, input models.CompletionInput) (*models.CompletionResponse, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openaiClient.ChatCompletionRequest{
		Model:       modelName,
		Messages:    toChatMessages(input.Messages),
		MaxTokens:   input.MaxTokens,
		Temperature: input.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("no choices in response")
	}

	return &models.CompletionResponse{
		Text: resp.Choices[0].Message.Content,
		Usage: &models.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		Provider: "openai",
	}, nil
}

// GenerateCompletionStream generates a streaming completion using the specified OpenAI model
func (p *OpenAIProvider) GenerateCompletionStream(ctx context.Context, modelName string, input models.CompletionInput) (<-chan models.StreamingCompletionResponse, error) {
	stream, err := p.client.CreateChatCompletionStream(ctx, openaiClient.ChatCompletionRequest{
		Model:       modelName,
		Messages:    toChatMessages(input.Messages),
		MaxTokens:   input.MaxTokens,
		Temperature: input.Temperature,
		Stream:      true,
		StreamOptions: &openaiClient.StreamOptions{
			IncludeUsage: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API request failed: %w", err)
	}

	streamChan := make(chan models.StreamingCompletionResponse)

	go func() {
		defer stream.Close()
		defer close(streamChan)

		var accumulatedUsage models.Usage
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				streamChan <- models.StreamingCompletionResponse{Done: true, Usage: &accumulatedUsage}
				return
			}
			if err != nil {
				streamChan <- models.StreamingCompletionResponse{Error: err}
				return
			}

			if resp.Usage != nil {
				accumulatedUsage = models.Usage{
					PromptTokens:     resp.Usage.PromptTokens,
					CompletionTokens: resp.Usage.CompletionTokens,
					TotalTokens:      resp.Usage.TotalTokens,
				}
			}

			if len(resp.Choices) == 0 {
				continue
			}

			chunk := models.StreamingCompletionResponse{
				Text: resp.Choices[0].Delta.Content,
			}
			if resp.Choices[0].FinishReason != "" {
				chunk.Done = true
				chunk.Usage = &accumulatedUsage
			}

			streamChan <- chunk

			if chunk.Done {
				return
			}
		}
	}()

	return streamChan, nil
}

// GenerateEmbeddings generates embeddings using the specified OpenAI model
func (p *OpenAIProvider) GenerateEmbeddings(ctx context.Context, req models.EmbeddingRequest) (*models.EmbeddingResponse, error) {
	model := req.Model
	if model == "" {
		model = DefaultEmbeddingModel
	}

	resp, err := p.client.CreateEmbeddings(ctx, openaiClient.EmbeddingRequest{
		Input:          req.Input,
		Model:          openaiClient.EmbeddingModel(model),
		EncodingFormat: openaiClient.EmbeddingEncodingFormat(req.EncodingFormat),
		Dimensions:     req.Dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}

	data := make([]models.Embedding, len(resp.Data))
	for i, item := range resp.Data {
		data[i] = models.Embedding{
			Object: "embedding",
			Index:  item.Index,
			Vector: item.Embedding,
		}
	}

	return &models.EmbeddingResponse{
		Object: "list",
		Data:   data,
		Model:  model,
		Usage: &models.Usage{
			PromptTokens: resp.Usage.PromptTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
		Provider: "openai",
	}, nil
}

func toChatMessages(messages []models.ChatMessage) []openaiClient.ChatCompletionMessage {
	result := make([]openaiClient.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		result[i] = openaiClient.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		}
	}
	return result
}

// Close closes the OpenAI provider (no-op in this case)
func (p *OpenAIProvider) Close() error {
	return nil
}

// StartChat starts a new chat session (not implemented)
func (p *OpenAIProvider) StartChat(modelName string) interface{} {
	return nil
}

// SendChatMessage sends a message to an existing chat session (not implemented)
func (p *OpenAIProvider) SendChatMessage(ctx context.Context, session interface{}, message string) (*models.CompletionResponse, error) {
	return nil, errors.New("chat functionality not implemented for OpenAI provider")
}
