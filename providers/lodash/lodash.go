// Package lodash implements the Lodash AI embeddings gateway provider.
package lodash

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/harborml/gateway/models"
)

const (
	// DefaultModel is used when a request carries no model name.
	DefaultModel = "all-MiniLM-L6-v2"

	// modelPrefix is stripped before dispatch; the gateway expects the bare
	// model name (e.g. "all-MiniLM-L6-v2").
	modelPrefix = "lodash/"

	// estimatedTokensPerInput approximates usage; the gateway reports none.
	estimatedTokensPerInput = 5
)

// LodashProvider implements the Lodash AI-specific functionality.
type LodashProvider struct {
	client *http.Client
}

// NewLodashProvider creates a new Lodash AI provider. Credentials are
// resolved per request, so construction never consults the environment.
func NewLodashProvider() (*LodashProvider, error) {
	return &LodashProvider{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

type embeddingRequestBody struct {
	Model          string   `json:"model"`
	Input          []string `json:"input"`
	EncodingFormat string   `json:"encoding_format,omitempty"`
	Dimensions     int      `json:"dimensions,omitempty"`
}

// embeddingResponseBody is the gateway wire format: raw vector arrays, one
// per input, with no usage object.
type embeddingResponseBody struct {
	Data [][]float32 `json:"data"`
}

// GenerateEmbeddings generates embeddings for the request inputs. The
// response carries one vector per input text, in input order.
func (p *LodashProvider) GenerateEmbeddings(ctx context.Context, req models.EmbeddingRequest) (*models.EmbeddingResponse, error) {
	cfg, err := resolve(req.APIKey, req.APIBase)
	if err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = DefaultModel
	}

	body := embeddingRequestBody{
		Model:          strings.TrimPrefix(model, modelPrefix),
		Input:          req.Input,
		EncodingFormat: string(req.EncodingFormat),
		Dimensions:     req.Dimensions,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-token", cfg.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, newAPIError(resp.StatusCode, respBody)
	}

	var result embeddingResponseBody
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("failed to decode response: %v", err),
		}
	}

	if len(result.Data) != len(req.Input) {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("expected %d embeddings, got %d", len(req.Input), len(result.Data)),
		}
	}

	data := make([]models.Embedding, len(result.Data))
	for i, vector := range result.Data {
		data[i] = models.Embedding{
			Object: "embedding",
			Index:  i,
			Vector: vector,
		}
	}

	estimatedTokens := len(req.Input) * estimatedTokensPerInput

	return &models.EmbeddingResponse{
		Object: "list",
		Data:   data,
		Model:  model,
		Usage: &models.Usage{
			PromptTokens: estimatedTokens,
			TotalTokens:  estimatedTokens,
		},
		Provider: "lodash",
	}, nil
}

// GenerateEmbeddingsAsync is a non-blocking wrapper around
// GenerateEmbeddings. Exactly one result is delivered on the channel.
func (p *LodashProvider) GenerateEmbeddingsAsync(ctx context.Context, req models.EmbeddingRequest) <-chan models.EmbeddingResult {
	resultChan := make(chan models.EmbeddingResult, 1)

	go func() {
		defer close(resultChan)
		resp, err := p.GenerateEmbeddings(ctx, req)
		resultChan <- models.EmbeddingResult{Response: resp, Error: err}
	}()

	return resultChan
}

// GenerateCompletion is not supported; the Lodash gateway serves embeddings only.
func (p *LodashProvider) GenerateCompletion(ctx context.Context, modelName string, input models.CompletionInput) (*models.CompletionResponse, error) {
	return nil, errors.New("completion generation not implemented for Lodash provider")
}

// GenerateCompletionStream is not supported; the Lodash gateway serves embeddings only.
func (p *LodashProvider) GenerateCompletionStream(ctx context.Context, modelName string, input models.CompletionInput) (<-chan models.StreamingCompletionResponse, error) {
	return nil, errors.New("streaming completion not implemented for Lodash provider")
}

// StartChat starts a new chat session (not implemented)
func (p *LodashProvider) StartChat(modelName string) interface{} {
	return nil
}

// SendChatMessage sends a message to an existing chat session (not implemented)
func (p *LodashProvider) SendChatMessage(ctx context.Context, session interface{}, message string) (*models.CompletionResponse, error) {
	return nil, errors.New("chat functionality not implemented for Lodash provider")
}

// Close closes the Lodash provider (no-op in this case)
func (p *LodashProvider) Close() error {
	return nil
}
