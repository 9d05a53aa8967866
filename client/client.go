package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/harborml/gateway/common"
	"github.com/harborml/gateway/config"
	"github.com/harborml/gateway/internal/logging"
	"github.com/harborml/gateway/metrics"
	"github.com/harborml/gateway/models"
	"github.com/harborml/gateway/providers/anthropic"
	"github.com/harborml/gateway/providers/googlegemini"
	"github.com/harborml/gateway/providers/lodash"
	"github.com/harborml/gateway/providers/ollama"
	"github.com/harborml/gateway/providers/openai"
)

// Provider interface defines the methods that each provider must implement
type Provider interface {
	GenerateCompletion(ctx context.Context, modelName string, input models.CompletionInput) (*models.CompletionResponse, error)
	GenerateCompletionStream(ctx context.Context, modelName string, input models.CompletionInput) (<-chan models.StreamingCompletionResponse, error)
	GenerateEmbeddings(ctx context.Context, req models.EmbeddingRequest) (*models.EmbeddingResponse, error)
	StartChat(modelName string) interface{}
	SendChatMessage(ctx context.Context, session interface{}, message string) (*models.CompletionResponse, error)
	Close() error
}

// Client represents the main gateway client
type Client struct {
	providers       map[string]Provider
	defaultProvider string
	modelList       *config.ModelList
	logger          logging.Logger
	metrics         metrics.LLMetrics
	autoRegister    bool
	mu              sync.RWMutex
}

// NewClient creates a new gateway client without automatic provider registration
func NewClient(ctx context.Context, options ...ClientOption) (*Client, error) {
	c := &Client{
		providers: make(map[string]Provider),
		logger:    logging.NewDefaultLogger(),
		metrics:   metrics.NewNoopMetrics(),
	}

	// Set default log level to Disabled
	c.logger.SetLevel(common.DisabledLevel)

	// Apply options
	for _, option := range options {
		option(c)
	}

	c.logger.Info("Initializing gateway client")

	if c.autoRegister {
		if err := c.autoRegisterProviders(ctx); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (c *Client) autoRegisterProviders(ctx context.Context) error {
	var wg sync.WaitGroup
	errChan := make(chan error, 5) // Buffer for potential errors from 5 providers

	wg.Add(5)

	go c.registerOpenAIProvider(&wg, errChan)
	go c.registerAnthropicProvider(&wg, errChan)
	go c.registerGoogleGeminiProvider(ctx, &wg, errChan)
	go c.registerOllamaProvider(&wg, errChan)
	go c.registerLodashProvider(&wg, errChan)

	go func() {
		wg.Wait()
		close(errChan)
	}()

	for err := range errChan {
		if err != nil {
			c.logger.Error("Error during provider registration:", err)
			// Non-blocking: log the error but continue with other providers
		}
	}

	return nil
}

func (c *Client) registerOpenAIProvider(wg *sync.WaitGroup, errChan chan<- error) {
	defer wg.Done()
	if openaiAPIKey := os.Getenv("OPENAI_API_KEY"); openaiAPIKey != "" {
		openaiProvider, err := openai.NewOpenAIProvider()
		if err != nil {
			errChan <- err
			return
		}
		c.RegisterProvider("openai", openaiProvider)
		c.setDefaultProviderIfEmpty("openai")
		c.logger.Info("Registered OpenAI provider")
	}
}

func (c *Client) registerAnthropicProvider(wg *sync.WaitGroup, errChan chan<- error) {
	defer wg.Done()
	if anthropicAPIKey := os.Getenv("ANTHROPIC_API_KEY"); anthropicAPIKey != "" {
		anthropicProvider, err := anthropic.NewAnthropicProvider()
		if err != nil {
			errChan <- err
			return
		}
		c.RegisterProvider("anthropic", anthropicProvider)
		c.setDefaultProviderIfEmpty("anthropic")
		c.logger.Info("Registered Anthropic provider")
	}
}

func (c *Client) registerGoogleGeminiProvider(ctx context.Context, wg *sync.WaitGroup, errChan chan<- error) {
	defer wg.Done()
	if geminiAPIKey := os.Getenv("GEMINI_API_KEY"); geminiAPIKey != "" {
		geminiProvider, err := googlegemini.NewGoogleGeminiProvider(ctx)
		if err != nil {
			errChan <- err
			return
		}
		c.RegisterProvider("googlegemini", geminiProvider)
		c.setDefaultProviderIfEmpty("googlegemini")
		c.logger.Info("Registered Google Gemini provider")
	}
}

func (c *Client) registerOllamaProvider(wg *sync.WaitGroup, errChan chan<- error) {
	defer wg.Done()
	if ollamaBaseURL := os.Getenv("OLLAMA_BASE_URL"); ollamaBaseURL != "" {
		ollamaProvider, err := ollama.NewOllamaProvider()
		if err != nil {
			errChan <- err
			return
		}
		c.RegisterProvider("ollama", ollamaProvider)
		c.setDefaultProviderIfEmpty("ollama")
		c.logger.Info("Registered Ollama provider")
	}
}

func (c *Client) registerLodashProvider(wg *sync.WaitGroup, errChan chan<- error) {
	defer wg.Done()
	if lodash.HasEnvironmentCredentials() {
		lodashProvider, err := lodash.NewLodashProvider()
		if err != nil {
			errChan <- err
			return
		}
		c.RegisterProvider("lodash", lodashProvider)
		c.setDefaultProviderIfEmpty("lodash")
		c.logger.Info("Registered Lodash AI provider")
	}
}

// setDefaultProviderIfEmpty sets the default provider if it hasn't been set yet
func (c *Client) setDefaultProviderIfEmpty(provider string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.defaultProvider == "" {
		c.defaultProvider = provider
	}
}

// RegisterProvider registers a new provider with the client
func (c *Client) RegisterProvider(name string, provider Provider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.providers[name] = provider
}

// Close closes all provider clients
func (c *Client) Close() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var wg sync.WaitGroup
	errChan := make(chan error, len(c.providers))

	for _, provider := range c.providers {
		wg.Add(1)
		go func(p Provider) {
			defer wg.Done()
			if err := p.Close(); err != nil {
				errChan <- err
			}
		}(provider)
	}

	go func() {
		wg.Wait()
		close(errChan)
	}()

	var lastErr error
	for err := range errChan {
		if err != nil {
			c.logger.Error("Error closing provider:", err)
			lastErr = err
		}
	}

	return lastErr
}

// GenerateCompletion generates a completion based on the provided input.
// The input model should be in the format "provider/model"
// (e.g. "openai/gpt-4o-mini"). It returns a CompletionResponse and any
// error encountered during the process.
func (c *Client) GenerateCompletion(ctx context.Context, input models.CompletionInput) (*models.CompletionResponse, error) {
	provider, model, err := c.parseProviderModel(input.Model)
	if err != nil {
		c.logger.Error("Failed to parse provider/model", "error", err)
		return nil, fmt.Errorf("failed to parse provider/model: %w", err)
	}

	p, err := c.providerFor(ctx, provider)
	if err != nil {
		return nil, err
	}

	c.logger.Debugf("Generating completion with provider %s and model %s", provider, model)
	c.metrics.ObserveLLMRequest(provider)
	start := time.Now()

	resp, err := p.GenerateCompletion(ctx, model, input)
	c.metrics.ObserveLLMRequestDuration(provider, time.Since(start).Seconds())
	if err != nil {
		c.metrics.ObserveLLMError(provider)
		c.logger.Error("Failed to generate completion:", err)
		return nil, err
	}

	if resp.Usage != nil {
		c.metrics.ObserveLLMTokens(provider, int64(resp.Usage.TotalTokens))
	}

	return resp, nil
}

// GenerateCompletionStream generates a streaming completion using the specified provider and model
func (c *Client) GenerateCompletionStream(ctx context.Context, input models.CompletionInput) (<-chan models.StreamingCompletionResponse, error) {
	provider, model, err := c.parseProviderModel(input.Model)
	if err != nil {
		c.logger.Error("Failed to parse provider/model:", err)
		return nil, err
	}

	c.mu.RLock()
	p, ok := c.providers[provider]
	c.mu.RUnlock()

	if !ok {
		c.logger.Error("Unsupported provider:", provider)
		return nil, ErrUnsupportedProvider
	}

	c.logger.Debugf("Generating streaming completion with provider %s and model %s", provider, model)
	c.metrics.ObserveLLMRequest(provider)

	stream, err := p.GenerateCompletionStream(ctx, model, input)
	if err != nil {
		c.metrics.ObserveLLMError(provider)
		c.logger.Error("Failed to generate streaming completion:", err)
		return nil, err
	}

	return stream, nil
}

// GenerateEmbeddings generates embeddings using the provider selected by the
// request. The model may be a "provider/model" string, a logical alias from
// the configured model list, or a bare model name routed to the default
// provider. The response carries one vector per input, in input order.
func (c *Client) GenerateEmbeddings(ctx context.Context, req models.EmbeddingRequest) (*models.EmbeddingResponse, error) {
	req = c.applyModelAlias(req)

	provider := req.Provider
	model := req.Model
	if provider == "" {
		if parsedProvider, parsedModel, err := c.parseProviderModel(req.Model); err == nil {
			provider = parsedProvider
			model = parsedModel
		} else {
			c.mu.RLock()
			provider = c.defaultProvider
			c.mu.RUnlock()
		}
	}

	if provider == "" {
		c.logger.Error("No default provider set")
		return nil, errors.New("no default provider set")
	}

	p, err := c.providerFor(ctx, provider)
	if err != nil {
		return nil, err
	}

	req.Provider = provider
	req.Model = model

	c.logger.Debugf("Generating embeddings with provider %s and model %s", provider, model)
	c.metrics.ObserveLLMRequest(provider)
	start := time.Now()

	resp, err := p.GenerateEmbeddings(ctx, req)
	c.metrics.ObserveLLMRequestDuration(provider, time.Since(start).Seconds())
	if err != nil {
		c.metrics.ObserveLLMError(provider)
		c.logger.Error("Failed to generate embeddings:", err)
		return nil, err
	}

	if resp.Usage != nil {
		c.metrics.ObserveLLMTokens(provider, int64(resp.Usage.TotalTokens))
	}

	return resp, nil
}

// GenerateEmbeddingsAsync is a non-blocking wrapper around GenerateEmbeddings.
// Exactly one result is delivered on the returned channel.
func (c *Client) GenerateEmbeddingsAsync(ctx context.Context, req models.EmbeddingRequest) <-chan models.EmbeddingResult {
	resultChan := make(chan models.EmbeddingResult, 1)

	go func() {
		defer close(resultChan)
		resp, err := c.GenerateEmbeddings(ctx, req)
		resultChan <- models.EmbeddingResult{Response: resp, Error: err}
	}()

	return resultChan
}

// GenerateEmbedding generates a single embedding vector using the default provider
func (c *Client) GenerateEmbedding(ctx context.Context, input string) ([]float32, error) {
	c.mu.RLock()
	defaultProvider := c.defaultProvider
	c.mu.RUnlock()

	if defaultProvider == "" {
		c.logger.Error("No default provider set")
		return nil, errors.New("no default provider set")
	}

	resp, err := c.GenerateEmbeddings(ctx, models.EmbeddingRequest{
		Input:    []string{input},
		Provider: defaultProvider,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding data in response")
	}

	return resp.Data[0].Vector, nil
}

// applyModelAlias rewrites a request whose model names a model list entry.
// The alias supplies the provider, the concrete model, and optionally the
// credential (by environment variable name) and base URL.
func (c *Client) applyModelAlias(req models.EmbeddingRequest) models.EmbeddingRequest {
	if c.modelList == nil {
		return req
	}

	modelConfig, ok := c.modelList.Resolve(req.Model)
	if !ok {
		return req
	}

	c.logger.Debugf("Resolved model alias %s to %s/%s", req.Model, modelConfig.Provider, modelConfig.Model)

	req.Provider = modelConfig.Provider
	req.Model = modelConfig.Model
	if req.APIKey == "" && modelConfig.APIKeyEnv != "" {
		req.APIKey = os.Getenv(modelConfig.APIKeyEnv)
	}
	if req.APIBase == "" && modelConfig.APIBase != "" {
		req.APIBase = modelConfig.APIBase
	}

	return req
}

// providerFor returns the registered provider, lazily initializing it from
// the environment on first use.
func (c *Client) providerFor(ctx context.Context, provider string) (Provider, error) {
	c.mu.RLock()
	p, ok := c.providers[provider]
	c.mu.RUnlock()

	if ok {
		return p, nil
	}

	if err := c.initializeProvider(ctx, provider); err != nil {
		c.logger.Error("Failed to initialize provider:", provider, "error:", err)
		return nil, fmt.Errorf("failed to initialize provider %s: %w", provider, err)
	}

	c.mu.RLock()
	p, ok = c.providers[provider]
	c.mu.RUnlock()

	if !ok {
		c.logger.Error("Provider initialization failed:", provider)
		return nil, ErrUnsupportedProvider
	}

	return p, nil
}

// StartChat starts a new chat session for the given model using the default provider
func (c *Client) StartChat(modelName string) (interface{}, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.defaultProvider == "" {
		c.logger.Error("No default provider set")
		return nil, errors.New("no default provider set")
	}

	provider, ok := c.providers[c.defaultProvider]
	if !ok {
		c.logger.Error("Unsupported default provider:", c.defaultProvider)
		return nil, ErrUnsupportedProvider
	}

	c.logger.Debugf("Starting chat session with default provider %s and model %s", c.defaultProvider, modelName)
	session := provider.StartChat(modelName)
	return session, nil
}

// SendChatMessage sends a message to an existing chat session using the default provider
func (c *Client) SendChatMessage(ctx context.Context, session interface{}, message string) (*models.CompletionResponse, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.defaultProvider == "" {
		c.logger.Error("No default provider set")
		return nil, errors.New("no default provider set")
	}

	provider, ok := c.providers[c.defaultProvider]
	if !ok {
		c.logger.Error("Unsupported default provider:", c.defaultProvider)
		return nil, ErrUnsupportedProvider
	}

	c.logger.Debugf("Sending chat message with default provider %s", c.defaultProvider)
	resp, err := provider.SendChatMessage(ctx, session, message)
	if err != nil {
		c.logger.Error("Failed to send chat message:", err)
		return nil, err
	}

	return resp, nil
}

// parseProviderModel splits the providerModel string into provider and model components.
// It returns an error if the string is not in the correct "provider/model" format
// or names an unknown provider.
func (c *Client) parseProviderModel(providerModel string) (string, string, error) {
	parts := strings.SplitN(providerModel, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.New("invalid provider/model format")
	}
	if !isKnownProvider(parts[0]) {
		return "", "", ErrUnsupportedProvider
	}
	return parts[0], parts[1], nil
}

func isKnownProvider(name string) bool {
	switch name {
	case "openai", "anthropic", "googlegemini", "ollama", "lodash":
		return true
	}
	return false
}

// initializeProvider initializes a specific provider
func (c *Client) initializeProvider(ctx context.Context, providerName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch providerName {
	case "openai":
		if openaiAPIKey := os.Getenv("OPENAI_API_KEY"); openaiAPIKey != "" {
			openaiProvider, err := openai.NewOpenAIProvider()
			if err != nil {
				return err
			}
			c.providers["openai"] = openaiProvider
			c.logger.Info("Registered OpenAI provider")
		} else {
			return errors.New("OPENAI_API_KEY not set")
		}
	case "anthropic":
		if anthropicAPIKey := os.Getenv("ANTHROPIC_API_KEY"); anthropicAPIKey != "" {
			anthropicProvider, err := anthropic.NewAnthropicProvider()
			if err != nil {
				return err
			}
			c.providers["anthropic"] = anthropicProvider
			c.logger.Info("Registered Anthropic provider")
		} else {
			return errors.New("ANTHROPIC_API_KEY not set")
		}
	case "googlegemini":
		if geminiAPIKey := os.Getenv("GEMINI_API_KEY"); geminiAPIKey != "" {
			geminiProvider, err := googlegemini.NewGoogleGeminiProvider(ctx)
			if err != nil {
				return err
			}
			c.providers["googlegemini"] = geminiProvider
			c.logger.Info("Registered Google Gemini provider")
		} else {
			return errors.New("GEMINI_API_KEY not set")
		}
	case "ollama":
		if ollamaBaseURL := os.Getenv("OLLAMA_BASE_URL"); ollamaBaseURL != "" {
			ollamaProvider, err := ollama.NewOllamaProvider()
			if err != nil {
				return err
			}
			c.providers["ollama"] = ollamaProvider
			c.logger.Info("Registered Ollama provider")
		} else {
			return errors.New("OLLAMA_BASE_URL not set")
		}
	case "lodash":
		// Credentials are resolved per request; construction never fails
		// on a missing key.
		lodashProvider, err := lodash.NewLodashProvider()
		if err != nil {
			return err
		}
		c.providers["lodash"] = lodashProvider
		c.logger.Info("Registered Lodash AI provider")
	default:
		return ErrUnsupportedProvider
	}

	return nil
}
