package lodash

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborml/gateway/models"
)

func newTestProvider(t *testing.T) *LodashProvider {
	t.Helper()
	provider, err := NewLodashProvider()
	require.NoError(t, err)
	return provider
}

func TestGenerateEmbeddings_Success(t *testing.T) {
	clearEnvironment(t)

	var gotBody embeddingRequestBody
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-token"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": [[0.1, 0.2, 0.3], [0.4, 0.5, 0.6]]}`))
	}))
	defer server.Close()

	provider := newTestProvider(t)
	resp, err := provider.GenerateEmbeddings(context.Background(), models.EmbeddingRequest{
		Model:   "lodash/all-MiniLM-L6-v2",
		Input:   []string{"Hello world", "How are you?"},
		APIKey:  "test-key",
		APIBase: server.URL,
	})
	require.NoError(t, err)

	// The gateway expects the bare model name.
	assert.Equal(t, "all-MiniLM-L6-v2", gotBody.Model)
	assert.Equal(t, []string{"Hello world", "How are you?"}, gotBody.Input)

	assert.Equal(t, "list", resp.Object)
	assert.Equal(t, "lodash", resp.Provider)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, 0, resp.Data[0].Index)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, resp.Data[0].Vector)
	assert.Equal(t, 1, resp.Data[1].Index)
	assert.Equal(t, []float32{0.4, 0.5, 0.6}, resp.Data[1].Vector)

	// Usage is estimated at 5 tokens per input.
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 10, resp.Usage.PromptTokens)
	assert.Equal(t, 10, resp.Usage.TotalTokens)
}

func TestGenerateEmbeddings_OptionalParams(t *testing.T) {
	clearEnvironment(t)

	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"data": [[0.1]]}`))
	}))
	defer server.Close()

	provider := newTestProvider(t)
	_, err := provider.GenerateEmbeddings(context.Background(), models.EmbeddingRequest{
		Model:          "all-MiniLM-L6-v2",
		Input:          []string{"text"},
		Dimensions:     256,
		EncodingFormat: models.EncodingFormatFloat,
		APIKey:         "test-key",
		APIBase:        server.URL,
	})
	require.NoError(t, err)

	assert.Equal(t, float64(256), gotBody["dimensions"])
	assert.Equal(t, "float", gotBody["encoding_format"])
}

func TestGenerateEmbeddings_OmitsUnsetOptionalParams(t *testing.T) {
	clearEnvironment(t)

	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"data": [[0.1]]}`))
	}))
	defer server.Close()

	provider := newTestProvider(t)
	_, err := provider.GenerateEmbeddings(context.Background(), models.EmbeddingRequest{
		Model:   "all-MiniLM-L6-v2",
		Input:   []string{"text"},
		APIKey:  "test-key",
		APIBase: server.URL,
	})
	require.NoError(t, err)

	assert.NotContains(t, gotBody, "dimensions")
	assert.NotContains(t, gotBody, "encoding_format")
}

func TestGenerateEmbeddings_SingleInput(t *testing.T) {
	clearEnvironment(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": [[0.1, 0.2, 0.3]]}`))
	}))
	defer server.Close()

	provider := newTestProvider(t)

	// A single text and a one-element list produce the same shape.
	single, err := provider.GenerateEmbeddings(context.Background(), models.NewEmbeddingRequest("all-MiniLM-L6-v2", "Hello world"))
	require.Error(t, err) // no key anywhere yet

	t.Setenv("LODASH_API_KEY", "env-key")
	t.Setenv("LODASH_API_BASE", server.URL)

	single, err = provider.GenerateEmbeddings(context.Background(), models.NewEmbeddingRequest("all-MiniLM-L6-v2", "Hello world"))
	require.NoError(t, err)

	list, err := provider.GenerateEmbeddings(context.Background(), models.EmbeddingRequest{
		Model: "all-MiniLM-L6-v2",
		Input: []string{"Hello world"},
	})
	require.NoError(t, err)

	require.Len(t, single.Data, 1)
	require.Len(t, list.Data, 1)
	assert.Equal(t, len(single.Data[0].Vector), len(list.Data[0].Vector))
}

func TestGenerateEmbeddings_MissingCredentialSkipsNetwork(t *testing.T) {
	clearEnvironment(t)

	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	provider := newTestProvider(t)
	_, err := provider.GenerateEmbeddings(context.Background(), models.EmbeddingRequest{
		Model:   "all-MiniLM-L6-v2",
		Input:   []string{"text"},
		APIBase: server.URL,
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingCredential))
	assert.Equal(t, int64(0), requests.Load(), "no network call should be made without a credential")
}

func TestGenerateEmbeddings_AuthenticationError(t *testing.T) {
	clearEnvironment(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "Invalid API key"}}`))
	}))
	defer server.Close()

	provider := newTestProvider(t)
	_, err := provider.GenerateEmbeddings(context.Background(), models.EmbeddingRequest{
		Model:   "all-MiniLM-L6-v2",
		Input:   []string{"text"},
		APIKey:  "bad-key",
		APIBase: server.URL,
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuthentication))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid API key", apiErr.Message)
}

func TestGenerateEmbeddings_RateLimitError(t *testing.T) {
	clearEnvironment(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "Too many requests"}}`))
	}))
	defer server.Close()

	provider := newTestProvider(t)
	_, err := provider.GenerateEmbeddings(context.Background(), models.EmbeddingRequest{
		Model:   "all-MiniLM-L6-v2",
		Input:   []string{"text"},
		APIKey:  "test-key",
		APIBase: server.URL,
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRateLimit))
}

func TestGenerateEmbeddings_InvalidModelError(t *testing.T) {
	clearEnvironment(t)

	body := `[{"code": 400, "type": "Bad Request", "failedField": "model", "tag": "invalid_request_input", "errorMessage": "Model 'all-distilroberta-v1' is not allowed"}]`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	provider := newTestProvider(t)
	_, err := provider.GenerateEmbeddings(context.Background(), models.EmbeddingRequest{
		Model:   "all-distilroberta-v1",
		Input:   []string{"text"},
		APIKey:  "test-key",
		APIBase: server.URL,
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidModel))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Model 'all-distilroberta-v1' is not allowed", apiErr.Message)
}

func TestGenerateEmbeddings_ConnectionError(t *testing.T) {
	clearEnvironment(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	provider := newTestProvider(t)
	_, err := provider.GenerateEmbeddings(context.Background(), models.EmbeddingRequest{
		Model:   "all-MiniLM-L6-v2",
		Input:   []string{"text"},
		APIKey:  "test-key",
		APIBase: url,
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConnection))
}

func TestGenerateEmbeddings_CountMismatch(t *testing.T) {
	clearEnvironment(t)

	// Two inputs, but the gateway answers with a single vector.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": [[0.1, 0.2, 0.3]]}`))
	}))
	defer server.Close()

	provider := newTestProvider(t)
	_, err := provider.GenerateEmbeddings(context.Background(), models.EmbeddingRequest{
		Model:   "all-MiniLM-L6-v2",
		Input:   []string{"Hello world", "How are you?"},
		APIKey:  "test-key",
		APIBase: server.URL,
	})

	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Contains(t, apiErr.Message, "expected 2 embeddings, got 1")
}

func TestGenerateEmbeddings_MalformedResponse(t *testing.T) {
	clearEnvironment(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	provider := newTestProvider(t)
	_, err := provider.GenerateEmbeddings(context.Background(), models.EmbeddingRequest{
		Model:   "all-MiniLM-L6-v2",
		Input:   []string{"text"},
		APIKey:  "test-key",
		APIBase: server.URL,
	})

	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Contains(t, apiErr.Message, "failed to decode response")
}

func TestGenerateEmbeddings_DefaultModel(t *testing.T) {
	clearEnvironment(t)

	var gotBody embeddingRequestBody
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"data": [[0.1]]}`))
	}))
	defer server.Close()

	provider := newTestProvider(t)
	_, err := provider.GenerateEmbeddings(context.Background(), models.EmbeddingRequest{
		Input:   []string{"text"},
		APIKey:  "test-key",
		APIBase: server.URL,
	})
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, gotBody.Model)
}

func TestGenerateEmbeddingsAsync(t *testing.T) {
	clearEnvironment(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": [[0.1, 0.2]]}`))
	}))
	defer server.Close()

	provider := newTestProvider(t)
	resultChan := provider.GenerateEmbeddingsAsync(context.Background(), models.EmbeddingRequest{
		Model:   "all-MiniLM-L6-v2",
		Input:   []string{"text"},
		APIKey:  "test-key",
		APIBase: server.URL,
	})

	result, ok := <-resultChan
	require.True(t, ok)
	require.NoError(t, result.Error)
	require.NotNil(t, result.Response)
	assert.Len(t, result.Response.Data, 1)

	// Exactly one result, then the channel closes.
	_, ok = <-resultChan
	assert.False(t, ok)
}

func TestLodashProvider_CompletionsNotSupported(t *testing.T) {
	provider := newTestProvider(t)

	_, err := provider.GenerateCompletion(context.Background(), "some-model", models.CompletionInput{})
	assert.Error(t, err)

	_, err = provider.GenerateCompletionStream(context.Background(), "some-model", models.CompletionInput{})
	assert.Error(t, err)

	assert.NoError(t, provider.Close())
}
