package models

// EncodingFormat selects the wire encoding for embedding vectors.
type EncodingFormat string

const (
	// EncodingFormatFloat requests vectors as plain float arrays.
	EncodingFormatFloat EncodingFormat = "float"

	// EncodingFormatBase64 requests vectors as base64-encoded blobs.
	EncodingFormatBase64 EncodingFormat = "base64"
)

// EmbeddingRequest represents the input for an embedding request.
// Model may carry a "provider/" prefix (e.g. "lodash/all-MiniLM-L6-v2")
// or a logical alias defined in a model list configuration.
type EmbeddingRequest struct {
	Model          string
	Input          []string
	Dimensions     int            // 0 uses the provider default
	EncodingFormat EncodingFormat // empty uses the provider default
	APIKey         string         // overrides environment credential resolution
	APIBase        string         // overrides environment endpoint resolution
	Provider       string         // Specifies the provider explicitly
}

// NewEmbeddingRequest builds a request for one or more input texts.
func NewEmbeddingRequest(model string, input ...string) EmbeddingRequest {
	return EmbeddingRequest{
		Model: model,
		Input: input,
	}
}

// Embedding is a single vector in an embedding response.
type Embedding struct {
	Object string    `json:"object"`
	Index  int       `json:"index"`
	Vector []float32 `json:"embedding"`
}

// EmbeddingResponse represents the response from an embedding request.
// Data holds one vector per input text, in input order.
type EmbeddingResponse struct {
	Object   string      `json:"object"`
	Data     []Embedding `json:"data"`
	Model    string      `json:"model"`
	Usage    *Usage      `json:"usage,omitempty"`
	Provider string      `json:"-"` // Indicates which provider generated the response
}

// EmbeddingResult is the element type of an asynchronous embedding call.
// Exactly one result is delivered per call.
type EmbeddingResult struct {
	Response *EmbeddingResponse
	Error    error
}
