package lodash

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error kinds surfaced by the provider. Match with errors.Is.
var (
	// ErrMissingCredential means no API key was found in the request or in
	// any of the LODASH_* environment variables.
	ErrMissingCredential = errors.New("lodash: no API key in request or environment")

	// ErrAuthentication means the gateway rejected the API key.
	ErrAuthentication = errors.New("lodash: authentication failed")

	// ErrInvalidModel means the gateway does not serve the requested model.
	ErrInvalidModel = errors.New("lodash: model not supported")

	// ErrRateLimit means the gateway throttled the request.
	ErrRateLimit = errors.New("lodash: rate limited")

	// ErrConnection means the endpoint was unreachable or the URL malformed.
	ErrConnection = errors.New("lodash: connection failed")
)

// APIError is a remote-origin error carrying the gateway status code and the
// parsed vendor message. It unwraps to one of the error kinds above when the
// response is classifiable.
type APIError struct {
	StatusCode int
	Message    string
	kind       error
}

func (e *APIError) Error() string {
	if e.kind != nil {
		return fmt.Sprintf("%v: status %d: %s", e.kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("lodash: API error: status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return e.kind }

// vendorError is one element of the gateway's error array format.
type vendorError struct {
	Code         int    `json:"code"`
	Type         string `json:"type"`
	FailedField  string `json:"failedField"`
	Tag          string `json:"tag"`
	ErrorMessage string `json:"errorMessage"`
}

// newAPIError classifies a non-2xx gateway response into an *APIError.
func newAPIError(statusCode int, body []byte) *APIError {
	message, tag := parseVendorError(body)
	return &APIError{
		StatusCode: statusCode,
		Message:    message,
		kind:       classify(statusCode, tag, message),
	}
}

func classify(statusCode int, tag, message string) error {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuthentication
	case http.StatusTooManyRequests:
		return ErrRateLimit
	}
	if tag == "invalid_request_input" || strings.Contains(message, "is not allowed") {
		return ErrInvalidModel
	}
	return nil
}

// parseVendorError extracts a clean message from a gateway error body. The
// gateway answers either with an array of vendor error objects, a bare
// vendor error object, or a standard {"error": {"message": ...}} wrapper.
// Anything unparseable falls back to the raw body text.
func parseVendorError(body []byte) (message, tag string) {
	var list []vendorError
	if err := json.Unmarshal(body, &list); err == nil && len(list) > 0 && list[0].ErrorMessage != "" {
		return list[0].ErrorMessage, list[0].Tag
	}

	var single vendorError
	if err := json.Unmarshal(body, &single); err == nil && single.ErrorMessage != "" {
		return single.ErrorMessage, single.Tag
	}

	var wrapped struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && len(wrapped.Error) > 0 {
		var obj struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(wrapped.Error, &obj); err == nil && obj.Message != "" {
			return obj.Message, ""
		}
		var s string
		if err := json.Unmarshal(wrapped.Error, &s); err == nil && s != "" {
			return s, ""
		}
	}

	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "unknown error", ""
	}
	return trimmed, ""
}
