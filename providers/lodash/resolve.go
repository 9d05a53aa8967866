package lodash

import (
	"os"
	"strings"
)

// defaultAPIBase is the fallback gateway address when nothing is configured.
const defaultAPIBase = "http://127.0.0.1:8000/api/v1/app2/gateway"

// Environment variables consulted for credentials and endpoint, in priority order.
var (
	apiKeyEnvVars  = []string{"LODASH_API_KEY", "LODASH_AI_API_KEY", "LODASH_AI_TOKEN"}
	apiBaseEnvVars = []string{"LODASH_API_BASE", "LODASH_BASE_URL", "LODASH_API_URL"}
)

// resolvedConfig is the effective credential and endpoint for a single
// request. It is derived per call and never stored.
type resolvedConfig struct {
	apiKey   string
	endpoint string
}

// resolve determines the API key and endpoint URL for a request. Explicit
// values win over environment variables; the endpoint falls back to the
// default gateway address. Resolution fails before any network I/O when no
// key is available from any source.
func resolve(explicitKey, explicitBase string) (resolvedConfig, error) {
	key := explicitKey
	if key == "" {
		key = firstEnv(apiKeyEnvVars)
	}
	if key == "" {
		return resolvedConfig{}, ErrMissingCredential
	}

	base := explicitBase
	if base == "" {
		base = firstEnv(apiBaseEnvVars)
	}
	if base == "" {
		base = defaultAPIBase
	}

	return resolvedConfig{apiKey: key, endpoint: normalizeEndpoint(base)}, nil
}

// HasEnvironmentCredentials reports whether any of the Lodash AI key
// variables is set. Used for provider auto-registration.
func HasEnvironmentCredentials() bool {
	return firstEnv(apiKeyEnvVars) != ""
}

func firstEnv(names []string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// normalizeEndpoint ensures the URL targets an embeddings path. A URL that
// already ends in "/embeddings", or that carries a deeper path under it
// (e.g. "/embeddings/local"), is left alone.
func normalizeEndpoint(base string) string {
	trimmed := strings.TrimSuffix(base, "/")
	if strings.HasSuffix(trimmed, "/embeddings") || strings.Contains(trimmed, "/embeddings/") {
		return trimmed
	}
	return trimmed + "/embeddings"
}
