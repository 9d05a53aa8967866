package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModelList(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeModelList(t, `
model_list:
  - model_name: fast-embed
    provider: lodash
    model: all-MiniLM-L6-v2
    api_key_env: LODASH_API_KEY
    api_base: https://gateway.example.com
  - model_name: quality-embed
    provider: openai
    model: text-embedding-3-small
`)

	list, err := Load(path)
	require.NoError(t, err)
	require.Len(t, list.Models, 2)

	assert.Equal(t, "fast-embed", list.Models[0].ModelName)
	assert.Equal(t, "lodash", list.Models[0].Provider)
	assert.Equal(t, "all-MiniLM-L6-v2", list.Models[0].Model)
	assert.Equal(t, "LODASH_API_KEY", list.Models[0].APIKeyEnv)
	assert.Equal(t, "https://gateway.example.com", list.Models[0].APIBase)

	assert.Empty(t, list.Models[1].APIKeyEnv)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read model list")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeModelList(t, "model_list: [unclosed")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse model list")
}

func TestLoad_IncompleteEntry(t *testing.T) {
	path := writeModelList(t, `
model_list:
  - model_name: broken
    provider: lodash
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete model list entry")
}

func TestResolve(t *testing.T) {
	list := &ModelList{Models: []ModelConfig{
		{ModelName: "fast-embed", Provider: "lodash", Model: "all-MiniLM-L6-v2"},
	}}

	m, ok := list.Resolve("fast-embed")
	require.True(t, ok)
	assert.Equal(t, "lodash", m.Provider)

	_, ok = list.Resolve("unknown")
	assert.False(t, ok)
}
