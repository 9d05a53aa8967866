// Package config loads the external model list configuration: a mapping of
// logical model names to concrete provider models and credential references.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ModelConfig maps a logical model name to a concrete provider model. The
// credential is referenced by environment variable name, never stored inline.
type ModelConfig struct {
	ModelName string `yaml:"model_name"`
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env,omitempty"`
	APIBase   string `yaml:"api_base,omitempty"`
}

// ModelList is the root of a model list configuration file.
type ModelList struct {
	Models []ModelConfig `yaml:"model_list"`
}

// Load reads and parses a model list file.
func Load(path string) (*ModelList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read model list")
	}

	var list ModelList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, errors.Wrap(err, "failed to parse model list")
	}

	for _, m := range list.Models {
		if m.ModelName == "" || m.Provider == "" || m.Model == "" {
			return nil, errors.Errorf("incomplete model list entry %q", m.ModelName)
		}
	}

	return &list, nil
}

// Resolve looks up a logical model name.
func (l *ModelList) Resolve(name string) (ModelConfig, bool) {
	for _, m := range l.Models {
		if m.ModelName == name {
			return m, true
		}
	}
	return ModelConfig{}, false
}
