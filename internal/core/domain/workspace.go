package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// WorkspaceConfig
// =============================================================================

// Components maps component names to their declarations in document order.
type Components = OrderedMap[ComponentConfig]

// WorkspaceConfig is the decoded workspace descriptor.
type WorkspaceConfig struct {
	Name       string      `yaml:"name" json:"name"`
	Version    string      `yaml:"version" json:"version"`
	Variables  *Context    `yaml:"variables" json:"variables"`
	Components *Components `yaml:"components" json:"components"`
}

// ParseWorkspaceConfig decodes a workspace descriptor. A document that
// starts with '{' is read as JSON; anything else, and flow-style YAML that
// is not valid JSON, is read as YAML. Key order of variables, components
// and dependencies is kept.
// This is a pure function - no I/O.
func ParseWorkspaceConfig(content []byte) (*WorkspaceConfig, error) {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 {
		return nil, ErrEmptyDescriptor
	}

	if trimmed[0] == '{' {
		cfg, err := parseJSON(trimmed)
		var syntaxErr *json.SyntaxError
		if err == nil || !errors.As(err, &syntaxErr) {
			return cfg, err
		}
		if cfg, yerr := parseYAML(content); yerr == nil {
			return cfg, nil
		}
		return nil, err
	}
	return parseYAML(content)
}

func parseJSON(content []byte) (*WorkspaceConfig, error) {
	var cfg WorkspaceConfig
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, err
	}
	cfg.normalize()
	return &cfg, nil
}

func parseYAML(content []byte) (*WorkspaceConfig, error) {
	var cfg WorkspaceConfig
	dec := yaml.NewDecoder(bytes.NewReader(content))
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDescriptor
		}
		return nil, err
	}
	cfg.normalize()
	return &cfg, nil
}

func (w *WorkspaceConfig) normalize() {
	if w.Variables == nil {
		w.Variables = NewContext()
	}
	if w.Components == nil {
		w.Components = NewOrderedMap[ComponentConfig]()
	}
	w.Name = strings.TrimSpace(w.Name)
}

// Merge overlays other onto w and returns the result; w is left untouched.
// New components are appended, existing components are merged with
// MergeComponentConfigs and variables are overwritten by key. Empty name
// and version in the overlay keep the base values.
func (w *WorkspaceConfig) Merge(other *WorkspaceConfig) *WorkspaceConfig {
	result := w.Clone()
	if other == nil {
		return result
	}

	if other.Name != "" {
		result.Name = other.Name
	}
	if other.Version != "" {
		result.Version = other.Version
	}

	other.Components.Each(func(name string, cc ComponentConfig) {
		if old, ok := result.Components.Get(name); ok {
			result.Components.Set(name, MergeComponentConfigs(old, cc))
			return
		}
		result.Components.Set(name, cc.Clone())
	})

	other.Variables.Each(func(k, v string) {
		result.Variables.Set(k, v)
	})

	return result
}

// Clone returns a deep copy of the workspace config.
func (w *WorkspaceConfig) Clone() *WorkspaceConfig {
	out := &WorkspaceConfig{
		Name:       w.Name,
		Version:    w.Version,
		Variables:  w.Variables.Clone(),
		Components: NewOrderedMap[ComponentConfig](),
	}
	w.Components.Each(func(name string, cc ComponentConfig) {
		out.Components.Set(name, cc.Clone())
	})
	return out
}

// ComponentNames returns all declared component names in document order.
func (w *WorkspaceConfig) ComponentNames() []string {
	return w.Components.Keys()
}
