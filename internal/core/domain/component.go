package domain

import (
	"encoding/json"
	"slices"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// ComponentConfig
// =============================================================================

// Dependencies maps a dependency component name to the modes it applies in.
type Dependencies = OrderedMap[ModeList]

// ComponentConfig declares either a reusable template or a concrete service.
type ComponentConfig struct {
	Alias          string
	Path           string
	ComposeFile    string
	Extends        string
	IsTemplate     bool
	TemplateSet    bool // the descriptor spelled out isTemplate, true or false
	Dependencies   *Dependencies
	Variables      *Context
	HostedIn       string
	Hostname       string
	ExecPath       string
	Tags           []string
	Repository     string
	AfterCloneHook string
	Replace        bool
}

// componentDocument is the on-disk shape. Both camelCase and snake_case
// spellings are accepted for multi-word keys.
type componentDocument struct {
	Alias          string        `yaml:"alias" json:"alias"`
	Path           string        `yaml:"path" json:"path"`
	ComposeFile    string        `yaml:"composeFile" json:"composeFile"`
	ComposeFileS   string        `yaml:"compose_file" json:"compose_file"`
	Extends        string        `yaml:"extends" json:"extends"`
	IsTemplate     *bool         `yaml:"isTemplate" json:"isTemplate"`
	IsTemplateS    *bool         `yaml:"is_template" json:"is_template"`
	Dependencies   *Dependencies `yaml:"dependencies" json:"dependencies"`
	Variables      *Context      `yaml:"variables" json:"variables"`
	HostedIn       string        `yaml:"hostedIn" json:"hostedIn"`
	HostedInS      string        `yaml:"hosted_in" json:"hosted_in"`
	Hostname       string        `yaml:"hostname" json:"hostname"`
	ExecPath       string        `yaml:"execPath" json:"execPath"`
	ExecPathS      string        `yaml:"exec_path" json:"exec_path"`
	Tags           []string      `yaml:"tags" json:"tags"`
	Repository     string        `yaml:"repository" json:"repository"`
	AfterCloneHook string        `yaml:"afterCloneHook" json:"afterCloneHook"`
	AfterCloneS    string        `yaml:"after_clone_hook" json:"after_clone_hook"`
	Replace        bool          `yaml:"replace" json:"replace"`
}

// UnmarshalYAML decodes a component entry of the workspace descriptor.
func (c *ComponentConfig) UnmarshalYAML(node *yaml.Node) error {
	var doc componentDocument
	if err := node.Decode(&doc); err != nil {
		return err
	}
	*c = doc.config()
	return nil
}

// UnmarshalJSON decodes a component entry of a JSON workspace descriptor.
func (c *ComponentConfig) UnmarshalJSON(data []byte) error {
	var doc componentDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*c = doc.config()
	return nil
}

func (doc componentDocument) config() ComponentConfig {
	return ComponentConfig{
		Alias:          doc.Alias,
		Path:           doc.Path,
		ComposeFile:    firstNonEmpty(doc.ComposeFile, doc.ComposeFileS),
		Extends:        doc.Extends,
		IsTemplate:     isTrue(doc.IsTemplate) || isTrue(doc.IsTemplateS),
		TemplateSet:    doc.IsTemplate != nil || doc.IsTemplateS != nil,
		Dependencies:   doc.Dependencies,
		Variables:      doc.Variables,
		HostedIn:       firstNonEmpty(doc.HostedIn, doc.HostedInS),
		Hostname:       doc.Hostname,
		ExecPath:       firstNonEmpty(doc.ExecPath, doc.ExecPathS),
		Tags:           doc.Tags,
		Repository:     doc.Repository,
		AfterCloneHook: firstNonEmpty(doc.AfterCloneHook, doc.AfterCloneS),
		Replace:        doc.Replace,
	}
}

func isTrue(b *bool) bool {
	return b != nil && *b
}

// Clone returns a deep copy so callers can modify the result freely.
func (c ComponentConfig) Clone() ComponentConfig {
	out := c
	if c.Dependencies != nil {
		out.Dependencies = NewOrderedMap[ModeList]()
		c.Dependencies.Each(func(k string, modes ModeList) {
			out.Dependencies.Set(k, slices.Clone(modes))
		})
	}
	if c.Variables != nil {
		out.Variables = c.Variables.Clone()
	}
	out.Tags = slices.Clone(c.Tags)
	return out
}

// HasTag reports whether tag is among the component's tags.
func (c ComponentConfig) HasTag(tag string) bool {
	return slices.Contains(c.Tags, tag)
}

// DependencyNames returns every declared dependency key in order,
// regardless of mode.
func (c ComponentConfig) DependencyNames() []string {
	return c.Dependencies.Keys()
}

// =============================================================================
// Merge
// =============================================================================

// MergeComponentConfigs overlays override onto base.
//
// With override.Replace set the override is returned verbatim. Otherwise
// non-empty scalar fields of override win, tags are concatenated (base
// first, duplicates kept), variables are overwritten key by key and the
// mode lists of shared dependencies are unioned. IsTemplate follows the
// override when it is set or was spelled out in the overlay document, so
// `"isTemplate": false` turns a template into a service.
func MergeComponentConfigs(base, override ComponentConfig) ComponentConfig {
	if override.Replace {
		return override.Clone()
	}

	result := base.Clone()
	if result.Dependencies == nil {
		result.Dependencies = NewOrderedMap[ModeList]()
	}
	if result.Variables == nil {
		result.Variables = NewContext()
	}

	result.Alias = firstNonEmpty(override.Alias, result.Alias)
	result.Path = firstNonEmpty(override.Path, result.Path)
	result.ComposeFile = firstNonEmpty(override.ComposeFile, result.ComposeFile)
	result.Extends = firstNonEmpty(override.Extends, result.Extends)
	result.HostedIn = firstNonEmpty(override.HostedIn, result.HostedIn)
	result.Hostname = firstNonEmpty(override.Hostname, result.Hostname)
	result.ExecPath = firstNonEmpty(override.ExecPath, result.ExecPath)
	result.Repository = firstNonEmpty(override.Repository, result.Repository)
	result.AfterCloneHook = firstNonEmpty(override.AfterCloneHook, result.AfterCloneHook)
	if override.IsTemplate || override.TemplateSet {
		result.IsTemplate = override.IsTemplate
		result.TemplateSet = true
	}

	override.Variables.Each(func(k, v string) {
		result.Variables.Set(k, v)
	})

	tags := make([]string, 0, len(result.Tags)+len(override.Tags))
	tags = append(tags, result.Tags...)
	tags = append(tags, override.Tags...)
	result.Tags = tags

	override.Dependencies.Each(func(dep string, modes ModeList) {
		existing, _ := result.Dependencies.Get(dep)
		result.Dependencies.Set(dep, existing.Union(modes))
	})

	return result
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
