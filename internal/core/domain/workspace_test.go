package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDescriptor = `{
	"name": "acme",
	"version": "1.0",
	"variables": {
		"ROOT": "/srv",
		"DB_HOST": "db"
	},
	"components": {
		"php": {
			"isTemplate": true,
			"path": "${ROOT}/templates/php",
			"variables": {"PHP_VERSION": "8.2"}
		},
		"web": {
			"path": "${ROOT}/web",
			"extends": "php",
			"tags": ["frontend"],
			"exec_path": "/var/www",
			"dependencies": {"redis": ["default"], "mail": ["hook", "default"]}
		},
		"redis": {
			"path": "${ROOT}/redis"
		}
	}
}`

// =============================================================================
// Parsing Tests
// =============================================================================

func TestParseWorkspaceConfig_JSONKeepsOrder(t *testing.T) {
	cfg, err := ParseWorkspaceConfig([]byte(sampleDescriptor))
	require.NoError(t, err)

	assert.Equal(t, "acme", cfg.Name)
	assert.Equal(t, "1.0", cfg.Version)
	assert.Equal(t, []string{"ROOT", "DB_HOST"}, cfg.Variables.Keys())
	assert.Equal(t, []string{"php", "web", "redis"}, cfg.ComponentNames())

	web, ok := cfg.Components.Get("web")
	require.True(t, ok)
	assert.Equal(t, "php", web.Extends)
	assert.Equal(t, "/var/www", web.ExecPath)
	assert.Equal(t, []string{"redis", "mail"}, web.DependencyNames())
	mail, _ := web.Dependencies.Get("mail")
	assert.Equal(t, ModeList{ModeHook, ModeDefault}, mail)

	php, _ := cfg.Components.Get("php")
	assert.True(t, php.IsTemplate)
}

func TestParseWorkspaceConfig_YAML(t *testing.T) {
	doc := `
name: acme
components:
  web:
    path: /srv/web
    composeFile: /srv/web/compose.yml
`
	cfg, err := ParseWorkspaceConfig([]byte(doc))
	require.NoError(t, err)

	web, ok := cfg.Components.Get("web")
	require.True(t, ok)
	assert.Equal(t, "/srv/web/compose.yml", web.ComposeFile)
	assert.NotNil(t, cfg.Variables)
	assert.Equal(t, 0, cfg.Variables.Len())
}

func TestParseWorkspaceConfig_JSONEscapes(t *testing.T) {
	doc := `{"name":"a","variables":{"URL":"http:\/\/x\/y","ICON":"\ud83d\ude80"},"components":{"web":{"path":"\/srv\/web"}}}`
	cfg, err := ParseWorkspaceConfig([]byte(doc))
	require.NoError(t, err)

	url, _ := cfg.Variables.Get("URL")
	assert.Equal(t, "http://x/y", url)
	icon, _ := cfg.Variables.Get("ICON")
	assert.Equal(t, "🚀", icon)
	web, _ := cfg.Components.Get("web")
	assert.Equal(t, "/srv/web", web.Path)
}

func TestParseWorkspaceConfig_JSONSnakeCaseKeys(t *testing.T) {
	doc := `{"components": {"web": {"path": "/w", "is_template": true, "exec_path": "/app", "compose_file": "/w/c.yml"}}}`
	cfg, err := ParseWorkspaceConfig([]byte(doc))
	require.NoError(t, err)

	web, _ := cfg.Components.Get("web")
	assert.True(t, web.IsTemplate)
	assert.Equal(t, "/app", web.ExecPath)
	assert.Equal(t, "/w/c.yml", web.ComposeFile)
}

func TestParseWorkspaceConfig_FlowYAML(t *testing.T) {
	cfg, err := ParseWorkspaceConfig([]byte(`{name: acme, components: {web: {path: /srv/web}}}`))
	require.NoError(t, err)

	assert.Equal(t, "acme", cfg.Name)
	assert.Equal(t, []string{"web"}, cfg.ComponentNames())
}

func TestParseWorkspaceConfig_Empty(t *testing.T) {
	_, err := ParseWorkspaceConfig([]byte("  \n"))
	assert.ErrorIs(t, err, ErrEmptyDescriptor)
}

func TestParseWorkspaceConfig_Malformed(t *testing.T) {
	_, err := ParseWorkspaceConfig([]byte(`{"components": [}`))
	assert.Error(t, err)
}

func TestParseWorkspaceConfig_UnknownMode(t *testing.T) {
	doc := `{"components": {"web": {"path": "/w", "dependencies": {"redis": ["deploy"]}}}}`
	_, err := ParseWorkspaceConfig([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deploy")
}

// =============================================================================
// Workspace Merge Tests
// =============================================================================

func TestWorkspaceConfig_MergeOverlay(t *testing.T) {
	base, err := ParseWorkspaceConfig([]byte(sampleDescriptor))
	require.NoError(t, err)

	overlay, err := ParseWorkspaceConfig([]byte(`{
		"variables": {"DB_HOST": "localhost", "DEBUG": "1"},
		"components": {
			"web": {"tags": ["local"], "dependencies": {"redis": ["hook"]}},
			"adminer": {"path": "/srv/adminer"}
		}
	}`))
	require.NoError(t, err)

	merged := base.Merge(overlay)

	assert.Equal(t, "acme", merged.Name)
	assert.Equal(t, "1.0", merged.Version)
	assert.Equal(t, []string{"ROOT", "DB_HOST", "DEBUG"}, merged.Variables.Keys())
	host, _ := merged.Variables.Get("DB_HOST")
	assert.Equal(t, "localhost", host)

	assert.Equal(t, []string{"php", "web", "redis", "adminer"}, merged.ComponentNames())
	web, _ := merged.Components.Get("web")
	assert.Equal(t, "${ROOT}/web", web.Path)
	assert.Equal(t, []string{"frontend", "local"}, web.Tags)
	redis, _ := web.Dependencies.Get("redis")
	assert.Equal(t, ModeList{ModeDefault, ModeHook}, redis)

	// base untouched
	baseWeb, _ := base.Components.Get("web")
	assert.Equal(t, []string{"frontend"}, baseWeb.Tags)
	assert.False(t, base.Components.Has("adminer"))
}

func TestWorkspaceConfig_MergeNil(t *testing.T) {
	base, err := ParseWorkspaceConfig([]byte(sampleDescriptor))
	require.NoError(t, err)

	merged := base.Merge(nil)
	assert.Equal(t, base.ComponentNames(), merged.ComponentNames())
}

// =============================================================================
// Error Tests
// =============================================================================

func TestReferenceError_ListsKnownNames(t *testing.T) {
	err := NewReferenceError("extending component web", "component", "tpl", []string{"web", "redis"})

	assert.True(t, errors.Is(err, ErrReference))
	assert.Contains(t, err.Error(), `"tpl"`)
	assert.Contains(t, err.Error(), "Known components: web, redis")
}

func TestErrorTaxonomy_Sentinels(t *testing.T) {
	ioErr := NewIOError("read", "/x", errors.New("denied"))
	cfgErr := NewConfigError("/x/uniform.json", "cannot read descriptor", ioErr)

	assert.ErrorIs(t, cfgErr, ErrConfig)
	assert.ErrorIs(t, cfgErr, ErrIO)
	assert.NotErrorIs(t, cfgErr, ErrState)

	assert.ErrorIs(t, NewStateError("exec", "php", "is a template", nil), ErrState)
	assert.ErrorIs(t, &CycleError{Path: []string{"a", "b", "a"}}, ErrCycle)

	toolErr := NewExternalToolError([]string{"docker", "compose", "up"}, 1, "boom\n", nil)
	assert.ErrorIs(t, toolErr, ErrExternalTool)
	assert.Equal(t, "docker compose up: exit code 1: boom", toolErr.Error())
}

func TestCycleError_Message(t *testing.T) {
	err := &CycleError{Path: []string{"a", "b", "a"}}
	assert.Equal(t, "dependency cycle detected: a -> b -> a", err.Error())
}
