// Package workspace resolves component templates and builds the ordered
// variable context of every component in a workspace.
// This is part of the Functional Core - all functions are pure with no I/O.
package workspace

import (
	"fmt"
	"strings"

	"github.com/artpar/uniform/internal/core/domain"
	"github.com/artpar/uniform/internal/core/variables"
)

// Context keys inserted by the builder.
const (
	KeyWorkspacePath      = "WORKSPACE_PATH"
	KeyWorkspaceName      = "WORKSPACE_NAME"
	KeyAppName            = "APP_NAME"
	KeyComposeProjectName = "COMPOSE_PROJECT_NAME"
	KeySvcPath            = "SVC_PATH"
	KeyTplPath            = "TPL_PATH"
	KeyComposeFile        = "COMPOSE_FILE"
	KeyUserID             = "USER_ID"
	KeyGroupID            = "GROUP_ID"
)

// RequiredKeys must be present in every component context before a
// lifecycle operation runs.
var RequiredKeys = []string{KeyAppName, KeyComposeProjectName, KeySvcPath, KeyComposeFile}

const (
	defaultTemplateComposeFile = "${TPL_PATH}/docker-compose.yml"
	defaultServiceComposeFile  = "${SVC_PATH}/docker-compose.yml"
)

// =============================================================================
// Context Builder
// =============================================================================

// BuildWorkspaceContext builds the context shared by all components:
// WORKSPACE_PATH, then WORKSPACE_NAME and the workspace variables in
// declaration order when cfg is present. root is normalized to forward
// slashes.
func BuildWorkspaceContext(root string, cfg *domain.WorkspaceConfig) *domain.Context {
	ctx := domain.NewContext()
	ctx.Set(KeyWorkspacePath, strings.ReplaceAll(root, `\`, "/"))

	if cfg != nil {
		ctx.Set(KeyWorkspaceName, cfg.Name)
		variables.InsertAll(ctx, cfg.Variables)
	}
	return ctx
}

// ResolveTemplate returns the template named by cfg.Extends, or nil when
// the component does not extend anything. The template's fields are never
// merged into cfg.
func ResolveTemplate(name string, cfg domain.ComponentConfig, components *domain.Components) (*domain.ComponentConfig, error) {
	if cfg.Extends == "" {
		return nil, nil
	}
	tpl, ok := components.Get(cfg.Extends)
	if !ok {
		return nil, domain.NewReferenceError(
			fmt.Sprintf("extending component %s from %s", name, cfg.Extends),
			"component", cfg.Extends, components.Keys(),
		)
	}
	tpl = tpl.Clone()
	return &tpl, nil
}

// BuildComponentContext layers the component's variables over the
// workspace context. Each value is substituted against the context
// accumulated so far, so later entries see earlier ones but not the
// reverse. tpl is the resolved extends target or nil. wsName is the
// descriptor name; a workspace variable named WORKSPACE_NAME does not
// change the compose project.
//
// Order:
//  1. workspace context (cloned)
//  2. APP_NAME, COMPOSE_PROJECT_NAME, SVC_PATH from the component's own path
//  3. with a template: TPL_PATH, COMPOSE_FILE from the template, template variables
//  4. COMPOSE_FILE from the component, or ${SVC_PATH}/docker-compose.yml if still unset
//  5. component variables
func BuildComponentContext(name string, cfg domain.ComponentConfig, tpl *domain.ComponentConfig, wsName string, wsCtx *domain.Context) (*domain.Context, error) {
	if cfg.Path == "" {
		return nil, domain.NewConfigError(name, "component path is required", nil)
	}

	ctx := wsCtx.Clone()

	ctx.Set(KeyAppName, name)
	ctx.Set(KeyComposeProjectName, wsName+"-"+name)
	variables.Insert(ctx, KeySvcPath, cfg.Path)

	if tpl != nil {
		if tpl.Path == "" {
			return nil, domain.NewConfigError(name, fmt.Sprintf("template %s has no path", cfg.Extends), nil)
		}
		variables.Insert(ctx, KeyTplPath, tpl.Path)
		variables.Insert(ctx, KeyComposeFile, firstNonEmpty(tpl.ComposeFile, defaultTemplateComposeFile))
		variables.InsertAll(ctx, tpl.Variables)
	}

	if cfg.ComposeFile != "" {
		variables.Insert(ctx, KeyComposeFile, cfg.ComposeFile)
	} else if !ctx.Has(KeyComposeFile) {
		variables.Insert(ctx, KeyComposeFile, defaultServiceComposeFile)
	}

	variables.InsertAll(ctx, cfg.Variables)

	return ctx, nil
}

// ValidateContext checks that ctx carries every RequiredKeys entry.
func ValidateContext(name string, ctx *domain.Context) error {
	var missing []string
	for _, key := range RequiredKeys {
		if !ctx.Has(key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return domain.NewConfigError(name, "missing context variables: "+strings.Join(missing, ", "), domain.ErrMissingContext)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
