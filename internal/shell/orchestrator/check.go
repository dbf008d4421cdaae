package orchestrator

import (
	"context"
	"os"
	"path/filepath"

	composespec "github.com/artpar/uniform/internal/core/compose"
	"github.com/artpar/uniform/internal/core/domain"
	"github.com/artpar/uniform/internal/core/workspace"
)

// CheckResult is what Check learned about one component's compose file.
type CheckResult struct {
	Component   string
	ComposeFile string
	Spec        *composespec.ParsedSpec
	// MissingVariables are referenced without a default and absent from
	// the component context.
	MissingVariables []string
	// ExecServiceErr is set when the exec service is not defined.
	ExecServiceErr error
}

// Check loads the compose file of c with its context as interpolation
// environment. Read failures are IOErrors; parse failures are
// ConfigErrors naming the file.
func (o *Orchestrator) Check(ctx context.Context, c *workspace.Component) (*CheckResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkExecutable(c); err != nil {
		return nil, err
	}
	if err := workspace.ValidateContext(c.Name, c.Context); err != nil {
		return nil, err
	}

	file := c.ComposeFile()
	content, err := os.ReadFile(file)
	if err != nil {
		return nil, domain.NewIOError("read", file, err)
	}

	env := make(map[string]string, c.Context.Len())
	c.Context.Each(func(k, v string) { env[k] = v })

	spec, err := composespec.ParseComposeSpec(string(content), composespec.LoadOptions{
		ProjectName: c.ProjectName(),
		Filename:    file,
		WorkingDir:  filepath.Dir(file),
		Environment: env,
	})
	if err != nil {
		return nil, domain.NewConfigError(file, "invalid compose file", err)
	}

	result := &CheckResult{
		Component:        c.Name,
		ComposeFile:      file,
		Spec:             spec,
		MissingVariables: composespec.MissingVariables(string(content), env),
		ExecServiceErr:   composespec.RequireService(spec, o.execService),
	}
	o.logger.Debug("checked compose file",
		"service", c.Name,
		"compose_file", file,
		"services", len(spec.Services),
		"missing_variables", len(result.MissingVariables),
	)
	return result, nil
}
