package compose

import (
	"context"
	"log/slog"

	"github.com/artpar/uniform/internal/core/domain"
	"github.com/artpar/uniform/internal/core/workspace"
)

// DefaultBinary is the container tool invoked when none is configured.
const DefaultBinary = "docker"

// =============================================================================
// Client
// =============================================================================

// Client builds `<binary> compose -f <COMPOSE_FILE> ...` invocations for a
// component and hands them to an Executor.
type Client struct {
	binary string
	exec   Executor
	dryRun bool
	dir    string
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithDryRun makes every invocation return empty output without spawning.
func WithDryRun(dryRun bool) Option {
	return func(c *Client) { c.dryRun = dryRun }
}

// WithDir sets the working directory of spawned processes.
func WithDir(dir string) Option {
	return func(c *Client) { c.dir = dir }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a Client. An empty binary means DefaultBinary.
func NewClient(binary string, exec Executor, opts ...Option) *Client {
	if binary == "" {
		binary = DefaultBinary
	}
	c := &Client{
		binary: binary,
		exec:   exec,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "compose")
	return c
}

// DryRun reports whether invocations are short-circuited.
func (c *Client) DryRun() bool {
	return c.dryRun
}

// Invocation builds the call for comp without running it.
func (c *Client) Invocation(comp *workspace.Component, interactive bool, args ...string) Invocation {
	argv := make([]string, 0, len(args)+3)
	argv = append(argv, "compose", "-f", comp.ComposeFile())
	argv = append(argv, args...)
	return Invocation{
		Program:     c.binary,
		Args:        argv,
		Context:     comp.Context,
		Dir:         c.dir,
		Interactive: interactive,
	}
}

// Run invokes the compose subcommand for comp with the component context
// as environment. Captured runs return stdout; interactive runs return "".
func (c *Client) Run(ctx context.Context, comp *workspace.Component, interactive bool, args ...string) (string, error) {
	if err := workspace.ValidateContext(comp.Name, comp.Context); err != nil {
		return "", err
	}

	inv := c.Invocation(comp, interactive, args...)
	c.logger.Debug("invoking",
		"service", comp.Name,
		"compose_file", comp.ComposeFile(),
		"args", inv.String(),
		"interactive", interactive,
		"dry_run", c.dryRun,
	)
	if c.dryRun {
		return "", nil
	}
	c.logger.Debug("environment", "service", comp.Name, "env", domain.Environ(comp.Context))

	out, err := c.exec.Run(ctx, inv)
	if err != nil {
		c.logger.Debug("invocation failed", "service", comp.Name, "error", err)
		return out, err
	}
	return out, nil
}
